package account

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

var (
	ErrValidation         = errors.New("username and password are required")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrNoAccounts         = errors.New("no users found")
)

// Account is one entry of the credential file. Passwords are kept in plain text.
type Account struct {
	Username string `json:"username"`
	Password string `json:"password"`
	IsAdmin  bool   `json:"isAdmin"`
}

// User is the public view of an authenticated account.
type User struct {
	Username string `json:"username"`
	IsAdmin  bool   `json:"isAdmin"`
}

type LoginResult struct {
	User    User
	Created bool
	Message string
}

// Store keeps every account in a single JSON array file.
type Store struct {
	path string
}

func NewStore(path string) *Store {
	return &Store{path: path}
}

func (s *Store) Path() string {
	return s.path
}

func (s *Store) load() ([]Account, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("read users: %w", err)
	}
	if len(data) == 0 {
		return nil, nil
	}
	var accounts []Account
	if err := json.Unmarshal(data, &accounts); err != nil {
		return nil, fmt.Errorf("decode users: %w", err)
	}
	return accounts, nil
}

func (s *Store) save(accounts []Account) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("mkdir: %w", err)
	}
	data, err := json.MarshalIndent(accounts, "", "  ")
	if err != nil {
		return fmt.Errorf("encode users: %w", err)
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("write users: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("rename users: %w", err)
	}
	return nil
}

func (s *Store) HasAccounts() (bool, error) {
	accounts, err := s.load()
	if err != nil {
		return false, err
	}
	return len(accounts) > 0, nil
}

// Login registers the very first caller as administrator; afterwards it
// authenticates against the stored accounts, first match wins.
func (s *Store) Login(username, password string) (LoginResult, error) {
	if username == "" || password == "" {
		return LoginResult{}, ErrValidation
	}
	accounts, err := s.load()
	if err != nil {
		return LoginResult{}, err
	}
	if len(accounts) == 0 {
		admin := Account{Username: username, Password: password, IsAdmin: true}
		if err := s.save(append(accounts, admin)); err != nil {
			return LoginResult{}, err
		}
		return LoginResult{
			User:    User{Username: username, IsAdmin: true},
			Created: true,
			Message: "Admin account created successfully!",
		}, nil
	}
	for _, a := range accounts {
		if a.Username == username && a.Password == password {
			return LoginResult{
				User:    User{Username: a.Username, IsAdmin: a.IsAdmin},
				Message: "Login successful!",
			}, nil
		}
	}
	return LoginResult{}, ErrInvalidCredentials
}

// Delete verifies the credentials and then removes the whole credential file,
// which resets authentication for every account.
func (s *Store) Delete(username, password string) error {
	if username == "" || password == "" {
		return ErrValidation
	}
	if _, err := os.Stat(s.path); errors.Is(err, os.ErrNotExist) {
		return ErrNoAccounts
	}
	accounts, err := s.load()
	if err != nil {
		return err
	}
	var found *Account
	for i := range accounts {
		if accounts[i].Username == username {
			found = &accounts[i]
			break
		}
	}
	if found == nil || found.Password != password {
		return ErrInvalidCredentials
	}
	if err := os.Remove(s.path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return ErrNoAccounts
		}
		return fmt.Errorf("remove users: %w", err)
	}
	return nil
}
