package api

import (
	"errors"
	"net/http"

	"videolib/internal/account"
	"videolib/internal/auth"
	"videolib/internal/events"
)

type credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req credentials
	if err := decodeJSON(r, &req); err != nil {
		errorJSON(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}
	res, err := s.Accounts.Login(req.Username, req.Password)
	switch {
	case errors.Is(err, account.ErrValidation):
		errorJSON(w, http.StatusBadRequest, "Username and password are required")
		return
	case errors.Is(err, account.ErrInvalidCredentials):
		errorJSON(w, http.StatusUnauthorized, "Invalid credentials")
		return
	case err != nil:
		s.fail(w, err, "Failed to log in")
		return
	}
	token, err := s.Tokens.IssueToken(res.User.Username, res.User.IsAdmin)
	if err != nil {
		s.fail(w, err, "Failed to log in")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": res.Message,
		"user":    res.User,
		"token":   token,
	})
}

func (s *Server) handleAuthStatus(w http.ResponseWriter, r *http.Request) {
	ok, err := s.Accounts.HasAccounts()
	if err != nil {
		s.fail(w, err, "Failed to read accounts")
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"hasAccounts": ok})
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	c := auth.ClaimsFromContext(r.Context())
	writeJSON(w, http.StatusOK, map[string]any{
		"user": account.User{Username: c.Username, IsAdmin: c.IsAdmin},
	})
}

func (s *Server) handleDeleteAccount(w http.ResponseWriter, r *http.Request) {
	var req credentials
	if err := decodeJSON(r, &req); err != nil {
		errorJSON(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}
	err := s.Accounts.Delete(req.Username, req.Password)
	switch {
	case errors.Is(err, account.ErrValidation):
		errorJSON(w, http.StatusBadRequest, "Username and password are required")
		return
	case errors.Is(err, account.ErrNoAccounts):
		errorJSON(w, http.StatusNotFound, "No users found")
		return
	case errors.Is(err, account.ErrInvalidCredentials):
		errorJSON(w, http.StatusUnauthorized, "Invalid credentials")
		return
	case err != nil:
		s.fail(w, err, "Failed to delete account")
		return
	}
	s.emit(r.Context(), events.AccountDeleted, map[string]string{"username": req.Username})
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "message": "Account deleted successfully"})
}
