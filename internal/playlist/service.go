package playlist

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"videolib/internal/record"
)

var (
	ErrNotFound   = errors.New("playlist not found")
	ErrConflict   = errors.New("video already in playlist")
	ErrValidation = errors.New("invalid playlist request")
)

type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

func (e *ValidationError) Unwrap() error { return ErrValidation }

func invalid(msg string) error {
	return &ValidationError{Message: msg}
}

// Playlist references videos by ID only; nothing checks that the videos still exist.
type Playlist struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	VideoIDs    []string  `json:"videoIds"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// Changes holds the fields of an update request; nil means "leave as is".
type Changes struct {
	Name        *string
	Description *string
}

type Service struct {
	store *record.Store[Playlist]
	now   func() time.Time
}

func NewService(repo record.Repository) *Service {
	return &Service{store: record.NewStore[Playlist](repo), now: time.Now}
}

func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

func (s *Service) Repository() record.Repository { return s.store.Repository() }

// List returns every playlist, newest first.
func (s *Service) List(ctx context.Context) ([]Playlist, error) {
	out, err := s.store.List(ctx)
	if err != nil {
		return nil, err
	}
	for i := range out {
		if out[i].VideoIDs == nil {
			out[i].VideoIDs = []string{}
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (s *Service) Get(ctx context.Context, id string) (Playlist, error) {
	if strings.TrimSpace(id) == "" {
		return Playlist{}, invalid("Playlist ID is required")
	}
	pl, err := s.store.Get(ctx, id)
	if errors.Is(err, record.ErrNotFound) || errors.Is(err, record.ErrInvalidID) {
		return Playlist{}, ErrNotFound
	}
	if err != nil {
		return Playlist{}, err
	}
	if pl.VideoIDs == nil {
		pl.VideoIDs = []string{}
	}
	return pl, nil
}

func (s *Service) Create(ctx context.Context, name, description string) (Playlist, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Playlist{}, invalid("Playlist name is required")
	}
	now := s.now().UTC()
	pl := Playlist{
		ID:          newID(now),
		Name:        name,
		Description: strings.TrimSpace(description),
		VideoIDs:    []string{},
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.store.Put(ctx, pl.ID, pl); err != nil {
		return Playlist{}, fmt.Errorf("write playlist: %w", err)
	}
	return pl, nil
}

// Update applies only the fields present in ch and always advances UpdatedAt.
func (s *Service) Update(ctx context.Context, id string, ch Changes) (Playlist, error) {
	return s.modify(ctx, id, func(pl *Playlist) error {
		if ch.Name != nil {
			name := strings.TrimSpace(*ch.Name)
			if name == "" {
				return invalid("Playlist name cannot be empty")
			}
			pl.Name = name
		}
		if ch.Description != nil {
			pl.Description = strings.TrimSpace(*ch.Description)
		}
		return nil
	})
}

func (s *Service) AddVideo(ctx context.Context, id, videoID string) (Playlist, error) {
	if err := requireIDs(id, videoID); err != nil {
		return Playlist{}, err
	}
	return s.modify(ctx, id, func(pl *Playlist) error {
		for _, v := range pl.VideoIDs {
			if v == videoID {
				return ErrConflict
			}
		}
		pl.VideoIDs = append(pl.VideoIDs, videoID)
		return nil
	})
}

// RemoveVideo is idempotent: removing an absent video only touches UpdatedAt.
func (s *Service) RemoveVideo(ctx context.Context, id, videoID string) (Playlist, error) {
	if err := requireIDs(id, videoID); err != nil {
		return Playlist{}, err
	}
	return s.modify(ctx, id, func(pl *Playlist) error {
		kept := make([]string, 0, len(pl.VideoIDs))
		for _, v := range pl.VideoIDs {
			if v != videoID {
				kept = append(kept, v)
			}
		}
		pl.VideoIDs = kept
		return nil
	})
}

func (s *Service) Delete(ctx context.Context, id string) error {
	if strings.TrimSpace(id) == "" {
		return invalid("Playlist ID is required")
	}
	err := s.store.Delete(ctx, id)
	if errors.Is(err, record.ErrNotFound) || errors.Is(err, record.ErrInvalidID) {
		return ErrNotFound
	}
	return err
}

// modify is an unlocked read-modify-write; concurrent calls on one playlist can lose updates.
func (s *Service) modify(ctx context.Context, id string, apply func(*Playlist) error) (Playlist, error) {
	pl, err := s.Get(ctx, id)
	if err != nil {
		return Playlist{}, err
	}
	if err := apply(&pl); err != nil {
		return Playlist{}, err
	}
	pl.UpdatedAt = s.now().UTC()
	if err := s.store.Put(ctx, id, pl); err != nil {
		return Playlist{}, fmt.Errorf("write playlist: %w", err)
	}
	return pl, nil
}

func requireIDs(id, videoID string) error {
	if strings.TrimSpace(id) == "" || strings.TrimSpace(videoID) == "" {
		return invalid("Playlist ID and Video ID are required")
	}
	return nil
}

// newID builds "playlist_<unix-ms>_<9 random lowercase alphanumerics>".
func newID(now time.Time) string {
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:9]
	return fmt.Sprintf("playlist_%d_%s", now.UnixMilli(), suffix)
}
