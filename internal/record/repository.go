package record

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

var (
	ErrNotFound  = errors.New("record not found")
	ErrInvalidID = errors.New("invalid record id")
)

// Document is one raw JSON record inside a collection.
type Document struct {
	ID   string
	Body []byte
}

// Repository persists raw JSON documents of a single collection keyed by ID.
type Repository interface {
	List(ctx context.Context) ([]Document, error)
	Get(ctx context.Context, id string) ([]byte, error)
	Put(ctx context.Context, id string, body []byte) error
	Delete(ctx context.Context, id string) error
}

// ValidateID rejects IDs that cannot double as a plain file name.
func ValidateID(id string) error {
	switch {
	case strings.TrimSpace(id) == "":
		return ErrInvalidID
	case id == "." || id == "..":
		return ErrInvalidID
	case strings.HasPrefix(id, "."):
		return ErrInvalidID
	case strings.ContainsAny(id, `/\`):
		return ErrInvalidID
	case strings.ContainsRune(id, 0):
		return ErrInvalidID
	}
	return nil
}

// Store is a typed view over a Repository.
type Store[T any] struct {
	repo Repository
}

func NewStore[T any](repo Repository) *Store[T] {
	return &Store[T]{repo: repo}
}

func (s *Store[T]) Repository() Repository {
	return s.repo
}

// List decodes every record. One undecodable document fails the whole listing.
func (s *Store[T]) List(ctx context.Context) ([]T, error) {
	docs, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]T, 0, len(docs))
	for _, d := range docs {
		var v T
		if err := json.Unmarshal(d.Body, &v); err != nil {
			return nil, fmt.Errorf("decode record %s: %w", d.ID, err)
		}
		out = append(out, v)
	}
	return out, nil
}

func (s *Store[T]) Get(ctx context.Context, id string) (T, error) {
	var v T
	body, err := s.repo.Get(ctx, id)
	if err != nil {
		return v, err
	}
	if err := json.Unmarshal(body, &v); err != nil {
		return v, fmt.Errorf("decode record %s: %w", id, err)
	}
	return v, nil
}

func (s *Store[T]) Put(ctx context.Context, id string, v T) error {
	body, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encode record %s: %w", id, err)
	}
	return s.repo.Put(ctx, id, body)
}

func (s *Store[T]) Delete(ctx context.Context, id string) error {
	return s.repo.Delete(ctx, id)
}

// Clear deletes every record currently listed. Records that vanish in between are ignored.
func Clear(ctx context.Context, repo Repository) error {
	docs, err := repo.List(ctx)
	if err != nil {
		return err
	}
	for _, d := range docs {
		if err := repo.Delete(ctx, d.ID); err != nil && !errors.Is(err, ErrNotFound) {
			return err
		}
	}
	return nil
}
