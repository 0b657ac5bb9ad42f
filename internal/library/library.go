package library

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"videolib/internal/record"
)

type Dirs struct {
	Videos    string
	Images    string
	Playlists string
}

// Export is the whole-library dump served by the export endpoint.
type Export struct {
	ExportedAt time.Time         `json:"exportedAt"`
	Videos     []json.RawMessage `json:"videos"`
	Playlists  []json.RawMessage `json:"playlists"`
	Images     []string          `json:"images"`
}

// Service runs maintenance across every collection at once.
type Service struct {
	dirs      Dirs
	videoMeta record.Repository
	playlists record.Repository
	now       func() time.Time
}

func NewService(dirs Dirs, videoMeta, playlists record.Repository) *Service {
	return &Service{dirs: dirs, videoMeta: videoMeta, playlists: playlists, now: time.Now}
}

func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// Clear empties the videos, images and playlists directories and the record
// collections behind them. The credential file is left alone.
func (s *Service) Clear(ctx context.Context) error {
	for _, dir := range []string{s.dirs.Videos, s.dirs.Images, s.dirs.Playlists} {
		if err := emptyDir(dir); err != nil {
			return err
		}
	}
	if err := record.Clear(ctx, s.videoMeta); err != nil {
		return fmt.Errorf("clear video metadata: %w", err)
	}
	if err := record.Clear(ctx, s.playlists); err != nil {
		return fmt.Errorf("clear playlists: %w", err)
	}
	return nil
}

func (s *Service) Export(ctx context.Context) (Export, error) {
	out := Export{
		ExportedAt: s.now().UTC(),
		Videos:     []json.RawMessage{},
		Playlists:  []json.RawMessage{},
		Images:     []string{},
	}
	var err error
	if out.Videos, err = rawDocuments(ctx, s.videoMeta); err != nil {
		return Export{}, fmt.Errorf("export videos: %w", err)
	}
	if out.Playlists, err = rawDocuments(ctx, s.playlists); err != nil {
		return Export{}, fmt.Errorf("export playlists: %w", err)
	}
	if out.Images, err = visibleFiles(s.dirs.Images); err != nil {
		return Export{}, fmt.Errorf("export images: %w", err)
	}
	return out, nil
}

func rawDocuments(ctx context.Context, repo record.Repository) ([]json.RawMessage, error) {
	docs, err := repo.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]json.RawMessage, 0, len(docs))
	for _, d := range docs {
		if !json.Valid(d.Body) {
			return nil, fmt.Errorf("record %s is not valid JSON", d.ID)
		}
		out = append(out, json.RawMessage(d.Body))
	}
	return out, nil
}

func visibleFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return []string{}, nil
		}
		return nil, err
	}
	names := []string{}
	for _, e := range entries {
		if !strings.HasPrefix(e.Name(), ".") {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)
	return names, nil
}

func emptyDir(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("read %s: %w", dir, err)
	}
	for _, e := range entries {
		if err := os.RemoveAll(filepath.Join(dir, e.Name())); err != nil {
			return fmt.Errorf("remove %s: %w", e.Name(), err)
		}
	}
	return nil
}
