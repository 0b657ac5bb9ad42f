package video

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/rs/zerolog"

	"videolib/internal/record"
)

var (
	ErrNotFound   = errors.New("video not found")
	ErrValidation = errors.New("invalid video request")
)

// ValidationError carries the user-facing reason of a rejected request.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

func (e *ValidationError) Unwrap() error { return ErrValidation }

func invalid(msg string) error {
	return &ValidationError{Message: msg}
}

type Video struct {
	ID         string    `json:"id"`
	Title      string    `json:"title"`
	Filename   string    `json:"filename"`
	URL        string    `json:"url"`
	Thumbnail  string    `json:"thumbnail,omitempty"`
	UploadedAt time.Time `json:"uploadedAt"`
	Size       int64     `json:"size"`
	Type       string    `json:"type,omitempty"`
}

// Metadata is the side-car record stored next to a video binary.
type Metadata struct {
	Title      string     `json:"title"`
	Thumbnail  string     `json:"thumbnail,omitempty"`
	UploadedAt *time.Time `json:"uploadedAt,omitempty"`
	UpdatedAt  *time.Time `json:"updatedAt,omitempty"`
}

// Payload is one uploaded file part.
type Payload struct {
	Name        string
	ContentType string
	Body        io.Reader
}

type UploadInput struct {
	Title     string
	Video     *Payload
	Thumbnail *Payload
}

type Service struct {
	videosDir string
	imagesDir string
	meta      *record.Store[Metadata]
	log       zerolog.Logger
	now       func() time.Time
}

// NewService manages video binaries in videosDir, thumbnails in imagesDir and
// side-car metadata in meta, keyed by the video's base name.
func NewService(videosDir, imagesDir string, meta record.Repository, log zerolog.Logger) *Service {
	return &Service{
		videosDir: videosDir,
		imagesDir: imagesDir,
		meta:      record.NewStore[Metadata](meta),
		log:       log,
		now:       time.Now,
	}
}

// WithClock replaces the time source; used by tests.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

func (s *Service) VideosDir() string { return s.videosDir }

func (s *Service) ImagesDir() string { return s.imagesDir }

// Metadata exposes the side-car collection.
func (s *Service) Metadata() record.Repository { return s.meta.Repository() }

// List returns every recognised video binary, newest first.
func (s *Service) List(ctx context.Context) ([]Video, error) {
	entries, err := os.ReadDir(s.videosDir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return []Video{}, nil
		}
		return nil, fmt.Errorf("read videos dir: %w", err)
	}

	videos := make([]Video, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || !isVideo(e.Name()) || !validFilename(e.Name()) {
			continue
		}
		info, err := e.Info()
		if err != nil {
			return nil, fmt.Errorf("stat %s: %w", e.Name(), err)
		}
		v, err := s.describe(ctx, e.Name(), info)
		if err != nil {
			return nil, err
		}
		videos = append(videos, v)
	}

	sort.SliceStable(videos, func(i, j int) bool {
		if videos[i].UploadedAt.Equal(videos[j].UploadedAt) {
			return videos[i].Filename > videos[j].Filename
		}
		return videos[i].UploadedAt.After(videos[j].UploadedAt)
	})
	return videos, nil
}

func (s *Service) describe(ctx context.Context, filename string, info os.FileInfo) (Video, error) {
	v := Video{
		ID:         filename,
		Title:      filename,
		Filename:   filename,
		URL:        videoURL(filename),
		UploadedAt: info.ModTime().UTC(),
		Size:       info.Size(),
		Type:       typeForExt(filename),
	}

	meta, err := s.meta.Get(ctx, baseName(filename))
	switch {
	case err == nil:
		if meta.Title != "" {
			v.Title = meta.Title
		}
		v.Thumbnail = meta.Thumbnail
		return v, nil
	case errors.Is(err, record.ErrNotFound), errors.Is(err, record.ErrInvalidID):
	default:
		// An unreadable side-car keeps the raw file name as title.
		s.log.Warn().Err(err).Str("file", filename).Msg("read video metadata")
		return v, nil
	}

	v.Title = parseTitle(filename)
	thumb, err := findThumbnail(s.imagesDir, filename)
	if err != nil {
		return Video{}, fmt.Errorf("read images dir: %w", err)
	}
	if thumb != "" {
		v.Thumbnail = imageURL(thumb)
	}
	return v, nil
}

// Upload stores a new video, its optional thumbnail and a side-car. Nothing is
// written when validation fails; a failure after the first write is not rolled back.
func (s *Service) Upload(ctx context.Context, in UploadInput) (Video, error) {
	if in.Video == nil || in.Title == "" {
		return Video{}, invalid("Missing file or title")
	}
	if !videoTypes[in.Video.ContentType] {
		return Video{}, invalid("Invalid video file type. Please upload MP4, WebM, or OGG files.")
	}
	if in.Thumbnail != nil && !imageTypes[in.Thumbnail.ContentType] {
		return Video{}, invalid("Invalid thumbnail type. Please upload JPEG, PNG, or WebP images.")
	}

	for _, dir := range []string{s.videosDir, s.imagesDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return Video{}, fmt.Errorf("mkdir %s: %w", dir, err)
		}
	}

	now := s.now().UTC()
	filename := assetName(now, in.Title, filepath.Ext(in.Video.Name))
	size, err := writeFile(filepath.Join(s.videosDir, filename), in.Video.Body)
	if err != nil {
		return Video{}, fmt.Errorf("write video: %w", err)
	}

	thumbURL := ""
	if in.Thumbnail != nil {
		thumbName := thumbPrefix(filename) + filepath.Ext(in.Thumbnail.Name)
		if _, err := writeFile(filepath.Join(s.imagesDir, thumbName), in.Thumbnail.Body); err != nil {
			return Video{}, fmt.Errorf("write thumbnail: %w", err)
		}
		thumbURL = imageURL(thumbName)
	}

	meta := Metadata{Title: in.Title, Thumbnail: thumbURL, UploadedAt: &now}
	if err := s.meta.Put(ctx, baseName(filename), meta); err != nil {
		return Video{}, fmt.Errorf("write metadata: %w", err)
	}

	return Video{
		ID:         filename,
		Title:      in.Title,
		Filename:   filename,
		URL:        videoURL(filename),
		Thumbnail:  thumbURL,
		UploadedAt: now,
		Size:       size,
		Type:       in.Video.ContentType,
	}, nil
}

// Update rewrites the side-car of an existing video and optionally replaces its thumbnail.
// The video binary is never renamed, so the ID stays stable.
func (s *Service) Update(ctx context.Context, filename, title string, thumbnail *Payload) (Video, error) {
	if filename == "" {
		return Video{}, invalid("Filename required")
	}
	if title == "" {
		return Video{}, invalid("Title is required")
	}
	if thumbnail != nil && !imageTypes[thumbnail.ContentType] {
		return Video{}, invalid("Invalid thumbnail type. Please upload JPEG, PNG, or WebP images.")
	}

	info, err := s.locate(filename)
	if err != nil {
		return Video{}, err
	}

	existing, err := findThumbnail(s.imagesDir, filename)
	if err != nil {
		return Video{}, fmt.Errorf("read images dir: %w", err)
	}

	thumbURL := ""
	if thumbnail != nil {
		if existing != "" {
			if err := os.Remove(filepath.Join(s.imagesDir, existing)); err != nil && !errors.Is(err, os.ErrNotExist) {
				return Video{}, fmt.Errorf("remove old thumbnail: %w", err)
			}
		}
		if err := os.MkdirAll(s.imagesDir, 0o755); err != nil {
			return Video{}, fmt.Errorf("mkdir %s: %w", s.imagesDir, err)
		}
		thumbName := thumbPrefix(filename) + filepath.Ext(thumbnail.Name)
		if _, err := writeFile(filepath.Join(s.imagesDir, thumbName), thumbnail.Body); err != nil {
			return Video{}, fmt.Errorf("write thumbnail: %w", err)
		}
		thumbURL = imageURL(thumbName)
	} else if existing != "" {
		thumbURL = imageURL(existing)
	}

	id := baseName(filename)
	meta := Metadata{Title: title, Thumbnail: thumbURL}
	if prev, err := s.meta.Get(ctx, id); err == nil {
		meta.UploadedAt = prev.UploadedAt
	}
	now := s.now().UTC()
	meta.UpdatedAt = &now
	if err := s.meta.Put(ctx, id, meta); err != nil {
		return Video{}, fmt.Errorf("write metadata: %w", err)
	}

	return Video{
		ID:         filename,
		Title:      title,
		Filename:   filename,
		URL:        videoURL(filename),
		Thumbnail:  thumbURL,
		UploadedAt: info.ModTime().UTC(),
		Size:       info.Size(),
		Type:       typeForExt(filename),
	}, nil
}

// Delete removes only the video binary. Side-car and thumbnail stay behind.
func (s *Service) Delete(ctx context.Context, filename string) error {
	if filename == "" {
		return invalid("Filename required")
	}
	if _, err := s.locate(filename); err != nil {
		return err
	}
	if err := os.Remove(filepath.Join(s.videosDir, filename)); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return ErrNotFound
		}
		return fmt.Errorf("remove video: %w", err)
	}
	return nil
}

// locate resolves an exact file name inside the videos directory.
func (s *Service) locate(filename string) (os.FileInfo, error) {
	if !validFilename(filename) {
		return nil, invalid("Invalid filename")
	}
	info, err := os.Stat(filepath.Join(s.videosDir, filename))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("stat video: %w", err)
	}
	if info.IsDir() {
		return nil, ErrNotFound
	}
	return info, nil
}

func writeFile(path string, body io.Reader) (int64, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return 0, err
	}
	n, err := io.Copy(f, body)
	if err != nil {
		f.Close()
		return n, err
	}
	return n, f.Close()
}
