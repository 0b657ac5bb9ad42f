package api

import (
	"errors"
	"mime/multipart"
	"net/http"

	"videolib/internal/events"
	"videolib/internal/video"
)

func (s *Server) handleListVideos(w http.ResponseWriter, r *http.Request) {
	videos, err := s.Videos.List(r.Context())
	if err != nil {
		s.fail(w, err, "Failed to list videos")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"videos": videos})
}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	form, ok := s.parseForm(w, r)
	if !ok {
		return
	}
	defer form.RemoveAll()

	in := video.UploadInput{Title: formValue(form, "title")}
	var err error
	if in.Video, err = formFile(form, "video"); err != nil {
		s.fail(w, err, "Failed to upload video")
		return
	}
	defer closePayload(in.Video)
	if in.Thumbnail, err = formFile(form, "thumbnail"); err != nil {
		s.fail(w, err, "Failed to upload video")
		return
	}
	defer closePayload(in.Thumbnail)

	v, err := s.Videos.Upload(r.Context(), in)
	if err != nil {
		var verr *video.ValidationError
		if errors.As(err, &verr) {
			errorJSON(w, http.StatusBadRequest, verr.Message)
			return
		}
		s.fail(w, err, "Failed to upload video")
		return
	}
	s.emit(r.Context(), events.VideoUploaded, v)
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "video": v})
}

func (s *Server) handleUpdateVideo(w http.ResponseWriter, r *http.Request) {
	filename := r.URL.Query().Get("filename")
	if filename == "" {
		errorJSON(w, http.StatusBadRequest, "Filename required")
		return
	}
	form, ok := s.parseForm(w, r)
	if !ok {
		return
	}
	defer form.RemoveAll()

	thumb, err := formFile(form, "thumbnail")
	if err != nil {
		s.fail(w, err, "Failed to update video")
		return
	}
	defer closePayload(thumb)

	v, err := s.Videos.Update(r.Context(), filename, formValue(form, "title"), thumb)
	if err != nil {
		var verr *video.ValidationError
		switch {
		case errors.As(err, &verr):
			errorJSON(w, http.StatusBadRequest, verr.Message)
		case errors.Is(err, video.ErrNotFound):
			errorJSON(w, http.StatusNotFound, "Video not found")
		default:
			s.fail(w, err, "Failed to update video")
		}
		return
	}
	s.emit(r.Context(), events.VideoUpdated, v)
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "video": v})
}

func (s *Server) handleDeleteVideo(w http.ResponseWriter, r *http.Request) {
	filename := r.URL.Query().Get("filename")
	if err := s.Videos.Delete(r.Context(), filename); err != nil {
		var verr *video.ValidationError
		switch {
		case errors.As(err, &verr):
			errorJSON(w, http.StatusBadRequest, verr.Message)
		case errors.Is(err, video.ErrNotFound):
			errorJSON(w, http.StatusNotFound, "File not found")
		default:
			s.fail(w, err, "Failed to delete video")
		}
		return
	}
	s.emit(r.Context(), events.VideoDeleted, map[string]string{"filename": filename})
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

// parseForm reads a size-limited multipart body. It writes the error
// response itself when it returns false.
func (s *Server) parseForm(w http.ResponseWriter, r *http.Request) (*multipart.Form, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes)
	mr, err := r.MultipartReader()
	if err != nil {
		errorJSON(w, http.StatusBadRequest, "Invalid form data")
		return nil, false
	}
	form, err := mr.ReadForm(32 << 20)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			errorJSON(w, http.StatusRequestEntityTooLarge, "Upload too large")
			return nil, false
		}
		errorJSON(w, http.StatusBadRequest, "Invalid form data")
		return nil, false
	}
	return form, true
}

func formValue(form *multipart.Form, key string) string {
	if vs := form.Value[key]; len(vs) > 0 {
		return vs[0]
	}
	return ""
}

// formFile returns nil when the field is absent or empty.
func formFile(form *multipart.Form, key string) (*video.Payload, error) {
	files := form.File[key]
	if len(files) == 0 || files[0].Size == 0 {
		return nil, nil
	}
	fh := files[0]
	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	return &video.Payload{
		Name:        fh.Filename,
		ContentType: fh.Header.Get("Content-Type"),
		Body:        f,
	}, nil
}

func closePayload(p *video.Payload) {
	if p == nil {
		return
	}
	if c, ok := p.Body.(interface{ Close() error }); ok {
		_ = c.Close()
	}
}
