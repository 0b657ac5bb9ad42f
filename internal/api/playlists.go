package api

import (
	"errors"
	"net/http"

	"videolib/internal/events"
	"videolib/internal/playlist"
)

type playlistRequest struct {
	PlaylistID  string  `json:"playlistId"`
	VideoID     string  `json:"videoId"`
	Name        *string `json:"name"`
	Description *string `json:"description"`
}

func (s *Server) handleListPlaylists(w http.ResponseWriter, r *http.Request) {
	pls, err := s.Playlists.List(r.Context())
	if err != nil {
		s.fail(w, err, "Failed to load playlists")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"playlists": pls})
}

func (s *Server) handleCreatePlaylist(w http.ResponseWriter, r *http.Request) {
	var req playlistRequest
	if err := decodeJSON(r, &req); err != nil {
		errorJSON(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}
	var name, desc string
	if req.Name != nil {
		name = *req.Name
	}
	if req.Description != nil {
		desc = *req.Description
	}
	pl, err := s.Playlists.Create(r.Context(), name, desc)
	if err != nil {
		s.playlistError(w, err, "Failed to create playlist")
		return
	}
	s.emit(r.Context(), events.PlaylistCreated, pl)
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "playlist": pl})
}

func (s *Server) handleUpdatePlaylist(w http.ResponseWriter, r *http.Request) {
	var req playlistRequest
	if err := decodeJSON(r, &req); err != nil {
		errorJSON(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}
	pl, err := s.Playlists.Update(r.Context(), req.PlaylistID, playlist.Changes{
		Name:        req.Name,
		Description: req.Description,
	})
	if err != nil {
		s.playlistError(w, err, "Failed to update playlist")
		return
	}
	s.emit(r.Context(), events.PlaylistUpdated, pl)
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "playlist": pl})
}

func (s *Server) handleDeletePlaylist(w http.ResponseWriter, r *http.Request) {
	var req playlistRequest
	if err := decodeJSON(r, &req); err != nil {
		errorJSON(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}
	if err := s.Playlists.Delete(r.Context(), req.PlaylistID); err != nil {
		s.playlistError(w, err, "Failed to delete playlist")
		return
	}
	s.emit(r.Context(), events.PlaylistDeleted, map[string]string{"id": req.PlaylistID})
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (s *Server) handleAddToPlaylist(w http.ResponseWriter, r *http.Request) {
	var req playlistRequest
	if err := decodeJSON(r, &req); err != nil {
		errorJSON(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}
	pl, err := s.Playlists.AddVideo(r.Context(), req.PlaylistID, req.VideoID)
	if err != nil {
		s.playlistError(w, err, "Failed to add video to playlist")
		return
	}
	s.emit(r.Context(), events.PlaylistUpdated, pl)
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "playlist": pl})
}

func (s *Server) handleRemoveFromPlaylist(w http.ResponseWriter, r *http.Request) {
	var req playlistRequest
	if err := decodeJSON(r, &req); err != nil {
		errorJSON(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}
	pl, err := s.Playlists.RemoveVideo(r.Context(), req.PlaylistID, req.VideoID)
	if err != nil {
		s.playlistError(w, err, "Failed to remove video from playlist")
		return
	}
	s.emit(r.Context(), events.PlaylistUpdated, pl)
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "playlist": pl})
}

func (s *Server) playlistError(w http.ResponseWriter, err error, msg string) {
	var verr *playlist.ValidationError
	switch {
	case errors.As(err, &verr):
		errorJSON(w, http.StatusBadRequest, verr.Message)
	case errors.Is(err, playlist.ErrConflict):
		errorJSON(w, http.StatusBadRequest, "Video already in playlist")
	case errors.Is(err, playlist.ErrNotFound):
		errorJSON(w, http.StatusNotFound, "Playlist not found")
	default:
		s.fail(w, err, msg)
	}
}
