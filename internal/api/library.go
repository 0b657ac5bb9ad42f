package api

import (
	"net/http"

	"videolib/internal/events"
)

func (s *Server) handleClearAll(w http.ResponseWriter, r *http.Request) {
	if err := s.Library.Clear(r.Context()); err != nil {
		s.fail(w, err, "Failed to clear data")
		return
	}
	s.emit(r.Context(), events.LibraryCleared, nil)
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "message": "All data cleared successfully"})
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	data, err := s.Library.Export(r.Context())
	if err != nil {
		s.fail(w, err, "Failed to export data")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "data": data})
}
