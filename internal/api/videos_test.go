package api

import (
	"net/http"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"videolib/internal/events"
	"videolib/internal/video"
)

type videoResponse struct {
	Success bool        `json:"success"`
	Video   video.Video `json:"video"`
	Error   string      `json:"error"`
}

func TestUpload_RejectsUnsupportedType(t *testing.T) {
	h := newHarness(t, Config{})

	rr := h.upload(t, "POST", "/api/upload", map[string]string{"title": "Clip"},
		part{"video", "clip.avi", "video/avi", "data"})

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.JSONEq(t, `{"error":"Invalid video file type. Please upload MP4, WebM, or OGG files."}`, rr.Body.String())
	entries, _ := os.ReadDir(filepath.Join(h.root, "videos"))
	assert.Empty(t, entries)
	assert.Empty(t, h.events.types())
}

func TestUpload_MissingTitle(t *testing.T) {
	h := newHarness(t, Config{})

	rr := h.upload(t, "POST", "/api/upload", nil, part{"video", "clip.mp4", "video/mp4", "data"})
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.JSONEq(t, `{"error":"Missing file or title"}`, rr.Body.String())
}

func TestUpload_NotMultipart(t *testing.T) {
	h := newHarness(t, Config{})
	rr := h.do(t, "POST", "/api/upload", map[string]string{"title": "x"})
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestUpload_TooLarge(t *testing.T) {
	h := newHarness(t, Config{MaxUploadBytes: 64})
	big := make([]byte, 1024)
	rr := h.upload(t, "POST", "/api/upload", map[string]string{"title": "Big"},
		part{"video", "big.mp4", "video/mp4", string(big)})
	assert.Contains(t, []int{http.StatusRequestEntityTooLarge, http.StatusBadRequest}, rr.Code)
	entries, _ := os.ReadDir(filepath.Join(h.root, "videos"))
	assert.Empty(t, entries)
}

func TestUpload_ThenListUpdateDelete(t *testing.T) {
	h := newHarness(t, Config{})

	rr := h.upload(t, "POST", "/api/upload", map[string]string{"title": "Beach Day"},
		part{"video", "beach.mp4", "video/mp4", "0123456789"},
		part{"thumbnail", "beach.png", "image/png", "png"})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	up := decode[videoResponse](t, rr)
	assert.True(t, up.Success)
	assert.Equal(t, up.Video.Filename, up.Video.ID)
	assert.Equal(t, int64(10), up.Video.Size)
	assert.Equal(t, "video/mp4", up.Video.Type)
	assert.Equal(t, "/videos/"+up.Video.Filename, up.Video.URL)
	assert.NotEmpty(t, up.Video.Thumbnail)
	assert.FileExists(t, filepath.Join(h.root, "videos", up.Video.Filename))

	rr = h.do(t, "GET", "/api/videos", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	list := decode[struct {
		Videos []video.Video `json:"videos"`
	}](t, rr)
	require.Len(t, list.Videos, 1)
	assert.Equal(t, "Beach Day", list.Videos[0].Title)
	assert.Equal(t, up.Video.Thumbnail, list.Videos[0].Thumbnail)

	rr = h.upload(t, "PUT", "/api/videos/update?filename="+up.Video.Filename, map[string]string{"title": "Renamed"})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	upd := decode[videoResponse](t, rr)
	assert.Equal(t, "Renamed", upd.Video.Title)
	assert.Equal(t, up.Video.ID, upd.Video.ID)
	assert.Equal(t, up.Video.Thumbnail, upd.Video.Thumbnail)

	rr = h.do(t, "DELETE", "/api/videos?filename="+up.Video.Filename, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"success":true}`, rr.Body.String())
	assert.NoFileExists(t, filepath.Join(h.root, "videos", up.Video.Filename))

	assert.Equal(t, []string{events.VideoUploaded, events.VideoUpdated, events.VideoDeleted}, h.events.types())
}

func TestListVideos_EmptyLibrary(t *testing.T) {
	h := newHarness(t, Config{})
	rr := h.do(t, "GET", "/api/videos", nil)
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"videos":[]}`, rr.Body.String())
}

func TestDeleteVideo_Errors(t *testing.T) {
	h := newHarness(t, Config{})

	rr := h.do(t, "DELETE", "/api/videos", nil)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.JSONEq(t, `{"error":"Filename required"}`, rr.Body.String())

	rr = h.do(t, "DELETE", "/api/videos?filename=nope.mp4", nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.JSONEq(t, `{"error":"File not found"}`, rr.Body.String())

	rr = h.do(t, "DELETE", "/api/videos?filename=../users.json", nil)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestUpdateVideo_Errors(t *testing.T) {
	h := newHarness(t, Config{})

	rr := h.upload(t, "PUT", "/api/videos/update", map[string]string{"title": "x"})
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.JSONEq(t, `{"error":"Filename required"}`, rr.Body.String())

	rr = h.upload(t, "PUT", "/api/videos/update?filename=nope.mp4", map[string]string{"title": "x"})
	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.JSONEq(t, `{"error":"Video not found"}`, rr.Body.String())

	rr = h.upload(t, "PUT", "/api/videos/update?filename=nope.mp4", nil)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.JSONEq(t, `{"error":"Title is required"}`, rr.Body.String())
}
