package client

import (
	"context"
	"errors"
	"sync"
)

// Result is what mirror mutations hand back to the UI. HTTP failures are
// reported here instead of as Go errors.
type Result struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
}

func ok() Result { return Result{Success: true} }

func failed(err error, fallback string) Result {
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return Result{Error: apiErr.Message}
	}
	return Result{Error: fallback}
}

// VideoMirror holds the last known video list. Mutations patch it with the
// server's answer; a failed call leaves it as it was.
type VideoMirror struct {
	c      *Client
	mu     sync.Mutex
	videos []Video
}

func NewVideoMirror(c *Client) *VideoMirror {
	return &VideoMirror{c: c}
}

func (m *VideoMirror) Videos() []Video {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Video, len(m.videos))
	copy(out, m.videos)
	return out
}

func (m *VideoMirror) Load(ctx context.Context) Result {
	videos, err := m.c.ListVideos(ctx)
	if err != nil {
		return failed(err, "Failed to load videos")
	}
	m.mu.Lock()
	m.videos = videos
	m.mu.Unlock()
	return ok()
}

func (m *VideoMirror) Upload(ctx context.Context, title string, video File, thumbnail *File) (Video, Result) {
	v, err := m.c.UploadVideo(ctx, title, video, thumbnail)
	if err != nil {
		return Video{}, failed(err, "Upload failed")
	}
	m.mu.Lock()
	m.videos = append(m.videos, v)
	m.mu.Unlock()
	return v, ok()
}

func (m *VideoMirror) Remove(ctx context.Context, v Video) Result {
	if err := m.c.DeleteVideo(ctx, v.Filename); err != nil {
		return failed(err, "Failed to delete video")
	}
	m.mu.Lock()
	kept := m.videos[:0:0]
	for _, cur := range m.videos {
		if cur.ID != v.ID {
			kept = append(kept, cur)
		}
	}
	m.videos = kept
	m.mu.Unlock()
	return ok()
}

// Update keeps the current title when title is empty.
func (m *VideoMirror) Update(ctx context.Context, v Video, title string, thumbnail *File) (Video, Result) {
	if title == "" {
		title = v.Title
	}
	updated, err := m.c.UpdateVideo(ctx, v.Filename, title, thumbnail)
	if err != nil {
		return Video{}, failed(err, "Failed to update video")
	}
	m.mu.Lock()
	for i := range m.videos {
		if m.videos[i].ID == v.ID {
			m.videos[i] = updated
		}
	}
	m.mu.Unlock()
	return updated, ok()
}

// PlaylistMirror holds the playlist list plus the currently selected playlist.
type PlaylistMirror struct {
	c         *Client
	mu        sync.Mutex
	playlists []Playlist
	current   *Playlist
}

func NewPlaylistMirror(c *Client) *PlaylistMirror {
	return &PlaylistMirror{c: c}
}

func clonePlaylist(p Playlist) Playlist {
	p.VideoIDs = append([]string(nil), p.VideoIDs...)
	return p
}

func (m *PlaylistMirror) Playlists() []Playlist {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Playlist, len(m.playlists))
	for i, p := range m.playlists {
		out[i] = clonePlaylist(p)
	}
	return out
}

func (m *PlaylistMirror) Current() (Playlist, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.current == nil {
		return Playlist{}, false
	}
	return clonePlaylist(*m.current), true
}

// SetCurrent selects p; nil clears the selection.
func (m *PlaylistMirror) SetCurrent(p *Playlist) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if p == nil {
		m.current = nil
		return
	}
	cp := clonePlaylist(*p)
	m.current = &cp
}

func (m *PlaylistMirror) ByID(id string) (Playlist, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.playlists {
		if p.ID == id {
			return clonePlaylist(p), true
		}
	}
	return Playlist{}, false
}

func (m *PlaylistMirror) Load(ctx context.Context) Result {
	pls, err := m.c.ListPlaylists(ctx)
	if err != nil {
		return failed(err, "Failed to load playlists")
	}
	m.mu.Lock()
	m.playlists = pls
	m.mu.Unlock()
	return ok()
}

func (m *PlaylistMirror) Create(ctx context.Context, name, description string) (Playlist, Result) {
	p, err := m.c.CreatePlaylist(ctx, name, description)
	if err != nil {
		return Playlist{}, failed(err, "Failed to create playlist")
	}
	m.mu.Lock()
	m.playlists = append(m.playlists, p)
	m.mu.Unlock()
	return clonePlaylist(p), ok()
}

func (m *PlaylistMirror) Update(ctx context.Context, id string, name, description *string) (Playlist, Result) {
	p, err := m.c.UpdatePlaylist(ctx, id, name, description)
	if err != nil {
		return Playlist{}, failed(err, "Failed to update playlist")
	}
	m.apply(p)
	return clonePlaylist(p), ok()
}

func (m *PlaylistMirror) Delete(ctx context.Context, id string) Result {
	if err := m.c.DeletePlaylist(ctx, id); err != nil {
		return failed(err, "Failed to delete playlist")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	kept := m.playlists[:0:0]
	for _, p := range m.playlists {
		if p.ID != id {
			kept = append(kept, p)
		}
	}
	m.playlists = kept
	if m.current != nil && m.current.ID == id {
		m.current = nil
	}
	return ok()
}

func (m *PlaylistMirror) AddVideo(ctx context.Context, id, videoID string) Result {
	p, err := m.c.AddToPlaylist(ctx, id, videoID)
	if err != nil {
		return failed(err, "Failed to add video to playlist")
	}
	m.apply(p)
	return ok()
}

func (m *PlaylistMirror) RemoveVideo(ctx context.Context, id, videoID string) Result {
	p, err := m.c.RemoveFromPlaylist(ctx, id, videoID)
	if err != nil {
		return failed(err, "Failed to remove video from playlist")
	}
	m.apply(p)
	return ok()
}

// apply replaces the cached copy and the current selection with the server record.
func (m *PlaylistMirror) apply(p Playlist) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.playlists {
		if m.playlists[i].ID == p.ID {
			m.playlists[i] = clonePlaylist(p)
		}
	}
	if m.current != nil && m.current.ID == p.ID {
		cp := clonePlaylist(p)
		m.current = &cp
	}
}

// SessionMirror tracks the logged-in user of this process. Nothing survives a restart.
type SessionMirror struct {
	c     *Client
	mu    sync.Mutex
	user  *User
	token string
}

func NewSessionMirror(c *Client) *SessionMirror {
	return &SessionMirror{c: c}
}

func (m *SessionMirror) Login(ctx context.Context, username, password string) Result {
	res, err := m.c.Login(ctx, username, password)
	if err != nil {
		return failed(err, "Login failed")
	}
	m.mu.Lock()
	u := res.User
	m.user = &u
	m.token = res.Token
	m.mu.Unlock()
	return Result{Success: true, Message: res.Message}
}

func (m *SessionMirror) Logout() {
	m.mu.Lock()
	m.user = nil
	m.token = ""
	m.mu.Unlock()
}

func (m *SessionMirror) User() (User, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.user == nil {
		return User{}, false
	}
	return *m.user, true
}

func (m *SessionMirror) Token() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.token
}

func (m *SessionMirror) IsAuthenticated() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.user != nil
}

// HasExistingAccounts reports false when the server cannot be reached.
func (m *SessionMirror) HasExistingAccounts(ctx context.Context) bool {
	has, err := m.c.HasAccounts(ctx)
	return err == nil && has
}

func (m *SessionMirror) DeleteAccount(ctx context.Context, username, password string) Result {
	if err := m.c.DeleteAccount(ctx, username, password); err != nil {
		return failed(err, "Failed to delete account")
	}
	m.Logout()
	return Result{Success: true, Message: "Account deleted successfully"}
}
