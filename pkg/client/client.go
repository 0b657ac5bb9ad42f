package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"strings"
	"time"
)

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

type Playlist struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	VideoIDs    []string  `json:"videoIds"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

type User struct {
	Username string `json:"username"`
	IsAdmin  bool   `json:"isAdmin"`
}

type Login struct {
	Message string `json:"message"`
	User    User   `json:"user"`
	Token   string `json:"token"`
}

type Export struct {
	ExportedAt time.Time         `json:"exportedAt"`
	Videos     []json.RawMessage `json:"videos"`
	Playlists  []json.RawMessage `json:"playlists"`
	Images     []string          `json:"images"`
}

// File is one file part of a multipart upload.
type File struct {
	Name        string
	ContentType string
	Body        io.Reader
}

// APIError is a non-2xx answer from the server.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("videolib: %d %s", e.Status, e.Message)
}

type Client struct {
	baseURL  string
	http     *http.Client
	apiToken string
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithAPIToken sets the X-API-Token header used by maintenance endpoints.
func WithAPIToken(token string) Option {
	return func(c *Client) { c.apiToken = token }
}

func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 5 * time.Minute},
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

func (c *Client) ListVideos(ctx context.Context) ([]Video, error) {
	var res struct {
		Videos []Video `json:"videos"`
	}
	if err := c.doJSON(ctx, http.MethodGet, "/api/videos", nil, &res); err != nil {
		return nil, err
	}
	return res.Videos, nil
}

func (c *Client) UploadVideo(ctx context.Context, title string, video File, thumbnail *File) (Video, error) {
	files := map[string]*File{"video": &video}
	if thumbnail != nil {
		files["thumbnail"] = thumbnail
	}
	var res struct {
		Video Video `json:"video"`
	}
	err := c.doMultipart(ctx, http.MethodPost, "/api/upload", map[string]string{"title": title}, files, &res)
	return res.Video, err
}

func (c *Client) UpdateVideo(ctx context.Context, filename, title string, thumbnail *File) (Video, error) {
	files := map[string]*File{}
	if thumbnail != nil {
		files["thumbnail"] = thumbnail
	}
	var res struct {
		Video Video `json:"video"`
	}
	path := "/api/videos/update?filename=" + url.QueryEscape(filename)
	err := c.doMultipart(ctx, http.MethodPut, path, map[string]string{"title": title}, files, &res)
	return res.Video, err
}

func (c *Client) DeleteVideo(ctx context.Context, filename string) error {
	return c.doJSON(ctx, http.MethodDelete, "/api/videos?filename="+url.QueryEscape(filename), nil, nil)
}

func (c *Client) ListPlaylists(ctx context.Context) ([]Playlist, error) {
	var res struct {
		Playlists []Playlist `json:"playlists"`
	}
	if err := c.doJSON(ctx, http.MethodGet, "/api/playlists", nil, &res); err != nil {
		return nil, err
	}
	return res.Playlists, nil
}

func (c *Client) CreatePlaylist(ctx context.Context, name, description string) (Playlist, error) {
	body := map[string]string{"name": name, "description": description}
	return c.playlistCall(ctx, http.MethodPost, "/api/playlists", body)
}

// UpdatePlaylist sends only the non-nil fields.
func (c *Client) UpdatePlaylist(ctx context.Context, id string, name, description *string) (Playlist, error) {
	body := map[string]any{"playlistId": id}
	if name != nil {
		body["name"] = *name
	}
	if description != nil {
		body["description"] = *description
	}
	return c.playlistCall(ctx, http.MethodPut, "/api/playlists/update", body)
}

func (c *Client) DeletePlaylist(ctx context.Context, id string) error {
	return c.doJSON(ctx, http.MethodDelete, "/api/playlists", map[string]string{"playlistId": id}, nil)
}

func (c *Client) AddToPlaylist(ctx context.Context, id, videoID string) (Playlist, error) {
	body := map[string]string{"playlistId": id, "videoId": videoID}
	return c.playlistCall(ctx, http.MethodPost, "/api/playlists/videos", body)
}

func (c *Client) RemoveFromPlaylist(ctx context.Context, id, videoID string) (Playlist, error) {
	body := map[string]string{"playlistId": id, "videoId": videoID}
	return c.playlistCall(ctx, http.MethodDelete, "/api/playlists/videos", body)
}

func (c *Client) playlistCall(ctx context.Context, method, path string, body any) (Playlist, error) {
	var res struct {
		Playlist Playlist `json:"playlist"`
	}
	err := c.doJSON(ctx, method, path, body, &res)
	return res.Playlist, err
}

func (c *Client) Login(ctx context.Context, username, password string) (Login, error) {
	var res Login
	err := c.doJSON(ctx, http.MethodPost, "/api/auth/login", map[string]string{"username": username, "password": password}, &res)
	return res, err
}

func (c *Client) HasAccounts(ctx context.Context) (bool, error) {
	var res struct {
		HasAccounts bool `json:"hasAccounts"`
	}
	err := c.doJSON(ctx, http.MethodGet, "/api/auth/status", nil, &res)
	return res.HasAccounts, err
}

func (c *Client) DeleteAccount(ctx context.Context, username, password string) error {
	return c.doJSON(ctx, http.MethodDelete, "/api/auth/delete", map[string]string{"username": username, "password": password}, nil)
}

func (c *Client) ClearAllData(ctx context.Context) error {
	return c.doJSON(ctx, http.MethodDelete, "/api/clear-all-data", nil, nil)
}

func (c *Client) ExportData(ctx context.Context) (Export, error) {
	var res struct {
		Data Export `json:"data"`
	}
	err := c.doJSON(ctx, http.MethodGet, "/api/export-data", nil, &res)
	return res.Data, err
}

func (c *Client) doJSON(ctx context.Context, method, path string, body, out any) error {
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return err
		}
		rd = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, rd)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return c.do(req, out)
}

// doMultipart streams the form through a pipe so large videos are not buffered.
func (c *Client) doMultipart(ctx context.Context, method, path string, fields map[string]string, files map[string]*File, out any) error {
	pr, pw := io.Pipe()
	mw := multipart.NewWriter(pw)
	go func() {
		pw.CloseWithError(writeForm(mw, fields, files))
	}()

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, pr)
	if err != nil {
		_ = pr.Close()
		return err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return c.do(req, out)
}

func writeForm(mw *multipart.Writer, fields map[string]string, files map[string]*File) error {
	for k, v := range fields {
		if err := mw.WriteField(k, v); err != nil {
			return err
		}
	}
	for field, f := range files {
		hdr := make(textproto.MIMEHeader)
		hdr.Set("Content-Disposition", mime.FormatMediaType("form-data", map[string]string{"name": field, "filename": f.Name}))
		hdr.Set("Content-Type", f.ContentType)
		w, err := mw.CreatePart(hdr)
		if err != nil {
			return err
		}
		if _, err := io.Copy(w, f.Body); err != nil {
			return err
		}
	}
	return mw.Close()
}

func (c *Client) do(req *http.Request, out any) error {
	if c.apiToken != "" {
		req.Header.Set("X-API-Token", c.apiToken)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var e struct {
			Error string `json:"error"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&e)
		if e.Error == "" {
			e.Error = http.StatusText(resp.StatusCode)
		}
		return &APIError{Status: resp.StatusCode, Message: e.Error}
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
