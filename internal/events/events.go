package events

import (
	"context"
	"time"
)

const (
	VideoUploaded   = "video.uploaded"
	VideoUpdated    = "video.updated"
	VideoDeleted    = "video.deleted"
	PlaylistCreated = "playlist.created"
	PlaylistUpdated = "playlist.updated"
	PlaylistDeleted = "playlist.deleted"
	LibraryCleared  = "library.cleared"
	AccountDeleted  = "account.deleted"
)

// Event is a change notification pushed to connected clients.
type Event struct {
	Type    string    `json:"type"`
	Payload any       `json:"payload,omitempty"`
	At      time.Time `json:"at"`
}

func New(typ string, payload any) Event {
	return Event{Type: typ, Payload: payload, At: time.Now().UTC()}
}

// Notifier delivers events. Delivery is best effort.
type Notifier interface {
	Publish(ctx context.Context, ev Event) error
}

// Nop drops every event.
type Nop struct{}

func (Nop) Publish(context.Context, Event) error { return nil }
