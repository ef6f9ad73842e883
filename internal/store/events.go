package store

import (
	"context"

	"github.com/desertthunder/nbx/internal/models"
)

// EventKind identifies what changed in a [Store].
type EventKind int

const (
	EventLoaded EventKind = iota + 1
	EventLoadFailed
	EventCreated
	EventUpdated
	// EventUpdateMismatch means the server accepted an update for an id missing from the local collection.
	EventUpdateMismatch
	EventDeleted
)

func (k EventKind) String() string {
	switch k {
	case EventLoaded:
		return "loaded"
	case EventLoadFailed:
		return "load failed"
	case EventCreated:
		return "created"
	case EventUpdated:
		return "updated"
	case EventUpdateMismatch:
		return "update mismatch"
	case EventDeleted:
		return "deleted"
	default:
		return "unknown"
	}
}

// Event describes a completed store operation.
//
// Notebook is set for create and update events, ID for every event about a single notebook,
// and Err for [EventLoadFailed].
type Event struct {
	Kind     EventKind
	ID       string
	Notebook *models.Notebook
	Err      error
}

// Observer receives events after the store's lock has been released.
type Observer func(ctx context.Context, ev Event)
