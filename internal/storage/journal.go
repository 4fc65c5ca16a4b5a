package storage

import (
	"context"
	"errors"
	"time"
)

var ErrInvalidEvent = errors.New("storage: invalid journal event")

type EventKind string

const (
	EventCreated  EventKind = "created"
	EventUpdated  EventKind = "updated"
	EventStarted  EventKind = "started"
	EventExtended EventKind = "extended"
	EventFinished EventKind = "finished"
	EventDeleted  EventKind = "deleted"
	EventReminder EventKind = "reminder"
)

type Event struct {
	ID        int64
	SessionID string
	TaskID    int
	TaskName  string
	Kind      EventKind
	Detail    string
	CreatedAt time.Time
}

type EventFilter struct {
	SessionID string
	TaskID    int
	Limit     int
	Offset    int
}

// Journal records what happened to tasks. It is a history, not the task store.
type Journal interface {
	Append(ctx context.Context, in Event) error
	List(ctx context.Context, filter EventFilter) ([]Event, error)
}

// NopJournal discards everything.
type NopJournal struct{}

func (NopJournal) Append(context.Context, Event) error { return nil }

func (NopJournal) List(context.Context, EventFilter) ([]Event, error) { return []Event{}, nil }
