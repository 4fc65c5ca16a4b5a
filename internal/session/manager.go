// Package session routes chat input from a presentation gateway to per-user
// lifecycle controllers and delivers fired reminders back to the gateway.
package session

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sandeepkv93/frogbot/internal/lifecycle"
	"github.com/sandeepkv93/frogbot/internal/model"
	"github.com/sandeepkv93/frogbot/internal/scheduler"
	"github.com/sandeepkv93/frogbot/internal/storage"
)

var ErrUnknownSession = errors.New("session: unknown session")

// Gateway renders outgoing notifications. Deliver must not block for long; it
// runs on the timer goroutine.
type Gateway interface {
	Deliver(sessionID, text string)
}

// Reminders is what sessions need from the reminder scheduler.
type Reminders interface {
	lifecycle.Reminders
	Text(r model.Reminder) string
}

type Reply struct {
	Text     string
	Markdown bool
	IsError  bool
}

type Option func(*Manager)

func WithClock(now func() time.Time) Option {
	return func(m *Manager) {
		if now != nil {
			m.now = now
		}
	}
}

func WithJournal(j storage.Journal) Option {
	return func(m *Manager) {
		if j != nil {
			m.journal = j
		}
	}
}

type Manager struct {
	mu        sync.Mutex
	sessions  map[string]*Session
	reminders Reminders
	gateway   Gateway
	journal   storage.Journal
	now       func() time.Time
}

func NewManager(reminders Reminders, gateway Gateway, opts ...Option) *Manager {
	m := &Manager{
		sessions:  make(map[string]*Session),
		reminders: reminders,
		gateway:   gateway,
		journal:   storage.NopJournal{},
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Open starts a new session with its own task registry and returns its id.
func (m *Manager) Open() string {
	id := uuid.NewString()
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[id] = newSession(id, lifecycle.New(id, m.reminders, lifecycle.WithClock(m.now)))
	return id
}

// Close drops a session and cancels every reminder its tasks still hold.
func (m *Manager) Close(id string) error {
	m.mu.Lock()
	s, ok := m.sessions[id]
	delete(m.sessions, id)
	m.mu.Unlock()
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownSession, id)
	}
	for _, task := range s.ctrl.List(false) {
		m.reminders.Cancel(task)
	}
	return nil
}

func (m *Manager) Controller(id string) (*lifecycle.Controller, error) {
	s, err := m.lookup(id)
	if err != nil {
		return nil, err
	}
	return s.ctrl, nil
}

// Handle applies one line of user input to the session and returns the text to show.
func (m *Manager) Handle(ctx context.Context, sessionID, input string) Reply {
	s, err := m.lookup(sessionID)
	if err != nil {
		return Reply{Text: "This conversation has ended. Start a new one.", IsError: true}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return m.handle(ctx, s, input)
}

// OnReminder is the timer sink: it renders the captured payload and hands it
// to the gateway without touching any task.
func (m *Manager) OnReminder(ev scheduler.Event) {
	r, ok := ev.Payload.(model.Reminder)
	if !ok {
		log.Printf("session: dropping timer %s with unexpected payload %T", ev.Key, ev.Payload)
		return
	}
	m.gateway.Deliver(r.Destination, m.reminders.Text(r))
	m.record(context.Background(), r.Destination, storage.EventReminder, model.Task{ID: r.TaskID, Name: r.TaskName}, string(r.Kind))
}

func (m *Manager) lookup(id string) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownSession, id)
	}
	return s, nil
}

func (m *Manager) record(ctx context.Context, sessionID string, kind storage.EventKind, task model.Task, detail string) {
	err := m.journal.Append(ctx, storage.Event{
		SessionID: sessionID,
		TaskID:    task.ID,
		TaskName:  task.Name,
		Kind:      kind,
		Detail:    detail,
		CreatedAt: m.now(),
	})
	if err != nil {
		log.Printf("session: journal %s for task %d: %v", kind, task.ID, err)
	}
}
