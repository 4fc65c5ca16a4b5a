package model

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var ErrInvalidReminderKind = errors.New("model: invalid reminder kind")

type ReminderKind string

const (
	ReminderKindTimeLeft ReminderKind = "timeleft"
	ReminderKindDeadline ReminderKind = "deadline"
)

func (k ReminderKind) IsValid() bool {
	switch k {
	case ReminderKindTimeLeft, ReminderKindDeadline:
		return true
	default:
		return false
	}
}

// Key namespaces a timer by task id so tasks sharing a name never collide.
func (k ReminderKind) Key(taskID int) string {
	return fmt.Sprintf("task-%d_%s", taskID, k)
}

// Reminder is the payload captured at arm time; it never references the live task.
type Reminder struct {
	Destination string
	TaskID      int
	TaskName    string
	Kind        ReminderKind
	FireAt      time.Time
}

func (r Reminder) Key() string {
	return r.Kind.Key(r.TaskID)
}

func (r Reminder) Validate() error {
	if strings.TrimSpace(r.Destination) == "" {
		return errors.New("model: reminder destination is required")
	}
	if r.TaskID <= 0 {
		return errors.New("model: reminder task id is required")
	}
	if r.FireAt.IsZero() {
		return errors.New("model: reminder fire time is required")
	}
	if !r.Kind.IsValid() {
		return fmt.Errorf("%w: %q", ErrInvalidReminderKind, r.Kind)
	}
	return nil
}
