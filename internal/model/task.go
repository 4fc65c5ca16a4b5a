package model

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	ErrValidation        = errors.New("model: invalid input")
	ErrConflict          = errors.New("model: another task is in progress")
	ErrInvalidTransition = errors.New("model: invalid state transition")
	ErrNotFound          = errors.New("model: task not found")
	ErrDeadlineExceeded  = errors.New("model: no room left before deadline")
	ErrNotStarted        = errors.New("model: task not started")
	ErrInvalidState      = errors.New("model: invalid task state")
)

type TaskState string

const (
	TaskStateNew        TaskState = "NEW"
	TaskStateInProgress TaskState = "IN_PROGRESS"
	TaskStateDone       TaskState = "DONE"
)

func (s TaskState) IsValid() bool {
	switch s {
	case TaskStateNew, TaskStateInProgress, TaskStateDone:
		return true
	default:
		return false
	}
}

// CanTransition reports whether from -> to is an edge of NEW -> IN_PROGRESS -> DONE.
func CanTransition(from, to TaskState) bool {
	switch {
	case from == TaskStateNew && to == TaskStateInProgress:
		return true
	case from == TaskStateInProgress && to == TaskStateDone:
		return true
	default:
		return false
	}
}

type Task struct {
	ID       int
	Name     string
	Duration time.Duration
	Deadline *time.Time
	TimeLeft TimeLeft
	State    TaskState
}

func NewTask(id int, name string) (Task, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Task{}, fmt.Errorf("%w: task name is required", ErrValidation)
	}
	return Task{ID: id, Name: name, State: TaskStateNew}, nil
}

// MaxDurationHours caps a task at a century so that durations and extended
// budgets stay far from time.Duration overflow.
const MaxDurationHours = 24 * 365 * 100

// DurationHours converts a whole number of hours into a task duration.
func DurationHours(hours int) (time.Duration, error) {
	if hours <= 0 {
		return 0, fmt.Errorf("%w: duration must be a positive number of hours, got %d", ErrValidation, hours)
	}
	if hours > MaxDurationHours {
		return 0, fmt.Errorf("%w: duration must be at most %d hours, got %d", ErrValidation, MaxDurationHours, hours)
	}
	return time.Duration(hours) * time.Hour, nil
}

// CheckDeadline rejects deadlines that are not strictly after now.
func CheckDeadline(at, now time.Time) error {
	if at.IsZero() {
		return fmt.Errorf("%w: deadline is required", ErrValidation)
	}
	if !at.After(now) {
		return fmt.Errorf("%w: deadline %s is not in the future", ErrValidation, at.Format(time.DateTime))
	}
	return nil
}

func (t Task) HasDeadline() bool {
	return t.Deadline != nil && !t.Deadline.IsZero()
}

// Ready reports whether the task has everything needed to start.
func (t Task) Ready() error {
	if t.Duration <= 0 {
		return fmt.Errorf("%w: task %d has no duration", ErrValidation, t.ID)
	}
	if !t.HasDeadline() {
		return fmt.Errorf("%w: task %d has no deadline", ErrValidation, t.ID)
	}
	return nil
}

func (t Task) Validate() error {
	if t.ID <= 0 {
		return errors.New("model: task id must be positive")
	}
	if strings.TrimSpace(t.Name) == "" {
		return errors.New("model: task name is required")
	}
	if !t.State.IsValid() {
		return fmt.Errorf("%w: %q", ErrInvalidState, t.State)
	}
	if t.Duration < 0 {
		return errors.New("model: task duration must not be negative")
	}
	if t.State == TaskStateNew && t.TimeLeft.IsSet() {
		return errors.New("model: time_left must be unset before the task starts")
	}
	if t.State == TaskStateInProgress && !t.TimeLeft.IsSet() {
		return errors.New("model: time_left is required while the task is in progress")
	}
	return nil
}
