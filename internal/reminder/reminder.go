// Package reminder turns started tasks into keyed check-in and deadline timers.
package reminder

import (
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/sandeepkv93/frogbot/internal/model"
	"github.com/sandeepkv93/frogbot/internal/scheduler"
)

const DefaultDeadlineWarning = 2 * time.Hour

// Timers is the clock/timer service the scheduler arms reminders on.
type Timers interface {
	ScheduleOnce(key string, fireAt time.Time, payload any) error
	Cancel(key string) bool
}

// DelayStrategy decides how long after start (or extend) the check-in fires.
type DelayStrategy interface {
	Delay(task model.Task) time.Duration
}

// TaskDuration fires the check-in once the task's own duration has elapsed.
type TaskDuration struct{}

func (TaskDuration) Delay(task model.Task) time.Duration { return task.Duration }

// Fixed fires the check-in after a constant delay, for demos and tests.
type Fixed time.Duration

func (f Fixed) Delay(model.Task) time.Duration { return time.Duration(f) }

type Option func(*Scheduler)

func WithDelay(d DelayStrategy) Option {
	return func(s *Scheduler) {
		if d != nil {
			s.delay = d
		}
	}
}

func WithDeadlineWarning(d time.Duration) Option {
	return func(s *Scheduler) {
		if d > 0 {
			s.warning = d
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *Scheduler) {
		if now != nil {
			s.now = now
		}
	}
}

type Scheduler struct {
	timers  Timers
	delay   DelayStrategy
	warning time.Duration
	now     func() time.Time
}

func New(timers Timers, opts ...Option) *Scheduler {
	s := &Scheduler{
		timers:  timers,
		delay:   TaskDuration{},
		warning: DefaultDeadlineWarning,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Armed reports which timers an Arm call actually scheduled.
type Armed struct {
	CheckIn  bool
	Deadline bool
}

// Arm (re)arms the check-in for task and, on the first arm only, the deadline
// warning. A warning whose instant already passed is skipped, not an error.
func (s *Scheduler) Arm(destination string, task model.Task, firstTime bool) (Armed, error) {
	var armed Armed
	now := s.now()

	delay := s.delay.Delay(task)
	if delay <= 0 {
		return armed, fmt.Errorf("reminder: non-positive check-in delay %s for task %d", delay, task.ID)
	}
	checkIn := model.Reminder{
		Destination: destination,
		TaskID:      task.ID,
		TaskName:    task.Name,
		Kind:        model.ReminderKindTimeLeft,
		FireAt:      now.Add(delay),
	}
	if err := s.schedule(checkIn); err != nil {
		return armed, err
	}
	armed.CheckIn = true

	if !firstTime || !task.HasDeadline() {
		return armed, nil
	}
	warning := model.Reminder{
		Destination: destination,
		TaskID:      task.ID,
		TaskName:    task.Name,
		Kind:        model.ReminderKindDeadline,
		FireAt:      task.Deadline.Add(-s.warning),
	}
	if warning.FireAt.Before(now) {
		log.Printf("reminder: deadline warning for task %d skipped, %s already passed", task.ID, warning.FireAt.Format(time.DateTime))
		return armed, nil
	}
	err := s.schedule(warning)
	switch {
	case errors.Is(err, scheduler.ErrPastDue):
		log.Printf("reminder: deadline warning for task %d skipped: %v", task.ID, err)
	case err != nil:
		return armed, err
	default:
		armed.Deadline = true
	}
	return armed, nil
}

// Cancel drops both timers for task. Missing timers are fine.
func (s *Scheduler) Cancel(task model.Task) {
	s.timers.Cancel(model.ReminderKindTimeLeft.Key(task.ID))
	s.timers.Cancel(model.ReminderKindDeadline.Key(task.ID))
}

func (s *Scheduler) schedule(r model.Reminder) error {
	if err := r.Validate(); err != nil {
		return err
	}
	if err := s.timers.ScheduleOnce(r.Key(), r.FireAt, r); err != nil {
		return fmt.Errorf("arm %s: %w", r.Key(), err)
	}
	return nil
}

// Text renders the message sent when r fires.
func (s *Scheduler) Text(r model.Reminder) string {
	switch r.Kind {
	case model.ReminderKindDeadline:
		return fmt.Sprintf("This is a reminder that you are working on %q. Only %s remain before the deadline, so don't forget to mark it as done.",
			r.TaskName, humanHours(s.warning))
	default:
		return fmt.Sprintf("This is a reminder that you are working on %q. If you are done, mark it as done, otherwise extend its time.", r.TaskName)
	}
}

func humanHours(d time.Duration) string {
	if d%time.Hour == 0 {
		h := int(d / time.Hour)
		if h == 1 {
			return "1 hour"
		}
		return fmt.Sprintf("%d hours", h)
	}
	return d.String()
}
