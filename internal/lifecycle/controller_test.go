package lifecycle

import (
	"errors"
	"testing"
	"time"

	"github.com/sandeepkv93/frogbot/internal/model"
	"github.com/sandeepkv93/frogbot/internal/reminder"
	"github.com/sandeepkv93/frogbot/internal/scheduler"
)

type fixture struct {
	now    time.Time
	engine *scheduler.Engine
	ctrl   *Controller
}

func (f *fixture) clock() time.Time { return f.now }

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{now: time.Date(2026, 2, 9, 12, 0, 0, 0, time.Local)}
	// The engine is never started, so timers stay pending and never fire.
	f.engine = scheduler.NewEngine(nil, scheduler.WithClock(f.clock))
	reminders := reminder.New(f.engine, reminder.WithClock(f.clock))
	f.ctrl = New("chat-1", reminders, WithClock(f.clock))
	return f
}

func (f *fixture) readyTask(t *testing.T, name string, hours int, deadline time.Duration) model.Task {
	t.Helper()
	task, err := f.ctrl.CreateTask(name)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := f.ctrl.SetDuration(task.ID, hours); err != nil {
		t.Fatalf("set duration: %v", err)
	}
	task, err = f.ctrl.SetDeadline(task.ID, f.now.Add(deadline))
	if err != nil {
		t.Fatalf("set deadline: %v", err)
	}
	return task
}

func (f *fixture) pending(id int) (checkIn, deadline bool) {
	return f.engine.Pending(model.ReminderKindTimeLeft.Key(id)), f.engine.Pending(model.ReminderKindDeadline.Key(id))
}

func TestCreateAssignsMonotonicIDs(t *testing.T) {
	f := newFixture(t)
	a, _ := f.ctrl.CreateTask("a")
	b, _ := f.ctrl.CreateTask("b")
	if _, err := f.ctrl.Delete(b.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	c, _ := f.ctrl.CreateTask("c")
	if a.ID != 1 || b.ID != 2 || c.ID != 3 {
		t.Fatalf("unexpected ids: %d %d %d", a.ID, b.ID, c.ID)
	}
	if _, err := f.ctrl.CreateTask(""); !errors.Is(err, model.ErrValidation) {
		t.Fatalf("expected ErrValidation for empty name, got %v", err)
	}
}

func TestSetFieldsValidation(t *testing.T) {
	f := newFixture(t)
	task, _ := f.ctrl.CreateTask("frog")

	if _, err := f.ctrl.SetDuration(task.ID, 0); !errors.Is(err, model.ErrValidation) {
		t.Fatalf("expected ErrValidation for zero duration, got %v", err)
	}
	if _, err := f.ctrl.SetDeadline(task.ID, f.now.Add(-time.Hour)); !errors.Is(err, model.ErrValidation) {
		t.Fatalf("expected ErrValidation for past deadline, got %v", err)
	}
	got, _ := f.ctrl.Get(task.ID)
	if got.Duration != 0 || got.HasDeadline() {
		t.Fatalf("rejected input must leave fields unset: %+v", got)
	}
	if _, err := f.ctrl.SetDuration(99, 2); !errors.Is(err, model.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestStartRequiresDurationAndDeadline(t *testing.T) {
	f := newFixture(t)
	task, _ := f.ctrl.CreateTask("frog")
	if _, err := f.ctrl.Start(task.ID); !errors.Is(err, model.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
	got, _ := f.ctrl.Get(task.ID)
	if got.State != model.TaskStateNew {
		t.Fatalf("state changed on failed start: %s", got.State)
	}
}

func TestStartAnchored(t *testing.T) {
	f := newFixture(t)
	task := f.readyTask(t, "frog", 5, 10*time.Hour)

	started, err := f.ctrl.Start(task.ID)
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	at, ok := started.TimeLeft.At()
	if !ok || !at.Equal(f.now.Add(5*time.Hour)) {
		t.Fatalf("expected time_left == now+5h, got %+v", started.TimeLeft)
	}
	if started.State != model.TaskStateInProgress {
		t.Fatalf("unexpected state %s", started.State)
	}
	if checkIn, deadline := f.pending(task.ID); !checkIn || !deadline {
		t.Fatalf("expected both timers pending, checkIn=%v deadline=%v", checkIn, deadline)
	}
}

func TestStartCapped(t *testing.T) {
	f := newFixture(t)
	task := f.readyTask(t, "frog", 5, 3*time.Hour)

	started, err := f.ctrl.Start(task.ID)
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	budget, ok := started.TimeLeft.Budget()
	if !ok || budget != 3*time.Hour {
		t.Fatalf("expected time_left == 3h, got %+v", started.TimeLeft)
	}
}

func TestStartWithPastDueWarningStillStarts(t *testing.T) {
	f := newFixture(t)
	task := f.readyTask(t, "frog", 1, 90*time.Minute)

	if _, err := f.ctrl.Start(task.ID); err != nil {
		t.Fatalf("start must succeed when deadline-2h is past: %v", err)
	}
	checkIn, deadline := f.pending(task.ID)
	if !checkIn || deadline {
		t.Fatalf("expected only check-in pending, checkIn=%v deadline=%v", checkIn, deadline)
	}
}

func TestStartAfterDeadlinePassedIsRejected(t *testing.T) {
	f := newFixture(t)
	task := f.readyTask(t, "frog", 2, time.Hour)

	f.now = f.now.Add(2 * time.Hour)
	if _, err := f.ctrl.Start(task.ID); !errors.Is(err, model.ErrDeadlineExceeded) {
		t.Fatalf("expected ErrDeadlineExceeded, got %v", err)
	}
	got, _ := f.ctrl.Get(task.ID)
	if got.State != model.TaskStateNew || got.TimeLeft.IsSet() {
		t.Fatalf("rejected start must leave the task untouched: %+v", got)
	}
	if f.engine.Len() != 0 {
		t.Fatalf("rejected start must not arm timers, %d pending", f.engine.Len())
	}
}

func TestSetDurationRejectsOverflowingHours(t *testing.T) {
	f := newFixture(t)
	task, _ := f.ctrl.CreateTask("frog")
	if _, err := f.ctrl.SetDuration(task.ID, 3_000_000); !errors.Is(err, model.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
	if got, _ := f.ctrl.Get(task.ID); got.Duration != 0 {
		t.Fatalf("rejected duration must not be stored, got %v", got.Duration)
	}
}

func TestSingleActiveTask(t *testing.T) {
	f := newFixture(t)
	a := f.readyTask(t, "a", 1, 10*time.Hour)
	b := f.readyTask(t, "b", 1, 10*time.Hour)

	if _, err := f.ctrl.Start(a.ID); err != nil {
		t.Fatalf("start a: %v", err)
	}
	if _, err := f.ctrl.Start(b.ID); !errors.Is(err, model.ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}
	got, _ := f.ctrl.Get(b.ID)
	if got.State != model.TaskStateNew || got.TimeLeft.IsSet() {
		t.Fatalf("conflicting start mutated task: %+v", got)
	}
	if checkIn, _ := f.pending(b.ID); checkIn {
		t.Fatal("conflicting start must not arm timers")
	}

	if _, err := f.ctrl.Finish(a.ID); err != nil {
		t.Fatalf("finish a: %v", err)
	}
	if _, err := f.ctrl.Start(b.ID); err != nil {
		t.Fatalf("start b after a finished: %v", err)
	}
}

func TestInvalidTransitionsLeaveStateUnchanged(t *testing.T) {
	f := newFixture(t)
	task := f.readyTask(t, "frog", 1, 10*time.Hour)

	if _, err := f.ctrl.Finish(task.ID); !errors.Is(err, model.ErrInvalidTransition) {
		t.Fatalf("NEW -> DONE: expected ErrInvalidTransition, got %v", err)
	}
	if got, _ := f.ctrl.Get(task.ID); got.State != model.TaskStateNew {
		t.Fatalf("state changed: %s", got.State)
	}

	if _, err := f.ctrl.Start(task.ID); err != nil {
		t.Fatalf("start: %v", err)
	}
	if _, err := f.ctrl.Start(task.ID); !errors.Is(err, model.ErrInvalidTransition) {
		t.Fatalf("IN_PROGRESS -> IN_PROGRESS: expected ErrInvalidTransition, got %v", err)
	}
	if _, err := f.ctrl.Finish(task.ID); err != nil {
		t.Fatalf("finish: %v", err)
	}
	if _, err := f.ctrl.Start(task.ID); !errors.Is(err, model.ErrInvalidTransition) {
		t.Fatalf("DONE -> IN_PROGRESS: expected ErrInvalidTransition, got %v", err)
	}
	if _, err := f.ctrl.Finish(task.ID); !errors.Is(err, model.ErrInvalidTransition) {
		t.Fatalf("DONE -> DONE: expected ErrInvalidTransition, got %v", err)
	}
	if _, err := f.ctrl.SetDuration(task.ID, 3); !errors.Is(err, model.ErrInvalidTransition) {
		t.Fatalf("editing a finished task: expected ErrInvalidTransition, got %v", err)
	}
	if got, _ := f.ctrl.Get(task.ID); got.State != model.TaskStateDone {
		t.Fatalf("state changed: %s", got.State)
	}
}

func TestExtendRules(t *testing.T) {
	f := newFixture(t)
	anchored := f.readyTask(t, "anchored", 5, 10*time.Hour)

	if _, err := f.ctrl.Extend(anchored.ID); !errors.Is(err, model.ErrNotStarted) {
		t.Fatalf("expected ErrNotStarted, got %v", err)
	}

	started, err := f.ctrl.Start(anchored.ID)
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if _, err := f.ctrl.Extend(anchored.ID); !errors.Is(err, model.ErrDeadlineExceeded) {
		t.Fatalf("expected ErrDeadlineExceeded for anchored task, got %v", err)
	}
	got, _ := f.ctrl.Get(anchored.ID)
	if !got.TimeLeft.Equal(started.TimeLeft) {
		t.Fatalf("time_left changed on rejected extend: %+v -> %+v", started.TimeLeft, got.TimeLeft)
	}
}

func TestExtendCapped(t *testing.T) {
	f := newFixture(t)
	task := f.readyTask(t, "capped", 5, 3*time.Hour)
	if _, err := f.ctrl.Start(task.ID); err != nil {
		t.Fatalf("start: %v", err)
	}
	f.engine.Cancel(model.ReminderKindDeadline.Key(task.ID))

	f.now = f.now.Add(time.Hour)
	extended, err := f.ctrl.Extend(task.ID)
	if err != nil {
		t.Fatalf("extend: %v", err)
	}
	if budget, ok := extended.TimeLeft.Budget(); !ok || budget != 8*time.Hour {
		t.Fatalf("expected capped 8h, got %+v", extended.TimeLeft)
	}
	checkIn, deadline := f.pending(task.ID)
	if !checkIn || deadline {
		t.Fatalf("extend re-arms only the check-in, checkIn=%v deadline=%v", checkIn, deadline)
	}

	f.now = f.now.Add(3 * time.Hour)
	if _, err := f.ctrl.Extend(task.ID); !errors.Is(err, model.ErrDeadlineExceeded) {
		t.Fatalf("expected ErrDeadlineExceeded after deadline, got %v", err)
	}
}

func TestFinishCancelsTimers(t *testing.T) {
	f := newFixture(t)
	task := f.readyTask(t, "frog", 1, 10*time.Hour)
	if _, err := f.ctrl.Start(task.ID); err != nil {
		t.Fatalf("start: %v", err)
	}
	done, err := f.ctrl.Finish(task.ID)
	if err != nil {
		t.Fatalf("finish: %v", err)
	}
	if done.State != model.TaskStateDone || done.TimeLeft.IsSet() {
		t.Fatalf("unexpected finished task: %+v", done)
	}
	if checkIn, deadline := f.pending(task.ID); checkIn || deadline {
		t.Fatalf("expected no pending timers, checkIn=%v deadline=%v", checkIn, deadline)
	}
	if f.engine.Cancel(model.ReminderKindTimeLeft.Key(task.ID)) || f.engine.Cancel(model.ReminderKindDeadline.Key(task.ID)) {
		t.Fatal("cancel after finish must find nothing")
	}
}

func TestDeleteRemovesAndCancels(t *testing.T) {
	f := newFixture(t)
	task := f.readyTask(t, "frog", 1, 10*time.Hour)
	if _, err := f.ctrl.Start(task.ID); err != nil {
		t.Fatalf("start: %v", err)
	}
	if _, err := f.ctrl.Delete(task.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	for _, listed := range f.ctrl.List(false) {
		if listed.ID == task.ID {
			t.Fatal("deleted task still listed")
		}
	}
	if f.engine.Len() != 0 {
		t.Fatalf("expected no pending timers, got %d", f.engine.Len())
	}
	if _, err := f.ctrl.Delete(task.ID); !errors.Is(err, model.ErrNotFound) {
		t.Fatalf("second delete: expected ErrNotFound, got %v", err)
	}
}

func TestRoundTrip(t *testing.T) {
	f := newFixture(t)
	task := f.readyTask(t, "frog", 2, 24*time.Hour)
	if _, err := f.ctrl.Start(task.ID); err != nil {
		t.Fatalf("start: %v", err)
	}
	done, err := f.ctrl.Finish(task.ID)
	if err != nil {
		t.Fatalf("finish: %v", err)
	}
	if done.State != model.TaskStateDone || f.engine.Len() != 0 {
		t.Fatalf("expected DONE with no timers, state=%s timers=%d", done.State, f.engine.Len())
	}
}

func TestListSortedByDeadline(t *testing.T) {
	f := newFixture(t)
	late := f.readyTask(t, "late", 1, 30*time.Hour)
	early := f.readyTask(t, "early", 1, 3*time.Hour)
	undated, _ := f.ctrl.CreateTask("undated")

	all := f.ctrl.List(false)
	if len(all) != 3 || all[0].ID != late.ID || all[2].ID != undated.ID {
		t.Fatalf("unexpected creation order: %+v", all)
	}
	sorted := f.ctrl.List(true)
	if len(sorted) != 2 || sorted[0].ID != early.ID || sorted[1].ID != late.ID {
		t.Fatalf("unexpected deadline order: %+v", sorted)
	}
}

func TestRemaining(t *testing.T) {
	f := newFixture(t)
	task := f.readyTask(t, "frog", 5, 10*time.Hour)
	if _, err := f.ctrl.Remaining(task.ID); !errors.Is(err, model.ErrNotStarted) {
		t.Fatalf("expected ErrNotStarted, got %v", err)
	}
	if _, err := f.ctrl.Start(task.ID); err != nil {
		t.Fatalf("start: %v", err)
	}
	f.now = f.now.Add(2 * time.Hour)
	d, err := f.ctrl.Remaining(task.ID)
	if err != nil || d != 3*time.Hour {
		t.Fatalf("expected 3h remaining, got %v err=%v", d, err)
	}
}
