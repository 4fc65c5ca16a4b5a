package model

import (
	"errors"
	"testing"
	"time"
)

func TestReminderValidateSuccess(t *testing.T) {
	rem := Reminder{
		Destination: "chat-1",
		TaskID:      7,
		TaskName:    "frog",
		Kind:        ReminderKindTimeLeft,
		FireAt:      time.Date(2026, 2, 9, 13, 0, 0, 0, time.UTC),
	}
	if err := rem.Validate(); err != nil {
		t.Fatalf("expected valid reminder, got error: %v", err)
	}
	if rem.Key() != "task-7_timeleft" {
		t.Fatalf("unexpected key: %s", rem.Key())
	}
}

func TestReminderValidateInvalidKind(t *testing.T) {
	rem := Reminder{
		Destination: "chat-1",
		TaskID:      7,
		Kind:        ReminderKind("weekly"),
		FireAt:      time.Date(2026, 2, 9, 13, 0, 0, 0, time.UTC),
	}
	if err := rem.Validate(); !errors.Is(err, ErrInvalidReminderKind) {
		t.Fatalf("expected ErrInvalidReminderKind, got: %v", err)
	}
}

func TestReminderKeysAreDistinctPerTask(t *testing.T) {
	if ReminderKindDeadline.Key(1) == ReminderKindDeadline.Key(2) {
		t.Fatal("keys for different tasks must differ")
	}
	if ReminderKindDeadline.Key(1) != "task-1_deadline" {
		t.Fatalf("unexpected deadline key: %s", ReminderKindDeadline.Key(1))
	}
}
