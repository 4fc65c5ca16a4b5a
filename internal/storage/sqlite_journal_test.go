package storage

import (
	"context"
	"errors"
	"testing"
	"time"
)

func setupJournal(t *testing.T) *SQLiteJournal {
	t.Helper()
	journal, err := OpenSQLite(MemoryDSN)
	if err != nil {
		t.Fatalf("open journal: %v", err)
	}
	t.Cleanup(func() { _ = journal.Close() })
	return journal
}

func TestJournalAppendAndFilter(t *testing.T) {
	journal := setupJournal(t)
	ctx := context.Background()
	base := time.Date(2026, 2, 9, 12, 0, 0, 0, time.UTC)

	events := []Event{
		{SessionID: "a", TaskID: 1, TaskName: "frog", Kind: EventCreated, CreatedAt: base},
		{SessionID: "a", TaskID: 1, TaskName: "frog", Kind: EventStarted, Detail: "time left 5h0m0s", CreatedAt: base.Add(time.Minute)},
		{SessionID: "a", TaskID: 2, TaskName: "tadpole", Kind: EventCreated, CreatedAt: base.Add(2 * time.Minute)},
		{SessionID: "b", TaskID: 1, TaskName: "other", Kind: EventCreated, CreatedAt: base},
	}
	for _, ev := range events {
		if err := journal.Append(ctx, ev); err != nil {
			t.Fatalf("append: %v", err)
		}
	}

	sessionA, err := journal.List(ctx, EventFilter{SessionID: "a"})
	if err != nil {
		t.Fatalf("list session: %v", err)
	}
	if len(sessionA) != 3 || sessionA[0].Kind != EventCreated || sessionA[1].Kind != EventStarted {
		t.Fatalf("unexpected session events: %#v", sessionA)
	}
	if !sessionA[1].CreatedAt.Equal(base.Add(time.Minute)) || sessionA[1].Detail != "time left 5h0m0s" {
		t.Fatalf("fields not preserved: %#v", sessionA[1])
	}

	task1, err := journal.List(ctx, EventFilter{SessionID: "a", TaskID: 1})
	if err != nil {
		t.Fatalf("list task: %v", err)
	}
	if len(task1) != 2 {
		t.Fatalf("expected 2 events for task 1, got %d", len(task1))
	}

	page, err := journal.List(ctx, EventFilter{SessionID: "a", Offset: 2})
	if err != nil {
		t.Fatalf("list page: %v", err)
	}
	if len(page) != 1 || page[0].TaskID != 2 {
		t.Fatalf("unexpected page: %#v", page)
	}
}

func TestJournalRejectsIncompleteEvent(t *testing.T) {
	journal := setupJournal(t)
	err := journal.Append(context.Background(), Event{TaskID: 1, Kind: EventCreated})
	if !errors.Is(err, ErrInvalidEvent) {
		t.Fatalf("expected ErrInvalidEvent, got %v", err)
	}
}

func TestNopJournal(t *testing.T) {
	var j Journal = NopJournal{}
	if err := j.Append(context.Background(), Event{}); err != nil {
		t.Fatalf("nop append: %v", err)
	}
	list, err := j.List(context.Background(), EventFilter{})
	if err != nil || len(list) != 0 {
		t.Fatalf("nop list: %v %v", list, err)
	}
}
