package views

import (
	"strings"
	"testing"
	"time"

	"github.com/sandeepkv93/frogbot/internal/model"
)

func TestTaskLine(t *testing.T) {
	now := time.Date(2026, 2, 9, 12, 0, 0, 0, time.UTC)
	deadline := now.Add(10 * time.Hour)
	task := model.Task{
		ID:       3,
		Name:     "frog",
		Duration: 5 * time.Hour,
		Deadline: &deadline,
		State:    model.TaskStateInProgress,
		TimeLeft: model.Anchored(now.Add(5 * time.Hour)),
	}
	got := TaskLine(task, now.Add(30*time.Minute))
	want := "Task №3: frog, duration: 5h, deadline: 2026-02-09 22:00, time left: 4h30m0s [IN_PROGRESS]"
	if got != want {
		t.Fatalf("TaskLine:\n got %q\nwant %q", got, want)
	}
}

func TestTaskLineNewTaskOmitsUnsetFields(t *testing.T) {
	got := TaskLine(model.Task{ID: 1, Name: "draft", State: model.TaskStateNew}, time.Now())
	if got != "Task №1: draft [NEW]" {
		t.Fatalf("unexpected line: %q", got)
	}
}

func TestTaskListEmpty(t *testing.T) {
	if got := TaskList("Tasks", nil, time.Now()); got != "You have no tasks." {
		t.Fatalf("unexpected empty list: %q", got)
	}
}

func TestRemaining(t *testing.T) {
	if got := Remaining(-90 * time.Second); got != "overdue by 1m30s" {
		t.Fatalf("unexpected overdue text: %q", got)
	}
	if got := Hours(90 * time.Minute); got != "1h30m0s" {
		t.Fatalf("unexpected hours text: %q", got)
	}
}

func TestRenderLineTagsSpeaker(t *testing.T) {
	if got := RenderLine(SpeakerUser, "/tasks"); !strings.Contains(got, "/tasks") {
		t.Fatalf("user line lost its text: %q", got)
	}
	if got := RenderMarkdown("   "); got != "" {
		t.Fatalf("blank markdown should render empty, got %q", got)
	}
}
