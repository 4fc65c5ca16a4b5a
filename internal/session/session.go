package session

import (
	"context"
	"errors"
	"fmt"
	"log"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/sandeepkv93/frogbot/internal/commands"
	"github.com/sandeepkv93/frogbot/internal/lifecycle"
	"github.com/sandeepkv93/frogbot/internal/model"
	"github.com/sandeepkv93/frogbot/internal/storage"
	"github.com/sandeepkv93/frogbot/internal/views"
)

type dialogStep int

const (
	stepIdle dialogStep = iota
	stepName
	stepDuration
	stepDeadline
)

// Session is one user's conversation. mu serializes overlapping input.
type Session struct {
	ID     string
	mu     sync.Mutex
	ctrl   *lifecycle.Controller
	step   dialogStep
	taskID int
}

func newSession(id string, ctrl *lifecycle.Controller) *Session {
	return &Session{ID: id, ctrl: ctrl}
}

const (
	promptName     = "Okay, please, write your task."
	promptDuration = "Write the duration of the task in hours (e.g. 10 means 10 hours)."
	promptDeadline = "Write the deadline of the task in the format YYYY-MM-DD HH:MM[:SS], e.g. 2026-01-09 23:59"
	helpText       = `Commands:
/new [name]             add a task (asks for duration and deadline)
/duration <id> <hours>  set the duration of a new task
/deadline <id> <date>   set the deadline of a new task
/start <id>             start a task (one at a time)
/finish <id>            mark the running task as done
/extend <id>            add another duration to a task capped by its deadline
/delete <id>            delete a task
/list [deadline]        open tasks, optionally by deadline
/tasks                  all tasks, even finished
/history                what happened so far
/frog                   what is procrastination?
/cancel                 abort the current dialog`
)

func (m *Manager) handle(ctx context.Context, s *Session, input string) Reply {
	text := strings.TrimSpace(input)
	if text == "" {
		return Reply{}
	}
	if commands.IsCommand(text) {
		cmd, err := commands.Parse(text)
		if err != nil {
			return failure(err)
		}
		s.step, s.taskID = stepIdle, 0
		res, err := commands.Execute(cmd, m.handlers(ctx, s))
		if err != nil {
			return failure(err)
		}
		return Reply{Text: res.Message, Markdown: cmd.Type == commands.TypeFrog}
	}

	switch s.step {
	case stepName:
		return m.createTask(ctx, s, text)
	case stepDuration:
		return m.dialogDuration(ctx, s, text)
	case stepDeadline:
		return m.dialogDeadline(ctx, s, text)
	default:
		return Reply{Text: "I didn't get that. Type /help to see what I can do."}
	}
}

func (m *Manager) handlers(ctx context.Context, s *Session) commands.Handlers {
	return commands.Handlers{
		New: func(a commands.NewArgs) (commands.Result, error) {
			if a.Name == "" {
				s.step = stepName
				return commands.Result{Message: promptName}, nil
			}
			return result(m.createTask(ctx, s, a.Name))
		},
		Duration: func(a commands.DurationArgs) (commands.Result, error) {
			task, err := s.ctrl.SetDuration(a.ID, a.Hours)
			if err != nil {
				return commands.Result{}, err
			}
			m.record(ctx, s.ID, storage.EventUpdated, task, "duration "+views.Hours(task.Duration))
			return commands.Result{Message: views.TaskLine(task, m.now())}, nil
		},
		Deadline: func(a commands.DeadlineArgs) (commands.Result, error) {
			task, err := s.ctrl.SetDeadline(a.ID, a.At)
			if err != nil {
				return commands.Result{}, err
			}
			m.record(ctx, s.ID, storage.EventUpdated, task, "deadline "+task.Deadline.Format(views.DeadlineLayout))
			return commands.Result{Message: views.TaskLine(task, m.now())}, nil
		},
		Start: func(a commands.TaskArgs) (commands.Result, error) {
			task, err := s.ctrl.Start(a.ID)
			if err != nil {
				return commands.Result{}, err
			}
			m.record(ctx, s.ID, storage.EventStarted, task, timeLeftDetail(task, m.now()))
			return commands.Result{Message: "You've successfully started a task.\n" + views.TaskLine(task, m.now())}, nil
		},
		Finish: func(a commands.TaskArgs) (commands.Result, error) {
			task, err := s.ctrl.Finish(a.ID)
			if err != nil {
				return commands.Result{}, err
			}
			m.record(ctx, s.ID, storage.EventFinished, task, "")
			return commands.Result{Message: fmt.Sprintf("You've marked task №%d as done. One frog less!", task.ID)}, nil
		},
		Extend: func(a commands.TaskArgs) (commands.Result, error) {
			task, err := s.ctrl.Extend(a.ID)
			if err != nil {
				return commands.Result{}, err
			}
			m.record(ctx, s.ID, storage.EventExtended, task, timeLeftDetail(task, m.now()))
			return commands.Result{Message: "You've successfully extended time for this task.\n" + views.TaskLine(task, m.now())}, nil
		},
		Delete: func(a commands.TaskArgs) (commands.Result, error) {
			task, err := s.ctrl.Delete(a.ID)
			if err != nil {
				return commands.Result{}, err
			}
			m.record(ctx, s.ID, storage.EventDeleted, task, "")
			return commands.Result{Message: fmt.Sprintf("You've deleted task №%d.", task.ID)}, nil
		},
		List: func(a commands.ListArgs) (commands.Result, error) {
			open := slices.DeleteFunc(s.ctrl.List(a.ByDeadline), func(t model.Task) bool {
				return t.State == model.TaskStateDone
			})
			title := "Your open tasks:"
			if a.ByDeadline {
				title = "Your open tasks by deadline:"
			}
			return commands.Result{Message: views.TaskList(title, open, m.now())}, nil
		},
		Simple: map[commands.Type]func() (commands.Result, error){
			commands.TypeTasks: func() (commands.Result, error) {
				return commands.Result{Message: views.TaskList("All tasks (even finished):", s.ctrl.List(false), m.now())}, nil
			},
			commands.TypeHistory: func() (commands.Result, error) {
				return m.history(ctx, s)
			},
			commands.TypeFrog: func() (commands.Result, error) {
				return commands.Result{Message: views.Procrastination}, nil
			},
			commands.TypeHelp: func() (commands.Result, error) {
				return commands.Result{Message: helpText}, nil
			},
			commands.TypeCancel: func() (commands.Result, error) {
				return commands.Result{Message: "Okay, cancelled."}, nil
			},
		},
	}
}

func (m *Manager) createTask(ctx context.Context, s *Session, name string) Reply {
	task, err := s.ctrl.CreateTask(name)
	if err != nil {
		s.step = stepName
		return retry(err, promptName)
	}
	m.record(ctx, s.ID, storage.EventCreated, task, "")
	s.step, s.taskID = stepDuration, task.ID
	return Reply{Text: fmt.Sprintf("Task №%d created. %s", task.ID, promptDuration)}
}

func (m *Manager) dialogDuration(ctx context.Context, s *Session, text string) Reply {
	hours, err := commands.ParseHours(text)
	if err != nil {
		return retry(err, promptDuration)
	}
	task, err := s.ctrl.SetDuration(s.taskID, hours)
	if err != nil {
		if errors.Is(err, model.ErrValidation) {
			return retry(err, promptDuration)
		}
		s.step, s.taskID = stepIdle, 0
		return failure(err)
	}
	m.record(ctx, s.ID, storage.EventUpdated, task, "duration "+views.Hours(task.Duration))
	s.step = stepDeadline
	return Reply{Text: promptDeadline}
}

func (m *Manager) dialogDeadline(ctx context.Context, s *Session, text string) Reply {
	at, err := commands.ParseDeadline(text, time.Local)
	if err != nil {
		return retry(err, promptDeadline)
	}
	task, err := s.ctrl.SetDeadline(s.taskID, at)
	if err != nil {
		if errors.Is(err, model.ErrValidation) {
			return retry(err, promptDeadline)
		}
		s.step, s.taskID = stepIdle, 0
		return failure(err)
	}
	m.record(ctx, s.ID, storage.EventUpdated, task, "deadline "+at.Format(views.DeadlineLayout))
	s.step, s.taskID = stepIdle, 0
	return Reply{Text: fmt.Sprintf("Got it! You have %d tasks.\n%s\nType /start %d when you are ready.",
		len(s.ctrl.List(false)), views.TaskLine(task, m.now()), task.ID)}
}

func (m *Manager) history(ctx context.Context, s *Session) (commands.Result, error) {
	events, err := m.journal.List(ctx, storage.EventFilter{SessionID: s.ID})
	if err != nil {
		return commands.Result{}, err
	}
	if len(events) == 0 {
		return commands.Result{Message: "Nothing happened yet."}, nil
	}
	lines := make([]string, 0, len(events)+1)
	lines = append(lines, "History:")
	for _, ev := range events {
		line := fmt.Sprintf("%s %s task №%d %s", ev.CreatedAt.Local().Format("01-02 15:04"), ev.Kind, ev.TaskID, ev.TaskName)
		if ev.Detail != "" {
			line += " (" + ev.Detail + ")"
		}
		lines = append(lines, line)
	}
	return commands.Result{Message: strings.Join(lines, "\n")}, nil
}

func timeLeftDetail(task model.Task, now time.Time) string {
	left, ok := task.TimeLeft.Remaining(now)
	if !ok {
		return ""
	}
	return fmt.Sprintf("%s time left %s", task.TimeLeft.Kind(), views.Remaining(left))
}

func result(r Reply) (commands.Result, error) {
	if r.IsError {
		return commands.Result{}, replyError(r.Text)
	}
	return commands.Result{Message: r.Text}, nil
}

type replyError string

func (e replyError) Error() string { return string(e) }

func retry(err error, prompt string) Reply {
	return Reply{Text: UserMessage(err) + "\n" + prompt, IsError: true}
}

func failure(err error) Reply {
	return Reply{Text: UserMessage(err), IsError: true}
}

// UserMessage turns any error from the command path into text safe to show.
func UserMessage(err error) string {
	var ce *commands.CommandError
	var re replyError
	switch {
	case errors.As(err, &re):
		return string(re)
	case errors.As(err, &ce):
		return ce.Message + "."
	case errors.Is(err, model.ErrValidation):
		return "That doesn't look right: " + detail(err, model.ErrValidation) + "."
	case errors.Is(err, model.ErrConflict):
		return "You can't start a few tasks simultaneously: " + detail(err, model.ErrConflict) + "."
	case errors.Is(err, model.ErrNotStarted):
		return "You can't do that with a task that you haven't started yet."
	case errors.Is(err, model.ErrDeadlineExceeded):
		return "The deadline doesn't leave room for that: " + detail(err, model.ErrDeadlineExceeded) + "."
	case errors.Is(err, model.ErrInvalidTransition):
		return "You can't do that right now: " + detail(err, model.ErrInvalidTransition) + "."
	case errors.Is(err, model.ErrNotFound):
		return "I can't find that task."
	default:
		log.Printf("session: unexpected error: %v", err)
		return "Something went wrong, please try again."
	}
}

// detail strips the sentinel prefix so only our own context is shown.
func detail(err, sentinel error) string {
	msg := err.Error()
	if i := strings.Index(msg, sentinel.Error()+": "); i >= 0 {
		return msg[i+len(sentinel.Error())+2:]
	}
	return strings.TrimPrefix(msg, sentinel.Error())
}
