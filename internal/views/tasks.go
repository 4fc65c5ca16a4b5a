package views

import (
	"fmt"
	"strings"
	"time"

	"github.com/sandeepkv93/frogbot/internal/model"
)

const DeadlineLayout = "2006-01-02 15:04"

// TaskLine renders one task the way the chat shows it in lists.
func TaskLine(task model.Task, now time.Time) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Task №%d: %s", task.ID, task.Name)
	if task.Duration > 0 {
		fmt.Fprintf(&b, ", duration: %s", Hours(task.Duration))
	}
	if task.HasDeadline() {
		fmt.Fprintf(&b, ", deadline: %s", task.Deadline.Format(DeadlineLayout))
	}
	if left, ok := task.TimeLeft.Remaining(now); ok {
		fmt.Fprintf(&b, ", time left: %s", Remaining(left))
	}
	fmt.Fprintf(&b, " [%s]", task.State)
	return b.String()
}

func TaskList(title string, tasks []model.Task, now time.Time) string {
	if len(tasks) == 0 {
		return "You have no tasks."
	}
	lines := make([]string, 0, len(tasks)+1)
	lines = append(lines, title)
	for _, task := range tasks {
		lines = append(lines, TaskLine(task, now))
	}
	return strings.Join(lines, "\n")
}

func Hours(d time.Duration) string {
	if d%time.Hour == 0 {
		return fmt.Sprintf("%dh", int(d/time.Hour))
	}
	return d.Round(time.Minute).String()
}

// Remaining formats a countdown; overdue values are shown as such.
func Remaining(d time.Duration) string {
	if d < 0 {
		return "overdue by " + (-d).Round(time.Second).String()
	}
	return d.Round(time.Second).String()
}

const Procrastination = `# What is procrastination?

Procrastination is one of the main barriers blocking you from getting up, making the right
decisions and living the life you have thought of.

Recent studies have shown that people regret the things they **haven't** done more than the
things they have done, and that regret over missed opportunities stays with people much longer.

*When you procrastinate, you waste time that you could be investing in something meaningful.*
Eat the frog: start the hardest task first, give it a deadline and let the reminders keep you honest.
`
