// Package lifecycle enforces task state transitions for one user session and
// keeps reminder timers in step with them.
package lifecycle

import (
	"fmt"
	"log"
	"slices"
	"sync"
	"time"

	"github.com/sandeepkv93/frogbot/internal/model"
	"github.com/sandeepkv93/frogbot/internal/registry"
	"github.com/sandeepkv93/frogbot/internal/reminder"
)

// Reminders arms and cancels the timers attached to a started task.
type Reminders interface {
	Arm(destination string, task model.Task, firstTime bool) (reminder.Armed, error)
	Cancel(task model.Task)
}

type Option func(*Controller)

func WithClock(now func() time.Time) Option {
	return func(c *Controller) {
		if now != nil {
			c.now = now
		}
	}
}

func WithRegistry(reg *registry.Registry) Option {
	return func(c *Controller) {
		if reg != nil {
			c.reg = reg
		}
	}
}

// Controller is safe for concurrent use; intents are applied one at a time.
type Controller struct {
	mu          sync.Mutex
	destination string
	reg         *registry.Registry
	reminders   Reminders
	now         func() time.Time
}

func New(destination string, reminders Reminders, opts ...Option) *Controller {
	c := &Controller{
		destination: destination,
		reg:         registry.New(&registry.Sequence{}),
		reminders:   reminders,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Controller) CreateTask(name string) (model.Task, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	task, err := model.NewTask(0, name)
	if err != nil {
		return model.Task{}, err
	}
	task.ID = c.reg.NextID()
	c.reg.Add(task)
	return task, nil
}

func (c *Controller) SetDuration(id, hours int) (model.Task, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	task, err := c.editable(id)
	if err != nil {
		return model.Task{}, err
	}
	d, err := model.DurationHours(hours)
	if err != nil {
		return model.Task{}, err
	}
	task.Duration = d
	return *task, nil
}

func (c *Controller) SetDeadline(id int, at time.Time) (model.Task, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	task, err := c.editable(id)
	if err != nil {
		return model.Task{}, err
	}
	if err := model.CheckDeadline(at, c.now()); err != nil {
		return model.Task{}, err
	}
	task.Deadline = &at
	return *task, nil
}

// Start moves a NEW task to IN_PROGRESS, derives its time_left and arms both reminders.
func (c *Controller) Start(id int) (model.Task, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	task, err := c.reg.FindByID(id)
	if err != nil {
		return model.Task{}, err
	}
	if active, ok := c.reg.InProgress(); ok && active.ID != id {
		return model.Task{}, fmt.Errorf("%w: task %d (%s) is still running", model.ErrConflict, active.ID, active.Name)
	}
	if !model.CanTransition(task.State, model.TaskStateInProgress) {
		return model.Task{}, fmt.Errorf("%w: cannot start task %d in state %s", model.ErrInvalidTransition, id, task.State)
	}
	if err := task.Ready(); err != nil {
		return model.Task{}, err
	}

	now := c.now()
	if !now.Before(*task.Deadline) {
		return model.Task{}, fmt.Errorf("%w: deadline of task %d passed at %s", model.ErrDeadlineExceeded, id, task.Deadline.Format(time.DateTime))
	}
	task.State = model.TaskStateInProgress
	task.TimeLeft = model.ComputeTimeLeft(now, task.Duration, *task.Deadline)
	c.arm(*task, true)
	return *task, nil
}

func (c *Controller) Finish(id int) (model.Task, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	task, err := c.reg.FindByID(id)
	if err != nil {
		return model.Task{}, err
	}
	if !model.CanTransition(task.State, model.TaskStateDone) {
		return model.Task{}, fmt.Errorf("%w: cannot finish task %d in state %s", model.ErrInvalidTransition, id, task.State)
	}
	c.reminders.Cancel(*task)
	task.State = model.TaskStateDone
	task.TimeLeft = model.TimeLeft{}
	return *task, nil
}

// Extend adds another duration to a task whose time was capped at the
// deadline. Anchored tasks still have slack and cannot be extended.
func (c *Controller) Extend(id int) (model.Task, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	task, err := c.reg.FindByID(id)
	if err != nil {
		return model.Task{}, err
	}
	if !task.TimeLeft.IsSet() {
		return model.Task{}, fmt.Errorf("%w: task %d", model.ErrNotStarted, id)
	}
	if task.State != model.TaskStateInProgress {
		return model.Task{}, fmt.Errorf("%w: cannot extend task %d in state %s", model.ErrInvalidTransition, id, task.State)
	}

	switch task.TimeLeft.Kind() {
	case model.TimeLeftAnchored:
		return model.Task{}, fmt.Errorf("%w: task %d still fits before its deadline", model.ErrDeadlineExceeded, id)
	case model.TimeLeftCapped:
		// The grown budget may run past the deadline; only a passed deadline blocks extending.
		if !c.now().Before(*task.Deadline) {
			return model.Task{}, fmt.Errorf("%w: deadline of task %d has passed", model.ErrDeadlineExceeded, id)
		}
		budget, _ := task.TimeLeft.Budget()
		task.TimeLeft = model.Capped(budget + task.Duration)
		c.arm(*task, false)
		return *task, nil
	default:
		return model.Task{}, fmt.Errorf("%w: task %d has unknown time_left kind %q", model.ErrInvalidTransition, id, task.TimeLeft.Kind())
	}
}

// Delete removes the task in any state and cancels its reminders.
func (c *Controller) Delete(id int) (model.Task, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	task, err := c.reg.Remove(id)
	if err != nil {
		return model.Task{}, err
	}
	c.reminders.Cancel(task)
	return task, nil
}

func (c *Controller) Get(id int) (model.Task, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	task, err := c.reg.FindByID(id)
	if err != nil {
		return model.Task{}, err
	}
	return *task, nil
}

// List returns all tasks in creation order, or only dated tasks ordered by deadline.
func (c *Controller) List(sortByDeadline bool) []model.Task {
	c.mu.Lock()
	defer c.mu.Unlock()

	if sortByDeadline {
		return slices.Collect(c.reg.SortedByDeadline())
	}
	return c.reg.All()
}

// Remaining is the display countdown for a started task.
func (c *Controller) Remaining(id int) (time.Duration, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	task, err := c.reg.FindByID(id)
	if err != nil {
		return 0, err
	}
	d, ok := task.TimeLeft.Remaining(c.now())
	if !ok {
		return 0, fmt.Errorf("%w: task %d", model.ErrNotStarted, id)
	}
	return d, nil
}

func (c *Controller) editable(id int) (*model.Task, error) {
	task, err := c.reg.FindByID(id)
	if err != nil {
		return nil, err
	}
	if task.State != model.TaskStateNew {
		return nil, fmt.Errorf("%w: task %d is %s and can no longer be edited", model.ErrInvalidTransition, id, task.State)
	}
	return task, nil
}

func (c *Controller) arm(task model.Task, firstTime bool) {
	armed, err := c.reminders.Arm(c.destination, task, firstTime)
	if err != nil {
		log.Printf("lifecycle: arming reminders for task %d: %v", task.ID, err)
		return
	}
	if firstTime && !armed.Deadline {
		log.Printf("lifecycle: task %d started without a deadline warning", task.ID)
	}
}
