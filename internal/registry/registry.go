// Package registry holds the ordered task list of a single user session.
package registry

import (
	"fmt"
	"iter"
	"slices"

	"github.com/sandeepkv93/frogbot/internal/model"
)

// IDGenerator hands out task ids. Ids are never reused by a generator.
type IDGenerator interface {
	Next() int
}

// Sequence is a per-registry monotonic counter starting at 1.
type Sequence struct {
	last int
}

func (s *Sequence) Next() int {
	s.last++
	return s.last
}

// Registry is not safe for concurrent use; the owning controller serializes access.
type Registry struct {
	ids   IDGenerator
	tasks map[int]*model.Task
	order []int
}

func New(ids IDGenerator) *Registry {
	if ids == nil {
		ids = &Sequence{}
	}
	return &Registry{
		ids:   ids,
		tasks: make(map[int]*model.Task),
		order: make([]int, 0),
	}
}

func (r *Registry) NextID() int {
	return r.ids.Next()
}

func (r *Registry) Add(task model.Task) {
	if _, exists := r.tasks[task.ID]; !exists {
		r.order = append(r.order, task.ID)
	}
	stored := task
	r.tasks[task.ID] = &stored
}

// FindByID returns the live task record. Callers outside the owning controller
// must not hold on to it.
func (r *Registry) FindByID(id int) (*model.Task, error) {
	task, ok := r.tasks[id]
	if !ok {
		return nil, fmt.Errorf("%w: id %d", model.ErrNotFound, id)
	}
	return task, nil
}

func (r *Registry) Remove(id int) (model.Task, error) {
	task, ok := r.tasks[id]
	if !ok {
		return model.Task{}, fmt.Errorf("%w: id %d", model.ErrNotFound, id)
	}
	delete(r.tasks, id)
	r.order = slices.DeleteFunc(r.order, func(v int) bool { return v == id })
	return *task, nil
}

func (r *Registry) Len() int {
	return len(r.order)
}

// All returns copies in insertion order.
func (r *Registry) All() []model.Task {
	out := make([]model.Task, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, *r.tasks[id])
	}
	return out
}

// InProgress returns the task currently IN_PROGRESS, if any.
func (r *Registry) InProgress() (model.Task, bool) {
	for _, id := range r.order {
		if task := r.tasks[id]; task.State == model.TaskStateInProgress {
			return *task, true
		}
	}
	return model.Task{}, false
}

// SortedByDeadline yields tasks with a deadline in ascending deadline order.
// Each range over the sequence takes a fresh snapshot, so it can be restarted.
func (r *Registry) SortedByDeadline() iter.Seq[model.Task] {
	return func(yield func(model.Task) bool) {
		snapshot := make([]model.Task, 0, len(r.order))
		for _, id := range r.order {
			if task := r.tasks[id]; task.HasDeadline() {
				snapshot = append(snapshot, *task)
			}
		}
		slices.SortStableFunc(snapshot, func(a, b model.Task) int {
			return a.Deadline.Compare(*b.Deadline)
		})
		for _, task := range snapshot {
			if !yield(task) {
				return
			}
		}
	}
}
