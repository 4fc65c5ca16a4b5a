package scheduler

import (
	"container/heap"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

var (
	ErrInvalidTriggerTime = errors.New("scheduler: invalid trigger time")
	ErrInvalidKey         = errors.New("scheduler: timer key is required")
	ErrPastDue            = errors.New("scheduler: trigger time already passed")
	ErrStopped            = errors.New("scheduler: engine stopped")
)

// Event is a one-shot timer. Payload is handed back untouched on delivery.
type Event struct {
	Key     string
	FireAt  time.Time
	Payload any
}

// Sink receives due events on the engine goroutine. It must not call back into
// the engine and should return quickly.
type Sink func(Event)

type queueItem struct {
	event Event
	index int
}

type priorityQueue []*queueItem

func (pq priorityQueue) Len() int { return len(pq) }

func (pq priorityQueue) Less(i, j int) bool {
	return pq[i].event.FireAt.Before(pq[j].event.FireAt)
}

func (pq priorityQueue) Swap(i, j int) {
	pq[i], pq[j] = pq[j], pq[i]
	pq[i].index = i
	pq[j].index = j
}

func (pq *priorityQueue) Push(x any) {
	item := x.(*queueItem)
	item.index = len(*pq)
	*pq = append(*pq, item)
}

func (pq *priorityQueue) Pop() any {
	old := *pq
	n := len(old)
	item := old[n-1]
	old[n-1] = nil
	item.index = -1
	*pq = old[0 : n-1]
	return item
}

type Option func(*Engine)

// WithClock overrides the time source used for past-due checks and waits.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		if now != nil {
			e.now = now
		}
	}
}

// Engine runs keyed one-shot timers on a single goroutine. A key has at most
// one live timer; scheduling an existing key replaces it.
type Engine struct {
	mu       sync.Mutex
	queue    priorityQueue
	byKey    map[string]*queueItem
	sink     Sink
	now      func() time.Time
	wakeup   chan struct{}
	stopCh   chan struct{}
	doneCh   chan struct{}
	started  bool
	stopped  bool
	fired    uint64
	dispatch sync.Mutex
}

func NewEngine(sink Sink, opts ...Option) *Engine {
	if sink == nil {
		sink = func(Event) {}
	}
	e := &Engine{
		queue:  make(priorityQueue, 0),
		byKey:  make(map[string]*queueItem),
		sink:   sink,
		now:    time.Now,
		wakeup: make(chan struct{}, 1),
		stopCh: make(chan struct{}),
		doneCh: make(chan struct{}),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *Engine) Start() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.started {
		return
	}
	e.started = true
	heap.Init(&e.queue)
	go e.loop()
}

func (e *Engine) Stop() {
	e.mu.Lock()
	if !e.started || e.stopped {
		e.stopped = true
		e.mu.Unlock()
		return
	}
	e.stopped = true
	close(e.stopCh)
	e.mu.Unlock()
	<-e.doneCh
}

// ScheduleOnce arms key to fire at fireAt. Past-due instants are rejected with
// ErrPastDue and nothing is armed.
func (e *Engine) ScheduleOnce(key string, fireAt time.Time, payload any) error {
	if strings.TrimSpace(key) == "" {
		return ErrInvalidKey
	}
	if fireAt.IsZero() {
		return ErrInvalidTriggerTime
	}
	if now := e.now(); fireAt.Before(now) {
		return fmt.Errorf("%w: %s is before %s", ErrPastDue, fireAt.Format(time.RFC3339), now.Format(time.RFC3339))
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.stopped {
		return ErrStopped
	}

	e.removeLocked(key)
	item := &queueItem{event: Event{Key: key, FireAt: fireAt, Payload: payload}}
	heap.Push(&e.queue, item)
	e.byKey[key] = item
	e.signalWakeup()
	return nil
}

// Cancel removes a pending timer and reports whether one existed. When Cancel
// returns, no delivery for key is in progress and none will start.
func (e *Engine) Cancel(key string) bool {
	e.mu.Lock()
	removed := e.removeLocked(key)
	if removed {
		e.signalWakeup()
	}
	e.mu.Unlock()

	// Wait out a delivery that popped this key before the removal above.
	e.dispatch.Lock()
	defer e.dispatch.Unlock()
	return removed
}

func (e *Engine) Pending(key string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	_, ok := e.byKey[key]
	return ok
}

func (e *Engine) Len() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.byKey)
}

func (e *Engine) Fired() uint64 {
	return atomic.LoadUint64(&e.fired)
}

func (e *Engine) removeLocked(key string) bool {
	item, ok := e.byKey[key]
	if !ok {
		return false
	}
	delete(e.byKey, key)
	if item.index >= 0 {
		heap.Remove(&e.queue, item.index)
	}
	return true
}

func (e *Engine) loop() {
	defer close(e.doneCh)

	var timer *time.Timer
	for {
		next, hasNext := e.peek()
		if !hasNext {
			select {
			case <-e.wakeup:
				continue
			case <-e.stopCh:
				return
			}
		}

		wait := next.FireAt.Sub(e.now())
		if wait < 0 {
			wait = 0
		}
		timer = resetTimer(timer, wait)

		select {
		case <-timer.C:
			for _, item := range e.popDue(e.now()) {
				e.deliver(item)
			}
		case <-e.wakeup:
			continue
		case <-e.stopCh:
			stopTimer(timer)
			return
		}
	}
}

// deliver runs the sink only if item is still the live timer for its key.
func (e *Engine) deliver(item *queueItem) {
	e.dispatch.Lock()
	defer e.dispatch.Unlock()

	e.mu.Lock()
	live := e.byKey[item.event.Key] == item
	if live {
		delete(e.byKey, item.event.Key)
	}
	e.mu.Unlock()
	if !live {
		return
	}
	atomic.AddUint64(&e.fired, 1)
	e.sink(item.event)
}

func (e *Engine) signalWakeup() {
	select {
	case e.wakeup <- struct{}{}:
	default:
	}
}

func (e *Engine) peek() (Event, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if len(e.queue) == 0 {
		return Event{}, false
	}
	return e.queue[0].event, true
}

// popDue takes due items off the heap; they stay registered by key until delivered.
func (e *Engine) popDue(now time.Time) []*queueItem {
	e.mu.Lock()
	defer e.mu.Unlock()

	out := make([]*queueItem, 0)
	for len(e.queue) > 0 {
		if e.queue[0].event.FireAt.After(now) {
			break
		}
		out = append(out, heap.Pop(&e.queue).(*queueItem))
	}
	return out
}

func resetTimer(timer *time.Timer, d time.Duration) *time.Timer {
	if timer == nil {
		return time.NewTimer(d)
	}
	stopTimer(timer)
	timer.Reset(d)
	return timer
}

func stopTimer(timer *time.Timer) {
	if timer == nil {
		return
	}
	if !timer.Stop() {
		select {
		case <-timer.C:
		default:
		}
	}
}
