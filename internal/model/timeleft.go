package model

import "time"

type TimeLeftKind string

const (
	TimeLeftUnset    TimeLeftKind = ""
	TimeLeftAnchored TimeLeftKind = "anchored"
	TimeLeftCapped   TimeLeftKind = "capped"
)

// TimeLeft is either an absolute completion instant (the task fits before its
// deadline) or a remaining budget (the task was capped to the deadline).
type TimeLeft struct {
	kind   TimeLeftKind
	at     time.Time
	budget time.Duration
}

func Anchored(at time.Time) TimeLeft {
	return TimeLeft{kind: TimeLeftAnchored, at: at}
}

func Capped(d time.Duration) TimeLeft {
	return TimeLeft{kind: TimeLeftCapped, budget: d}
}

func (t TimeLeft) Kind() TimeLeftKind { return t.kind }
func (t TimeLeft) IsSet() bool        { return t.kind != TimeLeftUnset }

// At returns the anchor instant; ok is false unless the value is Anchored.
func (t TimeLeft) At() (time.Time, bool) {
	return t.at, t.kind == TimeLeftAnchored
}

// Budget returns the capped duration; ok is false unless the value is Capped.
func (t TimeLeft) Budget() (time.Duration, bool) {
	return t.budget, t.kind == TimeLeftCapped
}

// Remaining is the display value. A capped budget does not decay with the wall clock.
func (t TimeLeft) Remaining(now time.Time) (time.Duration, bool) {
	switch t.kind {
	case TimeLeftAnchored:
		return t.at.Sub(now), true
	case TimeLeftCapped:
		return t.budget, true
	default:
		return 0, false
	}
}

func (t TimeLeft) Equal(other TimeLeft) bool {
	return t.kind == other.kind && t.at.Equal(other.at) && t.budget == other.budget
}

// ComputeTimeLeft anchors to now+duration when that still fits before the
// deadline, otherwise caps to whatever remains until the deadline.
func ComputeTimeLeft(now time.Time, duration time.Duration, deadline time.Time) TimeLeft {
	candidate := now.Add(duration)
	if !candidate.After(deadline) {
		return Anchored(candidate)
	}
	return Capped(deadline.Sub(now))
}
