package lock

import "time"

// DefaultWindowDays is the contractual lock window: within this many days
// before a confirmed event date, protected fields require an override.
const DefaultWindowDays = 10

// State describes the lock status of an event at a single instant. It is
// derived from the confirmed date and the current time and is never stored.
type State struct {
	Locked        bool
	DaysRemaining int
	// HasDeadline is false when the event has no confirmed date; in that
	// case DaysRemaining is meaningless and the event is never locked.
	HasDeadline bool
	WindowDays  int
}

// Evaluate computes the lock state for an event. An event with no confirmed
// date is never locked. An event whose date has already passed is also never
// locked: post-event edits are deliberately left unguarded.
func Evaluate(confirmedDate *time.Time, now time.Time, windowDays int) State {
	if windowDays <= 0 {
		windowDays = DefaultWindowDays
	}

	if confirmedDate == nil {
		return State{WindowDays: windowDays}
	}

	days := daysUntil(*confirmedDate, now)
	return State{
		Locked:        days > 0 && days <= windowDays,
		DaysRemaining: days,
		HasDeadline:   true,
		WindowDays:    windowDays,
	}
}

// daysUntil returns the number of whole or partial days between now and the
// deadline, rounding up so that any remaining fraction of a day counts.
func daysUntil(deadline, now time.Time) int {
	diff := deadline.Sub(now)
	days := diff / (24 * time.Hour)
	if diff%(24*time.Hour) > 0 {
		days++
	}
	return int(days)
}
