package domain

import (
	"fmt"
	"time"
)

// QuietHours is the hour-of-day window during which automatic summons are suppressed (value object)
//
// Start <= End is a same-day window [Start, End); Start > End wraps past midnight.
// Start == End is an empty window, i.e. quiet hours disabled.
type QuietHours struct {
	Start int // 0-23
	End   int // 0-23
}

// Wraps reports whether the window crosses midnight
func (q QuietHours) Wraps() bool {
	return q.Start > q.End
}

// IsSuppressed checks if automatic summons are suppressed at now
func (q QuietHours) IsSuppressed(now time.Time) bool {
	h := now.Hour()
	if !q.Wraps() {
		return q.Start <= h && h < q.End
	}
	return h >= q.Start || h < q.End
}

// NextAllowed returns the first instant at or after now when summons are allowed
// Returns now unchanged when not suppressed.
func (q QuietHours) NextAllowed(now time.Time) time.Time {
	if !q.IsSuppressed(now) {
		return now
	}

	next := time.Date(now.Year(), now.Month(), now.Day(), q.End, 0, 0, 0, now.Location())
	if q.Wraps() && now.Hour() < q.End {
		// Early-morning part of a wrapping window: today's end is still ahead.
		return next
	}
	if !next.After(now) {
		next = next.AddDate(0, 0, 1)
	}
	return next
}

// Until returns how long to wait from now until summons are allowed again
func (q QuietHours) Until(now time.Time) time.Duration {
	return q.NextAllowed(now).Sub(now)
}

// String formats the window as HH:00 - HH:00
func (q QuietHours) String() string {
	return fmt.Sprintf("%02d:00 - %02d:00", q.Start, q.End)
}
