// Package taskutil holds the pure helpers shared by the client and the
// terminal UI: deadline badges, time estimates, CSV and XLSX files, search
// and dashboard statistics.
package taskutil

import (
	"fmt"
	"math"
	"time"
)

// DeadlineKind is the urgency bucket of a deadline.
type DeadlineKind string

const (
	DeadlineNone     DeadlineKind = "none"
	DeadlineOverdue  DeadlineKind = "overdue"
	DeadlineDueToday DeadlineKind = "due-today"
	DeadlineDueSoon  DeadlineKind = "due-soon"
	DeadlineFuture   DeadlineKind = "future"
)

// DeadlineStatus is a classified deadline with its badge label.
type DeadlineStatus struct {
	Kind  DeadlineKind
	Label string
}

var deadlineLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.000",
	"2006-01-02T15:04:05",
}

// ParseDeadline reads a YYYY-MM-DD date (midnight UTC) or an ISO-8601
// date-time. Date-times without an offset are taken in loc.
func ParseDeadline(s string, loc *time.Location) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}
	if t, err := time.Parse(time.DateOnly, s); err == nil {
		return t, true
	}
	if loc == nil {
		loc = time.Local
	}
	for _, layout := range deadlineLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// ClassifyDeadline buckets deadline relative to now. A deadline exactly 24
// hours away is still due today.
func ClassifyDeadline(deadline *string, now time.Time) DeadlineStatus {
	if deadline == nil {
		return DeadlineStatus{Kind: DeadlineNone}
	}
	due, ok := ParseDeadline(*deadline, now.Location())
	if !ok {
		return DeadlineStatus{Kind: DeadlineNone}
	}

	hours := due.Sub(now).Hours()
	days := int(math.Ceil(hours / 24))

	switch {
	case hours < 0:
		return DeadlineStatus{Kind: DeadlineOverdue, Label: "Overdue"}
	case hours <= 1:
		return DeadlineStatus{Kind: DeadlineDueToday, Label: "Due in 1 hour"}
	case hours <= 24:
		return DeadlineStatus{Kind: DeadlineDueToday, Label: "Due today"}
	case days <= 3:
		return DeadlineStatus{Kind: DeadlineDueSoon, Label: fmt.Sprintf("Due in %d days", days)}
	default:
		return DeadlineStatus{Kind: DeadlineFuture, Label: fmt.Sprintf("Due in %d days", days)}
	}
}

// FormatDeadline renders deadline as a relative day for offsets of -1, 0 and
// 1, "N days ago" further in the past, and an absolute date otherwise.
func FormatDeadline(deadline *string, now time.Time) string {
	if deadline == nil {
		return ""
	}
	due, ok := ParseDeadline(*deadline, now.Location())
	if !ok {
		return ""
	}

	days := int(math.Ceil(due.Sub(now).Hours() / 24))
	switch {
	case days == 0:
		return "Today"
	case days == 1:
		return "Tomorrow"
	case days == -1:
		return "Yesterday"
	case days < -1:
		return fmt.Sprintf("%d days ago", -days)
	}
	return due.In(now.Location()).Format("Jan 2, 2006")
}

// IsOverdue reports whether deadline is strictly before now.
func IsOverdue(deadline *string, now time.Time) bool {
	if deadline == nil {
		return false
	}
	due, ok := ParseDeadline(*deadline, now.Location())
	return ok && due.Before(now)
}
