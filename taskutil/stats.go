package taskutil

import (
	"math"
	"time"

	domain "github.com/KamilBuksa/SimpleTodo/domain/todo"
)

// Stats summarizes a task list for the dashboard.
type Stats struct {
	Total          int
	Completed      int
	Active         int
	Overdue        int
	CompletionRate int // rounded percent
	CreatedToday   int
	CompletedToday int
}

// ComputeStats aggregates tasks. "Today" is the calendar day of now in now's
// location; completed tasks are dated by their last update.
func ComputeStats(tasks []domain.Item, now time.Time) Stats {
	var s Stats
	s.Total = len(tasks)
	for _, t := range tasks {
		if t.Completed {
			s.Completed++
			if sameDay(t.UpdatedAt, now) {
				s.CompletedToday++
			}
		} else if IsOverdue(t.Deadline, now) {
			s.Overdue++
		}
		if sameDay(t.CreatedAt, now) {
			s.CreatedToday++
		}
	}
	s.Active = s.Total - s.Completed
	if s.Total > 0 {
		s.CompletionRate = int(math.Round(float64(s.Completed) * 100 / float64(s.Total)))
	}
	return s
}

func sameDay(t, now time.Time) bool {
	if t.IsZero() {
		return false
	}
	t = t.In(now.Location())
	y1, m1, d1 := t.Date()
	y2, m2, d2 := now.Date()
	return y1 == y2 && m1 == m2 && d1 == d2
}
