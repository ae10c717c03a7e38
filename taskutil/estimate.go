package taskutil

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"unicode"

	domain "github.com/KamilBuksa/SimpleTodo/domain/todo"
)

const (
	minutesPerHour = 60
	minutesPerDay  = 24 * minutesPerHour
)

var estimateToken = regexp.MustCompile(`(\d+)([dhm])`)

// ParseTimeEstimate reads "2h30m", "1d 4h", "45" and the like into minutes.
// Units may appear in any order. A bare number is minutes. It returns false
// for anything else, for a zero total and for totals above
// domain.MaxTimeEstimate.
func ParseTimeEstimate(s string) (int, bool) {
	compact := strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return unicode.ToLower(r)
	}, s)
	if compact == "" {
		return 0, false
	}

	if n, err := strconv.Atoi(compact); err == nil {
		if n <= 0 || n > domain.MaxTimeEstimate {
			return 0, false
		}
		return n, true
	}

	matches := estimateToken.FindAllStringSubmatchIndex(compact, -1)
	total, pos := 0, 0
	for _, m := range matches {
		if m[0] != pos {
			return 0, false
		}
		n, err := strconv.Atoi(compact[m[2]:m[3]])
		if err != nil || n > domain.MaxTimeEstimate {
			return 0, false
		}
		switch compact[m[4]] {
		case 'd':
			total += n * minutesPerDay
		case 'h':
			total += n * minutesPerHour
		case 'm':
			total += n
		}
		if total > domain.MaxTimeEstimate {
			return 0, false
		}
		pos = m[1]
	}
	if pos != len(compact) || total <= 0 {
		return 0, false
	}
	return total, true
}

// FormatTimeEstimate renders minutes as "45m", "1h 30m" or "2d 3h". Minutes
// are dropped once the estimate reaches a day.
func FormatTimeEstimate(minutes int) string {
	switch {
	case minutes <= 0:
		return ""
	case minutes < minutesPerHour:
		return fmt.Sprintf("%dm", minutes)
	case minutes < minutesPerDay:
		h, m := minutes/minutesPerHour, minutes%minutesPerHour
		if m == 0 {
			return fmt.Sprintf("%dh", h)
		}
		return fmt.Sprintf("%dh %dm", h, m)
	default:
		d, h := minutes/minutesPerDay, (minutes%minutesPerDay)/minutesPerHour
		if h == 0 {
			return fmt.Sprintf("%dd", d)
		}
		return fmt.Sprintf("%dd %dh", d, h)
	}
}
