package taskutil

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	domain "github.com/KamilBuksa/SimpleTodo/domain/todo"
)

// Columns is the header row of exported task files.
var Columns = []string{"Title", "Description", "Deadline", "Priority", "Time Estimate", "Completed", "Created", "Updated"}

// minImportFields is the fewest columns an imported row may have.
const minImportFields = 6

// ExportCSV writes tasks with a header row. Title and description are always
// quoted.
func ExportCSV(w io.Writer, tasks []domain.Item) error {
	bw := bufio.NewWriter(w)
	if _, err := bw.WriteString(strings.Join(Columns, ",") + "\n"); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for _, t := range tasks {
		row := []string{
			quote(t.Title),
			quote(deref(t.Description)),
			csvField(deref(t.Deadline)),
			string(t.Priority),
			csvField(estimateCell(t.TimeEstimate)),
			yesNo(t.Completed),
			timestampCell(t.CreatedAt),
			timestampCell(t.UpdatedAt),
		}
		if _, err := bw.WriteString(strings.Join(row, ",") + "\n"); err != nil {
			return fmt.Errorf("write csv row: %w", err)
		}
	}
	return bw.Flush()
}

// ImportCSV reads rows written by ExportCSV. Rows with fewer than six fields
// are skipped, a blank or unknown priority becomes medium and a blank
// completed cell is false. Imported items carry no id.
func ImportCSV(r io.Reader) ([]domain.Item, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	cr.TrimLeadingSpace = true

	var items []domain.Item
	first := true
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read csv: %w", err)
		}
		if first {
			first = false
			if len(rec) > 0 && strings.EqualFold(strings.TrimSpace(rec[0]), Columns[0]) {
				continue
			}
		}
		if len(rec) < minImportFields {
			continue
		}
		items = append(items, itemFromRecord(rec))
	}
	return items, nil
}

func itemFromRecord(rec []string) domain.Item {
	item := domain.Item{
		Title:       strings.TrimSpace(rec[0]),
		Description: optional(rec[1]),
		Deadline:    optional(rec[2]),
		Priority:    domain.PriorityMedium,
		Completed:   strings.EqualFold(strings.TrimSpace(rec[5]), "yes"),
	}
	if p := domain.Priority(strings.ToLower(strings.TrimSpace(rec[3]))); p.Valid() {
		item.Priority = p
	}
	if m, ok := ParseTimeEstimate(rec[4]); ok {
		item.TimeEstimate = &m
	}
	if len(rec) > 6 {
		item.CreatedAt = parseTimestamp(rec[6])
	}
	if len(rec) > 7 {
		item.UpdatedAt = parseTimestamp(rec[7])
	}
	return item
}

func quote(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}

// csvField quotes s only when it would otherwise break the row.
func csvField(s string) string {
	if strings.ContainsAny(s, ",\"\r\n") {
		return quote(s)
	}
	return s
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func optional(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}

func yesNo(b bool) string {
	if b {
		return "Yes"
	}
	return "No"
}

func estimateCell(m *int) string {
	if m == nil {
		return ""
	}
	return FormatTimeEstimate(*m)
}

func timestampCell(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

func parseTimestamp(s string) time.Time {
	t, err := time.Parse(time.RFC3339, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}
	}
	return t
}
