package tui

import (
	"errors"
	"strconv"
	"strings"

	"github.com/KamilBuksa/SimpleTodo/client"
	domain "github.com/KamilBuksa/SimpleTodo/domain/todo"
	"github.com/KamilBuksa/SimpleTodo/taskutil"
)

const (
	fieldTitle = iota
	fieldDescription
	fieldDeadline
	fieldPriority
	fieldEstimate
)

var formFields = []string{"Title", "Description", "Deadline", "Priority", "Estimate"}

// Form errors shown before anything is sent.
var (
	errTitleRequired   = errors.New("Title is required")
	errInvalidPriority = errors.New("Priority must be one of: low, medium, high, urgent")
	errInvalidEstimate = errors.New("Estimate must look like 45, 1h30m or 2d")
	errInvalidDeadline = errors.New("Deadline must be a valid date")
)

// form edits one task. original is nil when adding.
type form struct {
	values   []string
	focus    int
	original *client.Task
}

func newForm(t *client.Task) form {
	f := form{values: make([]string, len(formFields))}
	if t == nil {
		return f
	}
	orig := *t
	f.original = &orig
	f.values[fieldTitle] = t.Title
	if t.Description != nil {
		f.values[fieldDescription] = *t.Description
	}
	f.values[fieldDeadline] = trimDeadline(t.Deadline)
	f.values[fieldPriority] = string(t.Priority)
	if t.TimeEstimate != nil {
		f.values[fieldEstimate] = taskutil.FormatTimeEstimate(*t.TimeEstimate)
	}
	return f
}

func (f form) value(i int) string {
	return strings.TrimSpace(f.values[i])
}

func (f form) parse() (title string, description, deadline *string, priority *domain.Priority, estimate *int, err error) {
	title = f.value(fieldTitle)
	if title == "" {
		return "", nil, nil, nil, nil, errTitleRequired
	}
	if v := f.value(fieldDescription); v != "" {
		description = &v
	}
	if v := f.value(fieldDeadline); v != "" {
		if _, ok := taskutil.ParseDeadline(v, nil); !ok {
			return "", nil, nil, nil, nil, errInvalidDeadline
		}
		deadline = &v
	}
	if v := f.value(fieldPriority); v != "" {
		p := domain.Priority(strings.ToLower(v))
		if !p.Valid() {
			return "", nil, nil, nil, nil, errInvalidPriority
		}
		priority = &p
	}
	if v := f.value(fieldEstimate); v != "" {
		m, ok := taskutil.ParseTimeEstimate(v)
		if !ok {
			return "", nil, nil, nil, nil, errInvalidEstimate
		}
		estimate = &m
	}
	return title, description, deadline, priority, estimate, nil
}

func (f form) createPayload() (domain.CreatePayload, error) {
	title, description, deadline, priority, estimate, err := f.parse()
	if err != nil {
		return domain.CreatePayload{}, err
	}
	return domain.CreatePayload{
		Title:        title,
		Description:  description,
		Deadline:     deadline,
		Priority:     priority,
		TimeEstimate: estimate,
	}, nil
}

// updatePayload sets only the fields that differ from the original task.
// Cleared optional fields are sent as null.
func (f form) updatePayload() (domain.UpdatePayload, error) {
	title, description, deadline, priority, estimate, err := f.parse()
	if err != nil {
		return domain.UpdatePayload{}, err
	}
	o := f.original
	var p domain.UpdatePayload

	if title != o.Title {
		p.Title = domain.Value(title)
	}
	if !sameString(description, o.Description) {
		p.Description = fieldOf(description)
	}
	if deadline == nil && o.Deadline != nil {
		p.Deadline = domain.Null[string]()
	} else if deadline != nil && *deadline != trimDeadline(o.Deadline) {
		p.Deadline = domain.Value(*deadline)
	}
	if priority != nil && *priority != o.Priority {
		p.Priority = domain.Value(*priority)
	}
	if !sameInt(estimate, o.TimeEstimate) {
		p.TimeEstimate = fieldOf(estimate)
	}
	return p, nil
}

func fieldOf[T any](v *T) domain.Field[T] {
	if v == nil {
		return domain.Null[T]()
	}
	return domain.Value(*v)
}

func sameString(a, b *string) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func sameInt(a, b *int) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

// estimateLabel renders the estimate column of a row.
func estimateLabel(m *int) string {
	if m == nil {
		return ""
	}
	return taskutil.FormatTimeEstimate(*m)
}

func countLabel(name string, n int) string {
	return name + " (" + strconv.Itoa(n) + ")"
}
