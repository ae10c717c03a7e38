package client

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	domain "github.com/KamilBuksa/SimpleTodo/domain/todo"
	"github.com/KamilBuksa/SimpleTodo/taskutil"
	nanoid "github.com/jaevor/go-nanoid"
)

// TempPrefix marks the ids of tasks the server has not confirmed yet.
const TempPrefix = "temp-"

// ErrIndexOutOfRange is returned by Reorder for an index outside the visible list.
var ErrIndexOutOfRange = errors.New("index out of range")

// Task is a server item plus view-only flags. The flags are never sent to
// the server and are cleared whenever the server answers successfully.
type Task struct {
	domain.Item
	IsEditing        bool
	IsSaving         bool
	ValidationErrors map[string]string
}

// Counts are totals over every task of the user, regardless of filters.
type Counts struct {
	Total     int
	Completed int
	Active    int
}

// TaskState owns the client's view of the task list. All changes go through
// its methods. Network calls are made outside the lock; when responses
// arrive out of order the last one applied wins.
type TaskState struct {
	mu       sync.Mutex
	api      API
	notify   Notifier
	newID    func() string
	now      func() time.Time
	tasks    []Task
	allTasks []Task
	counts   Counts
	filter   domain.StatusFilter
	search   string
	loading  bool
	err      error
}

// NewTaskState creates an empty state backed by api. A nil notifier is
// replaced by NopNotifier.
func NewTaskState(api API, notify Notifier) (*TaskState, error) {
	gen, err := nanoid.Standard(21)
	if err != nil {
		return nil, fmt.Errorf("create id generator: %w", err)
	}
	if notify == nil {
		notify = NopNotifier{}
	}
	return &TaskState{
		api:     api,
		notify:  notify,
		newID:   gen,
		now:     time.Now,
		filter:  domain.StatusAll,
		loading: true,
	}, nil
}

func pageOf(status domain.StatusFilter, limit int) domain.ListQuery {
	q := domain.DefaultListQuery()
	q.Status = status
	q.Limit = limit
	return q
}

// Load fetches every task for the counts and the all-tasks view, then the
// list for status. On failure the previous tasks are kept.
func (s *TaskState) Load(ctx context.Context, status domain.StatusFilter) error {
	if status == "" {
		status = domain.StatusAll
	}
	s.mu.Lock()
	s.loading = true
	s.filter = status
	s.mu.Unlock()

	all, err := s.api.List(ctx, pageOf(domain.StatusAll, domain.MaxLimit))
	var counts Counts
	if err == nil {
		counts, err = s.fetchCounts(ctx)
	}
	shown := all
	if err == nil && status != domain.StatusAll {
		shown, err = s.api.List(ctx, pageOf(status, domain.MaxLimit))
	}

	s.mu.Lock()
	s.loading = false
	if err != nil {
		s.err = fmt.Errorf("load tasks: %w", err)
		s.mu.Unlock()
		s.notify.Error("Failed to load tasks")
		return err
	}
	s.allTasks = toTasks(all.Todos)
	s.tasks = toTasks(shown.Todos)
	s.counts = counts
	s.err = nil
	s.mu.Unlock()

	s.notify.Success("Tasks loaded")
	return nil
}

// fetchCounts derives the totals from two one-row pages.
func (s *TaskState) fetchCounts(ctx context.Context) (Counts, error) {
	all, err := s.api.List(ctx, pageOf(domain.StatusAll, 1))
	if err != nil {
		return Counts{}, err
	}
	done, err := s.api.List(ctx, pageOf(domain.StatusCompleted, 1))
	if err != nil {
		return Counts{}, err
	}
	total, completed := int(all.Pagination.Total), int(done.Pagination.Total)
	return Counts{Total: total, Completed: completed, Active: total - completed}, nil
}

// refreshCounts replaces the counts with the server's. A failed fetch keeps
// the current counts.
func (s *TaskState) refreshCounts(ctx context.Context) {
	c, err := s.fetchCounts(ctx)
	if err != nil {
		return
	}
	s.mu.Lock()
	s.counts = c
	s.mu.Unlock()
}

// CreateTask shows a placeholder at the top of the list until the server
// returns the stored task.
func (s *TaskState) CreateTask(ctx context.Context, p domain.CreatePayload) (domain.Item, error) {
	tempID := TempPrefix + s.newID()
	now := s.now().UTC()
	placeholder := Task{
		Item: domain.Item{
			ID:           tempID,
			Title:        strings.TrimSpace(p.Title),
			Description:  p.Description,
			Deadline:     p.Deadline,
			Priority:     domain.PriorityMedium,
			TimeEstimate: p.TimeEstimate,
			CreatedAt:    now,
			UpdatedAt:    now,
		},
		IsSaving: true,
	}
	if p.Priority != nil {
		placeholder.Priority = *p.Priority
	}

	item, err := optimistic(s,
		func() {
			if s.filter != domain.StatusCompleted {
				s.tasks = slices.Insert(s.tasks, 0, placeholder)
			}
			s.allTasks = slices.Insert(s.allTasks, 0, placeholder)
			s.counts.Total++
			s.counts.Active++
		},
		func() (domain.Item, error) { return s.api.Create(ctx, p) },
		func(it domain.Item) {
			s.each(tempID, func(t *Task) { *t = Task{Item: it} })
			s.err = nil
		},
		func(err error) {
			s.tasks = dropPlaceholders(s.tasks)
			s.allTasks = dropPlaceholders(s.allTasks)
			s.err = fmt.Errorf("create task: %w", err)
		},
	)

	s.refreshCounts(ctx)
	if err != nil {
		s.notify.Error("Failed to create task")
		return domain.Item{}, err
	}
	s.notify.Success("Task created")
	return item, nil
}

// UpdateTask merges p into the local task while the request is in flight.
// On failure the merged fields are restored.
func (s *TaskState) UpdateTask(ctx context.Context, id string, p domain.UpdatePayload) (domain.Item, error) {
	var (
		prev  domain.Item
		found bool
	)

	item, err := optimistic(s,
		func() {
			s.each(id, func(t *Task) {
				if !found {
					prev, found = t.Item, true
				}
				t.Item = mergeUpdate(t.Item, p)
				t.IsSaving = true
			})
		},
		func() (domain.Item, error) { return s.api.Update(ctx, id, p) },
		func(it domain.Item) {
			s.each(id, func(t *Task) { *t = Task{Item: it} })
			s.err = nil
		},
		func(err error) {
			s.each(id, func(t *Task) {
				if found {
					t.Item = prev
				}
				t.IsSaving = false
				t.ValidationErrors = validationErrors(err)
			})
			s.err = fmt.Errorf("update task: %w", err)
		},
	)

	s.refreshCounts(ctx)
	if err != nil {
		s.notify.Error("Failed to update task")
		return domain.Item{}, err
	}
	s.notify.Success("Task updated")
	return item, nil
}

// ToggleTask sets the completion flag locally and adjusts the counts before
// the server confirms.
func (s *TaskState) ToggleTask(ctx context.Context, id string, completed bool) (domain.StatusChange, error) {
	var (
		prev  bool
		found bool
	)

	sc, err := optimistic(s,
		func() {
			s.each(id, func(t *Task) {
				if !found {
					prev, found = t.Completed, true
				}
				t.Completed = completed
			})
			if found && prev != completed {
				s.shiftCompleted(completed)
			}
		},
		func() (domain.StatusChange, error) { return s.api.Toggle(ctx, id, completed) },
		func(sc domain.StatusChange) {
			s.each(id, func(t *Task) {
				t.Completed = sc.Completed
				t.UpdatedAt = sc.UpdatedAt
				t.ValidationErrors = nil
			})
			s.err = nil
		},
		func(err error) {
			if found {
				s.each(id, func(t *Task) { t.Completed = prev })
			}
			s.err = fmt.Errorf("toggle task: %w", err)
		},
	)

	s.refreshCounts(ctx)
	if err != nil {
		s.notify.Error("Failed to toggle task status")
		return domain.StatusChange{}, err
	}
	if completed {
		s.notify.Success("Task completed")
	} else {
		s.notify.Success("Task marked as active")
	}
	return sc, nil
}

func (s *TaskState) shiftCompleted(completed bool) {
	if completed {
		s.counts.Completed++
		s.counts.Active--
		return
	}
	s.counts.Completed--
	s.counts.Active++
}

// DeleteTask removes the task locally and restores the previous lists if
// the server refuses.
func (s *TaskState) DeleteTask(ctx context.Context, id string) error {
	var prevTasks, prevAll []Task

	_, err := optimistic(s,
		func() {
			prevTasks, prevAll = slices.Clone(s.tasks), slices.Clone(s.allTasks)
			removed, ok := s.find(id)
			s.tasks = slices.DeleteFunc(s.tasks, func(t Task) bool { return t.ID == id })
			s.allTasks = slices.DeleteFunc(s.allTasks, func(t Task) bool { return t.ID == id })
			if !ok {
				return
			}
			s.counts.Total--
			if removed.Completed {
				s.counts.Completed--
			} else {
				s.counts.Active--
			}
		},
		none(func() error { return s.api.Delete(ctx, id) }),
		func(struct{}) { s.err = nil },
		func(err error) {
			s.tasks, s.allTasks = prevTasks, prevAll
			s.err = fmt.Errorf("delete task: %w", err)
		},
	)

	s.refreshCounts(ctx)
	if err != nil {
		s.notify.Error("Failed to delete task")
		return err
	}
	s.notify.Success("Task deleted")
	return nil
}

// Reorder moves the task at visible index from to visible index to. The
// order lives only in this state and is lost on the next Load.
func (s *TaskState) Reorder(from, to int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.visibleIndexes()
	if from < 0 || from >= len(idx) || to < 0 || to >= len(idx) {
		return ErrIndexOutOfRange
	}
	if from == to {
		return nil
	}
	src, dst := idx[from], idx[to]
	t := s.tasks[src]
	s.tasks = slices.Delete(s.tasks, src, src+1)
	s.tasks = slices.Insert(s.tasks, dst, t)
	return nil
}

// SetEditing flags a task as being edited in the UI.
func (s *TaskState) SetEditing(id string, editing bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.each(id, func(t *Task) { t.IsEditing = editing })
}

// SetSearch filters Visible by term. Counts and AllTasks are unaffected.
func (s *TaskState) SetSearch(term string) {
	s.mu.Lock()
	s.search = term
	s.mu.Unlock()
}

// Visible returns the status-filtered tasks that match the search term.
func (s *TaskState) Visible() []Task {
	s.mu.Lock()
	defer s.mu.Unlock()
	idx := s.visibleIndexes()
	out := make([]Task, len(idx))
	for i, j := range idx {
		out[i] = s.tasks[j]
	}
	return out
}

// AllTasks returns every loaded task, ignoring status filter and search.
func (s *TaskState) AllTasks() []Task {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.allTasks)
}

// Items returns the loaded tasks as plain items, for export and statistics.
func (s *TaskState) Items() []domain.Item {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.Item, len(s.allTasks))
	for i, t := range s.allTasks {
		out[i] = t.Item
	}
	return out
}

func (s *TaskState) Counts() Counts {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.counts
}

func (s *TaskState) Filter() domain.StatusFilter {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.filter
}

func (s *TaskState) Search() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.search
}

func (s *TaskState) Loading() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loading
}

// Err returns the last recorded failure, or nil after a successful call.
func (s *TaskState) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

func (s *TaskState) visibleIndexes() []int {
	idx := make([]int, 0, len(s.tasks))
	for i, t := range s.tasks {
		if taskutil.Matches(t.Item, s.search) {
			idx = append(idx, i)
		}
	}
	return idx
}

// each applies fn to the task with id in both lists.
func (s *TaskState) each(id string, fn func(*Task)) {
	for i := range s.tasks {
		if s.tasks[i].ID == id {
			fn(&s.tasks[i])
		}
	}
	for i := range s.allTasks {
		if s.allTasks[i].ID == id {
			fn(&s.allTasks[i])
		}
	}
}

func (s *TaskState) find(id string) (Task, bool) {
	for _, list := range [][]Task{s.allTasks, s.tasks} {
		if i := slices.IndexFunc(list, func(t Task) bool { return t.ID == id }); i >= 0 {
			return list[i], true
		}
	}
	return Task{}, false
}

func toTasks(items []domain.Item) []Task {
	out := make([]Task, len(items))
	for i, it := range items {
		out[i] = Task{Item: it}
	}
	return out
}

func dropPlaceholders(tasks []Task) []Task {
	return slices.DeleteFunc(tasks, func(t Task) bool {
		return t.IsSaving && strings.HasPrefix(t.ID, TempPrefix)
	})
}

// mergeUpdate applies the set fields of p to it.
func mergeUpdate(it domain.Item, p domain.UpdatePayload) domain.Item {
	if p.Title.Set && !p.Title.Null {
		it.Title = strings.TrimSpace(p.Title.Value)
	}
	if p.Description.Set {
		it.Description = p.Description.Ptr()
	}
	if p.Deadline.Set {
		it.Deadline = p.Deadline.Ptr()
	}
	if p.Priority.Set && !p.Priority.Null {
		it.Priority = p.Priority.Value
	}
	if p.TimeEstimate.Set {
		it.TimeEstimate = p.TimeEstimate.Ptr()
	}
	return it
}

// validationErrors extracts field messages from a validation failure.
func validationErrors(err error) map[string]string {
	var se *StatusError
	if !errors.As(err, &se) || se.API == nil || len(se.API.Details) == 0 {
		return nil
	}
	out := make(map[string]string, len(se.API.Details))
	for _, is := range se.API.Details {
		out[is.Field] = is.Message
	}
	return out
}
