package todo

import (
	"context"
	"errors"
	"strings"
	"time"

	domain "github.com/KamilBuksa/SimpleTodo/domain/todo"
	"github.com/KamilBuksa/SimpleTodo/events"
	"github.com/KamilBuksa/SimpleTodo/modules/cache"
	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/types"
	"github.com/google/uuid"
)

// Service implements the task operations. Every operation is scoped to the acting user.
type Service struct {
	repo     Repository
	cache    *itemCache
	eventBus mono.EventBus
	logger   types.Logger
	now      func() time.Time
	newID    func() string
}

// NewService creates a service over repo. The cache and event bus are optional.
func NewService(repo Repository, c cache.CacheService, bus mono.EventBus, logger types.Logger) *Service {
	return &Service{
		repo:     repo,
		cache:    newItemCache(c, logger),
		eventBus: bus,
		logger:   logger,
		now:      func() time.Time { return time.Now().UTC() },
		newID:    uuid.NewString,
	}
}

// List returns one page of the user's tasks.
func (s *Service) List(ctx context.Context, userID string, q domain.ListQuery) (domain.List, error) {
	if userID == "" {
		return domain.List{}, domain.Unauthorized()
	}
	q, err := NormalizeListQuery(q)
	if err != nil {
		return domain.List{}, err
	}

	rows, total, err := s.repo.List(ctx, userID, q)
	if err != nil {
		return domain.List{}, domain.Internal(err)
	}

	items := make([]domain.Item, 0, len(rows))
	for i := range rows {
		items = append(items, rows[i].ToItem())
	}
	return domain.List{
		Todos:      items,
		Pagination: domain.NewPagination(total, q.Page, q.Limit),
	}, nil
}

// Get returns one task.
func (s *Service) Get(ctx context.Context, userID, id string) (domain.Item, error) {
	if err := checkScope(userID, id); err != nil {
		return domain.Item{}, err
	}
	t, err := s.cache.get(ctx, userID, id, func() (*domain.Todo, error) {
		return s.repo.FindByID(ctx, userID, id)
	})
	if err != nil {
		return domain.Item{}, translate(err)
	}
	return t.ToItem(), nil
}

// Create stores a new task. Priority defaults to medium.
func (s *Service) Create(ctx context.Context, userID string, p domain.CreatePayload) (domain.Item, error) {
	if userID == "" {
		return domain.Item{}, domain.Unauthorized()
	}
	if err := ValidateCreate(p); err != nil {
		return domain.Item{}, err
	}

	priority := domain.PriorityMedium
	if p.Priority != nil {
		priority = *p.Priority
	}
	deadline := p.Deadline
	if deadline != nil && *deadline == "" {
		deadline = nil
	}

	now := s.now()
	t := &domain.Todo{
		ID:           s.newID(),
		UserID:       userID,
		Title:        strings.TrimSpace(p.Title),
		Description:  p.Description,
		Deadline:     deadline,
		Priority:     priority,
		TimeEstimate: p.TimeEstimate,
		Completed:    false,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.repo.Create(ctx, t); err != nil {
		s.logger.Error("Failed to create todo", "user_id", userID, "error", err)
		return domain.Item{}, domain.CreateFailed(err)
	}

	s.emit("TodoCreated", t.ID, func(bus mono.EventBus) error {
		return events.TodoCreatedV1.Publish(bus, events.TodoCreatedEvent{
			TodoID:    t.ID,
			UserID:    userID,
			Title:     t.Title,
			Priority:  string(t.Priority),
			CreatedAt: t.CreatedAt,
		}, nil)
	})

	s.logger.Info("Todo created", "todo_id", t.ID, "user_id", userID)
	return t.ToItem(), nil
}

// Update writes the provided fields. An empty payload returns the current task without writing.
func (s *Service) Update(ctx context.Context, userID, id string, p domain.UpdatePayload) (domain.Item, error) {
	if err := checkScope(userID, id); err != nil {
		return domain.Item{}, err
	}
	if err := ValidateUpdate(p); err != nil {
		return domain.Item{}, err
	}

	changes := NewChanges(p)
	if changes.Empty() {
		return s.Get(ctx, userID, id)
	}

	t, err := s.repo.Update(ctx, userID, id, changes, s.now())
	if err != nil {
		return domain.Item{}, translate(err)
	}
	s.cache.invalidate(ctx, userID, id)

	s.emit("TodoUpdated", t.ID, func(bus mono.EventBus) error {
		return events.TodoUpdatedV1.Publish(bus, events.TodoUpdatedEvent{
			TodoID:    t.ID,
			UserID:    userID,
			Fields:    changes.Fields(),
			UpdatedAt: t.UpdatedAt,
		}, nil)
	})

	return t.ToItem(), nil
}

// ToggleStatus sets the completion flag and nothing else.
func (s *Service) ToggleStatus(ctx context.Context, userID, id string, completed bool) (domain.StatusChange, error) {
	if err := checkScope(userID, id); err != nil {
		return domain.StatusChange{}, err
	}

	at := s.now()
	if err := s.repo.SetCompleted(ctx, userID, id, completed, at); err != nil {
		return domain.StatusChange{}, translate(err)
	}
	s.cache.invalidate(ctx, userID, id)

	s.emit("TodoStatusChanged", id, func(bus mono.EventBus) error {
		return events.TodoStatusChangedV1.Publish(bus, events.TodoStatusChangedEvent{
			TodoID:    id,
			UserID:    userID,
			Completed: completed,
			ChangedAt: at,
		}, nil)
	})

	return domain.StatusChange{ID: id, Completed: completed, UpdatedAt: at}, nil
}

// Delete removes a task.
func (s *Service) Delete(ctx context.Context, userID, id string) error {
	if err := checkScope(userID, id); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, userID, id); err != nil {
		return translate(err)
	}
	s.cache.invalidate(ctx, userID, id)

	s.emit("TodoDeleted", id, func(bus mono.EventBus) error {
		return events.TodoDeletedV1.Publish(bus, events.TodoDeletedEvent{
			TodoID:    id,
			UserID:    userID,
			DeletedAt: s.now(),
		}, nil)
	})

	s.logger.Info("Todo deleted", "todo_id", id, "user_id", userID)
	return nil
}

// Ping checks the repository connection.
func (s *Service) Ping(ctx context.Context) error {
	return s.repo.Ping(ctx)
}

// emit publishes best-effort. A failed publish never fails the operation.
func (s *Service) emit(event, todoID string, publish func(mono.EventBus) error) {
	if s.eventBus == nil {
		return
	}
	if err := publish(s.eventBus); err != nil {
		s.logger.Warn("Failed to publish event", "event", event, "todo_id", todoID, "error", err)
	}
}

func checkScope(userID, id string) error {
	if userID == "" {
		return domain.Unauthorized()
	}
	if strings.TrimSpace(id) == "" {
		return domain.MissingID()
	}
	return nil
}

// translate maps repository errors onto domain kinds.
func translate(err error) error {
	if errors.Is(err, ErrNotFound) {
		return domain.NotFound()
	}
	return domain.Internal(err)
}
