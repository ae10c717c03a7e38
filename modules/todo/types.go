package todo

import (
	"context"

	domain "github.com/KamilBuksa/SimpleTodo/domain/todo"
)

// Request-reply service names registered by the todo module.
const (
	ServiceList   = "list"
	ServiceGet    = "get"
	ServiceCreate = "create"
	ServiceUpdate = "update"
	ServiceToggle = "toggle"
	ServiceDelete = "delete"
)

// ErrorBody carries a typed failure across the service container.
type ErrorBody struct {
	Code    domain.Kind    `json:"code"`
	Message string         `json:"message"`
	Details []domain.Issue `json:"details,omitempty"`
}

func newErrorBody(err error) *ErrorBody {
	if err == nil {
		return nil
	}
	e := domain.AsError(err)
	return &ErrorBody{Code: e.Kind, Message: e.Message, Details: e.Details}
}

// Err rebuilds the domain error, or returns nil for a nil body.
func (b *ErrorBody) Err() error {
	if b == nil {
		return nil
	}
	return &domain.Error{Kind: b.Code, Message: b.Message, Details: b.Details}
}

// ListRequest is the request for listing tasks.
type ListRequest struct {
	UserID string           `json:"user_id"`
	Query  domain.ListQuery `json:"query"`
}

// ListResponse is the response for listing tasks.
type ListResponse struct {
	List  domain.List `json:"list"`
	Error *ErrorBody  `json:"error,omitempty"`
}

// GetRequest is the request for getting a task.
type GetRequest struct {
	UserID string `json:"user_id"`
	TodoID string `json:"todo_id"`
}

// ItemResponse is the response for any operation that returns one task.
type ItemResponse struct {
	Item  domain.Item `json:"item"`
	Error *ErrorBody  `json:"error,omitempty"`
}

// CreateRequest is the request for creating a task.
type CreateRequest struct {
	UserID  string               `json:"user_id"`
	Payload domain.CreatePayload `json:"payload"`
}

// UpdateRequest is the request for a partial update.
type UpdateRequest struct {
	UserID  string               `json:"user_id"`
	TodoID  string               `json:"todo_id"`
	Payload domain.UpdatePayload `json:"payload"`
}

// ToggleRequest is the request for changing completion.
type ToggleRequest struct {
	UserID    string `json:"user_id"`
	TodoID    string `json:"todo_id"`
	Completed bool   `json:"completed"`
}

// StatusResponse is the response for a status change.
type StatusResponse struct {
	Status domain.StatusChange `json:"status"`
	Error  *ErrorBody          `json:"error,omitempty"`
}

// DeleteRequest is the request for deleting a task.
type DeleteRequest struct {
	UserID string `json:"user_id"`
	TodoID string `json:"todo_id"`
}

// DeleteResponse is the response for deleting a task.
type DeleteResponse struct {
	Deleted bool       `json:"deleted"`
	Error   *ErrorBody `json:"error,omitempty"`
}

// TodoPort is the contract driving adapters such as the HTTP API use.
// *Service satisfies it directly.
type TodoPort interface {
	List(ctx context.Context, userID string, q domain.ListQuery) (domain.List, error)
	Get(ctx context.Context, userID, id string) (domain.Item, error)
	Create(ctx context.Context, userID string, p domain.CreatePayload) (domain.Item, error)
	Update(ctx context.Context, userID, id string, p domain.UpdatePayload) (domain.Item, error)
	ToggleStatus(ctx context.Context, userID, id string, completed bool) (domain.StatusChange, error)
	Delete(ctx context.Context, userID, id string) error
}

var _ TodoPort = (*Service)(nil)
