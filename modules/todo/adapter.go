package todo

import (
	"context"
	"encoding/json"
	"fmt"

	domain "github.com/KamilBuksa/SimpleTodo/domain/todo"
	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/helper"
)

// todoAdapter implements TodoPort over the todo module's service container.
type todoAdapter struct {
	container mono.ServiceContainer
}

// NewTodoAdapter creates a TodoPort for a module that depends on "todo".
func NewTodoAdapter(container mono.ServiceContainer) TodoPort {
	if container == nil {
		panic("todo adapter requires non-nil ServiceContainer")
	}
	return &todoAdapter{container: container}
}

// call performs one request-reply hop into resp. Transport failures become
// internal errors.
func call[Req, Resp any](ctx context.Context, container mono.ServiceContainer, service string, req Req, resp *Resp) error {
	if err := helper.CallRequestReplyService(
		ctx,
		container,
		service,
		json.Marshal,
		json.Unmarshal,
		req,
		resp,
	); err != nil {
		return domain.Internal(fmt.Errorf("%s service call failed: %w", service, err))
	}
	return nil
}

func (a *todoAdapter) List(ctx context.Context, userID string, q domain.ListQuery) (domain.List, error) {
	req := ListRequest{UserID: userID, Query: q}
	var resp ListResponse
	if err := call(ctx, a.container, ServiceList, &req, &resp); err != nil {
		return domain.List{}, err
	}
	if err := resp.Error.Err(); err != nil {
		return domain.List{}, err
	}
	return resp.List, nil
}

func (a *todoAdapter) Get(ctx context.Context, userID, id string) (domain.Item, error) {
	req := GetRequest{UserID: userID, TodoID: id}
	var resp ItemResponse
	if err := call(ctx, a.container, ServiceGet, &req, &resp); err != nil {
		return domain.Item{}, err
	}
	if err := resp.Error.Err(); err != nil {
		return domain.Item{}, err
	}
	return resp.Item, nil
}

func (a *todoAdapter) Create(ctx context.Context, userID string, p domain.CreatePayload) (domain.Item, error) {
	req := CreateRequest{UserID: userID, Payload: p}
	var resp ItemResponse
	if err := call(ctx, a.container, ServiceCreate, &req, &resp); err != nil {
		return domain.Item{}, err
	}
	if err := resp.Error.Err(); err != nil {
		return domain.Item{}, err
	}
	return resp.Item, nil
}

func (a *todoAdapter) Update(ctx context.Context, userID, id string, p domain.UpdatePayload) (domain.Item, error) {
	req := UpdateRequest{UserID: userID, TodoID: id, Payload: p}
	var resp ItemResponse
	if err := call(ctx, a.container, ServiceUpdate, &req, &resp); err != nil {
		return domain.Item{}, err
	}
	if err := resp.Error.Err(); err != nil {
		return domain.Item{}, err
	}
	return resp.Item, nil
}

func (a *todoAdapter) ToggleStatus(ctx context.Context, userID, id string, completed bool) (domain.StatusChange, error) {
	req := ToggleRequest{UserID: userID, TodoID: id, Completed: completed}
	var resp StatusResponse
	if err := call(ctx, a.container, ServiceToggle, &req, &resp); err != nil {
		return domain.StatusChange{}, err
	}
	if err := resp.Error.Err(); err != nil {
		return domain.StatusChange{}, err
	}
	return resp.Status, nil
}

func (a *todoAdapter) Delete(ctx context.Context, userID, id string) error {
	req := DeleteRequest{UserID: userID, TodoID: id}
	var resp DeleteResponse
	if err := call(ctx, a.container, ServiceDelete, &req, &resp); err != nil {
		return err
	}
	if err := resp.Error.Err(); err != nil {
		return err
	}
	if !resp.Deleted {
		return domain.Internal(fmt.Errorf("todo not deleted: %s", id))
	}
	return nil
}
