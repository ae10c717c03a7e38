package api

import (
	"bytes"
	"encoding/json"
	"strings"

	domain "github.com/KamilBuksa/SimpleTodo/domain/todo"
	"github.com/KamilBuksa/SimpleTodo/modules/todo"
	"github.com/gofiber/fiber/v2"
)

const localUserID = "user_id"

func (m *Module) setupRoutes(app *fiber.App) {
	app.Get("/health", m.handleHealth)

	todos := app.Group("/api/todos", m.userMiddleware)
	todos.Get("/", m.handleList)
	todos.Post("/", m.handleCreate)
	todos.Get("/:id", m.handleGet)
	todos.Put("/:id", m.handleUpdate)
	todos.Patch("/:id", m.handleToggle)
	todos.Delete("/:id", m.handleDelete)
}

// userMiddleware resolves the acting user. There is no authentication, so
// every request acts as the configured default user.
func (m *Module) userMiddleware(c *fiber.Ctx) error {
	if m.cfg.DefaultUserID == "" {
		return m.writeError(c, domain.Unauthorized())
	}
	c.Locals(localUserID, m.cfg.DefaultUserID)
	return c.Next()
}

func userID(c *fiber.Ctx) string {
	id, _ := c.Locals(localUserID).(string)
	return id
}

// todoID returns the path id, or "" when it is blank.
func todoID(c *fiber.Ctx) string {
	return strings.TrimSpace(c.Params("id"))
}

// decodeObject reads a JSON object body. Numbers stay json.Number so the
// validator can tell 30 from 30.5.
func decodeObject(c *fiber.Ctx) (map[string]any, error) {
	dec := json.NewDecoder(bytes.NewReader(c.Body()))
	dec.UseNumber()
	var raw map[string]any
	if err := dec.Decode(&raw); err != nil || raw == nil {
		return nil, domain.Validation(nil)
	}
	return raw, nil
}

func (m *Module) handleHealth(c *fiber.Ctx) error {
	return c.JSON(HealthResponse{
		Status:  "ok",
		Details: m.healthDetails(),
	})
}

// GET /api/todos
func (m *Module) handleList(c *fiber.Ctx) error {
	q, err := todo.ParseListQuery(func(key string) string { return c.Query(key) })
	if err != nil {
		return m.writeError(c, err)
	}
	list, err := m.todos.List(c.UserContext(), userID(c), q)
	if err != nil {
		return m.writeError(c, err)
	}
	return c.JSON(list)
}

// GET /api/todos/:id
func (m *Module) handleGet(c *fiber.Ctx) error {
	id := todoID(c)
	if id == "" {
		return m.writeError(c, domain.MissingID())
	}
	item, err := m.todos.Get(c.UserContext(), userID(c), id)
	if err != nil {
		return m.writeError(c, err)
	}
	return c.JSON(item)
}

// POST /api/todos
func (m *Module) handleCreate(c *fiber.Ctx) error {
	raw, err := decodeObject(c)
	if err != nil {
		return m.writeError(c, err)
	}
	payload, err := todo.ParseCreate(raw)
	if err != nil {
		return m.writeError(c, err)
	}
	item, err := m.todos.Create(c.UserContext(), userID(c), payload)
	if err != nil {
		return m.writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(item)
}

// PUT /api/todos/:id
func (m *Module) handleUpdate(c *fiber.Ctx) error {
	id := todoID(c)
	if id == "" {
		return m.writeError(c, domain.MissingID())
	}
	raw, err := decodeObject(c)
	if err != nil {
		return m.writeError(c, err)
	}
	payload, err := todo.ParseUpdate(raw)
	if err != nil {
		return m.writeError(c, err)
	}
	item, err := m.todos.Update(c.UserContext(), userID(c), id, payload)
	if err != nil {
		return m.writeError(c, err)
	}
	return c.JSON(item)
}

// PATCH /api/todos/:id
func (m *Module) handleToggle(c *fiber.Ctx) error {
	id := todoID(c)
	if id == "" {
		return m.writeError(c, domain.MissingID())
	}
	raw, err := decodeObject(c)
	if err != nil {
		return m.writeError(c, err)
	}
	completed, err := todo.ParseToggle(raw)
	if err != nil {
		return m.writeError(c, err)
	}
	status, err := m.todos.ToggleStatus(c.UserContext(), userID(c), id, completed)
	if err != nil {
		return m.writeError(c, err)
	}
	return c.JSON(status)
}

// DELETE /api/todos/:id
func (m *Module) handleDelete(c *fiber.Ctx) error {
	id := todoID(c)
	if id == "" {
		return m.writeError(c, domain.MissingID())
	}
	if err := m.todos.Delete(c.UserContext(), userID(c), id); err != nil {
		return m.writeError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}
