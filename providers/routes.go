package providers

import (
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"

	pkgcrypto "github.com/daybook-app/server/src/crypto"
	"github.com/daybook-app/server/src/errs"
	"github.com/daybook-app/server/src/model"
	"github.com/daybook-app/server/src/types"
)

const userIDKey = "user_id"

func (a *App) registerRoutes(app *fiber.App) {
	app.Post("/api/register", a.handleRegister)
	app.Post("/api/login", a.handleLogin)
	app.Get("/ws/info", a.handleInfo)

	api := app.Group("/api", a.requireUser)
	api.Get("/todos", a.handleListTodos)
	api.Post("/todos", a.handleCreateTodo)
	api.Patch("/todos/:id", a.handleUpdateTodo)
	api.Post("/todos/:id/complete", a.handleCompleteTodo)
	api.Get("/diary", a.handleListDiary)
	api.Post("/diary", a.handleCreateDiary)
	api.Get("/moods", a.handleListMoods)
	api.Post("/moods", a.handleCreateMood)
}

// requireUser resolves the bearer credential on every protected route. The
// automation secret names its acting user via the X-User-Id header; the
// caller holding the secret is trusted to act for that user.
func (a *App) requireUser(c fiber.Ctx) error {
	header := c.Get("Authorization")
	token, ok := strings.CutPrefix(header, "Bearer ")
	if !ok || token == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "missing bearer token"})
	}

	uid, err := a.verifier.Verify(c.Context(), token, c.Get("X-User-Id"))
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": err.Error()})
	}
	c.Locals(userIDKey, uid)
	return c.Next()
}

func sessionUser(c fiber.Ctx) uuid.UUID {
	uid, _ := c.Locals(userIDKey).(uuid.UUID)
	return uid
}

func (a *App) handleInfo(c fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"websocket":   true,
		"endpoint":    "/ws",
		"clients":     a.registry.TotalCount(),
		"connections": a.registry.Snapshot(),
	})
}

type credentialsRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (a *App) handleRegister(c fiber.Ctx) error {
	var req credentialsRequest
	if err := json.Unmarshal(c.Body(), &req); err != nil || req.Username == "" || req.Password == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "username and password required"})
	}

	salt, err := pkgcrypto.RandBytes(16)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal error"})
	}
	u := &model.User{
		ID:       uuid.New(),
		Username: req.Username,
		PwdHash:  pkgcrypto.HashPassword([]byte(req.Password), salt),
		SaltAuth: salt,
	}
	if err := a.users.Create(c.Context(), u); err != nil {
		if errors.Is(err, errs.ErrAlreadyExists) {
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "username taken"})
		}
		a.logger.Error().Err(err).Msg("register failed")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal error"})
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"id": u.ID, "username": u.Username})
}

func (a *App) handleLogin(c fiber.Ctx) error {
	var req credentialsRequest
	if err := json.Unmarshal(c.Body(), &req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "malformed request"})
	}

	u, err := a.users.GetByUsername(c.Context(), req.Username)
	if err != nil || !pkgcrypto.VerifyPassword([]byte(req.Password), u.SaltAuth, u.PwdHash) {
		// same response whether the user exists or the password is wrong
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "invalid credentials"})
	}

	token, exp, err := a.verifier.IssueToken(u.ID)
	if err != nil {
		a.logger.Error().Err(err).Msg("token mint failed")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal error"})
	}
	return c.JSON(fiber.Map{"token": token, "expiresAt": exp, "userId": u.ID})
}

func (a *App) handleListTodos(c fiber.Ctx) error {
	todos, err := a.todos.List(c.Context(), sessionUser(c))
	if err != nil {
		a.logger.Error().Err(err).Msg("list todos failed")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal error"})
	}
	return c.JSON(todos)
}

func (a *App) handleCreateTodo(c fiber.Ctx) error {
	uid := sessionUser(c)
	var in model.NewTodo
	if err := json.Unmarshal(c.Body(), &in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "malformed request"})
	}
	todo, err := a.todos.Create(c.Context(), uid, in)
	if err != nil {
		a.logger.Error().Err(err).Msg("create todo failed")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal error"})
	}
	a.bridge.BroadcastToUser(uid, types.EventTodoCreated, todo)
	return c.Status(fiber.StatusCreated).JSON(todo)
}

func (a *App) handleUpdateTodo(c fiber.Ctx) error {
	uid := sessionUser(c)
	todoID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "todo not found"})
	}
	var patch model.TodoPatch
	if err := json.Unmarshal(c.Body(), &patch); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "malformed request"})
	}
	todo, err := a.todos.Update(c.Context(), uid, todoID, patch)
	if err != nil {
		if errors.Is(err, errs.ErrNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "todo not found"})
		}
		a.logger.Error().Err(err).Msg("update todo failed")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal error"})
	}
	a.bridge.BroadcastToUser(uid, types.EventTodoUpdated, todo)
	return c.JSON(todo)
}

func (a *App) handleCompleteTodo(c fiber.Ctx) error {
	uid := sessionUser(c)
	todoID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "todo not found"})
	}
	var in model.CompleteTodo
	if len(c.Body()) > 0 {
		if err := json.Unmarshal(c.Body(), &in); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "malformed request"})
		}
	}
	completedAt := time.Now()
	if in.CompletedAt != nil {
		completedAt = *in.CompletedAt
	}
	todo, err := a.todos.Complete(c.Context(), uid, todoID, completedAt)
	if err != nil {
		if errors.Is(err, errs.ErrNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "todo not found"})
		}
		a.logger.Error().Err(err).Msg("complete todo failed")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal error"})
	}
	a.bridge.BroadcastToUser(uid, types.EventTodoCompleted, todo)
	return c.JSON(todo)
}

func (a *App) handleListDiary(c fiber.Ctx) error {
	entries, err := a.diary.List(c.Context(), sessionUser(c))
	if err != nil {
		a.logger.Error().Err(err).Msg("list diary failed")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal error"})
	}
	return c.JSON(entries)
}

func (a *App) handleCreateDiary(c fiber.Ctx) error {
	uid := sessionUser(c)
	var in model.NewDiaryEntry
	if err := json.Unmarshal(c.Body(), &in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "malformed request"})
	}
	entry, err := a.diary.Create(c.Context(), uid, in)
	if err != nil {
		a.logger.Error().Err(err).Msg("create diary entry failed")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal error"})
	}
	a.bridge.BroadcastToUser(uid, types.EventDiaryCreated, entry)
	return c.Status(fiber.StatusCreated).JSON(entry)
}

func (a *App) handleListMoods(c fiber.Ctx) error {
	logs, err := a.moods.List(c.Context(), sessionUser(c))
	if err != nil {
		a.logger.Error().Err(err).Msg("list moods failed")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal error"})
	}
	return c.JSON(logs)
}

func (a *App) handleCreateMood(c fiber.Ctx) error {
	uid := sessionUser(c)
	var in model.NewMoodLog
	if err := json.Unmarshal(c.Body(), &in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "malformed request"})
	}
	if !in.ScoreInRange() {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "moodScore must be between 1 and 5"})
	}
	log, err := a.moods.Create(c.Context(), uid, in)
	if err != nil {
		a.logger.Error().Err(err).Msg("log mood failed")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal error"})
	}
	a.bridge.BroadcastToUser(uid, types.EventMoodLogged, log)
	return c.Status(fiber.StatusCreated).JSON(log)
}
