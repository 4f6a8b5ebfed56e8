// Package syncserver is the HTTP endpoint remote clients push their task
// lists to. Each bearer token identifies a user; tasks are stored per user.
package syncserver

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/nhle/novatasks/internal/model"
	"github.com/nhle/novatasks/internal/remotesync"
	"github.com/nhle/novatasks/internal/store"
)

// BodyLimit caps the size of a pushed payload.
const BodyLimit = 1 << 20

const msgBadTasks = "Invalid or missing tasks array"

// Server wires the sync routes onto a Fiber app.
type Server struct {
	app    *fiber.App
	store  store.RemoteStore
	tokens *TokenManager
	logger *slog.Logger
}

// New creates a Server backed by st. A nil logger discards output.
func New(st store.RemoteStore, tokens *TokenManager, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	s := &Server{store: st, tokens: tokens, logger: logger}
	s.app = fiber.New(fiber.Config{
		DisableStartupMessage: true,
		BodyLimit:             BodyLimit,
		ErrorHandler:          s.handleError,
	})

	s.app.Use(recover.New())
	s.app.Use(requestLogger(logger))
	s.routes()
	return s
}

// App exposes the underlying Fiber app.
func (s *Server) App() *fiber.App { return s.app }

// Listen serves on addr until Shutdown is called.
func (s *Server) Listen(addr string) error {
	s.logger.Info("sync server listening", "addr", addr)
	return s.app.Listen(addr)
}

// Shutdown stops accepting connections and waits for in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("sync server shutting down")
	return s.app.ShutdownWithContext(ctx)
}

func (s *Server) routes() {
	s.app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	api := s.app.Group("/api", AuthMiddleware(s.tokens))
	api.Post("/sync", s.push)
	api.Get("/sync", s.pull)
}

func (s *Server) push(c *fiber.Ctx) error {
	claims := claimsFrom(c)

	var body struct {
		Tasks json.RawMessage `json:"tasks"`
	}
	if err := json.Unmarshal(c.Body(), &body); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(errorBody(msgBadTasks))
	}
	raw := bytes.TrimSpace(body.Tasks)
	if len(raw) == 0 || raw[0] != '[' {
		return c.Status(fiber.StatusBadRequest).JSON(errorBody(msgBadTasks))
	}

	var tasks []model.Task
	if err := json.Unmarshal(raw, &tasks); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(errorBody(err.Error()))
	}

	n, err := s.store.UpsertRemoteTasks(c.UserContext(), claims.UserID(), tasks)
	if err != nil {
		return err
	}

	s.logger.Info("tasks pushed", "user", claims.UserID(), "count", n)
	return c.JSON(remotesync.PushResult{Inserted: n})
}

func (s *Server) pull(c *fiber.Ctx) error {
	claims := claimsFrom(c)

	tasks, err := s.store.GetRemoteTasks(c.UserContext(), claims.UserID())
	if err != nil {
		return err
	}
	return c.JSON(remotesync.Payload{Tasks: tasks})
}

func (s *Server) handleError(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	msg := err.Error()

	var fe *fiber.Error
	if errors.As(err, &fe) {
		code = fe.Code
		msg = fe.Message
	}
	if code >= fiber.StatusInternalServerError {
		s.logger.Error("request failed", "path", c.Path(), "err", err)
	}

	return c.Status(code).JSON(errorBody(msg))
}

func errorBody(msg string) remotesync.ErrorResponse {
	return remotesync.ErrorResponse{Error: msg}
}
