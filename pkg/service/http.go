package service

import (
	stderrors "errors"

	"github.com/charmbracelet/log"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"
	"github.com/theapemachine/concierge/pkg/agent"
	"github.com/theapemachine/concierge/pkg/errors"
	"github.com/theapemachine/concierge/pkg/memory"
	"github.com/theapemachine/concierge/pkg/tools"
	"github.com/theapemachine/concierge/pkg/vector"
)

type ChatRequest struct {
	ConversationID string `json:"conversation_id"`
	Message        string `json:"message" validate:"required"`
}

type ChatResponse struct {
	ConversationID string `json:"conversation_id"`
	Reply          string `json:"reply"`
}

/*
ChatServer exposes the agent over HTTP. One POST endpoint carries the
conversation; the rest is operator surface for the tool registry and
session memory.
*/
type ChatServer struct {
	app      *fiber.App
	agent    *agent.Agent
	registry *tools.Registry
	store    memory.Store
	index    vector.Index
	validate *validator.Validate
	addr     string
}

type ChatServerOption func(*ChatServer)

func NewChatServer(
	agnt *agent.Agent,
	registry *tools.Registry,
	store memory.Store,
	index vector.Index,
	options ...ChatServerOption,
) *ChatServer {
	srv := &ChatServer{
		app: fiber.New(fiber.Config{
			AppName:      "Concierge",
			ServerHeader: "Concierge-Server",
		}),
		agent:    agnt,
		registry: registry,
		store:    store,
		index:    index,
		validate: validator.New(),
		addr:     ":3210",
	}

	for _, option := range options {
		option(srv)
	}

	srv.routes()

	return srv
}

func WithAddr(addr string) ChatServerOption {
	return func(srv *ChatServer) {
		srv.addr = addr
	}
}

func (srv *ChatServer) Run() error {
	log.Info("chat server listening", "addr", srv.addr)
	return srv.app.Listen(srv.addr)
}

func (srv *ChatServer) Shutdown() error {
	return srv.app.Shutdown()
}

// App exposes the fiber app for tests.
func (srv *ChatServer) App() *fiber.App {
	return srv.app
}

func (srv *ChatServer) routes() {
	srv.app.Get("/healthz", func(ctx fiber.Ctx) error {
		return ctx.Status(fiber.StatusOK).JSON(fiber.Map{
			"status":     "ok",
			"index_size": srv.index.Len(),
			"tools":      len(srv.registry.List()),
		})
	})

	srv.app.Post("/chat", srv.handleChat)

	srv.app.Get("/tools", func(ctx fiber.Ctx) error {
		return ctx.Status(fiber.StatusOK).JSON(srv.registry.List())
	})

	srv.app.Post("/tools/:name/enable", func(ctx fiber.Ctx) error {
		if err := srv.registry.Enable(ctx.Context(), ctx.Params("name")); err != nil {
			return toolAdminError(ctx, err)
		}

		return ctx.Status(fiber.StatusOK).JSON(fiber.Map{"enabled": ctx.Params("name")})
	})

	srv.app.Post("/tools/:name/disable", func(ctx fiber.Ctx) error {
		if err := srv.registry.Disable(ctx.Params("name")); err != nil {
			return toolAdminError(ctx, err)
		}

		return ctx.Status(fiber.StatusOK).JSON(fiber.Map{"disabled": ctx.Params("name")})
	})

	srv.app.Get("/conversations/:id", func(ctx fiber.Ctx) error {
		return ctx.Status(fiber.StatusOK).JSON(fiber.Map{
			"conversation_id": ctx.Params("id"),
			"turns":           srv.store.History(ctx.Params("id"), 0),
		})
	})

	srv.app.Delete("/conversations/:id", func(ctx fiber.Ctx) error {
		srv.store.Clear(ctx.Params("id"))
		return ctx.Status(fiber.StatusOK).JSON(fiber.Map{"cleared": ctx.Params("id")})
	})
}

func (srv *ChatServer) handleChat(ctx fiber.Ctx) error {
	var request ChatRequest

	if err := ctx.Bind().Body(&request); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid request body",
		})
	}

	if err := srv.validate.Struct(&request); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "message is required",
		})
	}

	if request.ConversationID == "" {
		request.ConversationID = uuid.NewString()
	}

	reply := srv.agent.HandleMessage(ctx.Context(), request.ConversationID, request.Message)

	return ctx.Status(fiber.StatusOK).JSON(ChatResponse{
		ConversationID: request.ConversationID,
		Reply:          reply,
	})
}

func toolAdminError(ctx fiber.Ctx, err error) error {
	var (
		unknown     *errors.UnknownToolError
		unavailable *errors.NotAvailableError
	)

	switch {
	case stderrors.As(err, &unknown):
		return ctx.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": err.Error()})
	case stderrors.As(err, &unavailable):
		return ctx.Status(fiber.StatusConflict).JSON(fiber.Map{"error": err.Error()})
	}

	log.Error("tool admin operation failed", "error", err)

	return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
		"error": "internal error",
	})
}
