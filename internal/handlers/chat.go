package handlers

import (
	"context"
	"log"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"cargoquote-backend/internal/services"
)

// turnTimeout bounds one dialog turn including classifier backoff, so a
// slow external call cannot stall the handler indefinitely.
const turnTimeout = 60 * time.Second

// ChatHandler serves the dialog turn endpoint.
type ChatHandler struct {
	dialog *services.DialogService
}

// NewChatHandler creates the chat handler.
func NewChatHandler(dialog *services.DialogService) *ChatHandler {
	return &ChatHandler{dialog: dialog}
}

// ChatRequest is one inbound conversational turn.
type ChatRequest struct {
	SessionID string `json:"session_id"`
	Message   string `json:"message"`
	Debug     bool   `json:"debug"`
}

// HandleChat processes a turn and returns the next prompt. A missing
// session id starts a fresh conversation under a generated one.
func (h *ChatHandler) HandleChat(c *fiber.Ctx) error {
	var req ChatRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid chat payload",
		})
	}
	if req.Message == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "message is required",
		})
	}
	if req.SessionID == "" {
		req.SessionID = uuid.NewString()
	}

	ctx, cancel := context.WithTimeout(c.UserContext(), turnTimeout)
	defer cancel()

	result, err := h.dialog.HandleTurn(ctx, req.SessionID, req.Message, req.Debug)
	if err != nil {
		log.Printf("Chat turn failed for session %s: %v", req.SessionID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to process the message",
		})
	}

	return c.JSON(result)
}
