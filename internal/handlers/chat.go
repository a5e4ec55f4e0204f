package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"eventhive/internal/logger"
	"eventhive/internal/models"
)

// Chat - POST /api/chat
// Ответ уходит как text/event-stream, по фрагменту на токен, затем [DONE]
func (h *Handlers) Chat(c *gin.Context) {
	var req models.ChatRequest
	if !bindJSON(c, &req) {
		return
	}
	if strings.TrimSpace(req.LastUserMessage()) == "" {
		badRequest(c, "a non-empty user message is required")
		return
	}

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")
	c.Status(http.StatusOK)

	ctx := c.Request.Context()
	err := h.services.Chat.Stream(ctx, &req, func(token string) error {
		chunk, err := json.Marshal(models.ChatChunk{Content: token})
		if err != nil {
			return err
		}
		if _, err := fmt.Fprintf(c.Writer, "data: %s\n\n", chunk); err != nil {
			return err
		}
		c.Writer.Flush()
		return nil
	})
	if err != nil {
		if !errors.Is(err, context.Canceled) {
			logger.WithContext(ctx).Warn("Chat stream aborted", "error", err)
		}
		return
	}

	fmt.Fprint(c.Writer, "data: [DONE]\n\n")
	c.Writer.Flush()
}
