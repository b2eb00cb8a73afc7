package handlers

import (
	"context"
	"errors"
	"time"

	"github.com/gofiber/websocket/v2"
	"go.uber.org/zap"

	"github.com/fitonboard/backend/internal/workout"
	"github.com/fitonboard/backend/pkg/apperrors"
	"github.com/fitonboard/backend/pkg/logger"
)

const generateTimeout = 2 * time.Minute

// WebSocketHandler streams generation progress. Each {"type":"generate"}
// message produces status, plan, confidence and complete events, or an
// error event.
type WebSocketHandler struct {
	service *workout.Service
}

func NewWebSocketHandler(service *workout.Service) *WebSocketHandler {
	return &WebSocketHandler{
		service: service,
	}
}

type wsMessage struct {
	Type    string                  `json:"type"`
	Request workout.GenerateRequest `json:"request"`
}

func (h *WebSocketHandler) HandleConnection(c *websocket.Conn) {
	logger.Info("WebSocket connection established")

	defer func() {
		c.Close()
		logger.Info("WebSocket connection closed")
	}()

	for {
		var msg wsMessage
		if err := c.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				logger.Warn("Failed to read WebSocket message", zap.Error(err))
			}
			return
		}

		switch msg.Type {
		case "ping":
			if err := c.WriteJSON(workout.Event{Type: "pong"}); err != nil {
				return
			}
			continue
		case "generate":
		default:
			continue
		}

		if msg.Request.UserID == "" {
			if userID, ok := c.Locals("userId").(string); ok {
				msg.Request.UserID = userID
			}
		}

		if err := h.stream(c, msg.Request); err != nil {
			logger.Error("Failed to stream workout", zap.Error(err))
			return
		}
	}
}

// stream runs one generation. It returns an error only when the connection
// itself failed; generation errors are sent to the client as events.
func (h *WebSocketHandler) stream(c *websocket.Conn, req workout.GenerateRequest) error {
	ctx, cancel := context.WithTimeout(context.Background(), generateTimeout)
	defer cancel()

	var writeErr error
	send := func(e workout.Event) {
		if writeErr != nil {
			return
		}
		if err := c.WriteJSON(e); err != nil {
			writeErr = err
			cancel()
		}
	}

	_, err := h.service.Generate(ctx, req, send)
	if writeErr != nil {
		return writeErr
	}
	if err != nil {
		send(workout.Event{
			Type:    workout.EventError,
			Message: errorMessage(err),
			Data: map[string]interface{}{
				"code":      apperrors.CodeOf(err),
				"fields":    apperrors.FieldsOf(err),
				"retryable": apperrors.IsRetryable(err),
			},
		})
	}
	return writeErr
}

func errorMessage(err error) string {
	if apperrors.HTTPStatus(err) >= 500 {
		return "Workout generation failed"
	}
	var msg string
	var appErr *apperrors.Error
	if errors.As(err, &appErr) {
		msg = appErr.Message
	}
	if msg == "" {
		msg = "Workout request was rejected"
	}
	return msg
}
