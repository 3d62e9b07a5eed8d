package handler

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/aws/aws-lambda-go/events"
	"github.com/google/uuid"

	"aura-chat/internal/domain"
	"aura-chat/internal/usecase"
)

const correlationHeader = "X-Correlation-Id"

// Chatter is the use case the handler drives.
type Chatter interface {
	Chat(ctx context.Context, in usecase.ChatInput) (usecase.ChatOutput, error)
}

// chatPayload is the typed request payload. Message stays raw so that a
// non-string value can be told apart from a missing one.
type chatPayload struct {
	Message json.RawMessage `json:"message"`
}

// callableRequest is the {"data": {...}} envelope sent by callable-function clients.
type callableRequest struct {
	Data *chatPayload `json:"data"`
	chatPayload
}

type callableResponse struct {
	Result domain.ChatResult `json:"result"`
}

type Handler struct {
	chat        Chatter
	log         *slog.Logger
	allowOrigin string
}

type Option func(*Handler)

func WithLogger(logger *slog.Logger) Option {
	return func(h *Handler) {
		if logger != nil {
			h.log = logger
		}
	}
}

func WithAllowOrigin(origin string) Option {
	return func(h *Handler) {
		if origin = strings.TrimSpace(origin); origin != "" {
			h.allowOrigin = origin
		}
	}
}

func NewHandler(chat Chatter, opts ...Option) (*Handler, error) {
	if chat == nil {
		return nil, errors.New("handler: chat use case must not be nil")
	}
	h := &Handler{
		chat:        chat,
		log:         slog.Default(),
		allowOrigin: "*",
	}
	for _, opt := range opts {
		opt(h)
	}
	h.log = h.log.With("component", "handler")
	return h, nil
}

// Handle never returns an error: every failure becomes an error payload.
func (h *Handler) Handle(ctx context.Context, req events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	corrID := correlationID(req.Headers)
	log := h.log.With("correlation_id", corrID)

	switch req.HTTPMethod {
	case http.MethodOptions:
		return h.respond(http.StatusNoContent, corrID, nil), nil
	case http.MethodPost, "":
	default:
		log.WarnContext(ctx, "method not allowed", "method", req.HTTPMethod)
		resp := h.respond(http.StatusMethodNotAllowed, corrID, &callableResponse{Result: domain.Failure(domain.MethodNotAllowed)})
		resp.Headers["Allow"] = "POST, OPTIONS"
		return resp, nil
	}

	message, ok := decodeMessage(req)
	if !ok {
		log.InfoContext(ctx, "rejected request without a text message")
		return h.result(corrID, domain.Failure(domain.MessageRequiredText)), nil
	}

	out, err := h.chat.Chat(ctx, usecase.ChatInput{Message: message})
	if err != nil {
		return h.result(corrID, h.failure(ctx, log, err)), nil
	}
	if out.Crisis {
		log.InfoContext(ctx, "returned crisis resources")
	}
	return h.result(corrID, domain.Reply(out.Reply)), nil
}

func (h *Handler) failure(ctx context.Context, log *slog.Logger, err error) domain.ChatResult {
	text := usecase.UserText(err)
	var ucErr *usecase.Error
	switch {
	case errors.As(err, &ucErr) && ucErr.Code == usecase.ErrorInvalidInput:
		log.InfoContext(ctx, "invalid chat input", "reason", ucErr.Reason)
	case ucErr != nil:
		log.ErrorContext(ctx, "chat failed", "code", ucErr.Code, "reason", ucErr.Reason, "err", ucErr.Err)
	default:
		log.ErrorContext(ctx, "chat failed", "err", err)
	}
	return domain.Failure(text)
}

func (h *Handler) result(corrID string, res domain.ChatResult) events.APIGatewayProxyResponse {
	return h.respond(http.StatusOK, corrID, &callableResponse{Result: res})
}

// fallbackBody is sent if a response payload cannot be encoded.
const fallbackBody = `{"result":{"error":"` + domain.GenericErrorText + `"}}`

func (h *Handler) respond(status int, corrID string, payload *callableResponse) events.APIGatewayProxyResponse {
	headers := map[string]string{
		"Access-Control-Allow-Origin":  h.allowOrigin,
		"Access-Control-Allow-Methods": "POST, OPTIONS",
		"Access-Control-Allow-Headers": "Content-Type, Authorization, " + correlationHeader,
		correlationHeader:              corrID,
	}
	resp := events.APIGatewayProxyResponse{StatusCode: status, Headers: headers}
	if payload == nil {
		return resp
	}
	headers["Content-Type"] = "application/json"
	body, err := json.Marshal(payload)
	if err != nil {
		h.log.Error("failed to encode response", "correlation_id", corrID, "err", err)
		resp.Body = fallbackBody
		return resp
	}
	resp.Body = string(body)
	return resp
}

// decodeMessage extracts a non-empty string message from either the callable
// envelope or a bare payload.
func decodeMessage(req events.APIGatewayProxyRequest) (string, bool) {
	raw := []byte(req.Body)
	if req.IsBase64Encoded {
		decoded, err := base64.StdEncoding.DecodeString(req.Body)
		if err != nil {
			return "", false
		}
		raw = decoded
	}
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return "", false
	}

	var body callableRequest
	if err := json.Unmarshal(raw, &body); err != nil {
		return "", false
	}
	payload := body.chatPayload
	if body.Data != nil {
		payload = *body.Data
	}

	var message string
	if err := json.Unmarshal(payload.Message, &message); err != nil {
		return "", false
	}
	if message == "" {
		return "", false
	}
	return message, true
}

func correlationID(headers map[string]string) string {
	for k, v := range headers {
		if strings.EqualFold(k, correlationHeader) && strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	return uuid.NewString()
}
