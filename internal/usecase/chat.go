package usecase

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"aura-chat/internal/safety"
)

// DefaultModel is the Gemini model every delegated message is sent to unless
// configuration overrides it.
const DefaultModel = "gemini-1.5-flash"

// Generator produces a text completion for a single prompt.
type Generator interface {
	GenerateContent(ctx context.Context, model, prompt string) (string, error)
}

// unavailabler is implemented by generator errors raised before any request
// reached the provider, e.g. a missing API key.
type unavailabler interface {
	Unavailable() bool
}

type ChatService struct {
	gen   Generator
	log   *slog.Logger
	model string
}

type ChatInput struct {
	Message string
}

type ChatOutput struct {
	Reply  string
	Crisis bool
}

func NewChatService(gen Generator, logger *slog.Logger, model string) (*ChatService, error) {
	if gen == nil {
		return nil, errors.New("usecase: generator must not be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	model = strings.TrimSpace(model)
	if model == "" {
		model = DefaultModel
	}
	return &ChatService{
		gen:   gen,
		log:   logger.With("component", "chat_service"),
		model: model,
	}, nil
}

// Model returns the model identifier messages are delegated to.
func (s *ChatService) Model() string {
	return s.model
}

// Chat screens the message for crisis language and otherwise forwards it to
// the generator. Crisis messages never reach the generator.
func (s *ChatService) Chat(ctx context.Context, in ChatInput) (ChatOutput, error) {
	if in.Message == "" {
		return ChatOutput{}, newError(ErrorInvalidInput, "message_required", nil)
	}

	if kw, ok := safety.MatchCrisisKeyword(in.Message); ok {
		s.log.WarnContext(ctx, "crisis language detected, returning lifeline message", "keyword", kw)
		return ChatOutput{Reply: safety.CrisisMessage, Crisis: true}, nil
	}

	text, err := s.gen.GenerateContent(ctx, s.model, BuildPrompt(in.Message))
	if err != nil {
		if isUnavailable(err) {
			return ChatOutput{}, newError(ErrorProviderUnavailable, "provider_unavailable", err)
		}
		return ChatOutput{}, newError(ErrorUpstream, "provider_error", err)
	}
	if text == "" {
		return ChatOutput{}, newError(ErrorUpstream, "provider_empty_response", nil)
	}

	return ChatOutput{Reply: text}, nil
}

func isUnavailable(err error) bool {
	var u unavailabler
	return errors.As(err, &u) && u.Unavailable()
}
