package handler

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"testing"

	"github.com/aws/aws-lambda-go/events"
	"github.com/stretchr/testify/require"

	"aura-chat/internal/domain"
	"aura-chat/internal/safety"
	"aura-chat/internal/usecase"
)

type stubUseCase struct {
	out   usecase.ChatOutput
	err   error
	in    usecase.ChatInput
	calls int
}

func (s *stubUseCase) Chat(_ context.Context, in usecase.ChatInput) (usecase.ChatOutput, error) {
	s.calls++
	s.in = in
	return s.out, s.err
}

type countingGenerator struct {
	text    string
	err     error
	prompts []string
}

func (g *countingGenerator) GenerateContent(_ context.Context, _, prompt string) (string, error) {
	g.prompts = append(g.prompts, prompt)
	return g.text, g.err
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func makeEvent(body string) events.APIGatewayProxyRequest {
	return events.APIGatewayProxyRequest{
		HTTPMethod: http.MethodPost,
		Path:       "/chatWithAI",
		Headers:    map[string]string{"Content-Type": "application/json"},
		Body:       body,
	}
}

func parseResult(t *testing.T, body string) domain.ChatResult {
	t.Helper()
	var v callableResponse
	require.NoError(t, json.Unmarshal([]byte(body), &v))
	return v.Result
}

func newTestHandler(t *testing.T, chat Chatter) *Handler {
	t.Helper()
	h, err := NewHandler(chat, WithLogger(quietLogger()))
	require.NoError(t, err)
	return h
}

func TestNewHandler_ValidatesDependency(t *testing.T) {
	_, err := NewHandler(nil)
	require.Error(t, err)
}

func TestHandle_HappyPath(t *testing.T) {
	uc := &stubUseCase{out: usecase.ChatOutput{Reply: "I'm here for you."}}
	h := newTestHandler(t, uc)

	resp, err := h.Handle(context.Background(), makeEvent(`{"data":{"message":"I feel lonely"}}`))
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, usecase.ChatInput{Message: "I feel lonely"}, uc.in)
	require.Equal(t, "application/json", resp.Headers["Content-Type"])
	require.NotEmpty(t, resp.Headers["X-Correlation-Id"])

	out := parseResult(t, resp.Body)
	require.Equal(t, domain.ChatResult{Response: "I'm here for you."}, out)
	require.JSONEq(t, `{"result":{"response":"I'm here for you."}}`, resp.Body)
}

func TestHandle_BarePayload(t *testing.T) {
	uc := &stubUseCase{out: usecase.ChatOutput{Reply: "ok"}}
	h := newTestHandler(t, uc)

	resp, err := h.Handle(context.Background(), makeEvent(`{"message":"hello"}`))
	require.NoError(t, err)
	require.Equal(t, "hello", uc.in.Message)
	require.Equal(t, "ok", parseResult(t, resp.Body).Response)
}

func TestHandle_Base64Body(t *testing.T) {
	uc := &stubUseCase{out: usecase.ChatOutput{Reply: "ok"}}
	h := newTestHandler(t, uc)

	event := makeEvent(base64.StdEncoding.EncodeToString([]byte(`{"data":{"message":"encoded"}}`)))
	event.IsBase64Encoded = true
	resp, err := h.Handle(context.Background(), event)
	require.NoError(t, err)
	require.Equal(t, "encoded", uc.in.Message)
	require.Equal(t, "ok", parseResult(t, resp.Body).Response)
}

func TestHandle_MessageRequired(t *testing.T) {
	cases := []struct {
		name string
		body string
	}{
		{name: "empty body", body: ``},
		{name: "not json", body: `not-json`},
		{name: "missing data", body: `{}`},
		{name: "missing message", body: `{"data":{}}`},
		{name: "null message", body: `{"data":{"message":null}}`},
		{name: "number", body: `{"data":{"message":42}}`},
		{name: "bool", body: `{"data":{"message":true}}`},
		{name: "object", body: `{"data":{"message":{"text":"hi"}}}`},
		{name: "array", body: `{"data":{"message":["hi"]}}`},
		{name: "empty string", body: `{"data":{"message":""}}`},
		{name: "data not object", body: `{"data":"hello"}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			uc := &stubUseCase{}
			h := newTestHandler(t, uc)

			resp, err := h.Handle(context.Background(), makeEvent(tc.body))
			require.NoError(t, err)
			require.Equal(t, http.StatusOK, resp.StatusCode)
			require.Equal(t, domain.ChatResult{Error: "Message is required."}, parseResult(t, resp.Body))
			require.Zero(t, uc.calls)
		})
	}
}

func TestHandle_MapsUseCaseErrors(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want string
	}{
		{name: "invalid input", err: &usecase.Error{Code: usecase.ErrorInvalidInput, Reason: "message_required"}, want: domain.MessageRequiredText},
		{name: "provider unavailable", err: &usecase.Error{Code: usecase.ErrorProviderUnavailable, Reason: "provider_unavailable", Err: errors.New("GEMINI_API_KEY unset")}, want: domain.GenericErrorText},
		{name: "upstream", err: &usecase.Error{Code: usecase.ErrorUpstream, Reason: "provider_error", Err: errors.New("503 from upstream")}, want: domain.GenericErrorText},
		{name: "unexpected", err: errors.New("boom"), want: domain.GenericErrorText},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			uc := &stubUseCase{err: tc.err}
			h := newTestHandler(t, uc)

			resp, err := h.Handle(context.Background(), makeEvent(`{"data":{"message":"hello"}}`))
			require.NoError(t, err)
			require.Equal(t, http.StatusOK, resp.StatusCode)

			out := parseResult(t, resp.Body)
			require.Equal(t, tc.want, out.Error)
			require.Empty(t, out.Response)
			require.NotContains(t, resp.Body, "upstream")
			require.NotContains(t, resp.Body, "GEMINI_API_KEY")
		})
	}
}

func TestHandle_CrisisEndToEnd(t *testing.T) {
	gen := &countingGenerator{text: "should not be used"}
	svc, err := usecase.NewChatService(gen, quietLogger(), "")
	require.NoError(t, err)
	h := newTestHandler(t, svc)

	var bodies []string
	for i := 0; i < 2; i++ {
		resp, err := h.Handle(context.Background(), makeEvent(`{"data":{"message":"I just want to DIE today"}}`))
		require.NoError(t, err)
		require.Equal(t, domain.ChatResult{Response: safety.CrisisMessage}, parseResult(t, resp.Body))
		bodies = append(bodies, resp.Body)
	}
	require.Equal(t, bodies[0], bodies[1])
	require.Empty(t, gen.prompts)
}

func TestHandle_DelegatesEndToEnd(t *testing.T) {
	gen := &countingGenerator{text: "Breathing slowly can help. What usually calms you?"}
	svc, err := usecase.NewChatService(gen, quietLogger(), "")
	require.NoError(t, err)
	h := newTestHandler(t, svc)

	for i := 0; i < 2; i++ {
		resp, err := h.Handle(context.Background(), makeEvent(`{"data":{"message":"I'm anxious about exams"}}`))
		require.NoError(t, err)
		require.Equal(t, "Breathing slowly can help. What usually calms you?", parseResult(t, resp.Body).Response)
	}
	require.Len(t, gen.prompts, 2)
	require.Equal(t, usecase.SystemPrompt+"\n\nUser: I'm anxious about exams\n\nAura:", gen.prompts[0])
}

func TestHandle_ProviderFailureEndToEnd(t *testing.T) {
	gen := &countingGenerator{err: errors.New("dial tcp: i/o timeout")}
	svc, err := usecase.NewChatService(gen, quietLogger(), "")
	require.NoError(t, err)
	h := newTestHandler(t, svc)

	resp, err := h.Handle(context.Background(), makeEvent(`{"data":{"message":"hello"}}`))
	require.NoError(t, err)
	require.JSONEq(t, `{"result":{"error":"An error occurred while processing your message. Please try again."}}`, resp.Body)
}

func TestHandle_Preflight(t *testing.T) {
	uc := &stubUseCase{}
	h, err := NewHandler(uc, WithLogger(quietLogger()), WithAllowOrigin("https://aura.example.com"))
	require.NoError(t, err)

	event := makeEvent("")
	event.HTTPMethod = http.MethodOptions
	resp, err := h.Handle(context.Background(), event)
	require.NoError(t, err)
	require.Equal(t, http.StatusNoContent, resp.StatusCode)
	require.Equal(t, "https://aura.example.com", resp.Headers["Access-Control-Allow-Origin"])
	require.Contains(t, resp.Headers["Access-Control-Allow-Methods"], "POST")
	require.Empty(t, resp.Body)
	require.Zero(t, uc.calls)
}

func TestHandle_MethodNotAllowed(t *testing.T) {
	uc := &stubUseCase{}
	h := newTestHandler(t, uc)

	event := makeEvent(`{"data":{"message":"hello"}}`)
	event.HTTPMethod = http.MethodGet
	resp, err := h.Handle(context.Background(), event)
	require.NoError(t, err)
	require.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
	require.Equal(t, "POST, OPTIONS", resp.Headers["Allow"])
	require.Equal(t, domain.MethodNotAllowed, parseResult(t, resp.Body).Error)
	require.Zero(t, uc.calls)
}

func TestFallbackBody_IsGenericError(t *testing.T) {
	require.JSONEq(t, `{"result":{"error":"An error occurred while processing your message. Please try again."}}`, fallbackBody)
	require.Equal(t, domain.ChatResult{Error: domain.GenericErrorText}, parseResult(t, fallbackBody))
}

func TestHandle_UsesProvidedCorrelationID_CaseInsensitive(t *testing.T) {
	uc := &stubUseCase{out: usecase.ChatOutput{Reply: "ok"}}
	h := newTestHandler(t, uc)

	event := makeEvent(`{"data":{"message":"hello"}}`)
	event.Headers["x-correlation-id"] = "corr-123"
	resp, err := h.Handle(context.Background(), event)
	require.NoError(t, err)
	require.Equal(t, "corr-123", resp.Headers["X-Correlation-Id"])
}
