// Package secrets resolves the provider API key from SSM Parameter Store, with
// an environment variable fallback for local runs.
package secrets

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
)

// ErrNotConfigured is returned when no source yields an API key.
var ErrNotConfigured = errors.New("secrets: api key not configured")

type ParameterGetter interface {
	GetParameter(ctx context.Context, name string) (string, error)
}

// tokenPayload is the JSON shape some deployments store instead of the bare key.
type tokenPayload struct {
	Token string `json:"token"`
}

// Resolver looks up the API key and caches it once it comes from its
// authoritative source: the parameter when one is configured, otherwise the
// fallback. A fallback served after a failed parameter read is not cached.
type Resolver struct {
	store     ParameterGetter
	paramName string
	fallback  string
	log       *slog.Logger

	mu     sync.Mutex
	apiKey string
}

type ResolverOption func(*Resolver)

func WithLogger(logger *slog.Logger) ResolverOption {
	return func(r *Resolver) {
		if logger != nil {
			r.log = logger
		}
	}
}

// NewResolver builds a Resolver. fallback is the key taken from the
// environment and is used when no parameter is configured or the parameter
// cannot be read. store may be nil when paramName is empty.
func NewResolver(store ParameterGetter, paramName, fallback string, opts ...ResolverOption) (*Resolver, error) {
	paramName = strings.TrimSpace(paramName)
	fallback = strings.TrimSpace(fallback)
	if paramName == "" && fallback == "" {
		return nil, fmt.Errorf("%w: no parameter name and no fallback key", ErrNotConfigured)
	}
	if paramName != "" && store == nil {
		return nil, errors.New("secrets: parameter store must not be nil when a parameter name is set")
	}
	r := &Resolver{
		store:     store,
		paramName: paramName,
		fallback:  fallback,
		log:       slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	r.log = r.log.With("component", "secrets")
	return r, nil
}

// APIKey returns the cached key, resolving it on first use.
func (r *Resolver) APIKey(ctx context.Context) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.apiKey != "" {
		return r.apiKey, nil
	}

	key, final, err := r.resolve(ctx)
	if err != nil {
		return "", err
	}
	if final {
		r.apiKey = key
	}
	return key, nil
}

// resolve reports whether key came from the authoritative source and may be
// cached.
func (r *Resolver) resolve(ctx context.Context) (key string, final bool, err error) {
	if r.paramName == "" {
		return r.fallback, true, nil
	}

	raw, err := r.store.GetParameter(ctx, r.paramName)
	if err == nil {
		if key, err = parseKey(raw); err == nil {
			return key, true, nil
		}
	}
	r.log.ErrorContext(ctx, "api key parameter unavailable", "parameter", r.paramName, "fallback", r.fallback != "", "err", err)

	if r.fallback != "" {
		return r.fallback, false, nil
	}
	return "", false, fmt.Errorf("%w: parameter %q: %v", ErrNotConfigured, r.paramName, err)
}

func parseKey(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if strings.HasPrefix(raw, "{") {
		var tp tokenPayload
		if err := json.Unmarshal([]byte(raw), &tp); err != nil {
			return "", fmt.Errorf("secrets: unmarshal token payload: %w", err)
		}
		raw = strings.TrimSpace(tp.Token)
	}
	if raw == "" {
		return "", errors.New("secrets: api key is empty")
	}
	return raw, nil
}
