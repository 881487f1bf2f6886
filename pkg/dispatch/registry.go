// Package dispatch maps command names to handlers that take JSON
// arguments. The CLI shell and the websocket server both drive the bridge
// through a Registry.
package dispatch

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/aktsk/ff7-medit/pkg/errs"
)

var (
	ErrUnknownCommand = errors.New("unknown command")
	ErrBadArguments   = errors.New("bad arguments")
)

// Handler receives the raw JSON arguments of one invocation.
type Handler func(ctx context.Context, args json.RawMessage) (any, error)

type Registry struct {
	mu       sync.RWMutex
	handlers map[string]Handler
}

func NewRegistry() *Registry {
	return &Registry{handlers: make(map[string]Handler)}
}

// Register panics if name is already taken.
func (r *Registry) Register(name string, h Handler) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.handlers[name]; exists {
		panic(fmt.Sprintf("dispatch: command %q registered twice", name))
	}
	r.handlers[name] = h
}

func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.handlers))
	for name := range r.handlers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (r *Registry) Invoke(ctx context.Context, name string, args json.RawMessage) (any, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	h, ok := r.handlers[name]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w %q", ErrUnknownCommand, name)
	}
	return h(ctx, args)
}

// Handle adapts a typed function to a Handler. Missing or null arguments
// leave A at its zero value; unknown keys are rejected.
func Handle[A, R any](fn func(context.Context, A) (R, error)) Handler {
	return func(ctx context.Context, raw json.RawMessage) (any, error) {
		var args A
		if trimmed := bytes.TrimSpace(raw); len(trimmed) > 0 && !bytes.Equal(trimmed, []byte("null")) {
			dec := json.NewDecoder(bytes.NewReader(trimmed))
			dec.DisallowUnknownFields()
			if err := dec.Decode(&args); err != nil {
				return nil, fmt.Errorf("%w: %v", ErrBadArguments, err)
			}
		}
		return fn(ctx, args)
	}
}

// ErrorBody is the wire form of a failed invocation.
type ErrorBody struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

func ErrorOf(err error) *ErrorBody {
	if err == nil {
		return nil
	}
	kind := errs.KindOf(err).String()
	switch {
	case errors.Is(err, ErrUnknownCommand):
		kind = "UnknownCommand"
	case errors.Is(err, ErrBadArguments):
		kind = "BadArguments"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		kind = "Canceled"
	}
	return &ErrorBody{Kind: kind, Message: err.Error()}
}
