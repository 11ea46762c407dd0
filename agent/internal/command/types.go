package command

import (
	"context"
	"encoding/json"
	"sort"
	"sync"
)

// Handler runs one command. The returned string becomes the ack message.
type Handler interface {
	Handle(ctx context.Context, args json.RawMessage) (string, error)
}

// HandlerFunc adapts a plain function to Handler.
type HandlerFunc func(ctx context.Context, args json.RawMessage) (string, error)

func (f HandlerFunc) Handle(ctx context.Context, args json.RawMessage) (string, error) {
	return f(ctx, args)
}

var (
	mu       sync.RWMutex
	registry = map[string]Handler{}
)

func Register(name string, h Handler) {
	mu.Lock()
	registry[name] = h
	mu.Unlock()
}

func Get(name string) (Handler, bool) {
	mu.RLock()
	h, ok := registry[name]
	mu.RUnlock()
	return h, ok
}

// Names lists the registered commands in order.
func Names() []string {
	mu.RLock()
	out := make([]string, 0, len(registry))
	for n := range registry {
		out = append(out, n)
	}
	mu.RUnlock()
	sort.Strings(out)
	return out
}
