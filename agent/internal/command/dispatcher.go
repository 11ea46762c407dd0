package command

import (
	"context"
	"encoding/json"
	"fmt"
	"unicode/utf8"

	"fleetpulse/agent/internal/logger"
)

// MaxMessageLen matches the server's limit on ack messages.
const MaxMessageLen = 1024

// Dispatch runs the named command and reduces the outcome to what an ack
// carries. Unknown commands and handler panics are failures, not crashes.
func Dispatch(ctx context.Context, name string, args json.RawMessage) (success bool, message string) {
	h, ok := Get(name)
	if !ok {
		logger.Warnf("unknown command %q", name)
		return false, fmt.Sprintf("unknown command %q", name)
	}
	defer func() {
		if r := recover(); r != nil {
			logger.Errorf("command %s panicked: %v", name, r)
			success, message = false, truncate(fmt.Sprintf("panic: %v", r))
		}
	}()

	out, err := h.Handle(ctx, args)
	if err != nil {
		logger.Errorf("command %s failed: %v", name, err)
		return false, truncate(err.Error())
	}
	logger.Infof("command %s completed", name)
	return true, truncate(out)
}

func truncate(s string) string {
	if utf8.RuneCountInString(s) <= MaxMessageLen {
		return s
	}
	r := []rune(s)
	return string(r[:MaxMessageLen])
}
