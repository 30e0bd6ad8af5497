//go:build griddebug

package controller

import (
	"fmt"
	"log/slog"
)

func invariantFailed(log *slog.Logger, msg string, args ...any) {
	log.Error("grid invariant violated", append([]any{"check", msg}, args...)...)
	panic(fmt.Sprintf("grid invariant violated: %s %v", msg, args))
}
