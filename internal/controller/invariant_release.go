//go:build !griddebug

package controller

import "log/slog"

func invariantFailed(log *slog.Logger, msg string, args ...any) {
	log.Error("grid invariant violated", append([]any{"check", msg}, args...)...)
}
