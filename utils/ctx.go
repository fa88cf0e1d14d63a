package utils

import (
	"context"
	"os"
	"os/signal"
	"syscall"
)

// NewCtx returns a context cancelled on SIGINT or SIGTERM, so a long batch
// stops scheduling new jobs.
func NewCtx() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}
