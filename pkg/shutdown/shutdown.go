package shutdown

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"chatdb/pkg/logger"
)

// Abort logs a fatal startup failure and exits after a short delay so logs
// have time to flush.
func Abort(contextMsg string, err error) {
	logger.Error("startup_fatal", "msg", contextMsg, "error", err)
	time.Sleep(500 * time.Millisecond)
	os.Exit(2)
}

// Notify returns a context canceled on SIGINT/SIGTERM, plus its stop func.
func Notify(parent context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}
