package grace

import (
	"context"
	"errors"
	"log"
	"os/signal"
	"syscall"
)

func ExitOrLog(err error) {
	if err != nil && !errors.Is(err, context.Canceled) {
		log.Fatal(err)
	}
}

// SetupSignalHandler returns a context cancelled on SIGINT / SIGTERM
func SetupSignalHandler() context.Context {
	ctx, _ := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	return ctx
}
