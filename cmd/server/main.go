// Command server runs the Storyloom notification backend: the mention
// recording API, email delivery webhooks, and unsubscribe links.
package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"

	"github.com/storyloom/storyloom-backend/internal/app"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := app.Run(ctx); err != nil {
		log.Fatalf("application error: %v", err)
	}
}
