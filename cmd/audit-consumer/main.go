package main

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/iliyamo/school-portal/internal/config"
	"github.com/iliyamo/school-portal/internal/queue"
)

func main() {
	cfg := config.LoadConsumer()
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	c := &queue.Consumer{URL: cfg.AMQPURL, LogPath: cfg.LogPath}
	log.Printf("audit-consumer: draining %s", queue.AccessQueueName)
	if err := c.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		log.Fatal(err)
	}
}
