package main

import (
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/draftworks/batchd/internal/config"
	"github.com/draftworks/batchd/internal/logstream"
	"github.com/draftworks/batchd/internal/logstream/bus"
)

func main() {
	_ = godotenv.Load()

	cfg := config.LoadOrDefault()

	client, err := bus.Connect(cfg.Bus.URL)
	if err != nil {
		log.Fatalf("Failed to connect to %s: %v", cfg.Bus.URL, err)
	}
	defer client.Close()

	events := make(chan logstream.Event, cfg.Logging.QueueSize)
	sub, err := client.SubscribeEvents(cfg.Bus.Subject, func(ev logstream.Event) {
		select {
		case events <- ev:
		default:
			// Listener lagging; the stream is lossy by contract.
		}
	})
	if err != nil {
		log.Fatalf("Failed to subscribe to %s: %v", cfg.Bus.Subject, err)
	}
	defer sub.Unsubscribe()

	log.Printf("Listening for log events on %s (%s)", cfg.Bus.Subject, cfg.Bus.URL)

	stop := make(chan struct{})
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		close(stop)
	}()

	aggregator := logstream.NewAggregator(logstream.NewConsoleSink(os.Stdout))
	aggregator.Listen(events, stop)
	aggregator.Close()
}
