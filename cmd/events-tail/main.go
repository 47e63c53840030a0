// Command events-tail prints the exam session events published to Kafka.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/MuhammadsolihGofurov/404online.uz-sub002/internal/config"
	"github.com/MuhammadsolihGofurov/404online.uz-sub002/internal/events"
	"github.com/MuhammadsolihGofurov/404online.uz-sub002/internal/utils"
)

func main() {
	group := flag.String("group", "events-tail", "Kafka consumer group")
	only := flag.String("type", "", "print only events of this type, e.g. answers.unresolved")
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		slog.Error("Failed to load config", "error", err)
		os.Exit(1)
	}
	logger := utils.NewLogger(cfg.Environment, os.Stderr)

	subscriber, err := events.NewKafkaEventSubscriber(events.SubscriberConfig{
		KafkaBrokers:  cfg.Events.GetKafkaBrokers(),
		ConsumerGroup: *group,
		Logger:        logger.Slog(),
	})
	if err != nil {
		logger.LogError(err, "Failed to create subscriber")
		os.Exit(1)
	}
	defer subscriber.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	messages, err := subscriber.Subscribe(ctx, cfg.Events.Topic)
	if err != nil {
		logger.LogError(err, "Failed to subscribe", "topic", cfg.Events.Topic)
		os.Exit(1)
	}
	logger.Info("Tailing exam events", "topic", cfg.Events.Topic, "brokers", cfg.Events.KafkaBrokers)

	for msg := range messages {
		event, data, err := events.DecodeEvent(msg)
		if err != nil {
			logger.Warn("Skipping undecodable message", "error", err)
			msg.Ack()
			continue
		}
		if *only == "" || string(event.Type) == *only {
			fmt.Printf("%s %-22s %s\n", event.Timestamp.Format("15:04:05"), event.Type, data)
		}
		msg.Ack()
	}
}
