package cmd

import (
	"fmt"
	"log/slog"

	"github.com/ThreeDotsLabs/watermill"

	"github.com/praxisflow/praxis/pkg/channels/kafka"
	"github.com/praxisflow/praxis/pkg/eventbus"
)

// NewEventBus builds the lifecycle event bus. An empty provider disables
// publishing, which keeps single-node deployments free of a Kafka dependency.
func NewEventBus(provider string, logger *slog.Logger) (eventbus.EventBus, error) {
	switch provider {
	case "kafka":
		pub, err := kafka.NewPublisher(watermill.NewSlogLogger(logger))
		if err != nil {
			return nil, fmt.Errorf("failed to create Kafka publisher: %w", err)
		}

		return eventbus.NewWatermillEventBus(pub), nil
	case "", "none":
		return eventbus.NoopEventBus{}, nil
	default:
		return nil, fmt.Errorf("unsupported event bus provider: %s", provider)
	}
}
