// Package eventbus provides event-driven communication infrastructure for
// workflow authoring notifications.
package eventbus

import (
	"context"

	"github.com/praxisflow/praxis/pkg/events"
)

type Event interface {
	GetType() events.EventType
}

type EventPublisher interface {
	Publish(ctx context.Context, key string, event Event) error
}

type EventBus interface {
	EventPublisher
	Close() error
	GenerateID() string
}

// NoopEventBus drops every event. Used when no broker is configured.
type NoopEventBus struct{}

func (NoopEventBus) Publish(context.Context, string, Event) error {
	return nil
}

func (NoopEventBus) Close() error {
	return nil
}

func (NoopEventBus) GenerateID() string {
	return ""
}
