// Package event_publisher decorates message publishers with cross-cutting
// metadata.
package event_publisher

import (
	"github.com/ThreeDotsLabs/watermill/message"

	"eventpal/internal/logs"
)

// CorrelationPublisherDecorator stamps every outgoing message with the
// correlation id carried in its context.
type CorrelationPublisherDecorator struct {
	message.Publisher
}

func (c CorrelationPublisherDecorator) Publish(topic string, messages ...*message.Message) error {
	for _, msg := range messages {
		msg.Metadata.Set("correlation_id", logs.CorrelationIDFromContext(msg.Context()))
	}
	return c.Publisher.Publish(topic, messages...)
}
