// Package outbox stores outgoing events in postgres within the business
// transaction and forwards them to the redis stream afterwards. An order and
// its TicketOrderCompleted event either both commit or neither does.
package outbox

import (
	"fmt"

	"github.com/ThreeDotsLabs/watermill"
	watermillSQL "github.com/ThreeDotsLabs/watermill-sql/v2/pkg/sql"
	"github.com/ThreeDotsLabs/watermill/components/forwarder"
	"github.com/ThreeDotsLabs/watermill/message"

	"eventpal/internal/observability"
)

// Topic is the postgres staging topic the forwarder drains. Forwarded
// messages carry their destination topic in the envelope.
const Topic = "events_to_forward"

// NewPublisher returns a publisher that writes events into the outbox table
// using the given transaction executor.
func NewPublisher(
	tx watermillSQL.ContextExecutor,
	logger watermill.LoggerAdapter,
) (message.Publisher, error) {
	publisher, err := watermillSQL.NewPublisher(
		tx,
		watermillSQL.PublisherConfig{
			SchemaAdapter: watermillSQL.DefaultPostgreSQLSchema{},
		},
		logger,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create publisher: %w", err)
	}

	tracingPublisher := observability.PublisherWithTracing{Publisher: publisher}

	return forwarder.NewPublisher(tracingPublisher, forwarder.PublisherConfig{
		ForwarderTopic: Topic,
	}), nil
}
