package events

import (
	"errors"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/sirupsen/logrus"

	"eventpal/internal/logs"
)

var messagesProcessedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "messages_processed_total",
	Help: "Total number of messages processed, by result",
}, []string{"result"})

func CorrelationIDMiddleware(next message.HandlerFunc) message.HandlerFunc {
	return func(msg *message.Message) ([]*message.Message, error) {
		correlationID := msg.Metadata.Get("correlation_id")
		if correlationID == "" {
			correlationID = uuid.NewString()
		}

		ctx := logs.ContextWithCorrelationID(msg.Context(), correlationID)
		ctx = logs.ToContext(ctx,
			logrus.WithFields(logrus.Fields{
				"correlation_id": correlationID,
				"message_uuid":   msg.UUID,
			}),
		)
		msg.SetContext(ctx)

		return next(msg)
	}
}

func LoggingMiddleware(next message.HandlerFunc) message.HandlerFunc {
	return func(msg *message.Message) ([]*message.Message, error) {
		logs.FromContext(msg.Context()).
			WithField("metadata", msg.Metadata).
			Info("Handling a message")

		messages, err := next(msg)
		if err != nil {
			messagesProcessedTotal.WithLabelValues("error").Inc()
			logs.FromContext(msg.Context()).
				WithField("payload", string(msg.Payload)).
				WithField("error", err).
				Error("Message handling error")
		} else {
			messagesProcessedTotal.WithLabelValues("ok").Inc()
		}

		return messages, err
	}
}

var ErrJsonUnmarshal = errors.New("json unmarshal error")

// SkipMarshallingErrorsMiddleware drops malformed messages instead of
// retrying them forever.
func SkipMarshallingErrorsMiddleware(h message.HandlerFunc) message.HandlerFunc {
	return func(msg *message.Message) ([]*message.Message, error) {
		msgs, err := h(msg)
		if err != nil && errors.Is(err, ErrJsonUnmarshal) {
			logs.FromContext(msg.Context()).
				WithField("error", err).
				Warn("Error while unmarshalling message")
			return nil, nil
		}

		return msgs, err
	}
}
