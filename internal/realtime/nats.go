package realtime

import (
	"context"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/planmatch/planmatch/internal/errors"
	"github.com/planmatch/planmatch/internal/telemetry"
)

// NATSTransport implements Transport over a NATS connection.
type NATSTransport struct {
	conn *nats.Conn
}

// NewNATSTransport connects to the push bus. The connection reconnects
// indefinitely; subscriptions survive reconnects.
func NewNATSTransport(url string) (*NATSTransport, error) {
	ctx := telemetry.WithCorrelationID(context.Background(), telemetry.NewCorrelationID())
	logger := telemetry.GetContextualLogger(ctx).WithFields(map[string]interface{}{
		"operation": "nats_connect",
		"url":       url,
	})

	conn, err := nats.Connect(url,
		nats.Name("planmatch"),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				logger.WithError(err).Warn("Push bus disconnected")
			}
		}),
		nats.ReconnectHandler(func(_ *nats.Conn) {
			logger.Info("Push bus reconnected")
		}),
	)
	if err != nil {
		logger.WithError(err).Error("Failed to connect to push bus")
		return nil, errors.NewTransportError("connect", err)
	}

	logger.Info("Connected to push bus")
	return &NATSTransport{conn: conn}, nil
}

// Subscribe registers a handler for a subject.
func (t *NATSTransport) Subscribe(subject string, handler Handler) (Subscription, error) {
	sub, err := t.conn.Subscribe(subject, func(msg *nats.Msg) {
		handler(msg.Data)
	})
	if err != nil {
		return nil, errors.NewTransportError("subscribe", err)
	}
	return sub, nil
}

// Publish sends a payload to a subject.
func (t *NATSTransport) Publish(subject string, data []byte) error {
	if err := t.conn.Publish(subject, data); err != nil {
		return errors.NewTransportError("publish", err)
	}
	return nil
}

// Close drains the connection, letting in-flight handlers finish.
func (t *NATSTransport) Close() {
	if err := t.conn.Drain(); err != nil {
		t.conn.Close()
	}
}
