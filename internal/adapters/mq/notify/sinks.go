package notify

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/nats-io/nats.go"

	"github.com/gigmatch/gigmatch/pkg/logger"
)

// LogSink writes notifications to the structured log. Default wiring when no
// broker is configured.
type LogSink struct {
	logger logger.Logger
}

// NewLogSink creates a LogSink. A nil logger falls back to the global one at
// first delivery.
func NewLogSink(l logger.Logger) *LogSink {
	return &LogSink{logger: l}
}

// Deliver implements Sink.
func (s *LogSink) Deliver(ctx context.Context, n Notification) error {
	if s.logger == nil {
		s.logger = logger.Get().Named("notify")
	}
	s.logger.Info(ctx, "notification",
		logger.String("user_id", n.UserID),
		logger.String("type", n.Type),
		logger.Any("payload", n.Payload),
	)
	return nil
}

// NATSSink publishes notifications as JSON onto a NATS subject per user,
// e.g. gigmatch.notifications.<userID>.
type NATSSink struct {
	conn          *nats.Conn
	subjectPrefix string
}

// NewNATSSink connects to the NATS server at url.
func NewNATSSink(url, subjectPrefix string) (*NATSSink, error) {
	conn, err := nats.Connect(url, nats.Name("gigmatch-notify"))
	if err != nil {
		return nil, fmt.Errorf("connect nats: %w", err)
	}
	if subjectPrefix == "" {
		subjectPrefix = "gigmatch.notifications"
	}
	return &NATSSink{conn: conn, subjectPrefix: subjectPrefix}, nil
}

// Deliver implements Sink.
func (s *NATSSink) Deliver(_ context.Context, n Notification) error {
	data, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("marshal notification: %w", err)
	}
	subject := s.subjectPrefix + "." + n.UserID
	if err := s.conn.Publish(subject, data); err != nil {
		return fmt.Errorf("publish %s: %w", subject, err)
	}
	return nil
}

// Close drains and closes the NATS connection.
func (s *NATSSink) Close() {
	if s.conn != nil {
		s.conn.Close()
	}
}
