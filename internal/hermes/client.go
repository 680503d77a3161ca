package hermes

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"
)

const (
	// SubjectTranscriptSubmitted carries transcripts to analyse.
	SubjectTranscriptSubmitted = "minutes.transcript.submitted"
	SubjectAnalysisCompleted   = "minutes.analysis.completed"
	SubjectAnalysisFailed      = "minutes.analysis.failed"
)

// TranscriptSubmitted is the payload on SubjectTranscriptSubmitted.
type TranscriptSubmitted struct {
	Transcript string `json:"transcript"`
	Source     string `json:"source,omitempty"`
}

// AnalysisEvent is published once per finished analysis. Outcome holds the
// result envelope.
type AnalysisEvent struct {
	AnalysisID  string `json:"analysis_id"`
	Source      string `json:"source"`
	Succeeded   bool   `json:"succeeded"`
	MeetingType string `json:"meeting_type,omitempty"`
	Outcome     any    `json:"outcome"`
}

type Client struct {
	conn   *nats.Conn
	subs   []*nats.Subscription
	logger *slog.Logger
}

func NewClient(ctx context.Context, url, token string, logger *slog.Logger) (*Client, error) {
	opts := []nats.Option{
		nats.Name("minutes"),
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(60),
		nats.ReconnectWait(2 * time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				logger.Warn("nats disconnected", "error", err)
			}
		}),
		nats.ReconnectHandler(func(_ *nats.Conn) {
			logger.Info("nats reconnected")
		}),
	}
	if token != "" {
		opts = append(opts, nats.Token(token))
	}

	nc, err := nats.Connect(url, opts...)
	if err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}

	return &Client{conn: nc, logger: logger}, nil
}

func (c *Client) Publish(subject string, data any) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}
	return c.conn.Publish(subject, payload)
}

// Subscribe joins a queue group so several minutes instances share the
// submitted transcripts instead of each analysing every one.
func (c *Client) Subscribe(subject, queue string, handler func(subject string, data []byte)) error {
	sub, err := c.conn.QueueSubscribe(subject, queue, func(msg *nats.Msg) {
		handler(msg.Subject, msg.Data)
	})
	if err != nil {
		return fmt.Errorf("subscribe %s: %w", subject, err)
	}
	c.subs = append(c.subs, sub)
	c.logger.Info("subscribed", "subject", subject, "queue", queue)
	return nil
}

func (c *Client) Close() {
	for _, sub := range c.subs {
		_ = sub.Unsubscribe()
	}
	c.conn.Close()
}
