package natsadapter

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/samirrijal/elevprofile/internal/core/domain"
)

// Subjects carried by the PROFILES stream.
const (
	SubjectComputedPrefix  = "profiles.computed."
	SubjectRequestedPrefix = "profiles.requested."
	SubjectComputedAll     = "profiles.computed.>"
	SubjectRequestedAll    = "profiles.requested.>"
)

// Publisher implements ports.EventPublisher using NATS JetStream.
type Publisher struct {
	conn *nats.Conn
	js   nats.JetStreamContext
}

// NewPublisher connects to NATS and ensures the profile streams exist.
func NewPublisher(url string) (*Publisher, error) {
	conn, err := RawConn(url)
	if err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}

	js, err := conn.JetStream()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("jetstream: %w", err)
	}
	if err := EnsureStreams(js); err != nil {
		conn.Close()
		return nil, err
	}

	return &Publisher{conn: conn, js: js}, nil
}

// EnsureStreams creates or updates the streams used for profile events.
func EnsureStreams(js nats.JetStreamContext) error {
	streams := []nats.StreamConfig{
		{
			Name:      "PROFILE_JOBS",
			Subjects:  []string{SubjectRequestedAll},
			Retention: nats.WorkQueuePolicy,
			MaxAge:    24 * time.Hour,
			Storage:   nats.FileStorage,
		},
		{
			Name:      "PROFILE_EVENTS",
			Subjects:  []string{SubjectComputedAll},
			Retention: nats.InterestPolicy,
			MaxAge:    24 * time.Hour,
			Storage:   nats.FileStorage,
		},
	}

	for _, cfg := range streams {
		if _, err := js.AddStream(&cfg); err != nil {
			// Stream may already exist, try update
			if _, err := js.UpdateStream(&cfg); err != nil {
				return fmt.Errorf("ensure stream %s: %w", cfg.Name, err)
			}
		}
	}
	return nil
}

func (p *Publisher) PublishProfileComputed(ctx context.Context, summary domain.ProfileSummary) error {
	data, err := json.Marshal(summary)
	if err != nil {
		return err
	}
	_, err = p.js.Publish(SubjectComputedPrefix+summary.ID, data, nats.Context(ctx))
	return err
}

func (p *Publisher) PublishProfileRequested(ctx context.Context, job domain.ProfileJob) error {
	data, err := json.Marshal(job)
	if err != nil {
		return err
	}
	_, err = p.js.Publish(SubjectRequestedPrefix+job.ID, data, nats.Context(ctx), nats.MsgId(job.ID))
	return err
}

// Close drains and closes the connection.
func (p *Publisher) Close() {
	_ = p.conn.Drain()
}

// RawConn creates a plain NATS connection for subscribing (e.g. WebSocket relay).
func RawConn(url string) (*nats.Conn, error) {
	return nats.Connect(url,
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
	)
}
