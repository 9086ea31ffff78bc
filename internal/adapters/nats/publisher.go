package natsadapter

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/samirrijal/multimap/internal/core/domain"
)

// Subjects and stream names.
const (
	StreamDescriptors        = "MULTIMAP_DESCRIPTORS"
	SubjectDescriptorsPrefix = "multimap.descriptor."
	SubjectDescriptorsAll    = "multimap.descriptor.>"
)

// DescriptorSubject is the subject a descriptor of instance id is published on.
func DescriptorSubject(id domain.InstanceID) string {
	return SubjectDescriptorsPrefix + sanitizeToken(string(id))
}

// sanitizeToken keeps a subject token free of the separators and wildcards
// NATS interprets.
func sanitizeToken(s string) string {
	if s == "" {
		return "_"
	}
	b := []byte(s)
	for i, c := range b {
		switch c {
		case '.', '*', '>', ' ', '\t', '\r', '\n':
			b[i] = '_'
		}
	}
	return string(b)
}

// Publisher implements ports.EventPublisher using NATS JetStream.
type Publisher struct {
	conn *nats.Conn
	js   nats.JetStreamContext
}

// NewPublisher connects to NATS and enables JetStream.
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

	cfg := &nats.StreamConfig{
		Name:      StreamDescriptors,
		Subjects:  []string{SubjectDescriptorsAll},
		Retention: nats.LimitsPolicy,
		MaxAge:    24 * time.Hour,
		// Only the latest descriptor of each instance matters.
		MaxMsgsPerSubject: 1,
		Storage:           nats.FileStorage,
	}
	if _, err := js.AddStream(cfg); err != nil {
		// Stream may already exist, try update
		if _, err := js.UpdateStream(cfg); err != nil {
			conn.Close()
			return nil, fmt.Errorf("ensure stream %s: %w", cfg.Name, err)
		}
	}

	return &Publisher{conn: conn, js: js}, nil
}

// PublishDescriptorBuilt publishes a built descriptor.
func (p *Publisher) PublishDescriptorBuilt(ctx context.Context, event *domain.DescriptorBuilt) error {
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}
	_, err = p.js.Publish(DescriptorSubject(event.Descriptor.InstanceID), data, nats.Context(ctx))
	return err
}

// Conn exposes the underlying connection (e.g. for health checks).
func (p *Publisher) Conn() *nats.Conn {
	return p.conn
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
