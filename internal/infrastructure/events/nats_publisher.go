package events

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"github.com/nats-io/nats.go"

	"github.com/artefactual/fixity/internal/errs"
	"github.com/artefactual/fixity/internal/ports"
)

// NATSPublisher publishes one JSON message per finished scan on subject.
type NATSPublisher struct {
	conn    *nats.Conn
	subject string
}

var _ ports.EventPublisher = (*NATSPublisher)(nil)

func NewNATSPublisher(url string, subject string) (*NATSPublisher, error) {
	if strings.TrimSpace(subject) == "" {
		return nil, errors.New("subject is required")
	}

	conn, err := nats.Connect(url, nats.Name("fixity"))
	if err != nil {
		return nil, errs.Wrap(err, "connect nats")
	}
	return &NATSPublisher{conn: conn, subject: subject}, nil
}

func (p *NATSPublisher) PublishScan(ctx context.Context, event ports.ScanEvent) error {
	if ctx == nil {
		return errors.New("context is required")
	}
	if err := ctx.Err(); err != nil {
		return errs.Wrap(err, "check context")
	}

	payload, err := Encode(event)
	if err != nil {
		return err
	}
	if err := p.conn.Publish(p.subject, payload); err != nil {
		return errs.Wrapf(err, "publish to %s", p.subject)
	}
	return nil
}

// Close flushes pending messages before closing the connection.
func (p *NATSPublisher) Close() error {
	return p.conn.Drain()
}

func Encode(event ports.ScanEvent) ([]byte, error) {
	payload, err := json.Marshal(event)
	if err != nil {
		return nil, errs.Wrap(err, "marshal scan event")
	}
	return payload, nil
}

// NoopPublisher drops every event. It is used when no NATS url is set.
type NoopPublisher struct{}

var _ ports.EventPublisher = NoopPublisher{}

func (NoopPublisher) PublishScan(context.Context, ports.ScanEvent) error { return nil }
