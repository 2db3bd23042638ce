package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"

	"siteguard/metrics"
	"siteguard/models"
)

// Event tells subscribers which cached queries a mutation made stale.
type Event struct {
	Type        string            `json:"type"`
	UserID      string            `json:"userId"`
	WorkspaceID string            `json:"workspaceId,omitempty"`
	Keys        []models.QueryKey `json:"keys"`
	At          time.Time         `json:"at"`
}

type EventPublisher interface {
	Publish(ctx context.Context, event Event) error
	Close()
}

// NoopPublisher drops every event.
type NoopPublisher struct{}

func (NoopPublisher) Publish(context.Context, Event) error { return nil }
func (NoopPublisher) Close()                               {}

type NATSOptions struct {
	ConnectTimeout time.Duration
	ReconnectWait  time.Duration
	MaxReconnects  int
}

// NATSPublisher publishes events as JSON on <prefix>.<userID>.
type NATSPublisher struct {
	conn    *nats.Conn
	prefix  string
	metrics *metrics.Metrics
}

func NewNATSPublisher(url, prefix string, opts NATSOptions, m *metrics.Metrics, log *zap.Logger) (*NATSPublisher, error) {
	if opts.ConnectTimeout <= 0 {
		opts.ConnectTimeout = 2 * time.Second
	}
	if opts.ReconnectWait <= 0 {
		opts.ReconnectWait = 2 * time.Second
	}
	if opts.MaxReconnects <= 0 {
		opts.MaxReconnects = 60
	}

	conn, err := nats.Connect(
		url,
		nats.Name("siteguard"),
		nats.Timeout(opts.ConnectTimeout),
		nats.ReconnectWait(opts.ReconnectWait),
		nats.MaxReconnects(opts.MaxReconnects),
		nats.RetryOnFailedConnect(true),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			log.Warn("nats disconnected", zap.Error(err))
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.Info("nats reconnected", zap.String("url", nc.ConnectedUrl()))
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("connect nats: %w", err)
	}
	return &NATSPublisher{conn: conn, prefix: prefix, metrics: m}, nil
}

func (p *NATSPublisher) Subject(userID string) string {
	return p.prefix + "." + userID
}

func (p *NATSPublisher) Publish(_ context.Context, event Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encode event: %w", err)
	}
	if err := p.conn.Publish(p.Subject(event.UserID), payload); err != nil {
		p.metrics.ObserveEvent(event.Type, "error")
		return fmt.Errorf("nats publish: %w", err)
	}
	p.metrics.ObserveEvent(event.Type, "ok")
	return nil
}

func (p *NATSPublisher) Close() {
	if p.conn != nil {
		_ = p.conn.Drain()
	}
}
