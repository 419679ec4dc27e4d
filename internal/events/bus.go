// Kitsubridge - Kitsu to AYON Production Tracking Sync Bridge
// Copyright 2026 Studiopipe
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/studiopipe/kitsubridge

/*
bus.go - Domain Event Bus

The bridge publishes a domain event after every entity mutation so that
downstream services (sync workers, webhooks, dashboards) can react
without polling the entity store.

Transports:
  - In-process (default): Watermill GoChannel pub/sub. Suitable for a
    single-process deployment where consumers run in the same binary.
  - NATS JetStream (optional): Watermill NATS publisher with automatic
    reconnection, for multi-process deployments. The JetStream stream is
    auto-provisioned under the configured stream name.

Both transports are wrapped by the spool (spool.go) which buffers events
in Badger when the transport is unavailable.
*/

//nolint:staticcheck // File documentation, not package doc
package events

import (
	"context"
	"fmt"
	"sync"
	"time"

	wmNats "github.com/ThreeDotsLabs/watermill-nats/v2/pkg/nats"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	natsgo "github.com/nats-io/nats.go"

	"github.com/studiopipe/kitsubridge/internal/config"
	"github.com/studiopipe/kitsubridge/internal/logging"
	"github.com/studiopipe/kitsubridge/internal/metrics"
)

// Bus publishes domain events to a transport.
type Bus interface {
	Publish(ctx context.Context, e Event) error
	Close() error
}

// Subscriber is implemented by transports that also deliver events to
// in-process consumers.
type Subscriber interface {
	Subscribe(ctx context.Context, topic string) (<-chan *message.Message, error)
}

// New builds the configured transport wrapped in the durable spool.
func New(cfg *config.EventsConfig) (Bus, error) {
	var inner Bus
	var err error
	if cfg.NATSEnabled {
		inner, err = NewNATSBus(cfg)
	} else {
		inner = NewGoChannelBus()
	}
	if err != nil {
		return nil, err
	}

	if cfg.SpoolPath == "" {
		return inner, nil
	}
	return NewSpoolingBus(inner, cfg.SpoolPath)
}

// GoChannelBus is the in-process transport.
type GoChannelBus struct {
	pubsub *gochannel.GoChannel
}

// NewGoChannelBus creates an in-process event bus.
func NewGoChannelBus() *GoChannelBus {
	return &GoChannelBus{
		pubsub: gochannel.NewGoChannel(gochannel.Config{
			OutputChannelBuffer: 256,
		}, NewWatermillLogger()),
	}
}

func (b *GoChannelBus) Publish(ctx context.Context, e Event) error {
	msg, err := toMessage(e)
	if err != nil {
		return err
	}
	if err := b.pubsub.Publish(e.Topic, msg); err != nil {
		metrics.EventsPublishErrors.Inc()
		return fmt.Errorf("failed to publish %s: %w", e.Topic, err)
	}
	metrics.RecordEventPublished(e.Topic)
	return nil
}

// Subscribe delivers messages for a topic to in-process consumers.
func (b *GoChannelBus) Subscribe(ctx context.Context, topic string) (<-chan *message.Message, error) {
	return b.pubsub.Subscribe(ctx, topic)
}

func (b *GoChannelBus) Close() error {
	return b.pubsub.Close()
}

// NATSBus publishes events to NATS JetStream.
type NATSBus struct {
	publisher message.Publisher

	mu     sync.Mutex
	closed bool
}

// NewNATSBus creates a JetStream-backed event bus with reconnection
// handling.
func NewNATSBus(cfg *config.EventsConfig) (*NATSBus, error) {
	logger := NewWatermillLogger()

	natsOpts := []natsgo.Option{
		natsgo.RetryOnFailedConnect(true),
		natsgo.MaxReconnects(-1),
		natsgo.ReconnectWait(2 * time.Second),
		natsgo.DisconnectErrHandler(func(nc *natsgo.Conn, err error) {
			if err != nil {
				logging.Warn().Err(err).Msg("NATS disconnected")
			}
		}),
		natsgo.ReconnectHandler(func(nc *natsgo.Conn) {
			logging.Info().Str("url", nc.ConnectedUrl()).Msg("NATS reconnected")
		}),
	}

	pub, err := wmNats.NewPublisher(wmNats.PublisherConfig{
		URL:         cfg.NATSURL,
		NatsOptions: natsOpts,
		Marshaler:   &wmNats.NATSMarshaler{},
		JetStream: wmNats.JetStreamConfig{
			Disabled:      false,
			AutoProvision: true,
			TrackMsgId:    true,
			PublishOptions: []natsgo.PubOpt{
				natsgo.RetryAttempts(3),
				natsgo.RetryWait(100 * time.Millisecond),
			},
		},
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create NATS publisher: %w", err)
	}

	return &NATSBus{publisher: pub}, nil
}

func (b *NATSBus) Publish(ctx context.Context, e Event) error {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return fmt.Errorf("event bus is closed")
	}
	b.mu.Unlock()

	msg, err := toMessage(e)
	if err != nil {
		return err
	}
	// Message UUID doubles as the JetStream dedup ID.
	msg.Metadata.Set(natsgo.MsgIdHdr, msg.UUID)

	if err := b.publisher.Publish(e.Topic, msg); err != nil {
		metrics.EventsPublishErrors.Inc()
		return fmt.Errorf("failed to publish %s: %w", e.Topic, err)
	}
	metrics.RecordEventPublished(e.Topic)
	return nil
}

func (b *NATSBus) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil
	}
	b.closed = true
	return b.publisher.Close()
}

func toMessage(e Event) (*message.Message, error) {
	payload, err := e.Marshal()
	if err != nil {
		return nil, fmt.Errorf("failed to marshal event: %w", err)
	}
	msg := message.NewMessage(e.ID, payload)
	msg.Metadata.Set("topic", e.Topic)
	if e.Project != "" {
		msg.Metadata.Set("project", e.Project)
	}
	return msg, nil
}
