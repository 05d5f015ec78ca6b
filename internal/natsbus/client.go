package natsbus

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog/log"
	"github.com/vmihailenco/msgpack/v5"

	"orgauth-backend/internal/metrics"
	"orgauth-backend/internal/models"
)

// SubjectPrefix is prepended to the event type to form the publish subject.
const SubjectPrefix = "orgauth.events."

type Config struct {
	URL      string
	UserJWT  string
	UserSeed string
	Stream   string
}

// Client publishes domain events to a JetStream stream.
type Client struct {
	nc     *nats.Conn
	js     nats.JetStreamContext
	stream string
}

// Connect establishes the NATS connection and makes sure the event stream
// exists.
func Connect(cfg Config) (*Client, error) {
	url := cfg.URL
	if url == "" {
		url = nats.DefaultURL
	}

	opts := []nats.Option{
		nats.Name("orgauth-backend"),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(1 * time.Second),
		nats.ReconnectJitter(500*time.Millisecond, 2*time.Second),
		nats.ReconnectBufSize(8 * 1024 * 1024),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			log.Warn().Err(err).Msg("NATS disconnected")
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.Info().Str("url", nc.ConnectedUrl()).Msg("NATS reconnected")
		}),
		nats.ClosedHandler(func(nc *nats.Conn) {
			log.Info().Msg("NATS connection closed")
		}),
		nats.ErrorHandler(func(nc *nats.Conn, sub *nats.Subscription, err error) {
			log.Error().Err(err).Msg("NATS error")
		}),
	}

	creds, err := credentialOptions(cfg.UserJWT, cfg.UserSeed)
	if err != nil {
		return nil, err
	}
	opts = append(opts, creds...)

	nc, err := nats.Connect(url, opts...)
	if err != nil {
		return nil, fmt.Errorf("connect to NATS: %w", err)
	}
	log.Info().Str("url", nc.ConnectedUrl()).Msg("connected to NATS")

	js, err := nc.JetStream()
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("create JetStream context: %w", err)
	}

	if err := ensureStream(js, cfg.Stream); err != nil {
		nc.Close()
		return nil, fmt.Errorf("ensure stream: %w", err)
	}

	return &Client{nc: nc, js: js, stream: cfg.Stream}, nil
}

// Close drains and closes the NATS connection.
func (c *Client) Close() error {
	return c.nc.Drain()
}

// Publish sends evt to its subject. The event id is used as the JetStream
// message id so redelivered publishes are deduplicated.
func (c *Client) Publish(ctx context.Context, evt models.Event) error {
	data, err := Encode(evt)
	if err != nil {
		metrics.EventsPublishedTotal.WithLabelValues(evt.Type, "error").Inc()
		return err
	}

	if _, err := c.js.Publish(Subject(evt.Type), data, nats.MsgId(evt.ID), nats.Context(ctx)); err != nil {
		metrics.EventsPublishedTotal.WithLabelValues(evt.Type, "error").Inc()
		return fmt.Errorf("publish %s: %w", evt.Type, err)
	}

	metrics.EventsPublishedTotal.WithLabelValues(evt.Type, "ok").Inc()
	return nil
}

func Subject(eventType string) string {
	return SubjectPrefix + eventType
}

func Encode(evt models.Event) ([]byte, error) {
	data, err := msgpack.Marshal(&evt)
	if err != nil {
		return nil, fmt.Errorf("encode event: %w", err)
	}
	return data, nil
}

func ensureStream(js nats.JetStreamContext, name string) error {
	_, err := js.StreamInfo(name)
	if errors.Is(err, nats.ErrStreamNotFound) {
		_, err = js.AddStream(&nats.StreamConfig{
			Name:       name,
			Subjects:   []string{SubjectPrefix + ">"},
			Retention:  nats.LimitsPolicy,
			MaxAge:     7 * 24 * time.Hour,
			MaxMsgSize: 64 * 1024,
			Discard:    nats.DiscardOld,
			Storage:    nats.FileStorage,
			Duplicates: 2 * time.Minute,
		})
		if err != nil {
			return fmt.Errorf("create stream %s: %w", name, err)
		}
		log.Info().Str("stream", name).Msg("created JetStream stream")
	} else if err != nil {
		return fmt.Errorf("get stream info: %w", err)
	}
	return nil
}
