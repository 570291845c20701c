package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/dfryer1193/alttext/media/application"
	"github.com/dfryer1193/alttext/media/domain"
	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog/log"
)

const handleTimeout = 30 * time.Second

var ErrInvalidEvent = errors.New("invalid upload event")

// UploadEvent announces a newly stored attachment
type UploadEvent struct {
	ID int64 `json:"id"`
}

// DecodeUploadEvent parses and validates an upload event payload
func DecodeUploadEvent(data []byte) (UploadEvent, error) {
	var evt UploadEvent
	if err := json.Unmarshal(data, &evt); err != nil {
		return UploadEvent{}, fmt.Errorf("%w: %v", ErrInvalidEvent, err)
	}
	if evt.ID <= 0 {
		return UploadEvent{}, fmt.Errorf("%w: id must be positive, got %d", ErrInvalidEvent, evt.ID)
	}
	return evt, nil
}

// UploadSubscriber runs the on-upload sync for every upload event on a NATS subject
type UploadSubscriber struct {
	nc    *nats.Conn
	sub   *nats.Subscription
	hooks *application.Hooks
}

// NewUploadSubscriber connects to NATS with reconnects enabled
func NewUploadSubscriber(natsURL string, hooks *application.Hooks) (*UploadSubscriber, error) {
	nc, err := nats.Connect(natsURL,
		nats.Name("alttext"),
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(10),
		nats.ReconnectWait(2*time.Second),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			if err != nil {
				log.Warn().Err(err).Msg("NATS disconnected")
			}
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.Info().Str("url", nc.ConnectedUrl()).Msg("NATS reconnected")
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	log.Info().Str("url", natsURL).Msg("Connected to NATS")

	return &UploadSubscriber{
		nc:    nc,
		hooks: hooks,
	}, nil
}

// Subscribe joins the queue group so each event is handled by one replica
func (s *UploadSubscriber) Subscribe(subject, queue string) error {
	sub, err := s.nc.QueueSubscribe(subject, queue, func(msg *nats.Msg) {
		ctx, cancel := context.WithTimeout(context.Background(), handleTimeout)
		defer cancel()

		if err := s.Handle(ctx, msg.Data); err != nil {
			log.Error().Err(err).Str("subject", msg.Subject).Msg("Failed to handle upload event")
		}
	})
	if err != nil {
		return fmt.Errorf("failed to subscribe to %s: %w", subject, err)
	}

	s.sub = sub
	log.Info().Str("subject", subject).Str("queue", queue).Msg("Subscribed to upload events")
	return nil
}

// Handle decodes one payload and runs the on-upload sync for it
func (s *UploadSubscriber) Handle(ctx context.Context, data []byte) error {
	evt, err := DecodeUploadEvent(data)
	if err != nil {
		return err
	}

	outcome, err := s.hooks.OnUpload(ctx, evt.ID)
	if errors.Is(err, domain.ErrImageNotFound) {
		log.Warn().Int64("image_id", evt.ID).Msg("Upload event for unknown image")
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to sync uploaded image %d: %w", evt.ID, err)
	}

	log.Debug().
		Int64("image_id", evt.ID).
		Int("updated", outcome.Updated).
		Int("skipped", outcome.SkippedTotal()).
		Msg("Processed upload event")
	return nil
}

// Close drains the subscription and the connection
func (s *UploadSubscriber) Close() error {
	if s.nc == nil {
		return nil
	}
	if err := s.nc.Drain(); err != nil {
		return fmt.Errorf("failed to drain NATS connection: %w", err)
	}
	return nil
}
