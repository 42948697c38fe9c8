package broker

import (
	"context"

	"github.com/rs/zerolog"

	"press-subscription/internal/domain/ports/adapter"
	"press-subscription/internal/infra/logging"
)

var _ adapter.EventPublisher = (*NoopPublisher)(nil)

// NoopPublisher logs events at debug level instead of sending them.
// Used when no broker is configured or it is unreachable at startup.
type NoopPublisher struct {
	log *zerolog.Logger
}

func NewNoopPublisher(logger *zerolog.Logger) *NoopPublisher {
	return &NoopPublisher{log: logging.OrNop(logger)}
}

func (p *NoopPublisher) Publish(ctx context.Context, ev adapter.SubscriptionEvent) error {
	p.log.Debug().
		Str("event", ev.Type).
		Str("subscription_id", ev.SubscriptionID).
		Msg("event not published: no broker")
	return nil
}

func (p *NoopPublisher) Close() error { return nil }

// New returns an AMQP publisher when url is set and reachable, otherwise a
// NoopPublisher. Broker trouble never prevents startup.
func New(url, exchange string, logger *zerolog.Logger) adapter.EventPublisher {
	logger = logging.OrNop(logger)
	if url == "" {
		logger.Info().Msg("broker url not set; subscription events disabled")
		return NewNoopPublisher(logger)
	}
	pub, err := NewAMQPPublisher(url, exchange, logger)
	if err != nil {
		logger.Warn().Err(err).Msg("broker unavailable; subscription events disabled")
		return NewNoopPublisher(logger)
	}
	return pub
}
