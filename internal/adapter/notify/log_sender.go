package notify

import (
	"context"

	"retail-banking-core/config"
	"retail-banking-core/internal/core/domain"
	"retail-banking-core/internal/core/ports"

	"github.com/rs/zerolog"
)

// LogSender writes notifications to the log instead of a broker. It is used
// when no broker is configured or the broker cannot be reached at start-up.
type LogSender struct {
	log zerolog.Logger
}

// NewLogSender creates a sender that only logs.
func NewLogSender(log zerolog.Logger) *LogSender {
	return &LogSender{log: log.With().Str("component", "notify").Logger()}
}

func (s *LogSender) Notify(_ context.Context, kind domain.NotificationKind, recipient string, data map[string]string) error {
	ev := s.log.Info().
		Str("kind", string(kind)).
		Str("recipient", recipient)
	for k, v := range data {
		if k == "otp" {
			v = "******"
		}
		ev = ev.Str(k, v)
	}
	ev.Msg("Notification (log only)")
	return nil
}

// NewSender returns an AMQP publisher when cfg.URL is set and reachable,
// and a LogSender otherwise. The returned close func is never nil.
func NewSender(cfg config.AMQPConfig, log zerolog.Logger) (ports.NotificationSender, func()) {
	if cfg.URL == "" {
		log.Warn().Msg("AMQP URL not set, notifications will only be logged")
		return NewLogSender(log), func() {}
	}

	p, err := NewPublisher(cfg, log)
	if err != nil {
		log.Warn().Err(err).Msg("AMQP broker unavailable, notifications will only be logged")
		return NewLogSender(log), func() {}
	}

	log.Info().Str("exchange", cfg.Exchange).Msg("AMQP notification publisher ready")
	return p, p.Close
}
