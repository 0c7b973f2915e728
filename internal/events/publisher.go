package events

import (
	"context"
	"encoding/json"
	"time"

	"go.uber.org/zap"

	"dalada-backend/internal/client"
	"dalada-backend/internal/util"
)

const (
	TypeOTPSent        = "otp.sent"
	TypeOTPVerified    = "otp.verified"
	TypeUserRegistered = "user.registered"
	TypeUserLogin      = "user.login"
)

// Event is one auth-flow occurrence written to the event stream. Identifiers
// are already normalized; plaintext codes never appear here.
type Event struct {
	Type       string    `json:"type"`
	Identifier string    `json:"identifier,omitempty"`
	UserID     string    `json:"user_id,omitempty"`
	Role       string    `json:"role,omitempty"`
	Intent     string    `json:"intent,omitempty"`
	Provider   string    `json:"provider,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

// Publisher writes auth events to Kafka. All publishes are best-effort: a
// broker failure is logged and swallowed so it can never fail a request.
type Publisher struct {
	producer *client.KafkaProducer
	logger   *zap.Logger
}

// NewPublisher returns a publisher; producer may be nil when Kafka is not
// configured, in which case Publish is a no-op.
func NewPublisher(producer *client.KafkaProducer, logger *zap.Logger) *Publisher {
	return &Publisher{producer: producer, logger: logger}
}

func (p *Publisher) Publish(ctx context.Context, event Event) {
	if p.producer == nil {
		return
	}
	event.OccurredAt = time.Now().UTC()

	payload, err := json.Marshal(event)
	if err != nil {
		p.logger.Error("Failed to marshal auth event",
			util.String("type", event.Type),
			util.ErrorField(err))
		return
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	key := event.UserID
	if key == "" {
		key = event.Identifier
	}
	if err := p.producer.WriteMessage(ctx, []byte(key), payload); err != nil {
		p.logger.Warn("Failed to publish auth event",
			util.String("type", event.Type),
			util.ErrorField(err))
		return
	}

	p.logger.Debug("Auth event published", util.String("type", event.Type))
}
