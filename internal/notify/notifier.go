package notify

import (
	"context"
	"encoding/json"

	"github.com/rs/zerolog/log"

	"github.com/famquest/family-server-go/internal/database"
	"github.com/famquest/family-server-go/internal/model"
	redisclient "github.com/famquest/family-server-go/internal/redis"
	"github.com/famquest/family-server-go/internal/repository"
)

// Event is a domain notification raised after a state change commits.
type Event struct {
	Type     model.NotificationType
	FamilyID string
	ToUserID *string
	Payload  map[string]any
}

// Sink receives events after commit. Delivery is best-effort: a failing sink
// must never roll back or fail the operation that raised the event.
type Sink interface {
	Notify(ctx context.Context, event Event)
}

// Notifier persists a notification row and fans the event out on the family's
// Redis channel.
type Notifier struct {
	notifications repository.NotificationRepository
	redis         *redisclient.Client
}

func New(db database.DBTX, redis *redisclient.Client) *Notifier {
	return &Notifier{
		notifications: repository.NewNotificationRepository(db),
		redis:         redis,
	}
}

func (n *Notifier) Notify(ctx context.Context, event Event) {
	payload, err := json.Marshal(event.Payload)
	if err != nil {
		log.Error().Err(err).Str("type", string(event.Type)).Msg("notify: marshal payload")
		return
	}

	row, err := n.notifications.Create(ctx, model.CreateNotificationParams{
		FamilyID: event.FamilyID,
		ToUserID: event.ToUserID,
		NType:    event.Type,
		Payload:  payload,
	})
	if err != nil {
		log.Error().Err(err).Str("type", string(event.Type)).Msg("notify: persist notification")
		return
	}

	data, err := json.Marshal(row)
	if err != nil {
		log.Error().Err(err).Str("type", string(event.Type)).Msg("notify: marshal notification")
		return
	}

	channel := redisclient.FamilyChannel(event.FamilyID)
	if err := n.redis.Publish(ctx, channel, data).Err(); err != nil {
		log.Warn().Err(err).Str("channel", channel).Msg("notify: publish failed")
	}
}

// Noop discards every event. Useful in tests and tooling.
type Noop struct{}

func (Noop) Notify(context.Context, Event) {}
