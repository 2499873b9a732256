package worker

import (
	"encoding/json"
	"fmt"

	"github.com/streadway/amqp"
	"go.uber.org/zap"

	"guestbook/internal/messaging"
	"guestbook/internal/metrics"
)

// EntryFeed handles entry.created events: it tracks the newest entry and logs
// the activity feed.
func EntryFeed(logger *zap.Logger) HandleFunc {
	return func(msg amqp.Delivery) error {
		var evt messaging.EntryCreated
		if err := json.Unmarshal(msg.Body, &evt); err != nil {
			return fmt.Errorf("decode entry event: %w", err)
		}
		if evt.Name == "" || evt.CreatedAt.IsZero() {
			return fmt.Errorf("incomplete entry event %s", evt.ID)
		}

		metrics.FeedLastEntry.Set(float64(evt.CreatedAt.Unix()))
		logger.Info("new guestbook entry",
			zap.Stringer("id", evt.ID),
			zap.String("name", evt.Name),
			zap.Int("length", len([]rune(evt.Message))),
			zap.Time("created_at", evt.CreatedAt),
		)
		return nil
	}
}
