package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/sitetrack/procurement-api/internal/events"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// publishEvents sends events after a committed write. A broker failure never fails the write; it is logged and
// reported back so the caller can add a warning.
func publishEvents(ctx context.Context, publisher events.Publisher, logger *zap.Logger, evts ...events.Event) bool {
	if publisher == nil || len(evts) == 0 {
		return true
	}
	if err := publisher.Publish(context.WithoutCancel(ctx), evts...); err != nil {
		logger.Warn("failed to publish events",
			zap.String("event_type", evts[0].EventType),
			zap.Int("count", len(evts)),
			zap.Error(err),
		)
		return false
	}
	return true
}

// notFound maps gorm's missing-record error onto ErrNotFound
func notFound(err error, what string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%s: %w", what, ErrNotFound)
	}
	return fmt.Errorf("failed to get %s: %w", what, err)
}
