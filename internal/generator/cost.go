package generator

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// SpendStore reports how much has been spent on generation since a time.
type SpendStore interface {
	GenerationCostSince(ctx context.Context, since time.Time) (float64, error)
}

// CostTracker enforces daily and monthly spend limits across all users.
// A zero limit disables that check.
type CostTracker struct {
	store        SpendStore
	dailyLimit   float64
	monthlyLimit float64
	logger       *slog.Logger
}

func NewCostTracker(store SpendStore, dailyLimit, monthlyLimit float64, logger *slog.Logger) *CostTracker {
	if logger == nil {
		logger = slog.Default()
	}
	return &CostTracker{store: store, dailyLimit: dailyLimit, monthlyLimit: monthlyLimit, logger: logger}
}

// Check returns ErrBudgetExceeded when either limit has been reached at now.
func (c *CostTracker) Check(ctx context.Context, now time.Time) error {
	day, month := periodStarts(now)

	if c.dailyLimit > 0 {
		spent, err := c.store.GenerationCostSince(ctx, day)
		if err != nil {
			return fmt.Errorf("failed to read daily spend: %w", err)
		}
		if spent >= c.dailyLimit {
			c.logger.Warn("daily generation cost limit reached", "spent_usd", spent, "limit_usd", c.dailyLimit)
			return ErrBudgetExceeded
		}
	}
	if c.monthlyLimit > 0 {
		spent, err := c.store.GenerationCostSince(ctx, month)
		if err != nil {
			return fmt.Errorf("failed to read monthly spend: %w", err)
		}
		if spent >= c.monthlyLimit {
			c.logger.Warn("monthly generation cost limit reached", "spent_usd", spent, "limit_usd", c.monthlyLimit)
			return ErrBudgetExceeded
		}
	}
	return nil
}

func periodStarts(now time.Time) (day, month time.Time) {
	now = now.UTC()
	day = time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	month = time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	return day, month
}
