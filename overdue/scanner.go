// Package overdue flags issued tools whose shift window has closed.
package overdue

import (
	"context"
	"fmt"
	"time"

	"Gin_postgres_redis_tool_issuance/logger"
	"Gin_postgres_redis_tool_issuance/metrics"
	"Gin_postgres_redis_tool_issuance/models"
	"Gin_postgres_redis_tool_issuance/store"
)

type Scanner struct {
	issuances store.IssuanceStore
}

func NewScanner(issuances store.IssuanceStore) *Scanner {
	return &Scanner{issuances: issuances}
}

// Sweep marks every issued, not yet flagged record whose shift ended at or
// before now. All flags of one sweep are written in a single batch. It
// returns how many records were flagged.
func (s *Scanner) Sweep(ctx context.Context, now time.Time) (int, error) {
	start := time.Now()
	defer func() { metrics.SweepDuration.Observe(time.Since(start).Seconds()) }()

	candidates, err := s.issuances.ListIssuances(ctx, store.IssuanceFilter{
		Statuses: []models.IssuanceStatus{models.StatusIssued},
		Overdue:  store.Bool(false),
	})
	if err != nil {
		metrics.SweepErrors.Inc()
		return 0, fmt.Errorf("list overdue candidates: %w", err)
	}

	var batch []models.Issuance
	for _, is := range candidates {
		if now.Before(is.ShiftEndTime) {
			continue
		}
		since := now
		is.IsOverdue = true
		is.OverdueSince = &since
		is.UpdatedAt = now
		batch = append(batch, is)
	}
	if len(batch) == 0 {
		return 0, nil
	}

	if err := s.issuances.PutIssuances(ctx, batch); err != nil {
		metrics.SweepErrors.Inc()
		return 0, fmt.Errorf("flag %d overdue issuances: %w", len(batch), err)
	}

	metrics.OverdueFlagged.Add(float64(len(batch)))
	for _, is := range batch {
		logger.Info(ctx).
			Int64("issuance_id", is.ID).
			Str("tool_code", is.ToolCode).
			Str("issued_to", is.IssuedToName).
			Str("attendant", is.AttendantName).
			Time("shift_end", is.ShiftEndTime).
			Msg("Tool overdue")
	}
	return len(batch), nil
}
