// Package ledger owns the available quantity of tools.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"Gin_postgres_redis_tool_issuance/logger"
	"Gin_postgres_redis_tool_issuance/metrics"
	"Gin_postgres_redis_tool_issuance/models"
	"Gin_postgres_redis_tool_issuance/store"
)

var ErrToolNotFound = errors.New("tool not found")

type Ledger struct {
	tools store.ToolStore
	now   func() time.Time
}

func New(tools store.ToolStore, now func() time.Time) *Ledger {
	if now == nil {
		now = time.Now
	}
	return &Ledger{tools: tools, now: now}
}

// ApplyDelta moves a tool's available quantity by delta and writes the whole
// record back. The result stays within [0, quantity]: a delta that would
// leave that range is clamped and reported, not rejected. applied is the
// change actually stored, which is what a caller must reverse to undo it.
func (l *Ledger) ApplyDelta(ctx context.Context, code string, delta int) (t *models.Tool, applied int, err error) {
	t, err = l.tools.GetTool(ctx, code)
	if errors.Is(err, store.ErrNotFound) {
		return nil, 0, fmt.Errorf("%w: %s", ErrToolNotFound, code)
	}
	if err != nil {
		return nil, 0, fmt.Errorf("load tool %s: %w", code, err)
	}

	before := t.AvailableQuantity
	after := before + delta
	switch {
	case after < 0:
		metrics.LedgerClamped.Inc()
		logger.Warn(ctx).
			Str("tool_code", code).
			Int("available", before).
			Int("delta", delta).
			Int("deficit", -after).
			Msg("Available quantity clamped to zero")
		after = 0
	case delta > 0 && after > t.Quantity:
		metrics.LedgerClamped.Inc()
		logger.Warn(ctx).
			Str("tool_code", code).
			Int("available", before).
			Int("delta", delta).
			Int("quantity", t.Quantity).
			Msg("Available quantity clamped to total")
		after = max(before, t.Quantity)
	}

	t.AvailableQuantity = after
	t.UpdatedAt = l.now()
	if err := l.tools.PutTool(ctx, t); err != nil {
		return nil, 0, fmt.Errorf("save tool %s: %w", code, err)
	}

	logger.Debug(ctx).
		Str("tool_code", code).
		Int("delta", delta).
		Int("applied", after-before).
		Int("available", after).
		Msg("Ledger delta applied")
	return t, after - before, nil
}
