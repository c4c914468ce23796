package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"playzone/internal/summary"
)

// RebuildPayload is the job envelope sent to QueueSummaryRebuild.
type RebuildPayload struct {
	Date string `json:"date"` // YYYY-MM-DD
}

// Recomputer recomputes and stores the summary of one calendar date.
type Recomputer interface {
	Recompute(ctx context.Context, day time.Time) error
}

// RebuildWorker processes jobs from QueueSummaryRebuild.
type RebuildWorker struct {
	summaries Recomputer
	loc       *time.Location
}

func NewRebuildWorker(summaries Recomputer, loc *time.Location) *RebuildWorker {
	return &RebuildWorker{summaries: summaries, loc: loc}
}

func (w *RebuildWorker) Process(ctx context.Context, raw json.RawMessage) error {
	var payload RebuildPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return fmt.Errorf("rebuild_worker: invalid payload: %v: %w", err, ErrPermanent)
	}
	day, err := summary.ParseDate(payload.Date, w.loc)
	if err != nil {
		return fmt.Errorf("rebuild_worker: invalid date: %v: %w", err, ErrPermanent)
	}
	return w.summaries.Recompute(ctx, day)
}
