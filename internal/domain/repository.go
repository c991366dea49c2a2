package domain

import "context"

// RunRepository persists analysis summaries.
type RunRepository interface {
	Create(ctx context.Context, run *Run) error
	ListRecent(ctx context.Context, limit int) ([]Run, error)
}
