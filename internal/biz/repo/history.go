package repo

import (
	"context"

	"github.com/summonlabs/summoner/internal/biz/domain"
)

// HistoryRepo is the summon history log (SQLite)
type HistoryRepo interface {
	// Record appends a delivered summon
	Record(ctx context.Context, rec *domain.SummonRecord) error

	// Counts aggregates auto/manual sends
	Counts(ctx context.Context) (domain.SummonCounts, error)

	// Recent lists the newest records first
	Recent(ctx context.Context, limit int) ([]*domain.SummonRecord, error)

	Close() error
}
