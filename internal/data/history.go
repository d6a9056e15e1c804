package data

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/summonlabs/summoner/internal/biz/domain"
	"github.com/summonlabs/summoner/internal/biz/repo"

	_ "modernc.org/sqlite"
)

// historyRepo implements the summon history log
type historyRepo struct {
	db *sql.DB
}

// NewHistoryRepo creates a new summon history repository
func NewHistoryRepo(dbPath string) (repo.HistoryRepo, error) {
	// Ensure directory exists
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS summons (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			message_id TEXT NOT NULL DEFAULT '',
			channel_id TEXT NOT NULL DEFAULT '',
			summon_id INTEGER NOT NULL,
			kind TEXT NOT NULL,
			manual INTEGER NOT NULL DEFAULT 0,
			sent_at INTEGER NOT NULL
		)
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create table: %w", err)
	}

	_, err = db.Exec(`CREATE INDEX IF NOT EXISTS idx_summons_sent_at ON summons(sent_at)`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create index: %w", err)
	}

	return &historyRepo{db: db}, nil
}

// Record appends a delivered summon
func (r *historyRepo) Record(ctx context.Context, rec *domain.SummonRecord) error {
	manual := 0
	if rec.Manual {
		manual = 1
	}
	result, err := r.db.ExecContext(ctx, `
		INSERT INTO summons (message_id, channel_id, summon_id, kind, manual, sent_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, rec.MessageID, rec.ChannelID, rec.SummonID, string(rec.Kind), manual, rec.SentAt.Unix())
	if err != nil {
		return fmt.Errorf("failed to record summon: %w", err)
	}
	if id, err := result.LastInsertId(); err == nil {
		rec.ID = id
	}
	return nil
}

// Counts aggregates auto/manual sends
func (r *historyRepo) Counts(ctx context.Context) (domain.SummonCounts, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT
			COALESCE(SUM(CASE WHEN manual = 0 THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN manual = 1 THEN 1 ELSE 0 END), 0),
			COALESCE(MAX(sent_at), 0)
		FROM summons
	`)

	var counts domain.SummonCounts
	var lastAt int64
	if err := row.Scan(&counts.Auto, &counts.Manual, &lastAt); err != nil {
		return domain.SummonCounts{}, fmt.Errorf("failed to count summons: %w", err)
	}
	if lastAt > 0 {
		counts.LastAt = time.Unix(lastAt, 0)
	}
	return counts, nil
}

// Recent lists the newest records first
func (r *historyRepo) Recent(ctx context.Context, limit int) ([]*domain.SummonRecord, error) {
	if limit <= 0 {
		limit = 10
	}
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, message_id, channel_id, summon_id, kind, manual, sent_at
		FROM summons
		ORDER BY sent_at DESC, id DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list summons: %w", err)
	}
	defer rows.Close()

	var records []*domain.SummonRecord
	for rows.Next() {
		var rec domain.SummonRecord
		var kind string
		var manual int
		var sentAt int64
		if err := rows.Scan(&rec.ID, &rec.MessageID, &rec.ChannelID, &rec.SummonID, &kind, &manual, &sentAt); err != nil {
			return nil, fmt.Errorf("failed to scan summon: %w", err)
		}
		rec.Kind = domain.Kind(kind)
		rec.Manual = manual == 1
		rec.SentAt = time.Unix(sentAt, 0)
		records = append(records, &rec)
	}
	return records, rows.Err()
}

// Close closes the database connection
func (r *historyRepo) Close() error {
	return r.db.Close()
}
