package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/user/scamshield-agent/internal/entity"
)

const historySchema = `
	CREATE TABLE IF NOT EXISTS analysis_history (
		id                 TEXT PRIMARY KEY,
		tab_id             INTEGER NOT NULL,
		url                TEXT NOT NULL,
		scam_type          TEXT NOT NULL,
		risk_level         TEXT NOT NULL,
		analysis           TEXT NOT NULL,
		recommended_action TEXT NOT NULL,
		target_language    TEXT NOT NULL,
		analyzed_at        TIMESTAMPTZ NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_analysis_history_analyzed_at ON analysis_history (analyzed_at DESC);
`

// HistoryRepoImpl provides a concrete implementation for the HistoryRepository interface using PostgreSQL.
type HistoryRepoImpl struct {
	db *pgxpool.Pool
}

// NewHistoryRepo creates a new instance of HistoryRepoImpl.
func NewHistoryRepo(db *pgxpool.Pool) *HistoryRepoImpl {
	return &HistoryRepoImpl{db: db}
}

// NewPool connects to connStr and makes sure the history table exists.
func NewPool(ctx context.Context, connStr string) (*pgxpool.Pool, error) {
	db, err := pgxpool.New(ctx, connStr)
	if err != nil {
		return nil, fmt.Errorf("unable to connect to database: %w", err)
	}
	if _, err := db.Exec(ctx, historySchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create history schema: %w", err)
	}
	return db, nil
}

// Append inserts entry and prunes expired and surplus rows in a single transaction.
func (r *HistoryRepoImpl) Append(ctx context.Context, entry *entity.HistoryEntry, limit int, cutoff time.Time) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, `
		INSERT INTO analysis_history (id, tab_id, url, scam_type, risk_level, analysis, recommended_action, target_language, analyzed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (id) DO NOTHING;
	`,
		entry.ID,
		entry.TabID,
		entry.URL,
		string(entry.ScamType),
		entry.RiskLevel,
		entry.Analysis,
		entry.RecommendedAction,
		entry.TargetLanguage,
		entry.AnalyzedAt,
	)
	if err != nil {
		return err
	}

	if _, err := tx.Exec(ctx, `DELETE FROM analysis_history WHERE analyzed_at < $1;`, cutoff); err != nil {
		return err
	}

	if limit > 0 {
		_, err = tx.Exec(ctx, `
			DELETE FROM analysis_history
			WHERE id NOT IN (
				SELECT id FROM analysis_history ORDER BY analyzed_at DESC LIMIT $1
			);
		`, limit)
		if err != nil {
			return err
		}
	}

	return tx.Commit(ctx)
}

// List returns every stored entry, newest first.
func (r *HistoryRepoImpl) List(ctx context.Context) ([]*entity.HistoryEntry, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, tab_id, url, scam_type, risk_level, analysis, recommended_action, target_language, analyzed_at
		FROM analysis_history
		ORDER BY analyzed_at DESC;
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []*entity.HistoryEntry
	for rows.Next() {
		var e entity.HistoryEntry
		var scamType string
		if err := rows.Scan(
			&e.ID,
			&e.TabID,
			&e.URL,
			&scamType,
			&e.RiskLevel,
			&e.Analysis,
			&e.RecommendedAction,
			&e.TargetLanguage,
			&e.AnalyzedAt,
		); err != nil {
			return nil, err
		}
		e.ScamType = entity.ScamType(scamType)
		entries = append(entries, &e)
	}

	return entries, rows.Err()
}

// Ping checks the pool.
func (r *HistoryRepoImpl) Ping(ctx context.Context) error {
	return r.db.Ping(ctx)
}
