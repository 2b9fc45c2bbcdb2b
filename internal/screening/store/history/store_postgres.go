package history

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"screenguard/internal/screening/models"
)

// PostgresStore persists screening outcomes in PostgreSQL. One row per
// screening run; matches themselves are not stored here (the watchlist is
// the source of truth), only the outcome summary for coverage reporting.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed history store.
func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Record(ctx context.Context, result models.ScreeningResult) error {
	query := `
		INSERT INTO screening_history (id, screened_name, entity_type, status, match_count, highest_score, provider, screened_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err := s.db.ExecContext(ctx, query,
		uuid.NewString(),
		result.ScreenedName,
		string(result.EntityType),
		string(result.Status),
		result.MatchCount,
		result.HighestMatchScore,
		result.ScreeningProvider,
		result.ScreenedAt,
	)
	if err != nil {
		return fmt.Errorf("record screening history: %w", err)
	}
	return nil
}

func (s *PostgresStore) CountByStatusSince(ctx context.Context, since time.Time) (map[models.ScreeningStatus]int, error) {
	query := `
		SELECT status, COUNT(*)
		FROM screening_history
		WHERE screened_at >= $1
		GROUP BY status
	`
	rows, err := s.db.QueryContext(ctx, query, since)
	if err != nil {
		return nil, fmt.Errorf("count screening history: %w", err)
	}
	defer rows.Close()

	counts := make(map[models.ScreeningStatus]int)
	for rows.Next() {
		var status string
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, fmt.Errorf("scan history count: %w", err)
		}
		counts[models.ScreeningStatus(status)] = count
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate history counts: %w", err)
	}
	return counts, nil
}
