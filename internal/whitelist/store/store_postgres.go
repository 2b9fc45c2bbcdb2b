package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"screenguard/internal/whitelist/models"
)

// PostgresStore persists whitelist entries in PostgreSQL. This store is pure
// I/O; expiry policy belongs in the service, except for DeactivateExpired
// which must be a single conditional UPDATE to stay race-free.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed whitelist store.
func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const entryColumns = `id, entity_id, entity_type, reason, created_by, expires_at, active, created_at, updated_at`

func (s *PostgresStore) FindByEntity(ctx context.Context, entityID, entityType string) (*models.Entry, error) {
	query := `
		SELECT ` + entryColumns + `
		FROM screening_whitelist
		WHERE entity_id = $1 AND entity_type = $2
	`
	entry, err := scanEntry(s.db.QueryRowContext(ctx, query, entityID, entityType))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("find whitelist entry: %w", err)
	}
	return entry, nil
}

// Upsert inserts or reactivates an entry for the entity/type pair.
func (s *PostgresStore) Upsert(ctx context.Context, entry *models.Entry) error {
	if entry == nil {
		return fmt.Errorf("whitelist entry is required")
	}
	query := `
		INSERT INTO screening_whitelist (` + entryColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (entity_id, entity_type) DO UPDATE SET
			reason = EXCLUDED.reason,
			created_by = EXCLUDED.created_by,
			expires_at = EXCLUDED.expires_at,
			active = EXCLUDED.active,
			updated_at = EXCLUDED.updated_at
	`
	_, err := s.db.ExecContext(ctx, query,
		entry.ID,
		entry.EntityID,
		entry.EntityType,
		entry.Reason,
		entry.CreatedBy,
		nullTime(entry.ExpiresAt),
		entry.Active,
		entry.CreatedAt,
		entry.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("upsert whitelist entry: %w", err)
	}
	return nil
}

// DeactivateExpired atomically flips active to false when the entry is still
// active and its expiry has passed. The WHERE clause is the compare-and-set:
// racing readers issue the same UPDATE and exactly the state they observed is
// what gets cleared, so no update is lost.
func (s *PostgresStore) DeactivateExpired(ctx context.Context, entityID, entityType string, now time.Time) (bool, error) {
	query := `
		UPDATE screening_whitelist
		SET active = FALSE, updated_at = $3
		WHERE entity_id = $1 AND entity_type = $2
		  AND active = TRUE
		  AND expires_at IS NOT NULL AND expires_at < $3
	`
	result, err := s.db.ExecContext(ctx, query, entityID, entityType, now)
	if err != nil {
		return false, fmt.Errorf("deactivate expired whitelist entry: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("deactivate expired rows affected: %w", err)
	}
	return rows > 0, nil
}

// Deactivate flips active to false regardless of expiry (explicit removal).
func (s *PostgresStore) Deactivate(ctx context.Context, entityID, entityType string, now time.Time) error {
	query := `
		UPDATE screening_whitelist
		SET active = FALSE, updated_at = $3
		WHERE entity_id = $1 AND entity_type = $2 AND active = TRUE
	`
	if _, err := s.db.ExecContext(ctx, query, entityID, entityType, now); err != nil {
		return fmt.Errorf("deactivate whitelist entry: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListActive(ctx context.Context, entityType string) ([]*models.Entry, error) {
	query := `
		SELECT ` + entryColumns + `
		FROM screening_whitelist
		WHERE active = TRUE AND ($1 = '' OR entity_type = $1)
		ORDER BY created_at DESC
	`
	rows, err := s.db.QueryContext(ctx, query, entityType)
	if err != nil {
		return nil, fmt.Errorf("list whitelist entries: %w", err)
	}
	defer rows.Close()

	var entries []*models.Entry
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("scan whitelist entry: %w", err)
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate whitelist entries: %w", err)
	}
	return entries, nil
}

type entryRow interface {
	Scan(dest ...any) error
}

func scanEntry(row entryRow) (*models.Entry, error) {
	var entry models.Entry
	var expiresAt sql.NullTime
	if err := row.Scan(
		&entry.ID,
		&entry.EntityID,
		&entry.EntityType,
		&entry.Reason,
		&entry.CreatedBy,
		&expiresAt,
		&entry.Active,
		&entry.CreatedAt,
		&entry.UpdatedAt,
	); err != nil {
		return nil, err
	}
	if expiresAt.Valid {
		entry.ExpiresAt = &expiresAt.Time
	}
	return &entry, nil
}

func nullTime(value *time.Time) sql.NullTime {
	if value == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *value, Valid: true}
}
