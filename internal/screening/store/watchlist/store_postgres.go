package watchlist

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/lib/pq"

	"screenguard/internal/screening/models"
)

// PostgresStore reads watchlist entities from PostgreSQL through the
// phonetic-code indexes. This store is pure I/O; candidate scoring and
// filtering belong in the engine.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed watchlist store.
func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const entityColumns = `id, full_name, aliases, entity_type, list_name, date_of_birth, nationality, sanction_type, programs, phonetic_code, phonetic_code_alt`

// FindByPhoneticCode returns all entities indexed under code, optionally
// filtered by entity type. Both code columns carry btree indexes; the OR is
// resolved as two index scans, never a sequential scan of the list.
func (s *PostgresStore) FindByPhoneticCode(ctx context.Context, code string, entityType models.EntityType) ([]models.WatchlistEntity, error) {
	if code == "" {
		return nil, nil
	}

	query := `
		SELECT ` + entityColumns + `
		FROM watchlist_entities
		WHERE (phonetic_code = $1 OR phonetic_code_alt = $1)
		  AND ($2 = '' OR entity_type = $2)
	`
	rows, err := s.db.QueryContext(ctx, query, code, string(entityType))
	if err != nil {
		return nil, fmt.Errorf("find by phonetic code: %w", err)
	}
	defer rows.Close()

	var entities []models.WatchlistEntity
	for rows.Next() {
		entity, err := scanEntity(rows)
		if err != nil {
			return nil, fmt.Errorf("scan watchlist entity: %w", err)
		}
		entities = append(entities, entity)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate watchlist entities: %w", err)
	}
	return entities, nil
}

// CountByList returns entity counts grouped by source list name.
func (s *PostgresStore) CountByList(ctx context.Context) (map[string]int, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT list_name, COUNT(*) FROM watchlist_entities GROUP BY list_name`)
	if err != nil {
		return nil, fmt.Errorf("count by list: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var listName string
		var count int
		if err := rows.Scan(&listName, &count); err != nil {
			return nil, fmt.Errorf("scan list count: %w", err)
		}
		counts[listName] = count
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate list counts: %w", err)
	}
	return counts, nil
}

// Upsert writes an entity. Ingestion pipelines own watchlist content; this
// exists for seeding and integration tests.
func (s *PostgresStore) Upsert(ctx context.Context, entity models.WatchlistEntity) error {
	query := `
		INSERT INTO watchlist_entities (` + entityColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (id) DO UPDATE SET
			full_name = EXCLUDED.full_name,
			aliases = EXCLUDED.aliases,
			entity_type = EXCLUDED.entity_type,
			list_name = EXCLUDED.list_name,
			date_of_birth = EXCLUDED.date_of_birth,
			nationality = EXCLUDED.nationality,
			sanction_type = EXCLUDED.sanction_type,
			programs = EXCLUDED.programs,
			phonetic_code = EXCLUDED.phonetic_code,
			phonetic_code_alt = EXCLUDED.phonetic_code_alt
	`
	_, err := s.db.ExecContext(ctx, query,
		entity.ID,
		entity.FullName,
		pq.Array(entity.Aliases),
		string(entity.EntityType),
		entity.ListName,
		nullTime(entity.DateOfBirth),
		pq.Array(entity.Nationality),
		entity.SanctionType,
		pq.Array(entity.Programs),
		entity.PhoneticCode,
		entity.PhoneticCodeAlt,
	)
	if err != nil {
		return fmt.Errorf("upsert watchlist entity: %w", err)
	}
	return nil
}

type entityRow interface {
	Scan(dest ...any) error
}

func scanEntity(row entityRow) (models.WatchlistEntity, error) {
	var entity models.WatchlistEntity
	var entityType string
	var dob sql.NullTime
	var aliases, nationality, programs pq.StringArray
	if err := row.Scan(
		&entity.ID,
		&entity.FullName,
		&aliases,
		&entityType,
		&entity.ListName,
		&dob,
		&nationality,
		&entity.SanctionType,
		&programs,
		&entity.PhoneticCode,
		&entity.PhoneticCodeAlt,
	); err != nil {
		return models.WatchlistEntity{}, err
	}
	entity.EntityType = models.EntityType(entityType)
	entity.Aliases = aliases
	entity.Nationality = nationality
	entity.Programs = programs
	if dob.Valid {
		t := dob.Time
		entity.DateOfBirth = &t
	}
	return entity, nil
}

func nullTime(value *time.Time) sql.NullTime {
	if value == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *value, Valid: true}
}
