package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"screenguard/internal/customwatchlist/models"
)

// PostgresStore persists custom watchlists and their entries in PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed custom watchlist store.
func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const watchlistColumns = `id, name, description, list_type, status, created_by, created_at, updated_at`
const watchlistEntryColumns = `id, watchlist_id, entity_name, entity_type, match_reason, risk_level, added_by, added_at`

func (s *PostgresStore) CreateWatchlist(ctx context.Context, watchlist *models.Watchlist) error {
	if watchlist == nil {
		return fmt.Errorf("watchlist is required")
	}
	query := `
		INSERT INTO custom_watchlists (` + watchlistColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err := s.db.ExecContext(ctx, query,
		watchlist.ID,
		watchlist.Name,
		watchlist.Description,
		watchlist.ListType,
		watchlist.Status,
		watchlist.CreatedBy,
		watchlist.CreatedAt,
		watchlist.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("create custom watchlist: %w", err)
	}
	return nil
}

func (s *PostgresStore) GetWatchlist(ctx context.Context, id uuid.UUID) (*models.Watchlist, error) {
	query := `SELECT ` + watchlistColumns + ` FROM custom_watchlists WHERE id = $1`
	watchlist, err := scanWatchlist(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("get custom watchlist: %w", err)
	}
	return watchlist, nil
}

func (s *PostgresStore) FindWatchlistByName(ctx context.Context, name string) (*models.Watchlist, error) {
	query := `SELECT ` + watchlistColumns + ` FROM custom_watchlists WHERE name = $1`
	watchlist, err := scanWatchlist(s.db.QueryRowContext(ctx, query, name))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("find custom watchlist by name: %w", err)
	}
	return watchlist, nil
}

func (s *PostgresStore) UpdateWatchlist(ctx context.Context, watchlist *models.Watchlist) error {
	if watchlist == nil {
		return fmt.Errorf("watchlist is required")
	}
	query := `
		UPDATE custom_watchlists
		SET description = $2, status = $3, updated_at = $4
		WHERE id = $1
	`
	_, err := s.db.ExecContext(ctx, query, watchlist.ID, watchlist.Description, watchlist.Status, watchlist.UpdatedAt)
	if err != nil {
		return fmt.Errorf("update custom watchlist: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListWatchlists(ctx context.Context) ([]*models.Watchlist, error) {
	query := `SELECT ` + watchlistColumns + ` FROM custom_watchlists ORDER BY created_at`
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list custom watchlists: %w", err)
	}
	defer rows.Close()

	var watchlists []*models.Watchlist
	for rows.Next() {
		watchlist, err := scanWatchlist(rows)
		if err != nil {
			return nil, fmt.Errorf("scan custom watchlist: %w", err)
		}
		watchlists = append(watchlists, watchlist)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate custom watchlists: %w", err)
	}
	return watchlists, nil
}

func (s *PostgresStore) AddEntry(ctx context.Context, entry *models.Entry) error {
	if entry == nil {
		return fmt.Errorf("watchlist entry is required")
	}
	query := `
		INSERT INTO custom_watchlist_entries (` + watchlistEntryColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err := s.db.ExecContext(ctx, query,
		entry.ID,
		entry.WatchlistID,
		entry.EntityName,
		entry.EntityType,
		entry.MatchReason,
		entry.RiskLevel,
		entry.AddedBy,
		entry.AddedAt,
	)
	if err != nil {
		return fmt.Errorf("add custom watchlist entry: %w", err)
	}
	return nil
}

func (s *PostgresStore) GetEntry(ctx context.Context, id uuid.UUID) (*models.Entry, error) {
	query := `SELECT ` + watchlistEntryColumns + ` FROM custom_watchlist_entries WHERE id = $1`
	entry, err := scanEntry(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("get custom watchlist entry: %w", err)
	}
	return entry, nil
}

func (s *PostgresStore) RemoveEntry(ctx context.Context, id uuid.UUID) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM custom_watchlist_entries WHERE id = $1`, id); err != nil {
		return fmt.Errorf("remove custom watchlist entry: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListEntries(ctx context.Context, watchlistID uuid.UUID) ([]*models.Entry, error) {
	query := `SELECT ` + watchlistEntryColumns + ` FROM custom_watchlist_entries WHERE watchlist_id = $1 ORDER BY added_at`
	rows, err := s.db.QueryContext(ctx, query, watchlistID)
	if err != nil {
		return nil, fmt.Errorf("list custom watchlist entries: %w", err)
	}
	defer rows.Close()
	return collectEntries(rows)
}

// SearchActiveEntries returns entries whose entity name contains the needle
// (case-insensitive) and whose parent watchlist is ACTIVE.
func (s *PostgresStore) SearchActiveEntries(ctx context.Context, name string) ([]*models.Entry, error) {
	query := `
		SELECT e.id, e.watchlist_id, e.entity_name, e.entity_type, e.match_reason, e.risk_level, e.added_by, e.added_at
		FROM custom_watchlist_entries e
		JOIN custom_watchlists w ON w.id = e.watchlist_id
		WHERE w.status = 'ACTIVE' AND e.entity_name ILIKE '%' || $1 || '%'
	`
	rows, err := s.db.QueryContext(ctx, query, name)
	if err != nil {
		return nil, fmt.Errorf("search custom watchlist entries: %w", err)
	}
	defer rows.Close()
	return collectEntries(rows)
}

func collectEntries(rows *sql.Rows) ([]*models.Entry, error) {
	var entries []*models.Entry
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("scan custom watchlist entry: %w", err)
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate custom watchlist entries: %w", err)
	}
	return entries, nil
}

type row interface {
	Scan(dest ...any) error
}

func scanWatchlist(r row) (*models.Watchlist, error) {
	var w models.Watchlist
	if err := r.Scan(&w.ID, &w.Name, &w.Description, &w.ListType, &w.Status, &w.CreatedBy, &w.CreatedAt, &w.UpdatedAt); err != nil {
		return nil, err
	}
	return &w, nil
}

func scanEntry(r row) (*models.Entry, error) {
	var e models.Entry
	if err := r.Scan(&e.ID, &e.WatchlistID, &e.EntityName, &e.EntityType, &e.MatchReason, &e.RiskLevel, &e.AddedBy, &e.AddedAt); err != nil {
		return nil, err
	}
	return &e, nil
}
