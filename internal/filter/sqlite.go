package filter

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"

	_ "github.com/mattn/go-sqlite3"
)

const sessionsSchema = `
CREATE TABLE IF NOT EXISTS filter_sessions (
    session_id  TEXT PRIMARY KEY,
    date_from   TEXT,
    date_to     TEXT,
    has_range   INTEGER NOT NULL DEFAULT 0,
    regions     TEXT NOT NULL DEFAULT '[]',
    stores      TEXT NOT NULL DEFAULT '[]',
    brands      TEXT NOT NULL DEFAULT '[]',
    categories  TEXT NOT NULL DEFAULT '[]',
    barangays   TEXT NOT NULL DEFAULT '[]',
    updated_at  TEXT NOT NULL DEFAULT (datetime('now'))
);`

// SQLitePersister keeps one row per session with the persisted field set.
// Each Save rewrites the whole row.
type SQLitePersister struct {
	db *sql.DB
}

func OpenSQLitePersister(path string) (*SQLitePersister, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open filter store at %s: %w", path, err)
	}

	if _, err := db.Exec(sessionsSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize filter_sessions table: %w", err)
	}

	slog.Info("Filter session store opened", "path", path)
	return &SQLitePersister{db: db}, nil
}

func (p *SQLitePersister) Save(ctx context.Context, sessionID string, state State) error {
	var from, to sql.NullString
	hasRange := 0
	if state.DateRange != nil {
		hasRange = 1
		from = sql.NullString{String: state.DateRange.From, Valid: true}
		to = sql.NullString{String: state.DateRange.To, Valid: true}
	}

	arrays := make([]string, 0, len(ArrayFields))
	for _, f := range ArrayFields {
		encoded, err := json.Marshal(state.Values(f))
		if err != nil {
			return fmt.Errorf("failed to encode %s for session %s: %w", f, sessionID, err)
		}
		arrays = append(arrays, string(encoded))
	}

	query := `
        INSERT INTO filter_sessions (session_id, date_from, date_to, has_range, regions, stores, brands, categories, barangays, updated_at)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, datetime('now'))
        ON CONFLICT (session_id)
        DO UPDATE SET date_from = excluded.date_from, date_to = excluded.date_to, has_range = excluded.has_range,
                      regions = excluded.regions, stores = excluded.stores, brands = excluded.brands,
                      categories = excluded.categories, barangays = excluded.barangays, updated_at = excluded.updated_at`
	_, err := p.db.ExecContext(ctx, query, sessionID, from, to, hasRange,
		arrays[0], arrays[1], arrays[2], arrays[3], arrays[4])
	if err != nil {
		return fmt.Errorf("failed to save filter session %s: %w", sessionID, err)
	}
	return nil
}

func (p *SQLitePersister) Load(ctx context.Context, sessionID string) (State, bool, error) {
	query := `
        SELECT date_from, date_to, has_range, regions, stores, brands, categories, barangays
        FROM filter_sessions WHERE session_id = ?`

	var from, to sql.NullString
	var hasRange int
	raw := make([]string, len(ArrayFields))

	err := p.db.QueryRowContext(ctx, query, sessionID).Scan(
		&from, &to, &hasRange, &raw[0], &raw[1], &raw[2], &raw[3], &raw[4])
	if err == sql.ErrNoRows {
		return NewState(), false, nil
	}
	if err != nil {
		return State{}, false, fmt.Errorf("failed to load filter session %s: %w", sessionID, err)
	}

	state := NewState()
	if hasRange == 1 {
		state.DateRange = &DateRange{From: from.String, To: to.String}
	}
	for i, f := range ArrayFields {
		var values []string
		if err := json.Unmarshal([]byte(raw[i]), &values); err != nil {
			return State{}, false, fmt.Errorf("failed to decode %s for session %s: %w", f, sessionID, err)
		}
		if values == nil {
			values = []string{}
		}
		state.setValues(f, values)
	}
	return state, true, nil
}

func (p *SQLitePersister) Close() error {
	return p.db.Close()
}
