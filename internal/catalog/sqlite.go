package catalog

import (
	"database/sql"
	"fmt"

	// modernc.org/sqlite registers the "sqlite" driver; pure Go, no cgo, the
	// same choice the xg2g example repo makes for its local library store.
	_ "modernc.org/sqlite"
)

// SQLiteSource reads lfg_dungeon_template and lfg_dungeon_rewards from a
// modernc.org/sqlite-backed database/sql connection. It implements both
// TemplateSource and RewardSource so a single open handle can back Load.
type SQLiteSource struct {
	db *sql.DB
}

// OpenSQLiteSource opens (or creates) the sqlite file at path and returns a
// source ready to feed catalog.Load.
func OpenSQLiteSource(path string) (*SQLiteSource, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite catalog store: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite catalog store: %w", err)
	}
	return &SQLiteSource{db: db}, nil
}

// Close releases the underlying database handle.
func (s *SQLiteSource) Close() error { return s.db.Close() }

// EnsureSchema creates the two tables this source reads from if they do not
// already exist. It is a convenience for tests and first-run setups; a
// production deployment is expected to own migration of these tables
// itself.
func (s *SQLiteSource) EnsureSchema() error {
	const schema = `
CREATE TABLE IF NOT EXISTS lfg_dungeon_template (
	dungeonId INTEGER PRIMARY KEY,
	x REAL NOT NULL DEFAULT 0,
	y REAL NOT NULL DEFAULT 0,
	z REAL NOT NULL DEFAULT 0,
	orient REAL NOT NULL DEFAULT 0,
	requiredItemLevel INTEGER NOT NULL DEFAULT 0
);
CREATE TABLE IF NOT EXISTS lfg_dungeon_rewards (
	dungeonId INTEGER NOT NULL,
	maxLevel INTEGER NOT NULL,
	firstQuestId INTEGER NOT NULL DEFAULT 0,
	otherQuestId INTEGER NOT NULL DEFAULT 0,
	shortageQuestId INTEGER NOT NULL DEFAULT 0,
	completionsPerPeriod INTEGER NOT NULL DEFAULT 0,
	dailyReset INTEGER NOT NULL DEFAULT 0
);
`
	_, err := s.db.Exec(schema)
	if err != nil {
		return fmt.Errorf("ensure catalog schema: %w", err)
	}
	return nil
}

// LoadTemplates implements TemplateSource.
func (s *SQLiteSource) LoadTemplates() ([]TemplateRow, error) {
	rows, err := s.db.Query(`SELECT dungeonId, x, y, z, orient, requiredItemLevel FROM lfg_dungeon_template`)
	if err != nil {
		return nil, fmt.Errorf("query lfg_dungeon_template: %w", err)
	}
	defer rows.Close()

	var out []TemplateRow
	for rows.Next() {
		var r TemplateRow
		if err := rows.Scan(&r.ActivityID, &r.X, &r.Y, &r.Z, &r.Orientation, &r.RequiredItemLevel); err != nil {
			return nil, fmt.Errorf("scan lfg_dungeon_template row: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// LoadRewards implements RewardSource.
func (s *SQLiteSource) LoadRewards() ([]RewardRow, error) {
	rows, err := s.db.Query(`SELECT dungeonId, maxLevel, firstQuestId, otherQuestId, shortageQuestId, completionsPerPeriod, dailyReset FROM lfg_dungeon_rewards ORDER BY dungeonId, maxLevel ASC`)
	if err != nil {
		return nil, fmt.Errorf("query lfg_dungeon_rewards: %w", err)
	}
	defer rows.Close()

	var out []RewardRow
	for rows.Next() {
		var r RewardRow
		var dailyReset int
		if err := rows.Scan(&r.ActivityID, &r.MaxLevel, &r.FirstQuestID, &r.OtherQuestID, &r.ShortageQuestID, &r.CompletionsPerPeriod, &dailyReset); err != nil {
			return nil, fmt.Errorf("scan lfg_dungeon_rewards row: %w", err)
		}
		r.DailyReset = dailyReset != 0
		out = append(out, r)
	}
	return out, rows.Err()
}
