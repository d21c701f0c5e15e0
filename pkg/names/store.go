package names

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/mattn/go-sqlite3"
)

// Kinds of name a commonality entry applies to.
const (
	KindFirst = "first"
	KindLast  = "last"
)

// realThreshold is the number of reference sources with a non-null rank a
// name needs before it counts as real.
const realThreshold = 3

const schemaSQL = `
CREATE TABLE IF NOT EXISTS name_ranks (
	name   TEXT NOT NULL,
	kind   TEXT NOT NULL CHECK (kind IN ('first', 'last')),
	source TEXT NOT NULL,
	rank   INTEGER,
	PRIMARY KEY (name, kind, source)
);
CREATE INDEX IF NOT EXISTS idx_name_ranks_lookup ON name_ranks (name, kind);
`

// Store is the read-only names-commonality reference backed by SQLite.
type Store struct {
	db *sql.DB
}

// Open opens (or creates) the reference database at path.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open names db: %w", err)
	}
	s := &Store{db: db}
	if err := s.init(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// OpenDB wraps an existing connection (tests use :memory: databases).
func OpenDB(db *sql.DB) (*Store, error) {
	s := &Store{db: db}
	if err := s.init(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Store) init() error {
	for _, stmt := range strings.Split(schemaSQL, ";") {
		stmt = strings.TrimSpace(stmt)
		if stmt == "" {
			continue
		}
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("init names schema: %w", err)
		}
	}
	return nil
}

// Close releases the underlying connection.
func (s *Store) Close() error { return s.db.Close() }

// AddRank records a name's rank in one reference source. rank may be nil.
func (s *Store) AddRank(ctx context.Context, name, kind, source string, rank *int) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO name_ranks (name, kind, source, rank) VALUES (?, ?, ?, ?)`,
		strings.ToLower(strings.TrimSpace(name)), kind, source, rank)
	return err
}

// Commonality counts the reference sources that rank the name (non-null
// rank only). Zero for names absent from the reference.
func (s *Store) Commonality(ctx context.Context, name, kind string) (int, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		return 0, nil
	}
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(DISTINCT source) FROM name_ranks WHERE name = ? AND kind = ? AND rank IS NOT NULL`,
		name, kind).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("commonality lookup: %w", err)
	}
	return n, nil
}

// Check holds the plausibility flags for a parsed name.
type Check struct {
	FirstReal bool
	LastReal  bool
}

// CheckName looks up the first and last name independently; a name is real
// when at least three sources rank it.
func (s *Store) CheckName(ctx context.Context, p Parsed) (Check, error) {
	var c Check
	first, err := s.Commonality(ctx, p.First, KindFirst)
	if err != nil {
		return c, err
	}
	last, err := s.Commonality(ctx, p.Last, KindLast)
	if err != nil {
		return c, err
	}
	c.FirstReal = first >= realThreshold
	c.LastReal = last >= realThreshold
	return c, nil
}
