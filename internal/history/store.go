package history

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

//go:embed schema.sql
var schemaSQL string

// Schema version tracking:
// 1 - Initial queries table
// 2 - Index on started_at for listing
const currentSchemaVersion = 2

// ErrNotFound is returned by Get for unknown query ids.
var ErrNotFound = errors.New("query not found")

// Entry is one logged query.
type Entry struct {
	QueryID    string
	Verb       string
	Statement  string
	StartedAt  time.Time
	FinishedAt time.Time // zero while running
	State      string
	Payloads   int
	Error      string
}

// Store is the SQLite query log.
type Store struct {
	db *sql.DB
}

// Open creates or opens a SQLite database at the given path.
// Applies required pragmas and migrations automatically.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// SQLite only supports one writer at a time.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := applyPragmas(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply pragmas: %w", err)
	}
	if err := applySchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

func applyPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			return fmt.Errorf("failed to execute %q: %w", pragma, err)
		}
	}
	return nil
}

func applySchema(db *sql.DB) error {
	if _, err := db.Exec(schemaSQL); err != nil {
		return fmt.Errorf("failed to execute schema: %w", err)
	}
	return runMigrations(db)
}

// runMigrations applies incremental schema migrations based on user_version.
func runMigrations(db *sql.DB) error {
	var version int
	if err := db.QueryRow("PRAGMA user_version").Scan(&version); err != nil {
		return fmt.Errorf("get user_version: %w", err)
	}

	if version < 2 {
		if _, err := db.Exec(`
			CREATE INDEX IF NOT EXISTS idx_queries_started_at
			ON queries(started_at DESC)
		`); err != nil {
			return fmt.Errorf("migrate to v2: %w", err)
		}
	}

	if _, err := db.Exec(fmt.Sprintf("PRAGMA user_version = %d", currentSchemaVersion)); err != nil {
		return fmt.Errorf("set user_version: %w", err)
	}
	return nil
}

// RecordDispatch inserts a running entry. Duplicate query ids are ignored.
func (s *Store) RecordDispatch(ctx context.Context, e Entry) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO queries (query_id, verb, statement, started_at, state)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(query_id) DO NOTHING
	`,
		e.QueryID,
		e.Verb,
		e.Statement,
		e.StartedAt.UnixNano(),
		e.State,
	)
	if err != nil {
		return fmt.Errorf("record dispatch %s: %w", e.QueryID, err)
	}
	return nil
}

// RecordOutcome stores the terminal state of a query.
func (s *Store) RecordOutcome(ctx context.Context, queryID, state string, payloads int, queryErr error, finishedAt time.Time) error {
	msg := ""
	if queryErr != nil {
		msg = queryErr.Error()
	}
	res, err := s.db.ExecContext(ctx, `
		UPDATE queries
		SET state = ?, payloads = ?, error = ?, finished_at = ?
		WHERE query_id = ?
	`, state, payloads, msg, finishedAt.UnixNano(), queryID)
	if err != nil {
		return fmt.Errorf("record outcome %s: %w", queryID, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("record outcome %s: %w", queryID, ErrNotFound)
	}
	return nil
}

const selectEntry = `
	SELECT query_id, verb, statement, started_at, finished_at, state, payloads, error
	FROM queries
`

// Get returns one entry.
func (s *Store) Get(ctx context.Context, queryID string) (Entry, error) {
	row := s.db.QueryRowContext(ctx, selectEntry+" WHERE query_id = ?", queryID)
	e, err := scanEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Entry{}, fmt.Errorf("%s: %w", queryID, ErrNotFound)
	}
	return e, err
}

// List returns the most recent entries, newest first. A limit of zero or
// less returns every entry.
func (s *Store) List(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.db.QueryContext(ctx,
		selectEntry+" ORDER BY started_at DESC, query_id COLLATE BINARY ASC LIMIT ?", limit)
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	defer rows.Close()

	entries := []Entry{}
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate history: %w", err)
	}
	return entries, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanEntry(row scanner) (Entry, error) {
	var (
		e        Entry
		started  int64
		finished sql.NullInt64
	)
	if err := row.Scan(&e.QueryID, &e.Verb, &e.Statement, &started, &finished, &e.State, &e.Payloads, &e.Error); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Entry{}, err
		}
		return Entry{}, fmt.Errorf("scan history entry: %w", err)
	}
	e.StartedAt = time.Unix(0, started).UTC()
	if finished.Valid {
		e.FinishedAt = time.Unix(0, finished.Int64).UTC()
	}
	return e, nil
}
