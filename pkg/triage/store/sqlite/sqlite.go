package sqlite

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
	_ "modernc.org/sqlite"

	"github.com/cognicore/triage/pkg/triage/internalerr"
	"github.com/cognicore/triage/pkg/triage/store"
	"github.com/cognicore/triage/pkg/triage/table"
)

// sqliteStore implements the Store interface using SQLite
type sqliteStore struct {
	db  *sql.DB
	now func() time.Time

	mu      sync.Mutex
	entropy *ulid.MonotonicEntropy
}

// OpenSQLite opens a SQLite database with WAL mode enabled.
func OpenSQLite(ctx context.Context, path string) (store.Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	// Enable WAL mode for better concurrency
	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: %v", internalerr.ErrStoreUnavailable, err)
	}

	if err := initSchema(ctx, db); err != nil {
		db.Close()
		return nil, err
	}

	return &sqliteStore{
		db:      db,
		now:     time.Now,
		entropy: ulid.Monotonic(rand.Reader, 0),
	}, nil
}

// Close closes the database connection
func (s *sqliteStore) Close() error {
	return s.db.Close()
}

// initSchema creates the run ledger if it doesn't exist
func initSchema(ctx context.Context, db *sql.DB) error {
	schema := `
CREATE TABLE IF NOT EXISTS etl_runs (
	run_id TEXT PRIMARY KEY,
	table_name TEXT NOT NULL,
	row_count INTEGER NOT NULL,
	columns TEXT NOT NULL,
	fingerprint TEXT NOT NULL,
	created_at TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_etl_runs_table ON etl_runs(table_name);
`
	_, err := db.ExecContext(ctx, schema)
	return err
}

// ReplaceTable drops and recreates the named table inside one transaction.
func (s *sqliteStore) ReplaceTable(ctx context.Context, name string, t table.Table) (store.Run, error) {
	if err := store.ValidateName(name); err != nil {
		return store.Run{}, err
	}
	if err := t.Validate(); err != nil {
		return store.Run{}, fmt.Errorf("%w: %v", internalerr.ErrInvalidInput, err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return store.Run{}, err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DROP TABLE IF EXISTS `+quoteIdent(name)); err != nil {
		return store.Run{}, err
	}
	if _, err := tx.ExecContext(ctx, createTableSQL(name, t)); err != nil {
		return store.Run{}, err
	}
	if err := insertRows(ctx, tx, name, t); err != nil {
		return store.Run{}, err
	}

	run := store.NewRun(s.newID(), name, t, s.now())
	cols, err := json.Marshal(run.Columns)
	if err != nil {
		return store.Run{}, err
	}
	if _, err := tx.ExecContext(ctx, `
INSERT INTO etl_runs (run_id, table_name, row_count, columns, fingerprint, created_at)
VALUES (?, ?, ?, ?, ?, ?);
`, run.ID, run.Table, run.Rows, string(cols), run.Fingerprint, run.CreatedAt.Format(time.RFC3339Nano)); err != nil {
		return store.Run{}, err
	}

	if err := tx.Commit(); err != nil {
		return store.Run{}, err
	}
	return run, nil
}

func createTableSQL(name string, t table.Table) string {
	var b strings.Builder
	fmt.Fprintf(&b, "CREATE TABLE %s (\n\tid INTEGER NOT NULL,\n\tmessage TEXT,\n\toriginal TEXT,\n\tgenre TEXT", quoteIdent(name))
	for _, cat := range t.Schema.Names() {
		q := quoteIdent(cat)
		fmt.Fprintf(&b, ",\n\t%s INTEGER NOT NULL CHECK (%s IN (0, 1))", q, q)
	}
	b.WriteString("\n);")
	return b.String()
}

func insertRows(ctx context.Context, tx *sql.Tx, name string, t table.Table) error {
	if len(t.Rows) == 0 {
		return nil
	}
	cols := t.Columns()
	quoted := make([]string, len(cols))
	for i, c := range cols {
		quoted[i] = quoteIdent(c)
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(cols)), ",")

	stmt, err := tx.PrepareContext(ctx, fmt.Sprintf(`INSERT INTO %s (%s) VALUES (%s)`,
		quoteIdent(name), strings.Join(quoted, ", "), placeholders))
	if err != nil {
		return err
	}
	defer stmt.Close()

	args := make([]any, len(cols))
	for _, r := range t.Rows {
		args[0], args[1], args[2], args[3] = r.ID, r.Message, r.Original, r.Genre
		for i, l := range r.Labels {
			args[len(table.FixedColumns)+i] = int64(l.Value)
		}
		if _, err := stmt.ExecContext(ctx, args...); err != nil {
			return fmt.Errorf("insert id %d: %w", r.ID, err)
		}
	}
	return nil
}

// LoadTable reads the named table in insertion order.
func (s *sqliteStore) LoadTable(ctx context.Context, name string) (table.Table, error) {
	if err := store.ValidateName(name); err != nil {
		return table.Table{}, err
	}

	var found string
	err := s.db.QueryRowContext(ctx, `SELECT name FROM sqlite_master WHERE type='table' AND name=?`, name).Scan(&found)
	if err == sql.ErrNoRows {
		return table.Table{}, fmt.Errorf("table %q: %w", name, internalerr.ErrNotFound)
	}
	if err != nil {
		return table.Table{}, err
	}

	rows, err := s.db.QueryContext(ctx, `SELECT * FROM `+quoteIdent(name)+` ORDER BY rowid`)
	if err != nil {
		return table.Table{}, err
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return table.Table{}, err
	}
	schema, err := store.SchemaFromColumns(cols)
	if err != nil {
		return table.Table{}, fmt.Errorf("table %q: %w", name, err)
	}
	out, err := store.ScanRows(rows, schema)
	if err != nil {
		return table.Table{}, err
	}
	return table.Table{Schema: schema, Rows: out}, nil
}

// LatestRun returns the newest ledger entry for a table.
func (s *sqliteStore) LatestRun(ctx context.Context, name string) (store.Run, bool, error) {
	var (
		run       store.Run
		cols      string
		createdAt string
	)
	err := s.db.QueryRowContext(ctx, `
SELECT run_id, table_name, row_count, columns, fingerprint, created_at
FROM etl_runs
WHERE table_name = ?
ORDER BY run_id DESC
LIMIT 1;
`, name).Scan(&run.ID, &run.Table, &run.Rows, &cols, &run.Fingerprint, &createdAt)
	if err == sql.ErrNoRows {
		return store.Run{}, false, nil
	}
	if err != nil {
		return store.Run{}, false, err
	}
	if err := json.Unmarshal([]byte(cols), &run.Columns); err != nil {
		return store.Run{}, false, fmt.Errorf("decode run columns: %w", err)
	}
	if run.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt); err != nil {
		return store.Run{}, false, fmt.Errorf("decode run time: %w", err)
	}
	return run, true, nil
}

func (s *sqliteStore) newID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return ulid.MustNew(ulid.Timestamp(s.now()), s.entropy).String()
}

func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}
