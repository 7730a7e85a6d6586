package postgres

import (
	"context"
	"crypto/rand"
	"database/sql"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/oklog/ulid/v2"

	"github.com/cognicore/triage/pkg/triage/internalerr"
	"github.com/cognicore/triage/pkg/triage/store"
	"github.com/cognicore/triage/pkg/triage/table"
)

// pgStore implements the Store interface on PostgreSQL.
type pgStore struct {
	db  *sqlx.DB
	now func() time.Time

	mu      sync.Mutex
	entropy *ulid.MonotonicEntropy
}

type runRow struct {
	ID          string         `db:"run_id"`
	Table       string         `db:"table_name"`
	Rows        int            `db:"row_count"`
	Columns     pq.StringArray `db:"columns"`
	Fingerprint string         `db:"fingerprint"`
	CreatedAt   time.Time      `db:"created_at"`
}

// OpenPostgres connects to dsn and prepares the run ledger.
func OpenPostgres(ctx context.Context, dsn string) (store.Store, error) {
	db, err := sqlx.ConnectContext(ctx, "postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", internalerr.ErrStoreUnavailable, err)
	}

	if _, err := db.ExecContext(ctx, `
CREATE TABLE IF NOT EXISTS etl_runs (
	run_id TEXT PRIMARY KEY,
	table_name TEXT NOT NULL,
	row_count INTEGER NOT NULL,
	columns TEXT[] NOT NULL,
	fingerprint TEXT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_etl_runs_table ON etl_runs(table_name);
`); err != nil {
		db.Close()
		return nil, err
	}

	return &pgStore{
		db:      db,
		now:     time.Now,
		entropy: ulid.Monotonic(rand.Reader, 0),
	}, nil
}

func (s *pgStore) Close() error {
	return s.db.Close()
}

// ReplaceTable drops and recreates the named table inside one transaction.
func (s *pgStore) ReplaceTable(ctx context.Context, name string, t table.Table) (store.Run, error) {
	if err := store.ValidateName(name); err != nil {
		return store.Run{}, err
	}
	if err := t.Validate(); err != nil {
		return store.Run{}, fmt.Errorf("%w: %v", internalerr.ErrInvalidInput, err)
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return store.Run{}, err
	}
	defer tx.Rollback()

	ident := pq.QuoteIdentifier(name)
	if _, err := tx.ExecContext(ctx, `DROP TABLE IF EXISTS `+ident); err != nil {
		return store.Run{}, err
	}

	var b strings.Builder
	fmt.Fprintf(&b, "CREATE TABLE %s (id BIGINT NOT NULL, message TEXT, original TEXT, genre TEXT", ident)
	for _, cat := range t.Schema.Names() {
		q := pq.QuoteIdentifier(cat)
		fmt.Fprintf(&b, ", %s SMALLINT NOT NULL CHECK (%s IN (0, 1))", q, q)
	}
	b.WriteString(")")
	if _, err := tx.ExecContext(ctx, b.String()); err != nil {
		return store.Run{}, err
	}

	if len(t.Rows) > 0 {
		cols := t.Columns()
		quoted := make([]string, len(cols))
		marks := make([]string, len(cols))
		for i, c := range cols {
			quoted[i] = pq.QuoteIdentifier(c)
			marks[i] = fmt.Sprintf("$%d", i+1)
		}
		stmt, err := tx.PreparexContext(ctx, fmt.Sprintf(`INSERT INTO %s (%s) VALUES (%s)`,
			ident, strings.Join(quoted, ", "), strings.Join(marks, ", ")))
		if err != nil {
			return store.Run{}, err
		}
		defer stmt.Close()

		args := make([]any, len(cols))
		for _, r := range t.Rows {
			args[0], args[1], args[2], args[3] = r.ID, r.Message, r.Original, r.Genre
			for i, l := range r.Labels {
				args[len(table.FixedColumns)+i] = int64(l.Value)
			}
			if _, err := stmt.ExecContext(ctx, args...); err != nil {
				return store.Run{}, fmt.Errorf("insert id %d: %w", r.ID, err)
			}
		}
	}

	run := store.NewRun(s.newID(), name, t, s.now())
	if _, err := tx.NamedExecContext(ctx, `
INSERT INTO etl_runs (run_id, table_name, row_count, columns, fingerprint, created_at)
VALUES (:run_id, :table_name, :row_count, :columns, :fingerprint, :created_at)
`, runRow{
		ID:          run.ID,
		Table:       run.Table,
		Rows:        run.Rows,
		Columns:     pq.StringArray(run.Columns),
		Fingerprint: run.Fingerprint,
		CreatedAt:   run.CreatedAt,
	}); err != nil {
		return store.Run{}, err
	}

	if err := tx.Commit(); err != nil {
		return store.Run{}, err
	}
	return run, nil
}

// LoadTable reads the named table in physical order, which is insertion
// order for a table that is only ever rewritten whole.
func (s *pgStore) LoadTable(ctx context.Context, name string) (table.Table, error) {
	if err := store.ValidateName(name); err != nil {
		return table.Table{}, err
	}

	var reg sql.NullString
	if err := s.db.GetContext(ctx, &reg, `SELECT to_regclass($1)::text`, pq.QuoteIdentifier(name)); err != nil {
		return table.Table{}, err
	}
	if !reg.Valid {
		return table.Table{}, fmt.Errorf("table %q: %w", name, internalerr.ErrNotFound)
	}

	rows, err := s.db.QueryxContext(ctx, `SELECT * FROM `+pq.QuoteIdentifier(name)+` ORDER BY ctid`)
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
func (s *pgStore) LatestRun(ctx context.Context, name string) (store.Run, bool, error) {
	var r runRow
	err := s.db.GetContext(ctx, &r, `
SELECT run_id, table_name, row_count, columns, fingerprint, created_at
FROM etl_runs
WHERE table_name = $1
ORDER BY run_id DESC
LIMIT 1`, name)
	if err == sql.ErrNoRows {
		return store.Run{}, false, nil
	}
	if err != nil {
		return store.Run{}, false, err
	}
	return store.Run{
		ID:          r.ID,
		Table:       r.Table,
		Rows:        r.Rows,
		Columns:     []string(r.Columns),
		Fingerprint: r.Fingerprint,
		CreatedAt:   r.CreatedAt.UTC(),
	}, true, nil
}

func (s *pgStore) newID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return ulid.MustNew(ulid.Timestamp(s.now()), s.entropy).String()
}
