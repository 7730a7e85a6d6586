package store

import (
	"context"
	"database/sql"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/cognicore/triage/pkg/triage/internalerr"
	"github.com/cognicore/triage/pkg/triage/labels"
	"github.com/cognicore/triage/pkg/triage/table"
)

// RunsTable holds the ETL run ledger. It cannot be used as a data table name.
const RunsTable = "etl_runs"

// Store persists the cleaned label table.
type Store interface {
	Close() error

	// ReplaceTable overwrites the named table with t in a single transaction
	// and records the run in the ledger. Prior content is never kept.
	ReplaceTable(ctx context.Context, name string, t table.Table) (Run, error)

	// LoadTable reads the named table back. Category columns keep their stored order.
	LoadTable(ctx context.Context, name string) (table.Table, error)

	// LatestRun returns the most recent ledger entry for the named table.
	LatestRun(ctx context.Context, name string) (Run, bool, error)
}

// Run is one ETL ledger entry.
type Run struct {
	ID          string
	Table       string
	Rows        int
	Columns     []string
	Fingerprint string
	CreatedAt   time.Time
}

var identPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// ValidateName checks a destination table name.
func ValidateName(name string) error {
	if !identPattern.MatchString(name) {
		return fmt.Errorf("%w: table name %q", internalerr.ErrInvalidInput, name)
	}
	if strings.EqualFold(name, RunsTable) {
		return fmt.Errorf("%w: table name %q is reserved", internalerr.ErrInvalidInput, name)
	}
	return nil
}

// SchemaFromColumns splits a stored column list into the fixed columns and
// the category schema.
func SchemaFromColumns(cols []string) (labels.Schema, error) {
	if len(cols) < len(table.FixedColumns) {
		return labels.Schema{}, fmt.Errorf("%w: table has %d columns", internalerr.ErrInvalidInput, len(cols))
	}
	for i, want := range table.FixedColumns {
		if !strings.EqualFold(cols[i], want) {
			return labels.Schema{}, fmt.Errorf("%w: column %d is %q, expected %q", internalerr.ErrInvalidInput, i, cols[i], want)
		}
	}
	return labels.NewSchema(cols[len(table.FixedColumns):])
}

// RowScanner is the subset of *sql.Rows used to read a table.
type RowScanner interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
}

// ScanRows reads rows laid out as table.FixedColumns followed by schema columns.
func ScanRows(rs RowScanner, schema labels.Schema) ([]table.Row, error) {
	names := schema.Names()
	var out []table.Row
	for rs.Next() {
		var (
			r                        table.Row
			message, original, genre sql.NullString
			values                   = make([]int64, len(names))
		)
		dest := make([]any, 0, len(table.FixedColumns)+len(names))
		dest = append(dest, &r.ID, &message, &original, &genre)
		for i := range values {
			dest = append(dest, &values[i])
		}
		if err := rs.Scan(dest...); err != nil {
			return nil, err
		}
		// tables written by other tools store missing text as NULL
		r.Message, r.Original, r.Genre = message.String, original.String, genre.String
		r.Labels = make([]labels.Label, len(names))
		for i, name := range names {
			r.Labels[i] = labels.Label{Name: name, Value: labels.Clamp(int(values[i]))}
		}
		out = append(out, r)
	}
	return out, rs.Err()
}

// NewRun fills a ledger entry for t.
func NewRun(id, name string, t table.Table, now time.Time) Run {
	return Run{
		ID:          id,
		Table:       name,
		Rows:        len(t.Rows),
		Columns:     t.Columns(),
		Fingerprint: t.Schema.Fingerprint(),
		CreatedAt:   now.UTC(),
	}
}
