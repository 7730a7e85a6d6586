package table

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/cognicore/triage/pkg/triage/labels"
)

// Fixed leading columns of the canonical table; category columns follow.
var FixedColumns = []string{"id", "message", "original", "genre"}

// Row is one message joined with its label row.
type Row struct {
	ID       int64
	Message  string
	Original string
	Genre    string
	Labels   []labels.Label
}

// Table is the cleaned, joined label matrix.
type Table struct {
	Schema labels.Schema
	Rows   []Row
}

// Columns returns the full ordered column list.
func (t Table) Columns() []string {
	cols := make([]string, 0, len(FixedColumns)+t.Schema.Len())
	cols = append(cols, FixedColumns...)
	return append(cols, t.Schema.Names()...)
}

// Validate checks every row against the schema. Column names are compared
// case-insensitively, as SQL identifiers are.
func (t Table) Validate() error {
	seen := make(map[string]string, t.Schema.Len())
	for _, name := range t.Schema.Names() {
		for _, fixed := range FixedColumns {
			if strings.EqualFold(name, fixed) {
				return fmt.Errorf("category %q collides with fixed column", name)
			}
		}
		folded := strings.ToLower(name)
		if prev, dup := seen[folded]; dup {
			return fmt.Errorf("categories %q and %q differ only in case", prev, name)
		}
		seen[folded] = name
	}
	for i, r := range t.Rows {
		if err := t.Schema.Conforms(r.Labels); err != nil {
			return fmt.Errorf("row %d (id %d): %w", i, r.ID, err)
		}
	}
	return nil
}

// Value returns the value of a named category.
func (r Row) Value(name string) (uint8, bool) {
	for _, l := range r.Labels {
		if l.Name == name {
			return l.Value, true
		}
	}
	return 0, false
}

// Equal reports full-row equality, labels included.
func (r Row) Equal(o Row) bool {
	if r.ID != o.ID || r.Message != o.Message || r.Original != o.Original || r.Genre != o.Genre {
		return false
	}
	if len(r.Labels) != len(o.Labels) {
		return false
	}
	for i := range r.Labels {
		if r.Labels[i] != o.Labels[i] {
			return false
		}
	}
	return true
}

// key is an unambiguous encoding of every column, used for duplicate detection.
func (r Row) key() string {
	var b strings.Builder
	b.WriteString(strconv.FormatInt(r.ID, 10))
	for _, s := range []string{r.Message, r.Original, r.Genre} {
		b.WriteByte('|')
		b.WriteString(strconv.Itoa(len(s)))
		b.WriteByte(':')
		b.WriteString(s)
	}
	for _, l := range r.Labels {
		b.WriteByte('|')
		b.WriteString(l.Name)
		b.WriteByte('=')
		b.WriteByte('0' + l.Value)
	}
	return b.String()
}

// Dedup removes exact duplicate rows. The first occurrence is kept and
// the relative order of kept rows is unchanged.
func Dedup(rows []Row) []Row {
	seen := make(map[string]struct{}, len(rows))
	out := make([]Row, 0, len(rows))
	for _, r := range rows {
		k := r.key()
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, r)
	}
	return out
}
