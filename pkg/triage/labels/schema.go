package labels

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/cognicore/triage/pkg/triage/internalerr"
)

// Label pairs a category name with its binary value.
type Label struct {
	Name  string `json:"name"`
	Value uint8  `json:"value"`
}

// Schema is the ordered set of category names shared by the label matrix,
// the persisted table and the classifier output.
type Schema struct {
	names []string
	index map[string]int
}

// NewSchema builds a schema from ordered names. Names must be non-empty and unique.
func NewSchema(names []string) (Schema, error) {
	s := Schema{
		names: make([]string, len(names)),
		index: make(map[string]int, len(names)),
	}
	for i, name := range names {
		if name == "" {
			return Schema{}, fmt.Errorf("%w: empty category name at position %d", internalerr.ErrInvalidInput, i)
		}
		if _, dup := s.index[name]; dup {
			return Schema{}, fmt.Errorf("%w: duplicate category name %q", internalerr.ErrInvalidInput, name)
		}
		s.names[i] = name
		s.index[name] = i
	}
	return s, nil
}

// Names returns a copy of the ordered category names.
func (s Schema) Names() []string {
	out := make([]string, len(s.names))
	copy(out, s.names)
	return out
}

// Len returns the number of categories.
func (s Schema) Len() int { return len(s.names) }

// Index returns the position of a category name.
func (s Schema) Index(name string) (int, bool) {
	i, ok := s.index[name]
	return i, ok
}

// Equal reports whether both schemas carry the same names in the same order.
func (s Schema) Equal(other Schema) bool {
	if len(s.names) != len(other.names) {
		return false
	}
	for i := range s.names {
		if s.names[i] != other.names[i] {
			return false
		}
	}
	return true
}

// Fingerprint identifies the schema version: a hex sha256 over the ordered names.
func (s Schema) Fingerprint() string {
	sum := sha256.Sum256([]byte(strings.Join(s.names, "\n")))
	return hex.EncodeToString(sum[:])
}

// Pair zips the schema names with values in order.
// A length mismatch means the producer of values and the schema have drifted.
func (s Schema) Pair(values []uint8) ([]Label, error) {
	if len(values) != len(s.names) {
		return nil, fmt.Errorf("%w: schema has %d categories, got %d values",
			internalerr.ErrSchemaDrift, len(s.names), len(values))
	}
	out := make([]Label, len(values))
	for i, v := range values {
		out[i] = Label{Name: s.names[i], Value: v}
	}
	return out, nil
}

// Conforms checks that ls carries exactly the schema's names, in order,
// with values in {0,1}.
func (s Schema) Conforms(ls []Label) error {
	if len(ls) != len(s.names) {
		return fmt.Errorf("%w: expected %d labels, got %d", internalerr.ErrMalformedRow, len(s.names), len(ls))
	}
	for i, l := range ls {
		if l.Name != s.names[i] {
			return fmt.Errorf("%w: label %d is %q, schema expects %q", internalerr.ErrMalformedRow, i, l.Name, s.names[i])
		}
		if l.Value > 1 {
			return fmt.Errorf("%w: label %q has non-binary value %d", internalerr.ErrMalformedRow, l.Name, l.Value)
		}
	}
	return nil
}
