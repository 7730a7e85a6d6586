package labels

import (
	"fmt"
	"strings"

	"github.com/cognicore/triage/pkg/triage/internalerr"
)

// Delimiters of the encoded category field, e.g. "related-1;request-0;offer-0".
const (
	FieldDelimiter = ";"
	PairDelimiter  = "-"
)

// Policy decides what happens to a row whose token layout differs from row 0.
type Policy string

const (
	// PolicyPositional reads values by position and never compares names.
	PolicyPositional Policy = "positional"
	// PolicyQuarantine drops divergent rows and reports them.
	PolicyQuarantine Policy = "quarantine"
	// PolicyStrict aborts the parse on the first divergent row.
	PolicyStrict Policy = "strict"
)

// ParsePolicy maps a config string to a Policy. Empty means quarantine.
func ParsePolicy(s string) (Policy, error) {
	switch Policy(strings.ToLower(strings.TrimSpace(s))) {
	case "", PolicyQuarantine:
		return PolicyQuarantine, nil
	case PolicyPositional:
		return PolicyPositional, nil
	case PolicyStrict:
		return PolicyStrict, nil
	}
	return "", fmt.Errorf("%w: unknown layout policy %q", internalerr.ErrInvalidConfig, s)
}

// Rejected describes a quarantined row.
type Rejected struct {
	Row    int
	Field  string
	Reason string
}

// ParseResult holds the expanded label matrix.
// Rows is aligned with the input; quarantined rows have a nil entry.
type ParseResult struct {
	Schema      Schema
	Rows        [][]Label
	Quarantined []Rejected
}

// Parser expands encoded category fields into binary label rows.
type Parser struct {
	policy Policy
}

// NewParser creates a parser with the given layout policy.
func NewParser(policy Policy) *Parser {
	if policy == "" {
		policy = PolicyQuarantine
	}
	return &Parser{policy: policy}
}

// Policy returns the layout policy in effect.
func (p *Parser) Policy() Policy { return p.policy }

// DeriveSchema reads the category names out of one encoded field.
func DeriveSchema(encoded string) (Schema, error) {
	tokens := splitField(encoded)
	names := make([]string, len(tokens))
	for i, tok := range tokens {
		name, _, _ := strings.Cut(tok, PairDelimiter)
		name = strings.TrimSpace(name)
		if name == "" {
			return Schema{}, fmt.Errorf("%w: token %d %q has no category name", internalerr.ErrMalformedRow, i, tok)
		}
		names[i] = name
	}
	schema, err := NewSchema(names)
	if err != nil {
		return Schema{}, fmt.Errorf("%w: %v", internalerr.ErrMalformedRow, err)
	}
	return schema, nil
}

// Parse derives the schema from fields[0] and expands every field against it.
func (p *Parser) Parse(fields []string) (ParseResult, error) {
	if len(fields) == 0 {
		return ParseResult{}, fmt.Errorf("%w: no category rows", internalerr.ErrInvalidInput)
	}

	schema, err := DeriveSchema(fields[0])
	if err != nil {
		return ParseResult{}, fmt.Errorf("derive schema from row 0: %w", err)
	}

	result := ParseResult{
		Schema: schema,
		Rows:   make([][]Label, len(fields)),
	}
	for i, field := range fields {
		row, err := p.parseRow(schema, field)
		if err == nil {
			result.Rows[i] = row
			continue
		}
		if p.policy != PolicyQuarantine {
			return ParseResult{}, fmt.Errorf("row %d: %w", i, err)
		}
		result.Quarantined = append(result.Quarantined, Rejected{Row: i, Field: field, Reason: err.Error()})
	}
	return result, nil
}

func (p *Parser) parseRow(schema Schema, field string) ([]Label, error) {
	tokens := splitField(field)

	if p.policy == PolicyPositional {
		// extra trailing tokens have no column to land in
		if len(tokens) < schema.Len() {
			return nil, fmt.Errorf("%w: %d tokens, schema needs %d", internalerr.ErrMalformedRow, len(tokens), schema.Len())
		}
	} else if len(tokens) != schema.Len() {
		return nil, fmt.Errorf("%w: %d tokens, schema has %d", internalerr.ErrMalformedRow, len(tokens), schema.Len())
	}

	row := make([]Label, schema.Len())
	for i, name := range schema.names {
		tok := tokens[i]
		if p.policy != PolicyPositional {
			got, _, _ := strings.Cut(tok, PairDelimiter)
			if strings.TrimSpace(got) != name {
				return nil, fmt.Errorf("%w: token %d is %q, expected category %q", internalerr.ErrMalformedRow, i, got, name)
			}
		}
		v, err := trailingValue(tok)
		if err != nil {
			return nil, err
		}
		row[i] = Label{Name: name, Value: Clamp(v)}
	}
	return row, nil
}

// trailingValue reads the last character of a name-value token as an integer.
func trailingValue(tok string) (int, error) {
	if tok == "" {
		return 0, fmt.Errorf("%w: empty token", internalerr.ErrMalformedRow)
	}
	c := tok[len(tok)-1]
	if c < '0' || c > '9' {
		return 0, fmt.Errorf("%w: token %q does not end in a digit", internalerr.ErrMalformedRow, tok)
	}
	return int(c - '0'), nil
}

// Clamp coerces an integer into the binary domain.
func Clamp(v int) uint8 {
	if v <= 0 {
		return 0
	}
	return 1
}

func splitField(field string) []string {
	parts := strings.Split(strings.TrimSpace(field), FieldDelimiter)
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return parts
}
