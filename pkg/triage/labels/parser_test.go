package labels

import (
	"errors"
	"testing"

	"github.com/cognicore/triage/pkg/triage/internalerr"
)

func TestParseClampsStrayValues(t *testing.T) {
	p := NewParser(PolicyQuarantine)

	res, err := p.Parse([]string{"related-1;request-0;offer-2"})
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	want := []Label{{"related", 1}, {"request", 0}, {"offer", 1}}
	got := res.Rows[0]
	if len(got) != len(want) {
		t.Fatalf("Expected %d labels, got %d", len(want), len(got))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("label %d: got %+v, want %+v", i, got[i], want[i])
		}
	}
}

func TestClamp(t *testing.T) {
	cases := map[int]uint8{-3: 0, -1: 0, 0: 0, 1: 1, 2: 1, 9: 1}
	for in, want := range cases {
		if got := Clamp(in); got != want {
			t.Errorf("Clamp(%d) = %d, want %d", in, got, want)
		}
	}
}

func TestParseEveryDigitStaysBinary(t *testing.T) {
	p := NewParser(PolicyStrict)
	for d := '0'; d <= '9'; d++ {
		field := "related-" + string(d)
		res, err := p.Parse([]string{field})
		if err != nil {
			t.Fatalf("Parse(%q): %v", field, err)
		}
		if v := res.Rows[0][0].Value; v > 1 {
			t.Errorf("Parse(%q) produced %d", field, v)
		}
	}
}

func TestSchemaComesFromFirstRow(t *testing.T) {
	p := NewParser(PolicyPositional)

	res, err := p.Parse([]string{
		"related-1;request-0",
		"water-1;food-1",
		"related-0;request-1;offer-1",
	})
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	names := res.Schema.Names()
	if len(names) != 2 || names[0] != "related" || names[1] != "request" {
		t.Fatalf("Schema should come from row 0, got %v", names)
	}

	// positional reading ignores names of later rows
	if res.Rows[1][0].Name != "related" || res.Rows[1][0].Value != 1 {
		t.Errorf("Unexpected positional row: %+v", res.Rows[1])
	}
	if len(res.Rows[2]) != 2 {
		t.Errorf("Extra tokens should not add columns, got %+v", res.Rows[2])
	}
}

func TestParseQuarantinesDivergentRows(t *testing.T) {
	p := NewParser(PolicyQuarantine)

	res, err := p.Parse([]string{
		"related-1;request-0",
		"request-0;related-1",
		"related-1",
		"related-0;request-1",
	})
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	if len(res.Quarantined) != 2 {
		t.Fatalf("Expected 2 quarantined rows, got %d: %+v", len(res.Quarantined), res.Quarantined)
	}
	if res.Quarantined[0].Row != 1 || res.Quarantined[1].Row != 2 {
		t.Errorf("Wrong rows quarantined: %+v", res.Quarantined)
	}
	if res.Rows[1] != nil || res.Rows[2] != nil {
		t.Error("Quarantined rows should have nil labels")
	}
	if res.Rows[3][1].Value != 1 {
		t.Errorf("Row 3 should parse, got %+v", res.Rows[3])
	}
}

func TestParseStrictRejectsDivergentRow(t *testing.T) {
	p := NewParser(PolicyStrict)

	_, err := p.Parse([]string{"related-1;request-0", "related-1;offer-0"})
	if !errors.Is(err, internalerr.ErrMalformedRow) {
		t.Fatalf("Expected ErrMalformedRow, got %v", err)
	}
}

func TestParsePositionalMissingTokens(t *testing.T) {
	p := NewParser(PolicyPositional)

	_, err := p.Parse([]string{"related-1;request-0", "related-1"})
	if !errors.Is(err, internalerr.ErrMalformedRow) {
		t.Fatalf("Expected ErrMalformedRow, got %v", err)
	}
}

func TestParseNonDigitValue(t *testing.T) {
	p := NewParser(PolicyStrict)

	_, err := p.Parse([]string{"related-x"})
	if !errors.Is(err, internalerr.ErrMalformedRow) {
		t.Fatalf("Expected ErrMalformedRow, got %v", err)
	}
}

func TestParseEmpty(t *testing.T) {
	_, err := NewParser(PolicyQuarantine).Parse(nil)
	if !errors.Is(err, internalerr.ErrInvalidInput) {
		t.Fatalf("Expected ErrInvalidInput, got %v", err)
	}
}

func TestDeriveSchemaRejectsDuplicates(t *testing.T) {
	if _, err := DeriveSchema("related-1;related-0"); err == nil {
		t.Error("Duplicate names should be rejected")
	}
	if _, err := DeriveSchema("-1;request-0"); err == nil {
		t.Error("Empty name should be rejected")
	}
}

func TestParsePolicy(t *testing.T) {
	for in, want := range map[string]Policy{
		"":           PolicyQuarantine,
		"STRICT":     PolicyStrict,
		"positional": PolicyPositional,
	} {
		got, err := ParsePolicy(in)
		if err != nil || got != want {
			t.Errorf("ParsePolicy(%q) = %q, %v", in, got, err)
		}
	}
	if _, err := ParsePolicy("repair"); !errors.Is(err, internalerr.ErrInvalidConfig) {
		t.Errorf("Expected ErrInvalidConfig, got %v", err)
	}
}
