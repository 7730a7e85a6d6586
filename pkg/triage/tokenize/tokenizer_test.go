package tokenize

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"golang.org/x/text/language"
)

func equalTokens(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestTokenizeBasic(t *testing.T) {
	tok := NewTokenizer(NewLemmatizer(), language.English)

	cases := []struct {
		in   string
		want []string
	}{
		{"Send help now!", []string{"send", "help", "now", "!"}},
		{"We need tents and blankets", []string{"we", "need", "tent", "and", "blanket"}},
		{"Floods in the cities", []string{"flood", "in", "the", "city"}},
		{"3.5 inches of rain, 1,000 homes", []string{"3.5", "inch", "of", "rain", ",", "1,000", "home"}},
		{"The children don't have food", []string{"the", "child", "do", "n't", "have", "food"}},
		{"Haiti's roads are closed...", []string{"haiti", "'s", "road", "are", "closed", "..."}},
		{"well-being of families", []string{"well-being", "of", "family"}},
		{"the news", []string{"the", "news"}},
	}
	for _, tc := range cases {
		got := tok.Tokenize(tc.in)
		if !equalTokens(got, tc.want) {
			t.Errorf("Tokenize(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestTokenizeEmpty(t *testing.T) {
	tok := NewTokenizer(NewLemmatizer(), language.English)

	for _, in := range []string{"", "   ", "\t\n"} {
		if got := tok.Tokenize(in); len(got) != 0 {
			t.Errorf("Tokenize(%q) should be empty, got %q", in, got)
		}
	}
}

func TestTokenizeLowercaseAndTrimmed(t *testing.T) {
	tok := NewTokenizer(NewLemmatizer(), language.English)

	for _, tk := range tok.Tokenize("URGENT: Need WATER in Port-au-Prince") {
		if tk != strings.ToLower(tk) {
			t.Errorf("Token %q should be lowercased", tk)
		}
		if tk != strings.TrimSpace(tk) || tk == "" {
			t.Errorf("Token %q should be trimmed and non-empty", tk)
		}
	}
}

func TestTokenizeStripsMarkup(t *testing.T) {
	tok := NewTokenizer(nil, language.English)

	got := tok.Tokenize("<p>Water &amp; food</p><script>alert(1)</script>")
	want := []string{"water", "&", "food"}
	if !equalTokens(got, want) {
		t.Errorf("Got %q, want %q", got, want)
	}

	tok.SetStripMarkup(false)
	if got := tok.Tokenize("a &amp; b"); !equalTokens(got, []string{"a", "&", "amp", ";", "b"}) {
		t.Errorf("Markup should be kept when disabled, got %q", got)
	}
}

func TestTokenizeKeepsTextAroundStrayAngles(t *testing.T) {
	tok := NewTokenizer(nil, language.English)

	tests := []struct {
		in   string
		want []string
	}{
		{"need water<food now", []string{"need", "water", "<", "food", "now"}},
		{"5<x and more text", []string{"5", "<", "x", "and", "more", "text"}},
		{"send help <urgent> please", []string{"send", "help", "<", "urgent", ">", "please"}},
		{"send <b>help</b> now", []string{"send", "help", "now"}},
	}
	for _, tt := range tests {
		if got := tok.Tokenize(tt.in); !equalTokens(got, tt.want) {
			t.Errorf("Tokenize(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestTokenizeUnicodeNormalization(t *testing.T) {
	tok := NewTokenizer(nil, language.English)

	// the "fi" ligature folds under NFKC
	if got := tok.Tokenize("ﬁre"); !equalTokens(got, []string{"fire"}) {
		t.Errorf("Got %q, want [fire]", got)
	}
	// curly apostrophe behaves like a straight one
	if got := tok.Tokenize("can’t"); !equalTokens(got, []string{"ca", "n't"}) {
		t.Errorf("Got %q, want [ca n't]", got)
	}
}

func TestTokenizeLanguageAwareLowercase(t *testing.T) {
	tr := NewTokenizer(nil, language.Turkish)
	if got := tr.Tokenize("IRMAK"); !equalTokens(got, []string{"ırmak"}) {
		t.Errorf("Turkish lowercase: got %q", got)
	}

	en := NewTokenizer(nil, language.English)
	if got := en.Tokenize("IRMAK"); !equalTokens(got, []string{"irmak"}) {
		t.Errorf("English lowercase: got %q", got)
	}
}

func TestTokenizePreservesOrder(t *testing.T) {
	tok := NewTokenizer(nil, language.English)

	got := tok.Tokenize("one two three two one")
	want := []string{"one", "two", "three", "two", "one"}
	if !equalTokens(got, want) {
		t.Errorf("Got %q, want %q", got, want)
	}
}

func TestSegmentPunctuation(t *testing.T) {
	got := Segment(`"Help!!" (#haiti) @redcross`)
	want := []string{`"`, "Help", "!", "!", `"`, "(", "#", "haiti", ")", "@", "redcross"}
	if !equalTokens(got, want) {
		t.Errorf("Segment = %q, want %q", got, want)
	}
}

func TestLemmatize(t *testing.T) {
	lem := NewLemmatizer()

	cases := map[string]string{
		"floods":    "flood",
		"Children":  "child",
		"supplies":  "supply",
		"boxes":     "box",
		"churches":  "church",
		"addresses": "address",
		"buses":     "bus",
		"gases":     "gas",
		"viruses":   "virus",
		"campuses":  "campus",
		"houses":    "house",
		"causes":    "cause",
		"blouses":   "blouse",
		"excuses":   "excuse",
		"cases":     "case",
		"news":      "news",
		"crisis":    "crisis",
		"status":    "status",
		"was":       "was",
		"1990s":     "1990s",
		"water":     "water",
		"!":         "!",
	}
	for in, want := range cases {
		if got := lem.Lemmatize(in); got != want {
			t.Errorf("Lemmatize(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestLemmatizeWithVocabulary(t *testing.T) {
	lem := NewLemmatizer()
	lem.AddVocabulary("house", "glass", "tie")

	cases := map[string]string{
		"houses":  "house",
		"glasses": "glass",
		"ties":    "tie",
		"floods":  "floods", // not in vocabulary
	}
	for in, want := range cases {
		if got := lem.Lemmatize(in); got != want {
			t.Errorf("Lemmatize(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestLoadLemmasYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lemmas.yaml")
	content := `
exceptions:
  - lemma: person
    forms: [people, persons]
invariants: [refugees]
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	lem, err := LoadLemmasYAML(path)
	if err != nil {
		t.Fatalf("LoadLemmasYAML: %v", err)
	}
	if got := lem.Lemmatize("People"); got != "person" {
		t.Errorf("Lemmatize(People) = %q", got)
	}
	if got := lem.Lemmatize("refugees"); got != "refugees" {
		t.Errorf("Invariant should stay, got %q", got)
	}
	// defaults still apply
	if got := lem.Lemmatize("children"); got != "child" {
		t.Errorf("Lemmatize(children) = %q", got)
	}

	if _, err := LoadLemmasYAML(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("Missing file should error")
	}
}
