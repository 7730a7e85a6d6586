package tokenize

import (
	"os"
	"strings"
	"unicode"
	"unicode/utf8"

	"gopkg.in/yaml.v3"
)

// Lemmatizer reduces inflected noun forms to their dictionary base form:
// - Exceptions: irregular forms (children → child, feet → foot)
// - Invariants: words that end in "s" but are already base forms (news, series)
// - Vocabulary: optional known lemmas; when present, suffix rules only
//   produce candidates found in it
//
// Without a vocabulary, regular plural suffix rules apply.
type Lemmatizer struct {
	// inflected form -> lemma
	exceptions map[string]string

	invariants map[string]struct{}
	vocabulary map[string]struct{}
}

// NewLemmatizer creates a lemmatizer seeded with common English exceptions.
func NewLemmatizer() *Lemmatizer {
	l := &Lemmatizer{
		exceptions: make(map[string]string),
		invariants: make(map[string]struct{}),
		vocabulary: make(map[string]struct{}),
	}
	for lemma, forms := range defaultExceptions {
		l.AddException(lemma, forms...)
	}
	l.AddInvariant(defaultInvariants...)
	return l
}

var defaultExceptions = map[string][]string{
	"child":      {"children"},
	"man":        {"men"},
	"woman":      {"women"},
	"fireman":    {"firemen"},
	"policeman":  {"policemen"},
	"foot":       {"feet"},
	"tooth":      {"teeth"},
	"goose":      {"geese"},
	"mouse":      {"mice"},
	"ox":         {"oxen"},
	"datum":      {"data"},
	"criterion":  {"criteria"},
	"phenomenon": {"phenomena"},
	"crisis":     {"crises"},
	"leaf":       {"leaves"},
	"life":       {"lives"},
	"wife":       {"wives"},
	"knife":      {"knives"},
	"half":       {"halves"},
	"shelf":      {"shelves"},
	"thief":      {"thieves"},
	"wolf":       {"wolves"},
	"movie":      {"movies"},
	"bus":        {"buses", "busses"},
	"gas":        {"gases", "gasses"},
	"excuse":     {"excuses"},
	"refuse":     {"refuses"},
	"misuse":     {"misuses"},
}

var defaultInvariants = []string{
	"news", "series", "species", "means", "aids", "physics", "politics",
	"always", "perhaps", "sometimes", "besides", "towards", "afterwards",
	"whereas", "does", "goes", "clothes", "thanks", "lens", "chaos",
}

// LoadLemmasYAML loads exception and vocabulary entries from a YAML file,
// on top of the built-in defaults.
//
// Expected format:
//
//	exceptions:
//	  - lemma: child
//	    forms: [children]
//	invariants: [news, series]
//	vocabulary: [house, flood, shelter]
func LoadLemmasYAML(path string) (*Lemmatizer, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var config struct {
		Exceptions []struct {
			Lemma string   `yaml:"lemma"`
			Forms []string `yaml:"forms"`
		} `yaml:"exceptions"`
		Invariants []string `yaml:"invariants"`
		Vocabulary []string `yaml:"vocabulary"`
	}
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, err
	}

	l := NewLemmatizer()
	for _, e := range config.Exceptions {
		l.AddException(e.Lemma, e.Forms...)
	}
	l.AddInvariant(config.Invariants...)
	l.AddVocabulary(config.Vocabulary...)
	return l, nil
}

// AddException maps irregular forms to a lemma.
func (l *Lemmatizer) AddException(lemma string, forms ...string) {
	lemma = strings.ToLower(lemma)
	for _, f := range forms {
		l.exceptions[strings.ToLower(f)] = lemma
	}
}

// AddInvariant marks words that must never be reduced.
func (l *Lemmatizer) AddInvariant(words ...string) {
	for _, w := range words {
		l.invariants[strings.ToLower(w)] = struct{}{}
	}
}

// AddVocabulary registers known lemmas.
func (l *Lemmatizer) AddVocabulary(words ...string) {
	for _, w := range words {
		l.vocabulary[strings.ToLower(w)] = struct{}{}
	}
}

// Lemmatize returns the base form of token. Unchanged tokens are returned
// as given; reduced tokens come back lower-cased.
//
// Examples:
//   - Lemmatize("floods") -> "flood"
//   - Lemmatize("Children") -> "child"
//   - Lemmatize("news") -> "news"
func (l *Lemmatizer) Lemmatize(token string) string {
	if !hasLetter(token) {
		return token
	}
	lower := strings.ToLower(token)
	if lemma, ok := l.exceptions[lower]; ok {
		return lemma
	}
	if _, ok := l.invariants[lower]; ok {
		return token
	}

	if len(l.vocabulary) > 0 {
		return l.fromVocabulary(token, lower)
	}
	if lemma, ok := applySuffixRules(lower); ok {
		return lemma
	}
	return token
}

// fromVocabulary keeps the shortest known candidate, falling back to token.
func (l *Lemmatizer) fromVocabulary(token, lower string) string {
	best := ""
	for _, cand := range append([]string{lower}, suffixCandidates(lower)...) {
		if _, ok := l.vocabulary[cand]; !ok {
			continue
		}
		if best == "" || len(cand) < len(best) {
			best = cand
		}
	}
	if best == "" || best == lower {
		return token
	}
	return best
}

// nounSuffixes are plural endings and their replacements.
var nounSuffixes = []struct{ from, to string }{
	{"ies", "y"},
	{"sses", "ss"},
	{"ches", "ch"},
	{"shes", "sh"},
	{"xes", "x"},
	{"zes", "z"},
	{"ses", "s"},
	{"s", ""},
}

func suffixCandidates(word string) []string {
	var out []string
	for _, sfx := range nounSuffixes {
		if strings.HasSuffix(word, sfx.from) {
			out = append(out, strings.TrimSuffix(word, sfx.from)+sfx.to)
		}
	}
	return out
}

// applySuffixRules reduces regular plurals without a vocabulary.
func applySuffixRules(word string) (string, bool) {
	if len(word) <= 3 {
		return "", false
	}
	for _, keep := range []string{"ss", "us", "is"} {
		if strings.HasSuffix(word, keep) {
			return "", false
		}
	}

	switch {
	case strings.HasSuffix(word, "ies") && len(word) > 4:
		return strings.TrimSuffix(word, "ies") + "y", true
	case strings.HasSuffix(word, "sses"),
		strings.HasSuffix(word, "ches"),
		strings.HasSuffix(word, "shes"),
		strings.HasSuffix(word, "xes"),
		strings.HasSuffix(word, "zes"):
		return strings.TrimSuffix(word, "es"), true
	case strings.HasSuffix(word, "uses") && latinUs(strings.TrimSuffix(word, "es")):
		return strings.TrimSuffix(word, "es"), true
	case strings.HasSuffix(word, "s"):
		stem := strings.TrimSuffix(word, "s")
		// "1990s" and short words like "gas" stay as they are
		if last, _ := utf8.DecodeLastRuneInString(stem); len(stem) < 3 || !unicode.IsLetter(last) {
			return "", false
		}
		return stem, true
	}
	return "", false
}

// latinUs reports whether stem looks like a noun ending in a consonant
// followed by "us" (virus, bonus, campus). Shorter stems such as "hous" or
// "caus" take a final "e" instead.
func latinUs(stem string) bool {
	if len(stem) < 5 || !strings.HasSuffix(stem, "us") {
		return false
	}
	return !strings.ContainsRune("aeiou", rune(stem[len(stem)-3]))
}

func hasLetter(s string) bool {
	for _, r := range s {
		if unicode.IsLetter(r) {
			return true
		}
	}
	return false
}
