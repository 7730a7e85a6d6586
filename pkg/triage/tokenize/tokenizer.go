package tokenize

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"
)

// Tokenizer turns free text into the normalized token sequence consumed by
// classifiers: markup stripping, NFKC, word segmentation, lemmatization,
// lower-casing, whitespace trimming.
type Tokenizer struct {
	lemmatizer  *Lemmatizer // Optional: nil keeps surface forms
	lang        language.Tag
	stripMarkup bool
}

// NewTokenizer creates a tokenizer for the given language.
// Lower-casing follows the language's rules (e.g. Turkish dotted I).
func NewTokenizer(lem *Lemmatizer, lang language.Tag) *Tokenizer {
	return &Tokenizer{lemmatizer: lem, lang: lang, stripMarkup: true}
}

// SetLemmatizer assigns the lemmatizer used for base-form reduction.
func (t *Tokenizer) SetLemmatizer(lem *Lemmatizer) {
	t.lemmatizer = lem
}

// SetStripMarkup toggles HTML tag and entity removal.
func (t *Tokenizer) SetStripMarkup(on bool) {
	t.stripMarkup = on
}

// Language returns the tag used for case mapping.
func (t *Tokenizer) Language() language.Tag { return t.lang }

var quoteReplacer = strings.NewReplacer("’", "'", "‘", "'", "“", "\"", "”", "\"")

// Tokenize splits text into normalized tokens, preserving order.
// Empty input yields an empty sequence.
func (t *Tokenizer) Tokenize(text string) []string {
	if t.stripMarkup {
		text = StripMarkup(text)
	}
	text = quoteReplacer.Replace(norm.NFKC.String(text))

	// a Caser holds state, so each call gets its own
	lower := cases.Lower(t.lang)

	var tokens []string
	for _, raw := range Segment(text) {
		tok := raw
		if t.lemmatizer != nil {
			tok = t.lemmatizer.Lemmatize(tok)
		}
		tok = strings.TrimSpace(lower.String(tok))
		if tok != "" {
			tokens = append(tokens, tok)
		}
	}
	return tokens
}

// Segment splits text into word and punctuation tokens in the Penn Treebank
// manner: punctuation stands alone, contractions split off their clitic
// ("don't" → "do", "n't"; "it's" → "it", "'s").
func Segment(text string) []string {
	var tokens []string
	for _, chunk := range strings.Fields(text) {
		tokens = segmentChunk(tokens, []rune(chunk))
	}
	return tokens
}

func segmentChunk(tokens []string, rs []rune) []string {
	for i := 0; i < len(rs); {
		if isWordRune(rs[i]) {
			j := i + 1
			for j < len(rs) {
				if isWordRune(rs[j]) {
					j++
					continue
				}
				if j+1 < len(rs) && joins(rs[j-1], rs[j], rs[j+1]) {
					j += 2
					continue
				}
				break
			}
			tokens = append(tokens, splitClitic(string(rs[i:j]))...)
			i = j
			continue
		}

		// runs of dots form one token ("..."), other punctuation stands alone
		j := i + 1
		if rs[i] == '.' {
			for j < len(rs) && rs[j] == '.' {
				j++
			}
		}
		tokens = append(tokens, string(rs[i:j]))
		i = j
	}
	return tokens
}

// joins reports whether mid glues prev and next into one word:
// hyphenated words, apostrophes between letters, decimal and thousands separators.
func joins(prev, mid, next rune) bool {
	switch mid {
	case '-':
		return isWordRune(prev) && isWordRune(next)
	case '\'':
		return unicode.IsLetter(prev) && unicode.IsLetter(next)
	case '.', ',':
		return unicode.IsDigit(prev) && unicode.IsDigit(next)
	}
	return false
}

var clitics = []string{"'s", "'m", "'d", "'re", "'ve", "'ll"}

func splitClitic(word string) []string {
	lower := strings.ToLower(word)
	if strings.HasSuffix(lower, "n't") && len(word) > 3 {
		cut := len(word) - 3
		return []string{word[:cut], word[cut:]}
	}
	for _, c := range clitics {
		if strings.HasSuffix(lower, c) && len(word) > len(c) {
			cut := len(word) - len(c)
			return []string{word[:cut], word[cut:]}
		}
	}
	return []string{word}
}

func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsNumber(r) || unicode.IsMark(r) || r == '_'
}
