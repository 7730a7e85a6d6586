package keyword

import (
	"context"
	"strings"
)

// Tokenizer produces the normalized token stream the model matches against.
type Tokenizer interface {
	Tokenize(text string) []string
}

// Model is a local keyword classifier: a category fires when any of its
// keywords (single tokens or phrases) occurs in the tokenized text.
type Model struct {
	names     []string
	keywords  map[string][]string // category → normalized phrases
	tokenizer Tokenizer
	umbrella  string
}

// New creates a model emitting vectors in the order of names.
func New(names []string, tokenizer Tokenizer) *Model {
	return &Model{
		names:     append([]string(nil), names...),
		keywords:  make(map[string][]string),
		tokenizer: tokenizer,
	}
}

// AddCategory registers keywords for a category. Keywords pass through the
// same tokenizer as queries so inflected forms line up.
func (m *Model) AddCategory(name string, keywords []string) {
	for _, kw := range keywords {
		phrase := strings.Join(m.tokenizer.Tokenize(kw), " ")
		if phrase != "" {
			m.keywords[name] = append(m.keywords[name], phrase)
		}
	}
}

// SetUmbrella names a category that fires whenever any other category does
// (e.g. "related").
func (m *Model) SetUmbrella(name string) {
	m.umbrella = name
}

// Predict implements classifier.Classifier.
func (m *Model) Predict(ctx context.Context, batch []string) ([][]float64, error) {
	out := make([][]float64, len(batch))
	for i, text := range batch {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		out[i] = m.vector(text)
	}
	return out, nil
}

// Labels implements classifier.Labeler.
func (m *Model) Labels(ctx context.Context) ([]string, error) {
	return append([]string(nil), m.names...), nil
}

func (m *Model) vector(text string) []float64 {
	padded := " " + strings.Join(m.tokenizer.Tokenize(text), " ") + " "

	vec := make([]float64, len(m.names))
	umbrella := -1
	hit := false
	for i, name := range m.names {
		if name == m.umbrella {
			umbrella = i
		}
		for _, kw := range m.keywords[name] {
			if strings.Contains(padded, " "+kw+" ") {
				vec[i] = 1
				hit = true
				break
			}
		}
	}
	if umbrella >= 0 && hit {
		vec[umbrella] = 1
	}
	return vec
}
