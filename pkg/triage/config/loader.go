package config

import (
	"fmt"
	"sort"
	"time"

	"golang.org/x/text/language"

	"github.com/cognicore/triage/pkg/triage/classifier"
	"github.com/cognicore/triage/pkg/triage/classifier/keyword"
	"github.com/cognicore/triage/pkg/triage/classifier/remote"
	"github.com/cognicore/triage/pkg/triage/internalerr"
	"github.com/cognicore/triage/pkg/triage/labels"
	"github.com/cognicore/triage/pkg/triage/tokenize"
)

// Loader loads the data files and constructs serving components
type Loader struct {
	LemmasPath   string
	KeywordsPath string
	Language     string
	StripMarkup  bool

	ClassifierKind string
	ClassifierURL  string
	APIKey         string
	Timeout        time.Duration
	Umbrella       string
}

// Components holds the constructed serving components
type Components struct {
	Tokenizer  *tokenize.Tokenizer
	Classifier classifier.Classifier
}

// Load reads the configured files and builds components for a model
// trained on schema.
func (l *Loader) Load(schema labels.Schema) (*Components, error) {
	comp := &Components{}

	lang := language.English
	if l.Language != "" {
		tag, err := language.Parse(l.Language)
		if err != nil {
			return nil, fmt.Errorf("%w: tokenizer language %q: %v", internalerr.ErrInvalidConfig, l.Language, err)
		}
		lang = tag
	}

	// Lemma exceptions
	lem := tokenize.NewLemmatizer()
	if l.LemmasPath != "" {
		loaded, err := tokenize.LoadLemmasYAML(l.LemmasPath)
		if err != nil {
			return nil, fmt.Errorf("load lemmas: %w", err)
		}
		lem = loaded
	}
	comp.Tokenizer = tokenize.NewTokenizer(lem, lang)
	comp.Tokenizer.SetStripMarkup(l.StripMarkup)

	switch l.ClassifierKind {
	case ClassifierRemote:
		if l.ClassifierURL == "" {
			return nil, fmt.Errorf("%w: remote classifier needs a base URL", internalerr.ErrInvalidConfig)
		}
		client := remote.New(l.ClassifierURL, l.Timeout)
		client.APIKey = l.APIKey
		comp.Classifier = client

	case ClassifierKeyword, "":
		model := keyword.New(schema.Names(), comp.Tokenizer)
		model.SetUmbrella(l.Umbrella)
		if l.KeywordsPath != "" {
			kw, err := LoadKeywords(l.KeywordsPath)
			if err != nil {
				return nil, fmt.Errorf("load keywords: %w", err)
			}
			names := make([]string, 0, len(kw.Categories))
			for name := range kw.Categories {
				if _, ok := schema.Index(name); !ok {
					return nil, fmt.Errorf("%w: keyword category %q is not in the table schema", internalerr.ErrInvalidConfig, name)
				}
				names = append(names, name)
			}
			sort.Strings(names)
			for _, name := range names {
				model.AddCategory(name, kw.Categories[name])
			}
		}
		comp.Classifier = model

	default:
		return nil, fmt.Errorf("%w: unknown classifier kind %q", internalerr.ErrInvalidConfig, l.ClassifierKind)
	}

	return comp, nil
}
