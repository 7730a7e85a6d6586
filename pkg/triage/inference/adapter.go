package inference

import (
	"context"
	"fmt"
	"math"
	"strings"

	"go.uber.org/zap"

	"github.com/cognicore/triage/pkg/triage/classifier"
	"github.com/cognicore/triage/pkg/triage/internalerr"
	"github.com/cognicore/triage/pkg/triage/labels"
)

// Threshold is the cut-off at which a prediction value counts as 1.
const Threshold = 0.5

// Result is the classification of one query, in schema order.
type Result struct {
	Query  string         `json:"query"`
	Labels []labels.Label `json:"classification_result"`
}

// Map returns the labels keyed by category name.
func (r Result) Map() map[string]uint8 {
	out := make(map[string]uint8, len(r.Labels))
	for _, l := range r.Labels {
		out[l.Name] = l.Value
	}
	return out
}

// Empty reports whether the result carries no labels.
func (r Result) Empty() bool { return len(r.Labels) == 0 }

// Adapter pairs classifier output with category names. It is immutable after
// construction and safe for concurrent use if the classifier is.
type Adapter struct {
	schema labels.Schema
	model  classifier.Classifier
	logger *zap.Logger
}

// NewAdapter creates an adapter for a model trained on schema.
func NewAdapter(schema labels.Schema, model classifier.Classifier, logger *zap.Logger) *Adapter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Adapter{schema: schema, model: model, logger: logger}
}

// Schema returns the category schema results are paired with.
func (a *Adapter) Schema() labels.Schema { return a.schema }

// Classify runs the model on a single query.
//
// An empty or whitespace-only query yields an empty Result without calling
// the model. A prediction whose length differs from the schema is reported
// as ErrSchemaDrift; it is never truncated or padded.
func (a *Adapter) Classify(ctx context.Context, query string) (Result, error) {
	if strings.TrimSpace(query) == "" {
		return Result{Query: query}, nil
	}

	out, err := a.model.Predict(ctx, []string{query})
	if err != nil {
		return Result{}, fmt.Errorf("classify: %w", err)
	}
	if len(out) != 1 {
		return Result{}, fmt.Errorf("%w: classifier returned %d predictions for 1 query",
			internalerr.ErrSchemaDrift, len(out))
	}

	values, err := binarize(out[0])
	if err != nil {
		return Result{}, err
	}
	pairs, err := a.schema.Pair(values)
	if err != nil {
		a.logger.Error("prediction does not match schema",
			zap.Int("prediction_len", len(values)),
			zap.Int("schema_len", a.schema.Len()),
			zap.String("fingerprint", a.schema.Fingerprint()))
		return Result{}, err
	}
	return Result{Query: query, Labels: pairs}, nil
}

// CheckLabels compares the model's reported output order with the schema.
// Classifiers that cannot report their labels pass unchecked.
func (a *Adapter) CheckLabels(ctx context.Context) error {
	lb, ok := a.model.(classifier.Labeler)
	if !ok {
		return nil
	}
	names, err := lb.Labels(ctx)
	if err != nil {
		return fmt.Errorf("fetch model labels: %w", err)
	}
	got, err := labels.NewSchema(names)
	if err != nil {
		return fmt.Errorf("%w: model labels: %v", internalerr.ErrSchemaDrift, err)
	}
	if !got.Equal(a.schema) {
		return fmt.Errorf("%w: model emits %d categories (%s), table has %d (%s)",
			internalerr.ErrSchemaDrift, got.Len(), got.Fingerprint()[:12],
			a.schema.Len(), a.schema.Fingerprint()[:12])
	}
	return nil
}

func binarize(vec []float64) ([]uint8, error) {
	out := make([]uint8, len(vec))
	for i, v := range vec {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, fmt.Errorf("%w: prediction %d is %v", internalerr.ErrInvalidInput, i, v)
		}
		if v >= Threshold {
			out[i] = 1
		}
	}
	return out, nil
}
