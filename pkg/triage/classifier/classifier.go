package classifier

import "context"

// Classifier is a pre-built multi-label model. For every text in batch it
// returns one prediction vector, positionally aligned with the category
// schema the model was trained on.
type Classifier interface {
	Predict(ctx context.Context, batch []string) ([][]float64, error)
}

// Labeler is implemented by classifiers that can report their output order.
type Labeler interface {
	Labels(ctx context.Context) ([]string, error)
}

// Func adapts a function to the Classifier interface.
type Func func(ctx context.Context, batch []string) ([][]float64, error)

// Predict implements Classifier.
func (f Func) Predict(ctx context.Context, batch []string) ([][]float64, error) {
	return f(ctx, batch)
}
