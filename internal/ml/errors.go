package ml

import (
	"errors"
	"fmt"
)

var (
	// ErrEmptyDataset is returned when training is asked to run on no records.
	ErrEmptyDataset = errors.New("training dataset is empty")
	// ErrModelNotLoaded is returned when no trained model has been persisted yet.
	ErrModelNotLoaded = errors.New("model not loaded")
)

// FeatureArityMismatchError reports an input row whose width differs from
// the width the model was trained on.
type FeatureArityMismatchError struct {
	Expected int
	Got      int
}

func (e *FeatureArityMismatchError) Error() string {
	return fmt.Sprintf("feature arity mismatch: expected %d features, got %d", e.Expected, e.Got)
}
