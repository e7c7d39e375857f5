package storage

import (
	"context"
	"errors"
	"time"

	"github.com/mollybeach/ai-rug-checker/internal/features"
)

// ErrNotFound is returned when a record or artifact does not exist.
var ErrNotFound = errors.New("not found")

// LabeledRecord is one token in the training corpus.
type LabeledRecord struct {
	Token     string                    `json:"token"`
	Chain     string                    `json:"chain"`
	Name      string                    `json:"name,omitempty"`
	Symbol    string                    `json:"symbol,omitempty"`
	Features  features.FeatureVector    `json:"features"`
	Aux       features.AuxiliarySignals `json:"auxiliary"`
	IsRugPull bool                      `json:"isRugPull"`
	Reason    string                    `json:"reason"`
	CreatedAt time.Time                 `json:"createdAt"`
	UpdatedAt time.Time                 `json:"updatedAt"`
}

// Key is the corpus key for the record, the normalized token address.
func (r LabeledRecord) Key() string {
	return features.NormalizeAddress(r.Token)
}

// Corpus is the labeled-record collection used for training and stats.
// Upsert replaces any record with the same token address.
type Corpus interface {
	Load(ctx context.Context) ([]LabeledRecord, error)
	Get(ctx context.Context, token string) (LabeledRecord, error)
	Upsert(ctx context.Context, rec LabeledRecord) error
	Count(ctx context.Context) (int, error)
	Close() error
}

// stamp fills timestamps for an upsert, keeping the first-seen time of an
// existing record.
func stamp(rec LabeledRecord, existing *LabeledRecord, now time.Time) LabeledRecord {
	rec.Token = rec.Key()
	rec.UpdatedAt = now
	switch {
	case existing != nil && !existing.CreatedAt.IsZero():
		rec.CreatedAt = existing.CreatedAt
	case rec.CreatedAt.IsZero():
		rec.CreatedAt = now
	}
	return rec
}
