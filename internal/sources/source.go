// Package sources holds the pieces shared by the off-chain data clients.
package sources

import (
	"errors"
	"time"
)

// ErrNoData is returned when a source answered but had nothing for the token.
var ErrNoData = errors.New("source returned no data")

// Metrics receives one observation per outbound request.
type Metrics interface {
	SourceRequestObserve(source string, seconds float64, err error)
}

type nopMetrics struct{}

func (nopMetrics) SourceRequestObserve(string, float64, error) {}

// OrNop returns m, or a no-op recorder when m is nil.
func OrNop(m Metrics) Metrics {
	if m == nil {
		return nopMetrics{}
	}
	return m
}

// Since is the elapsed time in seconds.
func Since(start time.Time) float64 {
	return time.Since(start).Seconds()
}
