package collector

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mollybeach/ai-rug-checker/internal/features"
	"github.com/mollybeach/ai-rug-checker/internal/risk"
	"github.com/mollybeach/ai-rug-checker/internal/storage"
)

type stubTransfers struct {
	transfers []features.Transfer
	err       error
	calls     atomic.Int32
}

func (s *stubTransfers) Transfers(ctx context.Context, token string) ([]features.Transfer, error) {
	s.calls.Add(1)
	return s.transfers, s.err
}

type stubMarket struct {
	snap *features.MarketSnapshot
	err  error
}

func (s *stubMarket) Snapshot(ctx context.Context, token string) (*features.MarketSnapshot, error) {
	return s.snap, s.err
}

type countingMetrics struct {
	mu      sync.Mutex
	upserts int
	size    int
}

func (m *countingMetrics) CorpusUpsertInc() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.upserts++
}

func (m *countingMetrics) CorpusSizeSet(n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.size = n
}

func healthySnapshot() *features.MarketSnapshot {
	return &features.MarketSnapshot{
		Name:         "Safe Token",
		Symbol:       "SAFE",
		PriceUSD:     1,
		Volume:       features.Windows{H24: 240000, H6: 60000, H1: 10000},
		LiquidityUSD: 2000000,
		PriceChange:  features.Windows{H24: 1, H6: 0.5, H1: 0.1},
		Txns24h:      features.TxnCounts{Buys: 500, Sells: 480},
		MarketCap:    50000000,
	}
}

func spreadTransfers(n int) []features.Transfer {
	out := make([]features.Transfer, n)
	for i := range out {
		out[i] = features.Transfer{
			From:      fmt.Sprintf("0xf%03d", i),
			To:        fmt.Sprintf("0xt%03d", i),
			Value:     float64(i%7 + 1),
			Timestamp: int64(1700000000 - i*37),
		}
	}
	return out
}

func newCollector(t *testing.T, g *Gatherer, m MetricsInterface) (*Collector, *storage.Store) {
	t.Helper()
	store, err := storage.New(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	scorer, err := risk.NewScorer(risk.DefaultConfig())
	require.NoError(t, err)
	return New(g, features.NewExtractor(features.DefaultConfig()), scorer, store, m, 3), store
}

func TestGather_BothSources(t *testing.T) {
	tr := &stubTransfers{transfers: spreadTransfers(10)}
	g := NewGatherer(&stubMarket{snap: healthySnapshot()}, map[string]TransferSource{"Ethereum": tr})

	got, err := g.Gather(context.Background(), " 0xABC ", "")
	require.NoError(t, err)
	assert.Equal(t, "0xabc", got.Evidence.Token)
	assert.Equal(t, "ethereum", got.Evidence.Chain)
	assert.Len(t, got.Evidence.Transfers, 10)
	assert.NotNil(t, got.Evidence.Market)
	assert.NoError(t, got.TransferErr)
	assert.NoError(t, got.MarketErr)
	assert.False(t, got.Empty())
}

func TestGather_DegradesOnSourceFailure(t *testing.T) {
	tr := &stubTransfers{err: errors.New("explorer down")}
	g := NewGatherer(&stubMarket{snap: healthySnapshot()}, map[string]TransferSource{"ethereum": tr})

	got, err := g.Gather(context.Background(), "0x1", "ethereum")
	require.NoError(t, err)
	assert.Error(t, got.TransferErr)
	assert.Nil(t, got.Evidence.Transfers)
	assert.NotNil(t, got.Evidence.Market)
}

func TestGather_UnknownChain(t *testing.T) {
	g := NewGatherer(nil, nil)

	got, err := g.Gather(context.Background(), "0x1", "tron")
	require.NoError(t, err)
	assert.True(t, got.Empty())
	assert.Error(t, got.TransferErr)
	assert.Error(t, got.MarketErr)
}

func TestCollect_StoresLabeledRecord(t *testing.T) {
	g := NewGatherer(&stubMarket{snap: healthySnapshot()},
		map[string]TransferSource{"ethereum": &stubTransfers{transfers: spreadTransfers(40)}})
	metrics := &countingMetrics{}
	c, store := newCollector(t, g, metrics)

	rec, err := c.Collect(context.Background(), "0xSAFE", "ethereum")
	require.NoError(t, err)
	assert.Equal(t, "Safe Token", rec.Name)
	assert.False(t, rec.IsRugPull)
	require.NoError(t, rec.Features.Validate())

	stored, err := store.Get(context.Background(), "0xsafe")
	require.NoError(t, err)
	assert.Equal(t, rec.Reason, stored.Reason)
	assert.Equal(t, 1, metrics.upserts)
}

func TestCollect_MissingEverythingIsRugUnderConservativeDefaults(t *testing.T) {
	// Only transfers: the market-derived safety features default to max risk.
	concentrated := make([]features.Transfer, 5)
	for i := range concentrated {
		concentrated[i] = features.Transfer{From: "0xdev", To: "0xsink", Value: float64(i + 1), Timestamp: int64(i * 60)}
	}
	g := NewGatherer(&stubMarket{err: errors.New("down")},
		map[string]TransferSource{"ethereum": &stubTransfers{transfers: concentrated}})
	c, _ := newCollector(t, g, nil)

	rec, err := c.Collect(context.Background(), "0xdark", "ethereum")
	require.NoError(t, err)
	assert.True(t, rec.IsRugPull)
	assert.Equal(t, 1.0, rec.Features.LiquidityScore)
}

func TestCollect_NoEvidence(t *testing.T) {
	g := NewGatherer(&stubMarket{err: errors.New("down")},
		map[string]TransferSource{"ethereum": &stubTransfers{err: errors.New("down")}})
	c, store := newCollector(t, g, nil)

	_, err := c.Collect(context.Background(), "0x1", "ethereum")
	assert.ErrorIs(t, err, ErrNoEvidence)

	n, err := store.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}

func TestCollect_EmptyToken(t *testing.T) {
	c, _ := newCollector(t, NewGatherer(nil, nil), nil)
	_, err := c.Collect(context.Background(), "  ", "ethereum")
	assert.Error(t, err)
}

func TestCollectBatch(t *testing.T) {
	tr := &stubTransfers{transfers: spreadTransfers(20)}
	market := &stubMarket{snap: healthySnapshot()}
	g := NewGatherer(market, map[string]TransferSource{"ethereum": tr})
	metrics := &countingMetrics{}
	c, _ := newCollector(t, g, metrics)

	tokens := []string{"0x01", "0x02", "0x03", "0x04", "0x05", "0x01"}
	res, err := c.CollectBatch(context.Background(), tokens, "ethereum")
	require.NoError(t, err)
	assert.Equal(t, 6, res.Stored)
	assert.Equal(t, 0, res.Failed)
	assert.Equal(t, int32(6), tr.calls.Load())
	assert.Equal(t, 5, metrics.size, "duplicate token replaces its record")
}

func TestCollectBatch_Cancelled(t *testing.T) {
	g := NewGatherer(&stubMarket{snap: healthySnapshot()},
		map[string]TransferSource{"ethereum": &stubTransfers{transfers: spreadTransfers(3)}})
	c, _ := newCollector(t, g, nil)

	ctx, cancel := context.WithTimeout(context.Background(), time.Nanosecond)
	defer cancel()
	<-ctx.Done()

	res, err := c.CollectBatch(ctx, []string{"0x01", "0x02"}, "ethereum")
	assert.Error(t, err)
	assert.Equal(t, 0, res.Stored)
}
