package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/mollybeach/ai-rug-checker/internal/features"
	"github.com/mollybeach/ai-rug-checker/internal/storage"
)

func setupCorpus(t *testing.T) *CorpusStore {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping postgres integration test in short mode")
	}

	ctx := context.Background()
	container, err := postgres.Run(ctx,
		"postgres:15-alpine",
		postgres.WithDatabase("rugcheck_test"),
		postgres.WithUsername("test"),
		postgres.WithPassword("test"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	if err != nil {
		t.Skipf("postgres container unavailable: %v", err)
	}
	t.Cleanup(func() { _ = container.Terminate(context.Background()) })

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	client, err := New(ctx, ClientConfig{DSN: dsn, MaxConns: 4})
	require.NoError(t, err)
	require.NoError(t, client.RunMigrations(ctx))

	store := NewCorpusStore(client)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func record(token string, rug bool) storage.LabeledRecord {
	return storage.LabeledRecord{
		Token:  token,
		Chain:  "ethereum",
		Name:   "Test Token",
		Symbol: "TT",
		Features: features.FeatureVector{
			VolumeAnomaly:       0.8,
			HolderConcentration: 0.9,
			LiquidityScore:      0.7,
			PriceVolatility:     0.4,
			SellPressure:        0.6,
			MarketCapRisk:       0.5,
		},
		Aux:       features.AuxiliarySignals{BundlerActivity: true, StealthAccumulation: 0.2, SuspiciousPattern: 0.5},
		IsRugPull: rug,
		Reason:    "High concentration of holders",
	}
}

func TestNew_EmptyDSN(t *testing.T) {
	_, err := New(context.Background(), ClientConfig{})
	assert.Error(t, err)
}

func TestCorpusStore_RoundTrip(t *testing.T) {
	store := setupCorpus(t)
	ctx := context.Background()

	require.NoError(t, store.Upsert(ctx, record("0xABCDEF", true)))

	got, err := store.Get(ctx, "0xabcdef")
	require.NoError(t, err)
	assert.Equal(t, "0xabcdef", got.Token)
	assert.Equal(t, "Test Token", got.Name)
	assert.True(t, got.IsRugPull)
	assert.InDelta(t, 0.9, got.Features.HolderConcentration, 1e-12)
	assert.True(t, got.Aux.BundlerActivity)
	assert.False(t, got.CreatedAt.IsZero())
}

func TestCorpusStore_UpsertReplacesAndKeepsCreatedAt(t *testing.T) {
	store := setupCorpus(t)
	ctx := context.Background()

	first := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return first }
	require.NoError(t, store.Upsert(ctx, record("0x01", true)))

	store.now = func() time.Time { return first.Add(time.Hour) }
	updated := record("0x01", false)
	updated.Reason = "No specific concerns identified"
	require.NoError(t, store.Upsert(ctx, updated))

	n, err := store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	got, err := store.Get(ctx, "0x01")
	require.NoError(t, err)
	assert.False(t, got.IsRugPull)
	assert.True(t, got.CreatedAt.Equal(first), "created_at should survive the update")
	assert.True(t, got.UpdatedAt.Equal(first.Add(time.Hour)))
}

func TestCorpusStore_GetMissing(t *testing.T) {
	store := setupCorpus(t)

	_, err := store.Get(context.Background(), "0xmissing")
	assert.True(t, errors.Is(err, storage.ErrNotFound))
}

func TestCorpusStore_LoadOrdered(t *testing.T) {
	store := setupCorpus(t)
	ctx := context.Background()

	for _, tok := range []string{"0x03", "0x01", "0x02"} {
		require.NoError(t, store.Upsert(ctx, record(tok, tok == "0x02")))
	}

	recs, err := store.Load(ctx)
	require.NoError(t, err)
	require.Len(t, recs, 3)
	assert.Equal(t, "0x01", recs[0].Token)
	assert.Equal(t, "0x03", recs[2].Token)
	assert.True(t, recs[1].IsRugPull)
}

func TestRunMigrations_Idempotent(t *testing.T) {
	store := setupCorpus(t)
	assert.NoError(t, store.client.RunMigrations(context.Background()))
}
