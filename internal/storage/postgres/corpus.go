package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/mollybeach/ai-rug-checker/internal/features"
	"github.com/mollybeach/ai-rug-checker/internal/storage"
)

const recordCols = `token, chain, name, symbol,
	volume_anomaly, holder_concentration, liquidity_score,
	price_volatility, sell_pressure, market_cap_risk,
	auxiliary, is_rug_pull, reason, created_at, updated_at`

// CorpusStore implements storage.Corpus on the labeled_records table.
type CorpusStore struct {
	client *Client
	now    func() time.Time
}

var _ storage.Corpus = (*CorpusStore)(nil)

// NewCorpusStore returns a corpus backed by client. Migrations must have run.
func NewCorpusStore(client *Client) *CorpusStore {
	return &CorpusStore{client: client, now: time.Now}
}

// Upsert inserts rec or replaces the row for the same token, keeping the
// original created_at.
func (s *CorpusStore) Upsert(ctx context.Context, rec storage.LabeledRecord) error {
	key := rec.Key()
	if key == "" {
		return fmt.Errorf("postgres: record has no token address")
	}
	aux, err := json.Marshal(rec.Aux)
	if err != nil {
		return fmt.Errorf("postgres: encode auxiliary signals for %s: %w", key, err)
	}

	now := s.now().UTC()
	created := rec.CreatedAt
	if created.IsZero() {
		created = now
	}

	const query = `
		INSERT INTO labeled_records (` + recordCols + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11::jsonb, $12, $13, $14, $15)
		ON CONFLICT (token) DO UPDATE SET
			chain                = EXCLUDED.chain,
			name                 = EXCLUDED.name,
			symbol               = EXCLUDED.symbol,
			volume_anomaly       = EXCLUDED.volume_anomaly,
			holder_concentration = EXCLUDED.holder_concentration,
			liquidity_score      = EXCLUDED.liquidity_score,
			price_volatility     = EXCLUDED.price_volatility,
			sell_pressure        = EXCLUDED.sell_pressure,
			market_cap_risk      = EXCLUDED.market_cap_risk,
			auxiliary            = EXCLUDED.auxiliary,
			is_rug_pull          = EXCLUDED.is_rug_pull,
			reason               = EXCLUDED.reason,
			updated_at           = EXCLUDED.updated_at`

	fv := rec.Features
	_, err = s.client.pool.Exec(ctx, query,
		key, rec.Chain, rec.Name, rec.Symbol,
		fv.VolumeAnomaly, fv.HolderConcentration, fv.LiquidityScore,
		fv.PriceVolatility, fv.SellPressure, fv.MarketCapRisk,
		string(aux), rec.IsRugPull, rec.Reason, created, now,
	)
	if err != nil {
		return fmt.Errorf("postgres: upsert record %s: %w", key, err)
	}
	return nil
}

// Get returns the record for token or storage.ErrNotFound.
func (s *CorpusStore) Get(ctx context.Context, token string) (storage.LabeledRecord, error) {
	key := features.NormalizeAddress(token)
	row := s.client.pool.QueryRow(ctx,
		`SELECT `+recordCols+` FROM labeled_records WHERE token = $1`, key)
	rec, err := scanRecord(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return storage.LabeledRecord{}, fmt.Errorf("record %s: %w", key, storage.ErrNotFound)
		}
		return storage.LabeledRecord{}, fmt.Errorf("postgres: get record %s: %w", key, err)
	}
	return rec, nil
}

// Load returns every record ordered by token.
func (s *CorpusStore) Load(ctx context.Context) ([]storage.LabeledRecord, error) {
	rows, err := s.client.pool.Query(ctx,
		`SELECT `+recordCols+` FROM labeled_records ORDER BY token`)
	if err != nil {
		return nil, fmt.Errorf("postgres: load records: %w", err)
	}
	defer rows.Close()

	var records []storage.LabeledRecord
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("postgres: scan record: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: iterate records: %w", err)
	}
	return records, nil
}

// Count returns the number of records.
func (s *CorpusStore) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.client.pool.QueryRow(ctx, `SELECT COUNT(*) FROM labeled_records`).Scan(&n); err != nil {
		return 0, fmt.Errorf("postgres: count records: %w", err)
	}
	return n, nil
}

// Close releases the connection pool.
func (s *CorpusStore) Close() error {
	s.client.Close()
	return nil
}

func scanRecord(row pgx.Row) (storage.LabeledRecord, error) {
	var (
		rec storage.LabeledRecord
		aux []byte
	)
	err := row.Scan(
		&rec.Token, &rec.Chain, &rec.Name, &rec.Symbol,
		&rec.Features.VolumeAnomaly, &rec.Features.HolderConcentration, &rec.Features.LiquidityScore,
		&rec.Features.PriceVolatility, &rec.Features.SellPressure, &rec.Features.MarketCapRisk,
		&aux, &rec.IsRugPull, &rec.Reason, &rec.CreatedAt, &rec.UpdatedAt,
	)
	if err != nil {
		return rec, err
	}
	if len(aux) > 0 && strings.TrimSpace(string(aux)) != "" {
		if err := json.Unmarshal(aux, &rec.Aux); err != nil {
			return rec, fmt.Errorf("decode auxiliary signals: %w", err)
		}
	}
	return rec, nil
}
