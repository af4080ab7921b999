package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"TradePulse/internal/domain/models"
	"TradePulse/internal/domain/repository"
)

// MarketStore persists snapshots, signals and execution records in
// ClickHouse. Tables are append-only MergeTree ordered by
// (asset_address, ts); LoadPrevious is a point lookup on that key.
type MarketStore struct {
	db *sql.DB
}

func NewMarketStore(db *sql.DB) *MarketStore {
	return &MarketStore{db: db}
}

// Schema returns idempotent DDL for the three tables.
func Schema() []string {
	return []string{
		`CREATE TABLE IF NOT EXISTS market_snapshots (
			asset_address String,
			symbol String,
			price Decimal(38, 18),
			volume_24h Decimal(38, 18),
			market_cap Float64,
			liquidity_usd Float64,
			price_change_24h Float64,
			volume_change_24h Float64,
			liquidity_change_24h Float64,
			rsi_14 Nullable(Float64),
			macd Nullable(Float64),
			macd_signal Nullable(Float64),
			bollinger_upper Nullable(Float64),
			bollinger_lower Nullable(Float64),
			holder_count Nullable(Int64),
			active_wallets Nullable(Int64),
			social_sentiment Nullable(Float64),
			ts DateTime64(3, 'UTC')
		) ENGINE = MergeTree ORDER BY (asset_address, ts)`,
		`CREATE TABLE IF NOT EXISTS market_signals (
			id String,
			asset_address String,
			signal_type LowCardinality(String),
			price Decimal(38, 18),
			confidence Decimal(18, 8),
			risk_score Decimal(18, 8),
			price_change_24h Nullable(Decimal(38, 18)),
			volume_change_24h Nullable(Decimal(38, 18)),
			ts DateTime64(3, 'UTC')
		) ENGINE = MergeTree ORDER BY (asset_address, ts)`,
		`CREATE TABLE IF NOT EXISTS execution_records (
			asset_address String,
			order_type LowCardinality(String),
			size Float64,
			execution_price Decimal(38, 18),
			slippage Float64,
			tx_reference String,
			ts DateTime64(3, 'UTC')
		) ENGINE = MergeTree ORDER BY (asset_address, ts)`,
	}
}

func (s *MarketStore) StoreSnapshot(ctx context.Context, snap *models.MarketSnapshot) error {
	const q = `INSERT INTO market_snapshots
		(asset_address, symbol, price, volume_24h, market_cap, liquidity_usd,
		 price_change_24h, volume_change_24h, liquidity_change_24h,
		 rsi_14, macd, macd_signal, bollinger_upper, bollinger_lower,
		 holder_count, active_wallets, social_sentiment, ts)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := s.db.ExecContext(ctx, q,
		snap.AssetAddress, snap.Symbol, snap.Price, snap.Volume24h,
		snap.MarketCap, snap.LiquidityUSD,
		snap.PriceChange24h, snap.VolumeChange24, snap.LiquidityChg24,
		snap.RSI14, snap.MACD, snap.MACDSignal, snap.BollingerUpper, snap.BollingerLower,
		snap.HolderCount, snap.ActiveWallets, snap.SocialSentiment,
		snap.Timestamp,
	)
	if err != nil {
		return fmt.Errorf("store snapshot %s: %w", snap.AssetAddress, err)
	}
	return nil
}

const snapshotColumns = `asset_address, symbol, price, volume_24h, market_cap, liquidity_usd,
	price_change_24h, volume_change_24h, liquidity_change_24h,
	rsi_14, macd, macd_signal, bollinger_upper, bollinger_lower,
	holder_count, active_wallets, social_sentiment, ts`

func (s *MarketStore) LoadPrevious(ctx context.Context, asset string) (*models.MarketSnapshot, error) {
	q := fmt.Sprintf(`SELECT %s FROM market_snapshots
		WHERE asset_address = ? AND ts < ?
		ORDER BY ts DESC LIMIT 1`, snapshotColumns)
	row := s.db.QueryRowContext(ctx, q, asset, time.Now().UTC())
	snap, err := scanSnapshot(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load previous %s: %w", asset, err)
	}
	return snap, nil
}

func (s *MarketStore) QuerySnapshots(ctx context.Context, asset string, limit int) ([]*models.MarketSnapshot, error) {
	q := fmt.Sprintf(`SELECT %s FROM market_snapshots
		WHERE asset_address = ? ORDER BY ts DESC LIMIT ?`, snapshotColumns)
	rows, err := s.db.QueryContext(ctx, q, asset, limit)
	if err != nil {
		return nil, fmt.Errorf("query snapshots %s: %w", asset, err)
	}
	defer rows.Close()

	var out []*models.MarketSnapshot
	for rows.Next() {
		snap, err := scanSnapshot(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, snap)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanSnapshot(row rowScanner) (*models.MarketSnapshot, error) {
	var snap models.MarketSnapshot
	var rsi, macd, macdSig, bbUp, bbLow, sentiment sql.NullFloat64
	var holders, wallets sql.NullInt64
	err := row.Scan(
		&snap.AssetAddress, &snap.Symbol, &snap.Price, &snap.Volume24h,
		&snap.MarketCap, &snap.LiquidityUSD,
		&snap.PriceChange24h, &snap.VolumeChange24, &snap.LiquidityChg24,
		&rsi, &macd, &macdSig, &bbUp, &bbLow,
		&holders, &wallets, &sentiment,
		&snap.Timestamp,
	)
	if err != nil {
		return nil, err
	}
	snap.RSI14 = nullFloat(rsi)
	snap.MACD = nullFloat(macd)
	snap.MACDSignal = nullFloat(macdSig)
	snap.BollingerUpper = nullFloat(bbUp)
	snap.BollingerLower = nullFloat(bbLow)
	snap.SocialSentiment = nullFloat(sentiment)
	snap.HolderCount = nullInt(holders)
	snap.ActiveWallets = nullInt(wallets)
	return &snap, nil
}

func (s *MarketStore) StoreSignal(ctx context.Context, sig *models.MarketSignal) error {
	const q = `INSERT INTO market_signals
		(id, asset_address, signal_type, price, confidence, risk_score,
		 price_change_24h, volume_change_24h, ts)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := s.db.ExecContext(ctx, q,
		sig.ID, sig.AssetAddress, string(sig.SignalType),
		sig.Price, sig.Confidence, sig.RiskScore,
		nullDecimal(sig.PriceChange24h), nullDecimal(sig.VolumeChange24),
		sig.Timestamp,
	)
	if err != nil {
		return fmt.Errorf("store signal %s: %w", sig.AssetAddress, err)
	}
	return nil
}

func (s *MarketStore) QuerySignals(ctx context.Context, asset string, limit int) ([]*models.MarketSignal, error) {
	const q = `SELECT id, asset_address, signal_type, price, confidence, risk_score,
		price_change_24h, volume_change_24h, ts
		FROM market_signals WHERE asset_address = ? ORDER BY ts DESC LIMIT ?`
	rows, err := s.db.QueryContext(ctx, q, asset, limit)
	if err != nil {
		return nil, fmt.Errorf("query signals %s: %w", asset, err)
	}
	defer rows.Close()

	var out []*models.MarketSignal
	for rows.Next() {
		var sig models.MarketSignal
		var kind string
		var priceChg, volChg decimal.NullDecimal
		if err := rows.Scan(
			&sig.ID, &sig.AssetAddress, &kind,
			&sig.Price, &sig.Confidence, &sig.RiskScore,
			&priceChg, &volChg, &sig.Timestamp,
		); err != nil {
			return nil, err
		}
		sig.SignalType = models.SignalType(kind)
		if priceChg.Valid {
			sig.PriceChange24h = &priceChg.Decimal
		}
		if volChg.Valid {
			sig.VolumeChange24 = &volChg.Decimal
		}
		out = append(out, &sig)
	}
	return out, rows.Err()
}

func (s *MarketStore) StoreExecution(ctx context.Context, rec *models.ExecutionRecord) error {
	const q = `INSERT INTO execution_records
		(asset_address, order_type, size, execution_price, slippage, tx_reference, ts)
		VALUES (?, ?, ?, ?, ?, ?, ?)`
	_, err := s.db.ExecContext(ctx, q,
		rec.AssetAddress, string(rec.OrderType), rec.Size,
		rec.ExecutionPrice, rec.Slippage, rec.TxReference, rec.Timestamp,
	)
	if err != nil {
		return fmt.Errorf("store execution %s: %w", rec.AssetAddress, err)
	}
	return nil
}

func (s *MarketStore) QueryExecutions(ctx context.Context, asset string, limit int) ([]*models.ExecutionRecord, error) {
	const q = `SELECT asset_address, order_type, size, execution_price, slippage, tx_reference, ts
		FROM execution_records WHERE asset_address = ? ORDER BY ts DESC LIMIT ?`
	rows, err := s.db.QueryContext(ctx, q, asset, limit)
	if err != nil {
		return nil, fmt.Errorf("query executions %s: %w", asset, err)
	}
	defer rows.Close()

	var out []*models.ExecutionRecord
	for rows.Next() {
		var rec models.ExecutionRecord
		var kind string
		if err := rows.Scan(
			&rec.AssetAddress, &kind, &rec.Size,
			&rec.ExecutionPrice, &rec.Slippage, &rec.TxReference, &rec.Timestamp,
		); err != nil {
			return nil, err
		}
		rec.OrderType = models.OrderType(kind)
		out = append(out, &rec)
	}
	return out, rows.Err()
}

func nullFloat(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	f := v.Float64
	return &f
}

func nullInt(v sql.NullInt64) *int64 {
	if !v.Valid {
		return nil
	}
	i := v.Int64
	return &i
}

func nullDecimal(d *decimal.Decimal) decimal.NullDecimal {
	if d == nil {
		return decimal.NullDecimal{}
	}
	return decimal.NullDecimal{Decimal: *d, Valid: true}
}

var (
	_ repository.SnapshotStore  = (*MarketStore)(nil)
	_ repository.SignalStore    = (*MarketStore)(nil)
	_ repository.ExecutionStore = (*MarketStore)(nil)
)
