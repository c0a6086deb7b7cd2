package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

var (
	// ErrNotConfigured indicates the storage pool was not initialised.
	ErrNotConfigured = errors.New("storage: pool not configured")
)

const (
	listActiveProductsSQL = `SELECT id, external_id, source, title, category
    FROM products
    WHERE is_active
    ORDER BY id;`

	listHistoryForProductsSQL = `SELECT id, product_id, price, source, observed_at
    FROM price_history
    WHERE product_id = ANY($1)
    ORDER BY product_id, observed_at DESC;`

	countMediaMentionsSQL = `SELECT product_id, COUNT(*)
    FROM media_assets
    WHERE product_id = ANY($1)
      AND created_at >= $2
    GROUP BY product_id;`

	upsertProductSQL = `INSERT INTO products (
        id, external_id, source, title, category, is_active
    ) VALUES (
        $1,$2,$3,$4,$5,TRUE
    )
    ON CONFLICT (source, external_id) DO UPDATE
    SET title    = EXCLUDED.title,
        category = EXCLUDED.category
    RETURNING id;`

	insertPricePointSQL = `INSERT INTO price_history (
        product_id, price, source, observed_at
    ) VALUES (
        $1,$2,$3,$4
    );`

	insertDealRecordSQL = `INSERT INTO deal_records (
        id, product_id, old_price, new_price, discount_pct, source, score, status
    ) VALUES (
        $1,$2,$3,$4,$5,$6,$7,$8
    )
    RETURNING id, product_id, old_price, new_price, discount_pct, source, score, status, created_at;`

	listRecentDealsSQL = `SELECT
        id, product_id, old_price, new_price, discount_pct, source, score, status, created_at
    FROM deal_records
    ORDER BY created_at DESC
    LIMIT $1;`

	insertTrendSignalSQL = `INSERT INTO trend_signals (
        id, product_id, signal_type, value, observed_at, metadata
    ) VALUES (
        $1,$2,$3,$4,$5,$6
    );`

	listTrendSignalsSQL = `SELECT
        id, product_id, signal_type, value, observed_at, metadata
    FROM trend_signals
    WHERE product_id = $1
      AND signal_type = $2
      AND observed_at >= $3
      AND observed_at < $4
    ORDER BY observed_at;`

	tryAdvisoryLockSQL = `SELECT pg_try_advisory_lock($1);`
	advisoryUnlockSQL  = `SELECT pg_advisory_unlock($1);`
)

// ListOptions tune the product snapshot read at the start of a run.
type ListOptions struct {
	// HistoryLimit caps the number of price points carried per product,
	// newest first. Zero means unlimited.
	HistoryLimit int
	// MediaSince, when non-zero, populates Product.MediaCount7d with the
	// number of media assets created at or after the given instant.
	MediaSince time.Time
}

// ProductStore exposes the catalog and its price history.
type ProductStore interface {
	ListProductsWithHistory(ctx context.Context, opts ListOptions) ([]Product, error)
	UpsertProduct(ctx context.Context, product Product) (string, error)
	AppendPricePoint(ctx context.Context, point PricePoint) error
}

// DealStore defines append-only persistence for scored deals.
type DealStore interface {
	InsertDealRecord(ctx context.Context, rec DealRecord) (DealRecord, error)
	ListRecentDeals(ctx context.Context, limit int) ([]DealRecord, error)
}

// TrendStore defines append-only persistence for trend signals.
type TrendStore interface {
	InsertTrendSignal(ctx context.Context, sig TrendSignal) error
	ListTrendSignals(ctx context.Context, productID string, from, to time.Time) ([]TrendSignal, error)
}

// AdvisoryLocker exposes advisory lock helpers.
type AdvisoryLocker interface {
	TryAdvisoryLock(ctx context.Context, key int64) (unlock func(), acquired bool, err error)
}

// Store aggregates access to products, deals, and trend signals.
type Store struct {
	pool *pgxpool.Pool
}

// NewStore wires a pgx pool into a Store.
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// Close releases the underlying pool resources.
func (s *Store) Close() {
	if s == nil || s.pool == nil {
		return
	}
	s.pool.Close()
}

func (s *Store) getPool() (*pgxpool.Pool, error) {
	if s == nil || s.pool == nil {
		return nil, ErrNotConfigured
	}
	return s.pool, nil
}

// TryAdvisoryLock attempts to acquire a postgres advisory lock and returns a release func.
func (s *Store) TryAdvisoryLock(ctx context.Context, key int64) (func(), bool, error) {
	pool, err := s.getPool()
	if err != nil {
		return nil, false, err
	}

	conn, err := pool.Acquire(ctx)
	if err != nil {
		return nil, false, fmt.Errorf("acquire connection: %w", err)
	}

	var acquired bool
	if err := conn.QueryRow(ctx, tryAdvisoryLockSQL, key).Scan(&acquired); err != nil {
		conn.Release()
		return nil, false, fmt.Errorf("try advisory lock: %w", err)
	}
	if !acquired {
		conn.Release()
		return nil, false, nil
	}

	unlock := func() {
		ctxUnlock, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if _, err := conn.Exec(ctxUnlock, advisoryUnlockSQL, key); err != nil {
			// unlock best effort; log omitted in storage package
		}
		conn.Release()
	}
	return unlock, true, nil
}

// ListProductsWithHistory reads a point-in-time snapshot of the active catalog
// with recent price history attached, newest observation first.
func (s *Store) ListProductsWithHistory(ctx context.Context, opts ListOptions) ([]Product, error) {
	pool, err := s.getPool()
	if err != nil {
		return nil, err
	}

	rows, queryErr := pool.Query(ctx, listActiveProductsSQL)
	if queryErr != nil {
		return nil, fmt.Errorf("list products: %w", queryErr)
	}

	products := make([]Product, 0)
	index := make(map[string]int)
	ids := make([]string, 0)
	for rows.Next() {
		var p Product
		if err := rows.Scan(&p.ID, &p.ExternalID, &p.Source, &p.Title, &p.Category); err != nil {
			rows.Close()
			return nil, err
		}
		index[p.ID] = len(products)
		ids = append(ids, p.ID)
		products = append(products, p)
	}
	rows.Close()
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	if len(products) == 0 {
		return products, nil
	}

	if err := s.attachHistory(ctx, pool, products, index, ids, opts.HistoryLimit); err != nil {
		return nil, err
	}

	if !opts.MediaSince.IsZero() {
		if err := s.attachMediaCounts(ctx, pool, products, index, ids, opts.MediaSince); err != nil {
			return nil, err
		}
	}

	return products, nil
}

func (s *Store) attachHistory(ctx context.Context, pool *pgxpool.Pool, products []Product, index map[string]int, ids []string, limit int) error {
	rows, err := pool.Query(ctx, listHistoryForProductsSQL, ids)
	if err != nil {
		return fmt.Errorf("list price history: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		point, scanErr := scanPricePoint(rows)
		if scanErr != nil {
			return scanErr
		}
		i, ok := index[point.ProductID]
		if !ok {
			continue
		}
		if limit > 0 && len(products[i].History) >= limit {
			continue
		}
		products[i].History = append(products[i].History, point)
	}
	return rows.Err()
}

func (s *Store) attachMediaCounts(ctx context.Context, pool *pgxpool.Pool, products []Product, index map[string]int, ids []string, since time.Time) error {
	rows, err := pool.Query(ctx, countMediaMentionsSQL, ids, since)
	if err != nil {
		return fmt.Errorf("count media mentions: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var productID string
		var count int
		if err := rows.Scan(&productID, &count); err != nil {
			return err
		}
		if i, ok := index[productID]; ok {
			products[i].MediaCount7d = count
		}
	}
	return rows.Err()
}

// UpsertProduct inserts or refreshes a catalog entry keyed by (source, external_id)
// and returns the canonical product id.
func (s *Store) UpsertProduct(ctx context.Context, product Product) (string, error) {
	pool, err := s.getPool()
	if err != nil {
		return "", err
	}

	var id string
	if scanErr := pool.QueryRow(ctx, upsertProductSQL,
		product.ID,
		product.ExternalID,
		product.Source,
		product.Title,
		product.Category,
	).Scan(&id); scanErr != nil {
		return "", fmt.Errorf("upsert product: %w", scanErr)
	}
	return id, nil
}

// AppendPricePoint records one observation. Observations are never updated or deleted.
func (s *Store) AppendPricePoint(ctx context.Context, point PricePoint) error {
	pool, err := s.getPool()
	if err != nil {
		return err
	}
	if _, execErr := pool.Exec(ctx, insertPricePointSQL,
		point.ProductID,
		point.Price.String(),
		point.Source,
		point.Timestamp,
	); execErr != nil {
		return fmt.Errorf("append price point: %w", execErr)
	}
	return nil
}

// InsertDealRecord persists a scored deal and returns the stored row.
func (s *Store) InsertDealRecord(ctx context.Context, rec DealRecord) (DealRecord, error) {
	pool, err := s.getPool()
	if err != nil {
		return DealRecord{}, err
	}

	row := pool.QueryRow(ctx, insertDealRecordSQL,
		rec.ID,
		rec.ProductID,
		rec.OldPrice.String(),
		rec.NewPrice.String(),
		rec.Discount.String(),
		rec.Source,
		rec.Score,
		rec.Status,
	)

	stored, scanErr := scanDealRecord(row)
	if scanErr != nil {
		return DealRecord{}, fmt.Errorf("insert deal record: %w", scanErr)
	}
	return stored, nil
}

// ListRecentDeals lists most recent deal records.
func (s *Store) ListRecentDeals(ctx context.Context, limit int) ([]DealRecord, error) {
	pool, err := s.getPool()
	if err != nil {
		return nil, err
	}

	rows, queryErr := pool.Query(ctx, listRecentDealsSQL, limit)
	if queryErr != nil {
		return nil, fmt.Errorf("list recent deals: %w", queryErr)
	}
	defer rows.Close()

	deals := make([]DealRecord, 0, limit)
	for rows.Next() {
		rec, scanErr := scanDealRecord(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		deals = append(deals, rec)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return deals, nil
}

// InsertTrendSignal appends one scoring observation.
func (s *Store) InsertTrendSignal(ctx context.Context, sig TrendSignal) error {
	pool, err := s.getPool()
	if err != nil {
		return err
	}
	if _, execErr := pool.Exec(ctx, insertTrendSignalSQL,
		sig.ID,
		sig.ProductID,
		sig.SignalType,
		sig.Value,
		sig.Timestamp,
		[]byte(sig.Metadata),
	); execErr != nil {
		return fmt.Errorf("insert trend signal: %w", execErr)
	}
	return nil
}

// ListTrendSignals lists composite signals for a product within a time window.
func (s *Store) ListTrendSignals(ctx context.Context, productID string, from, to time.Time) ([]TrendSignal, error) {
	pool, err := s.getPool()
	if err != nil {
		return nil, err
	}

	rows, queryErr := pool.Query(ctx, listTrendSignalsSQL, productID, SignalComposite, from, to)
	if queryErr != nil {
		return nil, fmt.Errorf("list trend signals: %w", queryErr)
	}
	defer rows.Close()

	signals := make([]TrendSignal, 0)
	for rows.Next() {
		var sig TrendSignal
		if err := rows.Scan(
			&sig.ID,
			&sig.ProductID,
			&sig.SignalType,
			&sig.Value,
			&sig.Timestamp,
			&sig.Metadata,
		); err != nil {
			return nil, err
		}
		signals = append(signals, sig)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return signals, nil
}

func scanPricePoint(rows pgx.Rows) (PricePoint, error) {
	var (
		point    PricePoint
		priceStr string
	)
	if err := rows.Scan(
		&point.ID,
		&point.ProductID,
		&priceStr,
		&point.Source,
		&point.Timestamp,
	); err != nil {
		return PricePoint{}, err
	}

	price, err := decimal.NewFromString(priceStr)
	if err != nil {
		return PricePoint{}, fmt.Errorf("parse price: %w", err)
	}
	point.Price = price
	return point, nil
}

func scanDealRecord(row pgx.Row) (DealRecord, error) {
	var (
		rec         DealRecord
		oldStr      string
		newStr      string
		discountStr string
	)
	if err := row.Scan(
		&rec.ID,
		&rec.ProductID,
		&oldStr,
		&newStr,
		&discountStr,
		&rec.Source,
		&rec.Score,
		&rec.Status,
		&rec.CreatedAt,
	); err != nil {
		return DealRecord{}, err
	}

	var convErr error
	rec.OldPrice, convErr = decimal.NewFromString(oldStr)
	if convErr != nil {
		return DealRecord{}, fmt.Errorf("parse old price: %w", convErr)
	}
	rec.NewPrice, convErr = decimal.NewFromString(newStr)
	if convErr != nil {
		return DealRecord{}, fmt.Errorf("parse new price: %w", convErr)
	}
	rec.Discount, convErr = decimal.NewFromString(discountStr)
	if convErr != nil {
		return DealRecord{}, fmt.Errorf("parse discount pct: %w", convErr)
	}

	return rec, nil
}
