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
	createSchemaSQL = `
    CREATE TABLE IF NOT EXISTS universe (
        ticker TEXT PRIMARY KEY
    );
    CREATE TABLE IF NOT EXISTS price_closes (
        ticker TEXT    NOT NULL,
        dt     DATE    NOT NULL,
        close  NUMERIC NOT NULL,
        PRIMARY KEY (ticker, dt)
    );
    CREATE TABLE IF NOT EXISTS realized_vol (
        ticker    TEXT             NOT NULL,
        win       INTEGER          NOT NULL,
        asof_date DATE             NOT NULL,
        rv        DOUBLE PRECISION NOT NULL,
        PRIMARY KEY (ticker, win, asof_date)
    );
    CREATE TABLE IF NOT EXISTS scan_alerts (
        id         BIGSERIAL PRIMARY KEY,
        ticker     TEXT             NOT NULL,
        asof_date  DATE             NOT NULL,
        iv         DOUBLE PRECISION NOT NULL,
        rv         DOUBLE PRECISION NOT NULL,
        score      DOUBLE PRECISION NOT NULL,
        min_score  DOUBLE PRECISION NOT NULL,
        channels   TEXT[]           NOT NULL,
        created_at TIMESTAMPTZ      NOT NULL DEFAULT now(),
        UNIQUE (ticker, asof_date)
    );`

	replaceUniverseDeleteSQL = `DELETE FROM universe;`
	insertUniverseTickerSQL  = `INSERT INTO universe (ticker) VALUES ($1) ON CONFLICT (ticker) DO NOTHING;`
	listUniverseSQL          = `SELECT ticker FROM universe ORDER BY ticker;`

	upsertCloseSQL = `INSERT INTO price_closes (ticker, dt, close)
    VALUES ($1,$2,$3)
    ON CONFLICT (ticker, dt) DO UPDATE SET close = EXCLUDED.close;`

	listClosesSQL = `SELECT ticker, dt, close
    FROM price_closes
    WHERE ticker = $1 AND dt >= $2 AND dt <= $3
    ORDER BY dt;`

	upsertRealizedVolSQL = `INSERT INTO realized_vol (ticker, win, asof_date, rv)
    VALUES ($1,$2,$3,$4)
    ON CONFLICT (ticker, win, asof_date) DO UPDATE SET rv = EXCLUDED.rv;`

	latestRealizedVolSQL = `SELECT rv
    FROM realized_vol
    WHERE ticker = $1 AND win = $2 AND asof_date <= $3
    ORDER BY asof_date DESC
    LIMIT 1;`

	listRealizedVolSQL = `SELECT ticker, win, asof_date, rv
    FROM realized_vol
    WHERE ticker = $1 AND win = $2 AND asof_date >= $3 AND asof_date <= $4
    ORDER BY asof_date;`

	insertScanAlertSQL = `INSERT INTO scan_alerts (
        ticker, asof_date, iv, rv, score, min_score, channels
    ) VALUES ($1,$2,$3,$4,$5,$6,$7)
    ON CONFLICT (ticker, asof_date) DO UPDATE
    SET iv        = EXCLUDED.iv,
        rv        = EXCLUDED.rv,
        score     = EXCLUDED.score,
        min_score = EXCLUDED.min_score,
        channels  = EXCLUDED.channels
    RETURNING id, ticker, asof_date, iv, rv, score, min_score, channels, created_at;`

	listRecentAlertsSQL = `SELECT
        id, ticker, asof_date, iv, rv, score, min_score, channels, created_at
    FROM scan_alerts
    ORDER BY created_at DESC
    LIMIT $1;`

	tryAdvisoryLockSQL = `SELECT pg_try_advisory_lock($1);`
	advisoryUnlockSQL  = `SELECT pg_advisory_unlock($1);`
)

// UniverseStore defines operations for the ticker universe.
type UniverseStore interface {
	ReplaceUniverse(ctx context.Context, tickers []string) error
	ListUniverse(ctx context.Context) ([]string, error)
}

// PriceStore defines operations for daily close persistence.
type PriceStore interface {
	UpsertCloses(ctx context.Context, points []PricePoint) error
	ListCloses(ctx context.Context, ticker string, from, to time.Time) ([]PricePoint, error)
}

// RealizedVolStore defines operations for realized-vol persistence.
type RealizedVolStore interface {
	UpsertRealizedVol(ctx context.Context, points []RealizedVolPoint) error
	LatestRealizedVol(ctx context.Context, ticker string, window int, asof time.Time) (*float64, error)
	ListRealizedVol(ctx context.Context, ticker string, window int, from, to time.Time) ([]RealizedVolPoint, error)
}

// AlertStore defines operations for scan alert auditing.
type AlertStore interface {
	InsertScanAlert(ctx context.Context, alert ScanAlert) (ScanAlert, error)
	ListRecentAlerts(ctx context.Context, limit int) ([]ScanAlert, error)
}

// AdvisoryLocker exposes advisory lock helpers.
type AdvisoryLocker interface {
	TryAdvisoryLock(ctx context.Context, key int64) (unlock func(), acquired bool, err error)
}

// Store aggregates access to universe, prices, realized vol, and alerts.
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

// EnsureSchema creates the tables when they do not exist yet. All writes are
// keyed upserts, so re-running any job stays idempotent.
func (s *Store) EnsureSchema(ctx context.Context) error {
	pool, err := s.getPool()
	if err != nil {
		return err
	}
	if _, execErr := pool.Exec(ctx, createSchemaSQL); execErr != nil {
		return fmt.Errorf("ensure schema: %w", execErr)
	}
	return nil
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

// ReplaceUniverse swaps the stored universe for tickers atomically.
func (s *Store) ReplaceUniverse(ctx context.Context, tickers []string) error {
	pool, err := s.getPool()
	if err != nil {
		return err
	}

	tx, err := pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin universe replace: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, replaceUniverseDeleteSQL); err != nil {
		return fmt.Errorf("clear universe: %w", err)
	}

	batch := &pgx.Batch{}
	for _, t := range tickers {
		batch.Queue(insertUniverseTickerSQL, t)
	}
	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("insert universe tickers: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit universe replace: %w", err)
	}
	return nil
}

// ListUniverse returns the stored universe ordered by ticker.
func (s *Store) ListUniverse(ctx context.Context) ([]string, error) {
	pool, err := s.getPool()
	if err != nil {
		return nil, err
	}

	rows, queryErr := pool.Query(ctx, listUniverseSQL)
	if queryErr != nil {
		return nil, fmt.Errorf("list universe: %w", queryErr)
	}
	defer rows.Close()

	tickers := make([]string, 0)
	for rows.Next() {
		var t string
		if err := rows.Scan(&t); err != nil {
			return nil, err
		}
		tickers = append(tickers, t)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return tickers, nil
}

// UpsertCloses persists daily closes, idempotent on (ticker, dt).
func (s *Store) UpsertCloses(ctx context.Context, points []PricePoint) error {
	pool, err := s.getPool()
	if err != nil {
		return err
	}

	batch := &pgx.Batch{}
	for _, p := range points {
		batch.Queue(upsertCloseSQL, p.Ticker, p.Date, p.Close.String())
	}
	if err := pool.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("upsert closes: %w", err)
	}
	return nil
}

// ListCloses lists closes for ticker within [from, to] ordered by date.
func (s *Store) ListCloses(ctx context.Context, ticker string, from, to time.Time) ([]PricePoint, error) {
	pool, err := s.getPool()
	if err != nil {
		return nil, err
	}

	rows, queryErr := pool.Query(ctx, listClosesSQL, ticker, from, to)
	if queryErr != nil {
		return nil, fmt.Errorf("list closes: %w", queryErr)
	}
	defer rows.Close()

	points := make([]PricePoint, 0)
	for rows.Next() {
		var (
			p        PricePoint
			closeStr string
		)
		if err := rows.Scan(&p.Ticker, &p.Date, &closeStr); err != nil {
			return nil, err
		}
		var convErr error
		p.Close, convErr = decimal.NewFromString(closeStr)
		if convErr != nil {
			return nil, fmt.Errorf("parse close: %w", convErr)
		}
		points = append(points, p)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return points, nil
}

// UpsertRealizedVol persists realized-vol points, idempotent on the primary key.
func (s *Store) UpsertRealizedVol(ctx context.Context, points []RealizedVolPoint) error {
	pool, err := s.getPool()
	if err != nil {
		return err
	}

	batch := &pgx.Batch{}
	for _, p := range points {
		batch.Queue(upsertRealizedVolSQL, p.Ticker, p.Window, p.AsOfDate, p.RV)
	}
	if err := pool.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("upsert realized vol: %w", err)
	}
	return nil
}

// LatestRealizedVol returns the most recent stored rv for (ticker, window)
// at or before asof, or nil when none exists.
func (s *Store) LatestRealizedVol(ctx context.Context, ticker string, window int, asof time.Time) (*float64, error) {
	pool, err := s.getPool()
	if err != nil {
		return nil, err
	}

	var rv float64
	scanErr := pool.QueryRow(ctx, latestRealizedVolSQL, ticker, window, asof).Scan(&rv)
	if scanErr != nil {
		if errors.Is(scanErr, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("latest realized vol: %w", scanErr)
	}
	return &rv, nil
}

// ListRealizedVol lists rv points for (ticker, window) within [from, to].
func (s *Store) ListRealizedVol(ctx context.Context, ticker string, window int, from, to time.Time) ([]RealizedVolPoint, error) {
	pool, err := s.getPool()
	if err != nil {
		return nil, err
	}

	rows, queryErr := pool.Query(ctx, listRealizedVolSQL, ticker, window, from, to)
	if queryErr != nil {
		return nil, fmt.Errorf("list realized vol: %w", queryErr)
	}
	defer rows.Close()

	points := make([]RealizedVolPoint, 0)
	for rows.Next() {
		var p RealizedVolPoint
		if err := rows.Scan(&p.Ticker, &p.Window, &p.AsOfDate, &p.RV); err != nil {
			return nil, err
		}
		points = append(points, p)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return points, nil
}

// InsertScanAlert persists an alert emission, idempotent per (ticker, asof).
func (s *Store) InsertScanAlert(ctx context.Context, alert ScanAlert) (ScanAlert, error) {
	pool, err := s.getPool()
	if err != nil {
		return ScanAlert{}, err
	}

	row := pool.QueryRow(ctx, insertScanAlertSQL,
		alert.Ticker,
		alert.AsOfDate,
		alert.IV,
		alert.RV,
		alert.Score,
		alert.MinScore,
		alert.Channels,
	)

	var rec ScanAlert
	if scanErr := row.Scan(
		&rec.ID,
		&rec.Ticker,
		&rec.AsOfDate,
		&rec.IV,
		&rec.RV,
		&rec.Score,
		&rec.MinScore,
		&rec.Channels,
		&rec.CreatedAt,
	); scanErr != nil {
		return ScanAlert{}, fmt.Errorf("insert scan alert: %w", scanErr)
	}
	return rec, nil
}

// ListRecentAlerts lists most recent alerts.
func (s *Store) ListRecentAlerts(ctx context.Context, limit int) ([]ScanAlert, error) {
	pool, err := s.getPool()
	if err != nil {
		return nil, err
	}

	rows, queryErr := pool.Query(ctx, listRecentAlertsSQL, limit)
	if queryErr != nil {
		return nil, fmt.Errorf("list recent alerts: %w", queryErr)
	}
	defer rows.Close()

	alerts := make([]ScanAlert, 0, limit)
	for rows.Next() {
		var rec ScanAlert
		if err := rows.Scan(
			&rec.ID,
			&rec.Ticker,
			&rec.AsOfDate,
			&rec.IV,
			&rec.RV,
			&rec.Score,
			&rec.MinScore,
			&rec.Channels,
			&rec.CreatedAt,
		); err != nil {
			return nil, err
		}
		alerts = append(alerts, rec)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return alerts, nil
}
