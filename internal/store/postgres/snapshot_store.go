package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/alanyoungcy/kalshibot/internal/domain"
)

// SnapshotStore implements domain.SnapshotStore using PostgreSQL. The two
// book sides are stored as JSONB; the derived metrics get their own nullable
// columns so history can be queried without unpacking the sides.
type SnapshotStore struct {
	pool *pgxpool.Pool
}

// NewSnapshotStore creates a new SnapshotStore backed by the given pool.
func NewSnapshotStore(pool *pgxpool.Pool) *SnapshotStore {
	return &SnapshotStore{pool: pool}
}

const snapshotSelectCols = `ticker, yes_bids, yes_asks, best_bid, best_ask,
	mid_price, spread, bid_depth, ask_depth, is_empty, one_sided, crossed, created_at`

func scanSnapshotRows(rows pgx.Rows) ([]domain.BookSnapshot, error) {
	var snaps []domain.BookSnapshot
	for rows.Next() {
		var (
			s              domain.BookSnapshot
			bidsJSON, asks []byte
		)
		if err := rows.Scan(
			&s.Ticker, &bidsJSON, &asks, &s.BestBid, &s.BestAsk,
			&s.MidPrice, &s.Spread, &s.BidDepth, &s.AskDepth,
			&s.Empty, &s.OneSided, &s.Crossed, &s.Timestamp,
		); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(bidsJSON, &s.YesBids); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(asks, &s.YesAsks); err != nil {
			return nil, err
		}
		snaps = append(snaps, s)
	}
	return snaps, rows.Err()
}

// Insert stores one processed snapshot.
func (s *SnapshotStore) Insert(ctx context.Context, snap domain.BookSnapshot) error {
	bidsJSON, err := json.Marshal(snap.YesBids)
	if err != nil {
		return fmt.Errorf("postgres: marshal yes_bids: %w", err)
	}
	asksJSON, err := json.Marshal(snap.YesAsks)
	if err != nil {
		return fmt.Errorf("postgres: marshal yes_asks: %w", err)
	}

	const query = `
		INSERT INTO book_snapshots (
			ticker, yes_bids, yes_asks, best_bid, best_ask,
			mid_price, spread, bid_depth, ask_depth,
			is_empty, one_sided, crossed, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`

	_, err = s.pool.Exec(ctx, query,
		snap.Ticker, bidsJSON, asksJSON, snap.BestBid, snap.BestAsk,
		snap.MidPrice, snap.Spread, snap.BidDepth, snap.AskDepth,
		snap.Empty, snap.OneSided, snap.Crossed, snap.Timestamp,
	)
	if err != nil {
		return fmt.Errorf("postgres: insert snapshot %s: %w", snap.Ticker, err)
	}
	return nil
}

// ListByTicker returns snapshots for a market, newest first, with pagination
// and optional time filtering.
func (s *SnapshotStore) ListByTicker(ctx context.Context, ticker string, opts domain.ListOpts) ([]domain.BookSnapshot, error) {
	query := `SELECT ` + snapshotSelectCols + ` FROM book_snapshots WHERE ticker = $1`
	args := []any{ticker}
	argIdx := 2

	if opts.Since != nil {
		query += fmt.Sprintf(" AND created_at >= $%d", argIdx)
		args = append(args, *opts.Since)
		argIdx++
	}
	if opts.Until != nil {
		query += fmt.Sprintf(" AND created_at <= $%d", argIdx)
		args = append(args, *opts.Until)
		argIdx++
	}

	query += " ORDER BY created_at DESC"

	if opts.Limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d", argIdx)
		args = append(args, opts.Limit)
		argIdx++
	}
	if opts.Offset > 0 {
		query += fmt.Sprintf(" OFFSET $%d", argIdx)
		args = append(args, opts.Offset)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("postgres: list snapshots %s: %w", ticker, err)
	}
	defer rows.Close()

	snaps, err := scanSnapshotRows(rows)
	if err != nil {
		return nil, fmt.Errorf("postgres: scan snapshots %s: %w", ticker, err)
	}
	return snaps, nil
}

// ListBefore returns snapshots older than the given time, oldest first, for
// archiving. limit <= 0 means no limit.
func (s *SnapshotStore) ListBefore(ctx context.Context, before time.Time, limit int) ([]domain.BookSnapshot, error) {
	query := `SELECT ` + snapshotSelectCols + ` FROM book_snapshots WHERE created_at < $1 ORDER BY created_at ASC`
	args := []any{before}
	if limit > 0 {
		query += " LIMIT $2"
		args = append(args, limit)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("postgres: list snapshots before: %w", err)
	}
	defer rows.Close()
	return scanSnapshotRows(rows)
}

// DeleteBefore deletes snapshots older than the given time and returns the
// number deleted.
func (s *SnapshotStore) DeleteBefore(ctx context.Context, before time.Time) (int64, error) {
	tag, err := s.pool.Exec(ctx, `DELETE FROM book_snapshots WHERE created_at < $1`, before)
	if err != nil {
		return 0, fmt.Errorf("postgres: delete snapshots before: %w", err)
	}
	return tag.RowsAffected(), nil
}

// Compile-time interface check.
var _ domain.SnapshotStore = (*SnapshotStore)(nil)
