package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/alanyoungcy/kalshibot/internal/domain"
)

// DecisionStore implements domain.DecisionStore using PostgreSQL.
type DecisionStore struct {
	pool *pgxpool.Pool
}

// NewDecisionStore creates a new DecisionStore backed by the given pool.
func NewDecisionStore(pool *pgxpool.Pool) *DecisionStore {
	return &DecisionStore{pool: pool}
}

const decisionSelectCols = `id, ticker, action, reason, contracts, role,
	observed_spread, mid_price, recommended_bid, recommended_ask,
	expected_net_profit, breakeven_spread, required_spread, created_at`

func scanDecision(row pgx.Row) (domain.QuoteDecision, error) {
	var d domain.QuoteDecision
	err := row.Scan(
		&d.ID, &d.Ticker, &d.Action, &d.Reason, &d.Contracts, &d.Role,
		&d.ObservedSpread, &d.MidPrice, &d.RecommendedBid, &d.RecommendedAsk,
		&d.ExpectedNetProfit, &d.BreakevenSpread, &d.RequiredSpread, &d.CreatedAt,
	)
	return d, err
}

func scanDecisionRows(rows pgx.Rows) ([]domain.QuoteDecision, error) {
	var decs []domain.QuoteDecision
	for rows.Next() {
		d, err := scanDecision(rows)
		if err != nil {
			return nil, err
		}
		decs = append(decs, d)
	}
	return decs, rows.Err()
}

// Insert stores one quoting decision.
func (s *DecisionStore) Insert(ctx context.Context, dec domain.QuoteDecision) error {
	const query = `
		INSERT INTO quote_decisions (
			id, ticker, action, reason, contracts, role,
			observed_spread, mid_price, recommended_bid, recommended_ask,
			expected_net_profit, breakeven_spread, required_spread, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`

	_, err := s.pool.Exec(ctx, query,
		dec.ID, dec.Ticker, dec.Action, dec.Reason, dec.Contracts, dec.Role,
		dec.ObservedSpread, dec.MidPrice, dec.RecommendedBid, dec.RecommendedAsk,
		dec.ExpectedNetProfit, dec.BreakevenSpread, dec.RequiredSpread, dec.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("postgres: insert decision %s: %w", dec.Ticker, err)
	}
	return nil
}

// GetByID returns a single decision by its ID, or domain.ErrNotFound.
func (s *DecisionStore) GetByID(ctx context.Context, id string) (domain.QuoteDecision, error) {
	query := `SELECT ` + decisionSelectCols + ` FROM quote_decisions WHERE id = $1`
	d, err := scanDecision(s.pool.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.QuoteDecision{}, domain.ErrNotFound
	}
	if err != nil {
		return domain.QuoteDecision{}, fmt.Errorf("postgres: get decision %s: %w", id, err)
	}
	return d, nil
}

// ListByTicker returns decisions for a market, newest first, with pagination
// and optional time filtering.
func (s *DecisionStore) ListByTicker(ctx context.Context, ticker string, opts domain.ListOpts) ([]domain.QuoteDecision, error) {
	query := `SELECT ` + decisionSelectCols + ` FROM quote_decisions WHERE ticker = $1`
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
		return nil, fmt.Errorf("postgres: list decisions %s: %w", ticker, err)
	}
	defer rows.Close()

	decs, err := scanDecisionRows(rows)
	if err != nil {
		return nil, fmt.Errorf("postgres: scan decisions %s: %w", ticker, err)
	}
	return decs, nil
}

// ListRecent returns the most recent decisions across all markets.
func (s *DecisionStore) ListRecent(ctx context.Context, limit int) ([]domain.QuoteDecision, error) {
	if limit <= 0 {
		limit = 50
	}
	query := `SELECT ` + decisionSelectCols + ` FROM quote_decisions ORDER BY created_at DESC LIMIT $1`

	rows, err := s.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("postgres: list recent decisions: %w", err)
	}
	defer rows.Close()

	decs, err := scanDecisionRows(rows)
	if err != nil {
		return nil, fmt.Errorf("postgres: scan recent decisions: %w", err)
	}
	return decs, nil
}

// ListBefore returns decisions older than the given time, oldest first, for
// archiving. limit <= 0 means no limit.
func (s *DecisionStore) ListBefore(ctx context.Context, before time.Time, limit int) ([]domain.QuoteDecision, error) {
	query := `SELECT ` + decisionSelectCols + ` FROM quote_decisions WHERE created_at < $1 ORDER BY created_at ASC`
	args := []any{before}
	if limit > 0 {
		query += " LIMIT $2"
		args = append(args, limit)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("postgres: list decisions before: %w", err)
	}
	defer rows.Close()
	return scanDecisionRows(rows)
}

// DeleteBefore deletes decisions older than the given time and returns the
// number deleted.
func (s *DecisionStore) DeleteBefore(ctx context.Context, before time.Time) (int64, error) {
	tag, err := s.pool.Exec(ctx, `DELETE FROM quote_decisions WHERE created_at < $1`, before)
	if err != nil {
		return 0, fmt.Errorf("postgres: delete decisions before: %w", err)
	}
	return tag.RowsAffected(), nil
}

// Compile-time interface check.
var _ domain.DecisionStore = (*DecisionStore)(nil)
