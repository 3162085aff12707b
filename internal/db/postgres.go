package db

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/swiftfreight/quote-engine/internal/models"
)

type PostgresStore struct {
	Pool *pgxpool.Pool
}

func NewPostgres(ctx context.Context, databaseURL string) (*PostgresStore, error) {
	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, err
	}
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return &PostgresStore{Pool: pool}, nil
}

func (s *PostgresStore) Close() {
	s.Pool.Close()
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.Pool.Ping(ctx)
}

func (s *PostgresStore) WithTx(ctx context.Context, fn func(tx pgx.Tx) error) error {
	tx, err := s.Pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()
	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// EnsureSchema creates the tables on startup when they are missing.
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	_, err := s.Pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS quotes (
			id TEXT PRIMARY KEY,
			created_at TIMESTAMPTZ NOT NULL,
			valid_until TIMESTAMPTZ NOT NULL,
			request JSONB NOT NULL,
			confidence JSONB NOT NULL,
			distance JSONB NOT NULL,
			lines JSONB NOT NULL,
			total NUMERIC(12,2) NOT NULL,
			status TEXT NOT NULL,
			supersedes TEXT
		);
		CREATE INDEX IF NOT EXISTS idx_quotes_status ON quotes (status, created_at DESC);
		CREATE TABLE IF NOT EXISTS review_decisions (
			id BIGSERIAL PRIMARY KEY,
			quote_id TEXT NOT NULL REFERENCES quotes (id),
			action TEXT NOT NULL,
			reviewer TEXT NOT NULL,
			reason TEXT,
			decided_at TIMESTAMPTZ NOT NULL
		);
	`)
	return err
}

func (s *PostgresStore) SaveQuote(ctx context.Context, q models.Quote) error {
	request, err := json.Marshal(q.Request)
	if err != nil {
		return err
	}
	confidence, _ := json.Marshal(q.Confidence)
	distance, _ := json.Marshal(q.Distance)
	lines, _ := json.Marshal(q.Lines)

	_, err = s.Pool.Exec(ctx, `
		INSERT INTO quotes (id, created_at, valid_until, request, confidence, distance, lines, total, status, supersedes)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, NULLIF($10, ''))
	`, q.ID, q.CreatedAt, q.ValidUntil, request, confidence, distance, lines, q.Total, string(q.Status), q.Supersedes)
	return err
}

func (s *PostgresStore) GetQuote(ctx context.Context, id string) (models.Quote, error) {
	row := s.Pool.QueryRow(ctx, `
		SELECT id, created_at, valid_until, request, confidence, distance, lines, total, status, COALESCE(supersedes, '')
		FROM quotes WHERE id = $1
	`, id)
	q, err := scanQuote(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return models.Quote{}, ErrNotFound
	}
	return q, err
}

func (s *PostgresStore) UpdateQuoteStatus(ctx context.Context, id string, from, to models.QuoteStatus) error {
	tag, err := s.Pool.Exec(ctx, `
		UPDATE quotes SET status = $1 WHERE id = $2 AND status = $3
	`, string(to), id, string(from))
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		var current string
		if err := s.Pool.QueryRow(ctx, `SELECT status FROM quotes WHERE id = $1`, id).Scan(&current); err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return ErrNotFound
			}
			return err
		}
		return fmt.Errorf("%w: quote %s is %s, expected %s", ErrStaleStatus, id, current, from)
	}
	return nil
}

func (s *PostgresStore) ListQuotes(ctx context.Context, status models.QuoteStatus, limit, offset int) ([]models.Quote, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	query := `SELECT id, created_at, valid_until, request, confidence, distance, lines, total, status, COALESCE(supersedes, '') FROM quotes`
	var args []any
	if status != "" {
		args = append(args, string(status))
		query += " WHERE status = $1"
	}
	query += fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d OFFSET $%d", len(args)+1, len(args)+2)
	args = append(args, limit, offset)

	rows, err := s.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Quote
	for rows.Next() {
		q, err := scanQuote(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, q)
	}
	return out, rows.Err()
}

func (s *PostgresStore) SaveDecision(ctx context.Context, quoteID string, d models.ReviewDecision) error {
	_, err := s.Pool.Exec(ctx, `
		INSERT INTO review_decisions (quote_id, action, reviewer, reason, decided_at)
		VALUES ($1, $2, $3, $4, $5)
	`, quoteID, string(d.Action), d.Reviewer, d.Reason, d.DecidedAt)
	return err
}

func scanQuote(row pgx.Row) (models.Quote, error) {
	var (
		q          models.Quote
		request    []byte
		confidence []byte
		distance   []byte
		lines      []byte
		status     string
	)
	if err := row.Scan(&q.ID, &q.CreatedAt, &q.ValidUntil, &request, &confidence, &distance, &lines, &q.Total, &status, &q.Supersedes); err != nil {
		return models.Quote{}, err
	}
	if err := json.Unmarshal(request, &q.Request); err != nil {
		return models.Quote{}, err
	}
	if err := json.Unmarshal(confidence, &q.Confidence); err != nil {
		return models.Quote{}, err
	}
	if err := json.Unmarshal(distance, &q.Distance); err != nil {
		return models.Quote{}, err
	}
	if err := json.Unmarshal(lines, &q.Lines); err != nil {
		return models.Quote{}, err
	}
	q.Status = models.QuoteStatus(status)
	return q, nil
}
