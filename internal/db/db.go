// Package db persists quotes and reviewer decisions. Two implementations
// share the QuoteStore interface: a Postgres store for deployments and an
// in-memory store for local runs and tests.
package db

import (
	"context"
	"errors"

	"github.com/swiftfreight/quote-engine/internal/models"
)

var ErrNotFound = errors.New("not found")

// ErrStaleStatus reports a guarded status update whose expected current
// status no longer matches, i.e. someone else transitioned the quote.
var ErrStaleStatus = errors.New("quote status changed concurrently")

type QuoteStore interface {
	SaveQuote(ctx context.Context, q models.Quote) error
	GetQuote(ctx context.Context, id string) (models.Quote, error)
	// UpdateQuoteStatus moves a quote from an expected status to a new one.
	// The guard makes the write safe against concurrent reviewer decisions.
	UpdateQuoteStatus(ctx context.Context, id string, from, to models.QuoteStatus) error
	ListQuotes(ctx context.Context, status models.QuoteStatus, limit, offset int) ([]models.Quote, error)
	SaveDecision(ctx context.Context, quoteID string, d models.ReviewDecision) error
	Ping(ctx context.Context) error
	Close()
}
