// Package service orchestrates the quote pipeline: validation, distance
// resolution, pricing, review routing and persistence. Handlers stay thin
// and call into here.
package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/swiftfreight/quote-engine/internal/db"
	"github.com/swiftfreight/quote-engine/internal/distance"
	"github.com/swiftfreight/quote-engine/internal/extract"
	"github.com/swiftfreight/quote-engine/internal/models"
	"github.com/swiftfreight/quote-engine/internal/pricing"
	"github.com/swiftfreight/quote-engine/internal/review"
	"github.com/swiftfreight/quote-engine/internal/validate"
)

// ValidationError carries all field failures from one payload so the
// client can fix everything in a single round trip.
type ValidationError struct {
	Fields []validate.FieldError
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("shipment validation failed with %d error(s)", len(e.Fields))
}

var ErrItemNotFound = review.ErrItemNotFound

type QuoteService struct {
	Resolver  *distance.Resolver
	Pricer    pricing.Engine
	Router    review.Router
	Queue     *review.Queue
	Store     db.QuoteStore
	Extractor extract.Extractor
	Logger    zerolog.Logger

	// Clock is injectable for tests.
	Clock func() time.Time
}

func (s *QuoteService) now() time.Time {
	if s.Clock != nil {
		return s.Clock()
	}
	return time.Now().UTC()
}

// QuoteResult is a created quote plus its queue item when review was
// required.
type QuoteResult struct {
	Quote     models.Quote
	QueueItem *models.ReviewQueueItem
}

// CreateQuote runs the full pipeline for one raw shipment. The returned
// quote is persisted in either auto_approved or queued_for_review state;
// any error means nothing was stored.
func (s *QuoteService) CreateQuote(ctx context.Context, raw models.RawShipment, conf models.ExtractionConfidence) (QuoteResult, error) {
	return s.createQuote(ctx, raw, conf, "")
}

func (s *QuoteService) createQuote(ctx context.Context, raw models.RawShipment, conf models.ExtractionConfidence, supersedes string) (QuoteResult, error) {
	req, fieldErrs := validate.Shipment(raw, s.now())
	if len(fieldErrs) > 0 {
		return QuoteResult{}, ValidationError{Fields: fieldErrs}
	}

	dist, err := s.Resolver.Resolve(ctx, req.OriginZip, req.DestinationZip)
	if err != nil {
		return QuoteResult{}, err
	}

	quote := s.Pricer.Price(req, conf, dist)
	quote.Supersedes = supersedes
	status, priority := s.Router.Route(&quote)
	if err := review.Transition(&quote, status); err != nil {
		return QuoteResult{}, err
	}

	result := QuoteResult{Quote: quote}
	if status == models.StatusQueuedForReview {
		item, err := s.Queue.Enqueue(quote.ID, priority, s.now())
		if err != nil {
			return QuoteResult{}, err
		}
		result.QueueItem = &item
	}

	if err := s.Store.SaveQuote(ctx, quote); err != nil {
		if result.QueueItem != nil {
			_, _ = s.Queue.Resolve(result.QueueItem.ID, models.ReviewDecision{
				Action: models.DecisionReject, Reviewer: "system", Reason: "persist failed", DecidedAt: s.now(),
			})
		}
		return QuoteResult{}, fmt.Errorf("persist quote: %w", err)
	}
	result.Quote = quote

	s.Logger.Info().
		Str("quote_id", quote.ID).
		Str("status", string(quote.Status)).
		Str("total", quote.Total.String()).
		Float64("confidence", quote.Confidence.Overall).
		Msg("quote created")
	return result, nil
}

// IntakeEmail extracts a shipment from a raw email body and feeds it into
// the quote pipeline.
func (s *QuoteService) IntakeEmail(ctx context.Context, emailBody string) (QuoteResult, error) {
	if s.Extractor == nil {
		return QuoteResult{}, fmt.Errorf("no extractor configured")
	}
	raw, conf, err := s.Extractor.Extract(ctx, emailBody)
	if err != nil {
		return QuoteResult{}, err
	}
	return s.CreateQuote(ctx, raw, conf)
}

// ClaimNext atomically hands the highest-priority queued quote to a
// reviewer. The bool is false when the queue is empty.
func (s *QuoteService) ClaimNext(ctx context.Context, reviewer string) (models.ReviewQueueItem, models.Quote, bool, error) {
	item, ok := s.Queue.Claim(reviewer)
	if !ok {
		return models.ReviewQueueItem{}, models.Quote{}, false, nil
	}
	quote, err := s.Store.GetQuote(ctx, item.QuoteID)
	if err != nil {
		return models.ReviewQueueItem{}, models.Quote{}, false, err
	}
	return item, quote, true, nil
}

// Decide applies a reviewer decision to a queued item. Approve and reject
// transition the quote in place. Edit re-validates and re-prices the
// corrected payload into a brand new quote that supersedes the old one;
// quotes are never mutated after pricing.
func (s *QuoteService) Decide(ctx context.Context, itemID string, action models.DecisionAction, reviewer, reason string, corrected *models.RawShipment) (QuoteResult, error) {
	item, ok := s.Queue.Get(itemID)
	if !ok {
		return QuoteResult{}, ErrItemNotFound
	}
	quote, err := s.Store.GetQuote(ctx, item.QuoteID)
	if err != nil {
		return QuoteResult{}, err
	}

	decision := models.ReviewDecision{
		Action:    action,
		Reviewer:  reviewer,
		Reason:    reason,
		DecidedAt: s.now(),
	}

	var target models.QuoteStatus
	switch action {
	case models.DecisionApprove:
		target = models.StatusApproved
	case models.DecisionReject:
		target = models.StatusRejected
	case models.DecisionEdit:
		if corrected == nil {
			return QuoteResult{}, fmt.Errorf("edit decision requires a corrected shipment")
		}
		target = models.StatusEdited
	default:
		return QuoteResult{}, fmt.Errorf("unknown decision action %q", action)
	}

	from := quote.Status
	if err := review.Transition(&quote, target); err != nil {
		s.Logger.Error().Err(err).Str("quote_id", quote.ID).Msg("rejected invalid status transition")
		return QuoteResult{}, err
	}

	// Reviewer corrections are full payloads: they re-run the whole
	// pipeline and may themselves land back in review.
	var replacement QuoteResult
	if action == models.DecisionEdit {
		replacement, err = s.createQuote(ctx, *corrected, models.ExtractionConfidence{Overall: 1.0}, quote.ID)
		if err != nil {
			return QuoteResult{}, err
		}
	}

	if err := s.Store.UpdateQuoteStatus(ctx, quote.ID, from, quote.Status); err != nil {
		return QuoteResult{}, err
	}
	if err := s.Store.SaveDecision(ctx, quote.ID, decision); err != nil {
		return QuoteResult{}, err
	}
	if _, err := s.Queue.Resolve(itemID, decision); err != nil && !errors.Is(err, review.ErrItemNotFound) {
		return QuoteResult{}, err
	}

	s.Logger.Info().
		Str("quote_id", quote.ID).
		Str("action", string(action)).
		Str("reviewer", reviewer).
		Msg("review decision applied")

	if action == models.DecisionEdit {
		return replacement, nil
	}
	return QuoteResult{Quote: quote}, nil
}
