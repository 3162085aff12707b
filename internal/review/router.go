// Package review decides whether a priced quote is released automatically
// or queued for a human, and owns the quote status state machine and the
// review queue.
package review

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/swiftfreight/quote-engine/internal/config"
	"github.com/swiftfreight/quote-engine/internal/models"
	"github.com/swiftfreight/quote-engine/internal/validate"
)

// InvalidTransitionError is an integrity failure: it must be logged and
// surfaced, and the stored quote left untouched.
type InvalidTransitionError struct {
	QuoteID string
	From    models.QuoteStatus
	To      models.QuoteStatus
}

func (e InvalidTransitionError) Error() string {
	return fmt.Sprintf("invalid_transition: quote %s cannot move %s -> %s", e.QuoteID, e.From, e.To)
}

var allowedTransitions = map[models.QuoteStatus][]models.QuoteStatus{
	models.StatusPending:         {models.StatusAutoApproved, models.StatusQueuedForReview},
	models.StatusQueuedForReview: {models.StatusApproved, models.StatusRejected, models.StatusEdited},
}

// Transition moves a quote to the next status, enforcing the state
// machine. Terminal states (approved, rejected) admit no transition;
// auto_approved and edited records are history and stay put too.
func Transition(q *models.Quote, to models.QuoteStatus) error {
	for _, next := range allowedTransitions[q.Status] {
		if next == to {
			q.Status = to
			return nil
		}
	}
	return InvalidTransitionError{QuoteID: q.ID, From: q.Status, To: to}
}

type Router struct {
	ConfidenceFloor    float64
	ValueCeiling       decimal.Decimal
	HighValueThreshold decimal.Decimal
	LowConfidenceFloor float64
}

// Route decides the immediate post-pricing transition: exactly one of
// auto_approved or queued_for_review. For queued quotes the returned
// priority applies; the highest matching rule wins.
func (r Router) Route(q *models.Quote) (models.QuoteStatus, models.ReviewPriority) {
	// Hazmat always gets human eyes, whatever the confidence.
	autoApprove := q.Confidence.Overall >= r.ConfidenceFloor &&
		!q.Total.GreaterThan(r.ValueCeiling) &&
		!q.Request.Hazmat &&
		!q.Request.HasWarning(validate.WarningUnresolvableZip)
	if autoApprove {
		return models.StatusAutoApproved, ""
	}

	priority := models.PriorityNormal
	if q.Confidence.Overall < r.LowConfidenceFloor {
		priority = models.PriorityHigh
	}
	if q.Total.GreaterThan(r.HighValueThreshold) || q.Request.Hazmat {
		priority = models.PriorityUrgent
	}
	return models.StatusQueuedForReview, priority
}

func NewRouter(t config.Tariff) Router {
	return Router{
		ConfidenceFloor:    t.AutoApproveConfidence,
		ValueCeiling:       t.AutoApproveCeiling,
		HighValueThreshold: t.HighValueThreshold,
		LowConfidenceFloor: t.LowConfidenceFloor,
	}
}
