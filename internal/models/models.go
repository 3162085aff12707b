package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type EquipmentType string

const (
	EquipmentDryVan   EquipmentType = "dry_van"
	EquipmentFlatbed  EquipmentType = "flatbed"
	EquipmentBoxTruck EquipmentType = "box_truck"
	EquipmentReefer   EquipmentType = "reefer"
	EquipmentStepDeck EquipmentType = "step_deck"
)

type ServiceType string

const (
	ServiceLiftgate       ServiceType = "liftgate"
	ServiceInsideDelivery ServiceType = "inside_delivery"
	ServiceResidential    ServiceType = "residential"
	ServiceAppointment    ServiceType = "appointment_required"
	ServiceClimateControl ServiceType = "climate_control"
	ServiceLimitedAccess  ServiceType = "limited_access"
)

type Dimensions struct {
	Length float64 `json:"length"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// RawShipment is the payload shape produced by the extractor (or supplied
// directly on the quote endpoint) before any validation has run.
type RawShipment struct {
	OriginZip       string      `json:"origin_zip"`
	DestinationZip  string      `json:"destination_zip"`
	WeightLbs       float64     `json:"weight_lbs"`
	Pieces          int         `json:"pieces"`
	Dimensions      Dimensions  `json:"dimensions"`
	Commodity       string      `json:"commodity"`
	SpecialServices []string    `json:"special_services"`
	EquipmentType   string      `json:"equipment_type"`
	PickupDate      string      `json:"pickup_date"`
	Hazmat          bool        `json:"hazmat"`
	HazmatClass     string      `json:"hazmat_class"`
	DeclaredValue   float64     `json:"declared_value"`
}

// ShipmentRequest is a validated, normalized shipment. Immutable after
// validation; pricing and routing only read it.
type ShipmentRequest struct {
	OriginZip       string          `json:"origin_zip"`
	DestinationZip  string          `json:"destination_zip"`
	WeightLbs       float64         `json:"weight_lbs"`
	Pieces          int             `json:"pieces"`
	Dimensions      Dimensions      `json:"dimensions"`
	Commodity       string          `json:"commodity"`
	SpecialServices []ServiceType   `json:"special_services"`
	Equipment       EquipmentType   `json:"equipment_type"`
	PickupDate      time.Time       `json:"pickup_date"`
	Hazmat          bool            `json:"hazmat"`
	HazmatClass     string          `json:"hazmat_class,omitempty"`
	DeclaredValue   decimal.Decimal `json:"declared_value"`
	// Warnings carries non-fatal validator findings (e.g. unresolvable_zip)
	// that force the quote into human review.
	Warnings []string `json:"warnings,omitempty"`
}

func (s ShipmentRequest) HasWarning(code string) bool {
	for _, w := range s.Warnings {
		if w == code {
			return true
		}
	}
	return false
}

// ExtractionConfidence is attached by the external extractor and consumed
// as-is; the engine never recomputes it.
type ExtractionConfidence struct {
	Overall float64            `json:"overall"`
	Fields  map[string]float64 `json:"fields,omitempty"`
}

// RouteDistance is the resolved routing result for a ZIP pair. Cached
// entries are immutable for the process lifetime.
type RouteDistance struct {
	Miles         float64 `json:"miles"`
	DurationHours float64 `json:"duration_hours,omitempty"`
	TransitDays   int     `json:"transit_days"`
}

type QuoteStatus string

const (
	StatusPending         QuoteStatus = "pending"
	StatusAutoApproved    QuoteStatus = "auto_approved"
	StatusQueuedForReview QuoteStatus = "queued_for_review"
	StatusApproved        QuoteStatus = "approved"
	StatusRejected        QuoteStatus = "rejected"
	StatusEdited          QuoteStatus = "edited"
)

type ChargeLine struct {
	Code        string          `json:"code"`
	Description string          `json:"description"`
	Amount      decimal.Decimal `json:"amount"`
}

type Quote struct {
	ID         string               `json:"id"`
	CreatedAt  time.Time            `json:"created_at"`
	ValidUntil time.Time            `json:"valid_until"`
	Request    ShipmentRequest      `json:"request"`
	Confidence ExtractionConfidence `json:"confidence"`
	Distance   RouteDistance        `json:"distance"`
	Lines      []ChargeLine         `json:"lines"`
	Total      decimal.Decimal      `json:"total"`
	Status     QuoteStatus          `json:"status"`
	// Supersedes links a requote produced by a reviewer edit back to the
	// quote it replaced. Quotes are append-only history.
	Supersedes string `json:"supersedes,omitempty"`
}

type ReviewPriority string

const (
	PriorityUrgent ReviewPriority = "urgent"
	PriorityHigh   ReviewPriority = "high"
	PriorityNormal ReviewPriority = "normal"
)

// Rank orders priorities for queue ordering; higher dequeues first.
func (p ReviewPriority) Rank() int {
	switch p {
	case PriorityUrgent:
		return 2
	case PriorityHigh:
		return 1
	default:
		return 0
	}
}

type DecisionAction string

const (
	DecisionApprove DecisionAction = "approve"
	DecisionReject  DecisionAction = "reject"
	DecisionEdit    DecisionAction = "edit"
)

type ReviewDecision struct {
	Action    DecisionAction `json:"action"`
	Reviewer  string         `json:"reviewer"`
	Reason    string         `json:"reason,omitempty"`
	DecidedAt time.Time      `json:"decided_at"`
}

type ReviewQueueItem struct {
	ID         string          `json:"id"`
	QuoteID    string          `json:"quote_id"`
	Priority   ReviewPriority  `json:"priority"`
	EnqueuedAt time.Time       `json:"enqueued_at"`
	ClaimedBy  string          `json:"claimed_by,omitempty"`
	Decision   *ReviewDecision `json:"decision,omitempty"`
}
