package config

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"

	"github.com/shopspring/decimal"

	"github.com/swiftfreight/quote-engine/internal/models"
	"github.com/swiftfreight/quote-engine/internal/ratelimit"
)

// WeightTier selects a per-mile rate by shipment weight. MaxLbs of zero
// marks the open-ended top tier. Heavier tiers rate lower per mile but
// carry a higher fixed minimum.
type WeightTier struct {
	MaxLbs        float64         `json:"max_lbs"`
	PerMileRate   decimal.Decimal `json:"per_mile_rate"`
	MinimumCharge decimal.Decimal `json:"minimum_charge"`
}

// Tariff is the full pricing and routing configuration snapshot. It is
// loaded once at startup and passed around as an immutable value; nothing
// mutates it after Load.
type Tariff struct {
	WeightTiers          []WeightTier                             `json:"weight_tiers"`
	EquipmentMultipliers map[models.EquipmentType]decimal.Decimal `json:"equipment_multipliers"`
	ServiceFees          map[models.ServiceType]decimal.Decimal   `json:"service_fees"`
	HazmatFlatFee        decimal.Decimal                          `json:"hazmat_flat_fee"`
	HazmatValuePct       decimal.Decimal                          `json:"hazmat_value_pct"`
	FuelIndexPct         decimal.Decimal                          `json:"fuel_index_pct"`
	MarginPct            decimal.Decimal                          `json:"margin_pct"`
	MinimumMarginPct     decimal.Decimal                          `json:"minimum_margin_pct"`

	AutoApproveConfidence float64         `json:"auto_approve_confidence"`
	AutoApproveCeiling    decimal.Decimal `json:"auto_approve_ceiling"`
	HighValueThreshold    decimal.Decimal `json:"high_value_threshold"`
	LowConfidenceFloor    float64         `json:"low_confidence_floor"`

	QuoteValidityDays int `json:"quote_validity_days"`
	QueueCapacity     int `json:"queue_capacity"`

	RateLimits map[string]ratelimit.BucketConfig `json:"rate_limits"`
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func DefaultTariff() Tariff {
	return Tariff{
		WeightTiers: []WeightTier{
			{MaxLbs: 500, PerMileRate: dec("2.50"), MinimumCharge: dec("350")},
			{MaxLbs: 2000, PerMileRate: dec("2.10"), MinimumCharge: dec("500")},
			{MaxLbs: 5000, PerMileRate: dec("1.80"), MinimumCharge: dec("750")},
			{MaxLbs: 0, PerMileRate: dec("1.50"), MinimumCharge: dec("1200")},
		},
		EquipmentMultipliers: map[models.EquipmentType]decimal.Decimal{
			models.EquipmentDryVan:   dec("1.00"),
			models.EquipmentFlatbed:  dec("1.25"),
			models.EquipmentBoxTruck: dec("0.90"),
			models.EquipmentReefer:   dec("1.35"),
			models.EquipmentStepDeck: dec("1.30"),
		},
		ServiceFees: map[models.ServiceType]decimal.Decimal{
			models.ServiceLiftgate:       dec("75"),
			models.ServiceInsideDelivery: dec("90"),
			models.ServiceResidential:    dec("60"),
			models.ServiceAppointment:    dec("35"),
			models.ServiceClimateControl: dec("150"),
			models.ServiceLimitedAccess:  dec("85"),
		},
		HazmatFlatFee:  dec("200"),
		HazmatValuePct: dec("0.005"),
		FuelIndexPct:   dec("0.15"),

		MarginPct:        dec("0.18"),
		MinimumMarginPct: dec("0.08"),

		AutoApproveConfidence: 0.85,
		AutoApproveCeiling:    dec("5000"),
		HighValueThreshold:    dec("10000"),
		LowConfidenceFloor:    0.60,

		QuoteValidityDays: 7,
		QueueCapacity:     1024,

		RateLimits: map[string]ratelimit.BucketConfig{
			"routing": {Capacity: 10, RefillPerSec: 1},
			"llm":     {Capacity: 5, RefillPerSec: 0.5},
			"mail":    {Capacity: 20, RefillPerSec: 2},
		},
	}
}

// LoadTariff returns the default tariff overlaid with the JSON file at
// path, when one is configured. Unknown fields are rejected so a typo in
// a rate table fails loudly instead of silently pricing with defaults.
func LoadTariff(path string) (Tariff, error) {
	t := DefaultTariff()
	if path == "" {
		return t, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Tariff{}, fmt.Errorf("read tariff file: %w", err)
	}
	d := json.NewDecoder(bytes.NewReader(data))
	d.DisallowUnknownFields()
	if err := d.Decode(&t); err != nil {
		return Tariff{}, fmt.Errorf("parse tariff file %s: %w", path, err)
	}
	if err := t.Validate(); err != nil {
		return Tariff{}, fmt.Errorf("tariff file %s: %w", path, err)
	}
	return t, nil
}

// Validate checks the structural invariants of the rate tables.
func (t Tariff) Validate() error {
	if len(t.WeightTiers) == 0 {
		return fmt.Errorf("at least one weight tier is required")
	}
	last := t.WeightTiers[len(t.WeightTiers)-1]
	if last.MaxLbs != 0 {
		return fmt.Errorf("last weight tier must be open-ended (max_lbs 0)")
	}
	for i := 1; i < len(t.WeightTiers); i++ {
		prev, cur := t.WeightTiers[i-1], t.WeightTiers[i]
		if prev.MaxLbs == 0 {
			return fmt.Errorf("no tiers allowed after the open-ended tier")
		}
		if cur.MaxLbs != 0 && cur.MaxLbs <= prev.MaxLbs {
			return fmt.Errorf("weight tiers must be strictly increasing")
		}
	}
	for _, tier := range t.WeightTiers {
		if tier.PerMileRate.IsNegative() || tier.MinimumCharge.IsNegative() {
			return fmt.Errorf("tier rates must be non-negative")
		}
	}
	if t.QueueCapacity <= 0 {
		return fmt.Errorf("queue_capacity must be positive")
	}
	return nil
}

// TierFor returns the weight tier covering the given shipment weight.
func (t Tariff) TierFor(weightLbs float64) WeightTier {
	for _, tier := range t.WeightTiers {
		if tier.MaxLbs != 0 && weightLbs < tier.MaxLbs {
			return tier
		}
	}
	return t.WeightTiers[len(t.WeightTiers)-1]
}
