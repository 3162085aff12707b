// Package pricing turns a validated shipment and a resolved distance into
// an itemized quote. The engine is a pure function of its inputs and the
// tariff snapshot: no external calls, no hidden state, identical inputs
// produce identical charge lines.
package pricing

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/swiftfreight/quote-engine/internal/config"
	"github.com/swiftfreight/quote-engine/internal/models"
)

const (
	LineLinehaul  = "linehaul"
	LineEquipment = "equipment_adjustment"
	LineHazmat    = "hazmat_surcharge"
	LineFuel      = "fuel_surcharge"
	LineMargin    = "margin"
	servicePrefix = "service_"
)

type Engine struct {
	Tariff config.Tariff

	// Clock and NewID are injectable for deterministic tests; pricing
	// math never reads them.
	Clock func() time.Time
	NewID func() string
}

func NewEngine(tariff config.Tariff) Engine {
	return Engine{
		Tariff: tariff,
		Clock:  time.Now,
		NewID:  func() string { return uuid.NewString() },
	}
}

// Price computes a pending quote with all charge lines populated.
// Intermediate amounts are kept at full precision; only the final total
// is rounded to cents, with banker's rounding.
func (e Engine) Price(req models.ShipmentRequest, conf models.ExtractionConfidence, dist models.RouteDistance) models.Quote {
	t := e.Tariff
	var lines []models.ChargeLine

	// 1. Base linehaul by weight tier, floored at the tier minimum.
	tier := t.TierFor(req.WeightLbs)
	miles := decimal.NewFromFloat(dist.Miles)
	linehaul := miles.Mul(tier.PerMileRate)
	if linehaul.LessThan(tier.MinimumCharge) {
		linehaul = tier.MinimumCharge
	}
	lines = append(lines, models.ChargeLine{
		Code:        LineLinehaul,
		Description: fmt.Sprintf("Linehaul %.1f mi @ %s/mi", dist.Miles, tier.PerMileRate),
		Amount:      linehaul,
	})

	// 2. Equipment multiplier, itemized as the delta over dry van. The
	// box truck short-haul discount makes this line negative.
	multiplier, ok := t.EquipmentMultipliers[req.Equipment]
	if !ok {
		multiplier = decimal.NewFromInt(1)
	}
	equipmentAdj := linehaul.Mul(multiplier.Sub(decimal.NewFromInt(1)))
	if !equipmentAdj.IsZero() {
		lines = append(lines, models.ChargeLine{
			Code:        LineEquipment,
			Description: fmt.Sprintf("Equipment %s x%s", req.Equipment, multiplier),
			Amount:      equipmentAdj,
		})
	}
	linehaulSubtotal := linehaul.Add(equipmentAdj)

	// 3. Flat fees per requested special service. Validation already
	// rejected unknown services, so the lookup cannot miss.
	for _, svc := range req.SpecialServices {
		fee := t.ServiceFees[svc]
		lines = append(lines, models.ChargeLine{
			Code:        servicePrefix + string(svc),
			Description: fmt.Sprintf("Service: %s", svc),
			Amount:      fee,
		})
	}

	// 4. Hazmat: flat fee plus a share of declared value.
	if req.Hazmat {
		hazmat := t.HazmatFlatFee.Add(req.DeclaredValue.Mul(t.HazmatValuePct))
		lines = append(lines, models.ChargeLine{
			Code:        LineHazmat,
			Description: fmt.Sprintf("Hazmat (%s)", req.HazmatClass),
			Amount:      hazmat,
		})
	}

	// 5. Fuel adjustment on the linehaul+equipment subtotal.
	fuel := linehaulSubtotal.Mul(t.FuelIndexPct)
	lines = append(lines, models.ChargeLine{
		Code:        LineFuel,
		Description: fmt.Sprintf("Fuel adjustment %s%%", t.FuelIndexPct.Mul(decimal.NewFromInt(100))),
		Amount:      fuel,
	})

	// 6. Margin last, with the minimum-margin floor.
	costBasis := sum(lines)
	margin := costBasis.Mul(t.MarginPct)
	if floor := costBasis.Mul(decimal.NewFromInt(1).Add(t.MinimumMarginPct)); costBasis.Add(margin).LessThan(floor) {
		margin = floor.Sub(costBasis)
	}
	lines = append(lines, models.ChargeLine{
		Code:        LineMargin,
		Description: "Margin",
		Amount:      margin,
	})

	now := e.Clock()
	return models.Quote{
		ID:         e.NewID(),
		CreatedAt:  now,
		ValidUntil: now.AddDate(0, 0, t.QuoteValidityDays),
		Request:    req,
		Confidence: conf,
		Distance:   dist,
		Lines:      lines,
		Total:      sum(lines).RoundBank(2),
		Status:     models.StatusPending,
	}
}

func sum(lines []models.ChargeLine) decimal.Decimal {
	total := decimal.Zero
	for _, l := range lines {
		total = total.Add(l.Amount)
	}
	return total
}
