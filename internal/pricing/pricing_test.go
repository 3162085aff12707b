package pricing

import (
	"reflect"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/swiftfreight/quote-engine/internal/config"
	"github.com/swiftfreight/quote-engine/internal/models"
)

func testEngine() Engine {
	e := NewEngine(config.DefaultTariff())
	e.Clock = func() time.Time { return time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC) }
	e.NewID = func() string { return "QT-TEST" }
	return e
}

func electronicsRequest() models.ShipmentRequest {
	return models.ShipmentRequest{
		OriginZip:       "90021",
		DestinationZip:  "60601",
		WeightLbs:       800,
		Pieces:          2,
		Dimensions:      models.Dimensions{Length: 48, Width: 40, Height: 60},
		Commodity:       "electronics",
		SpecialServices: []models.ServiceType{models.ServiceLiftgate},
		Equipment:       models.EquipmentDryVan,
		PickupDate:      time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC),
		DeclaredValue:   decimal.NewFromInt(50000),
	}
}

func laChicago() models.RouteDistance {
	return models.RouteDistance{Miles: 2015.4, DurationHours: 31.2, TransitDays: 4}
}

func lineByCode(q models.Quote, code string) (models.ChargeLine, bool) {
	for _, l := range q.Lines {
		if l.Code == code {
			return l, true
		}
	}
	return models.ChargeLine{}, false
}

func TestTotalEqualsSumOfLinesRoundedBank(t *testing.T) {
	q := testEngine().Price(electronicsRequest(), models.ExtractionConfidence{Overall: 0.9}, laChicago())

	sum := decimal.Zero
	for _, l := range q.Lines {
		sum = sum.Add(l.Amount)
	}
	if !q.Total.Equal(sum.RoundBank(2)) {
		t.Fatalf("total %s must equal banker's-rounded line sum %s", q.Total, sum.RoundBank(2))
	}
	if q.Status != models.StatusPending {
		t.Fatalf("fresh quote must be pending, got %s", q.Status)
	}
}

func TestPricingIsDeterministic(t *testing.T) {
	e := testEngine()
	req := electronicsRequest()
	conf := models.ExtractionConfidence{Overall: 0.9}
	dist := laChicago()

	a := e.Price(req, conf, dist)
	b := e.Price(req, conf, dist)
	if !reflect.DeepEqual(a.Lines, b.Lines) {
		t.Fatalf("identical inputs must produce identical charge lines:\n%v\n%v", a.Lines, b.Lines)
	}
	if !a.Total.Equal(b.Total) {
		t.Fatalf("totals differ: %s vs %s", a.Total, b.Total)
	}
}

func TestLiftgateSurchargeLinePresent(t *testing.T) {
	q := testEngine().Price(electronicsRequest(), models.ExtractionConfidence{}, laChicago())
	line, ok := lineByCode(q, "service_liftgate")
	if !ok {
		t.Fatalf("expected a liftgate charge line")
	}
	if !line.Amount.Equal(decimal.NewFromInt(75)) {
		t.Fatalf("unexpected liftgate fee: %s", line.Amount)
	}
	if !q.Total.IsPositive() {
		t.Fatalf("total must be positive, got %s", q.Total)
	}
}

func TestHazmatSurcharge(t *testing.T) {
	req := electronicsRequest()
	req.Hazmat = true
	req.HazmatClass = "3"
	req.Commodity = "flammable_liquid_class_3"
	req.DeclaredValue = decimal.NewFromInt(25000)

	q := testEngine().Price(req, models.ExtractionConfidence{}, laChicago())
	line, ok := lineByCode(q, LineHazmat)
	if !ok {
		t.Fatalf("hazmat shipment must carry a hazmat line")
	}
	// 200 flat + 0.5% of 25000 = 325
	if !line.Amount.Equal(decimal.RequireFromString("325")) {
		t.Fatalf("unexpected hazmat surcharge: %s", line.Amount)
	}

	req.Hazmat = false
	q = testEngine().Price(req, models.ExtractionConfidence{}, laChicago())
	if _, ok := lineByCode(q, LineHazmat); ok {
		t.Fatalf("non-hazmat shipment must not carry a hazmat line")
	}
}

func TestWeightTierSelection(t *testing.T) {
	e := testEngine()
	dist := models.RouteDistance{Miles: 1000, TransitDays: 2}

	light := electronicsRequest()
	light.WeightLbs = 100
	heavy := electronicsRequest()
	heavy.WeightLbs = 20000

	lightLine, _ := lineByCode(e.Price(light, models.ExtractionConfidence{}, dist), LineLinehaul)
	heavyLine, _ := lineByCode(e.Price(heavy, models.ExtractionConfidence{}, dist), LineLinehaul)

	// 1000 mi: 2.50/mi for <500 lb vs 1.50/mi for >5000 lb.
	if !lightLine.Amount.Equal(decimal.RequireFromString("2500")) {
		t.Fatalf("light tier linehaul: %s", lightLine.Amount)
	}
	if !heavyLine.Amount.Equal(decimal.RequireFromString("1500")) {
		t.Fatalf("heavy tier linehaul: %s", heavyLine.Amount)
	}
}

func TestTierMinimumCharge(t *testing.T) {
	req := electronicsRequest()
	req.WeightLbs = 20000
	dist := models.RouteDistance{Miles: 50, TransitDays: 1}

	q := testEngine().Price(req, models.ExtractionConfidence{}, dist)
	line, _ := lineByCode(q, LineLinehaul)
	// 50 mi x 1.50 = 75, floored at the top tier minimum of 1200.
	if !line.Amount.Equal(decimal.RequireFromString("1200")) {
		t.Fatalf("expected tier minimum 1200, got %s", line.Amount)
	}
}

func TestBoxTruckDiscountIsNegativeAdjustment(t *testing.T) {
	req := electronicsRequest()
	req.Equipment = models.EquipmentBoxTruck

	q := testEngine().Price(req, models.ExtractionConfidence{}, laChicago())
	line, ok := lineByCode(q, LineEquipment)
	if !ok {
		t.Fatalf("expected an equipment adjustment line")
	}
	if !line.Amount.IsNegative() {
		t.Fatalf("box truck adjustment must be a discount, got %s", line.Amount)
	}
}

func TestDryVanHasNoEquipmentLine(t *testing.T) {
	q := testEngine().Price(electronicsRequest(), models.ExtractionConfidence{}, laChicago())
	if _, ok := lineByCode(q, LineEquipment); ok {
		t.Fatalf("dry van multiplier of 1.0 must not emit an adjustment line")
	}
}

func TestMarginFloorNeverNegative(t *testing.T) {
	// Margin percentage below the floor percentage forces the floor path.
	tariff := config.DefaultTariff()
	tariff.MarginPct = decimal.RequireFromString("0.02")
	tariff.MinimumMarginPct = decimal.RequireFromString("0.08")
	e := NewEngine(tariff)
	e.Clock = func() time.Time { return time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC) }
	e.NewID = func() string { return "QT-TEST" }

	q := e.Price(electronicsRequest(), models.ExtractionConfidence{}, laChicago())
	margin, ok := lineByCode(q, LineMargin)
	if !ok {
		t.Fatalf("expected margin line")
	}
	if margin.Amount.IsNegative() {
		t.Fatalf("margin floor must never produce a negative adjustment: %s", margin.Amount)
	}

	nonMargin := decimal.Zero
	for _, l := range q.Lines {
		if l.Code != LineMargin {
			nonMargin = nonMargin.Add(l.Amount)
		}
	}
	if q.Total.LessThan(nonMargin.RoundBank(2)) {
		t.Fatalf("total %s below non-margin sum %s", q.Total, nonMargin)
	}
	// Floor raises the margin to 8% of cost basis.
	if !margin.Amount.Equal(nonMargin.Mul(decimal.RequireFromString("0.08"))) {
		t.Fatalf("expected floor margin of 8%% of cost basis, got %s", margin.Amount)
	}
}

func TestQuoteValidityWindow(t *testing.T) {
	q := testEngine().Price(electronicsRequest(), models.ExtractionConfidence{}, laChicago())
	if got := q.ValidUntil.Sub(q.CreatedAt); got != 7*24*time.Hour {
		t.Fatalf("expected 7-day validity, got %s", got)
	}
}
