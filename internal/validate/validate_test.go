package validate

import (
	"testing"
	"time"

	"github.com/swiftfreight/quote-engine/internal/models"
)

var testNow = time.Date(2026, 3, 2, 15, 0, 0, 0, time.UTC)

func validRaw() models.RawShipment {
	return models.RawShipment{
		OriginZip:       "90021",
		DestinationZip:  "60601",
		WeightLbs:       800,
		Pieces:          2,
		Dimensions:      models.Dimensions{Length: 48, Width: 40, Height: 60},
		Commodity:       "electronics",
		SpecialServices: []string{"liftgate"},
		EquipmentType:   "dry_van",
		PickupDate:      "2026-03-10",
		DeclaredValue:   50000,
	}
}

func TestValidShipmentPasses(t *testing.T) {
	req, errs := Shipment(validRaw(), testNow)
	if len(errs) != 0 {
		t.Fatalf("expected no errors, got %v", errs)
	}
	if len(req.Warnings) != 0 {
		t.Fatalf("expected no warnings, got %v", req.Warnings)
	}
	if req.Equipment != models.EquipmentDryVan {
		t.Fatalf("unexpected equipment: %s", req.Equipment)
	}
	if len(req.SpecialServices) != 1 || req.SpecialServices[0] != models.ServiceLiftgate {
		t.Fatalf("unexpected services: %v", req.SpecialServices)
	}
}

func TestCollectsAllFailures(t *testing.T) {
	raw := validRaw()
	raw.OriginZip = "abc"
	raw.WeightLbs = -5
	raw.EquipmentType = "hovercraft"
	_, errs := Shipment(raw, testNow)
	if len(errs) != 3 {
		t.Fatalf("expected 3 collected errors, got %d: %v", len(errs), errs)
	}
	codes := map[string]bool{}
	for _, e := range errs {
		codes[e.Code] = true
	}
	if !codes[CodeMalformedPayload] || !codes[CodeOutOfRange] || !codes[CodeUnknownEnumValue] {
		t.Fatalf("missing expected codes in %v", errs)
	}
}

func TestUnknownZipIsWarningNotError(t *testing.T) {
	raw := validRaw()
	raw.DestinationZip = "99999"
	req, errs := Shipment(raw, testNow)
	if len(errs) != 0 {
		t.Fatalf("well-formed unknown zip must not reject: %v", errs)
	}
	if !req.HasWarning(WarningUnresolvableZip) {
		t.Fatalf("expected unresolvable_zip warning, got %v", req.Warnings)
	}
}

func TestHazmatRequiresClassification(t *testing.T) {
	raw := validRaw()
	raw.Hazmat = true
	_, errs := Shipment(raw, testNow)
	if len(errs) != 1 || errs[0].Code != CodeHazmatInconsistent {
		t.Fatalf("expected hazmat_inconsistent, got %v", errs)
	}

	raw.HazmatClass = "3"
	req, errs := Shipment(raw, testNow)
	if len(errs) != 0 {
		t.Fatalf("expected pass with hazmat class, got %v", errs)
	}
	if req.HazmatClass != "3" {
		t.Fatalf("hazmat class not carried: %q", req.HazmatClass)
	}
}

func TestHazmatClassFromCommodity(t *testing.T) {
	raw := validRaw()
	raw.Hazmat = true
	raw.Commodity = "flammable_liquid_class_3"
	req, errs := Shipment(raw, testNow)
	if len(errs) != 0 {
		t.Fatalf("classification in commodity must satisfy the rule: %v", errs)
	}
	if req.HazmatClass == "" {
		t.Fatalf("expected hazmat class extracted from commodity")
	}
}

func TestPickupDateRules(t *testing.T) {
	raw := validRaw()
	raw.PickupDate = "2026-03-01"
	_, errs := Shipment(raw, testNow)
	if len(errs) != 1 || errs[0].Code != CodeOutOfRange {
		t.Fatalf("past pickup date must fail out_of_range, got %v", errs)
	}

	raw.PickupDate = "not-a-date"
	_, errs = Shipment(raw, testNow)
	if len(errs) != 1 || errs[0].Code != CodeMalformedPayload {
		t.Fatalf("unparsable date must fail malformed_payload, got %v", errs)
	}

	raw.PickupDate = "2026-03-02"
	if _, errs = Shipment(raw, testNow); len(errs) != 0 {
		t.Fatalf("same-day pickup must pass, got %v", errs)
	}
}

func TestBoundsEnforced(t *testing.T) {
	raw := validRaw()
	raw.WeightLbs = 80001
	raw.Dimensions.Height = 601
	_, errs := Shipment(raw, testNow)
	if len(errs) != 2 {
		t.Fatalf("expected weight and dimension failures, got %v", errs)
	}
	for _, e := range errs {
		if e.Code != CodeOutOfRange {
			t.Fatalf("expected out_of_range, got %v", e)
		}
	}
}

func TestServiceNormalizationAndDedup(t *testing.T) {
	raw := validRaw()
	raw.SpecialServices = []string{"Liftgate", "climate control", "liftgate"}
	req, errs := Shipment(raw, testNow)
	if len(errs) != 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}
	if len(req.SpecialServices) != 2 {
		t.Fatalf("expected deduped normalized services, got %v", req.SpecialServices)
	}
}
