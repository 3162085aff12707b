// Package validate normalizes and sanity-checks raw extracted shipment
// payloads. Validation is a pure function over its input: all field
// failures are collected and reported together so the sender can be asked
// for a single clarification pass.
package validate

import (
	"fmt"
	"math"
	"regexp"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/swiftfreight/quote-engine/internal/models"
	"github.com/swiftfreight/quote-engine/internal/zipdb"
)

const (
	CodeMalformedPayload   = "malformed_payload"
	CodeOutOfRange         = "out_of_range"
	CodeUnknownEnumValue   = "unknown_enum_value"
	CodeHazmatInconsistent = "hazmat_inconsistent"

	// WarningUnresolvableZip flags a well-formed ZIP missing from the
	// reference set. The request stays valid but is routed to review.
	WarningUnresolvableZip = "unresolvable_zip"
)

const (
	MaxWeightLbs   = 80000.0
	MaxDimensionIn = 600.0
)

type FieldError struct {
	Field   string `json:"field"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (e FieldError) Error() string {
	return fmt.Sprintf("%s: %s (%s)", e.Field, e.Message, e.Code)
}

var (
	zipPattern = regexp.MustCompile(`^\d{5}$`)
	// Recognizes a hazmat classification embedded in the commodity text,
	// e.g. "flammable_liquid_class_3" or "UN1203".
	hazClassPattern = regexp.MustCompile(`(?i)(class[ _-]?\d|un ?\d{4})`)
)

var equipmentTypes = map[models.EquipmentType]bool{
	models.EquipmentDryVan:   true,
	models.EquipmentFlatbed:  true,
	models.EquipmentBoxTruck: true,
	models.EquipmentReefer:   true,
	models.EquipmentStepDeck: true,
}

var serviceTypes = map[models.ServiceType]bool{
	models.ServiceLiftgate:       true,
	models.ServiceInsideDelivery: true,
	models.ServiceResidential:    true,
	models.ServiceAppointment:    true,
	models.ServiceClimateControl: true,
	models.ServiceLimitedAccess:  true,
}

// Shipment validates a raw payload against the reference data and
// returns the normalized immutable request. A non-empty error slice means
// the payload was rejected; warnings ride on the returned request.
func Shipment(raw models.RawShipment, now time.Time) (models.ShipmentRequest, []FieldError) {
	var errs []FieldError
	var warnings []string

	checkZip := func(field, zip string) string {
		zip = strings.TrimSpace(zip)
		if !zipPattern.MatchString(zip) {
			errs = append(errs, FieldError{field, CodeMalformedPayload, "must be a 5-digit ZIP code"})
			return zip
		}
		if !zipdb.Known(zip) {
			warnings = append(warnings, WarningUnresolvableZip)
		}
		return zip
	}
	originZip := checkZip("origin_zip", raw.OriginZip)
	destZip := checkZip("destination_zip", raw.DestinationZip)

	if !positiveFinite(raw.WeightLbs) || raw.WeightLbs > MaxWeightLbs {
		errs = append(errs, FieldError{"weight_lbs", CodeOutOfRange,
			fmt.Sprintf("must be a positive weight up to %.0f lbs", MaxWeightLbs)})
	}
	if raw.Pieces < 1 {
		errs = append(errs, FieldError{"pieces", CodeOutOfRange, "must be at least 1"})
	}
	for _, d := range []struct {
		name  string
		value float64
	}{
		{"dimensions.length", raw.Dimensions.Length},
		{"dimensions.width", raw.Dimensions.Width},
		{"dimensions.height", raw.Dimensions.Height},
	} {
		if !positiveFinite(d.value) || d.value > MaxDimensionIn {
			errs = append(errs, FieldError{d.name, CodeOutOfRange,
				fmt.Sprintf("must be a positive dimension up to %.0f inches", MaxDimensionIn)})
		}
	}

	pickup := datePart(now)
	if strings.TrimSpace(raw.PickupDate) != "" {
		parsed, err := time.Parse("2006-01-02", strings.TrimSpace(raw.PickupDate))
		if err != nil {
			errs = append(errs, FieldError{"pickup_date", CodeMalformedPayload, "must be a YYYY-MM-DD date"})
		} else if parsed.Before(datePart(now)) {
			errs = append(errs, FieldError{"pickup_date", CodeOutOfRange, "must be today or in the future"})
		} else {
			pickup = parsed
		}
	}

	equipment := models.EquipmentDryVan
	if v := normalizeEnum(raw.EquipmentType); v != "" {
		equipment = models.EquipmentType(v)
		if !equipmentTypes[equipment] {
			errs = append(errs, FieldError{"equipment_type", CodeUnknownEnumValue,
				fmt.Sprintf("unknown equipment type %q", raw.EquipmentType)})
		}
	}

	var services []models.ServiceType
	seen := map[models.ServiceType]bool{}
	for _, s := range raw.SpecialServices {
		svc := models.ServiceType(normalizeEnum(s))
		if svc == "" {
			continue
		}
		if !serviceTypes[svc] {
			errs = append(errs, FieldError{"special_services", CodeUnknownEnumValue,
				fmt.Sprintf("unknown special service %q", s)})
			continue
		}
		if !seen[svc] {
			seen[svc] = true
			services = append(services, svc)
		}
	}

	if raw.DeclaredValue < 0 || math.IsNaN(raw.DeclaredValue) || math.IsInf(raw.DeclaredValue, 0) {
		errs = append(errs, FieldError{"declared_value", CodeOutOfRange, "must be zero or positive"})
	}

	hazClass := strings.TrimSpace(raw.HazmatClass)
	if raw.Hazmat && hazClass == "" {
		// A classification embedded in the commodity text is accepted;
		// absence anywhere is a failure, never a silent default.
		if m := hazClassPattern.FindString(raw.Commodity); m != "" {
			hazClass = m
		} else {
			errs = append(errs, FieldError{"hazmat_class", CodeHazmatInconsistent,
				"hazmat shipments require a hazmat classification"})
		}
	}

	if len(errs) > 0 {
		return models.ShipmentRequest{}, errs
	}

	return models.ShipmentRequest{
		OriginZip:       originZip,
		DestinationZip:  destZip,
		WeightLbs:       raw.WeightLbs,
		Pieces:          raw.Pieces,
		Dimensions:      raw.Dimensions,
		Commodity:       strings.TrimSpace(raw.Commodity),
		SpecialServices: services,
		Equipment:       equipment,
		PickupDate:      pickup,
		Hazmat:          raw.Hazmat,
		HazmatClass:     hazClass,
		DeclaredValue:   decimal.NewFromFloat(raw.DeclaredValue),
		Warnings:        warnings,
	}, nil
}

func positiveFinite(v float64) bool {
	return v > 0 && !math.IsInf(v, 0) && !math.IsNaN(v)
}

func normalizeEnum(v string) string {
	v = strings.ToLower(strings.TrimSpace(v))
	return strings.ReplaceAll(v, " ", "_")
}

func datePart(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
