package extract

import (
	"context"
	"hash/fnv"
	"regexp"
	"time"

	"github.com/swiftfreight/quote-engine/internal/models"
	"github.com/swiftfreight/quote-engine/internal/zipdb"
)

var zipToken = regexp.MustCompile(`\b\d{5}\b`)

// MockExtractor produces deterministic shipments without a model endpoint,
// for local development and tests. ZIPs present in the email are used
// as-is; everything else is derived from a hash of the body.
type MockExtractor struct{}

func (MockExtractor) Extract(_ context.Context, emailBody string) (models.RawShipment, models.ExtractionConfidence, error) {
	h := fnv.New64a()
	h.Write([]byte(emailBody))
	seed := h.Sum64()

	zips := zipdb.All()
	origin := zips[seed%uint64(len(zips))]
	dest := zips[(seed/7)%uint64(len(zips))]
	if found := zipToken.FindAllString(emailBody, 2); len(found) == 2 {
		origin, dest = found[0], found[1]
	}

	commodities := []string{"electronics", "machine parts", "packaged food", "furniture"}
	equipment := []string{"dry_van", "dry_van", "box_truck", "flatbed"}

	shipment := models.RawShipment{
		OriginZip:      origin,
		DestinationZip: dest,
		WeightLbs:      float64(200 + seed%4800),
		Pieces:         1 + int((seed/11)%6),
		Dimensions:     models.Dimensions{Length: 48, Width: 40, Height: 48},
		Commodity:      commodities[(seed/13)%uint64(len(commodities))],
		EquipmentType:  equipment[(seed/17)%uint64(len(equipment))],
		PickupDate:     time.Now().UTC().AddDate(0, 0, 3+int(seed%5)).Format("2006-01-02"),
		DeclaredValue:  float64(1000 + seed%40000),
	}
	if seed%4 == 0 {
		shipment.SpecialServices = []string{"liftgate"}
	}

	confidence := 0.91
	if seed%5 == 0 {
		confidence = 0.62
	}
	return shipment, models.ExtractionConfidence{
		Overall: confidence,
		Fields: map[string]float64{
			"origin_zip":      confidence,
			"destination_zip": confidence,
			"weight_lbs":      confidence,
		},
	}, nil
}
