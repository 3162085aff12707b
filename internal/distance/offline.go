package distance

import (
	"context"
	"math"

	"github.com/swiftfreight/quote-engine/internal/models"
	"github.com/swiftfreight/quote-engine/internal/zipdb"
)

const (
	earthRadiusMiles = 3959.0
	averageSpeedMPH  = 60.0
)

// OfflineProvider estimates routes from the reference coordinates with a
// great-circle calculation. Selected at startup when no Mapbox token is
// configured; it is never a silent fallback for a failing provider.
type OfflineProvider struct{}

func (OfflineProvider) Route(_ context.Context, origin, dest zipdb.Info) (models.RouteDistance, error) {
	miles := haversineMiles(origin.Lat, origin.Lon, dest.Lat, dest.Lon)
	return models.RouteDistance{
		Miles:         miles,
		DurationHours: miles / averageSpeedMPH,
	}, nil
}

func haversineMiles(lat1, lon1, lat2, lon2 float64) float64 {
	dLat := radians(lat2 - lat1)
	dLon := radians(lon2 - lon1)

	lat1R := radians(lat1)
	lat2R := radians(lat2)

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Sin(dLon/2)*math.Sin(dLon/2)*math.Cos(lat1R)*math.Cos(lat2R)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return earthRadiusMiles * c
}

func radians(d float64) float64 {
	return d * math.Pi / 180
}
