package distance

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/swiftfreight/quote-engine/internal/models"
	"github.com/swiftfreight/quote-engine/internal/zipdb"
)

const metersToMiles = 0.000621371

// MapboxProvider routes through the Mapbox Directions API.
type MapboxProvider struct {
	BaseURL string
	Token   string
	Client  *http.Client
}

type mapboxResponse struct {
	Routes []struct {
		Distance float64 `json:"distance"` // meters
		Duration float64 `json:"duration"` // seconds
	} `json:"routes"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (p *MapboxProvider) Route(ctx context.Context, origin, dest zipdb.Info) (models.RouteDistance, error) {
	if p.Client == nil {
		p.Client = &http.Client{Timeout: 10 * time.Second}
	}
	if p.BaseURL == "" {
		p.BaseURL = "https://api.mapbox.com"
	}

	// Mapbox wants longitude first.
	endpoint := fmt.Sprintf("%s/directions/v5/mapbox/driving/%f,%f;%f,%f?access_token=%s&overview=false",
		p.BaseURL, origin.Lon, origin.Lat, dest.Lon, dest.Lat, p.Token)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return models.RouteDistance{}, err
	}

	resp, err := p.Client.Do(req)
	if err != nil {
		return models.RouteDistance{}, err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return models.RouteDistance{}, fmt.Errorf("mapbox http error: %s", resp.Status)
	}

	var body mapboxResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return models.RouteDistance{}, err
	}
	if len(body.Routes) == 0 {
		return models.RouteDistance{}, fmt.Errorf("mapbox returned no routes (%s: %s)", body.Code, body.Message)
	}

	route := body.Routes[0]
	return models.RouteDistance{
		Miles:         route.Distance * metersToMiles,
		DurationHours: route.Duration / 3600,
	}, nil
}
