package routing

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"
)

// GeometryDirect tags a straight-line fallback so callers can tell it
// apart from a real routed path.
const GeometryDirect = "direct"

// RouteResult is a displayable path with duration and distance estimates.
// Coordinates are (lng,lat) pairs, matching GeoJSON ordering.
type RouteResult struct {
	Coordinates     [][]float64 `json:"coordinates"`
	DurationSeconds float64     `json:"duration_seconds"`
	DistanceMeters  float64     `json:"distance_meters"`
	Geometry        string      `json:"geometry"`
}

// Step is a single turn-by-turn maneuver.
type Step struct {
	Instruction string  `json:"instruction"`
	Distance    float64 `json:"distance"`
	Duration    float64 `json:"duration"`
	Type        string  `json:"type"`
}

// osrmResponse mirrors the subset of the routing API response we consume.
type osrmResponse struct {
	Routes []struct {
		Geometry struct {
			Coordinates [][]float64 `json:"coordinates"`
		} `json:"geometry"`
		Duration float64 `json:"duration"`
		Distance float64 `json:"distance"`
		Legs     []struct {
			Steps []struct {
				Maneuver struct {
					Instruction string `json:"instruction"`
					Type        string `json:"type"`
				} `json:"maneuver"`
				Distance float64 `json:"distance"`
				Duration float64 `json:"duration"`
			} `json:"steps"`
		} `json:"legs"`
	} `json:"routes"`
}

// Service queries an OSRM-compatible routing API for path geometry, with
// a local haversine fallback when the upstream is unavailable. Construct
// one at application start and pass it where needed; it holds no state
// beyond the HTTP client.
type Service struct {
	baseURL    string
	httpClient *http.Client
}

// NewService creates a routing service against the given OSRM base URL.
func NewService(baseURL string) *Service {
	return &Service{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// CalculateRoute produces a path plus duration/distance estimate between
// two points. It never returns an error: any upstream failure degrades
// silently to the direct straight-line estimate.
func (s *Service) CalculateRoute(ctx context.Context, start, end Coordinate) RouteResult {
	resp, err := s.query(ctx, start, end, false)
	if err != nil {
		logrus.WithError(err).Warn("Routing API unavailable, falling back to direct route.")
		return DirectRoute(start, end)
	}

	route := resp.Routes[0]
	return RouteResult{
		Coordinates:     route.Geometry.Coordinates,
		DurationSeconds: route.Duration,
		DistanceMeters:  route.Distance,
		Geometry:        "geojson",
	}
}

// TurnByTurn requests step-level maneuvers for the path. Turn-by-turn is
// best-effort: any failure yields an empty slice, not an error.
func (s *Service) TurnByTurn(ctx context.Context, start, end Coordinate) []Step {
	resp, err := s.query(ctx, start, end, true)
	if err != nil {
		logrus.WithError(err).Warn("Turn-by-turn request failed, returning no steps.")
		return []Step{}
	}

	steps := []Step{}
	for _, leg := range resp.Routes[0].Legs {
		for _, raw := range leg.Steps {
			step := Step{
				Instruction: raw.Maneuver.Instruction,
				Distance:    raw.Distance,
				Duration:    raw.Duration,
				Type:        raw.Maneuver.Type,
			}
			if step.Instruction == "" {
				step.Instruction = "Continue"
			}
			if step.Type == "" {
				step.Type = "straight"
			}
			steps = append(steps, step)
		}
	}
	return steps
}

// query performs the upstream call. An empty route list is treated the
// same as a network failure.
func (s *Service) query(ctx context.Context, start, end Coordinate, steps bool) (*osrmResponse, error) {
	url := fmt.Sprintf(
		"%s/route/v1/driving/%f,%f;%f,%f?geometries=geojson&overview=full",
		s.baseURL, start.Longitude, start.Latitude, end.Longitude, end.Latitude,
	)
	if steps {
		url += "&steps=true"
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("routing: failed to create request: %w", err)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("routing: request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("routing: unexpected status %d", resp.StatusCode)
	}

	var decoded osrmResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("routing: failed to decode response: %w", err)
	}
	if len(decoded.Routes) == 0 {
		return nil, fmt.Errorf("routing: no routes in response")
	}
	return &decoded, nil
}

// DirectRoute computes the straight-line fallback: haversine distance,
// a crude linear duration estimate (2 minutes per km) and exactly the
// two endpoints as coordinates.
func DirectRoute(start, end Coordinate) RouteResult {
	distance := Haversine(start.Latitude, start.Longitude, end.Latitude, end.Longitude)
	durationMinutes := distance / 1000 * 2

	return RouteResult{
		Coordinates: [][]float64{
			{start.Longitude, start.Latitude},
			{end.Longitude, end.Latitude},
		},
		DurationSeconds: durationMinutes * 60,
		DistanceMeters:  distance,
		Geometry:        GeometryDirect,
	}
}
