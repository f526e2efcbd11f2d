package routing

import (
	"context"
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

const osrmFixture = `{
	"routes": [{
		"geometry": {"coordinates": [[31.2357, 30.0444], [31.28, 30.05], [31.3314, 30.0605]]},
		"duration": 840.5,
		"distance": 10240.2,
		"legs": [{
			"steps": [
				{"maneuver": {"instruction": "Head east", "type": "depart"}, "distance": 500, "duration": 60},
				{"maneuver": {}, "distance": 9740.2, "duration": 780.5}
			]
		}]
	}]
}`

var (
	tahrir   = Coordinate{Latitude: 30.0444, Longitude: 31.2357}
	nasrCity = Coordinate{Latitude: 30.0605, Longitude: 31.3314}
)

func TestCalculateRouteUsesUpstreamGeometry(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasPrefix(r.URL.Path, "/route/v1/driving/") {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		if r.URL.Query().Get("geometries") != "geojson" {
			t.Errorf("geometries = %q, want geojson", r.URL.Query().Get("geometries"))
		}
		w.Write([]byte(osrmFixture))
	}))
	defer srv.Close()

	result := NewService(srv.URL).CalculateRoute(context.Background(), tahrir, nasrCity)

	if result.Geometry == GeometryDirect {
		t.Fatal("upstream succeeded but result is the direct fallback")
	}
	if len(result.Coordinates) != 3 {
		t.Errorf("coordinates = %d, want 3", len(result.Coordinates))
	}
	if result.DurationSeconds != 840.5 || result.DistanceMeters != 10240.2 {
		t.Errorf("duration/distance not taken from first route: %+v", result)
	}
}

func TestCalculateRouteFallsBackOnServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	result := NewService(srv.URL).CalculateRoute(context.Background(), tahrir, nasrCity)
	assertDirectRoute(t, result)
}

func TestCalculateRouteFallsBackOnEmptyRouteList(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"routes": []}`))
	}))
	defer srv.Close()

	result := NewService(srv.URL).CalculateRoute(context.Background(), tahrir, nasrCity)
	assertDirectRoute(t, result)
}

func TestCalculateRouteFallsBackOnNetworkError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // connection refused from here on

	result := NewService(srv.URL).CalculateRoute(context.Background(), tahrir, nasrCity)
	assertDirectRoute(t, result)
}

func assertDirectRoute(t *testing.T, result RouteResult) {
	t.Helper()
	if result.Geometry != GeometryDirect {
		t.Fatalf("geometry = %q, want %q", result.Geometry, GeometryDirect)
	}
	if len(result.Coordinates) != 2 {
		t.Fatalf("coordinates = %d, want exactly 2 endpoints", len(result.Coordinates))
	}

	wantDistance := Haversine(tahrir.Latitude, tahrir.Longitude, nasrCity.Latitude, nasrCity.Longitude)
	if math.Abs(result.DistanceMeters-wantDistance) > 1e-6 {
		t.Errorf("distance = %f, want haversine %f", result.DistanceMeters, wantDistance)
	}
	// Duration estimate: 2 minutes per kilometer.
	wantDuration := wantDistance / 1000 * 2 * 60
	if math.Abs(result.DurationSeconds-wantDuration) > 1e-6 {
		t.Errorf("duration = %f, want %f", result.DurationSeconds, wantDuration)
	}
}

func TestTurnByTurnMapsStepsWithDefaults(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("steps") != "true" {
			t.Errorf("steps = %q, want true", r.URL.Query().Get("steps"))
		}
		w.Write([]byte(osrmFixture))
	}))
	defer srv.Close()

	steps := NewService(srv.URL).TurnByTurn(context.Background(), tahrir, nasrCity)

	if len(steps) != 2 {
		t.Fatalf("steps = %d, want 2", len(steps))
	}
	if steps[0].Instruction != "Head east" || steps[0].Type != "depart" {
		t.Errorf("first step not mapped: %+v", steps[0])
	}
	if steps[1].Instruction != "Continue" || steps[1].Type != "straight" {
		t.Errorf("missing maneuver fields must default: %+v", steps[1])
	}
}

func TestTurnByTurnReturnsEmptyOnFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	steps := NewService(srv.URL).TurnByTurn(context.Background(), tahrir, nasrCity)
	if steps == nil || len(steps) != 0 {
		t.Errorf("steps = %v, want empty non-nil slice", steps)
	}
}
