package routing

import (
	"math"
	"testing"
)

func TestHaversineSymmetry(t *testing.T) {
	points := [][4]float64{
		{30.0444, 31.2357, 30.0605, 31.3314},
		{0, 0, 10, 10},
		{-33.8688, 151.2093, 51.5074, -0.1278},
	}
	for _, p := range points {
		forward := Haversine(p[0], p[1], p[2], p[3])
		backward := Haversine(p[2], p[3], p[0], p[1])
		if math.Abs(forward-backward) > 1e-6 {
			t.Errorf("Haversine not symmetric: %f vs %f", forward, backward)
		}
	}
}

func TestHaversineIdentity(t *testing.T) {
	if d := Haversine(30.0444, 31.2357, 30.0444, 31.2357); d != 0 {
		t.Errorf("Haversine(p, p) = %f, want 0", d)
	}
}

func TestHaversineTahrirToNasrCity(t *testing.T) {
	// Tahrir Square to Nasr City, documented regression check.
	d := Haversine(30.0444, 31.2357, 30.0605, 31.3314)
	if d < 9300*0.95 || d > 9600*1.05 {
		t.Errorf("Tahrir→Nasr City = %.0f m, want 9300–9600 m ±5%%", d)
	}
}

func TestBearingRange(t *testing.T) {
	b := Bearing(30.0444, 31.2357, 30.0605, 31.3314)
	if b < 0 || b >= 360 {
		t.Errorf("Bearing = %f, want [0, 360)", b)
	}
	// Nasr City is roughly east-north-east of Tahrir.
	if b < 45 || b > 135 {
		t.Errorf("Bearing = %f, want roughly eastward", b)
	}
}
