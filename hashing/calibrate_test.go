package hashing_test

import (
	"errors"
	"testing"
	"time"

	"github.com/hasbyte1/passhash/hashing"
)

func TestCalibrate_ZeroTargetReturnsMinCost(t *testing.T) {
	cost, err := hashing.Calibrate(0, 0)
	if err != nil {
		t.Fatalf("Calibrate: %v", err)
	}
	if cost != hashing.MinCost {
		t.Errorf("cost = %d, want %d", cost, hashing.MinCost)
	}
}

func TestCalibrate_StopsAtCeiling(t *testing.T) {
	cost, err := hashing.Calibrate(time.Hour, 6)
	if err != nil {
		t.Fatalf("Calibrate: %v", err)
	}
	if cost != 6 {
		t.Errorf("cost = %d, want 6", cost)
	}
}

func TestCalibrate_InvalidCeiling(t *testing.T) {
	for _, ceiling := range []int{-1, 3, 32} {
		if _, err := hashing.Calibrate(time.Millisecond, ceiling); !errors.Is(err, hashing.ErrInvalidCostFactor) {
			t.Errorf("ceiling %d: expected ErrInvalidCostFactor, got %v", ceiling, err)
		}
	}
}
