package hashing

import (
	"fmt"
	"time"
)

// Calibrate returns the smallest bcrypt cost, starting at [MinCost], whose
// single hash takes at least target on the current machine. The search stops
// at ceiling, which is returned if no smaller cost is slow enough. A ceiling
// of zero means [MaxCost].
//
// Each step doubles the work, so a target of a few hundred milliseconds
// finishes in roughly twice that time.
func Calibrate(target time.Duration, ceiling int) (int, error) {
	if ceiling == 0 {
		ceiling = MaxCost
	}
	if err := checkCost(ceiling); err != nil {
		return 0, err
	}

	sample := []byte("calibration-sample")
	salt := make([]byte, SaltSize)

	for cost := MinCost; cost < ceiling; cost++ {
		start := time.Now()
		if _, err := Derive(sample, salt, cost); err != nil {
			return 0, fmt.Errorf("hashing: calibrate: %w", err)
		}
		if time.Since(start) >= target {
			return cost, nil
		}
	}
	return ceiling, nil
}
