package domain

import "testing"

func TestEstimateServiceMinutes(t *testing.T) {
	cases := []struct {
		sqft int
		want int
	}{
		{sqft: 1200, want: 60},
		{sqft: 1499, want: 60},
		{sqft: 1500, want: 75},
		{sqft: 2000, want: 75},
		{sqft: 2499, want: 75},
		{sqft: 3000, want: 90},
		{sqft: 4000, want: 105},
		{sqft: 4999, want: 105},
		{sqft: 5000, want: 120},
		{sqft: 6000, want: 120},
	}

	for _, c := range cases {
		sqft := c.sqft
		if got := EstimateServiceMinutes(&sqft); got != c.want {
			t.Errorf("EstimateServiceMinutes(%d) = %d, want %d", c.sqft, got, c.want)
		}
	}
}

func TestEstimateServiceMinutesDefaultsToMidBand(t *testing.T) {
	// Absent square footage falls back to the 2000 sqft band.
	if got := EstimateServiceMinutes(nil); got != 75 {
		t.Fatalf("EstimateServiceMinutes(nil) = %d, want 75", got)
	}
}
