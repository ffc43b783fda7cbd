package generation

import (
	"math"
	"testing"
)

func TestScoreConfidence(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		text     string
		grounded bool
		want     float64
	}{
		{"grounded confident", "The dress comes in S through XL.", true, 0.85},
		{"ungrounded confident", "We ship worldwide.", false, 0.65},
		{"grounded hedged", "I'm not sure, but it may run small.", true, 0.65},
		{"ungrounded hedged", "Unfortunately I don't have that information.", false, 0.45},
		{"hedge counted once", "I'm not sure. I don't know. I cannot say.", true, 0.65},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			got := ScoreConfidence(tc.text, tc.grounded)
			if math.Abs(got-tc.want) > 1e-9 {
				t.Fatalf("ScoreConfidence(%q, %v) = %v, want %v", tc.text, tc.grounded, got, tc.want)
			}
		})
	}
}
