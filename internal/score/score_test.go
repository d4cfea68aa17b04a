package score

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestScore_KnownValues(t *testing.T) {
	cases := []struct {
		risk string
		conf int
		want int
	}{
		{"CRITICAL", 100, 100},
		{"LOW", 100, 20},
		{"MEDIUM", 75, 37},
		{"UNKNOWN", 80, 40},
		{"HIGH", 60, 48},
		{"", 80, 40},
		{"high", 50, 40},
		{"LOW", 0, 0},
	}

	for _, tc := range cases {
		assert.Equal(t, tc.want, Score(tc.risk, tc.conf), "Score(%q, %d)", tc.risk, tc.conf)
	}
}

func TestScore_BoundedByConfidence(t *testing.T) {
	for _, risk := range []string{"CRITICAL", "HIGH", "MEDIUM", "LOW", "bogus"} {
		for conf := 0; conf <= 100; conf++ {
			got := Score(risk, conf)
			if got < 0 || got > conf {
				t.Fatalf("Score(%s,%d) = %d; want within [0,%d]", risk, conf, got, conf)
			}
		}
	}
}

func TestScore_MonotonicInRisk(t *testing.T) {
	order := []string{"CRITICAL", "HIGH", "MEDIUM", "LOW"}
	for conf := 0; conf <= 100; conf++ {
		for i := 1; i < len(order); i++ {
			hi, lo := Score(order[i-1], conf), Score(order[i], conf)
			if hi < lo {
				t.Fatalf("conf=%d: %s=%d < %s=%d", conf, order[i-1], hi, order[i], lo)
			}
		}
	}
}

func TestScore_ClampsConfidence(t *testing.T) {
	assert.Equal(t, 100, Score("CRITICAL", 250))
	assert.Equal(t, 0, Score("CRITICAL", -5))
}
