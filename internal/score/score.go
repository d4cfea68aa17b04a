// Package score turns a classifier verdict into the integer scam score shown on posts.
package score

import "strings"

// weights are percentages so the product truncates exactly.
var weights = map[string]int{
	"CRITICAL": 100,
	"HIGH":     80,
	"MEDIUM":   50,
	"LOW":      20,
}

const defaultWeight = 50

// Score multiplies confidence by the weight of riskLevel and truncates toward zero.
// Unknown or empty risk levels weigh like MEDIUM. Confidence is clamped to [0,100]
// so the result always lies in [0, confidence].
func Score(riskLevel string, confidence int) int {
	w, ok := weights[strings.ToUpper(strings.TrimSpace(riskLevel))]
	if !ok {
		w = defaultWeight
	}
	switch {
	case confidence < 0:
		confidence = 0
	case confidence > 100:
		confidence = 100
	}
	return confidence * w / 100
}
