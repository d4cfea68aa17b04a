package domain

import "strings"

// RiskLevel is the normalized severity reported by the classifier
type RiskLevel string

const (
	RiskLow      RiskLevel = "LOW"
	RiskMedium   RiskLevel = "MEDIUM"
	RiskHigh     RiskLevel = "HIGH"
	RiskCritical RiskLevel = "CRITICAL"
)

// MaxExtractedTags bounds Verdict.ExtractedTags.
const MaxExtractedTags = 3

// ParseRiskLevel uppercases s and maps anything unrecognized to RiskMedium.
func ParseRiskLevel(s string) RiskLevel {
	switch r := RiskLevel(strings.ToUpper(strings.TrimSpace(s))); r {
	case RiskLow, RiskMedium, RiskHigh, RiskCritical:
		return r
	}
	return RiskMedium
}

// Verdict is the structured output of one image classification.
type Verdict struct {
	IsScam          bool      `json:"is_scam"`
	ConfidenceScore int       `json:"confidence_score"`
	ScamType        string    `json:"scam_type"`
	RiskLevel       RiskLevel `json:"risk_level"`
	ExtractedTags   []string  `json:"extracted_tags"`
	Analysis        string    `json:"analysis"`
}

// IsVerifiedScam reports whether the verdict is a scam at or above minConfidence.
func (v Verdict) IsVerifiedScam(minConfidence int) bool {
	return v.IsScam && v.ConfidenceScore >= minConfidence
}
