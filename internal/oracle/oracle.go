// Package oracle adapts the external image classifier and text generator.
//
// Classify never surfaces classifier failures as errors. A failed call yields a
// degraded Result carrying FallbackVerdict so the pipeline always has a verdict
// to score; the only error returned is cancellation of the caller's context.
package oracle

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"scamfeed/internal/domain"
)

// Kind tells a real classifier answer apart from a fallback.
type Kind int

const (
	KindOK Kind = iota
	KindDegraded
)

func (k Kind) String() string {
	if k == KindDegraded {
		return "degraded"
	}
	return "ok"
}

type Result struct {
	Verdict domain.Verdict
	Kind    Kind
	// Cause is set for degraded results
	Cause error
}

func (r Result) Degraded() bool { return r.Kind == KindDegraded }

type Classifier interface {
	Classify(ctx context.Context, image []byte, mimeType string) (Result, error)
}

// Describer writes the short warning text shown on an auto-published post.
type Describer interface {
	Describe(ctx context.Context, v domain.Verdict) (string, error)
}

var ErrMalformedResponse = errors.New("malformed classifier response")

// FallbackVerdict is returned when classification fails.
func FallbackVerdict() domain.Verdict {
	return domain.Verdict{
		IsScam:          true,
		ConfidenceScore: 60,
		ScamType:        "Suspicious Content",
		RiskLevel:       domain.RiskMedium,
		ExtractedTags:   []string{"Error", "ManualReview"},
		Analysis:        "AI 분석 중 오류가 발생했습니다. 수동 검토가 필요합니다.",
	}
}

func degraded(cause error) Result {
	return Result{Verdict: FallbackVerdict(), Kind: KindDegraded, Cause: cause}
}

// PlaceholderClassifier stands in when no API key is configured.
type PlaceholderClassifier struct{}

func (PlaceholderClassifier) Classify(ctx context.Context, _ []byte, _ string) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}
	return Result{
		Verdict: domain.Verdict{
			IsScam:          true,
			ConfidenceScore: 75,
			ScamType:        "Suspicious Content",
			RiskLevel:       domain.RiskMedium,
			ExtractedTags:   []string{"Unknown", "ReviewRequired"},
			Analysis:        "API key not configured. This is a placeholder analysis.",
		},
		Kind:  KindDegraded,
		Cause: errors.New("classifier not configured"),
	}, nil
}

type rawVerdict struct {
	IsScam          *bool    `json:"isScam"`
	ConfidenceScore *float64 `json:"confidenceScore"`
	ScamType        *string  `json:"scamType"`
	RiskLevel       *string  `json:"riskLevel"`
	ExtractedTags   []string `json:"extractedTags"`
	Analysis        *string  `json:"analysis"`
}

// ParseVerdict decodes the classifier's JSON answer, tolerating a markdown
// code fence around it. Missing fields take defaults; values are normalized.
func ParseVerdict(text string) (domain.Verdict, error) {
	var raw rawVerdict
	if err := json.Unmarshal([]byte(stripFence(text)), &raw); err != nil {
		return domain.Verdict{}, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}

	v := domain.Verdict{
		IsScam:          true,
		ConfidenceScore: 50,
		ScamType:        "Unknown",
		RiskLevel:       domain.RiskMedium,
		ExtractedTags:   []string{},
		Analysis:        "Analysis completed.",
	}
	if raw.IsScam != nil {
		v.IsScam = *raw.IsScam
	}
	if raw.ConfidenceScore != nil {
		v.ConfidenceScore = min(100, max(0, int(*raw.ConfidenceScore)))
	}
	if raw.ScamType != nil && strings.TrimSpace(*raw.ScamType) != "" {
		v.ScamType = strings.TrimSpace(*raw.ScamType)
	}
	if raw.RiskLevel != nil {
		v.RiskLevel = domain.ParseRiskLevel(*raw.RiskLevel)
	}
	for _, t := range raw.ExtractedTags {
		if len(v.ExtractedTags) == domain.MaxExtractedTags {
			break
		}
		if t = strings.TrimSpace(t); t != "" {
			v.ExtractedTags = append(v.ExtractedTags, t)
		}
	}
	if raw.Analysis != nil {
		v.Analysis = *raw.Analysis
	}
	return v, nil
}

func stripFence(text string) string {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "```") {
		return text
	}
	text = strings.TrimPrefix(text, "```")
	if end := strings.Index(text, "```"); end >= 0 {
		text = text[:end]
	}
	text = strings.TrimSpace(text)
	text = strings.TrimPrefix(text, "json")
	return strings.TrimSpace(text)
}
