package oracle

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"scamfeed/internal/domain"
	"scamfeed/internal/logger"
	"scamfeed/internal/metrics"

	"google.golang.org/genai"
)

const classifyPrompt = `Analyze this image for potential scam or phishing content.
Return a JSON object with the following fields:
- isScam: boolean (true if this appears to be a scam)
- confidenceScore: number (0-100, how confident you are)
- scamType: string (e.g., "Voice Phishing", "Smishing", "Investment Scam", "Romance Scam", "Safe")
- riskLevel: string (must be one of: "LOW", "MEDIUM", "HIGH", "CRITICAL")
- extractedTags: string array (max 3 relevant tags like "Urgent", "Bank", "Family")
- analysis: string (2-3 sentence Korean explanation of why this is or isn't a scam)

Respond ONLY with valid JSON, no markdown formatting.`

const describePrompt = `다음 사기 분석 결과를 바탕으로 커뮤니티 피드에 올릴 짧은 경고 글을 한국어로 2문장 이내로 작성하세요.
사기 유형: %s
위험도: %s
신뢰도: %d%%
분석: %s
태그: %s
글 본문만 출력하세요.`

// Generator is the model call the oracle needs. Image may be nil.
type Generator interface {
	Generate(ctx context.Context, prompt string, image []byte, mimeType string, jsonOutput bool) (string, error)
}

// GenAIGenerator calls a Gemini model through google.golang.org/genai.
type GenAIGenerator struct {
	client *genai.Client
	model  string
}

func NewGenAIGenerator(ctx context.Context, apiKey, model string) (*GenAIGenerator, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("genai client: %w", err)
	}
	return &GenAIGenerator{client: client, model: model}, nil
}

func (g *GenAIGenerator) Generate(ctx context.Context, prompt string, image []byte, mimeType string, jsonOutput bool) (string, error) {
	var parts []*genai.Part
	if len(image) > 0 {
		parts = append(parts, genai.NewPartFromBytes(image, mimeType))
	}
	parts = append(parts, genai.NewPartFromText(prompt))

	var cfg *genai.GenerateContentConfig
	if jsonOutput {
		cfg = &genai.GenerateContentConfig{ResponseMIMEType: "application/json"}
	}

	resp, err := g.client.Models.GenerateContent(ctx, g.model,
		[]*genai.Content{genai.NewContentFromParts(parts, genai.RoleUser)}, cfg)
	if err != nil {
		return "", err
	}
	text := resp.Text()
	if strings.TrimSpace(text) == "" {
		return "", errors.New("empty model response")
	}
	return text, nil
}

// GeminiClassifier classifies images with a bounded-time model call.
type GeminiClassifier struct {
	gen     Generator
	timeout time.Duration
}

func NewGeminiClassifier(gen Generator, timeout time.Duration) *GeminiClassifier {
	return &GeminiClassifier{gen: gen, timeout: timeout}
}

func (c *GeminiClassifier) Classify(ctx context.Context, image []byte, mimeType string) (Result, error) {
	callCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	start := time.Now()
	text, err := c.gen.Generate(callCtx, classifyPrompt, image, mimeType, true)
	metrics.OracleLatency.Observe(time.Since(start).Seconds())

	if err != nil {
		// the caller gave up; nothing should be persisted
		if ctxErr := ctx.Err(); ctxErr != nil {
			return Result{}, ctxErr
		}
		logger.Warn("classifier call failed, using fallback verdict", "error", err, "mime", mimeType)
		return degraded(err), nil
	}

	v, err := ParseVerdict(text)
	if err != nil {
		logger.Warn("classifier response unparsable, using fallback verdict", "error", err)
		return degraded(err), nil
	}
	return Result{Verdict: v, Kind: KindOK}, nil
}

// GeminiDescriber asks the model for the post text.
type GeminiDescriber struct {
	gen     Generator
	timeout time.Duration
}

func NewGeminiDescriber(gen Generator, timeout time.Duration) *GeminiDescriber {
	return &GeminiDescriber{gen: gen, timeout: timeout}
}

func (d *GeminiDescriber) Describe(ctx context.Context, v domain.Verdict) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	prompt := fmt.Sprintf(describePrompt, v.ScamType, v.RiskLevel, v.ConfidenceScore, v.Analysis, strings.Join(v.ExtractedTags, ", "))
	text, err := d.gen.Generate(ctx, prompt, nil, "", false)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(text), nil
}
