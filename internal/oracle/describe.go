package oracle

import (
	"context"
	"fmt"
	"strings"

	"scamfeed/internal/domain"
)

// TemplateDescription is the deterministic post text used when no model
// text is available.
func TemplateDescription(v domain.Verdict) string {
	scamType := strings.TrimSpace(v.ScamType)
	if scamType == "" {
		scamType = "의심 콘텐츠"
	}
	text := fmt.Sprintf("⚠️ %s 주의! AI 분석 결과 사기 위험이 감지되었습니다.", scamType)
	if len(v.ExtractedTags) > 0 {
		text += " #" + strings.Join(v.ExtractedTags, " #")
	}
	return text
}

type TemplateDescriber struct{}

func (TemplateDescriber) Describe(_ context.Context, v domain.Verdict) (string, error) {
	return TemplateDescription(v), nil
}
