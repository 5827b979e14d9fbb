package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"

	"medvault-api/internal/domain/apperror"
	"medvault-api/internal/domain/entity"
)

// ComplianceChecker labels a text blob for HIPAA compliance. The model
// is instructed to emit a fixed JSON schema and the response is
// validated against it; free-text assessments are rejected as parse
// errors rather than keyword-matched.
type ComplianceChecker struct {
	llm    CompletionService
	maxLen int
}

func NewComplianceChecker(llm CompletionService, maxLen int) *ComplianceChecker {
	return &ComplianceChecker{llm: llm, maxLen: maxLen}
}

type complianceOutput struct {
	PHIPresent         bool     `json:"phi_present"`
	ComplianceStatus   string   `json:"compliance_status"`
	RiskLevel          string   `json:"risk_level"`
	RecommendedActions []string `json:"recommended_actions"`
}

var validStatuses = map[string]bool{
	"compliant":           true,
	"partially_compliant": true,
	"non_compliant":       true,
}

// PHI patterns the document text is scanned for locally: SSN-like
// identifiers, full dates, and MRN labels. The scan result is OR-ed
// with the model's phi_present flag so an obvious identifier is never
// missed because the model overlooked it.
var phiPatterns = []*regexp.Regexp{
	regexp.MustCompile(`\b\d{3}-\d{2}-\d{4}\b`),
	regexp.MustCompile(`\b\d{4}-\d{2}-\d{2}\b`),
	regexp.MustCompile(`\b\d{1,2}/\d{1,2}/\d{4}\b`),
	regexp.MustCompile(`(?i)\bMRN\s*[:#]?\s*[A-Za-z0-9-]+`),
}

func scanForPHI(text string) bool {
	for _, re := range phiPatterns {
		if re.MatchString(text) {
			return true
		}
	}
	return false
}

func (c *ComplianceChecker) Check(ctx context.Context, text string) (*entity.ComplianceResult, error) {
	userPrompt := fmt.Sprintf(complianceUserPrompt, truncate(text, c.maxLen))

	raw, err := c.llm.Complete(ctx, complianceSystemPrompt, userPrompt, 0)
	if err != nil {
		return nil, err
	}

	block, ok := extractJSON(raw)
	if !ok {
		return nil, apperror.Parse("no JSON object in compliance response", nil)
	}

	var out complianceOutput
	if err := json.Unmarshal([]byte(block), &out); err != nil {
		return nil, apperror.Parse("malformed compliance response", err)
	}
	if !validStatuses[out.ComplianceStatus] {
		return nil, apperror.Parse(fmt.Sprintf("invalid compliance_status %q", out.ComplianceStatus), nil)
	}

	risk := entity.RiskLevel(out.RiskLevel)
	switch risk {
	case entity.RiskLow, entity.RiskMedium, entity.RiskHigh:
	default:
		return nil, apperror.Parse(fmt.Sprintf("invalid risk_level %q", out.RiskLevel), nil)
	}

	actions := out.RecommendedActions
	if actions == nil {
		actions = []string{}
	}

	return &entity.ComplianceResult{
		Compliant:          out.ComplianceStatus == "compliant",
		RiskLevel:          risk,
		ContainsPHI:        out.PHIPresent || scanForPHI(text),
		RecommendedActions: actions,
	}, nil
}
