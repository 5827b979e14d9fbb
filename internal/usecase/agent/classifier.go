package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"medvault-api/internal/domain/apperror"
	"medvault-api/internal/domain/entity"
)

// CompletionService is the only LLM dependency of the agents.
type CompletionService interface {
	Complete(ctx context.Context, systemPrompt, userPrompt string, temperature float32) (string, error)
}

// jsonBlockRe pulls the JSON object out of a response that may carry
// surrounding commentary.
var jsonBlockRe = regexp.MustCompile(`(?s)\{.*\}`)

func extractJSON(s string) (string, bool) {
	match := jsonBlockRe.FindString(s)
	return match, match != ""
}

func truncate(s string, max int) string {
	if max > 0 && len(s) > max {
		return s[:max]
	}
	return s
}

// Classifier maps raw document text to one of the fixed categories.
type Classifier struct {
	llm    CompletionService
	maxLen int
}

func NewClassifier(llm CompletionService, maxLen int) *Classifier {
	return &Classifier{llm: llm, maxLen: maxLen}
}

type classificationOutput struct {
	DocumentType string  `json:"document_type"`
	Confidence   float64 `json:"confidence"`
	Reason       string  `json:"reason"`
	Metadata     struct {
		PatientID string `json:"patient_id"`
		Date      string `json:"date"`
	} `json:"identified_metadata"`
}

// Classify returns a label from the closed category set. When the model
// output cannot be parsed, the result falls back to Other with low
// confidence and the parse error is returned alongside it so callers
// can record the degradation instead of silently accepting it.
func (c *Classifier) Classify(ctx context.Context, text string) (*entity.Classification, error) {
	userPrompt := fmt.Sprintf(classificationUserPrompt, truncate(text, c.maxLen))

	raw, err := c.llm.Complete(ctx, classificationSystemPrompt, userPrompt, 0)
	if err != nil {
		return nil, err
	}

	fallback := &entity.Classification{
		DocumentType: entity.TypeOther,
		Confidence:   0.1,
		Reason:       "classification output could not be parsed",
	}

	block, ok := extractJSON(raw)
	if !ok {
		return fallback, apperror.Parse("no JSON object in classification response", nil)
	}

	var out classificationOutput
	if err := json.Unmarshal([]byte(block), &out); err != nil {
		return fallback, apperror.Parse("malformed classification response", err)
	}

	docType, known := matchDocumentType(out.DocumentType)
	result := &entity.Classification{
		DocumentType: docType,
		Confidence:   out.Confidence,
		Reason:       out.Reason,
		PatientID:    out.Metadata.PatientID,
		Date:         out.Metadata.Date,
	}
	if !known {
		result.Confidence = 0.1
		return result, apperror.Parse(fmt.Sprintf("unknown document type %q", out.DocumentType), nil)
	}
	return result, nil
}

// matchDocumentType normalizes model spelling variations ("Radiology
// Report (X-ray/MRI/CT)") onto the closed set.
func matchDocumentType(s string) (entity.DocumentType, bool) {
	s = strings.TrimSpace(s)
	if t, ok := entity.ParseDocumentType(s); ok {
		return t, true
	}
	lower := strings.ToLower(s)
	for _, t := range entity.KnownTypes {
		if strings.HasPrefix(lower, strings.ToLower(string(t))) {
			return t, true
		}
	}
	return entity.TypeOther, false
}
