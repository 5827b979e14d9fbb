package agent

import (
	"context"
	"encoding/json"
	"fmt"

	"medvault-api/internal/domain/entity"
)

// Extractor pulls structured data out of a document using a
// category-specific schema. Unrecognized categories fall back to a
// generic label/value extraction.
type Extractor struct {
	llm    CompletionService
	maxLen int
}

func NewExtractor(llm CompletionService, maxLen int) *Extractor {
	return &Extractor{llm: llm, maxLen: maxLen}
}

type extractionOutput struct {
	PatientMRN  string              `json:"patient_mrn"`
	PatientName string              `json:"patient_name"`
	DoctorName  string              `json:"doctor_name"`
	Date        string              `json:"date"`
	Tests       []entity.LabResult  `json:"tests"`
	Modality    string              `json:"modality"`
	BodyPart    string              `json:"body_part"`
	Findings    string              `json:"findings"`
	Impression  string              `json:"impression"`
	Medications []entity.Medication `json:"medications"`
	Summary     string              `json:"summary"`
}

// Extract returns the category's schema, or a generic bag for
// categories without one. Malformed model output produces an explicit
// extraction-failed result carrying the raw text; it never escapes as
// an error past this boundary.
func (e *Extractor) Extract(ctx context.Context, text string, category entity.DocumentType) (*entity.Extraction, error) {
	prompt := e.selectPrompt(text, category)

	raw, err := e.llm.Complete(ctx, "", prompt, 0)
	if err != nil {
		return nil, err
	}

	result := &entity.Extraction{DocumentType: category}

	block, ok := extractJSON(raw)
	if !ok {
		result.Failed = true
		result.RawOutput = raw
		return result, nil
	}

	switch category {
	case entity.TypeBloodTest, entity.TypeRadiology, entity.TypePrescription:
		var out extractionOutput
		if err := json.Unmarshal([]byte(block), &out); err != nil {
			result.Failed = true
			result.RawOutput = raw
			return result, nil
		}
		result.PatientMRN = out.PatientMRN
		result.PatientName = out.PatientName
		result.DoctorName = out.DoctorName
		result.Date = out.Date
		result.Tests = out.Tests
		result.Modality = out.Modality
		result.BodyPart = out.BodyPart
		result.Findings = out.Findings
		result.Impression = out.Impression
		result.Medications = out.Medications
		result.Summary = out.Summary
	default:
		var generic map[string]any
		if err := json.Unmarshal([]byte(block), &generic); err != nil {
			result.Failed = true
			result.RawOutput = raw
			return result, nil
		}
		result.Generic = generic
	}

	return result, nil
}

func (e *Extractor) selectPrompt(text string, category entity.DocumentType) string {
	text = truncate(text, e.maxLen)
	switch category {
	case entity.TypeBloodTest:
		return fmt.Sprintf(bloodTestExtractionPrompt, text)
	case entity.TypeRadiology:
		return fmt.Sprintf(radiologyExtractionPrompt, text)
	case entity.TypePrescription:
		return fmt.Sprintf(prescriptionExtractionPrompt, text)
	default:
		return fmt.Sprintf(defaultExtractionPrompt, string(category), text)
	}
}
