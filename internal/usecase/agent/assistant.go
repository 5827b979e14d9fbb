package agent

import (
	"context"
	"fmt"
)

// DoctorAssistant answers a doctor's question grounded in retrieved
// patient context. One completion call per question.
type DoctorAssistant struct {
	llm CompletionService
}

func NewDoctorAssistant(llm CompletionService) *DoctorAssistant {
	return &DoctorAssistant{llm: llm}
}

func (a *DoctorAssistant) Answer(ctx context.Context, question, patientContext string) (string, error) {
	if patientContext == "" {
		patientContext = "No patient records were found for this query."
	}
	prompt := fmt.Sprintf(assistantUserPrompt, patientContext, question)
	return a.llm.Complete(ctx, assistantSystemPrompt, prompt, 0.2)
}
