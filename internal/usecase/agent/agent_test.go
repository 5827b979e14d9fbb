package agent

import (
	"context"
	"errors"
)

// fakeLLM returns scripted responses in order and records the prompts
// it was called with.
type fakeLLM struct {
	responses []string
	errs      []error
	calls     int

	systemPrompts []string
	userPrompts   []string
}

func (f *fakeLLM) Complete(_ context.Context, systemPrompt, userPrompt string, _ float32) (string, error) {
	f.systemPrompts = append(f.systemPrompts, systemPrompt)
	f.userPrompts = append(f.userPrompts, userPrompt)

	i := f.calls
	f.calls++

	if i < len(f.errs) && f.errs[i] != nil {
		return "", f.errs[i]
	}
	if i < len(f.responses) {
		return f.responses[i], nil
	}
	return "", errors.New("fakeLLM: no scripted response")
}
