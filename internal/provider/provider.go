package provider

import (
	"context"
	"fmt"
)

// STTID identifies a speech-to-text provider.
type STTID string

// LLMID identifies a formatting LLM provider.
type LLMID string

// Known provider identifiers. "auto" is not a provider itself; it resolves to
// the configured auto provider at dispatch time.
const (
	STTDeepgram STTID = "deepgram"
	STTOpenAI   STTID = "openai"
	STTGoogle   STTID = "google"

	LLMOpenAI LLMID = "openai"
	LLMGroq   LLMID = "groq"
	LLMGoogle LLMID = "google"

	Auto = "auto"
)

// STTService is a speech-to-text service bound to one provider.
type STTService interface {
	Provider() STTID
}

// LLMService is a transcript formatting service bound to one provider.
type LLMService interface {
	Provider() LLMID
	Format(ctx context.Context, systemPrompt, transcript string) (string, error)
}

// ParseSTTID validates a provider string against the closed STT provider set.
func ParseSTTID(s string) (STTID, error) {
	switch STTID(s) {
	case STTDeepgram, STTOpenAI, STTGoogle:
		return STTID(s), nil
	}
	return "", fmt.Errorf("%w: %s", ErrUnknownProvider, s)
}

// ParseLLMID validates a provider string against the closed LLM provider set.
func ParseLLMID(s string) (LLMID, error) {
	switch LLMID(s) {
	case LLMOpenAI, LLMGroq, LLMGoogle:
		return LLMID(s), nil
	}
	return "", fmt.Errorf("%w: %s", ErrUnknownProvider, s)
}
