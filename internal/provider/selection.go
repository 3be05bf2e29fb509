package provider

import (
	"context"
	"sync"
)

// Selection tracks the providers currently serving one connection. It is the
// production Switcher: a switch simply repoints the selection, and the
// pipeline reads the current services on each turn.
type Selection struct {
	mu  sync.RWMutex
	stt STTService
	llm LLMService
}

// NewSelection creates a selection with the given initial services.
func NewSelection(stt STTService, llm LLMService) *Selection {
	return &Selection{stt: stt, llm: llm}
}

// SwitchSTT repoints the active STT service.
func (s *Selection) SwitchSTT(ctx context.Context, svc STTService) error {
	s.mu.Lock()
	s.stt = svc
	s.mu.Unlock()
	return nil
}

// SwitchLLM repoints the active LLM service.
func (s *Selection) SwitchLLM(ctx context.Context, svc LLMService) error {
	s.mu.Lock()
	s.llm = svc
	s.mu.Unlock()
	return nil
}

// CurrentSTT returns the active STT service, which may be nil.
func (s *Selection) CurrentSTT() STTService {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.stt
}

// CurrentLLM returns the active LLM service, which may be nil.
func (s *Selection) CurrentLLM() LLMService {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.llm
}

// STTHandle is an opaque per-provider STT service handle. The actual speech
// recognition runs in the external pipeline; the handle only identifies which
// provider a connection has configured.
type STTHandle struct {
	id STTID
}

// NewSTTHandle creates a handle for the given provider.
func NewSTTHandle(id STTID) *STTHandle {
	return &STTHandle{id: id}
}

// Provider returns the provider identifier.
func (h *STTHandle) Provider() STTID {
	return h.id
}
