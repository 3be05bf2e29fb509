package provider

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
)

// Message kinds accepted on the control channel. The set is closed: any other
// kind is reported as unhandled so the caller can route it elsewhere.
const (
	KindSetSTTProvider = "set-stt-provider"
	KindSetLLMProvider = "set-llm-provider"
)

// Dispatch error taxonomy. A malformed message (missing provider field) is
// distinct from a well-formed message naming a provider outside the closed
// set, which in turn is distinct from a known provider with no configured
// service behind it.
var (
	ErrMalformedMessage    = errors.New("malformed config message")
	ErrUnknownProvider     = errors.New("unknown provider")
	ErrProviderUnavailable = errors.New("provider not available")
)

// Message is a provider-switching request received from a client.
type Message struct {
	Type     string `json:"type"`
	Provider string `json:"provider"`
}

// Response is the server's answer to a config message.
type Response struct {
	Type    string `json:"type"`
	Setting string `json:"setting"`
	Value   string `json:"value,omitempty"`
	Success bool   `json:"success,omitempty"`
	Error   string `json:"error,omitempty"`
}

// Switcher applies a provider change to the running pipeline.
type Switcher interface {
	SwitchSTT(ctx context.Context, svc STTService) error
	SwitchLLM(ctx context.Context, svc LLMService) error
}

// Dispatcher validates and applies provider-switching messages for one
// connection. The accepted message kinds and provider identifiers form closed
// sets; everything else is rejected with a typed error.
type Dispatcher struct {
	stt      map[STTID]STTService
	llm      map[LLMID]LLMService
	autoSTT  STTID // zero value means no auto provider configured
	autoLLM  LLMID
	switcher Switcher
	logger   *slog.Logger
}

// DispatcherConfig contains the per-connection services and auto-provider
// selection for a Dispatcher.
type DispatcherConfig struct {
	STTServices map[STTID]STTService
	LLMServices map[LLMID]LLMService
	AutoSTT     STTID
	AutoLLM     LLMID
	Switcher    Switcher
}

// NewDispatcher creates a dispatcher for one connection's service set.
func NewDispatcher(logger *slog.Logger, cfg DispatcherConfig) *Dispatcher {
	return &Dispatcher{
		stt:      cfg.STTServices,
		llm:      cfg.LLMServices,
		autoSTT:  cfg.AutoSTT,
		autoLLM:  cfg.AutoLLM,
		switcher: cfg.Switcher,
		logger:   logger,
	}
}

// Handle processes a config message. The second return value reports whether
// the message kind belongs to this dispatcher; unhandled kinds produce no
// response and no side effect.
func (d *Dispatcher) Handle(ctx context.Context, msg Message) (Response, bool) {
	switch msg.Type {
	case KindSetSTTProvider:
		return d.switchSTT(ctx, msg.Provider), true
	case KindSetLLMProvider:
		return d.switchLLM(ctx, msg.Provider), true
	default:
		return Response{}, false
	}
}

func (d *Dispatcher) switchSTT(ctx context.Context, value string) Response {
	const setting = "stt-provider"

	if value == "" {
		return d.errorResponse(setting, fmt.Errorf("%w: provider value is required", ErrMalformedMessage))
	}

	if value == Auto {
		if d.autoSTT == "" {
			// No auto provider configured: report success without switching
			d.logger.Warn("No auto STT provider configured, no-op")
			return d.successResponse(setting, Auto)
		}
		d.logger.Info("Auto STT provider resolved",
			slog.String("provider", string(d.autoSTT)),
		)
		value = string(d.autoSTT)
	}

	id, err := ParseSTTID(value)
	if err != nil {
		return d.errorResponse(setting, err)
	}

	svc, ok := d.stt[id]
	if !ok {
		return d.errorResponse(setting, fmt.Errorf("%w: %s (no API key configured)", ErrProviderUnavailable, id))
	}

	if err := d.switcher.SwitchSTT(ctx, svc); err != nil {
		return d.errorResponse(setting, fmt.Errorf("switch failed: %w", err))
	}

	d.logger.Info("Switched STT provider", slog.String("provider", string(id)))
	return d.successResponse(setting, string(id))
}

func (d *Dispatcher) switchLLM(ctx context.Context, value string) Response {
	const setting = "llm-provider"

	if value == "" {
		return d.errorResponse(setting, fmt.Errorf("%w: provider value is required", ErrMalformedMessage))
	}

	if value == Auto {
		if d.autoLLM == "" {
			d.logger.Warn("No auto LLM provider configured, no-op")
			return d.successResponse(setting, Auto)
		}
		d.logger.Info("Auto LLM provider resolved",
			slog.String("provider", string(d.autoLLM)),
		)
		value = string(d.autoLLM)
	}

	id, err := ParseLLMID(value)
	if err != nil {
		return d.errorResponse(setting, err)
	}

	svc, ok := d.llm[id]
	if !ok {
		return d.errorResponse(setting, fmt.Errorf("%w: %s (no API key configured)", ErrProviderUnavailable, id))
	}

	if err := d.switcher.SwitchLLM(ctx, svc); err != nil {
		return d.errorResponse(setting, fmt.Errorf("switch failed: %w", err))
	}

	d.logger.Info("Switched LLM provider", slog.String("provider", string(id)))
	return d.successResponse(setting, string(id))
}

func (d *Dispatcher) successResponse(setting, value string) Response {
	return Response{
		Type:    "config-updated",
		Setting: setting,
		Value:   value,
		Success: true,
	}
}

func (d *Dispatcher) errorResponse(setting string, err error) Response {
	d.logger.Warn("Config error",
		slog.String("setting", setting),
		slog.String("error", err.Error()),
	)
	return Response{
		Type:    "config-error",
		Setting: setting,
		Error:   err.Error(),
	}
}
