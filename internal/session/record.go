package session

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/SamalehZen/tambourine-voice-speech-to-text/internal/dictation"
	"github.com/SamalehZen/tambourine-voice-speech-to-text/internal/provider"
)

// Transport is the connection handle the reaper needs. Disconnect must be
// idempotent and safe to call on an already-closed transport.
type Transport interface {
	Disconnect(ctx context.Context) error
}

// Task is the handle of the background pipeline work tied to a connection.
// Wait returning context.Canceled after Cancel is a normal outcome, not an
// error.
type Task interface {
	Done() bool
	Cancel()
	Wait(ctx context.Context) error
}

// TurnController starts and stops user turns from outside the pipeline.
type TurnController interface {
	UserStartedSpeaking()
	UserStoppedSpeaking()
}

// Phase is the teardown state of a superseded record. The active side has no
// states of its own; a record is simply present in or absent from the table.
type Phase int32

const (
	PhaseActive Phase = iota
	PhaseClaimed
	PhaseTransportClosing
	PhasePipelineCancelling
	PhaseDraining
	PhaseTerminated
)

// String returns the phase name for logging and monitoring.
func (p Phase) String() string {
	switch p {
	case PhaseActive:
		return "active"
	case PhaseClaimed:
		return "claimed"
	case PhaseTransportClosing:
		return "transport_closing"
	case PhasePipelineCancelling:
		return "pipeline_cancelling"
	case PhaseDraining:
		return "draining"
	case PhaseTerminated:
		return "terminated"
	default:
		return "unknown"
	}
}

// Record represents one live client connection. It is exclusively owned by
// the connection table while active; once popped by TakeExisting, ownership
// transfers wholesale to the reaper and the table has no further relationship
// to it.
type Record struct {
	ClientID    string
	Transport   Transport
	Task        Task
	ConnectedAt time.Time

	// Pipeline component references for the HTTP configuration surface.
	ContextManager *dictation.ContextManager
	TurnController TurnController
	Selection      *provider.Selection
	STTServices    map[provider.STTID]provider.STTService
	LLMServices    map[provider.LLMID]provider.LLMService

	phase atomic.Int32
}

// Phase returns the record's current teardown phase.
func (r *Record) Phase() Phase {
	return Phase(r.phase.Load())
}

func (r *Record) setPhase(p Phase) {
	r.phase.Store(int32(p))
}

// Info is an observability snapshot of a record for the HTTP API.
type Info struct {
	ClientID    string        `json:"client_id"`
	ConnectedAt time.Time     `json:"connected_at"`
	Duration    time.Duration `json:"duration"`
	Phase       string        `json:"phase"`
}

// Info returns a snapshot of the record.
func (r *Record) Info() Info {
	return Info{
		ClientID:    r.ClientID,
		ConnectedAt: r.ConnectedAt,
		Duration:    time.Since(r.ConnectedAt),
		Phase:       r.Phase().String(),
	}
}
