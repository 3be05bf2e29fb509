package dictation

import (
	"context"
	"log/slog"
	"strings"

	"github.com/SamalehZen/tambourine-voice-speech-to-text/internal/provider"
)

// TextStream carries raw transcript segments in and formatted text out. The
// WebRTC data channel is the production implementation.
type TextStream interface {
	Recv() <-chan string
	Send(ctx context.Context, text string) error
}

// Runner is the per-connection dictation loop: each inbound transcript
// segment is recorded in the conversation context, reformatted by the
// currently selected LLM service, and sent back for insertion at the client's
// cursor. A nil LLM selection passes segments through unformatted.
type Runner struct {
	logger *slog.Logger
}

// NewRunner creates a dictation loop runner.
func NewRunner(logger *slog.Logger) *Runner {
	return &Runner{logger: logger}
}

// Run processes transcript segments until the context is cancelled or the
// stream closes. Returns the context error on cancellation.
func (r *Runner) Run(ctx context.Context, clientID string, stream TextStream, cm *ContextManager, sel *provider.Selection) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case segment, ok := <-stream.Recv():
			if !ok {
				r.logger.Debug("Transcript stream closed",
					slog.String("client_id", clientID),
				)
				return nil
			}
			if strings.TrimSpace(segment) == "" {
				continue
			}
			r.handleSegment(ctx, clientID, stream, cm, sel, segment)
		}
	}
}

func (r *Runner) handleSegment(ctx context.Context, clientID string, stream TextStream, cm *ContextManager, sel *provider.Selection, segment string) {
	cm.AppendTranscript(segment)

	text := segment
	if llm := sel.CurrentLLM(); llm != nil {
		formatted, err := llm.Format(ctx, cm.SystemPrompt(), segment)
		switch {
		case err != nil && ctx.Err() != nil:
			return
		case err != nil:
			// Pass the raw transcript through rather than losing the turn
			r.logger.Warn("Transcript formatting failed",
				slog.String("client_id", clientID),
				slog.String("provider", string(llm.Provider())),
				slog.String("error", err.Error()),
			)
		default:
			text = formatted
		}
	}

	if err := stream.Send(ctx, text); err != nil {
		r.logger.Warn("Failed to deliver formatted text",
			slog.String("client_id", clientID),
			slog.String("error", err.Error()),
		)
	}
}
