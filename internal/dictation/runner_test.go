package dictation

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/SamalehZen/tambourine-voice-speech-to-text/internal/provider"
)

type fakeStream struct {
	recv chan string

	mu   sync.Mutex
	sent []string
}

func (f *fakeStream) Recv() <-chan string { return f.recv }

func (f *fakeStream) Send(ctx context.Context, text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, text)
	return nil
}

func (f *fakeStream) sentTexts() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.sent))
	copy(out, f.sent)
	return out
}

type fakeFormatter struct {
	prefix string
	err    error
}

func (f *fakeFormatter) Provider() provider.LLMID { return provider.LLMOpenAI }

func (f *fakeFormatter) Format(ctx context.Context, systemPrompt, transcript string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	return f.prefix + transcript, nil
}

func newRunnerFixture() (*Runner, *fakeStream, *ContextManager) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewRunner(logger), &fakeStream{recv: make(chan string, 4)}, NewContextManager(logger)
}

func runUntilDone(t *testing.T, run func() error) error {
	t.Helper()

	errCh := make(chan error, 1)
	go func() { errCh <- run() }()

	select {
	case err := <-errCh:
		return err
	case <-time.After(2 * time.Second):
		t.Fatal("Runner did not finish in time")
		return nil
	}
}

func TestRunnerFormatsSegments(t *testing.T) {
	runner, stream, cm := newRunnerFixture()
	sel := provider.NewSelection(nil, &fakeFormatter{prefix: "formatted: "})

	stream.recv <- "hello world"
	close(stream.recv)

	err := runUntilDone(t, func() error {
		return runner.Run(context.Background(), "client-1", stream, cm, sel)
	})
	if err != nil {
		t.Fatalf("Expected nil error on stream close, got %v", err)
	}

	sent := stream.sentTexts()
	if len(sent) != 1 {
		t.Fatalf("Expected 1 delivered text, got %d", len(sent))
	}
	if sent[0] != "formatted: hello world" {
		t.Errorf("Expected formatted text, got '%s'", sent[0])
	}
}

func TestRunnerPassesThroughOnFormatError(t *testing.T) {
	runner, stream, cm := newRunnerFixture()
	sel := provider.NewSelection(nil, &fakeFormatter{err: errors.New("api down")})

	stream.recv <- "raw segment"
	close(stream.recv)

	err := runUntilDone(t, func() error {
		return runner.Run(context.Background(), "client-1", stream, cm, sel)
	})
	if err != nil {
		t.Fatalf("Expected nil error, got %v", err)
	}

	sent := stream.sentTexts()
	if len(sent) != 1 || sent[0] != "raw segment" {
		t.Errorf("Expected raw passthrough, got %v", sent)
	}
}

func TestRunnerPassesThroughWithoutLLM(t *testing.T) {
	runner, stream, cm := newRunnerFixture()
	sel := provider.NewSelection(nil, nil)

	stream.recv <- "unformatted"
	close(stream.recv)

	err := runUntilDone(t, func() error {
		return runner.Run(context.Background(), "client-1", stream, cm, sel)
	})
	if err != nil {
		t.Fatalf("Expected nil error, got %v", err)
	}

	sent := stream.sentTexts()
	if len(sent) != 1 || sent[0] != "unformatted" {
		t.Errorf("Expected raw passthrough, got %v", sent)
	}
}

func TestRunnerSkipsBlankSegments(t *testing.T) {
	runner, stream, cm := newRunnerFixture()
	sel := provider.NewSelection(nil, &fakeFormatter{prefix: "f: "})

	stream.recv <- "   "
	stream.recv <- ""
	stream.recv <- "real"
	close(stream.recv)

	err := runUntilDone(t, func() error {
		return runner.Run(context.Background(), "client-1", stream, cm, sel)
	})
	if err != nil {
		t.Fatalf("Expected nil error, got %v", err)
	}

	sent := stream.sentTexts()
	if len(sent) != 1 {
		t.Fatalf("Expected blank segments skipped, got %v", sent)
	}
}

func TestRunnerReturnsContextError(t *testing.T) {
	runner, stream, cm := newRunnerFixture()
	sel := provider.NewSelection(nil, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := runUntilDone(t, func() error {
		return runner.Run(ctx, "client-1", stream, cm, sel)
	})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Expected context.Canceled, got %v", err)
	}
}

func TestRunnerRecordsTranscriptInContext(t *testing.T) {
	runner, stream, cm := newRunnerFixture()
	sel := provider.NewSelection(nil, &fakeFormatter{prefix: "f: "})

	stream.recv <- "note this"
	close(stream.recv)

	if err := runUntilDone(t, func() error {
		return runner.Run(context.Background(), "client-1", stream, cm, sel)
	}); err != nil {
		t.Fatalf("Expected nil error, got %v", err)
	}

	msgs := cm.Messages()
	found := false
	for _, m := range msgs {
		if m.Role == "user" && m.Content == "note this" {
			found = true
		}
	}
	if !found {
		t.Errorf("Expected transcript recorded in context history, got %v", msgs)
	}
}
