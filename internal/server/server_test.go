package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/SamalehZen/tambourine-voice-speech-to-text/internal/config"
	"github.com/SamalehZen/tambourine-voice-speech-to-text/internal/dictation"
	"github.com/SamalehZen/tambourine-voice-speech-to-text/internal/metrics"
	"github.com/SamalehZen/tambourine-voice-speech-to-text/internal/provider"
	"github.com/SamalehZen/tambourine-voice-speech-to-text/internal/session"
)

// Prometheus collectors register globally, so the test package shares one set
var testMetrics = metrics.NewMetrics()

type stubTransport struct {
	recv chan string
}

func (s *stubTransport) Disconnect(ctx context.Context) error { return nil }

func (s *stubTransport) Recv() <-chan string { return s.recv }

func (s *stubTransport) Send(ctx context.Context, text string) error { return nil }

// stubRunner blocks until its context is cancelled, like the real pipeline
type stubRunner struct{}

func (s *stubRunner) Run(ctx context.Context, clientID string, stream dictation.TextStream, cm *dictation.ContextManager, sel *provider.Selection) error {
	<-ctx.Done()
	return ctx.Err()
}

func newTestServer(t *testing.T) (*HTTPServer, *session.Manager) {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	cfg := &config.Config{}
	cfg.Server.Port = 8080
	cfg.Server.Address = "127.0.0.1"
	cfg.Providers.AutoSTT = "deepgram"
	cfg.Providers.AutoLLM = "openai"
	cfg.ApplyDefaults()

	reaperCfg := session.DefaultReaperConfig()
	reaperCfg.DisconnectGrace = time.Millisecond
	reaperCfg.DrainGrace = time.Millisecond
	reaper := session.NewReaper(logger, reaperCfg)
	manager := session.NewManager(logger, reaper)

	h := NewHTTPServer(cfg, logger, Deps{
		Manager: manager,
		Metrics: testMetrics,
		Runner:  &stubRunner{},
		NewTransport: func(ctx context.Context) (session.Transport, dictation.TextStream, error) {
			st := &stubTransport{recv: make(chan string)}
			return st, st, nil
		},
		STTServices: map[provider.STTID]provider.STTService{},
		LLMServices: map[provider.LLMID]provider.LLMService{},
	})

	return h, manager
}

func doRequest(t *testing.T, h *HTTPServer, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("Failed to marshal request body: %v", err)
		}
		reader = bytes.NewReader(data)
	}

	req := httptest.NewRequest(method, path, reader)
	rec := httptest.NewRecorder()
	h.server.Handler.ServeHTTP(rec, req)
	return rec
}

func registerClient(t *testing.T, h *HTTPServer) string {
	t.Helper()

	rec := doRequest(t, h, http.MethodPost, "/register", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200 from /register, got %d", rec.Code)
	}

	var resp struct {
		ClientID string `json:"client_id"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("Failed to decode register response: %v", err)
	}
	if resp.ClientID == "" {
		t.Fatal("Expected non-empty client_id")
	}
	return resp.ClientID
}

func TestRegisterIssuesIdentity(t *testing.T) {
	h, manager := newTestServer(t)

	id := registerClient(t, h)

	if !manager.IsRegistered(id) {
		t.Errorf("Expected identity %s to be registered", id)
	}
	if manager.ActiveConnectionCount() != 0 {
		t.Errorf("Expected 0 active connections after register, got %d", manager.ActiveConnectionCount())
	}
}

func TestConnectUnknownIdentityRejected(t *testing.T) {
	h, _ := newTestServer(t)

	rec := doRequest(t, h, http.MethodPost, "/connect", connectRequest{ClientID: "never-issued"})
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("Expected 401 for unknown identity, got %d", rec.Code)
	}
}

func TestConnectInvalidBody(t *testing.T) {
	h, _ := newTestServer(t)

	req := httptest.NewRequest(http.MethodPost, "/connect", bytes.NewReader([]byte("not json")))
	rec := httptest.NewRecorder()
	h.server.Handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 for invalid body, got %d", rec.Code)
	}
}

func TestConnectEstablishesSession(t *testing.T) {
	h, manager := newTestServer(t)

	id := registerClient(t, h)

	rec := doRequest(t, h, http.MethodPost, "/connect", connectRequest{
		ClientID: id,
		AppName:  "Terminal",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200 from /connect, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp struct {
		ClientID   string `json:"client_id"`
		Superseded bool   `json:"superseded"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("Failed to decode connect response: %v", err)
	}
	if resp.Superseded {
		t.Error("Expected superseded=false on first connect")
	}

	if manager.ActiveConnectionCount() != 1 {
		t.Errorf("Expected 1 active connection, got %d", manager.ActiveConnectionCount())
	}

	record, ok := manager.Get(id)
	if !ok {
		t.Fatal("Expected connection record after connect")
	}
	if record.ClientID != id {
		t.Errorf("Expected record client ID %s, got %s", id, record.ClientID)
	}

	manager.Stop(context.Background())
}

func TestReconnectSupersedes(t *testing.T) {
	h, manager := newTestServer(t)

	id := registerClient(t, h)

	rec := doRequest(t, h, http.MethodPost, "/connect", connectRequest{ClientID: id})
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200 from first /connect, got %d", rec.Code)
	}

	first, _ := manager.Get(id)

	rec = doRequest(t, h, http.MethodPost, "/connect", connectRequest{ClientID: id})
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200 from second /connect, got %d", rec.Code)
	}

	var resp struct {
		Superseded bool `json:"superseded"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("Failed to decode connect response: %v", err)
	}
	if !resp.Superseded {
		t.Error("Expected superseded=true on reconnect")
	}

	if manager.ActiveConnectionCount() != 1 {
		t.Errorf("Expected exactly 1 active connection after reconnect, got %d", manager.ActiveConnectionCount())
	}

	second, _ := manager.Get(id)
	if first == second {
		t.Error("Expected reconnect to install a new record")
	}

	manager.Stop(context.Background())
}

func TestConnectionsList(t *testing.T) {
	h, manager := newTestServer(t)

	for i := 0; i < 3; i++ {
		id := registerClient(t, h)
		rec := doRequest(t, h, http.MethodPost, "/connect", connectRequest{ClientID: id})
		if rec.Code != http.StatusOK {
			t.Fatalf("Expected 200 from /connect, got %d", rec.Code)
		}
	}

	rec := doRequest(t, h, http.MethodGet, "/connections", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200 from /connections, got %d", rec.Code)
	}

	var resp struct {
		TotalConnections int `json:"total_connections"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("Failed to decode connections response: %v", err)
	}
	if resp.TotalConnections != 3 {
		t.Errorf("Expected 3 connections, got %d", resp.TotalConnections)
	}

	manager.Stop(context.Background())
}

func TestConnectionDetail(t *testing.T) {
	h, manager := newTestServer(t)

	id := registerClient(t, h)
	rec := doRequest(t, h, http.MethodPost, "/connect", connectRequest{ClientID: id})
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200 from /connect, got %d", rec.Code)
	}

	rec = doRequest(t, h, http.MethodGet, fmt.Sprintf("/connections/%s", id), nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200 from /connections/{id}, got %d", rec.Code)
	}

	var info struct {
		ClientID string `json:"client_id"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&info); err != nil {
		t.Fatalf("Failed to decode connection detail: %v", err)
	}
	if info.ClientID != id {
		t.Errorf("Expected client_id %s, got %s", id, info.ClientID)
	}

	rec = doRequest(t, h, http.MethodGet, "/connections/nonexistent", nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("Expected 404 for unknown connection, got %d", rec.Code)
	}

	manager.Stop(context.Background())
}

func TestConnectionDetailRegisteredNotConnected(t *testing.T) {
	h, _ := newTestServer(t)

	id := registerClient(t, h)

	rec := doRequest(t, h, http.MethodGet, "/connections/"+id, nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("Expected 404 for registered-but-not-connected identity, got %d", rec.Code)
	}
}

func TestHealthEndpoint(t *testing.T) {
	h, _ := newTestServer(t)

	rec := doRequest(t, h, http.MethodGet, "/health", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200 from /health, got %d", rec.Code)
	}

	var resp struct {
		Status string `json:"status"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("Failed to decode health response: %v", err)
	}
	if resp.Status != "healthy" {
		t.Errorf("Expected status 'healthy', got '%s'", resp.Status)
	}
}

func TestConfigEndpointOmitsSecrets(t *testing.T) {
	h, _ := newTestServer(t)
	h.config.Providers.OpenAIAPIKey = "sk-secret"

	rec := doRequest(t, h, http.MethodGet, "/config", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200 from /config, got %d", rec.Code)
	}

	if bytes.Contains(rec.Body.Bytes(), []byte("sk-secret")) {
		t.Error("Expected /config response to omit API keys")
	}
}

func TestMethodNotAllowed(t *testing.T) {
	h, _ := newTestServer(t)

	tests := []struct {
		method string
		path   string
	}{
		{http.MethodGet, "/register"},
		{http.MethodGet, "/connect"},
		{http.MethodPost, "/connections"},
		{http.MethodPost, "/health"},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			rec := doRequest(t, h, tt.method, tt.path, nil)
			if rec.Code != http.StatusMethodNotAllowed {
				t.Errorf("Expected 405 for %s %s, got %d", tt.method, tt.path, rec.Code)
			}
		})
	}
}
