package server

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/SamalehZen/tambourine-voice-speech-to-text/internal/config"
	"github.com/SamalehZen/tambourine-voice-speech-to-text/internal/dictation"
	"github.com/SamalehZen/tambourine-voice-speech-to-text/internal/metrics"
	"github.com/SamalehZen/tambourine-voice-speech-to-text/internal/pipeline"
	"github.com/SamalehZen/tambourine-voice-speech-to-text/internal/profile"
	"github.com/SamalehZen/tambourine-voice-speech-to-text/internal/provider"
	"github.com/SamalehZen/tambourine-voice-speech-to-text/internal/session"
)

const (
	serviceName    = "dictation-service"
	serviceVersion = "1.0.0"
)

// PipelineRunner runs the per-connection pipeline work until its context is
// cancelled. dictation.Runner is the production implementation.
type PipelineRunner interface {
	Run(ctx context.Context, clientID string, stream dictation.TextStream, cm *dictation.ContextManager, sel *provider.Selection) error
}

// TransportFactory produces the transport handle and its text stream for a
// new connection.
type TransportFactory func(ctx context.Context) (session.Transport, dictation.TextStream, error)

// Deps contains the collaborators the HTTP server wires together.
type Deps struct {
	Manager      *session.Manager
	Metrics      *metrics.Metrics
	Runner       PipelineRunner
	NewTransport TransportFactory
	STTServices  map[provider.STTID]provider.STTService
	LLMServices  map[provider.LLMID]provider.LLMService
}

// HTTPServer provides the signaling and management API.
type HTTPServer struct {
	server *http.Server
	logger *slog.Logger
	config *config.Config
	deps   Deps

	startTime time.Time
}

// NewHTTPServer creates the signaling/API server.
func NewHTTPServer(cfg *config.Config, logger *slog.Logger, deps Deps) *HTTPServer {
	h := &HTTPServer{
		logger:    logger,
		config:    cfg,
		deps:      deps,
		startTime: time.Now(),
	}

	mux := http.NewServeMux()
	h.setupRoutes(mux)

	h.server = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Address, cfg.Server.Port),
		Handler:      mux,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return h
}

// setupRoutes configures HTTP API routes
func (h *HTTPServer) setupRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/register", h.withMetrics("/register", h.handleRegister))
	mux.HandleFunc("/connect", h.withMetrics("/connect", h.handleConnect))

	mux.HandleFunc("/connections", h.withMetrics("/connections", h.handleConnections))
	mux.HandleFunc("/connections/", h.withMetrics("/connections/{id}", h.handleConnectionDetail))

	// Control channel for provider switching (websocket)
	mux.HandleFunc("/control/", h.handleControl)

	mux.HandleFunc("/health", h.withMetrics("/health", h.handleHealth))
	mux.HandleFunc("/stats", h.withMetrics("/stats", h.handleStats))
	mux.HandleFunc("/config", h.withMetrics("/config", h.handleConfig))

	mux.Handle("/metrics", promhttp.Handler())

	mux.HandleFunc("/", h.withMetrics("/", h.handleRoot))
}

// withMetrics wraps an HTTP handler with metrics collection
func (h *HTTPServer) withMetrics(endpoint string, handler http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		startTime := time.Now()

		ww := &responseWriter{ResponseWriter: w, statusCode: 200}
		handler(ww, r)

		duration := time.Since(startTime).Seconds()
		statusCode := fmt.Sprintf("%d", ww.statusCode)
		h.deps.Metrics.RecordHTTPRequest(r.Method, endpoint, statusCode, duration)

		if ww.statusCode >= 400 {
			errorType := "client_error"
			if ww.statusCode >= 500 {
				errorType = "server_error"
			}
			h.deps.Metrics.RecordHTTPError(r.Method, endpoint, errorType)
		}
	}
}

// responseWriter wraps http.ResponseWriter to capture status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// Start starts the HTTP server
func (h *HTTPServer) Start() error {
	h.logger.Info("Starting HTTP signaling server",
		slog.String("address", h.server.Addr),
	)

	go func() {
		if err := h.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			h.logger.Error("HTTP server error", slog.String("error", err.Error()))
		}
	}()

	return nil
}

// Stop gracefully stops the HTTP server
func (h *HTTPServer) Stop(ctx context.Context) error {
	h.logger.Info("Stopping HTTP signaling server...")
	return h.server.Shutdown(ctx)
}

// handleRegister implements POST /register: issues a new client identity.
// Unauthenticated for now; this endpoint becomes the auth login later.
func (h *HTTPServer) handleRegister(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	id := h.deps.Manager.GenerateAndRegister()
	h.deps.Metrics.RecordIdentityIssued(h.deps.Manager.RegisteredIdentityCount())

	writeJSON(w, http.StatusOK, map[string]any{
		"client_id": id,
	})
}

// connectRequest is the body of POST /connect.
type connectRequest struct {
	ClientID string `json:"client_id"`
	AppName  string `json:"app_name,omitempty"`
	BundleID string `json:"bundle_id,omitempty"`
	URL      string `json:"url,omitempty"`
}

// handleConnect implements POST /connect: the reconnect/handover entry point.
// An unknown identity gets 401 so the client re-registers; identities do not
// survive a server restart.
func (h *HTTPServer) handleConnect(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req connectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if req.ClientID == "" {
		http.Error(w, "client_id required", http.StatusBadRequest)
		return
	}

	if !h.deps.Manager.IsRegistered(req.ClientID) {
		http.Error(w, "Unknown client identity", http.StatusUnauthorized)
		return
	}

	record, err := h.buildRecord(r.Context(), req)
	if err != nil {
		h.logger.Error("Failed to build session record",
			slog.String("client_id", req.ClientID),
			slog.String("error", err.Error()),
		)
		http.Error(w, "Failed to establish session", http.StatusInternalServerError)
		return
	}

	superseded := h.deps.Manager.Handover(req.ClientID, record)
	if superseded {
		h.deps.Metrics.RecordHandover()
		h.deps.Metrics.RecordCleanupStarted()
	}
	h.deps.Metrics.RecordConnectionRegistered(h.deps.Manager.ActiveConnectionCount())

	h.logger.Info("Connection established",
		slog.String("client_id", req.ClientID),
		slog.Bool("superseded_previous", superseded),
	)

	writeJSON(w, http.StatusOK, map[string]any{
		"client_id":    req.ClientID,
		"connected_at": record.ConnectedAt.UTC(),
		"superseded":   superseded,
	})
}

// buildRecord assembles the session record for a new connection: transport,
// context manager, provider selection, and the pipeline task.
func (h *HTTPServer) buildRecord(ctx context.Context, req connectRequest) (*session.Record, error) {
	tr, stream, err := h.deps.NewTransport(ctx)
	if err != nil {
		return nil, fmt.Errorf("transport setup failed: %w", err)
	}

	cm := dictation.NewContextManager(h.logger)
	if req.AppName != "" || req.BundleID != "" || req.URL != "" {
		p := profile.ForApp(req.AppName, req.BundleID, req.URL)
		cm.SetAppContext(req.AppName, p, "")
	}

	sel := provider.NewSelection(
		h.deps.STTServices[provider.STTID(h.config.Providers.AutoSTT)],
		h.deps.LLMServices[provider.LLMID(h.config.Providers.AutoLLM)],
	)

	task := pipeline.Run(context.Background(), func(ctx context.Context) error {
		return h.deps.Runner.Run(ctx, req.ClientID, stream, cm, sel)
	})

	return &session.Record{
		ClientID:       req.ClientID,
		Transport:      tr,
		Task:           task,
		ConnectedAt:    time.Now(),
		ContextManager: cm,
		TurnController: cm,
		Selection:      sel,
		STTServices:    h.deps.STTServices,
		LLMServices:    h.deps.LLMServices,
	}, nil
}

// handleConnections implements GET /connections
func (h *HTTPServer) handleConnections(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	infos := h.deps.Manager.Snapshot()
	writeJSON(w, http.StatusOK, map[string]any{
		"total_connections": len(infos),
		"timestamp":         time.Now().UTC(),
		"connections":       infos,
	})
}

// handleConnectionDetail implements GET /connections/{client_id}
func (h *HTTPServer) handleConnectionDetail(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	clientID := strings.TrimPrefix(r.URL.Path, "/connections/")
	if clientID == "" {
		http.Error(w, "Client ID required", http.StatusBadRequest)
		return
	}

	record, ok := h.deps.Manager.Get(clientID)
	if !ok {
		// Distinguish "never issued" from "not currently connected"
		if !h.deps.Manager.IsRegistered(clientID) {
			http.Error(w, "Unknown client identity", http.StatusNotFound)
			return
		}
		http.Error(w, "Client not connected", http.StatusNotFound)
		return
	}

	writeJSON(w, http.StatusOK, record.Info())
}

// handleHealth implements the /health endpoint
func (h *HTTPServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "healthy",
		"timestamp": time.Now().UTC(),
		"uptime":    time.Since(h.startTime).String(),
		"service": map[string]any{
			"name":    serviceName,
			"version": serviceVersion,
		},
		"components": map[string]any{
			"session_manager": map[string]any{
				"status":                "running",
				"active_connections":    h.deps.Manager.ActiveConnectionCount(),
				"registered_identities": h.deps.Manager.RegisteredIdentityCount(),
			},
		},
	})
}

// handleStats implements the /stats endpoint
func (h *HTTPServer) handleStats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"uptime":    time.Since(h.startTime).String(),
		"timestamp": time.Now().UTC(),
		"sessions": map[string]any{
			"active_connections":    h.deps.Manager.ActiveConnectionCount(),
			"registered_identities": h.deps.Manager.RegisteredIdentityCount(),
		},
	})
}

// handleConfig implements the /config endpoint with sanitized configuration
func (h *HTTPServer) handleConfig(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	// API keys are intentionally omitted
	writeJSON(w, http.StatusOK, map[string]any{
		"server": map[string]any{
			"port":        h.config.Server.Port,
			"address":     h.config.Server.Address,
			"stun_server": h.config.Server.STUNServer,
		},
		"session": map[string]any{
			"disconnect_grace_ms":   h.config.Session.DisconnectGraceMs,
			"drain_grace_ms":        h.config.Session.DrainGraceMs,
			"disconnect_timeout":    h.config.Session.DisconnectTimeoutSec,
			"task_wait_timeout":     h.config.Session.TaskWaitTimeoutSec,
			"shutdown_join_timeout": h.config.Session.ShutdownJoinTimeoutSec,
		},
		"providers": map[string]any{
			"auto_stt": h.config.Providers.AutoSTT,
			"auto_llm": h.config.Providers.AutoLLM,
		},
		"llm": map[string]any{
			"model":       h.config.LLM.Model,
			"temperature": h.config.LLM.Temperature,
		},
		"logging": map[string]any{
			"level":  h.config.Logging.Level,
			"format": h.config.Logging.Format,
			"output": h.config.Logging.Output,
		},
	})
}

// handleRoot implements the / endpoint with API documentation
func (h *HTTPServer) handleRoot(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"service": "Dictation Service",
		"version": serviceVersion,
		"endpoints": map[string]any{
			"GET /":                        "API documentation",
			"POST /register":               "Issue a new client identity",
			"POST /connect":                "Establish a connection for a registered identity",
			"GET /connections":             "List active connections",
			"GET /connections/{client_id}": "Get detailed connection information",
			"GET /control/{client_id}":     "Provider-switching control channel (websocket)",
			"GET /health":                  "Service health check",
			"GET /stats":                   "Service statistics",
			"GET /config":                  "Get service configuration",
			"GET /metrics":                 "Prometheus metrics",
		},
		"timestamp": time.Now().UTC(),
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
