package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/SamalehZen/tambourine-voice-speech-to-text/internal/config"
	"github.com/SamalehZen/tambourine-voice-speech-to-text/internal/dictation"
	"github.com/SamalehZen/tambourine-voice-speech-to-text/internal/llm"
	"github.com/SamalehZen/tambourine-voice-speech-to-text/internal/metrics"
	"github.com/SamalehZen/tambourine-voice-speech-to-text/internal/provider"
	"github.com/SamalehZen/tambourine-voice-speech-to-text/internal/server"
	"github.com/SamalehZen/tambourine-voice-speech-to-text/internal/session"
	"github.com/SamalehZen/tambourine-voice-speech-to-text/internal/transport"
)

const (
	defaultConfigPath = "configs/config.yaml"
	serviceName       = "dictation-service"
	serviceVersion    = "1.0.0"

	groqBaseURL = "https://api.groq.com/openai/v1"
)

func main() {
	// Parse command line flags
	configPath := flag.String("config", defaultConfigPath, "Path to configuration file")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger based on configuration
	logger := initLogger(cfg.Logging)

	// Log service startup
	logger.Info("Service starting",
		slog.String("service", serviceName),
		slog.String("version", serviceVersion),
		slog.String("config_path", *configPath),
	)

	// Log configuration summary (without sensitive data)
	logger.Info("Configuration loaded",
		slog.Int("port", cfg.Server.Port),
		slog.String("address", cfg.Server.Address),
		slog.Duration("disconnect_grace", cfg.Session.GetDisconnectGrace()),
		slog.Duration("drain_grace", cfg.Session.GetDrainGrace()),
		slog.String("auto_stt", cfg.Providers.AutoSTT),
		slog.String("auto_llm", cfg.Providers.AutoLLM),
		slog.String("llm_model", cfg.LLM.Model),
		slog.String("log_level", cfg.Logging.Level),
	)

	// Initialize Prometheus metrics
	appMetrics := metrics.NewMetrics()
	logger.Info("Prometheus metrics initialized")

	// Initialize session lifecycle: reaper and connection manager
	reaper := session.NewReaper(logger, session.ReaperConfig{
		DisconnectGrace:   cfg.Session.GetDisconnectGrace(),
		DrainGrace:        cfg.Session.GetDrainGrace(),
		DisconnectTimeout: cfg.Session.GetDisconnectTimeout(),
		TaskWaitTimeout:   cfg.Session.GetTaskWaitTimeout(),
	})
	reaper.OnComplete(func(d time.Duration) {
		appMetrics.RecordCleanupCompleted(d.Seconds())
	})
	reaper.OnDisconnectError(appMetrics.RecordTransportDisconnectError)

	manager := session.NewManager(logger, reaper)
	logger.Info("Session manager initialized")

	// Build the provider service sets from configured credentials
	sttServices := buildSTTServices(cfg, logger)
	llmServices := buildLLMServices(cfg, logger)

	// Initialize HTTP signaling server
	httpServer := server.NewHTTPServer(cfg, logger, server.Deps{
		Manager:      manager,
		Metrics:      appMetrics,
		Runner:       dictation.NewRunner(logger),
		NewTransport: newWebRTCTransport(logger, cfg.Server.STUNServer),
		STTServices:  sttServices,
		LLMServices:  llmServices,
	})

	if err := httpServer.Start(); err != nil {
		logger.Error("Failed to start HTTP server", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Setup signal handling for graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	logger.Info("Service started successfully, waiting for signals...",
		slog.String("http_address", fmt.Sprintf("%s:%d", cfg.Server.Address, cfg.Server.Port)),
	)

	sig := <-sigChan
	logger.Info("Received shutdown signal", slog.String("signal", sig.String()))

	logger.Info("Starting graceful shutdown...")

	// Stop HTTP server first (stop accepting new requests)
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := httpServer.Stop(shutdownCtx); err != nil {
		logger.Error("Error stopping HTTP server", slog.String("error", err.Error()))
	}

	// Drain in-flight session teardowns before exiting
	joinCtx, joinCancel := context.WithTimeout(context.Background(), cfg.Session.GetShutdownJoinTimeout())
	defer joinCancel()
	manager.Stop(joinCtx)

	logger.Info("Final session statistics",
		slog.Int("active_connections", manager.ActiveConnectionCount()),
		slog.Int("registered_identities", manager.RegisteredIdentityCount()),
	)

	logger.Info("Service stopped")
}

// newWebRTCTransport returns the production transport factory: a peer
// connection whose dictation data channel carries the transcript stream.
func newWebRTCTransport(logger *slog.Logger, stunServer string) server.TransportFactory {
	return func(ctx context.Context) (session.Transport, dictation.TextStream, error) {
		pc, err := transport.NewPeerConnection(stunServer)
		if err != nil {
			return nil, nil, err
		}
		w := transport.NewWebRTC(pc, logger)
		return w, w, nil
	}
}

// buildSTTServices creates a handle for every STT provider with credentials
func buildSTTServices(cfg *config.Config, logger *slog.Logger) map[provider.STTID]provider.STTService {
	services := make(map[provider.STTID]provider.STTService)

	if cfg.Providers.DeepgramAPIKey != "" {
		services[provider.STTDeepgram] = provider.NewSTTHandle(provider.STTDeepgram)
	}
	if cfg.Providers.OpenAIAPIKey != "" {
		services[provider.STTOpenAI] = provider.NewSTTHandle(provider.STTOpenAI)
	}
	if cfg.Providers.GoogleAPIKey != "" {
		services[provider.STTGoogle] = provider.NewSTTHandle(provider.STTGoogle)
	}

	for id := range services {
		logger.Info("STT provider configured", slog.String("provider", string(id)))
	}
	return services
}

// buildLLMServices creates a formatter for every LLM provider with credentials
func buildLLMServices(cfg *config.Config, logger *slog.Logger) map[provider.LLMID]provider.LLMService {
	services := make(map[provider.LLMID]provider.LLMService)

	if cfg.Providers.OpenAIAPIKey != "" {
		services[provider.LLMOpenAI] = llm.NewFormatter(llm.Config{
			Provider:    provider.LLMOpenAI,
			APIKey:      cfg.Providers.OpenAIAPIKey,
			BaseURL:     cfg.LLM.BaseURL,
			Model:       cfg.LLM.Model,
			Temperature: cfg.LLM.Temperature,
			Timeout:     cfg.LLM.GetTimeout(),
		})
	}
	if cfg.Providers.GroqAPIKey != "" {
		// Groq exposes an OpenAI-compatible API
		services[provider.LLMGroq] = llm.NewFormatter(llm.Config{
			Provider:    provider.LLMGroq,
			APIKey:      cfg.Providers.GroqAPIKey,
			BaseURL:     groqBaseURL,
			Model:       cfg.LLM.Model,
			Temperature: cfg.LLM.Temperature,
			Timeout:     cfg.LLM.GetTimeout(),
		})
	}

	for id := range services {
		logger.Info("LLM provider configured", slog.String("provider", string(id)))
	}
	return services
}

// initLogger creates and configures the structured logger based on configuration
func initLogger(cfg config.LoggingConfig) *slog.Logger {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{
		Level:     level,
		AddSource: level == slog.LevelDebug,
	}

	var output *os.File
	switch cfg.Output {
	case "stderr":
		output = os.Stderr
	case "stdout", "":
		output = os.Stdout
	default:
		// Assume it's a file path
		file, err := os.OpenFile(cfg.Output, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to open log file %s: %v, falling back to stdout\n", cfg.Output, err)
			output = os.Stdout
		} else {
			output = file
		}
	}

	var handler slog.Handler
	switch cfg.Format {
	case "json":
		handler = slog.NewJSONHandler(output, opts)
	default:
		handler = slog.NewTextHandler(output, opts)
	}

	return slog.New(handler)
}
