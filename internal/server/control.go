package server

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/gorilla/websocket"

	"github.com/SamalehZen/tambourine-voice-speech-to-text/internal/provider"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Desktop clients connect from arbitrary local origins
	CheckOrigin: func(r *http.Request) bool { return true },
}

// handleControl implements GET /control/{client_id}: a websocket channel for
// runtime provider switching. The connection must already exist; the channel
// does not create sessions.
func (h *HTTPServer) handleControl(w http.ResponseWriter, r *http.Request) {
	clientID := strings.TrimPrefix(r.URL.Path, "/control/")
	if clientID == "" {
		http.Error(w, "Client ID required", http.StatusBadRequest)
		return
	}

	record, ok := h.deps.Manager.Get(clientID)
	if !ok {
		http.Error(w, "Client not connected", http.StatusNotFound)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("Control channel upgrade failed",
			slog.String("client_id", clientID),
			slog.String("error", err.Error()),
		)
		return
	}
	defer conn.Close()

	dispatcher := provider.NewDispatcher(h.logger, provider.DispatcherConfig{
		STTServices: record.STTServices,
		LLMServices: record.LLMServices,
		AutoSTT:     provider.STTID(h.config.Providers.AutoSTT),
		AutoLLM:     provider.LLMID(h.config.Providers.AutoLLM),
		Switcher:    record.Selection,
	})

	h.logger.Info("Control channel opened", slog.String("client_id", clientID))

	for {
		var msg provider.Message
		if err := conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.logger.Warn("Control channel read error",
					slog.String("client_id", clientID),
					slog.String("error", err.Error()),
				)
			}
			break
		}

		resp, handled := dispatcher.Handle(r.Context(), msg)
		if !handled {
			resp = provider.Response{
				Type:  "config-error",
				Error: "unknown message type: " + msg.Type,
			}
		} else if resp.Success {
			h.deps.Metrics.RecordProviderSwitch(resp.Setting, resp.Value)
		}

		if err := conn.WriteJSON(resp); err != nil {
			h.logger.Warn("Control channel write error",
				slog.String("client_id", clientID),
				slog.String("error", err.Error()),
			)
			break
		}
	}

	h.logger.Info("Control channel closed", slog.String("client_id", clientID))
}
