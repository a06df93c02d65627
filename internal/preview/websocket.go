// Package preview streams orchestrator state to the live preview surface.
package preview

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/appforge-labs/appforge/internal/orchestrator"
	"github.com/coder/websocket"
)

// WebSocketHandler upgrades preview clients and relays state events.
type WebSocketHandler struct {
	orch          *orchestrator.Orchestrator
	allowedOrigin string
	isDev         bool
}

// NewWebSocketHandler creates a preview state feed handler.
func NewWebSocketHandler(orch *orchestrator.Orchestrator, allowedOrigin string, isDev bool) *WebSocketHandler {
	return &WebSocketHandler{
		orch:          orch,
		allowedOrigin: allowedOrigin,
		isDev:         isDev,
	}
}

// ServeHTTP implements http.Handler for the WebSocket upgrade.
func (h *WebSocketHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	opts := &websocket.AcceptOptions{}
	switch {
	case h.isDev:
		opts.InsecureSkipVerify = true
	case h.allowedOrigin != "":
		opts.OriginPatterns = []string{h.allowedOrigin}
	}

	conn, err := websocket.Accept(w, r, opts)
	if err != nil {
		slog.Warn("Preview WebSocket accept failed", "error", err)
		return
	}
	defer func() {
		_ = conn.Close(websocket.StatusInternalError, "closing")
	}()

	// The feed is send-only; CloseRead keeps control frames flowing and
	// cancels the context when the client goes away.
	ctx := conn.CloseRead(r.Context())

	id, events := h.orch.Subscribe()
	defer h.orch.Unsubscribe(id)
	slog.Info("Preview subscriber connected", "subscriber", id, "ip", r.RemoteAddr)

	// Send the current state immediately so a late subscriber does not wait
	// for the next transition.
	if err := writeEvent(ctx, conn, SnapshotEvent(h.orch.CurrentState())); err != nil {
		return
	}

	for {
		select {
		case <-ctx.Done():
			_ = conn.Close(websocket.StatusNormalClosure, "client gone")
			return
		case ev, ok := <-events:
			if !ok {
				_ = conn.Close(websocket.StatusNormalClosure, "feed closed")
				return
			}
			if err := writeEvent(ctx, conn, ev); err != nil {
				slog.Debug("Preview write failed", "subscriber", id, "error", err)
				return
			}
		}
	}
}

// SnapshotEvent converts a machine state into the event shape sent on
// connect.
func SnapshotEvent(s orchestrator.State) orchestrator.StateEvent {
	ev := orchestrator.StateEvent{Phase: s.Phase}
	if s.Active != nil {
		ev.CreationID = s.Active.ID
		ev.Name = s.Active.Name
	}
	return ev
}

func writeEvent(ctx context.Context, conn *websocket.Conn, ev orchestrator.StateEvent) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	writeCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	return conn.Write(writeCtx, websocket.MessageText, payload)
}
