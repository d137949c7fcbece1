package websocket

import (
	"log/slog"
	"net/http"

	ws "github.com/coder/websocket"

	"github.com/dukerupert/chorely/internal/auth"
)

// HandleWebSocket upgrades an authenticated request and subscribes it to the
// caller's family feed. originPatterns restricts cross-origin upgrades; empty
// means same-origin only.
func HandleWebSocket(hub *Hub, originPatterns []string, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ac, ok := auth.FromContext(r.Context())
		if !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		conn, err := ws.Accept(w, r, &ws.AcceptOptions{OriginPatterns: originPatterns})
		if err != nil {
			logger.Warn("websocket accept", "error", err)
			return
		}

		logger.Debug("websocket connected", "family_id", ac.FamilyID, "user_id", ac.UserID)
		client := NewClient(hub, conn, ac.FamilyID, ac.UserID)
		client.Run(r.Context())
	}
}
