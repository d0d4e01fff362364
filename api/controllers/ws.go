package controllers

import (
	"net/http"

	"github.com/gorilla/websocket"

	"github.com/bitescout/bitescout-backend/internal/realtime"
	"github.com/bitescout/bitescout-backend/pkg/config"
	"github.com/bitescout/bitescout-backend/pkg/logger"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Tokens are not required at upgrade time; identity is established by
	// the in-band authenticate message.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// LiveChannel upgrades the connection and runs the session until the peer
// drops. Pushes only start flowing after a successful authenticate event.
func LiveChannel(registry *realtime.Registry, cfg config.RealtimeConfig, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			// Upgrade already wrote the handshake failure response.
			if logg != nil {
				logg.Warn(r.Context(), "websocket upgrade failed: "+err.Error())
			}
			return
		}

		session := realtime.NewSession(conn, registry, logg, cfg.SendBuffer)
		session.Run(r.Context())
	}
}
