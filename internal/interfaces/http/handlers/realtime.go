// internal/interfaces/http/handlers/realtime.go
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
	"github.com/your-org/storefront-api/internal/config"
	"github.com/your-org/storefront-api/internal/pkg/auth"
	"github.com/your-org/storefront-api/internal/realtime"
)

// RealtimeHandler upgrades /ws requests and hands them to the hub
type RealtimeHandler struct {
	hub      *realtime.Hub
	upgrader websocket.Upgrader
	log      *logrus.Logger
}

// NewRealtimeHandler creates a new realtime handler. An empty origin list
// accepts any origin.
func NewRealtimeHandler(hub *realtime.Hub, cfg *config.Config, log *logrus.Logger) *RealtimeHandler {
	allowed := make(map[string]struct{}, len(cfg.Realtime.AllowedOrigins))
	for _, o := range cfg.Realtime.AllowedOrigins {
		allowed[o] = struct{}{}
	}

	return &RealtimeHandler{
		hub: hub,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				if len(allowed) == 0 {
					return true
				}
				_, ok := allowed[r.Header.Get("Origin")]
				return ok
			},
		},
		log: log,
	}
}

// Connect handles GET /ws. The token comes from the Authorization header or
// the token query parameter and is checked by the hub after the upgrade.
func (h *RealtimeHandler) Connect(c *gin.Context) {
	token := auth.ExtractTokenFromHeader(c.GetHeader("Authorization"))
	if token == "" {
		token = c.Query("token")
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.WithError(err).Debug("websocket upgrade failed")
		return
	}

	h.hub.Serve(conn, token)
}
