package handlers

import (
	"net/http"
	"os"

	"ludo_arena/internal/logger"
	"ludo_arena/internal/service"
	"ludo_arena/internal/ws"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// WS upgrades the connection and hands it to the hub. The JWT rides the
// query string because browsers cannot set headers on websocket dials.
func (h *Handler) WS(hub *ws.Hub) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := c.Query("token")
		if token == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "token required"})
			return
		}

		identityID, err := service.ParseJWT(token)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}

		ident, err := h.Identities.Get(identityID)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unknown identity"})
			return
		}

		allowedOrigin := os.Getenv("ALLOWED_ORIGIN")
		upgrader := websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				if allowedOrigin == "" {
					return true
				}
				return r.Header.Get("Origin") == allowedOrigin
			},
		}

		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			logger.Warn("ws upgrade failed", "error", err)
			return
		}

		client := ws.NewClient(ident.ID, ident.DisplayName, ident.Avatar, uuid.NewString(), conn, hub)
		go client.Run()
	}
}
