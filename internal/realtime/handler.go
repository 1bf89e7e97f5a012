package realtime

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/gorilla/websocket"
	log "github.com/sirupsen/logrus"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Browser clients connect cross-origin; the bearer token is the gate.
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Handler serves the realtime channel endpoint. Connection lifecycle:
// the credential is validated before the upgrade, the subscriber exists only
// between a successful handshake and the transport closing, and the hub
// unsubscribe runs exactly once per connection.
func Handler(hub *Hub, jwtSecret string, idleTimeout time.Duration) gin.HandlerFunc {
	if idleTimeout <= 0 {
		idleTimeout = 60 * time.Second
	}
	return func(c *gin.Context) {
		principal, err := authenticate(c, jwtSecret)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}

		ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			log.Warnf("Failed to upgrade realtime connection: %v", err)
			return
		}
		defer ws.Close()

		sub := hub.Subscribe(ws, principal)
		defer hub.Unsubscribe(sub)

		// Only keepalives are expected from the client; the read loop exists
		// to refresh the idle deadline and to notice the peer going away.
		_ = ws.SetReadDeadline(time.Now().Add(idleTimeout))
		ws.SetPongHandler(func(string) error {
			return ws.SetReadDeadline(time.Now().Add(idleTimeout))
		})

		done := make(chan struct{})
		go func() {
			defer close(done)
			for {
				if _, _, err := ws.ReadMessage(); err != nil {
					if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
						log.Debugf("Realtime connection closed: %v", err)
					}
					return
				}
				// Inbound application messages are not part of the protocol.
				_ = ws.SetReadDeadline(time.Now().Add(idleTimeout))
			}
		}()

		pingInterval := idleTimeout / 2
		ticker := time.NewTicker(pingInterval)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				if err := sub.Ping(pingInterval); err != nil {
					return
				}
			}
		}
	}
}

// authenticate validates the bearer credential presented at handshake, from
// the Authorization header or, for browser WebSocket clients that cannot set
// headers, the token query parameter.
func authenticate(c *gin.Context, secret string) (string, error) {
	tokenString := c.Query("token")
	if tokenString == "" {
		auth := c.GetHeader("Authorization")
		parts := strings.SplitN(auth, " ", 2)
		if len(parts) == 2 && parts[0] == "Bearer" {
			tokenString = parts[1]
		}
	}

	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		return []byte(secret), nil
	})
	if err != nil {
		return "", err
	}
	if !token.Valid {
		return "", jwt.ErrTokenUnverifiable
	}

	principal := ""
	if claims, ok := token.Claims.(jwt.MapClaims); ok {
		if sub, ok := claims["sub"].(string); ok {
			principal = sub
		}
	}
	return principal, nil
}
