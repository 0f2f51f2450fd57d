package handlers

import (
	"log"
	"net/http"

	"food_order/internal/realtime"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Browser clients connect from the web and admin frontends; origin
	// checks are handled by the reverse proxy in deployment.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// ServeWS handles GET /ws: upgrades the connection and hands it to the hub.
// Clients then send subscribeToOrder / joinAdminRoom control messages.
func ServeWS(hub *realtime.Hub) gin.HandlerFunc {
	return func(c *gin.Context) {
		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			log.Printf("websocket upgrade failed: %v", err)
			return
		}
		realtime.NewClient(hub, conn).Start()
	}
}
