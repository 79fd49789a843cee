package notify

import (
	"net/http"
	"strings"

	"styledecor/logger"
	"styledecor/utils"

	"github.com/gorilla/websocket"
	"github.com/julienschmidt/httprouter"
)

type Client struct {
	Conn  *websocket.Conn
	Send  chan []byte
	Topic string
}

var upgrader = websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }}

// WebSocketHandler subscribes the caller to lifecycle events for one email
// topic. Callers may only subscribe to their own events.
func WebSocketHandler(hub *Hub) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		topic := strings.ToLower(ps.ByName("email"))
		if !strings.EqualFold(topic, utils.GetIdentityFromRequest(r)) {
			http.Error(w, "forbidden", http.StatusForbidden)
			return
		}

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			logger.L.Warnw("websocket upgrade failed", "err", err)
			return
		}

		client := &Client{
			Conn:  conn,
			Send:  make(chan []byte, 256),
			Topic: topic,
		}
		hub.register <- client

		go func() {
			for msg := range client.Send {
				if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
					break
				}
			}
			conn.Close()
		}()

		// Reads keep the connection alive until the client goes away.
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				break
			}
		}
		hub.unregister <- client
	}
}
