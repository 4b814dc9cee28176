package httpapi

import (
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"hays/backend/internal/auth"
	"hays/backend/internal/realtime"
)

// Joiner is the hub surface the websocket endpoint needs: connection
// lifecycle plus room membership. Implemented by *realtime.Hub.
type Joiner interface {
	Register(conn *realtime.Connection)
	Unregister(connectionID string)
	Join(connectionID, roomID string)
	Leave(connectionID, roomID string)
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Origins are already constrained by the CORS policy at the edge.
	CheckOrigin: func(r *http.Request) bool { return true },
}

type roomFrame struct {
	ConversationID string `json:"conversation_id"`
}

// serveWS upgrades an authenticated request to a websocket and services its
// join/leave frames until the client disconnects. Events only flow to rooms
// the connection has explicitly joined.
func (h *Handler) serveWS(c *gin.Context) {
	caller, ok := auth.CallerFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"detail": "Could not validate credentials"})
		return
	}

	ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Warn("Websocket upgrade failed", zap.Error(err))
		return
	}

	conn := realtime.NewConnection(caller.ID, ws)
	h.hub.Register(conn)
	defer h.hub.Unregister(conn.ID)

	for {
		_, raw, err := ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.log.Debug("Websocket closed unexpectedly",
					zap.String("user_id", caller.ID),
					zap.Error(err),
				)
			}
			return
		}

		var frame realtime.Envelope
		if err := json.Unmarshal(raw, &frame); err != nil {
			continue
		}

		switch frame.Event {
		case "join_conversation":
			var room roomFrame
			if err := json.Unmarshal(frame.Data, &room); err == nil {
				h.hub.Join(conn.ID, room.ConversationID)
			}
		case "leave_conversation":
			var room roomFrame
			if err := json.Unmarshal(frame.Data, &room); err == nil {
				h.hub.Leave(conn.ID, room.ConversationID)
			}
		}
	}
}
