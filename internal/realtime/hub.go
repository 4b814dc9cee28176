package realtime

import (
	"encoding/json"
	"sync"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"hays/backend/pkg/logger"
)

// Envelope is the wire frame exchanged with realtime clients, both inbound
// (join/leave) and outbound (events).
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// Hub coordinates websocket connections and conversation-scoped rooms. A
// connection only receives events for rooms it has explicitly joined.
type Hub struct {
	log *zap.Logger

	mu        sync.RWMutex
	conns     map[string]*Connection            // connectionID -> connection
	rooms     map[string]map[string]*Connection // roomID -> connectionID -> connection
	connRooms map[string]map[string]struct{}    // connectionID -> set of roomIDs
}

// NewHub constructs an initialized Hub.
func NewHub() *Hub {
	return &Hub{
		log:       logger.Named("realtime"),
		conns:     make(map[string]*Connection),
		rooms:     make(map[string]map[string]*Connection),
		connRooms: make(map[string]map[string]struct{}),
	}
}

// Register adds a connection to the hub and starts its write loop.
func (h *Hub) Register(conn *Connection) {
	h.mu.Lock()
	h.conns[conn.ID] = conn
	h.connRooms[conn.ID] = make(map[string]struct{})
	h.mu.Unlock()

	conn.Start()
	h.log.Debug("Connection registered",
		zap.String("connection_id", conn.ID),
		zap.String("user_id", conn.UserID),
	)
}

// Unregister removes a connection from the hub and every room it joined, and
// closes it.
func (h *Hub) Unregister(connectionID string) {
	h.mu.Lock()
	conn := h.conns[connectionID]
	delete(h.conns, connectionID)
	for roomID := range h.connRooms[connectionID] {
		if members := h.rooms[roomID]; members != nil {
			delete(members, connectionID)
			if len(members) == 0 {
				delete(h.rooms, roomID)
			}
		}
	}
	delete(h.connRooms, connectionID)
	h.mu.Unlock()

	if conn != nil {
		conn.Close(websocket.CloseNormalClosure, "unregistered")
	}
}

// Join subscribes a connection to a room.
func (h *Hub) Join(connectionID, roomID string) {
	if roomID == "" {
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	conn, ok := h.conns[connectionID]
	if !ok {
		return
	}
	if h.rooms[roomID] == nil {
		h.rooms[roomID] = make(map[string]*Connection)
	}
	h.rooms[roomID][connectionID] = conn
	h.connRooms[connectionID][roomID] = struct{}{}
}

// Leave unsubscribes a connection from a room.
func (h *Hub) Leave(connectionID, roomID string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if members := h.rooms[roomID]; members != nil {
		delete(members, connectionID)
		if len(members) == 0 {
			delete(h.rooms, roomID)
		}
	}
	if rooms := h.connRooms[connectionID]; rooms != nil {
		delete(rooms, roomID)
	}
}

// Publish pushes an event to every connection in a room. Delivery is best
// effort and never blocks: marshal failures and full client buffers are
// logged and swallowed.
func (h *Hub) Publish(roomID, event string, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		h.log.Warn("Dropping realtime event, marshal failed",
			zap.String("room", roomID),
			zap.String("event", event),
			zap.Error(err),
		)
		return
	}
	frame, err := json.Marshal(Envelope{Event: event, Data: data})
	if err != nil {
		return
	}

	h.mu.RLock()
	members := make([]*Connection, 0, len(h.rooms[roomID]))
	for _, conn := range h.rooms[roomID] {
		members = append(members, conn)
	}
	h.mu.RUnlock()

	for _, conn := range members {
		if err := conn.Send(frame); err != nil {
			h.log.Debug("Dropped realtime event for connection",
				zap.String("connection_id", conn.ID),
				zap.Error(err),
			)
		}
	}
}
