// Package ws broadcasts segment visual state to connected map clients over
// WebSocket. It is the production implementation of the segment manager's
// draw/update/remove capability: every drawn segment gets an opaque handle,
// and clients receive one JSON event per visual change.
package ws

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"routeboard/internal/models"
)

const (
	EventSegmentDrawn   = "segment_drawn"
	EventSegmentUpdated = "segment_updated"
	EventSegmentRemoved = "segment_removed"
)

// SegmentEvent is the wire format pushed to clients.
type SegmentEvent struct {
	Type    string               `json:"type"`
	Handle  string               `json:"handle"`
	Segment *models.RouteSegment `json:"segment,omitempty"`
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// The map client is served from another origin in development.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Hub tracks connected clients and fans segment events out to all of them.
type Hub struct {
	mu      sync.Mutex
	clients map[*client]struct{}
	drawn   map[string]models.RouteSegment // handle -> last announced state
}

type client struct {
	conn *websocket.Conn
	send chan []byte
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{
		clients: make(map[*client]struct{}),
		drawn:   make(map[string]models.RouteSegment),
	}
}

// Serve upgrades the request to a WebSocket, replays the currently drawn
// segments to the new client and keeps the connection until it closes.
func (h *Hub) Serve(c echo.Context) error {
	conn, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		return err
	}

	cl := &client{conn: conn, send: make(chan []byte, 64)}

	h.mu.Lock()
	h.clients[cl] = struct{}{}
	// Late joiners need the current picture, not just future deltas.
	for handle, seg := range h.drawn {
		segCopy := seg
		if raw, err := json.Marshal(SegmentEvent{Type: EventSegmentDrawn, Handle: handle, Segment: &segCopy}); err == nil {
			select {
			case cl.send <- raw:
			default:
			}
		}
	}
	h.mu.Unlock()

	go cl.writePump()
	cl.readPump(h)
	return nil
}

// DrawRouteSegment announces a new visual and returns its handle.
func (h *Hub) DrawRouteSegment(seg models.RouteSegment) (string, error) {
	handle := uuid.NewString()

	h.mu.Lock()
	h.drawn[handle] = seg
	h.mu.Unlock()

	h.broadcast(SegmentEvent{Type: EventSegmentDrawn, Handle: handle, Segment: &seg})
	return handle, nil
}

// UpdateRouteSegment re-announces an existing visual with new state.
func (h *Hub) UpdateRouteSegment(handle string, seg models.RouteSegment) error {
	h.mu.Lock()
	_, known := h.drawn[handle]
	if known {
		h.drawn[handle] = seg
	}
	h.mu.Unlock()
	if !known {
		return nil
	}

	h.broadcast(SegmentEvent{Type: EventSegmentUpdated, Handle: handle, Segment: &seg})
	return nil
}

// RemoveRouteSegment retires a visual.
func (h *Hub) RemoveRouteSegment(handle string) error {
	h.mu.Lock()
	_, known := h.drawn[handle]
	delete(h.drawn, handle)
	h.mu.Unlock()
	if !known {
		return nil
	}

	h.broadcast(SegmentEvent{Type: EventSegmentRemoved, Handle: handle})
	return nil
}

func (h *Hub) broadcast(ev SegmentEvent) {
	raw, err := json.Marshal(ev)
	if err != nil {
		log.Printf("ws: marshal event: %v", err)
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for cl := range h.clients {
		select {
		case cl.send <- raw:
		default:
			// Slow consumer: drop the connection rather than the hub.
			close(cl.send)
			delete(h.clients, cl)
		}
	}
}

func (h *Hub) drop(cl *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[cl]; ok {
		close(cl.send)
		delete(h.clients, cl)
	}
}

func (cl *client) writePump() {
	defer cl.conn.Close()
	for msg := range cl.send {
		if err := cl.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			return
		}
	}
	cl.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
}

// readPump discards inbound frames; it exists to notice the close.
func (cl *client) readPump(h *Hub) {
	defer h.drop(cl)
	for {
		if _, _, err := cl.conn.ReadMessage(); err != nil {
			return
		}
	}
}

// NoopRenderer satisfies the renderer contract without announcing anything.
// Useful for callers embedding the segment manager without a live map.
type NoopRenderer struct{}

func (NoopRenderer) DrawRouteSegment(seg models.RouteSegment) (string, error) {
	return uuid.NewString(), nil
}

func (NoopRenderer) UpdateRouteSegment(handle string, seg models.RouteSegment) error { return nil }

func (NoopRenderer) RemoveRouteSegment(handle string) error { return nil }
