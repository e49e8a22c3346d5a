package main

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	log "github.com/sirupsen/logrus"
	"github.com/speters/gonextion/nextion"
)

const (
	clientQueue  = 64
	writeTimeout = 10 * time.Second
)

// message is what WebSocket clients receive for every display or transport event
type message struct {
	Type  string      `json:"type"`
	Event interface{} `json:"event,omitempty"`
	Error string      `json:"error,omitempty"`
}

type client struct {
	conn *websocket.Conn
	addr string
	send chan []byte
}

// hub fans events out to WebSocket clients. Broadcasting never blocks, a
// client whose queue is full is dropped.
type hub struct {
	mu       sync.RWMutex
	clients  map[*client]struct{}
	upgrader websocket.Upgrader
}

func newHub() *hub {
	return &hub{
		clients: make(map[*client]struct{}),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

func (h *hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Debugf("WebSocket upgrade failed: %v", err)
		return
	}

	c := &client{conn: conn, addr: r.RemoteAddr, send: make(chan []byte, clientQueue)}
	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()
	log.Debugf("WebSocket client %v connected", r.RemoteAddr)

	go c.writeLoop()

	// Keep connection alive until client disconnects
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}
	h.remove(c)
	log.Debugf("WebSocket client %v disconnected", r.RemoteAddr)
}

func (c *client) writeLoop() {
	for b := range c.send {
		c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
		if err := c.conn.WriteMessage(websocket.TextMessage, b); err != nil {
			c.conn.Close()
			return
		}
	}
	c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	c.conn.Close()
}

func (h *hub) remove(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[c]; !ok {
		return
	}
	delete(h.clients, c)
	close(c.send)
}

func (h *hub) broadcast(m message) {
	b, err := json.Marshal(m)
	if err != nil {
		log.Errorf("Could not marshal %v event: %v", m.Type, err)
		return
	}

	var slow []*client
	h.mu.RLock()
	for c := range h.clients {
		select {
		case c.send <- b:
		default:
			slow = append(slow, c)
		}
	}
	h.mu.RUnlock()

	for _, c := range slow {
		log.Warnf("Dropping slow WebSocket client %v", c.addr)
		h.remove(c)
	}
}

// clientCount returns the number of connected clients
func (h *hub) clientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// close disconnects all clients
func (h *hub) close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		delete(h.clients, c)
		close(c.send)
	}
}

// handlers wraps next so that every event is broadcast after next handled it
func (h *hub) handlers(next *nextion.Handlers) *nextion.Handlers {
	if next == nil {
		next = &nextion.Handlers{}
	}
	return &nextion.Handlers{
		Connected: func() {
			if next.Connected != nil {
				next.Connected()
			}
			h.broadcast(message{Type: "connected"})
		},
		Touch: func(e nextion.TouchEvent) {
			if next.Touch != nil {
				next.Touch(e)
			}
			h.broadcast(message{Type: "touchEvent", Event: e})
		},
		PageChanged: func(e nextion.PageEvent) {
			if next.PageChanged != nil {
				next.PageChanged(e)
			}
			h.broadcast(message{Type: "pageChanged", Event: e})
		},
		ReceivedData: func(f nextion.Frame) {
			if next.ReceivedData != nil {
				next.ReceivedData(f)
			}
			h.broadcast(message{Type: "receivedData", Event: f})
		},
		Error: func(err error) {
			if next.Error != nil {
				next.Error(err)
			}
			h.broadcast(message{Type: "error", Error: err.Error()})
		},
		Close: func() {
			if next.Close != nil {
				next.Close()
			}
			h.broadcast(message{Type: "close"})
		},
	}
}
