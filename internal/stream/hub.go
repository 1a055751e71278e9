package stream

import (
	"io"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sasha-s/go-deadlock"
	"github.com/sirupsen/logrus"

	"github.com/Garsondee/Fog-Sense/internal/fog"
)

const (
	writeWait        = 10 * time.Second
	subscriberBuffer = 4
)

// Subscription receives encoded frames. C is closed when the subscription
// is cancelled or the hub shuts down.
type Subscription struct {
	C <-chan []byte

	hub  *Hub
	send chan []byte
}

// Cancel detaches the subscription. Safe to call more than once.
func (s *Subscription) Cancel() {
	s.hub.remove(s)
}

// Hub is a fog.Surface that fans committed frames out to subscribers. A
// slow subscriber loses frames instead of stalling the commit.
type Hub struct {
	mu     deadlock.Mutex
	subs   map[*Subscription]struct{}
	latest []byte
	closed bool

	frames  atomic.Int64
	dropped atomic.Int64

	log      logrus.FieldLogger
	upgrader websocket.Upgrader
}

// NewHub creates a hub. A nil logger discards output.
func NewHub(log logrus.FieldLogger) *Hub {
	if log == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		log = l
	}
	return &Hub{
		subs: make(map[*Subscription]struct{}),
		log:  log.WithField("component", "stream_hub"),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
	}
}

// Commit encodes f and queues it for every subscriber.
func (h *Hub) Commit(f *fog.Frame) {
	data, err := Encode(f)
	if err != nil {
		h.log.WithError(err).Error("Failed to encode frame.")
		return
	}
	h.frames.Add(1)

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	h.latest = data
	for s := range h.subs {
		select {
		case s.send <- data:
		default:
			h.dropped.Add(1)
		}
	}
}

// Subscribe registers a new subscription, primed with the latest frame if
// one was committed. It returns nil after Close.
func (h *Hub) Subscribe() *Subscription {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return nil
	}
	ch := make(chan []byte, subscriberBuffer)
	if h.latest != nil {
		ch <- h.latest
	}
	s := &Subscription{C: ch, hub: h, send: ch}
	h.subs[s] = struct{}{}
	return s
}

func (h *Hub) remove(s *Subscription) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.subs[s]; !ok {
		return
	}
	delete(h.subs, s)
	close(s.send)
}

// Subscribers returns the number of live subscriptions.
func (h *Hub) Subscribers() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}

// Frames returns how many frames were committed.
func (h *Hub) Frames() int64 { return h.frames.Load() }

// Dropped returns how many per-subscriber deliveries were skipped.
func (h *Hub) Dropped() int64 { return h.dropped.Load() }

// Close ends every subscription. Later commits are ignored.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	h.closed = true
	for s := range h.subs {
		delete(h.subs, s)
		close(s.send)
	}
}

// Handler upgrades requests to websockets and streams binary frame
// messages until the client goes away or the hub closes.
func (h *Hub) Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := h.upgrader.Upgrade(w, r, nil)
		if err != nil {
			h.log.WithError(err).Warn("Websocket upgrade failed.")
			return
		}
		sub := h.Subscribe()
		if sub == nil {
			message := websocket.FormatCloseMessage(websocket.CloseGoingAway, "shutting down")
			conn.WriteMessage(websocket.CloseMessage, message)
			conn.Close()
			return
		}
		remote := r.RemoteAddr
		h.log.WithField("remote", remote).Info("Frame subscriber connected.")

		go h.readLoop(conn, sub)
		h.writeLoop(conn, sub)
		h.log.WithField("remote", remote).Info("Frame subscriber disconnected.")
	})
}

// readLoop drains client messages so control frames are processed, and
// cancels the subscription when the connection fails.
func (h *Hub) readLoop(conn *websocket.Conn, sub *Subscription) {
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			sub.Cancel()
			return
		}
	}
}

func (h *Hub) writeLoop(conn *websocket.Conn, sub *Subscription) {
	defer conn.Close()
	for data := range sub.C {
		_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := conn.WriteMessage(websocket.BinaryMessage, data); err != nil {
			sub.Cancel()
			return
		}
	}
	_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
	_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
}
