package notify

import (
	"encoding/json"
	"sync"
	"time"

	"styledecor/logger"
)

// Event is a booking lifecycle notification pushed to subscribers.
// Topic is the email of the customer or decorator the event concerns.
type Event struct {
	Action     string `json:"action"` // created, paid, assigned, status, completed, cancelled
	BookingID  string `json:"bookingId"`
	Status     string `json:"status,omitempty"`
	TrackingID string `json:"trackingId,omitempty"`
	Timestamp  int64  `json:"timestamp"`
}

type broadcastMsg struct {
	Topic string
	Data  []byte
}

type Hub struct {
	topics     map[string]map[*Client]bool
	register   chan *Client
	unregister chan *Client
	broadcast  chan broadcastMsg
	done       chan struct{}
	mu         sync.Mutex
}

func NewHub() *Hub {
	return &Hub{
		topics:     make(map[string]map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan broadcastMsg),
		done:       make(chan struct{}),
	}
}

func (h *Hub) Run() {
	for {
		select {
		case <-h.done:
			h.mu.Lock()
			for _, conns := range h.topics {
				for c := range conns {
					close(c.Send)
				}
			}
			h.topics = make(map[string]map[*Client]bool)
			h.mu.Unlock()
			return

		case c := <-h.register:
			h.mu.Lock()
			if h.topics[c.Topic] == nil {
				h.topics[c.Topic] = make(map[*Client]bool)
			}
			h.topics[c.Topic][c] = true
			h.mu.Unlock()

		case c := <-h.unregister:
			h.mu.Lock()
			// the broadcast path may already have dropped and closed a
			// slow subscriber; only close channels still in the map
			if conns := h.topics[c.Topic]; conns != nil {
				if _, ok := conns[c]; ok {
					delete(conns, c)
					close(c.Send)
				}
			}
			h.mu.Unlock()

		case m := <-h.broadcast:
			h.mu.Lock()
			for c := range h.topics[m.Topic] {
				select {
				case c.Send <- m.Data:
				default:
					close(c.Send)
					delete(h.topics[m.Topic], c)
				}
			}
			h.mu.Unlock()
		}
	}
}

func (h *Hub) Stop() {
	close(h.done)
}

// Publish fans an event out to every subscriber of the given topics.
// Non-blocking for callers in the request path.
func (h *Hub) Publish(ev Event, topics ...string) {
	if ev.Timestamp == 0 {
		ev.Timestamp = time.Now().Unix()
	}
	data, err := json.Marshal(ev)
	if err != nil {
		logger.L.Errorw("event marshal failed", "err", err)
		return
	}
	for _, topic := range topics {
		if topic == "" {
			continue
		}
		select {
		case h.broadcast <- broadcastMsg{Topic: topic, Data: data}:
		case <-h.done:
			return
		}
	}
}
