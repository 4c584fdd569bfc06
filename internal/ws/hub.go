package ws

import (
	"context"
	"sync"

	applog "sbomer-dashboard/internal/pkg/logger"

	"github.com/sirupsen/logrus"
)

type topicMessage struct {
	topic   string
	payload []byte
}

// Hub fans messages out to the clients subscribed to a topic. A topic is
// one followed log file of one generation.
type Hub struct {
	topics     map[string]map[*Client]bool
	broadcast  chan topicMessage
	register   chan *Client
	unregister chan *Client
	mutex      sync.RWMutex
	logger     logrus.FieldLogger
}

func NewHub(logger logrus.FieldLogger) *Hub {
	if logger == nil {
		logger = applog.Discard()
	}
	return &Hub{
		topics:     make(map[string]map[*Client]bool),
		broadcast:  make(chan topicMessage, 1024),
		register:   make(chan *Client, 128),
		unregister: make(chan *Client, 128),
		logger:     logger,
	}
}

// Run serves the hub until ctx is done, then disconnects every client.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			h.closeAll()
			return

		case client := <-h.register:
			if client == nil {
				continue
			}
			h.mutex.Lock()
			subs, ok := h.topics[client.topic]
			if !ok {
				subs = make(map[*Client]bool)
				h.topics[client.topic] = subs
			}
			subs[client] = true
			total := len(subs)
			h.mutex.Unlock()
			h.logger.WithFields(logrus.Fields{"client_id": client.id, "topic": client.topic, "topic_clients": total}).Info("WS connected")

		case client := <-h.unregister:
			if client == nil {
				continue
			}
			h.mutex.Lock()
			total := 0
			if subs, ok := h.topics[client.topic]; ok {
				if _, ok := subs[client]; ok {
					delete(subs, client)
					close(client.send)
				}
				total = len(subs)
				if total == 0 {
					delete(h.topics, client.topic)
				}
			}
			h.mutex.Unlock()
			h.logger.WithFields(logrus.Fields{"client_id": client.id, "topic": client.topic, "topic_clients": total}).Info("WS disconnected")

		case msg := <-h.broadcast:
			h.mutex.RLock()
			subs := h.topics[msg.topic]
			clientsSnapshot := make([]*Client, 0, len(subs))
			for c := range subs {
				clientsSnapshot = append(clientsSnapshot, c)
			}
			h.mutex.RUnlock()

			for _, client := range clientsSnapshot {
				select {
				case client.send <- msg.payload:
				default:
					h.Unregister(client)
				}
			}
		}
	}
}

func (h *Hub) closeAll() {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	for topic, subs := range h.topics {
		for c := range subs {
			close(c.send)
		}
		delete(h.topics, topic)
	}
}

func (h *Hub) Register(client *Client) {
	if h == nil {
		return
	}
	h.register <- client
}

func (h *Hub) Unregister(client *Client) {
	if h == nil {
		return
	}
	select {
	case h.unregister <- client:
	default:
		go func() { h.unregister <- client }()
	}
}

func (h *Hub) Broadcast(topic string, message []byte) {
	if h == nil {
		return
	}
	select {
	case h.broadcast <- topicMessage{topic: topic, payload: message}:
	default:
		h.logger.WithField("topic", topic).Warn("WS broadcast dropped: buffer full")
	}
}

func (h *Hub) ClientCount(topic string) int {
	if h == nil {
		return 0
	}
	h.mutex.RLock()
	defer h.mutex.RUnlock()
	return len(h.topics[topic])
}
