package websocket

import (
	"context"
	"encoding/json"
	"sync"
)

// ResultsEvent tells listeners which questions changed so they can refetch
// results over the REST surface. Counts are never pushed here; the store
// stays the single source of truth.
type ResultsEvent struct {
	Type        string `json:"type"`
	QuestionIDs []uint `json:"question_ids"`
}

// Hub fans results-changed events out to every connected listener. It
// implements services.ResultsNotifier.
type Hub struct {
	mu      sync.RWMutex
	clients map[string]*Client

	register   chan *Client
	unregister chan *Client
}

func NewHub() *Hub {
	return &Hub{
		clients:    make(map[string]*Client),
		register:   make(chan *Client, 64),
		unregister: make(chan *Client, 64),
	}
}

// Run starts the hub's event loop.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case client := <-h.register:
			h.addClient(client)
		case client := <-h.unregister:
			h.removeClient(client)
		}
	}
}

func (h *Hub) Register(client *Client) {
	h.register <- client
}

func (h *Hub) Unregister(client *Client) {
	h.unregister <- client
}

// ResultsUpdated broadcasts the set of changed questions to every listener.
func (h *Hub) ResultsUpdated(questionIDs []uint) {
	payload, err := json.Marshal(ResultsEvent{
		Type:        "results_updated",
		QuestionIDs: questionIDs,
	})
	if err != nil {
		return
	}

	h.mu.RLock()
	for _, client := range h.clients {
		client.SendMessage(payload)
	}
	h.mu.RUnlock()
}

func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func (h *Hub) addClient(client *Client) {
	h.mu.Lock()
	h.clients[client.ID] = client
	h.mu.Unlock()
}

func (h *Hub) removeClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[client.ID]; !ok {
		return
	}
	delete(h.clients, client.ID)
	close(client.Send)
}
