package websocket

import (
	"encoding/json"
	"log/slog"
	"sync"

	"github.com/dom/task-manager-api/internal/domain"
	"github.com/google/uuid"
)

type userMessage struct {
	userID uuid.UUID
	data   []byte
}

// Hub fans task events out to every open connection of the owning user. All
// registry mutations happen on the Run goroutine.
type Hub struct {
	clients    map[uuid.UUID]map[*Client]bool
	register   chan *Client
	unregister chan *Client
	broadcast  chan *userMessage
	stop       chan struct{}
	done       chan struct{} // closed when Run() exits
	stopped    bool
	mu         sync.RWMutex
	log        *slog.Logger
}

func NewHub(log *slog.Logger) *Hub {
	return &Hub{
		clients:    make(map[uuid.UUID]map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan *userMessage, 64),
		stop:       make(chan struct{}),
		done:       make(chan struct{}),
		log:        log,
	}
}

func (h *Hub) Run() {
	defer close(h.done)

	for {
		select {
		case <-h.stop:
			h.mu.Lock()
			h.stopped = true
			for _, set := range h.clients {
				for client := range set {
					client.Close()
				}
			}
			h.clients = make(map[uuid.UUID]map[*Client]bool)
			h.mu.Unlock()
			return

		case client := <-h.register:
			h.mu.Lock()
			set, ok := h.clients[client.userID]
			if !ok {
				set = make(map[*Client]bool)
				h.clients[client.userID] = set
			}
			set[client] = true
			h.mu.Unlock()

			if msg, err := NewMessage(MessageTypeConnected, ConnectedPayload{UserID: client.userID.String()}); err == nil {
				data, _ := json.Marshal(msg)
				client.send <- data
			}

		case client := <-h.unregister:
			h.mu.Lock()
			h.removeLocked(client)
			h.mu.Unlock()

		case msg := <-h.broadcast:
			h.mu.Lock()
			for client := range h.clients[msg.userID] {
				select {
				case client.send <- msg.data:
				default:
					h.log.Warn("dropping slow websocket client", slog.String("user_id", msg.userID.String()))
					h.removeLocked(client)
				}
			}
			h.mu.Unlock()
		}
	}
}

func (h *Hub) removeLocked(client *Client) {
	set, ok := h.clients[client.userID]
	if !ok || !set[client] {
		return
	}
	delete(set, client)
	if len(set) == 0 {
		delete(h.clients, client.userID)
	}
	client.Close()
}

// Stop gracefully shuts down the hub and closes every client.
// It blocks until Run has returned.
func (h *Hub) Stop() {
	h.mu.Lock()
	if h.stopped {
		h.mu.Unlock()
		return
	}
	h.stopped = true
	h.mu.Unlock()

	close(h.stop)
	<-h.done
}

func (h *Hub) Register(client *Client) {
	select {
	case h.register <- client:
	case <-h.done:
		client.Close()
	}
}

func (h *Hub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

// ClientCount reports how many connections a user has open.
func (h *Hub) ClientCount(userID uuid.UUID) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[userID])
}

// NotifyTask implements service.TaskNotifier.
func (h *Hub) NotifyTask(userID uuid.UUID, event domain.TaskEventType, task *domain.Task) {
	msg, err := NewMessage(MessageType(event), TaskPayload{Task: task})
	if err != nil {
		h.log.Error("failed to build task event", slog.String("error", err.Error()))
		return
	}
	data, err := json.Marshal(msg)
	if err != nil {
		h.log.Error("failed to marshal task event", slog.String("error", err.Error()))
		return
	}

	select {
	case h.broadcast <- &userMessage{userID: userID, data: data}:
	case <-h.done:
	}
}
