package ws

import (
	"sync"

	"studwork_backend/internal/logger"
	"studwork_backend/internal/services/dto"
)

// OutgoingMessage is the envelope for every server-initiated push.
type OutgoingMessage struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

// WebSocketManager keeps one connection per user and pushes verification
// status changes to it. It implements the transition engine's StatusGateway.
type WebSocketManager struct {
	clients    map[string]*Client
	register   chan *Client
	unregister chan *Client
	mu         sync.RWMutex
}

func NewWebSocketManager() *WebSocketManager {
	return &WebSocketManager{
		clients:    make(map[string]*Client),
		register:   make(chan *Client),
		unregister: make(chan *Client),
	}
}

func (manager *WebSocketManager) Run() {
	for {
		select {
		case client := <-manager.register:
			manager.mu.Lock()
			if old, ok := manager.clients[client.ID]; ok {
				close(old.Send)
			}
			manager.clients[client.ID] = client
			manager.mu.Unlock()
			logger.Debug("ws client registered", "user_id", client.ID, "total", manager.GetClientCount())

		case client := <-manager.unregister:
			manager.mu.Lock()
			if current, ok := manager.clients[client.ID]; ok && current == client {
				close(client.Send)
				delete(manager.clients, client.ID)
			}
			manager.mu.Unlock()
			logger.Debug("ws client unregistered", "user_id", client.ID, "total", manager.GetClientCount())
		}
	}
}

// EmitStatusChange pushes a status event to the subject's connection if one
// is open. Never blocks: a full send channel drops the connection instead.
func (manager *WebSocketManager) EmitStatusChange(userID string, event dto.KycStatusEvent) {
	manager.mu.RLock()
	client, ok := manager.clients[userID]
	manager.mu.RUnlock()
	if !ok {
		return
	}

	select {
	case client.Send <- OutgoingMessage{Type: "kyc_status", Data: event}:
	default:
		logger.Warn("ws client dropped due to full send channel", "user_id", userID)
		go func() {
			manager.unregister <- client
		}()
	}
}

func (manager *WebSocketManager) GetClientCount() int {
	manager.mu.RLock()
	defer manager.mu.RUnlock()
	return len(manager.clients)
}

func (manager *WebSocketManager) IsClientConnected(userID string) bool {
	manager.mu.RLock()
	defer manager.mu.RUnlock()
	_, exists := manager.clients[userID]
	return exists
}
