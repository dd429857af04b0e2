package ws

import (
	"log/slog"
	"sync"
)

// Hub manages all WebSocket clients and fan-out, grouped by session id.
type Hub struct {
	clients map[*Client]bool

	sessions map[string]map[*Client]bool

	register   chan *Client
	unregister chan *Client

	broadcast chan *sessionMessage

	logger *slog.Logger

	mu sync.RWMutex
}

type sessionMessage struct {
	SessionID string
	Message   *Message
	Exclude   *Client
}

func NewHub(logger *slog.Logger) *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		sessions:   make(map[string]map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan *sessionMessage, 256),
		logger:     logger,
	}
}

// Run starts the hub's main loop.
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.clients[client] = true
			h.logger.Debug("client registered", "client_id", client.ClientID)

		case client := <-h.unregister:
			if _, ok := h.clients[client]; ok {
				h.removeClientFromSession(client)
				delete(h.clients, client)
				close(client.send)
				h.logger.Debug("client unregistered", "client_id", client.ClientID)
			}

		case m := <-h.broadcast:
			h.broadcastToSession(m)
		}
	}
}

func (h *Hub) Register(client *Client)   { h.register <- client }
func (h *Hub) Unregister(client *Client) { h.unregister <- client }

// JoinSession subscribes a client to a session's fan-out group.
func (h *Hub) JoinSession(client *Client, sessionID string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if client.SessionID != "" {
		h.leaveSessionLocked(client)
	}

	if _, ok := h.sessions[sessionID]; !ok {
		h.sessions[sessionID] = make(map[*Client]bool)
	}
	h.sessions[sessionID][client] = true
	client.SessionID = sessionID

	h.logger.Debug("client joined session", "client_id", client.ClientID, "session_id", sessionID)
}

func (h *Hub) LeaveSession(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.leaveSessionLocked(client)
}

func (h *Hub) leaveSessionLocked(client *Client) {
	if client.SessionID == "" {
		return
	}
	if room, ok := h.sessions[client.SessionID]; ok {
		delete(room, client)
		if len(room) == 0 {
			delete(h.sessions, client.SessionID)
			h.logger.Debug("session fan-out group emptied", "session_id", client.SessionID)
		}
	}
	client.SessionID = ""
}

func (h *Hub) removeClientFromSession(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.leaveSessionLocked(client)
}

// BroadcastToSession sends the same message to every client in a session.
// Use for events that carry no role-sensitive data; for anything that does,
// project per-viewer and use SendToClient instead.
func (h *Hub) BroadcastToSession(sessionID string, msg *Message, exclude *Client) {
	h.broadcast <- &sessionMessage{SessionID: sessionID, Message: msg, Exclude: exclude}
}

func (h *Hub) broadcastToSession(m *sessionMessage) {
	h.mu.RLock()
	room, ok := h.sessions[m.SessionID]
	h.mu.RUnlock()
	if !ok {
		return
	}

	data := m.Message.Bytes()
	for client := range room {
		if client == m.Exclude {
			continue
		}
		select {
		case client.send <- data:
		default:
			h.logger.Warn("client send buffer full, closing", "client_id", client.ClientID)
			go h.Unregister(client)
		}
	}
}

func (h *Hub) SendToClient(client *Client, msg *Message) {
	select {
	case client.send <- msg.Bytes():
	default:
		h.logger.Warn("client send buffer full", "client_id", client.ClientID)
	}
}

// GetSessionClients returns every client currently subscribed to a session,
// for callers that need to send each one a distinct, per-viewer payload.
func (h *Hub) GetSessionClients(sessionID string) []*Client {
	h.mu.RLock()
	defer h.mu.RUnlock()
	room, ok := h.sessions[sessionID]
	if !ok {
		return nil
	}
	clients := make([]*Client, 0, len(room))
	for c := range room {
		clients = append(clients, c)
	}
	return clients
}

func (h *Hub) SessionSize(sessionID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.sessions[sessionID])
}

// GetClient returns the connection for a clientId, if currently connected.
func (h *Hub) GetClient(clientID string) *Client {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.clients {
		if c.ClientID == clientID {
			return c
		}
	}
	return nil
}

// BroadcastToClients sends a message to a specific subset of clients within
// a session, e.g. the ghost-chat channel addressed to eliminated participants.
func (h *Hub) BroadcastToClients(sessionID string, clientIDs []string, msg *Message) {
	h.mu.RLock()
	room, ok := h.sessions[sessionID]
	h.mu.RUnlock()
	if !ok {
		return
	}

	targets := make(map[string]bool, len(clientIDs))
	for _, id := range clientIDs {
		targets[id] = true
	}

	data := msg.Bytes()
	for c := range room {
		if targets[c.ClientID] {
			select {
			case c.send <- data:
			default:
				h.logger.Warn("client send buffer full", "client_id", c.ClientID)
			}
		}
	}
}
