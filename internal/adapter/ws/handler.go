package ws

import (
	"log/slog"
	"net/http"

	"github.com/duskcircle/nightwatch/internal/pkg/id"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// TODO: restrict to configured origins in production
		return true
	},
}

// Handler upgrades HTTP connections to WebSocket and wires each one to the
// router's message and disconnect callbacks.
type Handler struct {
	hub          *Hub
	logger       *slog.Logger
	onMessage    func(*Client, *Message)
	onDisconnect func(*Client)
}

func NewHandler(hub *Hub, logger *slog.Logger, onMessage func(*Client, *Message), onDisconnect func(*Client)) *Handler {
	return &Handler{
		hub:          hub,
		logger:       logger,
		onMessage:    onMessage,
		onDisconnect: onDisconnect,
	}
}

// ServeHTTP upgrades the connection. A caller reconnecting after a transport
// drop supplies its previously-issued clientId as a query parameter so the
// registry's reconnect grace window can resolve it back to the same
// participant; a first-time caller gets a freshly generated one.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Error("websocket upgrade failed", "error", err)
		return
	}

	clientID := r.URL.Query().Get("clientId")
	if clientID == "" {
		clientID = id.Generate()
	}

	client := NewClient(h.hub, conn, clientID, h.logger, h.onMessage, h.onDisconnect)
	h.hub.Register(client)

	client.Send(MustMessage(EventTypeConnected, ConnectedPayload{
		ClientID: clientID,
	}))

	go client.WritePump()
	go client.ReadPump()
}
