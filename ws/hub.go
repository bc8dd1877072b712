// Package ws is the WebSocket transport. One connection drives one game
// session: intents come in as JSON, snapshots and feedback cues go out.
package ws

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"imposter-server/auth"
	"imposter-server/config"
	"imposter-server/feedback"
	"imposter-server/gameerrors"
	"imposter-server/session"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// The UI is served from the same device; allow any origin.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// SessionHost is what the hub needs from session.Host.
type SessionHost interface {
	Create(sink feedback.Sink) *session.Room
	Resume(id string, sink feedback.Sink) (*session.Room, error)
	Detach(id string, owner feedback.Sink)
}

// Hub maintains the set of active clients.
type Hub struct {
	Clients    map[*Client]bool
	Register   chan *Client
	Unregister chan *Client
	Sessions   SessionHost
	Config     *config.Config

	secret []byte
}

// NewHub creates a new Hub. secret signs resume tokens.
func NewHub(cfg *config.Config, sessions SessionHost, secret []byte) *Hub {
	return &Hub{
		Clients:    make(map[*Client]bool),
		Register:   make(chan *Client),
		Unregister: make(chan *Client),
		Sessions:   sessions,
		Config:     cfg,
		secret:     secret,
	}
}

// Run starts the hub's main loop. Should be run as a goroutine.
// When ctx is cancelled (e.g. on server shutdown), Run returns and no longer accepts new registrations.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			slog.Info("shutdown signal received, stopping", "tag", "ws")
			return
		case client := <-h.Register:
			h.Clients[client] = true
			slog.Info("client connected", "tag", "ws", "session", client.Room.ID, "clients", len(h.Clients))

		case client := <-h.Unregister:
			if _, ok := h.Clients[client]; ok {
				delete(h.Clients, client)
				// Detach before closing Send so the room stops feeding this client.
				h.Sessions.Detach(client.Room.ID, client)
				close(client.Send)
				slog.Info("client disconnected", "tag", "ws", "session", client.Room.ID, "clients", len(h.Clients))
			}
		}
	}
}

// ServeWS upgrades the request and attaches the connection to a session:
// the one named by a valid ?resume= token, or a new one.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Warn("websocket upgrade failed", "tag", "ws", "err", err)
		return
	}

	client := &Client{
		Hub:  h,
		Conn: conn,
		Send: make(chan []byte, 256),
	}

	if token := r.URL.Query().Get("resume"); token != "" {
		room, err := h.resume(token, client)
		if err != nil {
			slog.Debug("resume rejected", "tag", "ws", "err", err)
			client.sendError(err)
		} else {
			client.Room = room
			client.resumed = true
		}
	}
	if client.Room == nil {
		client.Room = h.Sessions.Create(client)
	}

	h.Register <- client

	go client.WritePump()
	client.sendSession()
	client.apply(session.Intent{Type: session.IntentSync})
	go client.ReadPump()
}

// tokenRefresh is how often an attached client is sent a new resume token.
// It is zero when sessions are not resumable.
func (h *Hub) tokenRefresh() time.Duration {
	window := h.Config.ResumeWindow()
	if window <= 0 {
		return 0
	}
	return max(window/2, minTokenRefresh)
}

// tokenTTL covers one refresh interval, a missed pong and the resume window.
func (h *Hub) tokenTTL() time.Duration {
	return h.tokenRefresh() + pongWait + h.Config.ResumeWindow()
}

func (h *Hub) resume(token string, client *Client) (*session.Room, error) {
	id, err := auth.ValidateResumeToken(h.secret, token)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", gameerrors.ErrInvalidResumeToken, err)
	}
	return h.Sessions.Resume(id, client)
}
