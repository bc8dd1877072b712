package ws

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sync/atomic"
	"time"
	"unicode/utf8"

	"github.com/gorilla/websocket"

	"imposter-server/auth"
	"imposter-server/feedback"
	"imposter-server/gameerrors"
	"imposter-server/session"
	"imposter-server/wsutil"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer.
	maxMessageSize = 4096

	// Time allowed for the session to apply one intent.
	intentTimeout = 5 * time.Second

	// Shortest interval between resume token refreshes.
	minTokenRefresh = time.Second

	// Close code sent to a connection whose session was resumed elsewhere.
	closeTakenOver = 4001
)

// Client is a middleman between the websocket connection and its session.
// It is also the session's feedback sink while attached.
type Client struct {
	Hub  *Hub
	Conn *websocket.Conn
	Send chan []byte
	Room *session.Room

	resumed bool
	evicted atomic.Bool
}

// ReadPump pumps messages from the websocket connection to the session.
// It runs in its own goroutine per connection.
func (c *Client) ReadPump() {
	defer func() {
		c.Hub.Unregister <- c
		c.Conn.Close()
	}()

	c.Conn.SetReadLimit(maxMessageSize)
	c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error {
		c.Conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				slog.Warn("websocket read error", "tag", "ws", "err", err)
			}
			break
		}

		c.handleMessage(message)
	}
}

// WritePump pumps messages from the send channel to the websocket connection.
// It runs in its own goroutine per connection.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	var refresh <-chan time.Time
	if every := c.Hub.tokenRefresh(); every > 0 {
		t := time.NewTicker(every)
		defer t.Stop()
		refresh = t.C
	}
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// The hub closed the channel.
				c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			w, err := c.Conn.NextWriter(websocket.TextMessage)
			if err != nil {
				return
			}
			w.Write(message)

			if err := w.Close(); err != nil {
				return
			}

		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}

		case <-refresh:
			// A fresh token keeps a long-lived connection resumable.
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteJSON(c.sessionMessage()); err != nil {
				return
			}
		}
	}
}

// Evict is called when another connection resumes this client's session. The
// client stops applying intents and its connection is closed.
func (c *Client) Evict() {
	if c.evicted.Swap(true) {
		return
	}
	go func() {
		msg := websocket.FormatCloseMessage(closeTakenOver, "session resumed elsewhere")
		c.Conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(writeWait))
		c.Conn.Close()
	}()
}

// Notify forwards a feedback cue to the device.
func (c *Client) Notify(e feedback.Event) {
	wsutil.SendJSON(c.Send, FeedbackMsg{
		Type:       "feedback",
		Transition: e.Transition,
		Sound:      e.Sound,
		Haptic:     e.Haptic,
	})
}

func (c *Client) handleMessage(data []byte) {
	var msg IntentMsg
	if err := json.Unmarshal(data, &msg); err != nil || msg.Type == "" {
		wsutil.SendJSON(c.Send, ErrorMsg{Type: "error", Code: "invalid_message", Message: "Invalid message format."})
		return
	}

	c.apply(session.Intent{
		Type:  session.IntentType(msg.Type),
		Index: msg.Index,
		Name:  truncateName(msg.Name, c.Hub.Config.MaxNameLength),
		Count: msg.Count,
		Value: msg.Value,
	})
}

// apply runs an intent and sends the resulting state. Refusals other than the
// silent ones are reported before the state.
func (c *Client) apply(in session.Intent) {
	if c.evicted.Load() {
		c.sendError(gameerrors.ErrSessionTakenOver)
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), intentTimeout)
	defer cancel()

	snap, err := c.Room.Do(ctx, in)
	if err != nil {
		if errors.Is(err, gameerrors.ErrSessionClosed) || ctx.Err() != nil {
			c.sendError(err)
			return
		}
		if !gameerrors.Silent(err) {
			c.sendError(err)
		}
	}
	wsutil.SendJSON(c.Send, snap)
}

func (c *Client) sendSession() {
	wsutil.SendJSON(c.Send, c.sessionMessage())
}

func (c *Client) sessionMessage() SessionMsg {
	token, err := auth.IssueResumeToken(c.Hub.secret, c.Room.ID, c.Hub.tokenTTL())
	if err != nil {
		slog.Error("issuing resume token", "tag", "ws", "err", err)
	}
	return SessionMsg{
		Type:        "session",
		SessionID:   c.Room.ID,
		ResumeToken: token,
		Resumed:     c.resumed,
	}
}

func (c *Client) sendError(err error) {
	wsutil.SendJSON(c.Send, ErrorMsg{Type: "error", Code: gameerrors.Code(err), Message: err.Error()})
}

// truncateName caps name at limit runes.
func truncateName(name string, limit int) string {
	if limit <= 0 || utf8.RuneCountInString(name) <= limit {
		return name
	}
	return string([]rune(name)[:limit])
}
