package ws

import (
	"context"
	"encoding/json"
	"math/rand"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/gorilla/websocket"

	"imposter-server/config"
	"imposter-server/gameerrors"
	"imposter-server/session"
	"imposter-server/settings"
	"imposter-server/storage"
	"imposter-server/words"
)

var testSecret = []byte("ws-test-secret")

func setupHub(t *testing.T) (*httptest.Server, *session.Host) {
	t.Helper()
	return setupHubWith(t, nil)
}

// setupHubWith lets a test adjust the config before the hub starts.
func setupHubWith(t *testing.T, configure func(*config.Config)) (*httptest.Server, *session.Host) {
	t.Helper()
	corpus := words.NewCorpus([]words.Category{
		{ID: "animals", Name: "Animals", Words: map[words.Difficulty][]string{words.Kids: {"Elephant"}}},
	}, rand.New(rand.NewSource(1)))
	store := settings.Open(context.Background(), storage.NewMemoryKV())
	store.InitializeCategoriesIfNeeded(corpus.CategoryIDs())

	cfg := config.Defaults()
	cfg.MaxNameLength = 5
	if configure != nil {
		configure(cfg)
	}
	host := session.NewHost(corpus, store, rand.New(rand.NewSource(2)), cfg.ResumeWindow(), nil)
	hub := NewHub(cfg, host, testSecret)

	ctx, cancel := context.WithCancel(context.Background())
	go hub.Run(ctx)

	server := httptest.NewServer(http.HandlerFunc(hub.ServeWS))
	t.Cleanup(func() {
		server.Close()
		cancel()
		host.Close()
	})
	return server, host
}

func dial(t *testing.T, server *httptest.Server, query string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(server.URL, "http") + "/ws" + query
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("failed to connect: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readMsg(t *testing.T, conn *websocket.Conn) map[string]any {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(3 * time.Second))
	_, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("failed to read message: %v", err)
	}
	var msg map[string]any
	if err := json.Unmarshal(data, &msg); err != nil {
		t.Fatalf("failed to unmarshal: %v\ndata: %s", err, data)
	}
	return msg
}

// readUntil reads until a message of type want arrives and returns it along
// with the types skipped on the way.
func readUntil(t *testing.T, conn *websocket.Conn, want string) (map[string]any, []string) {
	t.Helper()
	var skipped []string
	for i := 0; i < 20; i++ {
		msg := readMsg(t, conn)
		if msg["type"] == want {
			return msg, skipped
		}
		skipped = append(skipped, msg["type"].(string))
	}
	t.Fatalf("no %s message after %v", want, skipped)
	return nil, nil
}

func send(t *testing.T, conn *websocket.Conn, msg IntentMsg) {
	t.Helper()
	if err := conn.WriteJSON(msg); err != nil {
		t.Fatalf("failed to write: %v", err)
	}
}

func TestConnectSendsSessionThenState(t *testing.T) {
	server, host := setupHub(t)
	conn := dial(t, server, "")

	sess := readMsg(t, conn)
	if sess["type"] != "session" || sess["sessionId"] == "" || sess["resumeToken"] == "" {
		t.Fatalf("expected session message, got %v", sess)
	}
	if sess["resumed"] != false {
		t.Errorf("expected resumed=false, got %v", sess["resumed"])
	}
	state := readMsg(t, conn)
	if state["type"] != "state" || state["phase"] != "home" {
		t.Errorf("expected home state, got %v", state)
	}
	if host.Len() != 1 {
		t.Errorf("expected 1 session, got %d", host.Len())
	}
}

func TestIntentProducesFeedbackAndState(t *testing.T) {
	server, _ := setupHub(t)
	conn := dial(t, server, "")
	readUntil(t, conn, "state")

	send(t, conn, IntentMsg{Type: "start_new_game"})
	fb := readMsg(t, conn)
	if fb["type"] != "feedback" || fb["transition"] != "start_new_game" || fb["sound"] != "button_tap" {
		t.Errorf("expected start_new_game feedback, got %v", fb)
	}
	state := readMsg(t, conn)
	if state["phase"] != "playerSetup" {
		t.Errorf("expected playerSetup, got %v", state["phase"])
	}
	if players := state["players"].([]any); len(players) != 3 {
		t.Errorf("expected 3 players, got %d", len(players))
	}
}

func TestRefusalReportsErrorThenState(t *testing.T) {
	server, _ := setupHub(t)
	conn := dial(t, server, "")
	readUntil(t, conn, "state")
	send(t, conn, IntentMsg{Type: "start_new_game"})
	readUntil(t, conn, "state")

	send(t, conn, IntentMsg{Type: "proceed_to_settings"})
	errMsg := readMsg(t, conn)
	if errMsg["type"] != "error" || errMsg["code"] != "incomplete_setup" {
		t.Errorf("expected incomplete_setup error, got %v", errMsg)
	}
	state := readMsg(t, conn)
	if state["phase"] != "playerSetup" {
		t.Errorf("expected phase unchanged, got %v", state["phase"])
	}
}

func TestSilentRefusalSendsOnlyState(t *testing.T) {
	server, _ := setupHub(t)
	conn := dial(t, server, "")
	readUntil(t, conn, "state")
	send(t, conn, IntentMsg{Type: "start_new_game"})
	readUntil(t, conn, "state")

	send(t, conn, IntentMsg{Type: "remove_player", Index: 0})
	_, skipped := readUntil(t, conn, "state")
	if len(skipped) != 0 {
		t.Errorf("expected no messages before state, got %v", skipped)
	}
}

func TestInvalidMessage(t *testing.T) {
	server, _ := setupHub(t)
	conn := dial(t, server, "")
	readUntil(t, conn, "state")

	conn.WriteMessage(websocket.TextMessage, []byte("{not json"))
	msg := readMsg(t, conn)
	if msg["type"] != "error" || msg["code"] != "invalid_message" {
		t.Errorf("expected invalid_message error, got %v", msg)
	}
}

func TestNamesAreTruncated(t *testing.T) {
	server, _ := setupHub(t)
	conn := dial(t, server, "")
	readUntil(t, conn, "state")
	send(t, conn, IntentMsg{Type: "start_new_game"})
	readUntil(t, conn, "state")

	send(t, conn, IntentMsg{Type: "update_player_name", Index: 1, Name: "Bartholomew"})
	state, _ := readUntil(t, conn, "state")
	p := state["players"].([]any)[1].(map[string]any)
	if p["name"] != "Barth" {
		t.Errorf("expected name truncated to Barth, got %v", p["name"])
	}
}

func TestResumeReattachesSession(t *testing.T) {
	server, host := setupHub(t)
	conn := dial(t, server, "")
	sess := readMsg(t, conn)
	readUntil(t, conn, "state")
	send(t, conn, IntentMsg{Type: "start_new_game"})
	readUntil(t, conn, "state")
	conn.Close()

	conn2 := dial(t, server, "?resume="+sess["resumeToken"].(string))
	sess2 := readMsg(t, conn2)
	if sess2["sessionId"] != sess["sessionId"] || sess2["resumed"] != true {
		t.Fatalf("expected resumed session %v, got %v", sess["sessionId"], sess2)
	}
	state := readMsg(t, conn2)
	if state["phase"] != "playerSetup" {
		t.Errorf("expected state preserved, got %v", state["phase"])
	}
	if host.Len() != 1 {
		t.Errorf("expected 1 session, got %d", host.Len())
	}
}

func TestBadResumeTokenStartsFreshSession(t *testing.T) {
	server, host := setupHub(t)
	conn := dial(t, server, "?resume=garbage")

	errMsg := readMsg(t, conn)
	if errMsg["type"] != "error" || errMsg["code"] != "invalid_resume_token" {
		t.Errorf("expected invalid_resume_token, got %v", errMsg)
	}
	sess := readMsg(t, conn)
	if sess["type"] != "session" || sess["resumed"] != false {
		t.Errorf("expected fresh session, got %v", sess)
	}
	if host.Len() != 1 {
		t.Errorf("expected 1 session, got %d", host.Len())
	}
}

func tokenExpiry(t *testing.T, token string) time.Time {
	t.Helper()
	claims := &jwt.RegisteredClaims{}
	if _, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) { return testSecret, nil }); err != nil {
		t.Fatalf("failed to parse token: %v", err)
	}
	return claims.ExpiresAt.Time
}

func TestResumeTokenIsRefreshed(t *testing.T) {
	server, host := setupHubWith(t, func(cfg *config.Config) { cfg.ResumeWindowSec = 1 })
	conn := dial(t, server, "")
	first := readMsg(t, conn)
	readUntil(t, conn, "state")

	// The refresh interval has a one second floor, inside readMsg's deadline.
	refreshed, _ := readUntil(t, conn, "session")
	oldToken, newToken := first["resumeToken"].(string), refreshed["resumeToken"].(string)
	if newToken == oldToken {
		t.Fatal("expected a new token")
	}
	if refreshed["sessionId"] != first["sessionId"] {
		t.Errorf("expected session %v, got %v", first["sessionId"], refreshed["sessionId"])
	}
	if !tokenExpiry(t, newToken).After(tokenExpiry(t, oldToken)) {
		t.Error("expected refreshed token to expire later")
	}
	conn.Close()

	conn2 := dial(t, server, "?resume="+newToken)
	sess := readMsg(t, conn2)
	if sess["sessionId"] != first["sessionId"] || sess["resumed"] != true {
		t.Fatalf("expected resumed session %v, got %v", first["sessionId"], sess)
	}
	if host.Len() != 1 {
		t.Errorf("expected 1 session, got %d", host.Len())
	}
}

func TestResumeClosesPreviousConnection(t *testing.T) {
	server, _ := setupHub(t)
	conn := dial(t, server, "")
	sess := readMsg(t, conn)
	readUntil(t, conn, "state")

	conn2 := dial(t, server, "?resume="+sess["resumeToken"].(string))
	readUntil(t, conn2, "state")

	conn.SetReadDeadline(time.Now().Add(3 * time.Second))
	var err error
	for err == nil {
		_, _, err = conn.ReadMessage()
	}
	if !websocket.IsCloseError(err, closeTakenOver) {
		t.Errorf("expected close code %d, got %v", closeTakenOver, err)
	}

	// The new connection still drives the session.
	send(t, conn2, IntentMsg{Type: "start_new_game"})
	state, _ := readUntil(t, conn2, "state")
	if state["phase"] != "playerSetup" {
		t.Errorf("expected playerSetup, got %v", state["phase"])
	}
}

func TestEvictedClientRefusesIntents(t *testing.T) {
	c := &Client{Send: make(chan []byte, 1)}
	c.evicted.Store(true)
	c.apply(session.Intent{Type: session.IntentStartNewGame})

	var msg ErrorMsg
	if err := json.Unmarshal(<-c.Send, &msg); err != nil {
		t.Fatal(err)
	}
	if msg.Type != "error" || msg.Code != gameerrors.Code(gameerrors.ErrSessionTakenOver) {
		t.Errorf("expected session_taken_over error, got %+v", msg)
	}
}

func TestTruncateName(t *testing.T) {
	tests := []struct {
		in    string
		limit int
		want  string
	}{
		{"Ana", 5, "Ana"},
		{"Bartholomew", 5, "Barth"},
		{"Zoë Zoë", 3, "Zoë"},
		{"anything", 0, "anything"},
	}
	for _, tt := range tests {
		if got := truncateName(tt.in, tt.limit); got != tt.want {
			t.Errorf("truncateName(%q, %d): expected %q, got %q", tt.in, tt.limit, tt.want, got)
		}
	}
}
