package main

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"imposter-server/config"
)

// setupTestServer creates a test HTTP server with the full server stack.
func setupTestServer(t *testing.T) (*httptest.Server, *app) {
	t.Helper()

	cfg := config.Defaults()
	cfg.SettingsBackend = config.BackendMemory
	cfg.Seed = 1234
	cfg.ResumeSecret = "integration"

	ctx, cancel := context.WithCancel(context.Background())
	a, err := newApp(ctx, cfg)
	if err != nil {
		t.Fatalf("newApp: %v", err)
	}
	server := httptest.NewServer(a.Mux)
	t.Cleanup(func() {
		server.Close()
		cancel()
		a.Close()
	})
	return server, a
}

// connectWS creates a WebSocket connection to the test server.
func connectWS(t *testing.T, server *httptest.Server, query string) *websocket.Conn {
	t.Helper()
	wsURL := "ws" + strings.TrimPrefix(server.URL, "http") + "/ws" + query
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("failed to connect: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

// readMsg reads a JSON message from the WebSocket and returns it as a map.
func readMsg(t *testing.T, conn *websocket.Conn) map[string]any {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(3 * time.Second))
	_, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("failed to read message: %v", err)
	}
	var msg map[string]any
	if err := json.Unmarshal(data, &msg); err != nil {
		t.Fatalf("failed to unmarshal: %v\ndata: %s", err, string(data))
	}
	return msg
}

// sendMsg sends a JSON message over the WebSocket.
func sendMsg(t *testing.T, conn *websocket.Conn, msg map[string]any) {
	t.Helper()
	data, err := json.Marshal(msg)
	if err != nil {
		t.Fatalf("failed to marshal: %v", err)
	}
	if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
		t.Fatalf("failed to write: %v", err)
	}
}

// intent sends msg and returns the next state, failing on an error message.
func intent(t *testing.T, conn *websocket.Conn, msg map[string]any) map[string]any {
	t.Helper()
	sendMsg(t, conn, msg)
	for {
		m := readMsg(t, conn)
		switch m["type"] {
		case "state":
			return m
		case "error":
			t.Fatalf("%v refused: %v", msg["type"], m)
		}
	}
}

// expectRefusal sends msg and returns the error code and the following state.
func expectRefusal(t *testing.T, conn *websocket.Conn, msg map[string]any) (string, map[string]any) {
	t.Helper()
	sendMsg(t, conn, msg)
	code := ""
	for {
		m := readMsg(t, conn)
		switch m["type"] {
		case "error":
			code, _ = m["code"].(string)
		case "state":
			return code, m
		}
	}
}

func handshake(t *testing.T, conn *websocket.Conn) (session, state map[string]any) {
	t.Helper()
	session = readMsg(t, conn)
	if session["type"] != "session" {
		t.Fatalf("expected session, got %v", session)
	}
	state = readMsg(t, conn)
	if state["type"] != "state" {
		t.Fatalf("expected state, got %v", state)
	}
	return session, state
}

func setupRoster(t *testing.T, conn *websocket.Conn, names ...string) map[string]any {
	t.Helper()
	state := intent(t, conn, map[string]any{"type": "start_new_game"})
	for i := 3; i < len(names); i++ {
		state = intent(t, conn, map[string]any{"type": "add_player"})
	}
	for i, n := range names {
		state = intent(t, conn, map[string]any{"type": "update_player_name", "index": i, "name": n})
	}
	return state
}

func TestIntegration_FullGame(t *testing.T) {
	server, _ := setupTestServer(t)
	conn := connectWS(t, server, "")
	_, state := handshake(t, conn)
	if state["phase"] != "home" {
		t.Fatalf("expected home, got %v", state["phase"])
	}

	state = setupRoster(t, conn, "Ana", "Ben", "Cy", "Dee", "Eve")
	if state["maxImposters"] != float64(3) {
		t.Errorf("expected maxImposters=3, got %v", state["maxImposters"])
	}
	intent(t, conn, map[string]any{"type": "proceed_to_settings"})
	state = intent(t, conn, map[string]any{"type": "set_imposter_count", "count": 2})
	if state["imposterCount"] != float64(2) {
		t.Errorf("expected imposterCount=2, got %v", state["imposterCount"])
	}
	state = intent(t, conn, map[string]any{"type": "begin_role_reveal"})
	if state["phase"] != "roleReveal" {
		t.Fatalf("expected roleReveal, got %v", state["phase"])
	}

	imposters := map[string]bool{}
	secret := ""
	for state["phase"] == "roleReveal" {
		cur := state["currentPlayer"].(map[string]any)
		intent(t, conn, map[string]any{"type": "player_ready"})
		state = intent(t, conn, map[string]any{"type": "flip_card"})
		card := state["roleCard"].(map[string]any)
		if card["isImposter"] == true {
			imposters[cur["name"].(string)] = true
			if _, ok := card["word"]; ok {
				t.Errorf("imposter %v saw the word", cur["name"])
			}
		} else {
			word := card["word"].(string)
			if secret != "" && word != secret {
				t.Errorf("non-imposters saw different words: %q vs %q", secret, word)
			}
			secret = word
		}
		state = intent(t, conn, map[string]any{"type": "move_to_next_player"})
	}
	if len(imposters) != 2 {
		t.Fatalf("expected 2 imposters, got %v", imposters)
	}
	if state["phase"] != "playing" {
		t.Fatalf("expected playing, got %v", state["phase"])
	}
	starter := state["startingPlayer"].(map[string]any)["name"].(string)
	if imposters[starter] {
		t.Errorf("starting player %s is an imposter", starter)
	}

	intent(t, conn, map[string]any{"type": "end_game"})
	// Out-of-sequence reveals are refused silently.
	code, state := expectRefusal(t, conn, map[string]any{"type": "reveal_word"})
	if code != "" || state["showWordReveal"] != false || state["word"] != nil {
		t.Errorf("expected silent refusal with word hidden, got %q %v", code, state["word"])
	}
	state = intent(t, conn, map[string]any{"type": "reveal_imposters"})
	if got := len(state["imposters"].([]any)); got != 2 {
		t.Errorf("expected 2 revealed imposters, got %d", got)
	}
	state = intent(t, conn, map[string]any{"type": "reveal_word"})
	if state["word"] != secret {
		t.Errorf("expected revealed word %q, got %v", secret, state["word"])
	}

	state = intent(t, conn, map[string]any{"type": "play_again"})
	if state["phase"] != "roleReveal" || len(state["players"].([]any)) != 5 {
		t.Errorf("expected a new round with the same roster, got %v", state)
	}
	state = intent(t, conn, map[string]any{"type": "return_home"})
	if state["phase"] != "home" {
		t.Errorf("expected home, got %v", state["phase"])
	}
}

func TestIntegration_ResumeMidReveal(t *testing.T) {
	server, a := setupTestServer(t)
	conn := connectWS(t, server, "")
	session, _ := handshake(t, conn)

	setupRoster(t, conn, "Ana", "Ben", "Cy")
	intent(t, conn, map[string]any{"type": "proceed_to_settings"})
	intent(t, conn, map[string]any{"type": "begin_role_reveal"})
	intent(t, conn, map[string]any{"type": "player_ready"})
	intent(t, conn, map[string]any{"type": "flip_card"})
	intent(t, conn, map[string]any{"type": "move_to_next_player"})
	conn.Close()

	conn2 := connectWS(t, server, "?resume="+session["resumeToken"].(string))
	session2, state := handshake(t, conn2)
	if session2["sessionId"] != session["sessionId"] {
		t.Fatalf("expected same session, got %v", session2["sessionId"])
	}
	if state["phase"] != "roleReveal" || state["currentRevealIndex"] != float64(1) {
		t.Errorf("expected reveal to continue at index 1, got %v/%v", state["phase"], state["currentRevealIndex"])
	}
	if state["roleCard"] != nil {
		t.Error("role card must stay hidden after resume")
	}
	if a.Sessions.Len() != 1 {
		t.Errorf("expected 1 session, got %d", a.Sessions.Len())
	}
}

func TestIntegration_SettingsGateRoleReveal(t *testing.T) {
	server, _ := setupTestServer(t)

	req, _ := http.NewRequest(http.MethodPut, server.URL+"/api/settings", strings.NewReader(`{"selectedCategoryIds":[]}`))
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	conn := connectWS(t, server, "")
	handshake(t, conn)
	setupRoster(t, conn, "Ana", "Ben", "Cy")
	state := intent(t, conn, map[string]any{"type": "proceed_to_settings"})
	if state["canStartGame"] != false {
		t.Error("expected canStartGame=false with no categories")
	}
	code, state := expectRefusal(t, conn, map[string]any{"type": "begin_role_reveal"})
	if code != "no_candidate_words" || state["phase"] != "gameSettings" {
		t.Errorf("expected no_candidate_words in gameSettings, got %q in %v", code, state["phase"])
	}

	state = intent(t, conn, map[string]any{"type": "select_all_categories"})
	if state["canStartGame"] != true {
		t.Error("expected canStartGame=true after selecting all categories")
	}
	state = intent(t, conn, map[string]any{"type": "begin_role_reveal"})
	if state["phase"] != "roleReveal" {
		t.Errorf("expected roleReveal, got %v", state["phase"])
	}
}

func TestIntegration_Categories(t *testing.T) {
	server, a := setupTestServer(t)
	resp, err := http.Get(server.URL + "/api/categories")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	var body struct {
		Categories []struct {
			ID string `json:"id"`
		} `json:"categories"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatal(err)
	}
	if len(body.Categories) != len(a.Corpus.CategoryIDs()) || len(body.Categories) == 0 {
		t.Errorf("expected %d categories, got %d", len(a.Corpus.CategoryIDs()), len(body.Categories))
	}
}
