package http

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"trivia-arena/internal/game"
)

type stubPinger bool

func (p stubPinger) Ping() bool { return bool(p) }

func TestSpectatorReceivesSnapshots(t *testing.T) {
	feed := game.NewBroadcaster()
	feed.Publish(game.Snapshot{State: "Waiting for round to start", RoundID: 1})

	spectator := NewSpectatorHandler(feed, zerolog.Nop())
	health := NewHealthHandler(map[string]Pinger{"tcp": stubPinger(true)})
	server := httptest.NewServer(NewMux(spectator, health))
	defer server.Close()

	u := "ws" + server.URL[len("http"):] + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(u, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	// First message is the current snapshot.
	first := readSnapshot(t, conn)
	if first.Payload.State != "Waiting for round to start" || first.Payload.RoundID != 1 {
		t.Fatalf("unexpected initial snapshot: %+v", first.Payload)
	}

	feed.Publish(game.Snapshot{
		State:          "Question sent",
		RoundID:        1,
		QuestionNumber: 3,
		QuestionCount:  10,
		Standings:      []game.Standing{{ClientID: 1, Name: "Alice", Score: 2, Rank: 1}},
	})

	update := readSnapshot(t, conn)
	if update.Payload.QuestionNumber != 3 || len(update.Payload.Standings) != 1 {
		t.Fatalf("unexpected update: %+v", update.Payload)
	}
	if update.Payload.Standings[0].Name != "Alice" {
		t.Fatalf("unexpected standings: %+v", update.Payload.Standings)
	}
}

func readSnapshot(t *testing.T, conn *websocket.Conn) outboundMessage[game.Snapshot] {
	t.Helper()
	var msg outboundMessage[game.Snapshot]
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("read json: %v", err)
	}
	if msg.Type != "snapshot" {
		t.Fatalf("expected snapshot message, got %s", msg.Type)
	}
	return msg
}

func TestHealthEndpoint(t *testing.T) {
	feed := game.NewBroadcaster()
	spectator := NewSpectatorHandler(feed, zerolog.Nop())

	health := NewHealthHandler(map[string]Pinger{"tcp": stubPinger(true), "engine": stubPinger(true)})
	server := httptest.NewServer(NewMux(spectator, health))
	defer server.Close()

	resp, err := http.Get(server.URL + "/healthz")
	if err != nil {
		t.Fatalf("get healthz: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	down := httptest.NewServer(NewMux(spectator, NewHealthHandler(map[string]Pinger{"tcp": stubPinger(false)})))
	defer down.Close()
	resp, err = http.Get(down.URL + "/healthz")
	if err != nil {
		t.Fatalf("get healthz: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", resp.StatusCode)
	}
}
