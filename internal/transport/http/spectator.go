// Package http exposes the spectator surface: a websocket feed of game
// snapshots and a liveness endpoint. Spectators only watch; playing
// happens over the TCP listeners.
package http

import (
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"trivia-arena/internal/game"
)

// Feed is the slice of the engine spectators consume.
type Feed interface {
	Watch() (<-chan game.Snapshot, func())
}

type SpectatorHandler struct {
	feed     Feed
	upgrader websocket.Upgrader
	log      zerolog.Logger
}

func NewSpectatorHandler(feed Feed, log zerolog.Logger) *SpectatorHandler {
	return &SpectatorHandler{
		feed: feed,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		log: log.With().Str("component", "spectator").Logger(),
	}
}

type outboundMessage[T any] struct {
	Type    string `json:"type"`
	Payload T      `json:"payload"`
}

// ServeWS upgrades the request and streams snapshots until the client
// goes away. The feed is outbound-only; anything the client sends besides
// control frames ends the session.
func (h *SpectatorHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn().Err(err).Msg("ws upgrade failed")
		return
	}
	defer conn.Close()

	snapshots, cancel := h.feed.Watch()
	defer cancel()

	readerDone := make(chan struct{})
	go func() {
		defer close(readerDone)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case snap := <-snapshots:
			if err := conn.WriteJSON(outboundMessage[game.Snapshot]{Type: "snapshot", Payload: snap}); err != nil {
				h.log.Debug().Err(err).Msg("ws write error")
				return
			}
		case <-readerDone:
			return
		}
	}
}
