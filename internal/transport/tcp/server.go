// Package tcp runs the two game listeners: the request listener handling
// short-lived client request/response exchanges, and the push listener
// carrying one long-lived connection per client for server-initiated
// messages. The push listener is read from exactly once per connection,
// during the handshake.
package tcp

import (
	"context"
	"errors"
	"net"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"trivia-arena/internal/domain"
	"trivia-arena/internal/game"
	"trivia-arena/internal/protocol"
	"trivia-arena/internal/registry"
)

const (
	errInvalidMessage  = "invalid message"
	errUnexpectedMsg   = "unexpected message"
	errUnknownClient   = "unknown participant"
	errRejectedConnect = "connection rejected"
)

// Config carries the listener endpoints. PushAdvertise overrides the
// address handed to clients in SetupConnection, for servers behind NAT;
// empty means the push listener's own address.
type Config struct {
	RequestAddr   string
	PushAddr      string
	PushAdvertise string
	ReadTimeout   time.Duration
	WriteTimeout  time.Duration
}

// Server owns both listeners and turns valid client requests into queued
// actions for the game engine.
type Server struct {
	cfg   Config
	reg   *registry.Registry
	queue *game.Queue
	log   zerolog.Logger

	requestLn    net.Listener
	pushLn       net.Listener
	requestAlive atomic.Bool
	pushAlive    atomic.Bool
}

func NewServer(cfg Config, reg *registry.Registry, queue *game.Queue, log zerolog.Logger) *Server {
	if cfg.ReadTimeout == 0 {
		cfg.ReadTimeout = 10 * time.Second
	}
	if cfg.WriteTimeout == 0 {
		cfg.WriteTimeout = 10 * time.Second
	}
	return &Server{
		cfg:   cfg,
		reg:   reg,
		queue: queue,
		log:   log.With().Str("component", "tcp").Logger(),
	}
}

// Start opens both listeners and runs their accept loops until ctx is
// done. In-flight per-connection handlers are not forcibly aborted; only
// new work stops being accepted.
func (s *Server) Start(ctx context.Context) error {
	requestLn, err := net.Listen("tcp", s.cfg.RequestAddr)
	if err != nil {
		return err
	}
	pushLn, err := net.Listen("tcp", s.cfg.PushAddr)
	if err != nil {
		requestLn.Close()
		return err
	}
	s.requestLn = requestLn
	s.pushLn = pushLn
	s.log.Info().
		Str("request", requestLn.Addr().String()).
		Str("push", pushLn.Addr().String()).
		Msg("listeners up")

	go func() {
		<-ctx.Done()
		requestLn.Close()
		pushLn.Close()
	}()
	go s.acceptLoop(ctx, requestLn, &s.requestAlive, s.handleRequest)
	go s.acceptLoop(ctx, pushLn, &s.pushAlive, s.handlePush)
	return nil
}

// RequestAddr returns the bound request-listener address.
func (s *Server) RequestAddr() string { return s.requestLn.Addr().String() }

// PushAddr returns the endpoint clients are told to open their push
// connection to.
func (s *Server) PushAddr() string {
	if s.cfg.PushAdvertise != "" {
		return s.cfg.PushAdvertise
	}
	return s.pushLn.Addr().String()
}

// Ping reports whether both accept loops are still running.
func (s *Server) Ping() bool {
	return s.requestAlive.Load() && s.pushAlive.Load()
}

func (s *Server) acceptLoop(ctx context.Context, ln net.Listener, alive *atomic.Bool, handler func(net.Conn)) {
	alive.Store(true)
	defer alive.Store(false)
	for {
		conn, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				return
			}
			s.log.Warn().Err(err).Msg("accept failed")
			continue
		}
		go handler(conn)
	}
}

// handleRequest serves one short-lived request connection: read a single
// message, validate, reply, optionally enqueue an action, close.
func (s *Server) handleRequest(conn net.Conn) {
	defer conn.Close()
	_ = conn.SetReadDeadline(time.Now().Add(s.cfg.ReadTimeout))

	msg, err := protocol.NewFrameReader(conn).ReadClient()
	if err != nil {
		if isProtocolError(err) {
			s.reply(conn, protocol.Error{Message: errInvalidMessage})
		}
		// Transport errors count as "no message": just close.
		return
	}

	switch m := msg.(type) {
	case protocol.Request:
		clientID := s.reg.AllocatePending(m.Name)
		s.log.Info().Int("client", clientID).Str("name", m.Name).Msg("setup issued")
		s.reply(conn, protocol.SetupConnection{ClientID: clientID, PushAddr: s.PushAddr()})

	case protocol.Disconnect:
		if !s.reg.Validate(m.ClientID, m.Name) {
			s.reply(conn, protocol.Error{Message: errUnknownClient})
			return
		}
		s.reply(conn, protocol.Accepted{})
		s.queue.Enqueue(game.RemoveParticipant{ClientID: m.ClientID})

	case protocol.TriviaAnswer:
		if !s.reg.Validate(m.ClientID, m.Name) {
			s.reply(conn, protocol.Error{Message: errUnknownClient})
			return
		}
		s.reply(conn, protocol.Accepted{})
		s.queue.Enqueue(game.SetAnswer{Answer: domain.Answer{
			RoundID:     m.RoundID,
			QuestionID:  m.QuestionID,
			ClientID:    m.ClientID,
			OptionIndex: m.AnswerIndex,
		}})

	case protocol.RoundDetailsRequest:
		if !s.reg.Validate(m.ClientID, m.Name) {
			s.reply(conn, protocol.Error{Message: errUnknownClient})
			return
		}
		s.reply(conn, protocol.Accepted{})
		s.queue.Enqueue(game.ProvideRoundDetails{ClientID: m.ClientID})

	default:
		// Connect belongs on the push listener.
		s.reply(conn, protocol.Error{Message: errUnexpectedMsg})
	}
}

// handlePush completes the handshake on a new push connection: the one and
// only read, a Connect that must match a pending entry.
func (s *Server) handlePush(conn net.Conn) {
	_ = conn.SetReadDeadline(time.Now().Add(s.cfg.ReadTimeout))

	msg, err := protocol.NewFrameReader(conn).ReadClient()
	if err != nil {
		if isProtocolError(err) {
			s.reply(conn, protocol.Error{Message: errInvalidMessage})
		}
		conn.Close()
		return
	}
	connect, ok := msg.(protocol.Connect)
	if !ok {
		s.reply(conn, protocol.Error{Message: errUnexpectedMsg})
		conn.Close()
		return
	}

	pc := newPushConn(conn, s.cfg.WriteTimeout)
	if err := s.reg.CompleteHandshake(connect.ClientID, connect.Name, pc); err != nil {
		s.log.Warn().Err(err).Int("client", connect.ClientID).Msg("handshake rejected")
		s.reply(conn, protocol.Error{Message: errRejectedConnect})
		conn.Close()
		return
	}

	// Clear the handshake deadline: this connection is write-only from here on.
	_ = conn.SetReadDeadline(time.Time{})
	if err := pc.Send(protocol.Accepted{}); err != nil {
		s.log.Warn().Err(err).Int("client", connect.ClientID).Msg("accept write failed")
		s.reg.Remove(connect.ClientID)
		return
	}
	s.log.Info().Int("client", connect.ClientID).Str("name", connect.Name).Msg("participant connected")
	s.queue.Enqueue(game.AddParticipant{ClientID: connect.ClientID})
}

func (s *Server) reply(conn net.Conn, msg protocol.ServerMessage) {
	_ = conn.SetWriteDeadline(time.Now().Add(s.cfg.WriteTimeout))
	if err := protocol.WriteServer(conn, msg); err != nil {
		s.log.Debug().Err(err).Msg("reply write failed")
	}
}

func isProtocolError(err error) bool {
	return errors.Is(err, protocol.ErrInvalidPayload) ||
		errors.Is(err, protocol.ErrUnknownTag) ||
		errors.Is(err, protocol.ErrInvalidFrame)
}
