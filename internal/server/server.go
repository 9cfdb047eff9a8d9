// Package server implements the TCP accept loop: one framed ServerMessage
// request decoded, handed to the runtime, and one framed ClientMessage
// response written back, then the connection closes.
package server

import (
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/jjantschulev/zenchain/internal/codec"
	"github.com/jjantschulev/zenchain/internal/wireproto"
)

// DefaultConnTimeout bounds how long a single connection may stay open,
// covering its read, handling and write together under one deadline,
// within the specification's 5-30s recommendation.
const DefaultConnTimeout = 15 * time.Second

// Handler processes one decoded ServerMessage and returns the ClientMessage
// to send back. *node.Runtime satisfies this.
type Handler interface {
	Handle(msg wireproto.ServerMessage) wireproto.ClientMessage
}

// Server accepts connections on a listener and dispatches each to Handler.
type Server struct {
	listener net.Listener
	handler  Handler
	log      *zap.SugaredLogger
	timeout  time.Duration
}

// New wraps listener, dispatching decoded requests to handler.
func New(listener net.Listener, handler Handler, log *zap.SugaredLogger) *Server {
	return &Server{
		listener: listener,
		handler:  handler,
		log:      log,
		timeout:  DefaultConnTimeout,
	}
}

// SetTimeout overrides DefaultConnTimeout.
func (s *Server) SetTimeout(d time.Duration) {
	s.timeout = d
}

// Addr returns the listener's bound address.
func (s *Server) Addr() net.Addr {
	return s.listener.Addr()
}

// Serve accepts connections until the listener is closed, spawning one
// goroutine per connection. It returns nil once the listener closes
// cleanly (the shutdown signal described by the concurrency model).
func (s *Server) Serve() error {
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				return nil
			}
			return fmt.Errorf("server: accept: %w", err)
		}
		go s.handleConn(conn)
	}
}

// handleConn is isolated from the rest of the server: a panic here must
// never take the accept loop down with it.
func (s *Server) handleConn(conn net.Conn) {
	traceID := uuid.New().String()
	defer func() {
		if r := recover(); r != nil {
			s.log.Errorw("server: connection handler panicked", "traceid", traceID, "panic", r)
		}
		conn.Close()
	}()

	deadline := time.Now().Add(s.timeout)
	if err := conn.SetDeadline(deadline); err != nil {
		s.log.Errorw("server: set deadline", "traceid", traceID, "err", err)
		return
	}

	payload, err := wireproto.ReadFrame(conn)
	if err != nil {
		s.log.Infow("server: dropping connection with malformed frame", "traceid", traceID, "remote", conn.RemoteAddr(), "err", err)
		return
	}

	msg, err := wireproto.DecodeServerMessage(codec.NewDecoder(payload))
	if err != nil {
		s.log.Infow("server: dropping connection with undecodable message", "traceid", traceID, "remote", conn.RemoteAddr(), "err", err)
		return
	}

	s.log.Infow("server: handling request", "traceid", traceID, "remote", conn.RemoteAddr(), "type", fmt.Sprintf("%T", msg))

	resp := s.handler.Handle(msg)

	e := codec.NewEncoder()
	wireproto.EncodeClientMessage(e, resp)
	if err := wireproto.WriteFrame(conn, e.Bytes()); err != nil {
		s.log.Infow("server: failed writing response", "traceid", traceID, "remote", conn.RemoteAddr(), "err", err)
	}
}
