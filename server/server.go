// Package server hosts file-transfer sessions: one TCP connection is one
// session, and connections are served one after another.
package server

import (
	"context"
	"fmt"
	"ftp-lab/domain"
	"ftp-lab/errors"
	"ftp-lab/protocol"
	"ftp-lab/services"
	"log/slog"
	"net"
	"time"

	"github.com/google/uuid"
)

// Authenticator checks credentials and returns the account's home.
type Authenticator interface {
	Login(username, password string) (services.Account, error)
}

type Config struct {
	FrameSize int
	// MaxAuthAttempts closes the connection after that many failed logins, 0 means unlimited.
	MaxAuthAttempts int
}

type Server struct {
	codec           protocol.Codec
	auth            Authenticator
	log             *slog.Logger
	maxAuthAttempts int
	now             func() time.Time
}

func NewServer(cfg Config, auth Authenticator, log *slog.Logger) *Server {
	return &Server{
		codec:           protocol.NewCodec(cfg.FrameSize),
		auth:            auth,
		log:             log,
		maxAuthAttempts: cfg.MaxAuthAttempts,
		now:             time.Now,
	}
}

// Serve accepts connections on ln until ctx is canceled or Accept fails.
// Sessions run sequentially on the calling goroutine.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	defer ln.Close()
	stop := context.AfterFunc(ctx, func() { _ = ln.Close() })
	defer stop()

	s.log.Info("Listening", "addr", ln.Addr().String(), "frame_size", s.codec.Size())
	for {
		conn, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return fmt.Errorf("accept: %w", err)
		}
		if err := s.ServeConn(ctx, conn); err != nil {
			s.log.Warn("Session ended with error", "remote", conn.RemoteAddr().String(), "error", err)
		}
	}
}

// ServeConn runs one session to completion and closes conn.
// A clean client disconnect returns nil.
func (s *Server) ServeConn(ctx context.Context, conn net.Conn) error {
	defer conn.Close()
	stop := context.AfterFunc(ctx, func() { _ = conn.Close() })
	defer stop()

	id := uuid.NewString()
	log := s.log.With("session_id", id, "remote", conn.RemoteAddr().String())
	log.Info("Client connected")

	sess := &session{
		state:           domain.NewSession(id),
		conn:            conn,
		codec:           s.codec,
		auth:            s.auth,
		log:             log,
		maxAuthAttempts: s.maxAuthAttempts,
		now:             s.now,
	}
	err := sess.serve()
	sess.state.Close()
	if err != nil && ctx.Err() != nil {
		log.Info("Session interrupted by shutdown")
		return nil
	}
	if err == nil {
		log.Info("Client disconnected")
	}
	return err
}

// ListenerWorker binds the listening socket and runs the accept loop under a supervisor.
// A restart binds again.
type ListenerWorker struct {
	server *Server
	addr   string
	log    *slog.Logger
	ln     net.Listener
}

func NewListenerWorker(server *Server, addr string, log *slog.Logger) *ListenerWorker {
	return &ListenerWorker{server: server, addr: addr, log: log}
}

// Bind opens the socket ahead of Run so an unusable address fails at startup.
func (w *ListenerWorker) Bind(ctx context.Context) error {
	var lc net.ListenConfig
	ln, err := lc.Listen(ctx, "tcp", w.addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", w.addr, err)
	}
	w.ln = ln
	return nil
}

// Addr is the bound address, nil before Bind.
func (w *ListenerWorker) Addr() net.Addr {
	if w.ln == nil {
		return nil
	}
	return w.ln.Addr()
}

func (w *ListenerWorker) Run(ctx context.Context) error {
	if w.ln == nil {
		if err := w.Bind(ctx); err != nil {
			return err
		}
	}
	ln := w.ln
	w.ln = nil
	err := w.server.Serve(ctx, ln)
	if errors.Is(err, context.Canceled) {
		w.log.Info("Listener stopped", "addr", w.addr)
	}
	return err
}
