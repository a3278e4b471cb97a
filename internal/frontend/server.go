// Package frontend implements the connection front-end: the external
// collaborator spec.md 1 and 2 declare out of core scope. It accepts TCP
// clients, splits each connection's byte stream on line terminators,
// tokenizes each line on whitespace, and feeds the resulting tokens to
// internal/dispatch, writing the reply back through internal/proto. None of
// this carries engine semantics; it exists only so the engine has
// something to run against.
package frontend

import (
	"bufio"
	"bytes"
	"context"
	"net"

	"github.com/rsms/blinkdb/internal/dispatch"
	"github.com/rsms/blinkdb/internal/proto"
	"github.com/rsms/blinkdb/internal/store"
	log "github.com/rsms/go-log"
	"github.com/rsms/go-uuid"
)

// Server accepts client connections and dispatches their commands against
// a shared Keyspace.
type Server struct {
	Keyspace *store.Keyspace
	Logger   *log.Logger

	ln net.Listener
}

// ListenAndServe binds addr and serves connections until ctx is canceled or
// Accept fails. It blocks; callers typically run it in its own goroutine
// coordinated by an errgroup.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	s.ln = ln

	go func() {
		<-ctx.Done()
		ln.Close()
	}()

	if s.Logger != nil {
		s.Logger.Info("listening on %s", addr)
	}

	for {
		conn, err := ln.Accept()
		if err != nil {
			select {
			case <-ctx.Done():
				return nil
			default:
				return err
			}
		}
		go s.handleConn(conn)
	}
}

func (s *Server) handleConn(conn net.Conn) {
	connID := uuid.MustGen().String()
	defer conn.Close()
	if s.Logger != nil {
		s.Logger.Debug("[%s] accepted %s", connID, conn.RemoteAddr())
	}

	r := bufio.NewScanner(conn)
	r.Buffer(make([]byte, 4096), 1<<20)
	w := proto.NewWriter(bufio.NewWriter(conn))

	for r.Scan() {
		line := bytes.TrimRight(r.Bytes(), "\r")
		tokens := bytes.Fields(line)
		if len(tokens) == 0 {
			continue
		}
		if err := dispatch.Dispatch(s.Keyspace, w, tokens); err != nil {
			if s.Logger != nil {
				s.Logger.Warn("[%s] write failed: %v", connID, err)
			}
			return
		}
		if err := w.Flush(); err != nil {
			if s.Logger != nil {
				s.Logger.Warn("[%s] flush failed: %v", connID, err)
			}
			return
		}
	}
	if err := r.Err(); err != nil && s.Logger != nil {
		s.Logger.Debug("[%s] closed: %v", connID, err)
	}
}

// Close stops accepting new connections.
func (s *Server) Close() error {
	if s.ln == nil {
		return nil
	}
	return s.ln.Close()
}
