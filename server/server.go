// Copyright 2025 Ian Lewis
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ianlewis/go-dictserv/internal/logger"
)

// ErrServerClosed is returned by Serve after Close is called.
var ErrServerClosed = errors.New("server closed")

// BindError is returned when the server cannot listen on its address.
type BindError struct {
	Addr string
	Err  error
}

func (e *BindError) Error() string {
	return fmt.Sprintf("listening on %s: %v", e.Addr, e.Err)
}

func (e *BindError) Unwrap() error {
	return e.Err
}

// Handler serves a single client connection. ServeConn returns when the
// session ends. The Server closes conn afterwards.
type Handler interface {
	ServeConn(ctx context.Context, conn net.Conn) error
}

// HandlerFunc adapts a function to a Handler.
type HandlerFunc func(ctx context.Context, conn net.Conn) error

// ServeConn calls f(ctx, conn).
func (f HandlerFunc) ServeConn(ctx context.Context, conn net.Conn) error {
	return f(ctx, conn)
}

// Options are options for a Server.
type Options struct {
	// Name labels the server's log records and metrics. Defaults to "lookup".
	Name string

	// ReadTimeout bounds every read from a client. Zero means reads never
	// time out.
	ReadTimeout time.Duration

	// Logger defaults to slog.Default().
	Logger *slog.Logger

	// Metrics are optional.
	Metrics *Metrics
}

// Server is a goroutine-per-connection TCP server.
type Server struct {
	handler     Handler
	name        string
	readTimeout time.Duration
	logger      *slog.Logger
	metrics     *Metrics

	ctx    context.Context
	cancel context.CancelFunc

	mu        sync.Mutex
	closed    bool
	listeners map[net.Listener]struct{}
	conns     map[net.Conn]struct{}
	wg        sync.WaitGroup

	lastID atomic.Uint64
}

// New returns a new Server serving connections with h.
func New(h Handler, options *Options) *Server {
	if options == nil {
		options = &Options{}
	}

	s := &Server{
		handler:     h,
		name:        options.Name,
		readTimeout: options.ReadTimeout,
		logger:      options.Logger,
		metrics:     options.Metrics,
		listeners:   map[net.Listener]struct{}{},
		conns:       map[net.Conn]struct{}{},
	}
	if s.name == "" {
		s.name = "lookup"
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	s.logger = s.logger.With("server", s.name)
	s.ctx, s.cancel = context.WithCancel(context.Background())
	return s
}

// Listen listens for TCP connections on addr. Errors are returned as a
// *BindError.
func Listen(addr string) (net.Listener, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, &BindError{Addr: addr, Err: err}
	}
	return ln, nil
}

// ListenAndServe listens on addr and calls Serve.
func (s *Server) ListenAndServe(addr string) error {
	ln, err := Listen(addr)
	if err != nil {
		return err
	}
	return s.Serve(ln)
}

// Serve accepts connections on ln until Close is called, serving each on a
// new goroutine. Serve always returns a non-nil error and closes ln. After
// Close, the error is ErrServerClosed.
func (s *Server) Serve(ln net.Listener) error {
	if !s.trackListener(ln, true) {
		_ = ln.Close()
		return ErrServerClosed
	}
	defer s.trackListener(ln, false)
	defer ln.Close()

	s.logger.Info("server started", "addr", ln.Addr().String())

	var delay time.Duration
	for {
		conn, err := ln.Accept()
		if err != nil {
			if s.shuttingDown() {
				return ErrServerClosed
			}
			if errors.Is(err, net.ErrClosed) {
				return fmt.Errorf("accepting connection: %w", err)
			}

			// Back off on errors such as running out of file descriptors.
			if delay == 0 {
				delay = 5 * time.Millisecond
			} else {
				delay = min(2*delay, time.Second)
			}
			s.logger.Error("accept failed", "error", err, "retry", delay)
			time.Sleep(delay)
			continue
		}
		delay = 0

		if !s.trackConn(conn, true) {
			_ = conn.Close()
			return ErrServerClosed
		}
		go s.serveConn(s.lastID.Add(1), conn)
	}
}

func (s *Server) serveConn(id uint64, conn net.Conn) {
	defer s.wg.Done()
	defer s.trackConn(conn, false)

	l := s.logger.With("session", id, "remote", conn.RemoteAddr().String())
	l.Info("client connected")
	s.metrics.sessionStarted(s.name)
	start := time.Now()

	c := conn
	if s.readTimeout > 0 {
		c = &deadlineConn{Conn: conn, timeout: s.readTimeout}
	}

	err := s.handler.ServeConn(logger.WithContext(s.ctx, l), c)
	if closeErr := conn.Close(); err == nil && !errors.Is(closeErr, net.ErrClosed) {
		err = closeErr
	}

	if err != nil && !IsDisconnect(err) {
		l.Error("session failed", "error", err)
		s.metrics.sessionFailed(s.name)
	}
	l.Info("client disconnected", "duration", time.Since(start))
	s.metrics.sessionEnded(s.name)
}

// Close stops the server. Listeners are closed, so Serve returns
// ErrServerClosed, and active connections are closed. Close waits for the
// active sessions to end.
func (s *Server) Close() error {
	s.mu.Lock()
	s.closed = true
	s.cancel()

	var errs []error
	for ln := range s.listeners {
		if err := ln.Close(); err != nil && !errors.Is(err, net.ErrClosed) {
			errs = append(errs, err)
		}
	}
	for conn := range s.conns {
		_ = conn.Close()
	}
	s.mu.Unlock()

	s.wg.Wait()
	return errors.Join(errs...)
}

// ActiveSessions returns the number of connections being served.
func (s *Server) ActiveSessions() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.conns)
}

func (s *Server) shuttingDown() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

func (s *Server) trackListener(ln net.Listener, add bool) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if add {
		if s.closed {
			return false
		}
		s.listeners[ln] = struct{}{}
	} else {
		delete(s.listeners, ln)
	}
	return true
}

// trackConn adds or removes conn from the active set. Adding fails after
// Close.
func (s *Server) trackConn(conn net.Conn, add bool) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if add {
		if s.closed {
			return false
		}
		s.conns[conn] = struct{}{}
		s.wg.Add(1)
	} else {
		delete(s.conns, conn)
	}
	return true
}
