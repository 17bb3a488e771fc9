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

package server_test

import (
	"errors"
	"fmt"
	"io"
	"net"
	"strings"
	"syscall"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"golang.org/x/sync/errgroup"

	"github.com/ianlewis/go-dictserv"
	"github.com/ianlewis/go-dictserv/internal/logger"
	"github.com/ianlewis/go-dictserv/server"
)

var corpusLines = []string{
	"xyz /value2/",
	"abc /value1/",
	"かんじ /漢字/幹事/",
	"abc /duplicate/",
}

func newDictionary(t *testing.T) *dictserv.Dictionary {
	t.Helper()

	d, err := dictserv.New(strings.NewReader(strings.Join(corpusLines, "\n")), nil)
	if err != nil {
		t.Fatalf("dictserv.New: %v", err)
	}
	return d
}

// startServer serves h on a loopback port and returns its address. The
// server is closed when the test ends.
func startServer(t *testing.T, h server.Handler, opts *server.Options) (string, *server.Server) {
	t.Helper()

	ln, err := server.Listen("127.0.0.1:0")
	if err != nil {
		t.Fatalf("Listen: %v", err)
	}

	if opts == nil {
		opts = &server.Options{}
	}
	opts.Logger = logger.Discard()
	srv := server.New(h, opts)

	done := make(chan error, 1)
	go func() {
		done <- srv.Serve(ln)
	}()
	t.Cleanup(func() {
		if err := srv.Close(); err != nil {
			t.Errorf("Close: %v", err)
		}
		if err := <-done; !errors.Is(err, server.ErrServerClosed) {
			t.Errorf("Serve: want %v, got %v", server.ErrServerClosed, err)
		}
	})
	return ln.Addr().String(), srv
}

func dial(t *testing.T, addr string) net.Conn {
	t.Helper()

	conn, err := net.DialTimeout("tcp", addr, 5*time.Second)
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	if err := conn.SetDeadline(time.Now().Add(10 * time.Second)); err != nil {
		t.Fatalf("SetDeadline: %v", err)
	}
	t.Cleanup(func() {
		_ = conn.Close()
	})
	return conn
}

// waitFor polls cond until it is true or a few seconds have passed.
func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()

	deadline := time.Now().Add(5 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %s", what)
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestServer_lookup(t *testing.T) {
	t.Parallel()

	addr, _ := startServer(t, server.NewLookupHandler(newDictionary(t), nil), nil)
	conn := dial(t, addr)

	expectRead(t, conn, server.Prompt)
	send(t, conn, "abc\r\n")
	expectRead(t, conn, "/value1/")

	expectRead(t, conn, server.Prompt)
	send(t, conn, "xyz\r\n")
	expectRead(t, conn, "/value2/")

	expectRead(t, conn, server.Prompt)
	send(t, conn, "zzz\r\n")
	expectRead(t, conn, server.NotFound)

	expectRead(t, conn, server.Prompt)
	send(t, conn, "quit\r\n")
	expectClosed(t, conn)
}

func TestServer_concurrentClients(t *testing.T) {
	t.Parallel()

	addr, _ := startServer(t, server.NewLookupHandler(newDictionary(t), nil), nil)

	queries := []struct {
		key   string
		value string
	}{
		{key: "abc", value: "/value1/"},
		{key: "xyz", value: "/value2/"},
		{key: "かんじ", value: "/漢字/幹事/"},
		{key: "missing", value: server.NotFound},
	}

	var g errgroup.Group
	for c := range 8 {
		conn := dial(t, addr)
		g.Go(func() error {
			buf := make([]byte, 1024)
			readExact := func(want string) error {
				if _, err := io.ReadFull(conn, buf[:len(want)]); err != nil {
					return err
				}
				if got := string(buf[:len(want)]); got != want {
					return fmt.Errorf("client %d: want %q, got %q", c, want, got)
				}
				return nil
			}

			for i := range 50 {
				q := queries[(c+i)%len(queries)]
				if err := readExact(server.Prompt); err != nil {
					return err
				}
				if _, err := io.WriteString(conn, q.key+"\r\n"); err != nil {
					return err
				}
				if err := readExact(q.value); err != nil {
					return err
				}
			}
			if err := readExact(server.Prompt); err != nil {
				return err
			}
			_, err := io.WriteString(conn, "quit\r\n")
			return err
		})
	}
	if err := g.Wait(); err != nil {
		t.Fatal(err)
	}
}

func TestServer_sessionMetrics(t *testing.T) {
	t.Parallel()

	m := server.NewMetrics(prometheus.NewRegistry())
	addr, srv := startServer(t, server.NewLookupHandler(newDictionary(t), nil), &server.Options{
		Metrics: m,
	})

	conn := dial(t, addr)
	expectRead(t, conn, server.Prompt)
	if got, want := testutil.ToFloat64(m.SessionsActive.WithLabelValues("lookup")), 1.0; got != want {
		t.Errorf("active sessions: want %v, got %v", want, got)
	}
	if got, want := srv.ActiveSessions(), 1; got != want {
		t.Errorf("ActiveSessions: want %d, got %d", want, got)
	}

	send(t, conn, "quit")
	expectClosed(t, conn)

	waitFor(t, "session end", func() bool {
		return testutil.ToFloat64(m.SessionsActive.WithLabelValues("lookup")) == 0
	})
	if got, want := testutil.ToFloat64(m.SessionsTotal.WithLabelValues("lookup")), 1.0; got != want {
		t.Errorf("sessions: want %v, got %v", want, got)
	}
	if got, want := testutil.ToFloat64(m.SessionErrorsTotal.WithLabelValues("lookup")), 0.0; got != want {
		t.Errorf("session errors: want %v, got %v", want, got)
	}
}

func TestServer_readTimeout(t *testing.T) {
	t.Parallel()

	m := server.NewMetrics(prometheus.NewRegistry())
	addr, _ := startServer(t, server.NewLookupHandler(newDictionary(t), nil), &server.Options{
		ReadTimeout: 50 * time.Millisecond,
		Metrics:     m,
	})

	conn := dial(t, addr)
	expectRead(t, conn, server.Prompt)
	expectClosed(t, conn)

	waitFor(t, "session error", func() bool {
		return testutil.ToFloat64(m.SessionErrorsTotal.WithLabelValues("lookup")) == 1
	})
}

func TestServer_Close(t *testing.T) {
	t.Parallel()

	addr, srv := startServer(t, server.NewLookupHandler(newDictionary(t), nil), nil)
	conn := dial(t, addr)
	expectRead(t, conn, server.Prompt)

	if err := srv.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	// The live session is closed by the server.
	if _, err := io.ReadAll(conn); err != nil && !server.IsDisconnect(err) {
		t.Fatalf("reading after Close: %v", err)
	}
	if got, want := srv.ActiveSessions(), 0; got != want {
		t.Errorf("ActiveSessions: want %d, got %d", want, got)
	}

	// New connections are refused.
	if c, err := net.DialTimeout("tcp", addr, time.Second); err == nil {
		_ = c.Close()
		t.Errorf("Dial after Close: expected error")
	}
}

func TestServer_ServeAfterClose(t *testing.T) {
	t.Parallel()

	srv := server.New(server.NewEchoHandler(0), &server.Options{Logger: logger.Discard()})
	if err := srv.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	ln, err := server.Listen("127.0.0.1:0")
	if err != nil {
		t.Fatalf("Listen: %v", err)
	}
	if err := srv.Serve(ln); !errors.Is(err, server.ErrServerClosed) {
		t.Fatalf("Serve: want %v, got %v", server.ErrServerClosed, err)
	}
}

func TestListen_bindError(t *testing.T) {
	t.Parallel()

	ln, err := server.Listen("127.0.0.1:0")
	if err != nil {
		t.Fatalf("Listen: %v", err)
	}
	defer ln.Close()

	addr := ln.Addr().String()
	_, err = server.Listen(addr)

	var bindErr *server.BindError
	if !errors.As(err, &bindErr) {
		t.Fatalf("Listen(%q): want *BindError, got %v", addr, err)
	}
	if got, want := bindErr.Addr, addr; got != want {
		t.Errorf("BindError.Addr: want %q, got %q", want, got)
	}
	if !errors.Is(err, syscall.EADDRINUSE) {
		t.Errorf("Listen(%q): want %v, got %v", addr, syscall.EADDRINUSE, err)
	}
}

func TestIsDisconnect(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want bool
	}{
		{name: "eof", err: io.EOF, want: true},
		{name: "wrapped eof", err: fmt.Errorf("reading request: %w", io.EOF), want: true},
		{name: "closed", err: net.ErrClosed, want: true},
		{name: "reset", err: &net.OpError{Op: "read", Err: syscall.ECONNRESET}, want: true},
		{name: "broken pipe", err: fmt.Errorf("writing response: %w", syscall.EPIPE), want: true},
		{name: "timeout", err: &net.OpError{Op: "read", Err: errTimeout}, want: false},
		{name: "other", err: errors.New("boom"), want: false},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			t.Parallel()

			if got := server.IsDisconnect(test.err); got != test.want {
				t.Errorf("IsDisconnect(%v): want %v, got %v", test.err, test.want, got)
			}
		})
	}
}

var errTimeout = errors.New("i/o timeout")
