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

// Package client implements a client for the dictserv lookup protocol.
package client

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"strings"
	"time"

	"github.com/ianlewis/go-dictserv/server"
)

var (
	// ErrInvalidKey is returned for keys that cannot be sent as a single
	// request.
	ErrInvalidKey = errors.New("invalid key")

	// ErrClosed is returned when the server closed the connection.
	ErrClosed = errors.New("connection closed by server")
)

// Options are options for a Client.
type Options struct {
	// Timeout bounds each request and response. Zero means no timeout.
	Timeout time.Duration

	// MaxKeySize is the server's request buffer size. Keys longer than this
	// are rejected since the server would split them.
	MaxKeySize int
}

// DefaultOptions is the default options for a Client.
var DefaultOptions = Options{
	MaxKeySize: server.DefaultBufferSize,
}

// Client is a connection to a dictserv lookup server. A Client is not safe
// for concurrent use.
type Client struct {
	conn       net.Conn
	timeout    time.Duration
	maxKeySize int
	buf        bytes.Buffer
}

// Dial connects to the server at addr and waits for the first prompt.
func Dial(ctx context.Context, addr string, options *Options) (*Client, error) {
	if options == nil {
		options = &DefaultOptions
	}

	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("dialing %s: %w", addr, err)
	}

	c := &Client{
		conn:       conn,
		timeout:    options.Timeout,
		maxKeySize: options.MaxKeySize,
	}
	if c.maxKeySize <= 0 {
		c.maxKeySize = server.DefaultBufferSize
	}

	if err := c.setDeadline(); err != nil {
		_ = conn.Close()
		return nil, err
	}
	if _, err := c.readUntilPrompt(); err != nil {
		_ = conn.Close()
		return nil, err
	}
	return c, nil
}

// Lookup sends key and returns the server's response. found is false when
// the server answered server.NotFound.
func (c *Client) Lookup(key string) (value string, found bool, err error) {
	switch {
	case strings.ContainsAny(key, "\r\n"):
		return "", false, fmt.Errorf("%w: %q contains a line break", ErrInvalidKey, key)
	case strings.HasPrefix(key, server.QuitCommand):
		return "", false, fmt.Errorf("%w: %q starts with %q", ErrInvalidKey, key, server.QuitCommand)
	case len(key)+2 > c.maxKeySize:
		return "", false, fmt.Errorf("%w: %d bytes exceeds %d", ErrInvalidKey, len(key), c.maxKeySize-2)
	}

	if err := c.setDeadline(); err != nil {
		return "", false, err
	}
	if _, err := io.WriteString(c.conn, key+"\r\n"); err != nil {
		return "", false, fmt.Errorf("sending %q: %w", key, closedErr(err))
	}

	resp, err := c.readUntilPrompt()
	if err != nil {
		return "", false, err
	}
	if resp == server.NotFound {
		return "", false, nil
	}
	return resp, true, nil
}

// Quit ends the session and closes the connection.
func (c *Client) Quit() error {
	if err := c.setDeadline(); err != nil {
		_ = c.conn.Close()
		return err
	}
	_, err := io.WriteString(c.conn, server.QuitCommand+"\r\n")
	if err == nil {
		// Wait for the server to hang up.
		_, err = io.Copy(io.Discard, c.conn)
	}
	return errors.Join(err, c.Close())
}

// Close closes the connection without ending the session.
func (c *Client) Close() error {
	if err := c.conn.Close(); err != nil && !errors.Is(err, net.ErrClosed) {
		return fmt.Errorf("closing connection: %w", err)
	}
	return nil
}

func (c *Client) setDeadline() error {
	if c.timeout <= 0 {
		return nil
	}
	if err := c.conn.SetDeadline(time.Now().Add(c.timeout)); err != nil {
		return fmt.Errorf("setting deadline: %w", err)
	}
	return nil
}

// readUntilPrompt reads until the next prompt and returns what came before
// it.
func (c *Client) readUntilPrompt() (string, error) {
	c.buf.Reset()
	chunk := make([]byte, 1024)
	for !bytes.HasSuffix(c.buf.Bytes(), []byte(server.Prompt)) {
		n, err := c.conn.Read(chunk)
		c.buf.Write(chunk[:n])
		if err != nil {
			return "", fmt.Errorf("reading response: %w", closedErr(err))
		}
	}
	return strings.TrimSuffix(c.buf.String(), server.Prompt), nil
}

// closedErr marks disconnects with ErrClosed.
func closedErr(err error) error {
	if server.IsDisconnect(err) {
		return fmt.Errorf("%w: %w", ErrClosed, err)
	}
	return err
}
