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
	"io"
	"net"
	"strings"
	"time"

	"github.com/ianlewis/go-dictserv/internal/logger"
)

const (
	// Prompt is written to the client before every request.
	Prompt = "Send next data: [enter 'quit' to terminate] "

	// NotFound is the response for keys missing from the dictionary.
	NotFound = "Not found..."

	// QuitCommand ends the session when a request starts with it.
	QuitCommand = "quit"

	// DefaultBufferSize is the maximum size of a single request.
	DefaultBufferSize = 1024
)

// Lookuper looks up the value for a key.
type Lookuper interface {
	Lookup(key string) (string, bool)
}

// LookupOptions are options for a LookupHandler.
type LookupOptions struct {
	// BufferSize is the maximum number of bytes read per request. Longer
	// requests are split across reads and each part is looked up separately.
	BufferSize int

	// Metrics are optional.
	Metrics *Metrics
}

// DefaultLookupOptions is the default options for a LookupHandler.
var DefaultLookupOptions = LookupOptions{
	BufferSize: DefaultBufferSize,
}

// LookupHandler serves dictionary lookup sessions.
type LookupHandler struct {
	dict       Lookuper
	bufferSize int
	metrics    *Metrics
}

// NewLookupHandler returns a handler answering requests from dict.
func NewLookupHandler(dict Lookuper, options *LookupOptions) *LookupHandler {
	if options == nil {
		options = &DefaultLookupOptions
	}

	h := &LookupHandler{
		dict:       dict,
		bufferSize: options.BufferSize,
		metrics:    options.Metrics,
	}
	if h.bufferSize <= 0 {
		h.bufferSize = DefaultBufferSize
	}
	return h
}

// ServeConn runs the prompt, read, respond loop until the client quits or
// disconnects.
func (h *LookupHandler) ServeConn(ctx context.Context, conn net.Conn) error {
	l := logger.FromContext(ctx)
	buf := make([]byte, h.bufferSize)

	for {
		if _, err := io.WriteString(conn, Prompt); err != nil {
			return fmt.Errorf("writing prompt: %w", err)
		}

		n, err := conn.Read(buf)
		if n == 0 {
			if err == nil || errors.Is(err, io.EOF) {
				return nil
			}
			return fmt.Errorf("reading request: %w", err)
		}
		// Data read alongside an error is still answered. The error
		// surfaces on the next read.

		req := strings.ToValidUTF8(string(buf[:n]), "\uFFFD")
		if strings.HasPrefix(req, QuitCommand) {
			l.Debug("quit requested")
			return nil
		}

		key := strings.TrimRight(req, "\r\n")
		start := time.Now()
		resp, found := h.dict.Lookup(key)
		h.metrics.lookupDone(found, time.Since(start))
		l.Debug("lookup", "key", key, "found", found)
		if !found {
			resp = NotFound
		}

		if _, err := io.WriteString(conn, resp); err != nil {
			return fmt.Errorf("writing response: %w", err)
		}
	}
}
