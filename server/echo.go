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

	"github.com/ianlewis/go-dictserv/internal/logger"
)

// DefaultEchoBufferSize is the default read size of an EchoHandler.
const DefaultEchoBufferSize = 256

// EchoHandler writes back every byte it receives.
type EchoHandler struct {
	bufferSize int
}

// NewEchoHandler returns an EchoHandler reading up to bufferSize bytes at a
// time. A non-positive size means DefaultEchoBufferSize.
func NewEchoHandler(bufferSize int) *EchoHandler {
	if bufferSize <= 0 {
		bufferSize = DefaultEchoBufferSize
	}
	return &EchoHandler{bufferSize: bufferSize}
}

// ServeConn echoes data until the client disconnects.
func (h *EchoHandler) ServeConn(ctx context.Context, conn net.Conn) error {
	l := logger.FromContext(ctx)
	buf := make([]byte, h.bufferSize)

	for {
		n, err := conn.Read(buf)
		if n > 0 {
			l.Debug("received", "bytes", n, "data", string(buf[:n]))
			if _, werr := conn.Write(buf[:n]); werr != nil {
				return fmt.Errorf("writing echo: %w", werr)
			}
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return fmt.Errorf("reading: %w", err)
		}
		if n == 0 {
			return nil
		}
	}
}
