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
	"io"
	"strings"
	"testing"

	"github.com/ianlewis/go-dictserv/server"
)

func TestEchoHandler(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		bufferSize int
		data       string
	}{
		{
			name: "line",
			data: "hello\r\n",
		},
		{
			name:       "longer than buffer",
			bufferSize: 4,
			data:       "hello world",
		},
		{
			name: "utf-8",
			data: "こんにちは",
		},
		{
			name: "binary",
			data: "\x00\xff\x01",
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			t.Parallel()

			client, done := servePipe(t, server.NewEchoHandler(test.bufferSize))
			go func() {
				_, _ = io.WriteString(client, test.data)
			}()
			expectRead(t, client, test.data)

			if err := client.Close(); err != nil {
				t.Fatalf("Close: %v", err)
			}
			if err := <-done; err != nil {
				t.Fatalf("ServeConn: %v", err)
			}
		})
	}
}

func TestServer_echo(t *testing.T) {
	t.Parallel()

	addr, _ := startServer(t, server.NewEchoHandler(0), &server.Options{Name: "echo"})
	conn := dial(t, addr)

	for _, line := range []string{"first\r\n", "second\r\n", strings.Repeat("x", 1000)} {
		send(t, conn, line)
		expectRead(t, conn, line)
	}
}
