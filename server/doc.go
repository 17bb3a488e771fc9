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

// Package server implements the dictserv TCP servers.
//
// A Server runs an accept loop and serves every accepted connection on its own
// goroutine with a Handler. Two handlers are provided:
//
//   - LookupHandler speaks the dictionary lookup protocol. It writes Prompt,
//     reads a single request of up to BufferSize bytes, and answers with the
//     matching dictionary value or NotFound. A request starting with "quit"
//     or the client closing the connection ends the session.
//   - EchoHandler writes every received byte back to the client.
//
// Responses are not newline terminated and requests are not framed beyond a
// single read, so a request must fit in one read.
package server
