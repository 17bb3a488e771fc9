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

// Package dictserv implements an in-memory dictionary over a sorted corpus of
// key/value lines, and is the core of the dictserv lookup server.
//
// A corpus (see package corpus) is loaded once into two aligned sorted arrays:
//  1. The keys, sorted ordinally.
//  2. The original corpus lines, reordered to match the keys.
//
// Lookups are exact-match binary searches over the keys. A Dictionary is
// immutable once loaded and is safe for concurrent use without locking.
//
// The lookup protocol served over TCP is implemented in package server.
package dictserv
