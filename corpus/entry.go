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

package corpus

import (
	"errors"
	"fmt"
	"strings"
)

// ErrMalformedEntry indicates that a corpus line has no key/value separator.
var ErrMalformedEntry = errors.New("malformed entry")

// Separator separates an entry's key from its value.
const Separator = " "

// Entry is a corpus entry.
type Entry struct {
	// Key is the lookup term.
	Key string

	// Value is the remainder of the line after the first separator.
	Value string

	// Line is the full decoded line.
	Line string

	// LineNo is the 1-based line number of the entry in the corpus.
	LineNo int
}

// ParseLine splits a corpus line into an Entry.
func ParseLine(line string) (Entry, error) {
	key, value, found := strings.Cut(line, Separator)
	if !found {
		return Entry{}, fmt.Errorf("%w: %q", ErrMalformedEntry, line)
	}
	return Entry{
		Key:   key,
		Value: value,
		Line:  line,
	}, nil
}

// ValueOf returns the value part of a corpus line. The line is assumed to be
// well formed.
func ValueOf(line string) string {
	_, value, _ := strings.Cut(line, Separator)
	return value
}
