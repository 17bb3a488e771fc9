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
	"bufio"
	"fmt"
	"io"
	"strings"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// Options are options for scanning a corpus.
type Options struct {
	// Encoding is the character encoding of the corpus. Defaults to UTF-8.
	Encoding encoding.Encoding

	// CommentPrefix marks comment lines. Lines starting with it are skipped.
	// Comments are disabled when empty.
	CommentPrefix string

	// SkipMalformed skips lines without a key/value separator instead of
	// stopping the scan with ErrMalformedEntry.
	SkipMalformed bool

	// MaxLineSize is the maximum size of a single line in bytes.
	MaxLineSize int
}

// DefaultOptions is the default options for a Scanner.
var DefaultOptions = &Options{
	Encoding:    unicode.UTF8BOM,
	MaxLineSize: 1 << 20,
}

// Scanner scans a corpus from start to end.
type Scanner struct {
	r    io.ReadCloser
	s    *bufio.Scanner
	opts Options

	entry   Entry
	lineNo  int
	skipped int
	err     error
}

// NewScanner returns a new corpus scanner that decodes and scans r from start
// to end. The Scanner assumes ownership of the reader and should be closed
// with the Close method.
func NewScanner(r io.ReadCloser, options *Options) *Scanner {
	opts := *DefaultOptions
	if options != nil {
		opts.CommentPrefix = options.CommentPrefix
		opts.SkipMalformed = options.SkipMalformed
		if options.Encoding != nil {
			opts.Encoding = options.Encoding
		}
		if options.MaxLineSize > 0 {
			opts.MaxLineSize = options.MaxLineSize
		}
	}

	s := bufio.NewScanner(transform.NewReader(r, opts.Encoding.NewDecoder()))
	s.Buffer(make([]byte, 0, min(64*1024, opts.MaxLineSize)), opts.MaxLineSize)
	return &Scanner{
		r:    r,
		s:    s,
		opts: opts,
	}
}

// Scan advances the scanner to the next entry. It returns false when the scan
// stops, either by reaching the end of the corpus or an error.
func (s *Scanner) Scan() bool {
	if s.err != nil {
		return false
	}
	for s.s.Scan() {
		s.lineNo++
		line := s.s.Text()
		if strings.TrimSpace(line) == "" {
			continue
		}
		if s.opts.CommentPrefix != "" && strings.HasPrefix(line, s.opts.CommentPrefix) {
			continue
		}

		e, err := ParseLine(line)
		if err != nil {
			if s.opts.SkipMalformed {
				s.skipped++
				continue
			}
			s.err = fmt.Errorf("line %d: %w", s.lineNo, err)
			return false
		}
		e.LineNo = s.lineNo
		s.entry = e
		return true
	}
	return false
}

// Entry returns the most recent entry found by Scan.
func (s *Scanner) Entry() Entry {
	return s.entry
}

// Skipped returns the number of malformed lines skipped so far.
func (s *Scanner) Skipped() int {
	return s.skipped
}

// Err returns the first error encountered.
func (s *Scanner) Err() error {
	if s.err != nil {
		return s.err
	}
	if err := s.s.Err(); err != nil {
		return fmt.Errorf("reading corpus line %d: %w", s.lineNo+1, err)
	}
	return nil
}

// Close closes the underlying reader.
func (s *Scanner) Close() error {
	if err := s.r.Close(); err != nil {
		return fmt.Errorf("closing corpus: %w", err)
	}
	return nil
}
