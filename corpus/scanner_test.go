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

package corpus_test

import (
	"bufio"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"golang.org/x/text/encoding/japanese"

	"github.com/ianlewis/go-dictserv/corpus"
	"github.com/ianlewis/go-dictserv/internal/testutil"
)

func scanAll(t *testing.T, s *corpus.Scanner) []corpus.Entry {
	t.Helper()

	var entries []corpus.Entry
	for s.Scan() {
		entries = append(entries, s.Entry())
	}
	return entries
}

// TestScanner tests Scanner.
func TestScanner(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		input    string
		options  *corpus.Options
		expected []corpus.Entry
		err      error
	}{
		{
			name:  "basic",
			input: "abc /value1/\nxyz /value2/\n",
			expected: []corpus.Entry{
				{Key: "abc", Value: "/value1/", Line: "abc /value1/", LineNo: 1},
				{Key: "xyz", Value: "/value2/", Line: "xyz /value2/", LineNo: 2},
			},
		},
		{
			name:  "value with spaces",
			input: "hoge fuga piyo\r\n",
			expected: []corpus.Entry{
				{Key: "hoge", Value: "fuga piyo", Line: "hoge fuga piyo", LineNo: 1},
			},
		},
		{
			name:  "empty key",
			input: " /empty/\n",
			expected: []corpus.Entry{
				{Key: "", Value: "/empty/", Line: " /empty/", LineNo: 1},
			},
		},
		{
			name:  "blank lines",
			input: "\n\nabc /1/\n\n",
			expected: []corpus.Entry{
				{Key: "abc", Value: "/1/", Line: "abc /1/", LineNo: 3},
			},
		},
		{
			name:  "comments",
			input: ";; okuri-ari entries.\nabc /1/\n",
			options: &corpus.Options{
				CommentPrefix: ";;",
			},
			expected: []corpus.Entry{
				{Key: "abc", Value: "/1/", Line: "abc /1/", LineNo: 2},
			},
		},
		{
			name:  "comments disabled",
			input: ";; okuri-ari entries.\n",
			expected: []corpus.Entry{
				{Key: ";;", Value: "okuri-ari entries.", Line: ";; okuri-ari entries.", LineNo: 1},
			},
		},
		{
			name:     "malformed",
			input:    "abc /1/\nmalformed\nxyz /2/\n",
			expected: []corpus.Entry{{Key: "abc", Value: "/1/", Line: "abc /1/", LineNo: 1}},
			err:      corpus.ErrMalformedEntry,
		},
		{
			name:  "skip malformed",
			input: "abc /1/\nmalformed\nxyz /2/\n",
			options: &corpus.Options{
				SkipMalformed: true,
			},
			expected: []corpus.Entry{
				{Key: "abc", Value: "/1/", Line: "abc /1/", LineNo: 1},
				{Key: "xyz", Value: "/2/", Line: "xyz /2/", LineNo: 3},
			},
		},
		{
			name:  "utf-8 bom",
			input: "\ufeffabc /1/\n",
			expected: []corpus.Entry{
				{Key: "abc", Value: "/1/", Line: "abc /1/", LineNo: 1},
			},
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			t.Parallel()

			s := corpus.NewScanner(io.NopCloser(strings.NewReader(test.input)), test.options)
			defer s.Close()

			got := scanAll(t, s)
			if diff := cmp.Diff(test.expected, got); diff != "" {
				t.Errorf("entries (-want, +got):\n%s", diff)
			}
			if err := s.Err(); !errors.Is(err, test.err) {
				t.Errorf("Err: want %v, got %v", test.err, err)
			}
		})
	}
}

// TestScanner_Skipped tests Scanner.Skipped.
func TestScanner_Skipped(t *testing.T) {
	t.Parallel()

	s := corpus.NewScanner(io.NopCloser(strings.NewReader("a\nb /1/\nc\n")), &corpus.Options{
		SkipMalformed: true,
	})
	defer s.Close()

	if got, want := len(scanAll(t, s)), 1; got != want {
		t.Errorf("entries: want %d, got %d", want, got)
	}
	if got, want := s.Skipped(), 2; got != want {
		t.Errorf("Skipped: want %d, got %d", want, got)
	}
}

// TestScanner_eucjp tests decoding an EUC-JP corpus.
func TestScanner_eucjp(t *testing.T) {
	t.Parallel()

	b := testutil.MakeCorpus(t, []string{
		"かんじ /漢字/幹事/",
		"にほん /日本/",
	}, japanese.EUCJP)

	enc, err := corpus.LookupEncoding(corpus.SKKEncoding)
	if err != nil {
		t.Fatalf("LookupEncoding: %v", err)
	}

	s := corpus.NewScanner(io.NopCloser(strings.NewReader(string(b))), &corpus.Options{
		Encoding: enc,
	})
	defer s.Close()

	expected := []corpus.Entry{
		{Key: "かんじ", Value: "/漢字/幹事/", Line: "かんじ /漢字/幹事/", LineNo: 1},
		{Key: "にほん", Value: "/日本/", Line: "にほん /日本/", LineNo: 2},
	}
	if diff := cmp.Diff(expected, scanAll(t, s)); diff != "" {
		t.Errorf("entries (-want, +got):\n%s", diff)
	}
	if err := s.Err(); err != nil {
		t.Errorf("Err: %v", err)
	}
}

// TestScanner_longLine tests that lines over MaxLineSize fail the scan.
func TestScanner_longLine(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		maxLineSize int
		lineSize    int
	}{
		{
			name:        "tiny limit",
			maxLineSize: 64,
			lineSize:    128,
		},
		{
			name:        "limit below initial buffer",
			maxLineSize: 1024,
			lineSize:    4000,
		},
		{
			name:        "limit above initial buffer",
			maxLineSize: 128 * 1024,
			lineSize:    256 * 1024,
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			t.Parallel()

			input := "key " + strings.Repeat("x", test.lineSize) + "\n"
			s := corpus.NewScanner(io.NopCloser(strings.NewReader(input)), &corpus.Options{
				MaxLineSize: test.maxLineSize,
			})
			defer s.Close()

			if s.Scan() {
				t.Fatalf("Scan: unexpected entry with key %q", s.Entry().Key)
			}
			if err := s.Err(); !errors.Is(err, bufio.ErrTooLong) {
				t.Errorf("Err: want %v, got %v", bufio.ErrTooLong, err)
			}
		})
	}
}

// TestScanner_lineAtLimit tests that lines up to MaxLineSize are scanned.
func TestScanner_lineAtLimit(t *testing.T) {
	t.Parallel()

	value := strings.Repeat("x", 1000)
	input := "key " + value + "\n"
	s := corpus.NewScanner(io.NopCloser(strings.NewReader(input)), &corpus.Options{
		MaxLineSize: 1024,
	})
	defer s.Close()

	if !s.Scan() {
		t.Fatalf("Scan: %v", s.Err())
	}
	if got := s.Entry().Value; got != value {
		t.Errorf("Value: want %d bytes, got %d bytes", len(value), len(got))
	}
}
