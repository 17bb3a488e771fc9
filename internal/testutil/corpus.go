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

package testutil

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ianlewis/go-dictzip"
	"github.com/klauspost/compress/gzip"
	"golang.org/x/text/encoding"
)

// CorpusOptions are options for writing a test corpus.
type CorpusOptions struct {
	// Ext is the corpus file extension. Files ending in .gz are gzip
	// compressed and files ending in .dz are dictzip compressed. Defaults to
	// '.txt'.
	Ext string

	// Encoding encodes the corpus text. The corpus is written as UTF-8 when
	// nil.
	Encoding encoding.Encoding
}

// GetExt returns the file extension.
func (o *CorpusOptions) GetExt() string {
	if o != nil && o.Ext != "" {
		return o.Ext
	}
	return ".txt"
}

// MakeCorpus joins lines into corpus file contents, encoded with enc.
func MakeCorpus(t *testing.T, lines []string, enc encoding.Encoding) []byte {
	t.Helper()

	text := strings.Join(lines, "\n") + "\n"
	if enc == nil {
		return []byte(text)
	}

	b, err := enc.NewEncoder().Bytes([]byte(text))
	if err != nil {
		t.Fatalf("encoding corpus: %v", err)
	}
	return b
}

// WriteCorpus writes a temporary corpus file and returns its path. The file is
// removed when the test ends.
func WriteCorpus(t *testing.T, lines []string, opts *CorpusOptions) string {
	t.Helper()

	var enc encoding.Encoding
	if opts != nil {
		enc = opts.Encoding
	}
	ext := opts.GetExt()

	path := filepath.Join(t.TempDir(), "SKK-JISYO"+ext)
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	b := MakeCorpus(t, lines, enc)
	switch strings.ToLower(filepath.Ext(ext)) {
	case ".gz":
		z := gzip.NewWriter(f)
		if _, err := z.Write(b); err != nil {
			t.Fatal(err)
		}
		if err := z.Close(); err != nil {
			t.Fatal(err)
		}
	case ".dz":
		z, err := dictzip.NewWriter(f)
		if err != nil {
			t.Fatal(err)
		}
		if _, err := z.Write(b); err != nil {
			t.Fatal(err)
		}
		if err := z.Close(); err != nil {
			t.Fatal(err)
		}
	default:
		if _, err := f.Write(b); err != nil {
			t.Fatal(err)
		}
	}

	return path
}
