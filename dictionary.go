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

package dictserv

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/k3a/html2text"
	"golang.org/x/text/encoding"
	"golang.org/x/text/transform"

	"github.com/ianlewis/go-dictserv/corpus"
	"github.com/ianlewis/go-dictserv/internal/index"
)

// ErrEmpty indicates that a corpus holds no entries.
var ErrEmpty = errors.New("corpus contains no entries")

// LoadError is returned when a dictionary cannot be loaded.
type LoadError struct {
	// Path is the corpus path. It is empty for corpora read with New.
	Path string

	Err error
}

func (e *LoadError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("loading dictionary: %v", e.Err)
	}
	return fmt.Sprintf("loading dictionary %q: %v", e.Path, e.Err)
}

func (e *LoadError) Unwrap() error {
	return e.Err
}

// Options are options for loading a Dictionary.
type Options struct {
	// Encoding is the character encoding of the corpus. Defaults to UTF-8.
	Encoding encoding.Encoding

	// CommentPrefix marks corpus comment lines, e.g. ";;" for SKK
	// dictionaries. Comments are disabled when empty.
	CommentPrefix string

	// SkipMalformed skips corpus lines without a key/value separator. When
	// false such lines fail the load with corpus.ErrMalformedEntry.
	SkipMalformed bool

	// Folder returns a [transform.Transformer] that performs folding (e.g.
	// case folding, width folding, etc.) on keys and queries.
	Folder func() transform.Transformer

	// RenderHTML renders values as plain text on lookup.
	RenderHTML bool
}

// DefaultOptions is the default options for a Dictionary.
var DefaultOptions = &Options{
	Folder: func() transform.Transformer {
		return transform.Nop
	},
}

// Dictionary is a sorted, read-only dictionary.
type Dictionary struct {
	// index maps folded keys to raw corpus lines.
	index *index.Index[string]

	folder     func() transform.Transformer
	renderHTML bool
	skipped    int
}

// Open loads the dictionary corpus at path. Corpora ending in .gz or .dz are
// decompressed. Errors are returned as a *LoadError.
func Open(path string, options *Options) (*Dictionary, error) {
	r, err := corpus.Open(path)
	if err != nil {
		return nil, &LoadError{Path: path, Err: err}
	}

	d, err := load(r, options)
	if err != nil {
		return nil, &LoadError{Path: path, Err: err}
	}
	return d, nil
}

// New loads a dictionary by reading the corpus from r. Errors are returned as
// a *LoadError.
func New(r io.Reader, options *Options) (*Dictionary, error) {
	d, err := load(io.NopCloser(r), options)
	if err != nil {
		return nil, &LoadError{Err: err}
	}
	return d, nil
}

func load(r io.ReadCloser, options *Options) (*Dictionary, error) {
	if options == nil {
		options = DefaultOptions
	}

	d := &Dictionary{
		folder:     DefaultOptions.Folder,
		renderHTML: options.RenderHTML,
	}
	if options.Folder != nil {
		d.folder = options.Folder
	}

	s := corpus.NewScanner(r, &corpus.Options{
		Encoding:      options.Encoding,
		CommentPrefix: options.CommentPrefix,
		SkipMalformed: options.SkipMalformed,
	})
	defer s.Close()

	var keys, lines []string
	for s.Scan() {
		e := s.Entry()
		key, err := d.fold(e.Key)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", e.LineNo, err)
		}
		keys = append(keys, key)
		lines = append(lines, e.Line)
	}
	if err := s.Err(); err != nil {
		return nil, fmt.Errorf("scanning corpus: %w", err)
	}
	if len(keys) == 0 {
		return nil, ErrEmpty
	}

	d.index = index.NewIndex(keys, lines, strings.Compare)
	d.skipped = s.Skipped()
	return d, nil
}

// Len returns the number of entries in the dictionary.
func (d *Dictionary) Len() int {
	return d.index.Len()
}

// Skipped returns the number of malformed corpus lines skipped while loading.
func (d *Dictionary) Skipped() int {
	return d.skipped
}

// Lookup performs an exact-match search for key and returns its value. When
// the corpus holds the key more than once the value from the first line in
// corpus order is returned.
func (d *Dictionary) Lookup(key string) (string, bool) {
	folded, err := d.fold(key)
	if err != nil {
		return "", false
	}

	i, found := d.index.Find(folded)
	if !found {
		return "", false
	}
	return d.value(d.index.Value(i)), true
}

// LookupAll returns the values of every entry for key in corpus order.
func (d *Dictionary) LookupAll(key string) []string {
	folded, err := d.fold(key)
	if err != nil {
		return nil
	}

	var values []string
	for _, line := range d.index.Search(folded) {
		values = append(values, d.value(line))
	}
	return values
}

func (d *Dictionary) value(line string) string {
	v := corpus.ValueOf(line)
	if d.renderHTML {
		v = html2text.HTML2Text(v)
	}
	return v
}

func (d *Dictionary) fold(s string) (string, error) {
	folded, _, err := transform.String(d.folder(), s)
	if err != nil {
		return "", fmt.Errorf("folding %q: %w", s, err)
	}
	return folded, nil
}
