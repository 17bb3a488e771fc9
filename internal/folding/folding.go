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

// Package folding provides text folders used to normalize dictionary keys and
// queries before they are compared.
package folding

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/transform"
	"golang.org/x/text/width"
)

// ErrUnknownFolder indicates that a folder name is not recognized.
var ErrUnknownFolder = errors.New("unknown folder")

// Folder returns a fresh transformer. Transformers are stateful so a new one
// is needed for every string.
type Folder func() transform.Transformer

var folders = map[string]Folder{
	"none": func() transform.Transformer {
		return transform.Nop
	},
	"space": func() transform.Transformer {
		return &SpaceFolder{}
	},
	"width": func() transform.Transformer {
		return width.Fold
	},
	"case": func() transform.Transformer {
		return cases.Fold()
	},
}

// Names returns the names of the known folders.
func Names() []string {
	var names []string
	for name := range folders {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Named returns a Folder that chains the comma separated folders in names, in
// order. An empty list is the same as "none".
func Named(names string) (Folder, error) {
	var chain []Folder
	for _, name := range strings.Split(names, ",") {
		name = strings.TrimSpace(name)
		if name == "" || name == "none" {
			continue
		}
		f, ok := folders[name]
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrUnknownFolder, name)
		}
		chain = append(chain, f)
	}

	switch len(chain) {
	case 0:
		return folders["none"], nil
	case 1:
		return chain[0], nil
	}
	return func() transform.Transformer {
		ts := make([]transform.Transformer, len(chain))
		for i, f := range chain {
			ts[i] = f()
		}
		return transform.Chain(ts...)
	}, nil
}

// String folds s with f.
func String(f Folder, s string) (string, error) {
	folded, _, err := transform.String(f(), s)
	if err != nil {
		return "", fmt.Errorf("folding %q: %w", s, err)
	}
	return folded, nil
}
