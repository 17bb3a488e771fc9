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

package folding

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestNamed(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		names    string
		input    string
		expected string
	}{
		{
			name:     "empty list",
			names:    "",
			input:    "  Ｈｏｇｅ  ",
			expected: "  Ｈｏｇｅ  ",
		},
		{
			name:     "none",
			names:    "none",
			input:    "foo bar",
			expected: "foo bar",
		},
		{
			name:     "space",
			names:    "space",
			input:    " \tfoo 　 bar\n",
			expected: "foo bar",
		},
		{
			name:     "width",
			names:    "width",
			input:    "Ｈｏｇｅ ｶﾀｶﾅ",
			expected: "Hoge カタカナ",
		},
		{
			name:     "case",
			names:    "case",
			input:    "HoGe",
			expected: "hoge",
		},
		{
			name:     "chain",
			names:    "width, case,space",
			input:    "  ＨＯＧＥ   ＦＵＧＡ ",
			expected: "hoge fuga",
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			t.Parallel()

			f, err := Named(test.names)
			if err != nil {
				t.Fatalf("Named(%q): %v", test.names, err)
			}

			got, err := String(f, test.input)
			if err != nil {
				t.Fatalf("String: %v", err)
			}
			if diff := cmp.Diff(test.expected, got); diff != "" {
				t.Errorf("String (-want, +got):\n%s", diff)
			}
		})
	}
}

func TestNamed_unknown(t *testing.T) {
	t.Parallel()

	if _, err := Named("space,bogus"); !errors.Is(err, ErrUnknownFolder) {
		t.Errorf("Named: want %v, got %v", ErrUnknownFolder, err)
	}
}

func TestNames(t *testing.T) {
	t.Parallel()

	if diff := cmp.Diff([]string{"case", "none", "space", "width"}, Names()); diff != "" {
		t.Errorf("Names (-want, +got):\n%s", diff)
	}
}
