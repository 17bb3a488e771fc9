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

// Package corpus implements reading dictionary corpus files.
//
// A corpus is a newline delimited text file. Each line holds one entry in two
// parts separated by the first ASCII space:
//  1. The key: the lookup term. It may be empty but may not contain a space.
//  2. The value: the rest of the line. It may itself contain spaces.
//
// SKK dictionaries (e.g. SKK-JISYO.L) use this format. They are usually
// EUC-JP encoded and contain comment lines starting with ";;". Corpus files
// may be compressed with gzip (.gz) or dictzip (.dz).
package corpus
