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

package main

import (
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/rodaine/table"
	"github.com/urfave/cli/v2"

	"github.com/ianlewis/go-dictserv/client"
	"github.com/ianlewis/go-dictserv/server"
)

func lookupCommand() *cli.Command {
	return &cli.Command{
		Name:      "lookup",
		Usage:     "look up keys in the corpus or on a running server",
		ArgsUsage: "KEY...",
		Flags: append([]cli.Flag{
			&cli.StringFlag{
				Name:    "server",
				Usage:   "query the server at `ADDRESS` instead of loading the corpus (excludes --all and corpus flags)",
				Aliases: []string{"s"},
			},
			&cli.BoolFlag{
				Name:  "all",
				Usage: "print every value of duplicated keys",
			},
		}, corpusFlags()...),
		OnUsageError: onUsageError,
		Action:       runLookup,
	}
}

// localOnlyFlags returns the flags that only apply when loading the corpus
// locally.
func localOnlyFlags() []string {
	names := []string{"all"}
	for _, f := range corpusFlags() {
		names = append(names, f.Names()[0])
	}
	return names
}

// lookupFunc returns the values for a key.
type lookupFunc func(key string) ([]string, error)

func runLookup(c *cli.Context) error {
	keys := c.Args().Slice()
	if len(keys) == 0 {
		return fmt.Errorf("%w: expected at least one KEY", ErrFlagParse)
	}

	var lookup lookupFunc
	if addr := c.String("server"); addr != "" {
		for _, name := range localOnlyFlags() {
			if c.IsSet(name) {
				return fmt.Errorf("%w: --%s cannot be used with --server", ErrFlagParse, name)
			}
		}

		cl, err := client.Dial(c.Context, addr, nil)
		if err != nil {
			return fmt.Errorf("%w: %w", ErrDictserv, err)
		}
		defer cl.Quit()

		lookup = func(key string) ([]string, error) {
			value, found, err := cl.Lookup(key)
			if err != nil || !found {
				return nil, err
			}
			return []string{value}, nil
		}
	} else {
		cfg, err := loadConfig(c)
		if err != nil {
			return err
		}
		dict, err := openDictionary(&cfg.Corpus)
		if err != nil {
			return err
		}

		all := c.Bool("all")
		lookup = func(key string) ([]string, error) {
			if all {
				return dict.LookupAll(key), nil
			}
			if value, found := dict.Lookup(key); found {
				return []string{value}, nil
			}
			return nil, nil
		}
	}

	headerFmt := color.New(color.FgGreen, color.Underline).SprintfFunc()
	missFmt := color.New(color.FgRed).SprintfFunc()
	tbl := table.New("Key", "Value").
		WithWriter(c.App.Writer).
		WithHeaderFormatter(headerFmt)

	var missing []string
	for _, key := range keys {
		values, err := lookup(key)
		if err != nil {
			return fmt.Errorf("%w: looking up %q: %w", ErrDictserv, key, err)
		}
		if len(values) == 0 {
			missing = append(missing, key)
			tbl.AddRow(key, missFmt(server.NotFound))
			continue
		}
		for _, v := range values {
			tbl.AddRow(key, v)
		}
	}
	tbl.Print()

	if len(missing) > 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, strings.Join(missing, ", "))
	}
	return nil
}
