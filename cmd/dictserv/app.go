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
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/urfave/cli/v2"
	"sigs.k8s.io/release-utils/version"

	"github.com/ianlewis/go-dictserv"
	"github.com/ianlewis/go-dictserv/corpus"
	"github.com/ianlewis/go-dictserv/internal/config"
	"github.com/ianlewis/go-dictserv/internal/folding"
)

const (
	// ExitCodeSuccess is successful error code.
	ExitCodeSuccess int = iota

	// ExitCodeUnknownError is the exit code for an unknown error, including
	// failing to load the corpus or bind the listen address.
	ExitCodeUnknownError

	// ExitCodeFlagParseError is the exit code for a flag parsing error.
	ExitCodeFlagParseError

	// ExitCodeNotFound is the exit code when a looked up key is not found.
	ExitCodeNotFound
)

// ErrDictserv is a parent error for all command errors.
var ErrDictserv = errors.New("dictserv")

// ErrFlagParse is a flag parsing error.
var ErrFlagParse = fmt.Errorf("%w: parsing flags", ErrDictserv)

// ErrNoCorpus indicates that no corpus was configured or found.
var ErrNoCorpus = fmt.Errorf("%w: no corpus", ErrDictserv)

// ErrNotFound indicates that a looked up key was not found.
var ErrNotFound = fmt.Errorf("%w: not found", ErrDictserv)

var copyrightNames = []string{
	"2025 Ian Lewis",
}

//nolint:gochecknoinits // init needed for global variable.
func init() {
	// Set the HelpFlag to a random name so that it isn't used. `cli` handles
	// the flag with the root command such that it takes a command name argument
	// which would conflict with `dictserv --help lookup`.
	//
	// This flag is hidden by the help output.
	// See: github.com/urfave/cli/issues/1809
	cli.HelpFlag = &cli.BoolFlag{
		// NOTE: Use a random name no one would guess.
		Name:               "d41d8cd98f00b204e980",
		DisableDefaultText: true,
	}
}

// check checks the error and panics if not nil.
func check(err error) {
	if err != nil {
		panic(err)
	}
}

// exitCode returns the process exit code for an error returned by the app.
func exitCode(err error) int {
	switch {
	case err == nil:
		return ExitCodeSuccess
	case errors.Is(err, ErrFlagParse):
		return ExitCodeFlagParseError
	case errors.Is(err, ErrNotFound):
		return ExitCodeNotFound
	default:
		return ExitCodeUnknownError
	}
}

func onUsageError(_ *cli.Context, err error, _ bool) error {
	return fmt.Errorf("%w: %w", ErrFlagParse, err)
}

func printVersion(c *cli.Context) error {
	v := version.GetVersionInfo()
	_, err := fmt.Fprintln(c.App.Writer, v.String())
	return err
}

// corpusFlags returns the flags configuring how the corpus is loaded. They
// override the config file.
func corpusFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "corpus",
			Usage:   "load the dictionary corpus from `PATH` (.gz and .dz are decompressed)",
			Aliases: []string{"f"},
		},
		&cli.StringFlag{
			Name:  "encoding",
			Usage: "corpus character `ENCODING`",
			Value: corpus.SKKEncoding,
		},
		&cli.StringFlag{
			Name:  "comment-prefix",
			Usage: "skip corpus lines starting with `PREFIX`",
			Value: ";;",
		},
		&cli.BoolFlag{
			Name:  "skip-malformed",
			Usage: "skip corpus lines without a key/value separator",
		},
		&cli.StringFlag{
			Name:  "fold",
			Usage: "fold keys and queries with `FOLDERS` (" + strings.Join(folding.Names(), ", ") + ")",
			Value: "none",
		},
		&cli.BoolFlag{
			Name:  "render-html",
			Usage: "render HTML values as plain text",
		},
	}
}

// loadConfig loads the config file and applies the flags shared by all
// commands.
func loadConfig(c *cli.Context) (*config.Config, error) {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDictserv, err)
	}

	strs := map[string]*string{
		"corpus":         &cfg.Corpus.Path,
		"encoding":       &cfg.Corpus.Encoding,
		"comment-prefix": &cfg.Corpus.CommentPrefix,
		"fold":           &cfg.Corpus.Fold,
		"log-level":      &cfg.Logging.Level,
		"log-format":     &cfg.Logging.Format,
		"metrics-addr":   &cfg.Metrics.Address,
	}
	for name, p := range strs {
		if c.IsSet(name) {
			*p = c.String(name)
		}
	}

	bools := map[string]*bool{
		"skip-malformed": &cfg.Corpus.SkipMalformed,
		"render-html":    &cfg.Corpus.RenderHTML,
	}
	for name, p := range bools {
		if c.IsSet(name) {
			*p = c.Bool(name)
		}
	}
	return cfg, nil
}

// findCorpus returns the first corpus found in the default locations.
func findCorpus() string {
	for _, path := range corpusLocations() {
		if fi, err := os.Stat(path); err == nil && fi.Mode().IsRegular() {
			return path
		}
	}
	return ""
}

// openDictionary loads the corpus described by cfg.
func openDictionary(cfg *config.CorpusConfig) (*dictserv.Dictionary, error) {
	path := cfg.Path
	if path == "" {
		path = findCorpus()
	}
	if path == "" {
		return nil, fmt.Errorf("%w: searched %s", ErrNoCorpus, strings.Join(corpusLocations(), ", "))
	}

	enc, err := corpus.LookupEncoding(cfg.Encoding)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrFlagParse, err)
	}
	fold, err := folding.Named(cfg.Fold)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrFlagParse, err)
	}

	//nolint:wrapcheck // LoadError carries the path.
	return dictserv.Open(path, &dictserv.Options{
		Encoding:      enc,
		CommentPrefix: cfg.CommentPrefix,
		SkipMalformed: cfg.SkipMalformed,
		Folder:        fold,
		RenderHTML:    cfg.RenderHTML,
	})
}

func newDictservApp() *cli.App {
	return &cli.App{
		Name:  filepath.Base(os.Args[0]),
		Usage: "Serve SKK style dictionaries over TCP.",
		Description: strings.Join([]string{
			"Dictionary lookup server written in Go.",
			"http://github.com/ianlewis/go-dictserv",
		}, "\n"),
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Usage:   "read configuration from YAML `FILE`",
				Aliases: []string{"c"},
			},
			&cli.StringFlag{
				Name:  "log-level",
				Usage: "log `LEVEL` (debug, info, warn, error)",
				Value: "info",
			},
			&cli.StringFlag{
				Name:  "log-format",
				Usage: "log `FORMAT` (text, json)",
				Value: "text",
			},

			// Special flags are shown at the end.
			&cli.BoolFlag{
				Name:               "help",
				Usage:              "print this help text and exit",
				Aliases:            []string{"h"},
				DisableDefaultText: true,
			},
			&cli.BoolFlag{
				Name:               "version",
				Usage:              "print version information and exit",
				Aliases:            []string{"V"},
				DisableDefaultText: true,
			},
		},
		Copyright:       strings.Join(copyrightNames, "\n"),
		HideHelp:        true,
		HideHelpCommand: true,
		OnUsageError:    onUsageError,
		Action: func(c *cli.Context) error {
			if c.Bool("version") {
				return printVersion(c)
			}

			check(cli.ShowAppHelp(c))
			return nil
		},
		Commands: []*cli.Command{
			serveCommand(),
			echoCommand(),
			lookupCommand(),
			clientCommand(),
		},
	}
}
