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
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/chzyer/readline"
	"github.com/fatih/color"
	"github.com/urfave/cli/v2"

	"github.com/ianlewis/go-dictserv/client"
	"github.com/ianlewis/go-dictserv/server"
)

func clientCommand() *cli.Command {
	return &cli.Command{
		Name:      "client",
		Usage:     "look up keys interactively on a running server",
		ArgsUsage: " ",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "addr",
				Usage:   "connect to the server at `ADDRESS`",
				Aliases: []string{"a"},
				Value:   "127.0.0.1:1178",
			},
			&cli.DurationFlag{
				Name:  "timeout",
				Usage: "give up on a lookup after `DURATION`",
			},
		},
		OnUsageError: onUsageError,
		Action:       runClient,
	}
}

func historyFile() string {
	dir, err := os.UserCacheDir()
	if err != nil {
		dir = os.TempDir()
	}
	return filepath.Join(dir, ".dictserv_history")
}

func runClient(c *cli.Context) error {
	addr := c.String("addr")
	cl, err := client.Dial(c.Context, addr, &client.Options{
		Timeout:    c.Duration("timeout"),
		MaxKeySize: server.DefaultBufferSize,
	})
	if err != nil {
		return fmt.Errorf("%w: %w", ErrDictserv, err)
	}

	rl, err := readline.NewEx(&readline.Config{
		Prompt:          addr + "> ",
		HistoryFile:     historyFile(),
		InterruptPrompt: "^C",
		EOFPrompt:       server.QuitCommand,
		Stdout:          c.App.Writer,
		Stderr:          c.App.ErrWriter,
	})
	if err != nil {
		_ = cl.Close()
		return fmt.Errorf("%w: initializing readline: %w", ErrDictserv, err)
	}
	defer rl.Close()

	missFmt := color.New(color.FgRed).SprintfFunc()
	errFmt := color.New(color.FgRed, color.Bold).SprintfFunc()

	for {
		line, err := rl.Readline()
		switch {
		case errors.Is(err, readline.ErrInterrupt):
			if line == "" {
				return cl.Quit()
			}
			continue
		case errors.Is(err, io.EOF):
			return cl.Quit()
		case err != nil:
			_ = cl.Close()
			return fmt.Errorf("%w: reading input: %w", ErrDictserv, err)
		}

		key := strings.TrimSpace(line)
		if key == "" {
			continue
		}
		if key == server.QuitCommand {
			return cl.Quit()
		}

		value, found, err := cl.Lookup(key)
		switch {
		case errors.Is(err, client.ErrInvalidKey):
			fmt.Fprintln(rl.Stderr(), errFmt("%v", err))
		case err != nil:
			_ = cl.Close()
			return fmt.Errorf("%w: %w", ErrDictserv, err)
		case !found:
			fmt.Fprintln(rl.Stdout(), missFmt(server.NotFound))
		default:
			fmt.Fprintln(rl.Stdout(), value)
		}
	}
}
