// Copyright (c) 2025 The stm32pio authors.
// SPDX-License-Identifier: Apache-2.0

package command

import (
	"io"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/stm32pio/stm32piogo/internal/boards"
	"github.com/stm32pio/stm32piogo/internal/config"
	"github.com/stm32pio/stm32piogo/internal/meta"
	"github.com/stm32pio/stm32piogo/internal/output"
)

// newRunner builds the process runner for board caches. Tests swap it.
var newRunner = func() boards.Runner { return boards.ExecRunner{} }

// NewBoardCache builds a board cache from the application settings using
// platformioCmd as the executable.
func NewBoardCache(s config.Settings, platformioCmd string) *boards.Cache {
	return boards.New(boards.Options{
		Command:   platformioCmd,
		Framework: s.Framework,
		Lifetime:  s.BoardsLifetime,
		Timeout:   s.BoardsTimeout,
		Runner:    newRunner(),
	})
}

// GetMeta returns the meta.Meta stored in the command's Metadata. If missing
// or of an unexpected type, it returns the zero value.
func GetMeta(cmd *cli.Command) meta.Meta {
	if cmd == nil || cmd.Metadata == nil {
		return meta.Meta{}
	}
	if m, ok := cmd.Metadata["meta"].(meta.Meta); ok {
		return m
	}
	return meta.Meta{}
}

// EmitOptions collects the output flags shared by the listing commands.
func EmitOptions(cmd *cli.Command) output.Options {
	return output.Options{
		Format: cmd.String("output"),
		Titles: cmd.Bool("titles"),
		Color:  cmd.Bool("color"),
	}
}

// EmitRows filters, sorts and renders rows according to the command flags.
func EmitRows(cmd *cli.Command, rows []map[string]interface{}, columns []string) error {
	rows = output.FilterRows(rows, cmd.String("filter"))
	output.SortRows(rows, cmd.String("sort"))
	return output.Emit(writer(cmd), rows, columns, EmitOptions(cmd))
}

// ProjectDir is the optional positional project directory, defaulting to the
// directory stm32pio was started in.
func ProjectDir(cmd *cli.Command) string {
	if dir := cmd.Args().First(); dir != "" {
		return dir
	}
	if sd := GetMeta(cmd).StartingDir; sd != "" {
		return sd
	}
	return "."
}

func writer(cmd *cli.Command) io.Writer {
	if root := cmd.Root(); root != nil && root.Writer != nil {
		return root.Writer
	}
	return os.Stdout
}
