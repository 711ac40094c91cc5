// Copyright (c) 2025 The stm32pio authors.
// SPDX-License-Identifier: Apache-2.0

package command

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/stm32pio/stm32piogo/internal/meta"
	"github.com/stm32pio/stm32piogo/internal/project"
)

// ValidateCommandAction checks that the project's board is one PlatformIO
// knows. A project-level app.platformio_cmd takes precedence over the
// application setting.
func ValidateCommandAction(ctx context.Context, cmd *cli.Command) error {
	m := GetMeta(cmd)
	dir := ProjectDir(cmd)

	pcfg, err := project.Load(dir, m.Settings.PlatformIOCmd)
	if err != nil {
		return err
	}

	pioCmd, ok := pcfg.Get("app", "platformio_cmd")
	if !ok {
		pioCmd = m.Settings.PlatformIOCmd
	}

	var lister project.BoardLister = m.Boards
	if m.Boards == nil || pioCmd != m.Settings.PlatformIOCmd {
		lister = NewBoardCache(m.Settings, pioCmd)
	}

	if err := pcfg.ValidateBoard(ctx, lister); err != nil {
		return fmt.Errorf("%s: %w", dir, err)
	}

	board, _ := pcfg.Get("project", "board")
	fmt.Fprintf(writer(cmd), "%s: board %s is valid\n", dir, board)
	return nil
}

// ValidateCommandBuilder constructs the cli.Command definition for the
// "validate" command.
func ValidateCommandBuilder(cmd *cli.Command, meta meta.Meta) *cli.Command {
	return &cli.Command{
		Name:      "validate",
		Usage:     "check the project's board against PlatformIO",
		UsageText: "stm32pio validate [ProjectDir]",
		Metadata: map[string]any{
			"meta": meta,
		},
		Action: ValidateCommandAction,
	}
}
