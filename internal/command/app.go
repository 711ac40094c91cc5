// Copyright © 2025 The stm32pio authors.
// SPDX-License-Identifier: Apache-2.0

package command

import (
	"context"
	"os"
	"sort"
	"strings"

	"github.com/apex/log"
	"github.com/urfave/cli/v3"

	"github.com/stm32pio/stm32piogo/internal/config"
	"github.com/stm32pio/stm32piogo/internal/meta"
)

func InitApp(ctx context.Context, args []string) (*cli.Command, error) {
	sd, _ := os.Getwd()

	// arg[1] is the subcommand and also the namespace used when retrieving
	// config values. It could be -h/--help, so ignore it if it looks like a
	// flag.
	var ns string
	if len(args) > 1 && !strings.HasPrefix(args[1], "-") {
		ns = args[1]
	}

	cfg, err := config.Load(ns)
	if err != nil {
		log.Debugf("settings file not loaded: %v", err)
	}

	settings := config.AppSettings()
	meta := meta.Meta{
		Args:        args,
		Config:      cfg,
		Settings:    settings,
		Context:     ctx,
		Boards:      NewBoardCache(settings, settings.PlatformIOCmd),
		StartingDir: sd,
	}

	app := &cli.Command{
		Name:  "stm32pio",
		Usage: "STM32CubeMX and PlatformIO project helper",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:        "version",
				Aliases:     []string{"v"},
				Usage:       "stm32pio version info",
				HideDefault: true,
			},
		},
	}

	app.Commands = append(app.Commands,
		BoardsCommandBuilder(app, meta),
		ConfigCommandBuilder(app, meta),
		ValidateCommandBuilder(app, meta),
		CompletionCommandBuilder(app, meta),
	)

	// Make sure flags are sorted for the --help text.
	for _, cmd := range app.Commands {
		sort.Slice(cmd.Flags, func(i, j int) bool {
			return cmd.Flags[i].Names()[0] < cmd.Flags[j].Names()[0]
		})
	}

	return app, nil
}
