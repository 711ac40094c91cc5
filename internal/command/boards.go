// Copyright (c) 2025 The stm32pio authors.
// SPDX-License-Identifier: Apache-2.0

package command

import (
	"context"
	"fmt"

	"github.com/apex/log"
	"github.com/dustin/go-humanize"
	"github.com/urfave/cli/v3"

	"github.com/stm32pio/stm32piogo/internal/meta"
)

// BoardsCommandAction is the action handler for the "boards" subcommand. It
// lists the PlatformIO boards of the configured framework.
func BoardsCommandAction(ctx context.Context, cmd *cli.Command) error {
	m := GetMeta(cmd)
	log.Debugf("Executing action for %v", m.Args)

	cache := m.Boards
	if cache == nil {
		cache = NewBoardCache(m.Settings, m.Settings.PlatformIOCmd)
	}

	if cmd.Bool("refresh") {
		if err := cache.Refresh(ctx); err != nil {
			return fmt.Errorf("failed to refresh boards: %w", err)
		}
	}

	ids, err := cache.Boards(ctx)
	if err != nil {
		return fmt.Errorf("failed to list boards: %w", err)
	}
	log.Infof("%d boards, fetched %s", len(ids), humanize.Time(cache.FetchedAt()))

	rows := make([]map[string]interface{}, 0, len(ids))
	for _, id := range ids {
		rows = append(rows, map[string]interface{}{"id": id})
	}

	return EmitRows(cmd, rows, []string{"id"})
}

// BoardsCommandBuilder constructs the cli.Command definition for the "boards"
// command.
func BoardsCommandBuilder(cmd *cli.Command, meta meta.Meta) *cli.Command {
	return &cli.Command{
		Name:      "boards",
		Usage:     "list PlatformIO boards",
		UsageText: "stm32pio boards [options]",
		Metadata: map[string]any{
			"meta": meta,
		},
		Flags:  append([]cli.Flag{refreshFlag}, NewGlobalFlags("boards", meta.Config.Source)...),
		Action: BoardsCommandAction,
	}
}
