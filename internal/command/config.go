// Copyright (c) 2025 The stm32pio authors.
// SPDX-License-Identifier: Apache-2.0

package command

import (
	"context"

	"github.com/apex/log"
	"github.com/urfave/cli/v3"

	"github.com/stm32pio/stm32piogo/internal/meta"
	"github.com/stm32pio/stm32piogo/internal/project"
)

// ConfigCommandAction prints the effective project config: the defaults with
// the project's stm32pio.ini on top and empty values dropped.
func ConfigCommandAction(ctx context.Context, cmd *cli.Command) error {
	m := GetMeta(cmd)
	dir := ProjectDir(cmd)
	log.Debugf("config for %s", dir)

	pcfg, err := project.Load(dir, m.Settings.PlatformIOCmd)
	if err != nil {
		return err
	}
	if pcfg.Source == "" {
		log.Warnf("no %s in %s, showing defaults", project.FileName, dir)
	}

	return EmitRows(cmd, pcfg.Rows(), []string{"section", "key", "value"})
}

// ConfigCommandBuilder constructs the cli.Command definition for the "config"
// command.
func ConfigCommandBuilder(cmd *cli.Command, meta meta.Meta) *cli.Command {
	return &cli.Command{
		Name:      "config",
		Usage:     "show the effective project config",
		UsageText: "stm32pio config [ProjectDir] [options]",
		Metadata: map[string]any{
			"meta": meta,
		},
		Flags:  NewGlobalFlags("config", meta.Config.Source),
		Action: ConfigCommandAction,
	}
}
