// Copyright (c) 2025 The stm32pio authors.
// SPDX-License-Identifier: Apache-2.0

// Package project reads the per-project stm32pio.ini file.
package project

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"sort"

	"github.com/apex/log"
	"gopkg.in/ini.v1"

	"github.com/stm32pio/stm32piogo/internal/mapping"
)

// FileName is the project config file looked up in the project directory.
const FileName = "stm32pio.ini"

// ErrNoBoard is returned by ValidateBoard when project.board is unset.
var ErrNoBoard = errors.New("no board specified in the project config")

// BoardLister is what ValidateBoard needs from the board cache.
type BoardLister interface {
	Boards(ctx context.Context) ([]string, error)
}

// Config is a project's effective configuration: the defaults with the
// project file layered on top and empty values removed.
type Config struct {
	Source string
	Data   map[string]any
}

// Defaults are the settings every project starts from. platformioCmd is the
// application-wide command so project files only need to override it.
func Defaults(dir, platformioCmd string) map[string]map[string]string {
	name := filepath.Base(dir)
	return map[string]map[string]string{
		"app": {
			"platformio_cmd": platformioCmd,
			"cubemx_cmd":     "STM32CubeMX",
			"java_cmd":       "None",
		},
		"project": {
			"board":           "",
			"ioc_file":        name + ".ioc",
			"cleanup_ignore":  name + ".ioc",
			"cleanup_use_git": "False",
			"inspect_ioc":     "True",
		},
	}
}

// Load reads dir/stm32pio.ini. A missing file is not an error: the defaults
// are returned with an empty Source.
func Load(dir, platformioCmd string) (*Config, error) {
	if abs, err := filepath.Abs(dir); err == nil {
		dir = abs
	}
	merged := Defaults(dir, platformioCmd)

	path := filepath.Join(dir, FileName)
	source := ""
	if _, err := os.Stat(path); err == nil {
		f, err := ini.LoadSources(ini.LoadOptions{InsensitiveKeys: true}, path)
		if err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", path, err)
		}
		for section, items := range mapping.Flatten(mapping.FromINI(f)) {
			if merged[section] == nil {
				merged[section] = map[string]string{}
			}
			for k, v := range items {
				merged[section][k] = v
			}
		}
		source = path
		log.Debugf("using project config: %s", path)
	} else if !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to stat %s: %w", path, err)
	}

	return &Config{
		Source: source,
		Data:   mapping.Sanitize(mapping.ToNested(merged)),
	}, nil
}

// Get returns section.key and whether it is set.
func (c *Config) Get(section, key string) (string, bool) {
	s, ok := c.Data[section].(map[string]any)
	if !ok {
		return "", false
	}
	v, ok := s[key].(string)
	return v, ok
}

// Rows lists every section/key/value triple sorted by section then key.
func (c *Config) Rows() []map[string]interface{} {
	var rows []map[string]interface{}
	for section, raw := range c.Data {
		items, ok := raw.(map[string]any)
		if !ok {
			continue
		}
		for k, v := range items {
			rows = append(rows, map[string]interface{}{"section": section, "key": k, "value": v})
		}
	}
	sort.Slice(rows, func(i, j int) bool {
		si, sj := rows[i]["section"].(string), rows[j]["section"].(string)
		if si != sj {
			return si < sj
		}
		return rows[i]["key"].(string) < rows[j]["key"].(string)
	})
	return rows
}

// ValidateBoard checks project.board against the boards PlatformIO knows.
func (c *Config) ValidateBoard(ctx context.Context, lister BoardLister) error {
	board, ok := c.Get("project", "board")
	if !ok || board == "" || board == "None" {
		return ErrNoBoard
	}

	boards, err := lister.Boards(ctx)
	if err != nil {
		return fmt.Errorf("failed to list boards: %w", err)
	}
	if !slices.Contains(boards, board) {
		return fmt.Errorf("unknown board %q (not in the list of %d PlatformIO boards)", board, len(boards))
	}
	return nil
}
