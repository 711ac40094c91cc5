// Copyright © 2025 The stm32pio authors.
// SPDX-License-Identifier: Apache-2.0

package meta

import (
	"context"

	"github.com/stm32pio/stm32piogo/internal/boards"
	"github.com/stm32pio/stm32piogo/internal/config"
)

// Meta is the per-process state handed to every command through its
// Metadata.
type Meta struct {
	Args     []string
	Config   config.Type
	Settings config.Settings
	Context  context.Context
	// Boards is shared by every command of the process so the board list is
	// fetched at most once per freshness window.
	Boards      *boards.Cache
	StartingDir string
}
