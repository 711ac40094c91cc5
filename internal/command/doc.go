// Copyright © 2025 The stm32pio authors.
// SPDX-License-Identifier: Apache-2.0

// Package command wires the stm32pio subcommands to the internal packages.
package command
