// Copyright © 2025 The stm32pio authors.
// SPDX-License-Identifier: Apache-2.0

// Package output provides sorting, filtering, and emission utilities used by
// commands to present results in various formats.
package output
