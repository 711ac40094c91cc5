// Copyright © 2025 The stm32pio authors.
// SPDX-License-Identifier: Apache-2.0

// Package boards lists the PlatformIO boards of one framework family and keeps
// the result for a short freshness window, so repeated lookups do not respawn
// the (slow, occasionally networked) platformio process.
package boards
