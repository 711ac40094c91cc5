// Copyright (c) 2025 The stm32pio authors.
// SPDX-License-Identifier: Apache-2.0

// stm32pio is the command line entry point. It lists the PlatformIO boards
// available for STM32Cube projects, prints a project's effective
// stm32pio.ini settings and validates the configured board.
package main
