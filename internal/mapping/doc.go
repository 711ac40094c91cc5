// Copyright © 2025 The stm32pio authors.
// SPDX-License-Identifier: Apache-2.0

// Package mapping holds the small pure helpers used to move project settings
// between their INI form and plain Go maps.
package mapping
