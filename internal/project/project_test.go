// Copyright (c) 2025 The stm32pio authors.
// SPDX-License-Identifier: Apache-2.0
// no-cloc

package project

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type staticLister struct {
	boards []string
	err    error
	calls  int
}

func (l *staticLister) Boards(context.Context) ([]string, error) {
	l.calls++
	return l.boards, l.err
}

func TestLoad(t *testing.T) {
	cfg, err := Load(filepath.Join("testdata", "valid"), "platformio")
	require.NoError(t, err)

	assert.Contains(t, cfg.Source, filepath.Join("testdata", "valid", FileName))

	v, ok := cfg.Get("app", "platformio_cmd")
	assert.True(t, ok)
	assert.Equal(t, "pio", v, "project file overrides the application command")

	v, _ = cfg.Get("app", "cubemx_cmd")
	assert.Equal(t, "STM32CubeMX", v)

	v, _ = cfg.Get("project", "board")
	assert.Equal(t, "nucleo_f031k6", v)

	v, _ = cfg.Get("project", "inspect_ioc")
	assert.Equal(t, "False", v, "keys are case-insensitive")

	v, _ = cfg.Get("project", "ioc_file")
	assert.Equal(t, "valid.ioc", v)
}

func TestLoad_NoFile(t *testing.T) {
	dir := t.TempDir()

	cfg, err := Load(dir, "platformio")
	require.NoError(t, err)
	assert.Empty(t, cfg.Source)

	v, _ := cfg.Get("app", "platformio_cmd")
	assert.Equal(t, "platformio", v)

	_, ok := cfg.Get("project", "board")
	assert.False(t, ok, "empty default board is sanitized away")
	assert.Contains(t, cfg.Data, "project")
}

func TestLoad_Broken(t *testing.T) {
	_, err := Load(filepath.Join("testdata", "broken"), "platformio")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse")
}

func TestGet_Missing(t *testing.T) {
	cfg := &Config{Data: map[string]any{"app": "not a section"}}

	_, ok := cfg.Get("app", "x")
	assert.False(t, ok)
	_, ok = cfg.Get("nope", "x")
	assert.False(t, ok)
}

func TestRows(t *testing.T) {
	cfg := &Config{Data: map[string]any{
		"project": map[string]any{"board": "b", "ioc_file": "x.ioc"},
		"app":     map[string]any{"platformio_cmd": "pio"},
	}}

	rows := cfg.Rows()
	require.Len(t, rows, 3)
	assert.Equal(t, map[string]interface{}{"section": "app", "key": "platformio_cmd", "value": "pio"}, rows[0])
	assert.Equal(t, "board", rows[1]["key"])
	assert.Equal(t, "ioc_file", rows[2]["key"])
}

func TestValidateBoard(t *testing.T) {
	tests := []struct {
		name    string
		dir     string
		lister  *staticLister
		wantErr string
		isNoBrd bool
	}{
		{
			name:   "known board",
			dir:    "valid",
			lister: &staticLister{boards: []string{"bluepill_f103c8", "nucleo_f031k6"}},
		},
		{
			name:    "unknown board",
			dir:     "valid",
			lister:  &staticLister{boards: []string{"bluepill_f103c8"}},
			wantErr: `unknown board "nucleo_f031k6"`,
		},
		{
			name:    "no board",
			dir:     "noboard",
			lister:  &staticLister{boards: []string{"nucleo_f031k6"}},
			isNoBrd: true,
		},
		{
			name:    "lister failure",
			dir:     "valid",
			lister:  &staticLister{err: errors.New("platformio not found")},
			wantErr: "failed to list boards: platformio not found",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Load(filepath.Join("testdata", tt.dir), "platformio")
			require.NoError(t, err)

			err = cfg.ValidateBoard(context.Background(), tt.lister)
			switch {
			case tt.isNoBrd:
				assert.ErrorIs(t, err, ErrNoBoard)
				assert.Equal(t, 0, tt.lister.calls, "no lookup without a board")
			case tt.wantErr != "":
				assert.ErrorContains(t, err, tt.wantErr)
			default:
				assert.NoError(t, err)
			}
		})
	}
}
