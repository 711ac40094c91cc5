// Copyright (c) 2025 The stm32pio authors.
// SPDX-License-Identifier: Apache-2.0
// no-cloc

package boards

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseBoards(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		framework string
		want      []string
		wantErr   string
	}{
		{
			name:      "filters by framework",
			input:     `[{"id":"a","frameworks":["stm32cube"]},{"id":"b","frameworks":["mbed"]}]`,
			framework: "stm32cube",
			want:      []string{"a"},
		},
		{
			name:      "keeps order",
			input:     `[{"id":"z","frameworks":["stm32cube"]},{"id":"a","frameworks":["stm32cube"]}]`,
			framework: "stm32cube",
			want:      []string{"z", "a"},
		},
		{
			name:      "record without frameworks is not in family",
			input:     `[{"id":"a"}]`,
			framework: "stm32cube",
			want:      []string{},
		},
		{
			name:  "empty framework keeps all",
			input: `[{"id":"a"},{"id":"b","frameworks":["mbed"]}]`,
			want:  []string{"a", "b"},
		},
		{
			name:      "empty array",
			input:     `[]`,
			framework: "stm32cube",
			want:      []string{},
		},
		{
			name:    "not json",
			input:   `Error: Unknown command "boards"`,
			wantErr: "not valid JSON",
		},
		{
			name:    "object instead of array",
			input:   `{"id":"a"}`,
			wantErr: "expected a JSON array",
		},
		{
			name:    "record is not an object",
			input:   `[{"id":"a"}, "b"]`,
			wantErr: "record 1 is not an object",
		},
		{
			name:    "missing id",
			input:   `[{"name":"a"}]`,
			wantErr: "record 0 has no string id",
		},
		{
			name:    "non-string id",
			input:   `[{"id":42}]`,
			wantErr: "record 0 has no string id",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseBoards([]byte(tt.input), tt.framework)
			if tt.wantErr != "" {
				require.Error(t, err)
				var pe *ParseError
				assert.True(t, errors.As(err, &pe), "want *ParseError, got %T", err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseBoards_PlatformIOOutput(t *testing.T) {
	raw, err := os.ReadFile(filepath.Join("testdata", "boards.json"))
	require.NoError(t, err)

	got, err := ParseBoards(raw, "stm32cube")
	require.NoError(t, err)
	assert.Equal(t, []string{"nucleo_f031k6", "bluepill_f103c8"}, got)

	got, err = ParseBoards(raw, "mbed")
	require.NoError(t, err)
	assert.Equal(t, []string{"nucleo_f031k6", "disco_l475vg_iot01a"}, got)
}
