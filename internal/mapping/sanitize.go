// Copyright (c) 2025 The stm32pio authors.
// SPDX-License-Identifier: Apache-2.0

package mapping

// Sanitize returns a copy of m without the keys whose value is nil or the
// empty string. Nested maps are sanitized recursively and always kept, even
// when nothing is left in them. Every other value (0, false, empty slices) is
// kept as-is. m is not modified.
//
// map[string]any, map[string]string and map[any]any (as decoded by
// gopkg.in/yaml.v2) are treated as nested maps; each keeps its own type.
func Sanitize(m map[string]any) map[string]any {
	cleaned := make(map[string]any, len(m))
	for k, v := range m {
		if nested, ok := sanitizeNested(v); ok {
			cleaned[k] = nested
			continue
		}
		if keep(v) {
			cleaned[k] = v
		}
	}
	return cleaned
}

func sanitizeNested(v any) (any, bool) {
	switch t := v.(type) {
	case map[string]any:
		return Sanitize(t), true
	case map[string]string:
		cleaned := make(map[string]string, len(t))
		for k, s := range t {
			if s != "" {
				cleaned[k] = s
			}
		}
		return cleaned, true
	case map[any]any:
		cleaned := make(map[any]any, len(t))
		for k, e := range t {
			if nested, ok := sanitizeNested(e); ok {
				cleaned[k] = nested
				continue
			}
			if keep(e) {
				cleaned[k] = e
			}
		}
		return cleaned, true
	}
	return nil, false
}

func keep(v any) bool {
	if v == nil {
		return false
	}
	if s, ok := v.(string); ok && s == "" {
		return false
	}
	return true
}
