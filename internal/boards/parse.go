// Copyright (c) 2025 The stm32pio authors.
// SPDX-License-Identifier: Apache-2.0

package boards

import (
	"fmt"

	"github.com/tidwall/gjson"
)

// ParseBoards extracts the ids of the records in a `platformio boards
// --json-output` document whose frameworks include framework. An empty
// framework keeps every record. Every record must carry a string id, even
// the ones that are filtered out.
func ParseBoards(out []byte, framework string) ([]string, error) {
	if !gjson.ValidBytes(out) {
		return nil, &ParseError{Reason: "output is not valid JSON"}
	}

	doc := gjson.ParseBytes(out)
	if !doc.IsArray() {
		return nil, &ParseError{Reason: fmt.Sprintf("expected a JSON array, got %s", doc.Type)}
	}

	ids := []string{}
	var perr error
	idx := 0
	doc.ForEach(func(_, rec gjson.Result) bool {
		defer func() { idx++ }()

		if !rec.IsObject() {
			perr = &ParseError{Reason: fmt.Sprintf("record %d is not an object", idx)}
			return false
		}

		id := rec.Get("id")
		if id.Type != gjson.String || id.Str == "" {
			perr = &ParseError{Reason: fmt.Sprintf("record %d has no string id", idx)}
			return false
		}

		if inFamily(rec, framework) {
			ids = append(ids, id.Str)
		}
		return true
	})
	if perr != nil {
		return nil, perr
	}

	return ids, nil
}

func inFamily(rec gjson.Result, framework string) bool {
	if framework == "" {
		return true
	}
	for _, fw := range rec.Get("frameworks").Array() {
		if fw.String() == framework {
			return true
		}
	}
	return false
}
