// Copyright (c) 2025 The stm32pio authors.
// SPDX-License-Identifier: Apache-2.0

package mapping

import (
	"gopkg.in/ini.v1"
)

// Sectioned is a parsed two-level configuration: named sections of string
// key/value pairs.
type Sectioned interface {
	SectionNames() []string
	Items(section string) map[string]string
}

// Flatten copies every section of cfg into a plain map keyed by section name.
// The result shares nothing with cfg.
func Flatten(cfg Sectioned) map[string]map[string]string {
	names := cfg.SectionNames()
	out := make(map[string]map[string]string, len(names))
	for _, name := range names {
		items := cfg.Items(name)
		section := make(map[string]string, len(items))
		for k, v := range items {
			section[k] = v
		}
		out[name] = section
	}
	return out
}

// ToNested widens a flattened config to map[string]any so it can go through
// Sanitize or be merged with other nested maps.
func ToNested(flat map[string]map[string]string) map[string]any {
	out := make(map[string]any, len(flat))
	for name, section := range flat {
		nested := make(map[string]any, len(section))
		for k, v := range section {
			nested[k] = v
		}
		out[name] = nested
	}
	return out
}

// Sections is a Sectioned backed by a plain map, handy for building configs in
// code.
type Sections map[string]map[string]string

func (s Sections) SectionNames() []string {
	names := make([]string, 0, len(s))
	for name := range s {
		names = append(names, name)
	}
	return names
}

func (s Sections) Items(section string) map[string]string {
	return s[section]
}

// INI adapts a parsed gopkg.in/ini.v1 file. The implicit DEFAULT section is
// hidden and its keys are inherited by every other section, the way Python's
// configparser presents them.
type INI struct {
	File *ini.File
}

// FromINI wraps f.
func FromINI(f *ini.File) INI {
	return INI{File: f}
}

func (c INI) SectionNames() []string {
	var names []string
	for _, name := range c.File.SectionStrings() {
		if name == ini.DefaultSection {
			continue
		}
		names = append(names, name)
	}
	return names
}

func (c INI) Items(section string) map[string]string {
	items := make(map[string]string)
	if def, err := c.File.GetSection(ini.DefaultSection); err == nil {
		for k, v := range def.KeysHash() {
			items[k] = v
		}
	}
	if sec, err := c.File.GetSection(section); err == nil {
		for k, v := range sec.KeysHash() {
			items[k] = v
		}
	}
	return items
}
