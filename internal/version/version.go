// Copyright (c) 2025 The stm32pio authors.
// SPDX-License-Identifier: Apache-2.0

// Package version resolves the application version from whatever the build
// left behind: a link-time variable, the main module version recorded by the
// Go toolchain, or the VCS revision. The first strategy that yields a valid
// version wins.
package version

import (
	"runtime/debug"
	"strings"
	"sync"

	"github.com/apex/log"
	goversion "github.com/hashicorp/go-version"
)

// Placeholder is reported when no strategy can determine a version.
const Placeholder = "Portable (not-installed). See git tag"

// Injected is set at link time:
//
//	go build -ldflags "-X github.com/stm32pio/stm32piogo/internal/version.Injected=1.2.3"
var Injected string

// Strategy produces a version candidate. ok is false when the strategy has
// nothing to offer.
type Strategy func() (v string, ok bool)

// Resolve tries each strategy in order and returns the first candidate that
// parses as a version, normalised to its canonical form. Placeholder is
// returned when every strategy fails.
func Resolve(strategies ...Strategy) string {
	for i, s := range strategies {
		candidate, ok := s()
		if !ok {
			continue
		}
		v, err := goversion.NewVersion(strings.TrimSpace(candidate))
		if err != nil {
			log.Debugf("version strategy %d produced unusable %q: %v", i, candidate, err)
			continue
		}
		return v.String()
	}
	return Placeholder
}

// FromInjected reads the link-time Injected variable.
func FromInjected() (string, bool) {
	return Injected, Injected != ""
}

// FromBuildInfo returns a Strategy reading the main module version recorded
// by the toolchain. "(devel)" builds are skipped.
func FromBuildInfo(read func() (*debug.BuildInfo, bool)) Strategy {
	return func() (string, bool) {
		bi, ok := read()
		if !ok || bi == nil {
			return "", false
		}
		v := bi.Main.Version
		if v == "" || v == "(devel)" {
			return "", false
		}
		return v, true
	}
}

// FromVCS returns a Strategy building a pseudo version from the vcs.revision
// and vcs.modified build settings.
func FromVCS(read func() (*debug.BuildInfo, bool)) Strategy {
	return func() (string, bool) {
		bi, ok := read()
		if !ok || bi == nil {
			return "", false
		}

		var rev string
		var dirty bool
		for _, s := range bi.Settings {
			switch s.Key {
			case "vcs.revision":
				rev = s.Value
			case "vcs.modified":
				dirty = s.Value == "true"
			}
		}
		if rev == "" {
			return "", false
		}
		if len(rev) > 12 { //nolint:mnd
			rev = rev[:12]
		}

		v := "0.0.0-" + rev
		if dirty {
			v += "-dirty"
		}
		return v, true
	}
}

// DefaultStrategies is the resolution order used by Version.
func DefaultStrategies() []Strategy {
	return []Strategy{
		FromInjected,
		FromBuildInfo(debug.ReadBuildInfo),
		FromVCS(debug.ReadBuildInfo),
	}
}

var (
	once     sync.Once
	resolved string
)

// Version returns the application version, resolving it once per process.
func Version() string {
	once.Do(func() {
		resolved = Resolve(DefaultStrategies()...)
	})
	return resolved
}
