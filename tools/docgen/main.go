// Copyright (c) 2025 The stm32pio authors.
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"bytes"
	"context"
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	md2man "github.com/cpuguy83/go-md2man/v2/md2man"
	"github.com/urfave/cli/v3"

	"github.com/stm32pio/stm32piogo/internal/command"
)

// Doc generator. Walks the stm32pio command tree and writes, per subcommand:
//   - docs/commands/stm32pio-<cmd>.md
//   - docs/man/share/man1/stm32pio-<cmd>.1 via md2man

func main() {
	var (
		repoRoot           string
		writeOnlyIfChanged bool
	)

	flag.StringVar(&repoRoot, "root", ".", "repo root (default current dir)")
	flag.BoolVar(&writeOnlyIfChanged, "only-if-changed", true, "only write files if content changed")
	flag.Parse()

	mdOutDir := filepath.Join(repoRoot, "docs", "commands")
	manOutDir := filepath.Join(repoRoot, "docs", "man", "share", "man1")

	for _, dir := range []string{mdOutDir, manOutDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			fatalf("creating output dir: %v", err)
		}
	}

	app, err := command.InitApp(context.Background(), []string{"stm32pio"})
	if err != nil {
		fatalf("building command tree: %v", err)
	}

	if len(app.Commands) == 0 {
		fatalf("no subcommands defined")
	}

	for _, cmd := range app.Commands {
		md := buildMarkdown(app.Name, cmd)

		mdPath := filepath.Join(mdOutDir, fmt.Sprintf("%s-%s.md", app.Name, cmd.Name))
		if err := writeFileIfChanged(mdPath, []byte(md), writeOnlyIfChanged); err != nil {
			fatalf("writing markdown for %s: %v", cmd.Name, err)
		}

		manPath := filepath.Join(manOutDir, fmt.Sprintf("%s-%s.1", app.Name, cmd.Name))
		if err := writeFileIfChanged(manPath, md2man.Render([]byte(md)), writeOnlyIfChanged); err != nil {
			fatalf("writing man page for %s: %v", cmd.Name, err)
		}
	}
}

func fatalf(f string, a ...any) {
	fmt.Fprintf(os.Stderr, f+"\n", a...)
	os.Exit(1)
}

func writeFileIfChanged(path string, new []byte, onlyIfChanged bool) error {
	if !onlyIfChanged {
		return os.WriteFile(path, new, 0o644)
	}
	old, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return os.WriteFile(path, new, 0o644)
		}
		return err
	}
	if bytes.Equal(bytes.TrimSpace(old), bytes.TrimSpace(new)) {
		return nil
	}
	return os.WriteFile(path, new, 0o644)
}

// buildMarkdown renders one subcommand in the md2man dialect: a title line
// with the man section, then NAME, SYNOPSIS and OPTIONS.
func buildMarkdown(app string, cmd *cli.Command) string {
	var b strings.Builder

	full := app + "-" + cmd.Name
	fmt.Fprintf(&b, "%s 1\n", strings.ToUpper(full))
	b.WriteString(strings.Repeat("=", len(full)+2) + "\n\n")

	b.WriteString("# NAME\n\n")
	fmt.Fprintf(&b, "%s - %s\n\n", full, cmd.Usage)

	b.WriteString("# SYNOPSIS\n\n")
	synopsis := cmd.UsageText
	if synopsis == "" {
		synopsis = app + " " + cmd.Name
	}
	fmt.Fprintf(&b, "**%s**\n", synopsis)

	if len(cmd.Flags) > 0 {
		b.WriteString("\n# OPTIONS\n")
		for _, f := range cmd.Flags {
			b.WriteString("\n" + flagNames(f.Names()) + "\n")
			if u, ok := f.(interface{ GetUsage() string }); ok && u.GetUsage() != "" {
				fmt.Fprintf(&b, ": %s\n", u.GetUsage())
			}
		}
	}

	return b.String()
}

func flagNames(names []string) string {
	parts := make([]string, 0, len(names))
	for _, n := range names {
		if len(n) == 1 {
			parts = append(parts, "**-"+n+"**")
		} else {
			parts = append(parts, "**--"+n+"**")
		}
	}
	return strings.Join(parts, ", ")
}
