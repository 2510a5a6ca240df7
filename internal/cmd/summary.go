// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2023-present Datadog, Inc.

package cmd

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/DataDog/weaver/internal/weave"
	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"
)

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// printSummary writes one line per class and one indented line per rewritten
// marker method.
func printSummary(w io.Writer, results []weave.Result) error {
	var (
		styleClass   = lipgloss.NewStyle()
		styleMarker  = lipgloss.NewStyle()
		styleSkipped = lipgloss.NewStyle()
	)
	if isTerminal(w) {
		styleClass = styleClass.Bold(true).Foreground(lipgloss.ANSIColor(4))
		styleMarker = styleMarker.Foreground(lipgloss.ANSIColor(2))
		styleSkipped = styleSkipped.Foreground(lipgloss.ANSIColor(3))
	}

	var builder strings.Builder
	for _, res := range results {
		fmt.Fprintf(&builder, "%s (%s)", styleClass.Render(res.Class), res.Mode)
		if !res.Changed() {
			builder.WriteString(": unchanged")
		} else if res.FieldPatched {
			builder.WriteString(": marker field set")
		}
		builder.WriteByte('\n')

		for _, m := range res.Methods {
			fmt.Fprintf(&builder, "  %s: %d injected", styleMarker.Render(m.Name), len(m.Injected))
			if len(m.Skipped) > 0 {
				builder.WriteString(styleSkipped.Render(fmt.Sprintf(", %d skipped (%s)", len(m.Skipped), strings.Join(m.Skipped, ", "))))
			}
			builder.WriteByte('\n')
		}
	}

	_, err := io.WriteString(w, builder.String())
	return err
}
