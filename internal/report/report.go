// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2023-present Datadog, Inc.

// Package report renders the differences between classes before and after
// weaving.
package report

import (
	"context"
	"fmt"
	"io"
	"regexp"
	"strings"

	"github.com/DataDog/weaver/internal/classfile"
	"github.com/DataDog/weaver/internal/disasm"
	"github.com/sergi/go-diff/diffmatchpatch"
	"golang.org/x/sync/errgroup"
)

type (
	// Report is an ordered list of listings to compare.
	Report struct {
		Pairs []Pair
		// Color renders the diff with ANSI escapes instead of +/- prefixes.
		Color bool
	}

	// Pair holds the listings of one class before and after weaving.
	Pair struct {
		Name     string
		Original string
		Modified string
	}
)

// Add appends the listings of before and after to the report.
func (r *Report) Add(name string, before, after *classfile.Class) error {
	original, err := disasm.String(before)
	if err != nil {
		return fmt.Errorf("disassemble %s: %w", name, err)
	}
	modified, err := disasm.String(after)
	if err != nil {
		return fmt.Errorf("disassemble woven %s: %w", name, err)
	}
	r.Pairs = append(r.Pairs, Pair{Name: name, Original: original, Modified: modified})
	return nil
}

// WithFilter filters the pairs in the report based on a regex pattern.
func (r Report) WithFilter(regex string) (Report, error) {
	cmpRegex, err := regexp.Compile(regex)
	if err != nil {
		return Report{}, fmt.Errorf("invalid regex %q: %w", regex, err)
	}

	var filtered []Pair
	for _, p := range r.Pairs {
		if cmpRegex.MatchString(p.Name) {
			filtered = append(filtered, p)
		}
	}
	return Report{Pairs: filtered, Color: r.Color}, nil
}

// Diff generates a line diff of every pair and writes it to the writer, in
// the order the pairs were added.
func (r Report) Diff(ctx context.Context, writer io.Writer) error {
	dmp := diffmatchpatch.New()
	outputs := make([]string, len(r.Pairs))

	wg, ctx := errgroup.WithContext(ctx)
	for i, p := range r.Pairs {
		wg.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			originalRunes, modifiedRunes, lines := dmp.DiffLinesToRunes(p.Original, p.Modified)
			fragments := dmp.DiffMainRunes(originalRunes, modifiedRunes, false)
			fragments = dmp.DiffCharsToLines(fragments, lines)

			var sb strings.Builder
			fmt.Fprintf(&sb, "=== %s\n", p.Name)
			if r.Color {
				sb.WriteString(dmp.DiffPrettyText(fragments))
			} else {
				plain(&sb, fragments)
			}
			outputs[i] = sb.String()
			return nil
		})
	}
	if err := wg.Wait(); err != nil {
		return fmt.Errorf("generating diff: %w", err)
	}

	for _, output := range outputs {
		if _, err := io.WriteString(writer, output); err != nil {
			return err
		}
	}
	return nil
}

func plain(sb *strings.Builder, fragments []diffmatchpatch.Diff) {
	for _, f := range fragments {
		prefix := "  "
		switch f.Type {
		case diffmatchpatch.DiffDelete:
			prefix = "- "
		case diffmatchpatch.DiffInsert:
			prefix = "+ "
		}
		for _, line := range strings.SplitAfter(f.Text, "\n") {
			if line == "" {
				continue
			}
			sb.WriteString(prefix)
			sb.WriteString(line)
			if !strings.HasSuffix(line, "\n") {
				sb.WriteByte('\n')
			}
		}
	}
}
