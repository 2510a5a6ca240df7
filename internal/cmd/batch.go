// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2023-present Datadog, Inc.

package cmd

import (
	"context"
	"fmt"
	"path/filepath"
	"runtime"
	"slices"

	"github.com/DataDog/weaver/internal/log"
	"github.com/DataDog/weaver/internal/weave"
	"github.com/otiai10/copy"
	"github.com/urfave/cli/v2"
	"golang.org/x/sync/errgroup"
	"gopkg.in/DataDog/dd-trace-go.v1/ddtrace/tracer"
)

var Batch = &cli.Command{
	Name:      "batch",
	Usage:     "Copies a directory of classes, then injects the discovered hooks into the listed classes",
	ArgsUsage: "IN_DIR OUT_DIR",
	Flags: []cli.Flag{
		flagManifest,
		flagConfig,
		flagIncremental,
		&cli.StringSliceFlag{
			Name:     "class",
			Usage:    "path of a class to rewrite, relative to IN_DIR (repeatable)",
			Required: true,
		},
		&cli.IntFlag{
			Name:    "jobs",
			Aliases: []string{"j"},
			Usage:   "number of classes rewritten concurrently",
			Value:   runtime.GOMAXPROCS(0),
		},
	},
	Action: traced("batch", func(clictx *cli.Context) error {
		if clictx.NArg() != 2 {
			return cli.ShowSubcommandHelp(clictx)
		}

		engine, err := newEngine(clictx)
		if err != nil {
			return cli.Exit(err, 1)
		}
		results, err := weaveDir(clictx.Context, engine, clictx.Args().Get(0), clictx.Args().Get(1), clictx.StringSlice("class"), clictx.Int("jobs"))
		if err != nil {
			return cli.Exit(err, 1)
		}
		return printSummary(clictx.App.ErrWriter, results)
	}),
}

// weaveDir copies inDir to outDir, then rewrites the listed classes of outDir
// in place. Results are returned in the order of classes.
func weaveDir(ctx context.Context, e *weave.Engine, inDir, outDir string, classes []string, jobs int) ([]weave.Result, error) {
	for _, rel := range classes {
		if !filepath.IsLocal(rel) {
			return nil, fmt.Errorf("class %q is not relative to %s", rel, inDir)
		}
	}
	if err := copy.Copy(inDir, outDir, copy.Options{PreserveTimes: true}); err != nil {
		return nil, fmt.Errorf("copying %s to %s: %w", inDir, outDir, err)
	}
	log.Debugf("copied %s to %s\n", inDir, outDir)

	// Each file is rewritten by exactly one worker, however many times it is listed.
	unique := make([]string, len(classes))
	for i, rel := range classes {
		unique[i] = filepath.Clean(rel)
	}
	slices.Sort(unique)
	unique = slices.Compact(unique)

	woven := make([]weave.Result, len(unique))
	wg, ctx := errgroup.WithContext(ctx)
	if jobs > 0 {
		wg.SetLimit(jobs)
	}
	for i, rel := range unique {
		wg.Go(func() (err error) {
			if err := ctx.Err(); err != nil {
				return err
			}
			span, _ := tracer.StartSpanFromContext(ctx, "weaver.class", tracer.ResourceName(rel))
			defer func() { span.Finish(tracer.WithError(err)) }()

			filename := filepath.Join(outDir, rel)
			woven[i], err = weaveFile(e, filename, filename)
			return err
		})
	}
	if err := wg.Wait(); err != nil {
		return nil, err
	}

	results := make([]weave.Result, len(classes))
	for i, rel := range classes {
		j, _ := slices.BinarySearch(unique, filepath.Clean(rel))
		results[i] = woven[j]
	}
	return results, nil
}
