// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2023-present Datadog, Inc.

package cmd

import (
	"fmt"

	"github.com/DataDog/weaver/internal/report"
	"github.com/urfave/cli/v2"
)

var Diff = &cli.Command{
	Name:      "diff",
	Usage:     "Shows what inject would change in class files, without writing anything",
	ArgsUsage: "IN.class...",
	Flags: []cli.Flag{
		flagManifest,
		flagConfig,
		flagIncremental,
		&cli.StringFlag{
			Name:  "filter",
			Usage: "only show classes whose internal name matches this regular expression",
		},
	},
	Action: traced("diff", func(clictx *cli.Context) error {
		if clictx.NArg() == 0 {
			return cli.ShowSubcommandHelp(clictx)
		}

		engine, err := newEngine(clictx)
		if err != nil {
			return cli.Exit(err, 1)
		}

		rp := report.Report{Color: isTerminal(clictx.App.Writer)}
		for _, filename := range clictx.Args().Slice() {
			class, err := readClass(filename)
			if err != nil {
				return cli.Exit(err, 1)
			}
			woven, _, err := engine.Transform(class)
			if err != nil {
				return cli.Exit(fmt.Sprintf("%s: %v", filename, err), 1)
			}
			if err := rp.Add(class.Name(), class, woven); err != nil {
				return cli.Exit(err, 1)
			}
		}

		if filter := clictx.String("filter"); filter != "" {
			if rp, err = rp.WithFilter(filter); err != nil {
				return cli.Exit(err, 1)
			}
		}
		if len(rp.Pairs) == 0 {
			return cli.Exit("no classes to diff", 1)
		}

		if err := rp.Diff(clictx.Context, clictx.App.Writer); err != nil {
			return cli.Exit(fmt.Sprintf("failed to generate diff: %s", err), 1)
		}
		return nil
	}),
}
