// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2023-present Datadog, Inc.

package cmd

import (
	"github.com/DataDog/weaver/internal/weave"
	"github.com/urfave/cli/v2"
)

var Inject = &cli.Command{
	Name:      "inject",
	Usage:     "Injects the discovered hooks into a generated router class",
	ArgsUsage: "IN.class",
	Flags: []cli.Flag{
		flagManifest,
		flagConfig,
		flagIncremental,
		&cli.StringFlag{
			Name:    "output",
			Aliases: []string{"o"},
			Usage:   "write the rewritten class to this file instead of replacing the input",
		},
	},
	Action: traced("inject", func(clictx *cli.Context) error {
		if clictx.NArg() != 1 {
			return cli.ShowSubcommandHelp(clictx)
		}
		in := clictx.Args().First()
		out := clictx.String("output")
		if out == "" {
			out = in
		}

		engine, err := newEngine(clictx)
		if err != nil {
			return cli.Exit(err, 1)
		}
		res, err := weaveFile(engine, in, out)
		if err != nil {
			return cli.Exit(err, 1)
		}
		return printSummary(clictx.App.ErrWriter, []weave.Result{res})
	}),
}
