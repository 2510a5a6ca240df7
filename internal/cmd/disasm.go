// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2023-present Datadog, Inc.

package cmd

import (
	"github.com/DataDog/weaver/internal/disasm"
	"github.com/urfave/cli/v2"
)

var Disasm = &cli.Command{
	Name:      "disasm",
	Usage:     "Prints a listing of class files",
	ArgsUsage: "IN.class...",
	Action: traced("disasm", func(clictx *cli.Context) error {
		if clictx.NArg() == 0 {
			return cli.ShowSubcommandHelp(clictx)
		}
		for _, filename := range clictx.Args().Slice() {
			class, err := readClass(filename)
			if err != nil {
				return cli.Exit(err, 1)
			}
			if err := disasm.Write(clictx.App.Writer, class); err != nil {
				return cli.Exit(err, 1)
			}
		}
		return nil
	}),
}
