// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2023-present Datadog, Inc.

package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"strconv"

	"github.com/DataDog/weaver/internal/cmd"
	"github.com/DataDog/weaver/internal/log"
	"github.com/DataDog/weaver/internal/version"
	"github.com/urfave/cli/v2"
	"gopkg.in/DataDog/dd-trace-go.v1/ddtrace/tracer"
)

func main() {
	os.Exit(run(os.Args))
}

func run(args []string) int {
	defer log.Close()

	if enabled, _ := strconv.ParseBool(os.Getenv("DD_TRACE_ENABLED")); enabled {
		tracer.Start(
			tracer.WithService("weaver"),
			tracer.WithServiceVersion(version.Tag()),
			tracer.WithLogStartup(false),
		)
		defer tracer.Stop()
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	app := &cli.App{
		Name:            "weaver",
		Usage:           "Registers the hooks found at build time into a router's generated injecter class",
		Version:         version.Tag(),
		HideVersion:     true,
		HideHelpCommand: true,
		Commands: []*cli.Command{
			cmd.Inject,
			cmd.Batch,
			cmd.Diff,
			cmd.Disasm,
			cmd.Version,
		},
		// Exit codes are handled below, so that deferred calls still run.
		ExitErrHandler: func(*cli.Context, error) {},
	}

	err := app.RunContext(ctx, args)
	if err == nil {
		return 0
	}

	var exit cli.ExitCoder
	if errors.As(err, &exit) {
		if msg := exit.Error(); msg != "" {
			_, _ = app.ErrWriter.Write([]byte(msg + "\n"))
		}
		log.Errorf("%v\n", err)
		return exit.ExitCode()
	}
	_, _ = app.ErrWriter.Write([]byte(err.Error() + "\n"))
	log.Errorf("%v\n", err)
	return 1
}
