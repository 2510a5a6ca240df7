// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2023-present Datadog, Inc.

package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/DataDog/weaver/internal/classfile"
	"github.com/DataDog/weaver/internal/config"
	"github.com/DataDog/weaver/internal/manifest"
	"github.com/DataDog/weaver/internal/weave"
	"github.com/urfave/cli/v2"
	"gopkg.in/DataDog/dd-trace-go.v1/ddtrace/tracer"
)

var (
	flagManifest = &cli.StringFlag{
		Name:     "manifest",
		Aliases:  []string{"m"},
		Usage:    "discovery manifest listing the hooks to inject",
		Required: true,
	}
	flagConfig = &cli.StringFlag{
		Name:    "config",
		Aliases: []string{"c"},
		Usage:   "runtime profile overriding the default marker and library names",
		EnvVars: []string{"WEAVER_CONFIG"},
	}
	flagIncremental = &cli.BoolFlag{
		Name:  "incremental",
		Usage: "keep the original marker bodies after the injected code (defaults to the manifest's setting)",
	}
)

// newEngine builds the weaving engine described by the command line.
func newEngine(clictx *cli.Context) (*weave.Engine, error) {
	m, err := manifest.Load(clictx.String(flagManifest.Name))
	if err != nil {
		return nil, fmt.Errorf("loading manifest: %w", err)
	}

	profile := config.Default()
	if filename := clictx.String(flagConfig.Name); filename != "" {
		if profile, err = config.Load(filename); err != nil {
			return nil, fmt.Errorf("loading profile: %w", err)
		}
	}
	m.Check(profile.Providers.Sentinel)

	incremental := m.Incremental != nil && *m.Incremental
	if clictx.IsSet(flagIncremental.Name) {
		incremental = clictx.Bool(flagIncremental.Name)
	}

	return weave.New(m.Hooks(), weave.WithProfile(profile), weave.WithIncremental(incremental)), nil
}

// traced runs action inside a span named after the command.
func traced(operation string, action cli.ActionFunc) cli.ActionFunc {
	return func(clictx *cli.Context) (err error) {
		span, ctx := tracer.StartSpanFromContext(clictx.Context, "weaver."+operation,
			tracer.ResourceName(strings.Join(clictx.Args().Slice(), " ")),
		)
		defer func() { span.Finish(tracer.WithError(err)) }()

		clictx.Context = ctx
		return action(clictx)
	}
}

func readClass(filename string) (*classfile.Class, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, err
	}
	class, err := classfile.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", filename, err)
	}
	return class, nil
}

// weaveFile rewrites the class stored in "in" and writes the result to "out",
// which may be the same file.
func weaveFile(e *weave.Engine, in, out string) (weave.Result, error) {
	class, err := readClass(in)
	if err != nil {
		return weave.Result{}, err
	}
	woven, res, err := e.Transform(class)
	if err != nil {
		return weave.Result{}, fmt.Errorf("%s: %w", in, err)
	}
	data, err := woven.Bytes()
	if err != nil {
		return weave.Result{}, fmt.Errorf("encoding %s: %w", class.Name(), err)
	}

	perm := os.FileMode(0o644)
	if info, err := os.Stat(in); err == nil {
		perm = info.Mode().Perm()
	}
	if err := os.WriteFile(out, data, perm); err != nil {
		return weave.Result{}, err
	}
	return res, nil
}
