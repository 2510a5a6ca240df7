// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2023-present Datadog, Inc.

package weave_test

import (
	"testing"

	"github.com/DataDog/weaver/internal/weave"
	"github.com/stretchr/testify/assert"
)

// recorder is a world where the hooks listed in failing throw, and every
// other invocation succeeds. It records what ran.
type recorder struct {
	failing map[string]bool
	log     []string
}

func (r *recorder) world(c call) (any, *throwable) {
	switch {
	case c.Name == "printStackTrace":
		r.log = append(r.log, "report "+c.Args[0].(*throwable).From)
	case c.Name == "getRouterInject":
		return "registry", nil
	case c.Name == "<init>":
		if r.failing[c.Owner] {
			return nil, &throwable{Class: "java/lang/NoClassDefFoundError", From: c.Owner}
		}
	case c.Name == "privateAddInterceptor":
		r.log = append(r.log, "register "+c.Args[1].(*instance).Class)
	case r.failing[c.Owner]:
		r.log = append(r.log, c.Owner+"."+c.Name+" fails")
		return nil, &throwable{Class: "java/lang/RuntimeException", From: c.Owner}
	default:
		entry := c.Owner + "." + c.Name
		for _, arg := range c.Args {
			entry += " " + arg.(string)
		}
		r.log = append(r.log, entry)
	}
	return nil, nil
}

func TestFailingHookIsIsolated(t *testing.T) {
	hooks := weave.NewHooks(
		map[string]string{"a/P1": "1.0.0", "a/P2": "1.0.0", "a/P3": "1.0.0"},
		[]string{"com.example.A", "com.example.B", "com.example.C"},
		[]string{"r.R1.class", "r.R2.class", "r.R3.class"},
	)
	failing := map[string]bool{"a/P2": true, "com/example/B": true, "r/R2": true}

	for _, mode := range []weave.Mode{weave.Full, weave.Incremental} {
		t.Run(mode.String(), func(t *testing.T) {
			out, _ := transform(t, routerClass(t, 52), hooks, weave.WithMode(mode))
			tail := func(name string) []string {
				if mode == weave.Full {
					return nil
				}
				return []string{"com/example/Tail." + name}
			}

			rec := &recorder{failing: failing}
			interpret(t, out, "trojan", rec.world)
			assert.Equal(t, append([]string{
				"register a/P1",
				"report a/P2",
				"register a/P3",
			}, tail("trojan")...), rec.log)

			rec = &recorder{failing: failing}
			interpret(t, out, "addFlowTask", rec.world, "context", "digraph")
			assert.Equal(t, append([]string{
				"a/P1.addFlowTask context digraph",
				"a/P2.addFlowTask fails",
				"report a/P2",
				"a/P3.addFlowTask context digraph",
			}, tail("addFlowTask")...), rec.log)

			rec = &recorder{failing: failing}
			interpret(t, out, "autowiredInject", rec.world, "target")
			assert.Equal(t, append([]string{
				"com/example/A.autowiredInject target",
				"com/example/B.autowiredInject fails",
				"report com/example/B",
				"com/example/C.autowiredInject target",
			}, tail("autowiredInject")...), rec.log)

			rec = &recorder{failing: failing}
			interpret(t, out, "initDefaultRouteMap", rec.world)
			assert.Equal(t, append([]string{
				"r/R1.addRoute",
				"r/R2.addRoute fails",
				"report r/R2",
				"r/R3.addRoute",
			}, tail("initDefaultRouteMap")...), rec.log)
		})
	}
}

func TestEveryHookFails(t *testing.T) {
	hooks := weave.NewHooks(nil, []string{"a.A", "a.B"}, nil)
	out, _ := transform(t, routerClass(t, 52), hooks, weave.WithIncremental(true))

	rec := &recorder{failing: map[string]bool{"a/A": true, "a/B": true}}
	interpret(t, out, "autowiredInject", rec.world, "target")
	assert.Equal(t, []string{
		"a/A.autowiredInject fails",
		"report a/A",
		"a/B.autowiredInject fails",
		"report a/B",
		"com/example/Tail.autowiredInject",
	}, rec.log)
}
