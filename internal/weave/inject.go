// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2023-present Datadog, Inc.

// Package weave rewrites the marker declarations of a class so that the hooks
// found by the discovery phase are registered when the class runs. Each hook
// invocation is isolated in its own catch-all region, so a broken hook never
// prevents the others from being registered.
package weave

import (
	"errors"
	"fmt"
	"strings"

	"github.com/DataDog/weaver/internal/bytecode"
	"github.com/DataDog/weaver/internal/classfile"
	"github.com/DataDog/weaver/internal/config"
	"github.com/DataDog/weaver/internal/log"
)

var (
	// ErrNoCode is returned when a marker method has no body to inject into.
	ErrNoCode = errors.New("marker method has no code")
	// ErrArity is returned when a marker method declares fewer parameters than
	// its hooks expect to receive.
	ErrArity = errors.New("marker method does not declare the forwarded parameters")
)

// Marker identifies one of the marker methods.
type Marker uint8

const (
	NotMarker Marker = iota
	Interceptors
	FlowTasks
	Autowired
	Routes
)

func (m Marker) String() string {
	switch m {
	case Interceptors:
		return "interceptors"
	case FlowTasks:
		return "flow-tasks"
	case Autowired:
		return "autowired"
	case Routes:
		return "routes"
	default:
		return "none"
	}
}

type (
	// Engine rewrites classes for one set of hooks. An Engine holds no mutable
	// state; it can be used from several goroutines at once.
	Engine struct {
		hooks   Hooks
		profile config.Profile
		mode    Mode
	}

	// Option configures an Engine.
	Option func(*Engine)

	// Result describes what a call to Transform changed.
	Result struct {
		Class        string
		Mode         Mode
		FieldPatched bool
		Methods      []MethodResult
	}

	// MethodResult describes the rewrite of one marker method.
	MethodResult struct {
		Name       string
		Descriptor string
		Marker     Marker
		// Injected lists the hook classes invoked by the method, in order.
		Injected []string
		// Skipped lists the service providers left out of flow task
		// registration because they have no usable version.
		Skipped []string
		// Rewritten is false when the method was left as-is.
		Rewritten bool
	}
)

// WithProfile replaces the default names of the marker declarations and of
// the run-time library.
func WithProfile(p config.Profile) Option {
	return func(e *Engine) { e.profile = p }
}

// WithMode selects between full and incremental rewriting. The default is
// Full.
func WithMode(m Mode) Option {
	return func(e *Engine) { e.mode = m }
}

// WithIncremental is a shorthand for WithMode(Incremental) when incremental
// is true, and WithMode(Full) otherwise.
func WithIncremental(incremental bool) Option {
	if incremental {
		return WithMode(Incremental)
	}
	return WithMode(Full)
}

// New returns an engine injecting hooks.
func New(hooks Hooks, opts ...Option) *Engine {
	e := &Engine{hooks: hooks, profile: config.Default(), mode: Full}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Mode returns the engine's rewriting mode.
func (e *Engine) Mode() Mode {
	return e.mode
}

// Transform returns a rewritten copy of class. The input is never modified;
// on error no class is returned.
func (e *Engine) Transform(class *classfile.Class) (*classfile.Class, Result, error) {
	r := &rewriter{Engine: e, result: Result{Class: class.Name(), Mode: e.mode}}
	out, err := classfile.Transform(class, r)
	if err != nil {
		return nil, Result{}, fmt.Errorf("weaving %s: %w", class.Name(), err)
	}
	return out, r.result, nil
}

// rewriter carries the state of a single Transform call.
type rewriter struct {
	*Engine
	result Result
}

// Changed reports whether anything was rewritten.
func (r Result) Changed() bool {
	if r.FieldPatched {
		return true
	}
	for _, m := range r.Methods {
		if m.Rewritten {
			return true
		}
	}
	return false
}

func (e *Engine) marker(m *classfile.Member) Marker {
	if m.Name == classfile.Constructor {
		return NotMarker
	}
	switch m.Name {
	case e.profile.Methods.Interceptors:
		return Interceptors
	case e.profile.Methods.FlowTasks:
		return FlowTasks
	case e.profile.Methods.Autowired:
		return Autowired
	case e.profile.Methods.Routes:
		return Routes
	default:
		return NotMarker
	}
}

// VisitMethod injects the hooks matching a marker method at its entry.
func (r *rewriter) VisitMethod(c *classfile.Class, m *classfile.Member) error {
	marker := r.marker(m)
	if marker == NotMarker {
		return nil
	}

	code, err := c.Code(m)
	if err != nil {
		return err
	}
	if code == nil {
		return ErrNoCode
	}
	env, err := c.Env(m)
	if err != nil {
		return err
	}
	p := newPrefix(c, env, r.profile.Report)

	res := MethodResult{Name: m.Name, Descriptor: m.Descriptor, Marker: marker}
	if err := r.inject(c.Pool, marker, p, &res); err != nil {
		return err
	}

	changed, err := r.mode.apply(code, p)
	if err != nil {
		return err
	}
	if changed {
		if err := c.SetCode(m, code); err != nil {
			return err
		}
	}
	res.Rewritten = changed

	log.Debugf("%s.%s%s: %d hooks injected (%s)\n", c.Name(), m.Name, m.Descriptor, len(res.Injected), r.mode)
	r.result.Methods = append(r.result.Methods, res)
	return nil
}

func (r *rewriter) inject(pool *classfile.Pool, marker Marker, p *prefix, res *MethodResult) error {
	var (
		targets []string
		call    invocation
		forward int
	)

	switch marker {
	case Interceptors:
		targets = r.providers()
		call = r.registerInterceptor(pool)
	case FlowTasks:
		for _, name := range r.hooks.Providers() {
			target := r.providerClass(name)
			if v, ok := r.providerVersion(target); !ok || v == r.profile.Providers.Sentinel {
				res.Skipped = append(res.Skipped, target)
				continue
			}
			targets = append(targets, target)
		}
		call = r.staticCall(pool, r.profile.FlowTask)
		forward = 2
	case Autowired:
		for _, name := range r.hooks.Autowired() {
			targets = append(targets, strings.ReplaceAll(name, ".", "/"))
		}
		call = r.staticCall(pool, r.profile.Autowired)
		forward = 1
	case Routes:
		for _, name := range r.hooks.Routes() {
			targets = append(targets, strings.ReplaceAll(strings.TrimSuffix(name, r.profile.RouteSuffix), ".", "/"))
		}
		call = r.staticCall(pool, r.profile.Route)
	}

	// The arity is a property of the marker method, not of the hooks found.
	if err := p.checkArity(forward); err != nil {
		return err
	}
	for _, target := range targets {
		if err := p.emitGuarded(target, call, forward); err != nil {
			return err
		}
		res.Injected = append(res.Injected, target)
	}
	return nil
}

// providerClass returns the class name of a service provider, adding the
// provider package prefix when missing.
func (e *Engine) providerClass(name string) string {
	if strings.HasPrefix(name, e.profile.Providers.Prefix) {
		return name
	}
	return e.profile.Providers.Prefix + name
}

func (e *Engine) providers() []string {
	names := e.hooks.Providers()
	for i, name := range names {
		names[i] = e.providerClass(name)
	}
	return names
}

// providerVersion looks the version of a provider class up, first under its
// prefixed name, then under its bare name: discovery records either.
func (e *Engine) providerVersion(class string) (string, bool) {
	if v, ok := e.hooks.Version(class); ok {
		return v, true
	}
	return e.hooks.Version(strings.TrimPrefix(class, e.profile.Providers.Prefix))
}

// registerInterceptor creates a new instance of the hook class and registers
// it into the interceptor registry.
func (e *Engine) registerInterceptor(pool *classfile.Pool) invocation {
	reg := e.profile.Registry
	return func(target string) ([]bytecode.Insn, int, error) {
		accessor, err := pool.AddMethodref(reg.Owner, reg.Accessor, reg.AccessorDescriptor)
		if err != nil {
			return nil, 0, err
		}
		class, err := pool.AddClass(target)
		if err != nil {
			return nil, 0, err
		}
		ctor, err := pool.AddMethodref(target, classfile.Constructor, "()V")
		if err != nil {
			return nil, 0, err
		}
		register, err := pool.AddMethodref(reg.Type, reg.Register, reg.RegisterDescriptor)
		if err != nil {
			return nil, 0, err
		}
		return []bytecode.Insn{
			bytecode.Ref(bytecode.Invokestatic, accessor),
			bytecode.Ref(bytecode.New, class),
			bytecode.Op(bytecode.Dup),
			bytecode.Ref(bytecode.Invokespecial, ctor),
			bytecode.Ref(bytecode.Invokevirtual, register),
		}, 3, nil
	}
}

// staticCall invokes a static method of the hook class, with the forwarded
// parameters as arguments.
func (e *Engine) staticCall(pool *classfile.Pool, m config.Call) invocation {
	return func(target string) ([]bytecode.Insn, int, error) {
		ref, err := pool.AddMethodref(target, m.Name, m.Descriptor)
		if err != nil {
			return nil, 0, err
		}
		return []bytecode.Insn{bytecode.Ref(bytecode.Invokestatic, ref)}, 0, nil
	}
}
