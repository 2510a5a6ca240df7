// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2023-present Datadog, Inc.

package weave

import (
	"fmt"

	"github.com/DataDog/weaver/internal/bytecode"
	"github.com/DataDog/weaver/internal/classfile"
	"github.com/DataDog/weaver/internal/config"
)

// invocation produces the call sequence of one unit for a given hook class,
// once the forwarded parameters are on the stack. It returns the instructions
// and the maximum number of stack words they use on top of the forwarded
// parameters.
type invocation func(target string) ([]bytecode.Insn, int, error)

// prefix accumulates the guarded units injected at the entry of one method.
type prefix struct {
	pool *classfile.Pool
	env  bytecode.Env
	rep  config.Report

	insns      []bytecode.Insn
	tryCatches []bytecode.TryCatch
	frames     map[*bytecode.Label]bytecode.Frame
	maxStack   int
	units      int

	// scratch is the local variable receiving the caught throwable: the first
	// slot past the parameters.
	scratch uint16
	entry   bytecode.Frame
	// catchType and report are resolved with the first unit, so that methods
	// receiving no unit leave the constant pool alone.
	catchType uint16
	report    []bytecode.Insn
}

func newPrefix(c *classfile.Class, env bytecode.Env, rep config.Report) *prefix {
	return &prefix{
		pool:    c.Pool,
		env:     env,
		rep:     rep,
		frames:  make(map[*bytecode.Label]bytecode.Frame),
		scratch: env.Type.ParamSlots(env.Static),
		entry:   bytecode.InitialFrame(env),
	}
}

func (p *prefix) resolveHandler() error {
	if p.report != nil {
		return nil
	}

	var err error
	if p.catchType, err = p.pool.AddClass(config.Throwable); err != nil {
		return err
	}
	ref, err := p.pool.AddMethodref(p.rep.Owner, p.rep.Name, p.rep.Descriptor)
	if err != nil {
		return err
	}
	op := bytecode.Invokevirtual
	if p.rep.Static {
		op = bytecode.Invokestatic
	}
	p.report = []bytecode.Insn{bytecode.Var(bytecode.Aload, p.scratch), bytecode.Ref(op, ref)}
	return nil
}

// emitGuarded appends one unit: the first forward parameters of the method
// are loaded, call is invoked for target, and any throwable raised in between
// is caught and reported before execution continues with the next unit.
//
//	start:   load params; call
//	end:     goto cont
//	handler: astore s; aload s; report
//	cont:
func (p *prefix) emitGuarded(target string, call invocation, forward int) error {
	if err := p.checkArity(forward); err != nil {
		return err
	}
	if err := p.resolveHandler(); err != nil {
		return err
	}

	var (
		start   = bytecode.NewLabel()
		end     = bytecode.NewLabel()
		handler = bytecode.NewLabel()
		cont    = bytecode.NewLabel()
		depth   int
	)

	p.insns = append(p.insns, bytecode.Mark(start))
	for i := 0; i < forward; i++ {
		load, words := p.env.Type.LoadParam(i, p.env.Static)
		p.insns = append(p.insns, load)
		depth += words
	}
	body, stack, err := call(target)
	if err != nil {
		return fmt.Errorf("hook %s: %w", target, err)
	}
	p.insns = append(p.insns, body...)
	p.insns = append(p.insns,
		bytecode.Mark(end),
		bytecode.Jump(bytecode.Goto, cont),
		bytecode.Mark(handler),
		bytecode.Var(bytecode.Astore, p.scratch),
	)
	p.insns = append(p.insns, p.report...)
	p.insns = append(p.insns, bytecode.Mark(cont))

	p.tryCatches = append(p.tryCatches, bytecode.TryCatch{Start: start, End: end, Handler: handler, CatchType: p.catchType})
	if p.env.Frames {
		p.frames[handler] = bytecode.Frame{Locals: p.entry.Locals, Stack: []bytecode.VType{bytecode.Object(config.Throwable)}}
		p.frames[cont] = bytecode.Frame{Locals: p.entry.Locals}
	}

	// The handler holds the throwable on the stack.
	p.maxStack = max(p.maxStack, depth+stack, 1)
	p.units++
	return nil
}

func (p *prefix) checkArity(forward int) error {
	if forward > len(p.env.Type.Params) {
		return fmt.Errorf("%w: %s has %d parameters, %d are forwarded", ErrArity, p.env.Type, len(p.env.Type.Params), forward)
	}
	return nil
}

// maxLocals is the number of local slots used by the method's parameters and
// the prefix.
func (p *prefix) maxLocals() uint16 {
	if p.units == 0 {
		return p.scratch
	}
	return p.scratch + 1
}
