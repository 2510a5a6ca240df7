// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2023-present Datadog, Inc.

package weave_test

import (
	"fmt"
	"testing"

	"github.com/DataDog/weaver/internal/bytecode"
	"github.com/DataDog/weaver/internal/classfile"
	"github.com/stretchr/testify/require"
)

type (
	// call is a method invocation observed by the interpreter.
	call struct {
		Op    bytecode.Opcode
		Owner string
		Name  string
		Args  []any
	}

	// throwable is a value thrown by an invoked method.
	throwable struct {
		Class string
		From  string
	}

	// instance is an object created by the new instruction.
	instance struct {
		Class string
	}

	// world implements the methods invoked by the interpreted code. A non-nil
	// throwable makes the invocation throw.
	world func(c call) (any, *throwable)
)

// interpret runs the named static method of c with args, interpreting the
// small instruction subset used by injected code and the test bodies. It
// fails the test when a throwable escapes the method.
func interpret(t *testing.T, c *classfile.Class, method string, w world, args ...any) {
	t.Helper()

	code := code(t, c, method)
	var (
		insns []bytecode.Insn
		at    = make(map[*bytecode.Label]int)
	)
	for _, insn := range code.Insns {
		if insn.IsMark() {
			at[insn.Mark] = len(insns)
			continue
		}
		insns = append(insns, insn)
	}

	locals := make([]any, code.MaxLocals)
	copy(locals, args)
	var stack []any
	pop := func() any {
		require.NotEmpty(t, stack, "stack underflow")
		v := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		return v
	}

	for pc, steps := 0, 0; ; steps++ {
		require.Less(t, steps, 10_000, "runaway execution")
		require.Less(t, pc, len(insns), "fell off the end of %s", method)

		insn := insns[pc]
		next := pc + 1
		switch op := insn.Op; {
		case op == bytecode.Nop:
		case op == bytecode.Iconst0, op == bytecode.Iconst1:
			stack = append(stack, int(op-bytecode.Iconst0))
		case op >= bytecode.Aload0 && op <= bytecode.Aload3:
			stack = append(stack, locals[op-bytecode.Aload0])
		case op == bytecode.Aload:
			stack = append(stack, locals[insn.Index])
		case op >= bytecode.Astore0 && op <= bytecode.Astore3:
			locals[op-bytecode.Astore0] = pop()
		case op == bytecode.Astore:
			locals[insn.Index] = pop()
		case op == bytecode.Dup:
			v := pop()
			stack = append(stack, v, v)
		case op == bytecode.New:
			name, err := c.Pool.ClassName(insn.Index)
			require.NoError(t, err)
			stack = append(stack, &instance{Class: name})
		case op == bytecode.Goto:
			next = at[insn.Target]
		case op.IsReturn():
			return
		case op.IsInvoke():
			owner, name, desc, err := c.Pool.MemberRef(insn.Index)
			require.NoError(t, err)
			mt, err := bytecode.ParseMethodType(desc)
			require.NoError(t, err)
			n := len(mt.Params)
			if op != bytecode.Invokestatic {
				n++
			}
			require.GreaterOrEqual(t, len(stack), n, "stack underflow")
			callArgs := append([]any(nil), stack[len(stack)-n:]...)
			stack = stack[:len(stack)-n]

			res, exc := w(call{Op: op, Owner: owner, Name: name, Args: callArgs})
			if exc == nil {
				if mt.Return != "V" {
					stack = append(stack, res)
				}
				break
			}
			handler, ok := findHandler(t, c, code, at, pc)
			require.True(t, ok, "%s.%s threw outside of any handler", owner, name)
			stack = append(stack[:0], exc)
			next = handler
		default:
			t.Fatalf("unsupported instruction %s", op)
		}
		pc = next
	}
}

func findHandler(t *testing.T, c *classfile.Class, code *bytecode.Code, at map[*bytecode.Label]int, pc int) (int, bool) {
	for _, tc := range code.TryCatches {
		if pc < at[tc.Start] || pc >= at[tc.End] {
			continue
		}
		if tc.CatchType != 0 {
			name, err := c.Pool.ClassName(tc.CatchType)
			require.NoError(t, err)
			if name != "java/lang/Throwable" {
				continue
			}
		}
		return at[tc.Handler], true
	}
	return 0, false
}

func (c call) String() string {
	return fmt.Sprintf("%s %s.%s%v", c.Op, c.Owner, c.Name, c.Args)
}
