// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2023-present Datadog, Inc.

package weave_test

import (
	"encoding/binary"
	"testing"

	"github.com/DataDog/weaver/internal/bytecode"
	"github.com/DataDog/weaver/internal/classfile"
	"github.com/stretchr/testify/require"
)

const (
	injecter    = "com/therouter/TheRouterServiceProvideInjecter"
	contextDesc = "Landroid/content/Context;"
	digraphDesc = "Lcom/therouter/flow/Digraph;"
)

// routerClass returns a class shaped like the generated injecter: the marker
// field, the four static marker methods, a constructor and an unrelated
// method. Each marker method's original body calls Tail.<marker name>()V
// before returning.
func routerClass(t *testing.T, major uint16) *classfile.Class {
	t.Helper()

	c, err := classfile.New(injecter, "java/lang/Object", major)
	require.NoError(t, err)

	_, err = c.AddField(classfile.AccPublic|classfile.AccStatic, "asm", "Z")
	require.NoError(t, err)
	_, err = c.AddField(classfile.AccPublic|classfile.AccStatic, "other", "Z")
	require.NoError(t, err)

	super, err := c.Pool.AddMethodref("java/lang/Object", classfile.Constructor, "()V")
	require.NoError(t, err)
	addMethod(t, c, classfile.AccPublic, classfile.Constructor, "()V",
		bytecode.Op(bytecode.Aload0), bytecode.Ref(bytecode.Invokespecial, super), bytecode.Op(bytecode.Return))

	static := classfile.AccPublic | classfile.AccStatic
	addMethod(t, c, static, "trojan", "()V", tail(t, c, "trojan")...)
	addMethod(t, c, static, "addFlowTask", "("+contextDesc+digraphDesc+")V", tail(t, c, "addFlowTask")...)
	addMethod(t, c, static, "autowiredInject", "(Ljava/lang/Object;)V", tail(t, c, "autowiredInject")...)
	addMethod(t, c, static, "initDefaultRouteMap", "()V", tail(t, c, "initDefaultRouteMap")...)
	addMethod(t, c, static, "unrelated", "()I", bytecode.Op(bytecode.Iconst1), bytecode.Op(bytecode.Ireturn))

	return c
}

func tail(t *testing.T, c *classfile.Class, name string) []bytecode.Insn {
	ref, err := c.Pool.AddMethodref("com/example/Tail", name, "()V")
	require.NoError(t, err)
	return []bytecode.Insn{bytecode.Ref(bytecode.Invokestatic, ref), bytecode.Op(bytecode.Return)}
}

func addMethod(t *testing.T, c *classfile.Class, access uint16, name, desc string, insns ...bytecode.Insn) *classfile.Member {
	t.Helper()
	m, err := c.AddMethod(access, name, desc, &bytecode.Code{MaxStack: 2, MaxLocals: 3, Insns: insns})
	require.NoError(t, err)
	return m
}

// code decodes the body of the named method.
func code(t *testing.T, c *classfile.Class, name string) *bytecode.Code {
	t.Helper()
	m := c.Method(name)
	require.NotNil(t, m, "method %s", name)
	code, err := c.Code(m)
	require.NoError(t, err)
	require.NotNil(t, code)
	return code
}

// rawCode returns the instruction bytes of the named method.
func rawCode(t *testing.T, c *classfile.Class, name string) []byte {
	t.Helper()
	m := c.Method(name)
	require.NotNil(t, m, "method %s", name)
	i := c.FindAttribute(m.Attributes, classfile.AttrCode)
	require.GreaterOrEqual(t, i, 0)
	info := m.Attributes[i].Info
	length := binary.BigEndian.Uint32(info[4:])
	return info[8 : 8+length]
}

// ops lists the opcodes of the named method, labels excluded.
func ops(t *testing.T, c *classfile.Class, name string) []bytecode.Opcode {
	t.Helper()
	var res []bytecode.Opcode
	for _, insn := range code(t, c, name).Insns {
		if !insn.IsMark() {
			res = append(res, insn.Op)
		}
	}
	return res
}

// calls lists the methods invoked by the named method, as owner.name.
func calls(t *testing.T, c *classfile.Class, name string) []string {
	t.Helper()
	var res []string
	for _, insn := range code(t, c, name).Insns {
		if insn.IsMark() || !insn.Op.IsInvoke() {
			continue
		}
		owner, method, _, err := c.Pool.MemberRef(insn.Index)
		require.NoError(t, err)
		res = append(res, owner+"."+method)
	}
	return res
}

func classBytes(t *testing.T, c *classfile.Class) []byte {
	t.Helper()
	data, err := c.Bytes()
	require.NoError(t, err)
	return data
}
