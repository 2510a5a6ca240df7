// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2023-present Datadog, Inc.

package classfile

import (
	"testing"

	"github.com/DataDog/weaver/internal/bytecode"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleClass(t *testing.T, major uint16) *Class {
	t.Helper()

	c, err := New("com/example/Sample", "java/lang/Object", major)
	require.NoError(t, err)

	_, err = c.AddField(AccPublic|AccStatic, "asm", "Z")
	require.NoError(t, err)
	greeting, err := c.AddField(AccPrivate|AccStatic|AccFinal, "greeting", "I")
	require.NoError(t, err)
	answer, err := c.Pool.AddInteger(42)
	require.NoError(t, err)
	require.NoError(t, c.SetConstantValue(greeting, answer))

	super, err := c.Pool.AddMethodref("java/lang/Object", Constructor, "()V")
	require.NoError(t, err)
	_, err = c.AddMethod(AccPublic, Constructor, "()V", &bytecode.Code{
		MaxStack:  1,
		MaxLocals: 1,
		Insns:     []bytecode.Insn{bytecode.Op(bytecode.Aload0), bytecode.Ref(bytecode.Invokespecial, super), bytecode.Op(bytecode.Return)},
	})
	require.NoError(t, err)

	loop := bytecode.NewLabel()
	_, err = c.AddMethod(AccPublic|AccStatic, "count", "(I)I", &bytecode.Code{
		MaxStack:  1,
		MaxLocals: 1,
		Insns: []bytecode.Insn{
			bytecode.Mark(loop),
			{Op: bytecode.Iinc, Index: 0, Imm: -1},
			bytecode.Op(bytecode.Iload0),
			bytecode.Jump(bytecode.Ifgt, loop),
			bytecode.Op(bytecode.Iload0),
			bytecode.Op(bytecode.Ireturn),
		},
		Frames: map[*bytecode.Label]bytecode.Frame{loop: {Locals: []bytecode.VType{bytecode.Integer}}},
	})
	require.NoError(t, err)

	_, err = c.AddMethod(AccPublic|AccAbstract, "run", "()V", nil)
	require.NoError(t, err)

	return c
}

func TestRoundTrip(t *testing.T) {
	for _, major := range []uint16{49, 52, 61} {
		c := sampleClass(t, major)
		data, err := c.Bytes()
		require.NoError(t, err)

		parsed, err := Parse(data)
		require.NoError(t, err)
		assert.Equal(t, "com/example/Sample", parsed.Name())
		assert.Equal(t, "java/lang/Object", parsed.SuperName())
		assert.Equal(t, major, parsed.Major)
		require.Len(t, parsed.Fields, 2)
		require.Len(t, parsed.Methods, 3)
		assert.Equal(t, "count", parsed.Methods[1].Name)
		assert.Equal(t, "(I)I", parsed.Methods[1].Descriptor)

		again, err := parsed.Bytes()
		require.NoError(t, err)
		assert.Equal(t, data, again)

		// Decoding and re-encoding every body leaves the class unchanged.
		for _, m := range parsed.Methods {
			code, err := parsed.Code(m)
			require.NoError(t, err)
			if code == nil {
				continue
			}
			require.NoError(t, parsed.SetCode(m, code))
		}
		again, err = parsed.Bytes()
		require.NoError(t, err)
		assert.Equal(t, data, again)
	}
}

func TestCode(t *testing.T) {
	c := sampleClass(t, 52)

	code, err := c.Code(c.Method("count"))
	require.NoError(t, err)
	require.NotNil(t, code)
	assert.Len(t, code.Frames, 1)
	assert.Equal(t, bytecode.Ireturn, code.Insns[len(code.Insns)-1].Op)

	code, err = c.Code(c.Method("run"))
	require.NoError(t, err)
	assert.Nil(t, code)

	old := sampleClass(t, 49)
	code, err = old.Code(old.Method("count"))
	require.NoError(t, err)
	assert.Empty(t, code.Frames, "no StackMapTable before version 50")
}

func TestConstantValue(t *testing.T) {
	c := sampleClass(t, 52)

	_, ok := c.ConstantValue(c.Field("asm"))
	assert.False(t, ok)

	index, ok := c.ConstantValue(c.Field("greeting"))
	require.True(t, ok)
	v, err := c.Pool.Integer(index)
	require.NoError(t, err)
	assert.EqualValues(t, 42, v)

	one, err := c.Pool.AddInteger(1)
	require.NoError(t, err)
	require.NoError(t, c.SetConstantValue(c.Field("greeting"), one))
	index, _ = c.ConstantValue(c.Field("greeting"))
	assert.Equal(t, one, index)
	assert.Len(t, c.Field("greeting").Attributes, 1, "existing attribute is replaced in place")
}

func TestClone(t *testing.T) {
	c := sampleClass(t, 52)
	before, err := c.Bytes()
	require.NoError(t, err)

	clone := c.Clone()
	_, err = clone.Pool.AddUtf8("only in the clone")
	require.NoError(t, err)
	clone.Fields[0].Access = AccPrivate
	clone.Methods[0].Attributes[0].Info[0] = 0xff

	after, err := c.Bytes()
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

func TestTransformPassThrough(t *testing.T) {
	c := sampleClass(t, 52)
	before, err := c.Bytes()
	require.NoError(t, err)

	out, err := Transform(c, PassThrough{})
	require.NoError(t, err)
	after, err := out.Bytes()
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

func TestParseErrors(t *testing.T) {
	_, err := Parse([]byte{0xca, 0xfe, 0xd0, 0x0d})
	require.ErrorIs(t, err, ErrNotClassFile)

	data, err := sampleClass(t, 52).Bytes()
	require.NoError(t, err)

	_, err = Parse(data[:len(data)-1])
	require.Error(t, err)

	_, err = Parse(append(data, 0))
	require.Error(t, err)
}
