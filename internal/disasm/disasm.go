// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2023-present Datadog, Inc.

// Package disasm renders classes as a stable, human readable listing. The
// listing is meant to be diffed before and after weaving.
package disasm

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/DataDog/weaver/internal/bytecode"
	"github.com/DataDog/weaver/internal/classfile"
)

// Write renders c to w.
func Write(w io.Writer, c *classfile.Class) error {
	var sb strings.Builder
	if err := render(&sb, c); err != nil {
		return err
	}
	_, err := io.WriteString(w, sb.String())
	return err
}

// String renders c.
func String(c *classfile.Class) (string, error) {
	var sb strings.Builder
	err := render(&sb, c)
	return sb.String(), err
}

func render(sb *strings.Builder, c *classfile.Class) error {
	fmt.Fprintf(sb, "class %s", c.Name())
	if super := c.SuperName(); super != "" {
		fmt.Fprintf(sb, " extends %s", super)
	}
	fmt.Fprintf(sb, " (version %d.%d)\n", c.Major, c.Minor)

	for _, f := range c.Fields {
		fmt.Fprintf(sb, "  field %s%s %s", access(f.Access), f.Name, f.Descriptor)
		if index, ok := c.ConstantValue(f); ok {
			fmt.Fprintf(sb, " = %s", constant(c.Pool, index))
		}
		sb.WriteByte('\n')
	}

	for _, m := range c.Methods {
		fmt.Fprintf(sb, "  method %s%s %s", access(m.Access), m.Name, m.Descriptor)
		code, err := c.Code(m)
		if err != nil {
			return err
		}
		if code == nil {
			sb.WriteString(" [no code]\n")
			continue
		}
		fmt.Fprintf(sb, " [stack %d, locals %d]\n", code.MaxStack, code.MaxLocals)
		(&method{pool: c.Pool, code: code}).render(sb)
	}
	return nil
}

var accessNames = []struct {
	flag uint16
	name string
}{
	{classfile.AccPublic, "public"},
	{classfile.AccPrivate, "private"},
	{classfile.AccProtected, "protected"},
	{classfile.AccStatic, "static"},
	{classfile.AccFinal, "final"},
	{classfile.AccAbstract, "abstract"},
	{classfile.AccNative, "native"},
}

func access(flags uint16) string {
	var sb strings.Builder
	for _, a := range accessNames {
		if flags&a.flag != 0 {
			sb.WriteString(a.name)
			sb.WriteByte(' ')
		}
	}
	return sb.String()
}

type method struct {
	pool   *classfile.Pool
	code   *bytecode.Code
	labels map[*bytecode.Label]string
}

func (m *method) render(sb *strings.Builder) {
	m.labels = make(map[*bytecode.Label]string)
	for _, insn := range m.code.Insns {
		if insn.IsMark() {
			m.labels[insn.Mark] = "L" + strconv.Itoa(len(m.labels))
		}
	}

	for _, insn := range m.code.Insns {
		if insn.IsMark() {
			fmt.Fprintf(sb, "   %s:", m.label(insn.Mark))
			if f, ok := m.code.Frames[insn.Mark]; ok {
				fmt.Fprintf(sb, " frame locals=%s stack=%s", vtypes(f.Locals), vtypes(f.Stack))
			}
			sb.WriteByte('\n')
			continue
		}
		fmt.Fprintf(sb, "      %s\n", m.insn(insn))
	}

	for _, tc := range m.code.TryCatches {
		catch := "any"
		if tc.CatchType != 0 {
			catch = className(m.pool, tc.CatchType)
		}
		fmt.Fprintf(sb, "    try %s %s -> %s %s\n", m.label(tc.Start), m.label(tc.End), m.label(tc.Handler), catch)
	}
}

func (m *method) label(l *bytecode.Label) string {
	if name, ok := m.labels[l]; ok {
		return name
	}
	return "L?"
}

func (m *method) insn(insn bytecode.Insn) string {
	op := insn.Op
	name := op.String()
	if insn.Wide {
		name = "wide " + name
	}
	switch {
	case op == bytecode.Tableswitch, op == bytecode.Lookupswitch:
		return name + " " + m.switchTable(insn.Switch)
	case op.IsBranch():
		return name + " " + m.label(insn.Target)
	case op.IsInvoke(), op >= bytecode.Getstatic && op <= bytecode.Putfield:
		return name + " " + memberRef(m.pool, insn.Index)
	case op == bytecode.Ldc, op == bytecode.LdcW, op == bytecode.Ldc2W:
		return name + " " + constant(m.pool, insn.Index)
	case op == bytecode.New, op == bytecode.Anewarray, op == bytecode.Checkcast, op == bytecode.Instanceof:
		return name + " " + className(m.pool, insn.Index)
	case op == bytecode.Multianewarray:
		return fmt.Sprintf("%s %s %d", name, className(m.pool, insn.Index), insn.Imm)
	case op == bytecode.Iinc:
		return fmt.Sprintf("%s %d %d", name, insn.Index, insn.Imm)
	case op >= bytecode.Iload && op <= bytecode.Aload, op >= bytecode.Istore && op <= bytecode.Astore, op == bytecode.Ret:
		return fmt.Sprintf("%s %d", name, insn.Index)
	case op == bytecode.Bipush, op == bytecode.Sipush, op == bytecode.Newarray:
		return fmt.Sprintf("%s %d", name, insn.Imm)
	default:
		return name
	}
}

func (m *method) switchTable(s *bytecode.Switch) string {
	if s == nil {
		return "{}"
	}
	var cases []string
	for i, target := range s.Targets {
		key := s.Low + int32(i)
		if s.Keys != nil {
			key = s.Keys[i]
		}
		cases = append(cases, fmt.Sprintf("%d: %s", key, m.label(target)))
	}
	cases = append(cases, "default: "+m.label(s.Default))
	return "{ " + strings.Join(cases, ", ") + " }"
}

func vtypes(types []bytecode.VType) string {
	names := make([]string, len(types))
	for i, t := range types {
		names[i] = t.String()
	}
	return "[" + strings.Join(names, " ") + "]"
}

func memberRef(pool *classfile.Pool, index uint16) string {
	owner, name, desc, err := pool.MemberRef(index)
	if err != nil {
		return fmt.Sprintf("#%d", index)
	}
	return fmt.Sprintf("%s.%s %s", owner, name, desc)
}

func className(pool *classfile.Pool, index uint16) string {
	name, err := pool.ClassName(index)
	if err != nil {
		return fmt.Sprintf("#%d", index)
	}
	return name
}

func constant(pool *classfile.Pool, index uint16) string {
	c, err := pool.At(index)
	if err != nil {
		return fmt.Sprintf("#%d", index)
	}
	switch c.Tag {
	case classfile.TagInteger:
		v, _ := pool.Integer(index)
		return strconv.Itoa(int(v))
	case classfile.TagClass:
		return className(pool, index) + ".class"
	case classfile.TagString:
		s, err := pool.Utf8(uint16(c.Data[0])<<8 | uint16(c.Data[1]))
		if err != nil {
			return fmt.Sprintf("#%d", index)
		}
		return strconv.Quote(s)
	default:
		return fmt.Sprintf("#%d", index)
	}
}
