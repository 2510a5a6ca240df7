// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2023-present Datadog, Inc.

package bytecode

import (
	"errors"
	"fmt"
	"math"

	"github.com/DataDog/weaver/internal/binio"
)

var (
	// ErrBranchOverflow is returned when a 16-bit branch cannot reach its target.
	ErrBranchOverflow = errors.New("branch offset overflows 16 bits")
	// ErrUnboundLabel is returned when an instruction, exception table entry or
	// frame references a label that is not marked in the instruction list.
	ErrUnboundLabel = errors.New("label is not bound")
	// ErrCodeSize is returned when the encoded instructions do not fit a Code
	// attribute.
	ErrCodeSize = errors.New("invalid code size")
)

// Layout computes the offset of every label in insns, and the total size of
// the encoded instructions, assuming the list starts at offset 0.
func Layout(insns []Insn) (map[*Label]int, int, error) {
	pos := make(map[*Label]int)
	pc := 0
	for _, insn := range insns {
		if insn.IsMark() {
			if _, dup := pos[insn.Mark]; dup {
				return nil, 0, fmt.Errorf("label bound twice (offset %d)", pc)
			}
			pos[insn.Mark] = pc
			continue
		}
		size, err := insnSize(insn, pc)
		if err != nil {
			return nil, 0, err
		}
		pc += size
	}
	return pos, pc, nil
}

func isWide(insn Insn) bool {
	if insn.Wide || insn.Index > math.MaxUint8 {
		return true
	}
	return insn.Op == Iinc && (insn.Imm < math.MinInt8 || insn.Imm > math.MaxInt8)
}

func insnSize(insn Insn, pc int) (int, error) {
	if !insn.Op.Valid() {
		return 0, fmt.Errorf("invalid opcode 0x%02x at %d", uint8(insn.Op), pc)
	}
	switch insn.Op.shape() {
	case shapeNone:
		return 1, nil
	case shapeLocal:
		if isWide(insn) {
			return 4, nil
		}
		return 2, nil
	case shapeIinc:
		if isWide(insn) {
			return 6, nil
		}
		return 3, nil
	case shapeByte, shapeConst1:
		return 2, nil
	case shapeShort, shapeConst2, shapeBranch:
		return 3, nil
	case shapeMultiANewArray:
		return 4, nil
	case shapeInvokeInterface, shapeInvokeDynamic, shapeBranchWide:
		return 5, nil
	case shapeTableSwitch, shapeLookupSwitch:
		if insn.Switch == nil {
			return 0, fmt.Errorf("%s at %d has no jump table", insn.Op, pc)
		}
		n := len(insn.Switch.Targets)
		if insn.Op == Tableswitch {
			if int64(insn.Switch.High)-int64(insn.Switch.Low)+1 != int64(n) {
				return 0, fmt.Errorf("tableswitch at %d covers %d..%d with %d targets", pc, insn.Switch.Low, insn.Switch.High, n)
			}
			return 1 + switchPadding(pc) + 12 + 4*n, nil
		}
		if len(insn.Switch.Keys) != n {
			return 0, fmt.Errorf("lookupswitch at %d has %d keys for %d targets", pc, len(insn.Switch.Keys), n)
		}
		return 1 + switchPadding(pc) + 8 + 8*n, nil
	default:
		return 0, fmt.Errorf("%s cannot appear on its own at %d", insn.Op, pc)
	}
}

type encoder struct {
	env Env
	pos map[*Label]int
}

func (e *encoder) offset(l *Label) (int, error) {
	if l == nil {
		return 0, fmt.Errorf("%w: nil label", ErrUnboundLabel)
	}
	off, ok := e.pos[l]
	if !ok {
		return 0, ErrUnboundLabel
	}
	return off, nil
}

// Encode serializes c into the contents of a Code attribute.
func (c *Code) Encode(env Env) ([]byte, error) {
	pos, size, err := Layout(c.Insns)
	if err != nil {
		return nil, err
	}
	if size == 0 || size > math.MaxUint16 {
		return nil, fmt.Errorf("%w: %d bytes", ErrCodeSize, size)
	}
	e := encoder{env: env, pos: pos}

	code, err := e.instructions(c.Insns, size)
	if err != nil {
		return nil, err
	}

	var w binio.Writer
	w.U2(c.MaxStack)
	w.U2(c.MaxLocals)
	w.Blob(code)

	w.U2(uint16(len(c.TryCatches)))
	for i, tc := range c.TryCatches {
		start, err1 := e.offset(tc.Start)
		end, err2 := e.offset(tc.End)
		handler, err3 := e.offset(tc.Handler)
		if err := errors.Join(err1, err2, err3); err != nil {
			return nil, fmt.Errorf("exception table entry %d: %w", i, err)
		}
		if start >= end {
			return nil, fmt.Errorf("exception table entry %d covers an empty range [%d, %d)", i, start, end)
		}
		w.U2(uint16(start))
		w.U2(uint16(end))
		w.U2(uint16(handler))
		w.U2(tc.CatchType)
	}

	var attrs []RawAttr
	if len(c.Lines) > 0 {
		info, err := e.lines(c.Lines)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", AttrLineNumberTable, err)
		}
		attrs = append(attrs, RawAttr{Name: AttrLineNumberTable, Info: info})
	}
	if len(c.LocalVars) > 0 {
		info, err := e.localVars(c.LocalVars)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", AttrLocalVariableTable, err)
		}
		attrs = append(attrs, RawAttr{Name: AttrLocalVariableTable, Info: info})
	}
	if len(c.LocalVarTypes) > 0 {
		info, err := e.localVars(c.LocalVarTypes)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", AttrLocalVariableTypeTable, err)
		}
		attrs = append(attrs, RawAttr{Name: AttrLocalVariableTypeTable, Info: info})
	}
	if env.Frames && len(c.Frames) > 0 {
		info, err := e.stackMap(c.Frames, size)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", AttrStackMapTable, err)
		}
		attrs = append(attrs, RawAttr{Name: AttrStackMapTable, Info: info})
	}
	attrs = append(attrs, c.Attrs...)

	w.U2(uint16(len(attrs)))
	for _, attr := range attrs {
		index, err := env.Pool.AddUtf8(attr.Name)
		if err != nil {
			return nil, err
		}
		w.U2(index)
		w.Blob(attr.Info)
	}

	return w.Bytes(), nil
}

func (e *encoder) instructions(insns []Insn, size int) ([]byte, error) {
	var w binio.Writer
	for _, insn := range insns {
		if insn.IsMark() {
			continue
		}
		pc := w.Len()
		branch := func(target *Label) (int, error) {
			off, err := e.offset(target)
			if err != nil {
				return 0, fmt.Errorf("%s at %d: %w", insn.Op, pc, err)
			}
			return off - pc, nil
		}

		switch insn.Op.shape() {
		case shapeNone:
			w.U1(uint8(insn.Op))
		case shapeLocal, shapeIinc:
			if isWide(insn) {
				w.U1(uint8(Wide))
				w.U1(uint8(insn.Op))
				w.U2(insn.Index)
				if insn.Op == Iinc {
					w.U2(uint16(int16(insn.Imm)))
				}
				break
			}
			w.U1(uint8(insn.Op))
			w.U1(uint8(insn.Index))
			if insn.Op == Iinc {
				w.U1(uint8(int8(insn.Imm)))
			}
		case shapeByte:
			w.U1(uint8(insn.Op))
			w.U1(uint8(insn.Imm))
		case shapeShort:
			w.U1(uint8(insn.Op))
			w.U2(uint16(int16(insn.Imm)))
		case shapeConst1:
			if insn.Index > math.MaxUint8 {
				return nil, fmt.Errorf("%s at %d references constant %d, use ldc_w", insn.Op, pc, insn.Index)
			}
			w.U1(uint8(insn.Op))
			w.U1(uint8(insn.Index))
		case shapeConst2:
			w.U1(uint8(insn.Op))
			w.U2(insn.Index)
		case shapeInvokeInterface:
			w.U1(uint8(insn.Op))
			w.U2(insn.Index)
			w.U1(uint8(insn.Imm))
			w.U1(0)
		case shapeInvokeDynamic:
			w.U1(uint8(insn.Op))
			w.U2(insn.Index)
			w.U2(0)
		case shapeMultiANewArray:
			w.U1(uint8(insn.Op))
			w.U2(insn.Index)
			w.U1(uint8(insn.Imm))
		case shapeBranch:
			delta, err := branch(insn.Target)
			if err != nil {
				return nil, err
			}
			if delta < math.MinInt16 || delta > math.MaxInt16 {
				return nil, fmt.Errorf("%w: %s at %d jumps by %d", ErrBranchOverflow, insn.Op, pc, delta)
			}
			w.U1(uint8(insn.Op))
			w.U2(uint16(int16(delta)))
		case shapeBranchWide:
			delta, err := branch(insn.Target)
			if err != nil {
				return nil, err
			}
			w.U1(uint8(insn.Op))
			w.U4(uint32(int32(delta)))
		case shapeTableSwitch, shapeLookupSwitch:
			w.U1(uint8(insn.Op))
			for i := switchPadding(pc); i > 0; i-- {
				w.U1(0)
			}
			sw := insn.Switch
			delta, err := branch(sw.Default)
			if err != nil {
				return nil, err
			}
			w.U4(uint32(int32(delta)))
			if insn.Op == Tableswitch {
				w.U4(uint32(sw.Low))
				w.U4(uint32(sw.High))
			} else {
				w.U4(uint32(len(sw.Targets)))
			}
			for i, target := range sw.Targets {
				if insn.Op == Lookupswitch {
					w.U4(uint32(sw.Keys[i]))
				}
				delta, err := branch(target)
				if err != nil {
					return nil, err
				}
				w.U4(uint32(int32(delta)))
			}
		}
	}
	if w.Len() != size {
		return nil, fmt.Errorf("encoded %d bytes, laid out %d", w.Len(), size)
	}
	return w.Bytes(), nil
}

func (e *encoder) lines(lines []LineNumber) ([]byte, error) {
	var w binio.Writer
	w.U2(uint16(len(lines)))
	for _, ln := range lines {
		start, err := e.offset(ln.Start)
		if err != nil {
			return nil, err
		}
		w.U2(uint16(start))
		w.U2(ln.Line)
	}
	return w.Bytes(), nil
}

func (e *encoder) localVars(vars []LocalVar) ([]byte, error) {
	var w binio.Writer
	w.U2(uint16(len(vars)))
	for _, v := range vars {
		start, err := e.offset(v.Start)
		if err != nil {
			return nil, err
		}
		end, err := e.offset(v.End)
		if err != nil {
			return nil, err
		}
		if end < start {
			return nil, fmt.Errorf("local variable in slot %d ends before it starts", v.Slot)
		}
		w.U2(uint16(start))
		w.U2(uint16(end - start))
		w.U2(v.Name)
		w.U2(v.Descriptor)
		w.U2(v.Slot)
	}
	return w.Bytes(), nil
}

func (e *encoder) stackMap(frames map[*Label]Frame, size int) ([]byte, error) {
	for l := range frames {
		if _, err := e.offset(l); err != nil {
			return nil, fmt.Errorf("frame: %w", err)
		}
	}

	var (
		w     binio.Writer
		body  binio.Writer
		count int
		prev  = InitialFrame(e.env)
		last  = -1
	)
	for _, l := range sortedLabels(frames, e.pos) {
		off, frame := e.pos[l], frames[l]
		if off >= size {
			return nil, fmt.Errorf("frame at offset %d is past the end of the code", off)
		}
		if off == last {
			if frame.Equal(prev) {
				continue
			}
			return nil, fmt.Errorf("conflicting frames at offset %d", off)
		}
		if err := e.frame(&body, off-last-1, prev, frame); err != nil {
			return nil, fmt.Errorf("frame at offset %d: %w", off, err)
		}
		prev, last = frame, off
		count++
	}
	w.U2(uint16(count))
	w.Write(body.Bytes())
	return w.Bytes(), nil
}

// frame writes f in the most compact form relative to prev.
func (e *encoder) frame(w *binio.Writer, delta int, prev, f Frame) error {
	sameLocals := vtypesEqual(prev.Locals, f.Locals)
	switch {
	case sameLocals && len(f.Stack) == 0:
		if delta <= 63 {
			w.U1(uint8(delta))
		} else {
			w.U1(251)
			w.U2(uint16(delta))
		}
		return nil
	case sameLocals && len(f.Stack) == 1:
		if delta <= 63 {
			w.U1(uint8(64 + delta))
		} else {
			w.U1(247)
			w.U2(uint16(delta))
		}
		return e.vtypes(w, f.Stack)
	case len(f.Stack) == 0 && len(f.Locals) > len(prev.Locals) && len(f.Locals)-len(prev.Locals) <= 3 &&
		vtypesEqual(prev.Locals, f.Locals[:len(prev.Locals)]):
		added := f.Locals[len(prev.Locals):]
		w.U1(uint8(251 + len(added)))
		w.U2(uint16(delta))
		return e.vtypes(w, added)
	case len(f.Stack) == 0 && len(f.Locals) < len(prev.Locals) && len(prev.Locals)-len(f.Locals) <= 3 &&
		vtypesEqual(prev.Locals[:len(f.Locals)], f.Locals):
		w.U1(uint8(251 - (len(prev.Locals) - len(f.Locals))))
		w.U2(uint16(delta))
		return nil
	default:
		w.U1(255)
		w.U2(uint16(delta))
		w.U2(uint16(len(f.Locals)))
		if err := e.vtypes(w, f.Locals); err != nil {
			return err
		}
		w.U2(uint16(len(f.Stack)))
		return e.vtypes(w, f.Stack)
	}
}

func (e *encoder) vtypes(w *binio.Writer, types []VType) error {
	for _, t := range types {
		w.U1(uint8(t.Kind))
		switch t.Kind {
		case KindObject:
			index, err := e.env.Pool.AddClass(t.Class)
			if err != nil {
				return err
			}
			w.U2(index)
		case KindUninitialized:
			off, err := e.offset(t.New)
			if err != nil {
				return fmt.Errorf("uninitialized value: %w", err)
			}
			w.U2(uint16(off))
		}
	}
	return nil
}
