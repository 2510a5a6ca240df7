// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2023-present Datadog, Inc.

package bytecode

import (
	"encoding/binary"
	"errors"
	"fmt"
	"sort"

	"github.com/DataDog/weaver/internal/binio"
)

// ErrMalformed is returned when a Code attribute cannot be decoded.
var ErrMalformed = errors.New("malformed code attribute")

// Names of the Code attributes the codec understands.
const (
	AttrStackMapTable          = "StackMapTable"
	AttrLineNumberTable        = "LineNumberTable"
	AttrLocalVariableTable     = "LocalVariableTable"
	AttrLocalVariableTypeTable = "LocalVariableTypeTable"
)

// Type annotations address instructions by raw offset and are not remapped.
var droppedAttrs = map[string]struct{}{
	"RuntimeVisibleTypeAnnotations":   {},
	"RuntimeInvisibleTypeAnnotations": {},
}

type decoder struct {
	env     Env
	code    *Code
	codeLen int
	labels  map[int]*Label
	starts  map[int]struct{}
}

// Decode parses the contents of a Code attribute (everything after the
// attribute length) into labelled form.
func Decode(info []byte, env Env) (*Code, error) {
	r := binio.NewReader(info)
	d := decoder{
		env:    env,
		code:   &Code{MaxStack: r.U2(), MaxLocals: r.U2(), Frames: make(map[*Label]Frame)},
		labels: make(map[int]*Label),
		starts: make(map[int]struct{}),
	}
	raw := r.Bytes(int(r.U4()))
	if err := r.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformed, err)
	}
	d.codeLen = len(raw)

	insns, offsets, err := d.instructions(raw)
	if err != nil {
		return nil, err
	}

	for n := r.U2(); n > 0; n-- {
		start, end, handler, catchType := r.U2(), r.U2(), r.U2(), r.U2()
		d.code.TryCatches = append(d.code.TryCatches, TryCatch{
			Start:     d.label(int(start)),
			End:       d.label(int(end)),
			Handler:   d.label(int(handler)),
			CatchType: catchType,
		})
	}

	for n := r.U2(); n > 0 && r.Err() == nil; n-- {
		nameIndex := r.U2()
		data := r.Bytes(int(r.U4()))
		if r.Err() != nil {
			break
		}
		name, err := env.Pool.Utf8(nameIndex)
		if err != nil {
			return nil, fmt.Errorf("%w: attribute name: %w", ErrMalformed, err)
		}
		if err := d.attribute(name, data); err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrMalformed, name, err)
		}
	}
	if err := r.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformed, err)
	}
	if r.Len() != 0 {
		return nil, fmt.Errorf("%w: %d trailing bytes", ErrMalformed, r.Len())
	}

	for off := range d.labels {
		if _, ok := d.starts[off]; !ok && off != d.codeLen {
			return nil, fmt.Errorf("%w: offset %d is not an instruction boundary", ErrMalformed, off)
		}
	}

	d.code.Insns = make([]Insn, 0, len(insns)+len(d.labels))
	for i, insn := range insns {
		if l := d.labels[offsets[i]]; l != nil {
			d.code.Insns = append(d.code.Insns, Mark(l))
		}
		d.code.Insns = append(d.code.Insns, insn)
	}
	if l := d.labels[d.codeLen]; l != nil {
		d.code.Insns = append(d.code.Insns, Mark(l))
	}

	return d.code, nil
}

func (d *decoder) label(off int) *Label {
	if l, ok := d.labels[off]; ok {
		return l
	}
	l := NewLabel()
	d.labels[off] = l
	return l
}

func (d *decoder) instructions(raw []byte) ([]Insn, []int, error) {
	var (
		insns   []Insn
		offsets []int
	)
	u2 := func(at int) uint16 { return binary.BigEndian.Uint16(raw[at:]) }
	s4 := func(at int) int32 { return int32(binary.BigEndian.Uint32(raw[at:])) }

	for pc := 0; pc < len(raw); {
		start := pc
		op := Opcode(raw[pc])
		if !op.Valid() {
			return nil, nil, fmt.Errorf("%w: invalid opcode 0x%02x at %d", ErrMalformed, raw[pc], pc)
		}
		need := func(n int) error {
			if start+n > len(raw) {
				return fmt.Errorf("%w: %s at %d is truncated", ErrMalformed, op, start)
			}
			return nil
		}

		insn := Insn{Op: op}
		size := 1
		switch op.shape() {
		case shapeNone:
		case shapeLocal, shapeConst1:
			size = 2
			if err := need(size); err != nil {
				return nil, nil, err
			}
			insn.Index = uint16(raw[pc+1])
		case shapeIinc:
			size = 3
			if err := need(size); err != nil {
				return nil, nil, err
			}
			insn.Index = uint16(raw[pc+1])
			insn.Imm = int32(int8(raw[pc+2]))
		case shapeByte:
			size = 2
			if err := need(size); err != nil {
				return nil, nil, err
			}
			if op == Newarray {
				insn.Imm = int32(raw[pc+1])
			} else {
				insn.Imm = int32(int8(raw[pc+1]))
			}
		case shapeShort:
			size = 3
			if err := need(size); err != nil {
				return nil, nil, err
			}
			insn.Imm = int32(int16(u2(pc + 1)))
		case shapeConst2:
			size = 3
			if err := need(size); err != nil {
				return nil, nil, err
			}
			insn.Index = u2(pc + 1)
		case shapeInvokeInterface, shapeInvokeDynamic:
			size = 5
			if err := need(size); err != nil {
				return nil, nil, err
			}
			insn.Index = u2(pc + 1)
			if op == Invokeinterface {
				insn.Imm = int32(raw[pc+3])
			}
		case shapeMultiANewArray:
			size = 4
			if err := need(size); err != nil {
				return nil, nil, err
			}
			insn.Index = u2(pc + 1)
			insn.Imm = int32(raw[pc+3])
		case shapeBranch:
			size = 3
			if err := need(size); err != nil {
				return nil, nil, err
			}
			target := start + int(int16(u2(pc+1)))
			if err := d.checkTarget(op, start, target); err != nil {
				return nil, nil, err
			}
			insn.Target = d.label(target)
		case shapeBranchWide:
			size = 5
			if err := need(size); err != nil {
				return nil, nil, err
			}
			target := start + int(s4(pc+1))
			if err := d.checkTarget(op, start, target); err != nil {
				return nil, nil, err
			}
			insn.Target = d.label(target)
		case shapeTableSwitch, shapeLookupSwitch:
			pad := switchPadding(start)
			base := start + 1 + pad
			if err := need(1 + pad + 8); err != nil {
				return nil, nil, err
			}
			sw := &Switch{}
			target := start + int(s4(base))
			if err := d.checkTarget(op, start, target); err != nil {
				return nil, nil, err
			}
			sw.Default = d.label(target)
			var n, entry int
			if op == Tableswitch {
				if err := need(1 + pad + 12); err != nil {
					return nil, nil, err
				}
				sw.Low, sw.High = s4(base+4), s4(base+8)
				if sw.High < sw.Low {
					return nil, nil, fmt.Errorf("%w: tableswitch at %d has high < low", ErrMalformed, start)
				}
				n, entry = int(int64(sw.High)-int64(sw.Low)+1), 4
				base += 12
			} else {
				npairs := s4(base + 4)
				if npairs < 0 {
					return nil, nil, fmt.Errorf("%w: lookupswitch at %d has negative npairs", ErrMalformed, start)
				}
				n, entry = int(npairs), 8
				base += 8
			}
			if n > (len(raw)-base)/entry {
				return nil, nil, fmt.Errorf("%w: %s at %d is truncated", ErrMalformed, op, start)
			}
			for i := 0; i < n; i++ {
				at := base + i*entry
				if op == Lookupswitch {
					sw.Keys = append(sw.Keys, s4(at))
					at += 4
				}
				target := start + int(s4(at))
				if err := d.checkTarget(op, start, target); err != nil {
					return nil, nil, err
				}
				sw.Targets = append(sw.Targets, d.label(target))
			}
			insn.Switch = sw
			size = base + n*entry - start
		case shapeWide:
			if err := need(2); err != nil {
				return nil, nil, err
			}
			inner := Opcode(raw[pc+1])
			switch {
			case inner == Iinc:
				size = 6
				if err := need(size); err != nil {
					return nil, nil, err
				}
				insn.Imm = int32(int16(u2(pc + 4)))
			case inner.Wideable():
				size = 4
				if err := need(size); err != nil {
					return nil, nil, err
				}
			default:
				return nil, nil, fmt.Errorf("%w: wide cannot modify %s at %d", ErrMalformed, inner, start)
			}
			insn.Op = inner
			insn.Index = u2(pc + 2)
			insn.Wide = true
		}

		d.starts[start] = struct{}{}
		insns = append(insns, insn)
		offsets = append(offsets, start)
		pc += size
	}
	return insns, offsets, nil
}

func (d *decoder) checkTarget(op Opcode, at, target int) error {
	if target < 0 || target >= d.codeLen {
		return fmt.Errorf("%w: %s at %d jumps outside of the code (%d)", ErrMalformed, op, at, target)
	}
	return nil
}

// switchPadding is the number of padding bytes following a switch opcode at
// offset pc, aligning its operands on a 4-byte boundary.
func switchPadding(pc int) int {
	return (4 - (pc+1)%4) % 4
}

func (d *decoder) attribute(name string, data []byte) error {
	r := binio.NewReader(data)
	switch name {
	case AttrStackMapTable:
		if err := d.stackMap(r); err != nil {
			return err
		}
	case AttrLineNumberTable:
		for n := r.U2(); n > 0; n-- {
			start, line := r.U2(), r.U2()
			d.code.Lines = append(d.code.Lines, LineNumber{Start: d.label(int(start)), Line: line})
		}
	case AttrLocalVariableTable, AttrLocalVariableTypeTable:
		var vars []LocalVar
		for n := r.U2(); n > 0; n-- {
			start, length := int(r.U2()), int(r.U2())
			vars = append(vars, LocalVar{
				Start:      d.label(start),
				End:        d.label(start + length),
				Name:       r.U2(),
				Descriptor: r.U2(),
				Slot:       r.U2(),
			})
		}
		if name == AttrLocalVariableTable {
			d.code.LocalVars = append(d.code.LocalVars, vars...)
		} else {
			d.code.LocalVarTypes = append(d.code.LocalVarTypes, vars...)
		}
	default:
		if _, drop := droppedAttrs[name]; !drop {
			d.code.Attrs = append(d.code.Attrs, RawAttr{Name: name, Info: append([]byte(nil), data...)})
		}
		return nil
	}
	if err := r.Err(); err != nil {
		return err
	}
	if r.Len() != 0 {
		return fmt.Errorf("%d trailing bytes", r.Len())
	}
	return nil
}

func (d *decoder) stackMap(r *binio.Reader) error {
	locals := append([]VType(nil), InitialFrame(d.env).Locals...)
	off := -1
	for n := r.U2(); n > 0 && r.Err() == nil; n-- {
		var (
			kind  = r.U1()
			delta int
			stack []VType
			err   error
		)
		switch {
		case kind <= 63:
			delta = int(kind)
		case kind <= 127:
			delta = int(kind) - 64
			stack, err = d.vtypes(r, 1)
		case kind == 247:
			delta = int(r.U2())
			stack, err = d.vtypes(r, 1)
		case kind >= 248 && kind <= 250:
			delta = int(r.U2())
			chop := int(251 - kind)
			if chop > len(locals) {
				return fmt.Errorf("chop frame removes %d of %d locals", chop, len(locals))
			}
			locals = locals[:len(locals)-chop]
		case kind == 251:
			delta = int(r.U2())
		case kind >= 252 && kind <= 254:
			delta = int(r.U2())
			var more []VType
			more, err = d.vtypes(r, int(kind-251))
			locals = append(locals, more...)
		case kind == 255:
			delta = int(r.U2())
			if locals, err = d.vtypes(r, int(r.U2())); err == nil {
				stack, err = d.vtypes(r, int(r.U2()))
			}
		default:
			return fmt.Errorf("reserved frame type %d", kind)
		}
		if err != nil {
			return err
		}
		off += delta + 1
		if off >= d.codeLen {
			return fmt.Errorf("frame at offset %d is past the end of the code", off)
		}
		d.code.Frames[d.label(off)] = Frame{Locals: append([]VType(nil), locals...), Stack: stack}
	}
	return nil
}

func (d *decoder) vtypes(r *binio.Reader, n int) ([]VType, error) {
	var res []VType
	for i := 0; i < n; i++ {
		tag := VKind(r.U1())
		switch tag {
		case KindObject:
			name, err := d.env.Pool.ClassName(r.U2())
			if err != nil {
				return nil, err
			}
			res = append(res, Object(name))
		case KindUninitialized:
			res = append(res, Uninitialized(d.label(int(r.U2()))))
		case KindTop, KindInteger, KindFloat, KindDouble, KindLong, KindNull, KindUninitializedThis:
			res = append(res, VType{Kind: tag})
		default:
			return nil, fmt.Errorf("unknown verification type tag %d", tag)
		}
		if err := r.Err(); err != nil {
			return nil, err
		}
	}
	return res, r.Err()
}

// sortedLabels returns the bound positions of labels in ascending order, for
// deterministic iteration over label-keyed maps.
func sortedLabels[T any](m map[*Label]T, pos map[*Label]int) []*Label {
	keys := make([]*Label, 0, len(m))
	for l := range m {
		keys = append(keys, l)
	}
	sort.SliceStable(keys, func(i, j int) bool { return pos[keys[i]] < pos[keys[j]] })
	return keys
}
