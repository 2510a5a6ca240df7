// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2023-present Datadog, Inc.

package bytecode

import (
	"errors"
	"fmt"
	"strings"
)

// MethodType is a parsed method descriptor.
type MethodType struct {
	Params []string // field descriptors of the parameters
	Return string   // field descriptor of the return type, or "V"
}

// ErrDescriptor is returned when a descriptor is malformed.
var ErrDescriptor = errors.New("malformed descriptor")

// ParseMethodType parses a method descriptor such as `(ILjava/lang/String;)V`.
func ParseMethodType(desc string) (MethodType, error) {
	var mt MethodType
	if len(desc) < 3 || desc[0] != '(' {
		return mt, fmt.Errorf("%w: %q", ErrDescriptor, desc)
	}
	pos := 1
	for pos < len(desc) && desc[pos] != ')' {
		end, err := fieldEnd(desc, pos)
		if err != nil {
			return mt, err
		}
		mt.Params = append(mt.Params, desc[pos:end])
		pos = end
	}
	if pos >= len(desc) {
		return mt, fmt.Errorf("%w: %q is missing ')'", ErrDescriptor, desc)
	}
	pos++
	if desc[pos:] == "V" {
		mt.Return = "V"
		return mt, nil
	}
	end, err := fieldEnd(desc, pos)
	if err != nil {
		return mt, err
	}
	if end != len(desc) {
		return mt, fmt.Errorf("%w: trailing data in %q", ErrDescriptor, desc)
	}
	mt.Return = desc[pos:]
	return mt, nil
}

func (mt MethodType) String() string {
	return "(" + strings.Join(mt.Params, "") + ")" + mt.Return
}

// fieldEnd returns the end offset of the field descriptor starting at pos.
func fieldEnd(desc string, pos int) (int, error) {
	start := pos
	for pos < len(desc) && desc[pos] == '[' {
		pos++
	}
	if pos >= len(desc) {
		return 0, fmt.Errorf("%w: %q ends after array marker", ErrDescriptor, desc)
	}
	switch desc[pos] {
	case 'Z', 'B', 'C', 'S', 'I', 'F', 'J', 'D':
		return pos + 1, nil
	case 'L':
		for i := pos + 1; i < len(desc); i++ {
			if desc[i] == ';' {
				if i == pos+1 {
					break
				}
				return i + 1, nil
			}
		}
		return 0, fmt.Errorf("%w: unterminated class name at %d in %q", ErrDescriptor, start, desc)
	default:
		return 0, fmt.Errorf("%w: unexpected %q at %d in %q", ErrDescriptor, desc[pos], pos, desc)
	}
}

// slotSize is the number of local variable slots a value of desc occupies.
func slotSize(desc string) uint16 {
	if desc == "J" || desc == "D" {
		return 2
	}
	return 1
}

// ParamSlots returns the number of local variable slots used by the receiver
// (unless static) and the parameters.
func (mt MethodType) ParamSlots(static bool) uint16 {
	var n uint16
	if !static {
		n = 1
	}
	for _, p := range mt.Params {
		n += slotSize(p)
	}
	return n
}

// ParamSlot returns the local variable slot holding parameter i.
func (mt MethodType) ParamSlot(i int, static bool) uint16 {
	var n uint16
	if !static {
		n = 1
	}
	for _, p := range mt.Params[:i] {
		n += slotSize(p)
	}
	return n
}

// LoadParam returns the instruction loading parameter i onto the stack, and
// the number of stack words it pushes.
func (mt MethodType) LoadParam(i int, static bool) (Insn, int) {
	p := mt.Params[i]
	return Var(loadOp(p), mt.ParamSlot(i, static)), int(slotSize(p))
}

func loadOp(desc string) Opcode {
	switch desc[0] {
	case 'Z', 'B', 'C', 'S', 'I':
		return Iload
	case 'J':
		return Lload
	case 'F':
		return Fload
	case 'D':
		return Dload
	default:
		return Aload
	}
}

// ReturnSequence returns the instructions returning a zero value of the
// method's return type, and the number of stack words they need.
func (mt MethodType) ReturnSequence() ([]Insn, int) {
	switch mt.Return[0] {
	case 'V':
		return []Insn{Op(Return)}, 0
	case 'Z', 'B', 'C', 'S', 'I':
		return []Insn{Op(Iconst0), Op(Ireturn)}, 1
	case 'J':
		return []Insn{Op(Lconst0), Op(Lreturn)}, 2
	case 'F':
		return []Insn{Op(Fconst0), Op(Freturn)}, 1
	case 'D':
		return []Insn{Op(Dconst0), Op(Dreturn)}, 2
	default:
		return []Insn{Op(AconstNull), Op(Areturn)}, 1
	}
}

// Env carries the method-level context needed to decode and encode a Code
// attribute.
type Env struct {
	Pool        ConstantPool
	Owner       string // internal name of the declaring class
	Static      bool
	Constructor bool
	Type        MethodType
	// Frames enables StackMapTable emission on encode.
	Frames bool
}

// ConstantPool is the subset of a class's constant pool needed by the codec.
type ConstantPool interface {
	Utf8(index uint16) (string, error)
	AddUtf8(s string) (uint16, error)
	ClassName(index uint16) (string, error)
	AddClass(name string) (uint16, error)
}
