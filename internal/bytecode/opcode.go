// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2023-present Datadog, Inc.

package bytecode

import "fmt"

// Opcode is a single JVM instruction opcode.
type Opcode uint8

// shape describes the operands that follow an opcode in the instruction stream.
type shape uint8

const (
	shapeNone            shape = iota // no operands
	shapeLocal                        // u1 local index (u2 under wide)
	shapeIinc                         // u1 local index, s1 constant (u2, s2 under wide)
	shapeByte                         // s1 immediate
	shapeShort                        // s2 immediate
	shapeConst1                       // u1 constant pool index
	shapeConst2                       // u2 constant pool index
	shapeInvokeInterface              // u2 constant pool index, u1 count, u1 zero
	shapeInvokeDynamic                // u2 constant pool index, u2 zero
	shapeMultiANewArray               // u2 constant pool index, u1 dimensions
	shapeBranch                       // s2 branch offset
	shapeBranchWide                   // s4 branch offset
	shapeTableSwitch                  // padding, default, low, high, offsets
	shapeLookupSwitch                 // padding, default, npairs, pairs
	shapeWide                         // prefix modifying the next instruction
)

// Valid reports whether op is a defined JVM opcode.
func (op Opcode) Valid() bool {
	return int(op) < len(opcodeInfo)
}

func (op Opcode) String() string {
	if !op.Valid() {
		return fmt.Sprintf("opcode(0x%02x)", uint8(op))
	}
	return opcodeInfo[op].name
}

func (op Opcode) shape() shape {
	return opcodeInfo[op].shape
}

// IsBranch reports whether op transfers control to a label operand.
func (op Opcode) IsBranch() bool {
	if !op.Valid() {
		return false
	}
	s := op.shape()
	return s == shapeBranch || s == shapeBranchWide
}

// IsReturn reports whether op returns from the current method.
func (op Opcode) IsReturn() bool {
	return op >= Ireturn && op <= Return
}

// IsInvoke reports whether op is one of the method invocation instructions.
func (op Opcode) IsInvoke() bool {
	return op >= Invokevirtual && op <= Invokedynamic
}

// Wideable reports whether op accepts the wide prefix.
func (op Opcode) Wideable() bool {
	return op.Valid() && (op.shape() == shapeLocal || op == Iinc)
}
