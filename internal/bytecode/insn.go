// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2023-present Datadog, Inc.

package bytecode

type (
	// Label marks a position in an instruction list. Labels are compared by
	// identity; a label must be bound by exactly one Mark pseudo-instruction
	// before the list is encoded.
	Label struct {
		_ int // labels must not be zero-sized, or distinct labels may share an address
	}

	// Insn is a single instruction, or a Mark pseudo-instruction binding a label
	// to the position it appears at.
	Insn struct {
		// Mark, when non-nil, makes this a pseudo-instruction; all other fields
		// are ignored.
		Mark *Label
		// Op is the instruction's opcode.
		Op Opcode
		// Index is the constant pool index or local variable index operand.
		Index uint16
		// Imm is the immediate operand: the pushed value of bipush and sipush,
		// the increment of iinc, the array type of newarray, the argument count
		// of invokeinterface, or the dimensions of multianewarray.
		Imm int32
		// Wide is set when the instruction is (or must be) prefixed by wide.
		Wide bool
		// Target is the destination of a branch instruction.
		Target *Label
		// Switch holds the jump table of tableswitch and lookupswitch.
		Switch *Switch
	}

	// Switch is the jump table of a tableswitch or lookupswitch instruction.
	// For tableswitch, Keys is nil and Targets covers Low..High.
	Switch struct {
		Default   *Label
		Low, High int32
		Keys      []int32
		Targets   []*Label
	}

	// TryCatch is one exception table entry. Entries are ordered: the first
	// matching entry wins at run time.
	TryCatch struct {
		Start, End, Handler *Label
		// CatchType is the constant pool index of the caught class, or 0 to
		// catch everything.
		CatchType uint16
	}

	// LineNumber maps the instruction at Start to a source line.
	LineNumber struct {
		Start *Label
		Line  uint16
	}

	// LocalVar is an entry of a LocalVariableTable or LocalVariableTypeTable.
	LocalVar struct {
		Start, End *Label
		Name       uint16
		Descriptor uint16 // signature index, for LocalVariableTypeTable entries
		Slot       uint16
	}

	// RawAttr is a Code attribute kept verbatim.
	RawAttr struct {
		Name string
		Info []byte
	}

	// Code is the decoded body of a method.
	Code struct {
		MaxStack  uint16
		MaxLocals uint16

		Insns      []Insn
		TryCatches []TryCatch
		// Frames holds the stack map frames, keyed by the label they are attached
		// to. Frames are stored expanded, independently of the compressed form
		// they were read from.
		Frames map[*Label]Frame

		Lines         []LineNumber
		LocalVars     []LocalVar
		LocalVarTypes []LocalVar

		// Attrs are the remaining Code attributes, carried over as-is.
		Attrs []RawAttr
	}
)

// NewLabel returns a fresh, unbound label.
func NewLabel() *Label {
	return new(Label)
}

// Mark returns the pseudo-instruction binding l to the current position.
func Mark(l *Label) Insn {
	return Insn{Mark: l}
}

// Op returns an instruction without operands.
func Op(op Opcode) Insn {
	return Insn{Op: op}
}

// Ref returns an instruction referencing the constant pool entry at index.
func Ref(op Opcode, index uint16) Insn {
	return Insn{Op: op, Index: index}
}

// Push returns an instruction carrying an immediate operand.
func Push(op Opcode, imm int32) Insn {
	return Insn{Op: op, Imm: imm}
}

// Jump returns a branch instruction to target.
func Jump(op Opcode, target *Label) Insn {
	return Insn{Op: op, Target: target}
}

// Var returns a local variable load or store. The one-byte form is used for
// slots 0 through 3 when op has one, and wide is used past slot 255.
func Var(op Opcode, slot uint16) Insn {
	if slot <= 3 {
		switch {
		case op >= Iload && op <= Aload:
			return Insn{Op: Iload0 + (op-Iload)*4 + Opcode(slot)}
		case op >= Istore && op <= Astore:
			return Insn{Op: Istore0 + (op-Istore)*4 + Opcode(slot)}
		}
	}
	return Insn{Op: op, Index: slot, Wide: slot > 0xff}
}

// IsMark reports whether i is a label pseudo-instruction.
func (i Insn) IsMark() bool {
	return i.Mark != nil
}

// Frame is an expanded stack map frame.
type Frame struct {
	Locals []VType
	Stack  []VType
}

// Equal reports whether f and o describe the same verification state.
func (f Frame) Equal(o Frame) bool {
	return vtypesEqual(f.Locals, o.Locals) && vtypesEqual(f.Stack, o.Stack)
}

func vtypesEqual(a, b []VType) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
