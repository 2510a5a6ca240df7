// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2023-present Datadog, Inc.

package weave

import (
	"fmt"

	"github.com/DataDog/weaver/internal/bytecode"
)

// Mode decides what becomes of a marker method's original body.
type Mode uint8

const (
	// Full discards the original body: the method returns right after the
	// last injected unit.
	Full Mode = iota
	// Incremental keeps the original body, which runs after the injected
	// units.
	Incremental
)

func (m Mode) String() string {
	switch m {
	case Full:
		return "full"
	case Incremental:
		return "incremental"
	default:
		return fmt.Sprintf("Mode(%d)", uint8(m))
	}
}

// apply combines the injected prefix with the original body of a method.
// It reports whether code was changed.
func (m Mode) apply(code *bytecode.Code, p *prefix) (bool, error) {
	switch m {
	case Full:
		return true, truncate(code, p)
	case Incremental:
		if p.units == 0 {
			return false, nil
		}
		return true, prepend(code, p)
	default:
		return false, fmt.Errorf("unsupported mode %s", m)
	}
}

// truncate replaces the body with the prefix followed by a return of the
// zero value of the method's return type.
func truncate(code *bytecode.Code, p *prefix) error {
	ret, words := p.env.Type.ReturnSequence()

	*code = bytecode.Code{
		MaxStack:   uint16(max(p.maxStack, words)),
		MaxLocals:  p.maxLocals(),
		Insns:      append(p.insns, ret...),
		TryCatches: p.tryCatches,
		Frames:     p.frames,
	}
	return nil
}

// prepend inserts the prefix ahead of the original body. The prefix is padded
// with nop to a multiple of 4 bytes so that switch instructions of the
// original body keep their padding, leaving its encoding unchanged.
func prepend(code *bytecode.Code, p *prefix) error {
	_, size, err := bytecode.Layout(p.insns)
	if err != nil {
		return err
	}
	pad := (4 - size%4) % 4
	if pad == 0 && entryFramed(code) {
		// The last unit's continuation frame would land on the same offset as
		// the frame of the original entry.
		pad = 4
	}

	insns := make([]bytecode.Insn, 0, len(p.insns)+pad+len(code.Insns))
	insns = append(insns, p.insns...)
	for i := 0; i < pad; i++ {
		insns = append(insns, bytecode.Op(bytecode.Nop))
	}
	code.Insns = append(insns, code.Insns...)

	code.TryCatches = append(p.tryCatches, code.TryCatches...)
	if code.Frames == nil {
		code.Frames = make(map[*bytecode.Label]bytecode.Frame, len(p.frames))
	}
	for l, f := range p.frames {
		code.Frames[l] = f
	}

	code.MaxStack = max(code.MaxStack, uint16(p.maxStack))
	code.MaxLocals = max(code.MaxLocals, p.maxLocals())
	return nil
}

// entryFramed reports whether the original body has a frame at offset 0.
func entryFramed(code *bytecode.Code) bool {
	for _, insn := range code.Insns {
		if !insn.IsMark() {
			return false
		}
		if _, ok := code.Frames[insn.Mark]; ok {
			return true
		}
	}
	return false
}
