// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2023-present Datadog, Inc.

package bytecode

import "fmt"

// VKind is the tag of a verification type, using the StackMapTable encoding.
type VKind uint8

const (
	KindTop VKind = iota
	KindInteger
	KindFloat
	KindDouble
	KindLong
	KindNull
	KindUninitializedThis
	KindObject
	KindUninitialized
)

// VType is a verification type as it appears in a stack map frame.
type VType struct {
	Kind VKind
	// Class is the internal name (or array descriptor) of a KindObject type.
	Class string
	// New labels the `new` instruction that created a KindUninitialized value.
	New *Label
}

var (
	Top     = VType{Kind: KindTop}
	Integer = VType{Kind: KindInteger}
	Float   = VType{Kind: KindFloat}
	Double  = VType{Kind: KindDouble}
	Long    = VType{Kind: KindLong}
	Null    = VType{Kind: KindNull}
)

// Object returns the verification type of a reference to class.
func Object(class string) VType {
	return VType{Kind: KindObject, Class: class}
}

// Uninitialized returns the verification type of an object created by the
// `new` instruction at label and not yet initialized.
func Uninitialized(at *Label) VType {
	return VType{Kind: KindUninitialized, New: at}
}

func (v VType) String() string {
	switch v.Kind {
	case KindTop:
		return "top"
	case KindInteger:
		return "int"
	case KindFloat:
		return "float"
	case KindDouble:
		return "double"
	case KindLong:
		return "long"
	case KindNull:
		return "null"
	case KindUninitializedThis:
		return "uninitialized(this)"
	case KindObject:
		return v.Class
	case KindUninitialized:
		return "uninitialized"
	default:
		return fmt.Sprintf("vtype(%d)", v.Kind)
	}
}

// vtypeOf returns the verification type of a value of the given field
// descriptor.
func vtypeOf(desc string) VType {
	switch desc[0] {
	case 'Z', 'B', 'C', 'S', 'I':
		return Integer
	case 'F':
		return Float
	case 'J':
		return Long
	case 'D':
		return Double
	case 'L':
		return Object(desc[1 : len(desc)-1])
	default:
		return Object(desc)
	}
}

// InitialFrame returns the implicit frame in effect at the entry of a method:
// the receiver (unless static) followed by the parameters, with an empty
// stack.
func InitialFrame(env Env) Frame {
	var locals []VType
	if !env.Static {
		if env.Constructor {
			locals = append(locals, VType{Kind: KindUninitializedThis})
		} else {
			locals = append(locals, Object(env.Owner))
		}
	}
	for _, p := range env.Type.Params {
		locals = append(locals, vtypeOf(p))
	}
	return Frame{Locals: locals}
}
