// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2023-present Datadog, Inc.

// Package classfile reads and writes JVM class files. Members and attributes
// are kept in raw form so that anything left untouched is written back
// byte-for-byte; method bodies are decoded on demand through the bytecode
// package.
package classfile

import (
	"errors"
	"fmt"

	"github.com/DataDog/weaver/internal/binio"
)

const magic = 0xCAFEBABE

// Access flags.
const (
	AccPublic       uint16 = 0x0001
	AccPrivate      uint16 = 0x0002
	AccProtected    uint16 = 0x0004
	AccStatic       uint16 = 0x0008
	AccFinal        uint16 = 0x0010
	AccSynchronized uint16 = 0x0020
	AccSuper        uint16 = 0x0020
	AccVolatile     uint16 = 0x0040
	AccBridge       uint16 = 0x0040
	AccTransient    uint16 = 0x0080
	AccVarargs      uint16 = 0x0080
	AccNative       uint16 = 0x0100
	AccInterface    uint16 = 0x0200
	AccAbstract     uint16 = 0x0400
	AccStrict       uint16 = 0x0800
	AccSynthetic    uint16 = 0x1000
	AccAnnotation   uint16 = 0x2000
	AccEnum         uint16 = 0x4000
)

// Attribute names handled by this package.
const (
	AttrCode          = "Code"
	AttrConstantValue = "ConstantValue"
)

// Constructor is the name of instance initialization methods.
const Constructor = "<init>"

// ErrNotClassFile is returned when the input does not start with the class
// file magic number.
var ErrNotClassFile = errors.New("not a class file")

type (
	// Class is a parsed class file.
	Class struct {
		Minor, Major uint16
		Pool         *Pool
		Access       uint16
		This, Super  uint16
		Interfaces   []uint16
		Fields       []*Member
		Methods      []*Member
		Attributes   []Attribute
	}

	// Member is a field or method declaration.
	Member struct {
		Access     uint16
		NameIndex  uint16
		DescIndex  uint16
		Attributes []Attribute

		// Name and Descriptor are resolved from NameIndex and DescIndex when the
		// class is parsed or the member is added.
		Name       string
		Descriptor string
	}

	// Attribute is a raw attribute.
	Attribute struct {
		NameIndex uint16
		Info      []byte
	}
)

// IsStatic reports whether the member is declared static.
func (m *Member) IsStatic() bool {
	return m.Access&AccStatic != 0
}

// Parse decodes a class file.
func Parse(data []byte) (*Class, error) {
	r := binio.NewReader(data)
	if r.U4() != magic {
		return nil, ErrNotClassFile
	}
	c := &Class{Minor: r.U2(), Major: r.U2()}
	pool, err := readPool(r)
	if err != nil {
		return nil, fmt.Errorf("reading constant pool: %w", err)
	}
	c.Pool = pool
	c.Access, c.This, c.Super = r.U2(), r.U2(), r.U2()
	for n := r.U2(); n > 0; n-- {
		c.Interfaces = append(c.Interfaces, r.U2())
	}
	if c.Fields, err = c.readMembers(r); err != nil {
		return nil, fmt.Errorf("reading fields: %w", err)
	}
	if c.Methods, err = c.readMembers(r); err != nil {
		return nil, fmt.Errorf("reading methods: %w", err)
	}
	c.Attributes = readAttributes(r)
	if err := r.Err(); err != nil {
		return nil, err
	}
	if r.Len() != 0 {
		return nil, fmt.Errorf("%d trailing bytes after class", r.Len())
	}
	if _, err := c.Pool.ClassName(c.This); err != nil {
		return nil, fmt.Errorf("this_class: %w", err)
	}
	return c, nil
}

func (c *Class) readMembers(r *binio.Reader) ([]*Member, error) {
	n := int(r.U2())
	members := make([]*Member, 0, n)
	for i := 0; i < n && r.Err() == nil; i++ {
		m := &Member{Access: r.U2(), NameIndex: r.U2(), DescIndex: r.U2()}
		m.Attributes = readAttributes(r)
		if r.Err() != nil {
			break
		}
		var err error
		if m.Name, err = c.Pool.Utf8(m.NameIndex); err != nil {
			return nil, fmt.Errorf("member %d name: %w", i, err)
		}
		if m.Descriptor, err = c.Pool.Utf8(m.DescIndex); err != nil {
			return nil, fmt.Errorf("member %s descriptor: %w", m.Name, err)
		}
		members = append(members, m)
	}
	return members, r.Err()
}

func readAttributes(r *binio.Reader) []Attribute {
	n := int(r.U2())
	attrs := make([]Attribute, 0, n)
	for i := 0; i < n && r.Err() == nil; i++ {
		name := r.U2()
		info := r.Bytes(int(r.U4()))
		attrs = append(attrs, Attribute{NameIndex: name, Info: append([]byte(nil), info...)})
	}
	return attrs
}

// Bytes encodes the class file.
func (c *Class) Bytes() ([]byte, error) {
	var w binio.Writer
	w.U4(magic)
	w.U2(c.Minor)
	w.U2(c.Major)
	c.Pool.write(&w)
	w.U2(c.Access)
	w.U2(c.This)
	w.U2(c.Super)
	w.U2(uint16(len(c.Interfaces)))
	for _, i := range c.Interfaces {
		w.U2(i)
	}
	for _, members := range [][]*Member{c.Fields, c.Methods} {
		w.U2(uint16(len(members)))
		for _, m := range members {
			w.U2(m.Access)
			w.U2(m.NameIndex)
			w.U2(m.DescIndex)
			writeAttributes(&w, m.Attributes)
		}
	}
	writeAttributes(&w, c.Attributes)
	return w.Bytes(), nil
}

func writeAttributes(w *binio.Writer, attrs []Attribute) {
	w.U2(uint16(len(attrs)))
	for _, a := range attrs {
		w.U2(a.NameIndex)
		w.Blob(a.Info)
	}
}

// Name returns the internal name of the class.
func (c *Class) Name() string {
	name, _ := c.Pool.ClassName(c.This)
	return name
}

// SuperName returns the internal name of the super class, or "" for
// java/lang/Object.
func (c *Class) SuperName() string {
	if c.Super == 0 {
		return ""
	}
	name, _ := c.Pool.ClassName(c.Super)
	return name
}

// AttributeName returns the name of a.
func (c *Class) AttributeName(a Attribute) string {
	name, _ := c.Pool.Utf8(a.NameIndex)
	return name
}

// FindAttribute returns the index in attrs of the first attribute called
// name, or -1.
func (c *Class) FindAttribute(attrs []Attribute, name string) int {
	for i, a := range attrs {
		if c.AttributeName(a) == name {
			return i
		}
	}
	return -1
}

// Clone returns a deep copy of c.
func (c *Class) Clone() *Class {
	clone := &Class{
		Minor:      c.Minor,
		Major:      c.Major,
		Pool:       c.Pool.clone(),
		Access:     c.Access,
		This:       c.This,
		Super:      c.Super,
		Interfaces: append([]uint16(nil), c.Interfaces...),
		Fields:     cloneMembers(c.Fields),
		Methods:    cloneMembers(c.Methods),
		Attributes: cloneAttributes(c.Attributes),
	}
	return clone
}

func cloneMembers(members []*Member) []*Member {
	res := make([]*Member, len(members))
	for i, m := range members {
		cm := *m
		cm.Attributes = cloneAttributes(m.Attributes)
		res[i] = &cm
	}
	return res
}

func cloneAttributes(attrs []Attribute) []Attribute {
	res := make([]Attribute, len(attrs))
	for i, a := range attrs {
		res[i] = Attribute{NameIndex: a.NameIndex, Info: append([]byte(nil), a.Info...)}
	}
	return res
}
