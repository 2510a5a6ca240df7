// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2023-present Datadog, Inc.

package classfile

import (
	"fmt"

	"github.com/DataDog/weaver/internal/bytecode"
)

// New returns an empty public class with the given internal name, super class
// and major version.
func New(name, super string, major uint16) (*Class, error) {
	c := &Class{Major: major, Pool: &Pool{entries: make([]Constant, 1)}, Access: AccPublic | AccSuper}
	var err error
	if c.This, err = c.Pool.AddClass(name); err != nil {
		return nil, err
	}
	if super != "" {
		if c.Super, err = c.Pool.AddClass(super); err != nil {
			return nil, err
		}
	}
	return c, nil
}

func (c *Class) newMember(access uint16, name, desc string) (*Member, error) {
	n, err := c.Pool.AddUtf8(name)
	if err != nil {
		return nil, err
	}
	d, err := c.Pool.AddUtf8(desc)
	if err != nil {
		return nil, err
	}
	return &Member{Access: access, NameIndex: n, DescIndex: d, Name: name, Descriptor: desc}, nil
}

// AddField appends a field declaration.
func (c *Class) AddField(access uint16, name, desc string) (*Member, error) {
	f, err := c.newMember(access, name, desc)
	if err != nil {
		return nil, err
	}
	c.Fields = append(c.Fields, f)
	return f, nil
}

// AddMethod appends a method declaration. A nil code declares a method
// without body.
func (c *Class) AddMethod(access uint16, name, desc string, code *bytecode.Code) (*Member, error) {
	m, err := c.newMember(access, name, desc)
	if err != nil {
		return nil, err
	}
	if code != nil {
		if err := c.SetCode(m, code); err != nil {
			return nil, fmt.Errorf("adding %s%s: %w", name, desc, err)
		}
	}
	c.Methods = append(c.Methods, m)
	return m, nil
}

// Field returns the first field called name, or nil.
func (c *Class) Field(name string) *Member {
	for _, f := range c.Fields {
		if f.Name == name {
			return f
		}
	}
	return nil
}

// Method returns the first method called name, or nil.
func (c *Class) Method(name string) *Member {
	for _, m := range c.Methods {
		if m.Name == name {
			return m
		}
	}
	return nil
}
