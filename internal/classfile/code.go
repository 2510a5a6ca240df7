// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2023-present Datadog, Inc.

package classfile

import (
	"encoding/binary"
	"fmt"

	"github.com/DataDog/weaver/internal/bytecode"
)

// FramesSince is the first class file version carrying StackMapTable frames.
const FramesSince = 50

// Env returns the codec environment for the body of method m.
func (c *Class) Env(m *Member) (bytecode.Env, error) {
	mt, err := bytecode.ParseMethodType(m.Descriptor)
	if err != nil {
		return bytecode.Env{}, fmt.Errorf("method %s: %w", m.Name, err)
	}
	return bytecode.Env{
		Pool:        c.Pool,
		Owner:       c.Name(),
		Static:      m.IsStatic(),
		Constructor: m.Name == Constructor,
		Type:        mt,
		Frames:      c.Major >= FramesSince,
	}, nil
}

// Code decodes the body of method m. It returns nil without error when the
// method has no Code attribute (abstract and native methods).
func (c *Class) Code(m *Member) (*bytecode.Code, error) {
	i := c.FindAttribute(m.Attributes, AttrCode)
	if i < 0 {
		return nil, nil
	}
	env, err := c.Env(m)
	if err != nil {
		return nil, err
	}
	code, err := bytecode.Decode(m.Attributes[i].Info, env)
	if err != nil {
		return nil, fmt.Errorf("method %s%s: %w", m.Name, m.Descriptor, err)
	}
	return code, nil
}

// SetCode encodes code as the body of method m, replacing any existing Code
// attribute in place.
func (c *Class) SetCode(m *Member, code *bytecode.Code) error {
	env, err := c.Env(m)
	if err != nil {
		return err
	}
	info, err := code.Encode(env)
	if err != nil {
		return fmt.Errorf("method %s%s: %w", m.Name, m.Descriptor, err)
	}
	return c.setAttribute(m, AttrCode, info)
}

func (c *Class) setAttribute(m *Member, name string, info []byte) error {
	if i := c.FindAttribute(m.Attributes, name); i >= 0 {
		m.Attributes[i].Info = info
		return nil
	}
	index, err := c.Pool.AddUtf8(name)
	if err != nil {
		return err
	}
	m.Attributes = append(m.Attributes, Attribute{NameIndex: index, Info: info})
	return nil
}

// ConstantValue returns the constant pool index held by the ConstantValue
// attribute of field f, and whether the field has one.
func (c *Class) ConstantValue(f *Member) (uint16, bool) {
	i := c.FindAttribute(f.Attributes, AttrConstantValue)
	if i < 0 || len(f.Attributes[i].Info) != 2 {
		return 0, false
	}
	return binary.BigEndian.Uint16(f.Attributes[i].Info), true
}

// SetConstantValue points the ConstantValue attribute of field f at the
// constant pool entry index, adding the attribute if the field has none.
func (c *Class) SetConstantValue(f *Member, index uint16) error {
	return c.setAttribute(f, AttrConstantValue, binary.BigEndian.AppendUint16(nil, index))
}
