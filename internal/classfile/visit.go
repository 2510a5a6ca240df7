// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2023-present Datadog, Inc.

package classfile

import "fmt"

// Visitor is given the chance to rewrite each declaration of a class.
type Visitor interface {
	// VisitField is called once per field, in declaration order.
	VisitField(c *Class, f *Member) error
	// VisitMethod is called once per method, in declaration order, after all
	// fields have been visited.
	VisitMethod(c *Class, m *Member) error
}

// PassThrough is a Visitor leaving every declaration untouched. Embed it to
// override only some of the hooks.
type PassThrough struct{}

func (PassThrough) VisitField(*Class, *Member) error  { return nil }
func (PassThrough) VisitMethod(*Class, *Member) error { return nil }

// Transform returns a copy of in rewritten by v. The input class is never
// modified; if v fails on any declaration, the partially rewritten copy is
// discarded and only the error is returned.
func Transform(in *Class, v Visitor) (*Class, error) {
	out := in.Clone()
	for _, f := range out.Fields {
		if err := v.VisitField(out, f); err != nil {
			return nil, fmt.Errorf("field %s: %w", f.Name, err)
		}
	}
	for _, m := range out.Methods {
		if err := v.VisitMethod(out, m); err != nil {
			return nil, fmt.Errorf("method %s%s: %w", m.Name, m.Descriptor, err)
		}
	}
	return out, nil
}
