// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2023-present Datadog, Inc.

package weave

import (
	"fmt"

	"github.com/DataDog/weaver/internal/classfile"
	"github.com/DataDog/weaver/internal/log"
)

// VisitField forces the initial value of the marker field to true. The
// field's access flags, position and other attributes are left untouched.
func (r *rewriter) VisitField(c *classfile.Class, f *classfile.Member) error {
	if f.Name != r.profile.Field.Name || f.Descriptor != r.profile.Field.Descriptor {
		return nil
	}

	one, err := c.Pool.AddInteger(1)
	if err != nil {
		return fmt.Errorf("adding marker value: %w", err)
	}
	if err := c.SetConstantValue(f, one); err != nil {
		return err
	}

	log.Debugf("%s: marker field %s set to true\n", c.Name(), f.Name)
	r.result.FieldPatched = true
	return nil
}
