// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2023-present Datadog, Inc.

package config

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/DataDog/weaver/internal/bytecode"
	"gopkg.in/yaml.v3"
)

// Load reads a profile from a YAML file. Settings missing from the file keep
// their default value.
func Load(filename string) (Profile, error) {
	file, err := os.Open(filename)
	if err != nil {
		return Profile{}, fmt.Errorf("open %q: %w", filename, err)
	}
	defer file.Close()

	p, err := Decode(file)
	if err != nil {
		return Profile{}, fmt.Errorf("%q: %w", filename, err)
	}
	return p, nil
}

// Decode reads a YAML profile, validates it against the profile schema, and
// overlays it on the default profile.
func Decode(r io.Reader) (Profile, error) {
	profile := Default()

	var node yaml.Node
	if err := yaml.NewDecoder(r).Decode(&node); err != nil {
		if errors.Is(err, io.EOF) {
			return profile, nil
		}
		return Profile{}, fmt.Errorf("yaml.Decode -> yaml.Node: %w", err)
	}

	var simple map[string]any
	if err := node.Decode(&simple); err != nil {
		return Profile{}, fmt.Errorf("yaml.Decode -> map[string]any: %w", err)
	}
	if err := ValidateObject(simple); err != nil {
		return Profile{}, fmt.Errorf("validate: %w", err)
	}

	if err := node.Decode(&profile); err != nil {
		return Profile{}, fmt.Errorf("yaml.Decode: %w", err)
	}
	if err := profile.Validate(); err != nil {
		return Profile{}, err
	}
	return profile, nil
}

// Validate checks that the names of the profile are consistent with how the
// injected code uses them.
func (p Profile) Validate() error {
	var errs []error

	if p.Field.Name == "" || p.Field.Descriptor != "Z" {
		errs = append(errs, fmt.Errorf("field: marker must be a named boolean, got %q %q", p.Field.Name, p.Field.Descriptor))
	}

	seen := make(map[string]string, 4)
	for _, m := range []struct{ role, name string }{
		{"interceptors", p.Methods.Interceptors},
		{"flow-tasks", p.Methods.FlowTasks},
		{"autowired", p.Methods.Autowired},
		{"routes", p.Methods.Routes},
	} {
		switch {
		case m.name == "" || m.name == "<init>" || m.name == "<clinit>":
			errs = append(errs, fmt.Errorf("methods.%s: %q cannot be a marker method", m.role, m.name))
		case seen[m.name] != "":
			errs = append(errs, fmt.Errorf("methods.%s: %q is already used by methods.%s", m.role, m.name, seen[m.name]))
		default:
			seen[m.name] = m.role
		}
	}

	if p.Providers.Sentinel == "" {
		errs = append(errs, errors.New("providers.sentinel: must not be empty"))
	}

	errs = append(errs,
		checkCall("registry.accessor-descriptor", p.Registry.AccessorDescriptor, 0, "L"),
		checkCall("registry.register-descriptor", p.Registry.RegisterDescriptor, 1, "V"),
		checkCall("flow-task.descriptor", p.FlowTask.Descriptor, 2, "V"),
		checkCall("autowired.descriptor", p.Autowired.Descriptor, 1, "V"),
		checkCall("route.descriptor", p.Route.Descriptor, 0, "V"),
	)
	if p.Report.Static {
		errs = append(errs, checkCall("report.descriptor", p.Report.Descriptor, 1, "V"))
	} else {
		errs = append(errs, checkCall("report.descriptor", p.Report.Descriptor, 0, "V"))
	}

	return errors.Join(errs...)
}

// checkCall verifies a method descriptor takes arity parameters and returns a
// value whose descriptor starts with ret.
func checkCall(field, desc string, arity int, ret string) error {
	mt, err := bytecode.ParseMethodType(desc)
	if err != nil {
		return fmt.Errorf("%s: %w", field, err)
	}
	if len(mt.Params) != arity {
		return fmt.Errorf("%s: %q must take %d parameters", field, desc, arity)
	}
	if mt.Return[:1] != ret {
		return fmt.Errorf("%s: %q has an unexpected return type", field, desc)
	}
	return nil
}
