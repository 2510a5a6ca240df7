// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2023-present Datadog, Inc.

// Package manifest reads the hook lists produced by the discovery phase.
package manifest

import (
	_ "embed" // For go:embed
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"sync"

	"github.com/DataDog/weaver/internal/log"
	"github.com/DataDog/weaver/internal/schema"
	"github.com/DataDog/weaver/internal/weave"
	"golang.org/x/mod/semver"
	"gopkg.in/yaml.v3"
)

// Manifest is the discovery output for one build.
type Manifest struct {
	// Incremental is the build mode recorded by discovery, if any.
	Incremental *bool `yaml:"incremental,omitempty"`
	// ServiceProviders maps provider class names to the version of the
	// annotation processor that generated them.
	ServiceProviders map[string]string `yaml:"service-providers,omitempty"`
	Autowired        []string          `yaml:"autowired,omitempty"`
	Routes           []string          `yaml:"routes,omitempty"`
}

var (
	//go:embed schema.json
	schemaBytes    []byte
	manifestSchema = sync.OnceValue(func() *schema.Schema { return schema.MustCompile(schemaBytes) })
)

// Load reads a manifest from a YAML (or JSON) file.
func Load(filename string) (*Manifest, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("open %q: %w", filename, err)
	}
	defer file.Close()

	m, err := Decode(file)
	if err != nil {
		return nil, fmt.Errorf("%q: %w", filename, err)
	}
	return m, nil
}

// Decode reads a manifest and validates it against the manifest schema.
func Decode(r io.Reader) (*Manifest, error) {
	var node yaml.Node
	if err := yaml.NewDecoder(r).Decode(&node); err != nil {
		if errors.Is(err, io.EOF) {
			return &Manifest{}, nil
		}
		return nil, fmt.Errorf("yaml.Decode -> yaml.Node: %w", err)
	}

	var simple map[string]any
	if err := node.Decode(&simple); err != nil {
		return nil, fmt.Errorf("yaml.Decode -> map[string]any: %w", err)
	}
	if err := manifestSchema().Validate(simple); err != nil {
		return nil, fmt.Errorf("validate: %w", err)
	}

	var m Manifest
	if err := node.Decode(&m); err != nil {
		return nil, fmt.Errorf("yaml.Decode: %w", err)
	}
	return &m, nil
}

// Hooks returns the normalized hook lists.
func (m *Manifest) Hooks() weave.Hooks {
	return weave.NewHooks(m.ServiceProviders, m.Autowired, m.Routes)
}

// Check returns a warning for every service provider version that is neither
// the sentinel nor a semantic version. Such providers are still injected.
func (m *Manifest) Check(sentinel string) []string {
	var warnings []string
	for name, v := range m.ServiceProviders {
		if v == sentinel || semver.IsValid("v"+v) {
			continue
		}
		warnings = append(warnings, fmt.Sprintf("service provider %s has unexpected version %q", name, v))
	}
	sort.Strings(warnings)
	for _, w := range warnings {
		log.Warnf("%s\n", w)
	}
	return warnings
}

// Encode writes the manifest as YAML.
func (m *Manifest) Encode(w io.Writer) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(m); err != nil {
		return err
	}
	return enc.Close()
}
