// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2023-present Datadog, Inc.

package weave

import (
	"maps"
	"slices"
)

// Hooks is the normalized output of the discovery phase. Every list is
// deduplicated and sorted by byte-wise string comparison, so that the same
// discovery input always yields the same injection order. A Hooks value is
// never modified after construction and can be shared by concurrent engines.
type Hooks struct {
	providers []string
	versions  map[string]string
	autowired []string
	routes    []string
}

// NewHooks normalizes the discovery output: the service provider to version
// mapping, the dependency injection targets and the route holders.
func NewHooks(providers map[string]string, autowired, routes []string) Hooks {
	names := make([]string, 0, len(providers))
	for name := range providers {
		names = append(names, name)
	}
	return Hooks{
		providers: normalize(names),
		versions:  maps.Clone(providers),
		autowired: normalize(autowired),
		routes:    normalize(routes),
	}
}

func normalize(names []string) []string {
	res := slices.Clone(names)
	slices.Sort(res)
	return slices.Compact(res)
}

// Providers returns the service provider names, as discovered (prefix not
// applied).
func (h Hooks) Providers() []string {
	return slices.Clone(h.providers)
}

// Autowired returns the dependency injection targets.
func (h Hooks) Autowired() []string {
	return slices.Clone(h.autowired)
}

// Routes returns the route holders.
func (h Hooks) Routes() []string {
	return slices.Clone(h.routes)
}

// Version returns the version recorded for a service provider.
func (h Hooks) Version(name string) (string, bool) {
	v, ok := h.versions[name]
	return v, ok
}

// Len returns the total number of hooks.
func (h Hooks) Len() int {
	return len(h.providers) + len(h.autowired) + len(h.routes)
}
