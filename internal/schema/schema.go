// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2023-present Datadog, Inc.

// Package schema compiles the JSON schemas embedded alongside the weaver's
// YAML documents.
package schema

import (
	"encoding/json"
	"fmt"

	"github.com/dlclark/regexp2"
	"github.com/santhosh-tekuri/jsonschema/v6"
)

// Schema is a compiled JSON schema.
type Schema = jsonschema.Schema

// MustCompile compiles the JSON schema document in raw. Patterns use
// ECMAScript regular expression semantics, as mandated by JSON schema. It
// panics if the schema is invalid, as embedded schemas are part of the build.
func MustCompile(raw []byte) *Schema {
	var doc map[string]any
	if err := json.Unmarshal(raw, &doc); err != nil {
		panic(fmt.Errorf("decoding JSON schema: %w", err))
	}
	url, _ := doc["$id"].(string)

	compiler := jsonschema.NewCompiler()
	compiler.UseRegexpEngine(regexpEngine)
	if err := compiler.AddResource(url, doc); err != nil {
		panic(fmt.Errorf("adding resource to jsonschema compiler: %w", err))
	}
	sch, err := compiler.Compile(url)
	if err != nil {
		panic(fmt.Errorf("compiling jsonschema: %w", err))
	}
	return sch
}

type re2 regexp2.Regexp

func (re *re2) MatchString(s string) bool {
	matched, err := (*regexp2.Regexp)(re).MatchString(s)
	return err == nil && matched
}

func (re *re2) String() string {
	return (*regexp2.Regexp)(re).String()
}

func regexpEngine(s string) (jsonschema.Regexp, error) {
	re, err := regexp2.Compile(s, regexp2.ECMAScript)
	if err != nil {
		return nil, err
	}
	return (*re2)(re), nil
}
