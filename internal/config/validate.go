// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2023-present Datadog, Inc.

package config

import (
	_ "embed" // For go:embed
	"sync"

	"github.com/DataDog/weaver/internal/schema"
)

var (
	//go:embed schema.json
	schemaBytes   []byte
	profileSchema = sync.OnceValue(func() *schema.Schema { return schema.MustCompile(schemaBytes) })
)

// ValidateObject checks a decoded profile document against the embedded JSON
// schema.
func ValidateObject(obj map[string]any) error {
	return profileSchema().Validate(obj)
}
