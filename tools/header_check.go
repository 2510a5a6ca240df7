// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2023-present Datadog, Inc.

// Command header_check reports the Go files of the module that do not start
// with the license header.
package main

import (
	"bufio"
	"fmt"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"strings"
)

var expected = []string{
	"// Unless explicitly stated otherwise all files in this repository are licensed",
	"// under the Apache License Version 2.0.",
	"// This product includes software developed at Datadog (https://www.datadoghq.com/).",
	"// Copyright 2023-present Datadog, Inc.",
}

func main() {
	pwd, err := os.Getwd()
	if err != nil {
		log.Fatal(err)
	}
	log.Printf("Checking copyright headers of Go files in %q recursively", pwd)

	var missing []string
	err = filepath.WalkDir(pwd, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			// The go tool ignores these directories too.
			if name := d.Name(); path != pwd && (strings.HasPrefix(name, "_") || strings.HasPrefix(name, ".") || name == "testdata") {
				return filepath.SkipDir
			}
			return nil
		}
		if !strings.HasSuffix(d.Name(), ".go") {
			return nil
		}
		ok, err := hasHeader(path)
		if err != nil {
			return fmt.Errorf("scanning %q: %w", path, err)
		}
		if !ok {
			rel, _ := filepath.Rel(pwd, path)
			missing = append(missing, rel)
		}
		return nil
	})
	if err != nil {
		log.Fatal(err)
	}

	for _, path := range missing {
		fmt.Printf("File %s does not contain copyright headers!\n", path)
	}
	if len(missing) > 0 {
		os.Exit(1)
	}
}

func hasHeader(path string) (bool, error) {
	file, err := os.Open(path)
	if err != nil {
		return false, err
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	for _, want := range expected {
		if !scanner.Scan() {
			return false, scanner.Err()
		}
		if scanner.Text() != want {
			return false, nil
		}
	}
	return true, nil
}
