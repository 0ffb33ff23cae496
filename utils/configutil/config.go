// Copyright (c) 2016-2019 Uber Technologies, Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//	http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package configutil loads a daemon's YAML configuration, resolving an
// "extends" chain of base files before validating the merged result once.
package configutil

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	validator "gopkg.in/validator.v2"
	yaml "gopkg.in/yaml.v2"
)

// ErrCycleRef is returned when a file's extends chain refers back to
// itself.
var ErrCycleRef = errors.New("cyclic reference in configuration extends detected")

// ValidationError wraps validator.v2's per-field error map so callers can
// look up the errors for one specific field.
type ValidationError struct {
	Errors validator.ErrorMap
}

// Error renders every field's errors into a single message.
func (v ValidationError) Error() string {
	var b strings.Builder
	for field, errs := range v.Errors {
		fmt.Fprintf(&b, "%s: %v; ", field, errs)
	}
	return b.String()
}

// ErrForField returns the validation errors recorded against field, if any.
func (v ValidationError) ErrForField(field string) validator.ErrorArray {
	return v.Errors[field]
}

// Load reads fname, follows its "extends" chain from root ancestor to
// fname, merges every file in that order onto config, then validates the
// merged result once.
func Load(fname string, config interface{}) error {
	chain, err := resolveExtends(fname, extendsTarget)
	if err != nil {
		return fmt.Errorf("resolve extends for %s: %w", fname, err)
	}
	return loadFiles(config, chain)
}

// loadFiles merges filenames onto config in order -- later files override
// fields earlier files set, since yaml.Unmarshal only overwrites keys
// present in the document it's decoding -- then validates once.
func loadFiles(config interface{}, filenames []string) error {
	for _, fn := range filenames {
		data, err := os.ReadFile(fn)
		if err != nil {
			return fmt.Errorf("read %s: %w", fn, err)
		}
		if err := yaml.Unmarshal(data, config); err != nil {
			return fmt.Errorf("parse %s: %w", fn, err)
		}
	}

	if err := validator.Validate(config); err != nil {
		if errs, ok := err.(validator.ErrorMap); ok {
			return ValidationError{Errors: errs}
		}
		return err
	}
	return nil
}

// extendsTarget returns the unresolved "extends" value in filename's YAML
// document, or "" if it has none.
func extendsTarget(filename string) (string, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return "", err
	}
	var doc struct {
		Extends string `yaml:"extends"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return "", err
	}
	return doc.Extends, nil
}

// resolveExtends walks fpath's extends chain (via lookup) back to its root
// ancestor, returning the chain ordered root-first, fpath-last -- the order
// loadFiles should apply them in so that fpath's own settings win.
// Relative extends targets resolve against the directory of the file that
// named them.
func resolveExtends(fpath string, lookup func(string) (string, error)) ([]string, error) {
	chain := []string{fpath}
	seen := map[string]bool{fpath: true}
	cur := fpath

	for {
		target, err := lookup(cur)
		if err != nil {
			return nil, err
		}
		if target == "" {
			break
		}
		if !filepath.IsAbs(target) {
			target = filepath.Join(filepath.Dir(cur), target)
		}
		if seen[target] {
			return nil, ErrCycleRef
		}
		seen[target] = true
		chain = append([]string{target}, chain...)
		cur = target
	}
	return chain, nil
}
