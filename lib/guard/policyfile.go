// Copyright 2026 The Agentic Qtile Authors
// SPDX-License-Identifier: Apache-2.0

package guard

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// policyFile is the YAML shape of a policy override file. A section
// that is absent keeps the built-in default; a section that is
// present replaces it entirely.
type policyFile struct {
	SensitiveClasses []string `yaml:"sensitive_classes"`
	SensitiveTitles  []string `yaml:"sensitive_titles"`
	DenyPatterns     []string `yaml:"deny_patterns"`
}

// LoadPolicy reads a Policy from the YAML file at path. The path is
// explicit; there is no default location or discovery. Sections
// omitted from the file keep their built-in defaults.
func LoadPolicy(path string) (*Policy, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading policy %s: %w", path, err)
	}

	var file policyFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parsing policy %s: %w", path, err)
	}

	classes := defaultSensitiveClasses
	if file.SensitiveClasses != nil {
		classes = file.SensitiveClasses
	}
	titles := defaultSensitiveTitles
	if file.SensitiveTitles != nil {
		titles = file.SensitiveTitles
	}
	patterns := defaultDenyPatterns
	if file.DenyPatterns != nil {
		patterns = file.DenyPatterns
	}

	policy, err := NewPolicy(classes, titles, patterns)
	if err != nil {
		return nil, fmt.Errorf("policy %s: %w", path, err)
	}
	return policy, nil
}
