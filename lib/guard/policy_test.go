// Copyright 2026 The Agentic Qtile Authors
// SPDX-License-Identifier: Apache-2.0

package guard

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/NModlin/agentic-qtile/lib/wm"
)

func TestCanSeeWindow(t *testing.T) {
	policy := DefaultPolicy()

	tests := []struct {
		name    string
		window  wm.Window
		canSee  bool
	}{
		{
			name:   "plain editor",
			window: wm.Window{ID: 1, Name: "main.go - nvim", Class: []string{"nvim", "Nvim"}},
			canSee: true,
		},
		{
			name:   "password manager by class",
			window: wm.Window{ID: 2, Name: "unlock database", Class: []string{"keepassxc", "KeePassXC"}},
			canSee: false,
		},
		{
			name:   "class match is case-insensitive",
			window: wm.Window{ID: 3, Name: "vault", Class: []string{"BitWarden"}},
			canSee: false,
		},
		{
			name:   "banking page by title",
			window: wm.Window{ID: 4, Name: "My Bank - Mozilla Firefox", Class: []string{"firefox"}},
			canSee: false,
		},
		{
			name:   "title keyword match is case-insensitive",
			window: wm.Window{ID: 5, Name: "Sign In to GitHub", Class: []string{"firefox"}},
			canSee: false,
		},
		{
			name:   "private browsing",
			window: wm.Window{ID: 6, Name: "Mozilla Firefox (Private Browsing)", Class: []string{"firefox"}},
			canSee: false,
		},
		{
			name:   "empty window",
			window: wm.Window{ID: 7},
			canSee: true,
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			if got := policy.CanSeeWindow(test.window); got != test.canSee {
				t.Errorf("CanSeeWindow(%q/%v) = %v, want %v",
					test.window.Name, test.window.Class, got, test.canSee)
			}
		})
	}
}

func TestValidateInput(t *testing.T) {
	policy := DefaultPolicy()

	blocked := []string{
		"sudo rm -rf /",
		"echo hi && sudo reboot",
		"doas pkg_add nmap",
		"su root",
		"rm -rf ~/projects",
		"rm   -rf /tmp/x",
		":(){:|:&};:",
		"mkfs.ext4 /dev/sda1",
		"dd if=/dev/zero of=/dev/sda",
	}
	for _, text := range blocked {
		if err := policy.ValidateInput(text); err == nil {
			t.Errorf("ValidateInput(%q) = nil, want violation", text)
		}
	}

	allowed := []string{
		"",
		"hello world",
		"ls -la && cat notes.txt",
		"git push origin main",
		"the tiramisu recipe", // "su" inside a word is not privilege escalation
		"ddns update",
	}
	for _, text := range allowed {
		if err := policy.ValidateInput(text); err != nil {
			t.Errorf("ValidateInput(%q) = %v, want nil", text, err)
		}
	}
}

func TestValidateInputReturnsViolation(t *testing.T) {
	err := DefaultPolicy().ValidateInput("sudo ls")
	var violation *Violation
	if !errors.As(err, &violation) {
		t.Fatalf("ValidateInput returned %T, want *Violation", err)
	}
	if violation.Reason == "" {
		t.Error("violation has empty reason")
	}
}

func TestCanInjectInput(t *testing.T) {
	policy := DefaultPolicy()
	terminal := wm.Window{ID: 10, Name: "terminal"}

	// Focus matches the target.
	if err := policy.CanInjectInput(&terminal, 10); err != nil {
		t.Errorf("matching focus rejected: %v", err)
	}

	// Focus on a different window.
	if err := policy.CanInjectInput(&terminal, 11); err == nil {
		t.Error("focus mismatch accepted")
	}

	// Nothing focused.
	if err := policy.CanInjectInput(nil, 10); err == nil {
		t.Error("injection with no focus accepted")
	}
	var violation *Violation
	if err := policy.CanInjectInput(nil, 10); !errors.As(err, &violation) {
		t.Errorf("focus lock returned %T, want *Violation", err)
	}
}

func TestLoadPolicy(t *testing.T) {
	path := filepath.Join(t.TempDir(), "policy.yaml")
	content := `
sensitive_classes:
  - secretapp
deny_patterns:
  - "drop\\s+table"
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("writing policy file: %v", err)
	}

	policy, err := LoadPolicy(path)
	if err != nil {
		t.Fatalf("LoadPolicy: %v", err)
	}

	// Replaced sections.
	if policy.CanSeeWindow(wm.Window{ID: 1, Class: []string{"SecretApp"}}) {
		t.Error("configured sensitive class not applied")
	}
	if policy.CanSeeWindow(wm.Window{ID: 2, Class: []string{"keepassxc"}}) != true {
		t.Error("default class list should be replaced, not merged")
	}
	if err := policy.ValidateInput("DROP table users"); err != nil {
		// Pattern matching is case-sensitive unless the pattern opts in.
		t.Errorf("unexpected violation: %v", err)
	}
	if err := policy.ValidateInput("drop   table users"); err == nil {
		t.Error("configured deny pattern not applied")
	}
	if err := policy.ValidateInput("sudo ls"); err != nil {
		t.Errorf("default deny patterns should be replaced: %v", err)
	}

	// Omitted section keeps the defaults.
	if policy.CanSeeWindow(wm.Window{ID: 3, Name: "incognito tab", Class: []string{"chromium"}}) {
		t.Error("default sensitive titles should survive when omitted")
	}
}

func TestLoadPolicyRejectsBadPattern(t *testing.T) {
	path := filepath.Join(t.TempDir(), "policy.yaml")
	if err := os.WriteFile(path, []byte("deny_patterns: [\"(unclosed\"]\n"), 0o644); err != nil {
		t.Fatalf("writing policy file: %v", err)
	}
	if _, err := LoadPolicy(path); err == nil {
		t.Error("LoadPolicy accepted an invalid regular expression")
	}
}
