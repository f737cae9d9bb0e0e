// Copyright 2026 The Agentic Qtile Authors
// SPDX-License-Identifier: Apache-2.0

package guard

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/NModlin/agentic-qtile/lib/wm"
)

// Violation is the structured rejection returned by every gate check.
// Callers extract it with errors.As:
//
//	var violation *guard.Violation
//	if errors.As(err, &violation) { ... }
type Violation struct {
	// Reason is the human-readable rejection reason.
	Reason string
}

func (v *Violation) Error() string {
	return "security violation: " + v.Reason
}

// RedactedName is the placeholder substituted for a sensitive
// window's title in single-window lookups, so agents still observe
// that something is there.
const RedactedName = "<REDACTED>"

// defaultSensitiveClasses are WM_CLASS values (lowercased) whose
// windows are never disclosed to agents.
var defaultSensitiveClasses = []string{
	"keepassxc",
	"bitwarden",
	"1password",
	"firefox-private",
	"crx_nngceckbapebfimnlniiiahkandclblb", // Bitwarden extension popup
}

// defaultSensitiveTitles are title substrings (lowercased) that mark
// a window sensitive regardless of class.
var defaultSensitiveTitles = []string{
	"password",
	"bank",
	"login",
	"signin",
	"sign in",
	"private browsing",
	"incognito",
}

// defaultDenyPatterns match dangerous input an agent must never type.
// Evaluated in order; first match wins.
var defaultDenyPatterns = []string{
	`\bsudo\s`,
	`\bdoas\s`,
	`\bsu\s`,
	`rm\s+-rf`,
	regexp.QuoteMeta(`:(){:|:&};:`), // fork bomb
	`\bmkfs`,
	`\bdd\s+if=`,
}

// Policy is the fixed rule set consulted by the gate. Construct with
// DefaultPolicy, NewPolicy, or LoadPolicy; the zero value denies
// nothing and must not be used.
type Policy struct {
	sensitiveClasses map[string]struct{}
	sensitiveTitles  []string
	denyPatterns     []*regexp.Regexp
}

// DefaultPolicy returns the built-in rule set.
func DefaultPolicy() *Policy {
	policy, err := NewPolicy(defaultSensitiveClasses, defaultSensitiveTitles, defaultDenyPatterns)
	if err != nil {
		panic("guard: built-in deny patterns failed to compile: " + err.Error())
	}
	return policy
}

// NewPolicy builds a Policy from explicit rule lists. Class and title
// matching is case-insensitive; patterns are Go regular expressions.
func NewPolicy(classes, titles, patterns []string) (*Policy, error) {
	policy := &Policy{
		sensitiveClasses: make(map[string]struct{}, len(classes)),
	}
	for _, class := range classes {
		policy.sensitiveClasses[strings.ToLower(class)] = struct{}{}
	}
	for _, title := range titles {
		policy.sensitiveTitles = append(policy.sensitiveTitles, strings.ToLower(title))
	}
	for _, pattern := range patterns {
		compiled, err := regexp.Compile(pattern)
		if err != nil {
			return nil, fmt.Errorf("compiling deny pattern %q: %w", pattern, err)
		}
		policy.denyPatterns = append(policy.denyPatterns, compiled)
	}
	return policy, nil
}

// CanSeeWindow reports whether the window may be disclosed to agents.
// A window is sensitive when any WM_CLASS entry is in the sensitive
// class set or the title contains a sensitive keyword.
func (p *Policy) CanSeeWindow(window wm.Window) bool {
	for _, class := range window.Class {
		if _, sensitive := p.sensitiveClasses[strings.ToLower(class)]; sensitive {
			return false
		}
	}
	title := strings.ToLower(window.Name)
	for _, keyword := range p.sensitiveTitles {
		if strings.Contains(title, keyword) {
			return false
		}
	}
	return true
}

// ValidateInput scans text against the deny list. Returns a
// *Violation naming the matched pattern, or nil when the text is
// clean.
func (p *Policy) ValidateInput(text string) error {
	for _, pattern := range p.denyPatterns {
		if pattern.MatchString(text) {
			return &Violation{
				Reason: fmt.Sprintf("input blocked: contains dangerous pattern %q", pattern.String()),
			}
		}
	}
	return nil
}

// CanInjectInput enforces the focus lock: keystrokes may only target
// the window that currently holds focus. focused is nil when nothing
// is focused, which always fails.
func (p *Policy) CanInjectInput(focused *wm.Window, targetID uint64) error {
	if focused == nil {
		return &Violation{Reason: "input blocked: no window is currently focused"}
	}
	if focused.ID != targetID {
		return &Violation{
			Reason: fmt.Sprintf(
				"focus lock: input targeted window %d but focus is on window %d (%q)",
				targetID, focused.ID, focused.Name,
			),
		}
	}
	return nil
}
