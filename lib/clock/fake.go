// Copyright 2026 The Agentic Qtile Authors
// SPDX-License-Identifier: Apache-2.0

package clock

import "time"

// Fake is a Clock whose time only moves when Advance is called. The
// zero value is not usable; construct with NewFake.
type Fake struct {
	now time.Time
}

// NewFake returns a Fake clock frozen at start.
func NewFake(start time.Time) *Fake {
	return &Fake{now: start}
}

// Now returns the fake's current time.
func (f *Fake) Now() time.Time { return f.now }

// Advance moves the fake's time forward by d.
func (f *Fake) Advance(d time.Duration) { f.now = f.now.Add(d) }

// Set moves the fake's time to t. Going backwards is allowed; the
// event log stamps whatever the clock says.
func (f *Fake) Set(t time.Time) { f.now = t }
