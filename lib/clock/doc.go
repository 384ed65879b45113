// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package clock provides an injectable time source.
//
// The platform reads time in two places: snapshot timestamps and the
// periodic snapshot flush. Both take a Clock so tests can drive them
// with Fake instead of sleeping:
//
//	c := clock.Fake(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
//	// ... start the goroutine that creates a ticker ...
//	c.WaitForTimers(1)
//	c.Advance(30 * time.Second)
package clock
