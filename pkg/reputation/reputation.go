// Copyright 2020 The Swarm Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package reputation provides the bounded trust score that gates access to
// credit extensions.
package reputation

import "strconv"

const (
	// Min is the lowest possible score.
	Min Score = 0
	// Max is the highest possible score.
	Max Score = 1000
	// High is the initial score of a node created as trusted.
	High Score = 900
	// Low is the initial score of any other node.
	Low Score = 100
	// CreditThreshold is the score from which a node is granted a credit
	// extension instead of a micro-task.
	CreditThreshold Score = 700
)

// Score is a trust score in [Min, Max].
type Score int64

// Initial returns the starting score for a new node.
func Initial(high bool) Score {
	if high {
		return High
	}
	return Low
}

// Increase returns s + d clamped to [Min, Max].
func (s Score) Increase(d int64) Score {
	return clamp(int64(s) + d)
}

// Decrease returns s - d clamped to [Min, Max].
func (s Score) Decrease(d int64) Score {
	return clamp(int64(s) - d)
}

// Trusted reports whether the score qualifies for a credit extension.
func (s Score) Trusted() bool {
	return s >= CreditThreshold
}

func (s Score) String() string {
	return strconv.FormatInt(int64(s), 10)
}

func clamp(v int64) Score {
	switch {
	case v < int64(Min):
		return Min
	case v > int64(Max):
		return Max
	}
	return Score(v)
}
