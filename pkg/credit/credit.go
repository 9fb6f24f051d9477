// Copyright 2020 The Swarm Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package credit provides the Amount type, the quantity of the network's
// credit unit held by nodes and moved by ledger records.
package credit

import (
	"fmt"
	"math"
	"strconv"
)

// Overdraft is the balance granted to a node by a credit extension. It is
// the only negative value an Amount takes inside the economy.
const Overdraft Amount = -50

// Amount is a quantity of credit.
type Amount int64

// Add returns a + b.
func (a Amount) Add(b Amount) Amount {
	return a + b
}

// AddOverflows reports whether a + b falls outside the range of Amount.
func (a Amount) AddOverflows(b Amount) bool {
	if b > 0 {
		return a > math.MaxInt64-b
	}
	return a < math.MinInt64-b
}

// Sub returns a - b floored at zero. A shortfall is not reported here;
// callers needing it must compare before subtracting.
func (a Amount) Sub(b Amount) Amount {
	if b >= a {
		return 0
	}
	return a - b
}

// Negative reports whether the amount is below zero.
func (a Amount) Negative() bool {
	return a < 0
}

// Int64 returns the amount as a plain integer.
func (a Amount) Int64() int64 {
	return int64(a)
}

func (a Amount) String() string {
	return strconv.FormatInt(int64(a), 10)
}

// Parse parses a decimal amount.
func Parse(s string) (Amount, error) {
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parse amount %q: %w", s, err)
	}
	return Amount(v), nil
}
