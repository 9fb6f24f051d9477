// Copyright 2020 The Swarm Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package reputation_test

import (
	"math"
	"testing"

	"github.com/nexusremote/nexus/pkg/reputation"
)

func TestInitial(t *testing.T) {
	if got := reputation.Initial(true); got != 900 {
		t.Errorf("high: got %v, want 900", got)
	}
	if got := reputation.Initial(false); got != 100 {
		t.Errorf("low: got %v, want 100", got)
	}
}

func TestClamping(t *testing.T) {
	for _, tc := range []struct {
		name  string
		score reputation.Score
		op    func(reputation.Score) reputation.Score
		want  reputation.Score
	}{
		{
			name:  "increase",
			score: 900,
			op:    func(s reputation.Score) reputation.Score { return s.Increase(10) },
			want:  910,
		},
		{
			name:  "increase at cap",
			score: 995,
			op:    func(s reputation.Score) reputation.Score { return s.Increase(10) },
			want:  reputation.Max,
		},
		{
			name:  "decrease",
			score: 100,
			op:    func(s reputation.Score) reputation.Score { return s.Decrease(40) },
			want:  60,
		},
		{
			name:  "decrease at floor",
			score: 5,
			op:    func(s reputation.Score) reputation.Score { return s.Decrease(10) },
			want:  reputation.Min,
		},
		{
			name:  "negative increase",
			score: 5,
			op:    func(s reputation.Score) reputation.Score { return s.Increase(-10) },
			want:  reputation.Min,
		},
		{
			name:  "overflowing delta",
			score: 500,
			op:    func(s reputation.Score) reputation.Score { return s.Increase(math.MaxInt64 - 500) },
			want:  reputation.Max,
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.op(tc.score); got != tc.want {
				t.Errorf("got %v, want %v", got, tc.want)
			}
		})
	}
}

func TestBoundsAfterManyOperations(t *testing.T) {
	s := reputation.Low
	for i := 0; i < 500; i++ {
		if i%3 == 0 {
			s = s.Decrease(37)
		} else {
			s = s.Increase(11)
		}
		if s < reputation.Min || s > reputation.Max {
			t.Fatalf("score %v out of bounds after %d operations", s, i+1)
		}
	}
}

func TestTrusted(t *testing.T) {
	if !reputation.CreditThreshold.Trusted() {
		t.Error("threshold score should be trusted")
	}
	if reputation.CreditThreshold.Decrease(1).Trusted() {
		t.Error("score below threshold should not be trusted")
	}
}
