// Copyright 2020 The Swarm Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package ledger provides the append-only, totally ordered history of
// transaction records produced by the economy.
package ledger

import (
	"iter"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/nexusremote/nexus/pkg/credit"
)

// Kind is the type of a transaction record.
type Kind string

const (
	KindMining        Kind = "Mining"
	KindRelayEarnings Kind = "RelayEarnings"
	KindRelayPayment  Kind = "RelayPayment"
	KindTransfer      Kind = "Transfer"
)

// Record is a single immutable ledger entry.
type Record struct {
	ID           uuid.UUID     `json:"id"`
	Seq          uint64        `json:"seq"`
	Node         string        `json:"node"`
	Kind         Kind          `json:"kind"`
	Amount       credit.Amount `json:"amount"`
	Counterparty string        `json:"counterparty,omitempty"`
	Description  string        `json:"description"`
	Timestamp    time.Time     `json:"timestamp"`
}

// Delta returns the signed effect of the record on the balance of its node.
func (r Record) Delta() int64 {
	switch r.Kind {
	case KindMining, KindRelayEarnings, KindTransfer:
		return r.Amount.Int64()
	case KindRelayPayment:
		return -r.Amount.Int64()
	}
	return 0
}

// Reader is the read-only view of a ledger.
type Reader interface {
	// All returns the records present at the time of the call in
	// insertion order. The sequence may be ranged over any number of times.
	All() iter.Seq[Record]
	// Len returns the number of appended records.
	Len() int
}

var _ Reader = (*Ledger)(nil)

// readOnly hides the Append method of a Ledger.
type readOnly struct {
	l *Ledger
}

func (r readOnly) All() iter.Seq[Record] { return r.l.All() }

func (r readOnly) Len() int { return r.l.Len() }

// Ledger is an append-only list of records. It is safe for concurrent use.
type Ledger struct {
	mu      sync.RWMutex
	records []Record
	timeNow func() time.Time
}

// New creates an empty ledger.
func New() *Ledger {
	return &Ledger{
		timeNow: time.Now,
	}
}

// Append adds records to the end of the ledger in a single step, so that
// readers observe either all of them or none. ID, Seq and Timestamp are
// assigned here; a zero ID is replaced with a random one. The stored
// records are returned.
func (l *Ledger) Append(records ...Record) []Record {
	if len(records) == 0 {
		return nil
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	ts := l.timeNow()
	if n := len(l.records); n > 0 && ts.Before(l.records[n-1].Timestamp) {
		// wall clock went backwards
		ts = l.records[n-1].Timestamp
	}

	stored := make([]Record, len(records))
	for i, r := range records {
		if r.ID == uuid.Nil {
			r.ID = uuid.New()
		}
		r.Seq = uint64(len(l.records)) + 1
		r.Timestamp = ts
		l.records = append(l.records, r)
		stored[i] = r
	}
	return stored
}

// All implements Reader.
func (l *Ledger) All() iter.Seq[Record] {
	l.mu.RLock()
	// records are never modified once appended, so the prefix can be read
	// without holding the lock
	records := l.records[:len(l.records):len(l.records)]
	l.mu.RUnlock()

	return func(yield func(Record) bool) {
		for _, r := range records {
			if !yield(r) {
				return
			}
		}
	}
}

// Len implements Reader.
func (l *Ledger) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()

	return len(l.records)
}

// Filter returns the records of seq for which keep returns true.
func Filter(seq iter.Seq[Record], keep func(Record) bool) iter.Seq[Record] {
	return func(yield func(Record) bool) {
		for r := range seq {
			if keep(r) && !yield(r) {
				return
			}
		}
	}
}

// ForNode returns the records of seq that belong to the named node.
func ForNode(seq iter.Seq[Record], node string) iter.Seq[Record] {
	return Filter(seq, func(r Record) bool {
		return r.Node == node
	})
}

// Replay recomputes per-node balances from an all-zero state by applying
// the records of seq in order.
func Replay(seq iter.Seq[Record]) map[string]int64 {
	balances := make(map[string]int64)
	for r := range seq {
		balances[r.Node] += r.Delta()
	}
	return balances
}

// ReadOnly returns a view of the ledger that cannot append records.
func (l *Ledger) ReadOnly() Reader {
	return readOnly{l: l}
}
