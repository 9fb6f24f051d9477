// Copyright 2020 The Swarm Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package observer_test

import (
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/nexusremote/nexus/pkg/economy"
	"github.com/nexusremote/nexus/pkg/logging"
	"github.com/nexusremote/nexus/pkg/observer"
	"github.com/nexusremote/nexus/pkg/statestore/mock"
	"github.com/nexusremote/nexus/pkg/storage"
)

func newEconomy(t *testing.T) *economy.Engine {
	t.Helper()

	e := economy.New(economy.Options{Logger: logging.Noop()})
	if _, err := e.CreateNode("Alice", true); err != nil {
		t.Fatal(err)
	}
	if _, err := e.Mine("Alice", 10); err != nil {
		t.Fatal(err)
	}
	return e
}

func receive(t *testing.T, sub *observer.Subscription) observer.Message {
	t.Helper()

	select {
	case m, ok := <-sub.C():
		if !ok {
			t.Fatal("subscription closed")
		}
		return m
	case <-time.After(5 * time.Second):
		t.Fatal("timeout waiting for message")
	}
	return observer.Message{}
}

func TestPublish(t *testing.T) {
	e := newEconomy(t)
	s := observer.NewIdle(e, observer.Options{Logger: logging.Noop()})
	defer s.Close()

	sub, err := s.Subscribe()
	if err != nil {
		t.Fatal(err)
	}
	defer sub.Unsubscribe()

	s.Publish()

	m := receive(t, sub)
	if m.Type != observer.TypeEconomyUpdate || m.Seq != 1 {
		t.Fatalf("got %s message with seq %d, want economy_update with seq 1", m.Type, m.Seq)
	}
	want := observer.EconomyData{
		TotalNodes:          1,
		TotalTransactions:   1,
		HighReputationNodes: 1,
		TotalSupply:         10,
		AverageReputation:   910,
	}
	if diff := cmp.Diff(want, m.Data); diff != "" {
		t.Errorf("economy data mismatch (-want +got):\n%s", diff)
	}
	if m.Timestamp.IsZero() {
		t.Error("message timestamp not set")
	}

	m = receive(t, sub)
	if m.Type != observer.TypeNodeUpdate || m.Seq != 2 {
		t.Fatalf("got %s message with seq %d, want node_update with seq 2", m.Type, m.Seq)
	}
	nodes := observer.NodesData{Nodes: []economy.Node{
		{Name: "Alice", Reputation: 910, Balance: 10, Role: economy.RoleIdle},
	}}
	if diff := cmp.Diff(nodes, m.Data); diff != "" {
		t.Errorf("node data mismatch (-want +got):\n%s", diff)
	}
}

func TestLastValueWins(t *testing.T) {
	e := newEconomy(t)
	s := observer.NewIdle(e, observer.Options{Logger: logging.Noop()})
	defer s.Close()

	slow, err := s.Subscribe()
	if err != nil {
		t.Fatal(err)
	}
	defer slow.Unsubscribe()

	for i := 0; i < 5; i++ {
		if _, err := e.Mine("Alice", 1); err != nil {
			t.Fatal(err)
		}
		s.Publish()
	}

	m := receive(t, slow)
	if m.Type != observer.TypeEconomyUpdate || m.Seq != 9 {
		t.Fatalf("got %s message with seq %d, want economy_update with seq 9", m.Type, m.Seq)
	}
	if got := m.Data.(observer.EconomyData).TotalTransactions; got != 6 {
		t.Errorf("got %d transactions, want 6", got)
	}

	m = receive(t, slow)
	if m.Type != observer.TypeNodeUpdate || m.Seq != 10 {
		t.Fatalf("got %s message with seq %d, want node_update with seq 10", m.Type, m.Seq)
	}

	select {
	case m := <-slow.C():
		t.Fatalf("unexpected queued message %+v", m)
	default:
	}
}

func TestUnsubscribe(t *testing.T) {
	s := observer.NewIdle(newEconomy(t), observer.Options{})
	defer s.Close()

	sub, err := s.Subscribe()
	if err != nil {
		t.Fatal(err)
	}
	if s.Subscribers() != 1 {
		t.Fatalf("got %d subscribers, want 1", s.Subscribers())
	}

	sub.Unsubscribe()
	sub.Unsubscribe()

	if _, ok := <-sub.C(); ok {
		t.Error("channel not closed")
	}
	if s.Subscribers() != 0 {
		t.Errorf("got %d subscribers, want 0", s.Subscribers())
	}

	// publishing without subscribers must not block
	s.Publish()
}

func TestClose(t *testing.T) {
	s := observer.New(newEconomy(t), observer.Options{Interval: time.Hour})

	sub, err := s.Subscribe()
	if err != nil {
		t.Fatal(err)
	}

	if err := s.Close(); err != nil {
		t.Fatal(err)
	}
	if err := s.Close(); err != nil {
		t.Fatal(err)
	}

	if _, ok := <-sub.C(); ok {
		t.Error("channel not closed")
	}
	sub.Unsubscribe()

	if _, err := s.Subscribe(); !errors.Is(err, observer.ErrClosed) {
		t.Errorf("got error %v, want %v", err, observer.ErrClosed)
	}
}

func TestPeriodicPublish(t *testing.T) {
	s := observer.New(newEconomy(t), observer.Options{Interval: 10 * time.Millisecond})
	defer s.Close()

	sub, err := s.Subscribe()
	if err != nil {
		t.Fatal(err)
	}
	defer sub.Unsubscribe()

	var last uint64
	for i := 0; i < 4; i++ {
		m := receive(t, sub)
		if m.Seq <= last {
			t.Fatalf("seq %d not increasing after %d", m.Seq, last)
		}
		last = m.Seq
	}
}

func TestStore(t *testing.T) {
	e := newEconomy(t)
	store := mock.NewStateStore()
	s := observer.NewIdle(e, observer.Options{Store: store})
	defer s.Close()

	if _, err := observer.LatestSnapshot(store); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("got error %v, want %v", err, storage.ErrNotFound)
	}

	published := s.Publish()

	got, err := observer.LatestSnapshot(store)
	if err != nil {
		t.Fatal(err)
	}
	if got.Seq != 2 {
		t.Errorf("got seq %d, want 2", got.Seq)
	}
	if !got.Snapshot.Timestamp.Equal(published.Timestamp) {
		t.Errorf("got timestamp %v, want %v", got.Snapshot.Timestamp, published.Timestamp)
	}
	got.Snapshot.Timestamp = published.Timestamp
	if diff := cmp.Diff(published, got.Snapshot); diff != "" {
		t.Errorf("stored snapshot mismatch (-want +got):\n%s", diff)
	}
}

func TestMetrics(t *testing.T) {
	s := observer.NewIdle(newEconomy(t), observer.Options{})
	defer s.Close()

	if got := len(s.Metrics()); got != 4 {
		t.Errorf("got %d collectors, want 4", got)
	}
}
