// Copyright 2020 The Swarm Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package test provides the behaviour every storage.StateStorer
// implementation must satisfy.
package test

import (
	"encoding/json"
	"errors"
	"strconv"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/nexusremote/nexus/pkg/storage"
)

const (
	recordKey = "observer_snapshot_latest" // stores the binary record
	namesKey  = "economy_node_names"       // stores a json array
)

// record is stored through its binary marshaler, the way snapshots are.
type record struct {
	seq             uint64
	supply          int64
	marshalCalled   bool
	unmarshalCalled bool
}

func (r *record) MarshalBinary() ([]byte, error) {
	r.marshalCalled = true
	return []byte(strconv.FormatUint(r.seq, 10) + ":" + strconv.FormatInt(r.supply, 10)), nil
}

func (r *record) UnmarshalBinary(data []byte) (err error) {
	r.unmarshalCalled = true
	parts := strings.SplitN(string(data), ":", 2)
	if len(parts) != 2 {
		return errors.New("malformed record")
	}
	if r.seq, err = strconv.ParseUint(parts[0], 10, 64); err != nil {
		return err
	}
	r.supply, err = strconv.ParseInt(parts[1], 10, 64)
	return err
}

// Run exercises a fresh store returned by f for every case.
func Run(t *testing.T, f func(t *testing.T) (storage.StateStorer, func())) {
	t.Helper()

	for _, tc := range []struct {
		name string
		test func(t *testing.T, store storage.StateStorer)
	}{
		{name: "put get", test: testPutGet},
		{name: "overwrite", test: testOverwrite},
		{name: "delete", test: testDelete},
		{name: "iterate", test: testIterate},
		{name: "iterate stop", test: testIterateStop},
	} {
		t.Run(tc.name, func(t *testing.T) {
			store, cleanup := f(t)
			defer cleanup()
			defer store.Close()

			tc.test(t, store)
		})
	}
}

func testPutGet(t *testing.T, store storage.StateStorer) {
	in := &record{seq: 7, supply: 35}
	if err := store.Put(recordKey, in); err != nil {
		t.Fatal(err)
	}
	if !in.marshalCalled {
		t.Fatal("binary marshaler not called")
	}

	names := []string{"Alice", "Bob", "Charlie"}
	if err := store.Put(namesKey, names); err != nil {
		t.Fatal(err)
	}

	var out record
	if err := store.Get(recordKey, &out); err != nil {
		t.Fatal(err)
	}
	if !out.unmarshalCalled {
		t.Fatal("binary unmarshaler not called")
	}
	if out.seq != in.seq || out.supply != in.supply {
		t.Fatalf("got record %d:%d, want %d:%d", out.seq, out.supply, in.seq, in.supply)
	}

	var gotNames []string
	if err := store.Get(namesKey, &gotNames); err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(names, gotNames); diff != "" {
		t.Fatalf("names mismatch (-want +got):\n%s", diff)
	}

	if err := store.Get("economy_missing", &gotNames); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("got error %v, want %v", err, storage.ErrNotFound)
	}
}

func testOverwrite(t *testing.T, store storage.StateStorer) {
	for seq := uint64(1); seq <= 3; seq++ {
		if err := store.Put(recordKey, &record{seq: seq, supply: int64(seq) * 10}); err != nil {
			t.Fatal(err)
		}
	}

	var out record
	if err := store.Get(recordKey, &out); err != nil {
		t.Fatal(err)
	}
	if out.seq != 3 || out.supply != 30 {
		t.Fatalf("got record %d:%d, want 3:30", out.seq, out.supply)
	}
}

func testDelete(t *testing.T, store storage.StateStorer) {
	if err := store.Put(namesKey, []string{"Alice"}); err != nil {
		t.Fatal(err)
	}
	if err := store.Delete(namesKey); err != nil {
		t.Fatal(err)
	}

	var names []string
	if err := store.Get(namesKey, &names); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("got error %v, want %v", err, storage.ErrNotFound)
	}
}

func testIterate(t *testing.T, store storage.StateStorer) {
	for key, value := range map[string]string{
		"observer_a": "first",
		"economy_b":  "outside the prefix",
		"observer_c": "second",
	} {
		if err := store.Put(key, value); err != nil {
			t.Fatal(err)
		}
	}

	got := make(map[string]string)
	err := store.Iterate("observer_", func(key, value []byte) (bool, error) {
		var v string
		if err := json.Unmarshal(value, &v); err != nil {
			return true, err
		}
		got[string(key)] = v
		return false, nil
	})
	if err != nil {
		t.Fatal(err)
	}

	want := map[string]string{"observer_a": "first", "observer_c": "second"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("entries mismatch (-want +got):\n%s", diff)
	}
}

func testIterateStop(t *testing.T, store storage.StateStorer) {
	for _, key := range []string{"observer_a", "observer_b", "observer_c"} {
		if err := store.Put(key, key); err != nil {
			t.Fatal(err)
		}
	}

	var count int
	err := store.Iterate("observer_", func(key, value []byte) (bool, error) {
		count++
		return true, nil
	})
	if err != nil {
		t.Fatal(err)
	}
	if count != 1 {
		t.Fatalf("iterated %d entries after stop, want 1", count)
	}
}
