// Copyright 2020 The Swarm Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package observer

import (
	"github.com/nexusremote/nexus/pkg/economy"
	"github.com/nexusremote/nexus/pkg/storage"
	"github.com/vmihailenco/msgpack/v5"
)

const snapshotKey = "observer_snapshot_latest"

// StoredSnapshot is the reporting artifact written to the state store on
// every publish. It is not engine state and is never read back into the
// economy.
type StoredSnapshot struct {
	Seq      uint64           `msgpack:"seq"`
	Snapshot economy.Snapshot `msgpack:"snapshot"`
}

// storedSnapshot has no methods so that msgpack does not call back into
// MarshalBinary.
type storedSnapshot StoredSnapshot

// MarshalBinary implements encoding.BinaryMarshaler.
func (s *StoredSnapshot) MarshalBinary() ([]byte, error) {
	return msgpack.Marshal((*storedSnapshot)(s))
}

// UnmarshalBinary implements encoding.BinaryUnmarshaler.
func (s *StoredSnapshot) UnmarshalBinary(data []byte) error {
	return msgpack.Unmarshal(data, (*storedSnapshot)(s))
}

// LatestSnapshot returns the last snapshot persisted to store. It returns
// storage.ErrNotFound if nothing was published yet.
func LatestSnapshot(store storage.StateStorer) (StoredSnapshot, error) {
	var s StoredSnapshot
	if err := store.Get(snapshotKey, &s); err != nil {
		return StoredSnapshot{}, err
	}
	return s, nil
}
