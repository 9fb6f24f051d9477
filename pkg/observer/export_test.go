// Copyright 2020 The Swarm Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package observer

// NewIdle returns a Service without the publishing loop so that tests
// control when messages are published.
func NewIdle(source Snapshotter, o Options) *Service {
	return newService(source, o)
}
