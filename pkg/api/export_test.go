// Copyright 2020 The Swarm Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package api

type (
	NodeResponse         = nodeResponse
	NodesResponse        = nodesResponse
	CreateNodeRequest    = createNodeRequest
	RecoverResponse      = recoverResponse
	RelayRequest         = relayRequest
	RelayResponse        = relayResponse
	TransactionsResponse = transactionsResponse
	StatsResponse        = statsResponse
	HealthStatusResponse = healthStatusResponse
	ReadyStatusResponse  = readyStatusResponse
)

// WaitWebsockets blocks until every websocket goroutine of s has returned.
func WaitWebsockets(s Service) {
	s.(*server).wsWg.Wait()
}
