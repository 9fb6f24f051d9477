// Copyright 2020 The Swarm Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package api

import (
	"context"
	"net/http"
	"time"

	"github.com/nexusremote/nexus/pkg/credit"
	"github.com/nexusremote/nexus/pkg/economy"
	"github.com/nexusremote/nexus/pkg/jsonhttp"
)

type statsResponse struct {
	TotalNodes          int           `json:"total_nodes"`
	TotalTransactions   int           `json:"total_transactions"`
	HighReputationNodes int           `json:"high_reputation_nodes"`
	TotalSupply         credit.Amount `json:"total_supply"`
	AverageReputation   float64       `json:"average_reputation"`
	Timestamp           time.Time     `json:"timestamp"`
}

func (s *server) statsHandler(w http.ResponseWriter, r *http.Request) {
	snapshot, err := s.snapshot(r.Context())
	if err != nil {
		s.Logger.Debugf("api: stats: %v", err)
		s.Logger.Error("api: stats: snapshot unavailable")
		jsonhttp.InternalServerError(w, nil)
		return
	}

	jsonhttp.OK(w, statsResponse{
		TotalNodes:          snapshot.TotalNodes,
		TotalTransactions:   snapshot.TotalTransactions,
		HighReputationNodes: snapshot.HighReputationNodes,
		TotalSupply:         snapshot.TotalSupply,
		AverageReputation:   snapshot.AverageReputation,
		Timestamp:           snapshot.Timestamp,
	})
}

// snapshot shares a single economy snapshot between concurrent readers.
func (s *server) snapshot(ctx context.Context) (economy.Snapshot, error) {
	v, _, err := s.snapshotSF.Do(ctx, "snapshot", func(ctx context.Context) (interface{}, error) {
		return s.Economy.Snapshot(), nil
	})
	if err != nil {
		return economy.Snapshot{}, err
	}
	return v.(economy.Snapshot), nil
}
