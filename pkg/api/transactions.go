// Copyright 2020 The Swarm Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package api

import (
	"net/http"

	"github.com/nexusremote/nexus/pkg/jsonhttp"
	"github.com/nexusremote/nexus/pkg/ledger"
)

type transactionsResponse struct {
	Transactions []ledger.Record `json:"transactions"`
}

func (s *server) transactionsHandler(w http.ResponseWriter, r *http.Request) {
	records := s.Economy.Ledger().All()
	if node := r.URL.Query().Get("node"); node != "" {
		records = ledger.ForNode(records, node)
	}

	resp := transactionsResponse{
		Transactions: []ledger.Record{},
	}
	for rec := range records {
		resp.Transactions = append(resp.Transactions, rec)
	}

	jsonhttp.OK(w, resp)
}
