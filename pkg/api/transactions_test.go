// Copyright 2020 The Swarm Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package api_test

import (
	"net/http"
	"testing"

	"github.com/nexusremote/nexus/pkg/api"
	"github.com/nexusremote/nexus/pkg/jsonhttp/jsonhttptest"
	"github.com/nexusremote/nexus/pkg/ledger"
)

func TestTransactions(t *testing.T) {
	ts := newTestServer(t, testServerOptions{})

	jsonhttptest.Request(t, ts.Client, http.MethodGet, "/transactions", http.StatusOK,
		jsonhttptest.WithExpectedJSONResponse(api.TransactionsResponse{
			Transactions: []ledger.Record{},
		}),
	)

	for _, n := range []string{"Alice", "Bob"} {
		if _, err := ts.Economy.CreateNode(n, false); err != nil {
			t.Fatal(err)
		}
		if _, err := ts.Economy.Mine(n, 10); err != nil {
			t.Fatal(err)
		}
	}
	if _, err := ts.Economy.Relay("Alice", "Bob", 3); err != nil {
		t.Fatal(err)
	}

	var resp api.TransactionsResponse
	jsonhttptest.Request(t, ts.Client, http.MethodGet, "/transactions", http.StatusOK,
		jsonhttptest.WithUnmarshalResponse(&resp),
	)

	wantKinds := []ledger.Kind{ledger.KindMining, ledger.KindMining, ledger.KindRelayPayment, ledger.KindRelayEarnings}
	if len(resp.Transactions) != len(wantKinds) {
		t.Fatalf("got %d transactions, want %d", len(resp.Transactions), len(wantKinds))
	}
	for i, r := range resp.Transactions {
		if r.Kind != wantKinds[i] {
			t.Errorf("transaction %d: got kind %s, want %s", i, r.Kind, wantKinds[i])
		}
		if r.Seq != uint64(i+1) {
			t.Errorf("transaction %d: got seq %d, want %d", i, r.Seq, i+1)
		}
	}
	if r := resp.Transactions[2]; r.Node != "Bob" || r.Counterparty != "Alice" || r.Amount != 3 {
		t.Errorf("unexpected payment record %+v", r)
	}

	var filtered api.TransactionsResponse
	jsonhttptest.Request(t, ts.Client, http.MethodGet, "/transactions?node=Alice", http.StatusOK,
		jsonhttptest.WithUnmarshalResponse(&filtered),
	)
	if len(filtered.Transactions) != 2 {
		t.Fatalf("got %d transactions, want 2", len(filtered.Transactions))
	}
	for _, r := range filtered.Transactions {
		if r.Node != "Alice" {
			t.Errorf("got transaction of %s in filtered list", r.Node)
		}
	}
}
