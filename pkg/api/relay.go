// Copyright 2020 The Swarm Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package api

import (
	"net/http"

	"github.com/nexusremote/nexus/pkg/credit"
	"github.com/nexusremote/nexus/pkg/jsonhttp"
)

type relayRequest struct {
	Relay  string `json:"relay"`
	Client string `json:"client"`
	Volume int64  `json:"volume"`
}

type relayResponse struct {
	Relay     string        `json:"relay"`
	Client    string        `json:"client"`
	Volume    int64         `json:"volume"`
	Cost      credit.Amount `json:"cost"`
	Settled   bool          `json:"settled"`
	Shortfall credit.Amount `json:"shortfall,omitempty"`
}

// relayHandler settles a relay. Insufficient client funds are answered
// with 402 Payment Required and the unsettled settlement as the body.
func (s *server) relayHandler(w http.ResponseWriter, r *http.Request) {
	var req relayRequest
	if !s.decodeRequest(w, r, &req, false) {
		return
	}

	st, err := s.Economy.Relay(req.Relay, req.Client, req.Volume)
	if err != nil {
		s.Logger.Debugf("api: relay: %v", err)
		s.respondEconomyError(w, err)
		return
	}

	resp := relayResponse{
		Relay:     st.Relay,
		Client:    st.Client,
		Volume:    st.Volume,
		Cost:      st.Cost,
		Settled:   st.Settled,
		Shortfall: st.Shortfall,
	}

	if !st.Settled {
		s.Logger.Debugf("api: relay: %s has insufficient funds, shortfall %s", st.Client, st.Shortfall)
		jsonhttp.PaymentRequired(w, resp)
		return
	}

	jsonhttp.OK(w, resp)
}
