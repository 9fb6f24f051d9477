// Copyright 2020 The Swarm Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package api

import (
	"encoding/json"
	"errors"
	"io/ioutil"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/nexusremote/nexus/pkg/credit"
	"github.com/nexusremote/nexus/pkg/economy"
	"github.com/nexusremote/nexus/pkg/jsonhttp"
	"github.com/nexusremote/nexus/pkg/reputation"
)

type nodeResponse struct {
	Name       string           `json:"name"`
	Reputation reputation.Score `json:"reputation"`
	Balance    credit.Amount    `json:"balance"`
	Role       economy.Role     `json:"role"`
}

func newNodeResponse(n economy.Node) nodeResponse {
	return nodeResponse{
		Name:       n.Name,
		Reputation: n.Reputation,
		Balance:    n.Balance,
		Role:       n.Role,
	}
}

func newNodeResponses(nodes []economy.Node) []nodeResponse {
	r := make([]nodeResponse, 0, len(nodes))
	for _, n := range nodes {
		r = append(r, newNodeResponse(n))
	}
	return r
}

type nodesResponse struct {
	Nodes []nodeResponse `json:"nodes"`
}

type createNodeRequest struct {
	Name           string `json:"name"`
	HighReputation bool   `json:"high_reputation"`
}

type mineRequest struct {
	Amount *credit.Amount `json:"amount"`
}

type recoverResponse struct {
	Node    nodeResponse    `json:"node"`
	Outcome economy.Outcome `json:"outcome"`
	Delta   credit.Amount   `json:"delta"`
}

func (s *server) nodesHandler(w http.ResponseWriter, r *http.Request) {
	jsonhttp.OK(w, nodesResponse{
		Nodes: newNodeResponses(s.Economy.Nodes()),
	})
}

func (s *server) nodeHandler(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]

	n, err := s.Economy.Node(name)
	if err != nil {
		s.Logger.Debugf("api: get node: %v", err)
		s.respondEconomyError(w, err)
		return
	}

	jsonhttp.OK(w, newNodeResponse(n))
}

func (s *server) createNodeHandler(w http.ResponseWriter, r *http.Request) {
	var req createNodeRequest
	if !s.decodeRequest(w, r, &req, false) {
		return
	}

	n, err := s.Economy.CreateNode(req.Name, req.HighReputation)
	if err != nil {
		s.Logger.Debugf("api: create node: %v", err)
		s.respondEconomyError(w, err)
		return
	}

	jsonhttp.Created(w, newNodeResponse(n))
}

func (s *server) mineHandler(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]

	var req mineRequest
	if !s.decodeRequest(w, r, &req, true) {
		return
	}

	amount := economy.DefaultMiningAmount
	if req.Amount != nil {
		amount = *req.Amount
	}

	n, err := s.Economy.Mine(name, amount)
	if err != nil {
		s.Logger.Debugf("api: mine: %v", err)
		s.respondEconomyError(w, err)
		return
	}

	jsonhttp.OK(w, newNodeResponse(n))
}

func (s *server) recoverHandler(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]

	rec, err := s.Economy.Recover(name)
	if err != nil {
		s.Logger.Debugf("api: recover: %v", err)
		s.respondEconomyError(w, err)
		return
	}

	jsonhttp.OK(w, recoverResponse{
		Node:    newNodeResponse(rec.Node),
		Outcome: rec.Outcome,
		Delta:   rec.Delta,
	})
}

// decodeRequest reads a JSON body into v and writes an error response if
// that fails. An empty body is accepted when optional is true.
func (s *server) decodeRequest(w http.ResponseWriter, r *http.Request, v interface{}, optional bool) (ok bool) {
	body, err := ioutil.ReadAll(r.Body)
	if err != nil {
		if jsonhttp.HandleBodyReadError(err, w) {
			return false
		}
		s.Logger.Debugf("api: read request body: %v", err)
		jsonhttp.InternalServerError(w, "cannot read request")
		return false
	}

	if len(body) == 0 {
		if optional {
			return true
		}
		jsonhttp.BadRequest(w, "missing request body")
		return false
	}

	if err := json.Unmarshal(body, v); err != nil {
		s.Logger.Debugf("api: decode request body: %v", err)
		jsonhttp.BadRequest(w, "invalid request body")
		return false
	}
	return true
}

func (s *server) respondEconomyError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, economy.ErrUnknownNode):
		jsonhttp.NotFound(w, err.Error())
	case errors.Is(err, economy.ErrDuplicateNode):
		jsonhttp.Conflict(w, err.Error())
	case errors.Is(err, economy.ErrInvalidName),
		errors.Is(err, economy.ErrSelfRelay),
		errors.Is(err, economy.ErrInvalidAmount),
		errors.Is(err, economy.ErrInvalidVolume),
		errors.Is(err, economy.ErrBalanceOverflow):
		jsonhttp.BadRequest(w, err.Error())
	default:
		s.Logger.Errorf("api: economy: %v", err)
		jsonhttp.InternalServerError(w, nil)
	}
}
