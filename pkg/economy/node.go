// Copyright 2020 The Swarm Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package economy

import (
	"fmt"
	"time"

	"github.com/nexusremote/nexus/pkg/credit"
	"github.com/nexusremote/nexus/pkg/reputation"
)

// Role is a descriptive tag of a node. The engine sets it at creation and
// never changes it.
type Role string

const (
	RoleController Role = "Controller"
	RoleControlled Role = "Controlled"
	RoleRelay      Role = "Relay"
	RoleIdle       Role = "Idle"
)

// Node is a participant of the economy.
type Node struct {
	Name       string           `json:"name"`
	Reputation reputation.Score `json:"reputation"`
	Balance    credit.Amount    `json:"balance"`
	Role       Role             `json:"role"`
}

func (n Node) String() string {
	return fmt.Sprintf("%s (rep:%s, bal:%s, role:%s)", n.Name, n.Reputation, n.Balance, n.Role)
}

// Settlement is the result of a relay. When Settled is false no state
// was changed and Shortfall holds the missing credit.
type Settlement struct {
	Relay     string        `json:"relay"`
	Client    string        `json:"client"`
	Volume    int64         `json:"volume"`
	Cost      credit.Amount `json:"cost"`
	Settled   bool          `json:"settled"`
	Shortfall credit.Amount `json:"shortfall,omitempty"`
}

// Outcome is the branch taken by a recovery.
type Outcome string

const (
	// OutcomeCreditExtension sets the balance to credit.Overdraft.
	OutcomeCreditExtension Outcome = "credit_extension"
	// OutcomeMicroTask mints MicroTaskReward into the balance.
	OutcomeMicroTask Outcome = "micro_task"
)

// Recovery is the result of an insufficient-funds recovery.
type Recovery struct {
	Node    Node          `json:"node"`
	Outcome Outcome       `json:"outcome"`
	Delta   credit.Amount `json:"delta"`
}

// Snapshot is a consistent view of the economy.
type Snapshot struct {
	Nodes               []Node        `json:"nodes"`
	TotalNodes          int           `json:"total_nodes"`
	TotalTransactions   int           `json:"total_transactions"`
	HighReputationNodes int           `json:"high_reputation_nodes"`
	TotalSupply         credit.Amount `json:"total_supply"`
	AverageReputation   float64       `json:"average_reputation"`
	Timestamp           time.Time     `json:"timestamp"`
}
