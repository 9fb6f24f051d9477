// Copyright 2020 The Swarm Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package economy implements the relay-credit economy: node creation,
// mining, relay settlement and insufficient-funds recovery. The Engine is
// the only mutator of node state and of its ledger.
package economy

import (
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/nexusremote/nexus/pkg/credit"
	"github.com/nexusremote/nexus/pkg/ledger"
	"github.com/nexusremote/nexus/pkg/logging"
	"github.com/nexusremote/nexus/pkg/reputation"
)

const (
	// DefaultMiningAmount is mined when the caller does not specify an amount.
	DefaultMiningAmount credit.Amount = 10
	// UnitRate is the price of one unit of relayed volume.
	UnitRate credit.Amount = 1
	// MicroTaskReward is minted into the balance of a node that recovers
	// through a micro-task.
	MicroTaskReward credit.Amount = 5

	miningReputation    = 10
	relayReputation     = 5
	clientReputation    = 1
	microTaskReputation = 2
)

var (
	// ErrDuplicateNode is returned when creating a node whose name is taken.
	ErrDuplicateNode = errors.New("duplicate node")
	// ErrUnknownNode is returned when an operation names a node that does not exist.
	ErrUnknownNode = errors.New("unknown node")
	// ErrInvalidName is returned when creating a node with an empty name.
	ErrInvalidName = errors.New("invalid node name")
	// ErrSelfRelay is returned when a node would relay for itself.
	ErrSelfRelay = errors.New("node cannot relay for itself")
	// ErrInvalidAmount is returned when mining a non-positive amount.
	ErrInvalidAmount = errors.New("amount must be positive")
	// ErrInvalidVolume is returned when relaying a non-positive volume.
	ErrInvalidVolume = errors.New("volume must be positive")
	// ErrBalanceOverflow is returned when crediting a node would take its
	// balance or the total supply beyond the range of credit.Amount.
	ErrBalanceOverflow = errors.New("balance overflow")
)

// Interface is the main interface of the economy.
type Interface interface {
	// CreateNode registers a node with an initial reputation of
	// reputation.High or reputation.Low and a zero balance.
	CreateNode(name string, highReputation bool) (Node, error)
	// Mine mints amount into the balance of the node and rewards it
	// with reputation.
	Mine(name string, amount credit.Amount) (Node, error)
	// Relay settles the relay of volume units by relay on behalf of
	// client. Insufficient client funds are reported through the
	// returned Settlement, not as an error.
	Relay(relay, client string, volume int64) (Settlement, error)
	// Recover applies the insufficient-funds policy to the node.
	Recover(name string) (Recovery, error)
	// Node returns a copy of the named node.
	Node(name string) (Node, error)
	// Nodes returns copies of all nodes sorted by name.
	Nodes() []Node
	// Ledger returns the read-only view of the transaction history.
	Ledger() ledger.Reader
	// Snapshot returns a consistent view of nodes and aggregates.
	Snapshot() Snapshot
}

var _ Interface = (*Engine)(nil)

// Options for the Engine.
type Options struct {
	Logger logging.Logger
	// RecordRecoveries appends a Transfer record with the signed balance
	// delta for every recovery. It is off by default.
	RecordRecoveries bool
}

// Engine is the main implementation of Interface. It is safe for
// concurrent use.
type Engine struct {
	mu               sync.RWMutex // guards nodes, supply and ledger appends
	nodes            map[string]*Node
	supply           credit.Amount // sum of all balances
	ledger           *ledger.Ledger
	logger           logging.Logger
	recordRecoveries bool
	metrics          metrics
	timeNow          func() time.Time
}

// New creates an Engine with no nodes and an empty ledger.
func New(o Options) *Engine {
	logger := o.Logger
	if logger == nil {
		logger = logging.Noop()
	}
	return &Engine{
		nodes:            make(map[string]*Node),
		ledger:           ledger.New(),
		logger:           logger,
		recordRecoveries: o.RecordRecoveries,
		metrics:          newMetrics(),
		timeNow:          time.Now,
	}
}

// CreateNode implements Interface.
func (e *Engine) CreateNode(name string, highReputation bool) (Node, error) {
	if name == "" {
		return Node{}, ErrInvalidName
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if _, ok := e.nodes[name]; ok {
		return Node{}, fmt.Errorf("create %q: %w", name, ErrDuplicateNode)
	}

	n := &Node{
		Name:       name,
		Reputation: reputation.Initial(highReputation),
		Balance:    0,
		Role:       RoleIdle,
	}
	e.nodes[name] = n

	e.metrics.CreatedNodesCount.Inc()
	e.logger.Debugf("economy: created node %s", n)

	return *n, nil
}

// Mine implements Interface.
func (e *Engine) Mine(name string, amount credit.Amount) (Node, error) {
	if amount <= 0 {
		return Node{}, fmt.Errorf("mine %d: %w", amount, ErrInvalidAmount)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	n, err := e.node(name)
	if err != nil {
		return Node{}, err
	}

	if n.Balance.AddOverflows(amount) || e.supply.AddOverflows(amount) {
		return Node{}, fmt.Errorf("mine %d for %q: %w", amount, name, ErrBalanceOverflow)
	}

	n.Balance = n.Balance.Add(amount)
	n.Reputation = n.Reputation.Increase(miningReputation)
	e.supply = e.supply.Add(amount)

	e.ledger.Append(ledger.Record{
		Node:        name,
		Kind:        ledger.KindMining,
		Amount:      amount,
		Description: fmt.Sprintf("mined %s credits", amount),
	})

	e.metrics.MiningCount.Inc()
	e.metrics.MinedAmount.Add(float64(amount))
	e.logger.Tracef("economy: %s mined %s, new balance %s, reputation %s", name, amount, n.Balance, n.Reputation)

	return *n, nil
}

// Relay implements Interface.
func (e *Engine) Relay(relayName, clientName string, volume int64) (Settlement, error) {
	if relayName == clientName {
		return Settlement{}, fmt.Errorf("relay %q: %w", relayName, ErrSelfRelay)
	}
	if volume <= 0 {
		return Settlement{}, fmt.Errorf("relay %d: %w", volume, ErrInvalidVolume)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	relay, err := e.node(relayName)
	if err != nil {
		return Settlement{}, err
	}
	client, err := e.node(clientName)
	if err != nil {
		return Settlement{}, err
	}

	s := Settlement{
		Relay:  relayName,
		Client: clientName,
		Volume: volume,
		Cost:   credit.Amount(volume) * UnitRate,
	}

	if client.Balance < s.Cost {
		s.Shortfall = s.Cost - client.Balance
		e.metrics.RelayFailedCount.Inc()
		e.logger.Debugf("economy: %s cannot pay %s for relay by %s, balance %s", clientName, s.Cost, relayName, client.Balance)
		return s, nil
	}
	if relay.Balance.AddOverflows(s.Cost) {
		return Settlement{}, fmt.Errorf("relay %d to %q: %w", volume, relayName, ErrBalanceOverflow)
	}

	client.Balance = client.Balance.Sub(s.Cost)
	relay.Balance = relay.Balance.Add(s.Cost)
	relay.Reputation = relay.Reputation.Increase(relayReputation)
	client.Reputation = client.Reputation.Increase(clientReputation)

	e.ledger.Append(
		ledger.Record{
			Node:         clientName,
			Kind:         ledger.KindRelayPayment,
			Amount:       s.Cost,
			Counterparty: relayName,
			Description:  fmt.Sprintf("paid %s for relaying %d units to %s", s.Cost, volume, relayName),
		},
		ledger.Record{
			Node:         relayName,
			Kind:         ledger.KindRelayEarnings,
			Amount:       s.Cost,
			Counterparty: clientName,
			Description:  fmt.Sprintf("earned %s for relaying %d units for %s", s.Cost, volume, clientName),
		},
	)

	s.Settled = true
	e.metrics.RelaySettledCount.Inc()
	e.metrics.RelayedVolume.Add(float64(volume))
	e.logger.Tracef("economy: %s relayed %d units for %s at cost %s", relayName, volume, clientName, s.Cost)

	return s, nil
}

// Recover implements Interface.
func (e *Engine) Recover(name string) (Recovery, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	n, err := e.node(name)
	if err != nil {
		return Recovery{}, err
	}

	previous := n.Balance
	r := Recovery{}

	if n.Reputation.Trusted() {
		// the balance change must stay representable
		if credit.Overdraft.AddOverflows(-n.Balance) {
			return Recovery{}, fmt.Errorf("recover %q: %w", name, ErrBalanceOverflow)
		}
		r.Outcome = OutcomeCreditExtension
		n.Balance = credit.Overdraft
		e.metrics.CreditExtensionCount.Inc()
		e.logger.Infof("economy: credit extension granted to %s with reputation %s", name, n.Reputation)
	} else {
		if n.Balance.AddOverflows(MicroTaskReward) || e.supply.AddOverflows(MicroTaskReward) {
			return Recovery{}, fmt.Errorf("recover %q: %w", name, ErrBalanceOverflow)
		}
		r.Outcome = OutcomeMicroTask
		n.Balance = n.Balance.Add(MicroTaskReward)
		n.Reputation = n.Reputation.Increase(microTaskReputation)
		e.metrics.MicroTaskCount.Inc()
		e.logger.Debugf("economy: %s completed a micro-task, new balance %s", name, n.Balance)
	}

	r.Delta = n.Balance - previous
	r.Node = *n
	e.supply = e.supply.Add(r.Delta)

	if e.recordRecoveries && r.Delta != 0 {
		e.ledger.Append(ledger.Record{
			Node:        name,
			Kind:        ledger.KindTransfer,
			Amount:      r.Delta,
			Description: fmt.Sprintf("%s recovery", r.Outcome),
		})
	}

	return r, nil
}

// Node implements Interface.
func (e *Engine) Node(name string) (Node, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	n, err := e.node(name)
	if err != nil {
		return Node{}, err
	}
	return *n, nil
}

// Nodes implements Interface.
func (e *Engine) Nodes() []Node {
	e.mu.RLock()
	defer e.mu.RUnlock()

	return e.sortedNodes()
}

// Ledger implements Interface.
func (e *Engine) Ledger() ledger.Reader {
	return e.ledger.ReadOnly()
}

// Snapshot implements Interface.
func (e *Engine) Snapshot() Snapshot {
	e.mu.RLock()
	defer e.mu.RUnlock()

	s := Snapshot{
		Nodes:             e.sortedNodes(),
		TotalNodes:        len(e.nodes),
		TotalTransactions: e.ledger.Len(),
		TotalSupply:       e.supply,
		Timestamp:         e.timeNow(),
	}

	var reputations int64
	for _, n := range s.Nodes {
		if n.Reputation.Trusted() {
			s.HighReputationNodes++
		}
		reputations += int64(n.Reputation)
	}
	if s.TotalNodes > 0 {
		s.AverageReputation = float64(reputations) / float64(s.TotalNodes)
	}

	return s
}

// node returns the named node. It must be called with the lock held.
func (e *Engine) node(name string) (*Node, error) {
	n, ok := e.nodes[name]
	if !ok {
		return nil, fmt.Errorf("%q: %w", name, ErrUnknownNode)
	}
	return n, nil
}

func (e *Engine) sortedNodes() []Node {
	nodes := make([]Node, 0, len(e.nodes))
	for _, n := range e.nodes {
		nodes = append(nodes, *n)
	}
	sort.Slice(nodes, func(i, j int) bool {
		return nodes[i].Name < nodes[j].Name
	})
	return nodes
}
