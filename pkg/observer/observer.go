// Copyright 2020 The Swarm Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package observer periodically snapshots the economy and publishes typed
// update messages to subscribers. A slow subscriber never blocks the
// publisher: stale messages are replaced by newer ones of the same kind.
package observer

import (
	"errors"
	"sync"
	"time"

	"github.com/nexusremote/nexus/pkg/credit"
	"github.com/nexusremote/nexus/pkg/economy"
	"github.com/nexusremote/nexus/pkg/logging"
	"github.com/nexusremote/nexus/pkg/storage"
	"go.uber.org/atomic"
)

// DefaultInterval is the publishing period used when none is configured.
const DefaultInterval = 3 * time.Second

// ErrClosed is returned by Subscribe after the service is closed.
var ErrClosed = errors.New("observer closed")

// MessageType discriminates the payload of a Message.
type MessageType string

const (
	TypeEconomyUpdate MessageType = "economy_update"
	TypeNodeUpdate    MessageType = "node_update"
)

// messageTypes is the number of distinct message types published per tick.
const messageTypes = 2

// Message is a single published update.
type Message struct {
	Type      MessageType `json:"type"`
	Seq       uint64      `json:"seq"`
	Timestamp time.Time   `json:"timestamp"`
	Data      interface{} `json:"data"`
}

// EconomyData is the payload of an economy_update message.
type EconomyData struct {
	TotalNodes          int           `json:"total_nodes"`
	TotalTransactions   int           `json:"total_transactions"`
	HighReputationNodes int           `json:"high_reputation_nodes"`
	TotalSupply         credit.Amount `json:"total_supply"`
	AverageReputation   float64       `json:"average_reputation"`
}

// NodesData is the payload of a node_update message.
type NodesData struct {
	Nodes []economy.Node `json:"nodes"`
}

// NewEconomyData extracts the aggregates of a snapshot.
func NewEconomyData(s economy.Snapshot) EconomyData {
	return EconomyData{
		TotalNodes:          s.TotalNodes,
		TotalTransactions:   s.TotalTransactions,
		HighReputationNodes: s.HighReputationNodes,
		TotalSupply:         s.TotalSupply,
		AverageReputation:   s.AverageReputation,
	}
}

// NewNodesData extracts the node list of a snapshot.
func NewNodesData(s economy.Snapshot) NodesData {
	nodes := s.Nodes
	if nodes == nil {
		nodes = []economy.Node{}
	}
	return NodesData{Nodes: nodes}
}

// Snapshotter is the source of published state.
type Snapshotter interface {
	Snapshot() economy.Snapshot
}

// Options for the Service.
type Options struct {
	Logger   logging.Logger
	Interval time.Duration
	// Store, when set, receives the latest published snapshot.
	Store storage.StateStorer
}

// Service publishes economy updates on a fixed interval.
type Service struct {
	source   Snapshotter
	logger   logging.Logger
	interval time.Duration
	store    storage.StateStorer
	metrics  metrics

	seq    *atomic.Uint64
	nextID uint64

	mu     sync.Mutex // guards subs and closed
	subs   map[uint64]*Subscription
	closed bool

	quit      chan struct{}
	wg        sync.WaitGroup
	closeOnce sync.Once
}

// New creates a Service and starts its publishing loop.
func New(source Snapshotter, o Options) *Service {
	s := newService(source, o)

	s.wg.Add(1)
	go s.run()

	return s
}

func newService(source Snapshotter, o Options) *Service {
	interval := o.Interval
	if interval <= 0 {
		interval = DefaultInterval
	}
	logger := o.Logger
	if logger == nil {
		logger = logging.Noop()
	}
	return &Service{
		source:   source,
		logger:   logger,
		interval: interval,
		store:    o.Store,
		metrics:  newMetrics(),
		seq:      atomic.NewUint64(0),
		subs:     make(map[uint64]*Subscription),
		quit:     make(chan struct{}),
	}
}

func (s *Service) run() {
	defer s.wg.Done()

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.quit:
			return
		case <-ticker.C:
			s.Publish()
		}
	}
}

// Publish takes a snapshot and delivers one message of every type to all
// subscribers. It is called by the publishing loop and may be called
// directly to push an update out of schedule.
func (s *Service) Publish() economy.Snapshot {
	snapshot := s.source.Snapshot()
	now := time.Now()

	s.broadcast(Message{
		Type:      TypeEconomyUpdate,
		Seq:       s.seq.Inc(),
		Timestamp: now,
		Data:      NewEconomyData(snapshot),
	})
	s.broadcast(Message{
		Type:      TypeNodeUpdate,
		Seq:       s.seq.Inc(),
		Timestamp: now,
		Data:      NewNodesData(snapshot),
	})

	if s.store != nil {
		if err := s.store.Put(snapshotKey, &StoredSnapshot{Seq: s.seq.Load(), Snapshot: snapshot}); err != nil {
			s.metrics.StoreErrorCount.Inc()
			s.logger.Errorf("observer: store snapshot: %v", err)
		}
	}

	s.metrics.PublishCount.Inc()
	return snapshot
}

func (s *Service) broadcast(m Message) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, sub := range s.subs {
		if sub.deliver(m) {
			s.metrics.DroppedMessagesCount.Inc()
		}
	}
}

// Subscribe registers a new subscriber. The returned subscription must be
// released with Unsubscribe.
func (s *Service) Subscribe() (*Subscription, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, ErrClosed
	}

	s.nextID++
	sub := &Subscription{
		id: s.nextID,
		c:  make(chan Message, messageTypes),
		s:  s,
	}
	s.subs[sub.id] = sub
	s.metrics.Subscribers.Inc()

	return sub, nil
}

// Subscribers returns the number of active subscriptions.
func (s *Service) Subscribers() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.subs)
}

func (s *Service) unsubscribe(sub *Subscription) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.subs[sub.id]; !ok {
		return
	}
	delete(s.subs, sub.id)
	close(sub.c)
	s.metrics.Subscribers.Dec()
}

// Close stops the publishing loop and closes all subscriptions.
func (s *Service) Close() error {
	s.closeOnce.Do(func() {
		close(s.quit)
		s.wg.Wait()

		s.mu.Lock()
		defer s.mu.Unlock()

		s.closed = true
		for id, sub := range s.subs {
			delete(s.subs, id)
			close(sub.c)
			s.metrics.Subscribers.Dec()
		}
	})
	return nil
}

// Subscription receives published messages.
type Subscription struct {
	id uint64
	c  chan Message
	s  *Service
}

// C returns the channel of published messages. It is closed when the
// subscription is released or the service is closed.
func (sub *Subscription) C() <-chan Message {
	return sub.c
}

// Unsubscribe releases the subscription. It is safe to call more than once.
func (sub *Subscription) Unsubscribe() {
	sub.s.unsubscribe(sub)
}

// deliver sends m without blocking. When the buffer is full the oldest
// message is dropped, so that a subscriber which falls behind holds the
// latest message of each type. It must be called with the service lock
// held and reports whether a message was dropped.
func (sub *Subscription) deliver(m Message) (dropped bool) {
	select {
	case sub.c <- m:
		return false
	default:
	}

	select {
	case <-sub.c:
		dropped = true
	default:
	}

	select {
	case sub.c <- m:
	default:
		dropped = true
	}
	return dropped
}
