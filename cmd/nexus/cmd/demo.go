// Copyright 2020 The Swarm Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package cmd

import (
	"fmt"
	"io"

	"github.com/nexusremote/nexus/pkg/economy"
	"github.com/spf13/cobra"
)

func (c *command) initDemoCmd() (err error) {
	cmd := &cobra.Command{
		Use:   "demo",
		Short: "Walk through an economic cycle on a fresh economy",
		PreRunE: func(cmd *cobra.Command, args []string) error {
			return c.bindFlags(cmd)
		},
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			if len(args) > 0 {
				return cmd.Help()
			}

			logger, err := newLogger(cmd, c.config.GetString(optionNameVerbosity))
			if err != nil {
				return err
			}

			e := economy.New(economy.Options{
				Logger:           logger,
				RecordRecoveries: c.config.GetBool(optionNameRecordRecoveries),
			})
			return runDemo(e, cmd.OutOrStdout())
		},
	}

	cmd.Flags().String(optionNameVerbosity, "silent", "log verbosity level 0=silent, 1=error, 2=warn, 3=info, 4=debug, 5=trace")
	cmd.Flags().Bool(optionNameRecordRecoveries, false, "record a ledger transfer for every recovery")

	c.root.AddCommand(cmd)
	return nil
}

var demoNodes = []struct {
	name           string
	highReputation bool
}{
	{name: "Alice", highReputation: true},
	{name: "Bob", highReputation: false},
	{name: "Charlie", highReputation: true},
}

// runDemo creates three nodes, mines for each of them, lets Bob run out of
// funds on two relays and recovers him, printing every step to w.
func runDemo(e economy.Interface, w io.Writer) error {
	p := func(format string, a ...interface{}) {
		fmt.Fprintf(w, format+"\n", a...)
	}

	p("1. Create nodes")
	for _, d := range demoNodes {
		n, err := e.CreateNode(d.name, d.highReputation)
		if err != nil {
			return err
		}
		p("   created %s", n)
	}

	p("\n2. Initial mining")
	for _, d := range demoNodes {
		n, err := e.Mine(d.name, economy.DefaultMiningAmount)
		if err != nil {
			return err
		}
		p("   %s mined %s, balance %s, reputation %s", n.Name, economy.DefaultMiningAmount, n.Balance, n.Reputation)
	}

	relay := func(relayName, clientName string, volume int64) (bool, error) {
		s, err := e.Relay(relayName, clientName, volume)
		if err != nil {
			return false, err
		}
		if !s.Settled {
			p("   %s cannot pay %s for %d units, short by %s", clientName, s.Cost, volume, s.Shortfall)
			return false, nil
		}
		p("   %s relayed %d units for %s at a cost of %s", relayName, volume, clientName, s.Cost)
		return true, nil
	}

	p("\n3. Relay service")
	if _, err := relay("Alice", "Bob", 50); err != nil {
		return err
	}

	p("\n4. Insufficient funds")
	settled, err := relay("Charlie", "Bob", 30)
	if err != nil {
		return err
	}
	if !settled {
		r, err := e.Recover("Bob")
		if err != nil {
			return err
		}
		p("   %s recovered with %s, balance change %s, balance %s, reputation %s", r.Node.Name, r.Outcome, r.Delta, r.Node.Balance, r.Node.Reputation)
	}

	snapshot := e.Snapshot()

	p("\n5. High reputation nodes")
	for _, n := range snapshot.Nodes {
		if n.Reputation.Trusted() {
			p("   %s: reputation %s, balance %s", n.Name, n.Reputation, n.Balance)
		}
	}

	p("\n6. Final state")
	for _, n := range snapshot.Nodes {
		p("   %s", n)
	}

	p("\n7. Transactions")
	i := 0
	for r := range e.Ledger().All() {
		i++
		p("   %d. [%s] %s: %s - %s", i, r.Kind, r.Node, r.Amount, r.Description)
	}

	p("\nSummary")
	p("   total nodes: %d", snapshot.TotalNodes)
	p("   total transactions: %d", snapshot.TotalTransactions)
	p("   high reputation nodes: %d", snapshot.HighReputationNodes)
	p("   total supply: %s", snapshot.TotalSupply)

	return nil
}
