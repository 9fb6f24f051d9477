// Copyright 2020 The Swarm Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package cmd

import (
	"context"
	"io/ioutil"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/nexusremote/nexus"
	"github.com/nexusremote/nexus/pkg/economy"
	"github.com/nexusremote/nexus/pkg/node"
	"github.com/nexusremote/nexus/pkg/observer"
	"github.com/spf13/cobra"
)

func (c *command) initStartCmd() (err error) {
	cmd := &cobra.Command{
		Use:   "start",
		Short: "Start a nexus node",
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

			logger.Infof("version: %v", nexus.Version)

			var seed func(economy.Interface) error
			if c.config.GetBool(optionNameSeedDemo) {
				seed = func(e economy.Interface) error {
					return runDemo(e, ioutil.Discard)
				}
			}

			n, err := node.NewNexus(node.Options{
				DataDir:            c.config.GetString(optionNameDataDir),
				APIAddr:            c.config.GetString(optionNameAPIAddr),
				PublishInterval:    c.config.GetDuration(optionNamePublishInterval),
				SnapshotEnabled:    c.config.GetBool(optionNameSnapshotEnable),
				RecordRecoveries:   c.config.GetBool(optionNameRecordRecoveries),
				CORSAllowedOrigins: c.config.GetStringSlice(optionNameCORSAllowedOrigins),
				Logger:             logger,
				Seed:               seed,
			})
			if err != nil {
				return err
			}

			// Wait for termination or interrupt signals.
			// We want to clean up things at the end.
			interruptChannel := make(chan os.Signal, 1)
			signal.Notify(interruptChannel, syscall.SIGINT, syscall.SIGTERM)

			// Block main goroutine until it is interrupted
			sig := <-interruptChannel

			logger.Debugf("received signal: %v", sig)
			logger.Info("shutting down")

			// Shutdown
			done := make(chan struct{})
			go func() {
				defer close(done)

				ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
				defer cancel()

				if err := n.Shutdown(ctx); err != nil {
					logger.Errorf("shutdown: %v", err)
				}
			}()

			// If shutdown function is blocking too long,
			// allow process termination by receiving another signal.
			select {
			case sig := <-interruptChannel:
				logger.Debugf("received signal: %v", sig)
			case <-done:
			}

			return nil
		},
	}

	cmd.Flags().String(optionNameDataDir, filepath.Join(c.homeDir, ".nexus"), "data directory")
	cmd.Flags().String(optionNameAPIAddr, ":8080", "HTTP API listen address")
	cmd.Flags().String(optionNameVerbosity, "info", "log verbosity level 0=silent, 1=error, 2=warn, 3=info, 4=debug, 5=trace")
	cmd.Flags().Duration(optionNamePublishInterval, observer.DefaultInterval, "interval between published economy updates")
	cmd.Flags().Bool(optionNameSnapshotEnable, false, "persist the latest published snapshot in the data directory")
	cmd.Flags().Bool(optionNameRecordRecoveries, false, "record a ledger transfer for every recovery")
	cmd.Flags().StringSlice(optionNameCORSAllowedOrigins, []string{}, "origins with CORS headers enabled")
	cmd.Flags().Bool(optionNameSeedDemo, false, "populate the economy with the demo walkthrough on start")

	c.root.AddCommand(cmd)
	return nil
}
