// Copyright 2020 The Swarm Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package cmd

import (
	"context"
	"errors"

	"github.com/nexusremote/nexus/pkg/smoke"
	"github.com/spf13/cobra"
)

func (c *command) initSmokeCmd() (err error) {
	cmd := &cobra.Command{
		Use:   "smoke",
		Short: "Check a running node over HTTP and websocket",
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

			report, err := smoke.Run(context.Background(), smoke.Options{
				APIURL:    c.config.GetString(optionNameAPIURL),
				Timeout:   c.config.GetDuration(optionNameTimeout),
				Tolerance: c.config.GetInt(optionNameTolerance),
				Logger:    logger,
			})
			for _, s := range report.Steps {
				switch {
				case s.OK():
					cmd.Printf("PASS %-10s %v\n", s.Name, s.Duration)
				case errors.Is(s.Err, smoke.ErrSkipped):
					cmd.Printf("SKIP %s\n", s.Name)
				default:
					cmd.Printf("FAIL %-10s %v\n", s.Name, s.Err)
				}
			}
			if err != nil {
				return err
			}
			cmd.Printf("transactions: http %d, websocket %d\n", report.HTTPTransactions, report.WsTransactions)
			return nil
		},
	}

	cmd.Flags().String(optionNameAPIURL, "http://localhost:8080", "base URL of the node API")
	cmd.Flags().Duration(optionNameTimeout, smoke.DefaultTimeout, "time to wait for a websocket response")
	cmd.Flags().Int(optionNameTolerance, smoke.DefaultTolerance, "accepted difference between http and websocket transaction counts")
	cmd.Flags().String(optionNameVerbosity, "silent", "log verbosity level 0=silent, 1=error, 2=warn, 3=info, 4=debug, 5=trace")

	c.root.AddCommand(cmd)
	return nil
}
