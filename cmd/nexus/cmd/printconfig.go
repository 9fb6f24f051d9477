// Copyright 2020 The Swarm Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package cmd

import (
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v2"
)

func (c *command) initPrintConfigCmd() {
	cmd := &cobra.Command{
		Use:   "printconfig",
		Short: "Print default or provided configuration in yaml format",
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			if len(args) > 0 {
				return cmd.Help()
			}

			// start flags are the node configuration
			start, _, err := c.root.Find([]string{"start"})
			if err != nil {
				return err
			}
			if err := c.bindFlags(start); err != nil {
				return err
			}

			d := c.config.AllSettings()
			ym, err := yaml.Marshal(d)
			if err != nil {
				return err
			}
			cmd.Println(string(ym))
			return nil
		},
	}

	c.root.AddCommand(cmd)
}
