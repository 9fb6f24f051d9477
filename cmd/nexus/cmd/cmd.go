// Copyright 2020 The Swarm Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package cmd

import (
	"errors"
	"os"
	"path/filepath"
	"strings"

	"github.com/nexusremote/nexus/pkg/logging"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const (
	optionNameDataDir            = "data-dir"
	optionNameAPIAddr            = "api-addr"
	optionNameVerbosity          = "verbosity"
	optionNamePublishInterval    = "publish-interval"
	optionNameSnapshotEnable     = "snapshot-enable"
	optionNameRecordRecoveries   = "record-recoveries"
	optionNameCORSAllowedOrigins = "cors-allowed-origins"
	optionNameSeedDemo           = "seed-demo"
	optionNameAPIURL             = "api-url"
	optionNameTimeout            = "timeout"
	optionNameTolerance          = "tolerance"
)

func init() {
	cobra.EnableCommandSorting = false
}

type command struct {
	root    *cobra.Command
	config  *viper.Viper
	cfgFile string
	homeDir string
}

type option func(*command)

func newCommand(opts ...option) (c *command, err error) {
	c = &command{
		root: &cobra.Command{
			Use:           "nexus",
			Short:         "Relay credit economy node",
			SilenceErrors: true,
			SilenceUsage:  true,
			PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
				return c.initConfig()
			},
		},
	}

	for _, o := range opts {
		o(c)
	}

	// Find home directory.
	if err := c.setHomeDir(); err != nil {
		return nil, err
	}

	c.initGlobalFlags()

	if err := c.initStartCmd(); err != nil {
		return nil, err
	}

	if err := c.initDemoCmd(); err != nil {
		return nil, err
	}

	if err := c.initSmokeCmd(); err != nil {
		return nil, err
	}

	c.initVersionCmd()
	c.initPrintConfigCmd()

	return c, nil
}

func (c *command) Execute() (err error) {
	return c.root.Execute()
}

// Execute parses command line arguments and runs appropriate functions.
func Execute() (err error) {
	c, err := newCommand()
	if err != nil {
		return err
	}
	return c.Execute()
}

func (c *command) initGlobalFlags() {
	globalFlags := c.root.PersistentFlags()
	globalFlags.StringVar(&c.cfgFile, "config", "", "config file (default is $HOME/.nexus.yaml)")
}

func (c *command) initConfig() (err error) {
	config := viper.New()
	configName := ".nexus"
	if c.cfgFile != "" {
		// Use config file from the flag.
		config.SetConfigFile(c.cfgFile)
	} else {
		// Search config in home directory with name ".nexus" (without extension).
		config.AddConfigPath(c.homeDir)
		config.SetConfigName(configName)
	}

	// Environment
	config.SetEnvPrefix("nexus")
	config.AutomaticEnv() // read in environment variables that match
	config.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))

	if c.homeDir != "" && c.cfgFile == "" {
		c.cfgFile = filepath.Join(c.homeDir, configName+".yaml")
	}

	// If a config file is found, read it in.
	if err := config.ReadInConfig(); err != nil {
		var e viper.ConfigFileNotFoundError
		if !errors.As(err, &e) {
			return err
		}
	}
	c.config = config
	return nil
}

func (c *command) setHomeDir() (err error) {
	if c.homeDir != "" {
		return
	}
	dir, err := os.UserHomeDir()
	if err != nil {
		return err
	}
	c.homeDir = dir
	return nil
}

// bindFlags makes flag values visible through the command configuration.
// It must run after initConfig, as the config is replaced there.
func (c *command) bindFlags(cmd *cobra.Command) error {
	return c.config.BindPFlags(cmd.Flags())
}

func newLogger(cmd *cobra.Command, verbosity string) (logging.Logger, error) {
	level, err := logging.ParseVerbosity(verbosity)
	if err != nil {
		return nil, err
	}
	if level == 0 {
		return logging.Noop(), nil
	}
	return logging.New(cmd.OutOrStdout(), level), nil
}
