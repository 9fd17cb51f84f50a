/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pantha704/blueshift-pinocchio-escrow/pkg/config"
)

func newInitCmd() *cobra.Command {
	var force bool

	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Create a config file with a generated API key",
		Long: `Create the configuration file and data directory for local use.

A random 256-bit API key is generated for the REST API. Existing
configuration is left alone unless --force is given.

Examples:
  escrow init
  escrow init --config ./escrow.yaml --data-dir ./data --force`,
		Annotations: map[string]string{skipStore: "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			configPath, _ := cmd.Flags().GetString("config")
			dataDir, _ := cmd.Flags().GetString("data-dir")
			if configPath == "" {
				configPath = config.GetDefaultConfigPath()
			}

			out := cmd.OutOrStdout()
			if config.ConfigExists(configPath) && !force {
				fmt.Fprintf(out, "Config already exists at %s. Use --force to overwrite.\n", configPath)
				return nil
			}

			cfg, err := config.BootstrapConfig(configPath, dataDir)
			if err != nil {
				return err
			}
			if err := os.MkdirAll(cfg.DataDir, 0750); err != nil {
				return fmt.Errorf("failed to create data directory: %w", err)
			}

			fmt.Fprintf(out, "Config written to %s\n", configPath)
			fmt.Fprintf(out, "Data directory: %s\n", cfg.DataDir)
			fmt.Fprintf(out, "API key: %s\n", cfg.Security.APIKey)
			fmt.Fprintf(out, "\nStart the server with:\n  escrow serve --config %s\n", configPath)
			return nil
		},
	}

	initCmd.Flags().BoolVar(&force, "force", false, "Overwrite an existing config file")
	return initCmd
}
