/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/pantha704/blueshift-pinocchio-escrow/pkg/api"
	"github.com/pantha704/blueshift-pinocchio-escrow/pkg/config"
)

func newServeCmd() *cobra.Command {
	var (
		port   int
		bind   string
		apiKey string
	)

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the REST API server",
		Long: `Start the escrow REST API server.

The API key comes from --api-key, then ESCROW_API_KEY, then the config file.
When none is set a key is generated for this run and printed.

Examples:
  escrow serve --config ./escrow.yaml
  escrow serve --port 9200 --api-key mysecretkey --backend pebble`,
		Args: cobra.NoArgs,
		RunE: runE(func(cmd *cobra.Command, args []string, a *app) error {
			cfg := a.config
			if cmd.Flags().Changed("port") {
				cfg.Port = port
			}
			if cmd.Flags().Changed("bind") {
				cfg.Bind = bind
			}
			if cmd.Flags().Changed("api-key") {
				cfg.Security.APIKey = apiKey
			}

			if cfg.Security.APIKey == "" || cfg.Security.APIKey == "auto" {
				generated, err := config.GenerateSecureKey(32)
				if err != nil {
					return err
				}
				cfg.Security.APIKey = generated
				fmt.Fprintf(cmd.OutOrStdout(), "Generated API key for this run: %s\n", generated)
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			a.logger.Info("serving escrow accounts",
				zap.String("data_dir", cfg.DataDir),
				zap.String("backend", cfg.Storage.Backend))

			starter := getContainer().GetServerFactory().CreateServerStarter()
			return starter.StartServer(ctx, a.service, api.ServerConfig{
				Bind:        cfg.Bind,
				Port:        cfg.Port,
				APIKey:      cfg.Security.APIKey,
				CORSOrigins: cfg.Security.CORSOrigins,
			}, a.logger)
		}),
	}

	serveCmd.Flags().IntVarP(&port, "port", "p", 8080, "Port to listen on")
	serveCmd.Flags().StringVar(&bind, "bind", "127.0.0.1", "Address to bind")
	serveCmd.Flags().StringVar(&apiKey, "api-key", "", "API key required in X-API-Key")
	return serveCmd
}
