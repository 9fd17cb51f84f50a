/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/pantha704/blueshift-pinocchio-escrow/pkg/accounts"
	"github.com/pantha704/blueshift-pinocchio-escrow/pkg/config"
	"github.com/pantha704/blueshift-pinocchio-escrow/pkg/di"
	"github.com/pantha704/blueshift-pinocchio-escrow/pkg/logging"
	"github.com/pantha704/blueshift-pinocchio-escrow/pkg/service"
)

// container holds injected dependencies
var container *di.Container

// SetContainer sets the dependency injection container
func SetContainer(c *di.Container) {
	container = c
}

func getContainer() *di.Container {
	if container == nil {
		container = di.NewContainer()
	}
	return container
}

// skipStore marks commands that run without opening the account backend
const skipStore = "skip-store"

type appKey struct{}

// app is the per-invocation state shared by subcommands
type app struct {
	config  *config.Config
	logger  *zap.Logger
	backend accounts.Backend
	service *service.Service
	printer *printer
}

func appFrom(cmd *cobra.Command) (*app, error) {
	a, ok := cmd.Context().Value(appKey{}).(*app)
	if !ok {
		return nil, errors.New("command context not initialized")
	}
	return a, nil
}

// rootOptions holds persistent flag values
type rootOptions struct {
	configPath string
	dataDir    string
	backend    string
	logLevel   string
	output     string
	decimals   int32
}

// NewRootCmd builds the escrow command tree
func NewRootCmd() *cobra.Command {
	opts := &rootOptions{}

	rootCmd := &cobra.Command{
		Use:   "escrow",
		Short: "Escrow account store",
		Long: `escrow manages fixed-layout escrow account records.

Each record is 113 bytes: seed, maker, mint_a, mint_b, receive and bump at
fixed little-endian offsets. Records are kept in an append-only log or a
pebble database and can be served over a REST API.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return opts.setup(cmd)
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&opts.configPath, "config", "c", "", "Config file (default "+config.GetDefaultConfigPath()+")")
	flags.StringVarP(&opts.dataDir, "data-dir", "d", "", "Data directory for the account store")
	flags.StringVar(&opts.backend, "backend", "", "Account backend: log or pebble")
	flags.StringVar(&opts.logLevel, "log-level", "", "Log level: debug, info, warn or error")
	flags.StringVarP(&opts.output, "output", "o", "table", "Output format: table or json")
	flags.Int32Var(&opts.decimals, "decimals", 0, "Decimal places of the mint_b token when reading or printing receive")

	rootCmd.AddCommand(
		newInitCmd(),
		newMakeCmd(),
		newShowCmd(),
		newSetCmd(),
		newCloseCmd(),
		newListCmd(),
		newLayoutCmd(),
		newServeCmd(),
	)

	return rootCmd
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main().
func Execute() {
	if err := NewRootCmd().ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}

// setup resolves output options and, unless the command opts out, the
// configuration and logger.
func (o *rootOptions) setup(cmd *cobra.Command) error {
	if o.output != "table" && o.output != "json" {
		return fmt.Errorf("unknown output format %q", o.output)
	}
	if o.decimals < 0 || o.decimals > 18 {
		return fmt.Errorf("decimals must be between 0 and 18, got %d", o.decimals)
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	a := &app{
		logger:  zap.NewNop(),
		printer: newPrinter(cmd.OutOrStdout(), o.output, o.decimals),
	}
	cmd.SetContext(context.WithValue(ctx, appKey{}, a))

	if cmd.Annotations[skipStore] == "true" {
		return nil
	}

	cfg, err := o.loadConfig(cmd)
	if err != nil {
		return err
	}
	a.config = cfg

	logger, err := logging.New(cfg.Logging.Level, cfg.Logging.Format)
	if err != nil {
		return err
	}
	a.logger = logger

	return nil
}

// openStore opens the configured account backend
func (a *app) openStore() error {
	backend, err := getContainer().GetBackendFactory().OpenBackend(accounts.Options{
		Backend:       a.config.Storage.Backend,
		DataDir:       a.config.DataDir,
		FsyncInterval: a.config.Storage.FsyncInterval,
	}, a.logger)
	if err != nil {
		return fmt.Errorf("failed to open account store: %w", err)
	}
	a.backend = backend
	a.service = service.New(backend, a.logger)
	return nil
}

// loadConfig reads the config file when there is one and applies flag overrides
func (o *rootOptions) loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path := o.configPath
	if path == "" {
		path = config.GetDefaultConfigPath()
	}

	var cfg *config.Config
	switch {
	case config.ConfigExists(path):
		loaded, err := config.LoadConfig(path)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	case cmd.Flags().Changed("config"):
		return nil, fmt.Errorf("config file does not exist: %s (run 'escrow init' first)", path)
	default:
		cfg = config.DefaultConfig()
		config.ApplyEnv(cfg)
	}

	if cmd.Flags().Changed("data-dir") {
		cfg.DataDir = o.dataDir
	}
	if cmd.Flags().Changed("backend") {
		cfg.Storage.Backend = o.backend
	}
	if cmd.Flags().Changed("log-level") {
		cfg.Logging.Level = o.logLevel
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// runE adapts fn to cobra, handing it the app state and closing the
// account backend once fn returns.
func runE(fn func(cmd *cobra.Command, args []string, a *app) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		a, err := appFrom(cmd)
		if err != nil {
			return err
		}
		defer a.close()

		if cmd.Annotations[skipStore] != "true" {
			if err := a.openStore(); err != nil {
				return err
			}
		}
		return fn(cmd, args, a)
	}
}

func (a *app) close() {
	_ = a.logger.Sync()
	if a.backend != nil {
		if err := a.backend.Close(); err != nil {
			a.logger.Warn("failed to close account store", zap.Error(err))
		}
		a.backend = nil
	}
}
