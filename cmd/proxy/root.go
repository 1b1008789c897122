package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/iTrooz/response-cache/internal/config"
	"github.com/iTrooz/response-cache/internal/proxy"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// flags holds command line overrides of the configuration file
type flags struct {
	configPath string
	port       int
	adminPort  int
	logLevel   string
}

func newRootCmd() *cobra.Command {
	f := &flags{}

	cmd := &cobra.Command{
		Use:   "proxy",
		Short: "Caching HTTP forward proxy",
		Long: `A forward proxy memoizing upstream responses by URL for a bounded
time and a bounded number of entries.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, f)
			if err != nil {
				return err
			}

			server, err := proxy.New(cfg)
			if err != nil {
				return fmt.Errorf("failed to create proxy server: %w", err)
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			if err := server.Start(ctx); err != nil {
				return fmt.Errorf("server failed: %w", err)
			}
			return nil
		},
	}

	cmd.PersistentFlags().StringVarP(&f.configPath, "config", "c", "", "path to the YAML configuration file")
	cmd.PersistentFlags().IntVarP(&f.port, "port", "p", 0, "proxy port, overrides server.port")
	cmd.PersistentFlags().IntVar(&f.adminPort, "admin-port", 0, "admin API port, overrides server.admin_port")
	cmd.PersistentFlags().StringVar(&f.logLevel, "log-level", "", "log level, overrides log.level")

	cmd.AddCommand(newConfigCmd(f))
	cmd.SetContext(context.Background())
	return cmd
}

// loadConfig reads the configuration file, applies flag overrides, validates
// the result and configures logging from it
func loadConfig(cmd *cobra.Command, f *flags) (*config.Config, error) {
	cfg, err := config.Load(f.configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	if cmd.Flags().Changed("port") {
		cfg.Server.Port = f.port
	}
	if cmd.Flags().Changed("admin-port") {
		cfg.Server.AdminPort = f.adminPort
	}
	if cmd.Flags().Changed("log-level") {
		cfg.Log.Level = f.logLevel
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	level, _ := logrus.ParseLevel(cfg.Log.Level)
	logrus.SetLevel(level)
	logrus.Debugf("Loaded configuration from %q", f.configPath)

	return cfg, nil
}
