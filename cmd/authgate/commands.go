package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/MrEthical07/authgate"
	"github.com/MrEthical07/authgate/directory"
	"github.com/MrEthical07/authgate/password"
	"github.com/go-logr/logr"
	"github.com/spf13/cobra"
)

func newCheckConfigCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "check-config",
		Short: "Load and validate the configuration without starting the server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			fc, path, err := loadConfig(opts.configPath, opts.getenv)
			if err != nil {
				return err
			}
			cfg, err := checkConfig(fc)
			if err != nil {
				return err
			}
			if path == "" {
				path = "built-in defaults"
			}
			cmd.Printf("config ok (%s)\n", path)
			for _, w := range authgate.BuildSecurityReport(cfg).Warnings {
				cmd.Printf("warning: %s\n", w)
			}
			return nil
		},
	}
}

// checkConfig validates everything serve would reject at startup, short of
// connecting to Redis or PostgreSQL.
func checkConfig(fc *fileConfig) (authgate.Config, error) {
	cfg, err := fc.engineConfig()
	if err != nil {
		return authgate.Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return authgate.Config{}, err
	}
	if fc.Database.URL == "" {
		if _, err := directory.NewStaticTenants(fc.Tenants); err != nil {
			return authgate.Config{}, err
		}
		if _, err := directory.NewStaticUsers(fc.Users); err != nil {
			return authgate.Config{}, err
		}
	}
	if _, err := buildSenders(fc, logr.Discard()); err != nil {
		return authgate.Config{}, err
	}
	if _, err := auditSink(fc.Audit.Sink, logr.Discard()); err != nil {
		return authgate.Config{}, err
	}
	return cfg, nil
}

func newHashPasswordCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "hash-password",
		Short: "Read a password from stdin and print its argon2id hash",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
			if err != nil && line == "" {
				return errors.New("no password on stdin")
			}
			pw := strings.TrimRight(line, "\r\n")

			hasher, err := password.NewArgon2(password.DefaultConfig())
			if err != nil {
				return err
			}
			hash, err := hasher.Hash(pw)
			if err != nil {
				return fmt.Errorf("hashing password: %w", err)
			}
			cmd.Println(hash)
			return nil
		},
	}
}

func newServeCmd(opts *rootOptions) *cobra.Command {
	var (
		dev         bool
		databaseURL string
	)
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP gateway",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			fc, path, err := loadConfig(opts.configPath, opts.getenv)
			if err != nil {
				return err
			}
			if databaseURL != "" {
				fc.Database.URL = databaseURL
			}
			logger := opts.logger()
			if path != "" {
				logger.V(1).Info("loaded config", "path", path)
			}
			ctx, stop := signalContext(cmd.Context())
			defer stop()
			return serve(ctx, fc, dev, logger)
		},
	}
	cmd.Flags().BoolVar(&dev, "dev", false, "use an in-process Redis and a generated signing secret")
	cmd.Flags().StringVar(&databaseURL, "database-url", "", "read tenants and users from PostgreSQL")
	return cmd
}

func signalContext(parent context.Context) (context.Context, context.CancelFunc) {
	if parent == nil {
		parent = context.Background()
	}
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}
