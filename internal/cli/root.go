// Package cli implements pulsectl, the maintenance command line for the
// engagement store. It reconciles counters, sweeps orphans, seeds data,
// applies the schema and tails notification events.
package cli

import (
	"fmt"
	"slices"

	"pulse/internal/bootstrap"
	"pulse/internal/config"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

// Runtime holds the connections a command works against.
type Runtime struct {
	DB    *gorm.DB
	Redis *redis.Client
}

// Opener connects the runtime for a command.
type Opener func() (*Runtime, error)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Format string // "json" | "text"
	open   Opener
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// DefaultOpener loads configuration and connects the database and Redis.
func DefaultOpener() (*Runtime, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	db, rdb, err := bootstrap.InitRuntime(cfg, bootstrap.Options{})
	if err != nil {
		return nil, err
	}
	return &Runtime{DB: db, Redis: rdb}, nil
}

// NewRootCommand creates the pulsectl root command. A nil open uses DefaultOpener.
func NewRootCommand(open Opener) *cobra.Command {
	if open == nil {
		open = DefaultOpener
	}
	opts := &RootOptions{open: open}

	cmd := &cobra.Command{
		Use:   "pulsectl",
		Short: "Maintenance tooling for the Pulse engagement store",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !slices.Contains(ValidFormats, opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
			}
			return nil
		},
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")

	cmd.AddCommand(NewReconcileCommand(opts))
	cmd.AddCommand(NewSweepCommand(opts))
	cmd.AddCommand(NewSeedCommand(opts))
	cmd.AddCommand(NewTailCommand(opts))
	cmd.AddCommand(NewMigrateCommand(opts))

	return cmd
}
