// Package cli implements the kidsbank command-line client with cobra.
package cli

import (
	"context"
	"time"

	"github.com/dmitrijs2005/kidsbank/internal/client/client"
	"github.com/dmitrijs2005/kidsbank/internal/client/config"
	"github.com/dmitrijs2005/kidsbank/internal/client/services"
	"github.com/dmitrijs2005/kidsbank/internal/filex"
	"github.com/spf13/cobra"
)

// RootOptions holds the global flags.
type RootOptions struct {
	ConfigPath   string
	ServerURL    string
	DatabasePath string
	Timeout      time.Duration
}

// Opener builds the service for a loaded config and returns a function
// releasing what it opened.
type Opener func(ctx context.Context, cfg *config.Config) (services.BankService, func() error, error)

// OpenBankService opens the local store and the HTTP client.
func OpenBankService(ctx context.Context, cfg *config.Config) (services.BankService, func() error, error) {
	if err := filex.EnsureParentDir(cfg.DatabasePath); err != nil {
		return nil, nil, err
	}
	db, err := client.InitDatabase(ctx, cfg.DatabasePath)
	if err != nil {
		return nil, nil, err
	}
	c := client.NewHTTPClient(cfg.ServerURL, cfg.RequestTimeout)
	return services.NewBankService(c, db), db.Close, nil
}

// app carries state from the root command to the subcommands.
type app struct {
	opts    *RootOptions
	open    Opener
	service services.BankService
	close   func() error
}

func NewRootCommand(open Opener) *cobra.Command {
	a := &app{opts: &RootOptions{}, open: open}

	cmd := &cobra.Command{
		Use:           "kidsbank",
		Short:         "KidsBank - pocket money ledger",
		Long:          "Records transactions offline and syncs them with a KidsBank server.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadConfig(a.opts.ConfigPath)
			if err != nil {
				return err
			}

			flags := cmd.Flags()
			if flags.Changed("server") {
				cfg.ServerURL = a.opts.ServerURL
			}
			if flags.Changed("db") {
				cfg.DatabasePath = a.opts.DatabasePath
			}
			if flags.Changed("timeout") {
				cfg.RequestTimeout = a.opts.Timeout
			}

			a.service, a.close, err = a.open(cmd.Context(), cfg)
			return err
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			if a.close != nil {
				return a.close()
			}
			return nil
		},
	}

	pf := cmd.PersistentFlags()
	pf.StringVarP(&a.opts.ConfigPath, "config", "c", "", "JSON config file")
	pf.StringVarP(&a.opts.ServerURL, "server", "a", "", "server base URL")
	pf.StringVarP(&a.opts.DatabasePath, "db", "d", "", "local database file")
	pf.DurationVarP(&a.opts.Timeout, "timeout", "t", 0, "request timeout")

	cmd.AddCommand(
		newRegisterCommand(a),
		newAccountsCommand(a),
		newCreateAccountCommand(a),
		newLoginCommand(a),
		newLogoutCommand(a),
		newAddCommand(a),
		newSyncCommand(a),
		newBalanceCommand(a),
		newExportCommand(a),
	)

	return cmd
}
