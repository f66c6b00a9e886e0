package cli

import (
	"fmt"
	"os"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/dmitrijs2005/kidsbank/internal/common"
	"github.com/dmitrijs2005/kidsbank/internal/netx"
	"github.com/spf13/cobra"
)

func newRegisterCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "register",
		Short: "Register this device with the server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := a.service.EnsureRegistered(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Device registered as %s\n", id)
			return nil
		},
	}
}

func newAccountsCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "accounts",
		Short: "List accounts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			list, err := a.service.Accounts(cmd.Context())
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tNAME\tBIRTHDAY\tACCESS")
			for _, acc := range list {
				birthday := acc.Birthday
				if !acc.HasAccess {
					birthday = "-"
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%t\n", acc.ID, acc.Name, birthday, acc.HasAccess)
			}
			return w.Flush()
		},
	}
}

func newCreateAccountCommand(a *app) *cobra.Command {
	var name, birthday string
	var protect bool

	cmd := &cobra.Command{
		Use:   "create-account",
		Short: "Create an account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var password string
			if protect {
				var err error
				password, err = GetPassword(cmd.OutOrStdout(), "Account password: ")
				if err != nil {
					return err
				}
			}

			id, err := a.service.CreateAccount(cmd.Context(), name, birthday, password)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Account %s created\n", id)
			return nil
		},
	}

	cmd.Flags().StringVarP(&name, "name", "n", "", "account holder name")
	cmd.Flags().StringVarP(&birthday, "birthday", "b", "", "birthday (yyyy-mm-dd)")
	cmd.Flags().BoolVarP(&protect, "protect", "p", false, "prompt for a password protecting the account")
	_ = cmd.MarkFlagRequired("name")
	_ = cmd.MarkFlagRequired("birthday")

	return cmd
}

func newLoginCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "login <account>",
		Short: "Unlock a password-protected account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			password, err := GetPassword(cmd.OutOrStdout(), "Password: ")
			if err != nil {
				return err
			}
			if err := a.service.Login(cmd.Context(), args[0], password); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Login successful")
			return nil
		},
	}
}

func newLogoutCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored credential",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.service.Logout(cmd.Context())
		},
	}
}

func newAddCommand(a *app) *cobra.Command {
	var description, date string

	cmd := &cobra.Command{
		Use:   "add <account> [--] <amount>",
		Short: "Record a transaction; negative amounts are withdrawals (put them after --)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			amount, err := strconv.ParseInt(args[1], 10, 64)
			if err != nil {
				return fmt.Errorf("amount must be an integer: %w", err)
			}
			if date == "" {
				date = time.Now().Format(common.DateFormat)
			}

			c, err := a.service.AddTransaction(cmd.Context(), args[0], description, amount, date)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Queued %s (%s)\n", formatAmount(amount), c.Hash[:12])
			return nil
		},
	}

	cmd.Flags().StringVarP(&description, "description", "m", "", "what the money was for")
	cmd.Flags().StringVar(&date, "date", "", "transaction date (yyyy-mm-dd, default today)")

	return cmd
}

func newSyncCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "sync <account>",
		Short: "Push queued transactions and pull new ones",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := a.service.Sync(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Pushed %d (%d new), pulled %d\n", res.Pushed, res.Committed, res.Pulled)
			return nil
		},
	}
}

func newBalanceCommand(a *app) *cobra.Command {
	var history bool

	cmd := &cobra.Command{
		Use:   "balance <account>",
		Short: "Show the balance from local data",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			balance, err := a.service.Balance(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Balance: %d\n", balance)

			if !history {
				return nil
			}

			txs, err := a.service.Transactions(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			for _, tx := range txs {
				fmt.Fprintf(w, "%s\t%s\t%s\n", tx.Date, formatAmount(tx.Amount), tx.Description)
			}
			return w.Flush()
		},
	}

	cmd.Flags().BoolVar(&history, "history", false, "list the transactions too")

	return cmd
}

// downloadExport is a test seam for netx.DownloadPresignedURL.
var downloadExport = netx.DownloadPresignedURL

func newExportCommand(a *app) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "export <account>",
		Short: "Export the account's change log to object storage",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := a.service.Export(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Exported %d changes to %s\n%s\n", res.Count, res.Key, res.URL)

			if output == "" {
				return nil
			}

			f, err := os.Create(output)
			if err != nil {
				return err
			}
			n, err := downloadExport(cmd.Context(), res.URL, f)
			if cerr := f.Close(); err == nil {
				err = cerr
			}
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Saved %d bytes to %s\n", n, output)
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "also download the export to this file")

	return cmd
}
