// Package cli implements the earnhubctl command tree.
package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/danilovkiri/dk-go-earnhub/internal/api/rest/client"
	"github.com/danilovkiri/dk-go-earnhub/internal/logger"
	"github.com/danilovkiri/dk-go-earnhub/internal/models/modeldto"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
)

type options struct {
	url     string
	token   string
	timeout time.Duration
	verbose bool
	out     io.Writer
}

func (o *options) client() *client.Client {
	log := logger.InitLog()
	level := "warn"
	if o.verbose {
		level = "debug"
	}
	if leveled, err := logger.WithLevel(log, level); err == nil {
		log = leveled
	}
	return client.InitClient(o.url, o.token, log)
}

func (o *options) withTimeout() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), o.timeout)
}

func (o *options) print(v interface{}) error {
	enc := json.NewEncoder(o.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// NewRootCommand builds the command tree writing results to out.
func NewRootCommand(out io.Writer) *cobra.Command {
	o := &options{out: out}
	root := &cobra.Command{
		Use:          "earnhubctl",
		Short:        "Command-line client for the EarnHub API",
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&o.url, "url", envOr("EARNHUB_URL", "http://localhost:8080"), "API base URL (EARNHUB_URL)")
	root.PersistentFlags().StringVar(&o.token, "token", os.Getenv("EARNHUB_TOKEN"), "bearer token (EARNHUB_TOKEN)")
	root.PersistentFlags().DurationVar(&o.timeout, "timeout", 10*time.Second, "request timeout")
	root.PersistentFlags().BoolVarP(&o.verbose, "verbose", "v", false, "log requests to stderr")

	root.AddCommand(
		registerCmd(o),
		loginCmd(o),
		meCmd(o),
		tasksCmd(o),
		submitCmd(o),
		submissionsCmd(o),
		withdrawCmd(o),
		transactionsCmd(o),
		adminCmd(o),
	)
	return root
}

func registerCmd(o *options) *cobra.Command {
	var name, email, password string
	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create an account and print its token",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := o.withTimeout()
			defer cancel()
			auth, err := o.client().Register(ctx, modeldto.Registration{Name: name, Email: email, Password: password})
			if err != nil {
				return err
			}
			return o.print(auth)
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "display name")
	cmd.Flags().StringVar(&email, "email", "", "e-mail")
	cmd.Flags().StringVar(&password, "password", "", "password")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}

func loginCmd(o *options) *cobra.Command {
	var email, password string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in and print the token",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := o.withTimeout()
			defer cancel()
			auth, err := o.client().Login(ctx, email, password)
			if err != nil {
				return err
			}
			return o.print(auth)
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "e-mail")
	cmd.Flags().StringVar(&password, "password", "", "password")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}

func meCmd(o *options) *cobra.Command {
	return &cobra.Command{
		Use:   "me",
		Short: "Show the profile and wallet balance",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := o.withTimeout()
			defer cancel()
			user, err := o.client().Profile(ctx)
			if err != nil {
				return err
			}
			return o.print(user)
		},
	}
}

func tasksCmd(o *options) *cobra.Command {
	return &cobra.Command{
		Use:   "tasks",
		Short: "List active tasks",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := o.withTimeout()
			defer cancel()
			tasks, err := o.client().Tasks(ctx)
			if err != nil {
				return err
			}
			return o.print(tasks)
		},
	}
}

func submitCmd(o *options) *cobra.Command {
	var proof string
	cmd := &cobra.Command{
		Use:   "submit TASK_ID",
		Short: "Submit proof of completion for a task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := o.withTimeout()
			defer cancel()
			s, err := o.client().Submit(ctx, args[0], proof)
			if err != nil {
				return err
			}
			return o.print(s)
		},
	}
	cmd.Flags().StringVar(&proof, "proof", "", "proof of completion")
	_ = cmd.MarkFlagRequired("proof")
	return cmd
}

func submissionsCmd(o *options) *cobra.Command {
	return &cobra.Command{
		Use:   "submissions",
		Short: "List your submissions",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := o.withTimeout()
			defer cancel()
			submissions, err := o.client().Submissions(ctx)
			if err != nil {
				return err
			}
			return o.print(submissions)
		},
	}
}

func withdrawCmd(o *options) *cobra.Command {
	var method, details string
	cmd := &cobra.Command{
		Use:   "withdraw AMOUNT",
		Short: "Request a payout from the wallet",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			amount, err := decimal.NewFromString(args[0])
			if err != nil {
				return fmt.Errorf("invalid amount %q: %w", args[0], err)
			}
			ctx, cancel := o.withTimeout()
			defer cancel()
			tx, err := o.client().Withdraw(ctx, modeldto.NewWithdrawal{Amount: modeldto.NewMoney(amount), Method: method, Details: details})
			if err != nil {
				return err
			}
			return o.print(tx)
		},
	}
	cmd.Flags().StringVar(&method, "method", "upi", "payout method: upi, bank, paytm or card")
	cmd.Flags().StringVar(&details, "details", "", "payout destination")
	_ = cmd.MarkFlagRequired("details")
	return cmd
}

func transactionsCmd(o *options) *cobra.Command {
	return &cobra.Command{
		Use:   "transactions",
		Short: "List your wallet transactions",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := o.withTimeout()
			defer cancel()
			txs, err := o.client().Transactions(ctx)
			if err != nil {
				return err
			}
			return o.print(txs)
		},
	}
}
