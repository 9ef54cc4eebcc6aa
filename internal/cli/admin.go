package cli

import (
	"fmt"

	"github.com/danilovkiri/dk-go-earnhub/internal/models/modeldto"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
)

func adminCmd(o *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "admin",
		Short: "Moderation and catalog maintenance (admin token required)",
	}
	cmd.AddCommand(
		reviewCmd(o),
		finalizeCmd(o),
		adminSubmissionsCmd(o),
		adminWithdrawalsCmd(o),
		adminUsersCmd(o),
		auditCmd(o),
		adminTasksCmd(o),
		createTaskCmd(o),
		deactivateTaskCmd(o),
	)
	return cmd
}

func reviewCmd(o *options) *cobra.Command {
	var note string
	cmd := &cobra.Command{
		Use:       "review SUBMISSION_ID approved|rejected",
		Short:     "Approve or reject a pending submission",
		Args:      cobra.ExactArgs(2),
		ValidArgs: []string{"approved", "rejected"},
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := o.withTimeout()
			defer cancel()
			s, err := o.client().Review(ctx, args[0], modeldto.Review{Status: args[1], AdminNote: note})
			if err != nil {
				return err
			}
			return o.print(s)
		},
	}
	cmd.Flags().StringVar(&note, "note", "", "note shown to the user")
	return cmd
}

func finalizeCmd(o *options) *cobra.Command {
	return &cobra.Command{
		Use:   "finalize TRANSACTION_ID completed|rejected",
		Short: "Complete or reject a pending withdrawal",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := o.withTimeout()
			defer cancel()
			tx, err := o.client().Finalize(ctx, args[0], args[1])
			if err != nil {
				return err
			}
			return o.print(tx)
		},
	}
}

func adminSubmissionsCmd(o *options) *cobra.Command {
	var status string
	cmd := &cobra.Command{
		Use:   "submissions",
		Short: "List all submissions",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := o.withTimeout()
			defer cancel()
			submissions, err := o.client().AdminSubmissions(ctx, status)
			if err != nil {
				return err
			}
			return o.print(submissions)
		},
	}
	cmd.Flags().StringVar(&status, "status", "", "pending, approved or rejected")
	return cmd
}

func adminWithdrawalsCmd(o *options) *cobra.Command {
	var status string
	cmd := &cobra.Command{
		Use:   "withdrawals",
		Short: "List all withdrawals",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := o.withTimeout()
			defer cancel()
			txs, err := o.client().AdminWithdrawals(ctx, status)
			if err != nil {
				return err
			}
			return o.print(txs)
		},
	}
	cmd.Flags().StringVar(&status, "status", "", "pending, completed or rejected")
	return cmd
}

func adminUsersCmd(o *options) *cobra.Command {
	return &cobra.Command{
		Use:   "users",
		Short: "List all accounts",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := o.withTimeout()
			defer cancel()
			users, err := o.client().AdminUsers(ctx)
			if err != nil {
				return err
			}
			return o.print(users)
		},
	}
}

func auditCmd(o *options) *cobra.Command {
	return &cobra.Command{
		Use:   "audit USER_ID",
		Short: "Recompute a user's balance from the transaction history",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := o.withTimeout()
			defer cancel()
			report, err := o.client().Audit(ctx, args[0])
			if err != nil {
				return err
			}
			return o.print(report)
		},
	}
}

func adminTasksCmd(o *options) *cobra.Command {
	return &cobra.Command{
		Use:   "tasks",
		Short: "List the whole catalog",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := o.withTimeout()
			defer cancel()
			tasks, err := o.client().AdminTasks(ctx)
			if err != nil {
				return err
			}
			return o.print(tasks)
		},
	}
}

func createTaskCmd(o *options) *cobra.Command {
	var draft modeldto.TaskDraft
	var reward string
	cmd := &cobra.Command{
		Use:   "create-task",
		Short: "Add a task to the catalog",
		RunE: func(cmd *cobra.Command, args []string) error {
			amount, err := decimal.NewFromString(reward)
			if err != nil {
				return fmt.Errorf("invalid reward %q: %w", reward, err)
			}
			draft.Reward = modeldto.NewMoney(amount)
			ctx, cancel := o.withTimeout()
			defer cancel()
			task, err := o.client().CreateTask(ctx, draft)
			if err != nil {
				return err
			}
			return o.print(task)
		},
	}
	cmd.Flags().StringVar(&draft.Title, "title", "", "task title")
	cmd.Flags().StringVar(&draft.Description, "description", "", "task description")
	cmd.Flags().StringVar(&draft.Category, "category", "", "task category")
	cmd.Flags().StringVar(&draft.Requirements, "requirements", "", "what counts as proof")
	cmd.Flags().StringVar(&reward, "reward", "", "reward amount")
	_ = cmd.MarkFlagRequired("title")
	_ = cmd.MarkFlagRequired("reward")
	return cmd
}

func deactivateTaskCmd(o *options) *cobra.Command {
	return &cobra.Command{
		Use:   "deactivate-task TASK_ID",
		Short: "Hide a task from the catalog",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := o.withTimeout()
			defer cancel()
			task, err := o.client().DeactivateTask(ctx, args[0])
			if err != nil {
				return err
			}
			return o.print(task)
		},
	}
}
