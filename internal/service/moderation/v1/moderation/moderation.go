// Package moderation is the administrative entry point: it checks the
// caller's role and payload shape, then delegates.
package moderation

import (
	"context"
	"strings"

	"github.com/danilovkiri/dk-go-earnhub/internal/models/modelclaims"
	"github.com/danilovkiri/dk-go-earnhub/internal/models/modelledger"
	"github.com/danilovkiri/dk-go-earnhub/internal/service/catalog/v1"
	catalogService "github.com/danilovkiri/dk-go-earnhub/internal/service/catalog/v1/catalog"
	serviceErrors "github.com/danilovkiri/dk-go-earnhub/internal/service/errors"
	"github.com/danilovkiri/dk-go-earnhub/internal/service/wallet/v1"
	walletService "github.com/danilovkiri/dk-go-earnhub/internal/service/wallet/v1/wallet"
	"github.com/danilovkiri/dk-go-earnhub/internal/service/workflow/v1"
	"github.com/danilovkiri/dk-go-earnhub/internal/storage/v1"
	"github.com/rs/zerolog"
)

const maxNoteLength = 1000

// Gateway defines attributes of a struct available to its methods.
type Gateway struct {
	workflow workflow.Workflow
	wallet   wallet.Wallet
	catalog  catalog.Catalog
	users    storage.Reader
	log      *zerolog.Logger
}

// InitService initializes the moderation gateway.
func InitService(wf workflow.Workflow, w wallet.Wallet, c catalog.Catalog, users storage.Reader, log *zerolog.Logger) (*Gateway, error) {
	if wf == nil {
		return nil, &serviceErrors.ServiceFoundNilArgument{Msg: "nil workflow was passed to moderation initializer"}
	}
	if w == nil {
		return nil, &serviceErrors.ServiceFoundNilArgument{Msg: "nil wallet was passed to moderation initializer"}
	}
	if c == nil {
		return nil, &serviceErrors.ServiceFoundNilArgument{Msg: "nil catalog was passed to moderation initializer"}
	}
	if users == nil {
		return nil, &serviceErrors.ServiceFoundNilArgument{Msg: "nil user reader was passed to moderation initializer"}
	}
	return &Gateway{workflow: wf, wallet: w, catalog: c, users: users, log: log}, nil
}

func (g *Gateway) authorize(id modelclaims.Identity, op string) error {
	if !id.IsAdmin {
		g.log.Warn().Str("user", id.UserID).Str("op", op).Msg("non-admin moderation attempt")
		return &serviceErrors.ForbiddenError{Msg: "administrator role required"}
	}
	return nil
}

func requireID(name, value string) error {
	if strings.TrimSpace(value) == "" {
		return &serviceErrors.InvalidArgumentError{Msg: name + " is required"}
	}
	return nil
}

// ReviewSubmission approves or rejects a pending submission.
func (g *Gateway) ReviewSubmission(ctx context.Context, id modelclaims.Identity, submissionID, decision, note string) (*modelledger.Submission, error) {
	if err := g.authorize(id, "ReviewSubmission"); err != nil {
		return nil, err
	}
	if err := requireID("submission id", submissionID); err != nil {
		return nil, err
	}
	status := modelledger.SubmissionStatus(decision)
	if !status.Terminal() {
		return nil, &serviceErrors.InvalidArgumentError{Msg: "decision must be approved or rejected"}
	}
	if len(note) > maxNoteLength {
		return nil, &serviceErrors.InvalidArgumentError{Msg: "note is too long"}
	}
	return g.workflow.Review(ctx, submissionID, status, note)
}

// FinalizeWithdrawal completes or rejects a pending withdrawal.
func (g *Gateway) FinalizeWithdrawal(ctx context.Context, id modelclaims.Identity, transactionID, outcome string) (*modelledger.Transaction, error) {
	if err := g.authorize(id, "FinalizeWithdrawal"); err != nil {
		return nil, err
	}
	if err := requireID("transaction id", transactionID); err != nil {
		return nil, err
	}
	status := modelledger.TransactionStatus(outcome)
	if !status.Terminal() {
		return nil, &serviceErrors.InvalidArgumentError{Msg: "outcome must be completed or rejected"}
	}
	return g.wallet.FinalizeWithdrawal(ctx, transactionID, status)
}

// ListSubmissions returns submissions of every user, optionally by status.
func (g *Gateway) ListSubmissions(ctx context.Context, id modelclaims.Identity, status string) ([]*modelledger.Submission, error) {
	if err := g.authorize(id, "ListSubmissions"); err != nil {
		return nil, err
	}
	s := modelledger.SubmissionStatus(status)
	if s != "" && s != modelledger.SubmissionPending && !s.Terminal() {
		return nil, &serviceErrors.InvalidArgumentError{Msg: "unknown submission status " + status}
	}
	return g.workflow.List(ctx, modelledger.SubmissionFilter{Status: s})
}

// ListWithdrawals returns withdrawals of every user, optionally by status.
func (g *Gateway) ListWithdrawals(ctx context.Context, id modelclaims.Identity, status string) ([]*modelledger.Transaction, error) {
	if err := g.authorize(id, "ListWithdrawals"); err != nil {
		return nil, err
	}
	s := modelledger.TransactionStatus(status)
	if s != "" && s != modelledger.TransactionPending && !s.Terminal() {
		return nil, &serviceErrors.InvalidArgumentError{Msg: "unknown transaction status " + status}
	}
	return g.wallet.ListWithdrawals(ctx, s)
}

// ListUsers returns every account.
func (g *Gateway) ListUsers(ctx context.Context, id modelclaims.Identity) ([]*modelledger.User, error) {
	if err := g.authorize(id, "ListUsers"); err != nil {
		return nil, err
	}
	users, err := g.users.ListUsers(ctx, modelledger.UserFilter{})
	if err != nil {
		return nil, serviceErrors.FromStorage(err)
	}
	return users, nil
}

// AuditUser recomputes one user's balance from history.
func (g *Gateway) AuditUser(ctx context.Context, id modelclaims.Identity, userID string) (*walletService.AuditReport, error) {
	if err := g.authorize(id, "AuditUser"); err != nil {
		return nil, err
	}
	if err := requireID("user id", userID); err != nil {
		return nil, err
	}
	return g.wallet.Audit(ctx, userID)
}

// ListTasks returns every task, including inactive ones.
func (g *Gateway) ListTasks(ctx context.Context, id modelclaims.Identity) ([]*modelledger.Task, error) {
	if err := g.authorize(id, "ListTasks"); err != nil {
		return nil, err
	}
	return g.catalog.ListAll(ctx)
}

// CreateTask adds a task to the catalog.
func (g *Gateway) CreateTask(ctx context.Context, id modelclaims.Identity, draft catalogService.Draft) (*modelledger.Task, error) {
	if err := g.authorize(id, "CreateTask"); err != nil {
		return nil, err
	}
	return g.catalog.Create(ctx, draft)
}

// UpdateTask changes a task; setting status inactive retires it.
func (g *Gateway) UpdateTask(ctx context.Context, id modelclaims.Identity, taskID string, patch catalogService.Patch) (*modelledger.Task, error) {
	if err := g.authorize(id, "UpdateTask"); err != nil {
		return nil, err
	}
	if err := requireID("task id", taskID); err != nil {
		return nil, err
	}
	return g.catalog.Update(ctx, taskID, patch)
}
