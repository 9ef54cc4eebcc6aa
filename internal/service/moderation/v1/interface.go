package moderation

import (
	"context"

	"github.com/danilovkiri/dk-go-earnhub/internal/models/modelclaims"
	"github.com/danilovkiri/dk-go-earnhub/internal/models/modelledger"
	"github.com/danilovkiri/dk-go-earnhub/internal/service/catalog/v1/catalog"
	"github.com/danilovkiri/dk-go-earnhub/internal/service/wallet/v1/wallet"
)

type Moderation interface {
	ReviewSubmission(ctx context.Context, id modelclaims.Identity, submissionID, decision, note string) (*modelledger.Submission, error)
	FinalizeWithdrawal(ctx context.Context, id modelclaims.Identity, transactionID, outcome string) (*modelledger.Transaction, error)
	ListSubmissions(ctx context.Context, id modelclaims.Identity, status string) ([]*modelledger.Submission, error)
	ListWithdrawals(ctx context.Context, id modelclaims.Identity, status string) ([]*modelledger.Transaction, error)
	ListUsers(ctx context.Context, id modelclaims.Identity) ([]*modelledger.User, error)
	AuditUser(ctx context.Context, id modelclaims.Identity, userID string) (*wallet.AuditReport, error)
	ListTasks(ctx context.Context, id modelclaims.Identity) ([]*modelledger.Task, error)
	CreateTask(ctx context.Context, id modelclaims.Identity, draft catalog.Draft) (*modelledger.Task, error)
	UpdateTask(ctx context.Context, id modelclaims.Identity, taskID string, patch catalog.Patch) (*modelledger.Task, error)
}
