package moderation

import (
	"context"
	"errors"
	"testing"

	"github.com/danilovkiri/dk-go-earnhub/internal/models/modelclaims"
	"github.com/danilovkiri/dk-go-earnhub/internal/models/modelledger"
	"github.com/danilovkiri/dk-go-earnhub/internal/service/catalog/v1/catalog"
	serviceErrors "github.com/danilovkiri/dk-go-earnhub/internal/service/errors"
	"github.com/danilovkiri/dk-go-earnhub/internal/service/servicetest"
	"github.com/danilovkiri/dk-go-earnhub/internal/service/wallet/v1/wallet"
	"github.com/danilovkiri/dk-go-earnhub/internal/service/workflow/v1/workflow"
	"github.com/danilovkiri/dk-go-earnhub/internal/storage/v1"
	"github.com/danilovkiri/dk-go-earnhub/internal/storage/v1/inmemory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	admin  = modelclaims.Identity{UserID: "a1", IsAdmin: true}
	member = modelclaims.Identity{UserID: "u1"}
)

type fixture struct {
	ledger storage.Ledger
	wf     *workflow.Workflow
	wallet *wallet.Wallet
	g      *Gateway
}

func newFixture(t *testing.T) *fixture {
	ledger := inmemory.InitStorage(servicetest.Logger())
	w, err := wallet.InitService(ledger, servicetest.LedgerConfig(), servicetest.Logger())
	require.NoError(t, err)
	wf, err := workflow.InitService(ledger, w, servicetest.Logger())
	require.NoError(t, err)
	c, err := catalog.InitService(ledger, servicetest.Logger())
	require.NoError(t, err)
	g, err := InitService(wf, w, c, ledger, servicetest.Logger())
	require.NoError(t, err)
	servicetest.AddUser(t, ledger, "u1")
	servicetest.AddTask(t, ledger, "t1", "75")
	return &fixture{ledger: ledger, wf: wf, wallet: w, g: g}
}

func TestInitService_NilArguments(t *testing.T) {
	_, err := InitService(nil, nil, nil, nil, servicetest.Logger())
	var nilArgument *serviceErrors.ServiceFoundNilArgument
	assert.True(t, errors.As(err, &nilArgument))
}

func TestForbiddenForMembers(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	s, err := f.wf.Submit(ctx, "u1", "t1", "proof")
	require.NoError(t, err)

	var forbidden *serviceErrors.ForbiddenError
	_, err = f.g.ReviewSubmission(ctx, member, s.ID, "approved", "")
	assert.True(t, errors.As(err, &forbidden))
	_, err = f.g.FinalizeWithdrawal(ctx, member, "x", "completed")
	assert.True(t, errors.As(err, &forbidden))
	_, err = f.g.ListSubmissions(ctx, member, "")
	assert.True(t, errors.As(err, &forbidden))
	_, err = f.g.ListWithdrawals(ctx, member, "")
	assert.True(t, errors.As(err, &forbidden))
	_, err = f.g.ListUsers(ctx, member)
	assert.True(t, errors.As(err, &forbidden))
	_, err = f.g.ListTasks(ctx, member)
	assert.True(t, errors.As(err, &forbidden))
	_, err = f.g.CreateTask(ctx, member, catalog.Draft{Title: "x", Reward: servicetest.Amount("1")})
	assert.True(t, errors.As(err, &forbidden))
	_, err = f.g.AuditUser(ctx, member, "u1")
	assert.True(t, errors.As(err, &forbidden))

	// nothing moved
	assert.True(t, servicetest.Balance(t, f.ledger, "u1").IsZero())
	stored, err := f.ledger.GetSubmission(ctx, s.ID)
	require.NoError(t, err)
	assert.Equal(t, modelledger.SubmissionPending, stored.Status)
}

func TestMalformedPayloads(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	var invalid *serviceErrors.InvalidArgumentError

	_, err := f.g.ReviewSubmission(ctx, admin, "s1", "maybe", "")
	assert.True(t, errors.As(err, &invalid))
	_, err = f.g.ReviewSubmission(ctx, admin, "", "approved", "")
	assert.True(t, errors.As(err, &invalid))
	_, err = f.g.FinalizeWithdrawal(ctx, admin, "x1", "pending")
	assert.True(t, errors.As(err, &invalid))
	_, err = f.g.ListSubmissions(ctx, admin, "lost")
	assert.True(t, errors.As(err, &invalid))
	_, err = f.g.ListWithdrawals(ctx, admin, "lost")
	assert.True(t, errors.As(err, &invalid))
}

func TestAdminFlow(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	s, err := f.wf.Submit(ctx, "u1", "t1", "proof")
	require.NoError(t, err)
	pending, err := f.g.ListSubmissions(ctx, admin, "pending")
	require.NoError(t, err)
	require.Len(t, pending, 1)

	s, err = f.g.ReviewSubmission(ctx, admin, s.ID, "approved", "Great work!")
	require.NoError(t, err)
	assert.Equal(t, modelledger.SubmissionApproved, s.Status)

	x, err := f.wallet.RequestWithdrawal(ctx, "u1", servicetest.Amount("50"), wallet.MethodUPI, "yourname@upi")
	require.NoError(t, err)
	withdrawals, err := f.g.ListWithdrawals(ctx, admin, "pending")
	require.NoError(t, err)
	require.Len(t, withdrawals, 1)

	x, err = f.g.FinalizeWithdrawal(ctx, admin, x.ID, "completed")
	require.NoError(t, err)
	assert.Equal(t, modelledger.TransactionCompleted, x.Status)

	report, err := f.g.AuditUser(ctx, admin, "u1")
	require.NoError(t, err)
	assert.True(t, report.Consistent)
	assert.True(t, report.Recorded.Equal(servicetest.Amount("25")))

	users, err := f.g.ListUsers(ctx, admin)
	require.NoError(t, err)
	assert.Len(t, users, 1)

	task, err := f.g.CreateTask(ctx, admin, catalog.Draft{Title: "Watch Product Video", Reward: servicetest.Amount("15")})
	require.NoError(t, err)
	inactive := modelledger.TaskInactive
	_, err = f.g.UpdateTask(ctx, admin, task.ID, catalog.Patch{Status: &inactive})
	require.NoError(t, err)
	tasks, err := f.g.ListTasks(ctx, admin)
	require.NoError(t, err)
	assert.Len(t, tasks, 2)
}
