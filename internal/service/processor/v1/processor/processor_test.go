package processor

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/danilovkiri/dk-go-earnhub/internal/config"
	"github.com/danilovkiri/dk-go-earnhub/internal/models/modelledger"
	"github.com/danilovkiri/dk-go-earnhub/internal/service/catalog/v1/catalog"
	serviceErrors "github.com/danilovkiri/dk-go-earnhub/internal/service/errors"
	"github.com/danilovkiri/dk-go-earnhub/internal/service/secretary/v1/secretary"
	"github.com/danilovkiri/dk-go-earnhub/internal/service/servicetest"
	"github.com/danilovkiri/dk-go-earnhub/internal/service/wallet/v1/wallet"
	"github.com/danilovkiri/dk-go-earnhub/internal/service/workflow/v1/workflow"
	storageErrors "github.com/danilovkiri/dk-go-earnhub/internal/storage/v1/errors"
	"github.com/danilovkiri/dk-go-earnhub/internal/storage/v1/inmemory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newProcessor(t *testing.T) *Processor {
	ledger := inmemory.InitStorage(servicetest.Logger())
	sec, err := secretary.NewSecretaryService(&config.SecretConfig{SecretKey: "k", TokenTTL: time.Minute})
	require.NoError(t, err)
	w, err := wallet.InitService(ledger, servicetest.LedgerConfig(), servicetest.Logger())
	require.NoError(t, err)
	wf, err := workflow.InitService(ledger, w, servicetest.Logger())
	require.NoError(t, err)
	c, err := catalog.InitService(ledger, servicetest.Logger())
	require.NoError(t, err)
	proc, err := InitService(ledger, sec, c, wf, w, servicetest.Logger())
	require.NoError(t, err)
	return proc
}

func TestInitService_NilArguments(t *testing.T) {
	_, err := InitService(nil, nil, nil, nil, nil, servicetest.Logger())
	var nilArgument *serviceErrors.ServiceFoundNilArgument
	assert.True(t, errors.As(err, &nilArgument))
}

func TestRegisterLogin(t *testing.T) {
	ctx := context.Background()
	proc := newProcessor(t)

	token, user, err := proc.Register(ctx, Registration{Name: "Demo User", Email: " User@Demo.com ", Password: "password123"})
	require.NoError(t, err)
	assert.Equal(t, "user@demo.com", user.Email)
	assert.Equal(t, modelledger.RoleUser, user.Role)

	id, err := proc.Authenticate(token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, id.UserID)
	assert.False(t, id.IsAdmin)

	_, _, err = proc.Register(ctx, Registration{Name: "Again", Email: "user@demo.com", Password: "password123"})
	var alreadyExists *storageErrors.AlreadyExistsError
	assert.True(t, errors.As(err, &alreadyExists))

	_, logged, err := proc.Login(ctx, "user@demo.com", "password123")
	require.NoError(t, err)
	assert.Equal(t, user.ID, logged.ID)

	var unauthorized *serviceErrors.UnauthorizedError
	_, _, err = proc.Login(ctx, "user@demo.com", "wrong-password")
	assert.True(t, errors.As(err, &unauthorized))
	_, _, err = proc.Login(ctx, "nobody@demo.com", "password123")
	assert.True(t, errors.As(err, &unauthorized))
	_, err = proc.Authenticate("garbage")
	assert.True(t, errors.As(err, &unauthorized))
}

func TestRegister_Invalid(t *testing.T) {
	ctx := context.Background()
	proc := newProcessor(t)
	var invalid *serviceErrors.InvalidArgumentError

	_, _, err := proc.Register(ctx, Registration{Name: "", Email: "a@b.com", Password: "password123"})
	assert.True(t, errors.As(err, &invalid))
	_, _, err = proc.Register(ctx, Registration{Name: "A", Email: "not-an-email", Password: "password123"})
	assert.True(t, errors.As(err, &invalid))
	_, _, err = proc.Register(ctx, Registration{Name: "A", Email: "a@b.com", Password: "123"})
	assert.True(t, errors.As(err, &invalid))
}

func TestUserJourney(t *testing.T) {
	ctx := context.Background()
	proc := newProcessor(t)
	_, user, err := proc.Register(ctx, Registration{Name: "Demo", Email: "demo@example.com", Password: "password123"})
	require.NoError(t, err)
	admin, err := proc.CreateAccount(ctx, Registration{Name: "Admin", Email: "admin@example.com", Password: "admin123"}, modelledger.RoleAdmin)
	require.NoError(t, err)
	assert.True(t, admin.IsAdmin())

	task, err := proc.catalog.Create(ctx, catalog.Draft{Title: "Survey", Reward: servicetest.Amount("50")})
	require.NoError(t, err)
	tasks, err := proc.ListTasks(ctx)
	require.NoError(t, err)
	require.Len(t, tasks, 1)

	var invalid *serviceErrors.InvalidArgumentError
	_, err = proc.SubmitTask(ctx, user.ID, "", "proof")
	assert.True(t, errors.As(err, &invalid))

	s, err := proc.SubmitTask(ctx, user.ID, task.ID, "confirmation code 1234")
	require.NoError(t, err)
	_, err = proc.workflow.Review(ctx, s.ID, modelledger.SubmissionApproved, "")
	require.NoError(t, err)

	_, err = proc.RequestWithdrawal(ctx, user.ID, servicetest.Amount("20"), " UPI ", "demo@upi")
	require.NoError(t, err)

	profile, err := proc.Profile(ctx, user.ID)
	require.NoError(t, err)
	assert.True(t, profile.WalletBalance.Equal(servicetest.Amount("30")))
	assert.Equal(t, 1, profile.TasksCompleted)

	submissions, err := proc.ListSubmissions(ctx, user.ID)
	require.NoError(t, err)
	assert.Len(t, submissions, 1)
	transactions, err := proc.ListTransactions(ctx, user.ID)
	require.NoError(t, err)
	assert.Len(t, transactions, 2)
}
