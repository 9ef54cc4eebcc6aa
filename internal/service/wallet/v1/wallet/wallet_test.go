package wallet

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/danilovkiri/dk-go-earnhub/internal/models/modelledger"
	serviceErrors "github.com/danilovkiri/dk-go-earnhub/internal/service/errors"
	"github.com/danilovkiri/dk-go-earnhub/internal/service/servicetest"
	"github.com/danilovkiri/dk-go-earnhub/internal/storage/v1"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newWallet(t *testing.T, ledger storage.Ledger) *Wallet {
	w, err := InitService(ledger, servicetest.LedgerConfig(), servicetest.Logger())
	require.NoError(t, err)
	return w
}

func assertAudited(t *testing.T, w *Wallet, userID string) {
	t.Helper()
	report, err := w.Audit(context.Background(), userID)
	require.NoError(t, err)
	assert.True(t, report.Consistent, "recorded %s, expected %s", report.Recorded, report.Expected)
}

func TestInitService_NilArguments(t *testing.T) {
	_, err := InitService(nil, servicetest.LedgerConfig(), servicetest.Logger())
	var nilArgument *serviceErrors.ServiceFoundNilArgument
	assert.True(t, errors.As(err, &nilArgument))
}

func TestValidatePayout(t *testing.T) {
	tests := []struct {
		method  string
		details string
		valid   bool
	}{
		{MethodUPI, "yourname@upi", true},
		{MethodUPI, "yourname", false},
		{MethodBank, "123456789012", true},
		{MethodBank, "12ab", false},
		{MethodPaytm, "9876543210", true},
		{MethodPaytm, "12345", false},
		{MethodCard, "4561 2612 1234 5467", true},
		{MethodCard, "4561 2612 1234 5464", false},
		{"cash", "anything", false},
		{MethodUPI, "   ", false},
	}
	for _, tt := range tests {
		t.Run(tt.method+"/"+tt.details, func(t *testing.T) {
			err := ValidatePayout(tt.method, tt.details)
			if tt.valid {
				assert.NoError(t, err)
				return
			}
			var invalid *serviceErrors.InvalidArgumentError
			assert.True(t, errors.As(err, &invalid))
		})
	}
}

func TestWallet(t *testing.T) {
	for _, backend := range servicetest.Backends() {
		backend := backend
		t.Run(backend.Name, func(t *testing.T) {
			t.Run("Credit", func(t *testing.T) { testCredit(t, backend.New(t)) })
			t.Run("WithdrawAndReject", func(t *testing.T) { testWithdrawAndReject(t, backend.New(t)) })
			t.Run("WithdrawAndComplete", func(t *testing.T) { testWithdrawAndComplete(t, backend.New(t)) })
			t.Run("InsufficientBalance", func(t *testing.T) { testInsufficientBalance(t, backend.New(t)) })
			t.Run("RequestValidation", func(t *testing.T) { testRequestValidation(t, backend.New(t)) })
			t.Run("FinalizeErrors", func(t *testing.T) { testFinalizeErrors(t, backend.New(t)) })
			t.Run("NoOverWithdrawal", func(t *testing.T) { testNoOverWithdrawal(t, backend.New(t)) })
			t.Run("BalanceLimit", func(t *testing.T) { testBalanceLimit(t, backend.New(t)) })
		})
	}
}

func testCredit(t *testing.T, ledger storage.Ledger) {
	ctx := context.Background()
	w := newWallet(t, ledger)
	servicetest.AddUser(t, ledger, "u1")

	x, err := w.Credit(ctx, "u1", servicetest.Amount("12.34"), "")
	require.NoError(t, err)
	assert.Equal(t, modelledger.TransactionEarning, x.Type)
	assert.Equal(t, modelledger.TransactionCompleted, x.Status)
	assert.True(t, servicetest.Balance(t, ledger, "u1").Equal(servicetest.Amount("12.34")))

	for _, bad := range []string{"0", "-1", "0.001"} {
		_, err = w.Credit(ctx, "u1", servicetest.Amount(bad), "")
		var invalid *serviceErrors.InvalidArgumentError
		assert.True(t, errors.As(err, &invalid), bad)
	}

	_, err = w.Credit(ctx, "ghost", servicetest.Amount("1"), "")
	var notFound *serviceErrors.NotFoundError
	assert.True(t, errors.As(err, &notFound))

	user, err := ledger.GetUser(ctx, "u1")
	require.NoError(t, err)
	assert.Zero(t, user.TasksCompleted)
	assertAudited(t, w, "u1")
}

func testBalanceLimit(t *testing.T, ledger storage.Ledger) {
	ctx := context.Background()
	w := newWallet(t, ledger)
	servicetest.AddUser(t, ledger, "u1")
	var invalid *serviceErrors.InvalidArgumentError

	_, err := w.Credit(ctx, "u1", modelledger.MaxMoney.Add(servicetest.Amount("0.01")), "")
	assert.True(t, errors.As(err, &invalid))

	_, err = w.Credit(ctx, "u1", modelledger.MaxMoney, "")
	require.NoError(t, err)
	assert.True(t, servicetest.Balance(t, ledger, "u1").Equal(modelledger.MaxMoney))

	_, err = w.Credit(ctx, "u1", servicetest.Amount("0.01"), "")
	assert.True(t, errors.As(err, &invalid))
	assert.True(t, servicetest.Balance(t, ledger, "u1").Equal(modelledger.MaxMoney))

	txs, err := w.ListForUser(ctx, "u1")
	require.NoError(t, err)
	assert.Len(t, txs, 1)
}

func testWithdrawAndReject(t *testing.T, ledger storage.Ledger) {
	ctx := context.Background()
	w := newWallet(t, ledger)
	servicetest.AddUser(t, ledger, "u1")
	_, err := w.Credit(ctx, "u1", servicetest.Amount("75"), "")
	require.NoError(t, err)

	x, err := w.RequestWithdrawal(ctx, "u1", servicetest.Amount("50.00"), MethodUPI, "yourname@upi")
	require.NoError(t, err)
	assert.Equal(t, modelledger.TransactionPending, x.Status)
	assert.True(t, servicetest.Balance(t, ledger, "u1").Equal(servicetest.Amount("25.00")))
	assertAudited(t, w, "u1")

	x, err = w.FinalizeWithdrawal(ctx, x.ID, modelledger.TransactionRejected)
	require.NoError(t, err)
	assert.Equal(t, modelledger.TransactionRejected, x.Status)
	require.NotNil(t, x.FinalizedAt)
	assert.True(t, servicetest.Balance(t, ledger, "u1").Equal(servicetest.Amount("75.00")))
	assertAudited(t, w, "u1")

	withdrawals, err := w.ListWithdrawals(ctx, modelledger.TransactionRejected)
	require.NoError(t, err)
	assert.Len(t, withdrawals, 1)
}

func testWithdrawAndComplete(t *testing.T, ledger storage.Ledger) {
	ctx := context.Background()
	w := newWallet(t, ledger)
	servicetest.AddUser(t, ledger, "u1")
	_, err := w.Credit(ctx, "u1", servicetest.Amount("100"), "")
	require.NoError(t, err)

	x, err := w.RequestWithdrawal(ctx, "u1", servicetest.Amount("40"), MethodBank, "123456789012")
	require.NoError(t, err)
	_, err = w.FinalizeWithdrawal(ctx, x.ID, modelledger.TransactionCompleted)
	require.NoError(t, err)
	assert.True(t, servicetest.Balance(t, ledger, "u1").Equal(servicetest.Amount("60")))

	// a finalized withdrawal stays finalized
	_, err = w.FinalizeWithdrawal(ctx, x.ID, modelledger.TransactionRejected)
	var conflict *serviceErrors.ConflictError
	require.True(t, errors.As(err, &conflict))
	assert.Equal(t, serviceErrors.ReasonAlreadyFinalized, conflict.Reason)
	assert.True(t, servicetest.Balance(t, ledger, "u1").Equal(servicetest.Amount("60")))

	transactions, err := w.ListForUser(ctx, "u1")
	require.NoError(t, err)
	assert.Len(t, transactions, 2)
	assertAudited(t, w, "u1")
}

func testInsufficientBalance(t *testing.T, ledger storage.Ledger) {
	ctx := context.Background()
	w := newWallet(t, ledger)
	servicetest.AddUser(t, ledger, "u1")
	_, err := w.Credit(ctx, "u1", servicetest.Amount("30"), "")
	require.NoError(t, err)

	_, err = w.RequestWithdrawal(ctx, "u1", servicetest.Amount("50.00"), MethodUPI, "yourname@upi")
	var insufficient *serviceErrors.InsufficientBalanceError
	require.True(t, errors.As(err, &insufficient))
	assert.True(t, insufficient.Available.Equal(servicetest.Amount("30")))
	assert.True(t, servicetest.Balance(t, ledger, "u1").Equal(servicetest.Amount("30")))

	transactions, err := w.ListForUser(ctx, "u1")
	require.NoError(t, err)
	assert.Len(t, transactions, 1)
}

func testRequestValidation(t *testing.T, ledger storage.Ledger) {
	ctx := context.Background()
	w := newWallet(t, ledger)
	servicetest.AddUser(t, ledger, "u1")
	_, err := w.Credit(ctx, "u1", servicetest.Amount("500"), "")
	require.NoError(t, err)

	var invalid *serviceErrors.InvalidArgumentError
	_, err = w.RequestWithdrawal(ctx, "u1", servicetest.Amount("0"), MethodUPI, "yourname@upi")
	assert.True(t, errors.As(err, &invalid))
	_, err = w.RequestWithdrawal(ctx, "u1", servicetest.Amount("20.005"), MethodUPI, "yourname@upi")
	assert.True(t, errors.As(err, &invalid))
	_, err = w.RequestWithdrawal(ctx, "u1", servicetest.Amount("20"), "cash", "x")
	assert.True(t, errors.As(err, &invalid))

	_, err = w.RequestWithdrawal(ctx, "u1", servicetest.Amount("9.99"), MethodUPI, "yourname@upi")
	var below *serviceErrors.BelowMinimumError
	assert.True(t, errors.As(err, &below))

	assert.True(t, servicetest.Balance(t, ledger, "u1").Equal(servicetest.Amount("500")))
}

func testFinalizeErrors(t *testing.T, ledger storage.Ledger) {
	ctx := context.Background()
	w := newWallet(t, ledger)
	servicetest.AddUser(t, ledger, "u1")
	earning, err := w.Credit(ctx, "u1", servicetest.Amount("20"), "")
	require.NoError(t, err)

	var notFound *serviceErrors.NotFoundError
	_, err = w.FinalizeWithdrawal(ctx, "missing", modelledger.TransactionCompleted)
	assert.True(t, errors.As(err, &notFound))

	var invalid *serviceErrors.InvalidArgumentError
	_, err = w.FinalizeWithdrawal(ctx, earning.ID, modelledger.TransactionRejected)
	assert.True(t, errors.As(err, &invalid))
	_, err = w.FinalizeWithdrawal(ctx, earning.ID, modelledger.TransactionPending)
	assert.True(t, errors.As(err, &invalid))

	assert.True(t, servicetest.Balance(t, ledger, "u1").Equal(servicetest.Amount("20")))
}

func testNoOverWithdrawal(t *testing.T, ledger storage.Ledger) {
	ctx := context.Background()
	w := newWallet(t, ledger)
	servicetest.AddUser(t, ledger, "u1")
	_, err := w.Credit(ctx, "u1", servicetest.Amount("150"), "")
	require.NoError(t, err)

	const requests = 6
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
	)
	for i := 0; i < requests; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := w.RequestWithdrawal(ctx, "u1", servicetest.Amount("100"), MethodUPI, "yourname@upi")
			var insufficient *serviceErrors.InsufficientBalanceError
			if err != nil && !errors.As(err, &insufficient) {
				t.Errorf("unexpected error: %v", err)
			}
			if err == nil {
				mu.Lock()
				succeeded++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, succeeded)
	assert.True(t, servicetest.Balance(t, ledger, "u1").Equal(servicetest.Amount("50")))
	assertAudited(t, w, "u1")
}
