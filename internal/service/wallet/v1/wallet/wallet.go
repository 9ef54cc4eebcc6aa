// Package wallet owns every mutation of a user's balance: reward credits,
// withdrawal requests and their finalization.
package wallet

import (
	"context"
	"errors"
	"regexp"
	"strings"

	"github.com/ShiraazMoollatjie/goluhn"
	"github.com/danilovkiri/dk-go-earnhub/internal/config"
	"github.com/danilovkiri/dk-go-earnhub/internal/metrics"
	"github.com/danilovkiri/dk-go-earnhub/internal/models/modelledger"
	serviceErrors "github.com/danilovkiri/dk-go-earnhub/internal/service/errors"
	"github.com/danilovkiri/dk-go-earnhub/internal/storage/v1"
	"github.com/danilovkiri/dk-go-earnhub/internal/tracing"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
)

// Payout methods accepted for withdrawals.
const (
	MethodUPI   = "upi"
	MethodBank  = "bank"
	MethodPaytm = "paytm"
	MethodCard  = "card"
)

var (
	upiPattern   = regexp.MustCompile(`^[a-zA-Z0-9.\-_]{2,256}@[a-zA-Z]{2,64}$`)
	bankPattern  = regexp.MustCompile(`^[0-9]{9,18}$`)
	paytmPattern = regexp.MustCompile(`^[6-9][0-9]{9}$`)
)

// Wallet defines attributes of a struct available to its methods.
type Wallet struct {
	ledger        storage.Ledger
	minWithdrawal decimal.Decimal
	log           *zerolog.Logger
}

// AuditReport compares a recorded balance with the one implied by history.
type AuditReport struct {
	UserID     string
	Recorded   decimal.Decimal
	Expected   decimal.Decimal
	Earned     decimal.Decimal
	Withdrawn  decimal.Decimal
	Consistent bool
}

// InitService initializes the wallet service.
func InitService(ledger storage.Ledger, cfg *config.LedgerConfig, log *zerolog.Logger) (*Wallet, error) {
	if ledger == nil {
		return nil, &serviceErrors.ServiceFoundNilArgument{Msg: "nil ledger was passed to wallet initializer"}
	}
	if cfg == nil {
		return nil, &serviceErrors.ServiceFoundNilArgument{Msg: "nil ledger config was passed to wallet initializer"}
	}
	return &Wallet{ledger: ledger, minWithdrawal: cfg.MinWithdrawal, log: log}, nil
}

// MinWithdrawal returns the configured withdrawal floor.
func (w *Wallet) MinWithdrawal() decimal.Decimal {
	return w.minWithdrawal
}

func validAmount(amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return &serviceErrors.InvalidArgumentError{Msg: "amount must be positive"}
	}
	if !modelledger.IsMoney(amount) {
		return &serviceErrors.InvalidArgumentError{Msg: "amount must have at most 2 decimal places"}
	}
	if !modelledger.InRange(amount) {
		return &serviceErrors.InvalidArgumentError{Msg: "amount is too large"}
	}
	return nil
}

// ValidatePayout checks payout details against the chosen method.
func ValidatePayout(method, details string) error {
	details = strings.TrimSpace(details)
	if details == "" {
		return &serviceErrors.InvalidArgumentError{Msg: "payout details are required"}
	}
	var ok bool
	switch method {
	case MethodUPI:
		ok = upiPattern.MatchString(details)
	case MethodBank:
		ok = bankPattern.MatchString(details)
	case MethodPaytm:
		ok = paytmPattern.MatchString(details)
	case MethodCard:
		ok = goluhn.Validate(strings.ReplaceAll(details, " ", "")) == nil
	default:
		return &serviceErrors.InvalidArgumentError{Msg: "unknown payout method " + method}
	}
	if !ok {
		return &serviceErrors.InvalidArgumentError{Msg: "payout details do not match method " + method}
	}
	return nil
}

// Credit adds amount to the user's balance and records a completed earning.
func (w *Wallet) Credit(ctx context.Context, userID string, amount decimal.Decimal, submissionID string) (transaction *modelledger.Transaction, err error) {
	ctx, span := tracing.Start(ctx, "wallet.Credit", attribute.String("user.id", userID))
	defer func() { tracing.End(span, err) }()

	if err := validAmount(amount); err != nil {
		return nil, err
	}
	err = w.ledger.AtomicUpdate(ctx, func(ctx context.Context, tx storage.Tx) error {
		var err error
		transaction, err = w.CreditInTx(ctx, tx, userID, amount, submissionID)
		return err
	})
	if err != nil {
		w.log.Error().Err(err).Str("user", userID).Msg("credit failed")
		return nil, serviceErrors.FromStorage(err)
	}
	w.log.Info().Str("user", userID).Str("amount", amount.StringFixed(2)).Msg("credit done")
	return transaction, nil
}

// CreditInTx is Credit inside a unit the caller already opened. A credit that
// references a submission also counts one more completed task.
func (w *Wallet) CreditInTx(ctx context.Context, tx storage.Tx, userID string, amount decimal.Decimal, submissionID string) (*modelledger.Transaction, error) {
	if err := validAmount(amount); err != nil {
		return nil, err
	}
	user, err := tx.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	balance := user.WalletBalance.Add(amount)
	if !modelledger.InRange(balance) {
		return nil, &serviceErrors.InvalidArgumentError{Msg: "credit would overflow the wallet balance"}
	}
	now := modelledger.Now()
	user.WalletBalance = balance
	if submissionID != "" {
		user.TasksCompleted++
	}
	if err := tx.UpdateUser(ctx, user); err != nil {
		return nil, err
	}
	transaction := &modelledger.Transaction{
		ID:           uuid.New().String(),
		UserID:       userID,
		Type:         modelledger.TransactionEarning,
		Amount:       amount,
		Status:       modelledger.TransactionCompleted,
		SubmissionID: submissionID,
		CreatedAt:    now,
		FinalizedAt:  &now,
	}
	if err := tx.InsertTransaction(ctx, transaction); err != nil {
		return nil, err
	}
	metrics.CreditedCentsTotal.Add(float64(modelledger.ToCents(amount)))
	return transaction, nil
}

// RequestWithdrawal debits amount and records a pending withdrawal.
func (w *Wallet) RequestWithdrawal(ctx context.Context, userID string, amount decimal.Decimal, method, details string) (transaction *modelledger.Transaction, err error) {
	ctx, span := tracing.Start(ctx, "wallet.RequestWithdrawal", attribute.String("user.id", userID), attribute.String("method", method))
	defer func() { tracing.End(span, err) }()

	if err := validAmount(amount); err != nil {
		metrics.WithdrawalsTotal.WithLabelValues("request", "invalid").Inc()
		return nil, err
	}
	if err := ValidatePayout(method, details); err != nil {
		metrics.WithdrawalsTotal.WithLabelValues("request", "invalid").Inc()
		return nil, err
	}
	if amount.LessThan(w.minWithdrawal) {
		metrics.WithdrawalsTotal.WithLabelValues("request", "below_minimum").Inc()
		return nil, &serviceErrors.BelowMinimumError{Minimum: w.minWithdrawal, Requested: amount}
	}
	err = w.ledger.AtomicUpdate(ctx, func(ctx context.Context, tx storage.Tx) error {
		user, err := tx.GetUser(ctx, userID)
		if err != nil {
			return err
		}
		if amount.GreaterThan(user.WalletBalance) {
			return &serviceErrors.InsufficientBalanceError{Available: user.WalletBalance, Requested: amount}
		}
		user.WalletBalance = user.WalletBalance.Sub(amount)
		if err := tx.UpdateUser(ctx, user); err != nil {
			return err
		}
		transaction = &modelledger.Transaction{
			ID:        uuid.New().String(),
			UserID:    userID,
			Type:      modelledger.TransactionWithdrawal,
			Amount:    amount,
			Status:    modelledger.TransactionPending,
			Method:    method,
			Details:   strings.TrimSpace(details),
			CreatedAt: modelledger.Now(),
		}
		return tx.InsertTransaction(ctx, transaction)
	})
	if err != nil {
		var insufficient *serviceErrors.InsufficientBalanceError
		if errors.As(err, &insufficient) {
			metrics.WithdrawalsTotal.WithLabelValues("request", "insufficient_balance").Inc()
		}
		w.log.Error().Err(err).Str("user", userID).Msg("withdrawal request failed")
		return nil, serviceErrors.FromStorage(err)
	}
	metrics.WithdrawalsTotal.WithLabelValues("request", "accepted").Inc()
	w.log.Info().Str("user", userID).Str("transaction", transaction.ID).Str("amount", amount.StringFixed(2)).Msg("withdrawal request done")
	return transaction, nil
}

// FinalizeWithdrawal moves a pending withdrawal to completed or rejected.
// Rejection returns the amount to the user's balance.
func (w *Wallet) FinalizeWithdrawal(ctx context.Context, transactionID string, outcome modelledger.TransactionStatus) (transaction *modelledger.Transaction, err error) {
	ctx, span := tracing.Start(ctx, "wallet.FinalizeWithdrawal", attribute.String("transaction.id", transactionID), attribute.String("outcome", string(outcome)))
	defer func() { tracing.End(span, err) }()

	if outcome != modelledger.TransactionCompleted && outcome != modelledger.TransactionRejected {
		return nil, &serviceErrors.InvalidArgumentError{Msg: "outcome must be completed or rejected"}
	}
	// the owner never changes, so it is safe to learn it before locking
	current, err := w.ledger.GetTransaction(ctx, transactionID)
	if err != nil {
		return nil, serviceErrors.FromStorage(err)
	}
	if current.Type != modelledger.TransactionWithdrawal {
		return nil, &serviceErrors.InvalidArgumentError{Msg: "transaction " + transactionID + " is not a withdrawal"}
	}
	err = w.ledger.AtomicUpdate(ctx, func(ctx context.Context, tx storage.Tx) error {
		user, err := tx.GetUser(ctx, current.UserID)
		if err != nil {
			return err
		}
		transaction, err = tx.GetTransaction(ctx, transactionID)
		if err != nil {
			return err
		}
		if transaction.Status != modelledger.TransactionPending {
			return &serviceErrors.ConflictError{Reason: serviceErrors.ReasonAlreadyFinalized, ID: transactionID}
		}
		if outcome == modelledger.TransactionRejected {
			user.WalletBalance = user.WalletBalance.Add(transaction.Amount)
			if err := tx.UpdateUser(ctx, user); err != nil {
				return err
			}
		}
		now := modelledger.Now()
		transaction.Status = outcome
		transaction.FinalizedAt = &now
		return tx.UpdateTransaction(ctx, transaction)
	})
	if err != nil {
		w.log.Error().Err(err).Str("transaction", transactionID).Msg("withdrawal finalization failed")
		return nil, serviceErrors.FromStorage(err)
	}
	metrics.WithdrawalsTotal.WithLabelValues("finalize", string(outcome)).Inc()
	w.log.Info().Str("transaction", transactionID).Str("outcome", string(outcome)).Msg("withdrawal finalization done")
	return transaction, nil
}

// ListForUser returns the user's transactions, oldest first.
func (w *Wallet) ListForUser(ctx context.Context, userID string) ([]*modelledger.Transaction, error) {
	transactions, err := w.ledger.ListTransactions(ctx, modelledger.TransactionFilter{UserID: userID})
	if err != nil {
		return nil, serviceErrors.FromStorage(err)
	}
	return transactions, nil
}

// ListWithdrawals returns withdrawals of every user, optionally by status.
func (w *Wallet) ListWithdrawals(ctx context.Context, status modelledger.TransactionStatus) ([]*modelledger.Transaction, error) {
	transactions, err := w.ledger.ListTransactions(ctx, modelledger.TransactionFilter{Type: modelledger.TransactionWithdrawal, Status: status})
	if err != nil {
		return nil, serviceErrors.FromStorage(err)
	}
	return transactions, nil
}

// Audit recomputes the user's balance from the transaction history while
// holding the user's lock.
func (w *Wallet) Audit(ctx context.Context, userID string) (report *AuditReport, err error) {
	ctx, span := tracing.Start(ctx, "wallet.Audit", attribute.String("user.id", userID))
	defer func() { tracing.End(span, err) }()

	err = w.ledger.AtomicUpdate(ctx, func(ctx context.Context, tx storage.Tx) error {
		user, err := tx.GetUser(ctx, userID)
		if err != nil {
			return err
		}
		transactions, err := tx.ListTransactions(ctx, modelledger.TransactionFilter{UserID: userID})
		if err != nil {
			return err
		}
		report = Reconcile(user, transactions)
		return nil
	})
	if err != nil {
		return nil, serviceErrors.FromStorage(err)
	}
	return report, nil
}

// Reconcile computes the balance implied by transactions: completed earnings
// minus pending and completed withdrawals.
func Reconcile(user *modelledger.User, transactions []*modelledger.Transaction) *AuditReport {
	report := &AuditReport{UserID: user.ID, Recorded: user.WalletBalance, Earned: decimal.Zero, Withdrawn: decimal.Zero}
	for _, t := range transactions {
		switch {
		case t.Type == modelledger.TransactionEarning && t.Status == modelledger.TransactionCompleted:
			report.Earned = report.Earned.Add(t.Amount)
		case t.Type == modelledger.TransactionWithdrawal && t.Status != modelledger.TransactionRejected:
			report.Withdrawn = report.Withdrawn.Add(t.Amount)
		}
	}
	report.Expected = report.Earned.Sub(report.Withdrawn)
	report.Consistent = report.Expected.Equal(report.Recorded)
	return report
}
