package wallet

import (
	"context"

	"github.com/danilovkiri/dk-go-earnhub/internal/models/modelledger"
	"github.com/danilovkiri/dk-go-earnhub/internal/service/wallet/v1/wallet"
	"github.com/danilovkiri/dk-go-earnhub/internal/storage/v1"
	"github.com/shopspring/decimal"
)

// Crediter credits rewards inside a unit opened by the caller.
type Crediter interface {
	CreditInTx(ctx context.Context, tx storage.Tx, userID string, amount decimal.Decimal, submissionID string) (*modelledger.Transaction, error)
}

type Wallet interface {
	Crediter
	MinWithdrawal() decimal.Decimal
	Credit(ctx context.Context, userID string, amount decimal.Decimal, submissionID string) (*modelledger.Transaction, error)
	RequestWithdrawal(ctx context.Context, userID string, amount decimal.Decimal, method, details string) (*modelledger.Transaction, error)
	FinalizeWithdrawal(ctx context.Context, transactionID string, outcome modelledger.TransactionStatus) (*modelledger.Transaction, error)
	ListForUser(ctx context.Context, userID string) ([]*modelledger.Transaction, error)
	ListWithdrawals(ctx context.Context, status modelledger.TransactionStatus) ([]*modelledger.Transaction, error)
	Audit(ctx context.Context, userID string) (*wallet.AuditReport, error)
}
