package processor

import (
	"context"

	"github.com/danilovkiri/dk-go-earnhub/internal/models/modelclaims"
	"github.com/danilovkiri/dk-go-earnhub/internal/models/modelledger"
	"github.com/danilovkiri/dk-go-earnhub/internal/service/processor/v1/processor"
	"github.com/shopspring/decimal"
)

type Processor interface {
	Register(ctx context.Context, registration processor.Registration) (string, *modelledger.User, error)
	Login(ctx context.Context, email, password string) (string, *modelledger.User, error)
	Authenticate(accessToken string) (modelclaims.Identity, error)
	Profile(ctx context.Context, userID string) (*modelledger.User, error)
	ListTasks(ctx context.Context) ([]*modelledger.Task, error)
	SubmitTask(ctx context.Context, userID, taskID, proof string) (*modelledger.Submission, error)
	ListSubmissions(ctx context.Context, userID string) ([]*modelledger.Submission, error)
	RequestWithdrawal(ctx context.Context, userID string, amount decimal.Decimal, method, details string) (*modelledger.Transaction, error)
	ListTransactions(ctx context.Context, userID string) ([]*modelledger.Transaction, error)
}
