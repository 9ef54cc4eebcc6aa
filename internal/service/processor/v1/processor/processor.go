// Package processor provides intermediary layer functionality between the
// ledger services and API endpoint handlers.

package processor

import (
	"context"
	"errors"
	"net/mail"
	"strings"

	"github.com/danilovkiri/dk-go-earnhub/internal/models/modelclaims"
	"github.com/danilovkiri/dk-go-earnhub/internal/models/modelledger"
	"github.com/danilovkiri/dk-go-earnhub/internal/service/catalog/v1"
	serviceErrors "github.com/danilovkiri/dk-go-earnhub/internal/service/errors"
	"github.com/danilovkiri/dk-go-earnhub/internal/service/secretary/v1"
	"github.com/danilovkiri/dk-go-earnhub/internal/service/wallet/v1"
	"github.com/danilovkiri/dk-go-earnhub/internal/service/workflow/v1"
	"github.com/danilovkiri/dk-go-earnhub/internal/storage/v1"
	storageErrors "github.com/danilovkiri/dk-go-earnhub/internal/storage/v1/errors"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

const minPasswordLength = 6

// Processor defines attributes of a struct available to its methods.
type Processor struct {
	ledger    storage.Ledger
	secretary secretary.Secretary
	catalog   catalog.Catalog
	workflow  workflow.Workflow
	wallet    wallet.Wallet
	log       *zerolog.Logger
}

// Registration carries new account details.
type Registration struct {
	Name     string
	Email    string
	Password string
}

// InitService initializes an intermediary service for data processing.
func InitService(st storage.Ledger, sec secretary.Secretary, c catalog.Catalog, wf workflow.Workflow, w wallet.Wallet, log *zerolog.Logger) (*Processor, error) {
	if st == nil {
		return nil, &serviceErrors.ServiceFoundNilArgument{Msg: "nil storage was passed to service initializer"}
	}
	if sec == nil {
		return nil, &serviceErrors.ServiceFoundNilArgument{Msg: "nil secretary was passed to service initializer"}
	}
	if c == nil || wf == nil || w == nil {
		return nil, &serviceErrors.ServiceFoundNilArgument{Msg: "nil ledger service was passed to service initializer"}
	}
	return &Processor{
		ledger:    st,
		secretary: sec,
		catalog:   c,
		workflow:  wf,
		wallet:    w,
		log:       log,
	}, nil
}

func normalizeEmail(email string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return "", &serviceErrors.InvalidArgumentError{Msg: "invalid email address"}
	}
	return email, nil
}

// CreateAccount stores a new account with the given role.
func (proc *Processor) CreateAccount(ctx context.Context, registration Registration, role modelledger.Role) (*modelledger.User, error) {
	name := strings.TrimSpace(registration.Name)
	if name == "" {
		return nil, &serviceErrors.InvalidArgumentError{Msg: "name is required"}
	}
	email, err := normalizeEmail(registration.Email)
	if err != nil {
		return nil, err
	}
	if len(registration.Password) < minPasswordLength {
		return nil, &serviceErrors.InvalidArgumentError{Msg: "password is too short"}
	}
	hash, err := proc.secretary.HashPassword(registration.Password)
	if err != nil {
		return nil, err
	}
	user := &modelledger.User{
		ID:            uuid.New().String(),
		Name:          name,
		Email:         email,
		PasswordHash:  hash,
		Role:          role,
		WalletBalance: decimal.Zero,
		CreatedAt:     modelledger.Now(),
	}
	err = proc.ledger.AtomicUpdate(ctx, func(ctx context.Context, tx storage.Tx) error {
		return tx.InsertUser(ctx, user)
	})
	if err != nil {
		return nil, serviceErrors.FromStorage(err)
	}
	proc.log.Info().Str("user", user.ID).Str("role", string(role)).Msg("account creation done")
	return user, nil
}

// Register creates a regular account and returns a token for it.
func (proc *Processor) Register(ctx context.Context, registration Registration) (string, *modelledger.User, error) {
	user, err := proc.CreateAccount(ctx, registration, modelledger.RoleUser)
	if err != nil {
		return "", nil, err
	}
	accessToken, err := proc.secretary.NewToken(user.ID, user.Role)
	if err != nil {
		return "", nil, err
	}
	return accessToken, user, nil
}

// Login checks credentials and returns a token.
func (proc *Processor) Login(ctx context.Context, email, password string) (string, *modelledger.User, error) {
	user, err := proc.ledger.GetUserByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	var notFoundError *storageErrors.NotFoundError
	if errors.As(err, &notFoundError) {
		return "", nil, &serviceErrors.UnauthorizedError{Msg: "invalid credentials"}
	}
	if err != nil {
		return "", nil, serviceErrors.FromStorage(err)
	}
	if err := proc.secretary.ComparePassword(user.PasswordHash, password); err != nil {
		return "", nil, &serviceErrors.UnauthorizedError{Msg: "invalid credentials"}
	}
	accessToken, err := proc.secretary.NewToken(user.ID, user.Role)
	if err != nil {
		return "", nil, err
	}
	return accessToken, user, nil
}

// Authenticate resolves a bearer token into the caller's identity.
func (proc *Processor) Authenticate(accessToken string) (modelclaims.Identity, error) {
	id, err := proc.secretary.ValidateToken(accessToken)
	if err != nil {
		return modelclaims.Identity{}, &serviceErrors.UnauthorizedError{Msg: err.Error()}
	}
	return id, nil
}

// Profile returns the caller's account.
func (proc *Processor) Profile(ctx context.Context, userID string) (*modelledger.User, error) {
	user, err := proc.ledger.GetUser(ctx, userID)
	if err != nil {
		return nil, serviceErrors.FromStorage(err)
	}
	return user, nil
}

// ListTasks returns the tasks open for submissions.
func (proc *Processor) ListTasks(ctx context.Context) ([]*modelledger.Task, error) {
	return proc.catalog.ListActive(ctx)
}

// SubmitTask claims a task reward.
func (proc *Processor) SubmitTask(ctx context.Context, userID, taskID, proof string) (*modelledger.Submission, error) {
	if strings.TrimSpace(taskID) == "" {
		return nil, &serviceErrors.InvalidArgumentError{Msg: "task id is required"}
	}
	return proc.workflow.Submit(ctx, userID, taskID, proof)
}

// ListSubmissions returns the caller's submissions.
func (proc *Processor) ListSubmissions(ctx context.Context, userID string) ([]*modelledger.Submission, error) {
	return proc.workflow.ListForUser(ctx, userID)
}

// RequestWithdrawal moves funds out of the caller's wallet pending approval.
func (proc *Processor) RequestWithdrawal(ctx context.Context, userID string, amount decimal.Decimal, method, details string) (*modelledger.Transaction, error) {
	return proc.wallet.RequestWithdrawal(ctx, userID, amount, strings.ToLower(strings.TrimSpace(method)), details)
}

// ListTransactions returns the caller's transactions.
func (proc *Processor) ListTransactions(ctx context.Context, userID string) ([]*modelledger.Transaction, error) {
	return proc.wallet.ListForUser(ctx, userID)
}
