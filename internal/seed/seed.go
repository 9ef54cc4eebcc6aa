// Package seed loads demo accounts and tasks from a TOML file.
package seed

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/danilovkiri/dk-go-earnhub/internal/models/modelledger"
	"github.com/danilovkiri/dk-go-earnhub/internal/service/catalog/v1/catalog"
	"github.com/danilovkiri/dk-go-earnhub/internal/service/processor/v1/processor"
	storageErrors "github.com/danilovkiri/dk-go-earnhub/internal/storage/v1/errors"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// File is the seed document. Amounts are quoted decimal strings.
type File struct {
	Users []User `toml:"users"`
	Tasks []Task `toml:"tasks"`
}

type User struct {
	Name           string `toml:"name"`
	Email          string `toml:"email"`
	Password       string `toml:"password"`
	Role           string `toml:"role"`
	OpeningBalance string `toml:"opening_balance"`
}

type Task struct {
	Title        string `toml:"title"`
	Description  string `toml:"description"`
	Category     string `toml:"category"`
	Requirements string `toml:"requirements"`
	Reward       string `toml:"reward"`
}

// Result counts what a seed pass created.
type Result struct {
	UsersCreated int
	TasksCreated int
}

type accounts interface {
	CreateAccount(ctx context.Context, registration processor.Registration, role modelledger.Role) (*modelledger.User, error)
}

type tasks interface {
	ListAll(ctx context.Context) ([]*modelledger.Task, error)
	Create(ctx context.Context, draft catalog.Draft) (*modelledger.Task, error)
}

type crediter interface {
	Credit(ctx context.Context, userID string, amount decimal.Decimal, submissionID string) (*modelledger.Transaction, error)
}

// Seeder defines attributes of a struct available to its methods.
type Seeder struct {
	accounts accounts
	tasks    tasks
	wallet   crediter
	log      *zerolog.Logger
}

// Load parses the seed file at path, rejecting unknown keys.
func Load(path string) (*File, error) {
	var f File
	md, err := toml.DecodeFile(path, &f)
	if err != nil {
		return nil, err
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return nil, fmt.Errorf("unknown seed keys: %v", undecoded)
	}
	return &f, nil
}

// NewSeeder wires the services a seed pass goes through.
func NewSeeder(a accounts, t tasks, w crediter, log *zerolog.Logger) *Seeder {
	return &Seeder{accounts: a, tasks: t, wallet: w, log: log}
}

// Apply creates what f describes. Existing e-mails and task titles are
// skipped, so applying the same file twice is harmless.
func (s *Seeder) Apply(ctx context.Context, f *File) (*Result, error) {
	result := &Result{}
	for _, u := range f.Users {
		role := modelledger.Role(strings.ToLower(u.Role))
		if role == "" {
			role = modelledger.RoleUser
		}
		if role != modelledger.RoleUser && role != modelledger.RoleAdmin {
			return nil, fmt.Errorf("seed user %s: unknown role %q", u.Email, u.Role)
		}
		user, err := s.accounts.CreateAccount(ctx, processor.Registration{Name: u.Name, Email: u.Email, Password: u.Password}, role)
		var alreadyExistsError *storageErrors.AlreadyExistsError
		if errors.As(err, &alreadyExistsError) {
			s.log.Debug().Str("email", u.Email).Msg("seed user exists, skipped")
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("seed user %s: %w", u.Email, err)
		}
		result.UsersCreated++
		if u.OpeningBalance == "" {
			continue
		}
		amount, err := decimal.NewFromString(u.OpeningBalance)
		if err != nil {
			return nil, fmt.Errorf("seed user %s: %w", u.Email, err)
		}
		if amount.IsZero() {
			continue
		}
		if _, err := s.wallet.Credit(ctx, user.ID, amount, ""); err != nil {
			return nil, fmt.Errorf("seed user %s: %w", u.Email, err)
		}
	}

	existing, err := s.tasks.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	titles := make(map[string]bool, len(existing))
	for _, t := range existing {
		titles[t.Title] = true
	}
	for _, t := range f.Tasks {
		if titles[strings.TrimSpace(t.Title)] {
			continue
		}
		reward, err := decimal.NewFromString(t.Reward)
		if err != nil {
			return nil, fmt.Errorf("seed task %q: %w", t.Title, err)
		}
		created, err := s.tasks.Create(ctx, catalog.Draft{
			Title:        t.Title,
			Description:  t.Description,
			Category:     t.Category,
			Requirements: t.Requirements,
			Reward:       reward,
		})
		if err != nil {
			return nil, fmt.Errorf("seed task %q: %w", t.Title, err)
		}
		titles[created.Title] = true
		result.TasksCreated++
	}
	s.log.Info().Int("users", result.UsersCreated).Int("tasks", result.TasksCreated).Msg("seed done")
	return result, nil
}
