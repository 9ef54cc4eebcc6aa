// Package catalog maintains the tasks users can claim rewards for.
package catalog

import (
	"context"
	"strings"

	"github.com/danilovkiri/dk-go-earnhub/internal/models/modelledger"
	serviceErrors "github.com/danilovkiri/dk-go-earnhub/internal/service/errors"
	"github.com/danilovkiri/dk-go-earnhub/internal/storage/v1"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// Catalog defines attributes of a struct available to its methods.
type Catalog struct {
	ledger storage.Ledger
	log    *zerolog.Logger
}

// Draft describes a new task.
type Draft struct {
	Title        string
	Description  string
	Category     string
	Requirements string
	Reward       decimal.Decimal
}

// Patch changes the fields that are set. Deactivating a task is the way to
// retire it; tasks are never deleted.
type Patch struct {
	Title        *string
	Description  *string
	Category     *string
	Requirements *string
	Reward       *decimal.Decimal
	Status       *modelledger.TaskStatus
}

// InitService initializes the catalog service.
func InitService(ledger storage.Ledger, log *zerolog.Logger) (*Catalog, error) {
	if ledger == nil {
		return nil, &serviceErrors.ServiceFoundNilArgument{Msg: "nil ledger was passed to catalog initializer"}
	}
	return &Catalog{ledger: ledger, log: log}, nil
}

func validReward(reward decimal.Decimal) error {
	if !reward.IsPositive() || !modelledger.IsMoney(reward) {
		return &serviceErrors.InvalidArgumentError{Msg: "reward must be a positive amount with at most 2 decimal places"}
	}
	if !modelledger.InRange(reward) {
		return &serviceErrors.InvalidArgumentError{Msg: "reward is too large"}
	}
	return nil
}

// GetTask returns a task in any status.
func (c *Catalog) GetTask(ctx context.Context, id string) (*modelledger.Task, error) {
	task, err := c.ledger.GetTask(ctx, id)
	if err != nil {
		return nil, serviceErrors.FromStorage(err)
	}
	return task, nil
}

// ListActive returns the tasks open for submissions.
func (c *Catalog) ListActive(ctx context.Context) ([]*modelledger.Task, error) {
	tasks, err := c.ledger.ListTasks(ctx, modelledger.TaskFilter{Status: modelledger.TaskActive})
	if err != nil {
		return nil, serviceErrors.FromStorage(err)
	}
	return tasks, nil
}

// ListAll returns every task.
func (c *Catalog) ListAll(ctx context.Context) ([]*modelledger.Task, error) {
	tasks, err := c.ledger.ListTasks(ctx, modelledger.TaskFilter{})
	if err != nil {
		return nil, serviceErrors.FromStorage(err)
	}
	return tasks, nil
}

// Create adds an active task.
func (c *Catalog) Create(ctx context.Context, draft Draft) (*modelledger.Task, error) {
	title := strings.TrimSpace(draft.Title)
	if title == "" {
		return nil, &serviceErrors.InvalidArgumentError{Msg: "task title is required"}
	}
	if err := validReward(draft.Reward); err != nil {
		return nil, err
	}
	task := &modelledger.Task{
		ID:           uuid.New().String(),
		Title:        title,
		Description:  draft.Description,
		Category:     draft.Category,
		Requirements: draft.Requirements,
		Reward:       draft.Reward,
		Status:       modelledger.TaskActive,
		CreatedAt:    modelledger.Now(),
	}
	err := c.ledger.AtomicUpdate(ctx, func(ctx context.Context, tx storage.Tx) error {
		return tx.InsertTask(ctx, task)
	})
	if err != nil {
		c.log.Error().Err(err).Msg("task creation failed")
		return nil, serviceErrors.FromStorage(err)
	}
	c.log.Info().Str("task", task.ID).Msg("task creation done")
	return task, nil
}

// Update applies patch to the task. Pending submissions keep the reward they
// were created with.
func (c *Catalog) Update(ctx context.Context, id string, patch Patch) (*modelledger.Task, error) {
	if patch.Title != nil && strings.TrimSpace(*patch.Title) == "" {
		return nil, &serviceErrors.InvalidArgumentError{Msg: "task title must not be empty"}
	}
	if patch.Reward != nil {
		if err := validReward(*patch.Reward); err != nil {
			return nil, err
		}
	}
	if patch.Status != nil && *patch.Status != modelledger.TaskActive && *patch.Status != modelledger.TaskInactive {
		return nil, &serviceErrors.InvalidArgumentError{Msg: "task status must be active or inactive"}
	}
	var task *modelledger.Task
	err := c.ledger.AtomicUpdate(ctx, func(ctx context.Context, tx storage.Tx) error {
		var err error
		task, err = tx.GetTask(ctx, id)
		if err != nil {
			return err
		}
		if patch.Title != nil {
			task.Title = strings.TrimSpace(*patch.Title)
		}
		if patch.Description != nil {
			task.Description = *patch.Description
		}
		if patch.Category != nil {
			task.Category = *patch.Category
		}
		if patch.Requirements != nil {
			task.Requirements = *patch.Requirements
		}
		if patch.Reward != nil {
			task.Reward = *patch.Reward
		}
		if patch.Status != nil {
			task.Status = *patch.Status
		}
		return tx.UpdateTask(ctx, task)
	})
	if err != nil {
		c.log.Error().Err(err).Str("task", id).Msg("task update failed")
		return nil, serviceErrors.FromStorage(err)
	}
	c.log.Info().Str("task", id).Msg("task update done")
	return task, nil
}
