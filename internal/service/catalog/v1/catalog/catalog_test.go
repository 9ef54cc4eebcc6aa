package catalog

import (
	"context"
	"errors"
	"testing"

	"github.com/danilovkiri/dk-go-earnhub/internal/models/modelledger"
	serviceErrors "github.com/danilovkiri/dk-go-earnhub/internal/service/errors"
	"github.com/danilovkiri/dk-go-earnhub/internal/service/servicetest"
	"github.com/danilovkiri/dk-go-earnhub/internal/storage/v1/inmemory"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newCatalog(t *testing.T) *Catalog {
	c, err := InitService(inmemory.InitStorage(servicetest.Logger()), servicetest.Logger())
	require.NoError(t, err)
	return c
}

func TestCreateAndList(t *testing.T) {
	ctx := context.Background()
	c := newCatalog(t)

	task, err := c.Create(ctx, Draft{Title: " Follow us on Instagram ", Category: "Social Media", Reward: servicetest.Amount("25")})
	require.NoError(t, err)
	assert.Equal(t, "Follow us on Instagram", task.Title)
	assert.Equal(t, modelledger.TaskActive, task.Status)

	got, err := c.GetTask(ctx, task.ID)
	require.NoError(t, err)
	assert.Equal(t, task.Title, got.Title)

	inactive := modelledger.TaskInactive
	_, err = c.Update(ctx, task.ID, Patch{Status: &inactive})
	require.NoError(t, err)

	active, err := c.ListActive(ctx)
	require.NoError(t, err)
	assert.Empty(t, active)
	all, err := c.ListAll(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestCreate_Invalid(t *testing.T) {
	ctx := context.Background()
	c := newCatalog(t)
	var invalid *serviceErrors.InvalidArgumentError

	_, err := c.Create(ctx, Draft{Title: "", Reward: servicetest.Amount("1")})
	assert.True(t, errors.As(err, &invalid))
	_, err = c.Create(ctx, Draft{Title: "x", Reward: decimal.Zero})
	assert.True(t, errors.As(err, &invalid))
	_, err = c.Create(ctx, Draft{Title: "x", Reward: servicetest.Amount("1.234")})
	assert.True(t, errors.As(err, &invalid))
}

func TestUpdate(t *testing.T) {
	ctx := context.Background()
	c := newCatalog(t)
	task, err := c.Create(ctx, Draft{Title: "Survey", Reward: servicetest.Amount("50")})
	require.NoError(t, err)

	title := "Customer Survey"
	reward := servicetest.Amount("60")
	updated, err := c.Update(ctx, task.ID, Patch{Title: &title, Reward: &reward})
	require.NoError(t, err)
	assert.Equal(t, title, updated.Title)
	assert.True(t, updated.Reward.Equal(reward))

	var notFound *serviceErrors.NotFoundError
	_, err = c.Update(ctx, "missing", Patch{Title: &title})
	assert.True(t, errors.As(err, &notFound))

	var invalid *serviceErrors.InvalidArgumentError
	bogus := modelledger.TaskStatus("archived")
	_, err = c.Update(ctx, task.ID, Patch{Status: &bogus})
	assert.True(t, errors.As(err, &invalid))
	empty := " "
	_, err = c.Update(ctx, task.ID, Patch{Title: &empty})
	assert.True(t, errors.As(err, &invalid))
}

func TestRewardLimit(t *testing.T) {
	for _, backend := range servicetest.Backends() {
		backend := backend
		t.Run(backend.Name, func(t *testing.T) {
			ctx := context.Background()
			c, err := InitService(backend.New(t), servicetest.Logger())
			require.NoError(t, err)

			task, err := c.Create(ctx, Draft{Title: "Jackpot", Reward: modelledger.MaxMoney})
			require.NoError(t, err)
			got, err := c.GetTask(ctx, task.ID)
			require.NoError(t, err)
			assert.True(t, got.Reward.Equal(modelledger.MaxMoney), got.Reward.String())

			var invalid *serviceErrors.InvalidArgumentError
			over := modelledger.MaxMoney.Add(servicetest.Amount("0.01"))
			_, err = c.Create(ctx, Draft{Title: "Overflow", Reward: over})
			assert.True(t, errors.As(err, &invalid))
			_, err = c.Update(ctx, task.ID, Patch{Reward: &over})
			assert.True(t, errors.As(err, &invalid))
		})
	}
}
