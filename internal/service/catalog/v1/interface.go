package catalog

import (
	"context"

	"github.com/danilovkiri/dk-go-earnhub/internal/models/modelledger"
	"github.com/danilovkiri/dk-go-earnhub/internal/service/catalog/v1/catalog"
)

type Catalog interface {
	GetTask(ctx context.Context, id string) (*modelledger.Task, error)
	ListActive(ctx context.Context) ([]*modelledger.Task, error)
	ListAll(ctx context.Context) ([]*modelledger.Task, error)
	Create(ctx context.Context, draft catalog.Draft) (*modelledger.Task, error)
	Update(ctx context.Context, id string, patch catalog.Patch) (*modelledger.Task, error)
}
