// Package rest provides functionality for initializing a server.
package rest

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/danilovkiri/dk-go-earnhub/internal/api/rest/v1/handlers"
	"github.com/danilovkiri/dk-go-earnhub/internal/api/rest/v1/middleware"
	"github.com/danilovkiri/dk-go-earnhub/internal/config"
	"github.com/danilovkiri/dk-go-earnhub/internal/seed"
	"github.com/danilovkiri/dk-go-earnhub/internal/service/auditor/v1/auditor"
	"github.com/danilovkiri/dk-go-earnhub/internal/service/catalog/v1/catalog"
	"github.com/danilovkiri/dk-go-earnhub/internal/service/moderation/v1/moderation"
	"github.com/danilovkiri/dk-go-earnhub/internal/service/processor/v1/processor"
	"github.com/danilovkiri/dk-go-earnhub/internal/service/secretary/v1/secretary"
	"github.com/danilovkiri/dk-go-earnhub/internal/service/wallet/v1/wallet"
	"github.com/danilovkiri/dk-go-earnhub/internal/service/workflow/v1/workflow"
	"github.com/danilovkiri/dk-go-earnhub/internal/storage/v1"
	"github.com/danilovkiri/dk-go-earnhub/internal/storage/v1/inmemory"
	"github.com/danilovkiri/dk-go-earnhub/internal/storage/v1/inpsql"
	"github.com/danilovkiri/dk-go-earnhub/internal/storage/v1/insqlite"
	"github.com/danilovkiri/dk-go-earnhub/internal/storage/v1/retrying"
	"github.com/go-chi/chi"
	chimiddleware "github.com/go-chi/chi/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/hlog"
)

// openStorage selects the ledger backend named by the configuration.
func openStorage(ctx context.Context, cfg *config.StorageConfig, log *zerolog.Logger) (storage.Ledger, error) {
	switch cfg.Backend {
	case config.BackendPostgres:
		return inpsql.InitStorage(ctx, cfg, log)
	case config.BackendSQLite:
		return insqlite.InitStorage(ctx, cfg, log)
	case config.BackendMemory:
		return inmemory.InitStorage(log), nil
	}
	return nil, fmt.Errorf("unknown storage backend %q", cfg.Backend)
}

// InitServer returns a http.Server object ready to be listening and serving.
func InitServer(ctx context.Context, cfg *config.Config, log *zerolog.Logger, wg *sync.WaitGroup) (server *http.Server, err error) {
	// initialize secretary
	secretaryService, err := secretary.NewSecretaryService(cfg.SecretConfig)
	if err != nil {
		return nil, err
	}

	// initialize token handler
	tokenHandler, err := middleware.NewTokenHandler(secretaryService)
	if err != nil {
		return nil, err
	}

	// initialize storage
	st, err := openStorage(ctx, cfg.StorageConfig, log)
	if err != nil {
		return nil, err
	}
	ledger := retrying.Wrap(st, cfg.LedgerConfig, log)
	wg.Add(1)
	go func() {
		defer wg.Done()
		<-ctx.Done()
		if err := ledger.Close(); err != nil {
			log.Error().Err(err).Msg("storage close failed")
			return
		}
		log.Info().Msg("storage closed")
	}()

	// initialize ledger services
	walletService, err := wallet.InitService(ledger, cfg.LedgerConfig, log)
	if err != nil {
		return nil, err
	}
	catalogService, err := catalog.InitService(ledger, log)
	if err != nil {
		return nil, err
	}
	workflowService, err := workflow.InitService(ledger, walletService, log)
	if err != nil {
		return nil, err
	}
	mainService, err := processor.InitService(ledger, secretaryService, catalogService, workflowService, walletService, log)
	if err != nil {
		return nil, err
	}
	gateway, err := moderation.InitService(workflowService, walletService, catalogService, ledger, log)
	if err != nil {
		return nil, err
	}

	// apply seed data
	if cfg.SeedConfig.File != "" {
		f, err := seed.Load(cfg.SeedConfig.File)
		if err != nil {
			return nil, err
		}
		result, err := seed.NewSeeder(mainService, catalogService, walletService, log).Apply(ctx, f)
		if err != nil {
			return nil, err
		}
		log.Info().Int("users", result.UsersCreated).Int("tasks", result.TasksCreated).Msg("seed applied")
	}

	// initialize balance auditor
	if cfg.AuditConfig.Enabled {
		auditService, err := auditor.InitAuditor(walletService, ledger, cfg.AuditConfig, log)
		if err != nil {
			return nil, err
		}
		if err := auditService.Start(ctx); err != nil {
			return nil, err
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-ctx.Done()
			auditService.Stop()
		}()
	}

	// initialize handlers
	urlHandler, err := handlers.InitHandlers(mainService, gateway, cfg.ServerConfig, log)
	if err != nil {
		return nil, err
	}

	srv := &http.Server{
		Addr:         cfg.ServerConfig.ServerAddress,
		Handler:      NewRouter(urlHandler, tokenHandler, log),
		IdleTimeout:  60 * time.Second,
		ReadTimeout:  60 * time.Second,
		WriteTimeout: 60 * time.Second,
	}
	return srv, nil
}

// NewRouter sets routing for the API.
func NewRouter(urlHandler *handlers.Handler, tokenHandler *middleware.TokenHandler, log *zerolog.Logger) http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.Recoverer)
	r.Use(hlog.NewHandler(*log))
	r.Use(hlog.AccessHandler(func(r *http.Request, status, size int, duration time.Duration) {
		hlog.FromRequest(r).Info().
			Str("method", r.Method).
			Str("url", r.URL.Path).
			Int("status", status).
			Int("size", size).
			Dur("duration", duration).
			Msg("request served")
	}))
	r.Use(middleware.MetricsHandle)
	r.Use(chimiddleware.Compress(5))

	r.Get("/health", urlHandler.HandleHealth())
	r.Handle("/metrics", promhttp.Handler())

	loginGroup := r.Group(nil)
	mainGroup := r.Group(nil)
	mainGroup.Use(tokenHandler.TokenHandle) // token authentication is not used for login/register routes
	loginGroup.Post("/api/user/register", urlHandler.HandleRegister())
	loginGroup.Post("/api/user/login", urlHandler.HandleLogin())
	loginGroup.Get("/api/tasks", urlHandler.HandleListTasks())
	mainGroup.Get("/api/user/me", urlHandler.HandleProfile())
	mainGroup.Post("/api/user/submissions", urlHandler.HandleSubmitTask())
	mainGroup.Get("/api/user/submissions", urlHandler.HandleGetSubmissions())
	mainGroup.Post("/api/user/balance/withdraw", urlHandler.HandleNewWithdrawal())
	mainGroup.Get("/api/user/transactions", urlHandler.HandleGetTransactions())

	mainGroup.Route("/api/admin", func(r chi.Router) {
		r.Get("/submissions", urlHandler.HandleAdminSubmissions())
		r.Put("/submissions/{submissionID}", urlHandler.HandleReviewSubmission())
		r.Get("/withdrawals", urlHandler.HandleAdminWithdrawals())
		r.Put("/withdrawals/{transactionID}", urlHandler.HandleFinalizeWithdrawal())
		r.Get("/users", urlHandler.HandleAdminUsers())
		r.Get("/users/{userID}/audit", urlHandler.HandleAdminAudit())
		r.Get("/tasks", urlHandler.HandleAdminTasks())
		r.Post("/tasks", urlHandler.HandleCreateTask())
		r.Put("/tasks/{taskID}", urlHandler.HandleUpdateTask())
		r.Delete("/tasks/{taskID}", urlHandler.HandleDeactivateTask())
	})
	return r
}
