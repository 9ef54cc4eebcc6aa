// Package auditor periodically recomputes every balance from its history.
package auditor

import (
	"context"
	"sync/atomic"

	"github.com/danilovkiri/dk-go-earnhub/internal/config"
	"github.com/danilovkiri/dk-go-earnhub/internal/metrics"
	"github.com/danilovkiri/dk-go-earnhub/internal/models/modelledger"
	serviceErrors "github.com/danilovkiri/dk-go-earnhub/internal/service/errors"
	"github.com/danilovkiri/dk-go-earnhub/internal/service/wallet/v1/wallet"
	"github.com/danilovkiri/dk-go-earnhub/internal/storage/v1"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// Auditable recomputes one user's balance.
type Auditable interface {
	Audit(ctx context.Context, userID string) (*wallet.AuditReport, error)
}

// Auditor defines attributes of a struct available to its methods.
type Auditor struct {
	wallet   Auditable
	users    storage.Reader
	cron     *cron.Cron
	schedule string
	workers  int
	log      *zerolog.Logger
}

// Summary is the outcome of one audit pass.
type Summary struct {
	Audited    int
	Mismatched []*wallet.AuditReport
}

// InitAuditor initializes an auditor; the schedule is validated here.
func InitAuditor(w Auditable, users storage.Reader, cfg *config.AuditConfig, log *zerolog.Logger) (*Auditor, error) {
	if w == nil || users == nil {
		return nil, &serviceErrors.ServiceFoundNilArgument{Msg: "nil dependency was passed to auditor initializer"}
	}
	if _, err := cron.ParseStandard(cfg.Schedule); err != nil {
		return nil, &serviceErrors.InvalidArgumentError{Msg: "invalid audit schedule: " + err.Error()}
	}
	workers := cfg.Workers
	if workers <= 0 {
		workers = 1
	}
	return &Auditor{
		wallet:   w,
		users:    users,
		cron:     cron.New(),
		schedule: cfg.Schedule,
		workers:  workers,
		log:      log,
	}, nil
}

// Start schedules RunOnce until ctx is cancelled or Stop is called.
func (a *Auditor) Start(ctx context.Context) error {
	_, err := a.cron.AddFunc(a.schedule, func() {
		if _, err := a.RunOnce(ctx); err != nil {
			a.log.Error().Err(err).Msg("balance audit failed")
		}
	})
	if err != nil {
		return err
	}
	a.cron.Start()
	a.log.Info().Str("schedule", a.schedule).Msg("balance audit scheduled")
	return nil
}

// Stop waits for a running pass to finish.
func (a *Auditor) Stop() {
	<-a.cron.Stop().Done()
	a.log.Info().Msg("balance audit stopped")
}

// RunOnce audits every user with a pool of workers.
func (a *Auditor) RunOnce(ctx context.Context) (*Summary, error) {
	users, err := a.users.ListUsers(ctx, modelledger.UserFilter{})
	if err != nil {
		return nil, serviceErrors.FromStorage(err)
	}

	reports := make([]*wallet.AuditReport, len(users))
	indexes := make(chan int)
	var audited int64
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		defer close(indexes)
		for i := range users {
			select {
			case indexes <- i:
			case <-gctx.Done():
				return gctx.Err()
			}
		}
		return nil
	})
	for i := 0; i < a.workers; i++ {
		g.Go(func() error {
			for idx := range indexes {
				report, err := a.wallet.Audit(gctx, users[idx].ID)
				if err != nil {
					return err
				}
				reports[idx] = report
				atomic.AddInt64(&audited, 1)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	summary := &Summary{Audited: int(audited)}
	for _, report := range reports {
		if !report.Consistent {
			summary.Mismatched = append(summary.Mismatched, report)
			a.log.Warn().
				Str("user", report.UserID).
				Str("recorded", report.Recorded.StringFixed(2)).
				Str("expected", report.Expected.StringFixed(2)).
				Msg("balance mismatch detected")
		}
	}
	metrics.AuditMismatchedUsers.Set(float64(len(summary.Mismatched)))
	metrics.AuditRunsTotal.Inc()
	a.log.Info().Int("users", summary.Audited).Int("mismatched", len(summary.Mismatched)).Msg("balance audit done")
	return summary, nil
}
