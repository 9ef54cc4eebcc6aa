// Package workflow drives submissions from pending to a terminal decision.
package workflow

import (
	"context"
	"errors"
	"strings"

	"github.com/danilovkiri/dk-go-earnhub/internal/metrics"
	"github.com/danilovkiri/dk-go-earnhub/internal/models/modelledger"
	serviceErrors "github.com/danilovkiri/dk-go-earnhub/internal/service/errors"
	"github.com/danilovkiri/dk-go-earnhub/internal/service/wallet/v1"
	"github.com/danilovkiri/dk-go-earnhub/internal/storage/v1"
	storageErrors "github.com/danilovkiri/dk-go-earnhub/internal/storage/v1/errors"
	"github.com/danilovkiri/dk-go-earnhub/internal/tracing"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"
)

// Workflow defines attributes of a struct available to its methods.
type Workflow struct {
	ledger storage.Ledger
	wallet wallet.Crediter
	log    *zerolog.Logger
}

// InitService initializes the submission workflow.
func InitService(ledger storage.Ledger, crediter wallet.Crediter, log *zerolog.Logger) (*Workflow, error) {
	if ledger == nil {
		return nil, &serviceErrors.ServiceFoundNilArgument{Msg: "nil ledger was passed to workflow initializer"}
	}
	if crediter == nil {
		return nil, &serviceErrors.ServiceFoundNilArgument{Msg: "nil wallet was passed to workflow initializer"}
	}
	return &Workflow{ledger: ledger, wallet: crediter, log: log}, nil
}

// Submit records a pending claim of the task's reward.
func (wf *Workflow) Submit(ctx context.Context, userID, taskID, proof string) (submission *modelledger.Submission, err error) {
	ctx, span := tracing.Start(ctx, "workflow.Submit", attribute.String("user.id", userID), attribute.String("task.id", taskID))
	defer func() { tracing.End(span, err) }()

	proof = strings.TrimSpace(proof)
	if proof == "" {
		return nil, &serviceErrors.InvalidArgumentError{Msg: "proof is required"}
	}
	err = wf.ledger.AtomicUpdate(ctx, func(ctx context.Context, tx storage.Tx) error {
		// the user row serializes concurrent submits of the same user
		if _, err := tx.GetUser(ctx, userID); err != nil {
			return err
		}
		task, err := tx.GetTask(ctx, taskID)
		var notFoundError *storageErrors.NotFoundError
		if errors.As(err, &notFoundError) || (err == nil && task.Status != modelledger.TaskActive) {
			return &serviceErrors.NotFoundError{Entity: "task", ID: taskID}
		}
		if err != nil {
			return err
		}
		pending, err := tx.ListSubmissions(ctx, modelledger.SubmissionFilter{UserID: userID, TaskID: taskID, Status: modelledger.SubmissionPending})
		if err != nil {
			return err
		}
		if len(pending) > 0 {
			return &serviceErrors.ConflictError{Reason: serviceErrors.ReasonDuplicatePending, ID: pending[0].ID}
		}
		submission = &modelledger.Submission{
			ID:        uuid.New().String(),
			UserID:    userID,
			TaskID:    taskID,
			TaskTitle: task.Title,
			Proof:     proof,
			Reward:    task.Reward,
			Status:    modelledger.SubmissionPending,
			CreatedAt: modelledger.Now(),
		}
		err = tx.InsertSubmission(ctx, submission)
		var alreadyExistsError *storageErrors.AlreadyExistsError
		if errors.As(err, &alreadyExistsError) {
			return &serviceErrors.ConflictError{Reason: serviceErrors.ReasonDuplicatePending, ID: submission.ID}
		}
		return err
	})
	if err != nil {
		metrics.SubmissionsTotal.WithLabelValues(outcome(err)).Inc()
		wf.log.Error().Err(err).Str("user", userID).Str("task", taskID).Msg("submission failed")
		return nil, serviceErrors.FromStorage(err)
	}
	metrics.SubmissionsTotal.WithLabelValues("created").Inc()
	wf.log.Info().Str("user", userID).Str("submission", submission.ID).Msg("submission done")
	return submission, nil
}

// Review decides a pending submission. Approval credits the frozen reward in
// the same unit that records the decision.
func (wf *Workflow) Review(ctx context.Context, submissionID string, decision modelledger.SubmissionStatus, note string) (submission *modelledger.Submission, err error) {
	ctx, span := tracing.Start(ctx, "workflow.Review", attribute.String("submission.id", submissionID), attribute.String("decision", string(decision)))
	defer func() { tracing.End(span, err) }()

	if !decision.Terminal() {
		return nil, &serviceErrors.InvalidArgumentError{Msg: "decision must be approved or rejected"}
	}
	// the owner never changes, so it is safe to learn it before locking
	current, err := wf.ledger.GetSubmission(ctx, submissionID)
	if err != nil {
		return nil, serviceErrors.FromStorage(err)
	}
	err = wf.ledger.AtomicUpdate(ctx, func(ctx context.Context, tx storage.Tx) error {
		if _, err := tx.GetUser(ctx, current.UserID); err != nil {
			return err
		}
		submission, err = tx.GetSubmission(ctx, submissionID)
		if err != nil {
			return err
		}
		if submission.Status != modelledger.SubmissionPending {
			return &serviceErrors.ConflictError{Reason: serviceErrors.ReasonAlreadyReviewed, ID: submissionID}
		}
		now := modelledger.Now()
		submission.Status = decision
		submission.AdminNote = note
		submission.ReviewedAt = &now
		if err := tx.UpdateSubmission(ctx, submission); err != nil {
			return err
		}
		if decision == modelledger.SubmissionApproved {
			_, err := wf.wallet.CreditInTx(ctx, tx, submission.UserID, submission.Reward, submission.ID)
			return err
		}
		return nil
	})
	if err != nil {
		metrics.ReviewsTotal.WithLabelValues(outcome(err)).Inc()
		wf.log.Error().Err(err).Str("submission", submissionID).Msg("review failed")
		return nil, serviceErrors.FromStorage(err)
	}
	metrics.ReviewsTotal.WithLabelValues(string(decision)).Inc()
	wf.log.Info().Str("submission", submissionID).Str("decision", string(decision)).Msg("review done")
	return submission, nil
}

// ListForUser returns the user's submissions, oldest first.
func (wf *Workflow) ListForUser(ctx context.Context, userID string) ([]*modelledger.Submission, error) {
	return wf.List(ctx, modelledger.SubmissionFilter{UserID: userID})
}

// List returns submissions matching filter, oldest first.
func (wf *Workflow) List(ctx context.Context, filter modelledger.SubmissionFilter) ([]*modelledger.Submission, error) {
	submissions, err := wf.ledger.ListSubmissions(ctx, filter)
	if err != nil {
		return nil, serviceErrors.FromStorage(err)
	}
	return submissions, nil
}

func outcome(err error) string {
	var conflictError *serviceErrors.ConflictError
	var notFoundError *serviceErrors.NotFoundError
	switch {
	case errors.As(err, &conflictError):
		return string(conflictError.Reason)
	case errors.As(err, &notFoundError):
		return "not_found"
	}
	return "error"
}
