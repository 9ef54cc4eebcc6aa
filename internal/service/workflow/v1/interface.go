package workflow

import (
	"context"

	"github.com/danilovkiri/dk-go-earnhub/internal/models/modelledger"
)

type Workflow interface {
	Submit(ctx context.Context, userID, taskID, proof string) (*modelledger.Submission, error)
	Review(ctx context.Context, submissionID string, decision modelledger.SubmissionStatus, note string) (*modelledger.Submission, error)
	ListForUser(ctx context.Context, userID string) ([]*modelledger.Submission, error)
	List(ctx context.Context, filter modelledger.SubmissionFilter) ([]*modelledger.Submission, error)
}
