package targets

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	jsonclient "github.com/ben-hur-snyk/snyk-scripts/json"
	"github.com/ben-hur-snyk/snyk-scripts/snyk"
	"github.com/ben-hur-snyk/snyk-scripts/types"
)

const (
	TargetsFileName           = "targets.json"
	SuccessfulTargetsFileName = "successful_targets.json"
	FailedTargetsFileName     = "failed_targets.json"
)

var ErrTargetsFailed = errors.New("one or more targets could not be deleted")

// DeletionNotify is called before (err is nil, done is false) and after each
// delete call.
type DeletionNotify func(target types.Target, done bool, err error)

type ITargetDeleter interface {
	DeleteAll(ctx context.Context, orgID string, notify DeletionNotify) (*types.TargetDeletionOutcome, error)
}

type TargetDeleter struct {
	TargetClient snyk.ITargetClient
	JsonClient   jsonclient.IJsonClient
	Logger       *logrus.Logger
}

func NewTargetDeleter(targetClient snyk.ITargetClient, jsonClient jsonclient.IJsonClient, logger *logrus.Logger) *TargetDeleter {
	return &TargetDeleter{
		TargetClient: targetClient,
		JsonClient:   jsonClient,
		Logger:       logger,
	}
}

// DeleteAll lists every target of the org and deletes them one at a time. A
// failed delete is recorded and the batch carries on. The three audit files
// are written once the batch is over; ErrTargetsFailed is returned alongside
// the outcome when any delete failed.
func (targetDeleter *TargetDeleter) DeleteAll(ctx context.Context, orgID string, notify DeletionNotify) (*types.TargetDeletionOutcome, error) {
	targets, err := targetDeleter.TargetClient.ListTargets(ctx, orgID)
	if err != nil {
		return nil, err
	}
	targetDeleter.Logger.Infof("Found %d target(s) in org %s", len(targets), orgID)

	outcome := &types.TargetDeletionOutcome{
		Targets:    targets,
		Successful: []types.Target{},
		Failed:     []types.TargetDeletion{},
	}

	for _, target := range targets {
		if notify != nil {
			notify(target, false, nil)
		}

		err := targetDeleter.TargetClient.DeleteTarget(ctx, orgID, target.ID)
		if err != nil {
			targetDeleter.Logger.Errorf("Failed to delete target %s (%s): %v", target.DisplayName(), target.ID, err)
			outcome.Failed = append(outcome.Failed, types.TargetDeletion{Target: target, Err: err})
		} else {
			targetDeleter.Logger.Debugf("Deleted target %s (%s)", target.DisplayName(), target.ID)
			outcome.Successful = append(outcome.Successful, target)
		}

		if notify != nil {
			notify(target, true, err)
		}
	}

	if err := targetDeleter.writeAuditFiles(outcome); err != nil {
		return outcome, err
	}

	if len(outcome.Failed) > 0 {
		return outcome, fmt.Errorf("%w: %d of %d", ErrTargetsFailed, len(outcome.Failed), len(outcome.Targets))
	}
	return outcome, nil
}

func (targetDeleter *TargetDeleter) writeAuditFiles(outcome *types.TargetDeletionOutcome) error {
	files := []struct {
		name    string
		targets []types.Target
	}{
		{TargetsFileName, outcome.Targets},
		{SuccessfulTargetsFileName, outcome.Successful},
		{FailedTargetsFileName, outcome.FailedTargets()},
	}

	for _, file := range files {
		if _, err := targetDeleter.JsonClient.Export(file.targets, file.name); err != nil {
			return err
		}
	}
	return nil
}
