package export

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/sirupsen/logrus"

	"github.com/ben-hur-snyk/snyk-scripts/snyk"
	"github.com/ben-hur-snyk/snyk-scripts/types"
)

var (
	ErrExportErrored = errors.New("export job errored")
	ErrPollTimeout   = errors.New("export job did not finish in time")

	errJobPending = errors.New("export job still running")
)

type IExportJobClient interface {
	Start(ctx context.Context, scope types.ExportScope, request types.ExportRequest) (string, error)
	Wait(ctx context.Context, scope types.ExportScope, exportID string, notify PollNotify) (*types.ExportJob, error)
}

// PollNotify is called after every status check.
type PollNotify func(status types.ExportStatus, attempt int)

type ExportJobClient struct {
	ExportClient snyk.IExportClient
	PollInterval time.Duration
	PollTimeout  time.Duration
	// ReadyOnEmptyStatus treats a status payload without a status as a
	// finished job. Org exports report readiness this way.
	ReadyOnEmptyStatus bool
	Logger             *logrus.Logger
}

func NewExportJobClient(exportClient snyk.IExportClient, pollInterval time.Duration, pollTimeout time.Duration, logger *logrus.Logger) *ExportJobClient {
	return &ExportJobClient{
		ExportClient: exportClient,
		PollInterval: pollInterval,
		PollTimeout:  pollTimeout,
		Logger:       logger,
	}
}

func (jobClient *ExportJobClient) Start(ctx context.Context, scope types.ExportScope, request types.ExportRequest) (string, error) {
	exportID, err := jobClient.ExportClient.StartExport(ctx, scope, request)
	if err != nil {
		return "", err
	}
	jobClient.Logger.Infof("Export job started for %s with ID %s", scope.Path(), exportID)
	return exportID, nil
}

// Wait polls the job status at a constant interval until it is FINISHED or
// ERRORED, or empty when ReadyOnEmptyStatus is set. Any failure to read the
// status ends the wait immediately.
func (jobClient *ExportJobClient) Wait(ctx context.Context, scope types.ExportScope, exportID string, notify PollNotify) (*types.ExportJob, error) {
	pollCtx, cancel := context.WithTimeout(ctx, jobClient.PollTimeout)
	defer cancel()

	attempt := 0
	poll := func() (*types.ExportJob, error) {
		attempt++
		job, err := jobClient.ExportClient.GetExportJob(pollCtx, scope, exportID)
		if err != nil {
			return nil, backoff.Permanent(err)
		}

		jobClient.Logger.Debugf("Export job %s status after %d check(s): %s", exportID, attempt, job.Status)
		if notify != nil {
			notify(job.Status, attempt)
		}

		switch {
		case job.Status == "" && jobClient.ReadyOnEmptyStatus:
			return job, nil
		case !job.Status.IsTerminal():
			return nil, errJobPending
		case job.Status == types.ExportStatusErrored:
			return nil, backoff.Permanent(fmt.Errorf("%w: %s", ErrExportErrored, exportID))
		default:
			return job, nil
		}
	}

	policy := backoff.WithContext(backoff.NewConstantBackOff(jobClient.PollInterval), pollCtx)
	job, err := backoff.RetryWithData[*types.ExportJob](poll, policy)
	if err != nil {
		if ctx.Err() == nil && errors.Is(pollCtx.Err(), context.DeadlineExceeded) {
			return nil, fmt.Errorf("%w: %s after %s", ErrPollTimeout, exportID, jobClient.PollTimeout)
		}
		return nil, err
	}

	jobClient.Logger.Infof("Export job %s finished with %d row(s) in %d file(s)", exportID, job.RowCount, len(job.Results))
	return job, nil
}
