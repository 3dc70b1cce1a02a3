package cmd

import (
	"context"
	"fmt"

	"github.com/ben-hur-snyk/snyk-scripts/artifacts"
	"github.com/ben-hur-snyk/snyk-scripts/console"
	"github.com/ben-hur-snyk/snyk-scripts/export"
	"github.com/ben-hur-snyk/snyk-scripts/types"
)

type stepCounter struct {
	console *console.Console
	step    int
}

func (steps *stepCounter) Next(message string) {
	steps.step++
	steps.console.Step(steps.step, message)
}

func waitForExport(ctx context.Context, jobClient export.IExportJobClient, scope types.ExportScope, exportID string, out *console.Console) (*types.ExportJob, error) {
	spinner := out.Spinner("Waiting for export to complete...")
	defer spinner.Stop()

	return jobClient.Wait(ctx, scope, exportID, func(status types.ExportStatus, attempt int) {
		spinner.Update(fmt.Sprintf("Checking export status (attempt %d): %s", attempt, status))
	})
}

func downloadResults(ctx context.Context, artifactClient artifacts.IArtifactClient, results []types.ExportResult, out *console.Console) ([]string, error) {
	spinner := out.Spinner("Downloading CSV files...")
	defer spinner.Stop()

	return artifactClient.DownloadAll(ctx, results, func(index int, total int) {
		spinner.Update(fmt.Sprintf("Downloading CSV file %d/%d...", index, total))
	})
}
