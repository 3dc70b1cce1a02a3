package cmd

import (
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/ben-hur-snyk/snyk-scripts/artifacts"
	"github.com/ben-hur-snyk/snyk-scripts/config"
	"github.com/ben-hur-snyk/snyk-scripts/console"
	"github.com/ben-hur-snyk/snyk-scripts/csv"
	"github.com/ben-hur-snyk/snyk-scripts/export"
	"github.com/ben-hur-snyk/snyk-scripts/filepathparser"
	"github.com/ben-hur-snyk/snyk-scripts/logging"
	"github.com/ben-hur-snyk/snyk-scripts/snyk"
	"github.com/ben-hur-snyk/snyk-scripts/types"
	"github.com/ben-hur-snyk/snyk-scripts/viewer"
)

func newExportVulnsCmd() *cobra.Command {
	exportVulnsCmd := &cobra.Command{
		Use:   "export-vulns",
		Short: "Export a group's issues to CSV and summarize them per status",
		Long: `The export-vulns command runs a group issues export end to end:

1. Clears the output folder (disable with --clean-output=false)
2. Starts an export job for the issues introduced in the date range
3. Polls the job until it finishes, errors or --poll-timeout elapses
4. Saves the final job payload as result.json
5. Downloads every result file as csv_<n>.csv
6. Writes issues-<status>.csv and summary-<status>.csv per ISSUE_STATUS
   and prints one summary table per status

A dated log file (YYYYMMDD.log) is written to the output folder.

Examples:
  snyk-scripts export-vulns --group-id 9a1c... --date-from 2025-01-01 --date-to 2025-03-31

  # Open the results viewer once the export is done
  snyk-scripts export-vulns --group-id 9a1c... --date-from 2025-01-01 --date-to 2025-03-31 --web-ui`,
		RunE: func(cmd *cobra.Command, args []string) error {
			log, err := newLogger(cmd)
			if err != nil {
				return &configError{err: err}
			}

			v, err := newViper(cmd,
				config.KeyGroupID, config.KeyDateFrom, config.KeyDateTo, config.KeyOutputFolder,
				config.KeyAPIURL, config.KeyAPIVersion, config.KeyWebUI, config.KeyWebUICommand,
				config.KeyPollInterval, config.KeyPollTimeout, config.KeyInsecureSkipTLSVerify, config.KeyCleanOutput,
			)
			if err != nil {
				return err
			}
			logSettings(log, v)

			cfg := config.LoadExportConfig(v)
			if err := cfg.Validate(); err != nil {
				return &configError{err: err}
			}

			outputFolderPath, err := filepathparser.ParsePath(cfg.OutputFolder)
			if err != nil {
				return &configError{err: err}
			}

			out := console.NewConsole(cmd.OutOrStdout())
			out.Println("")
			out.Banner("Snyk Export Vulnerabilities from Group")
			out.Println("")
			out.Field("Group ID", cfg.GroupID)
			out.Field("Date Range", fmt.Sprintf("%s to %s", cfg.DateFrom, cfg.DateTo))
			out.Field("Output Folder", cfg.OutputFolder)
			out.Field("API URL", cfg.APIURL)
			out.Println("")

			fs := afero.NewOsFs()
			steps := &stepCounter{console: out}

			if cfg.CleanOutput {
				steps.Next("Clearing output folder...")
				if err := artifacts.ClearFolder(fs, outputFolderPath, log); err != nil {
					return err
				}
				out.Success("Output folder cleared\n")
			}

			verbosity, _ := cmd.Flags().GetString("verbosity")
			fileLog, logFile, err := logging.NewFileLogger(outputFolderPath, time.Now(), verbosity)
			if err != nil {
				return err
			}
			defer logFile.Close()

			fileLog.Info("Snyk Export Vulnerabilities - Starting")
			fileLog.WithFields(logrus.Fields{
				"group_id":      cfg.GroupID,
				"date_from":     cfg.DateFrom,
				"date_to":       cfg.DateTo,
				"output_folder": outputFolderPath,
				"api_url":       cfg.APIURL,
				"api_version":   cfg.APIVersion,
			}).Info("Run parameters")

			err = runExportVulns(cmd, cfg, outputFolderPath, fs, out, steps, fileLog)
			if err != nil {
				fileLog.Errorf("Script failed: %v", err)
			}
			return err
		},
	}

	exportVulnsCmd.Flags().String(config.KeyGroupID, "", "Snyk group ID (required)")
	exportVulnsCmd.Flags().String(config.KeyDateFrom, "", "Start of the introduced date range, YYYY-MM-DD (required)")
	exportVulnsCmd.Flags().String(config.KeyDateTo, "", "End of the introduced date range, YYYY-MM-DD (required)")
	exportVulnsCmd.Flags().StringP(config.KeyOutputFolder, "o", config.DefaultOutputFolder, "Output folder for results")
	exportVulnsCmd.Flags().String(config.KeyAPIURL, config.DefaultAPIBaseURL, "Snyk API URL")
	exportVulnsCmd.Flags().String(config.KeyAPIVersion, config.DefaultExportAPIVersion, "Snyk REST API version")
	exportVulnsCmd.Flags().Bool(config.KeyWebUI, false, "Run the results viewer once the export is done")
	exportVulnsCmd.Flags().String(config.KeyWebUICommand, config.DefaultWebUICommand, "Viewer command; --output-folder <folder> is appended")
	exportVulnsCmd.Flags().Duration(config.KeyPollInterval, config.DefaultPollInterval, "Delay between export status checks")
	exportVulnsCmd.Flags().Duration(config.KeyPollTimeout, config.DefaultPollTimeout, "Give up waiting for the export after this long")
	exportVulnsCmd.Flags().Bool(config.KeyInsecureSkipTLSVerify, false, "Skip TLS certificate verification")
	exportVulnsCmd.Flags().Bool(config.KeyCleanOutput, true, "Empty the output folder before starting")

	return exportVulnsCmd
}

func runExportVulns(cmd *cobra.Command, cfg config.ExportConfig, outputFolderPath string, fs afero.Fs, out *console.Console, steps *stepCounter, log *logrus.Logger) error {
	ctx := cmd.Context()
	client := snyk.NewClient(cfg.APIURL, cfg.APIVersion, cfg.Token, snyk.NewHttpClient(cfg.InsecureSkipTLSVerify), log)
	jobClient := export.NewExportJobClient(client, cfg.PollInterval, cfg.PollTimeout, log)
	scope := types.ExportScope{Kind: types.ExportScopeGroup, ID: cfg.GroupID}

	steps.Next("Starting export job...")
	request := export.NewGroupIssuesRequest(cfg.DateFromISO(), cfg.DateToISO(), config.DefaultURLExpirationInSeconds)
	exportID, err := jobClient.Start(ctx, scope, request)
	if err != nil {
		return err
	}
	out.Success("Export job started with ID: %s\n", exportID)

	steps.Next("Waiting for export to complete...")
	job, err := waitForExport(ctx, jobClient, scope, exportID, out)
	if err != nil {
		return err
	}
	out.Success("Export completed: %d total rows in %d file(s)\n", job.RowCount, len(job.Results))

	artifactClient := artifacts.NewArtifactClient(fs, outputFolderPath, artifacts.GroupCsvFileFormat, client, log)

	steps.Next("Saving JSON result...")
	if _, err := artifactClient.SaveResult(job); err != nil {
		return err
	}
	out.Success("Saved %s\n", artifacts.ResultFileName)

	steps.Next("Downloading CSV files...")
	files, err := downloadResults(ctx, artifactClient, job.Results, out)
	if err != nil {
		return err
	}
	out.Success("Downloaded %d CSV file(s)\n", len(files))

	steps.Next("Generating results review...")
	summaries, err := csv.NewReviewCsvClient(fs, outputFolderPath, log).Review()
	if err != nil {
		return err
	}
	out.Success("Saved %d status set(s) (issues-{status}.csv + summary-{status}.csv)\n", len(summaries))

	out.Banner("SUMMARY")
	out.Field("Total Rows", job.RowCount)
	out.Field("CSV Files", len(files))
	out.Field("Output Folder", cfg.OutputFolder)
	out.Rule()
	out.Println("")

	log.WithFields(logrus.Fields{
		"total_rows": job.RowCount,
		"csv_files":  len(files),
		"statuses":   len(summaries),
	}).Info("Export completed successfully")

	out.SummaryTables(summaries)

	if cfg.WebUI {
		steps.Next("Starting web UI...")
		viewerClient := viewer.NewViewerClient(cfg.WebUICommand, outputFolderPath, cmd.OutOrStdout(), cmd.ErrOrStderr(), log)
		return viewerClient.Run(ctx)
	}
	return nil
}

func init() {
	rootCmd.AddCommand(newExportVulnsCmd())
}
