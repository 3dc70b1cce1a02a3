package cmd

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/ben-hur-snyk/snyk-scripts/artifacts"
	"github.com/ben-hur-snyk/snyk-scripts/config"
	"github.com/ben-hur-snyk/snyk-scripts/console"
	"github.com/ben-hur-snyk/snyk-scripts/export"
	"github.com/ben-hur-snyk/snyk-scripts/filepathparser"
	"github.com/ben-hur-snyk/snyk-scripts/report"
	"github.com/ben-hur-snyk/snyk-scripts/snyk"
	"github.com/ben-hur-snyk/snyk-scripts/types"
)

const statusReportCsvFolder = "csv"

func newStatusReportCmd() *cobra.Command {
	statusReportCmd := &cobra.Command{
		Use:   "status-report",
		Short: "Count an organization's issues per severity and status",
		Long: `Exports the issues of an organization introduced in the date range (the current
calendar year by default), downloads the CSV files into <output-folder>/csv and
writes report_<YYYY-MM-DD>.json with, for each severity, the total number of
issues and how many are Open, Ignored and Resolved.

Examples:
  snyk-scripts status-report --org-id 0f7b...
  snyk-scripts status-report --org-id 0f7b... --date-from 2024-01-01 --date-to 2024-06-30 -o ./reports`,
		RunE: func(cmd *cobra.Command, args []string) error {
			log, err := newLogger(cmd)
			if err != nil {
				return &configError{err: err}
			}

			v, err := newViper(cmd,
				config.KeyOrgID, config.KeyDateFrom, config.KeyDateTo, config.KeyOutputFolder,
				config.KeyAPIURL, config.KeyAPIVersion, config.KeyPollInterval, config.KeyPollTimeout,
				config.KeyInsecureSkipTLSVerify,
			)
			if err != nil {
				return err
			}
			logSettings(log, v)

			now := time.Now()
			cfg := config.LoadStatusReportConfig(v, now)
			if err := cfg.Validate(); err != nil {
				return &configError{err: err}
			}

			outputFolderPath, err := filepathparser.ParsePath(cfg.OutputFolder)
			if err != nil {
				return &configError{err: err}
			}

			ctx := cmd.Context()
			out := console.NewConsole(cmd.OutOrStdout())
			out.Banner("Snyk Vulnerability Status Report")
			out.Field("Org ID", cfg.OrgID)
			out.Field("Date Range", fmt.Sprintf("%s to %s", cfg.DateFrom, cfg.DateTo))
			out.Field("Output Folder", cfg.OutputFolder)
			out.Println("")

			fs := afero.NewOsFs()
			steps := &stepCounter{console: out}
			client := snyk.NewClient(cfg.APIURL, cfg.APIVersion, cfg.Token, snyk.NewHttpClient(cfg.InsecureSkipTLSVerify), log)
			jobClient := export.NewExportJobClient(client, cfg.PollInterval, cfg.PollTimeout, log)
			jobClient.ReadyOnEmptyStatus = true
			scope := types.ExportScope{Kind: types.ExportScopeOrg, ID: cfg.OrgID}

			steps.Next("Starting export job...")
			exportID, err := jobClient.Start(ctx, scope, export.NewOrgIssuesRequest(cfg.DateFromISO(), cfg.DateToISO()))
			if err != nil {
				return err
			}
			out.Success("Export job started with ID: %s\n", exportID)

			steps.Next("Waiting for export to complete...")
			if _, err := waitForExport(ctx, jobClient, scope, exportID, out); err != nil {
				return err
			}

			exportJob, err := client.GetExport(ctx, scope, exportID)
			if err != nil {
				return err
			}
			out.Success("Export contains %d CSV file(s) with %d total rows\n", len(exportJob.Results), exportJob.RowCount)

			steps.Next("Downloading and processing CSV files...")
			csvFolderPath := filepath.Join(outputFolderPath, statusReportCsvFolder)
			artifactClient := artifacts.NewArtifactClient(fs, csvFolderPath, artifacts.OrgCsvFileFormat, client, log)
			files, err := downloadResults(ctx, artifactClient, exportJob.Results, out)
			if err != nil {
				return err
			}

			reportClient := report.NewReportClient(fs, outputFolderPath, log)
			statusReport, records := reportClient.Build(cfg.OrgID, now, files)
			reportPath, err := reportClient.Save(statusReport)
			if err != nil {
				return err
			}
			out.Success("Report saved to: %s\n", reportPath)

			out.ReportTable(statusReport)
			out.Println("")
			out.Field("Total records processed", records)
			return nil
		},
	}

	statusReportCmd.Flags().String(config.KeyOrgID, "", "Snyk organization ID (required)")
	statusReportCmd.Flags().String(config.KeyDateFrom, "", "Start of the introduced date range, YYYY-MM-DD (default: January 1st of the current year)")
	statusReportCmd.Flags().String(config.KeyDateTo, "", "End of the introduced date range, YYYY-MM-DD (default: December 31st of the current year)")
	statusReportCmd.Flags().StringP(config.KeyOutputFolder, "o", config.DefaultStatusReportFolder, "Folder for the report and the downloaded CSV files")
	statusReportCmd.Flags().String(config.KeyAPIURL, config.DefaultAPIBaseURL, "Snyk API URL")
	statusReportCmd.Flags().String(config.KeyAPIVersion, config.DefaultExportAPIVersion, "Snyk REST API version")
	statusReportCmd.Flags().Duration(config.KeyPollInterval, config.DefaultPollInterval, "Delay between export status checks")
	statusReportCmd.Flags().Duration(config.KeyPollTimeout, config.DefaultPollTimeout, "Give up waiting for the export after this long")
	statusReportCmd.Flags().Bool(config.KeyInsecureSkipTLSVerify, false, "Skip TLS certificate verification")

	return statusReportCmd
}

func init() {
	rootCmd.AddCommand(newStatusReportCmd())
}
