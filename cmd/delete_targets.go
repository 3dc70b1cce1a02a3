package cmd

import (
	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/ben-hur-snyk/snyk-scripts/config"
	"github.com/ben-hur-snyk/snyk-scripts/console"
	"github.com/ben-hur-snyk/snyk-scripts/filepathparser"
	"github.com/ben-hur-snyk/snyk-scripts/json"
	"github.com/ben-hur-snyk/snyk-scripts/snyk"
	"github.com/ben-hur-snyk/snyk-scripts/targets"
	"github.com/ben-hur-snyk/snyk-scripts/types"
)

func newDeleteTargetsCmd() *cobra.Command {
	deleteTargetsCmd := &cobra.Command{
		Use:   "delete-targets",
		Short: "Delete every target of a Snyk organization",
		Long: `Lists all targets of the organization, page by page, and deletes them one at a
time. A failed delete does not stop the batch.

Three audit files are written to the working folder afterwards:
  targets.json             every target that was listed
  successful_targets.json  targets that were deleted
  failed_targets.json      targets that could not be deleted

The command exits with status 1 when any delete failed.

Examples:
  SNYK_TOKEN=... snyk-scripts delete-targets --org-id 0f7b...
  snyk-scripts delete-targets --org-id 0f7b... --working-folder ./audit`,
		RunE: func(cmd *cobra.Command, args []string) error {
			log, err := newLogger(cmd)
			if err != nil {
				return &configError{err: err}
			}

			v, err := newViper(cmd, config.KeyOrgID, config.KeyAPIVersion, config.KeyAPIBaseURL, config.KeyWorkingFolder)
			if err != nil {
				return err
			}
			logSettings(log, v)

			cfg := config.LoadDeleteTargetsConfig(v)
			if err := cfg.Validate(); err != nil {
				return &configError{err: err}
			}

			workingFolderPath, err := filepathparser.ParsePath(cfg.WorkingFolder)
			if err != nil {
				return &configError{err: err}
			}

			out := console.NewConsole(cmd.OutOrStdout())
			out.Println("Starting bulk target deletion for org: %s\n", cfg.OrgID)

			targetClient := snyk.NewClient(cfg.APIBaseURL, cfg.APIVersion, cfg.Token, snyk.NewHttpClient(false), log)
			jsonClient := json.NewJsonClient(afero.NewOsFs(), workingFolderPath, log)
			targetDeleter := targets.NewTargetDeleter(targetClient, jsonClient, log)

			outcome, err := targetDeleter.DeleteAll(cmd.Context(), cfg.OrgID, func(target types.Target, done bool, err error) {
				switch {
				case !done:
					out.Println("Deleting target: %s (%s)", target.DisplayName(), target.ID)
				case err == nil:
					out.Success("Successfully deleted target: %s (%s)", target.DisplayName(), target.ID)
				default:
					out.Failure("Failed to delete target: %s (%s)", target.DisplayName(), target.ID)
					out.Println("Error: %v", err)
				}
			})
			if outcome == nil {
				return err
			}

			out.Println("")
			out.Banner("SUMMARY")
			out.Field("Total targets", len(outcome.Targets))
			out.Field("Successfully deleted", len(outcome.Successful))
			out.Field("Failed", len(outcome.Failed))
			out.Field("Audit files", workingFolderPath)
			out.Rule()

			return err
		},
	}

	deleteTargetsCmd.Flags().String(config.KeyOrgID, "", "Snyk organization ID (required)")
	deleteTargetsCmd.Flags().String(config.KeyAPIVersion, config.DefaultTargetsAPIVersion, "Snyk REST API version")
	deleteTargetsCmd.Flags().String(config.KeyAPIBaseURL, config.DefaultAPIBaseURL, "Snyk API base URL")
	deleteTargetsCmd.Flags().StringP(config.KeyWorkingFolder, "w", config.DefaultWorkingFolder, "Folder the audit JSON files are written to")

	return deleteTargetsCmd
}

func init() {
	rootCmd.AddCommand(newDeleteTargetsCmd())
}
