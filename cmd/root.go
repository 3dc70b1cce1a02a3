/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ben-hur-snyk/snyk-scripts/config"
	"github.com/ben-hur-snyk/snyk-scripts/console"
	"github.com/ben-hur-snyk/snyk-scripts/logging"
)

// configError marks failures found before any network call.
type configError struct {
	err error
}

func (e *configError) Error() string { return e.err.Error() }
func (e *configError) Unwrap() error { return e.err }

// rootCmd represents the base command when called without any subcommands
var rootCmd = newRootCmd()

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "snyk-scripts",
		Short: "Bulk maintenance and reporting utilities for the Snyk REST API",
		Long: `snyk-scripts bundles small utilities that drive the Snyk REST API:

  delete-targets  delete every target of an organization
  export-vulns    export a group's issues to CSV and summarize them per status
  status-report   export an organization's issues and count them per severity and status

The API token is read from the SNYK_TOKEN environment variable, which may also
be set in a .env file in the current directory.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
				return fmt.Errorf("error loading .env file: %w", err)
			}
			return nil
		},
	}

	rootCmd.PersistentFlags().String("config", "", "Config file providing defaults for any flag (YAML, JSON or TOML)")
	rootCmd.PersistentFlags().StringP("verbosity", "v", "info", "Log level (trace, debug, info, warn, error)")
	rootCmd.PersistentFlags().Bool("structuredLogs", false, "Output logs as JSON")

	return rootCmd
}

// Execute adds all child commands to the root command and runs it with a
// context cancelled on SIGINT or SIGTERM.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err := rootCmd.ExecuteContext(ctx)
	if err != nil {
		out := console.NewConsole(rootCmd.ErrOrStderr())
		var cfgErr *configError
		switch {
		case errors.As(err, &cfgErr):
			out.Error("Configuration Error", fmt.Errorf("\n%w", cfgErr.err))
		case errors.Is(err, context.Canceled):
			out.Error("Interrupted", err)
		default:
			out.Error("Error", err)
		}
	}
	return err
}

// newLogger builds the stderr logger from the root flags.
func newLogger(cmd *cobra.Command) (*logrus.Logger, error) {
	verbosity, _ := cmd.Flags().GetString("verbosity")
	structuredLogs, _ := cmd.Flags().GetBool("structuredLogs")
	return logging.NewLogger(verbosity, structuredLogs, cmd.ErrOrStderr())
}

// newViper binds flags to a fresh viper instance, adds the token environment
// variable and reads the optional config file.
func newViper(cmd *cobra.Command, keys ...string) (*viper.Viper, error) {
	v := viper.New()
	for _, key := range keys {
		if err := v.BindPFlag(key, cmd.Flags().Lookup(key)); err != nil {
			return nil, err
		}
	}
	if err := v.BindEnv(config.KeyToken, config.TokenEnvVar); err != nil {
		return nil, err
	}

	configFile, _ := cmd.Flags().GetString("config")
	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, &configError{err: fmt.Errorf("error reading config file %s: %w", configFile, err)}
		}
	}
	return v, nil
}

func logSettings(logger *logrus.Logger, v *viper.Viper) {
	for key, value := range v.AllSettings() {
		if key == config.KeyToken {
			continue
		}
		logger.Debugf("Command Flag: %s = %v", key, value)
	}
}
