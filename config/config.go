package config

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/spf13/viper"
)

const (
	TokenEnvVar = "SNYK_TOKEN"

	DefaultAPIBaseURL             = "https://api.snyk.io"
	DefaultTargetsAPIVersion      = "2025-11-05"
	DefaultExportAPIVersion       = "2024-10-15"
	DefaultOutputFolder           = "./results"
	DefaultStatusReportFolder     = "."
	DefaultWorkingFolder          = "."
	DefaultPollInterval           = 1 * time.Second
	DefaultPollTimeout            = 30 * time.Minute
	DefaultWebUICommand           = "streamlit run app.py --"
	DefaultURLExpirationInSeconds = 3600

	dateLayout = "2006-01-02"
)

var datePattern = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

// Keys shared by the viper instances of every command.
const (
	KeyToken                 = "token"
	KeyOrgID                 = "org-id"
	KeyGroupID               = "group-id"
	KeyAPIVersion            = "api-version"
	KeyAPIBaseURL            = "api-base-url"
	KeyAPIURL                = "api-url"
	KeyDateFrom              = "date-from"
	KeyDateTo                = "date-to"
	KeyOutputFolder          = "output-folder"
	KeyWorkingFolder         = "working-folder"
	KeyWebUI                 = "web-ui"
	KeyWebUICommand          = "web-ui-command"
	KeyPollInterval          = "poll-interval"
	KeyPollTimeout           = "poll-timeout"
	KeyInsecureSkipTLSVerify = "insecure-skip-tls-verify"
	KeyCleanOutput           = "clean-output"
)

type DeleteTargetsConfig struct {
	OrgID         string
	APIVersion    string
	APIBaseURL    string
	WorkingFolder string
	Token         string
}

func LoadDeleteTargetsConfig(v *viper.Viper) DeleteTargetsConfig {
	return DeleteTargetsConfig{
		OrgID:         strings.TrimSpace(v.GetString(KeyOrgID)),
		APIVersion:    v.GetString(KeyAPIVersion),
		APIBaseURL:    strings.TrimRight(v.GetString(KeyAPIBaseURL), "/"),
		WorkingFolder: v.GetString(KeyWorkingFolder),
		Token:         v.GetString(KeyToken),
	}
}

func (config DeleteTargetsConfig) Validate() error {
	var result *multierror.Error
	result = validateToken(result, config.Token)
	if config.OrgID == "" {
		result = multierror.Append(result, fmt.Errorf("--%s is required", KeyOrgID))
	}
	result = validateAPI(result, KeyAPIBaseURL, config.APIBaseURL, config.APIVersion)
	return finish(result)
}

type ExportConfig struct {
	GroupID               string
	DateFrom              string
	DateTo                string
	OutputFolder          string
	APIURL                string
	APIVersion            string
	Token                 string
	WebUI                 bool
	WebUICommand          string
	PollInterval          time.Duration
	PollTimeout           time.Duration
	InsecureSkipTLSVerify bool
	CleanOutput           bool
}

func LoadExportConfig(v *viper.Viper) ExportConfig {
	return ExportConfig{
		GroupID:               strings.TrimSpace(v.GetString(KeyGroupID)),
		DateFrom:              strings.TrimSpace(v.GetString(KeyDateFrom)),
		DateTo:                strings.TrimSpace(v.GetString(KeyDateTo)),
		OutputFolder:          v.GetString(KeyOutputFolder),
		APIURL:                strings.TrimRight(v.GetString(KeyAPIURL), "/"),
		APIVersion:            v.GetString(KeyAPIVersion),
		Token:                 v.GetString(KeyToken),
		WebUI:                 v.GetBool(KeyWebUI),
		WebUICommand:          v.GetString(KeyWebUICommand),
		PollInterval:          v.GetDuration(KeyPollInterval),
		PollTimeout:           v.GetDuration(KeyPollTimeout),
		InsecureSkipTLSVerify: v.GetBool(KeyInsecureSkipTLSVerify),
		CleanOutput:           v.GetBool(KeyCleanOutput),
	}
}

func (config ExportConfig) Validate() error {
	var result *multierror.Error
	result = validateToken(result, config.Token)
	if config.GroupID == "" {
		result = multierror.Append(result, fmt.Errorf("--%s is required", KeyGroupID))
	}
	result = validateDateRange(result, config.DateFrom, config.DateTo)
	result = validateAPI(result, KeyAPIURL, config.APIURL, config.APIVersion)
	result = validatePolling(result, config.PollInterval, config.PollTimeout)
	if config.OutputFolder == "" {
		result = multierror.Append(result, fmt.Errorf("--%s must not be empty", KeyOutputFolder))
	}
	if config.WebUI && strings.TrimSpace(config.WebUICommand) == "" {
		result = multierror.Append(result, fmt.Errorf("--%s must not be empty when --%s is set", KeyWebUICommand, KeyWebUI))
	}
	return finish(result)
}

func (config ExportConfig) DateFromISO() string {
	return config.DateFrom + "T00:00:00Z"
}

func (config ExportConfig) DateToISO() string {
	return config.DateTo + "T23:59:59Z"
}

type StatusReportConfig struct {
	OrgID                 string
	DateFrom              string
	DateTo                string
	OutputFolder          string
	APIURL                string
	APIVersion            string
	Token                 string
	PollInterval          time.Duration
	PollTimeout           time.Duration
	InsecureSkipTLSVerify bool
}

// LoadStatusReportConfig defaults an unset date range to the calendar year of now.
func LoadStatusReportConfig(v *viper.Viper, now time.Time) StatusReportConfig {
	config := StatusReportConfig{
		OrgID:                 strings.TrimSpace(v.GetString(KeyOrgID)),
		DateFrom:              strings.TrimSpace(v.GetString(KeyDateFrom)),
		DateTo:                strings.TrimSpace(v.GetString(KeyDateTo)),
		OutputFolder:          v.GetString(KeyOutputFolder),
		APIURL:                strings.TrimRight(v.GetString(KeyAPIURL), "/"),
		APIVersion:            v.GetString(KeyAPIVersion),
		Token:                 v.GetString(KeyToken),
		PollInterval:          v.GetDuration(KeyPollInterval),
		PollTimeout:           v.GetDuration(KeyPollTimeout),
		InsecureSkipTLSVerify: v.GetBool(KeyInsecureSkipTLSVerify),
	}
	if config.DateFrom == "" {
		config.DateFrom = fmt.Sprintf("%04d-01-01", now.Year())
	}
	if config.DateTo == "" {
		config.DateTo = fmt.Sprintf("%04d-12-31", now.Year())
	}
	return config
}

func (config StatusReportConfig) Validate() error {
	var result *multierror.Error
	result = validateToken(result, config.Token)
	if config.OrgID == "" {
		result = multierror.Append(result, fmt.Errorf("--%s is required", KeyOrgID))
	}
	result = validateDateRange(result, config.DateFrom, config.DateTo)
	result = validateAPI(result, KeyAPIURL, config.APIURL, config.APIVersion)
	result = validatePolling(result, config.PollInterval, config.PollTimeout)
	return finish(result)
}

func (config StatusReportConfig) DateFromISO() string {
	return config.DateFrom + "T00:00:00Z"
}

func (config StatusReportConfig) DateToISO() string {
	return config.DateTo + "T23:59:59Z"
}

func validateToken(result *multierror.Error, token string) *multierror.Error {
	if token == "" {
		result = multierror.Append(result, fmt.Errorf("%s environment variable is not set", TokenEnvVar))
	}
	return result
}

func validateAPI(result *multierror.Error, urlKey string, apiURL string, apiVersion string) *multierror.Error {
	if apiURL == "" {
		result = multierror.Append(result, fmt.Errorf("--%s must not be empty", urlKey))
	}
	if apiVersion == "" {
		result = multierror.Append(result, fmt.Errorf("--%s must not be empty", KeyAPIVersion))
	}
	return result
}

func validatePolling(result *multierror.Error, interval time.Duration, timeout time.Duration) *multierror.Error {
	if interval <= 0 {
		result = multierror.Append(result, fmt.Errorf("--%s must be greater than zero, got: %s", KeyPollInterval, interval))
	}
	if timeout <= 0 {
		result = multierror.Append(result, fmt.Errorf("--%s must be greater than zero, got: %s", KeyPollTimeout, timeout))
	}
	return result
}

func validateDateRange(result *multierror.Error, dateFrom string, dateTo string) *multierror.Error {
	from, result := validateDate(result, KeyDateFrom, dateFrom)
	to, result := validateDate(result, KeyDateTo, dateTo)

	if from != nil && to != nil && from.After(*to) {
		result = multierror.Append(result, fmt.Errorf("--%s must be before or equal to --%s", KeyDateFrom, KeyDateTo))
	}
	return result
}

func validateDate(result *multierror.Error, key string, value string) (*time.Time, *multierror.Error) {
	if value == "" {
		return nil, multierror.Append(result, fmt.Errorf("--%s is required", key))
	}
	if !datePattern.MatchString(value) {
		return nil, multierror.Append(result, fmt.Errorf("--%s must be in YYYY-MM-DD format, got: %s", key, value))
	}
	date, err := time.Parse(dateLayout, value)
	if err != nil {
		return nil, multierror.Append(result, fmt.Errorf("--%s is not a valid date: %s", key, value))
	}
	return &date, result
}

func finish(result *multierror.Error) error {
	if result == nil {
		return nil
	}
	result.ErrorFormat = formatErrors
	return result.ErrorOrNil()
}

func formatErrors(errs []error) string {
	lines := make([]string, 0, len(errs))
	for _, err := range errs {
		lines = append(lines, err.Error())
	}
	return strings.Join(lines, "\n")
}
