package report

import (
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"

	"github.com/ben-hur-snyk/snyk-scripts/csv"
	jsonclient "github.com/ben-hur-snyk/snyk-scripts/json"
	"github.com/ben-hur-snyk/snyk-scripts/types"
)

const (
	dateLayout   = "2006-01-02"
	reportIndent = "    "
)

type IReportClient interface {
	Build(orgID string, date time.Time, csvFiles []string) (*types.Report, int)
	Save(report *types.Report) (string, error)
}

type ReportClient struct {
	Fs         afero.Fs
	JsonClient *jsonclient.JsonClient
	Logger     *logrus.Logger
}

func NewReportClient(fs afero.Fs, outputFolderPath string, logger *logrus.Logger) *ReportClient {
	jsonClient := jsonclient.NewJsonClient(fs, outputFolderPath, logger)
	jsonClient.Indent = reportIndent
	return &ReportClient{
		Fs:         fs,
		JsonClient: jsonClient,
		Logger:     logger,
	}
}

func FileName(date string) string {
	return fmt.Sprintf("report_%s.json", date)
}

// Build tallies every row of csvFiles by severity, then by Open, Ignored and
// Resolved status. Rows with another severity are not counted. Unreadable
// files are skipped. It also returns the number of rows read.
func (reportClient *ReportClient) Build(orgID string, date time.Time, csvFiles []string) (*types.Report, int) {
	report := &types.Report{
		Date:  date.Format(dateLayout),
		OrgID: orgID,
	}

	records := 0
	for i, csvFile := range csvFiles {
		header, rows, err := csv.ReadIssueRows(reportClient.Fs, csvFile)
		if err != nil {
			reportClient.Logger.Warnf("Failed to process CSV file %d: %v", i+1, err)
			if header == nil {
				continue
			}
		}

		for _, row := range rows {
			severity, ok := types.ParseSeverity(row[types.ColumnIssueSeverity])
			if !ok {
				continue
			}
			report.Report.Stats(severity).Add(strings.TrimSpace(row[types.ColumnIssueStatus]))
		}

		records += len(rows)
		reportClient.Logger.Infof("Processed %d records from CSV file %d", len(rows), i+1)
	}

	return report, records
}

func (reportClient *ReportClient) Save(report *types.Report) (string, error) {
	path, err := reportClient.JsonClient.Export(report, FileName(report.Date))
	if err != nil {
		return "", fmt.Errorf("failed to write JSON report: %w", err)
	}
	reportClient.Logger.Infof("Report saved to: %s", path)
	return path, nil
}
