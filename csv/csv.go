package csv

import (
	csvwriter "encoding/csv"
	"fmt"
	"io"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"

	"github.com/ben-hur-snyk/snyk-scripts/filepathparser"
	"github.com/ben-hur-snyk/snyk-scripts/types"
)

const (
	ReviewInputPattern  = "csv_*.csv"
	IssuesFilePrefix    = "issues-"
	SummaryFilePrefix   = "summary-"
	utf8ByteOrderMarker = "\ufeff"
)

var csvFileIndexPattern = regexp.MustCompile(`_(\d+)\.csv$`)

type IReviewCsvClient interface {
	Review() ([]types.StatusSummary, error)
}

type ReviewCsvClient struct {
	Fs                afero.Fs
	WorkingFolderPath string
	Logger            *logrus.Logger
}

func NewReviewCsvClient(fs afero.Fs, workingFolderPath string, logger *logrus.Logger) *ReviewCsvClient {
	return &ReviewCsvClient{
		Fs:                fs,
		WorkingFolderPath: workingFolderPath,
		Logger:            logger,
	}
}

type IssueCsv struct {
	Header []string
	Rows   []types.IssueRow
}

func (csv *IssueCsv) AddRow(row types.IssueRow) {
	csv.Rows = append(csv.Rows, row)
}

type reviewState struct {
	header   []string
	byStatus map[string]*IssueCsv
	counts   map[string]map[string]*types.SeverityCounts
}

// Review groups every row of the downloaded csv_<n>.csv files by ISSUE_STATUS
// and writes issues-<status>.csv and summary-<status>.csv for each status.
// It returns the summaries ordered by status. No input files means no output.
func (csvClient *ReviewCsvClient) Review() ([]types.StatusSummary, error) {
	csvFiles, err := FindCsvFiles(csvClient.Fs, csvClient.WorkingFolderPath, ReviewInputPattern)
	if err != nil {
		return nil, err
	}
	if len(csvFiles) == 0 {
		csvClient.Logger.Warn("No csv_*.csv files found in output folder; skipping results review")
		return nil, nil
	}
	csvClient.Logger.Infof("Generating results review from %d CSV file(s)", len(csvFiles))

	review := &reviewState{
		byStatus: map[string]*IssueCsv{},
		counts:   map[string]map[string]*types.SeverityCounts{},
	}
	for _, csvFile := range csvFiles {
		csvClient.readInput(review, csvFile)
	}

	if len(review.header) == 0 {
		csvClient.Logger.Warn("No CSV header found; skipping issues and summary files")
		return nil, nil
	}

	statuses := make([]string, 0, len(review.byStatus))
	for status := range review.byStatus {
		statuses = append(statuses, status)
	}
	sort.Strings(statuses)

	summaries := make([]types.StatusSummary, 0, len(statuses))
	for _, status := range statuses {
		safeStatus := filepathparser.SafeFileName(status)

		issues := review.byStatus[status]
		issuesFileName := IssuesFilePrefix + safeStatus + ".csv"
		if err := csvClient.writeCsv(issuesFileName, issueRecords(review.header, issues.Rows)); err != nil {
			return nil, err
		}
		csvClient.Logger.Infof("Saved %s with %d issue(s)", issuesFileName, len(issues.Rows))

		summary := types.StatusSummary{Status: status, Rows: summaryRows(review.counts[status])}
		summaryFileName := SummaryFilePrefix + safeStatus + ".csv"
		if err := csvClient.writeCsv(summaryFileName, summaryRecords(summary.Rows)); err != nil {
			return nil, err
		}
		csvClient.Logger.Infof("Saved %s", summaryFileName)

		summaries = append(summaries, summary)
	}

	return summaries, nil
}

func (csvClient *ReviewCsvClient) readInput(review *reviewState, csvFile string) {
	fileName := filepath.Base(csvFile)
	header, rows, err := ReadIssueRows(csvClient.Fs, csvFile)
	if err != nil {
		csvClient.Logger.Warnf("Error reading %s: %v", csvFile, err)
		if header == nil {
			return
		}
	}

	for _, column := range []string{types.ColumnOrgDisplayName, types.ColumnIssueSeverity} {
		if !hasColumn(header, column) {
			csvClient.Logger.Warnf("%s: missing %s column, skipping", fileName, column)
			return
		}
	}
	hasStatus := hasColumn(header, types.ColumnIssueStatus)
	if !hasStatus {
		csvClient.Logger.Warnf("%s: missing %s column, using '%s'", fileName, types.ColumnIssueStatus, types.UnknownIssueStatus)
	}

	if review.header == nil {
		review.header = header
	}

	for _, row := range rows {
		status := types.UnknownIssueStatus
		if hasStatus {
			if value := strings.TrimSpace(row[types.ColumnIssueStatus]); value != "" {
				status = value
			}
		}

		issues, ok := review.byStatus[status]
		if !ok {
			issues = &IssueCsv{Header: review.header}
			review.byStatus[status] = issues
			review.counts[status] = map[string]*types.SeverityCounts{}
		}
		issues.AddRow(row)

		org := strings.TrimSpace(row[types.ColumnOrgDisplayName])
		if org == "" {
			continue
		}
		severity, ok := types.ParseSeverity(row[types.ColumnIssueSeverity])
		if !ok {
			continue
		}
		counts, ok := review.counts[status][org]
		if !ok {
			counts = &types.SeverityCounts{}
			review.counts[status][org] = counts
		}
		counts.Add(severity)
	}
}

func (csvClient *ReviewCsvClient) writeCsv(fileName string, csvData [][]string) error {
	csvFilePath := filepath.Join(csvClient.WorkingFolderPath, fileName)
	csvFile, err := csvClient.Fs.Create(csvFilePath)
	if err != nil {
		return fmt.Errorf("failed to create file %s: %w", csvFilePath, err)
	}

	csvWriter := csvwriter.NewWriter(csvFile)
	if err := csvWriter.WriteAll(csvData); err != nil {
		csvFile.Close()
		return fmt.Errorf("failed to write CSV file %s: %w", csvFilePath, err)
	}
	if err := csvFile.Close(); err != nil {
		return fmt.Errorf("failed to close CSV file %s: %w", csvFilePath, err)
	}
	return nil
}

// FindCsvFiles lists the files matching pattern in folder ordered by the
// numeric index in their name, so csv_2.csv sorts before csv_10.csv.
func FindCsvFiles(fs afero.Fs, folder string, pattern string) ([]string, error) {
	csvFiles, err := afero.Glob(fs, filepath.Join(folder, pattern))
	if err != nil {
		return nil, fmt.Errorf("error listing %s in %s: %w", pattern, folder, err)
	}
	sort.Sort(ByCsvFileIndex(csvFiles))
	return csvFiles, nil
}

// ReadIssueRows reads a CSV file with a header line into rows keyed by column.
// Bare quotes inside unquoted fields are accepted. On a malformed record it
// stops and returns the rows read so far along with the error.
func ReadIssueRows(fs afero.Fs, path string) ([]string, []types.IssueRow, error) {
	csvFile, err := fs.Open(path)
	if err != nil {
		return nil, nil, err
	}
	defer csvFile.Close()

	csvReader := csvwriter.NewReader(csvFile)
	csvReader.FieldsPerRecord = -1
	csvReader.LazyQuotes = true

	header, err := csvReader.Read()
	if err == io.EOF {
		return []string{}, []types.IssueRow{}, nil
	}
	if err != nil {
		return nil, nil, err
	}
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], utf8ByteOrderMarker)
	}

	rows := []types.IssueRow{}
	for {
		record, err := csvReader.Read()
		if err == io.EOF {
			return header, rows, nil
		}
		if err != nil {
			return header, rows, err
		}

		row := types.IssueRow{}
		for i, column := range header {
			if i < len(record) {
				row[column] = record[i]
			}
		}
		rows = append(rows, row)
	}
}

func issueRecords(header []string, rows []types.IssueRow) [][]string {
	csvData := [][]string{header}
	for _, row := range rows {
		record := make([]string, len(header))
		for i, column := range header {
			record[i] = row[column]
		}
		csvData = append(csvData, record)
	}
	return csvData
}

func summaryRows(byOrg map[string]*types.SeverityCounts) []types.SummaryRow {
	rows := make([]types.SummaryRow, 0, len(byOrg))
	for org, counts := range byOrg {
		rows = append(rows, types.SummaryRow{OrgDisplayName: org, Counts: *counts})
	}
	sort.Slice(rows, func(i, j int) bool {
		return rows[i].OrgDisplayName < rows[j].OrgDisplayName
	})
	return rows
}

func summaryRecords(rows []types.SummaryRow) [][]string {
	csvData := [][]string{types.SummaryHeader}
	for _, row := range rows {
		csvData = append(csvData, []string{
			row.OrgDisplayName,
			strconv.Itoa(row.Counts.Critical),
			strconv.Itoa(row.Counts.High),
			strconv.Itoa(row.Counts.Medium),
			strconv.Itoa(row.Counts.Low),
		})
	}
	return csvData
}

func hasColumn(header []string, column string) bool {
	for _, name := range header {
		if name == column {
			return true
		}
	}
	return false
}

type ByCsvFileIndex []string

func (o ByCsvFileIndex) Len() int      { return len(o) }
func (o ByCsvFileIndex) Swap(i, j int) { o[i], o[j] = o[j], o[i] }
func (o ByCsvFileIndex) Less(i, j int) bool {
	left, leftOk := csvFileIndex(o[i])
	right, rightOk := csvFileIndex(o[j])

	if leftOk != rightOk {
		return leftOk
	}
	if leftOk && left != right {
		return left < right
	}
	return o[i] < o[j]
}

func csvFileIndex(path string) (int, bool) {
	match := csvFileIndexPattern.FindStringSubmatch(filepath.Base(path))
	if match == nil {
		return 0, false
	}
	index, err := strconv.Atoi(match[1])
	if err != nil {
		return 0, false
	}
	return index, true
}
