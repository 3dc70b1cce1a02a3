package console

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/briandowns/spinner"
	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"

	"github.com/ben-hur-snyk/snyk-scripts/types"
)

const ruleWidth = 59

// Console prints the human facing progress of a command. Logs go through
// logrus, this is only for the terminal.
type Console struct {
	Out     io.Writer
	NoColor bool
}

func NewConsole(out io.Writer) *Console {
	return &Console{
		Out:     out,
		NoColor: color.NoColor,
	}
}

func (console *Console) style(attributes ...color.Attribute) *color.Color {
	style := color.New(attributes...)
	if console.NoColor {
		style.DisableColor()
	} else {
		style.EnableColor()
	}
	return style
}

func (console *Console) Println(format string, args ...any) {
	fmt.Fprintf(console.Out, format+"\n", args...)
}

func (console *Console) Rule() {
	console.style(color.FgBlue, color.Bold).Fprintln(console.Out, strings.Repeat("═", ruleWidth))
}

// Banner prints a title framed by two rules.
func (console *Console) Banner(title string) {
	console.Rule()
	padding := (ruleWidth - len(title)) / 2
	if padding < 0 {
		padding = 0
	}
	console.style(color.FgWhite, color.Bold).Fprintln(console.Out, strings.Repeat(" ", padding)+title)
	console.Rule()
}

// Field prints a "Label: value" line.
func (console *Console) Field(label string, value any) {
	console.style(color.Bold).Fprintf(console.Out, "%s: ", label)
	console.style(color.FgCyan).Fprintln(console.Out, value)
}

func (console *Console) Step(number int, message string) {
	console.style(color.FgYellow, color.Bold).Fprintf(console.Out, "Step %d: ", number)
	fmt.Fprintln(console.Out, message)
}

func (console *Console) Success(format string, args ...any) {
	console.style(color.FgGreen).Fprint(console.Out, "✓ ")
	fmt.Fprintf(console.Out, format+"\n", args...)
}

func (console *Console) Failure(format string, args ...any) {
	console.style(color.FgRed).Fprint(console.Out, "✗ ")
	fmt.Fprintf(console.Out, format+"\n", args...)
}

func (console *Console) Warning(format string, args ...any) {
	console.style(color.FgYellow).Fprintf(console.Out, format+"\n", args...)
}

// Error prints a bold red label followed by the error text.
func (console *Console) Error(label string, err error) {
	console.style(color.FgRed, color.Bold).Fprintf(console.Out, "%s: ", label)
	fmt.Fprintln(console.Out, err)
}

func (console *Console) Table(title string, header []string, rows [][]string, alignments []int) {
	if title != "" {
		console.style(color.Italic).Fprintln(console.Out, title)
	}

	table := tablewriter.NewWriter(console.Out)
	table.SetAutoFormatHeaders(false)
	table.SetAutoWrapText(false)
	table.SetHeader(header)
	if !console.NoColor {
		headerColors := make([]tablewriter.Colors, len(header))
		for i := range headerColors {
			headerColors[i] = tablewriter.Colors{tablewriter.Bold, tablewriter.FgCyanColor}
		}
		table.SetHeaderColor(headerColors...)
	}
	if alignments != nil {
		table.SetColumnAlignment(alignments)
	}
	table.AppendBulk(rows)
	table.Render()
}

// SummaryTables renders one table per status, skipping statuses without rows.
func (console *Console) SummaryTables(summaries []types.StatusSummary) {
	if len(summaries) == 0 {
		console.Warning("No summary data to display.")
		return
	}

	alignments := []int{tablewriter.ALIGN_LEFT, tablewriter.ALIGN_RIGHT, tablewriter.ALIGN_RIGHT, tablewriter.ALIGN_RIGHT, tablewriter.ALIGN_RIGHT}
	for _, summary := range summaries {
		if len(summary.Rows) == 0 {
			continue
		}

		rows := make([][]string, 0, len(summary.Rows))
		for _, row := range summary.Rows {
			rows = append(rows, []string{
				row.OrgDisplayName,
				strconv.Itoa(row.Counts.Critical),
				strconv.Itoa(row.Counts.High),
				strconv.Itoa(row.Counts.Medium),
				strconv.Itoa(row.Counts.Low),
			})
		}

		fmt.Fprintln(console.Out)
		console.Table(fmt.Sprintf("Results Review - Status: %s", summary.Status), types.SummaryHeader, rows, alignments)
	}
	fmt.Fprintln(console.Out)
}

func (console *Console) ReportTable(report *types.Report) {
	rows := make([][]string, 0, len(types.Severities))
	for _, severity := range types.Severities {
		stats := report.Report.Stats(severity)
		rows = append(rows, []string{
			string(severity),
			strconv.Itoa(stats.Total),
			strconv.Itoa(stats.Open),
			strconv.Itoa(stats.Ignored),
			strconv.Itoa(stats.Resolved),
		})
	}

	alignments := []int{tablewriter.ALIGN_LEFT, tablewriter.ALIGN_RIGHT, tablewriter.ALIGN_RIGHT, tablewriter.ALIGN_RIGHT, tablewriter.ALIGN_RIGHT}
	console.Table(fmt.Sprintf("Status report %s - %s", report.OrgID, report.Date), []string{"SEVERITY", "TOTAL", "OPEN", "IGNORED", "RESOLVED"}, rows, alignments)
}

type Spinner struct {
	spinner *spinner.Spinner
}

// Spinner starts a progress indicator. It stays silent when Out is not a
// terminal.
func (console *Console) Spinner(message string) *Spinner {
	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond, spinner.WithWriter(console.Out))
	s.Suffix = " " + message
	s.Start()
	return &Spinner{spinner: s}
}

func (s *Spinner) Update(message string) {
	s.spinner.Lock()
	s.spinner.Suffix = " " + message
	s.spinner.Unlock()
}

func (s *Spinner) Stop() {
	s.spinner.Stop()
}
