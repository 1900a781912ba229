package controller

import (
	"bytes"
	"context"
	"fmt"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/marsh-hen/refix/internal/domain"
	m "github.com/marsh-hen/refix/internal/model"
)

// SimpleUI implements UI using cobra Command's Println. It runs one
// non-interactive cycle: scan, replace every match, print a summary table.
type SimpleUI struct {
	cmd *cobra.Command
}

// NewSimpleUI creates a new SimpleUI.
func NewSimpleUI(cmd *cobra.Command) *SimpleUI {
	return &SimpleUI{cmd: cmd}
}

// Run scans with the given defaults and applies every match found.
func (s *SimpleUI) Run(ctx context.Context, session *domain.Session, defaults Defaults) error {
	if defaults.Spec.Pattern == "" {
		return m.NewConfigError("search", "a search pattern is required without a terminal", nil)
	}

	scan, err := session.Search(ctx, defaults.Spec)
	if err != nil {
		return err
	}

	if err := s.drainScan(scan); err != nil {
		return err
	}

	registry := session.Registry()
	if registry.TotalCount() == 0 {
		s.printf("no matches for %q\n", defaults.Spec.Pattern)

		return nil
	}

	s.printf("%d matches in %d files\n", registry.TotalCount(), registry.FileCount())

	reports, err := session.Commit(ctx, defaults.Replace)
	if err != nil {
		return err
	}

	var summary m.ReplaceSummary

	fileRows := make([][]string, 0, registry.FileCount())

	for report := range reports {
		summary.Add(report)
		fileRows = append(fileRows, []string{report.Rel, s.fileStatus(report)})
	}

	// Stale and failed outcomes are part of a normal completion; they are
	// already visible in the summary and error listing.
	s.printSummary(fileRows, summary)

	return nil
}

func (s *SimpleUI) drainScan(scan *domain.Scan) error {
	for scan.Results != nil || scan.Notices != nil {
		select {
		case _, ok := <-scan.Results:
			if !ok {
				scan.Results = nil
			}
		case notice, ok := <-scan.Notices:
			if !ok {
				scan.Notices = nil

				continue
			}

			s.printf("%s %s: %s\n", color.YellowString("skip"), notice.Path, notice.Reason)
		}
	}

	return scan.Wait()
}

func (s *SimpleUI) fileStatus(report m.FileReport) string {
	counts := make(map[m.OutcomeKind]int)
	for _, outcome := range report.Outcomes {
		counts[outcome.Kind]++
	}

	switch {
	case counts[m.OutcomeFailedIO] > 0:
		return color.RedString("failed")
	case counts[m.OutcomeStale] > 0:
		return color.YellowString("stale")
	case counts[m.OutcomeApplied] > 0:
		return color.GreenString(fmt.Sprintf("replaced %d", counts[m.OutcomeApplied]))
	default:
		return "skipped"
	}
}

func (s *SimpleUI) printSummary(fileRows [][]string, summary m.ReplaceSummary) {
	var tableBuffer bytes.Buffer

	table := tablewriter.NewWriter(&tableBuffer)
	table.SetHeader([]string{"Path", "Result"})
	table.SetBorder(false)
	table.SetCenterSeparator("")
	table.SetColumnAlignment([]int{tablewriter.ALIGN_LEFT, tablewriter.ALIGN_LEFT})

	for _, row := range fileRows {
		table.Append(row)
	}

	table.SetFooter([]string{
		fmt.Sprintf("Applied %d", summary.Applied),
		fmt.Sprintf("Stale %d / Failed %d", summary.Stale, summary.Failed),
	})

	table.Render()
	s.printf("\n%s", tableBuffer.String())

	for _, replaceErr := range summary.Errors {
		s.printf("%s %s:%d %s\n",
			color.RedString(string(replaceErr.Kind)), replaceErr.Rel, replaceErr.LineNumber, replaceErr.Reason)
	}
}

func (s *SimpleUI) printf(format string, args ...interface{}) {
	_, _ = fmt.Fprintf(s.cmd.OutOrStdout(), format, args...)
}
