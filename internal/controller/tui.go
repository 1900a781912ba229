package controller

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/marsh-hen/refix/internal/domain"
	m "github.com/marsh-hen/refix/internal/model"
)

// TUI implements UI using Bubble Tea for interactive review of matches.
type TUI struct {
	output io.Writer
}

// NewTUI creates a new TUI writing to output.
func NewTUI(output io.Writer) *TUI {
	return &TUI{output: output}
}

// Run drives the full phase sequence until the operator quits.
func (t *TUI) Run(ctx context.Context, session *domain.Session, defaults Defaults) error {
	root := newRootModel(ctx, session, defaults)

	program := tea.NewProgram(root, tea.WithOutput(t.output), tea.WithAltScreen(), tea.WithContext(ctx))

	final, err := program.Run()
	if err != nil {
		return err
	}

	if model, ok := final.(rootModel); ok && model.fatal != nil {
		return model.fatal
	}

	return nil
}

// phase is the linear phase sequence the front end walks through.
type phase int

const (
	phaseConfigure phase = iota
	phaseScanning
	phaseReviewing
	phaseApplying
	phaseReport
)

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("6"))
	subtleStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
	okStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	warnStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("3"))
)

type rootModel struct {
	ctx      context.Context
	session  *domain.Session
	defaults Defaults

	phase  phase
	width  int
	height int
	fatal  error

	form   formModel
	review reviewModel
	spin   spinner.Model
	prog   progress.Model

	// scanning state
	scan          *domain.Scan
	scanCancel    context.CancelFunc
	filesFound    int
	matchesFound  int
	notices       []m.ScanNotice
	resultsClosed bool
	noticesClosed bool

	// applying state
	reports    <-chan m.FileReport
	totalFiles int
	doneFiles  int
	summary    m.ReplaceSummary
	errPos     int
}

func newRootModel(ctx context.Context, session *domain.Session, defaults Defaults) rootModel {
	spin := spinner.New()
	spin.Spinner = spinner.Dot

	prog := progress.New(
		progress.WithDefaultGradient(),
		progress.WithWidth(40),
	)

	return rootModel{
		ctx:      ctx,
		session:  session,
		defaults: defaults,
		form:     newFormModel(defaults),
		review:   newReviewModel(),
		spin:     spin,
		prog:     prog,
	}
}

func (r rootModel) Init() tea.Cmd {
	return textinputBlink()
}

func (r rootModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		r.width = msg.Width
		r.height = msg.Height
		r.review.setSize(msg.Width, msg.Height-6)

		return r, nil

	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			return r, tea.Quit
		}

	case scanResultMsg:
		r.filesFound++
		r.matchesFound += len(msg.result.Matches)

		return r, listenResults(r.scan.Results)

	case scanNoticeMsg:
		r.notices = append(r.notices, msg.notice)

		return r, listenNotices(r.scan.Notices)

	case scanStreamClosedMsg:
		if msg.notices {
			r.noticesClosed = true
		} else {
			r.resultsClosed = true
		}

		if r.resultsClosed && r.noticesClosed {
			return r, waitScan(r.scan)
		}

		return r, nil

	case scanDoneMsg:
		return r.finishScan(msg.err)

	case applyReportMsg:
		r.doneFiles++
		r.summary.Add(msg.report)

		return r, listenReports(r.reports)

	case applyDoneMsg:
		r.phase = phaseReport
		r.errPos = 0

		return r, nil

	case spinner.TickMsg:
		if r.phase != phaseScanning {
			return r, nil
		}

		var cmd tea.Cmd
		r.spin, cmd = r.spin.Update(msg)

		return r, cmd
	}

	switch r.phase {
	case phaseConfigure:
		return r.updateConfigure(msg)
	case phaseScanning:
		return r.updateScanning(msg)
	case phaseReviewing:
		return r.updateReviewing(msg)
	case phaseApplying:
		return r, nil
	case phaseReport:
		return r.updateReport(msg)
	}

	return r, nil
}

func (r rootModel) updateConfigure(msg tea.Msg) (tea.Model, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok && key.Type == tea.KeyEnter {
		return r.startScan()
	}

	var cmd tea.Cmd
	r.form, cmd = r.form.Update(msg)

	return r, cmd
}

func (r rootModel) startScan() (tea.Model, tea.Cmd) {
	spec := r.form.spec(r.defaults.Spec.Root)

	scanCtx, cancel := context.WithCancel(r.ctx)

	scan, err := r.session.Search(scanCtx, spec)
	if err != nil {
		cancel()

		var cfgErr *m.ConfigError
		if errors.As(err, &cfgErr) {
			r.form.setError(cfgErr)

			return r, nil
		}

		r.fatal = err

		return r, tea.Quit
	}

	r.scan = scan
	r.scanCancel = cancel
	r.phase = phaseScanning
	r.filesFound = 0
	r.matchesFound = 0
	r.notices = nil
	r.resultsClosed = false
	r.noticesClosed = false

	return r, tea.Batch(r.spin.Tick, listenResults(scan.Results), listenNotices(scan.Notices))
}

func (r rootModel) updateScanning(msg tea.Msg) (tea.Model, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok && key.Type == tea.KeyEsc {
		r.scanCancel()
	}

	return r, nil
}

func (r rootModel) finishScan(err error) (tea.Model, tea.Cmd) {
	r.scanCancel()

	if err != nil {
		// Operator abort or walker failure: back to the form, keeping the
		// entered values.
		r.phase = phaseConfigure
		if !errors.Is(err, context.Canceled) {
			r.form.setError(m.NewConfigError("search", "scan failed", err))
		}

		return r, textinputBlink()
	}

	r.review.load(r.session.Registry())
	r.phase = phaseReviewing

	return r, nil
}

func (r rootModel) updateReviewing(msg tea.Msg) (tea.Model, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok || r.review.filtering() {
		var cmd tea.Cmd
		r.review, cmd = r.review.Update(msg)

		return r, cmd
	}

	switch {
	case key.Type == tea.KeyEnter:
		return r.startApply()
	case key.Type == tea.KeyCtrlO, key.Type == tea.KeyEsc:
		r.phase = phaseConfigure

		return r, textinputBlink()
	case key.Type == tea.KeyCtrlR:
		r.form = newFormModel(r.defaults)
		r.phase = phaseConfigure

		return r, textinputBlink()
	case key.String() == " ":
		r.review.toggleSelected(r.session.Registry())

		return r, nil
	case key.String() == "a":
		r.review.toggleFile(r.session.Registry())

		return r, nil
	case key.String() == "A":
		r.review.toggleAll(r.session.Registry())

		return r, nil
	case key.String() == "q":
		return r, tea.Quit
	}

	var cmd tea.Cmd
	r.review, cmd = r.review.Update(msg)

	return r, cmd
}

func (r rootModel) startApply() (tea.Model, tea.Cmd) {
	reports, err := r.session.Commit(r.ctx, m.ReplaceSpec{Template: r.form.template()})
	if err != nil {
		r.fatal = err

		return r, tea.Quit
	}

	r.reports = reports
	r.totalFiles = r.session.Registry().FileCount()
	r.doneFiles = 0
	r.summary = m.ReplaceSummary{}
	r.phase = phaseApplying

	return r, listenReports(reports)
}

func (r rootModel) updateReport(msg tea.Msg) (tea.Model, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return r, nil
	}

	switch {
	case key.Type == tea.KeyCtrlO:
		r.phase = phaseConfigure

		return r, textinputBlink()
	case key.Type == tea.KeyCtrlR:
		r.form = newFormModel(r.defaults)
		r.phase = phaseConfigure

		return r, textinputBlink()
	case key.Type == tea.KeyUp:
		if r.errPos > 0 {
			r.errPos--
		}
	case key.Type == tea.KeyDown:
		if r.errPos < len(r.summary.Errors)-1 {
			r.errPos++
		}
	case key.Type == tea.KeyEnter, key.Type == tea.KeyEsc, key.String() == "q":
		return r, tea.Quit
	}

	return r, nil
}

func (r rootModel) View() string {
	switch r.phase {
	case phaseConfigure:
		return r.form.View()
	case phaseScanning:
		return r.viewScanning()
	case phaseReviewing:
		return r.review.View()
	case phaseApplying:
		return r.viewApplying()
	case phaseReport:
		return r.viewReport()
	}

	return ""
}

func (r rootModel) viewScanning() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("Scanning") + "\n\n")
	fmt.Fprintf(&b, "%s %d files with matches, %d matches", r.spin.View(), r.filesFound, r.matchesFound)

	if len(r.notices) > 0 {
		fmt.Fprintf(&b, "\n%s", subtleStyle.Render(fmt.Sprintf("%d paths skipped", len(r.notices))))
	}

	b.WriteString("\n\n" + subtleStyle.Render("esc to cancel"))

	return b.String()
}

func (r rootModel) viewApplying() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("Applying replacements") + "\n\n")

	percent := 1.0
	if r.totalFiles > 0 {
		percent = float64(r.doneFiles) / float64(r.totalFiles)
	}

	b.WriteString(r.prog.ViewAs(percent))
	fmt.Fprintf(&b, "\n%d/%d files", r.doneFiles, r.totalFiles)

	return b.String()
}

func (r rootModel) viewReport() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("Results") + "\n\n")
	b.WriteString(okStyle.Render(fmt.Sprintf("Applied: %d", r.summary.Applied)) + "\n")
	fmt.Fprintf(&b, "Skipped: %d\n", r.summary.Skipped)

	if r.summary.Stale > 0 {
		b.WriteString(warnStyle.Render(fmt.Sprintf("Stale:   %d", r.summary.Stale)) + "\n")
	}

	if r.summary.Failed > 0 {
		b.WriteString(errorStyle.Render(fmt.Sprintf("Failed:  %d", r.summary.Failed)) + "\n")
	}

	if len(r.summary.Errors) > 0 {
		b.WriteString("\n" + titleStyle.Render("Errors") + "\n")

		for i, e := range r.summary.Errors {
			cursor := "  "
			if i == r.errPos {
				cursor = "> "
			}

			fmt.Fprintf(&b, "%s%s:%d  %s\n", cursor, e.Rel, e.LineNumber, errorStyle.Render(e.Reason))
		}
	}

	b.WriteString("\n" + subtleStyle.Render("enter/q quit · ctrl+o edit search · ctrl+r new search"))

	return b.String()
}

func listenResults(ch <-chan m.FileScanResult) tea.Cmd {
	return func() tea.Msg {
		result, ok := <-ch
		if !ok {
			return scanStreamClosedMsg{}
		}

		return scanResultMsg{result: result}
	}
}

func listenNotices(ch <-chan m.ScanNotice) tea.Cmd {
	return func() tea.Msg {
		notice, ok := <-ch
		if !ok {
			return scanStreamClosedMsg{notices: true}
		}

		return scanNoticeMsg{notice: notice}
	}
}

func waitScan(scan *domain.Scan) tea.Cmd {
	return func() tea.Msg {
		return scanDoneMsg{err: scan.Wait()}
	}
}

func listenReports(ch <-chan m.FileReport) tea.Cmd {
	return func() tea.Msg {
		report, ok := <-ch
		if !ok {
			return applyDoneMsg{}
		}

		return applyReportMsg{report: report}
	}
}
