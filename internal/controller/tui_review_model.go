package controller

import (
	"fmt"
	"io"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/marsh-hen/refix/internal/domain"
	m "github.com/marsh-hen/refix/internal/model"
)

// matchItem is one registry match rendered in the review list.
type matchItem struct {
	id       m.MatchID
	rel      string
	line     int
	snapshot string
	start    int
	end      int
	included bool
}

func (i matchItem) FilterValue() string {
	return i.rel + " " + i.snapshot
}

// matchDelegate renders a single review row: checkbox, location and the
// matched line with the hit highlighted.
type matchDelegate struct{}

func (d matchDelegate) Height() int  { return 1 }
func (d matchDelegate) Spacing() int { return 0 }
func (d matchDelegate) Update(_ tea.Msg, _ *list.Model) tea.Cmd {
	return nil
}

func (d matchDelegate) Render(w io.Writer, lm list.Model, index int, item list.Item) {
	match, ok := item.(matchItem)
	if !ok {
		return
	}

	isSelected := index == lm.Index()

	var rowStyle, locStyle, hitStyle lipgloss.Style

	if isSelected {
		rowStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("0")).
			Background(lipgloss.Color("6"))
		locStyle = rowStyle.Bold(true)
		hitStyle = rowStyle.Bold(true).Underline(true)
	} else {
		rowStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("7"))
		locStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("14"))
		hitStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("11")).Bold(true)
	}

	if !match.included && !isSelected {
		rowStyle = subtleStyle
		locStyle = subtleStyle
		hitStyle = subtleStyle
	}

	box := "[ ]"
	if match.included {
		box = "[x]"
	}

	loc := fmt.Sprintf("%s:%d", match.rel, match.line)

	before := match.snapshot[:match.start]
	hit := match.snapshot[match.start:match.end]
	after := match.snapshot[match.end:]

	remaining := lm.Width() - lipgloss.Width(box) - lipgloss.Width(loc) - 4
	remaining -= lipgloss.Width(before) + lipgloss.Width(hit)

	line := fmt.Sprintf("%s %s  %s%s%s",
		rowStyle.Render(box),
		locStyle.Render(loc),
		rowStyle.Render(before),
		hitStyle.Render(hit),
		rowStyle.Render(truncateToWidth(after, remaining)),
	)
	_, _ = fmt.Fprint(w, line)
}

func truncateToWidth(text string, width int) string {
	if width <= 0 {
		return ""
	}

	if lipgloss.Width(text) <= width {
		return text
	}

	const ellipsis = "…"

	maxWidth := width - lipgloss.Width(ellipsis)
	if maxWidth <= 0 {
		return ellipsis
	}

	currentWidth := 0

	result := make([]rune, 0, len(text))
	for _, r := range text {
		rWidth := lipgloss.Width(string(r))
		if currentWidth+rWidth > maxWidth {
			break
		}

		result = append(result, r)
		currentWidth += rWidth
	}

	return string(result) + ellipsis
}

// reviewModel is the Reviewing phase: every match in one list, toggled
// individually, per file, or all at once.
type reviewModel struct {
	matchList list.Model
	included  int
	total     int
	files     int
}

func newReviewModel() reviewModel {
	matchList := list.New([]list.Item{}, matchDelegate{}, 80, 20)
	matchList.SetShowPagination(false)
	matchList.SetShowFilter(true)
	matchList.SetShowHelp(false)
	matchList.SetShowTitle(false)
	matchList.SetShowStatusBar(false)
	matchList.FilterInput.Placeholder = "Filter by path…"

	return reviewModel{matchList: matchList}
}

func (r *reviewModel) setSize(width, height int) {
	if height < 5 {
		height = 5
	}

	r.matchList.SetWidth(width)
	r.matchList.SetHeight(height)
}

// load rebuilds the list from the registry, keeping file order.
func (r *reviewModel) load(reg *domain.Registry) {
	files := reg.Files()

	var items []list.Item

	for _, file := range files {
		for _, match := range file.Matches {
			items = append(items, matchItem{
				id:       match.ID,
				rel:      file.Rel,
				line:     match.LineNumber,
				snapshot: match.Line,
				start:    match.Start,
				end:      match.End,
				included: match.Included,
			})
		}
	}

	r.matchList.SetItems(items)
	r.matchList.Select(0)
	r.included = reg.IncludedCount()
	r.total = reg.TotalCount()
	r.files = reg.FileCount()
}

// filtering reports whether the list's filter input is capturing keys.
func (r reviewModel) filtering() bool {
	return r.matchList.FilterState() == list.Filtering
}

func (r *reviewModel) selected() (matchItem, bool) {
	item, ok := r.matchList.SelectedItem().(matchItem)

	return item, ok
}

func (r *reviewModel) toggleSelected(reg *domain.Registry) {
	item, ok := r.selected()
	if !ok {
		return
	}

	item.included = reg.Toggle(item.id)

	// Index() is relative to the filtered view, but SetItem addresses the
	// full slice. Resolve the row by id.
	for i, raw := range r.matchList.Items() {
		if row, ok := raw.(matchItem); ok && row.id == item.id {
			r.matchList.SetItem(i, item)

			break
		}
	}

	r.included = reg.IncludedCount()
}

func (r *reviewModel) toggleFile(reg *domain.Registry) {
	item, ok := r.selected()
	if !ok {
		return
	}

	// Flip the whole file to the opposite of the current row.
	reg.SetFile(item.rel, !item.included)
	r.reloadIncluded(reg)
}

func (r *reviewModel) toggleAll(reg *domain.Registry) {
	reg.SetAll(reg.IncludedCount() < reg.TotalCount())
	r.reloadIncluded(reg)
}

// reloadIncluded refreshes item checkboxes from the registry after a bulk
// toggle.
func (r *reviewModel) reloadIncluded(reg *domain.Registry) {
	included := make(map[m.MatchID]bool)

	for _, file := range reg.Files() {
		for _, match := range file.Matches {
			included[match.ID] = match.Included
		}
	}

	items := r.matchList.Items()
	for i, raw := range items {
		item, ok := raw.(matchItem)
		if !ok {
			continue
		}

		item.included = included[item.id]
		r.matchList.SetItem(i, item)
	}

	r.included = reg.IncludedCount()
}

func (r reviewModel) Update(msg tea.Msg) (reviewModel, tea.Cmd) {
	var cmd tea.Cmd
	r.matchList, cmd = r.matchList.Update(msg)

	return r, cmd
}

func (r reviewModel) View() string {
	header := titleStyle.Render("Review matches") + "  " +
		subtleStyle.Render(fmt.Sprintf("%d/%d selected in %d files", r.included, r.total, r.files))

	footer := subtleStyle.Render(
		"space toggle · a file · A all · enter replace · ctrl+o edit search · ctrl+r reset · q quit")

	return lipgloss.JoinVertical(lipgloss.Left, header, "", r.matchList.View(), "", footer)
}
