package ui

import (
	"fmt"
	"io"
	"strings"
	"time"

	"charm.land/bubbles/v2/list"
	"charm.land/bubbles/v2/textinput"
	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/FARIDDD123/FormationDamageManagerFCDD/internal/apperr"
)

// RunItem mirrors a stored run from internal/store
// to avoid circular imports
type RunItem struct {
	ID        string
	StartedAt time.Time
	RuleTable string
	Seed      uint64
	Rows      int
	Input     string
}

// DistributionRow is one damage type of a stored run.
type DistributionRow struct {
	DamageType   string
	Rows         int
	MeanSeverity float64
	HasSeverity  bool
}

// PrintRuns lists stored runs, newest first.
func PrintRuns(w io.Writer, runs []RunItem) {
	if len(runs) == 0 {
		fmt.Fprintln(w, Warning.Render(GetWarnMark()+" No runs recorded yet."))
		return
	}
	var sb strings.Builder
	sb.WriteString(SectionHeader.Render(fmt.Sprintf("Recorded Runs (%d)", len(runs))))
	for _, r := range runs {
		sb.WriteString("\n")
		fmt.Fprintf(&sb, "%s %s %s %s",
			Highlight.Render(r.ID),
			Dim.Render(r.StartedAt.Local().Format("2006-01-02 15:04:05")),
			fmt.Sprintf("%d row(s)", r.Rows),
			Dim.Render(fmt.Sprintf("seed=%d rules=%s %s", r.Seed, r.RuleTable, r.Input)))
	}
	fmt.Fprintln(w, Box.Render(sb.String()))
}

// PrintRunDistribution shows the damage type counts of one run.
func PrintRunDistribution(w io.Writer, run RunItem, rows []DistributionRow) {
	var sb strings.Builder
	sb.WriteString(Success.Bold(true).Render("Run " + run.ID))
	sb.WriteString("\n\n")
	sb.WriteString(FormatKeyValue("Started", run.StartedAt.Local().Format(time.RFC1123)))
	sb.WriteString("\n")
	sb.WriteString(FormatKeyValue("Rule table", run.RuleTable))
	sb.WriteString("\n")
	sb.WriteString(FormatKeyValue("Seed", fmt.Sprintf("%d", run.Seed)))
	if run.Input != "" {
		sb.WriteString("\n")
		sb.WriteString(FormatKeyValue("Input", run.Input))
	}
	sb.WriteString("\n\n")

	counts := make([]LabelCount, 0, len(rows))
	var sev []string
	for _, r := range rows {
		counts = append(counts, LabelCount{Label: r.DamageType, Count: r.Rows})
		if r.HasSeverity {
			sev = append(sev, fmt.Sprintf("%s %.2f", displayLabel(r.DamageType), r.MeanSeverity))
		}
	}
	sb.WriteString(SectionHeader.Render("Damage Types"))
	sb.WriteString("\n")
	sb.WriteString(RenderDistribution(counts, run.Rows))
	if len(sev) > 0 {
		sb.WriteString("\n\n")
		sb.WriteString(SectionHeader.Render("Mean Severity"))
		sb.WriteString("\n")
		sb.WriteString(Dim.Render(strings.Join(sev, " · ")))
	}
	fmt.Fprintln(w, SuccessBox.Render(sb.String()))
}

// runItem represents a run in the list
type runItem struct {
	run      RunItem
	selected bool
}

func (i runItem) Title() string {
	var checkbox string
	if i.selected {
		checkbox = Success.Render("[✓] ")
	} else {
		checkbox = Dim.Render("[ ] ")
	}
	return checkbox + i.run.ID
}

func (i runItem) Description() string {
	return fmt.Sprintf("%s %d row(s) · seed %d · %s",
		Dim.Render(i.run.StartedAt.Local().Format("2006-01-02 15:04")+" ·"),
		i.run.Rows,
		i.run.Seed,
		Dim.Render(i.run.Input),
	)
}

func (i runItem) FilterValue() string { return i.run.ID + " " + i.run.Input + " " + i.run.RuleTable }

// runSelectorModel is the Bubble Tea model for picking stored runs
type runSelectorModel struct {
	textInput textinput.Model
	list      list.Model

	runs      []RunItem
	selected  map[string]bool
	query     string
	quitting  bool
	confirmed bool
}

// NewRunSelector creates an interactive selector over runs.
func NewRunSelector(runs []RunItem) *runSelectorModel {
	ti := textinput.New()
	ti.Placeholder = "Filter by run id, input or rule table..."
	ti.CharLimit = 156
	ti.SetWidth(50)

	delegate := list.NewDefaultDelegate()
	delegate.SetHeight(3)
	delegate.SetSpacing(0)
	delegate.Styles.SelectedTitle = delegate.Styles.SelectedTitle.
		Foreground(ColorHighlight).
		BorderForeground(ColorPrimary)
	delegate.Styles.SelectedDesc = delegate.Styles.SelectedDesc.
		Foreground(ColorTextDim).
		BorderForeground(ColorPrimary)

	l := list.New([]list.Item{}, delegate, 76, 18)
	l.Title = "Select Runs"
	l.SetShowStatusBar(true)
	l.SetFilteringEnabled(false)
	l.SetShowHelp(true)
	l.Styles.Title = lipgloss.NewStyle().
		Foreground(ColorPrimary).
		Bold(true).
		Padding(0, 0, 1, 0)

	m := &runSelectorModel{
		textInput: ti,
		list:      l,
		runs:      runs,
		selected:  make(map[string]bool),
	}
	m.applyFilter()
	return m
}

// Init initializes the model
func (m *runSelectorModel) Init() tea.Cmd {
	return nil
}

// Update handles messages
func (m *runSelectorModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if m.textInput.Focused() {
			switch msg.String() {
			case "ctrl+c", "esc":
				m.quitting = true
				return m, tea.Quit
			case "enter", "down", "up":
				m.textInput.Blur()
				return m, nil
			default:
				var cmd tea.Cmd
				m.textInput, cmd = m.textInput.Update(msg)
				if q := m.textInput.Value(); q != m.query {
					m.query = q
					m.applyFilter()
				}
				return m, cmd
			}
		}
		switch msg.String() {
		case "ctrl+c", "esc":
			m.quitting = true
			return m, tea.Quit
		case "enter":
			m.confirmed = true
			m.quitting = true
			return m, tea.Quit
		case "s", "space":
			if i, ok := m.list.SelectedItem().(runItem); ok {
				m.selected[i.run.ID] = !m.selected[i.run.ID]
				m.applyFilter()
			}
			return m, nil
		case "/":
			m.textInput.Focus()
			return m, textinput.Blink
		}

	case tea.WindowSizeMsg:
		m.list.SetSize(msg.Width-4, msg.Height-8)
		return m, nil
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

// View renders the model
func (m *runSelectorModel) View() tea.View {
	if m.quitting {
		return tea.NewView("")
	}

	var b strings.Builder
	b.WriteString(Title.Render("Classification History"))
	b.WriteString("\n\n")
	b.WriteString(Dim.Render("Filter: "))
	b.WriteString(m.textInput.View())
	b.WriteString("\n\n")
	b.WriteString(m.list.View())
	b.WriteString("\n\n")

	if n := len(m.SelectedRuns()); n > 0 {
		b.WriteString(fmt.Sprintf("%s %s\n", Success.Render("Selected:"), Highlight.Render(fmt.Sprintf("%d run(s)", n))))
	}

	helpStyle := lipgloss.NewStyle().Foreground(ColorTextDim)
	if m.textInput.Focused() {
		b.WriteString(helpStyle.Render("enter/↓: back to list · esc: cancel"))
	} else {
		b.WriteString(helpStyle.Render("s: select · ↑/↓: navigate · enter: confirm · /: filter · esc: cancel"))
	}
	return tea.NewView(b.String())
}

// applyFilter rebuilds the list items from the query and selection.
func (m *runSelectorModel) applyFilter() {
	q := strings.ToLower(strings.TrimSpace(m.query))
	items := make([]list.Item, 0, len(m.runs))
	for _, r := range m.runs {
		it := runItem{run: r, selected: m.selected[r.ID]}
		if q != "" && !strings.Contains(strings.ToLower(it.FilterValue()), q) {
			continue
		}
		items = append(items, it)
	}
	m.list.SetItems(items)
}

// SelectedRuns returns the toggled runs in list order.
func (m *runSelectorModel) SelectedRuns() []RunItem {
	var out []RunItem
	for _, r := range m.runs {
		if m.selected[r.ID] {
			out = append(out, r)
		}
	}
	return out
}

// choice falls back to the highlighted run when nothing was toggled.
func (m *runSelectorModel) choice() []RunItem {
	if sel := m.SelectedRuns(); len(sel) > 0 {
		return sel
	}
	if i, ok := m.list.SelectedItem().(runItem); ok {
		return []RunItem{i.run}
	}
	return nil
}

// RunRunSelector runs the interactive selector and returns the chosen runs.
func RunRunSelector(runs []RunItem) ([]RunItem, error) {
	p := tea.NewProgram(NewRunSelector(runs))
	m, err := p.Run()
	if err != nil {
		return nil, err
	}

	model := m.(*runSelectorModel)
	if !model.confirmed {
		return nil, apperr.ErrCancelled
	}
	return model.choice(), nil
}
