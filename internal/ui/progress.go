package ui

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"charm.land/bubbles/v2/spinner"
	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"
)

// wellState is the generation state of one well.
type wellState int

const (
	wellQueued wellState = iota
	wellGenerating
	wellDone
	wellFailed
)

type wellRow struct {
	name    string
	state   wellState
	records int
}

// GenerationModel renders synthetic well generation: one row per well, a
// record counter against the expected total, and the output write.
type GenerationModel struct {
	spinner  spinner.Model
	title    string
	wells    []wellRow
	perWell  int
	records  int
	output   string
	writing  wellState
	note     string
	done     bool
	err      error
	quitting bool
}

// NewGenerationModel queues every well with perWell expected records.
func NewGenerationModel(title string, wells []string, perWell int) GenerationModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(ColorSecondary)

	rows := make([]wellRow, len(wells))
	for i, w := range wells {
		rows[i] = wellRow{name: w}
	}
	return GenerationModel{spinner: s, title: title, wells: rows, perWell: perWell}
}

func (m GenerationModel) Init() tea.Cmd {
	return m.spinner.Tick
}

// WellStartedMsg marks a well as generating.
type WellStartedMsg struct{ Index int }

// WellDoneMsg reports the records drawn for a well.
type WellDoneMsg struct {
	Index   int
	Records int
}

// WriteStartedMsg marks the output file as being written.
type WriteStartedMsg struct{ Path string }

// WriteDoneMsg marks the output file as written.
type WriteDoneMsg struct{}

// NoteMsg replaces the line shown under the wells.
type NoteMsg string

// GenerationDoneMsg ends the display. A non-nil Err fails the running row.
type GenerationDoneMsg struct{ Err error }

func (m GenerationModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			m.quitting = true
			return m, tea.Quit
		}

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case WellStartedMsg:
		if m.valid(msg.Index) {
			m.wells[msg.Index].state = wellGenerating
		}

	case WellDoneMsg:
		if m.valid(msg.Index) && m.wells[msg.Index].state != wellDone {
			m.wells[msg.Index].state = wellDone
			m.wells[msg.Index].records = msg.Records
			m.records += msg.Records
		}

	case WriteStartedMsg:
		m.output = msg.Path
		m.writing = wellGenerating

	case WriteDoneMsg:
		m.writing = wellDone

	case NoteMsg:
		m.note = string(msg)

	case GenerationDoneMsg:
		m.done = true
		m.err = msg.Err
		if msg.Err != nil {
			for i := range m.wells {
				if m.wells[i].state == wellGenerating {
					m.wells[i].state = wellFailed
				}
			}
			if m.writing == wellGenerating {
				m.writing = wellFailed
			}
		}
		return m, tea.Quit
	}
	return m, nil
}

func (m GenerationModel) valid(i int) bool { return i >= 0 && i < len(m.wells) }

// expected is the number of records the queued wells will produce.
func (m GenerationModel) expected() int { return m.perWell * len(m.wells) }

func (m GenerationModel) icon(s wellState) (string, styleWrapper) {
	switch s {
	case wellGenerating:
		return m.spinner.View(), StepRunning
	case wellDone:
		return GetCheckMark(), StepComplete
	case wellFailed:
		return GetCrossMark(), StepFailed
	default:
		return Muted.Render("○"), StepPending
	}
}

func (m GenerationModel) View() tea.View {
	if m.quitting {
		return tea.NewView("")
	}
	return tea.NewView(m.render())
}

func (m GenerationModel) render() string {
	var b strings.Builder
	if m.title != "" {
		b.WriteString(Title.Render(m.title))
		b.WriteString("\n\n")
	}

	for _, w := range m.wells {
		icon, style := m.icon(w.state)
		b.WriteString(fmt.Sprintf("%s %s", icon, style.Render("well "+w.name)))
		if w.state == wellDone {
			b.WriteString(Dim.Render(fmt.Sprintf(" → %d record(s)", w.records)))
		}
		b.WriteString("\n")
	}
	if m.output != "" {
		icon, style := m.icon(m.writing)
		b.WriteString(fmt.Sprintf("%s %s\n", icon, style.Render("write "+m.output)))
	}

	if total := m.expected(); total > 0 {
		b.WriteString("\n")
		b.WriteString(renderProgressBar(float64(m.records)/float64(total), 30))
		b.WriteString(fmt.Sprintf(" %d/%d records", m.records, total))
	}
	if m.note != "" {
		b.WriteString("\n")
		b.WriteString(Dim.Render(m.note))
	}

	if m.done {
		b.WriteString("\n\n")
		if m.err != nil {
			b.WriteString(ErrorBox.Render(GetCrossMark() + " " + m.err.Error()))
		} else {
			finished := 0
			for _, w := range m.wells {
				if w.state == wellDone {
					finished++
				}
			}
			b.WriteString(Success.Render(fmt.Sprintf("✓ %d/%d wells, %d records", finished, len(m.wells), m.records)))
		}
	}
	return b.String()
}

// GenerationTracker drives a GenerationModel from generator callbacks
// without the caller touching Bubble Tea.
type GenerationTracker struct {
	mu      sync.Mutex
	program *tea.Program
	running bool
}

// StartGenerationTracker starts the display in the background.
func StartGenerationTracker(title string, wells []string, perWell int) *GenerationTracker {
	gt := &GenerationTracker{
		program: tea.NewProgram(NewGenerationModel(title, wells, perWell), tea.WithoutSignalHandler()),
		running: true,
	}
	go func() {
		gt.program.Run()
	}()
	// let the first frame render
	time.Sleep(50 * time.Millisecond)
	return gt
}

func (gt *GenerationTracker) send(msg tea.Msg) {
	gt.mu.Lock()
	defer gt.mu.Unlock()
	if gt.running {
		gt.program.Send(msg)
	}
}

func (gt *GenerationTracker) WellStarted(idx int) { gt.send(WellStartedMsg{Index: idx}) }
func (gt *GenerationTracker) WellDone(idx, records int) { gt.send(WellDoneMsg{Index: idx, Records: records}) }
func (gt *GenerationTracker) WriteStarted(path string) { gt.send(WriteStartedMsg{Path: path}) }
func (gt *GenerationTracker) WriteDone() { gt.send(WriteDoneMsg{}) }
func (gt *GenerationTracker) Note(format string, a ...any) { gt.send(NoteMsg(fmt.Sprintf(format, a...))) }

// Finish renders the final state and stops the display.
func (gt *GenerationTracker) Finish(err error) {
	gt.mu.Lock()
	defer gt.mu.Unlock()
	if !gt.running {
		return
	}
	gt.program.Send(GenerationDoneMsg{Err: err})
	gt.running = false
	time.Sleep(100 * time.Millisecond)
}
