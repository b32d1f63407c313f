package ui

import (
	"fmt"
	"io"
	"strings"
	"time"
)

// GenerateUI provides a rich UI for the generate command
type GenerateUI struct {
	writer    io.Writer
	quiet     bool
	tracker   *GenerationTracker
	startTime time.Time
}

// NewGenerateUI creates a new UI handler for the generate command
func NewGenerateUI(w io.Writer, quiet bool) *GenerateUI {
	return &GenerateUI{
		writer:    w,
		quiet:     quiet,
		startTime: time.Now(),
	}
}

// StartProgress shows one row per well, each expected to draw perWell records.
func (g *GenerateUI) StartProgress(wells []string, perWell int) {
	if g.quiet {
		return
	}
	g.startTime = time.Now()
	g.tracker = StartGenerationTracker("Generating synthetic well records", wells, perWell)
}

// StartWell marks the idx-th well as generating
func (g *GenerateUI) StartWell(idx int) {
	if g.tracker != nil {
		g.tracker.WellStarted(idx)
	}
}

// CompleteWell records the rows drawn for the idx-th well
func (g *GenerateUI) CompleteWell(idx int, records int) {
	if g.tracker != nil {
		g.tracker.WellDone(idx, records)
	}
}

// NoteNoise shows the missing-value and noise settings applied to the table.
func (g *GenerateUI) NoteNoise(detail string) {
	if g.tracker != nil {
		g.tracker.Note("noise applied: %s", detail)
	}
}

// StartWriting marks the output file as being written
func (g *GenerateUI) StartWriting(path string) {
	if g.tracker != nil {
		g.tracker.WriteStarted(path)
	}
}

// CompleteWriting marks the output file as written
func (g *GenerateUI) CompleteWriting() {
	if g.tracker != nil {
		g.tracker.WriteDone()
	}
}

// FinishProgress closes the progress display, reporting err when not nil.
func (g *GenerateUI) FinishProgress(err error) {
	if g.tracker == nil {
		return
	}
	g.tracker.Finish(err)
	g.tracker = nil
}

// PrintSummary prints a final summary
func (g *GenerateUI) PrintSummary(rows, wells int, outputPath, format string, seed uint64) {
	if g.quiet {
		return
	}

	elapsed := time.Since(g.startTime)

	fmt.Fprintln(g.writer)

	var summary strings.Builder
	summary.WriteString(Success.Bold(true).Render("Generation Complete"))
	summary.WriteString("\n\n")
	summary.WriteString(FormatKeyValue("Records", fmt.Sprintf("%d", rows)))
	summary.WriteString("\n")
	summary.WriteString(FormatKeyValue("Wells", fmt.Sprintf("%d", wells)))
	summary.WriteString("\n")
	summary.WriteString(FormatKeyValue("Seed", fmt.Sprintf("%d", seed)))
	summary.WriteString("\n")
	summary.WriteString(FormatKeyValue("Output", outputPath))
	summary.WriteString("\n")
	summary.WriteString(FormatKeyValue("Format", format))
	summary.WriteString("\n")
	summary.WriteString(FormatKeyValue("Duration", elapsed.Round(time.Millisecond).String()))

	fmt.Fprintln(g.writer, SuccessBox.Render(summary.String()))
}

// LogStep prints a simple log message (non-interactive mode)
func (g *GenerateUI) LogStep(icon, message string) {
	if g.quiet {
		return
	}
	fmt.Fprintln(g.writer, FormatStatus(icon, message))
}
