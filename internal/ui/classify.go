package ui

import (
	"fmt"
	"io"
	"strings"
	"time"
)

// LabelCount is a label with its number of rows.
type LabelCount struct {
	Label string
	Count int
}

// ClassificationReport mirrors the batch summary from internal/classifier
// to avoid circular imports
type ClassificationReport struct {
	Input        string
	Output       string
	RuleTable    string
	RunID        string
	Seed         uint64
	Rows         int
	Rejected     int
	Anomalous    int
	Counts       []LabelCount
	MeanSeverity float64
	HasSeverity  bool
	Duration     time.Duration
}

// PracticalityReport mirrors the practicality summary
type PracticalityReport struct {
	Rows      int
	Practical int
	ByType    []LabelCount
}

// ClassifyUI provides a rich UI for the classify and practicality commands
type ClassifyUI struct {
	writer   io.Writer
	quiet    bool
	workflow *Workflow
}

// NewClassifyUI creates a new UI handler for the classify command
func NewClassifyUI(w io.Writer, quiet bool) *ClassifyUI {
	return &ClassifyUI{writer: w, quiet: quiet}
}

// Classification workflow steps.
const (
	StepLoadRules = iota
	StepReadInput
	StepClassify
	StepWriteOutput
)

// StartWorkflow shows the classification steps.
func (c *ClassifyUI) StartWorkflow() {
	if c.quiet {
		return
	}
	c.workflow = NewWorkflow(c.writer, "Classifying formation damage")
	c.workflow.AddTask("Loading rule table")
	c.workflow.AddTask("Reading records")
	c.workflow.AddTask("Classifying records")
	c.workflow.AddTask("Writing output")
	c.workflow.Start()
}

// Start marks a step as running
func (c *ClassifyUI) Start(step int, message string) {
	if c.quiet || c.workflow == nil {
		return
	}
	c.workflow.StartTask(step, Dim.Render(message))
}

// Progress updates the classification counter. Safe for concurrent use.
func (c *ClassifyUI) Progress(done, total int) {
	if c.quiet || c.workflow == nil {
		return
	}
	c.workflow.SetCounter(StepClassify, done, total)
}

// Complete marks a step as done
func (c *ClassifyUI) Complete(step int, details string) {
	if c.quiet || c.workflow == nil {
		return
	}
	c.workflow.CompleteTask(step, details)
}

// Skip marks a step as skipped
func (c *ClassifyUI) Skip(step int, reason string) {
	if c.quiet || c.workflow == nil {
		return
	}
	c.workflow.SkipTask(step, reason)
}

// Fail marks a step as failed and stops the display
func (c *ClassifyUI) Fail(step int, err error) {
	if c.quiet || c.workflow == nil {
		return
	}
	c.workflow.FailTask(step, err.Error())
	c.workflow.Stop()
	c.workflow = nil
}

// Finish stops the workflow display
func (c *ClassifyUI) Finish() {
	if c.quiet || c.workflow == nil {
		return
	}
	c.workflow.Stop()
	c.workflow = nil
}

// PrintSummary renders the damage type distribution of a run.
func (c *ClassifyUI) PrintSummary(r ClassificationReport) {
	if c.quiet {
		return
	}

	var sb strings.Builder
	sb.WriteString(Success.Bold(true).Render("Classification Complete"))
	sb.WriteString("\n\n")
	if r.Input != "" {
		sb.WriteString(FormatKeyValue("Input", r.Input))
		sb.WriteString("\n")
	}
	if r.Output != "" {
		sb.WriteString(FormatKeyValue("Output", r.Output))
		sb.WriteString("\n")
	}
	sb.WriteString(FormatKeyValue("Rule table", r.RuleTable))
	sb.WriteString("\n")
	sb.WriteString(FormatKeyValue("Seed", fmt.Sprintf("%d", r.Seed)))
	sb.WriteString("\n")
	if r.RunID != "" {
		sb.WriteString(FormatKeyValue("Run", Highlight.Render(r.RunID)))
		sb.WriteString("\n")
	}
	sb.WriteString(FormatKeyValue("Rows", fmt.Sprintf("%d (%d rejected, %d with anomalies)", r.Rows, r.Rejected, r.Anomalous)))
	if r.HasSeverity {
		sb.WriteString("\n")
		sb.WriteString(FormatKeyValue("Mean severity", fmt.Sprintf("%.2f", r.MeanSeverity)))
	}
	if r.Duration > 0 {
		sb.WriteString("\n")
		sb.WriteString(FormatKeyValue("Duration", r.Duration.Round(time.Millisecond).String()))
	}
	sb.WriteString("\n\n")
	sb.WriteString(SectionHeader.Render("Damage Types"))
	sb.WriteString("\n")
	sb.WriteString(RenderDistribution(r.Counts, r.Rows))

	box := SuccessBox
	if r.Rejected > 0 {
		box = HighlightBox
	}
	fmt.Fprintln(c.writer, box.Render(sb.String()))
}

// PrintPracticality renders the practicality summary.
func (c *ClassifyUI) PrintPracticality(r PracticalityReport) {
	if c.quiet {
		return
	}
	share := 0.0
	if r.Rows > 0 {
		share = float64(r.Practical) / float64(r.Rows)
	}

	var sb strings.Builder
	sb.WriteString(Success.Bold(true).Render("Practicality Labels"))
	sb.WriteString("\n\n")
	sb.WriteString(FormatKeyValue("Practical", renderProgressBar(share, 30)+" "+fmt.Sprintf("%d/%d (%.1f%%)", r.Practical, r.Rows, share*100)))
	if len(r.ByType) > 0 {
		sb.WriteString("\n\n")
		sb.WriteString(SectionHeader.Render("Practical Rows by Damage Type"))
		sb.WriteString("\n")
		sb.WriteString(RenderDistribution(r.ByType, r.Practical))
	}
	fmt.Fprintln(c.writer, SuccessBox.Render(sb.String()))
}

// RenderDistribution draws one bar per label, scaled to total.
func RenderDistribution(counts []LabelCount, total int) string {
	if len(counts) == 0 {
		return Dim.Render("(no rows)")
	}
	width := 0
	for _, lc := range counts {
		if n := len(displayLabel(lc.Label)); n > width {
			width = n
		}
	}
	var sb strings.Builder
	for i, lc := range counts {
		share := 0.0
		if total > 0 {
			share = float64(lc.Count) / float64(total)
		}
		fmt.Fprintf(&sb, "%-*s %s %s", width, displayLabel(lc.Label), Primary.Render(strings.Repeat("█", int(share*30+0.5))), Dim.Render(fmt.Sprintf("%d (%.1f%%)", lc.Count, share*100)))
		if i < len(counts)-1 {
			sb.WriteString("\n")
		}
	}
	return sb.String()
}

func displayLabel(l string) string {
	if l == "" {
		return "(rejected)"
	}
	return l
}
