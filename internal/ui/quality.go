package ui

import (
	"fmt"
	"io"
	"strings"

	"charm.land/lipgloss/v2"
)

// QualityReport mirrors the structure from internal/quality
// to avoid circular imports
type QualityReport struct {
	Source         string
	Score          float64
	Passed         int
	Total          int
	Rows           int
	Columns        []QualityColumn
	MissingColumns []string
}

// QualityColumn mirrors one column of the quality report
type QualityColumn struct {
	Name              string
	Missing           int
	BelowHard         int
	AboveHard         int
	UnknownCategories int
}

// QualityUI provides a rich UI for the quality command
type QualityUI struct {
	writer io.Writer
	quiet  bool
}

// NewQualityUI creates a new UI handler for the quality command
func NewQualityUI(w io.Writer, quiet bool) *QualityUI {
	return &QualityUI{
		writer: w,
		quiet:  quiet,
	}
}

// PrintReport renders the data quality report
func (q *QualityUI) PrintReport(report QualityReport) {
	if q.quiet {
		return
	}

	var output strings.Builder

	output.WriteString(Success.Bold(true).Render("Data Quality Report"))
	output.WriteString("\n\n")

	output.WriteString(q.renderScore(report))

	if len(report.MissingColumns) > 0 {
		output.WriteString("\n\n")
		output.WriteString(Error.Render(fmt.Sprintf("▼ Schema Columns Absent (%d)", len(report.MissingColumns))))
		output.WriteString("\n")
		for _, col := range report.MissingColumns {
			output.WriteString("  ")
			output.WriteString(GetCrossMark())
			output.WriteString(" ")
			output.WriteString(col)
			output.WriteString("\n")
		}
	}

	if cols := q.renderColumns(report); cols != "" {
		output.WriteString("\n\n")
		output.WriteString(cols)
	}

	fmt.Fprintln(q.writer, SuccessBox.Render(strings.TrimRight(output.String(), "\n")))
}

func (q *QualityUI) renderScore(report QualityReport) string {
	var sb strings.Builder

	sb.WriteString(SectionHeader.Render("Dataset"))
	sb.WriteString("\n")
	if report.Source != "" {
		sb.WriteString(FormatKeyValue("Source", Highlight.Render(report.Source)))
		sb.WriteString("\n")
	}
	sb.WriteString(FormatKeyValue("Rows", fmt.Sprintf("%d", report.Rows)))
	sb.WriteString("\n")
	sb.WriteString(FormatKeyValue("Completeness", renderProgressBar(report.Score, 40)+" "+renderScorePercentage(report.Score)))
	sb.WriteString("\n")
	sb.WriteString(Dim.Render(fmt.Sprintf("(%d/%d cells present)", report.Passed, report.Total)))

	return sb.String()
}

// renderColumns lists the columns with any problem, in report order.
func (q *QualityUI) renderColumns(report QualityReport) string {
	var sb strings.Builder
	header := false
	for _, c := range report.Columns {
		if c.Missing == 0 && c.BelowHard == 0 && c.AboveHard == 0 && c.UnknownCategories == 0 {
			continue
		}
		if !header {
			sb.WriteString(Warning.Render("▼ Columns With Issues"))
			sb.WriteString("\n")
			header = true
		}
		var parts []string
		if c.Missing > 0 {
			share := 0.0
			if report.Rows > 0 {
				share = float64(c.Missing) / float64(report.Rows)
			}
			parts = append(parts, fmt.Sprintf("%d missing (%.1f%%)", c.Missing, share*100))
		}
		if c.BelowHard > 0 {
			parts = append(parts, fmt.Sprintf("%d below physical minimum", c.BelowHard))
		}
		if c.AboveHard > 0 {
			parts = append(parts, fmt.Sprintf("%d above physical maximum", c.AboveHard))
		}
		if c.UnknownCategories > 0 {
			parts = append(parts, fmt.Sprintf("%d unknown categories", c.UnknownCategories))
		}
		sb.WriteString("  ")
		sb.WriteString(GetWarnMark())
		sb.WriteString(" ")
		sb.WriteString(c.Name)
		sb.WriteString(" ")
		sb.WriteString(Dim.Render(strings.Join(parts, ", ")))
		sb.WriteString("\n")
	}
	return strings.TrimRight(sb.String(), "\n")
}

// PrintSimpleReport prints a minimal text report (fallback for quiet mode or issues)
func (q *QualityUI) PrintSimpleReport(report QualityReport) {
	fmt.Fprintf(q.writer, "Completeness: %.1f%% (%d/%d cells, %d rows)\n", report.Score*100, report.Passed, report.Total, report.Rows)
	if len(report.MissingColumns) > 0 {
		fmt.Fprintf(q.writer, "Absent columns: %s\n", strings.Join(report.MissingColumns, ", "))
	}
	for _, c := range report.Columns {
		if out := c.BelowHard + c.AboveHard; c.Missing > 0 || out > 0 {
			fmt.Fprintf(q.writer, "  %s: %d missing, %d out of bounds\n", c.Name, c.Missing, out)
		}
	}
}

// renderProgressBar creates a visual progress bar
func renderProgressBar(score float64, width int) string {
	if score < 0 {
		score = 0
	}
	if score > 1 {
		score = 1
	}
	filled := int(score * float64(width))
	empty := width - filled

	bar := strings.Repeat("█", filled) + strings.Repeat("░", empty)

	// Color the bar based on score
	var style lipgloss.Style
	if score >= 0.8 {
		style = lipgloss.NewStyle().Foreground(ColorSuccess)
	} else if score >= 0.5 {
		style = lipgloss.NewStyle().Foreground(ColorWarning)
	} else {
		style = lipgloss.NewStyle().Foreground(ColorError)
	}

	return style.Render(bar)
}

// renderScorePercentage formats the score as a percentage
func renderScorePercentage(score float64) string {
	percentage := score * 100
	formatted := fmt.Sprintf("%.1f%%", percentage)

	if score >= 0.8 {
		return Success.Render(formatted)
	} else if score >= 0.5 {
		return Warning.Render(formatted)
	}
	return Error.Render(formatted)
}
