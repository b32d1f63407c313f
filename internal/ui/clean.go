package ui

import (
	"fmt"
	"io"
	"strings"
)

// OutlierColumn mirrors one column of an outlier report
type OutlierColumn struct {
	Name    string
	Lower   float64
	Upper   float64
	Flagged int
}

// OutlierReport mirrors the structure from internal/outlier
// to avoid circular imports
type OutlierReport struct {
	Method      string
	Rows        int
	Flagged     int
	Columns     []OutlierColumn
	Diagnostics []string

	// Policy is empty when the detection was not applied.
	Policy  string
	Clipped int
	Removed int
}

// CleanReport summarises the clean command
type CleanReport struct {
	RowsIn         int
	RowsOut        int
	Duplicates     int
	Imputed        []string
	Scaled         []string
	ParamsPath     string
	InvalidRows    int
	InvalidPercent float64
	InvalidAction  string
	Removed        int
	Diagnostics    []string
}

// CleanUI renders outlier and cleaning reports
type CleanUI struct {
	writer io.Writer
	quiet  bool
}

// NewCleanUI creates a new UI handler for the outliers and clean commands
func NewCleanUI(w io.Writer, quiet bool) *CleanUI {
	return &CleanUI{writer: w, quiet: quiet}
}

// PrintOutliers renders the per column bounds and counts.
func (c *CleanUI) PrintOutliers(r OutlierReport) {
	if c.quiet {
		return
	}

	var sb strings.Builder
	sb.WriteString(Success.Bold(true).Render("Outlier Report"))
	sb.WriteString("\n\n")
	sb.WriteString(FormatKeyValue("Method", r.Method))
	sb.WriteString("\n")
	sb.WriteString(FormatKeyValue("Rows flagged", fmt.Sprintf("%d/%d", r.Flagged, r.Rows)))
	if r.Policy != "" {
		sb.WriteString("\n")
		sb.WriteString(FormatKeyValue("Applied", fmt.Sprintf("%s (%d value(s) clipped, %d row(s) removed)", r.Policy, r.Clipped, r.Removed)))
	}

	width := 0
	for _, col := range r.Columns {
		if len(col.Name) > width {
			width = len(col.Name)
		}
	}
	sb.WriteString("\n\n")
	sb.WriteString(SectionHeader.Render("Columns"))
	for _, col := range r.Columns {
		sb.WriteString("\n")
		icon := GetCheckMark()
		if col.Flagged > 0 {
			icon = GetWarnMark()
		}
		fmt.Fprintf(&sb, "%s %-*s %s %s", icon, width, col.Name,
			Dim.Render(fmt.Sprintf("[%.4g, %.4g]", col.Lower, col.Upper)),
			fmt.Sprintf("%d flagged", col.Flagged))
	}

	if len(r.Diagnostics) > 0 {
		sb.WriteString("\n\n")
		sb.WriteString(Warning.Render(fmt.Sprintf("▼ Diagnostics (%d)", len(r.Diagnostics))))
		for _, d := range r.Diagnostics {
			sb.WriteString("\n  ")
			sb.WriteString(GetInfoMark())
			sb.WriteString(" ")
			sb.WriteString(Dim.Render(d))
		}
	}

	fmt.Fprintln(c.writer, Box.Render(sb.String()))
}

// PrintClean renders what the clean command changed.
func (c *CleanUI) PrintClean(r CleanReport) {
	if c.quiet {
		return
	}

	var sb strings.Builder
	sb.WriteString(Success.Bold(true).Render("Cleaning Complete"))
	sb.WriteString("\n\n")
	sb.WriteString(FormatKeyValue("Rows", fmt.Sprintf("%d → %d", r.RowsIn, r.RowsOut)))
	sb.WriteString("\n")
	sb.WriteString(FormatKeyValue("Duplicates dropped", fmt.Sprintf("%d", r.Duplicates)))
	sb.WriteString("\n")
	sb.WriteString(FormatKeyValue("Invalid combinations", fmt.Sprintf("%d (%.2f%%) → %s", r.InvalidRows, r.InvalidPercent, r.InvalidAction)))
	if r.Removed > 0 {
		sb.WriteString("\n")
		sb.WriteString(FormatKeyValue("Invalid rows removed", fmt.Sprintf("%d", r.Removed)))
	}

	writeList := func(title string, items []string) {
		if len(items) == 0 {
			return
		}
		sb.WriteString("\n\n")
		sb.WriteString(SectionHeader.Render(title))
		for _, it := range items {
			sb.WriteString("\n  ")
			sb.WriteString(GetBullet())
			sb.WriteString(" ")
			sb.WriteString(it)
		}
	}
	writeList("Imputation", r.Imputed)
	writeList("Scaling", r.Scaled)
	if r.ParamsPath != "" {
		sb.WriteString("\n")
		sb.WriteString(FormatKeyValue("Scaling parameters", r.ParamsPath))
	}
	writeList("Diagnostics", r.Diagnostics)

	fmt.Fprintln(c.writer, SuccessBox.Render(sb.String()))
}
