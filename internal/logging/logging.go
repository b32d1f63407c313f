package logging

import (
	"fmt"
	"io"
	"strings"

	"github.com/FARIDDD123/FormationDamageManagerFCDD/internal/ui"
)

// Logger is a tiny opt-in logger used across internal packages.
// When Writer is nil, logging is disabled.
//
// The output format is:
//
//	<ColoredPrefix> well=<recordID> <formattedMessage>\n
//
// where <recordID> is trimmed and defaults to "(unknown)".
type Logger struct {
	Writer io.Writer

	PrefixText  string
	PrefixColor string

	// OmitRecord controls whether the record ID field is written.
	// When false (default), output includes: "well=<id>".
	OmitRecord bool
}

func (l *Logger) SetWriter(w io.Writer) { l.Writer = w }

func (l *Logger) Enabled() bool { return l != nil && l.Writer != nil }

func (l *Logger) Logf(recordID string, format string, args ...any) {
	if l == nil || l.Writer == nil {
		return
	}
	prefix := l.PrefixText
	if prefix == "" {
		prefix = "Log:"
	}
	if l.PrefixColor != "" {
		prefix = ui.Color(prefix, l.PrefixColor)
	}
	msg := fmt.Sprintf(format, args...)
	if l.OmitRecord {
		fmt.Fprintf(l.Writer, "%s %s\n", prefix, msg)
		return
	}

	id := strings.TrimSpace(recordID)
	if id == "" {
		id = "(unknown)"
	}
	fmt.Fprintf(l.Writer, "%s well=%s %s\n", prefix, id, msg)
}
