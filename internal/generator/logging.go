package generator

import (
	"io"

	"github.com/FARIDDD123/FormationDamageManagerFCDD/internal/logging"
	"github.com/FARIDDD123/FormationDamageManagerFCDD/internal/ui"
)

var logger = &logging.Logger{PrefixText: "Generator:", PrefixColor: ui.FgCyan}

// SetLogger sets an optional destination for generator logs.
func SetLogger(w io.Writer) { logger.SetWriter(w) }

func logf(well string, format string, args ...any) {
	logger.Logf(well, format, args...)
}
