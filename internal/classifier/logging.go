package classifier

import (
	"io"

	"github.com/FARIDDD123/FormationDamageManagerFCDD/internal/logging"
	"github.com/FARIDDD123/FormationDamageManagerFCDD/internal/ui"
)

var logger = &logging.Logger{PrefixText: "Classifier:", PrefixColor: ui.FgCyan}

// SetLogger sets an optional destination for classification logs.
// When set to nil, logging is disabled.
func SetLogger(w io.Writer) { logger.SetWriter(w) }

func logf(format string, args ...any) {
	logger.Logf("batch", format, args...)
}
