package preprocess

import (
	"io"

	"github.com/FARIDDD123/FormationDamageManagerFCDD/internal/logging"
	"github.com/FARIDDD123/FormationDamageManagerFCDD/internal/ui"
)

var logger = &logging.Logger{PrefixText: "Clean:", PrefixColor: ui.FgGreen}

// SetLogger sets an optional destination for preprocessing logs.
// When set to nil, logging is disabled.
func SetLogger(w io.Writer) { logger.SetWriter(w) }

func logf(format string, args ...any) {
	logger.Logf("", format, args...)
}
