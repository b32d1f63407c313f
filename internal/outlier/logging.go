package outlier

import (
	"io"

	"github.com/FARIDDD123/FormationDamageManagerFCDD/internal/logging"
	"github.com/FARIDDD123/FormationDamageManagerFCDD/internal/ui"
)

var logger = &logging.Logger{PrefixText: "Outliers:", PrefixColor: ui.FgYellow, OmitRecord: true}

// SetLogger sets an optional destination for outlier detection logs.
// When set to nil, logging is disabled.
func SetLogger(w io.Writer) { logger.SetWriter(w) }

func logf(format string, args ...any) {
	logger.Logf("", format, args...)
}
