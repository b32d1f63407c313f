package quality

import (
	"io"

	"github.com/FARIDDD123/FormationDamageManagerFCDD/internal/logging"
	"github.com/FARIDDD123/FormationDamageManagerFCDD/internal/ui"
)

var logger = &logging.Logger{PrefixText: "Quality Report:", PrefixColor: ui.FgYellow, OmitRecord: true}

// SetLogger sets an optional destination for quality output/logs.
// When set to nil, quality output/logs are disabled.
func SetLogger(w io.Writer) { logger.SetWriter(w) }

func logf(format string, args ...any) {
	logger.Logf("", format, args...)
}
