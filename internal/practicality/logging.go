package practicality

import (
	"io"

	"github.com/FARIDDD123/FormationDamageManagerFCDD/internal/logging"
	"github.com/FARIDDD123/FormationDamageManagerFCDD/internal/ui"
)

var logger = &logging.Logger{PrefixText: "Practicality:", PrefixColor: ui.FgGreen}

// SetLogger sets an optional destination for practicality logs.
// When set to nil, logging is disabled.
func SetLogger(w io.Writer) { logger.SetWriter(w) }
