package cmd

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/spf13/viper"

	"github.com/FARIDDD123/FormationDamageManagerFCDD/internal/apperr"
	"github.com/FARIDDD123/FormationDamageManagerFCDD/internal/classifier"
	"github.com/FARIDDD123/FormationDamageManagerFCDD/internal/dataset"
	"github.com/FARIDDD123/FormationDamageManagerFCDD/internal/generator"
	"github.com/FARIDDD123/FormationDamageManagerFCDD/internal/outlier"
	"github.com/FARIDDD123/FormationDamageManagerFCDD/internal/practicality"
	"github.com/FARIDDD123/FormationDamageManagerFCDD/internal/preprocess"
	"github.com/FARIDDD123/FormationDamageManagerFCDD/internal/quality"
	"github.com/FARIDDD123/FormationDamageManagerFCDD/internal/rules"
	"github.com/FARIDDD123/FormationDamageManagerFCDD/internal/store"
	"github.com/FARIDDD123/FormationDamageManagerFCDD/internal/tableio"
	"github.com/FARIDDD123/FormationDamageManagerFCDD/internal/validator"
)

const (
	levelQuiet    = "quiet"
	levelStandard = "standard"
	levelDebug    = "debug"
)

// resolveLogLevel reads <command>.log-level from viper (config, env or flag).
func resolveLogLevel(command string) (string, error) {
	level := strings.ToLower(strings.TrimSpace(viper.GetString(command + ".log-level")))
	if level == "" {
		level = levelStandard
	}
	switch level {
	case levelQuiet, levelStandard, levelDebug:
		return level, nil
	default:
		return "", fmt.Errorf("invalid --log-level %q (expected quiet|standard|debug)", level)
	}
}

// wireLogging sends the internal package logs to w when the level is debug.
func wireLogging(level string, w io.Writer) {
	if level != levelDebug {
		return
	}
	for _, set := range []func(io.Writer){
		rules.SetLogger,
		classifier.SetLogger,
		outlier.SetLogger,
		preprocess.SetLogger,
		practicality.SetLogger,
		quality.SetLogger,
		validator.SetLogger,
		generator.SetLogger,
		tableio.SetLogger,
		store.SetLogger,
	} {
		set(w)
	}
}

// loadSchema returns the schema at path, or the embedded default.
func loadSchema(path string) (*dataset.Schema, error) {
	if strings.TrimSpace(path) == "" {
		return dataset.DefaultSchema()
	}
	return dataset.LoadSchema(path)
}

// readTable loads a required input table.
func readTable(command string, schema *dataset.Schema) (*dataset.Table, error) {
	input := viper.GetString(command + ".input")
	if strings.TrimSpace(input) == "" {
		return nil, apperr.User("--input is required")
	}
	return tableio.Read(input, viper.GetString(command+".format"), schema)
}

// confirmOverwrite asks before replacing an existing file. It returns
// apperr.ErrCancelled when the user declines.
func confirmOverwrite(path string, yes bool) error {
	if yes || path == "" {
		return nil
	}
	if _, err := os.Stat(path); err != nil {
		return nil
	}
	var confirm bool
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title(fmt.Sprintf("%s already exists. Overwrite?", path)).
				Description("Use --yes to skip this prompt.").
				Value(&confirm).
				Affirmative("Yes").
				Negative("No"),
		),
	)
	if err := form.Run(); err != nil {
		return fmt.Errorf("overwrite confirmation: %w", err)
	}
	if !confirm {
		return apperr.ErrCancelled
	}
	return nil
}

// writeTable confirms and writes t.
func writeTable(t *dataset.Table, path, format string, yes bool) error {
	if err := confirmOverwrite(path, yes); err != nil {
		return err
	}
	return tableio.Write(t, path, format)
}

// splitList trims entries and drops empty ones. Comma separated values in a
// single entry are split as well, so config files may use either form.
func splitList(values []string) []string {
	var out []string
	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			if p := strings.TrimSpace(part); p != "" {
				out = append(out, p)
			}
		}
	}
	return out
}

func errorStrings(errs []error) []string {
	out := make([]string, 0, len(errs))
	for _, e := range errs {
		out = append(out, e.Error())
	}
	return out
}
