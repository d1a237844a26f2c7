package cli

import (
	"bufio"
	"database/sql"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/runnerr0/retrace/internal/browser"
	"github.com/runnerr0/retrace/internal/config"
)

// openValidated runs the pre-flight checks and opens the database
// read-only. Callers own closing the returned handle.
func openValidated(path string) (*sql.DB, error) {
	if err := browser.Validate(path); err != nil {
		return nil, err
	}
	return browser.OpenReadOnly(path)
}

// resolveEngine turns the --browser flag into an engine classification.
// The detector always runs so the caller can compare its verdict with
// an explicit choice; a detection failure is only fatal in auto mode.
func resolveEngine(db *sql.DB, flag string) (engine browser.Engine, detected browser.Engine, detErr error, err error) {
	detected, detErr = browser.Detect(db)

	if strings.EqualFold(strings.TrimSpace(flag), "auto") || flag == "" {
		if detErr != nil {
			return 0, 0, detErr, detErr
		}
		return detected, detected, nil, nil
	}

	engine, err = browser.ParseEngine(flag)
	if err != nil {
		return 0, detected, detErr, err
	}
	return engine, detected, detErr, nil
}

// confirm prompts on stdout and reads one line from r. Only an
// affirmative answer returns true.
func confirm(prompt string, r io.Reader) bool {
	fmt.Print(prompt)
	scanner := bufio.NewScanner(r)
	if !scanner.Scan() {
		return false
	}
	answer := strings.ToLower(strings.TrimSpace(scanner.Text()))
	return answer == "y" || answer == "yes"
}

// resolveLabel picks the display label: explicit flag, then config
// override for the engine, then the engine default.
func resolveLabel(cfg *config.Config, engine browser.Engine, flag string) string {
	if flag != "" {
		return flag
	}
	if cfg != nil {
		if label, ok := cfg.Labels[engine.String()]; ok && label != "" {
			return label
		}
	}
	return engine.DefaultLabel()
}

// resolveOutputPath picks the output file: explicit flag, else the
// derived default name under the configured output directory.
func resolveOutputPath(cfg *config.Config, engine browser.Engine, inputPath, flag string) string {
	if flag != "" {
		return flag
	}
	name := browser.DefaultOutputName(engine, inputPath)
	if cfg != nil && cfg.Output.Directory != "" {
		return filepath.Join(cfg.Output.Directory, name)
	}
	return name
}

// warnf prints a warning line to stderr.
func warnf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "warning: "+format+"\n", args...)
}
