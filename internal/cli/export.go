package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/runnerr0/retrace/internal/browser"
	"github.com/runnerr0/retrace/internal/config"
	"github.com/runnerr0/retrace/internal/export"
	"github.com/runnerr0/retrace/internal/extract"
)

// exportJSON is the JSON output structure for the export command.
type exportJSON struct {
	Engine     string         `json:"engine"`
	Label      string         `json:"label"`
	Output     string         `json:"output"`
	Events     int            `json:"events"`
	Categories []categoryJSON `json:"categories"`
	Warnings   []string       `json:"warnings,omitempty"`
}

type categoryJSON struct {
	Category string `json:"category"`
	Events   int    `json:"events"`
	Skipped  bool   `json:"skipped,omitempty"`
	Aborted  bool   `json:"aborted,omitempty"`
	Error    string `json:"error,omitempty"`
}

// Execute implements the go-flags Commander interface for ExportCommand.
func (c *ExportCommand) Execute(args []string) error {
	return c.execute(os.Stdin)
}

// execute runs the export reading any confirmation answer from in
// (injectable for testing).
func (c *ExportCommand) execute(in io.Reader) error {
	cfg, err := config.LoadOrDefault(c.globals.Config)
	if err != nil {
		return err
	}

	db, err := openValidated(c.Input)
	if err != nil {
		return err
	}
	defer db.Close()

	engine, detected, detErr, err := resolveEngine(db, c.Browser)
	if err != nil {
		return err
	}

	// An explicit engine that disagrees with detection needs an
	// affirmative answer; extraction against the wrong schema would
	// silently produce nothing.
	if detErr == nil && detected != engine {
		warnf("database looks like %s, not %s", detected, engine)
		if !c.Force {
			ok := confirm(fmt.Sprintf("Extract as %s anyway? [y/N]: ", engine), in)
			if !ok {
				return &browser.DetectionError{
					Reason: fmt.Sprintf("aborted: detected engine %s does not match requested %s", detected, engine),
				}
			}
		}
	}
	if detErr != nil && c.globals.Verbose {
		warnf("detection inconclusive: %v", detErr)
	}

	label := resolveLabel(cfg, engine, c.BrowserName)
	report := extract.Run(db, engine, extract.Options{
		Label:     label,
		WarnLimit: cfg.Limits.TimestampWarnings,
	})

	if len(report.Events) == 0 {
		return fmt.Errorf("no events extracted from %s; nothing to export", c.Input)
	}

	outPath := resolveOutputPath(cfg, engine, c.Input, c.Output)
	if err := export.WriteCSV(outPath, report.Events); err != nil {
		return err
	}

	if c.globals.JSON {
		return c.printJSON(report, outPath)
	}
	return c.printHuman(report, outPath)
}

func (c *ExportCommand) printHuman(report *extract.Report, outPath string) error {
	for _, cat := range report.Categories {
		switch {
		case cat.Err != nil:
			warnf("%s: extraction failed: %v", cat.Category, cat.Err)
		case cat.Aborted:
			warnf("%s: aborted after repeated timestamp failures (%d kept)", cat.Category, len(cat.Events))
		case cat.Skipped && c.globals.Verbose:
			fmt.Printf("  %-16s skipped (tables not present)\n", cat.Category)
		default:
			if c.globals.Verbose || len(cat.Events) > 0 {
				fmt.Printf("  %-16s %d events\n", cat.Category, len(cat.Events))
			}
		}
	}

	if warnings := report.Warnings(); len(warnings) > 0 {
		warnf("%d timestamp(s) skipped as out of range", len(warnings))
	}

	fmt.Printf("Exported %d events from %s (%s)\n", len(report.Events), report.Engine, report.Label)
	fmt.Printf("Output saved to: %s\n", outPath)
	return nil
}

func (c *ExportCommand) printJSON(report *extract.Report, outPath string) error {
	out := exportJSON{
		Engine:     report.Engine.String(),
		Label:      report.Label,
		Output:     outPath,
		Events:     len(report.Events),
		Categories: make([]categoryJSON, len(report.Categories)),
		Warnings:   report.Warnings(),
	}
	for i, cat := range report.Categories {
		cj := categoryJSON{
			Category: cat.Category,
			Events:   len(cat.Events),
			Skipped:  cat.Skipped,
			Aborted:  cat.Aborted,
		}
		if cat.Err != nil {
			cj.Error = cat.Err.Error()
		}
		out.Categories[i] = cj
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}
