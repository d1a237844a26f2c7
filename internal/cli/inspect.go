package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/runnerr0/retrace/internal/browser"
	"github.com/runnerr0/retrace/internal/extract"
	"github.com/runnerr0/retrace/internal/schema"
)

// inspectJSON is the JSON output structure for the inspect command.
type inspectJSON struct {
	Engine     string              `json:"engine"`
	Tables     []string            `json:"tables"`
	Categories []categoryAvailJSON `json:"categories"`
}

type categoryAvailJSON struct {
	Category  string `json:"category"`
	Available bool   `json:"available"`
}

// Execute implements the go-flags Commander interface for InspectCommand.
func (c *InspectCommand) Execute(args []string) error {
	db, err := openValidated(c.Input)
	if err != nil {
		return err
	}
	defer db.Close()

	var engine browser.Engine
	if strings.EqualFold(c.Browser, "auto") || c.Browser == "" {
		engine, err = browser.Detect(db)
	} else {
		engine, err = browser.ParseEngine(c.Browser)
	}
	if err != nil {
		return err
	}

	tables, err := schema.TableNames(db)
	if err != nil {
		return fmt.Errorf("list tables: %w", err)
	}

	extractors := extract.ForEngine(engine)

	if c.globals.JSON {
		out := inspectJSON{
			Engine: engine.String(),
			Tables: tables,
		}
		for _, x := range extractors {
			out.Categories = append(out.Categories, categoryAvailJSON{
				Category:  x.Category,
				Available: x.Available(db),
			})
		}
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	}

	fmt.Printf("Engine: %s (%s)\n", engine, engine.DefaultLabel())
	fmt.Printf("Tables: %s\n", strings.Join(tables, ", "))
	fmt.Println()
	fmt.Println("Categories:")
	for _, x := range extractors {
		state := "available"
		if !x.Available(db) {
			state = "not present"
		}
		fmt.Printf("  %-16s %s\n", x.Category, state)
	}
	return nil
}
