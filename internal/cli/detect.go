package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/runnerr0/retrace/internal/browser"
)

// detectJSON is the JSON output structure for the detect command.
type detectJSON struct {
	Engine string `json:"engine"`
	Label  string `json:"label"`
}

// Execute implements the go-flags Commander interface for DetectCommand.
func (c *DetectCommand) Execute(args []string) error {
	db, err := openValidated(c.Input)
	if err != nil {
		return err
	}
	defer db.Close()

	engine, err := browser.Detect(db)
	if err != nil {
		return err
	}

	if c.globals.JSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(detectJSON{Engine: engine.String(), Label: engine.DefaultLabel()})
	}

	fmt.Printf("%s (%s)\n", engine, engine.DefaultLabel())
	return nil
}
