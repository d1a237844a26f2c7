package cli

import (
	"fmt"
	"os"

	goflags "github.com/jessevdk/go-flags"
)

// commands holds references to all subcommand structs for inspection/testing.
type commands struct {
	Export  *ExportCommand
	Detect  *DetectCommand
	Inspect *InspectCommand
}

// buildParser constructs the go-flags parser with all subcommands registered.
func buildParser(version string) (*goflags.Parser, *GlobalFlags, *commands) {
	var globals GlobalFlags

	parser := goflags.NewParser(&globals, goflags.Default)
	parser.Name = "retrace"
	parser.LongDescription = "Export browser history databases to a timestamp-sorted timeline CSV."

	cmds := &commands{
		Export:  &ExportCommand{globals: &globals, version: version},
		Detect:  &DetectCommand{globals: &globals, version: version},
		Inspect: &InspectCommand{globals: &globals, version: version},
	}

	parser.AddCommand("export", "Export a history database to CSV", "Extract, normalize, and export browsing events from a history database to a timeline CSV.", cmds.Export)
	parser.AddCommand("detect", "Detect the browser engine of a database", "Classify a history database as gecko, chromium, or webkit by its table signature.", cmds.Detect)
	parser.AddCommand("inspect", "List tables and extractable categories", "List the tables in a history database and which event categories its schema supports.", cmds.Inspect)

	return parser, &globals, cmds
}

// Run is the main entry point for the retrace CLI using os.Args.
func Run(version string) error {
	return RunWithArgs(version, nil)
}

// RunWithArgs parses the given args (or os.Args if nil) and executes the matched subcommand.
func RunWithArgs(version string, args []string) error {
	// Handle --version before parser (go-flags requires a subcommand, but
	// --version is valid without one).
	checkArgs := args
	if checkArgs == nil {
		checkArgs = os.Args[1:]
	}
	for _, arg := range checkArgs {
		if arg == "--version" {
			fmt.Printf("retrace %s\n", version)
			return nil
		}
		if arg == "--" {
			break
		}
	}

	parser, _, _ := buildParser(version)

	var err error
	if args != nil {
		_, err = parser.ParseArgs(args)
	} else {
		_, err = parser.Parse()
	}

	if err != nil {
		if flagsErr, ok := err.(*goflags.Error); ok {
			if flagsErr.Type == goflags.ErrHelp {
				return nil
			}
		}
		return err
	}

	return nil
}
