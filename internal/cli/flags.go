package cli

// GlobalFlags holds flags available to all subcommands.
type GlobalFlags struct {
	Config  string `long:"config" description:"Path to config file" default:""`
	JSON    bool   `long:"json" description:"Output in JSON format"`
	Verbose bool   `long:"verbose" description:"Enable verbose output"`
	Version bool   `long:"version" description:"Show version and exit"`
}

// ExportCommand — extract a history database to a timeline CSV.
type ExportCommand struct {
	Browser     string `short:"b" long:"browser" description:"Browser engine: gecko|firefox, chromium|chrome, webkit|safari, or auto" default:"auto"`
	Input       string `short:"i" long:"input" description:"Path to browser history database" required:"true"`
	Output      string `short:"o" long:"output" description:"Output CSV path (default: derived from engine and input path)"`
	BrowserName string `long:"browser-name" description:"Custom browser label for data_type fields (e.g. Brave, Edge)"`
	Force       bool   `long:"force" description:"Proceed without confirmation when detection disagrees with --browser"`

	globals *GlobalFlags
	version string
}

// DetectCommand — print the detected engine of a history database.
type DetectCommand struct {
	Input string `short:"i" long:"input" description:"Path to browser history database" required:"true"`

	globals *GlobalFlags
	version string
}

// InspectCommand — list tables and per-category extractor availability.
type InspectCommand struct {
	Input   string `short:"i" long:"input" description:"Path to browser history database" required:"true"`
	Browser string `short:"b" long:"browser" description:"Browser engine (default: auto-detect)" default:"auto"`

	globals *GlobalFlags
	version string
}
