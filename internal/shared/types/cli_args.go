package types

// CLIArgs represents the command-line arguments.
type CLIArgs struct {
	ConfigFile string
	SourceDir  string
	SourceRoot string
	Years      []int
	Dir        string
	ReportType []string
	AsOfMonth  string
	Publish    bool
	Parallel   int
	// ValidateOnly runs normalization and validation without writing artifacts.
	ValidateOnly bool
}
