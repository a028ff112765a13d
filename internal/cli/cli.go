package cli

import (
	"fmt"
	"os"

	goflags "github.com/jessevdk/go-flags"
)

// commands holds references to all subcommand structs for inspection/testing.
type commands struct {
	Analyze  *AnalyzeCommand
	Channels *ChannelsCommand
	Search   *SearchCommand
	Status   *StatusCommand
	Purge    *PurgeCommand
}

// buildParser constructs the go-flags parser with all subcommands registered.
func buildParser(version string) (*goflags.Parser, *GlobalFlags, *commands) {
	var globals GlobalFlags

	parser := goflags.NewParser(&globals, goflags.Default)
	parser.Name = "tubestats"
	parser.LongDescription = "Summarize a YouTube Takeout archive: top channels, viewing habits, and watch-history trends."

	cmds := &commands{
		Analyze:  &AnalyzeCommand{globals: &globals, version: version},
		Channels: &ChannelsCommand{globals: &globals, version: version},
		Search:   &SearchCommand{globals: &globals, version: version},
		Status:   &StatusCommand{globals: &globals, version: version},
		Purge:    &PurgeCommand{globals: &globals, version: version},
	}

	parser.AddCommand("analyze", "Summarize a Takeout archive", "Parse the watch history and subscriptions in a Takeout archive and print summary statistics, optionally rendering charts and exporting the dataset.", cmds.Analyze)
	parser.AddCommand("channels", "Rank every watched channel", "Print every channel in the archive ranked by number of videos watched.", cmds.Channels)
	parser.AddCommand("search", "Search watched videos", "Search watched videos in an archive by keyword, with optional filters.", cmds.Search)
	parser.AddCommand("status", "Show an exported dataset", "Show what a dataset file written by analyze --db holds.", cmds.Status)
	parser.AddCommand("purge", "Delete an exported dataset", "Delete every row of a dataset file. Destructive operation with safety prompt.", cmds.Purge)

	return parser, &globals, cmds
}

// Run is the main entry point for the tubestats CLI using os.Args.
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
			fmt.Printf("tubestats %s\n", version)
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
