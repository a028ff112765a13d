package cli

import "io"

// GlobalFlags holds flags available to all subcommands.
type GlobalFlags struct {
	Config  string `long:"config" description:"Path to config file" default:""`
	JSON    bool   `long:"json" description:"Output in JSON format"`
	Verbose bool   `long:"verbose" description:"Enable verbose output"`
	Version bool   `long:"version" description:"Show version and exit"`
}

// archiveArg is the positional archive path shared by the analysis commands.
type archiveArg struct {
	Archive string `positional-arg-name:"ARCHIVE" description:"Takeout .zip archive" required:"yes"`
}

// AnalyzeCommand summarizes a Takeout archive.
type AnalyzeCommand struct {
	Charts string `long:"charts" description:"Write PNG charts to this directory"`
	DB     string `long:"db" description:"Export the parsed dataset to this SQLite file"`
	Top    int    `long:"top" description:"Number of top channels (default from config)"`
	TZ     string `long:"tz" description:"IANA time zone for bucketing (default from config)"`

	Args archiveArg `positional-args:"yes"`

	globals *GlobalFlags
	version string
}

// ChannelsCommand prints the full channel ranking.
type ChannelsCommand struct {
	Limit int `long:"limit" description:"Maximum channels (0 for all)" default:"0"`

	Args archiveArg `positional-args:"yes"`

	globals *GlobalFlags
	version string
}

// SearchCommand searches watched videos by keyword with filters.
type SearchCommand struct {
	Channel string `long:"channel" description:"Only videos from this channel"`
	Since   string `long:"since" description:"Only videos watched within duration (e.g., 7d, 24h, 2w)"`
	Until   string `long:"until" description:"Only videos watched before duration ago"`
	Limit   int    `long:"limit" description:"Maximum results" default:"10"`
	Offset  int    `long:"offset" description:"Skip first N results" default:"0"`
	TZ      string `long:"tz" description:"IANA time zone for displayed times"`

	Args struct {
		Archive string   `positional-arg-name:"ARCHIVE" description:"Takeout .zip archive" required:"yes"`
		Query   []string `positional-arg-name:"QUERY" description:"Keywords matched against titles and channels"`
	} `positional-args:"yes"`

	globals *GlobalFlags
	version string
}

// StatusCommand shows what an exported dataset file holds.
type StatusCommand struct {
	DB string `long:"db" description:"Dataset file (default from config)"`

	globals *GlobalFlags
	version string
}

// PurgeCommand deletes an exported dataset with safety confirmation.
type PurgeCommand struct {
	DB    string `long:"db" description:"Dataset file (default from config)"`
	All   bool   `long:"all" description:"Required flag to confirm purge intent"`
	Force bool   `long:"force" description:"Skip safety confirmation prompt"`

	globals *GlobalFlags
	version string
	stdin   io.Reader // nil means os.Stdin
}
