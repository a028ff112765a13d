package cli

import (
	"context"
	"fmt"

	"github.com/runnerr0/tubestats/internal/storage"
)

type channelsJSON struct {
	Archive  string            `json:"archive"`
	Total    int               `json:"total_channels"`
	Channels []channelRankJSON `json:"channels"`
}

type channelRankJSON struct {
	Rank    int    `json:"rank"`
	Channel string `json:"channel"`
	Count   int64  `json:"count"`
}

// Execute implements the go-flags Commander interface for ChannelsCommand.
func (c *ChannelsCommand) Execute(args []string) error {
	e, err := setup(c.globals)
	if err != nil {
		return err
	}
	return c.executeWithEnv(context.Background(), e)
}

// executeWithEnv ranks channels with a prepared config and logger (for testing).
func (c *ChannelsCommand) executeWithEnv(ctx context.Context, e *env) error {
	res, store, db, err := e.loadArchive(ctx, c.Args.Archive, "")
	if err != nil {
		return err
	}
	defer db.Close()
	defer store.Close()

	counts, err := store.ChannelCounts(ctx, c.Limit)
	if err != nil {
		return err
	}

	if e.json {
		out := channelsJSON{
			Archive:  c.Args.Archive,
			Total:    res.Report.UniqueChannels,
			Channels: make([]channelRankJSON, len(counts)),
		}
		for i, cc := range counts {
			out.Channels[i] = channelRankJSON{Rank: i + 1, Channel: cc.Channel, Count: cc.Count}
		}
		return writeJSON(out)
	}

	c.printHuman(res.Report.UniqueChannels, counts)
	return nil
}

func (c *ChannelsCommand) printHuman(total int, counts []storage.ChannelCount) {
	if len(counts) < total {
		fmt.Printf("Top %s of %s channels\n\n", formatNumber(len(counts)), formatNumber(total))
	} else {
		fmt.Printf("%s channels\n\n", formatNumber(total))
	}
	for i, cc := range counts {
		fmt.Printf("%4d. %-40s %s\n", i+1, cc.Channel, formatNumber(cc.Count))
	}
}
