package cli

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChannels_HumanRanking(t *testing.T) {
	c := &ChannelsCommand{}
	c.Args.Archive = writeArchive(t)

	var err error
	output := captureOutput(t, func() {
		err = c.executeWithEnv(context.Background(), testEnv(false))
	})
	require.NoError(t, err)

	assert.Contains(t, output, "3 channels")
	alpha := strings.Index(output, "Alpha")
	beta := strings.Index(output, "Beta")
	gamma := strings.Index(output, "Gamma")
	assert.True(t, alpha < beta && beta < gamma, "ranked by count, ties in first-seen order:\n%s", output)
}

func TestChannels_Limit(t *testing.T) {
	c := &ChannelsCommand{Limit: 1}
	c.Args.Archive = writeArchive(t)

	var err error
	output := captureOutput(t, func() {
		err = c.executeWithEnv(context.Background(), testEnv(false))
	})
	require.NoError(t, err)

	assert.Contains(t, output, "Top 1 of 3 channels")
	assert.Contains(t, output, "Alpha")
	assert.NotContains(t, output, "Gamma")
}

func TestChannels_JSON(t *testing.T) {
	c := &ChannelsCommand{}
	c.Args.Archive = writeArchive(t)

	var err error
	output := captureOutput(t, func() {
		err = c.executeWithEnv(context.Background(), testEnv(true))
	})
	require.NoError(t, err)

	var out channelsJSON
	require.NoError(t, json.Unmarshal([]byte(output), &out))
	assert.Equal(t, 3, out.Total)
	assert.Equal(t, []channelRankJSON{
		{Rank: 1, Channel: "Alpha", Count: 2},
		{Rank: 2, Channel: "Beta", Count: 1},
		{Rank: 3, Channel: "Gamma", Count: 1},
	}, out.Channels)
}

func TestChannels_NotZip(t *testing.T) {
	c := &ChannelsCommand{}
	c.Args.Archive = "history.tar.gz"

	err := c.executeWithEnv(context.Background(), testEnv(false))
	assert.Error(t, err)
}
