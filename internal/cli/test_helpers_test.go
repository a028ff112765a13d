package cli

import (
	"archive/zip"
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/runnerr0/tubestats/internal/config"
)

// captureOutput captures stdout during fn execution and returns it as a string.
func captureOutput(t *testing.T, fn func()) string {
	t.Helper()
	old := os.Stdout
	r, w, err := os.Pipe()
	require.NoError(t, err)
	os.Stdout = w

	done := make(chan string)
	go func() {
		var buf bytes.Buffer
		_, _ = io.Copy(&buf, r)
		done <- buf.String()
	}()

	fn()

	w.Close()
	os.Stdout = old
	return <-done
}

// testEnv returns an env with default config, UTC bucketing and a silent logger.
func testEnv(jsonOut bool) *env {
	cfg := config.DefaultConfig()
	cfg.Analysis.Timezone = "UTC"
	return &env{cfg: cfg, log: zerolog.Nop(), json: jsonOut}
}

const (
	historyEntry = "Takeout/YouTube and YouTube Music/history/watch-history.html"
	subsEntry    = "Takeout/YouTube and YouTube Music/subscriptions/subscriptions.csv"
)

type fixtureEvent struct {
	title, channel, date string
}

// fixtureEvents are in export order, newest first.
var fixtureEvents = []fixtureEvent{
	{"Go Concurrency Patterns", "Alpha", "Mar 5, 2024, 9:00:00 AM UTC"},
	{"Sourdough Basics", "Beta", "Mar 4, 2024, 9:30:00 AM UTC"},
	{"Advanced Go Testing", "Alpha", "Feb 27, 2024, 11:00:00 PM UTC"},
	{"Synth Jam", "Gamma", "Jan 15, 2024, 8:00:00 PM UTC"},
}

const fixtureSubscriptions = "Channel Id,Channel Url,Channel Title\n" +
	"UCAlpha,http://www.youtube.com/channel/UCAlpha,Alpha\n" +
	"UCBeta,http://www.youtube.com/channel/UCBeta,Beta\n"

func historyHTML(events []fixtureEvent) string {
	var b strings.Builder
	b.WriteString(`<html><body><div class="mdl-grid">`)
	for i, e := range events {
		fmt.Fprintf(&b,
			`<div class="outer-cell"><div class="content-cell mdl-cell mdl-cell--6-col mdl-typography--body-1">Watched&nbsp;<a href="https://www.youtube.com/watch?v=%d">%s</a><br><a href="https://www.youtube.com/channel/UC%s">%s</a><br>%s<br></div></div>`,
			i, e.title, e.channel, e.channel, e.date)
	}
	b.WriteString(`</div></body></html>`)
	return b.String()
}

// writeZip writes files into a .zip under a temp dir and returns its path.
func writeZip(t *testing.T, files map[string]string) string {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for name, content := range files {
		w, err := zw.Create(name)
		require.NoError(t, err)
		_, err = w.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())

	path := filepath.Join(t.TempDir(), "takeout.zip")
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0644))
	return path
}

// writeArchive writes the standard fixture archive.
func writeArchive(t *testing.T) string {
	t.Helper()
	return writeZip(t, map[string]string{
		historyEntry: historyHTML(fixtureEvents),
		subsEntry:    fixtureSubscriptions,
	})
}

// writeConfig writes a minimal config file so commands never touch the
// user's home directory.
func writeConfig(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := "analysis:\n  timezone: UTC\nlogging:\n  level: error\n"
	require.NoError(t, os.WriteFile(path, []byte(data), 0644))
	return path
}
