package cli

import (
	"context"
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPurge_WithoutAllFlag_Errors(t *testing.T) {
	err := RunWithArgs("test", []string{"purge"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "purge requires --all flag for safety")
}

func TestPurge_WithAllAndForce_Succeeds(t *testing.T) {
	e := testEnv(false)
	store, _ := setupStatusTest(t, e)
	seedDataset(t, store)

	cmd := &PurgeCommand{All: true, Force: true}

	var err error
	output := captureOutput(t, func() {
		err = cmd.executeWithStore(e, store, "data.db")
	})
	require.NoError(t, err)
	assert.Contains(t, output, "Purged all data from data.db")

	st, err := store.GetStats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(0), st.TotalEvents)
}

func TestPurge_ConfirmationAccepted(t *testing.T) {
	e := testEnv(false)
	store, _ := setupStatusTest(t, e)
	seedDataset(t, store)

	cmd := &PurgeCommand{All: true, stdin: strings.NewReader("PURGE\n")}

	var err error
	output := captureOutput(t, func() {
		err = cmd.executeWithStore(e, store, "data.db")
	})
	require.NoError(t, err)
	assert.Contains(t, output, `Type "PURGE" to confirm`)

	st, err := store.GetStats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(0), st.TotalEvents)
}

func TestPurge_ConfirmationRejected(t *testing.T) {
	e := testEnv(false)
	store, _ := setupStatusTest(t, e)
	seedDataset(t, store)

	cmd := &PurgeCommand{All: true, stdin: strings.NewReader("yes\n")}

	var err error
	captureOutput(t, func() {
		err = cmd.executeWithStore(e, store, "data.db")
	})
	assert.ErrorContains(t, err, "confirmation text did not match")

	st, err := store.GetStats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(3), st.TotalEvents, "nothing deleted")
}

func TestPurge_NoInput(t *testing.T) {
	e := testEnv(false)
	store, _ := setupStatusTest(t, e)

	cmd := &PurgeCommand{All: true, stdin: strings.NewReader("")}

	var err error
	captureOutput(t, func() {
		err = cmd.executeWithStore(e, store, "data.db")
	})
	assert.ErrorContains(t, err, "no input received")
}

func TestPurge_JSONOutput(t *testing.T) {
	e := testEnv(true)
	store, _ := setupStatusTest(t, e)

	cmd := &PurgeCommand{All: true, Force: true}

	var err error
	output := captureOutput(t, func() {
		err = cmd.executeWithStore(e, store, "data.db")
	})
	require.NoError(t, err)

	var out map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(output), &out))
	assert.Equal(t, true, out["purged"])
	assert.Equal(t, "data.db", out["database"])
}

func TestPurge_MissingDatasetFile(t *testing.T) {
	cmd := &PurgeCommand{
		All:     true,
		Force:   true,
		DB:      filepath.Join(t.TempDir(), "absent.db"),
		globals: &GlobalFlags{Config: writeConfig(t)},
	}

	err := cmd.Execute(nil)
	assert.ErrorIs(t, err, ErrNoDataset)
}
