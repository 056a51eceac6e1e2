package cli

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/mstanoev/agentcoord/pkg/state"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunCommandExecutesDefinitionFile(t *testing.T) {
	// Force the file backend even when the host has DB_* vars set.
	t.Setenv("DB_USERNAME", "")

	dir := t.TempDir()
	defPath := filepath.Join(dir, "wf.json")
	statePath := filepath.Join(dir, "state.json")
	def := `{
		"id": "cli-wf",
		"name": "cli test",
		"tasks": [
			{"id": "a", "name": "a", "agent_type": "echo"},
			{"id": "b", "name": "b", "agent_type": "echo", "dependencies": ["a"]}
		]
	}`
	require.NoError(t, os.WriteFile(defPath, []byte(def), 0o644))

	rootCmd := &cobra.Command{Use: "agentcoord"}
	SetupCLI(rootCmd)
	rootCmd.SetArgs([]string{"run", defPath, "--state", statePath})
	require.NoError(t, rootCmd.Execute())

	snap, err := state.NewFileStore(statePath).Load()
	require.NoError(t, err)
	require.Len(t, snap.Workflows, 1)
	assert.Equal(t, "cli-wf", snap.Workflows[0].ID)
	assert.Equal(t, "COMPLETED", snap.Workflows[0].Status)
	assert.Equal(t, "COMPLETED", snap.Workflows[0].Tasks["a"].Status)
	assert.Equal(t, "COMPLETED", snap.Workflows[0].Tasks["b"].Status)
}

func TestDatabaseConnStr(t *testing.T) {
	assert.Equal(t, "postgres://explicit", DatabaseConnStr("postgres://explicit"))

	t.Setenv("DB_USERNAME", "u")
	t.Setenv("DB_PASSWORD", "p")
	t.Setenv("DB_HOST", "h")
	t.Setenv("DB_PORT", "5432")
	t.Setenv("DB_NAME", "n")
	assert.Equal(t, "postgres://u:p@h:5432/n?sslmode=disable", DatabaseConnStr(""))

	// An explicit value still wins over the env.
	assert.Equal(t, "postgres://explicit", DatabaseConnStr("postgres://explicit"))

	t.Setenv("DB_NAME", "")
	assert.Equal(t, "", DatabaseConnStr(""))
}
