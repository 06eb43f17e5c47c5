package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/plyght/ora-plyght/internal/cli"
)

func setupEnv(t *testing.T) {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("HOME", dir)
	t.Setenv("ORATABS_CONFIG", filepath.Join(dir, "config.toml"))
	t.Setenv("ORATABS_DATABASE_PATH", filepath.Join(dir, "tabs.db"))
	t.Setenv("ORATABS_LOG_PATH", filepath.Join(dir, "oratabs.log"))
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	outputFormat, containerRef, sectionName = "text", "", ""
	newURL, newParent, dropSpace, dropSection, emoji = "", "", "", "", ""
	dropBefore, dropAfter, confirmWipe, writeConfig = false, false, false, false

	var buf bytes.Buffer
	rootCmd.SetOut(&buf)
	rootCmd.SetErr(&buf)
	rootCmd.SetArgs(args)
	err := rootCmd.ExecuteContext(context.Background())
	return buf.String(), err
}

func TestCommandsRoundTrip(t *testing.T) {
	setupEnv(t)

	out, err := execute(t, "new", "Alpha", "--url", "https://a.example")
	require.NoError(t, err)
	parent := strings.TrimSpace(out)

	out, err = execute(t, "new", "Child", "--parent", parent[:8])
	require.NoError(t, err)
	child := strings.TrimSpace(out)

	out, err = execute(t, "list", "-o", "json")
	require.NoError(t, err)
	var listed []cli.Listing
	require.NoError(t, json.Unmarshal([]byte(out), &listed))
	require.Len(t, listed, 1)
	require.Equal(t, "Personal", listed[0].Container)
	require.Len(t, listed[0].Tabs, 2)
	require.Equal(t, parent, listed[0].Tabs[1].ParentID)
	require.Equal(t, 1, listed[0].Tabs[1].Depth)

	out, err = execute(t, "drop", child)
	require.NoError(t, err)
	require.Equal(t, "reparent "+child+"\n", out)

	out, err = execute(t, "drop", child, parent, "--after")
	require.NoError(t, err)
	require.Contains(t, out, "unchanged")

	out, err = execute(t, "doctor")
	require.NoError(t, err)
	require.Equal(t, "no problems found\n", out)
}

func TestContainersAndMove(t *testing.T) {
	setupEnv(t)

	_, err := execute(t, "containers", "add", "Work", "--emoji", "💼")
	require.NoError(t, err)
	out, err := execute(t, "new", "Docs")
	require.NoError(t, err)
	id := strings.TrimSpace(out)

	out, err = execute(t, "move", id, "work")
	require.NoError(t, err)
	require.Contains(t, out, "moved "+id+" to Work")

	out, err = execute(t, "list", "-c", "Work")
	require.NoError(t, err)
	require.Contains(t, out, "Docs")

	_, err = execute(t, "move", id, "nowhere-near")
	require.Error(t, err)
}

func TestResetRequiresConfirmation(t *testing.T) {
	setupEnv(t)

	_, err := execute(t, "reset")
	require.ErrorContains(t, err, "--yes")

	_, err = execute(t, "demo")
	require.NoError(t, err)
	out, err := execute(t, "reset", "--yes")
	require.NoError(t, err)
	require.Equal(t, "reset complete\n", out)

	out, err = execute(t, "containers")
	require.NoError(t, err)
	require.Contains(t, out, "Personal")
	require.NotContains(t, out, "Work")
}

func TestConfigWrite(t *testing.T) {
	setupEnv(t)
	t.Setenv("ORATABS_TREE_MAX_DEPTH", "12")

	out, err := execute(t, "config", "--write", "-o", "json")
	require.NoError(t, err)
	require.Contains(t, out, `"MaxDepth": 12`)

	data, err := os.ReadFile(os.Getenv("ORATABS_CONFIG"))
	require.NoError(t, err)
	require.Contains(t, string(data), "max_depth = 12")
}

func TestDropOntoEmptySection(t *testing.T) {
	setupEnv(t)

	out, err := execute(t, "new", "Alpha")
	require.NoError(t, err)
	id := strings.TrimSpace(out)

	out, err = execute(t, "drop", id, "--section", "pinned")
	require.NoError(t, err)
	require.Equal(t, "move-to-section "+id+"\n", out)

	out, err = execute(t, "list", "-s", "pinned")
	require.NoError(t, err)
	require.Contains(t, out, "[pinned]")
	require.Contains(t, out, "Alpha")
}
