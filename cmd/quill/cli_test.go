package main

import (
	"bytes"
	"encoding/json"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// buildQuillBinary builds the quill binary in dir and returns its path.
func buildQuillBinary(t *testing.T, dir string) string {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping CLI build in short mode")
	}
	bin := filepath.Join(dir, "quill.exe")
	buildCmd := exec.Command("go", "build", "-o", bin, ".")
	if out, err := buildCmd.CombinedOutput(); err != nil {
		t.Fatalf("Failed to build quill: %v\n%s", err, string(out))
	}
	return bin
}

// runQuill runs the binary in dir and returns its stdout.
func runQuill(t *testing.T, dir string, input string, bin string, args ...string) string {
	t.Helper()
	cmd := exec.Command(bin, args...)
	cmd.Dir = dir
	if input != "" {
		cmd.Stdin = strings.NewReader(input)
	}
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		t.Fatalf("quill %v failed in %s: %v\n%s", args, dir, err, stderr.String())
	}
	return stdout.String()
}

func TestCLI_Workflow(t *testing.T) {
	binDir := t.TempDir()
	bin := buildQuillBinary(t, binDir)

	root := t.TempDir()
	runQuill(t, root, "", bin, "init")
	require.FileExists(t, filepath.Join(root, "quill.yaml"))

	entity := filepath.Join(root, "acme_interview")
	require.NoError(t, os.Mkdir(entity, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(entity, "interview.m4a"), []byte("audio"), 0644))

	// Commands find the root from a nested directory.
	t.Run("Status From Entity Directory", func(t *testing.T) {
		out := runQuill(t, entity, "", bin, "status", "acme_interview")
		assert.Contains(t, out, "Missing uploads: resume, photo")
		assert.Contains(t, out, "Cannot publish yet")
	})

	t.Run("Set And History", func(t *testing.T) {
		out := runQuill(t, root, "", bin, "set", "acme_interview", "title", "--value", "First title")
		assert.Contains(t, out, "version 1")

		out = runQuill(t, root, "Second title", bin, "set", "acme_interview", "title")
		assert.Contains(t, out, "version 2")

		out = runQuill(t, root, "", bin, "history", "acme_interview", "title")
		assert.Equal(t, "v1\tFirst title\nv2\tSecond title\n", out)

		assert.Equal(t, "Second title", runQuill(t, root, "", bin, "cat", "acme_interview", "title"))
		assert.Equal(t, "First title", runQuill(t, root, "", bin, "cat", "acme_interview", "title", "--version", "1"))
	})

	t.Run("List JSON", func(t *testing.T) {
		out := runQuill(t, root, "", bin, "list", "--json")

		var entries []listEntry
		require.NoError(t, json.Unmarshal([]byte(out), &entries))
		require.Len(t, entries, 1)
		assert.Equal(t, "acme_interview", entries[0].Name)
		assert.Equal(t, []string{"resume", "photo"}, entries[0].MissingUploads)
	})

	t.Run("Show YAML", func(t *testing.T) {
		out := runQuill(t, root, "", bin, "show", "acme_interview", "--yaml")
		assert.Contains(t, out, "name: acme_interview")
		assert.Contains(t, out, "title: Second title")
	})

	t.Run("Store State", func(t *testing.T) {
		out := runQuill(t, root, "", bin, "status")

		var state struct {
			RepositoryType string   `json:"repository_type"`
			Sections       []string `json:"sections"`
			SharedLocks    bool     `json:"shared_locks"`
		}
		require.NoError(t, json.Unmarshal([]byte(out), &state))
		assert.Equal(t, "repository", state.RepositoryType)
		assert.Equal(t, []string{"files", "metadata", "thumbnails", "blog"}, state.Sections)
		assert.True(t, state.SharedLocks)
	})

	t.Run("Show Markdown", func(t *testing.T) {
		out := runQuill(t, root, "", bin, "show", "acme_interview", "--markdown")
		assert.True(t, strings.HasPrefix(out, "# Second title\n"))
		assert.Contains(t, out, "## LinkedIn")
	})

	t.Run("Held Lock Times Out", func(t *testing.T) {
		// The test process is alive, so its lock is never reclaimed.
		lockPath := filepath.Join(root, ".quill", "locks", "acme_interview.lock")
		require.NoError(t, os.MkdirAll(filepath.Dir(lockPath), 0755))
		require.NoError(t, os.WriteFile(lockPath, []byte(strconv.Itoa(os.Getpid())), 0644))
		defer os.Remove(lockPath)

		cmd := exec.Command(bin, "set", "acme_interview", "title", "--value", "Blocked", "--timeout", "200ms")
		cmd.Dir = root
		out, err := cmd.CombinedOutput()
		assert.Error(t, err)
		assert.Contains(t, string(out), "deadline exceeded")
	})

	t.Run("Reset", func(t *testing.T) {
		runQuill(t, root, "", bin, "reset", "acme_interview", "--yes")

		assert.NoDirExists(t, filepath.Join(entity, "generated"))
		assert.FileExists(t, filepath.Join(entity, "interview.m4a"))
	})
}

func TestCLI_NoStore(t *testing.T) {
	bin := buildQuillBinary(t, t.TempDir())

	cmd := exec.Command(bin, "list", "--root", filepath.Join(t.TempDir(), "missing"))
	out, err := cmd.CombinedOutput()
	assert.Error(t, err)
	assert.Contains(t, string(out), "Failed to open store")
}
