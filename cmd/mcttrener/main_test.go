package main

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/toradrage/mct-trener/internal/belief"
	"github.com/toradrage/mct-trener/internal/rules"
	"github.com/toradrage/mct-trener/internal/session"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Setenv("MCT_PARAPHRASE", "none")
	t.Setenv("MCT_RULES_FILE", "")
	var out bytes.Buffer
	root := newRootCmd()
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(append([]string{"--db", filepath.Join(t.TempDir(), "cli.db"), "--log-level", "error"}, args...))
	err := root.Execute()
	return out.String(), err
}

func TestRulesCommandPrintsTable(t *testing.T) {
	out, err := run(t, "rules")
	require.NoError(t, err)
	require.Contains(t, out, "version: mct-rules-v2")
	require.Contains(t, out, "danger_high: 70")

	// The dump loads back as a rule file.
	_, err = rules.Parse([]byte(out))
	require.NoError(t, err)
}

func TestReplayCommand(t *testing.T) {
	fixtures := filepath.Join("..", "..", "internal", "replay", "testdata")
	out, err := run(t, "replay",
		filepath.Join(fixtures, "early_backfire.yaml"),
		filepath.Join(fixtures, "content_penalty.yaml"),
	)
	require.NoError(t, err, out)
	require.Equal(t, 2, strings.Count(out, "ok   "))
	require.Contains(t, out, "backfires=2")
}

func TestSessionNewCommand(t *testing.T) {
	out, err := run(t, "session", "new", "--difficulty", "3")
	require.NoError(t, err)
	require.Contains(t, out, "Difficulty:   3")
	require.Contains(t, out, "early")
}

func TestParseTurn(t *testing.T) {
	req, err := parseTurn(" Mindfulness ", "hei", "")
	require.NoError(t, err)
	require.Equal(t, rules.Mindfulness, req.Intervention)

	req, err = parseTurn("verbal", "Hva skjedde?", "trigger")
	require.NoError(t, err)
	require.Equal(t, belief.KeyTrigger, req.SelectedCategory)

	_, err = parseTurn("hypnose", "", "")
	require.Error(t, err)
	_, err = parseTurn("verbal", "", "dreams")
	require.Error(t, err)
}

func TestExportCommandErrors(t *testing.T) {
	_, err := run(t, "export")
	require.ErrorContains(t, err, "--session is required")

	_, err = run(t, "export", "--session", "missing", "--out", filepath.Join(t.TempDir(), "x.yaml"))
	require.ErrorIs(t, err, session.ErrNotFound)
}
