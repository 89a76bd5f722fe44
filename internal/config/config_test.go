package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/toradrage/mct-trener/internal/paraphrase"
)

// clearEnv blanks every variable Load reads so the host environment cannot leak in.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"MCT_DB", "MCT_LOG_LEVEL", "MCT_RULES_FILE", "MCT_PARAPHRASE", "MCT_PARAPHRASE_ADDR",
		"MCT_PARAPHRASE_BUDGET_MS", "OPENAI_API_KEY", "OPENAI_MODEL", "OPENAI_BASE_URL",
	} {
		t.Setenv(k, "")
	}
}

func writeFile(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))
	return path
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)
	cfg, err := Load("")
	require.NoError(t, err)
	require.Equal(t, Default(), cfg)
	require.Equal(t, 350*time.Millisecond, cfg.Budget())
	require.Equal(t, ParaphraseNone, cfg.Paraphrase.Mode)
}

func TestLoadFileThenEnv(t *testing.T) {
	clearEnv(t)
	path := writeFile(t, "mct.yaml", `
db: /tmp/file.db
log:
  level: debug
paraphrase:
  mode: grpc
  budget_ms: 500
  addr: paraphraser:9000
`)
	t.Setenv("MCT_DB", "/tmp/env.db")
	t.Setenv("MCT_PARAPHRASE_BUDGET_MS", "900")

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "/tmp/env.db", cfg.DB)
	require.Equal(t, "debug", cfg.Log.Level)
	require.Equal(t, ParaphraseGRPC, cfg.Paraphrase.Mode)
	require.Equal(t, "paraphraser:9000", cfg.Paraphrase.Addr)
	require.Equal(t, 900*time.Millisecond, cfg.Budget())
	require.Equal(t, "gpt-4o-mini", cfg.Paraphrase.OpenAI.Model)
}

func TestLoadIgnoresBadBudget(t *testing.T) {
	clearEnv(t)
	t.Setenv("MCT_PARAPHRASE_BUDGET_MS", "soon")
	cfg, err := Load("")
	require.NoError(t, err)
	require.Equal(t, paraphrase.DefaultBudget, cfg.Budget())
}

func TestLoadRejectsUnknownMode(t *testing.T) {
	clearEnv(t)
	t.Setenv("MCT_PARAPHRASE", "carrier-pigeon")
	_, err := Load("")
	require.ErrorContains(t, err, "carrier-pigeon")
}

func TestLoadOpenAINeedsKey(t *testing.T) {
	clearEnv(t)
	t.Setenv("MCT_PARAPHRASE", "openai")
	_, err := Load("")
	require.Error(t, err)

	t.Setenv("OPENAI_API_KEY", "sk-test")
	cfg, err := Load("")
	require.NoError(t, err)
	p, closeFn, err := cfg.Paraphraser()
	require.NoError(t, err)
	require.NotNil(t, p)
	require.NoError(t, closeFn())
}

func TestLoadMissingFile(t *testing.T) {
	clearEnv(t)
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
}

func TestParaphraserNone(t *testing.T) {
	clearEnv(t)
	cfg, err := Load("")
	require.NoError(t, err)
	p, closeFn, err := cfg.Paraphraser()
	require.NoError(t, err)
	require.Nil(t, p)
	require.NoError(t, closeFn())
}

func TestRulesOverlay(t *testing.T) {
	clearEnv(t)
	rulesPath := writeFile(t, "rules.yaml", "replies:\n  danger_high: 80\n")
	t.Setenv("MCT_RULES_FILE", rulesPath)

	cfg, err := Load("")
	require.NoError(t, err)
	r, err := cfg.Rules()
	require.NoError(t, err)
	require.Equal(t, 80.0, r.Replies.DangerHigh)
	require.Equal(t, 55.0, r.Replies.PositiveBeliefHigh)
}
