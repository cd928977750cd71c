package config

import (
	"os"
	"path/filepath"
	"testing"

	"jobhunt/internal/ai"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func env(vals map[string]string) func(string) (string, bool) {
	return func(k string) (string, bool) {
		v, ok := vals[k]
		return v, ok
	}
}

func TestLoadFileMissingUsesDefaults(t *testing.T) {
	t.Parallel()

	cfg, err := LoadFile(filepath.Join(t.TempDir(), "absent.yaml"), env(nil))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
	assert.Equal(t, "data/jobhunt.db", cfg.Database.Path)
	assert.Equal(t, 70, cfg.Pipeline.MinRelevanceScore)
	assert.Equal(t, "*/30 * * * *", cfg.Scheduler.Schedules["extract"])
	assert.Len(t, cfg.AI.Providers, 5)
}

func TestLoadFileMergesYAMLAndEnv(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
database:
  path: /tmp/jobs.db
pipeline:
  min_relevance_score: 80
ai:
  providers:
    - kind: local
      model: llama3
scheduler:
  schedules:
    load: "0 * * * *"
email:
  host: smtp.example.com
  port: 587
`), 0o644))

	cfg, err := LoadFile(path, env(map[string]string{
		"DATABASE_PATH":         "/data/override.db",
		"GEMINI_API_KEY":        "g-key",
		"GOOGLE_SPREADSHEET_ID": "sheet-1",
		"GOOGLE_PRIVATE_KEY":    `-----BEGIN KEY-----\nabc\n-----END KEY-----`,
		"LOG_LEVEL":             "",
	}))
	require.NoError(t, err)
	assert.Equal(t, "/data/override.db", cfg.Database.Path)
	assert.Equal(t, 80, cfg.Pipeline.MinRelevanceScore)
	assert.Equal(t, []ai.ProviderConfig{{Kind: ai.KindLocal, Model: "llama3"}}, cfg.AI.Providers)
	assert.Equal(t, "g-key", cfg.AI.GeminiAPIKey)
	assert.Equal(t, "sheet-1", cfg.Sheet.SpreadsheetID)
	assert.Equal(t, "Jobs", cfg.Sheet.SheetName)
	assert.Equal(t, "-----BEGIN KEY-----\nabc\n-----END KEY-----", cfg.Sheet.PrivateKey)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "0 * * * *", cfg.Scheduler.Schedules["load"])
	assert.Equal(t, "smtp.example.com", cfg.Email.Host)
}

func TestLoadFileKeepsZeroScoreThreshold(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("pipeline:\n  min_relevance_score: 0\n"), 0o644))
	cfg, err := LoadFile(path, env(nil))
	require.NoError(t, err)
	assert.Equal(t, 0, cfg.Pipeline.MinRelevanceScore)
}

func TestLoadFileRejectsBadInput(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	bad := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("database: [oops"), 0o644))
	_, err := LoadFile(bad, env(nil))
	require.Error(t, err)

	score := filepath.Join(dir, "score.yaml")
	require.NoError(t, os.WriteFile(score, []byte("pipeline:\n  min_relevance_score: 150\n"), 0o644))
	_, err = LoadFile(score, env(nil))
	require.Error(t, err)
}
