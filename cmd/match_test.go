package cmd

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spigell/talent-matcher/internal/domain"
	"github.com/spigell/talent-matcher/internal/scoring"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestReadRequest(t *testing.T) {
	path := writeFile(t, "request.json", `{
		"candidates": [{"id": "c1", "skills": "Go, SQL", "experience_years": 3}],
		"opportunities": [
			{"id": "o1", "required_skills": ["Go"]},
			{"id": "o2", "required_skills": ["SQL"], "experience_level": "senior"}
		]
	}`)

	req, err := readRequest(path)
	require.NoError(t, err)
	require.Len(t, req.Candidates, 1)
	require.Len(t, req.Opportunities, 2)
	assert.Equal(t, []string{"Go", "SQL"}, req.Candidates[0].Skills)
	assert.Equal(t, domain.LevelSenior, req.Opportunities[1].ExperienceLevel)
}

func TestReadRequestRejectsInvalidRecords(t *testing.T) {
	path := writeFile(t, "request.json", `{
		"candidates": [{"id": "c1", "skills": ["Go"]}],
		"opportunities": [{"id": "o1", "required_skills": []}]
	}`)

	_, err := readRequest(path)
	require.Error(t, err)
	assert.Equal(t, domain.KindValidation, domain.KindOf(err))
	assert.Contains(t, err.Error(), "opportunities[0]")
}

func TestReadRequestRejectsMalformedJSON(t *testing.T) {
	_, err := readRequest(writeFile(t, "request.json", `{"candidates": [`))
	require.Error(t, err)
	assert.Equal(t, domain.KindValidation, domain.KindOf(err))

	_, err = readRequest(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}

func TestConfigDefaults(t *testing.T) {
	v := viper.New()
	setDefaults(v)

	var cfg *Config
	require.NoError(t, v.Unmarshal(&cfg))

	assert.Equal(t, scoring.DefaultConfig(), cfg.scoringConfig())
	assert.Equal(t, 4, cfg.limits().Concurrency)
	assert.True(t, cfg.AI.Assessment)
	assert.True(t, cfg.AI.Similarity)
	assert.Equal(t, "gemini", cfg.AI.Provider)
}

func TestConfigOverrides(t *testing.T) {
	path := writeFile(t, "talent-matcher.yaml", `
engine:
  weights:
    semantic: 0.5
    skills: 0.2
  location:
    same-region: 0.6
batch:
  top-n: 3
`)

	v := viper.New()
	setDefaults(v)
	v.SetConfigFile(path)
	require.NoError(t, v.ReadInConfig())

	var cfg *Config
	require.NoError(t, v.Unmarshal(&cfg))

	sc := cfg.scoringConfig()
	assert.Equal(t, 0.5, sc.Weights.Semantic)
	assert.Equal(t, 0.2, sc.Weights.Skills)
	assert.Equal(t, scoring.DefaultExperienceWeight, sc.Weights.Experience)
	assert.Equal(t, 0.6, sc.SameRegionLocation)
	assert.Equal(t, scoring.DefaultUnrelatedLocation, sc.UnrelatedLocation)
	assert.NoError(t, sc.Validate())
	assert.Equal(t, 3, cfg.limits().TopN)
}

func TestNilConfigFallsBackToDefaults(t *testing.T) {
	var cfg *Config
	assert.Equal(t, scoring.DefaultConfig(), cfg.scoringConfig())
	assert.Zero(t, cfg.limits())
}

func TestRedacted(t *testing.T) {
	cfg := &Config{AI: &AIConfig{Gemini: &GeminiConfig{APIKey: "secret", Model: "m"}}}

	out := redacted(cfg)
	assert.Equal(t, "***", out.AI.Gemini.APIKey)
	assert.Equal(t, "m", out.AI.Gemini.Model)
	assert.Equal(t, "secret", cfg.AI.Gemini.APIKey)
}

func TestNewProvidersDisabled(t *testing.T) {
	similarity, assessor, err := newProviders(t.Context(), &AIConfig{}, nil)
	require.NoError(t, err)
	assert.Nil(t, similarity)
	assert.Nil(t, assessor)
}

func TestNewProvidersRequiresKey(t *testing.T) {
	t.Setenv(geminiKeyEnv, "")

	_, _, err := newProviders(t.Context(), &AIConfig{Assessment: true}, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "gemini api key is not configured")

	_, _, err = newProviders(t.Context(), &AIConfig{Provider: "openai", Assessment: true}, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported ai provider")
}

func TestVersionString(t *testing.T) {
	assert.Contains(t, versionString(), "talent-matcher version: unknown")
}
