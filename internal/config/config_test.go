package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/besttest/besttest/pkg/types"
)

// clearEnv unsets the environment overrides for the duration of the test.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, name := range []string{"DEV", "UAT", "PROD"} {
		for _, suffix := range []string{"_URL", "_API_KEY"} {
			key := "BESTTEST_" + name + suffix
			t.Setenv(key, "")
			require.NoError(t, os.Unsetenv(key))
		}
	}
}

func writeConfig(t *testing.T, dir, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(content), 0o644))
}

func TestLoadCreatesDefault(t *testing.T) {
	clearEnv(t)
	dir := filepath.Join(t.TempDir(), "cfg")

	s, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, Default(), s)
	assert.FileExists(t, filepath.Join(dir, "config.yaml"))

	again, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, s, again)
}

func TestLoadReadsFile(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	writeConfig(t, dir, `
backend: jsonl
active_env: UAT
executor: http
pass_ratio: 0.5
status_path: $.result.status
environments:
  uat:
    url: https://uat.example.com
    api_key: file-key
`)

	s, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, types.BackendJSONL, s.Backend)
	assert.Equal(t, EnvUAT, s.ActiveEnv)
	assert.Equal(t, ExecutorHTTP, s.Executor)
	assert.InDelta(t, 0.5, s.PassRatio, 1e-9)
	assert.Equal(t, "$.result.status", s.StatusPath)
	assert.Equal(t, Environment{URL: "https://uat.example.com", APIKey: "file-key"}, s.Active())
	assert.Equal(t, DefaultListen, s.Listen)
}

func TestLoadEnvOverrides(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	writeConfig(t, dir, "active_env: prod\n")
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"),
		[]byte("BESTTEST_PROD_URL=https://prod.example.com\nBESTTEST_PROD_API_KEY=from-dotenv\n"), 0o600))
	t.Setenv("BESTTEST_PROD_API_KEY", "from-process")

	s, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, "https://prod.example.com", s.Active().URL)
	assert.Equal(t, "from-process", s.Active().APIKey, "process environment wins over .env")
}

func TestLoadValidation(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr error
	}{
		{"unknown env", "active_env: staging\n", ErrUnknownEnv},
		{"pass ratio above one", "pass_ratio: 1.5\n", ErrPassRatio},
		{"unknown executor", "executor: docker\n", ErrUnknownExecutor},
		{"http without url", "executor: http\nactive_env: prod\n", ErrMissingURL},
		{"unknown backend", "backend: redis\n", types.ErrBackendUnknown},
		{"mysql without dsn", "backend: mysql\n", types.ErrDSNRequired},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			dir := t.TempDir()
			writeConfig(t, dir, tt.content)
			_, err := Load(dir)
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestLoadMalformedYAML(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	writeConfig(t, dir, "backend: [sqlite\n")
	_, err := Load(dir)
	assert.Error(t, err)
}

func TestSaveRoundTrip(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	s := Default()
	s.ActiveEnv = EnvUAT
	s.Environments.UAT = Environment{URL: "https://uat.example.com", APIKey: "k"}
	require.NoError(t, Save(dir, s))

	got, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, s, got)
}

func TestMasked(t *testing.T) {
	s := Default()
	s.Environments.Prod.APIKey = "secret"
	m := s.Masked()
	assert.Equal(t, "****", m.Environments.Prod.APIKey)
	assert.Empty(t, m.Environments.Dev.APIKey)
	assert.Equal(t, "secret", s.Environments.Prod.APIKey)
}

func TestEvidencePath(t *testing.T) {
	s := Default()
	assert.Equal(t, filepath.Join("data", "evidence"), s.EvidencePath("data"))
	s.EvidenceDir = "/srv/shots"
	assert.Equal(t, "/srv/shots", s.EvidencePath("data"))
}

func TestEnvironmentsGet(t *testing.T) {
	var envs Environments
	env, err := envs.Get("DEV")
	require.NoError(t, err)
	env.URL = "x"
	assert.Equal(t, "x", envs.Dev.URL)

	_, err = envs.Get("qa")
	assert.ErrorIs(t, err, ErrUnknownEnv)
}
