package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	cfg := Load()

	assert.NotNil(t, cfg)
	assert.NotEmpty(t, cfg.ListenAddr)
	assert.NotEmpty(t, cfg.DBPath)
	assert.NotEmpty(t, cfg.PhotoBackend)
	assert.Positive(t, cfg.PhotoFetchTimeout)
}

func TestLoadCustomValues(t *testing.T) {
	t.Setenv("LISTEN_ADDR", ":9000")
	t.Setenv("DB_PATH", "/custom/db.sqlite")
	t.Setenv("PHOTO_BACKEND", "s3")
	t.Setenv("PHOTO_S3_BUCKET", "evidencia")
	t.Setenv("PHOTO_FETCH_TIMEOUT", "3s")
	t.Setenv("SUMMARY_BACKEND", "claude")
	t.Setenv("CLAUDE_API_KEY", "sk-test123")
	t.Setenv("REPORT_KIND", "Reporte_Extintores")

	cfg := Load()

	assert.Equal(t, ":9000", cfg.ListenAddr)
	assert.Equal(t, "/custom/db.sqlite", cfg.DBPath)
	assert.Equal(t, "s3", cfg.PhotoBackend)
	assert.Equal(t, "evidencia", cfg.PhotoS3Bucket)
	assert.Equal(t, 3*time.Second, cfg.PhotoFetchTimeout)
	assert.Equal(t, "claude", cfg.SummaryBackend)
	assert.Equal(t, "sk-test123", cfg.ClaudeAPIKey)
	assert.Equal(t, "Reporte_Extintores", cfg.ReportKind)
	assert.NoError(t, cfg.Validate())
}

func TestLoadPhotoAllowedHosts(t *testing.T) {
	t.Setenv("PHOTO_ALLOWED_HOSTS", " fotos.example.com, ,cdn.example.com:8443 ")

	assert.Equal(t, []string{"fotos.example.com", "cdn.example.com:8443"}, Load().PhotoAllowedHosts)
}

func TestLoadPhotoAllowedHostsDefaultsToNone(t *testing.T) {
	t.Setenv("PHOTO_ALLOWED_HOSTS", "")

	assert.Empty(t, Load().PhotoAllowedHosts)
}

func TestLoadInvalidDurationUsesDefault(t *testing.T) {
	t.Setenv("PHOTO_FETCH_TIMEOUT", "soon")

	assert.Equal(t, 10*time.Second, Load().PhotoFetchTimeout)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{name: "defaults", mutate: func(*Config) {}},
		{name: "s3 without bucket", mutate: func(c *Config) { c.PhotoBackend = "s3"; c.PhotoS3Bucket = "" }, wantErr: "PHOTO_S3_BUCKET"},
		{name: "unknown photo backend", mutate: func(c *Config) { c.PhotoBackend = "ftp" }, wantErr: "PHOTO_BACKEND"},
		{name: "claude without key", mutate: func(c *Config) { c.SummaryBackend = "claude"; c.ClaudeAPIKey = "" }, wantErr: "CLAUDE_API_KEY"},
		{name: "unknown summary backend", mutate: func(c *Config) { c.SummaryBackend = "gemini" }, wantErr: "SUMMARY_BACKEND"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{PhotoBackend: "local", SummaryBackend: "none"}
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}

func TestLoadDotEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("REPORT_KIND=Desde_Archivo\nLISTEN_ADDR=:7000\n"), 0o600))
	t.Setenv("LISTEN_ADDR", ":9999")
	// Register REPORT_KIND for cleanup, then unset it so the file can set it.
	t.Setenv("REPORT_KIND", "")
	require.NoError(t, os.Unsetenv("REPORT_KIND"))

	require.NoError(t, LoadDotEnv(path))

	cfg := Load()
	assert.Equal(t, "Desde_Archivo", cfg.ReportKind)
	assert.Equal(t, ":9999", cfg.ListenAddr)
}

func TestLoadDotEnvMissingFile(t *testing.T) {
	assert.NoError(t, LoadDotEnv(filepath.Join(t.TempDir(), "missing.env")))
}
