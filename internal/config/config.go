package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	ListenAddr        string
	DBPath            string
	PhotoBackend      string
	PhotoPath         string
	PhotoS3Bucket     string
	PhotoS3Prefix     string
	AWSRegion         string
	PhotoFetchTimeout time.Duration
	PhotoAllowedHosts []string
	ChecklistPath     string
	ChecklistName     string
	ReportKind        string
	SummaryBackend    string
	ClaudeAPIKey      string
	ClaudeModel       string
	LogLevel          string
	LogFile           string
}

// LoadDotEnv loads variables from the given .env files, or ./.env when none
// are named. Variables already set in the environment win. A missing file is
// not an error.
func LoadDotEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("failed to load %s: %w", f, err)
		}
	}
	return nil
}

func Load() *Config {
	return &Config{
		ListenAddr:        getEnv("LISTEN_ADDR", ":8080"),
		DBPath:            getEnv("DB_PATH", "/data/safetyaudit.db"),
		PhotoBackend:      getEnv("PHOTO_BACKEND", "local"),
		PhotoPath:         getEnv("PHOTO_LOCAL_PATH", "/data/photos"),
		PhotoS3Bucket:     getEnv("PHOTO_S3_BUCKET", ""),
		PhotoS3Prefix:     getEnv("PHOTO_S3_PREFIX", "photos"),
		AWSRegion:         getEnv("AWS_REGION", "us-east-1"),
		PhotoFetchTimeout: getDuration("PHOTO_FETCH_TIMEOUT", 10*time.Second),
		PhotoAllowedHosts: getList("PHOTO_ALLOWED_HOSTS"),
		ChecklistPath:     getEnv("CHECKLIST_PATH", ""),
		ChecklistName:     getEnv("CHECKLIST", ""),
		ReportKind:        getEnv("REPORT_KIND", ""),
		SummaryBackend:    getEnv("SUMMARY_BACKEND", "none"),
		ClaudeAPIKey:      getEnv("CLAUDE_API_KEY", ""),
		ClaudeModel:       getEnv("CLAUDE_MODEL", "claude-opus-4-6"),
		LogLevel:          getEnv("LOG_LEVEL", "info"),
		LogFile:           getEnv("LOG_FILE", ""),
	}
}

// Validate reports settings that would fail at startup.
func (c *Config) Validate() error {
	switch c.PhotoBackend {
	case "local":
	case "s3":
		if c.PhotoS3Bucket == "" {
			return errors.New("PHOTO_S3_BUCKET is required when PHOTO_BACKEND=s3")
		}
	default:
		return fmt.Errorf("unknown PHOTO_BACKEND %q", c.PhotoBackend)
	}

	switch c.SummaryBackend {
	case "none", "":
	case "claude":
		if c.ClaudeAPIKey == "" {
			return errors.New("CLAUDE_API_KEY is required when SUMMARY_BACKEND=claude")
		}
	default:
		return fmt.Errorf("unknown SUMMARY_BACKEND %q", c.SummaryBackend)
	}
	return nil
}

func getEnv(key, defaultVal string) string {
	if val, exists := os.LookupEnv(key); exists {
		return val
	}
	return defaultVal
}

// getList splits a comma separated value, dropping empty entries.
func getList(key string) []string {
	var out []string
	for _, v := range strings.Split(os.Getenv(key), ",") {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}

// getDuration falls back to defaultVal when the value is missing or invalid.
func getDuration(key string, defaultVal time.Duration) time.Duration {
	val, exists := os.LookupEnv(key)
	if !exists {
		return defaultVal
	}
	d, err := time.ParseDuration(val)
	if err != nil || d <= 0 {
		return defaultVal
	}
	return d
}
