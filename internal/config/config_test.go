package config

import (
	"os"
	"strings"
	"testing"

	"github.com/tunevault/tunevault/internal/constants"
)

func TestLoad(t *testing.T) {
	cfg := Load()

	if cfg.Port != constants.DefaultPort {
		t.Errorf("Expected Port to be %s, got %s", constants.DefaultPort, cfg.Port)
	}

	if cfg.DBPath != constants.DefaultDBPath {
		t.Errorf("Expected DBPath to be %s, got %s", constants.DefaultDBPath, cfg.DBPath)
	}

	if cfg.ProviderURL != "" {
		t.Errorf("Expected ProviderURL to be empty, got %s", cfg.ProviderURL)
	}

	// Depends on the user's home dir
	if cfg.MusicDir == "" {
		t.Error("Expected MusicDir to not be empty")
	}
}

func TestLoadWithEnvVars(t *testing.T) {
	os.Setenv("PORT", "9090")
	os.Setenv("DB_PATH", "/tmp/test.db")
	os.Setenv("MUSIC_DIR", "/tmp/music")
	os.Setenv("PROVIDER_URL", "http://example.com:8000")
	defer func() {
		os.Unsetenv("PORT")
		os.Unsetenv("DB_PATH")
		os.Unsetenv("MUSIC_DIR")
		os.Unsetenv("PROVIDER_URL")
	}()

	cfg := Load()

	if cfg.Port != "9090" {
		t.Errorf("Expected Port to be 9090, got %s", cfg.Port)
	}

	if cfg.DBPath != "/tmp/test.db" {
		t.Errorf("Expected DBPath to be /tmp/test.db, got %s", cfg.DBPath)
	}

	if cfg.MusicDir != "/tmp/music" {
		t.Errorf("Expected MusicDir to be /tmp/music, got %s", cfg.MusicDir)
	}

	if cfg.ProviderURL != "http://example.com:8000" {
		t.Errorf("Expected ProviderURL to be http://example.com:8000, got %s", cfg.ProviderURL)
	}
}

func TestValidate(t *testing.T) {
	good := &Config{
		Port:      "8080",
		DBPath:    "test.db",
		MusicDir:  "/tmp/music",
		LogLevel:  "info",
		LogFormat: "text",
	}
	if err := good.Validate(); err != nil {
		t.Errorf("Expected valid config, got %v", err)
	}

	bad := &Config{
		Port:      "not-a-port",
		DBPath:    "",
		MusicDir:  "",
		LogLevel:  "loud",
		LogFormat: "yaml",
	}
	err := bad.Validate()
	if err == nil {
		t.Fatal("Expected validation to fail")
	}

	// Every problem is collected into one error
	msg := err.Error()
	for _, want := range []string{"PORT", "DB_PATH", "MUSIC_DIR", "LOG_LEVEL", "LOG_FORMAT"} {
		if !strings.Contains(msg, want) {
			t.Errorf("Expected error to mention %s, got: %s", want, msg)
		}
	}
}

func TestValidatePortRange(t *testing.T) {
	cfg := &Config{
		Port:      "70000",
		DBPath:    "test.db",
		MusicDir:  "/tmp/music",
		LogLevel:  "info",
		LogFormat: "text",
	}
	if err := cfg.Validate(); err == nil {
		t.Error("Expected out-of-range port to fail validation")
	}
}
