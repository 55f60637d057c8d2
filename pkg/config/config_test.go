package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/marmos91/newsletter/internal/bytesize"
)

func TestLoad_File(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	configContent := `
logging:
  level: "debug"

application:
  port: 9000
  base_url: "http://localhost:9000"
  max_body_size: 1MiB

database:
  host: "db.internal"
  database_name: "news"
  connect_timeout: 3s

email_client:
  sender_email: "team@example.com"
  timeout: 2500ms
`
	if err := os.WriteFile(configPath, []byte(configContent), 0644); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	if cfg.Logging.Level != "DEBUG" {
		t.Errorf("Expected normalized level DEBUG, got %q", cfg.Logging.Level)
	}
	if cfg.Logging.Format != "text" {
		t.Errorf("Expected default format 'text', got %q", cfg.Logging.Format)
	}
	if cfg.Application.Port != 9000 {
		t.Errorf("Expected port 9000, got %d", cfg.Application.Port)
	}
	if cfg.Application.ShutdownTimeout != 30*time.Second {
		t.Errorf("Expected default shutdown_timeout 30s, got %v", cfg.Application.ShutdownTimeout)
	}
	if cfg.Application.MaxBodySize != bytesize.MiB {
		t.Errorf("Expected max_body_size 1MiB, got %v", cfg.Application.MaxBodySize)
	}
	if cfg.Database.Host != "db.internal" || cfg.Database.DatabaseName != "news" {
		t.Errorf("Unexpected database settings: %+v", cfg.Database)
	}
	if cfg.Database.Port != 5432 {
		t.Errorf("Expected default database port 5432, got %d", cfg.Database.Port)
	}
	if cfg.Database.ConnectTimeout != 3*time.Second {
		t.Errorf("Expected connect_timeout 3s, got %v", cfg.Database.ConnectTimeout)
	}
	if cfg.EmailClient.Timeout != 2500*time.Millisecond {
		t.Errorf("Expected email timeout 2.5s, got %v", cfg.EmailClient.Timeout)
	}
}

func TestLoad_NoConfigFile(t *testing.T) {
	nonExistentPath := filepath.Join(t.TempDir(), "nonexistent.yaml")

	cfg, err := Load(nonExistentPath)
	if err != nil {
		t.Fatalf("Expected no error when loading default config, got: %v", err)
	}
	if cfg.Database.DatabaseName != "newsletter" {
		t.Errorf("Expected default database name, got %q", cfg.Database.DatabaseName)
	}
}

func TestLoad_EnvOverridesWithoutFile(t *testing.T) {
	t.Setenv("NEWSLETTER_DATABASE_HOST", "pg.example")
	t.Setenv("NEWSLETTER_DATABASE_PORT", "6543")
	t.Setenv("NEWSLETTER_DATABASE_PASSWORD", "hunter2")
	t.Setenv("NEWSLETTER_APPLICATION_SHUTDOWN_TIMEOUT", "5s")
	t.Setenv("NEWSLETTER_APPLICATION_MAX_BODY_SIZE", "2KiB")

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Database.Host != "pg.example" {
		t.Errorf("Expected env host, got %q", cfg.Database.Host)
	}
	if cfg.Database.Port != 6543 {
		t.Errorf("Expected env port 6543, got %d", cfg.Database.Port)
	}
	if cfg.Database.Password.Expose() != "hunter2" {
		t.Errorf("Expected env password")
	}
	if cfg.Application.ShutdownTimeout != 5*time.Second {
		t.Errorf("Expected env shutdown_timeout 5s, got %v", cfg.Application.ShutdownTimeout)
	}
	if cfg.Application.MaxBodySize != 2*bytesize.KiB {
		t.Errorf("Expected env max_body_size 2KiB, got %v", cfg.Application.MaxBodySize)
	}
}

func TestLoad_EnvironmentOverlay(t *testing.T) {
	tmpDir := t.TempDir()
	base := filepath.Join(tmpDir, "config.yaml")
	overlay := filepath.Join(tmpDir, "production.yaml")

	if err := os.WriteFile(base, []byte("application:\n  host: 127.0.0.1\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(overlay, []byte("application:\n  host: 0.0.0.0\ndatabase:\n  require_ssl: true\n"), 0644); err != nil {
		t.Fatal(err)
	}

	t.Setenv(EnvEnvironment, "production")
	cfg, err := Load(base)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Application.Host != "0.0.0.0" {
		t.Errorf("Expected overlay host, got %q", cfg.Application.Host)
	}
	if !cfg.Database.RequireSSL {
		t.Errorf("Expected overlay require_ssl")
	}

	t.Setenv(EnvEnvironment, "staging")
	if _, err := Load(base); err == nil {
		t.Fatal("Expected error for unsupported environment")
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(configPath, []byte("logging: [unterminated"), 0644); err != nil {
		t.Fatal(err)
	}

	if _, err := Load(configPath); err == nil {
		t.Fatal("Expected error for invalid YAML")
	}
}

func TestMustLoad_MissingExplicitFile(t *testing.T) {
	_, err := MustLoad(filepath.Join(t.TempDir(), "nope.yaml"))
	if err == nil {
		t.Fatal("Expected error for missing explicit config file")
	}
	if !strings.Contains(err.Error(), "newsletter init") {
		t.Errorf("Expected hint to run init, got: %v", err)
	}
}

func TestSaveConfig_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	cfg := GetDefaultConfig()
	cfg.Database.Password = "s3cret"

	if err := SaveConfig(cfg, path); err != nil {
		t.Fatalf("SaveConfig failed: %v", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	if perm := info.Mode().Perm(); perm != 0600 && os.PathSeparator == '/' {
		t.Errorf("Expected 0600 permissions, got %o", perm)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if loaded.Database.Password.Expose() != "s3cret" {
		t.Errorf("Password not preserved across save/load")
	}
	if loaded.Application.MaxBodySize != cfg.Application.MaxBodySize {
		t.Errorf("max_body_size not preserved: %v", loaded.Application.MaxBodySize)
	}
}

func TestInitConfigToPath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")

	if err := InitConfigToPath(path, false); err != nil {
		t.Fatalf("InitConfigToPath failed: %v", err)
	}

	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	for _, section := range []string{"# Newsletter Configuration File", "logging:", "application:", "database:", "email_client:"} {
		if !strings.Contains(string(content), section) {
			t.Errorf("Config file missing section: %s", section)
		}
	}

	var cfg Config
	if err := yaml.Unmarshal(content, &cfg); err != nil {
		t.Fatalf("Generated config is not valid YAML: %v", err)
	}

	if err := InitConfigToPath(path, false); err == nil {
		t.Fatal("Expected error when config already exists")
	}
	if err := InitConfigToPath(path, true); err != nil {
		t.Fatalf("Expected force to overwrite, got: %v", err)
	}
}

func TestInitConfig_DefaultLocation(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	path, err := InitConfig(false)
	if err != nil {
		t.Fatalf("InitConfig failed: %v", err)
	}
	if path != GetDefaultConfigPath() {
		t.Errorf("Expected %s, got %s", GetDefaultConfigPath(), path)
	}
}
