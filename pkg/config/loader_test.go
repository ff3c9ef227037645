package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoader_LoadDefaults(t *testing.T) {
	cfg, err := NewLoader(WithConfigPaths()).Load()
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	if cfg.App.Name != "pagesim" {
		t.Errorf("expected app name 'pagesim', got %s", cfg.App.Name)
	}
	if cfg.HTTP.Port != 8080 {
		t.Errorf("expected HTTP port 8080, got %d", cfg.HTTP.Port)
	}
	if cfg.Log.Level != "info" {
		t.Errorf("expected log level 'info', got %s", cfg.Log.Level)
	}
	if cfg.Simulation.MinFrames != 1 || cfg.Simulation.MaxFrames != 8 {
		t.Errorf("expected frame bounds 1..8, got %d..%d", cfg.Simulation.MinFrames, cfg.Simulation.MaxFrames)
	}
	if cfg.Explainer.MaxAttempts != 3 {
		t.Errorf("expected 3 explainer attempts, got %d", cfg.Explainer.MaxAttempts)
	}
	if cfg.Playback.SessionTTL != time.Hour {
		t.Errorf("expected session ttl 1h, got %v", cfg.Playback.SessionTTL)
	}
	if len(cfg.HTTP.CORS.AllowedMethods) == 0 {
		t.Error("expected default CORS methods")
	}
	if rl := cfg.Explainer.RateLimit; !rl.Enabled || rl.Requests != 30 || rl.Window != time.Minute {
		t.Errorf("unexpected explainer rate limit defaults: %+v", rl)
	}
	if cfg.Audit.Enabled || cfg.Audit.Backend != "stdout" || cfg.Audit.FlushPeriod != 5*time.Second {
		t.Errorf("unexpected audit defaults: %+v", cfg.Audit)
	}
}

func TestLoader_LoadFromFile(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	configContent := `
app:
  name: custom-sim
  version: 2.0.0
  environment: staging
http:
  port: 9000
log:
  level: debug
simulation:
  max_frames: 6
explainer:
  timeout: 5s
`
	err := os.WriteFile(configPath, []byte(configContent), 0644)
	if err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}

	cfg, err := NewLoader(WithConfigPaths(configPath)).Load()
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	if cfg.App.Name != "custom-sim" {
		t.Errorf("expected app name 'custom-sim', got %s", cfg.App.Name)
	}
	if cfg.App.Version != "2.0.0" {
		t.Errorf("expected version '2.0.0', got %s", cfg.App.Version)
	}
	if cfg.HTTP.Port != 9000 {
		t.Errorf("expected port 9000, got %d", cfg.HTTP.Port)
	}
	if cfg.Log.Level != "debug" {
		t.Errorf("expected log level 'debug', got %s", cfg.Log.Level)
	}
	if cfg.Simulation.MaxFrames != 6 {
		t.Errorf("expected max frames 6, got %d", cfg.Simulation.MaxFrames)
	}
	if cfg.Explainer.Timeout != 5*time.Second {
		t.Errorf("expected explainer timeout 5s, got %v", cfg.Explainer.Timeout)
	}
}

func TestLoader_LoadFromEnv(t *testing.T) {
	t.Setenv("PAGESIM_APP_NAME", "env-sim")
	t.Setenv("PAGESIM_HTTP_PORT", "8090")
	t.Setenv("PAGESIM_EXPLAINER_API_KEY", "secret")
	t.Setenv("PAGESIM_SIMULATION_DEFAULT_ALGORITHM", "LRU")
	t.Setenv("PAGESIM_EXPLAINER_RATE_LIMIT_REQUESTS", "5")
	t.Setenv("PAGESIM_AUDIT_FILE_PATH", "/tmp/pagesim-audit.log")

	cfg, err := NewLoader(WithConfigPaths()).Load()
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	if cfg.App.Name != "env-sim" {
		t.Errorf("expected app name 'env-sim', got %s", cfg.App.Name)
	}
	if cfg.HTTP.Port != 8090 {
		t.Errorf("expected port 8090, got %d", cfg.HTTP.Port)
	}
	if cfg.Explainer.APIKey != "secret" {
		t.Errorf("expected api key from env, got %q", cfg.Explainer.APIKey)
	}
	if cfg.Simulation.DefaultAlgorithm != "LRU" {
		t.Errorf("expected default algorithm LRU, got %s", cfg.Simulation.DefaultAlgorithm)
	}
	if cfg.Explainer.RateLimit.Requests != 5 {
		t.Errorf("expected rate limit requests 5, got %d", cfg.Explainer.RateLimit.Requests)
	}
	if cfg.Audit.FilePath != "/tmp/pagesim-audit.log" {
		t.Errorf("expected audit file path from env, got %q", cfg.Audit.FilePath)
	}
}

func TestLoader_EnvSliceField(t *testing.T) {
	t.Setenv("PAGESIM_HTTP_CORS_ALLOWED_ORIGINS", "http://a.local, http://b.local")

	cfg, err := NewLoader(WithConfigPaths()).Load()
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	if len(cfg.HTTP.CORS.AllowedOrigins) != 2 || cfg.HTTP.CORS.AllowedOrigins[1] != "http://b.local" {
		t.Errorf("unexpected origins: %v", cfg.HTTP.CORS.AllowedOrigins)
	}
}

func TestLoader_EnvOverridesFile(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	configContent := `
app:
  name: file-sim
http:
  port: 9001
`
	os.WriteFile(configPath, []byte(configContent), 0644)

	t.Setenv("PAGESIM_APP_NAME", "env-override")

	cfg, err := NewLoader(WithConfigPaths(configPath)).Load()
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	if cfg.App.Name != "env-override" {
		t.Errorf("expected env override, got %s", cfg.App.Name)
	}
	if cfg.HTTP.Port != 9001 {
		t.Errorf("expected port from file 9001, got %d", cfg.HTTP.Port)
	}
}

func TestLoader_WithEnvPrefix(t *testing.T) {
	t.Setenv("CUSTOM_APP_NAME", "custom-prefix-sim")

	cfg, err := NewLoader(WithConfigPaths(), WithEnvPrefix("CUSTOM_")).Load()
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	if cfg.App.Name != "custom-prefix-sim" {
		t.Errorf("expected 'custom-prefix-sim', got %s", cfg.App.Name)
	}
}

func TestLoader_InvalidFileFailsValidation(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")
	os.WriteFile(configPath, []byte("log:\n  level: verbose\n"), 0644)

	if _, err := NewLoader(WithConfigPaths(configPath)).Load(); err == nil {
		t.Fatal("expected validation error")
	}
}

func TestMustLoad_Success(t *testing.T) {
	defer func() {
		if r := recover(); r != nil {
			t.Errorf("MustLoad should not panic with valid config")
		}
	}()

	cfg := MustLoad(WithConfigPaths())
	if cfg == nil {
		t.Error("expected non-nil config")
	}
}

func TestLoad_Simple(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	if cfg == nil {
		t.Error("expected non-nil config")
	}
}

func TestLoadWithServiceDefaults(t *testing.T) {
	cfg, err := LoadWithServiceDefaults("simulator-svc", 8181)
	if err != nil {
		t.Fatalf("failed to load: %v", err)
	}

	if cfg.App.Name != "simulator-svc" {
		t.Errorf("expected app name 'simulator-svc', got %s", cfg.App.Name)
	}
	if cfg.HTTP.Port != 8181 {
		t.Errorf("expected port 8181, got %d", cfg.HTTP.Port)
	}
	if cfg.Tracing.ServiceName != "simulator-svc" {
		t.Errorf("expected tracing service name 'simulator-svc', got %s", cfg.Tracing.ServiceName)
	}
}

func TestLoader_ConfigEnvVar(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "custom-config.yaml")

	configContent := `
app:
  name: config-env-var-sim
`
	os.WriteFile(configPath, []byte(configContent), 0644)

	t.Setenv("CONFIG_PATH", configPath)

	cfg, err := NewLoader().Load()
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	if cfg.App.Name != "config-env-var-sim" {
		t.Errorf("expected 'config-env-var-sim', got %s", cfg.App.Name)
	}
}

func TestSplitAndTrim(t *testing.T) {
	got := splitAndTrim(" a, ,b ,c")
	if len(got) != 3 || got[0] != "a" || got[2] != "c" {
		t.Errorf("unexpected split: %v", got)
	}
	if splitAndTrim("") != nil {
		t.Error("expected nil for empty input")
	}
}
