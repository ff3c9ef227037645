package config

import (
	"strings"
	"testing"
	"time"
)

func validBase() Config {
	return Config{
		App:  AppConfig{Name: "test-service"},
		HTTP: HTTPConfig{Port: 8080},
		Log:  LogConfig{Level: "info"},
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
	}{
		{name: "valid config", mutate: func(c *Config) {}},
		{name: "missing app name", mutate: func(c *Config) { c.App.Name = "" }, wantErr: true},
		{name: "invalid port - zero", mutate: func(c *Config) { c.HTTP.Port = 0 }, wantErr: true},
		{name: "invalid port - too high", mutate: func(c *Config) { c.HTTP.Port = 70000 }, wantErr: true},
		{name: "invalid log level", mutate: func(c *Config) { c.Log.Level = "invalid" }, wantErr: true},
		{name: "empty log level defaults to info", mutate: func(c *Config) { c.Log.Level = "" }},
		{name: "unknown cache driver", mutate: func(c *Config) { c.Cache.Driver = "memcached" }, wantErr: true},
		{
			name: "min frames above max",
			mutate: func(c *Config) {
				c.Simulation.MinFrames = 9
				c.Simulation.MaxFrames = 8
			},
			wantErr: true,
		},
		{
			name: "valid frame bounds",
			mutate: func(c *Config) {
				c.Simulation.MinFrames = 1
				c.Simulation.MaxFrames = 8
			},
		},
		{
			name:    "explainer enabled without endpoint",
			mutate:  func(c *Config) { c.Explainer.Enabled = true },
			wantErr: true,
		},
		{
			name:    "rate limit without window",
			mutate:  func(c *Config) { c.Explainer.RateLimit = RateLimitConfig{Enabled: true, Requests: 10} },
			wantErr: true,
		},
		{name: "disabled rate limit is not checked", mutate: func(c *Config) { c.Explainer.RateLimit.Requests = -1 }},
		{
			name:    "unknown audit backend",
			mutate:  func(c *Config) { c.Audit = AuditConfig{Enabled: true, Backend: "kafka"} },
			wantErr: true,
		},
		{
			name:    "audit file backend without path",
			mutate:  func(c *Config) { c.Audit = AuditConfig{Enabled: true, Backend: "file"} },
			wantErr: true,
		},
		{name: "audit memory backend", mutate: func(c *Config) { c.Audit = AuditConfig{Enabled: true, Backend: "memory"} }},
		{name: "unsupported report format", mutate: func(c *Config) { c.Report.DefaultFormat = "docx" }, wantErr: true},
		{name: "pdf report format", mutate: func(c *Config) { c.Report.DefaultFormat = "pdf" }},
		{
			name: "playback speeds inverted",
			mutate: func(c *Config) {
				c.Playback.MinSpeed = 3000
				c.Playback.MaxSpeed = 100
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validBase()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestConfig_Validate_CollectsAllErrors(t *testing.T) {
	cfg := Config{HTTP: HTTPConfig{Port: -1}, Log: LogConfig{Level: "loud"}}
	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected error")
	}
	for _, part := range []string{"app.name", "http.port", "log.level"} {
		if !strings.Contains(err.Error(), part) {
			t.Errorf("expected %q in %q", part, err.Error())
		}
	}
}

func TestConfig_IsDevelopment(t *testing.T) {
	tests := []struct {
		env  string
		want bool
	}{
		{"development", true},
		{"dev", true},
		{"production", false},
		{"staging", false},
	}

	for _, tt := range tests {
		cfg := &Config{App: AppConfig{Environment: tt.env}}
		if got := cfg.IsDevelopment(); got != tt.want {
			t.Errorf("IsDevelopment() for %s = %v, want %v", tt.env, got, tt.want)
		}
	}
}

func TestConfig_IsProduction(t *testing.T) {
	tests := []struct {
		env  string
		want bool
	}{
		{"production", true},
		{"prod", true},
		{"development", false},
		{"staging", false},
	}

	for _, tt := range tests {
		cfg := &Config{App: AppConfig{Environment: tt.env}}
		if got := cfg.IsProduction(); got != tt.want {
			t.Errorf("IsProduction() for %s = %v, want %v", tt.env, got, tt.want)
		}
	}
}

func TestCacheConfig_Address(t *testing.T) {
	cfg := CacheConfig{
		Host: "redis.local",
		Port: 6379,
	}

	addr := cfg.Address()
	if addr != "redis.local:6379" {
		t.Errorf("expected 'redis.local:6379', got %s", addr)
	}
}

func TestHTTPConfig_Address(t *testing.T) {
	if addr := (HTTPConfig{Port: 8081}).Address(); addr != ":8081" {
		t.Errorf("expected ':8081', got %s", addr)
	}
}

func TestPlaybackConfig_PlaybackInterval(t *testing.T) {
	p := PlaybackConfig{DefaultSpeed: 2000, MinSpeed: 100, MaxSpeed: 3000}

	tests := []struct {
		name  string
		speed int
		want  time.Duration
	}{
		{"default speed", 0, 2000 * time.Millisecond},
		{"slowest", 100, 3900 * time.Millisecond},
		{"fastest", 3000, 1000 * time.Millisecond},
		{"clamped below", 10, 3900 * time.Millisecond},
		{"clamped above", 5000, 1000 * time.Millisecond},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := p.PlaybackInterval(tt.speed); got != tt.want {
				t.Errorf("PlaybackInterval(%d) = %v, want %v", tt.speed, got, tt.want)
			}
		})
	}
}
