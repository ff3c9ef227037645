// pkg/config/config.go
package config

import (
	"fmt"
	"strings"
	"time"
)

// Config - главная структура конфигурации
type Config struct {
	App        AppConfig        `koanf:"app"`
	HTTP       HTTPConfig       `koanf:"http"`
	Log        LogConfig        `koanf:"log"`
	Metrics    MetricsConfig    `koanf:"metrics"`
	Tracing    TracingConfig    `koanf:"tracing"`
	Cache      CacheConfig      `koanf:"cache"`
	Simulation SimulationConfig `koanf:"simulation"`
	Playback   PlaybackConfig   `koanf:"playback"`
	Explainer  ExplainerConfig  `koanf:"explainer"`
	Report     ReportConfig     `koanf:"report"`
	Audit      AuditConfig      `koanf:"audit"`
}

// AppConfig - общие настройки приложения
type AppConfig struct {
	Name        string `koanf:"name"`
	Version     string `koanf:"version"`
	Environment string `koanf:"environment"` // development, staging, production
	Debug       bool   `koanf:"debug"`
}

// HTTPConfig - настройки HTTP API
type HTTPConfig struct {
	Port            int           `koanf:"port"`
	ReadTimeout     time.Duration `koanf:"read_timeout"`
	WriteTimeout    time.Duration `koanf:"write_timeout"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
	MaxBodyBytes    int64         `koanf:"max_body_bytes"`
	CORS            CORSConfig    `koanf:"cors"`
	Docs            DocsConfig    `koanf:"docs"`
}

// DocsConfig - Swagger UI и OpenAPI документ
type DocsConfig struct {
	Enabled bool   `koanf:"enabled"`
	Path    string `koanf:"path"`
}

// CORSConfig - настройки CORS
type CORSConfig struct {
	Enabled        bool     `koanf:"enabled"`
	AllowedOrigins []string `koanf:"allowed_origins"`
	AllowedMethods []string `koanf:"allowed_methods"`
	AllowedHeaders []string `koanf:"allowed_headers"`
	MaxAge         int      `koanf:"max_age"`
}

// Address возвращает адрес для net.Listen
func (h HTTPConfig) Address() string {
	return fmt.Sprintf(":%d", h.Port)
}

// LogConfig - настройки логирования
type LogConfig struct {
	Level      string `koanf:"level"`       // debug, info, warn, error
	Format     string `koanf:"format"`      // json, text
	Output     string `koanf:"output"`      // stdout, stderr, file
	FilePath   string `koanf:"file_path"`   // путь к файлу логов
	MaxSize    int    `koanf:"max_size"`    // MB
	MaxBackups int    `koanf:"max_backups"` // количество бэкапов
	MaxAge     int    `koanf:"max_age"`     // дней
	Compress   bool   `koanf:"compress"`
}

// MetricsConfig - настройки Prometheus метрик
type MetricsConfig struct {
	Enabled   bool   `koanf:"enabled"`
	Path      string `koanf:"path"`
	Namespace string `koanf:"namespace"`
	Subsystem string `koanf:"subsystem"`
}

// TracingConfig - настройки OpenTelemetry
type TracingConfig struct {
	Enabled     bool    `koanf:"enabled"`
	Endpoint    string  `koanf:"endpoint"`
	ServiceName string  `koanf:"service_name"`
	SampleRate  float64 `koanf:"sample_rate"`
}

// CacheConfig - настройки кэша объяснений
type CacheConfig struct {
	Enabled    bool          `koanf:"enabled"`
	Driver     string        `koanf:"driver"` // redis, memory
	Host       string        `koanf:"host"`
	Port       int           `koanf:"port"`
	Password   string        `koanf:"password"`
	DB         int           `koanf:"db"`
	DefaultTTL time.Duration `koanf:"default_ttl"`
	MaxEntries int           `koanf:"max_entries"` // для in-memory
}

// Address возвращает адрес кэша
func (c CacheConfig) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// SimulationConfig - ограничения входных данных симуляции
type SimulationConfig struct {
	MinFrames          int    `koanf:"min_frames"`
	MaxFrames          int    `koanf:"max_frames"`
	MaxReferenceLength int    `koanf:"max_reference_length"`
	DefaultAlgorithm   string `koanf:"default_algorithm"`
	DefaultFrames      int    `koanf:"default_frames"`
}

// PlaybackConfig - автопроигрывание и реестр сессий
type PlaybackConfig struct {
	DefaultSpeed int           `koanf:"default_speed"`
	MinSpeed     int           `koanf:"min_speed"`
	MaxSpeed     int           `koanf:"max_speed"`
	MaxSessions  int           `koanf:"max_sessions"`
	SessionTTL   time.Duration `koanf:"session_ttl"`
}

// ExplainerConfig - внешний генератор текстовых пояснений
type ExplainerConfig struct {
	Enabled        bool          `koanf:"enabled"`
	Endpoint       string        `koanf:"endpoint"`
	APIKey         string        `koanf:"api_key"`
	Timeout        time.Duration `koanf:"timeout"`
	MaxAttempts    int           `koanf:"max_attempts"`
	InitialBackoff time.Duration `koanf:"initial_backoff"`
	CacheTTL       time.Duration `koanf:"cache_ttl"`

	RateLimit RateLimitConfig `koanf:"rate_limit"`
}

// RateLimitConfig - ограничение запросов пояснений на клиента
type RateLimitConfig struct {
	Enabled   bool          `koanf:"enabled"`
	Requests  int           `koanf:"requests"`
	Window    time.Duration `koanf:"window"`
	Strategy  string        `koanf:"strategy"` // sliding_window, token_bucket
	Backend   string        `koanf:"backend"`  // memory, redis (адрес из cache)
	BurstSize int           `koanf:"burst_size"`
}

// AuditConfig - журнал действий над сессиями
type AuditConfig struct {
	Enabled     bool          `koanf:"enabled"`
	Backend     string        `koanf:"backend"` // stdout, file, memory
	FilePath    string        `koanf:"file_path"`
	MaxSize     int           `koanf:"max_size"` // MB
	MaxBackups  int           `koanf:"max_backups"`
	MaxAge      int           `koanf:"max_age"` // days
	Compress    bool          `koanf:"compress"`
	BufferSize  int           `koanf:"buffer_size"`
	FlushPeriod time.Duration `koanf:"flush_period"`
	Capacity    int           `koanf:"capacity"` // для memory
}

// ReportConfig конфигурация экспорта
type ReportConfig struct {
	DefaultFormat   string `koanf:"default_format"`
	OutputDir       string `koanf:"output_dir"`
	Author          string `koanf:"author"`
	CompanyName     string `koanf:"company_name"`
	MaxStepsInTable int    `koanf:"max_steps_in_table"` // 0 - без ограничения

	PDF PDFConfig `koanf:"pdf"`
}

// PDFConfig конфигурация PDF генератора
type PDFConfig struct {
	MarginTop         float64 `koanf:"margin_top"`   // mm
	MarginLeft        float64 `koanf:"margin_left"`  // mm
	MarginRight       float64 `koanf:"margin_right"` // mm
	EnablePageNumbers bool    `koanf:"enable_page_numbers"`
}

var validFormats = map[string]bool{
	"text": true, "csv": true, "markdown": true, "json": true,
	"html": true, "excel": true, "pdf": true,
}

// Validate проверяет конфигурацию
func (c *Config) Validate() error {
	var errs []string

	if c.App.Name == "" {
		errs = append(errs, "app.name is required")
	}

	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		errs = append(errs, fmt.Sprintf("http.port must be between 1 and 65535, got %d", c.HTTP.Port))
	}

	if c.Log.Level == "" {
		c.Log.Level = "info"
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[strings.ToLower(c.Log.Level)] {
		errs = append(errs, fmt.Sprintf("log.level must be one of: debug, info, warn, error, got %s", c.Log.Level))
	}

	if c.Cache.Driver != "" && c.Cache.Driver != "memory" && c.Cache.Driver != "redis" {
		errs = append(errs, fmt.Sprintf("cache.driver must be one of: memory, redis, got %s", c.Cache.Driver))
	}

	// Симуляция
	if c.Simulation.MinFrames < 0 || c.Simulation.MaxFrames < 0 {
		errs = append(errs, "simulation frame bounds must be non-negative")
	}
	if c.Simulation.MaxFrames > 0 && c.Simulation.MinFrames > c.Simulation.MaxFrames {
		errs = append(errs, fmt.Sprintf("simulation.min_frames (%d) exceeds simulation.max_frames (%d)",
			c.Simulation.MinFrames, c.Simulation.MaxFrames))
	}

	if c.Playback.MaxSpeed > 0 && c.Playback.MinSpeed > c.Playback.MaxSpeed {
		errs = append(errs, fmt.Sprintf("playback.min_speed (%d) exceeds playback.max_speed (%d)",
			c.Playback.MinSpeed, c.Playback.MaxSpeed))
	}

	if c.Explainer.Enabled && c.Explainer.Endpoint == "" {
		errs = append(errs, "explainer.endpoint is required when explainer is enabled")
	}
	if rl := c.Explainer.RateLimit; rl.Enabled && (rl.Requests <= 0 || rl.Window <= 0) {
		errs = append(errs, "explainer.rate_limit requires positive requests and window")
	}
	if c.Explainer.MaxAttempts < 0 {
		errs = append(errs, "explainer.max_attempts must be non-negative")
	}

	if c.Report.DefaultFormat != "" && !validFormats[c.Report.DefaultFormat] {
		errs = append(errs, fmt.Sprintf("report.default_format is not supported: %s", c.Report.DefaultFormat))
	}
	if c.Report.MaxStepsInTable < 0 {
		errs = append(errs, "report.max_steps_in_table must be non-negative")
	}

	if c.Audit.Enabled {
		switch c.Audit.Backend {
		case "", "stdout", "memory":
		case "file":
			if c.Audit.FilePath == "" {
				errs = append(errs, "audit.file_path is required for the file backend")
			}
		default:
			errs = append(errs, fmt.Sprintf("audit.backend must be one of: stdout, file, memory, got %s", c.Audit.Backend))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration validation failed: %s", strings.Join(errs, "; "))
	}

	return nil
}

// IsDevelopment проверяет режим разработки
func (c *Config) IsDevelopment() bool {
	return c.App.Environment == "development" || c.App.Environment == "dev"
}

// IsProduction проверяет продакшн режим
func (c *Config) IsProduction() bool {
	return c.App.Environment == "production" || c.App.Environment == "prod"
}

// PlaybackInterval переводит скорость ползунка в паузу между шагами.
// Скорость ограничивается диапазоном [MinSpeed, MaxSpeed].
func (p PlaybackConfig) PlaybackInterval(speed int) time.Duration {
	if speed <= 0 {
		speed = p.DefaultSpeed
	}
	if p.MinSpeed > 0 && speed < p.MinSpeed {
		speed = p.MinSpeed
	}
	if p.MaxSpeed > 0 && speed > p.MaxSpeed {
		speed = p.MaxSpeed
	}
	return time.Duration(4000-speed) * time.Millisecond
}
