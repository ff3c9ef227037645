package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

const (
	envPrefix    = "PAGESIM_"
	configEnvVar = "CONFIG_PATH"
)

// Loader загружает конфигурацию из разных источников
type Loader struct {
	k           *koanf.Koanf
	configPaths []string
	envPrefix   string
}

// NewLoader создаёт новый загрузчик конфигурации
func NewLoader(opts ...LoaderOption) *Loader {
	l := &Loader{
		k: koanf.New("."),
		configPaths: []string{
			"config.yaml",
			"config/config.yaml",
			"/etc/pagesim/config.yaml",
		},
		envPrefix: envPrefix,
	}

	for _, opt := range opts {
		opt(l)
	}

	return l
}

// LoaderOption - опция для конфигурации загрузчика
type LoaderOption func(*Loader)

// WithConfigPaths устанавливает пути поиска конфигурации
func WithConfigPaths(paths ...string) LoaderOption {
	return func(l *Loader) {
		l.configPaths = paths
	}
}

// WithEnvPrefix устанавливает префикс переменных окружения
func WithEnvPrefix(prefix string) LoaderOption {
	return func(l *Loader) {
		l.envPrefix = prefix
	}
}

// Load загружает конфигурацию с приоритетом:
// 1. Defaults (самый низкий)
// 2. Config file (yaml)
// 3. Environment variables (самый высокий)
func (l *Loader) Load() (*Config, error) {
	// 1. Загружаем значения по умолчанию
	if err := l.loadDefaults(); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	// 2. Загружаем из файла конфигурации
	if err := l.loadConfigFile(); err != nil {
		// Файл не обязателен, логируем warning
		fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
	}

	// 3. Загружаем из переменных окружения (перезаписывают файл)
	if err := l.loadEnv(); err != nil {
		return nil, fmt.Errorf("failed to load env: %w", err)
	}

	// 4. Распаковываем в структуру
	var cfg Config
	if err := l.k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// 5. Валидируем
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// loadDefaults загружает значения по умолчанию
func (l *Loader) loadDefaults() error {
	defaults := map[string]any{
		// App
		"app.name":        "pagesim",
		"app.version":     "1.0.0",
		"app.environment": "development",
		"app.debug":       false,

		// HTTP
		"http.port":             8080,
		"http.read_timeout":     30 * time.Second,
		"http.write_timeout":    60 * time.Second,
		"http.shutdown_timeout": 10 * time.Second,
		"http.max_body_bytes":   1 << 20,

		"http.cors.enabled":         true,
		"http.cors.allowed_origins": []string{"*"},
		"http.cors.allowed_methods": []string{"GET", "POST", "DELETE", "OPTIONS"},
		"http.cors.allowed_headers": []string{"Content-Type", "Accept", "Origin", "X-Request-ID"},
		"http.cors.max_age":         86400,
		"http.docs.enabled":         true,
		"http.docs.path":            "/docs",

		// Log
		"log.level":       "info",
		"log.format":      "json",
		"log.output":      "stdout",
		"log.max_size":    100,
		"log.max_backups": 3,
		"log.max_age":     7,
		"log.compress":    true,

		// Metrics
		"metrics.enabled":   true,
		"metrics.path":      "/metrics",
		"metrics.namespace": "pagesim",
		"metrics.subsystem": "",

		// Tracing
		"tracing.enabled":      false,
		"tracing.endpoint":     "localhost:4317",
		"tracing.service_name": "pagesim",
		"tracing.sample_rate":  0.1,

		// Cache
		"cache.enabled":     true,
		"cache.driver":      "memory",
		"cache.host":        "localhost",
		"cache.port":        6379,
		"cache.db":          0,
		"cache.default_ttl": 24 * time.Hour,
		"cache.max_entries": 10000,

		// Simulation - границы как у формы ввода
		"simulation.min_frames":           1,
		"simulation.max_frames":           8,
		"simulation.max_reference_length": 1000,
		"simulation.default_algorithm":    "FIFO",
		"simulation.default_frames":       3,

		// Playback
		"playback.default_speed": 2000,
		"playback.min_speed":     100,
		"playback.max_speed":     3000,
		"playback.max_sessions":  1000,
		"playback.session_ttl":   time.Hour,

		// Explainer
		"explainer.enabled":         false,
		"explainer.endpoint":        "https://generativelanguage.googleapis.com/v1beta/models/gemini-2.5-flash-preview-05-20:generateContent",
		"explainer.api_key":         "",
		"explainer.timeout":         30 * time.Second,
		"explainer.max_attempts":    3,
		"explainer.initial_backoff": 2 * time.Second,
		"explainer.cache_ttl":       24 * time.Hour,

		"explainer.rate_limit.enabled":    true,
		"explainer.rate_limit.requests":   30,
		"explainer.rate_limit.window":     time.Minute,
		"explainer.rate_limit.strategy":   "sliding_window",
		"explainer.rate_limit.backend":    "memory",
		"explainer.rate_limit.burst_size": 5,

		// Report
		"report.default_format":     "text",
		"report.output_dir":         ".",
		"report.author":             "pagesim",
		"report.company_name":       "Page Replacement Simulator",
		"report.max_steps_in_table": 0,

		// Report - PDF
		"report.pdf.margin_top":          15.0,
		"report.pdf.margin_left":         15.0,
		"report.pdf.margin_right":        15.0,
		"report.pdf.enable_page_numbers": true,

		// Audit
		"audit.enabled":      false,
		"audit.backend":      "stdout",
		"audit.file_path":    "audit.log",
		"audit.max_size":     50,
		"audit.max_backups":  3,
		"audit.max_age":      28,
		"audit.compress":     true,
		"audit.buffer_size":  1000,
		"audit.flush_period": 5 * time.Second,
		"audit.capacity":     1000,
	}

	return l.k.Load(confmap.Provider(defaults, "."), nil)
}

// loadConfigFile загружает конфигурацию из файла
func (l *Loader) loadConfigFile() error {
	if configPath := os.Getenv(configEnvVar); configPath != "" {
		if _, err := os.Stat(configPath); err == nil {
			return l.k.Load(file.Provider(configPath), yaml.Parser())
		}
	}

	for _, path := range l.configPaths {
		absPath, err := filepath.Abs(path)
		if err != nil {
			continue
		}

		if _, err := os.Stat(absPath); err == nil {
			return l.k.Load(file.Provider(absPath), yaml.Parser())
		}
	}

	return fmt.Errorf("config file not found in paths: %v", l.configPaths)
}

// loadEnv загружает конфигурацию из переменных окружения
// Использует умную трансформацию ключей для полей с подчёркиванием
func (l *Loader) loadEnv() error {
	return l.k.Load(env.ProviderWithValue(l.envPrefix, ".", func(envKey string, value string) (string, interface{}) {
		// Убираем префикс и приводим к нижнему регистру
		key := strings.ToLower(strings.TrimPrefix(envKey, l.envPrefix))

		// Маппинг для полей с подчёркиванием в именах
		if mappedKey, ok := envKeyMappings[key]; ok {
			key = mappedKey
		} else {
			// По умолчанию заменяем все подчёркивания на точки
			key = strings.ReplaceAll(key, "_", ".")
		}

		// Для slice-полей разбиваем по запятой
		if isSliceField(key) {
			return key, splitAndTrim(value)
		}

		return key, value
	}), nil)
}

// envKeyMappings - маппинг переменных окружения на ключи конфига
// Необходим для полей, содержащих подчёркивания в именах
var envKeyMappings = map[string]string{
	// HTTP
	"http_port":                 "http.port",
	"http_read_timeout":         "http.read_timeout",
	"http_write_timeout":        "http.write_timeout",
	"http_shutdown_timeout":     "http.shutdown_timeout",
	"http_max_body_bytes":       "http.max_body_bytes",
	"http_cors_enabled":         "http.cors.enabled",
	"http_cors_allowed_origins": "http.cors.allowed_origins",
	"http_cors_allowed_methods": "http.cors.allowed_methods",
	"http_cors_allowed_headers": "http.cors.allowed_headers",
	"http_cors_max_age":         "http.cors.max_age",
	"http_docs_enabled":         "http.docs.enabled",
	"http_docs_path":            "http.docs.path",

	// Log
	"log_level":       "log.level",
	"log_format":      "log.format",
	"log_output":      "log.output",
	"log_file_path":   "log.file_path",
	"log_max_size":    "log.max_size",
	"log_max_backups": "log.max_backups",
	"log_max_age":     "log.max_age",
	"log_compress":    "log.compress",

	// Tracing
	"tracing_service_name": "tracing.service_name",
	"tracing_sample_rate":  "tracing.sample_rate",

	// Cache
	"cache_enabled":     "cache.enabled",
	"cache_driver":      "cache.driver",
	"cache_host":        "cache.host",
	"cache_port":        "cache.port",
	"cache_password":    "cache.password",
	"cache_db":          "cache.db",
	"cache_default_ttl": "cache.default_ttl",
	"cache_max_entries": "cache.max_entries",

	// Simulation
	"simulation_min_frames":           "simulation.min_frames",
	"simulation_max_frames":           "simulation.max_frames",
	"simulation_max_reference_length": "simulation.max_reference_length",
	"simulation_default_algorithm":    "simulation.default_algorithm",
	"simulation_default_frames":       "simulation.default_frames",

	// Playback
	"playback_default_speed": "playback.default_speed",
	"playback_min_speed":     "playback.min_speed",
	"playback_max_speed":     "playback.max_speed",
	"playback_max_sessions":  "playback.max_sessions",
	"playback_session_ttl":   "playback.session_ttl",

	// Explainer
	"explainer_enabled":         "explainer.enabled",
	"explainer_endpoint":        "explainer.endpoint",
	"explainer_api_key":         "explainer.api_key",
	"explainer_timeout":         "explainer.timeout",
	"explainer_max_attempts":    "explainer.max_attempts",
	"explainer_initial_backoff": "explainer.initial_backoff",
	"explainer_cache_ttl":       "explainer.cache_ttl",

	"explainer_rate_limit_enabled":    "explainer.rate_limit.enabled",
	"explainer_rate_limit_requests":   "explainer.rate_limit.requests",
	"explainer_rate_limit_window":     "explainer.rate_limit.window",
	"explainer_rate_limit_strategy":   "explainer.rate_limit.strategy",
	"explainer_rate_limit_backend":    "explainer.rate_limit.backend",
	"explainer_rate_limit_burst_size": "explainer.rate_limit.burst_size",

	// Report
	"report_default_format":          "report.default_format",
	"report_output_dir":              "report.output_dir",
	"report_company_name":            "report.company_name",
	"report_max_steps_in_table":      "report.max_steps_in_table",
	"report_pdf_enable_page_numbers": "report.pdf.enable_page_numbers",

	// Audit
	"audit_enabled":      "audit.enabled",
	"audit_backend":      "audit.backend",
	"audit_file_path":    "audit.file_path",
	"audit_max_size":     "audit.max_size",
	"audit_max_backups":  "audit.max_backups",
	"audit_max_age":      "audit.max_age",
	"audit_compress":     "audit.compress",
	"audit_buffer_size":  "audit.buffer_size",
	"audit_flush_period": "audit.flush_period",
	"audit_capacity":     "audit.capacity",
}

// sliceFields - поля, которые должны парситься как слайсы
var sliceFields = map[string]bool{
	"http.cors.allowed_origins": true,
	"http.cors.allowed_methods": true,
	"http.cors.allowed_headers": true,
}

func isSliceField(key string) bool {
	return sliceFields[key]
}

func splitAndTrim(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	result := make([]string, 0, len(parts))
	for _, p := range parts {
		trimmed := strings.TrimSpace(p)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}

// MustLoad загружает конфигурацию или паникует
func MustLoad(opts ...LoaderOption) *Config {
	cfg, err := NewLoader(opts...).Load()
	if err != nil {
		panic(fmt.Sprintf("failed to load config: %v", err))
	}
	return cfg
}

// Load - удобная функция для загрузки с дефолтными настройками
func Load() (*Config, error) {
	return NewLoader().Load()
}

// LoadWithServiceDefaults загружает конфигурацию с переопределением для конкретного сервиса
func LoadWithServiceDefaults(serviceName string, defaultPort int) (*Config, error) {
	cfg, err := Load()
	if err != nil {
		return nil, err
	}

	if cfg.HTTP.Port == 8080 && defaultPort != 0 {
		cfg.HTTP.Port = defaultPort
	}

	if cfg.App.Name == "pagesim" {
		cfg.App.Name = serviceName
	}
	if cfg.Tracing.ServiceName == "pagesim" {
		cfg.Tracing.ServiceName = serviceName
	}

	return cfg, nil
}
