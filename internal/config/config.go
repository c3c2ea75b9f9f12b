package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Переменные окружения.
const (
	EnvPrefix = "CONDUIT_"
	EnvConfig = "CONDUIT_CONFIG"

	DefaultPath = "conduit.yaml"
)

// Значения по умолчанию.
const (
	DefaultPort        = 8080
	DefaultHTTPTimeout = 30 * time.Second
)

// Ошибки конфигурации.
var (
	// ErrInvalidConfig — конфигурация не прошла проверку.
	ErrInvalidConfig = errors.New("invalid config")
)

// aliases — короткие переменные окружения для часто используемых ключей.
var aliases = map[string]string{
	"db_url":       "storage.db_url",
	"amqp_url":     "mq.url",
	"http_timeout": "server.http_timeout",
	"port":         "server.port",
}

// Config — конфигурация gateway.
type Config struct {
	Server    ServerConfig     `koanf:"server"`
	Storage   StorageConfig    `koanf:"storage"`
	MQ        MQConfig         `koanf:"mq"`
	Tracing   string           `koanf:"tracing"` // "" или "stdout"
	Routes    []RouteConfig    `koanf:"routes"`
	Schedules []ScheduleConfig `koanf:"schedules"`
}

// ServerConfig — параметры HTTP сервера.
type ServerConfig struct {
	Port        int           `koanf:"port"`
	HTTPTimeout time.Duration `koanf:"http_timeout"` // таймаут исходящих запросов action
}

// StorageConfig — журнал вызовов. Пустой db_url — журнал выключен.
type StorageConfig struct {
	DBURL   string `koanf:"db_url"`
	Migrate bool   `koanf:"migrate"`
}

// MQConfig — публикация событий. Пустой url — публикация выключена.
type MQConfig struct {
	URL string `koanf:"url"`
}

// RouteConfig — маршрут gateway.
type RouteConfig struct {
	Method  string           `koanf:"method"`
	Path    string           `koanf:"path"`
	Actions []map[string]any `koanf:"actions"`
}

// ScheduleConfig — периодический запуск action без входящего запроса.
//
// Задаётся cron ("*/5 * * * *") или interval ("30s"); cron имеет приоритет.
type ScheduleConfig struct {
	Name     string           `koanf:"name"`
	Cron     string           `koanf:"cron"`
	Interval time.Duration    `koanf:"interval"`
	Timezone string           `koanf:"timezone"` // по умолчанию UTC
	Context  map[string]any   `koanf:"context"`  // доступен в шаблонах как context.*
	Actions  []map[string]any `koanf:"actions"`
	Disabled bool             `koanf:"disabled"`
}

// Pattern возвращает шаблон маршрута для http.ServeMux: "GET /users/{id}".
func (r RouteConfig) Pattern() string {
	return strings.ToUpper(r.Method) + " " + r.Path
}

// Addr возвращает адрес для http.Server.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf(":%d", s.Port)
}

// LoadDotEnv загружает .env файлы, если они существуют.
// Переменные окружения процесса не перезаписываются.
func LoadDotEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("load %s: %w", f, err)
		}
	}
	return nil
}

// Load читает конфигурацию из YAML файла и переменных окружения CONDUIT_*.
//
// path == "" — берётся CONDUIT_CONFIG, затем conduit.yaml; отсутствие файла
// по умолчанию не ошибка. Переменные окружения перекрывают файл:
// CONDUIT_SERVER__PORT=9000 → server.port.
func Load(path string) (*Config, error) {
	explicit := path != ""
	if !explicit {
		path = os.Getenv(EnvConfig)
		explicit = path != ""
	}
	if path == "" {
		path = DefaultPath
	}

	k := koanf.New(".")

	if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
		if explicit || !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("load %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("load env: %w", err)
	}

	for alias, key := range aliases {
		if k.Exists(alias) && !k.Exists(key) {
			_ = k.Set(key, k.Get(alias))
		}
	}

	if !k.Exists("server.port") {
		_ = k.Set("server.port", DefaultPort)
	}
	if !k.Exists("server.http_timeout") {
		_ = k.Set("server.http_timeout", DefaultHTTPTimeout.String())
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// envKey превращает CONDUIT_SERVER__PORT в server.port.
func envKey(s string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(s, EnvPrefix)), "__", ".")
}

// Validate проверяет конфигурацию.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("%w: server.port %d out of range", ErrInvalidConfig, c.Server.Port)
	}
	if c.Server.HTTPTimeout < 0 {
		return fmt.Errorf("%w: server.http_timeout must not be negative", ErrInvalidConfig)
	}

	seen := make(map[string]bool, len(c.Routes))
	for i, r := range c.Routes {
		if !isMethod(r.Method) {
			return fmt.Errorf("%w: routes[%d]: unsupported method %q", ErrInvalidConfig, i, r.Method)
		}
		if !strings.HasPrefix(r.Path, "/") {
			return fmt.Errorf("%w: routes[%d]: path must start with /", ErrInvalidConfig, i)
		}
		if len(r.Actions) == 0 {
			return fmt.Errorf("%w: routes[%d]: no actions", ErrInvalidConfig, i)
		}
		if seen[r.Pattern()] {
			return fmt.Errorf("%w: routes[%d]: duplicate route %s", ErrInvalidConfig, i, r.Pattern())
		}
		seen[r.Pattern()] = true
	}

	names := make(map[string]bool, len(c.Schedules))
	for i, s := range c.Schedules {
		if s.Name == "" {
			return fmt.Errorf("%w: schedules[%d]: name is required", ErrInvalidConfig, i)
		}
		if names[s.Name] {
			return fmt.Errorf("%w: schedules[%d]: duplicate schedule %q", ErrInvalidConfig, i, s.Name)
		}
		names[s.Name] = true

		if s.Cron == "" && s.Interval <= 0 {
			return fmt.Errorf("%w: schedules[%d]: cron or interval is required", ErrInvalidConfig, i)
		}
		if len(s.Actions) == 0 {
			return fmt.Errorf("%w: schedules[%d]: no actions", ErrInvalidConfig, i)
		}
	}
	return nil
}

func isMethod(m string) bool {
	switch strings.ToUpper(m) {
	case http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodPatch:
		return true
	default:
		return false
	}
}
