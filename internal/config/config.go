package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config содержит конфигурацию приложения
type Config struct {
	Env      string `envconfig:"APP_ENV" default:"development"`
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`

	// Настройки HTTP сервера
	ServerPort          string `envconfig:"SERVER_PORT" default:"8000"`
	APIPrefix           string `envconfig:"API_PREFIX" default:"/api"`
	ReadTimeoutSeconds  int    `envconfig:"SERVER_READ_TIMEOUT" default:"15"`
	WriteTimeoutSeconds int    `envconfig:"SERVER_WRITE_TIMEOUT" default:"15"`
	IdleTimeoutSeconds  int    `envconfig:"SERVER_IDLE_TIMEOUT" default:"60"`

	// Разрешенные источники для CORS (через запятую)
	AllowedOrigins string `envconfig:"ALLOWED_ORIGINS" default:"http://localhost:3000"`

	// Настройки PostgreSQL
	DBHost        string        `envconfig:"DB_HOST" default:"localhost"`
	DBPort        string        `envconfig:"DB_PORT" default:"5432"`
	DBUser        string        `envconfig:"DB_USER" default:"postgres"`
	DBPassword    string        `envconfig:"DB_PASSWORD" default:"postgres"`
	DBName        string        `envconfig:"DB_NAME" default:"adventure_db"`
	DBSSLMode     string        `envconfig:"DB_SSL_MODE" default:"disable"`
	DBMaxConns    int           `envconfig:"DB_MAX_CONNECTIONS" default:"10"`
	DBIdleTimeout time.Duration `envconfig:"DB_MAX_IDLE_MINUTES" default:"5m"`

	// Настройки AI (OpenAI-совместимый API или Ollama)
	AIClientType string        `envconfig:"AI_CLIENT_TYPE" default:"openai"`
	AIBaseURL    string        `envconfig:"AI_BASE_URL" default:"https://openrouter.ai/api/v1"`
	AIModel      string        `envconfig:"AI_MODEL" default:"deepseek/deepseek-chat"`
	AIAPIKey     string        `envconfig:"AI_API_KEY"`
	AITimeout    time.Duration `envconfig:"AI_TIMEOUT" default:"120s"`

	// Границы генерируемого дерева истории. Промпт просит дерево
	// именно такой формы, а парсер отклоняет все, что в нее не влезает.
	StoryMaxDepth   int `envconfig:"STORY_MAX_DEPTH" default:"3"`
	StoryMaxOptions int `envconfig:"STORY_MAX_OPTIONS" default:"3"`
	ThemeMaxLength  int `envconfig:"THEME_MAX_LENGTH" default:"500"`
}

// GetDSN возвращает строку подключения (DSN) для PostgreSQL
func (c *Config) GetDSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s",
		c.DBUser, c.DBPassword, c.DBHost, c.DBPort, c.DBName, c.DBSSLMode)
}

// GetAllowedOrigins возвращает список разрешенных CORS-источников
func (c *Config) GetAllowedOrigins() []string {
	raw := strings.Split(c.AllowedOrigins, ",")
	origins := make([]string, 0, len(raw))
	for _, o := range raw {
		if trimmed := strings.TrimSpace(o); trimmed != "" {
			origins = append(origins, trimmed)
		}
	}
	return origins
}

// LoadConfig загружает конфигурацию из переменных окружения
func LoadConfig() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("ошибка загрузки конфигурации: %w", err)
	}

	// Ключ обязателен только для внешнего OpenAI-совместимого провайдера;
	// локальному Ollama он не нужен.
	if strings.ToLower(cfg.AIClientType) == "openai" && cfg.AIAPIKey == "" {
		return nil, fmt.Errorf("AI_API_KEY is required when AI_CLIENT_TYPE=openai")
	}

	if cfg.StoryMaxDepth < 2 {
		return nil, fmt.Errorf("STORY_MAX_DEPTH must be at least 2, got %d", cfg.StoryMaxDepth)
	}
	if cfg.StoryMaxOptions < 1 {
		return nil, fmt.Errorf("STORY_MAX_OPTIONS must be at least 1, got %d", cfg.StoryMaxOptions)
	}

	return &cfg, nil
}

// GetMaskedDSN возвращает DSN с замаскированным паролем для логирования
func (c *Config) GetMaskedDSN() string {
	dsn := c.GetDSN()
	parts := strings.Split(dsn, "@")
	if len(parts) != 2 {
		return "[invalid dsn format]"
	}
	userInfo := strings.Split(parts[0], ":")
	if len(userInfo) >= 2 {
		userInfo[len(userInfo)-1] = "********" // Маскируем пароль
	}
	return strings.Join(userInfo, ":") + "@" + parts[1]
}
