package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Session backends.
const (
	BackendMemory = "memory"
	BackendRedis  = "redis"
)

// Config holds application settings.
type Config struct {
	ServerPort         string
	ChannelSecret      string
	ChannelAccessToken string
	OpenAIAPIKey       string
	OpenAIModel        string
	OpenAIBaseURL      string
	ThingSpeakBaseURL  string
	StaticDir          string
	PublicBaseURL      string
	LegacyPaths        bool
	ChartRetention     time.Duration
	ChartAuthUsers     map[string]struct{}
	AIAuthUsers        map[string]struct{}
	SessionBackend     string
	RedisAddr          string
	RedisPassword      string
	RedisDB            int
	SessionTTL         time.Duration
	HTTPClientTimeout  time.Duration
}

// fileConfig is the optional YAML overlay. Set fields win over the environment.
type fileConfig struct {
	StaticDir      string   `yaml:"static_dir"`
	PublicBaseURL  string   `yaml:"public_base_url"`
	ChartAuthUsers []string `yaml:"chart_auth_users"`
	AIAuthUsers    []string `yaml:"ai_auth_users"`
	SessionBackend string   `yaml:"session_backend"`
	RedisAddr      string   `yaml:"redis_addr"`
}

// Load reads configuration from an optional .env file, the environment and
// an optional YAML file named by CONFIG_PATH.
func Load() (Config, error) {
	_ = godotenv.Load()

	cfg := Config{
		ServerPort:         getEnv("PORT", "8080"),
		ChannelSecret:      getEnv("CHANNEL_SECRET", ""),
		ChannelAccessToken: getEnv("CHANNEL_ACCESS_TOKEN", ""),
		OpenAIAPIKey:       getEnv("OPENAI_API_KEY", ""),
		OpenAIModel:        getEnv("OPENAI_MODEL", "gpt-3.5-turbo"),
		OpenAIBaseURL:      getEnv("OPENAI_BASE_URL", "https://api.openai.com"),
		ThingSpeakBaseURL:  getEnv("THINGSPEAK_BASE_URL", "https://thingspeak.com"),
		StaticDir:          getEnv("STATIC_DIR", "static"),
		PublicBaseURL:      getEnv("PUBLIC_BASE_URL", ""),
		LegacyPaths:        getEnvAsBool("CHART_LEGACY_PATHS", false),
		ChartRetention:     time.Duration(getEnvAsInt("CHART_RETENTION_MINUTES", 30)) * time.Minute,
		ChartAuthUsers:     parseCSVSet(getEnv("CHART_AUTH_USERS", "")),
		AIAuthUsers:        parseCSVSet(getEnv("AI_AUTH_USERS", "")),
		SessionBackend:     strings.ToLower(getEnv("SESSION_BACKEND", BackendMemory)),
		RedisAddr:          getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword:      getEnv("REDIS_PASSWORD", ""),
		RedisDB:            getEnvAsInt("REDIS_DB", 0),
		SessionTTL:         time.Duration(getEnvAsInt("SESSION_TTL_MINUTES", 0)) * time.Minute,
		HTTPClientTimeout:  time.Duration(getEnvAsInt("HTTP_CLIENT_TIMEOUT_SEC", 30)) * time.Second,
	}

	path := getEnv("CONFIG_PATH", "config.yaml")
	fc, err := loadFileConfig(path)
	switch {
	case err == nil:
		cfg.apply(fc)
		log.Printf("config: loaded overlay %s", path)
	case errors.Is(err, os.ErrNotExist):
	default:
		return cfg, fmt.Errorf("config file %s: %w", path, err)
	}

	if err := validate(cfg); err != nil {
		return cfg, err
	}
	log.Printf("config: port=%s static=%s sessions=%s legacy_paths=%t chart_users=%d ai_users=%d",
		cfg.ServerPort, cfg.StaticDir, cfg.SessionBackend, cfg.LegacyPaths, len(cfg.ChartAuthUsers), len(cfg.AIAuthUsers))
	return cfg, nil
}

func (c *Config) apply(fc fileConfig) {
	if fc.StaticDir != "" {
		c.StaticDir = fc.StaticDir
	}
	if fc.PublicBaseURL != "" {
		c.PublicBaseURL = fc.PublicBaseURL
	}
	if fc.SessionBackend != "" {
		c.SessionBackend = strings.ToLower(fc.SessionBackend)
	}
	if fc.RedisAddr != "" {
		c.RedisAddr = fc.RedisAddr
	}
	for _, u := range fc.ChartAuthUsers {
		if u = strings.TrimSpace(u); u != "" {
			c.ChartAuthUsers[u] = struct{}{}
		}
	}
	for _, u := range fc.AIAuthUsers {
		if u = strings.TrimSpace(u); u != "" {
			c.AIAuthUsers[u] = struct{}{}
		}
	}
}

func loadFileConfig(path string) (fileConfig, error) {
	var fc fileConfig
	data, err := os.ReadFile(path)
	if err != nil {
		return fc, err
	}
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return fc, err
	}
	return fc, nil
}

func validate(cfg Config) error {
	if cfg.ChannelSecret == "" {
		return errors.New("CHANNEL_SECRET is required")
	}
	if cfg.ChannelAccessToken == "" {
		return errors.New("CHANNEL_ACCESS_TOKEN is required")
	}
	if cfg.SessionBackend != BackendMemory && cfg.SessionBackend != BackendRedis {
		return fmt.Errorf("SESSION_BACKEND must be %q or %q, got %q", BackendMemory, BackendRedis, cfg.SessionBackend)
	}
	return nil
}

// getEnv returns the trimmed value of key or defaultValue when unset.
func getEnv(key, defaultValue string) string {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func parseCSVSet(v string) map[string]struct{} {
	out := make(map[string]struct{})
	for _, part := range strings.Split(v, ",") {
		s := strings.TrimSpace(part)
		if s == "" {
			continue
		}
		out[s] = struct{}{}
	}
	return out
}
