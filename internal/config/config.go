package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	App      AppConfig
	Sbomer   SbomerConfig
	Redis    RedisConfig
	Features FeatureConfig
}

type AppConfig struct {
	AppName           string
	Environment       string
	HTTPPort          string
	LogLevel          string
	LogFollowInterval time.Duration
}

type SbomerConfig struct {
	// BaseURL may be empty; the dashboard then derives it from the host it
	// is served from.
	BaseURL     string
	Timeout     time.Duration
	MaxPages    int
	PageRetries int
	// AllowedHosts are the dashboard hosts a base URL may be derived from.
	AllowedHosts []string
}

type RedisConfig struct {
	Enabled  bool
	Host     string
	Port     string
	Password string
	TTL      time.Duration
}

type FeatureConfig struct {
	V1Filtering bool
}

var (
	errMissingRequiredEnv = errors.New("missing required environment variables")
	errInvalidEnv         = errors.New("invalid environment variables")
)

// LoadDotEnv reads .env files when present. Values already in the
// environment win.
func LoadDotEnv() {
	_ = godotenv.Load(".env.local")
	_ = godotenv.Load(".env")
}

func Load() (Config, error) {
	cfg := Config{}

	var missing []string
	var invalid []string
	req := func(key string) string {
		v := strings.TrimSpace(os.Getenv(key))
		if v == "" {
			missing = append(missing, key)
		}
		return v
	}
	opt := func(key string) string {
		return strings.TrimSpace(os.Getenv(key))
	}
	optInt := func(key string, def int) int {
		v := opt(key)
		if v == "" {
			return def
		}
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			invalid = append(invalid, key)
			return def
		}
		return n
	}
	optBool := func(key string, def bool) bool {
		v := opt(key)
		if v == "" {
			return def
		}
		b, err := strconv.ParseBool(v)
		if err != nil {
			invalid = append(invalid, key)
			return def
		}
		return b
	}
	optDuration := func(key string, def time.Duration) time.Duration {
		v := opt(key)
		if v == "" {
			return def
		}
		d, err := time.ParseDuration(v)
		if err != nil {
			if secs, errInt := strconv.Atoi(v); errInt == nil && secs >= 0 {
				return time.Duration(secs) * time.Second
			}
			invalid = append(invalid, key)
			return def
		}
		return d
	}

	baseURL := opt("SBOMER_HOST")
	if baseURL == "" {
		baseURL = opt("REACT_APP_SBOMER_URL")
	}

	cfg.App = AppConfig{
		AppName:           req("APP_NAME"),
		Environment:       req("APP_ENV"),
		HTTPPort:          req("HTTP_PORT"),
		LogLevel:          opt("LOG_LEVEL"),
		LogFollowInterval: optDuration("LOG_FOLLOW_INTERVAL", 2*time.Second),
	}

	cfg.Sbomer = SbomerConfig{
		BaseURL:      baseURL,
		Timeout:      optDuration("SBOMER_TIMEOUT", 30*time.Second),
		MaxPages:     optInt("SBOMER_MAX_PAGES", 100),
		PageRetries:  optInt("SBOMER_PAGE_RETRIES", 3),
		AllowedHosts: splitList(opt("SBOMER_ALLOWED_HOSTS")),
	}

	cfg.Redis = RedisConfig{
		Enabled:  optBool("CACHE_ENABLED", false),
		Host:     opt("REDIS_HOST"),
		Port:     opt("REDIS_PORT"),
		Password: opt("REDIS_PASSWORD"),
		TTL:      optDuration("REDIS_TTL", 600*time.Second),
	}

	cfg.Features = FeatureConfig{
		V1Filtering: optBool("FEATURE_V1_FILTERING", false),
	}

	if len(missing) > 0 {
		return Config{}, fmt.Errorf("%w: %s", errMissingRequiredEnv, strings.Join(missing, ", "))
	}
	if len(invalid) > 0 {
		return Config{}, fmt.Errorf("%w: %s", errInvalidEnv, strings.Join(invalid, ", "))
	}

	return cfg, nil
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
