package cfg

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"

	"eduanalytics/internal/common"
)

type Settings struct {
	DataPath        string
	ModelPath       string
	ModelVersion    string
	MetricsPort     int
	RedisURL        string // empty disables the cache
	CacheTTL        time.Duration
	TrendWindowDays int
	LogLevel        string
}

type ConfigFile struct {
	Storage struct {
		DataPath string `yaml:"dataPath"`
	} `yaml:"storage"`

	ML struct {
		ModelPath    string `yaml:"modelPath"`
		ModelVersion string `yaml:"modelVersion"`
	} `yaml:"ml"`

	Analytics struct {
		TrendWindowDays int    `yaml:"trendWindowDays"`
		RedisURL        string `yaml:"redisURL"`
		CacheTTL        string `yaml:"cacheTTL"`
	} `yaml:"analytics"`

	System struct {
		MetricsPort int    `yaml:"metricsPort"`
		LogLevel    string `yaml:"logLevel"`
	} `yaml:"system"`
}

// Load reads a .env file when present, then the YAML file named by
// CONFIG_FILE, falling back to environment variables alone.
func Load() (Settings, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.Warn().Err(err).Msg("Failed to load .env file")
	}

	if configPath := os.Getenv(common.EnvConfigFile); configPath != "" {
		return loadFromYAML(configPath)
	}
	return loadFromEnv()
}

func loadFromYAML(path string) (Settings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Settings{}, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var config ConfigFile
	if err := yaml.Unmarshal(data, &config); err != nil {
		return Settings{}, fmt.Errorf("failed to parse config file: %w", err)
	}

	cacheTTL, err := time.ParseDuration(orDefault(config.Analytics.CacheTTL, common.DefaultCacheTTL))
	if err != nil {
		return Settings{}, fmt.Errorf("invalid cacheTTL %q: %w", config.Analytics.CacheTTL, err)
	}

	// Environment variables override the file
	settings := Settings{
		DataPath:        getEnvOrDefault(common.EnvDataPath, orDefault(config.Storage.DataPath, common.DefaultDataPath)),
		ModelPath:       getEnvOrDefault(common.EnvModelPath, orDefault(config.ML.ModelPath, common.DefaultModelPath)),
		ModelVersion:    getEnvOrDefault(common.EnvModelVersion, orDefault(config.ML.ModelVersion, common.DefaultModelVersion)),
		MetricsPort:     getIntFromEnvOrConfig(common.EnvMetricsPort, config.System.MetricsPort, common.DefaultMetricsPort),
		RedisURL:        getEnvOrDefault(common.EnvRedisURL, config.Analytics.RedisURL),
		CacheTTL:        getDurationOrDefault(common.EnvCacheTTL, cacheTTL),
		TrendWindowDays: getIntFromEnvOrConfig(common.EnvTrendWindowDays, config.Analytics.TrendWindowDays, common.DefaultTrendWindowDays),
		LogLevel:        getEnvOrDefault(common.EnvLogLevel, orDefault(config.System.LogLevel, common.DefaultLogLevel)),
	}

	if err := validateSettings(&settings); err != nil {
		return Settings{}, fmt.Errorf("configuration validation failed: %w", err)
	}
	return settings, nil
}

func loadFromEnv() (Settings, error) {
	defaultTTL, _ := time.ParseDuration(common.DefaultCacheTTL)

	settings := Settings{
		DataPath:        getEnvOrDefault(common.EnvDataPath, common.DefaultDataPath),
		ModelPath:       getEnvOrDefault(common.EnvModelPath, common.DefaultModelPath),
		ModelVersion:    getEnvOrDefault(common.EnvModelVersion, common.DefaultModelVersion),
		MetricsPort:     getIntOrDefault(common.EnvMetricsPort, common.DefaultMetricsPort),
		RedisURL:        os.Getenv(common.EnvRedisURL), // optional
		CacheTTL:        getDurationOrDefault(common.EnvCacheTTL, defaultTTL),
		TrendWindowDays: getIntOrDefault(common.EnvTrendWindowDays, common.DefaultTrendWindowDays),
		LogLevel:        getEnvOrDefault(common.EnvLogLevel, common.DefaultLogLevel),
	}

	if err := validateSettings(&settings); err != nil {
		return Settings{}, fmt.Errorf("configuration validation failed: %w", err)
	}
	return settings, nil
}

// Level returns the parsed log level. Settings returned by Load always parse.
func (s Settings) Level() zerolog.Level {
	level, err := zerolog.ParseLevel(s.LogLevel)
	if err != nil {
		return zerolog.InfoLevel
	}
	return level
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

func getEnvOrDefault(key, defaultValue string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultValue
}

func getDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return defaultValue
}

func getIntOrDefault(key string, defaultValue int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return defaultValue
}

func getIntFromEnvOrConfig(key string, configValue, defaultValue int) int {
	if env := os.Getenv(key); env != "" {
		if val, err := strconv.Atoi(env); err == nil {
			return val
		}
	}
	if configValue != 0 {
		return configValue
	}
	return defaultValue
}

// validateSettings performs range checks on configuration values
func validateSettings(settings *Settings) error {
	if settings.DataPath == "" {
		return fmt.Errorf("data path cannot be empty")
	}
	if settings.ModelPath == "" {
		return fmt.Errorf("model path cannot be empty")
	}
	if settings.ModelVersion == "" {
		return fmt.Errorf("model version cannot be empty")
	}

	if settings.MetricsPort < 1024 || settings.MetricsPort > 65535 {
		return fmt.Errorf("metrics port must be between 1024 and 65535, got %d", settings.MetricsPort)
	}
	if settings.TrendWindowDays < 1 || settings.TrendWindowDays > 3650 {
		return fmt.Errorf("trend window must be between 1 and 3650 days, got %d", settings.TrendWindowDays)
	}
	if settings.CacheTTL < time.Second || settings.CacheTTL > 24*time.Hour {
		return fmt.Errorf("cache TTL must be between 1s and 24h, got %v", settings.CacheTTL)
	}

	if _, err := zerolog.ParseLevel(settings.LogLevel); err != nil {
		return fmt.Errorf("invalid log level %q: %w", settings.LogLevel, err)
	}

	if settings.RedisURL != "" {
		if _, err := redis.ParseURL(settings.RedisURL); err != nil {
			return fmt.Errorf("invalid redis URL: %w", err)
		}
	}

	return nil
}
