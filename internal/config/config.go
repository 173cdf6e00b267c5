// Package config loads client configuration from command-line flags, environment
// variables, an optional .env file, and an optional TOML file.
package config

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

// Supported image cache backends.
const (
	CacheBackendBolt   = "bolt"
	CacheBackendBadger = "badger"
	CacheBackendPebble = "pebble"
	CacheBackendFS     = "fs"
)

const (
	// DefaultFlickrBaseURL is the Flickr REST endpoint.
	DefaultFlickrBaseURL = "https://api.flickr.com/services/rest"
	// DefaultFlickrMethod lists Flickr's "interesting" photos of the day.
	DefaultFlickrMethod = "flickr.interestingness.getList"
	// DefaultFlickrExtras asks Flickr for the large image URL and the taken date.
	DefaultFlickrExtras = "url_h,date_taken"

	envPrefix = "PHOTORAMA_"
)

// Config holds the client configuration.
type Config struct {
	App     AppConfig
	Logger  LoggerConfig
	Storage StorageConfig
	Cache   CacheConfig
	Flickr  FlickrConfig
	Workers WorkerConfig
	Server  ServerConfig
}

// AppConfig holds application-level configuration.
type AppConfig struct {
	Environment string `toml:"environment"`
}

// LoggerConfig holds logging configuration.
type LoggerConfig struct {
	Level string `toml:"level"`
}

// StorageConfig locates the durable photo/tag database.
type StorageConfig struct {
	// DataPath is the base directory for all local state (default: ~/Photorama).
	DataPath string `toml:"data_path"`
	// DBPath is the SQLite file (default: {data}/photorama.db).
	DBPath string `toml:"db_path"`
}

// CacheConfig selects and locates the image byte cache.
type CacheConfig struct {
	// Backend is one of bolt, badger, pebble, fs (default: bolt).
	Backend string `toml:"backend"`
	// Path is the cache file or directory (default: {data}/cache/images).
	Path string `toml:"path"`
}

// FlickrConfig configures the remote listing client.
type FlickrConfig struct {
	BaseURL string `toml:"base_url"`
	APIKey  string `toml:"api_key"`
	Method  string `toml:"method"`
	Extras  string `toml:"extras"`
	// Timeout bounds every request end to end (default: 30s).
	Timeout time.Duration `toml:"timeout"`
	// RequestsPerSecond paces outgoing requests (default: 1).
	RequestsPerSecond float64 `toml:"requests_per_second"`
	Burst             int     `toml:"burst"`
	// Location is the IANA zone used to interpret datetaken (default: UTC).
	Location string `toml:"location"`
}

// WorkerConfig sizes the background worker pool.
type WorkerConfig struct {
	Count int `toml:"count"`
}

// ServerConfig configures the local HTTP surface started by `serve`.
type ServerConfig struct {
	Addr         string        `toml:"addr"`
	ReadTimeout  time.Duration `toml:"read_timeout"`
	WriteTimeout time.Duration `toml:"write_timeout"`
}

// fileConfig is the TOML layout. Durations are written as strings ("30s").
type fileConfig struct {
	App     AppConfig     `toml:"app"`
	Logger  LoggerConfig  `toml:"logger"`
	Storage StorageConfig `toml:"storage"`
	Cache   CacheConfig   `toml:"cache"`
	Flickr  FlickrConfig  `toml:"flickr"`
	Workers WorkerConfig  `toml:"workers"`
	Server  ServerConfig  `toml:"server"`
}

// Flags carries raw command-line values. Empty strings mean "not set".
type Flags struct {
	ConfigFile    string
	EnvFile       string
	Env           string
	LogLevel      string
	DataPath      string
	DBPath        string
	CacheBackend  string
	CachePath     string
	FlickrBaseURL string
	FlickrAPIKey  string
	Timeout       string
	Workers       string
	Addr          string
}

// Load builds the configuration with precedence:
// 1. Command-line flags (highest priority).
// 2. Environment variables (PHOTORAMA_*), including those from the .env file.
// 3. TOML config file.
// 4. Default values (lowest priority).
func Load(flags Flags) (*Config, error) {
	envFile := flags.EnvFile
	if envFile == "" {
		envFile = ".env"
	}
	// Missing .env files are fine.
	_ = loadEnvFile(envFile)

	var file fileConfig
	configFile := getConfigValue(flags.ConfigFile, "CONFIG", "")
	if configFile != "" {
		if _, err := toml.DecodeFile(configFile, &file); err != nil {
			return nil, fmt.Errorf("read config file %q: %w", configFile, err)
		}
	}

	cfg := &Config{
		App: AppConfig{
			Environment: getConfigValue(flags.Env, "ENV", orDefault(file.App.Environment, "development")),
		},
		Logger: LoggerConfig{
			Level: getConfigValue(flags.LogLevel, "LOG_LEVEL", orDefault(file.Logger.Level, "info")),
		},
		Storage: StorageConfig{
			DataPath: getConfigValue(flags.DataPath, "DATA_PATH", file.Storage.DataPath),
			DBPath:   getConfigValue(flags.DBPath, "DB_PATH", file.Storage.DBPath),
		},
		Cache: CacheConfig{
			Backend: strings.ToLower(getConfigValue(flags.CacheBackend, "CACHE_BACKEND", orDefault(file.Cache.Backend, CacheBackendBolt))),
			Path:    getConfigValue(flags.CachePath, "CACHE_PATH", file.Cache.Path),
		},
		Flickr: FlickrConfig{
			BaseURL:  getConfigValue(flags.FlickrBaseURL, "FLICKR_BASE_URL", orDefault(file.Flickr.BaseURL, DefaultFlickrBaseURL)),
			APIKey:   getConfigValue(flags.FlickrAPIKey, "FLICKR_API_KEY", file.Flickr.APIKey),
			Method:   getConfigValue("", "FLICKR_METHOD", orDefault(file.Flickr.Method, DefaultFlickrMethod)),
			Extras:   getConfigValue("", "FLICKR_EXTRAS", orDefault(file.Flickr.Extras, DefaultFlickrExtras)),
			Location: getConfigValue("", "FLICKR_LOCATION", orDefault(file.Flickr.Location, "UTC")),
			Burst:    getIntConfigValue("", "FLICKR_BURST", orDefaultInt(file.Flickr.Burst, 5)),
		},
		Workers: WorkerConfig{
			Count: getIntConfigValue(flags.Workers, "WORKERS", orDefaultInt(file.Workers.Count, runtime.NumCPU())),
		},
		Server: ServerConfig{
			Addr: getConfigValue(flags.Addr, "ADDR", orDefault(file.Server.Addr, "127.0.0.1:8765")),
		},
	}

	rps := getConfigValue("", "FLICKR_RPS", "")
	if rps == "" {
		cfg.Flickr.RequestsPerSecond = file.Flickr.RequestsPerSecond
		if cfg.Flickr.RequestsPerSecond == 0 {
			cfg.Flickr.RequestsPerSecond = 1
		}
	} else {
		v, err := strconv.ParseFloat(rps, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid requests per second %q: %w", rps, err)
		}
		cfg.Flickr.RequestsPerSecond = v
	}

	var err error
	if cfg.Flickr.Timeout, err = parseDuration(flags.Timeout, "FLICKR_TIMEOUT", file.Flickr.Timeout, 30*time.Second); err != nil {
		return nil, err
	}
	if cfg.Server.ReadTimeout, err = parseDuration("", "SERVER_READ_TIMEOUT", file.Server.ReadTimeout, 15*time.Second); err != nil {
		return nil, err
	}
	if cfg.Server.WriteTimeout, err = parseDuration("", "SERVER_WRITE_TIMEOUT", file.Server.WriteTimeout, time.Minute); err != nil {
		return nil, err
	}

	if err := cfg.expandPaths(); err != nil {
		return nil, fmt.Errorf("invalid path: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// Validate checks that all required config values are present and valid.
func (c *Config) Validate() error {
	validEnvs := map[string]bool{"development": true, "staging": true, "production": true}
	if !validEnvs[c.App.Environment] {
		return fmt.Errorf("invalid environment: %s (must be development, staging, or production)", c.App.Environment)
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[strings.ToLower(c.Logger.Level)] {
		return fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", c.Logger.Level)
	}

	switch c.Cache.Backend {
	case CacheBackendBolt, CacheBackendBadger, CacheBackendPebble, CacheBackendFS:
	default:
		return fmt.Errorf("invalid cache backend: %s (must be bolt, badger, pebble, or fs)", c.Cache.Backend)
	}

	if c.Storage.DataPath == "" || c.Storage.DBPath == "" || c.Cache.Path == "" {
		return errors.New("storage paths cannot be empty after expansion")
	}

	if !strings.HasPrefix(c.Flickr.BaseURL, "http://") && !strings.HasPrefix(c.Flickr.BaseURL, "https://") {
		return fmt.Errorf("invalid flickr base url: %q", c.Flickr.BaseURL)
	}
	if c.Flickr.Timeout <= 0 {
		return errors.New("flickr timeout must be positive")
	}
	if c.Flickr.RequestsPerSecond <= 0 || c.Flickr.Burst <= 0 {
		return errors.New("flickr rate limit must be positive")
	}
	if _, err := time.LoadLocation(c.Flickr.Location); err != nil {
		return fmt.Errorf("invalid flickr location %q: %w", c.Flickr.Location, err)
	}

	if c.Workers.Count <= 0 {
		return fmt.Errorf("workers must be positive, got %d", c.Workers.Count)
	}

	return nil
}

// expandPaths fills derived paths and makes every path absolute.
func (c *Config) expandPaths() error {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return fmt.Errorf("failed to get home directory: %w", err)
	}

	if c.Storage.DataPath, err = expandPath(c.Storage.DataPath, filepath.Join(homeDir, "Photorama")); err != nil {
		return err
	}
	if c.Storage.DBPath, err = expandPath(c.Storage.DBPath, filepath.Join(c.Storage.DataPath, "photorama.db")); err != nil {
		return err
	}
	if c.Cache.Path, err = expandPath(c.Cache.Path, filepath.Join(c.Storage.DataPath, "cache", "images")); err != nil {
		return err
	}
	return nil
}

// expandPath expands ~ and makes the path absolute.
// If path is empty, defaultPath is returned unchanged.
func expandPath(path, defaultPath string) (string, error) {
	if path == "" {
		return defaultPath, nil
	}

	if strings.HasPrefix(path, "~/") {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		path = filepath.Join(homeDir, path[2:])
	}

	if !filepath.IsAbs(path) {
		absPath, err := filepath.Abs(path)
		if err != nil {
			return "", fmt.Errorf("failed to get absolute path: %w", err)
		}
		path = absPath
	}

	return filepath.Clean(path), nil
}

// getConfigValue returns the first non-empty value from flag, PHOTORAMA_<key>, or default.
func getConfigValue(flagValue, envKey, defaultValue string) string {
	if flagValue != "" {
		return flagValue
	}
	if envValue := os.Getenv(envPrefix + envKey); envValue != "" {
		return envValue
	}
	return defaultValue
}

// getIntConfigValue returns an int from flag, env var, or default.
// Unparseable values fall back to the default.
func getIntConfigValue(flagValue, envKey string, defaultValue int) int {
	strValue := getConfigValue(flagValue, envKey, "")
	if strValue == "" {
		return defaultValue
	}
	result, err := strconv.Atoi(strings.TrimSpace(strValue))
	if err != nil {
		return defaultValue
	}
	return result
}

func parseDuration(flagValue, envKey string, fileValue, defaultValue time.Duration) (time.Duration, error) {
	if fileValue == 0 {
		fileValue = defaultValue
	}
	raw := getConfigValue(flagValue, envKey, fileValue.String())
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid duration for %s %q: %w", strings.ToLower(envKey), raw, err)
	}
	return d, nil
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

func orDefaultInt(v, def int) int {
	if v == 0 {
		return def
	}
	return v
}

// loadEnvFile loads environment variables from a .env file.
// Format: KEY=value (one per line, # for comments). Variables already present in
// the environment win over the file.
func loadEnvFile(path string) error {
	file, err := os.Open(path) //#nosec G304 -- Config file path from user input is expected
	if err != nil {
		return err
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	lineNum := 0

	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		key, value, ok := strings.Cut(line, "=")
		if !ok {
			return fmt.Errorf("invalid format at line %d: %s", lineNum, line)
		}
		key = strings.TrimSpace(key)
		value = strings.Trim(strings.TrimSpace(value), `"'`)

		if os.Getenv(key) == "" {
			if err := os.Setenv(key, value); err != nil {
				return fmt.Errorf("failed to set env var %s: %w", key, err)
			}
		}
	}

	return scanner.Err()
}
