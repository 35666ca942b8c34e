package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	// Mode constants
	ModeStdio  = "stdio"
	ModeServer = "server"

	// OCR backends
	OCRBackendVision    = "vision"
	OCRBackendTesseract = "tesseract"

	// Default values
	DefaultPort              = 8000
	DefaultHost              = "0.0.0.0"
	DefaultLogLevel          = "info"
	DefaultMaxFileSize       = 20 * 1024 * 1024 // 20MB
	DefaultOCRLanguage       = "eng"
	DefaultVisionConcurrency = 4
	DefaultRateLimit         = 0.0 // disabled
	DefaultRateLimitBurst    = 20
	DefaultShutdownTimeout   = 15 * time.Second

	// EnvPrefix is prepended to every environment variable the service reads
	EnvPrefix = "FARM_ANALYZER"

	// Directory permissions
	DefaultDirPerm = 0o750
)

// DefaultOrigins is the browser origin allow-list used when none is configured.
var DefaultOrigins = []string{
	"https://agri-boost.vercel.app",
	"http://localhost:3000",
}

// Config holds all configuration for the farm analyzer
type Config struct {
	// Server configuration
	Mode            string // "server" or "stdio"
	Host            string
	Port            int
	AllowedOrigins  []string
	RateLimit       float64 // requests per second per client IP, 0 disables
	RateLimitBurst  int
	ShutdownTimeout time.Duration

	// Report directory for MCP tools
	ReportDirectory string

	// Extraction configuration
	OCRBackend        string
	OCRLanguage       string
	CredentialsFile   string
	VisionConcurrency int64

	// Application configuration
	Version     string
	ServerName  string
	LogLevel    string
	MaxFileSize int64 // Maximum upload size in bytes
}

// DefaultConfig returns a configuration with sensible defaults
func DefaultConfig() *Config {
	currentDir, err := os.Getwd()
	if err != nil {
		currentDir = "."
	}

	return &Config{
		Mode:              ModeServer,
		Host:              DefaultHost,
		Port:              DefaultPort,
		AllowedOrigins:    append([]string(nil), DefaultOrigins...),
		RateLimit:         DefaultRateLimit,
		RateLimitBurst:    DefaultRateLimitBurst,
		ShutdownTimeout:   DefaultShutdownTimeout,
		ReportDirectory:   currentDir,
		OCRBackend:        OCRBackendVision,
		OCRLanguage:       DefaultOCRLanguage,
		VisionConcurrency: DefaultVisionConcurrency,
		Version:           "1.0.0",
		ServerName:        "farm-analyzer",
		LogLevel:          DefaultLogLevel,
		MaxFileSize:       DefaultMaxFileSize,
	}
}

// LoadFromFlags parses command line flags, environment variables and an
// optional .env file, and returns a validated configuration
func LoadFromFlags() (*Config, error) {
	if err := loadDotEnv(".env"); err != nil {
		return nil, err
	}

	cfg := DefaultConfig()

	setupViperEnvironment(cfg)
	defineCommandLineFlags(cfg)
	bindFlagsToViper()
	setupUsageMessage()

	pflag.Parse()

	populateConfigFromViper(cfg)

	if cfg.ReportDirectory != "" {
		if expandedPath, err := filepath.Abs(cfg.ReportDirectory); err == nil {
			cfg.ReportDirectory = expandedPath
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// loadDotEnv loads variables from path into the process environment.
// A missing file is not an error; variables already set are never overridden.
func loadDotEnv(path string) error {
	err := godotenv.Load(path)
	if err == nil || errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return fmt.Errorf("loading %s: %w", path, err)
}

// setupViperEnvironment configures viper with environment variables and defaults
func setupViperEnvironment(cfg *Config) {
	viper.SetEnvPrefix(EnvPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	viper.SetDefault("mode", cfg.Mode)
	viper.SetDefault("host", cfg.Host)
	viper.SetDefault("port", cfg.Port)
	viper.SetDefault("origins", cfg.AllowedOrigins)
	viper.SetDefault("ratelimit", cfg.RateLimit)
	viper.SetDefault("ratelimit-burst", cfg.RateLimitBurst)
	viper.SetDefault("shutdown-timeout", cfg.ShutdownTimeout)
	viper.SetDefault("dir", cfg.ReportDirectory)
	viper.SetDefault("ocr-backend", cfg.OCRBackend)
	viper.SetDefault("ocr-lang", cfg.OCRLanguage)
	viper.SetDefault("credentials", cfg.CredentialsFile)
	viper.SetDefault("vision-concurrency", cfg.VisionConcurrency)
	viper.SetDefault("loglevel", cfg.LogLevel)
	viper.SetDefault("maxfilesize", cfg.MaxFileSize)
}

// defineCommandLineFlags sets up all command line flags
func defineCommandLineFlags(cfg *Config) {
	pflag.String("mode", cfg.Mode, "Run mode: 'server' for the HTTP API, 'stdio' for MCP standard I/O")
	pflag.String("host", cfg.Host, "HTTP listen host (server mode only)")
	pflag.Int("port", cfg.Port, "HTTP listen port (server mode only)")
	pflag.StringSlice("origins", cfg.AllowedOrigins, "Comma separated CORS origin allow-list")
	pflag.Float64("ratelimit", cfg.RateLimit, "Requests per second allowed per client IP (0 disables)")
	pflag.Int("ratelimit-burst", cfg.RateLimitBurst, "Rate limiter burst size")
	pflag.Duration("shutdown-timeout", cfg.ShutdownTimeout, "Time allowed for in-flight requests on shutdown")
	pflag.String("dir", cfg.ReportDirectory, "Directory holding soil reports and crop images (stdio mode)")
	pflag.String("ocr-backend", cfg.OCRBackend, "OCR backend for image soil reports: 'vision' or 'tesseract'")
	pflag.String("ocr-lang", cfg.OCRLanguage, "Tesseract language (tesseract backend only)")
	pflag.String("credentials", cfg.CredentialsFile, "Google Cloud credentials JSON file (defaults to ADC)")
	pflag.Int64("vision-concurrency", cfg.VisionConcurrency, "Maximum concurrent Cloud Vision calls")
	pflag.String("loglevel", cfg.LogLevel, "Log level (debug, info, warn, error)")
	pflag.Int64("maxfilesize", cfg.MaxFileSize, "Maximum upload size in bytes")
}

// bindFlagsToViper binds command line flags to viper configuration
func bindFlagsToViper() {
	for _, name := range []string{
		"mode", "host", "port", "origins", "ratelimit", "ratelimit-burst",
		"shutdown-timeout", "dir", "ocr-backend", "ocr-lang", "credentials",
		"vision-concurrency", "loglevel", "maxfilesize",
	} {
		_ = viper.BindPFlag(name, pflag.Lookup(name))
	}
}

// setupUsageMessage configures the custom usage message
func setupUsageMessage() {
	pflag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage of %s:\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "\nFarm Analyzer - soil report and crop image analysis API\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		pflag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  %s                                   # HTTP API on 0.0.0.0:8000\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s --port=9000 --loglevel=debug      # HTTP API with debug logs\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s --mode=stdio --dir=/srv/reports   # MCP tools over stdio\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "\nEnvironment Variables (a .env file is loaded if present):\n")
		fmt.Fprintf(os.Stderr, "  %s_MODE, %s_PORT, %s_ORIGINS, %s_OCR_BACKEND,\n", EnvPrefix, EnvPrefix, EnvPrefix, EnvPrefix)
		fmt.Fprintf(os.Stderr, "  %s_CREDENTIALS, %s_LOGLEVEL, %s_MAXFILESIZE, ...\n", EnvPrefix, EnvPrefix, EnvPrefix)
	}
}

// populateConfigFromViper fills the config struct with values from viper
func populateConfigFromViper(cfg *Config) {
	cfg.Mode = viper.GetString("mode")
	cfg.Host = viper.GetString("host")
	cfg.Port = viper.GetInt("port")
	cfg.AllowedOrigins = splitList(viper.GetStringSlice("origins"))
	cfg.RateLimit = viper.GetFloat64("ratelimit")
	cfg.RateLimitBurst = viper.GetInt("ratelimit-burst")
	cfg.ShutdownTimeout = viper.GetDuration("shutdown-timeout")
	cfg.ReportDirectory = viper.GetString("dir")
	cfg.OCRBackend = strings.ToLower(viper.GetString("ocr-backend"))
	cfg.OCRLanguage = viper.GetString("ocr-lang")
	cfg.CredentialsFile = viper.GetString("credentials")
	cfg.VisionConcurrency = viper.GetInt64("vision-concurrency")
	cfg.LogLevel = viper.GetString("loglevel")
	cfg.MaxFileSize = viper.GetInt64("maxfilesize")
}

// splitList flattens comma separated entries, since env values arrive as a
// single string while flag values arrive already split.
func splitList(values []string) []string {
	var out []string
	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Mode != ModeStdio && c.Mode != ModeServer {
		return errors.New("mode must be either 'stdio' or 'server'")
	}

	if c.Mode == ModeServer && (c.Port < 1 || c.Port > 65535) {
		return errors.New("port must be between 1 and 65535")
	}

	if c.Mode == ModeServer && len(c.AllowedOrigins) == 0 {
		return errors.New("at least one allowed origin is required in server mode")
	}

	if c.Mode == ModeStdio {
		if c.ReportDirectory == "" {
			return errors.New("report directory cannot be empty")
		}
		if _, err := os.Stat(c.ReportDirectory); os.IsNotExist(err) {
			if err := os.MkdirAll(c.ReportDirectory, DefaultDirPerm); err != nil {
				return fmt.Errorf("cannot create report directory %s: %w", c.ReportDirectory, err)
			}
		} else if err != nil {
			return fmt.Errorf("cannot access report directory %s: %w", c.ReportDirectory, err)
		}
	}

	if c.OCRBackend != OCRBackendVision && c.OCRBackend != OCRBackendTesseract {
		return fmt.Errorf("invalid OCR backend: %s (must be one of: vision, tesseract)", c.OCRBackend)
	}

	if c.VisionConcurrency <= 0 {
		return errors.New("vision concurrency must be positive")
	}

	if c.RateLimit < 0 {
		return errors.New("rate limit cannot be negative")
	}

	if c.RateLimit > 0 && c.RateLimitBurst <= 0 {
		return errors.New("rate limit burst must be positive when rate limiting is enabled")
	}

	if c.MaxFileSize <= 0 {
		return errors.New("maximum file size must be positive")
	}

	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLogLevels[c.LogLevel] {
		return fmt.Errorf("invalid log level: %s (must be one of: debug, info, warn, error)", c.LogLevel)
	}

	return nil
}

// Address returns the server address as host:port
func (c *Config) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// IsDebug returns true if debug logging is enabled
func (c *Config) IsDebug() bool {
	return c.LogLevel == "debug"
}

// String returns a string representation of the configuration
func (c *Config) String() string {
	return fmt.Sprintf("Config{Mode: %s, Host: %s, Port: %d, Origins: %v, ReportDirectory: %s, "+
		"OCRBackend: %s, VisionConcurrency: %d, RateLimit: %.2f/%d, LogLevel: %s, MaxFileSize: %d}",
		c.Mode, c.Host, c.Port, c.AllowedOrigins, c.ReportDirectory,
		c.OCRBackend, c.VisionConcurrency, c.RateLimit, c.RateLimitBurst, c.LogLevel, c.MaxFileSize)
}

// IsServerMode returns true if the service runs the HTTP API
func (c *Config) IsServerMode() bool {
	return c.Mode == ModeServer
}

// IsStdioMode returns true if the service runs as an MCP stdio server
func (c *Config) IsStdioMode() bool {
	return c.Mode == ModeStdio
}
