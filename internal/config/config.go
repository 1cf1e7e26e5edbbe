package config

import (
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
	"gopkg.in/yaml.v3"
)

// Config represents the application configuration
type Config struct {
	Server     ServerConfig     `yaml:"server" json:"server"`
	Database   DatabaseConfig   `yaml:"database" json:"database"`
	Storage    StorageConfig    `yaml:"storage" json:"storage"`
	Logging    LoggingConfig    `yaml:"logging" json:"logging"`
	Supervisor SupervisorConfig `yaml:"supervisor" json:"supervisor"`
	Client     ClientConfig     `yaml:"client" json:"client"`
	History    HistoryConfig    `yaml:"history" json:"history"`
}

// ServerConfig contains control API settings
type ServerConfig struct {
	Host string `yaml:"host" json:"host"`
	Port int    `yaml:"port" json:"port"`
	// AdminPinHash is a bcrypt hash; when set, mutating routes require the PIN.
	AdminPinHash string `yaml:"admin_pin_hash" json:"-"`
}

// Addr returns host:port for the listener.
func (s ServerConfig) Addr() string {
	return net.JoinHostPort(s.Host, strconv.Itoa(s.Port))
}

// DatabaseConfig contains database settings
type DatabaseConfig struct {
	Path           string `yaml:"path" json:"path"`
	MaxConnections int    `yaml:"max_connections" json:"max_connections"`
}

// StorageConfig contains storage paths
type StorageConfig struct {
	ConfigDir string `yaml:"config_dir" json:"config_dir"`
	DataDir   string `yaml:"data_dir" json:"data_dir"`
}

// LoggingConfig contains logging settings
type LoggingConfig struct {
	Level      string `yaml:"level" json:"level"`
	Format     string `yaml:"format" json:"format"`
	File       string `yaml:"file" json:"file"`
	MaxSize    int    `yaml:"max_size" json:"max_size"`
	MaxBackups int    `yaml:"max_backups" json:"max_backups"`
	MaxAge     int    `yaml:"max_age" json:"max_age"`
}

// SupervisorConfig tunes process detection. Durations use time.ParseDuration
// syntax; empty values keep the built-in defaults.
type SupervisorConfig struct {
	DetectTimeout  string   `yaml:"detect_timeout" json:"detect_timeout"`
	AttachTimeout  string   `yaml:"attach_timeout" json:"attach_timeout"`
	AttemptTimeout string   `yaml:"attempt_timeout" json:"attempt_timeout"`
	RetryInterval  string   `yaml:"retry_interval" json:"retry_interval"`
	PollInterval   string   `yaml:"poll_interval" json:"poll_interval"`
	WaitInterval   string   `yaml:"wait_interval" json:"wait_interval"`
	ExcludeImages  []string `yaml:"exclude_images" json:"exclude_images"`
}

// ClientConfig describes the game distribution client
type ClientConfig struct {
	Name        string   `yaml:"name" json:"name"`
	Executables []string `yaml:"executables" json:"executables"`
	LaunchFlag  string   `yaml:"launch_flag" json:"launch_flag"`
	URITemplate string   `yaml:"uri_template" json:"uri_template"`
}

// HistoryConfig contains launch history retention settings
type HistoryConfig struct {
	RetentionDays int    `yaml:"retention_days" json:"retention_days"`
	PruneSchedule string `yaml:"prune_schedule" json:"prune_schedule"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Host: "127.0.0.1",
			Port: 8765,
		},
		Database: DatabaseConfig{
			Path:           "./data/launcher.db",
			MaxConnections: 4,
		},
		Storage: StorageConfig{
			ConfigDir: "./configs",
			DataDir:   "./data",
		},
		Logging: LoggingConfig{
			Level:      "info",
			Format:     "json",
			File:       "",
			MaxSize:    20,
			MaxBackups: 5,
			MaxAge:     30,
		},
		Client: ClientConfig{
			Name:       "steam",
			LaunchFlag: "-applaunch",
		},
		History: HistoryConfig{
			RetentionDays: 30,
			PruneSchedule: "@daily",
		},
	}
}

// Load loads configuration from file and environment variables
func Load() (*Config, error) {
	cfg := Default()

	configPath := GetConfigPath()

	if _, err := os.Stat(configPath); err == nil {
		data, err := os.ReadFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}

		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	// Override with environment variables
	if dbPath := os.Getenv("DATABASE_PATH"); dbPath != "" {
		cfg.Database.Path = dbPath
	}

	if configDir := os.Getenv("CONFIG_DIR"); configDir != "" {
		cfg.Storage.ConfigDir = configDir
	}

	if dataDir := os.Getenv("DATA_DIR"); dataDir != "" {
		cfg.Storage.DataDir = dataDir
	}

	if logLevel := os.Getenv("LOG_LEVEL"); logLevel != "" {
		cfg.Logging.Level = logLevel
	}

	if addr := os.Getenv("LAUNCHER_ADDR"); addr != "" {
		if err := cfg.Server.setAddr(addr); err != nil {
			return nil, err
		}
	}

	cfg.normalizeStoragePaths(configPath)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be between 1 and 65535")
	}

	if hash := c.Server.AdminPinHash; hash != "" && !strings.HasPrefix(hash, "$2") {
		return fmt.Errorf("server.admin_pin_hash must be a bcrypt hash")
	}

	durations := map[string]string{
		"detect_timeout":  c.Supervisor.DetectTimeout,
		"attach_timeout":  c.Supervisor.AttachTimeout,
		"attempt_timeout": c.Supervisor.AttemptTimeout,
		"retry_interval":  c.Supervisor.RetryInterval,
		"poll_interval":   c.Supervisor.PollInterval,
		"wait_interval":   c.Supervisor.WaitInterval,
	}
	for name, value := range durations {
		if strings.TrimSpace(value) == "" {
			continue
		}
		if d, err := time.ParseDuration(strings.TrimSpace(value)); err != nil || d <= 0 {
			return fmt.Errorf("supervisor.%s must be a positive duration, got %q", name, value)
		}
	}

	if c.History.RetentionDays < 0 {
		return fmt.Errorf("history.retention_days must not be negative")
	}
	if c.History.PruneSchedule != "" {
		parser := cron.NewParser(cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)
		if _, err := parser.Parse(c.History.PruneSchedule); err != nil {
			return fmt.Errorf("history.prune_schedule: %w", err)
		}
	}

	return nil
}

func (s *ServerConfig) setAddr(addr string) error {
	host, port, err := net.SplitHostPort(addr)
	if err != nil {
		return fmt.Errorf("LAUNCHER_ADDR: %w", err)
	}
	p, err := strconv.Atoi(port)
	if err != nil {
		return fmt.Errorf("LAUNCHER_ADDR port: %w", err)
	}
	if host != "" {
		s.Host = host
	}
	s.Port = p
	return nil
}

func resolveConfigPath() string {
	candidates := []string{"../configs/config.yaml", "./configs/config.yaml"}
	for _, candidate := range candidates {
		if _, err := os.Stat(candidate); err == nil {
			return candidate
		}
	}

	return "./configs/config.yaml"
}

// GetConfigPath returns the resolved config path
func GetConfigPath() string {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = resolveConfigPath()
	}
	return configPath
}

// Save writes the configuration back to disk
func Save(cfg *Config, path string) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

func (c *Config) normalizeStoragePaths(configPath string) {
	baseDir := filepath.Dir(configPath)
	if !filepath.IsAbs(baseDir) {
		if absBase, err := filepath.Abs(baseDir); err == nil {
			baseDir = absBase
		}
	}

	rootDir := baseDir
	if filepath.Base(baseDir) == "configs" {
		rootDir = filepath.Dir(baseDir)
	}

	resolvePath := func(value string) string {
		trimmed := strings.TrimSpace(value)
		if trimmed == "" {
			return ""
		}
		if filepath.IsAbs(trimmed) {
			return filepath.Clean(trimmed)
		}
		return filepath.Clean(filepath.Join(rootDir, trimmed))
	}

	configDir := c.Storage.ConfigDir
	if strings.TrimSpace(configDir) == "" {
		configDir = baseDir
	}
	c.Storage.ConfigDir = resolvePath(configDir)

	if strings.TrimSpace(c.Storage.DataDir) == "" {
		c.Storage.DataDir = filepath.Join(rootDir, "data")
	}
	c.Storage.DataDir = resolvePath(c.Storage.DataDir)

	if strings.TrimSpace(c.Database.Path) == "" {
		c.Database.Path = filepath.Join(c.Storage.DataDir, "launcher.db")
	}
	c.Database.Path = resolvePath(c.Database.Path)

	if file := strings.TrimSpace(c.Logging.File); file != "" {
		c.Logging.File = resolvePath(file)
	}
}
