package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"vscsfarm/internal/common/cache"
	"vscsfarm/internal/farm/service"
	"vscsfarm/pkg/session"
	"vscsfarm/pkg/utils/logger"

	"gopkg.in/yaml.v3"
)

const (
	defaultHTTPAddr        = "0.0.0.0:3030"
	defaultReadTimeout     = 5 * time.Second
	defaultWriteTimeout    = 2 * time.Minute
	defaultIdleTimeout     = 60 * time.Second
	defaultShutdownTimeout = 10 * time.Second
	defaultMaxHeaderBytes  = 1 << 20
	defaultCacheSize       = 1024
	defaultCacheTTL        = 5 * time.Minute
	defaultPlatformTimeout = 10 * time.Second
)

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Addr           string        `yaml:"addr"`
	ReadTimeout    time.Duration `yaml:"readTimeout"`
	WriteTimeout   time.Duration `yaml:"writeTimeout"`
	IdleTimeout    time.Duration `yaml:"idleTimeout"`
	MaxHeaderBytes int           `yaml:"maxHeaderBytes"`
}

// AuthConfig selects how access tokens are decoded.
type AuthConfig struct {
	Mode   string `yaml:"mode"` // trust | hs256
	Secret string `yaml:"secret"`
	Issuer string `yaml:"issuer"`
}

// FarmConfig holds editor container settings.
type FarmConfig struct {
	Image        string `yaml:"image"`
	ContainerURL string `yaml:"containerURL"`
	APIRoot      string `yaml:"apiRoot"`
	EditorPort   int    `yaml:"editorPort"`
	EnvPath      string `yaml:"envPath"`
	DataDir      string `yaml:"dataDir"`
}

// RuntimeConfig holds container runtime settings.
type RuntimeConfig struct {
	Command        string        `yaml:"command"` // empty: detect docker, then podman
	Timeout        time.Duration `yaml:"timeout"`
	SuppressErrors bool          `yaml:"suppressErrors"`
}

// CacheConfig holds the display title cache settings. Titles go to Redis
// when redis.addr is set, otherwise to an in-process LRU of size entries.
type CacheConfig struct {
	Size  int               `yaml:"size"`
	TTL   time.Duration     `yaml:"ttl"`
	Redis cache.RedisConfig `yaml:"redis"`
}

// PlatformConfig holds platform API client settings.
type PlatformConfig struct {
	Timeout time.Duration `yaml:"timeout"`
}

// AppConfig holds the farm configuration.
type AppConfig struct {
	Server   ServerConfig   `yaml:"server"`
	Logger   logger.Config  `yaml:"logger"`
	Auth     AuthConfig     `yaml:"auth"`
	Farm     FarmConfig     `yaml:"farm"`
	Runtime  RuntimeConfig  `yaml:"runtime"`
	Cache    *CacheConfig   `yaml:"cache"`
	Platform PlatformConfig `yaml:"platform"`
}

func (c *AppConfig) serviceConfig() service.FarmConfig {
	return service.FarmConfig{
		Image:          c.Farm.Image,
		ContainerURL:   c.Farm.ContainerURL,
		APIRoot:        c.Farm.APIRoot,
		EditorPort:     c.Farm.EditorPort,
		EnvPath:        c.Farm.EnvPath,
		DataDir:        c.Farm.DataDir,
		SuppressErrors: c.Runtime.SuppressErrors,
	}
}

func loadYAML(path string, out interface{}) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file failed: %w", err)
	}
	if err := yaml.Unmarshal(data, out); err != nil {
		return fmt.Errorf("parse config file failed: %w", err)
	}
	return nil
}

// loadAppConfig reads path, falling back to defaults when the file does not
// exist, then applies environment overrides.
func loadAppConfig(path string, getenv func(string) string) (*AppConfig, error) {
	var cfg AppConfig
	if err := loadYAML(path, &cfg); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, err
	}
	if err := applyEnv(&cfg, getenv); err != nil {
		return nil, err
	}

	if cfg.Server.Addr == "" {
		cfg.Server.Addr = defaultHTTPAddr
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = defaultReadTimeout
	}
	if cfg.Server.WriteTimeout == 0 {
		cfg.Server.WriteTimeout = defaultWriteTimeout
	}
	if cfg.Server.IdleTimeout == 0 {
		cfg.Server.IdleTimeout = defaultIdleTimeout
	}
	if cfg.Server.MaxHeaderBytes == 0 {
		cfg.Server.MaxHeaderBytes = defaultMaxHeaderBytes
	}

	if cfg.Logger.Level == "" {
		cfg.Logger.Level = "info"
	}

	if cfg.Farm.Image == "" {
		cfg.Farm.Image = service.DefaultImage
	}
	if cfg.Farm.ContainerURL == "" {
		cfg.Farm.ContainerURL = service.DefaultContainerURL
	}
	if cfg.Farm.APIRoot == "" {
		cfg.Farm.APIRoot = service.DefaultAPIRoot
	}
	if cfg.Farm.EditorPort == 0 {
		cfg.Farm.EditorPort = service.DefaultEditorPort
	}
	if cfg.Farm.EnvPath == "" {
		cfg.Farm.EnvPath = session.DefaultPath
	}

	if cfg.Cache == nil {
		cfg.Cache = &CacheConfig{Size: defaultCacheSize}
	}
	if cfg.Cache.TTL == 0 {
		cfg.Cache.TTL = defaultCacheTTL
	}
	if cfg.Platform.Timeout == 0 {
		cfg.Platform.Timeout = defaultPlatformTimeout
	}

	if cfg.Farm.EditorPort < 1 || cfg.Farm.EditorPort > 65535 {
		return nil, fmt.Errorf("farm.editorPort %d is out of range", cfg.Farm.EditorPort)
	}
	if cfg.Runtime.Timeout < 0 {
		return nil, fmt.Errorf("runtime.timeout must not be negative")
	}
	return &cfg, nil
}

// applyEnv honours the variables older deployments were configured with.
func applyEnv(cfg *AppConfig, getenv func(string) string) error {
	if v := getenv("LISTEN_PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil || port < 1 || port > 65535 {
			return fmt.Errorf("invalid LISTEN_PORT %q", v)
		}
		cfg.Server.Addr = fmt.Sprintf("0.0.0.0:%d", port)
	}
	if v := getenv("IMAGE_NAME"); v != "" {
		cfg.Farm.Image = v
	}
	if v := getenv("CONTAINER_URL"); v != "" {
		cfg.Farm.ContainerURL = v
	}
	if v := getenv("API_ROOT"); v != "" {
		cfg.Farm.APIRoot = v
	}
	return nil
}
