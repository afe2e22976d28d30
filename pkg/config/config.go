// Package config loads the application configuration from TOML.
//
// Every key is optional. Values left out of the file are filled from
// [Default], then the merged result is validated:
//
//	max_parallel_tasks = 8
//	meta_dir = "meta"
//
//	[diagram]
//	column_height_max = 4000
//	show_connect_to_arrows = true
//	home_broker = "kafka"
//
//	[fonts]
//	dir = "fonts"
//	[[fonts.family]]
//	name = "Helvetica"
//	file = "Helvetica.ttf"
//
//	[links]
//	template = "https://wiki.example.com/{{ .Name | lower }}"
//
//	[cache]
//	backend = "redis"
//	redis_addr = "localhost:6379"
//	scope = "payments"
//	ttl = "24h"
//
//	[metrics]
//	textfile = "/var/lib/node_exporter/netdiagram.prom"
package config

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"time"

	"dario.cat/mergo"
	"github.com/BurntSushi/toml"
	"github.com/go-playground/validator/v10"

	"github.com/matzehuels/netdiagram/pkg/errors"
	"github.com/matzehuels/netdiagram/pkg/textmetrics"
)

// Cache backends.
const (
	CacheFile  = "file"
	CacheRedis = "redis"
	CacheNone  = "none"
)

// DefaultFileName is looked up in the working directory when no config path
// is given.
const DefaultFileName = "netdiagram.toml"

// Config is the application configuration.
type Config struct {
	MaxParallelTasks int    `toml:"max_parallel_tasks" validate:"min=1,max=256"`
	MetaDir          string `toml:"meta_dir" validate:"required"`

	Diagram Diagram `toml:"diagram"`
	Fonts   Fonts   `toml:"fonts"`
	Links   Links   `toml:"links"`
	Cache   Cache   `toml:"cache"`
	Metrics Metrics `toml:"metrics"`
}

// Diagram holds layout settings that override the props table.
type Diagram struct {
	// ColumnHeightMax replaces system.column_services_h_max when positive.
	ColumnHeightMax     float64 `toml:"column_height_max" validate:"gte=0"`
	ShowConnectToArrows bool    `toml:"show_connect_to_arrows"`
	HomeBroker          string  `toml:"home_broker" validate:"omitempty,oneof=kafka activemq rabbitmq"`
}

// Fonts maps style font families to font files under Dir.
type Fonts struct {
	Dir      string               `toml:"dir"`
	Families []textmetrics.Family `toml:"family" validate:"dive"`
}

// Links configures the wiki link attached to product services.
type Links struct {
	Template string `toml:"template"`
}

// Cache selects the render cache backend.
type Cache struct {
	Backend   string        `toml:"backend" validate:"oneof=file redis none"`
	Dir       string        `toml:"dir"`
	RedisAddr string        `toml:"redis_addr" validate:"required_if=Backend redis"`
	TTL       time.Duration `toml:"ttl" validate:"gte=0"`
	// Scope prefixes every key so projects sharing one Redis stay apart.
	Scope     string        `toml:"scope" validate:"omitempty,hostname_rfc1123"`
}

// Metrics configures the Prometheus text-file export.
type Metrics struct {
	Textfile string `toml:"textfile"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		MaxParallelTasks: 4,
		MetaDir:          "meta",
		Diagram:          Diagram{HomeBroker: "kafka"},
		Cache: Cache{
			Backend: CacheFile,
			Dir:     DefaultCacheDir(),
			TTL:     7 * 24 * time.Hour,
		},
	}
}

// DefaultCacheDir follows the XDG convention: $XDG_CACHE_HOME/netdiagram,
// else ~/.cache/netdiagram. It falls back to a directory in the working
// directory when no home is known.
func DefaultCacheDir() string {
	if cacheHome := os.Getenv("XDG_CACHE_HOME"); cacheHome != "" {
		return filepath.Join(cacheHome, "netdiagram")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ".netdiagram-cache"
	}
	return filepath.Join(home, ".cache", "netdiagram")
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Load reads the configuration at path. An empty path tries
// [DefaultFileName] and falls back to [Default] when it does not exist.
func Load(path string) (*Config, error) {
	explicit := path != ""
	if !explicit {
		path = DefaultFileName
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if !explicit && os.IsNotExist(err) {
			return Default(), nil
		}
		return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "read config %s", path)
	}
	cfg, err := Parse(data)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "config %s", path)
	}
	return cfg, nil
}

// Parse decodes TOML data, merges defaults and validates the result.
// Unknown keys are rejected.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	md, err := toml.NewDecoder(bytes.NewReader(data)).Decode(&cfg)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "decode")
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return nil, errors.New(errors.ErrCodeInvalidConfig, "unknown keys: %s", strings.Join(keys, ", "))
	}
	if err := mergo.Merge(&cfg, Default()); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "merge defaults")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks field constraints and that the link template parses.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidConfig, err, "validate")
	}
	if _, err := c.Links.Renderer(); err != nil {
		return err
	}
	return nil
}

// StylesPath returns the stylesheet under MetaDir.
func (c *Config) StylesPath() string {
	return filepath.Join(c.MetaDir, "diagrams", "network", "styles.css")
}

// PropsPath returns the layout props under MetaDir.
func (c *Config) PropsPath() string {
	return filepath.Join(c.MetaDir, "diagrams", "network", "props.yaml")
}

// SystemTemplatePath returns the skeleton of the whole-system diagram.
func (c *Config) SystemTemplatePath() string {
	return filepath.Join(c.MetaDir, "diagrams", "network", "template.xml")
}

// ServiceTemplatePath returns the skeleton of per-service diagrams.
func (c *Config) ServiceTemplatePath() string {
	return filepath.Join(c.MetaDir, "diagrams", "network", "template_service.xml")
}
