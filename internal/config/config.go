package config

import (
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// DefaultPort is the port bound when nothing else is configured.
const DefaultPort = 8000

// Config is the effective server configuration.
type Config struct {
	Root        string        `yaml:"root" json:"root,omitempty" jsonschema:"description=Directory to serve. Relative paths resolve against the config file's directory."`
	Host        string        `yaml:"host" json:"host,omitempty" jsonschema:"description=Interface to bind; empty means all interfaces."`
	Port        int           `yaml:"port" json:"port,omitempty" jsonschema:"minimum=1,maximum=65535,default=8000"`
	IndexFiles  []string      `yaml:"index_files" json:"index_files,omitempty" jsonschema:"description=File names tried in order for a directory request."`
	IdleTimeout time.Duration `yaml:"idle_timeout" json:"idle_timeout,omitempty" jsonschema:"type=string,description=Keep-alive idle timeout such as 30s; 0 disables it."`
	Watch       bool          `yaml:"watch" json:"watch,omitempty" jsonschema:"description=Log changes under the serving root."`
	LogLevel    string        `yaml:"log_level" json:"log_level,omitempty" jsonschema:"enum=debug,enum=info,enum=warn,enum=error,default=info"`
}

// defaultIndexFiles mirrors what browsers expect from a plain file server.
var defaultIndexFiles = []string{"index.html", "index.htm"}

// Default returns the built-in configuration: dist next to the binary, all
// interfaces, port 8000.
func Default() Config {
	return Config{
		Root:       DefaultRoot(),
		Port:       DefaultPort,
		IndexFiles: append([]string(nil), defaultIndexFiles...),
		LogLevel:   "info",
	}
}

// Addr returns host:port for net.Listen.
func (c Config) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// Validate reports the first invalid field.
func (c Config) Validate() error {
	if strings.TrimSpace(c.Root) == "" {
		return errors.New("root must not be empty")
	}
	if c.Port < 1 || c.Port > 65535 {
		return errors.Errorf("port %d out of range 1-65535", c.Port)
	}
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return errors.Errorf("unknown log level %q", c.LogLevel)
	}
	for _, name := range c.IndexFiles {
		if name == "" || name == "." || name == ".." || strings.ContainsAny(name, `/\`) {
			return errors.Errorf("index file %q must be a plain file name", name)
		}
	}
	if c.IdleTimeout < 0 {
		return errors.New("idle timeout must not be negative")
	}
	return nil
}

// Load builds the configuration from defaults, the YAML file and the
// environment, in that order. An empty path means the optional
// distserve.yaml next to the binary; an explicit path must exist.
func Load(path string) (Config, error) {
	cfg := Default()
	explicit := path != ""
	if !explicit {
		path = DefaultFile()
	}
	if err := cfg.mergeFile(path, explicit); err != nil {
		return cfg, err
	}
	env, err := Environ(".env")
	if err != nil {
		return cfg, err
	}
	if err := cfg.applyEnv(env); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func (c *Config) mergeFile(path string, required bool) error {
	b, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) && !required {
			return nil
		}
		return errors.Wrapf(err, "read config %s", path)
	}
	// Decode into a copy so absent keys keep their defaults.
	next := *c
	next.IndexFiles = nil
	if err := yaml.Unmarshal(b, &next); err != nil {
		return errors.Wrapf(err, "parse config %s", path)
	}
	if next.IndexFiles == nil {
		next.IndexFiles = c.IndexFiles
	}
	if next.Root != c.Root && next.Root != "" && !filepath.IsAbs(next.Root) {
		abs, err := filepath.Abs(path)
		if err != nil {
			return errors.Wrapf(err, "resolve config %s", path)
		}
		next.Root = filepath.Join(filepath.Dir(abs), next.Root)
	}
	*c = next
	return nil
}

// SetRoot replaces Root, resolving a relative dir against the working
// directory.
func (c *Config) SetRoot(dir string) error {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return errors.Wrapf(err, "resolve root %s", dir)
	}
	c.Root = abs
	return nil
}
