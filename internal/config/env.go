package config

import (
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
)

// Environment variables read by applyEnv.
const (
	EnvRoot        = "DISTSERVE_ROOT"
	EnvHost        = "DISTSERVE_HOST"
	EnvPort        = "DISTSERVE_PORT"
	EnvIdleTimeout = "DISTSERVE_IDLE_TIMEOUT"
	EnvWatch       = "DISTSERVE_WATCH"
	EnvLogLevel    = "DISTSERVE_LOG_LEVEL"
)

// LookupFunc resolves one environment variable.
type LookupFunc func(key string) (string, bool)

// Environ returns a lookup that prefers the process environment and falls
// back to the values in dotenv. A missing dotenv file is not an error.
// The process environment is never modified.
func Environ(dotenv string) (LookupFunc, error) {
	vals, err := godotenv.Read(dotenv)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			return nil, errors.Wrapf(err, "read %s", dotenv)
		}
		vals = map[string]string{}
	}
	return func(key string) (string, bool) {
		if v, ok := os.LookupEnv(key); ok {
			return v, true
		}
		v, ok := vals[key]
		return v, ok
	}, nil
}

func (c *Config) applyEnv(lookup LookupFunc) error {
	get := func(key string) (string, bool) {
		v, ok := lookup(key)
		v = strings.TrimSpace(v)
		return v, ok && v != ""
	}
	if v, ok := get(EnvRoot); ok {
		if err := c.SetRoot(v); err != nil {
			return err
		}
	}
	if v, ok := lookup(EnvHost); ok {
		c.Host = strings.TrimSpace(v)
	}
	if v, ok := get(EnvPort); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return errors.Wrapf(err, "%s", EnvPort)
		}
		c.Port = n
	}
	if v, ok := get(EnvIdleTimeout); ok {
		d, err := time.ParseDuration(v)
		if err != nil {
			return errors.Wrapf(err, "%s", EnvIdleTimeout)
		}
		c.IdleTimeout = d
	}
	if v, ok := get(EnvWatch); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return errors.Wrapf(err, "%s", EnvWatch)
		}
		c.Watch = b
	}
	if v, ok := get(EnvLogLevel); ok {
		c.LogLevel = strings.ToLower(v)
	}
	return nil
}
