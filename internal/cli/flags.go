package cli

import (
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"distserve/internal/config"
)

// addServeFlags registers the flags that override config values.
func addServeFlags(f *pflag.FlagSet) {
	f.StringP("root", "r", "", "directory to serve (default: dist next to the binary)")
	f.String("host", "", "interface to bind (default: all interfaces)")
	f.IntP("port", "p", config.DefaultPort, "TCP port to listen on")
	f.BoolP("watch", "w", false, "log changes under the serving root")
	f.Duration("idle-timeout", 0, "close keep-alive connections idle this long (0 = never)")
	f.String("log-level", "info", "debug, info, warn or error")
}

// loadConfig resolves defaults, file, env and then explicitly set flags.
func loadConfig(cmd *cobra.Command) (config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return cfg, err
	}
	if err := applyFlags(&cfg, cmd.Flags()); err != nil {
		return cfg, err
	}
	return cfg, cfg.Validate()
}

// applyFlags copies only the flags the user set, so config file and env
// values survive flag defaults.
func applyFlags(cfg *config.Config, f *pflag.FlagSet) error {
	changed := func(name string) bool {
		fl := f.Lookup(name)
		return fl != nil && fl.Changed
	}
	if changed("root") {
		v, _ := f.GetString("root")
		if err := cfg.SetRoot(v); err != nil {
			return err
		}
	}
	if changed("host") {
		cfg.Host, _ = f.GetString("host")
	}
	if changed("port") {
		cfg.Port, _ = f.GetInt("port")
	}
	if changed("watch") {
		cfg.Watch, _ = f.GetBool("watch")
	}
	if changed("idle-timeout") {
		cfg.IdleTimeout, _ = f.GetDuration("idle-timeout")
	}
	if changed("log-level") {
		cfg.LogLevel, _ = f.GetString("log-level")
	}
	return nil
}
