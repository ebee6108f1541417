package system

import (
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	clog "github.com/charmbracelet/log"
)

// Logger is the shared application logger.
// It writes to stderr; stdout carries only the startup line.
var Logger = newLogger()

func newLogger() *clog.Logger {
	l := clog.NewWithOptions(os.Stderr, clog.Options{
		ReportTimestamp: true,
		Prefix:          "distserve",
	})
	l.SetStyles(levelStyles())
	return l
}

// levelStyles keeps the default layout but pins level badges to the
// same four-letter width and palette.
func levelStyles() *clog.Styles {
	s := clog.DefaultStyles()
	badge := func(label, color string) lipgloss.Style {
		return lipgloss.NewStyle().
			SetString(label).
			Bold(true).
			MaxWidth(4).
			Foreground(lipgloss.Color(color))
	}
	s.Levels[clog.DebugLevel] = badge("DEBU", "63")
	s.Levels[clog.InfoLevel] = badge("INFO", "86")
	s.Levels[clog.WarnLevel] = badge("WARN", "192")
	s.Levels[clog.ErrorLevel] = badge("ERRO", "204")
	s.Levels[clog.FatalLevel] = badge("FATA", "134")
	return s
}

// SetLevel parses a level name (debug, info, warn, error) and applies it.
func SetLevel(name string) error {
	lvl, err := clog.ParseLevel(strings.ToLower(strings.TrimSpace(name)))
	if err != nil {
		return err
	}
	Logger.SetLevel(lvl)
	return nil
}
