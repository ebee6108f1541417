package config

import (
	"os"
	"path/filepath"

	"github.com/pkg/errors"
)

const (
	// RootDirName is the directory served by default, a sibling of the binary.
	RootDirName = "dist"
	// FileName is the optional config file looked up next to the binary.
	FileName = "distserve.yaml"
)

// ExecutableDir returns the directory holding the running binary, with
// symlinks resolved. Falls back to the working directory when the
// executable path is unavailable.
func ExecutableDir() (string, error) {
	exe, err := os.Executable()
	if err == nil {
		if resolved, rerr := filepath.EvalSymlinks(exe); rerr == nil {
			exe = resolved
		}
		return filepath.Dir(exe), nil
	}
	wd, werr := os.Getwd()
	if werr != nil {
		return "", errors.New("cannot determine executable directory")
	}
	return wd, nil
}

// DefaultRoot returns <executable dir>/dist.
func DefaultRoot() string {
	dir, err := ExecutableDir()
	if err != nil {
		return RootDirName
	}
	return filepath.Join(dir, RootDirName)
}

// DefaultFile returns <executable dir>/distserve.yaml.
func DefaultFile() string {
	dir, err := ExecutableDir()
	if err != nil {
		return FileName
	}
	return filepath.Join(dir, FileName)
}
