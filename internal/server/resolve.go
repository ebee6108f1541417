package server

import (
	"os"
	"path/filepath"
	"strings"
)

// Resolve maps a decoded URL path onto root without touching the
// filesystem. Dot-dot segments are applied lexically; one that would climb
// above root fails with ErrTraversal.
func Resolve(root, urlPath string) (string, error) {
	if !strings.HasPrefix(urlPath, "/") || strings.IndexByte(urlPath, 0) >= 0 {
		return "", ErrBadPath
	}
	parts := make([]string, 0, strings.Count(urlPath, "/"))
	for _, seg := range strings.Split(urlPath, "/") {
		switch seg {
		case "", ".":
			continue
		case "..":
			if len(parts) == 0 {
				return "", ErrTraversal
			}
			parts = parts[:len(parts)-1]
			continue
		}
		// "a\b" or "C:" would be reinterpreted by the OS path layer.
		if filepath.Separator != '/' && strings.ContainsRune(seg, filepath.Separator) {
			return "", ErrBadPath
		}
		if filepath.VolumeName(seg) != "" {
			return "", ErrBadPath
		}
		parts = append(parts, seg)
	}
	return filepath.Join(append([]string{root}, parts...)...), nil
}

// confine follows symlinks in p and fails with ErrOutsideRoot when the
// target leaves root. root itself must already be symlink-free.
func confine(root, p string) (string, error) {
	resolved, err := filepath.EvalSymlinks(p)
	if err != nil {
		return "", err
	}
	if !within(root, resolved) {
		return "", ErrOutsideRoot
	}
	return resolved, nil
}

func within(root, p string) bool {
	rel, err := filepath.Rel(root, p)
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(os.PathSeparator))
}
