package server

import (
	"io/fs"
	"net/http"
	"syscall"

	"github.com/pkg/errors"
)

// Startup errors.
var (
	ErrRootNotFound = errors.New("serving root does not exist")
	ErrRootNotDir   = errors.New("serving root is not a directory")
	ErrAddrInUse    = errors.New("port already in use")
)

// Request path errors.
var (
	ErrBadPath     = errors.New("malformed request path")
	ErrTraversal   = errors.New("path escapes serving root")
	ErrOutsideRoot = errors.New("path resolves outside serving root")
)

// statusFor maps a per-request error to the status sent to the client.
func statusFor(err error) int {
	switch {
	case errors.Is(err, ErrBadPath), errors.Is(err, ErrTraversal):
		return http.StatusBadRequest
	case errors.Is(err, ErrOutsideRoot), errors.Is(err, fs.ErrPermission):
		return http.StatusForbidden
	case errors.Is(err, fs.ErrNotExist), errors.Is(err, syscall.ENOTDIR):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}
