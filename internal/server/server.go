package server

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"syscall"
	"time"

	clog "github.com/charmbracelet/log"
	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"

	"distserve/internal/config"
	"distserve/internal/watch"
)

// Server serves the files under one root directory.
type Server struct {
	cfg     config.Config
	root    string // absolute, symlinks evaluated
	display string // absolute, as configured
	log     *clog.Logger
	engine  *gin.Engine
}

// New validates the root directory and builds the request handler.
func New(cfg config.Config, logger *clog.Logger) (*Server, error) {
	display, root, err := ResolveRoot(cfg.Root)
	if err != nil {
		return nil, err
	}
	s := &Server{cfg: cfg, root: root, display: display, log: logger}
	s.engine = s.routes()
	return s, nil
}

// ResolveRoot returns dir as an absolute path and with symlinks evaluated,
// failing when it is missing or not a directory.
func ResolveRoot(dir string) (abs, resolved string, err error) {
	abs, err = filepath.Abs(dir)
	if err != nil {
		return "", "", errors.Wrapf(err, "resolve root %s", dir)
	}
	fi, err := os.Stat(abs)
	if err != nil {
		if os.IsNotExist(err) {
			return "", "", errors.Wrap(ErrRootNotFound, abs)
		}
		return "", "", errors.Wrapf(err, "stat root %s", abs)
	}
	if !fi.IsDir() {
		return "", "", errors.Wrap(ErrRootNotDir, abs)
	}
	resolved, err = filepath.EvalSymlinks(abs)
	if err != nil {
		return "", "", errors.Wrapf(err, "resolve root %s", abs)
	}
	return abs, resolved, nil
}

func (s *Server) routes() *gin.Engine {
	return newEngine(s.log, s.serveStatic)
}

// newEngine wraps h with access logging and panic recovery and routes every
// request to it.
func newEngine(l *clog.Logger, h gin.HandlerFunc) *gin.Engine {
	r := gin.New()
	_ = r.SetTrustedProxies(nil)
	r.Use(accessLog(l))
	r.Use(gin.RecoveryWithWriter(l.StandardLog(clog.StandardLogOptions{ForceLevel: clog.ErrorLevel}).Writer()))

	// One handler for every path; methods gin does not route land in NoRoute.
	r.Any("/*filepath", h)
	r.NoRoute(h)
	return r
}

// Handler exposes the request handler, mainly for tests.
func (s *Server) Handler() http.Handler { return s.engine }

// Root returns the absolute serving root as configured.
func (s *Server) Root() string { return s.display }

// Listen binds a TCP listener on addr.
func Listen(addr string) (net.Listener, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		if errors.Is(err, syscall.EADDRINUSE) {
			return nil, errors.Wrapf(ErrAddrInUse, "listen %s", addr)
		}
		return nil, errors.Wrapf(err, "listen %s", addr)
	}
	return ln, nil
}

// LocalURL is the browser URL for a listener bound on any interface.
func LocalURL(ln net.Listener) string {
	port := 0
	if a, ok := ln.Addr().(*net.TCPAddr); ok {
		port = a.Port
	}
	return fmt.Sprintf("http://localhost:%d", port)
}

// Serve prints the startup line to out and serves on ln until ctx is
// cancelled. A cancelled context is a clean stop and returns nil.
func (s *Server) Serve(ctx context.Context, ln net.Listener, out io.Writer) error {
	srv := &http.Server{
		Handler:           s.engine,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       s.cfg.IdleTimeout,
		ErrorLog:          s.log.StandardLog(clog.StandardLogOptions{ForceLevel: clog.WarnLevel}),

		// "OPTIONS *" must reach the method check like any other method.
		DisableGeneralOptionsHandler: true,
	}

	fmt.Fprintf(out, "Serving %s at %s\n", s.display, LocalURL(ln))
	s.log.Info("serving", "root", s.display, "addr", ln.Addr().String())

	if s.cfg.Watch {
		s.startWatch(ctx)
	}

	go func() {
		<-ctx.Done()
		_ = srv.Close()
	}()
	if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) startWatch(ctx context.Context) {
	w, err := watch.New(s.root, s.log)
	if err != nil {
		s.log.Warn("root watcher unavailable", "err", err)
		return
	}
	go func() {
		if err := w.Run(ctx); err != nil {
			s.log.Warn("root watcher stopped", "err", err)
		}
	}()
}
