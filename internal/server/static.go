package server

import (
	"bytes"
	"io/fs"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
)

// serveStatic answers every request. The branches run in a fixed order:
// method, path resolution, directory (redirect, index, listing), file.
func (s *Server) serveStatic(c *gin.Context) {
	r := c.Request
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		c.Header("Allow", "GET, HEAD")
		c.String(http.StatusNotImplemented, "Unsupported method (%s)\n", r.Method)
		return
	}

	urlPath := r.URL.Path
	name, err := Resolve(s.root, urlPath)
	if err != nil {
		s.fail(c, err)
		return
	}
	resolved, err := confine(s.root, name)
	if err != nil {
		s.fail(c, err)
		return
	}
	fi, err := os.Stat(resolved)
	if err != nil {
		s.fail(c, err)
		return
	}

	if fi.IsDir() {
		if !strings.HasSuffix(urlPath, "/") {
			s.redirectDir(c, urlPath)
			return
		}
		if index, ifi, ok := s.findIndex(resolved); ok {
			s.serveFile(c, index, ifi)
			return
		}
		s.serveListing(c, resolved, urlPath)
		return
	}
	if !fi.Mode().IsRegular() {
		s.fail(c, fs.ErrNotExist)
		return
	}
	s.serveFile(c, resolved, fi)
}

// redirectDir sends /dir to /dir/ so relative links in the page resolve.
func (s *Server) redirectDir(c *gin.Context, urlPath string) {
	// Collapse leading slashes; "//host" would be a protocol-relative URL.
	target := url.URL{
		Path:     "/" + strings.TrimLeft(urlPath, "/") + "/",
		RawQuery: c.Request.URL.RawQuery,
	}
	c.Redirect(http.StatusMovedPermanently, target.String())
}

func (s *Server) findIndex(dir string) (string, os.FileInfo, bool) {
	for _, name := range s.cfg.IndexFiles {
		resolved, err := confine(s.root, filepath.Join(dir, name))
		if err != nil {
			continue
		}
		fi, err := os.Stat(resolved)
		if err == nil && fi.Mode().IsRegular() {
			return resolved, fi, true
		}
	}
	return "", nil, false
}

func (s *Server) serveFile(c *gin.Context, name string, fi os.FileInfo) {
	f, err := os.Open(name)
	if err != nil {
		s.fail(c, err)
		return
	}
	defer f.Close()
	c.Header("Content-Type", ContentType(name))
	// ServeContent sets Content-Length and Last-Modified, honours
	// If-Modified-Since and Range, and skips the body for HEAD.
	http.ServeContent(c.Writer, c.Request, fi.Name(), fi.ModTime(), f)
}

func (s *Server) serveListing(c *gin.Context, dir, urlPath string) {
	entries, err := ReadListing(dir)
	if err != nil {
		s.fail(c, err)
		return
	}
	var buf bytes.Buffer
	if err := RenderListing(&buf, urlPath, entries, time.Now()); err != nil {
		s.fail(c, err)
		return
	}
	c.Header("Content-Length", strconv.Itoa(buf.Len()))
	c.Data(http.StatusOK, "text/html; charset=utf-8", buf.Bytes())
}

// fail writes a short plain-text error page for err.
func (s *Server) fail(c *gin.Context, err error) {
	code := statusFor(err)
	if code == http.StatusInternalServerError {
		s.log.Error("request failed", "path", c.Request.URL.Path, "err", err)
	} else {
		s.log.Debug("request rejected", "path", c.Request.URL.Path, "status", code, "err", err)
	}
	if code == http.StatusNotFound {
		c.String(code, "404 page not found: %s\n", c.Request.URL.Path)
		return
	}
	c.String(code, "%d %s\n", code, http.StatusText(code))
}
