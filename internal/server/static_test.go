package server

import (
	"bytes"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"testing"

	clog "github.com/charmbracelet/log"
	"github.com/gin-gonic/gin"

	"distserve/internal/config"
	tu "distserve/internal/testutil"
)

var siteFiles = map[string]string{
	"index.html":       "<h1>hi</h1>",
	"data.json":        `{"a":1}`,
	".hidden":          "secret-ish",
	"assets/app.js":    "console.log(1)",
	"assets/style.css": "body{}",
	"assets/raw.bin":   "\x00\x01\x02",
	"assets/img/":      "",
	"docs/index.htm":   "<p>docs</p>",
	"notes/readme":     "plain",
}

func newTestServer(t *testing.T, root string) *Server {
	t.Helper()
	gin.SetMode(gin.TestMode)
	cfg := config.Default()
	cfg.Root = root
	s, err := New(cfg, clog.New(io.Discard))
	if err != nil {
		t.Fatalf("New error: %v", err)
	}
	return s
}

func newSite(t *testing.T) (*Server, string) {
	t.Helper()
	root := t.TempDir()
	tu.WriteTree(t, root, siteFiles)
	return newTestServer(t, root), root
}

func do(s *Server, method, target string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, nil)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func TestServe_FilesByteIdentical(t *testing.T) {
	s, _ := newSite(t)
	for rel, content := range siteFiles {
		if strings.HasSuffix(rel, "/") {
			continue
		}
		rec := do(s, http.MethodGet, "/"+rel)
		if rec.Code != http.StatusOK {
			t.Fatalf("%s: status %d", rel, rec.Code)
		}
		if got := rec.Body.String(); got != content {
			t.Fatalf("%s: body %q want %q", rel, got, content)
		}
		if cl := rec.Header().Get("Content-Length"); cl != strconv.Itoa(len(content)) {
			t.Fatalf("%s: Content-Length %q want %d", rel, cl, len(content))
		}
		if rec.Header().Get("Last-Modified") == "" {
			t.Fatalf("%s: missing Last-Modified", rel)
		}
	}
}

func TestServe_IndexAndContentTypes(t *testing.T) {
	s, _ := newSite(t)
	cases := []struct {
		path, body, ctype string
	}{
		{"/", "<h1>hi</h1>", "text/html"},
		{"/index.html", "<h1>hi</h1>", "text/html"},
		{"/data.json", `{"a":1}`, "application/json"},
		{"/assets/app.js", "console.log(1)", "text/javascript"},
		{"/assets/style.css", "body{}", "text/css"},
		{"/assets/raw.bin", "\x00\x01\x02", "application/octet-stream"},
		{"/notes/readme", "plain", "application/octet-stream"},
		{"/docs/", "<p>docs</p>", "text/html"},
	}
	for _, tc := range cases {
		rec := do(s, http.MethodGet, tc.path)
		if rec.Code != http.StatusOK {
			t.Fatalf("%s: status %d", tc.path, rec.Code)
		}
		if rec.Body.String() != tc.body {
			t.Fatalf("%s: body %q want %q", tc.path, rec.Body.String(), tc.body)
		}
		if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, tc.ctype) {
			t.Fatalf("%s: Content-Type %q want prefix %q", tc.path, ct, tc.ctype)
		}
	}
}

func TestServe_Head(t *testing.T) {
	s, _ := newSite(t)
	rec := do(s, http.MethodHead, "/data.json")
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d", rec.Code)
	}
	if rec.Body.Len() != 0 {
		t.Fatalf("HEAD returned a body: %q", rec.Body.String())
	}
	if cl := rec.Header().Get("Content-Length"); cl != "7" {
		t.Fatalf("Content-Length %q want 7", cl)
	}
}

func TestServe_NotFound(t *testing.T) {
	s, _ := newSite(t)
	for _, p := range []string{"/nope.txt", "/assets/nope.js", "/missing/dir/", "/index.html/x"} {
		rec := do(s, http.MethodGet, p)
		if rec.Code != http.StatusNotFound {
			t.Fatalf("%s: status %d want 404", p, rec.Code)
		}
		if want := "404 page not found: " + p + "\n"; rec.Body.String() != want {
			t.Fatalf("%s: body %q want %q", p, rec.Body.String(), want)
		}
	}
}

func TestServe_TraversalBlocked(t *testing.T) {
	parent := t.TempDir()
	root := filepath.Join(parent, "dist")
	tu.WriteTree(t, parent, map[string]string{
		"secret.txt":      "TOP-SECRET",
		"dist/index.html": "ok",
		"dist/a/b.txt":    "b",
	})
	s := newTestServer(t, root)

	for _, p := range []string{
		"/../secret.txt",
		"/a/../../secret.txt",
		"/%2e%2e/secret.txt",
		"/..%2fsecret.txt",
		"/a/%2e%2e/%2e%2e/secret.txt",
	} {
		rec := do(s, http.MethodGet, p)
		if rec.Code < 400 || rec.Code > 499 {
			t.Fatalf("%s: status %d want 4xx", p, rec.Code)
		}
		if strings.Contains(rec.Body.String(), "TOP-SECRET") {
			t.Fatalf("%s: leaked content outside root", p)
		}
	}

	// dot-dot that stays inside the root is fine
	rec := do(s, http.MethodGet, "/a/../a/b.txt")
	if rec.Code != http.StatusOK || rec.Body.String() != "b" {
		t.Fatalf("inner dot-dot: status %d body %q", rec.Code, rec.Body.String())
	}
}

func TestServe_Symlinks(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("symlinks need privileges on windows")
	}
	parent := t.TempDir()
	root := filepath.Join(parent, "dist")
	tu.WriteTree(t, parent, map[string]string{
		"outside.txt":     "OUTSIDE",
		"dist/index.html": "inside",
	})
	if err := os.Symlink(filepath.Join(parent, "outside.txt"), filepath.Join(root, "escape.txt")); err != nil {
		t.Fatal(err)
	}
	if err := os.Symlink("index.html", filepath.Join(root, "alias.html")); err != nil {
		t.Fatal(err)
	}
	if err := os.Symlink(filepath.Join(root, "gone"), filepath.Join(root, "dangling")); err != nil {
		t.Fatal(err)
	}
	s := newTestServer(t, root)

	rec := do(s, http.MethodGet, "/escape.txt")
	if rec.Code != http.StatusForbidden || strings.Contains(rec.Body.String(), "OUTSIDE") {
		t.Fatalf("escaping symlink: status %d body %q", rec.Code, rec.Body.String())
	}
	rec = do(s, http.MethodGet, "/alias.html")
	if rec.Code != http.StatusOK || rec.Body.String() != "inside" {
		t.Fatalf("inner symlink: status %d body %q", rec.Code, rec.Body.String())
	}
	rec = do(s, http.MethodGet, "/dangling")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("dangling symlink: status %d want 404", rec.Code)
	}
}

func TestServe_DirectoryListing(t *testing.T) {
	s, _ := newSite(t)
	rec := do(s, http.MethodGet, "/assets/")
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/html") {
		t.Fatalf("Content-Type %q", ct)
	}
	body := rec.Body.String()
	for _, want := range []string{
		"Directory listing for /assets/",
		`href="app.js"`,
		`href="style.css"`,
		`href="raw.bin"`,
		`href="img/"`,
	} {
		if !strings.Contains(body, want) {
			t.Fatalf("listing missing %s:\n%s", want, body)
		}
	}
	if cl := rec.Header().Get("Content-Length"); cl != strconv.Itoa(len(body)) {
		t.Fatalf("Content-Length %q want %d", cl, len(body))
	}
}

func TestServe_ListingIncludesHiddenFiles(t *testing.T) {
	root := t.TempDir()
	tu.WriteTree(t, root, map[string]string{".env": "x", "b.txt": "b"})
	s := newTestServer(t, root)
	rec := do(s, http.MethodGet, "/")
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `href=".env"`) {
		t.Fatalf("status %d body:\n%s", rec.Code, rec.Body.String())
	}
}

func TestServe_DirectoryRedirect(t *testing.T) {
	s, _ := newSite(t)
	cases := map[string]string{
		"/assets":     "/assets/",
		"/docs?x=1":   "/docs/?x=1",
		"//assets":    "/assets/",
		"/assets/img": "/assets/img/",
	}
	for in, want := range cases {
		rec := do(s, http.MethodGet, in)
		if rec.Code != http.StatusMovedPermanently {
			t.Fatalf("%s: status %d want 301", in, rec.Code)
		}
		if loc := rec.Header().Get("Location"); loc != want {
			t.Fatalf("%s: Location %q want %q", in, loc, want)
		}
	}
}

func TestServe_UnsupportedMethods(t *testing.T) {
	s, _ := newSite(t)
	for _, m := range []string{http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions, "PROPFIND"} {
		rec := do(s, m, "/index.html")
		if rec.Code != http.StatusNotImplemented {
			t.Fatalf("%s: status %d want 501", m, rec.Code)
		}
		if allow := rec.Header().Get("Allow"); allow != "GET, HEAD" {
			t.Fatalf("%s: Allow %q", m, allow)
		}
	}
}

func TestServe_ReadsFreshContent(t *testing.T) {
	s, root := newSite(t)
	if got := do(s, http.MethodGet, "/data.json").Body.String(); got != `{"a":1}` {
		t.Fatalf("first read %q", got)
	}
	if err := os.WriteFile(filepath.Join(root, "data.json"), []byte(`{"a":2,"b":3}`), 0o644); err != nil {
		t.Fatal(err)
	}
	rec := do(s, http.MethodGet, "/data.json")
	if rec.Body.String() != `{"a":2,"b":3}` || rec.Header().Get("Content-Length") != "13" {
		t.Fatalf("stale response: %q (len %s)", rec.Body.String(), rec.Header().Get("Content-Length"))
	}

	if err := os.Remove(filepath.Join(root, "data.json")); err != nil {
		t.Fatal(err)
	}
	if rec := do(s, http.MethodGet, "/data.json"); rec.Code != http.StatusNotFound {
		t.Fatalf("removed file: status %d", rec.Code)
	}
}

func TestServe_AccessLog(t *testing.T) {
	gin.SetMode(gin.TestMode)
	root := t.TempDir()
	tu.WriteTree(t, root, map[string]string{"a.txt": "a"})
	var buf bytes.Buffer
	cfg := config.Default()
	cfg.Root = root
	s, err := New(cfg, clog.New(&buf))
	if err != nil {
		t.Fatal(err)
	}
	do(s, http.MethodGet, "/a.txt")
	do(s, http.MethodGet, "/missing")
	do(s, http.MethodPost, "/a.txt")
	out := buf.String()
	if !strings.Contains(out, "path=/a.txt") || !strings.Contains(out, "status=200") {
		t.Fatalf("missing 200 access line:\n%s", out)
	}
	if !strings.Contains(out, "status=404") {
		t.Fatalf("missing 404 access line:\n%s", out)
	}
	if !strings.Contains(out, "status=501") {
		t.Fatalf("missing 501 access line:\n%s", out)
	}
	// unsupported methods are client errors, not server errors
	if strings.Contains(out, "ERRO") {
		t.Fatalf("client request logged at error level:\n%s", out)
	}
}
