package server

import (
	"html/template"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
)

// Entry is one row of a directory listing.
type Entry struct {
	Name    string
	Dir     bool
	Link    bool
	Size    int64
	ModTime time.Time
}

// Href is the relative link target. Directories keep a trailing slash so
// relative links inside them resolve.
func (e Entry) Href() string {
	h := url.PathEscape(e.Name)
	if strings.Contains(h, ":") {
		// keep "a:b" from parsing as a scheme
		h = "./" + h
	}
	if e.Dir {
		h += "/"
	}
	return h
}

// Display is the link text: "/" marks directories, "@" symlinks.
func (e Entry) Display() string {
	switch {
	case e.Link:
		return e.Name + "@"
	case e.Dir:
		return e.Name + "/"
	}
	return e.Name
}

// ReadListing returns the immediate children of dir, hidden ones included,
// sorted case-insensitively. Entries that vanish while reading are skipped.
func ReadListing(dir string) ([]Entry, error) {
	des, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	out := make([]Entry, 0, len(des))
	for _, d := range des {
		info, err := d.Info()
		if err != nil {
			continue
		}
		e := Entry{
			Name:    d.Name(),
			Dir:     info.IsDir(),
			Link:    info.Mode()&os.ModeSymlink != 0,
			Size:    info.Size(),
			ModTime: info.ModTime(),
		}
		if e.Link {
			if target, err := os.Stat(filepath.Join(dir, d.Name())); err == nil {
				e.Dir = target.IsDir()
				e.Size = target.Size()
				e.ModTime = target.ModTime()
			}
		}
		out = append(out, e)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return strings.ToLower(out[i].Name) < strings.ToLower(out[j].Name)
	})
	return out, nil
}

// listingRow is an Entry prepared for the template.
type listingRow struct {
	Href    string
	Display string
	Size    string
	Age     string
}

var listingTmpl = template.Must(template.New("listing").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>Directory listing for {{.Path}}</title>
</head>
<body>
<h1>Directory listing for {{.Path}}</h1>
<hr>
<ul>
{{- range .Rows}}
<li><a href="{{.Href}}">{{.Display}}</a>{{with .Size}} <small>{{.}}</small>{{end}} <small>{{.Age}}</small></li>
{{- end}}
</ul>
<hr>
</body>
</html>
`))

// RenderListing writes the HTML listing page for urlPath. now anchors the
// relative modification times.
func RenderListing(w io.Writer, urlPath string, entries []Entry, now time.Time) error {
	rows := make([]listingRow, 0, len(entries))
	for _, e := range entries {
		r := listingRow{
			Href:    e.Href(),
			Display: e.Display(),
			Age:     humanize.RelTime(e.ModTime, now, "ago", "from now"),
		}
		if !e.Dir {
			r.Size = humanize.Bytes(uint64(e.Size))
		}
		rows = append(rows, r)
	}
	return listingTmpl.Execute(w, struct {
		Path string
		Rows []listingRow
	}{urlPath, rows})
}
