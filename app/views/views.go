// Package views holds the dashboard's HTML templates.
package views

import (
	"embed"
	"html/template"
	"strings"
	"time"

	"mangapost/app/caption"
)

//go:embed layout.html posts/*.html session/*.html
var files embed.FS

var funcs = template.FuncMap{
	"hashtags": func(tags []string) string {
		return strings.Join(caption.Hashtags(tags), " ")
	},
	"datetime": func(t time.Time) string {
		return t.UTC().Format("2006-01-02 15:04 UTC")
	},
	"isDataImage": func(s string) bool {
		return strings.HasPrefix(s, "data:")
	},
}

// Load parses every page together with the shared layout.
func Load() (map[string]*template.Template, error) {
	pages := map[string]string{
		"index": "posts/index.html",
		"login": "session/login.html",
	}

	templates := make(map[string]*template.Template, len(pages))
	for name, page := range pages {
		t, err := template.New(name).Funcs(funcs).ParseFS(files, "layout.html", page)
		if err != nil {
			return nil, err
		}
		templates[name] = t
	}
	return templates, nil
}
