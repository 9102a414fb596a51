package web

import (
	"embed"
	"html/template"
	"time"

	"github.com/Zachkp/folio/internal/domain"
	"github.com/Zachkp/folio/internal/media"
)

//go:embed templates/*.html
var templatesFS embed.FS

var funcs = template.FuncMap{
	"join": func(t domain.Technologies) string { return domain.JoinTechnologies(t) },
	"date": func(t time.Time) string {
		if t.IsZero() {
			return ""
		}
		return t.Local().Format("Jan 2, 2006 3:04 PM")
	},
	"card": func(url string) string { return media.Optimize(url, media.Transform{}) },
	"year": func() int { return time.Now().Year() },
}

// Templates parses every embedded template; each is addressed by file name.
func Templates() *template.Template {
	return template.Must(template.New("").Funcs(funcs).ParseFS(templatesFS, "templates/*.html"))
}
