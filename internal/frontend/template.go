package frontend

import (
	"embed"
	"html/template"
	"io"
	"net/url"
	"time"

	"github.com/labstack/echo/v4"
)

const viewsPattern = "views/*.html"

//go:embed views/*.html
var templateFS embed.FS

//go:embed views/icon.svg
var assetsFS embed.FS

// Template renders the embedded views through echo's Renderer hook
type Template struct {
	templates *template.Template
}

func newTemplate() *Template {
	return &Template{
		templates: template.Must(template.New("").Funcs(templateFuncs).ParseFS(templateFS, viewsPattern)),
	}
}

func (t *Template) Render(w io.Writer, name string, data interface{}, c echo.Context) error {
	return t.templates.ExecuteTemplate(w, name, data)
}

var templateFuncs = template.FuncMap{
	"formatDate": func(createdAt int64) string {
		return time.UnixMilli(createdAt).Format("Jan 2, 2006")
	},
	"queryEscape": url.QueryEscape,
}
