package handler

import (
	"embed"
	"html/template"
	"io"

	"github.com/labstack/echo/v4"
)

//go:embed templates/*.html
var templateFS embed.FS

// Renderer implements echo.Renderer over the embedded page templates.
type Renderer struct {
	tmpl *template.Template
}

// NewRenderer parses the embedded templates.  A parse error is a build
// defect, so it panics like template.Must.
func NewRenderer() *Renderer {
	return &Renderer{tmpl: template.Must(template.ParseFS(templateFS, "templates/*.html"))}
}

func (r *Renderer) Render(w io.Writer, name string, data interface{}, _ echo.Context) error {
	return r.tmpl.ExecuteTemplate(w, name, data)
}

// NavLink is one entry of the role navigation bar.
type NavLink struct {
	Path  string
	Title string
}

// page is the data every template receives.
type page struct {
	Title string
	Role  string
	Nav   []NavLink
	Error string
	Email string
	Table *Table
}
