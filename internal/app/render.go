package app

import (
	"embed"
	"fmt"
	"html/template"
	"io"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/brioso/stockroom/internal/storage/db"
)

//go:embed templates
var templateFiles embed.FS

// pages are the content templates, each rendered inside layout.html.
var pageNames = []string{
	"dashboard.html",
	"inventory.html",
	"scan.html",
	"product_new.html",
	"product_detail.html",
	"users.html",
}

var templateFuncs = template.FuncMap{
	"now": time.Now,
	"date": func(t time.Time) string {
		if t.IsZero() {
			return "-"
		}
		return t.Format("2006-01-02")
	},
	"money": func(v float64) string {
		return fmt.Sprintf("%.2f", v)
	},
}

// renderer renders html/template pages for echo. Each page gets its own
// template set cloned from the shared layout.
type renderer struct {
	pages map[string]*template.Template
}

func newRenderer() *renderer {
	pages := make(map[string]*template.Template, len(pageNames))
	for _, name := range pageNames {
		pages[name] = template.Must(
			template.New("layout.html").
				Funcs(templateFuncs).
				ParseFS(templateFiles, "templates/layout.html", "templates/"+name),
		)
	}
	return &renderer{pages: pages}
}

// Render satisfies [echo.Renderer].
func (r *renderer) Render(w io.Writer, name string, data any, _ echo.Context) error {
	tmpl, ok := r.pages[name]
	if !ok {
		return fmt.Errorf("unknown template %q", name)
	}
	return tmpl.ExecuteTemplate(w, "layout.html", data)
}

// page is the data envelope every template receives.
type page struct {
	Title string
	User  db.User
	CSRF  string
	// Insecure is set on scan pages served from an origin where the browser
	// will refuse camera access.
	Insecure bool
	Flash    string
	Level    string
	Data     any
}

func newPage(c echo.Context, title string, data any) page {
	csrf, _ := c.Get("csrf").(string)
	return page{
		Title: title,
		User:  authedUser(c),
		CSRF:  csrf,
		Flash: c.QueryParam("flash"),
		Level: c.QueryParam("level"),
		Data:  data,
	}
}
