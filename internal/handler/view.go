package handler

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/school-portal/internal/middleware"
	"github.com/iliyamo/school-portal/internal/session"
)

// DataSource fetches the JSON behind a view.
type DataSource interface {
	Fetch(ctx context.Context, token, path string) (any, error)
}

// View is a read-only page bound to one backend resource.  Source may carry
// route parameters (":id") that are filled from the request path.  An empty
// Source renders the page without data.
type View struct {
	Name   string
	Title  string
	Source string
}

// Table is the generic rendering of a JSON payload.
type Table struct {
	Columns []string
	Rows    [][]string
}

// ViewHandler fetches and renders views for the current request's role.
type ViewHandler struct {
	Data  DataSource
	Store session.Store
	// Nav returns the navigation links for the request's role.
	Nav func(c echo.Context) []NavLink
}

// Serve returns the handler for v.  A failed data call is shown inline and
// keeps the page; it never redirects.
func (h *ViewHandler) Serve(v View) echo.HandlerFunc {
	return func(c echo.Context) error {
		p := page{Title: v.Title, Role: middleware.CurrentRole(c).String()}
		if h.Nav != nil {
			p.Nav = h.Nav(c)
		}
		if v.Source != "" {
			data, err := h.Data.Fetch(c.Request().Context(), h.Store.Token(c), expandSource(v.Source, c))
			if err != nil {
				if c.Request().Context().Err() != nil {
					return nil
				}
				c.Logger().Warnf("view %s: %v", v.Name, err)
				p.Error = "Não foi possível carregar os dados."
			} else {
				p.Table = tabulate(data)
			}
		}
		return c.Render(http.StatusOK, "view", p)
	}
}

// NotFound renders the 404 page.
func NotFound(c echo.Context) error {
	return c.Render(http.StatusNotFound, "notfound", page{Title: "Página não encontrada"})
}

// Blank answers while the role is still unresolved: no route content at all.
func Blank(c echo.Context) error {
	return c.NoContent(http.StatusNoContent)
}

// expandSource substitutes :name segments with the escaped route params.
func expandSource(src string, c echo.Context) string {
	for _, name := range c.ParamNames() {
		src = strings.ReplaceAll(src, ":"+name, url.PathEscape(c.Param(name)))
	}
	return src
}

// tabulate flattens a decoded JSON value into a table.  Arrays of objects
// become one row per element with the union of keys as columns; a single
// object becomes one row; scalars become a one-cell table.  Objects that
// wrap a single array (e.g. {"items": [...]}) are unwrapped first.
func tabulate(v any) *Table {
	if m, ok := v.(map[string]any); ok && len(m) == 1 {
		for _, inner := range m {
			if arr, ok := inner.([]any); ok {
				v = arr
			}
		}
	}
	switch t := v.(type) {
	case nil:
		return nil
	case []any:
		if len(t) == 0 {
			return nil
		}
		return tabulateRows(t)
	case map[string]any:
		return tabulateRows([]any{t})
	default:
		return &Table{Columns: []string{"valor"}, Rows: [][]string{{cell(t)}}}
	}
}

func tabulateRows(items []any) *Table {
	seen := map[string]bool{}
	var cols []string
	for _, it := range items {
		if m, ok := it.(map[string]any); ok {
			for k := range m {
				if !seen[k] {
					seen[k] = true
					cols = append(cols, k)
				}
			}
		}
	}
	sort.Strings(cols)
	if len(cols) == 0 {
		cols = []string{"valor"}
	}
	rows := make([][]string, 0, len(items))
	for _, it := range items {
		row := make([]string, len(cols))
		if m, ok := it.(map[string]any); ok {
			for i, k := range cols {
				row[i] = cell(m[k])
			}
		} else {
			row[0] = cell(it)
		}
		rows = append(rows, row)
	}
	return &Table{Columns: cols, Rows: rows}
}

func cell(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case float64:
		return strings.TrimSuffix(strings.TrimRight(fmt.Sprintf("%.2f", t), "0"), ".")
	case bool:
		if t {
			return "sim"
		}
		return "não"
	default:
		return fmt.Sprint(t)
	}
}
