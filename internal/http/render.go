package http

import (
	"bytes"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"path"
	"strings"

	"orca/internal/core"
	"orca/internal/log"
)

// Page names; each matches templates/pages/<name>.html.
const (
	pageDashboard  = "dashboard"
	pageAccounts   = "accounts"
	pageCategories = "categories"
	pageEnvelopes  = "envelopes"
	pageGoals      = "goals"
	pageBudgets    = "budgets"
)

// renderer holds the partial set plus one clone of it per page.
type renderer struct {
	partials *template.Template
	pages    map[string]*template.Template
}

var templateFuncs = template.FuncMap{
	"brl":     func(m core.Money) string { return m.String() },
	"percent": func(p float64) string { return fmt.Sprintf("%.0f%%", p) },
	"width": func(p float64) string {
		if p > 100 {
			p = 100
		}
		if p < 0 {
			p = 0
		}
		return fmt.Sprintf("%.0f%%", p)
	},
	"money":         func(m core.Money) string { return m.Decimal().StringFixed(2) },
	"levelLabel":    func(l core.HealthLevel) string { return l.Label() },
	"accountTypes":  core.AccountTypes,
	"categoryTypes": core.CategoryTypes,
	"categoryKinds": func() []core.CategoryKind {
		return []core.CategoryKind{core.KindFixed, core.KindVariable, core.KindSavings}
	},
	"date": func(d *core.Date) string {
		if d == nil {
			return ""
		}
		return d.String()
	},
}

func newRenderer(templates fs.FS) (*renderer, error) {
	partials, err := template.New("").Funcs(templateFuncs).ParseFS(templates, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}
	files, err := fs.Glob(templates, "templates/pages/*.html")
	if err != nil {
		return nil, fmt.Errorf("list pages: %w", err)
	}
	r := &renderer{partials: partials, pages: make(map[string]*template.Template, len(files))}
	for _, file := range files {
		page, err := partials.Clone()
		if err != nil {
			return nil, fmt.Errorf("clone templates for %s: %w", file, err)
		}
		if _, err := page.ParseFS(templates, file); err != nil {
			return nil, fmt.Errorf("parse page %s: %w", file, err)
		}
		r.pages[strings.TrimSuffix(path.Base(file), ".html")] = page
	}
	return r, nil
}

// page renders a full document through the layout template.
func (r *renderer) page(name string, data any) ([]byte, error) {
	t, ok := r.pages[name]
	if !ok {
		return nil, fmt.Errorf("unknown page %q", name)
	}
	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, "layout", data); err != nil {
		return nil, fmt.Errorf("render page %s: %w", name, err)
	}
	return buf.Bytes(), nil
}

// partial renders one named fragment.
func (r *renderer) partial(name string, data any) ([]byte, error) {
	var buf bytes.Buffer
	if err := r.partials.ExecuteTemplate(&buf, name, data); err != nil {
		return nil, fmt.Errorf("render partial %s: %w", name, err)
	}
	return buf.Bytes(), nil
}

// pageData is what the layout needs on every page.
type pageData struct {
	Title    string
	Active   string
	Budgets  []core.Budget
	BudgetID string
	Content  any
}

func (s *Server) renderPage(w http.ResponseWriter, r *http.Request, name, title string, content any) {
	ws := s.workspace(r)
	data := pageData{
		Title:    title,
		Active:   name,
		Budgets:  ws.Budgets.Data(),
		BudgetID: ws.BudgetID(),
		Content:  content,
	}
	body, err := s.templates.page(name, data)
	if err != nil {
		s.renderFailed(w, r, err)
		return
	}
	NewHTMXResponse().BodyHTML(body).Write(w)
}

// renderPartial writes a fragment, letting the builder add triggers.
func (s *Server) renderPartial(w http.ResponseWriter, r *http.Request, name string, data any, b *HTMXResponseBuilder) {
	body, err := s.templates.partial(name, data)
	if err != nil {
		s.renderFailed(w, r, err)
		return
	}
	if b == nil {
		b = NewHTMXResponse()
	}
	b.BodyHTML(body).Write(w)
}

func (s *Server) renderFailed(w http.ResponseWriter, r *http.Request, err error) {
	s.events.LogError(r.Context(), "Template rendering failed", err, log.ComponentTemplate, log.OpRender, nil)
	InternalServerError("Erro ao montar a página.").Write(w)
}
