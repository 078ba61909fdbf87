// internal/api/handler/web/handler.go
package web

import (
	"bytes"
	"context"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"io/fs"
	"math"
	"net/http"
	"net/url"
	"os"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/newthinker/swingdesk/internal/analysis"
	"github.com/newthinker/swingdesk/internal/core"
	"github.com/newthinker/swingdesk/internal/projection"
	"github.com/newthinker/swingdesk/internal/storage/signal"
	"github.com/newthinker/swingdesk/internal/watchlist"
	"go.uber.org/zap"
)

//go:embed templates/*
var templateFS embed.FS

// pages lists every page template; each is parsed together with layout.html.
var pages = []string{
	"dashboard.html",
	"symbol.html",
	"dividends.html",
	"portfolio.html",
	"projection.html",
	"top25.html",
	"signals.html",
	"education.html",
	"legal.html",
}

// App is the part of app.App the pages need.
type App interface {
	RefreshSwing(ctx context.Context) ([]analysis.Snapshot, error)
	Detail(ctx context.Context, ticker string) (*analysis.Detail, error)
	Screen(ctx context.Context) []analysis.Snapshot
	RefreshDividends(ctx context.Context) ([]watchlist.DividendEntry, error)
	Holdings() []watchlist.Holding
	Project(ctx context.Context, ticker string, years int) (*projection.Result, error)
	Add(ctx context.Context, kind watchlist.Kind, raw string) (any, error)
	Remove(ctx context.Context, kind watchlist.Kind, raw string) error
	DefaultHolding(ticker string) watchlist.Holding
	AddHolding(ctx context.Context, h watchlist.Holding) error
}

// Page is the data every template receives. Body holds the page-specific part.
type Page struct {
	Title  string
	Active string
	Notice string
	Error  string
	Body   any
}

// Handler provides web UI handlers with template rendering
type Handler struct {
	// pageTemplates holds separate template instances for each page
	// Each instance contains layout.html + the specific page template
	pageTemplates map[string]*template.Template
	app           App
	signals       signal.Store
	logger        *zap.Logger
}

// NewHandler creates a new web handler with templates loaded from the given
// directory. If templatesDir is empty, it falls back to embedded templates.
func NewHandler(templatesDir string, app App, signals signal.Store, logger *zap.Logger) (*Handler, error) {
	fsys := TemplateFS()
	if templatesDir != "" {
		fsys = os.DirFS(templatesDir)
	}
	return NewHandlerWithFS(fsys, app, signals, logger)
}

// NewHandlerWithFS creates a new web handler using a custom filesystem.
func NewHandlerWithFS(fsys fs.FS, app App, signals signal.Store, logger *zap.Logger) (*Handler, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	pageTemplates := make(map[string]*template.Template, len(pages))
	for _, page := range pages {
		tmpl, err := template.New("layout.html").Funcs(funcs).ParseFS(fsys, "layout.html", page)
		if err != nil {
			return nil, fmt.Errorf("parsing template %s: %w", page, err)
		}
		pageTemplates[page] = tmpl
	}

	return &Handler{
		pageTemplates: pageTemplates,
		app:           app,
		signals:       signals,
		logger:        logger,
	}, nil
}

type navItem struct {
	Key, Label, Path string
}

var nav = []navItem{
	{"swing", "Swing Trading", "/"},
	{"top25", "Top 25 Stocks", "/top25"},
	{"dividends", "Dividend Tracker", "/dividends"},
	{"portfolio", "Long-Term Investments", "/portfolio"},
	{"signals", "Signals", "/signals"},
	{"education", "Education Hub", "/education"},
	{"legal", "Legal", "/legal"},
}

var funcs = template.FuncMap{
	"navItems":  func() []navItem { return nav },
	"label":     func(a core.Action) string { return a.Label() },
	"tone":      tone,
	"number":    number,
	"percent":   func(v float64) string { return humanize.FormatFloat("#,###.##", v*100) + "%" },
	"volume":    analysis.FormatVolume,
	"marketCap": analysis.FormatMarketCap,
	"date":      dateText,
}

// tone maps an action onto a CSS colour class.
func tone(a core.Action) string {
	switch a {
	case core.ActionStrongBuy, core.ActionBuy:
		return "text-green-600"
	case core.ActionSell, core.ActionStrongSell:
		return "text-red-600"
	case core.ActionStrongHold, core.ActionHold:
		return "text-amber-600"
	}
	return "text-gray-400"
}

func number(v float64) string {
	if math.IsNaN(v) {
		return analysis.NA
	}
	return humanize.FormatFloat("#,###.##", v)
}

func dateText(t time.Time) string {
	if t.IsZero() {
		return analysis.NA
	}
	return t.UTC().Format(time.DateOnly)
}

// render executes the specified page template with the given data
func (h *Handler) render(w http.ResponseWriter, r *http.Request, page string, data Page) {
	h.renderStatus(w, r, http.StatusOK, page, data)
}

func (h *Handler) renderStatus(w http.ResponseWriter, r *http.Request, status int, page string, data Page) {
	tmpl, ok := h.pageTemplates[page]
	if !ok {
		http.Error(w, "template not found: "+page, http.StatusInternalServerError)
		return
	}

	q := r.URL.Query()
	if data.Notice == "" {
		data.Notice = q.Get("notice")
	}
	if data.Error == "" {
		data.Error = q.Get("error")
	}

	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, "layout.html", data); err != nil {
		h.logger.Error("render failed", zap.String("page", page), zap.Error(err))
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	buf.WriteTo(w)
}

// redirect sends the browser back to path with a flash message.
func redirect(w http.ResponseWriter, r *http.Request, path string, err error, notice string) {
	q := url.Values{}
	if err != nil {
		q.Set("error", message(err))
	} else if notice != "" {
		q.Set("notice", notice)
	}
	if len(q) > 0 {
		path += "?" + q.Encode()
	}
	http.Redirect(w, r, path, http.StatusSeeOther)
}

// message renders an error for people: the coded message plus its cause.
func message(err error) string {
	var ce *core.Error
	if errors.As(err, &ce) {
		if ce.Cause != nil {
			return ce.Message + ": " + ce.Cause.Error()
		}
		return ce.Message
	}
	return err.Error()
}

// TemplateFS returns the embedded template filesystem for external use.
func TemplateFS() fs.FS {
	subFS, err := fs.Sub(templateFS, "templates")
	if err != nil {
		// This should never happen with valid embed directive
		return templateFS
	}
	return subFS
}
