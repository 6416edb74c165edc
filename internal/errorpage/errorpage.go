// Package errorpage serves the generic server error page. Every activation of
// the page first establishes the display language, then renders in it.
package errorpage

import (
	"log/slog"
	"net/http"

	"github.com/a-h/templ"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/star/exoview/internal/i18n"
	"github.com/star/exoview/internal/view"
)

// Localizer is the language service the page depends on.
type Localizer interface {
	SetInitialLanguage(w http.ResponseWriter, r *http.Request) language.Tag
	Printer(tag language.Tag) *message.Printer
	Options(active language.Tag) []i18n.LanguageOption
}

// Handler renders the server error page.
type Handler struct {
	loc    Localizer
	logger *slog.Logger
}

// New creates a Handler.
func New(loc Localizer, logger *slog.Logger) *Handler {
	return &Handler{loc: loc, logger: logger}
}

// ServeHTTP serves the page when it is navigated to directly.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.Render(w, r, http.StatusOK)
}

// Render activates the page with the given status code.
func (h *Handler) Render(w http.ResponseWriter, r *http.Request, status int) {
	tag := h.loc.SetInitialLanguage(w, r)
	page := view.Page{
		Lang:        tag.String(),
		Loc:         h.loc.Printer(tag),
		CurrentPath: r.URL.Path,
		Languages:   h.loc.Options(tag),
	}
	templ.Handler(view.ErrorPage(page),
		templ.WithStatus(status),
		templ.WithErrorHandler(func(r *http.Request, err error) http.Handler {
			h.logger.Error("rendering error page failed", "component", "errorpage", "error", err)
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				http.Error(w, http.StatusText(status), status)
			})
		}),
	).ServeHTTP(w, r)
}

// Recover returns middleware that turns a handler panic into the error page.
func (h *Handler) Recover(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if v := recover(); v != nil {
				if v == http.ErrAbortHandler {
					panic(v)
				}
				h.logger.Error("handler panic",
					"component", "errorpage",
					"method", r.Method,
					"path", r.URL.Path,
					"panic", v,
				)
				h.Render(w, r, http.StatusInternalServerError)
			}
		}()
		next.ServeHTTP(w, r)
	})
}
