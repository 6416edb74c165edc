// Package view renders the HTML pages of the table UI.
package view

import (
	"context"
	"io"
	"net/url"
	"strconv"
	"strings"

	"github.com/a-h/templ"
	"golang.org/x/text/message"

	"github.com/star/exoview/internal/i18n"
)

// Page carries the values shared by every page layout.
type Page struct {
	Lang        string
	Loc         *message.Printer
	CurrentPath string
	Languages   []i18n.LanguageOption
	// RefreshSeconds adds a meta refresh when positive.
	RefreshSeconds int
}

type htmlWriter struct {
	w   io.Writer
	err error
}

func (hw *htmlWriter) raw(parts ...string) {
	for _, p := range parts {
		if hw.err != nil {
			return
		}
		_, hw.err = io.WriteString(hw.w, p)
	}
}

func (hw *htmlWriter) text(s string) {
	hw.raw(templ.EscapeString(s))
}

// Layout wraps body in the shared document shell.
func Layout(page Page, title string, body templ.Component) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		hw := &htmlWriter{w: w}
		hw.raw(`<!DOCTYPE html><html lang="`)
		hw.text(page.Lang)
		hw.raw(`"><head><meta charset="utf-8"><meta name="viewport" content="width=device-width, initial-scale=1">`)
		if page.RefreshSeconds > 0 {
			hw.raw(`<meta http-equiv="refresh" content="`, strconv.Itoa(page.RefreshSeconds), `">`)
		}
		hw.raw(`<title>`)
		hw.text(title)
		hw.raw(` · `)
		hw.text(page.Loc.Sprintf("app.title"))
		hw.raw(`</title><link rel="stylesheet" href="/static/styles.css"></head><body><header><span class="brand">`)
		hw.text(page.Loc.Sprintf("app.title"))
		hw.raw(`</span><nav class="languages">`)
		for _, opt := range page.Languages {
			cls := "lang"
			if opt.Active {
				cls += " active"
			}
			hw.raw(`<a class="`, cls, `" href="`)
			hw.text(languageURL(page.CurrentPath, opt.Tag))
			hw.raw(`">`)
			hw.text(opt.Label)
			hw.raw(`</a>`)
		}
		hw.raw(`</nav></header><main>`)
		if hw.err != nil {
			return hw.err
		}
		if err := body.Render(ctx, w); err != nil {
			return err
		}
		hw.raw(`</main></body></html>`)
		return hw.err
	})
}

func languageURL(path, tag string) string {
	path = strings.TrimSpace(path)
	if path == "" {
		path = "/"
	}
	q := url.Values{}
	q.Set(i18n.LangParam, tag)
	return (&url.URL{Path: path, RawQuery: q.Encode()}).String()
}
