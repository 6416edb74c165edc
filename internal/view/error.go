package view

import (
	"context"
	"io"

	"github.com/a-h/templ"
)

// ErrorPage renders the generic server error page.
func ErrorPage(page Page) templ.Component {
	loc := page.Loc
	body := templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		hw := &htmlWriter{w: w}
		hw.raw(`<section class="server-error"><h1>`)
		hw.text(loc.Sprintf("error.title"))
		hw.raw(`</h1><p>`)
		hw.text(loc.Sprintf("error.message"))
		hw.raw(`</p><a href="/table">`)
		hw.text(loc.Sprintf("error.back"))
		hw.raw(`</a></section>`)
		return hw.err
	})
	return Layout(page, loc.Sprintf("error.title"), body)
}
