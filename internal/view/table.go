package view

import (
	"context"
	"io"
	"strconv"

	"github.com/a-h/templ"

	"github.com/star/exoview/internal/dataset"
)

// pendingRefreshSeconds is how often the table page reloads while a fetch is outstanding.
const pendingRefreshSeconds = 2

// TablePage renders the telescope selector and the loaded rows.
func TablePage(page Page, st dataset.State) templ.Component {
	if st.Pending {
		page.RefreshSeconds = pendingRefreshSeconds
	}
	loc := page.Loc
	body := templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		hw := &htmlWriter{w: w}
		hw.raw(`<h1>`)
		hw.text(loc.Sprintf("table.title"))
		hw.raw(`</h1><form class="selector" method="post" action="/table"><label for="telescope">`)
		hw.text(loc.Sprintf("table.telescope_label"))
		hw.raw(`</label><select id="telescope" name="telescope">`)
		for _, opt := range st.TelescopeModel {
			hw.raw(`<option value="`)
			hw.text(opt.Name)
			hw.raw(`"`)
			if opt.Name == st.Telescope {
				hw.raw(` selected`)
			}
			hw.raw(`>`)
			hw.text(opt.Name)
			hw.raw(`</option>`)
		}
		hw.raw(`</select><button type="submit">`)
		hw.text(loc.Sprintf("table.submit"))
		hw.raw(`</button><a class="download" href="/table/download.csv">`)
		hw.text(loc.Sprintf("table.download"))
		hw.raw(`</a></form>`)

		switch {
		case st.Pending:
			hw.raw(`<p class="status loading">`)
			hw.text(loc.Sprintf("table.loading", st.LoadedBase))
			hw.raw(`</p>`)
		case len(st.DataSource) == 0:
			hw.raw(`<p class="status empty">`)
			hw.text(loc.Sprintf("table.empty"))
			hw.raw(`</p>`)
		default:
			hw.raw(`<p class="status">`)
			hw.text(loc.Sprintf("table.rows_count", len(st.DataSource), st.LoadedBase))
			hw.raw(`</p><table><thead><tr><th>`)
			hw.text(loc.Sprintf("table.col.position"))
			hw.raw(`</th><th>`)
			hw.text(loc.Sprintf("table.col.name"))
			hw.raw(`</th><th>`)
			hw.text(loc.Sprintf("table.col.weight"))
			hw.raw(`</th><th>`)
			hw.text(loc.Sprintf("table.col.symbol"))
			hw.raw(`</th></tr></thead><tbody>`)
			for _, row := range st.DataSource {
				hw.raw(`<tr><td>`)
				hw.text(strconv.FormatFloat(row.Position, 'f', -1, 64))
				hw.raw(`</td><td>`)
				hw.text(row.Name)
				hw.raw(`</td><td>`)
				hw.text(strconv.FormatFloat(row.Weight, 'f', -1, 64))
				hw.raw(`</td><td>`)
				hw.text(row.Symbol)
				hw.raw(`</td></tr>`)
			}
			hw.raw(`</tbody></table>`)
		}
		return hw.err
	})
	return Layout(page, loc.Sprintf("table.title"), body)
}
