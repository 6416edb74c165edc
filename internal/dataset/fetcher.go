// Package dataset loads telescope rows for a table view.
//
// A Loader holds the state of one view: the selected telescope, the telescope
// whose rows were last requested, and the rows themselves. Rows come from a
// Fetcher, which is either the HTTP backend client or a static fixture.
package dataset

import (
	"context"

	"github.com/star/exoview/internal/telescope"
)

// Fetcher retrieves the rows of one telescope dataset.
type Fetcher interface {
	FetchByName(ctx context.Context, name string) ([]telescope.Row, error)
}

// FetcherFunc adapts a function to the Fetcher interface.
type FetcherFunc func(ctx context.Context, name string) ([]telescope.Row, error)

// FetchByName calls f(ctx, name).
func (f FetcherFunc) FetchByName(ctx context.Context, name string) ([]telescope.Row, error) {
	return f(ctx, name)
}
