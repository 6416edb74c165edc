package dataset

import (
	"context"
	"embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v2"

	"github.com/star/exoview/internal/telescope"
)

//go:embed fixtures/default.yaml
var fixtureFS embed.FS

// StaticFetcher serves rows from an in-memory fixture keyed by telescope.
type StaticFetcher struct {
	rows map[telescope.Telescope][]telescope.Row
}

// NewStaticFetcher builds a StaticFetcher from rows keyed by telescope name.
func NewStaticFetcher(byName map[string][]telescope.Row) (*StaticFetcher, error) {
	f := &StaticFetcher{rows: make(map[telescope.Telescope][]telescope.Row, len(byName))}
	for name, rows := range byName {
		t, err := telescope.Parse(name)
		if err != nil {
			return nil, fmt.Errorf("fixture: %w", err)
		}
		f.rows[t] = rows
	}
	return f, nil
}

// LoadStaticFetcher reads a YAML fixture file. An empty path loads the
// embedded default fixture.
func LoadStaticFetcher(path string) (*StaticFetcher, error) {
	var (
		data []byte
		err  error
	)
	if path == "" {
		data, err = fixtureFS.ReadFile("fixtures/default.yaml")
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read fixture: %w", err)
	}

	var byName map[string][]telescope.Row
	if err := yaml.Unmarshal(data, &byName); err != nil {
		return nil, fmt.Errorf("failed to parse fixture: %w", err)
	}
	return NewStaticFetcher(byName)
}

// FetchByName returns a copy of the fixture rows for name. A telescope
// without fixture rows yields an empty slice.
func (f *StaticFetcher) FetchByName(ctx context.Context, name string) ([]telescope.Row, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	t, err := telescope.Parse(name)
	if err != nil {
		return nil, err
	}
	src := f.rows[t]
	out := make([]telescope.Row, len(src))
	copy(out, src)
	return out, nil
}
