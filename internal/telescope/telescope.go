// Package telescope defines the selectable dataset sources and the row type
// returned for each of them.
package telescope

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownTelescope is returned when a name is not one of the known telescopes.
var ErrUnknownTelescope = errors.New("unknown telescope")

// Telescope identifies a dataset partition on the backend.
type Telescope int

const (
	TESS Telescope = iota + 1
	K2
	Kepler
)

// Default is the selection a new table view starts with.
const Default = TESS

var names = map[Telescope]string{
	TESS:   "TESS",
	K2:     "K2",
	Kepler: "KEPLER",
}

// ordered lists telescopes in dropdown order.
var ordered = []Telescope{TESS, K2, Kepler}

func (t Telescope) String() string {
	if n, ok := names[t]; ok {
		return n
	}
	return "unknown"
}

// Valid reports whether t is one of the known telescopes.
func (t Telescope) Valid() bool {
	_, ok := names[t]
	return ok
}

// Option is one entry of the telescope dropdown.
type Option struct {
	Value int    `json:"value"`
	Name  string `json:"name"`
}

// Options returns the dropdown model in display order.
func Options() []Option {
	out := make([]Option, 0, len(ordered))
	for _, t := range ordered {
		out = append(out, Option{Value: int(t), Name: t.String()})
	}
	return out
}

// Parse resolves a telescope name. Matching ignores case and surrounding space.
func Parse(name string) (Telescope, error) {
	upper := strings.ToUpper(strings.TrimSpace(name))
	for _, t := range ordered {
		if names[t] == upper {
			return t, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownTelescope, name)
}

// Row is one record of a telescope dataset.
type Row struct {
	Name     string  `json:"name" yaml:"name"`
	Position float64 `json:"position" yaml:"position"`
	Weight   float64 `json:"weight" yaml:"weight"`
	Symbol   string  `json:"symbol" yaml:"symbol"`
}
