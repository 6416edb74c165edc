package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/star/exoview/internal/telescope"
)

// csvColumns are the header names mapped onto telescope.Row fields.
var csvColumns = []string{"name", "position", "weight", "symbol"}

// decodeCSVRows reads a CSV table whose first record is a header. Lines
// starting with '#' are comments. Records whose field count differs from the
// header are skipped. Extra columns are ignored and an empty numeric cell
// reads as zero.
func decodeCSVRows(r io.Reader) ([]telescope.Row, error) {
	cr := csv.NewReader(r)
	cr.Comment = '#'
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return []telescope.Row{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading csv header: %w", err)
	}

	index := make(map[string]int, len(header))
	for i, h := range header {
		index[strings.ToLower(strings.TrimSpace(h))] = i
	}
	cols := make([]int, len(csvColumns))
	for i, name := range csvColumns {
		idx, ok := index[name]
		if !ok {
			return nil, fmt.Errorf("csv header missing column %q", name)
		}
		cols[i] = idx
	}

	rows := []telescope.Row{}
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading csv: %w", err)
		}
		if len(rec) != len(header) {
			continue
		}
		line, _ := cr.FieldPos(0)

		position, err := parseCSVFloat(rec[cols[1]])
		if err != nil {
			return nil, fmt.Errorf("line %d: position: %w", line, err)
		}
		weight, err := parseCSVFloat(rec[cols[2]])
		if err != nil {
			return nil, fmt.Errorf("line %d: weight: %w", line, err)
		}
		rows = append(rows, telescope.Row{
			Name:     rec[cols[0]],
			Position: position,
			Weight:   weight,
			Symbol:   rec[cols[3]],
		})
	}
	return rows, nil
}

func parseCSVFloat(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}
	return strconv.ParseFloat(s, 64)
}
