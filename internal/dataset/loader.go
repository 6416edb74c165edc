package dataset

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/star/exoview/internal/metrics"
	"github.com/star/exoview/internal/telescope"
)

// ErrNotImplemented is returned by DownloadCSV until an export format is defined.
var ErrNotImplemented = errors.New("csv download not implemented")

// Result describes the outcome of one submitted fetch.
type Result struct {
	Telescope string
	Rows      []telescope.Row
	Err       error
	// Stale is set when a newer request was issued before this one completed.
	// Stale results never touch the loader state.
	Stale bool
}

// State is a point-in-time copy of the view-facing loader state.
type State struct {
	Telescope      string             `json:"telescope"`
	TelescopeModel []telescope.Option `json:"telescopeModel"`
	DataSource     []telescope.Row    `json:"dataSource"`
	LoadedBase     string             `json:"loadedBase"`
	Pending        bool               `json:"pending"`
	Err            error              `json:"-"`
}

// Loader holds the dataset state of one table view.
// Safe for concurrent use by multiple goroutines.
type Loader struct {
	fetcher Fetcher
	timeout time.Duration
	logger  *slog.Logger

	mu         sync.Mutex
	telescope  string
	loadedBase string
	dataSource []telescope.Row
	seq        uint64 // sequence of the latest issued request
	pending    bool
	err        error
}

// NewLoader creates a Loader with the default telescope selected and no rows.
// A positive timeout bounds each fetch.
func NewLoader(fetcher Fetcher, timeout time.Duration, logger *slog.Logger) *Loader {
	return &Loader{
		fetcher:    fetcher,
		timeout:    timeout,
		logger:     logger,
		telescope:  telescope.Default.String(),
		dataSource: []telescope.Row{},
	}
}

// Select changes the current telescope without fetching.
func (l *Loader) Select(name string) error {
	t, err := telescope.Parse(name)
	if err != nil {
		return err
	}
	l.mu.Lock()
	l.telescope = t.String()
	l.mu.Unlock()
	return nil
}

// Submit fetches rows for the current telescope unless they were already
// requested. The returned channel yields one Result and is then closed; when
// nothing was fetched it is closed without a value.
//
// The request outlives ctx cancellation so a view can be submitted from a
// short-lived HTTP request; only ctx values are inherited.
func (l *Loader) Submit(ctx context.Context) <-chan Result {
	done := make(chan Result, 1)

	l.mu.Lock()
	if l.loadedBase == l.telescope {
		l.mu.Unlock()
		close(done)
		return done
	}
	l.dataSource = []telescope.Row{}
	l.seq++
	seq := l.seq
	name := l.telescope
	l.pending = true
	l.err = nil
	l.loadedBase = name
	l.mu.Unlock()

	fetchCtx := context.WithoutCancel(ctx)
	cancel := context.CancelFunc(func() {})
	if l.timeout > 0 {
		fetchCtx, cancel = context.WithTimeout(fetchCtx, l.timeout)
	}

	go func() {
		defer close(done)
		defer cancel()

		start := time.Now()
		rows, err := l.fetcher.FetchByName(fetchCtx, name)
		metrics.ObserveFetch(name, err, time.Since(start))

		done <- l.complete(seq, name, rows, err)
	}()

	return done
}

func (l *Loader) complete(seq uint64, name string, rows []telescope.Row, err error) Result {
	l.mu.Lock()
	defer l.mu.Unlock()

	res := Result{Telescope: name, Rows: rows, Err: err}

	if seq != l.seq {
		res.Stale = true
		metrics.IncStale()
		l.logger.Debug("discarding stale dataset response",
			"component", "dataset",
			"telescope", name,
			"request_seq", seq,
			"latest_seq", l.seq,
		)
		return res
	}

	l.pending = false
	if err != nil {
		l.err = fmt.Errorf("loading %s dataset: %w", name, err)
		// Allow the same selection to be submitted again.
		if l.loadedBase == name {
			l.loadedBase = ""
		}
		l.logger.Warn("dataset fetch failed",
			"component", "dataset",
			"telescope", name,
			"error", err,
		)
		return res
	}

	if rows == nil {
		rows = []telescope.Row{}
	}
	l.dataSource = rows
	l.logger.Info("dataset loaded",
		"component", "dataset",
		"telescope", name,
		"rows", len(rows),
	)
	return res
}

// Snapshot returns a copy of the current state.
func (l *Loader) Snapshot() State {
	l.mu.Lock()
	defer l.mu.Unlock()

	rows := make([]telescope.Row, len(l.dataSource))
	copy(rows, l.dataSource)

	return State{
		Telescope:      l.telescope,
		TelescopeModel: telescope.Options(),
		DataSource:     rows,
		LoadedBase:     l.loadedBase,
		Pending:        l.pending,
		Err:            l.err,
	}
}

// AckError returns the recorded fetch error, if any, and clears it so the
// view renders normally afterwards.
func (l *Loader) AckError() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	err := l.err
	l.err = nil
	return err
}

// DownloadCSV is reserved for exporting the current rows as a file.
func (l *Loader) DownloadCSV(w io.Writer) error {
	return ErrNotImplemented
}
