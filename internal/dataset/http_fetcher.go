package dataset

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"strings"
	"time"

	"github.com/star/exoview/internal/telescope"
)

// maxBodyBytes caps how much of a backend response is read.
const maxBodyBytes = 50 << 20

const dataPath = "/getDataTelescope"

// HTTPFetcher retrieves rows from the dataset backend API.
type HTTPFetcher struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewHTTPFetcher creates an HTTPFetcher for the backend at baseURL.
func NewHTTPFetcher(baseURL string, timeout time.Duration, logger *slog.Logger) *HTTPFetcher {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &HTTPFetcher{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger: logger,
	}
}

type dataRequest struct {
	ID string `json:"id"`
}

type errorBody struct {
	Error string `json:"error"`
}

// FetchByName posts the telescope id to the backend and decodes the row list.
// A text/csv response is read as a table with a header row. Any other
// content type is read as a JSON array of rows.
func (f *HTTPFetcher) FetchByName(ctx context.Context, name string) ([]telescope.Row, error) {
	payload, err := json.Marshal(dataRequest{ID: strings.ToUpper(name)})
	if err != nil {
		return nil, fmt.Errorf("encoding request: %w", err)
	}

	url := f.baseURL + dataPath
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "text/csv, application/json")

	start := time.Now()
	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching %s dataset: %w", name, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes+1))
	if err != nil {
		return nil, fmt.Errorf("reading response body: %w", err)
	}
	if len(body) > maxBodyBytes {
		return nil, fmt.Errorf("response exceeds %d byte limit", maxBodyBytes)
	}

	if resp.StatusCode != http.StatusOK {
		var eb errorBody
		if json.Unmarshal(body, &eb) == nil && eb.Error != "" {
			return nil, fmt.Errorf("unexpected status code %d from %s: %s", resp.StatusCode, url, eb.Error)
		}
		return nil, fmt.Errorf("unexpected status code %d from %s", resp.StatusCode, url)
	}

	rows, err := decodeRows(resp.Header.Get("Content-Type"), body)
	if err != nil {
		return nil, fmt.Errorf("decoding %s rows: %w", name, err)
	}

	f.logger.Debug("dataset fetched",
		"component", "dataset",
		"telescope", name,
		"rows", len(rows),
		"duration_ms", time.Since(start).Milliseconds(),
	)

	return rows, nil
}

func decodeRows(contentType string, body []byte) ([]telescope.Row, error) {
	if mediaType, _, err := mime.ParseMediaType(contentType); err == nil && mediaType == "text/csv" {
		return decodeCSVRows(bytes.NewReader(body))
	}
	var rows []telescope.Row
	if err := json.Unmarshal(body, &rows); err != nil {
		return nil, err
	}
	return rows, nil
}

// Ping checks that the backend answers on its root path.
func (f *HTTPFetcher) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.baseURL+"/", nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	resp, err := f.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("pinging backend: %w", err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, io.LimitReader(resp.Body, 1<<10))

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status code %d from backend", resp.StatusCode)
	}
	return nil
}
