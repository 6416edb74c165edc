package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"testing/fstest"
	"time"

	"github.com/star/exoview/internal/dataset"
	"github.com/star/exoview/internal/errorpage"
	"github.com/star/exoview/internal/i18n"
	"github.com/star/exoview/internal/session"
	"github.com/star/exoview/internal/telescope"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelWarn}))
}

// newTestServer returns the full middleware chain with views backed by fetcher.
func newTestServer(t *testing.T, fetcher dataset.Fetcher) http.Handler {
	t.Helper()
	logger := testLogger()

	bundle, err := i18n.LoadEmbedded()
	if err != nil {
		t.Fatal(err)
	}
	lang := i18n.NewService(bundle, "en-US", logger)
	sessions := session.NewStore(time.Minute, 0, func() *dataset.Loader {
		return dataset.NewLoader(fetcher, time.Second, logger)
	}, logger)

	srv := NewServer(":0", logger, Deps{
		Sessions:  sessions,
		Lang:      lang,
		ErrorPage: errorpage.New(lang, logger),
		Static:    fstest.MapFS{"styles.css": {Data: []byte("body{}")}},
	})
	return srv.HTTPServer().Handler
}

// client replays response cookies on later requests, like a browser.
type client struct {
	t       *testing.T
	handler http.Handler
	cookies []*http.Cookie
}

func (c *client) do(method, target string, body io.Reader, contentType string) *httptest.ResponseRecorder {
	c.t.Helper()
	req := httptest.NewRequest(method, target, body)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	for _, ck := range c.cookies {
		req.AddCookie(ck)
	}
	w := httptest.NewRecorder()
	c.handler.ServeHTTP(w, req)
	for _, ck := range w.Result().Cookies() {
		c.setCookie(ck)
	}
	return w
}

func (c *client) setCookie(ck *http.Cookie) {
	for i, existing := range c.cookies {
		if existing.Name == ck.Name {
			c.cookies[i] = ck
			return
		}
	}
	c.cookies = append(c.cookies, ck)
}

func (c *client) state() tableResponse {
	c.t.Helper()
	w := c.do("GET", "/api/v1/table", nil, "")
	if w.Code != http.StatusOK {
		c.t.Fatalf("GET /api/v1/table status = %d", w.Code)
	}
	var resp tableResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		c.t.Fatalf("decode state: %v", err)
	}
	return resp
}

func (c *client) waitLoaded() tableResponse {
	c.t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if st := c.state(); !st.Pending {
			return st
		}
		time.Sleep(5 * time.Millisecond)
	}
	c.t.Fatal("table stayed pending")
	return tableResponse{}
}

func staticFetcher(t *testing.T) dataset.Fetcher {
	t.Helper()
	f, err := dataset.NewStaticFetcher(map[string][]telescope.Row{
		"TESS": {{Name: "Halpha", Position: 1, Weight: 2, Symbol: "H"}},
		"K2":   {{Name: "K2-18 b", Position: 1, Weight: 32.94, Symbol: "CP"}},
	})
	if err != nil {
		t.Fatal(err)
	}
	return f
}

func TestTableFormFlow(t *testing.T) {
	c := &client{t: t, handler: newTestServer(t, staticFetcher(t))}

	w := c.do("GET", "/table", nil, "")
	if w.Code != http.StatusOK {
		t.Fatalf("GET /table status = %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), `<option value="TESS" selected>`) {
		t.Error("default telescope not selected")
	}

	form := url.Values{"telescope": {"K2"}}.Encode()
	w = c.do("POST", "/table", strings.NewReader(form), "application/x-www-form-urlencoded")
	if w.Code != http.StatusSeeOther || w.Header().Get("Location") != "/table" {
		t.Fatalf("POST /table = %d %q, want 303 to /table", w.Code, w.Header().Get("Location"))
	}

	st := c.waitLoaded()
	if st.Telescope != "K2" || st.LoadedBase != "K2" {
		t.Errorf("state = %+v", st)
	}
	if len(st.DataSource) != 1 || st.DataSource[0].Name != "K2-18 b" {
		t.Errorf("dataSource = %+v", st.DataSource)
	}

	w = c.do("GET", "/table", nil, "")
	if !strings.Contains(w.Body.String(), "K2-18 b") {
		t.Error("table page does not show loaded rows")
	}
}

func TestTableFormUnknownTelescope(t *testing.T) {
	c := &client{t: t, handler: newTestServer(t, staticFetcher(t))}

	form := url.Values{"telescope": {"HUBBLE"}}.Encode()
	w := c.do("POST", "/table", strings.NewReader(form), "application/x-www-form-urlencoded")
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
	if !strings.Contains(w.Body.String(), "Unknown telescope selection.") {
		t.Errorf("body = %q", w.Body.String())
	}
}

func TestJSONSubmit(t *testing.T) {
	c := &client{t: t, handler: newTestServer(t, staticFetcher(t))}

	w := c.do("POST", "/api/v1/table", strings.NewReader(`{"telescope":"tess"}`), "application/json")
	if w.Code != http.StatusAccepted {
		t.Fatalf("status = %d, want 202", w.Code)
	}

	st := c.waitLoaded()
	if st.LoadedBase != "TESS" || len(st.DataSource) != 1 || st.DataSource[0].Symbol != "H" {
		t.Errorf("state = %+v", st)
	}
	if len(st.TelescopeModel) != 3 {
		t.Errorf("telescopeModel = %+v", st.TelescopeModel)
	}

	tests := []struct {
		name string
		body string
	}{
		{"malformed", `{`},
		{"unknown telescope", `{"telescope":"HUBBLE"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := c.do("POST", "/api/v1/table", strings.NewReader(tt.body), "application/json")
			if w.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want 400", w.Code)
			}
		})
	}
}

func TestFetchFailureRendersErrorPageOnce(t *testing.T) {
	failing := dataset.FetcherFunc(func(ctx context.Context, name string) ([]telescope.Row, error) {
		return nil, errors.New("backend down")
	})
	c := &client{t: t, handler: newTestServer(t, failing)}

	c.do("POST", "/api/v1/table", strings.NewReader(`{"telescope":"K2"}`), "application/json")
	st := c.waitLoaded()
	if !strings.Contains(st.Error, "backend down") {
		t.Errorf("state error = %q", st.Error)
	}
	if st.LoadedBase != "" {
		t.Errorf("loadedBase = %q, want empty after failure", st.LoadedBase)
	}

	w := c.do("GET", "/table?lang=pt-BR", nil, "")
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", w.Code)
	}
	if !strings.Contains(w.Body.String(), "Erro no servidor") {
		t.Error("error page not localized")
	}

	w = c.do("GET", "/table", nil, "")
	if w.Code != http.StatusOK {
		t.Errorf("status after acknowledged error = %d, want 200", w.Code)
	}
}

func TestDownloadCSVNotImplemented(t *testing.T) {
	c := &client{t: t, handler: newTestServer(t, staticFetcher(t))}

	w := c.do("GET", "/table/download.csv", nil, "")
	if w.Code != http.StatusNotImplemented {
		t.Errorf("status = %d, want 501", w.Code)
	}
}

func TestStaticRoutes(t *testing.T) {
	c := &client{t: t, handler: newTestServer(t, staticFetcher(t))}

	tests := []struct {
		path       string
		wantStatus int
		wantBody   string
	}{
		{"/", http.StatusFound, ""},
		{"/healthz", http.StatusOK, "ok"},
		{"/readyz", http.StatusOK, "ready"},
		{"/error", http.StatusOK, "Server error"},
		{"/static/styles.css", http.StatusOK, "body{}"},
		{"/nope", http.StatusNotFound, ""},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			w := c.do("GET", tt.path, nil, "")
			if w.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", w.Code, tt.wantStatus)
			}
			if !strings.Contains(w.Body.String(), tt.wantBody) {
				t.Errorf("body = %q, want it to contain %q", w.Body.String(), tt.wantBody)
			}
		})
	}
}

func TestReadOnlyRoutesDoNotCreateSessions(t *testing.T) {
	handler := newTestServer(t, staticFetcher(t))

	for _, path := range []string{"/api/v1/table", "/table/download.csv"} {
		t.Run(path, func(t *testing.T) {
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, httptest.NewRequest("GET", path, nil))
			for _, ck := range w.Result().Cookies() {
				if ck.Name == session.CookieName {
					t.Errorf("%s issued a session cookie", path)
				}
			}
		})
	}

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest("GET", "/api/v1/table", nil))
	var resp tableResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("decode state: %v", err)
	}
	if resp.Telescope != "TESS" || resp.LoadedBase != "" || len(resp.DataSource) != 0 {
		t.Errorf("cookieless state = %+v, want default view", resp)
	}
}
