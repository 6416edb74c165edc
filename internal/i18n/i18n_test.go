package i18n

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/language"
)

var testLogger = slog.New(slog.NewJSONHandler(io.Discard, nil))

func newTestService(t *testing.T, defaultLang string) *Service {
	t.Helper()
	bundle, err := LoadEmbedded()
	require.NoError(t, err)
	return NewService(bundle, defaultLang, testLogger)
}

func TestLoadEmbedded(t *testing.T) {
	bundle, err := LoadEmbedded()
	require.NoError(t, err)

	tags := bundle.Tags()
	require.Len(t, tags, 2)
	assert.Equal(t, "en-US", tags[0].String())
	assert.Equal(t, "pt-BR", tags[1].String())

	msg, ok := bundle.Message("pt-BR", "error.title")
	assert.True(t, ok)
	assert.Equal(t, "Erro no servidor", msg)
}

func TestLoadFromFSValidation(t *testing.T) {
	tests := []struct {
		name  string
		files fstest.MapFS
	}{
		{
			name:  "no files",
			files: fstest.MapFS{},
		},
		{
			name: "missing base locale",
			files: fstest.MapFS{
				"locales/pt-BR.yaml": {Data: []byte("locale: pt-BR\nmessages:\n  a: b\n")},
			},
		},
		{
			name: "locale mismatch",
			files: fstest.MapFS{
				"locales/en-US.yaml": {Data: []byte("locale: pt-BR\nmessages:\n  a: b\n")},
			},
		},
		{
			name: "key not in base",
			files: fstest.MapFS{
				"locales/en-US.yaml": {Data: []byte("locale: en-US\nmessages:\n  a: b\n")},
				"locales/pt-BR.yaml": {Data: []byte("locale: pt-BR\nmessages:\n  c: d\n")},
			},
		},
		{
			name: "empty messages",
			files: fstest.MapFS{
				"locales/en-US.yaml": {Data: []byte("locale: en-US\n")},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadFromFS(tt.files)
			assert.Error(t, err)
		})
	}
}

func TestResolvePrecedence(t *testing.T) {
	s := newTestService(t, "en-US")

	tests := []struct {
		name        string
		url         string
		cookie      string
		accept      string
		want        language.Tag
		wantPersist bool
	}{
		{name: "default", url: "/error", want: language.AmericanEnglish},
		{name: "query param", url: "/error?lang=pt-BR", cookie: "en-US", want: language.BrazilianPortuguese, wantPersist: true},
		{name: "cookie beats header", url: "/error", cookie: "pt-BR", accept: "en-US", want: language.BrazilianPortuguese},
		{name: "accept-language", url: "/error", accept: "pt;q=0.9, fr;q=0.8", want: language.BrazilianPortuguese},
		{name: "unsupported param ignored", url: "/error?lang=fr", want: language.AmericanEnglish},
		{name: "unsupported header falls back", url: "/error", accept: "ja", want: language.AmericanEnglish},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", tt.url, nil)
			if tt.cookie != "" {
				req.AddCookie(&http.Cookie{Name: LangCookieName, Value: tt.cookie})
			}
			if tt.accept != "" {
				req.Header.Set("Accept-Language", tt.accept)
			}
			tag, persist := s.Resolve(req)
			assert.Equal(t, tt.want, tag)
			assert.Equal(t, tt.wantPersist, persist)
		})
	}
}

func TestSetInitialLanguagePersistsQueryChoice(t *testing.T) {
	s := newTestService(t, "")

	w := httptest.NewRecorder()
	tag := s.SetInitialLanguage(w, httptest.NewRequest("GET", "/error?lang=pt-BR", nil))
	assert.Equal(t, language.BrazilianPortuguese, tag)

	cookies := w.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, LangCookieName, cookies[0].Name)
	assert.Equal(t, "pt-BR", cookies[0].Value)

	w = httptest.NewRecorder()
	s.SetInitialLanguage(w, httptest.NewRequest("GET", "/error", nil))
	assert.Empty(t, w.Result().Cookies())
}

func TestDefaultLanguage(t *testing.T) {
	assert.Equal(t, language.BrazilianPortuguese, newTestService(t, "pt-BR").Default())
	assert.Equal(t, language.AmericanEnglish, newTestService(t, "xx-invalid").Default())
}

func TestPrinterTranslates(t *testing.T) {
	s := newTestService(t, "")

	assert.Equal(t, "Server error", s.Printer(language.AmericanEnglish).Sprintf("error.title"))
	assert.Equal(t, "Erro no servidor", s.Printer(language.BrazilianPortuguese).Sprintf("error.title"))
	assert.Equal(t, "3 linhas do K2", s.Printer(language.BrazilianPortuguese).Sprintf("table.rows_count", 3, "K2"))
}

func TestOptions(t *testing.T) {
	s := newTestService(t, "")
	opts := s.Options(language.BrazilianPortuguese)
	require.Len(t, opts, 2)
	assert.Equal(t, "English", opts[0].Label)
	assert.False(t, opts[0].Active)
	assert.Equal(t, "Português", opts[1].Label)
	assert.True(t, opts[1].Active)
}
