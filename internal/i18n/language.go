package i18n

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

const (
	// LangParam is the query parameter used to select a language.
	LangParam = "lang"
	// LangCookieName stores the user's language preference.
	LangCookieName = "exoview_lang"
)

// LanguageOption is one entry of the language switcher.
type LanguageOption struct {
	Tag    string
	Label  string
	Active bool
}

// Service resolves and persists the display language of a browser.
type Service struct {
	bundle    *Bundle
	supported []language.Tag
	matcher   language.Matcher
	fallback  language.Tag
	logger    *slog.Logger
}

// NewService creates a Service. defaultLang is used when a request expresses
// no supported preference; an unsupported value falls back to the base locale.
func NewService(bundle *Bundle, defaultLang string, logger *slog.Logger) *Service {
	supported := bundle.Tags()
	s := &Service{
		bundle:    bundle,
		supported: supported,
		matcher:   language.NewMatcher(supported),
		fallback:  supported[0],
		logger:    logger,
	}
	if tag, ok := s.parseTag(defaultLang); ok {
		s.fallback = tag
	} else if strings.TrimSpace(defaultLang) != "" {
		logger.Warn("unsupported default language, using base locale",
			"component", "i18n",
			"value", defaultLang,
			"default", s.fallback.String(),
		)
	}
	return s
}

// Default returns the fallback language.
func (s *Service) Default() language.Tag {
	return s.fallback
}

// SetInitialLanguage establishes the display language for the request.
// Precedence: lang query param (persisted as a cookie), language cookie,
// Accept-Language, then the configured default.
func (s *Service) SetInitialLanguage(w http.ResponseWriter, r *http.Request) language.Tag {
	tag, persist := s.Resolve(r)
	if persist && w != nil {
		http.SetCookie(w, &http.Cookie{
			Name:     LangCookieName,
			Value:    tag.String(),
			Path:     "/",
			MaxAge:   int((365 * 24 * time.Hour).Seconds()),
			SameSite: http.SameSiteLaxMode,
		})
	}
	return tag
}

// Resolve determines the best language for r. The bool reports whether the
// choice came from the query parameter and should be persisted.
func (s *Service) Resolve(r *http.Request) (language.Tag, bool) {
	if r == nil {
		return s.fallback, false
	}

	if v := strings.TrimSpace(r.URL.Query().Get(LangParam)); v != "" {
		if tag, ok := s.parseTag(v); ok {
			return tag, true
		}
	}

	if c, err := r.Cookie(LangCookieName); err == nil {
		if tag, ok := s.parseTag(c.Value); ok {
			return tag, false
		}
	}

	if accept := strings.TrimSpace(r.Header.Get("Accept-Language")); accept != "" {
		if tags, _, err := language.ParseAcceptLanguage(accept); err == nil && len(tags) > 0 {
			if _, idx, conf := s.matcher.Match(tags...); conf != language.No {
				return s.supported[idx], false
			}
		}
	}

	return s.fallback, false
}

// Printer returns a printer for tag.
func (s *Service) Printer(tag language.Tag) *message.Printer {
	return s.bundle.Printer(tag)
}

// Options returns the language switcher entries with tag marked active.
func (s *Service) Options(active language.Tag) []LanguageOption {
	out := make([]LanguageOption, 0, len(s.supported))
	for _, tag := range s.supported {
		label, ok := s.bundle.Message(tag.String(), labelKey(tag))
		if !ok {
			label = tag.String()
		}
		out = append(out, LanguageOption{
			Tag:    tag.String(),
			Label:  label,
			Active: tag == active,
		})
	}
	return out
}

func (s *Service) parseTag(value string) (language.Tag, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return language.Und, false
	}
	tag, err := language.Parse(value)
	if err != nil {
		return language.Und, false
	}
	_, idx, conf := s.matcher.Match(tag)
	if conf == language.No {
		return language.Und, false
	}
	return s.supported[idx], true
}

func labelKey(tag language.Tag) string {
	switch tag.String() {
	case "pt-BR":
		return "nav.lang_pt_br"
	default:
		return "nav.lang_en"
	}
}
