package middleware

import (
	"context"
	"net/http"
	"strings"

	"golang.org/x/text/language"
)

type localeContextKey struct{}

var LocaleKey = localeContextKey{}

// SupportedLocales are the languages the report pages format numbers for.
var SupportedLocales = []language.Tag{
	language.English,
	language.Indonesian,
	language.German,
	language.French,
	language.Spanish,
	language.Japanese,
}

var localeMatcher = language.NewMatcher(SupportedLocales)

// I18N stores the request language in the context. X-Locale wins over
// Accept-Language; defaultLocale applies when neither matches.
func I18N(defaultLocale string) func(http.Handler) http.Handler {
	fallback := ParseLocale(defaultLocale, language.English)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tag := detectLocale(r, fallback)
			w.Header().Set("Content-Language", tag.String())
			ctx := context.WithValue(r.Context(), LocaleKey, tag)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func detectLocale(r *http.Request, fallback language.Tag) language.Tag {
	if v := strings.TrimSpace(r.Header.Get("X-Locale")); v != "" {
		return ParseLocale(v, fallback)
	}
	if v := strings.TrimSpace(r.Header.Get("Accept-Language")); v != "" {
		tags, _, err := language.ParseAcceptLanguage(v)
		if err == nil && len(tags) > 0 {
			if tag, conf := match(tags...); conf != language.No {
				return tag
			}
		}
	}
	return fallback
}

// ParseLocale maps a locale string such as "id-ID" or "de_AT" onto a
// supported language, or returns fallback.
func ParseLocale(s string, fallback language.Tag) language.Tag {
	tag, err := language.Parse(strings.ReplaceAll(strings.TrimSpace(s), "_", "-"))
	if err != nil {
		return fallback
	}
	matched, conf := match(tag)
	if conf == language.No {
		return fallback
	}
	return matched
}

func match(tags ...language.Tag) (language.Tag, language.Confidence) {
	_, idx, conf := localeMatcher.Match(tags...)
	return SupportedLocales[idx], conf
}

func LocaleFromContext(ctx context.Context) language.Tag {
	if v, ok := ctx.Value(LocaleKey).(language.Tag); ok {
		return v
	}
	return language.English
}
