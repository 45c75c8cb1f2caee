// Package i18n loads the embedded reply catalogs and resolves guild locales.
package i18n

import (
	"embed"
	"fmt"
	"io/fs"
	"sort"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/message/catalog"
	"gopkg.in/yaml.v3"
)

// Supported locales, in matcher preference order.
var Supported = []language.Tag{language.Japanese, language.English}

//go:embed locales/*.yaml
var embeddedFS embed.FS

type catalogFile struct {
	Locale   string            `yaml:"locale"`
	Messages map[string]string `yaml:"messages"`
}

// Localizer formats replies in the supported locales.
type Localizer struct {
	builder  *catalog.Builder
	matcher  language.Matcher
	fallback language.Tag
	keys     map[string][]string
}

// New loads the embedded catalogs. defaultLocale is used when a guild locale matches nothing.
func New(defaultLocale string) (*Localizer, error) {
	return LoadFromFS(embeddedFS, defaultLocale)
}

// LoadFromFS loads locales/*.yaml from fsys.
func LoadFromFS(fsys fs.FS, defaultLocale string) (*Localizer, error) {
	paths, err := fs.Glob(fsys, "locales/*.yaml")
	if err != nil {
		return nil, fmt.Errorf("glob locale catalogs: %w", err)
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("no catalog files found")
	}
	sort.Strings(paths)

	l := &Localizer{
		builder: catalog.NewBuilder(catalog.Fallback(language.Japanese)),
		matcher: language.NewMatcher(Supported),
		keys:    map[string][]string{},
	}
	for _, path := range paths {
		data, err := fs.ReadFile(fsys, path)
		if err != nil {
			return nil, fmt.Errorf("read catalog %s: %w", path, err)
		}
		var file catalogFile
		if err := yaml.Unmarshal(data, &file); err != nil {
			return nil, fmt.Errorf("parse catalog %s: %w", path, err)
		}
		tag, err := language.Parse(strings.TrimSpace(file.Locale))
		if err != nil {
			return nil, fmt.Errorf("catalog %s: parse locale %q: %w", path, file.Locale, err)
		}
		if len(file.Messages) == 0 {
			return nil, fmt.Errorf("catalog %s: messages map is required", path)
		}
		keys := make([]string, 0, len(file.Messages))
		for key, value := range file.Messages {
			key = strings.TrimSpace(key)
			if key == "" {
				return nil, fmt.Errorf("catalog %s: message key cannot be blank", path)
			}
			if err := l.builder.SetString(tag, key, value); err != nil {
				return nil, fmt.Errorf("catalog %s: set %q: %w", path, key, err)
			}
			keys = append(keys, key)
		}
		sort.Strings(keys)
		l.keys[tag.String()] = keys
	}
	l.fallback = l.Match(defaultLocale)
	return l, nil
}

// Match maps a raw locale ("ja", "en-US", ...) to a supported tag.
// Unknown or empty input falls back to the default locale.
func (l *Localizer) Match(raw string) language.Tag {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return l.defaultTag()
	}
	tag, err := language.Parse(raw)
	if err != nil {
		return l.defaultTag()
	}
	_, idx, conf := l.matcher.Match(tag)
	if conf == language.No {
		return l.defaultTag()
	}
	return Supported[idx]
}

func (l *Localizer) defaultTag() language.Tag {
	if l.fallback == language.Und {
		return Supported[0]
	}
	return l.fallback
}

// Printer returns a printer bound to the catalogs.
func (l *Localizer) Printer(tag language.Tag) *message.Printer {
	return message.NewPrinter(tag, message.Catalog(l.builder))
}

// Sprintf formats key in the locale matched from raw.
func (l *Localizer) Sprintf(raw, key string, args ...any) string {
	return l.Printer(l.Match(raw)).Sprintf(key, args...)
}

// Keys returns the sorted message keys loaded for tag.
func (l *Localizer) Keys(tag language.Tag) []string {
	return append([]string(nil), l.keys[tag.String()]...)
}

// Code returns the short code ("ja", "en") of a supported tag.
func Code(tag language.Tag) string {
	base, _ := tag.Base()
	return base.String()
}
