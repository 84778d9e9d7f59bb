// Package i18n translates user-facing error messages. Catalogs are embedded
// YAML files, one per language, mapping message keys to text.
package i18n

import (
	"embed"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"

	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"
)

//go:embed locales/*.yaml
var localesFS embed.FS

// Translator resolves message keys for a language.
type Translator struct {
	fallback string
	langs    []string
	catalogs map[string]map[string]string
	matcher  language.Matcher
}

// New loads the embedded catalogs. defaultLang must have a catalog; it is
// used whenever a client's languages match none.
func New(defaultLang string) (*Translator, error) {
	return NewFromFS(localesFS, "locales", defaultLang)
}

// NewFromFS loads catalogs named <lang>.yaml from dir in fsys.
func NewFromFS(fsys fs.FS, dir, defaultLang string) (*Translator, error) {
	files, err := fs.Glob(fsys, path.Join(dir, "*.yaml"))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrLoadCatalog, err)
	}

	t := &Translator{
		fallback: defaultLang,
		catalogs: make(map[string]map[string]string, len(files)),
	}
	for _, f := range files {
		raw, err := fs.ReadFile(fsys, f)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrLoadCatalog, f, err)
		}
		catalog := map[string]string{}
		if err := yaml.Unmarshal(raw, &catalog); err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrLoadCatalog, f, err)
		}
		lang := strings.TrimSuffix(path.Base(f), ".yaml")
		t.catalogs[lang] = catalog
	}

	if _, ok := t.catalogs[defaultLang]; !ok {
		return nil, fmt.Errorf("%w: no catalog for default language %q", ErrLoadCatalog, defaultLang)
	}

	// The matcher falls back to its first tag, so the default goes first.
	t.langs = append(t.langs, defaultLang)
	others := make([]string, 0, len(t.catalogs)-1)
	for lang := range t.catalogs {
		if lang != defaultLang {
			others = append(others, lang)
		}
	}
	sort.Strings(others)
	t.langs = append(t.langs, others...)

	tags := make([]language.Tag, len(t.langs))
	for i, lang := range t.langs {
		tags[i] = language.Make(lang)
	}
	t.matcher = language.NewMatcher(tags)
	return t, nil
}

// Languages lists the available catalogs, default first.
func (t *Translator) Languages() []string {
	return append([]string(nil), t.langs...)
}

// Match picks the catalog for an Accept-Language header value.
func (t *Translator) Match(acceptLanguage string) string {
	_, idx := language.MatchStrings(t.matcher, acceptLanguage)
	return t.langs[idx]
}

// T translates key into lang. Missing keys fall back to the default
// language and then to the key itself. args are applied with fmt.Sprintf.
func (t *Translator) T(lang, key string, args ...any) string {
	msg, ok := t.catalogs[lang][key]
	if !ok {
		msg, ok = t.catalogs[t.fallback][key]
	}
	if !ok {
		return key
	}
	if len(args) > 0 {
		return fmt.Sprintf(msg, args...)
	}
	return msg
}
