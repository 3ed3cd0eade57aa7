// Package i18n resolves validation message keys into the user's language.
package i18n

import (
	_ "embed"
	"fmt"
	"os"
	"sort"

	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"
)

//go:embed catalog.yaml
var defaultCatalog []byte

// Catalog holds translated messages per language.
type Catalog struct {
	messages map[string]map[string]string
	tags     []language.Tag
	matcher  language.Matcher
}

// Default returns the built-in catalog with English as the fallback language.
func Default() *Catalog {
	c, err := Parse(defaultCatalog, "en")
	if err != nil {
		panic(fmt.Sprintf("failed to parse embedded message catalog: %v", err))
	}
	return c
}

// Load reads a catalog file and layers it over the built-in messages. An
// empty path returns the built-in catalog.
func Load(path, defaultLanguage string) (*Catalog, error) {
	if path == "" {
		return Parse(defaultCatalog, defaultLanguage)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read message catalog %s: %w", path, err)
	}

	var overrides map[string]map[string]string
	if err := yaml.Unmarshal(data, &overrides); err != nil {
		return nil, fmt.Errorf("failed to parse message catalog %s: %w", path, err)
	}

	var base map[string]map[string]string
	if err := yaml.Unmarshal(defaultCatalog, &base); err != nil {
		return nil, err
	}
	for lang, msgs := range overrides {
		if base[lang] == nil {
			base[lang] = make(map[string]string, len(msgs))
		}
		for key, text := range msgs {
			base[lang][key] = text
		}
	}
	return newCatalog(base, defaultLanguage)
}

// Parse builds a catalog from YAML keyed by language, then message key.
func Parse(data []byte, defaultLanguage string) (*Catalog, error) {
	var raw map[string]map[string]string
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse message catalog: %w", err)
	}
	return newCatalog(raw, defaultLanguage)
}

func newCatalog(raw map[string]map[string]string, defaultLanguage string) (*Catalog, error) {
	if len(raw) == 0 {
		return nil, fmt.Errorf("message catalog is empty")
	}
	if defaultLanguage == "" {
		defaultLanguage = "en"
	}
	defaultTag, err := language.Parse(defaultLanguage)
	if err != nil {
		return nil, fmt.Errorf("invalid default language %q: %w", defaultLanguage, err)
	}

	c := &Catalog{messages: make(map[string]map[string]string, len(raw))}
	langs := make([]string, 0, len(raw))
	for lang, msgs := range raw {
		tag, err := language.Parse(lang)
		if err != nil {
			return nil, fmt.Errorf("invalid language %q in message catalog: %w", lang, err)
		}
		c.messages[tag.String()] = msgs
		if tag != defaultTag {
			langs = append(langs, tag.String())
		}
	}
	if _, ok := c.messages[defaultTag.String()]; !ok {
		return nil, fmt.Errorf("message catalog has no %q messages", defaultLanguage)
	}

	// The matcher falls back to its first tag.
	sort.Strings(langs)
	c.tags = append(c.tags, defaultTag)
	for _, lang := range langs {
		c.tags = append(c.tags, language.MustParse(lang))
	}
	c.matcher = language.NewMatcher(c.tags)
	return c, nil
}

// Languages lists the catalog languages, the fallback first.
func (c *Catalog) Languages() []string {
	out := make([]string, len(c.tags))
	for i, tag := range c.tags {
		out[i] = tag.String()
	}
	return out
}

// For picks the best language for an Accept-Language header value or a bare
// language code. Languages the catalog cannot serve get the default language.
func (c *Catalog) For(acceptLanguage string) Localizer {
	desired, _, err := language.ParseAcceptLanguage(acceptLanguage)
	if err != nil || len(desired) == 0 {
		return c.localizer(c.tags[0])
	}
	// Weak matches, such as English offered for German, use the default.
	_, idx, conf := c.matcher.Match(desired...)
	if conf < language.High {
		return c.localizer(c.tags[0])
	}
	return c.localizer(c.tags[idx])
}

func (c *Catalog) localizer(tag language.Tag) Localizer {
	return Localizer{
		tag:      tag,
		messages: c.messages[tag.String()],
		fallback: c.messages[c.tags[0].String()],
	}
}

// Localizer translates message keys for one language.
type Localizer struct {
	tag      language.Tag
	messages map[string]string
	fallback map[string]string
}

// Language returns the selected language tag.
func (l Localizer) Language() language.Tag {
	return l.tag
}

// Message returns the translation of key, then the catalog fallback
// language, then fallback.
func (l Localizer) Message(key, fallback string) string {
	if text, ok := l.messages[key]; ok {
		return text
	}
	if text, ok := l.fallback[key]; ok {
		return text
	}
	return fallback
}
