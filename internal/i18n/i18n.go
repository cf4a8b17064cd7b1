// Package i18n loads YAML locale catalogs and resolves message keys with
// placeholder substitution.
package i18n

import (
	"embed"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

//go:embed locales/*.yaml
var embeddedLocales embed.FS

// Catalog resolves message keys for one locale. Missing keys fall back to
// the key itself; each missing key is warned about once.
type Catalog struct {
	locale   string
	messages map[string]string

	mu     sync.Mutex
	warned map[string]bool
}

// Load reads the embedded catalog for a locale.
func Load(locale string) (*Catalog, error) {
	data, err := embeddedLocales.ReadFile("locales/" + locale + ".yaml")
	if err != nil {
		return nil, fmt.Errorf("no embedded catalog for locale %q: %w", locale, err)
	}
	return parse(locale, data)
}

// LoadDir reads a catalog from a locale directory on disk, overriding the
// embedded one. The file must be named "<locale>.yaml".
func LoadDir(dir, locale string) (*Catalog, error) {
	data, err := os.ReadFile(filepath.Join(dir, locale+".yaml"))
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog for locale %q: %w", locale, err)
	}
	return parse(locale, data)
}

// Locales lists the embedded locale names.
func Locales() []string {
	entries, err := fs.ReadDir(embeddedLocales, "locales")
	if err != nil {
		return nil
	}
	var locales []string
	for _, e := range entries {
		locales = append(locales, strings.TrimSuffix(e.Name(), ".yaml"))
	}
	return locales
}

func parse(locale string, data []byte) (*Catalog, error) {
	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse catalog for locale %q: %w", locale, err)
	}

	messages := make(map[string]string)
	flatten("", raw, messages)
	slog.Debug("i18n.parse: catalog loaded", "locale", locale, "keys", len(messages))
	return &Catalog{
		locale:   locale,
		messages: messages,
		warned:   make(map[string]bool),
	}, nil
}

// flatten turns nested YAML maps into dot-joined keys.
func flatten(prefix string, node map[string]any, out map[string]string) {
	for key, value := range node {
		full := key
		if prefix != "" {
			full = prefix + "." + key
		}
		switch v := value.(type) {
		case map[string]any:
			flatten(full, v, out)
		case string:
			out[full] = v
		default:
			out[full] = fmt.Sprintf("%v", v)
		}
	}
}

// Locale returns the catalog's locale name.
func (c *Catalog) Locale() string {
	return c.locale
}

// T resolves a message key and substitutes {name} placeholders. An unknown
// key resolves to the key itself.
func (c *Catalog) T(key string, placeholders map[string]string) string {
	message, ok := c.messages[key]
	if !ok {
		c.warnOnce(key)
		message = key
	}
	for name, value := range placeholders {
		message = strings.ReplaceAll(message, "{"+name+"}", value)
	}
	return message
}

func (c *Catalog) warnOnce(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.warned[key] {
		return
	}
	c.warned[key] = true
	slog.Warn("i18n.T: unknown message key", "locale", c.locale, "key", key)
}
