// Package localize translates prompt text. Translation is always best
// effort: a slow or failing localizer never holds up the wizard, the original
// text is shown instead.
package localize

import (
	"context"
	"errors"
	"strings"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/propertyshodh/shodh/pkg/catalog"
)

// ErrNoTranslation is returned when a localizer has nothing for the text.
var ErrNoTranslation = errors.New("no translation")

// Localizer translates text into the language named by tag (e.g. "hi").
type Localizer interface {
	Localize(ctx context.Context, text, tag string) (string, error)
}

// Dictionary is a static table of translations keyed by tag, then source text.
type Dictionary map[string]map[string]string

// FromCatalog collects the prompt_i18n entries of every step.
func FromCatalog(cat *catalog.Catalog) Dictionary {
	d := Dictionary{}
	for _, s := range cat.Steps() {
		for tag, text := range s.PromptI18n {
			d.Add(tag, s.Prompt, text)
		}
	}
	return d
}

// Add records one translation.
func (d Dictionary) Add(tag, source, translated string) {
	tag = normalizeTag(tag)
	if d[tag] == nil {
		d[tag] = map[string]string{}
	}
	d[tag][source] = translated
}

// Localize looks text up under tag, then under its base language.
func (d Dictionary) Localize(_ context.Context, text, tag string) (string, error) {
	tag = normalizeTag(tag)
	if t, ok := d[tag][text]; ok {
		return t, nil
	}
	if i := strings.IndexByte(tag, '-'); i > 0 {
		if t, ok := d[tag[:i]][text]; ok {
			return t, nil
		}
	}
	return "", ErrNoTranslation
}

func normalizeTag(tag string) string {
	return strings.ToLower(strings.ReplaceAll(strings.TrimSpace(tag), "_", "-"))
}

// Cached remembers successful translations of another localizer.
type Cached struct {
	next  Localizer
	cache *lru.Cache[string, string]
}

// NewCached wraps next with an LRU cache of the given size.
func NewCached(next Localizer, size int) (*Cached, error) {
	if size <= 0 {
		size = 1024
	}
	c, err := lru.New[string, string](size)
	if err != nil {
		return nil, err
	}
	return &Cached{next: next, cache: c}, nil
}

func (c *Cached) Localize(ctx context.Context, text, tag string) (string, error) {
	key := normalizeTag(tag) + "\x00" + text
	if t, ok := c.cache.Get(key); ok {
		return t, nil
	}
	t, err := c.next.Localize(ctx, text, tag)
	if err != nil {
		return "", err
	}
	c.cache.Add(key, t)
	return t, nil
}

// Len reports the number of cached translations.
func (c *Cached) Len() int { return c.cache.Len() }

// BestEffort translates text, returning it unchanged on error, on an empty
// result, or when the localizer does not answer within timeout. English tags
// and a nil localizer skip translation.
func BestEffort(ctx context.Context, l Localizer, text, tag string, timeout time.Duration) string {
	tag = normalizeTag(tag)
	if l == nil || text == "" || tag == "" || tag == "en" || strings.HasPrefix(tag, "en-") {
		return text
	}
	if timeout <= 0 {
		timeout = 500 * time.Millisecond
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	type result struct {
		text string
		err  error
	}
	ch := make(chan result, 1)
	go func() {
		t, err := l.Localize(ctx, text, tag)
		ch <- result{t, err}
	}()
	select {
	case r := <-ch:
		if r.err != nil || strings.TrimSpace(r.text) == "" {
			return text
		}
		return r.text
	case <-ctx.Done():
		return text
	}
}
