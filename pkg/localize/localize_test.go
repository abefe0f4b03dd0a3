package localize

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/propertyshodh/shodh/pkg/catalog/builtin"
)

func TestFromCatalog(t *testing.T) {
	cat, err := builtin.Load("property-listing")
	if err != nil {
		t.Fatal(err)
	}
	d := FromCatalog(cat)
	step, _ := cat.Step("category")
	got, err := d.Localize(context.Background(), step.Prompt, "hi-IN")
	if err != nil {
		t.Fatal(err)
	}
	if got != step.PromptI18n["hi"] {
		t.Errorf("got %q, want %q", got, step.PromptI18n["hi"])
	}
	if _, err := d.Localize(context.Background(), "unknown text", "hi"); !errors.Is(err, ErrNoTranslation) {
		t.Errorf("err = %v", err)
	}
}

type countingLocalizer struct {
	calls int
	fail  bool
}

func (c *countingLocalizer) Localize(_ context.Context, text, tag string) (string, error) {
	c.calls++
	if c.fail {
		return "", errors.New("quota exceeded")
	}
	return "[" + tag + "] " + text, nil
}

func TestCached_HitsAndMisses(t *testing.T) {
	inner := &countingLocalizer{}
	c, err := NewCached(inner, 8)
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()
	for i := 0; i < 3; i++ {
		if got, _ := c.Localize(ctx, "City?", "hi"); got != "[hi] City?" {
			t.Fatalf("got %q", got)
		}
	}
	if inner.calls != 1 {
		t.Errorf("inner calls = %d, want 1", inner.calls)
	}

	inner.fail = true
	if _, err := c.Localize(ctx, "Price?", "hi"); err == nil {
		t.Fatal("want error")
	}
	if c.Len() != 1 {
		t.Errorf("failure was cached: len = %d", c.Len())
	}
}

type slowLocalizer struct{ delay time.Duration }

func (s slowLocalizer) Localize(ctx context.Context, text, _ string) (string, error) {
	select {
	case <-time.After(s.delay):
		return "slow " + text, nil
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

func TestBestEffort_FallsBack(t *testing.T) {
	ctx := context.Background()
	if got := BestEffort(ctx, slowLocalizer{delay: time.Second}, "City?", "hi", 20*time.Millisecond); got != "City?" {
		t.Errorf("timeout: got %q", got)
	}
	if got := BestEffort(ctx, &countingLocalizer{fail: true}, "City?", "hi", time.Second); got != "City?" {
		t.Errorf("error: got %q", got)
	}
	if got := BestEffort(ctx, nil, "City?", "hi", time.Second); got != "City?" {
		t.Errorf("nil: got %q", got)
	}
	inner := &countingLocalizer{}
	if got := BestEffort(ctx, inner, "City?", "en-IN", time.Second); got != "City?" || inner.calls != 0 {
		t.Errorf("english: got %q, calls = %d", got, inner.calls)
	}
	if got := BestEffort(ctx, inner, "City?", "hi", time.Second); got != "[hi] City?" {
		t.Errorf("success: got %q", got)
	}
}
