package wizard

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/propertyshodh/shodh/pkg/catalog"
	"github.com/propertyshodh/shodh/pkg/catalog/builtin"
	"github.com/propertyshodh/shodh/pkg/draft"
)

const listingYAML = `
apiVersion: catalog/v0
meta:
  name: scenario
steps:
  - id: category
    prompt: Category?
    kind: single-select
    required: true
    options:
      - {id: residential, label: Residential}
      - {id: commercial, label: Commercial}
  - id: type
    prompt: Type?
    kind: single-select
    required: true
    after: category
    when: category != nil
    options_from:
      step: category
      sets:
        residential: [{id: flat, label: Flat}, {id: villa, label: Villa}]
        commercial: [{id: office, label: Office}, {id: shop, label: Shop}]
  - id: price
    prompt: Price?
    kind: numeric
    required: true
    rules: {gt: 0}
    message: Please enter a valid price
  - id: amenities
    prompt: Amenities?
    kind: multi-select
    options:
      - {id: parking, label: Parking}
      - {id: gym, label: Gym}
      - {id: pool, label: Pool}
  - id: images
    prompt: Photos?
    kind: image-set
  - id: review
    prompt: Review
    kind: derived-summary
`

func testCatalog(t *testing.T) *catalog.Catalog {
	t.Helper()
	doc, err := catalog.Load(strings.NewReader(listingYAML))
	if err != nil {
		t.Fatal(err)
	}
	c, err := catalog.Compile(doc)
	if err != nil {
		t.Fatal(err)
	}
	return c
}

func fixedClock() time.Time { return time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC) }

func mustAdvance(t *testing.T, e *Engine, v any, wantNext string) {
	t.Helper()
	out := e.SubmitAnswer(v)
	if out.Status != Advanced {
		t.Fatalf("submit %v: status %v (%s), want advanced", v, out.Status, out.Reason)
	}
	if out.Step.ID != wantNext {
		t.Fatalf("submit %v: next %q, want %q", v, out.Step.ID, wantNext)
	}
}

func TestEngine_ListingScenario(t *testing.T) {
	e := New(testCatalog(t))

	if catalog.IndexOf(e.Steps(), "type") >= 0 {
		t.Fatalf("type visible before category answered: %v", catalog.IDs(e.Steps()))
	}

	mustAdvance(t, e, "residential", "type")
	opts := e.Options()
	if len(opts) != 2 || opts[0].Val() != "flat" {
		t.Fatalf("type options = %v, want residential set", opts)
	}

	mustAdvance(t, e, "flat", "price")

	idx := e.Index()
	out := e.SubmitAnswer(-5)
	if out.Status != Invalid || out.Reason != "Please enter a valid price" {
		t.Fatalf("price -5 = %+v", out)
	}
	if e.Index() != idx {
		t.Errorf("index moved on invalid answer: %d -> %d", idx, e.Index())
	}
	if cur, _ := e.CurrentStep(); cur.ID != "price" {
		t.Errorf("current = %q, want price", cur.ID)
	}

	mustAdvance(t, e, 4500000, "amenities")
	if got, _ := e.Answer("price"); got != 4500000.0 {
		t.Errorf("price stored as %#v", got)
	}
}

func TestEngine_NonNumericPriceUsesMessage(t *testing.T) {
	e := New(testCatalog(t))
	mustAdvance(t, e, "commercial", "type")
	mustAdvance(t, e, "shop", "price")
	if out := e.SubmitAnswer("abc"); out.Status != Invalid || out.Reason != "Please enter a valid price" {
		t.Errorf("abc = %+v", out)
	}
}

func TestEngine_ChangingCategoryClearsType(t *testing.T) {
	cat := testCatalog(t)
	snap := &draft.Snapshot{
		Catalog:      "scenario",
		Answers:      catalog.Answers{"category": "residential", "type": "flat", "price": 100.0},
		CurrentIndex: 0,
	}
	e := Resume(cat, snap)
	if cur, _ := e.CurrentStep(); cur.ID != "category" {
		t.Fatalf("current = %q", cur.ID)
	}

	mustAdvance(t, e, "commercial", "type")
	if _, ok := e.Answer("type"); ok {
		t.Error("residential type answer survived category change")
	}
	var vals []string
	for _, o := range e.Options() {
		vals = append(vals, o.Val())
	}
	if !reflect.DeepEqual(vals, []string{"office", "shop"}) {
		t.Errorf("type options = %v, want commercial set", vals)
	}
	if got, _ := e.Answer("price"); got != 100.0 {
		t.Errorf("unrelated answer dropped: price = %v", got)
	}
}

func TestEngine_ReselectSameCategoryKeepsType(t *testing.T) {
	e := New(testCatalog(t))
	mustAdvance(t, e, "residential", "type")
	mustAdvance(t, e, "villa", "price")
	e.GoBack()
	e.GoBack()
	mustAdvance(t, e, "Residential", "type")
	if got, _ := e.Answer("type"); got != "villa" {
		t.Errorf("type = %v, want villa kept", got)
	}
}

func TestEngine_MultiSelectToggle(t *testing.T) {
	e := Resume(testCatalog(t), &draft.Snapshot{
		Answers:      catalog.Answers{"category": "commercial", "type": "shop", "price": 10.0},
		CurrentIndex: 3,
	})
	if cur, _ := e.CurrentStep(); cur.ID != "amenities" {
		t.Fatalf("current = %q, want amenities", cur.ID)
	}
	for _, v := range []string{"gym", "parking", "gym"} {
		if err := e.ToggleOption(v); err != nil {
			t.Fatalf("toggle %s: %v", v, err)
		}
	}
	if got := e.Pending(); !reflect.DeepEqual(got, []string{"parking"}) {
		t.Fatalf("pending = %v, want [parking]", got)
	}
	out := e.ConfirmMultiSelect()
	if out.Status != Advanced || out.Step.ID != "images" {
		t.Fatalf("confirm = %+v", out)
	}
	if got, _ := e.Answer("amenities"); !reflect.DeepEqual(got, []string{"parking"}) {
		t.Errorf("amenities = %v", got)
	}
}

func TestEngine_ToggleErrors(t *testing.T) {
	e := New(testCatalog(t))
	if err := e.ToggleOption("gym"); !errors.Is(err, ErrNotMultiSelect) {
		t.Errorf("err = %v, want ErrNotMultiSelect", err)
	}
	e = Resume(testCatalog(t), &draft.Snapshot{
		Answers:      catalog.Answers{"category": "commercial", "type": "shop", "price": 10.0},
		CurrentIndex: 3,
	})
	if err := e.ToggleOption("helipad"); !errors.Is(err, ErrUnknownOption) {
		t.Errorf("err = %v, want ErrUnknownOption", err)
	}
}

func TestEngine_PendingSeededFromAnswer(t *testing.T) {
	e := Resume(testCatalog(t), &draft.Snapshot{
		Answers:      catalog.Answers{"category": "commercial", "type": "shop", "price": 10.0, "amenities": []any{"pool", "gym"}},
		CurrentIndex: 3,
	})
	if got := e.Pending(); !reflect.DeepEqual(got, []string{"gym", "pool"}) {
		t.Fatalf("pending = %v", got)
	}
	_ = e.ToggleOption("pool")
	e.ConfirmMultiSelect()
	if got, _ := e.Answer("amenities"); !reflect.DeepEqual(got, []string{"gym"}) {
		t.Errorf("amenities = %v", got)
	}
}

func TestEngine_DerivedSummaryCompletes(t *testing.T) {
	e := Resume(testCatalog(t), &draft.Snapshot{
		Answers:      catalog.Answers{"category": "commercial", "type": "shop", "price": 10.0},
		CurrentIndex: 5,
	})
	if cur, _ := e.CurrentStep(); cur.ID != "review" {
		t.Fatalf("current = %q", cur.ID)
	}
	out := e.SubmitAnswer(nil)
	if out.Status != Completed {
		t.Fatalf("summary submit = %+v", out)
	}
	if _, ok := e.Answer("review"); ok {
		t.Error("summary step stored an answer")
	}
	if _, ok := e.CurrentStep(); ok {
		t.Error("CurrentStep should report completion")
	}
	if out := e.SubmitAnswer("x"); out.Status != Completed {
		t.Errorf("submit after completion = %+v", out)
	}
}

func TestEngine_InvalidLeavesStateUntouched(t *testing.T) {
	e := New(testCatalog(t), WithClock(fixedClock))
	mustAdvance(t, e, "residential", "type")
	before := e.Snapshot()
	for _, bad := range []any{"castle", "", nil} {
		if out := e.SubmitAnswer(bad); out.Status != Invalid {
			t.Fatalf("%v accepted: %+v", bad, out)
		}
	}
	if after := e.Snapshot(); !reflect.DeepEqual(before, after) {
		t.Errorf("state changed:\nbefore %+v\nafter  %+v", before, after)
	}
}

func TestEngine_ResumeIsIdempotent(t *testing.T) {
	cat := testCatalog(t)
	e := New(cat, WithClock(fixedClock))
	mustAdvance(t, e, "residential", "type")
	mustAdvance(t, e, "flat", "price")
	mustAdvance(t, e, 4500000, "amenities")
	_ = e.ToggleOption("pool")
	e.ConfirmMultiSelect()

	snap := e.Snapshot()
	again := Resume(cat, snap, WithClock(fixedClock)).Snapshot()
	if !reflect.DeepEqual(snap, again) {
		t.Errorf("resume changed state:\n%+v\n%+v", snap, again)
	}
}

func TestEngine_ResumeClampsIndex(t *testing.T) {
	cat := testCatalog(t)
	e := Resume(cat, &draft.Snapshot{Answers: catalog.Answers{"category": "land"}, CurrentIndex: 99})
	if want := len(e.Steps()) - 1; e.Index() != want {
		t.Errorf("index = %d, want last step %d", e.Index(), want)
	}
	if e.Complete() {
		t.Error("out-of-range index resumed as complete")
	}
	if cur, ok := e.CurrentStep(); !ok || cur.ID != "review" {
		t.Errorf("current = %v, want review", cur)
	}
	if _, ok := e.Answer("category"); ok {
		t.Error("unsupported category survived resume")
	}
	e = Resume(cat, &draft.Snapshot{CurrentIndex: -4})
	if e.Index() != 0 {
		t.Errorf("index = %d, want 0", e.Index())
	}
}

func TestEngine_ResumeKeepsComplete(t *testing.T) {
	cat := testCatalog(t)
	answers := catalog.Answers{"category": "commercial", "type": "shop", "price": 10.0}
	n := len(cat.Compute(answers))
	e := Resume(cat, &draft.Snapshot{Answers: answers, CurrentIndex: n})
	if e.Index() != n || !e.Complete() {
		t.Errorf("index = %d complete = %v, want %d true", e.Index(), e.Complete(), n)
	}
}

func TestResumeIndex(t *testing.T) {
	cases := []struct{ i, n, want int }{
		{-1, 5, 0},
		{2, 5, 2},
		{5, 5, 5},
		{6, 5, 4},
		{3, 0, 0},
	}
	for _, c := range cases {
		if got := resumeIndex(c.i, c.n); got != c.want {
			t.Errorf("resumeIndex(%d, %d) = %d, want %d", c.i, c.n, got, c.want)
		}
	}
}

func TestEngine_GoBackAndReset(t *testing.T) {
	e := New(testCatalog(t))
	if e.GoBack() {
		t.Error("GoBack at start reported true")
	}
	mustAdvance(t, e, "residential", "type")
	if !e.GoBack() || e.Index() != 0 {
		t.Errorf("GoBack index = %d", e.Index())
	}
	if got, _ := e.Answer("category"); got != "residential" {
		t.Error("GoBack dropped the answer")
	}
	e.Reset()
	if len(e.Answers()) != 0 || e.Index() != 0 {
		t.Errorf("after reset answers=%v index=%d", e.Answers(), e.Index())
	}
}

func TestEngine_Deterministic(t *testing.T) {
	cat := testCatalog(t)
	run := func() []string {
		e := New(cat)
		e.SubmitAnswer("commercial")
		e.SubmitAnswer("office")
		e.SubmitAnswer("1,20,000")
		return catalog.IDs(e.Steps())
	}
	first := run()
	for i := 0; i < 20; i++ {
		if got := run(); !reflect.DeepEqual(got, first) {
			t.Fatalf("run %d: %v, want %v", i, got, first)
		}
	}
}

func TestEngine_PersistsDrafts(t *testing.T) {
	store, _ := draft.NewMemoryStore(8)
	cat := testCatalog(t)
	key := draft.UserKey(cat.Name(), "u1")
	e := New(cat, WithDrafts(store, key), WithClock(fixedClock))
	mustAdvance(t, e, "residential", "type")
	mustAdvance(t, e, "flat", "price")
	if err := e.Close(); err != nil {
		t.Fatal(err)
	}

	snap, err := store.Load(context.Background(), key)
	if err != nil {
		t.Fatal(err)
	}
	if snap.CurrentIndex != 2 || snap.Answers["type"] != "flat" {
		t.Errorf("stored %+v", snap)
	}

	resumed, ok := Open(context.Background(), cat, store, key)
	defer resumed.Close()
	if !ok {
		t.Fatal("draft not resumed")
	}
	if cur, _ := resumed.CurrentStep(); cur.ID != "price" {
		t.Errorf("resumed at %q, want price", cur.ID)
	}
}

type failingStore struct{}

func (failingStore) Save(context.Context, string, *draft.Snapshot) error {
	return errors.New("disk full")
}
func (failingStore) Load(context.Context, string) (*draft.Snapshot, error) {
	return nil, draft.ErrCorrupt
}
func (failingStore) Clear(context.Context, string) error { return nil }

func TestEngine_PersistenceFailureIsOnlyAWarning(t *testing.T) {
	e, resumed := Open(context.Background(), testCatalog(t), failingStore{}, "k")
	if resumed {
		t.Fatal("corrupt draft reported as resumed")
	}
	mustAdvance(t, e, "residential", "type")
	_ = e.Flush(context.Background())

	warns := e.Warnings()
	if len(warns) != 2 {
		t.Fatalf("warnings = %v, want load + save", warns)
	}
	if !errors.Is(warns[0], draft.ErrCorrupt) {
		t.Errorf("first warning = %v", warns[0])
	}
	if !strings.Contains(warns[1].Error(), "disk full") {
		t.Errorf("second warning = %v", warns[1])
	}
	if len(e.Warnings()) != 0 {
		t.Error("Warnings should drain")
	}
	_ = e.Close()
}

func TestEngine_CategoryChangeKeepsVisibleAnswers(t *testing.T) {
	cat, err := builtin.Load("property-listing")
	if err != nil {
		t.Fatal(err)
	}
	e := Resume(cat, &draft.Snapshot{Answers: catalog.Answers{
		"category":     "residential",
		"type":         "flat",
		"bedrooms":     "2",
		"bathrooms":    2.0,
		"listing_type": "rent",
		"amenities":    []string{"parking"},
	}})
	if out := e.SubmitAnswer("commercial"); out.Status != Advanced {
		t.Fatalf("submit = %+v", out)
	}
	if got, _ := e.Answer("amenities"); !reflect.DeepEqual(got, []string{"parking"}) {
		t.Errorf("amenities = %v, want [parking]", got)
	}
	if got, _ := e.Answer("listing_type"); got != "rent" {
		t.Errorf("listing_type = %v, want rent", got)
	}
	if _, ok := e.Answer("type"); ok {
		t.Error("type survived a category change")
	}
	for _, id := range []string{"bedrooms", "bathrooms"} {
		if _, ok := e.Answer(id); ok {
			t.Errorf("%s survived after leaving the catalog", id)
		}
	}
}

func TestEngine_ResetClearFailureWarns(t *testing.T) {
	store, _ := draft.NewMemoryStore(8)
	cat := testCatalog(t)
	e := New(cat, WithDrafts(store, draft.UserKey(cat.Name(), "u1")))
	if err := e.Close(); err != nil {
		t.Fatal(err)
	}
	e.Reset()
	warns := e.Warnings()
	if len(warns) != 1 || !errors.Is(warns[0], draft.ErrClosed) {
		t.Fatalf("warnings = %v, want one ErrClosed", warns)
	}
}

func TestEngine_ConcurrentCallers(t *testing.T) {
	e := New(testCatalog(t))
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			e.SubmitAnswer("residential")
			e.CurrentStep()
			e.Snapshot()
			e.GoBack()
		}()
	}
	wg.Wait()
	if got, _ := e.Answer("category"); got != "residential" {
		t.Errorf("category = %v", got)
	}
}
