package main

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/propertyshodh/shodh/pkg/catalog"
	"github.com/propertyshodh/shodh/pkg/catalog/builtin"
	"github.com/propertyshodh/shodh/pkg/draft"
	"github.com/propertyshodh/shodh/pkg/submit"
	"github.com/propertyshodh/shodh/pkg/wizard"
)

type recordingCreator struct{ recs []submit.PropertyRecord }

func (c *recordingCreator) Create(_ context.Context, rec submit.PropertyRecord) (submit.RecordID, error) {
	c.recs = append(c.recs, rec)
	return "r1", nil
}

type prefixUploader struct{ calls int }

func (u *prefixUploader) Upload(_ context.Context, owner string, paths []string) ([]string, error) {
	u.calls++
	out := make([]string, len(paths))
	for i, p := range paths {
		out[i] = "https://img/" + owner + p
	}
	return out, nil
}

func TestImagesOf(t *testing.T) {
	cat, err := builtin.Load("property-listing")
	if err != nil {
		t.Fatal(err)
	}
	got := imagesOf(cat, catalog.Answers{"images": []string{"/a.jpg"}})
	if !reflect.DeepEqual(got, []string{"/a.jpg"}) {
		t.Errorf("got %v", got)
	}
	if imagesOf(cat, catalog.Answers{}) != nil {
		t.Error("want nil without an images answer")
	}
}

func TestNewSubmitFunc_ClearsDraftAfterPendingWrites(t *testing.T) {
	ctx := context.Background()
	cat, err := builtin.Load("quick-listing")
	if err != nil {
		t.Fatal(err)
	}
	store, _ := draft.NewMemoryStore(8)
	key := draft.UserKey(cat.Name(), "u1")
	eng := wizard.New(cat, wizard.WithDrafts(store, key))
	defer eng.Close()

	for _, v := range []any{"residential", "flat", "2", "rent", "25000", "Pune", "Baner", "/tmp/front.jpg", "9876543210"} {
		if out := eng.SubmitAnswer(v); out.Status == wizard.Invalid {
			t.Fatalf("answer %v rejected: %s", v, out.Reason)
		}
	}
	eng.SubmitAnswer(nil) // review
	if !eng.Complete() {
		t.Fatalf("not complete at index %d", eng.Index())
	}

	creator := &recordingCreator{}
	up := &prefixUploader{}
	post := newSubmitFunc(&submit.Adapter{Creator: creator, Drafts: store}, up, "u1")
	id, err := post(ctx, eng)
	if err != nil {
		t.Fatal(err)
	}
	if id != "r1" || up.calls != 1 {
		t.Errorf("id = %q, uploads = %d", id, up.calls)
	}
	if got := creator.recs[0].Images; !reflect.DeepEqual(got, []string{"https://img/u1/tmp/front.jpg"}) {
		t.Errorf("images = %v", got)
	}
	if _, err := store.Load(ctx, key); !errors.Is(err, draft.ErrNotFound) {
		t.Errorf("draft not cleared: %v", err)
	}
}
