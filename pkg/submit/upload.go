package submit

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
)

// Uploader stores local image files and returns their public URLs in order.
type Uploader interface {
	Upload(ctx context.Context, ownerID string, paths []string) ([]string, error)
}

// UploadTask uploads a listing's images at most once. A successful result is
// cached, so retrying a submission whose record creation failed reuses the
// already uploaded URLs instead of uploading again. A failed attempt is not
// cached.
type UploadTask struct {
	uploader Uploader
	ownerID  string
	sources  []string

	mu   sync.Mutex
	urls []string
	done bool
}

// NewUploadTask prepares an upload of sources. Sources that are already
// http(s) URLs are passed through untouched.
func NewUploadTask(u Uploader, ownerID string, sources []string) *UploadTask {
	return &UploadTask{uploader: u, ownerID: ownerID, sources: append([]string(nil), sources...)}
}

// RunOnce uploads the local sources, or returns the cached URLs.
func (t *UploadTask) RunOnce(ctx context.Context) ([]string, error) {
	if t == nil {
		return nil, nil
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.done {
		return append([]string(nil), t.urls...), nil
	}

	var local []string
	for _, s := range t.sources {
		if !isRemote(s) {
			local = append(local, s)
		}
	}
	var uploaded []string
	if len(local) > 0 {
		if t.uploader == nil {
			return nil, errors.New("no image storage configured for local files")
		}
		var err error
		uploaded, err = t.uploader.Upload(ctx, t.ownerID, local)
		if err != nil {
			return nil, err
		}
		if len(uploaded) != len(local) {
			return nil, fmt.Errorf("uploader returned %d urls for %d files", len(uploaded), len(local))
		}
	}

	urls := make([]string, 0, len(t.sources))
	next := 0
	for _, s := range t.sources {
		if isRemote(s) {
			urls = append(urls, s)
			continue
		}
		urls = append(urls, uploaded[next])
		next++
	}
	t.urls, t.done = urls, true
	return append([]string(nil), urls...), nil
}

// Done reports whether an upload has succeeded.
func (t *UploadTask) Done() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.done
}

func isRemote(s string) bool {
	return strings.HasPrefix(s, "https://") || strings.HasPrefix(s, "http://")
}
