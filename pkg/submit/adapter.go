package submit

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/propertyshodh/shodh/pkg/catalog"
	"github.com/propertyshodh/shodh/pkg/draft"
	"github.com/propertyshodh/shodh/pkg/logger"
)

// Stage names the submission step that failed.
type Stage string

const (
	StageValidate Stage = "validate"
	StageUpload   Stage = "upload"
	StageCreate   Stage = "create"
)

// SubmissionError reports a failed submission. The draft is left in place
// whatever the stage.
type SubmissionError struct {
	Stage     Stage
	Retryable bool
	Err       error
}

func (e *SubmissionError) Error() string {
	return fmt.Sprintf("submit listing: %s: %v", e.Stage, e.Err)
}

func (e *SubmissionError) Unwrap() error { return e.Err }

// Creator creates a hosted record.
type Creator interface {
	Create(ctx context.Context, rec PropertyRecord) (RecordID, error)
}

// Adapter submits completed sessions.
type Adapter struct {
	Creator Creator
	Drafts  draft.Store
	Log     *logger.Logger
}

// Request is one submission.
type Request struct {
	DraftKey string
	OwnerID  string
	Catalog  *catalog.Catalog
	Answers  catalog.Answers
	// Images is optional; without it the images answer is used as is.
	Images *UploadTask
}

// Submit validates the answers, uploads images, creates the record and
// clears the draft. Any failure before the record exists returns a
// *SubmissionError and leaves the draft untouched.
func (a *Adapter) Submit(ctx context.Context, req Request) (RecordID, error) {
	log := a.Log.With("catalog", req.Catalog.Name(), "owner_id", req.OwnerID)

	if missing := Incomplete(req.Catalog, req.Answers); len(missing) > 0 {
		return "", &SubmissionError{
			Stage: StageValidate,
			Err:   fmt.Errorf("unanswered or invalid steps: %s", strings.Join(missing, ", ")),
		}
	}

	var urls []string
	if req.Images != nil {
		var err error
		urls, err = req.Images.RunOnce(ctx)
		if err != nil {
			log.Error("image upload failed", "error", err)
			return "", &SubmissionError{Stage: StageUpload, Retryable: retryable(err), Err: err}
		}
	}

	rec := ToExternalRecord(req.Catalog, req.Answers, urls)
	if req.OwnerID != "" {
		rec.OwnerID = req.OwnerID
	}

	id, err := a.Creator.Create(ctx, rec)
	if err != nil {
		log.Error("record creation failed", "error", err, "images_uploaded", len(urls))
		return "", &SubmissionError{Stage: StageCreate, Retryable: retryable(err), Err: err}
	}

	if a.Drafts != nil && req.DraftKey != "" {
		if err := a.Drafts.Clear(ctx, req.DraftKey); err != nil {
			log.Warn("listing created but draft not cleared", "record_id", id, "error", err)
		}
	}
	log.Info("listing submitted", "record_id", id, "title", rec.Title)
	return id, nil
}

// Incomplete lists visible steps whose committed answer does not pass
// validation, in catalog order.
func Incomplete(cat *catalog.Catalog, answers catalog.Answers) []string {
	effective := cat.Prune(answers)
	var bad []string
	for _, s := range cat.Compute(effective) {
		if s.Kind == catalog.KindDerivedSummary {
			continue
		}
		if r := s.Validate(effective[s.ID], effective); !r.OK {
			bad = append(bad, s.ID)
		}
	}
	return bad
}

func retryable(err error) bool {
	return !errors.Is(err, context.Canceled)
}
