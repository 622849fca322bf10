// Package persistence provides the storage abstraction for session drafts
// and save-for-later records.
package persistence

import (
	"context"

	"github.com/helixworks/intake/pkg/models"
)

// DraftRepository stores the single active draft for a session owner.
// Save is fire-and-forget from the session's point of view: a failed write
// is logged by the caller and never rolls back in-memory state. A corrupt
// stored draft is reported as ErrDraftNotFound, never surfaced to the user.
type DraftRepository interface {
	Save(ctx context.Context, draft *models.Draft) error
	Load(ctx context.Context) (*models.Draft, error)
	Clear(ctx context.Context) error
}

// SavedDraftRepository stores save-for-later records, one entry per save,
// keyed by creation time. Get reports a missing key as ErrSavedDraftNotFound.
type SavedDraftRepository interface {
	Save(ctx context.Context, saved *models.SavedDraft) error
	Get(ctx context.Context, key string) (*models.SavedDraft, error)
	List(ctx context.Context) ([]*models.SavedDraft, error)
}

type Persistence interface {
	Drafts() DraftRepository
	Saved() SavedDraftRepository
	HealthCheck(ctx context.Context) error

	Close(ctx context.Context) error
}
