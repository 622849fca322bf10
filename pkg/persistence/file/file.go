// Package file provides file-based persistence for drafts and saved records.
package file

import (
	"context"
	"os"
	"strings"

	"github.com/helixworks/intake/pkg/persistence"
)

// Persistence implements the persistence.Persistence interface using the
// file system. Suited to local development and the single-user desktop case.
type Persistence struct {
	root      string
	draftRepo *DraftRepository
	savedRepo *SavedDraftRepository
}

// NewPersistence creates a new instance rooted at the given directory.
func NewPersistence(root string) *Persistence {
	cleanRoot := strings.Replace(root, "file://", "", 1)

	return &Persistence{
		root:      cleanRoot,
		draftRepo: NewDraftRepository(cleanRoot),
		savedRepo: NewSavedDraftRepository(cleanRoot),
	}
}

// Close performs any necessary cleanup. For file-based persistence, there is
// nothing to clean up.
func (fp *Persistence) Close(_ context.Context) error {
	return nil
}

// HealthCheck verifies the root directory exists.
func (fp *Persistence) HealthCheck(_ context.Context) error {
	if _, err := os.Stat(fp.root); os.IsNotExist(err) {
		return os.ErrNotExist
	}

	return nil
}

func (fp *Persistence) Drafts() persistence.DraftRepository {
	return fp.draftRepo
}

func (fp *Persistence) Saved() persistence.SavedDraftRepository {
	return fp.savedRepo
}
