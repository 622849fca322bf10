package file

import (
	"context"
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/helixworks/intake/pkg/models"
	"github.com/helixworks/intake/pkg/persistence"
)

const draftFileName = "draft.json"

const savedDirName = "saved"

// DraftRepository stores the active draft as a single JSON document.
type DraftRepository struct {
	root string
}

// NewDraftRepository creates a new draft repository.
func NewDraftRepository(root string) *DraftRepository {
	return &DraftRepository{root: root}
}

func (dr *DraftRepository) path() string {
	return filepath.Join(dr.root, draftFileName)
}

// Save writes the draft, stamping it with the current time.
func (dr *DraftRepository) Save(_ context.Context, draft *models.Draft) error {
	if err := os.MkdirAll(dr.root, 0o755); err != nil {
		return persistence.NewDraftError("Save", draftFileName, err)
	}

	draft.Timestamp = time.Now().UTC()

	data, err := json.MarshalIndent(draft, "", "  ")
	if err != nil {
		return persistence.NewDraftError("Save", draftFileName, err)
	}

	if err := os.WriteFile(dr.path(), data, 0o644); err != nil {
		return persistence.NewDraftError("Save", draftFileName, err)
	}

	return nil
}

// Load reads the active draft. A missing or unreadable file is reported as
// ErrDraftNotFound.
func (dr *DraftRepository) Load(_ context.Context) (*models.Draft, error) {
	data, err := os.ReadFile(dr.path())
	if err != nil {
		if os.IsNotExist(err) {
			return nil, persistence.ErrDraftNotFound
		}

		return nil, persistence.NewDraftError("Load", draftFileName, err)
	}

	return persistence.DecodeDraft(data)
}

// Clear removes the active draft. Clearing an absent draft is not an error.
func (dr *DraftRepository) Clear(_ context.Context) error {
	err := os.Remove(dr.path())
	if err != nil && !os.IsNotExist(err) {
		return persistence.NewDraftError("Clear", draftFileName, err)
	}

	return nil
}

// SavedDraftRepository stores save-for-later records, one JSON document per
// save, named by the record key.
type SavedDraftRepository struct {
	root string
}

// NewSavedDraftRepository creates a new saved-draft repository.
func NewSavedDraftRepository(root string) *SavedDraftRepository {
	return &SavedDraftRepository{root: root}
}

func (sr *SavedDraftRepository) dir() string {
	return filepath.Join(sr.root, savedDirName)
}

// Save writes one saved record under its key.
func (sr *SavedDraftRepository) Save(_ context.Context, saved *models.SavedDraft) error {
	if err := os.MkdirAll(sr.dir(), 0o755); err != nil {
		return persistence.NewDraftError("Save", saved.Key, err)
	}

	data, err := json.MarshalIndent(saved, "", "  ")
	if err != nil {
		return persistence.NewDraftError("Save", saved.Key, err)
	}

	target := filepath.Join(sr.dir(), saved.Key+".json")
	if err := os.WriteFile(target, data, 0o644); err != nil {
		return persistence.NewDraftError("Save", saved.Key, err)
	}

	return nil
}

// Get reads one saved record by key.
func (sr *SavedDraftRepository) Get(_ context.Context, key string) (*models.SavedDraft, error) {
	data, err := os.ReadFile(filepath.Join(sr.dir(), key+".json"))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, persistence.ErrSavedDraftNotFound
		}

		return nil, persistence.NewDraftError("Get", key, err)
	}

	var record models.SavedDraft
	if err := json.Unmarshal(data, &record); err != nil {
		return nil, persistence.NewDraftError("Get", key, err)
	}

	return &record, nil
}

// List returns all saved records ordered by creation time, oldest first.
// Unreadable entries are skipped rather than failing the whole listing.
func (sr *SavedDraftRepository) List(_ context.Context) ([]*models.SavedDraft, error) {
	root := os.DirFS(sr.dir())

	jsonFiles, err := fs.Glob(root, "*.json")
	if err != nil {
		return nil, fmt.Errorf("failed to list saved drafts: %w", err)
	}

	saved := make([]*models.SavedDraft, 0, len(jsonFiles))

	for _, file := range jsonFiles {
		data, err := os.ReadFile(filepath.Join(sr.dir(), file))
		if err != nil {
			continue
		}

		var record models.SavedDraft
		if err := json.Unmarshal(data, &record); err != nil {
			continue
		}

		saved = append(saved, &record)
	}

	sort.Slice(saved, func(i, j int) bool {
		return saved[i].CreatedAt.Before(saved[j].CreatedAt)
	})

	return saved, nil
}
