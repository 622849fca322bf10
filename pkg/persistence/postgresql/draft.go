package postgresql

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/helixworks/intake/pkg/models"
	"github.com/helixworks/intake/pkg/persistence"
)

// activeDraftKey identifies the single active draft row. The intake serves
// one session owner per deployment, matching the browser-local storage model
// of the hosted product.
const activeDraftKey = "active"

// DraftRepository stores the active draft as a JSONB document.
type DraftRepository struct {
	db *sql.DB
}

// NewDraftRepository creates a new draft repository.
func NewDraftRepository(db *sql.DB) *DraftRepository {
	return &DraftRepository{db: db}
}

func (dr *DraftRepository) Save(ctx context.Context, draft *models.Draft) error {
	draft.Timestamp = time.Now().UTC()

	document, err := json.Marshal(draft)
	if err != nil {
		return persistence.NewDraftError("Save", activeDraftKey, err)
	}

	_, err = dr.db.ExecContext(ctx, `
		INSERT INTO drafts (key, document, updated_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (key) DO UPDATE SET document = $2, updated_at = $3
	`, activeDraftKey, document, draft.Timestamp)
	if err != nil {
		return persistence.NewDraftError("Save", activeDraftKey, err)
	}

	return nil
}

func (dr *DraftRepository) Load(ctx context.Context) (*models.Draft, error) {
	var document []byte

	err := dr.db.QueryRowContext(ctx,
		"SELECT document FROM drafts WHERE key = $1", activeDraftKey,
	).Scan(&document)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, persistence.ErrDraftNotFound
		}

		return nil, persistence.NewDraftError("Load", activeDraftKey, err)
	}

	return persistence.DecodeDraft(document)
}

func (dr *DraftRepository) Clear(ctx context.Context) error {
	_, err := dr.db.ExecContext(ctx, "DELETE FROM drafts WHERE key = $1", activeDraftKey)
	if err != nil {
		return persistence.NewDraftError("Clear", activeDraftKey, err)
	}

	return nil
}

// SavedDraftRepository stores save-for-later records.
type SavedDraftRepository struct {
	db *sql.DB
}

// NewSavedDraftRepository creates a new saved-draft repository.
func NewSavedDraftRepository(db *sql.DB) *SavedDraftRepository {
	return &SavedDraftRepository{db: db}
}

func (sr *SavedDraftRepository) Save(ctx context.Context, saved *models.SavedDraft) error {
	document, err := json.Marshal(saved)
	if err != nil {
		return persistence.NewDraftError("Save", saved.Key, err)
	}

	_, err = sr.db.ExecContext(ctx, `
		INSERT INTO saved_drafts (key, email, document, created_at)
		VALUES ($1, $2, $3, $4)
	`, saved.Key, saved.Email, document, saved.CreatedAt)
	if err != nil {
		return persistence.NewDraftError("Save", saved.Key, err)
	}

	return nil
}

func (sr *SavedDraftRepository) Get(ctx context.Context, key string) (*models.SavedDraft, error) {
	var document []byte

	err := sr.db.QueryRowContext(ctx,
		"SELECT document FROM saved_drafts WHERE key = $1", key,
	).Scan(&document)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, persistence.ErrSavedDraftNotFound
		}

		return nil, persistence.NewDraftError("Get", key, err)
	}

	var record models.SavedDraft
	if err := json.Unmarshal(document, &record); err != nil {
		return nil, persistence.NewDraftError("Get", key, err)
	}

	return &record, nil
}

func (sr *SavedDraftRepository) List(ctx context.Context) ([]*models.SavedDraft, error) {
	rows, err := sr.db.QueryContext(ctx,
		"SELECT document FROM saved_drafts ORDER BY created_at ASC")
	if err != nil {
		return nil, fmt.Errorf("failed to list saved drafts: %w", err)
	}
	defer rows.Close()

	saved := make([]*models.SavedDraft, 0)

	for rows.Next() {
		var document []byte
		if err := rows.Scan(&document); err != nil {
			return nil, fmt.Errorf("failed to scan saved draft: %w", err)
		}

		var record models.SavedDraft
		if err := json.Unmarshal(document, &record); err != nil {
			continue
		}

		saved = append(saved, &record)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate saved drafts: %w", err)
	}

	return saved, nil
}
