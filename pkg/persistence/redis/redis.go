// Package redis provides Redis-backed persistence for drafts and saved
// records, used when the intake runs behind a shared host application.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/helixworks/intake/pkg/models"
	"github.com/helixworks/intake/pkg/persistence"
)

const (
	draftKey       = "intake:draft"
	savedKeyPrefix = "intake:saved:"
)

// Persistence implements the persistence.Persistence interface on Redis.
type Persistence struct {
	client    goredis.UniversalClient
	draftRepo *DraftRepository
	savedRepo *SavedDraftRepository
}

// NewPersistence connects to the Redis instance at the given URL
// (redis://host:port/db).
func NewPersistence(ctx context.Context, redisURL string) (*Persistence, error) {
	opts, err := goredis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis URL: %w", err)
	}

	client := goredis.NewClient(opts)

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}

	return NewPersistenceWithClient(client), nil
}

// NewPersistenceWithClient wraps an existing client. Tests use this with
// miniredis.
func NewPersistenceWithClient(client goredis.UniversalClient) *Persistence {
	return &Persistence{
		client:    client,
		draftRepo: &DraftRepository{client: client},
		savedRepo: &SavedDraftRepository{client: client},
	}
}

func (p *Persistence) Drafts() persistence.DraftRepository {
	return p.draftRepo
}

func (p *Persistence) Saved() persistence.SavedDraftRepository {
	return p.savedRepo
}

// HealthCheck verifies the connection is alive.
func (p *Persistence) HealthCheck(ctx context.Context) error {
	if err := p.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("failed to ping redis: %w", err)
	}

	return nil
}

// Close closes the underlying client.
func (p *Persistence) Close(_ context.Context) error {
	return p.client.Close()
}

// DraftRepository stores the active draft under a single fixed key.
type DraftRepository struct {
	client goredis.UniversalClient
}

func (dr *DraftRepository) Save(ctx context.Context, draft *models.Draft) error {
	draft.Timestamp = time.Now().UTC()

	data, err := json.Marshal(draft)
	if err != nil {
		return persistence.NewDraftError("Save", draftKey, err)
	}

	if err := dr.client.Set(ctx, draftKey, data, 0).Err(); err != nil {
		return persistence.NewDraftError("Save", draftKey, err)
	}

	return nil
}

func (dr *DraftRepository) Load(ctx context.Context) (*models.Draft, error) {
	data, err := dr.client.Get(ctx, draftKey).Bytes()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return nil, persistence.ErrDraftNotFound
		}

		return nil, persistence.NewDraftError("Load", draftKey, err)
	}

	return persistence.DecodeDraft(data)
}

func (dr *DraftRepository) Clear(ctx context.Context) error {
	if err := dr.client.Del(ctx, draftKey).Err(); err != nil {
		return persistence.NewDraftError("Clear", draftKey, err)
	}

	return nil
}

// SavedDraftRepository stores save-for-later records, one key per save.
type SavedDraftRepository struct {
	client goredis.UniversalClient
}

func (sr *SavedDraftRepository) Save(ctx context.Context, saved *models.SavedDraft) error {
	data, err := json.Marshal(saved)
	if err != nil {
		return persistence.NewDraftError("Save", saved.Key, err)
	}

	if err := sr.client.Set(ctx, savedKeyPrefix+saved.Key, data, 0).Err(); err != nil {
		return persistence.NewDraftError("Save", saved.Key, err)
	}

	return nil
}

func (sr *SavedDraftRepository) Get(ctx context.Context, key string) (*models.SavedDraft, error) {
	data, err := sr.client.Get(ctx, savedKeyPrefix+key).Bytes()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
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

func (sr *SavedDraftRepository) List(ctx context.Context) ([]*models.SavedDraft, error) {
	var (
		cursor uint64
		keys   []string
	)

	for {
		batch, next, err := sr.client.Scan(ctx, cursor, savedKeyPrefix+"*", 100).Result()
		if err != nil {
			return nil, fmt.Errorf("failed to scan saved drafts: %w", err)
		}

		keys = append(keys, batch...)
		cursor = next

		if cursor == 0 {
			break
		}
	}

	saved := make([]*models.SavedDraft, 0, len(keys))

	for _, key := range keys {
		data, err := sr.client.Get(ctx, key).Bytes()
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
