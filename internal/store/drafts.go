// internal/store/drafts.go
package store

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	stderrors "grantflow/internal/common/errors"
	"grantflow/internal/models"
)

// DraftStore persists in-flight application drafts keyed by
// user + opportunity.
type DraftStore interface {
	SaveDraft(ctx context.Context, draft *models.Draft) error
	LoadDraft(ctx context.Context, userID, opportunityID string) (*models.Draft, error)
	DeleteDraft(ctx context.Context, userID, opportunityID string) error
}

func draftKey(userID, opportunityID string) string {
	return "draft:" + userID + ":" + opportunityID
}

// RedisDraftStore keeps drafts in Redis with an expiry.
type RedisDraftStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisDraftStore(client *redis.Client, ttl time.Duration) *RedisDraftStore {
	return &RedisDraftStore{client: client, ttl: ttl}
}

func (s *RedisDraftStore) SaveDraft(ctx context.Context, draft *models.Draft) error {
	raw, err := json.Marshal(draft)
	if err != nil {
		return stderrors.NewDraftSaveFailedError(err)
	}
	key := draftKey(draft.UserID, draft.OpportunityID)
	if err := s.client.Set(ctx, key, raw, s.ttl).Err(); err != nil {
		return stderrors.NewDraftSaveFailedError(err)
	}
	return nil
}

// LoadDraft returns (nil, nil) when no draft exists for the pair.
func (s *RedisDraftStore) LoadDraft(ctx context.Context, userID, opportunityID string) (*models.Draft, error) {
	raw, err := s.client.Get(ctx, draftKey(userID, opportunityID)).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, stderrors.NewDraftLoadFailedError(err)
	}

	var draft models.Draft
	if err := json.Unmarshal([]byte(raw), &draft); err != nil {
		return nil, stderrors.NewDraftLoadFailedError(err)
	}
	return &draft, nil
}

func (s *RedisDraftStore) DeleteDraft(ctx context.Context, userID, opportunityID string) error {
	return s.client.Del(ctx, draftKey(userID, opportunityID)).Err()
}

// MemoryDraftStore is the in-process variant used by tests and
// single-binary runs.
type MemoryDraftStore struct {
	mu     sync.RWMutex
	drafts map[string]*models.Draft
}

func NewMemoryDraftStore() *MemoryDraftStore {
	return &MemoryDraftStore{drafts: make(map[string]*models.Draft)}
}

func (s *MemoryDraftStore) SaveDraft(_ context.Context, draft *models.Draft) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	copied := *draft
	s.drafts[draftKey(draft.UserID, draft.OpportunityID)] = &copied
	return nil
}

func (s *MemoryDraftStore) LoadDraft(_ context.Context, userID, opportunityID string) (*models.Draft, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if draft, ok := s.drafts[draftKey(userID, opportunityID)]; ok {
		copied := *draft
		return &copied, nil
	}
	return nil, nil
}

func (s *MemoryDraftStore) DeleteDraft(_ context.Context, userID, opportunityID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.drafts, draftKey(userID, opportunityID))
	return nil
}
