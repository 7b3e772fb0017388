package session

import (
	"context"
	stderrors "errors"
	"time"

	"github.com/patrickmn/go-cache"

	"github.com/careplus/frontdesk/internal/model"
)

var ErrNotFound = stderrors.New("session not found")

// Store keeps the session records behind issued tokens.
type Store interface {
	Save(ctx context.Context, s *model.Session, ttl time.Duration) error
	Get(ctx context.Context, id string) (*model.Session, error)
	Delete(ctx context.Context, id string) error
	Ping(ctx context.Context) error
}

// MemoryStore keeps sessions in process. Sessions are lost on restart.
type MemoryStore struct {
	cache *cache.Cache
}

func NewMemoryStore(cleanupInterval time.Duration) *MemoryStore {
	return &MemoryStore{cache: cache.New(cache.NoExpiration, cleanupInterval)}
}

func (m *MemoryStore) Save(_ context.Context, s *model.Session, ttl time.Duration) error {
	stored := *s
	m.cache.Set(s.ID, &stored, ttl)
	return nil
}

func (m *MemoryStore) Get(_ context.Context, id string) (*model.Session, error) {
	v, ok := m.cache.Get(id)
	if !ok {
		return nil, ErrNotFound
	}
	s := *v.(*model.Session)
	return &s, nil
}

func (m *MemoryStore) Delete(_ context.Context, id string) error {
	m.cache.Delete(id)
	return nil
}

func (m *MemoryStore) Ping(context.Context) error {
	return nil
}
