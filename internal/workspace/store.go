package workspace

import (
	"sync"
	"time"

	"github.com/patrickmn/go-cache"

	"github.com/careplus/frontdesk/internal/model"
	"github.com/careplus/frontdesk/pkg/errors"
	"github.com/careplus/frontdesk/pkg/logger"
	"github.com/careplus/frontdesk/pkg/metrics"
)

// Store keeps one workspace per session and closes workspaces idle for
// longer than the idle TTL.
type Store struct {
	factory Factory
	idleTTL time.Duration
	cache   *cache.Cache
	metrics *metrics.Metrics
	log     *logger.Logger

	mu sync.Mutex
}

func NewStore(factory Factory, idleTTL, cleanupInterval time.Duration, m *metrics.Metrics, log *logger.Logger) *Store {
	if log == nil {
		log = logger.Nop()
	}
	s := &Store{
		factory: factory,
		idleTTL: idleTTL,
		cache:   cache.New(idleTTL, cleanupInterval),
		metrics: m,
		log:     log.Component("workspace"),
	}
	s.cache.OnEvicted(s.evicted)
	return s
}

func (s *Store) evicted(sessionID string, v interface{}) {
	if w, ok := v.(*Workspace); ok {
		w.Close()
	}
	if s.metrics != nil {
		s.metrics.Workspaces.Dec()
	}
	s.log.Debug("Workspace closed", "session_id", sessionID)
}

// For returns the session's workspace, creating it on first use. Every call
// restarts the idle timer.
func (s *Store) For(sess *model.Session) (*Workspace, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if v, ok := s.cache.Get(sess.ID); ok {
		w := v.(*Workspace)
		if w.Role != sess.Role {
			return nil, errors.Forbidden("workspace belongs to another role")
		}
		s.cache.Set(sess.ID, w, s.idleTTL)
		return w, nil
	}

	// An expired entry the janitor has not purged yet is still held; Delete
	// runs the eviction hook for it, Set would not.
	s.cache.Delete(sess.ID)

	w := s.factory.New(sess)
	s.cache.Set(sess.ID, w, s.idleTTL)
	if s.metrics != nil {
		s.metrics.Workspaces.Inc()
	}
	s.log.Debug("Workspace opened", "session_id", sess.ID, "role", string(sess.Role))
	return w, nil
}

// Drop closes a session's workspace, e.g. on logout.
func (s *Store) Drop(sessionID string) {
	s.cache.Delete(sessionID)
}

func (s *Store) Len() int {
	return s.cache.ItemCount()
}

// Close closes every workspace.
func (s *Store) Close() {
	s.cache.DeleteExpired()
	for id := range s.cache.Items() {
		s.cache.Delete(id)
	}
}
