package audit

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"time"

	"github.com/google/uuid"

	"github.com/careplus/frontdesk/internal/model"
	"github.com/careplus/frontdesk/internal/repository"
	"github.com/careplus/frontdesk/pkg/errors"
	"github.com/careplus/frontdesk/pkg/logger"
)

// Actor is who performed an action. The session guard puts it on the
// request context.
type Actor struct {
	SessionID  string
	Identifier string
	Role       string
	IPAddress  string
	UserAgent  string
}

type actorKey struct{}

func WithActor(ctx context.Context, a Actor) context.Context {
	return context.WithValue(ctx, actorKey{}, a)
}

func ActorFrom(ctx context.Context) (Actor, bool) {
	a, ok := ctx.Value(actorKey{}).(Actor)
	return a, ok
}

// Entry is one action to record.
type Entry struct {
	Action     string
	EntityType string
	EntityID   string
	Err        error
	Message    string
	Metadata   interface{}
}

// Recorder is what front desk flows write to.
type Recorder interface {
	Record(ctx context.Context, e Entry)
}

type Service struct {
	repo repository.AuditRepository
	log  *logger.Logger
	now  func() time.Time
}

// NewService records to repo. A nil repo keeps the trail in the log only.
func NewService(repo repository.AuditRepository, log *logger.Logger) *Service {
	if log == nil {
		log = logger.Nop()
	}
	return &Service{repo: repo, log: log.Component("audit"), now: time.Now}
}

func (s *Service) Enabled() bool {
	return s.repo != nil
}

// Log builds the audit row for e and stores it.
func (s *Service) Log(ctx context.Context, e Entry) error {
	var metadata json.RawMessage
	if e.Metadata != nil {
		raw, err := json.Marshal(e.Metadata)
		if err != nil {
			return err
		}
		metadata = raw
	}

	actor, _ := ActorFrom(ctx)
	entry := &model.AuditLog{
		ID:         uuid.New(),
		SessionID:  actor.SessionID,
		Actor:      actor.Identifier,
		Role:       actor.Role,
		Action:     e.Action,
		EntityType: e.EntityType,
		EntityID:   e.EntityID,
		Outcome:    model.AuditOutcomeSuccess,
		Message:    e.Message,
		Metadata:   metadata,
		IPAddress:  actor.IPAddress,
		UserAgent:  actor.UserAgent,
		CreatedAt:  s.now().UTC(),
	}
	if e.Err != nil {
		entry.Outcome = model.AuditOutcomeFailure
		if appErr, ok := errors.As(e.Err); ok {
			entry.Message = appErr.Message
		} else {
			entry.Message = e.Err.Error()
		}
	}

	s.log.Info("Front desk action",
		"actor", entry.Actor,
		"role", entry.Role,
		"action", entry.Action,
		"entity_type", entry.EntityType,
		"entity_id", entry.EntityID,
		"outcome", entry.Outcome,
	)

	if s.repo == nil {
		return nil
	}
	return s.repo.Create(ctx, entry)
}

func (s *Service) List(ctx context.Context, filter model.AuditFilter) ([]*model.AuditLog, int64, error) {
	if s.repo == nil {
		return nil, 0, errors.Unavailable(stderrors.New("audit store is not configured"))
	}
	return s.repo.ListWithPagination(ctx, filter)
}

func (s *Service) Cleanup(ctx context.Context, before time.Time) (int64, error) {
	if s.repo == nil {
		return 0, nil
	}
	return s.repo.Cleanup(ctx, before)
}
