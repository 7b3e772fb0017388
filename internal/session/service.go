// Package session signs users in, issues their tokens and guards every
// authenticated route.
package session

import (
	"context"
	stderrors "errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/careplus/frontdesk/internal/clinicapi"
	"github.com/careplus/frontdesk/internal/model"
	"github.com/careplus/frontdesk/internal/service/audit"
	"github.com/careplus/frontdesk/pkg/auth"
	"github.com/careplus/frontdesk/pkg/errors"
	"github.com/careplus/frontdesk/pkg/logger"
	"github.com/careplus/frontdesk/pkg/metrics"
	"github.com/careplus/frontdesk/pkg/security"
)

const (
	MsgInvalidLogin = "Invalid ID/Number or Password"
	MsgSignIn       = "Please sign in."
	MsgWrongRole    = "You do not have access to this page."
)

// Admin is the configured administrator account.
type Admin struct {
	Identifier   string
	PasswordHash string
	Name         string
}

type Config struct {
	Admin Admin
}

type Service struct {
	api     clinicapi.API
	tokens  auth.JWTService
	store   Store
	hasher  security.PasswordHasher
	cfg     Config
	auditor audit.Recorder
	metrics *metrics.Metrics
	log     *logger.Logger
	now     func() time.Time
}

func NewService(api clinicapi.API, tokens auth.JWTService, store Store, cfg Config, auditor audit.Recorder, m *metrics.Metrics, log *logger.Logger) *Service {
	if auditor == nil {
		auditor = audit.Nop{}
	}
	if log == nil {
		log = logger.Nop()
	}
	return &Service{
		api:     api,
		tokens:  tokens,
		store:   store,
		hasher:  security.NewBcryptHasher(0),
		cfg:     cfg,
		auditor: auditor,
		metrics: m,
		log:     log.Component("session"),
		now:     time.Now,
	}
}

// Login checks the credentials for role and issues a token. Every failure
// reads the same to the user.
func (s *Service) Login(ctx context.Context, role model.Role, req model.LoginRequest) (*model.TokenResponse, error) {
	identifier := strings.TrimSpace(req.Identifier)

	name, err := s.authenticate(ctx, role, identifier, req.Password)
	if err != nil {
		s.log.Warn("Login failed", "role", string(role), "identifier", identifier, "error", err.Error())
		s.record(ctx, audit.Actor{Identifier: identifier, Role: string(role)}, model.AuditActionLogin, "", err)
		return nil, invalidLogin(err)
	}

	sess := &model.Session{
		ID:         uuid.NewString(),
		Role:       role,
		Identifier: identifier,
		Name:       name,
		IssuedAt:   s.now().UTC(),
	}
	token, expires, err := s.tokens.GenerateToken(sess.ID, identifier, string(role), name)
	if err != nil {
		return nil, errors.Internal(err)
	}
	sess.ExpiresAt = expires.UTC()

	if err := s.store.Save(ctx, sess, expires.Sub(s.now())); err != nil {
		return nil, errors.Internal(fmt.Errorf("store session: %w", err))
	}

	if s.metrics != nil {
		s.metrics.SessionEvents.WithLabelValues("login", string(role)).Inc()
	}
	s.record(ctx, actorOf(ctx, sess), model.AuditActionLogin, sess.ID, nil)
	s.log.Info("Signed in", "role", string(role), "identifier", identifier, "session_id", sess.ID)

	return &model.TokenResponse{
		AccessToken: token,
		ExpiresAt:   sess.ExpiresAt,
		Role:        role,
		Name:        name,
	}, nil
}

func (s *Service) authenticate(ctx context.Context, role model.Role, identifier, password string) (string, error) {
	if identifier == "" || password == "" {
		return "", stderrors.New("missing credentials")
	}

	switch role {
	case model.RoleReceptionist:
		resp, err := s.api.LoginReceptionist(ctx, identifier, password)
		if err != nil {
			return "", err
		}
		return resp.Name, nil
	case model.RoleAdmin:
		admin := s.cfg.Admin
		if admin.Identifier == "" || admin.PasswordHash == "" {
			return "", stderrors.New("admin login is not configured")
		}
		if identifier != admin.Identifier {
			return "", stderrors.New("unknown admin")
		}
		if err := s.hasher.Compare(admin.PasswordHash, password); err != nil {
			return "", err
		}
		if admin.Name == "" {
			return "Admin", nil
		}
		return admin.Name, nil
	default:
		return "", fmt.Errorf("unknown role %q", role)
	}
}

// Authenticate resolves a bearer token to its live session.
func (s *Service) Authenticate(ctx context.Context, token string) (*model.Session, error) {
	claims, err := s.tokens.ValidateToken(token)
	if err != nil {
		return nil, errors.Unauthorized(err)
	}

	sess, err := s.store.Get(ctx, claims.SessionID())
	if err != nil {
		if stderrors.Is(err, ErrNotFound) {
			return nil, errors.Unauthorized(err)
		}
		return nil, errors.Internal(err)
	}
	if string(sess.Role) != claims.Role {
		return nil, errors.Unauthorized(stderrors.New("role mismatch"))
	}
	return sess, nil
}

// Logout deletes the session record, revoking its token.
func (s *Service) Logout(ctx context.Context, sess *model.Session) error {
	if err := s.store.Delete(ctx, sess.ID); err != nil {
		return errors.Internal(err)
	}
	if s.metrics != nil {
		s.metrics.SessionEvents.WithLabelValues("logout", string(sess.Role)).Inc()
	}
	s.record(ctx, actorOf(ctx, sess), model.AuditActionLogout, sess.ID, nil)
	s.log.Info("Signed out", "role", string(sess.Role), "session_id", sess.ID)
	return nil
}

func (s *Service) Ping(ctx context.Context) error {
	return s.store.Ping(ctx)
}

func (s *Service) record(ctx context.Context, actor audit.Actor, action, sessionID string, err error) {
	s.auditor.Record(audit.WithActor(ctx, actor), audit.Entry{
		Action:     action,
		EntityType: model.AuditEntitySession,
		EntityID:   sessionID,
		Err:        err,
	})
}

// actorOf keeps the request details already on ctx and fills in the session.
func actorOf(ctx context.Context, sess *model.Session) audit.Actor {
	a, _ := audit.ActorFrom(ctx)
	a.SessionID = sess.ID
	a.Identifier = sess.Identifier
	a.Role = string(sess.Role)
	return a
}

func invalidLogin(err error) *errors.AppError {
	return &errors.AppError{Code: errors.ErrUnauthorized, Message: MsgInvalidLogin, Err: err}
}
