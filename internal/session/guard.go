package session

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/careplus/frontdesk/internal/model"
	"github.com/careplus/frontdesk/internal/service/audit"
	"github.com/careplus/frontdesk/pkg/errors"
	"github.com/careplus/frontdesk/pkg/httputil"
)

const contextKey = "session"

// Redirect tells the client where to sign in.
type Redirect struct {
	Redirect string `json:"redirect"`
}

// Guard admits requests carrying a live session of one of roles. Missing or
// revoked credentials get 401 with the login page to go to; a live session
// of another role gets 403.
func (s *Service) Guard(roles ...model.Role) gin.HandlerFunc {
	loginPath := model.RoleReceptionist.LoginPath()
	if len(roles) == 1 {
		loginPath = roles[0].LoginPath()
	}

	return func(c *gin.Context) {
		token, ok := bearer(c.GetHeader("Authorization"))
		if !ok {
			unauthorized(c, loginPath, nil)
			return
		}

		sess, err := s.Authenticate(c.Request.Context(), token)
		if err != nil {
			if errors.Is(err, errors.ErrUnauthorized) {
				unauthorized(c, loginPath, err)
				return
			}
			httputil.RespondWithError(c, err)
			return
		}

		if !allowed(sess.Role, roles) {
			httputil.RespondWithErrorData(c, errors.Forbidden(MsgWrongRole), Redirect{Redirect: sess.Role.LoginPath()})
			return
		}

		c.Set(contextKey, sess)
		c.Request = c.Request.WithContext(audit.WithActor(c.Request.Context(), audit.Actor{
			SessionID:  sess.ID,
			Identifier: sess.Identifier,
			Role:       string(sess.Role),
			IPAddress:  c.ClientIP(),
			UserAgent:  c.Request.UserAgent(),
		}))
		c.Next()
	}
}

// FromContext returns the session the guard admitted.
func FromContext(c *gin.Context) (*model.Session, bool) {
	v, ok := c.Get(contextKey)
	if !ok {
		return nil, false
	}
	sess, ok := v.(*model.Session)
	return sess, ok
}

func bearer(header string) (string, bool) {
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || parts[0] != "Bearer" || strings.TrimSpace(parts[1]) == "" {
		return "", false
	}
	return strings.TrimSpace(parts[1]), true
}

func allowed(role model.Role, roles []model.Role) bool {
	if len(roles) == 0 {
		return true
	}
	for _, r := range roles {
		if r == role {
			return true
		}
	}
	return false
}

func unauthorized(c *gin.Context, loginPath string, cause error) {
	err := &errors.AppError{Code: errors.ErrUnauthorized, Message: MsgSignIn, Err: cause}
	httputil.RespondWithErrorData(c, err, Redirect{Redirect: loginPath})
}
