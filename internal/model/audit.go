package model

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// AuditLog records one front desk action.
type AuditLog struct {
	ID         uuid.UUID       `json:"id" db:"id"`
	SessionID  string          `json:"session_id" db:"session_id"`
	Actor      string          `json:"actor" db:"actor"`
	Role       string          `json:"role" db:"role"`
	Action     string          `json:"action" db:"action"`
	EntityType string          `json:"entity_type" db:"entity_type"`
	EntityID   string          `json:"entity_id" db:"entity_id"`
	Outcome    string          `json:"outcome" db:"outcome"`
	Message    string          `json:"message" db:"message"`
	Metadata   json.RawMessage `json:"metadata,omitempty" db:"metadata"`
	IPAddress  string          `json:"ip_address" db:"ip_address"`
	UserAgent  string          `json:"user_agent" db:"user_agent"`
	CreatedAt  time.Time       `json:"created_at" db:"created_at"`
}

const (
	// Action types
	AuditActionCreate     = "create"
	AuditActionUpdate     = "update"
	AuditActionDelete     = "delete"
	AuditActionBook       = "book"
	AuditActionReschedule = "reschedule"
	AuditActionLogin      = "login"
	AuditActionLogout     = "logout"

	// Entity types
	AuditEntitySession      = "session"
	AuditEntityPatient      = "patient"
	AuditEntityDoctor       = "doctor"
	AuditEntityAvailability = "availability"
	AuditEntityAppointment  = "appointment"
	AuditEntityReceptionist = "receptionist"

	AuditOutcomeSuccess = "success"
	AuditOutcomeFailure = "failure"
)

// AuditFilter narrows an audit listing. Zero values are ignored.
type AuditFilter struct {
	Actor      string    `form:"actor"`
	Action     string    `form:"action"`
	EntityType string    `form:"entity_type"`
	From       time.Time `form:"from" time_format:"2006-01-02"`
	To         time.Time `form:"to" time_format:"2006-01-02"`
	Limit      int       `form:"limit"`
	Offset     int       `form:"offset"`
}
