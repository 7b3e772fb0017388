package audit

import (
	"encoding/csv"
	"fmt"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/careplus/frontdesk/internal/model"
	"github.com/careplus/frontdesk/internal/service/audit"
	"github.com/careplus/frontdesk/pkg/errors"
	"github.com/careplus/frontdesk/pkg/httputil"
)

const maxLimit = 500

type Handler struct {
	service *audit.Service
}

func NewHandler(service *audit.Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	r.GET("/audit", h.ListLogs)
}

type ListResponse struct {
	Items []*model.AuditLog `json:"items"`
	Total int64             `json:"total"`
}

// ListLogs pages through the audit trail. ?format=csv downloads the page.
func (h *Handler) ListLogs(c *gin.Context) {
	var filter model.AuditFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		httputil.RespondWithError(c, errors.BadRequest("invalid audit filter", err))
		return
	}
	if filter.Limit <= 0 || filter.Limit > maxLimit {
		filter.Limit = 50
	}
	if filter.Offset < 0 {
		filter.Offset = 0
	}

	logs, total, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	switch c.DefaultQuery("format", "json") {
	case "csv":
		writeCSV(c, logs)
	default:
		httputil.RespondWithSuccess(c, ListResponse{Items: logs, Total: total})
	}
}

func writeCSV(c *gin.Context, logs []*model.AuditLog) {
	filename := fmt.Sprintf("audit_logs_%s.csv", time.Now().Format("20060102_150405"))
	c.Header("Content-Type", "text/csv")
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%s", filename))

	w := csv.NewWriter(c.Writer)
	_ = w.Write([]string{"ID", "Actor", "Role", "Action", "Entity Type", "Entity ID", "Outcome", "Message", "Created At"})
	for _, l := range logs {
		_ = w.Write([]string{
			l.ID.String(),
			l.Actor,
			l.Role,
			l.Action,
			l.EntityType,
			l.EntityID,
			l.Outcome,
			l.Message,
			l.CreatedAt.Format(time.RFC3339),
		})
	}
	w.Flush()
}
