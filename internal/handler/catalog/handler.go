package catalog

import (
	"github.com/gin-gonic/gin"

	"github.com/careplus/frontdesk/internal/catalog"
	"github.com/careplus/frontdesk/pkg/httputil"
)

type Handler struct {
	catalog *catalog.Catalog
}

func NewHandler(c *catalog.Catalog) *Handler {
	return &Handler{catalog: c}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	catalog := r.Group("/catalog")
	{
		catalog.GET("/specialists", h.Specialists)
		catalog.GET("/time-options", h.TimeOptions)
	}
}

func (h *Handler) Specialists(c *gin.Context) {
	httputil.RespondWithSuccess(c, h.catalog.Specialists())
}

func (h *Handler) TimeOptions(c *gin.Context) {
	httputil.RespondWithSuccess(c, h.catalog.TimeOptions())
}
