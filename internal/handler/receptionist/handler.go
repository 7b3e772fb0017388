package receptionist

import (
	"github.com/gin-gonic/gin"

	"github.com/careplus/frontdesk/internal/forms"
	"github.com/careplus/frontdesk/internal/handler"
	"github.com/careplus/frontdesk/internal/model"
)

type Handler struct {
	forms *forms.Service
}

func NewHandler(forms *forms.Service) *Handler {
	return &Handler{forms: forms}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	receptionists := r.Group("/receptionists")
	{
		receptionists.POST("", h.CreateReceptionist)
		receptionists.PUT("/:id", h.UpdateReceptionist)
	}
}

func (h *Handler) CreateReceptionist(c *gin.Context) {
	var req model.ReceptionistRequest
	if !handler.Bind(c, &req) {
		return
	}
	modal, err := h.forms.CreateReceptionist(c.Request.Context(), req)
	handler.RespondModal(c, modal, err)
}

func (h *Handler) UpdateReceptionist(c *gin.Context) {
	id, ok := handler.ParseID(c, "id")
	if !ok {
		return
	}
	var req model.ReceptionistRequest
	if !handler.Bind(c, &req) {
		return
	}
	modal, err := h.forms.UpdateReceptionist(c.Request.Context(), id, req)
	handler.RespondModal(c, modal, err)
}
