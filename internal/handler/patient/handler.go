package patient

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
	patients := r.Group("/patients")
	{
		patients.POST("", h.CreatePatient)
		patients.PUT("/:id", h.UpdatePatient)
	}
}

func (h *Handler) CreatePatient(c *gin.Context) {
	var req model.PatientRequest
	if !handler.Bind(c, &req) {
		return
	}
	modal, err := h.forms.CreatePatient(c.Request.Context(), req)
	handler.RespondModal(c, modal, err)
}

func (h *Handler) UpdatePatient(c *gin.Context) {
	id, ok := handler.ParseID(c, "id")
	if !ok {
		return
	}
	var req model.PatientRequest
	if !handler.Bind(c, &req) {
		return
	}
	modal, err := h.forms.UpdatePatient(c.Request.Context(), id, req)
	handler.RespondModal(c, modal, err)
}
