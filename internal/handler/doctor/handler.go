package doctor

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/careplus/frontdesk/internal/clinicapi"
	"github.com/careplus/frontdesk/internal/forms"
	"github.com/careplus/frontdesk/internal/handler"
	"github.com/careplus/frontdesk/internal/model"
	"github.com/careplus/frontdesk/internal/workspace"
	"github.com/careplus/frontdesk/pkg/logger"
)

type Handler struct {
	forms *forms.Service
	api   clinicapi.API
	desk  handler.Desk
	log   *logger.Logger
}

func NewHandler(forms *forms.Service, api clinicapi.API, workspaces *workspace.Store, log *logger.Logger) *Handler {
	if log == nil {
		log = logger.Nop()
	}
	return &Handler{
		forms: forms,
		api:   api,
		desk:  handler.Desk{Workspaces: workspaces},
		log:   log.Component("doctor_handler"),
	}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	doctors := r.Group("/doctors")
	{
		doctors.POST("", h.CreateDoctor)
		doctors.POST("/availability", h.AddAvailability)
		doctors.PUT("/:id", h.UpdateDoctor)
	}
}

func (h *Handler) CreateDoctor(c *gin.Context) {
	var req model.DoctorRequest
	if !handler.Bind(c, &req) {
		return
	}
	modal, err := h.forms.CreateDoctor(c.Request.Context(), req)
	handler.RespondModal(c, modal, err)
}

func (h *Handler) UpdateDoctor(c *gin.Context) {
	id, ok := handler.ParseID(c, "id")
	if !ok {
		return
	}
	var req model.DoctorRequest
	if !handler.Bind(c, &req) {
		return
	}
	modal, err := h.forms.UpdateDoctor(c.Request.Context(), id, req)
	handler.RespondModal(c, modal, err)
}

// AddAvailability opens a date for a doctor. Without a doctorId the doctor
// selected in the doctors panel is used, and that panel is refreshed after.
func (h *Handler) AddAvailability(c *gin.Context) {
	var req model.AvailabilityRequest
	if !handler.Bind(c, &req) {
		return
	}
	ws, ok := h.desk.Workspace(c)
	if !ok {
		return
	}
	if req.DoctorID == 0 {
		if d, selected := ws.SelectedDoctor(); selected {
			req.DoctorID = d.Doctor.DoctorID
		}
	}

	modal, err := h.forms.AddAvailability(c.Request.Context(), req)
	if err == nil {
		h.refresh(c, ws, req.DoctorID)
	}
	handler.RespondModal(c, modal, err)
}

func (h *Handler) refresh(c *gin.Context, ws *workspace.Workspace, doctorID int64) {
	d, err := h.api.GetDoctor(c.Request.Context(), strconv.FormatInt(doctorID, 10))
	if err != nil {
		h.log.Error(err, "Refreshing doctor calendar failed", "doctor_id", doctorID)
		return
	}
	ws.RefreshDoctor(*d)
}
