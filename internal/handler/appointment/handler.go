package appointment

import (
	"github.com/gin-gonic/gin"

	"github.com/careplus/frontdesk/internal/booking"
	"github.com/careplus/frontdesk/internal/handler"
	"github.com/careplus/frontdesk/internal/model"
	"github.com/careplus/frontdesk/pkg/httputil"
)

type Handler struct {
	appointments *booking.Appointments
}

func NewHandler(appointments *booking.Appointments) *Handler {
	return &Handler{appointments: appointments}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	appointments := r.Group("/appointments")
	{
		appointments.GET("", h.ListAppointments)
		appointments.GET("/by-doctor", h.ByDoctor)
		appointments.GET("/:id", h.GetAppointment)
		appointments.PUT("/:id", h.Reschedule)
	}
}

func (h *Handler) ListAppointments(c *gin.Context) {
	list, err := h.appointments.List(c.Request.Context())
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, list)
}

// ByDoctor filters by ?doctorId= or ?name=.
func (h *Handler) ByDoctor(c *gin.Context) {
	list, err := h.appointments.ByDoctor(c.Request.Context(), c.Query("doctorId"), c.Query("name"))
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, list)
}

func (h *Handler) GetAppointment(c *gin.Context) {
	appt, err := h.appointments.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, appt)
}

func (h *Handler) Reschedule(c *gin.Context) {
	id, ok := handler.ParseID(c, "id")
	if !ok {
		return
	}
	var req model.RescheduleRequest
	if !handler.Bind(c, &req) {
		return
	}
	modal, err := h.appointments.Reschedule(c.Request.Context(), id, req)
	handler.RespondModal(c, modal, err)
}
