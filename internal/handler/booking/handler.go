package booking

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/careplus/frontdesk/internal/booking"
	"github.com/careplus/frontdesk/internal/handler"
	"github.com/careplus/frontdesk/internal/search"
	"github.com/careplus/frontdesk/internal/workspace"
	"github.com/careplus/frontdesk/pkg/errors"
	"github.com/careplus/frontdesk/pkg/httputil"
)

const (
	SidePatient = "patient"
	SideDoctor  = "doctor"
)

type SlotRequest struct {
	Date string `json:"date" binding:"required"`
	Time string `json:"time"`
}

type Handler struct {
	desk handler.Desk
}

func NewHandler(workspaces *workspace.Store) *Handler {
	return &Handler{desk: handler.Desk{Workspaces: workspaces}}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	b := r.Group("/booking")
	{
		b.GET("", h.with(h.View))
		b.POST("/:side/input", h.withSide(handler.PanelInput))
		b.POST("/:side/submit", h.withSide(handler.PanelSubmit))
		b.POST("/:side/select/:key", h.with(h.Select))
		b.PUT("/slot", h.with(h.Slot))
		b.POST("/confirm", h.with(h.Confirm))
		b.POST("/cancel", h.with(h.Cancel))
		b.POST("/submit", h.with(h.Submit))
		b.POST("/reset", h.with(h.Reset))
	}
}

func (h *Handler) with(fn func(*gin.Context, *booking.Flow)) gin.HandlerFunc {
	return func(c *gin.Context) {
		ws, ok := h.desk.Workspace(c)
		if !ok {
			return
		}
		fn(c, ws.Booking())
	}
}

// withSide hands fn the patient or doctor search of the flow.
func (h *Handler) withSide(fn func(*gin.Context, search.Control)) gin.HandlerFunc {
	return h.with(func(c *gin.Context, flow *booking.Flow) {
		switch c.Param("side") {
		case SidePatient:
			fn(c, flow.Patients())
		case SideDoctor:
			fn(c, flow.Doctors())
		default:
			httputil.RespondWithError(c, errors.NotFound("booking side", nil))
		}
	})
}

func (h *Handler) View(c *gin.Context, flow *booking.Flow) {
	httputil.RespondWithSuccess(c, flow.Snapshot())
}

// Select picks a patient or doctor and re-evaluates the match.
func (h *Handler) Select(c *gin.Context, flow *booking.Flow) {
	var err error
	switch c.Param("side") {
	case SidePatient:
		err = flow.SelectPatient(c.Request.Context(), c.Param("key"))
	case SideDoctor:
		err = flow.SelectDoctor(c.Request.Context(), c.Param("key"))
	default:
		httputil.RespondWithError(c, errors.NotFound("booking side", nil))
		return
	}
	handler.RespondView(c, err, flow.Snapshot())
}

// Slot overrides the date, and the time when one is given.
func (h *Handler) Slot(c *gin.Context, flow *booking.Flow) {
	var req SlotRequest
	if !handler.Bind(c, &req) {
		return
	}
	handler.RespondView(c, flow.SelectSlot(req.Date, req.Time), flow.Snapshot())
}

func (h *Handler) Confirm(c *gin.Context, flow *booking.Flow) {
	handler.RespondView(c, flow.Confirm(), flow.Snapshot())
}

func (h *Handler) Cancel(c *gin.Context, flow *booking.Flow) {
	flow.Cancel()
	httputil.RespondWithSuccess(c, flow.Snapshot())
}

func (h *Handler) Submit(c *gin.Context, flow *booking.Flow) {
	confirmation, err := flow.Submit(c.Request.Context())
	if err != nil {
		httputil.RespondWithErrorData(c, err, flow.Snapshot())
		return
	}
	httputil.RespondWithMessage(c, http.StatusCreated, confirmation.Message, flow.Snapshot())
}

func (h *Handler) Reset(c *gin.Context, flow *booking.Flow) {
	flow.Reset()
	httputil.RespondWithSuccess(c, flow.Snapshot())
}
