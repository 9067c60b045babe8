package handler

import (
	"net/http"

	"carhub/internal/bookings/service"
	"carhub/internal/sessions"
	apperrors "carhub/pkg/errors"
	httputil "carhub/pkg/http"
	"carhub/pkg/logger"
	"carhub/pkg/model"

	"github.com/julienschmidt/httprouter"
)

type BookingHandler struct {
	service        service.BookingService
	requireSession sessions.Guard
	log            *logger.Logger
}

func NewBookingHandler(service service.BookingService, requireSession sessions.Guard, log *logger.Logger) *BookingHandler {
	return &BookingHandler{
		service:        service,
		requireSession: requireSession,
		log:            log,
	}
}

func (h *BookingHandler) Create(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var req model.BookingRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		h.writeError(w, "Create", err)
		return
	}

	ack, err := h.service.CreateBooking(r.Context(), req)
	if err != nil {
		h.writeError(w, "Create", err)
		return
	}

	if err := httputil.WriteCreated(w, ack); err != nil {
		h.log.Error("failed to write created response", "handler", "Create", "operation", "WriteCreated", "error", err)
	}
}

func (h *BookingHandler) MyBookings(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	email, err := httputil.RequiredQuery(r, "email")
	if err != nil {
		h.writeError(w, "MyBookings", err)
		return
	}

	identity, ok := sessions.IdentityFromContext(r.Context())
	if !ok {
		h.writeError(w, "MyBookings", apperrors.Unauthorized("unauthorized access"))
		return
	}
	if identity.Email != email {
		h.log.Warn("Requester mismatch on booking listing", "session_email", identity.Email, "query_email", email)
		h.writeError(w, "MyBookings", apperrors.Forbidden("Forbidden Access"))
		return
	}

	bookings, err := h.service.ListByRequesterEmail(r.Context(), email)
	if err != nil {
		h.writeError(w, "MyBookings", err)
		return
	}

	if err := httputil.WriteSuccess(w, bookings); err != nil {
		h.log.Error("failed to write success response", "handler", "MyBookings", "operation", "WriteSuccess", "error", err)
	}
}

func (h *BookingHandler) UpdateSchedule(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	var schedule model.BookingSchedule
	if err := httputil.DecodeJSON(r, &schedule); err != nil {
		h.writeError(w, "UpdateSchedule", err)
		return
	}

	ack, err := h.service.UpdateBookingSchedule(r.Context(), ps.ByName("id"), schedule)
	if err != nil {
		h.writeError(w, "UpdateSchedule", err)
		return
	}

	if err := httputil.WriteMessage(w, "Booking updated", ack); err != nil {
		h.log.Error("failed to write success response", "handler", "UpdateSchedule", "operation", "WriteMessage", "error", err)
	}
}

func (h *BookingHandler) writeError(w http.ResponseWriter, handler string, err error) {
	if writeErr := httputil.WriteError(w, err); writeErr != nil {
		h.log.Error("failed to write error response", "handler", handler, "operation", "WriteError", "error", writeErr)
	}
}

func (h *BookingHandler) RegisterRoutes(router *httprouter.Router) {
	router.POST("/bookingCar", h.Create)
	router.GET("/myBookings", h.requireSession(h.MyBookings))
	router.PUT("/updateBooking/:id", h.UpdateSchedule)
}
