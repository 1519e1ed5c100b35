package appointments

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"dern-backend/internal/auth"
	"dern-backend/internal/httpx"
	"dern-backend/internal/lock"
	"dern-backend/internal/middleware"
	"dern-backend/internal/schedule"
	"dern-backend/internal/transport"
	"dern-backend/internal/validation"

	"github.com/go-chi/chi/v5"
)

type Handler struct {
	service *Service
	val     *validation.Validator
	log     *slog.Logger
}

func NewHandler(service *Service, val *validation.Validator, log *slog.Logger) *Handler {
	return &Handler{
		service: service,
		val:     val,
		log:     log,
	}
}

type conflictResponse struct {
	Error    string           `json:"error"`
	Code     string           `json:"code"`
	Conflict conflictInterval `json:"conflict"`
}

type conflictInterval struct {
	AppointmentID string    `json:"appointmentId"`
	StartTime     time.Time `json:"startTime"`
	EndTime       time.Time `json:"endTime"`
}

func (h *Handler) Availability(w http.ResponseWriter, r *http.Request) {
	log := middleware.RequestLogger(h.log, r)
	technicianID := strings.TrimSpace(chi.URLParam(r, "id"))

	query := AvailabilityQuery{Date: strings.TrimSpace(r.URL.Query().Get("date"))}
	if err := h.val.Struct(query); err != nil {
		log.Warn("availability: validation error")
		transport.WriteError(w, http.StatusBadRequest, "validation error", httpx.ValidationDetails(h.val.ValidationErrors(err)))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	result, err := h.service.ComputeAvailableSlots(ctx, technicianID, query.Date, nil)
	if err != nil {
		h.writeServiceError(w, log, "availability", err)
		return
	}

	log.Info("availability: ok",
		slog.String("technician_id", technicianID),
		slog.String("date", result.Date),
		slog.Int("available", len(result.AvailableSlots)),
	)
	transport.WriteJSON(w, http.StatusOK, result)
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	log := middleware.RequestLogger(h.log, r)
	actor, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		transport.WriteError(w, http.StatusUnauthorized, "unauthorized", nil)
		return
	}

	var req CreateRequest
	if err := httpx.DecodeJSON(r.Body, &req); err != nil {
		log.Warn("appointments create: invalid json")
		transport.WriteError(w, http.StatusBadRequest, "invalid json", nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		log.Warn("appointments create: validation error")
		transport.WriteError(w, http.StatusBadRequest, "validation error", httpx.ValidationDetails(h.val.ValidationErrors(err)))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 8*time.Second)
	defer cancel()

	appt, err := h.service.Create(ctx, actor, req)
	if err != nil {
		h.writeServiceError(w, log, "appointments create", err)
		return
	}

	log.Info("appointments create: ok",
		slog.String("appointment_id", appt.ID),
		slog.String("technician_id", appt.Technician),
		slog.String("start", appt.StartTime.Format(time.RFC3339)),
	)
	transport.WriteJSON(w, http.StatusCreated, NewView(appt, h.service.Now()))
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	log := middleware.RequestLogger(h.log, r)
	actor, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		transport.WriteError(w, http.StatusUnauthorized, "unauthorized", nil)
		return
	}

	limit, offset, err := httpx.ParseLimitOffset(r.URL.Query(), 20, 100)
	if err != nil {
		log.Warn("appointments list: invalid query", slog.String("error", err.Error()))
		transport.WriteError(w, http.StatusBadRequest, err.Error(), nil)
		return
	}

	filter := ListFilter{
		Status:     r.URL.Query().Get("status"),
		Technician: r.URL.Query().Get("technician"),
	}

	ctx, cancel := context.WithTimeout(r.Context(), 8*time.Second)
	defer cancel()

	items, total, err := h.service.List(ctx, actor, filter, limit, offset)
	if err != nil {
		if errors.Is(err, ErrInvalidStatus) {
			transport.WriteError(w, http.StatusBadRequest, "invalid query", map[string]string{"status": "oneof"})
			return
		}
		log.Error("appointments list: database error", slog.String("error", err.Error()))
		transport.WriteError(w, http.StatusInternalServerError, "database error", nil)
		return
	}

	now := h.service.Now()
	views := make([]View, 0, len(items))
	for _, appt := range items {
		views = append(views, NewView(appt, now))
	}

	log.Info("appointments list: ok", slog.Int("count", len(views)))
	transport.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"items":  views,
		"limit":  limit,
		"offset": offset,
		"total":  total,
	})
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	log := middleware.RequestLogger(h.log, r)
	actor, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		transport.WriteError(w, http.StatusUnauthorized, "unauthorized", nil)
		return
	}
	id := strings.TrimSpace(chi.URLParam(r, "id"))

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	appt, err := h.service.Get(ctx, actor, id)
	if err != nil {
		h.writeServiceError(w, log, "appointments get", err)
		return
	}

	transport.WriteJSON(w, http.StatusOK, NewView(appt, h.service.Now()))
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	log := middleware.RequestLogger(h.log, r)
	actor, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		transport.WriteError(w, http.StatusUnauthorized, "unauthorized", nil)
		return
	}
	id := strings.TrimSpace(chi.URLParam(r, "id"))

	var req UpdateRequest
	if err := httpx.DecodeJSONLenient(r.Body, &req); err != nil {
		log.Warn("appointments update: invalid json")
		transport.WriteError(w, http.StatusBadRequest, "invalid json", nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		log.Warn("appointments update: validation error")
		transport.WriteError(w, http.StatusBadRequest, "validation error", httpx.ValidationDetails(h.val.ValidationErrors(err)))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 8*time.Second)
	defer cancel()

	appt, err := h.service.Update(ctx, actor, id, req)
	if err != nil {
		h.writeServiceError(w, log, "appointments update", err)
		return
	}

	log.Info("appointments update: ok", slog.String("appointment_id", appt.ID), slog.String("status", appt.Status))
	transport.WriteJSON(w, http.StatusOK, NewView(appt, h.service.Now()))
}

func (h *Handler) Cancel(w http.ResponseWriter, r *http.Request) {
	log := middleware.RequestLogger(h.log, r)
	actor, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		transport.WriteError(w, http.StatusUnauthorized, "unauthorized", nil)
		return
	}
	id := strings.TrimSpace(chi.URLParam(r, "id"))

	// The body is optional; an empty one cancels with the default reason.
	var req CancelRequest
	if err := httpx.DecodeJSON(r.Body, &req); err != nil && !errors.Is(err, io.EOF) {
		log.Warn("appointments cancel: invalid json")
		transport.WriteError(w, http.StatusBadRequest, "invalid json", nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		transport.WriteError(w, http.StatusBadRequest, "validation error", httpx.ValidationDetails(h.val.ValidationErrors(err)))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 8*time.Second)
	defer cancel()

	appt, err := h.service.Cancel(ctx, actor, id, req.Reason)
	if err != nil {
		h.writeServiceError(w, log, "appointments cancel", err)
		return
	}

	log.Info("appointments cancel: ok", slog.String("appointment_id", appt.ID), slog.String("canceled_by", appt.CanceledBy))
	transport.WriteJSON(w, http.StatusOK, NewView(appt, h.service.Now()))
}

func (h *Handler) writeServiceError(w http.ResponseWriter, log *slog.Logger, area string, err error) {
	var conflict *ConflictError
	switch {
	case errors.As(err, &conflict):
		log.Warn(area+": conflict", slog.String("conflict_id", conflict.AppointmentID))
		transport.WriteJSON(w, http.StatusConflict, conflictResponse{
			Error: "scheduling conflict",
			Code:  "scheduling_conflict",
			Conflict: conflictInterval{
				AppointmentID: conflict.AppointmentID,
				StartTime:     conflict.Interval.Start,
				EndTime:       conflict.Interval.End,
			},
		})
	case errors.Is(err, ErrNotFound):
		transport.WriteCodedError(w, http.StatusNotFound, "not_found", err.Error(), nil)
	case errors.Is(err, ErrTechnicianNotFound):
		transport.WriteCodedError(w, http.StatusNotFound, "technician_not_found", err.Error(), nil)
	case errors.Is(err, ErrTechnicianUnavailable):
		transport.WriteCodedError(w, http.StatusBadRequest, "technician_unavailable", err.Error(), nil)
	case errors.Is(err, ErrInvalidInterval):
		transport.WriteCodedError(w, http.StatusBadRequest, "invalid_interval", err.Error(), nil)
	case errors.Is(err, ErrAlreadyCanceled):
		transport.WriteCodedError(w, http.StatusBadRequest, "already_canceled", err.Error(), nil)
	case errors.Is(err, ErrCancellationWindowExpired):
		transport.WriteCodedError(w, http.StatusBadRequest, "cancellation_window_expired", err.Error(), nil)
	case errors.Is(err, ErrImmutableState):
		transport.WriteCodedError(w, http.StatusForbidden, "immutable_state", err.Error(), nil)
	case errors.Is(err, ErrInvalidTransition):
		transport.WriteCodedError(w, http.StatusForbidden, "invalid_transition", err.Error(), nil)
	case errors.Is(err, ErrConcurrentUpdate):
		transport.WriteCodedError(w, http.StatusConflict, "stale_appointment", err.Error(), nil)
	case errors.Is(err, lock.ErrNotAcquired):
		log.Warn(area+": booking lock busy", slog.String("error", err.Error()))
		transport.WriteCodedError(w, http.StatusServiceUnavailable, "booking_busy", "technician calendar is busy, retry shortly", nil)
	case errors.Is(err, ErrForbidden):
		transport.WriteCodedError(w, http.StatusForbidden, "forbidden", err.Error(), nil)
	case errors.Is(err, ErrInvalidStatus):
		transport.WriteError(w, http.StatusBadRequest, "validation error", map[string]string{"status": "oneof"})
	case errors.Is(err, ErrInvalidServiceType):
		transport.WriteError(w, http.StatusBadRequest, "validation error", map[string]string{"serviceType": "oneof"})
	case errors.Is(err, ErrInvalidPriority):
		transport.WriteError(w, http.StatusBadRequest, "validation error", map[string]string{"priority": "oneof"})
	case errors.Is(err, schedule.ErrInvalidDate):
		transport.WriteError(w, http.StatusBadRequest, "validation error", map[string]string{"date": "date"})
	case errors.Is(err, context.DeadlineExceeded):
		log.Error(area+": timeout", slog.String("error", err.Error()))
		transport.WriteError(w, http.StatusServiceUnavailable, "timeout", nil)
	default:
		log.Error(area+": database error", slog.String("error", err.Error()))
		transport.WriteError(w, http.StatusInternalServerError, "database error", nil)
	}
	if isRejection(err) && !errors.Is(err, ErrSchedulingConflict) {
		log.Warn(area+": rejected", slog.String("reason", err.Error()))
	}
}
