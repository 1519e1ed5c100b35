package users

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"dern-backend/internal/auth"
	"dern-backend/internal/httpx"
	"dern-backend/internal/middleware"
	"dern-backend/internal/transport"
	"dern-backend/internal/validation"
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

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	log := middleware.RequestLogger(h.log, r)

	var req LoginRequest
	if err := httpx.DecodeJSON(r.Body, &req); err != nil {
		log.Warn("auth login: invalid json")
		transport.WriteError(w, http.StatusBadRequest, "invalid json", nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		log.Warn("auth login: validation error")
		transport.WriteError(w, http.StatusBadRequest, "validation error", httpx.ValidationDetails(h.val.ValidationErrors(err)))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	resp, err := h.service.Login(ctx, req)
	if err != nil {
		if errors.Is(err, ErrInvalidCredentials) {
			log.Warn("auth login: invalid credentials")
			transport.WriteError(w, http.StatusUnauthorized, "invalid credentials", nil)
			return
		}
		log.Error("auth login: error", slog.String("error", err.Error()))
		transport.WriteError(w, http.StatusInternalServerError, "login failed", nil)
		return
	}

	log.Info("auth login: ok", slog.String("user_id", resp.User.ID), slog.String("role", resp.User.Role))
	transport.WriteJSON(w, http.StatusOK, resp)
}

func (h *Handler) SetAvailability(w http.ResponseWriter, r *http.Request) {
	log := middleware.RequestLogger(h.log, r)
	actor, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		transport.WriteError(w, http.StatusUnauthorized, "unauthorized", nil)
		return
	}

	var req AvailabilityRequest
	if err := httpx.DecodeJSON(r.Body, &req); err != nil {
		log.Warn("technician availability: invalid json")
		transport.WriteError(w, http.StatusBadRequest, "invalid json", nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		log.Warn("technician availability: validation error")
		transport.WriteError(w, http.StatusBadRequest, "validation error", httpx.ValidationDetails(h.val.ValidationErrors(err)))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	user, err := h.service.SetAvailability(ctx, actor, req.Availability)
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidAvailability):
			transport.WriteError(w, http.StatusBadRequest, "validation error", map[string]string{"availability": "oneof"})
		case errors.Is(err, ErrNotTechnician):
			transport.WriteError(w, http.StatusForbidden, "forbidden", nil)
		case errors.Is(err, ErrNotFound):
			transport.WriteError(w, http.StatusNotFound, "technician not found", nil)
		default:
			log.Error("technician availability: database error", slog.String("error", err.Error()))
			transport.WriteError(w, http.StatusInternalServerError, "database error", nil)
		}
		return
	}

	log.Info("technician availability: ok", slog.String("user_id", user.ID), slog.String("availability", user.Availability))
	transport.WriteJSON(w, http.StatusOK, ToPublic(user))
}
