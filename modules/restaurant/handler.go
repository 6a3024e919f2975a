package restaurant

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/platekit/platekit/pkg/logger"
	"github.com/platekit/platekit/pkg/tenant"
)

// Handler serves the restaurant resource endpoints. Every handler derives
// the database handle from the tenant scope established by the boundary
// middleware; the handlers themselves never choose a database.
type Handler struct {
	log *slog.Logger
}

// NewHandler creates the restaurant module handler.
func NewHandler(log *slog.Logger) *Handler {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &Handler{log: log}
}

// Router mounts the restaurant resource routes.
func (h *Handler) Router() chi.Router {
	r := chi.NewRouter()

	r.Route("/restaurants", func(r chi.Router) {
		r.Get("/", h.listRestaurants)
		r.Post("/", h.createRestaurant)

		r.Route("/{restaurantID}", func(r chi.Router) {
			r.Get("/", h.getRestaurant)
			r.Put("/", h.updateRestaurant)
			r.Delete("/", h.deleteRestaurant)

			r.Get("/menu", h.listMenuItems)
			r.Post("/menu", h.createMenuItem)

			r.Get("/bookings", h.listBookings)
			r.Post("/bookings", h.createBooking)
		})
	})

	return r
}

// store resolves the current tenant's handle into a Store. A missing
// tenant scope means the route was mounted outside the boundary
// middleware; that is a wiring bug and fails loudly.
func (h *Handler) store(w http.ResponseWriter, r *http.Request) (*Store, bool) {
	db, err := tenant.Conn(r.Context())
	if err != nil {
		h.log.ErrorContext(r.Context(), "restaurant route mounted outside tenant scope", logger.Error(err))
		writeError(w, http.StatusInternalServerError, "no tenant scope")
		return nil, false
	}
	return NewStore(db), true
}

func (h *Handler) listRestaurants(w http.ResponseWriter, r *http.Request) {
	store, ok := h.store(w, r)
	if !ok {
		return
	}

	list, err := store.ListRestaurants(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (h *Handler) createRestaurant(w http.ResponseWriter, r *http.Request) {
	store, ok := h.store(w, r)
	if !ok {
		return
	}

	var in Restaurant
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if in.Name == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}

	if err := store.CreateRestaurant(r.Context(), &in); err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, in)
}

func (h *Handler) getRestaurant(w http.ResponseWriter, r *http.Request) {
	store, ok := h.store(w, r)
	if !ok {
		return
	}
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	rest, err := store.GetRestaurant(r.Context(), id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rest)
}

func (h *Handler) updateRestaurant(w http.ResponseWriter, r *http.Request) {
	store, ok := h.store(w, r)
	if !ok {
		return
	}
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	var in Restaurant
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if in.Name == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}
	in.ID = id

	if err := store.UpdateRestaurant(r.Context(), &in); err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, in)
}

func (h *Handler) deleteRestaurant(w http.ResponseWriter, r *http.Request) {
	store, ok := h.store(w, r)
	if !ok {
		return
	}
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	if err := store.DeleteRestaurant(r.Context(), id); err != nil {
		h.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) listMenuItems(w http.ResponseWriter, r *http.Request) {
	store, ok := h.store(w, r)
	if !ok {
		return
	}
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	items, err := store.ListMenuItems(r.Context(), id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, items)
}

func (h *Handler) createMenuItem(w http.ResponseWriter, r *http.Request) {
	store, ok := h.store(w, r)
	if !ok {
		return
	}
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	var in MenuItem
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if in.Name == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}
	in.RestaurantID = id

	if err := store.CreateMenuItem(r.Context(), &in); err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, in)
}

func (h *Handler) listBookings(w http.ResponseWriter, r *http.Request) {
	store, ok := h.store(w, r)
	if !ok {
		return
	}
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	bookings, err := store.ListBookings(r.Context(), id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, bookings)
}

func (h *Handler) createBooking(w http.ResponseWriter, r *http.Request) {
	store, ok := h.store(w, r)
	if !ok {
		return
	}
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	var in TableBooking
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if in.CustomerName == "" || in.GuestCount < 1 {
		writeError(w, http.StatusBadRequest, "customer_name and guest_count are required")
		return
	}
	in.RestaurantID = id

	if err := store.CreateBooking(r.Context(), &in); err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, in)
}

// fail maps store errors onto HTTP statuses.
func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		writeError(w, http.StatusNotFound, "not found")
	case errors.Is(err, ErrDuplicate):
		writeError(w, http.StatusConflict, "already exists")
	default:
		h.log.ErrorContext(r.Context(), "restaurant request failed", logger.Error(err))
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func parseID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "restaurantID"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid restaurant id")
		return uuid.Nil, false
	}
	return id, true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
