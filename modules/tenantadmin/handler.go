// Package tenantadmin exposes the administrative tenant surface: the
// bootstrap endpoint that prepares a database for a client identifier, and
// the privileged endpoint registering explicit connection parameters.
package tenantadmin

import (
	"crypto/subtle"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/platekit/platekit/pkg/logger"
	"github.com/platekit/platekit/pkg/tenant"
)

// Config carries the admin surface settings.
type Config struct {
	AdminToken string `env:"TENANT_ADMIN_TOKEN"` // AdminToken guards the explicit registration endpoint. Empty disables it.
}

// Handler serves the tenant administration endpoints.
type Handler struct {
	registry   *tenant.Registry
	pools      *tenant.Pools
	adminToken string
	log        *slog.Logger
}

// NewHandler creates the admin handler.
func NewHandler(registry *tenant.Registry, pools *tenant.Pools, cfg Config, log *slog.Logger) *Handler {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &Handler{
		registry:   registry,
		pools:      pools,
		adminToken: cfg.AdminToken,
		log:        log,
	}
}

// Router mounts the admin routes.
func (h *Handler) Router() chi.Router {
	r := chi.NewRouter()
	r.Post("/bootstrap", h.bootstrap)
	r.Post("/register", h.register)
	return r
}

type bootstrapRequest struct {
	ClientID       json.Number `json:"client_id"`
	ClientUsername string      `json:"client_username"`
}

// bootstrap prepares a tenant database for a client identifier: the alias
// is derived deterministically, the tenant is registered if unseen and its
// schema initialized. The warm handle is released afterwards so a
// provisioning-only call does not pin a pool.
func (h *Handler) bootstrap(w http.ResponseWriter, r *http.Request) {
	var in bootstrapRequest
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if in.ClientID == "" && in.ClientUsername == "" {
		writeError(w, http.StatusBadRequest, "provide client_id or client_username")
		return
	}

	var (
		d   *tenant.Descriptor
		err error
	)
	if in.ClientID != "" {
		id, convErr := strconv.ParseInt(in.ClientID.String(), 10, 64)
		if convErr != nil {
			writeError(w, http.StatusBadRequest, "client_id must be numeric")
			return
		}
		d, err = h.registry.EnsureForClientID(r.Context(), id)
	} else {
		d, err = h.registry.EnsureForUsername(r.Context(), in.ClientUsername)
	}
	if err != nil {
		h.fail(w, r, err)
		return
	}

	// Provisioning may have opened a handle; release it so the next
	// request recreates a fresh one.
	h.pools.Evict(d.Alias)

	h.log.InfoContext(r.Context(), "tenant bootstrap complete", logger.Alias(d.Alias))
	writeJSON(w, http.StatusCreated, map[string]string{
		"detail": "alias ready",
		"alias":  d.Alias,
	})
}

type registerRequest struct {
	TenantID   string `json:"tenant_id"`
	DBName     string `json:"db_name"`
	DBUser     string `json:"db_user"`
	DBPassword string `json:"db_password"`
	DBHost     string `json:"db_host"`
	DBPort     int    `json:"db_port"`
}

// register stores explicit connection parameters for a tenant. Restricted
// to callers presenting the admin bearer token.
func (h *Handler) register(w http.ResponseWriter, r *http.Request) {
	if !h.authorized(r) {
		writeError(w, http.StatusForbidden, "admin token required")
		return
	}

	var in registerRequest
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if in.TenantID == "" {
		writeError(w, http.StatusBadRequest, "tenant_id is required")
		return
	}

	params := tenant.ConnParams{
		Host:     in.DBHost,
		Port:     in.DBPort,
		User:     in.DBUser,
		Password: in.DBPassword,
		DBName:   in.DBName,
	}

	d, err := h.registry.Register(r.Context(), in.TenantID, params)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	// Replace any handle opened against previous parameters.
	h.pools.Evict(d.Alias)

	h.log.InfoContext(r.Context(), "tenant registered by admin", logger.Alias(d.Alias))
	writeJSON(w, http.StatusCreated, map[string]string{
		"message": "tenant database registered",
		"alias":   d.Alias,
	})
}

// authorized checks the admin bearer token in constant time. An empty
// configured token disables the endpoint entirely.
func (h *Handler) authorized(r *http.Request) bool {
	if h.adminToken == "" {
		return false
	}

	authHeader := r.Header.Get("Authorization")
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(parts[1]), []byte(h.adminToken)) == 1
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, tenant.ErrInvalidIdentifier), errors.Is(err, tenant.ErrInvalidConfig):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, tenant.ErrMigrationFailed), errors.Is(err, tenant.ErrConnectionFailed):
		h.log.ErrorContext(r.Context(), "tenant provisioning failed", logger.Error(err))
		writeError(w, http.StatusBadGateway, "tenant database unavailable")
	default:
		h.log.ErrorContext(r.Context(), "tenant admin request failed", logger.Error(err))
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
