package http

import (
	"log/slog"
	"net/http"

	"github.com/utafrali/shopstate/internal/scope"
	"github.com/utafrali/shopstate/internal/service"
	apperrors "github.com/utafrali/shopstate/pkg/errors"
	"github.com/utafrali/shopstate/pkg/middleware"
)

// SessionHandler switches a device between signed-in identities.
type SessionHandler struct {
	service *service.ShopService
	logger  *slog.Logger
}

// NewSessionHandler creates a new session HTTP handler.
func NewSessionHandler(svc *service.ShopService, logger *slog.Logger) *SessionHandler {
	return &SessionHandler{
		service: svc,
		logger:  logger,
	}
}

// SignIn handles POST /api/v1/session behind middleware.Auth. The identity
// comes from the bearer token; the device's cart and wishlist are reloaded
// under it.
func (h *SessionHandler) SignIn(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserIDFromContext(r.Context())
	if userID == "" {
		writeError(w, r, h.logger, apperrors.Unauthorized("missing bearer token"))
		return
	}

	deviceID := deviceIDFromContext(r.Context())
	current, err := h.service.SignIn(r.Context(), deviceID, userID)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, response{Data: sessionResponse{DeviceID: deviceID, Scope: current}})
}

// SignOut handles DELETE /api/v1/session.
func (h *SessionHandler) SignOut(w http.ResponseWriter, r *http.Request) {
	deviceID := deviceIDFromContext(r.Context())
	if err := h.service.SignOut(r.Context(), deviceID); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, response{Data: sessionResponse{DeviceID: deviceID, Scope: scope.Anonymous}})
}
