// AngelaMos | 2026
// handler.go

package account

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/carmarket/carmarket-api/internal/core"
	"github.com/carmarket/carmarket-api/internal/middleware"
)

type Handler struct {
	service   *Service
	validator *validator.Validate
}

func NewHandler(service *Service) *Handler {
	return &Handler{
		service:   service,
		validator: validator.New(validator.WithRequiredStructEnabled()),
	}
}

func (h *Handler) RegisterRoutes(
	r chi.Router,
	authenticator func(http.Handler) http.Handler,
) {
	r.Route("/accounts", func(r chi.Router) {
		r.Use(authenticator)

		r.Get("/me", h.GetMe)
		r.Post("/me/role", h.AssignRole)
	})
}

func (h *Handler) GetMe(w http.ResponseWriter, r *http.Request) {
	principalID := middleware.GetPrincipalID(r.Context())
	rawToken := middleware.GetRawToken(r.Context())

	acct, err := h.service.Resolve(r.Context(), principalID, rawToken)
	if err != nil {
		if errors.Is(err, core.ErrUpstream) {
			core.JSONError(
				w,
				core.UpstreamError("identity provider unavailable"),
			)
			return
		}
		core.InternalServerError(w, err)
		return
	}

	core.OK(w, ToAccountResponse(acct))
}

func (h *Handler) AssignRole(w http.ResponseWriter, r *http.Request) {
	principalID := middleware.GetPrincipalID(r.Context())
	rawToken := middleware.GetRawToken(r.Context())

	var req AssignRoleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		core.BadRequest(w, "invalid request body")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		core.BadRequest(w, core.FormatValidationError(err))
		return
	}

	acct, err := h.service.AssignRole(
		r.Context(),
		principalID,
		rawToken,
		req.Role,
	)
	if err != nil {
		var roleErr *RoleAssignedError
		switch {
		case errors.As(err, &roleErr):
			core.BadRequest(w, roleErr.Error())
		case errors.Is(err, ErrInvalidRole):
			core.BadRequest(w, "invalid role")
		case errors.Is(err, core.ErrUpstream):
			core.JSONError(
				w,
				core.UpstreamError("identity provider unavailable"),
			)
		default:
			core.InternalServerError(w, err)
		}
		return
	}

	core.OK(w, ToAccountResponse(acct))
}
