// AngelaMos | 2026
// handler.go

package listing

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

// RegisterRoutes wires the listing endpoints. The feed is public; every
// mutation requires a verified principal. PUT and DELETE address the
// listing by id in body and query string respectively, which is what
// the dashboard sends.
func (h *Handler) RegisterRoutes(
	r chi.Router,
	authenticator, optionalAuth func(http.Handler) http.Handler,
) {
	r.Route("/listings", func(r chi.Router) {
		r.With(optionalAuth).Get("/", h.List)
		r.Get("/{listingID}/contact", h.Contact)

		r.Group(func(r chi.Router) {
			r.Use(authenticator)

			r.Post("/", h.Create)
			r.Put("/", h.Update)
			r.Delete("/", h.Delete)
			r.Put("/{listingID}/status", h.SetStatus)
		})
	})
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	ownerID := r.URL.Query().Get("ownerId")

	listings, err := h.service.List(r.Context(), ownerID)
	if err != nil {
		core.InternalServerError(w, err)
		return
	}

	core.OK(w, ToListingResponseList(listings))
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	principalID := middleware.GetPrincipalID(r.Context())

	var req CreateListingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		core.BadRequest(w, "invalid request body")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		core.BadRequest(w, core.FormatValidationError(err))
		return
	}

	l, err := h.service.Create(r.Context(), principalID, req)
	if err != nil {
		if core.IsAppError(err) {
			core.JSONError(w, err)
			return
		}
		core.InternalServerError(w, err)
		return
	}

	core.Created(w, ToListingResponse(l))
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	principalID := middleware.GetPrincipalID(r.Context())

	var req UpdateListingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		core.BadRequest(w, "invalid request body")
		return
	}

	if req.ID == "" {
		core.BadRequest(w, "missing listing id")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		core.BadRequest(w, core.FormatValidationError(err))
		return
	}

	l, err := h.service.Update(r.Context(), principalID, req)
	if err != nil {
		h.writeMutationError(w, err)
		return
	}

	core.OK(w, ToListingResponse(l))
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	principalID := middleware.GetPrincipalID(r.Context())

	id := r.URL.Query().Get("id")
	if id == "" {
		core.BadRequest(w, "missing listing id")
		return
	}

	if err := h.service.Delete(r.Context(), principalID, id); err != nil {
		h.writeMutationError(w, err)
		return
	}

	core.OK(w, struct{}{})
}

func (h *Handler) SetStatus(w http.ResponseWriter, r *http.Request) {
	principalID := middleware.GetPrincipalID(r.Context())
	listingID := chi.URLParam(r, "listingID")

	var req SetStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		core.BadRequest(w, "invalid request body")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		core.BadRequest(w, core.FormatValidationError(err))
		return
	}

	l, err := h.service.SetStatus(
		r.Context(),
		principalID,
		listingID,
		req.Status,
	)
	if err != nil {
		h.writeMutationError(w, err)
		return
	}

	core.OK(w, ToListingResponse(l))
}

func (h *Handler) Contact(w http.ResponseWriter, r *http.Request) {
	listingID := chi.URLParam(r, "listingID")

	contact, err := h.service.Contact(r.Context(), listingID)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			core.NotFound(w, "listing")
			return
		}
		core.InternalServerError(w, err)
		return
	}

	core.OK(w, contact)
}

// writeMutationError deliberately reports "not found" for both missing
// and foreign-owned listings so the API never confirms an id exists
// under another account.
func (h *Handler) writeMutationError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, core.ErrNotFound):
		core.JSONError(
			w,
			core.NotFoundError("listing not found or not yours"),
		)
	case core.IsAppError(err):
		core.JSONError(w, err)
	default:
		core.InternalServerError(w, err)
	}
}
