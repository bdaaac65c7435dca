package wizard

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/fkhayef/groups/internal/group"
	"github.com/fkhayef/groups/internal/membership"
	"github.com/fkhayef/groups/pkg/middleware"
	"github.com/fkhayef/groups/pkg/response"
)

// TokensFunc binds a TokenStore to one request
type TokensFunc func(w http.ResponseWriter, r *http.Request) TokenStore

// Handler serves the group creation wizard
type Handler struct {
	service *Service
	tokens  TokensFunc
	log     *zap.Logger
}

// NewHandler creates a wizard handler
func NewHandler(service *Service, tokens TokensFunc, log *zap.Logger) *Handler {
	return &Handler{service: service, tokens: tokens, log: log}
}

// Register adds the wizard routes to the /groups router
func (h *Handler) Register(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireActor)
		r.Get("/create", h.Show)
		r.Delete("/create", h.Restart)
		r.Post("/create/{step}", h.Save)
	})
}

// Show handles GET /groups/create
// @Summary      Show group creation progress
// @Tags         group-create
// @Produce      json
// @Param        step query string false "Requested step slug"
// @Success      200 {object} response.APIResponse{data=Progress}
// @Router       /groups/create [get]
func (h *Handler) Show(w http.ResponseWriter, r *http.Request) {
	p, err := h.service.Show(r.Context(), middleware.GetActor(r.Context()), h.tokens(w, r), r.URL.Query().Get("step"))
	if err != nil {
		h.fail(w, err, "Failed to load group creation")
		return
	}
	response.JSON(w, http.StatusOK, p)
}

// Save handles POST /groups/create/{step}
// @Summary      Save a group creation step
// @Tags         group-create
// @Accept       json
// @Produce      json
// @Param        step path string true "Step slug"
// @Success      200 {object} response.APIResponse{data=Progress}
// @Success      201 {object} response.APIResponse{data=Progress}
// @Failure      422 {object} response.APIResponse
// @Router       /groups/create/{step} [post]
func (h *Handler) Save(w http.ResponseWriter, r *http.Request) {
	var body json.RawMessage
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20)).Decode(&body); err != nil && !errors.Is(err, io.EOF) {
		response.BadRequest(w, "Invalid request body")
		return
	}

	p, err := h.service.Save(r.Context(), middleware.GetActor(r.Context()), h.tokens(w, r), chi.URLParam(r, "step"), body)
	if err != nil {
		h.fail(w, err, "Failed to save group creation step")
		return
	}

	status := http.StatusOK
	if p.Done {
		status = http.StatusCreated
	}
	response.JSON(w, status, p)
}

// Restart handles DELETE /groups/create
// @Summary      Abandon group creation
// @Tags         group-create
// @Success      204
// @Router       /groups/create [delete]
func (h *Handler) Restart(w http.ResponseWriter, r *http.Request) {
	h.service.Restart(h.tokens(w, r))
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) fail(w http.ResponseWriter, err error, fallback string) {
	switch {
	case errors.Is(err, ErrInvalidForm):
		response.ValidationFailed(w, err.Error())
	case errors.Is(err, ErrUnknownStep), errors.Is(err, group.ErrGroupNotFound):
		response.NotFound(w, err.Error())
	case errors.Is(err, ErrNoGroup), errors.Is(err, group.ErrInvalidName), errors.Is(err, group.ErrInvalidStatus):
		response.BadRequest(w, err.Error())
	case errors.Is(err, ErrUnauthenticated), errors.Is(err, group.ErrUnauthenticated):
		response.Unauthorized(w, err.Error())
	case errors.Is(err, group.ErrNotAuthorized):
		response.Forbidden(w, err.Error())
	case errors.Is(err, group.ErrSlugTaken):
		response.Conflict(w, err.Error())
	case membership.KindOf(err) == membership.KindDenied:
		response.Forbidden(w, err.Error())
	case membership.KindOf(err) == membership.KindNotFound:
		response.NotFound(w, err.Error())
	case membership.KindOf(err) == membership.KindInvalid:
		response.BadRequest(w, err.Error())
	default:
		h.log.Error(fallback, zap.Error(err))
		response.InternalError(w, fallback)
	}
}
