package activity

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/fkhayef/groups/internal/membership"
	"github.com/fkhayef/groups/pkg/middleware"
	"github.com/fkhayef/groups/pkg/response"
)

// Handler serves group timelines
type Handler struct {
	service *Service
	log     *zap.Logger
}

// NewHandler creates an activity handler
func NewHandler(service *Service, log *zap.Logger) *Handler {
	return &Handler{service: service, log: log}
}

// Register adds the timeline route to a router scoped to /groups/{id}
func (h *Handler) Register(r chi.Router) {
	r.Get("/activity", h.List)
}

// List handles GET /groups/{id}/activity
// @Summary      Group activity
// @Tags         groups
// @Produce      json
// @Param        id path int true "Group ID"
// @Param        page query int false "Page number" default(1)
// @Param        per_page query int false "Items per page" default(20)
// @Success      200 {object} response.APIResponse{data=[]Entry}
// @Router       /groups/{id}/activity [get]
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	groupID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || groupID <= 0 {
		response.BadRequest(w, "Invalid group ID")
		return
	}
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	perPage, _ := strconv.Atoi(r.URL.Query().Get("per_page"))

	entries, total, err := h.service.List(r.Context(), middleware.GetActor(r.Context()), groupID, page, perPage)
	switch {
	case err == nil:
	case errors.Is(err, ErrNotVisible):
		response.Forbidden(w, err.Error())
		return
	case errors.Is(err, membership.ErrGroupNotFound):
		response.NotFound(w, err.Error())
		return
	default:
		h.log.Error("list activity", zap.Int64("group_id", groupID), zap.Error(err))
		response.InternalError(w, "Failed to list activity")
		return
	}

	if page < 1 {
		page = 1
	}
	if perPage < 1 || perPage > 100 {
		perPage = 20
	}
	response.JSONWithMeta(w, http.StatusOK, entries, response.NewMeta(page, perPage, total))
}
