package group

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/fkhayef/groups/pkg/middleware"
	"github.com/fkhayef/groups/pkg/response"
	"github.com/fkhayef/groups/pkg/validate"
)

// Handler handles HTTP requests for group operations
type Handler struct {
	service *Service
	log     *zap.Logger
}

// NewHandler creates a new group handler
func NewHandler(service *Service, log *zap.Logger) *Handler {
	return &Handler{service: service, log: log}
}

// Routes returns the router for group endpoints. Each scoped function is
// called with the router for /{id} so other packages can add group routes.
func (h *Handler) Routes(scoped ...func(chi.Router)) chi.Router {
	r := chi.NewRouter()

	r.Get("/", h.List)
	r.Get("/slug/{slug}", h.GetBySlug)
	r.With(middleware.RequireActor).Post("/", h.Create)
	r.With(middleware.RequireActor).Get("/mine", h.Mine)

	r.Route("/{id}", func(r chi.Router) {
		r.Get("/", h.GetByID)
		r.With(middleware.RequireActor).Put("/", h.Update)
		r.With(middleware.RequireActor).Delete("/", h.Delete)
		for _, fn := range scoped {
			fn(r)
		}
	})

	return r
}

// AdminRoutes returns the site administrator back-office router
func (h *Handler) AdminRoutes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequireSiteAdmin)
	r.Get("/", h.AdminList)
	r.Delete("/{id}", h.Delete)
	return r
}

// Create handles POST /groups
// @Summary      Create a new group
// @Description  Create a new group and add creator as admin
// @Tags         groups
// @Accept       json
// @Produce      json
// @Param        request body CreateGroupRequest true "Group creation request"
// @Success      201 {object} response.APIResponse{data=GroupResponse}
// @Failure      400 {object} response.APIResponse
// @Router       /groups [post]
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateGroupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body")
		return
	}
	if err := validate.Struct(&req); err != nil {
		response.ValidationFailed(w, err.Error())
		return
	}

	group, err := h.service.Create(r.Context(), middleware.GetActor(r.Context()), &req)
	if err != nil {
		h.fail(w, err, "Failed to create group")
		return
	}

	response.JSON(w, http.StatusCreated, group.ToResponse())
}

// GetByID handles GET /groups/{id}
// @Summary      Get group by ID
// @Tags         groups
// @Produce      json
// @Param        id path int true "Group ID"
// @Success      200 {object} response.APIResponse{data=GroupResponse}
// @Failure      404 {object} response.APIResponse
// @Router       /groups/{id} [get]
func (h *Handler) GetByID(w http.ResponseWriter, r *http.Request) {
	id, ok := groupID(w, r)
	if !ok {
		return
	}

	group, err := h.service.Get(r.Context(), middleware.GetActor(r.Context()), id)
	if err != nil {
		h.fail(w, err, "Failed to get group")
		return
	}
	response.JSON(w, http.StatusOK, group.ToResponse())
}

// GetBySlug handles GET /groups/slug/{slug}
func (h *Handler) GetBySlug(w http.ResponseWriter, r *http.Request) {
	group, err := h.service.GetBySlug(r.Context(), middleware.GetActor(r.Context()), chi.URLParam(r, "slug"))
	if err != nil {
		h.fail(w, err, "Failed to get group")
		return
	}
	response.JSON(w, http.StatusOK, group.ToResponse())
}

// List handles GET /groups
// @Summary      List groups
// @Description  Paginated directory of groups visible to the caller
// @Tags         groups
// @Produce      json
// @Param        search query string false "Search in name and description"
// @Param        page query int false "Page number" default(1)
// @Param        per_page query int false "Items per page" default(20)
// @Success      200 {object} response.APIResponse{data=[]GroupResponse}
// @Router       /groups [get]
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	page, perPage := pageParams(r)
	groups, total, err := h.service.List(r.Context(), middleware.GetActor(r.Context()), r.URL.Query().Get("search"), page, perPage)
	if err != nil {
		h.fail(w, err, "Failed to list groups")
		return
	}
	response.JSONWithMeta(w, http.StatusOK, toResponses(groups), response.NewMeta(page, perPage, total))
}

// Mine handles GET /groups/mine
// @Summary      List my groups
// @Tags         groups
// @Produce      json
// @Param        page query int false "Page number" default(1)
// @Param        per_page query int false "Items per page" default(20)
// @Success      200 {object} response.APIResponse{data=[]GroupResponse}
// @Router       /groups/mine [get]
func (h *Handler) Mine(w http.ResponseWriter, r *http.Request) {
	page, perPage := pageParams(r)
	groups, total, err := h.service.ListForUser(r.Context(), middleware.GetActor(r.Context()), page, perPage)
	if err != nil {
		h.fail(w, err, "Failed to list groups")
		return
	}
	response.JSONWithMeta(w, http.StatusOK, toResponses(groups), response.NewMeta(page, perPage, total))
}

// AdminList handles GET /admin/groups
func (h *Handler) AdminList(w http.ResponseWriter, r *http.Request) {
	page, perPage := pageParams(r)
	groups, total, err := h.service.ListAll(r.Context(), r.URL.Query().Get("search"), page, perPage)
	if err != nil {
		h.fail(w, err, "Failed to list groups")
		return
	}
	response.JSONWithMeta(w, http.StatusOK, toResponses(groups), response.NewMeta(page, perPage, total))
}

// Update handles PUT /groups/{id}
// @Summary      Update group details and settings
// @Tags         groups
// @Accept       json
// @Produce      json
// @Param        id path int true "Group ID"
// @Param        request body UpdateGroupRequest true "Fields to change"
// @Success      200 {object} response.APIResponse{data=GroupResponse}
// @Failure      403 {object} response.APIResponse
// @Router       /groups/{id} [put]
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := groupID(w, r)
	if !ok {
		return
	}

	var req UpdateGroupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body")
		return
	}
	if err := validate.Struct(&req); err != nil {
		response.ValidationFailed(w, err.Error())
		return
	}

	group, err := h.service.UpdateSettings(r.Context(), middleware.GetActor(r.Context()), id, &req)
	if err != nil {
		h.fail(w, err, "Failed to update group")
		return
	}
	response.JSON(w, http.StatusOK, group.ToResponse())
}

// Delete handles DELETE /groups/{id} and DELETE /admin/groups/{id}
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := groupID(w, r)
	if !ok {
		return
	}

	if err := h.service.Delete(r.Context(), middleware.GetActor(r.Context()), id); err != nil {
		h.fail(w, err, "Failed to delete group")
		return
	}
	response.JSON(w, http.StatusOK, map[string]string{"message": "Group deleted successfully"})
}

func (h *Handler) fail(w http.ResponseWriter, err error, fallback string) {
	switch {
	case errors.Is(err, ErrGroupNotFound):
		response.NotFound(w, err.Error())
	case errors.Is(err, ErrUnauthenticated):
		response.Unauthorized(w, err.Error())
	case errors.Is(err, ErrNotAuthorized):
		response.Forbidden(w, err.Error())
	case errors.Is(err, ErrInvalidName), errors.Is(err, ErrInvalidStatus):
		response.BadRequest(w, err.Error())
	case errors.Is(err, ErrSlugTaken):
		response.Conflict(w, err.Error())
	default:
		h.log.Error(fallback, zap.Error(err))
		response.InternalError(w, fallback)
	}
}

func groupID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		response.BadRequest(w, "Invalid group ID")
		return 0, false
	}
	return id, true
}

func pageParams(r *http.Request) (int, int) {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	perPage, _ := strconv.Atoi(r.URL.Query().Get("per_page"))
	return paging(page, perPage)
}
