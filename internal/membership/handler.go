package membership

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/fkhayef/groups/pkg/middleware"
	"github.com/fkhayef/groups/pkg/response"
	"github.com/fkhayef/groups/pkg/validate"
)

// Handler handles HTTP requests for membership operations
type Handler struct {
	engine *Engine
	log    *zap.Logger
}

// NewHandler creates a new membership handler
func NewHandler(engine *Engine, log *zap.Logger) *Handler {
	return &Handler{engine: engine, log: log}
}

// Register adds membership routes to a router scoped to /groups/{id}
func (h *Handler) Register(r chi.Router) {
	r.Get("/members", h.ListMembers)
	r.Get("/members/me", h.Self)

	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireActor)

		r.Post("/join", h.Join)
		r.Post("/leave", h.Leave)

		r.Post("/invites", h.Invite)
		r.Get("/invites/unsent", h.UnsentInvites)
		r.Post("/invites/send", h.SendInvites)
		r.Post("/invites/accept", h.AcceptInvite)
		r.Post("/invites/reject", h.RejectInvite)
		r.Delete("/invites/{userId}", h.Uninvite)

		r.Post("/requests", h.RequestMembership)
		r.Get("/requests", h.ListRequests)
		r.Post("/requests/{requestId}/accept", h.AcceptRequest)
		r.Post("/requests/{requestId}/reject", h.RejectRequest)

		r.Post("/members/{userId}/promote", h.Promote)
		r.Post("/members/{userId}/demote", h.Demote)
		r.Post("/members/{userId}/ban", h.Ban)
		r.Post("/members/{userId}/unban", h.Unban)
		r.Put("/members/{userId}/role", h.ChangeRole)
		r.Delete("/members/{userId}", h.Remove)
	})
}

// MyInvites handles GET /me/invites
// @Summary      List my invitations
// @Tags         memberships
// @Produce      json
// @Success      200 {object} response.APIResponse{data=[]MemberResponse}
// @Router       /me/invites [get]
func (h *Handler) MyInvites(w http.ResponseWriter, r *http.Request) {
	invites, err := h.engine.InvitesFor(r.Context(), middleware.GetActor(r.Context()))
	if err != nil {
		h.fail(w, err, "Failed to list invitations")
		return
	}
	response.JSON(w, http.StatusOK, toResponses(invites))
}

// ListMembers handles GET /groups/{id}/members
// @Summary      List group members
// @Tags         memberships
// @Produce      json
// @Param        id path int true "Group ID"
// @Param        role query string false "Comma separated roles (member,mod,admin)"
// @Param        banned query string false "include or only"
// @Success      200 {object} response.APIResponse{data=[]MemberResponse}
// @Router       /groups/{id}/members [get]
func (h *Handler) ListMembers(w http.ResponseWriter, r *http.Request) {
	groupID, ok := pathID(w, r, "id", "Invalid group ID")
	if !ok {
		return
	}

	q := r.URL.Query()
	var filter MemberFilter
	if roles := q.Get("role"); roles != "" {
		for _, part := range strings.Split(roles, ",") {
			role := Role(strings.TrimSpace(part))
			if !role.Valid() {
				response.BadRequest(w, "Invalid role filter")
				return
			}
			filter.Roles = append(filter.Roles, role)
		}
	}
	switch q.Get("banned") {
	case "include":
		filter.IncludeBanned = true
	case "only":
		filter.OnlyBanned = true
	}

	page, _ := strconv.Atoi(q.Get("page"))
	perPage, _ := strconv.Atoi(q.Get("per_page"))
	if page < 1 {
		page = 1
	}
	if perPage < 1 || perPage > 100 {
		perPage = 20
	}

	members, total, err := h.engine.Members(r.Context(), middleware.GetActor(r.Context()), groupID, filter, page, perPage)
	if err != nil {
		h.fail(w, err, "Failed to list members")
		return
	}

	response.JSONWithMeta(w, http.StatusOK, toResponses(members), response.NewMeta(page, perPage, total))
}

// Self handles GET /groups/{id}/members/me
func (h *Handler) Self(w http.ResponseWriter, r *http.Request) {
	groupID, ok := pathID(w, r, "id", "Invalid group ID")
	if !ok {
		return
	}

	caps, m, err := h.engine.Capabilities(r.Context(), middleware.GetActor(r.Context()), groupID)
	if err != nil {
		h.fail(w, err, "Failed to load membership")
		return
	}

	resp := SelfResponse{Status: StatusLabel(m), Capabilities: caps.List()}
	if m != nil {
		resp.Membership = m.ToResponse()
	}
	response.JSON(w, http.StatusOK, resp)
}

// Join handles POST /groups/{id}/join
// @Summary      Join a public group
// @Tags         memberships
// @Produce      json
// @Param        id path int true "Group ID"
// @Success      200 {object} response.APIResponse{data=OutcomeResponse}
// @Failure      403 {object} response.APIResponse
// @Router       /groups/{id}/join [post]
func (h *Handler) Join(w http.ResponseWriter, r *http.Request) {
	groupID, ok := pathID(w, r, "id", "Invalid group ID")
	if !ok {
		return
	}
	outcome, err := h.engine.Join(r.Context(), middleware.GetActor(r.Context()), groupID)
	h.outcome(w, outcome, err, "Failed to join group")
}

// Leave handles POST /groups/{id}/leave
func (h *Handler) Leave(w http.ResponseWriter, r *http.Request) {
	groupID, ok := pathID(w, r, "id", "Invalid group ID")
	if !ok {
		return
	}
	outcome, err := h.engine.Leave(r.Context(), middleware.GetActor(r.Context()), groupID)
	h.outcome(w, outcome, err, "Failed to leave group")
}

// Invite handles POST /groups/{id}/invites
// @Summary      Invite users
// @Description  Record invitations and optionally send them right away
// @Tags         memberships
// @Accept       json
// @Produce      json
// @Param        id path int true "Group ID"
// @Param        request body InviteRequest true "Users to invite"
// @Success      200 {object} response.APIResponse{data=InviteResponse}
// @Router       /groups/{id}/invites [post]
func (h *Handler) Invite(w http.ResponseWriter, r *http.Request) {
	groupID, ok := pathID(w, r, "id", "Invalid group ID")
	if !ok {
		return
	}

	var req InviteRequest
	if !decode(w, r, &req) {
		return
	}

	a := middleware.GetActor(r.Context())
	resp := InviteResponse{Results: make([]InviteResult, 0, len(req.UserIDs))}
	for _, userID := range req.UserIDs {
		outcome, err := h.engine.Invite(r.Context(), a, groupID, userID, req.Message)
		if err != nil {
			if KindOf(err) == KindInternal || errors.Is(err, ErrCannotInvite) || errors.Is(err, ErrGroupNotFound) {
				h.fail(w, err, "Failed to invite users")
				return
			}
			resp.Results = append(resp.Results, InviteResult{UserID: userID, Error: err.Error()})
			continue
		}
		resp.Results = append(resp.Results, InviteResult{UserID: userID, Outcome: outcome})
	}

	if req.Send {
		sent, err := h.engine.SendInvites(r.Context(), a, groupID)
		if err != nil {
			h.fail(w, err, "Failed to send invitations")
			return
		}
		resp.Sent = sent
	}

	response.JSON(w, http.StatusOK, resp)
}

// UnsentInvites handles GET /groups/{id}/invites/unsent
func (h *Handler) UnsentInvites(w http.ResponseWriter, r *http.Request) {
	groupID, ok := pathID(w, r, "id", "Invalid group ID")
	if !ok {
		return
	}
	invites, err := h.engine.UnsentInvites(r.Context(), middleware.GetActor(r.Context()), groupID)
	if err != nil {
		h.fail(w, err, "Failed to list invitations")
		return
	}
	response.JSON(w, http.StatusOK, toResponses(invites))
}

// SendInvites handles POST /groups/{id}/invites/send
func (h *Handler) SendInvites(w http.ResponseWriter, r *http.Request) {
	groupID, ok := pathID(w, r, "id", "Invalid group ID")
	if !ok {
		return
	}
	sent, err := h.engine.SendInvites(r.Context(), middleware.GetActor(r.Context()), groupID)
	if err != nil {
		h.fail(w, err, "Failed to send invitations")
		return
	}
	response.JSON(w, http.StatusOK, SendResponse{Sent: sent})
}

// AcceptInvite handles POST /groups/{id}/invites/accept
func (h *Handler) AcceptInvite(w http.ResponseWriter, r *http.Request) {
	groupID, ok := pathID(w, r, "id", "Invalid group ID")
	if !ok {
		return
	}
	outcome, err := h.engine.AcceptInvite(r.Context(), middleware.GetActor(r.Context()), groupID)
	h.outcome(w, outcome, err, "Failed to accept invitation")
}

// RejectInvite handles POST /groups/{id}/invites/reject
func (h *Handler) RejectInvite(w http.ResponseWriter, r *http.Request) {
	groupID, ok := pathID(w, r, "id", "Invalid group ID")
	if !ok {
		return
	}
	outcome, err := h.engine.RejectInvite(r.Context(), middleware.GetActor(r.Context()), groupID)
	h.outcome(w, outcome, err, "Failed to reject invitation")
}

// Uninvite handles DELETE /groups/{id}/invites/{userId}
func (h *Handler) Uninvite(w http.ResponseWriter, r *http.Request) {
	groupID, userID, ok := groupAndUser(w, r)
	if !ok {
		return
	}
	outcome, err := h.engine.Uninvite(r.Context(), middleware.GetActor(r.Context()), groupID, userID)
	h.outcome(w, outcome, err, "Failed to withdraw invitation")
}

// RequestMembership handles POST /groups/{id}/requests
// @Summary      Request membership
// @Tags         memberships
// @Accept       json
// @Produce      json
// @Param        id path int true "Group ID"
// @Param        request body JoinRequest false "Optional message to the admins"
// @Success      200 {object} response.APIResponse{data=OutcomeResponse}
// @Failure      409 {object} response.APIResponse
// @Router       /groups/{id}/requests [post]
func (h *Handler) RequestMembership(w http.ResponseWriter, r *http.Request) {
	groupID, ok := pathID(w, r, "id", "Invalid group ID")
	if !ok {
		return
	}

	var req JoinRequest
	if r.ContentLength != 0 && !decode(w, r, &req) {
		return
	}

	outcome, err := h.engine.RequestMembership(r.Context(), middleware.GetActor(r.Context()), groupID, req.Comment)
	h.outcome(w, outcome, err, "Failed to request membership")
}

// ListRequests handles GET /groups/{id}/requests
func (h *Handler) ListRequests(w http.ResponseWriter, r *http.Request) {
	groupID, ok := pathID(w, r, "id", "Invalid group ID")
	if !ok {
		return
	}
	requests, err := h.engine.PendingRequests(r.Context(), middleware.GetActor(r.Context()), groupID)
	if err != nil {
		h.fail(w, err, "Failed to list requests")
		return
	}
	response.JSON(w, http.StatusOK, toResponses(requests))
}

// AcceptRequest handles POST /groups/{id}/requests/{requestId}/accept
func (h *Handler) AcceptRequest(w http.ResponseWriter, r *http.Request) {
	h.decide(w, r, true)
}

// RejectRequest handles POST /groups/{id}/requests/{requestId}/reject
func (h *Handler) RejectRequest(w http.ResponseWriter, r *http.Request) {
	h.decide(w, r, false)
}

func (h *Handler) decide(w http.ResponseWriter, r *http.Request, accept bool) {
	groupID, ok := pathID(w, r, "id", "Invalid group ID")
	if !ok {
		return
	}
	requestID, ok := pathID(w, r, "requestId", "Invalid request ID")
	if !ok {
		return
	}

	a := middleware.GetActor(r.Context())
	ref := RequestRef{GroupID: groupID, ID: requestID}
	var (
		m   *Membership
		err error
	)
	if accept {
		m, err = h.engine.AcceptMembershipRequest(r.Context(), a, ref)
	} else {
		m, err = h.engine.RejectMembershipRequest(r.Context(), a, ref)
	}
	if err != nil {
		h.fail(w, err, "Failed to process request")
		return
	}
	response.JSON(w, http.StatusOK, m.ToResponse())
}

// Promote handles POST /groups/{id}/members/{userId}/promote
// @Summary      Promote a member
// @Tags         memberships
// @Accept       json
// @Produce      json
// @Param        id path int true "Group ID"
// @Param        userId path int true "User ID"
// @Param        request body PromoteRequest true "Target role"
// @Success      200 {object} response.APIResponse{data=OutcomeResponse}
// @Failure      403 {object} response.APIResponse
// @Router       /groups/{id}/members/{userId}/promote [post]
func (h *Handler) Promote(w http.ResponseWriter, r *http.Request) {
	groupID, userID, ok := groupAndUser(w, r)
	if !ok {
		return
	}
	var req PromoteRequest
	if !decode(w, r, &req) {
		return
	}
	outcome, err := h.engine.Promote(r.Context(), middleware.GetActor(r.Context()), groupID, userID, req.Role)
	h.outcome(w, outcome, err, "Failed to promote member")
}

// Demote handles POST /groups/{id}/members/{userId}/demote
func (h *Handler) Demote(w http.ResponseWriter, r *http.Request) {
	groupID, userID, ok := groupAndUser(w, r)
	if !ok {
		return
	}
	outcome, err := h.engine.Demote(r.Context(), middleware.GetActor(r.Context()), groupID, userID)
	h.outcome(w, outcome, err, "Failed to demote member")
}

// Ban handles POST /groups/{id}/members/{userId}/ban
func (h *Handler) Ban(w http.ResponseWriter, r *http.Request) {
	groupID, userID, ok := groupAndUser(w, r)
	if !ok {
		return
	}
	outcome, err := h.engine.Ban(r.Context(), middleware.GetActor(r.Context()), groupID, userID)
	h.outcome(w, outcome, err, "Failed to ban member")
}

// Unban handles POST /groups/{id}/members/{userId}/unban
func (h *Handler) Unban(w http.ResponseWriter, r *http.Request) {
	groupID, userID, ok := groupAndUser(w, r)
	if !ok {
		return
	}
	outcome, err := h.engine.Unban(r.Context(), middleware.GetActor(r.Context()), groupID, userID)
	h.outcome(w, outcome, err, "Failed to unban member")
}

// ChangeRole handles PUT /groups/{id}/members/{userId}/role
func (h *Handler) ChangeRole(w http.ResponseWriter, r *http.Request) {
	groupID, userID, ok := groupAndUser(w, r)
	if !ok {
		return
	}
	var req ChangeRoleRequest
	if !decode(w, r, &req) {
		return
	}
	outcome, err := h.engine.ChangeRole(r.Context(), middleware.GetActor(r.Context()), groupID, userID, req.Role)
	h.outcome(w, outcome, err, "Failed to change role")
}

// Remove handles DELETE /groups/{id}/members/{userId}
func (h *Handler) Remove(w http.ResponseWriter, r *http.Request) {
	groupID, userID, ok := groupAndUser(w, r)
	if !ok {
		return
	}
	outcome, err := h.engine.Remove(r.Context(), middleware.GetActor(r.Context()), groupID, userID)
	h.outcome(w, outcome, err, "Failed to remove member")
}

func (h *Handler) outcome(w http.ResponseWriter, outcome Outcome, err error, fallback string) {
	if err != nil {
		h.fail(w, err, fallback)
		return
	}
	response.JSON(w, http.StatusOK, OutcomeResponse{Outcome: outcome})
}

// fail maps engine errors to responses
func (h *Handler) fail(w http.ResponseWriter, err error, fallback string) {
	switch KindOf(err) {
	case KindDenied:
		if errors.Is(err, ErrUnauthenticated) {
			response.Unauthorized(w, err.Error())
			return
		}
		response.Forbidden(w, err.Error())
	case KindInvariant:
		response.Error(w, http.StatusConflict, "INVARIANT_VIOLATION", err.Error())
	case KindConflict:
		response.Conflict(w, err.Error())
	case KindNotFound:
		response.NotFound(w, err.Error())
	case KindInvalid:
		response.BadRequest(w, err.Error())
	default:
		h.log.Error(fallback, zap.Error(err))
		response.InternalError(w, fallback)
	}
}

func decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		response.BadRequest(w, "Invalid request body")
		return false
	}
	if err := validate.Struct(dst); err != nil {
		response.ValidationFailed(w, err.Error())
		return false
	}
	return true
}

func pathID(w http.ResponseWriter, r *http.Request, param, msg string) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, param), 10, 64)
	if err != nil || id <= 0 {
		response.BadRequest(w, msg)
		return 0, false
	}
	return id, true
}

func groupAndUser(w http.ResponseWriter, r *http.Request) (int64, int64, bool) {
	groupID, ok := pathID(w, r, "id", "Invalid group ID")
	if !ok {
		return 0, 0, false
	}
	userID, ok := pathID(w, r, "userId", "Invalid user ID")
	if !ok {
		return 0, 0, false
	}
	return groupID, userID, true
}
