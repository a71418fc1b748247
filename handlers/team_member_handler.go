package handlers

import (
	"net/http"

	"github.com/eventhub-pro/eventhub-api/services"
)

type TeamMemberHandler struct {
	memberService services.TeamMemberService
}

func NewTeamMemberHandler(memberService services.TeamMemberService) *TeamMemberHandler {
	return &TeamMemberHandler{memberService: memberService}
}

func (h *TeamMemberHandler) ListByTeam(w http.ResponseWriter, r *http.Request) {
	teamID, err := getIDFromURL(r, "teamID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	members, err := h.memberService.ListByTeam(r.Context(), teamID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	respond(w, r, http.StatusOK, members)
}

func (h *TeamMemberHandler) MyInvitations(w http.ResponseWriter, r *http.Request) {
	identity, ok := requireIdentity(w, r)
	if !ok {
		return
	}

	invitations, err := h.memberService.ListInvitations(r.Context(), identity.UserID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	respond(w, r, http.StatusOK, invitations)
}

func (h *TeamMemberHandler) MyTeams(w http.ResponseWriter, r *http.Request) {
	identity, ok := requireIdentity(w, r)
	if !ok {
		return
	}

	teams, err := h.memberService.ListMyTeams(r.Context(), identity.UserID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	respond(w, r, http.StatusOK, teams)
}

// Invite godoc
// @Summary   Invite a user to the caller's team by email
// @Tags      team-members
// @Accept    json
// @Produce   json
// @Security  BearerAuth
// @Param     input  body      services.InviteInput  true  "Invitation"
// @Success   200    {object}  map[string]interface{}  "rejected invitation resent"
// @Success   201    {object}  map[string]interface{}
// @Failure   400    {object}  map[string]string
// @Failure   403    {object}  map[string]string
// @Failure   404    {object}  map[string]string
// @Router    /team-members/invite [post]
func (h *TeamMemberHandler) Invite(w http.ResponseWriter, r *http.Request) {
	identity, ok := requireIdentity(w, r)
	if !ok {
		return
	}

	var input services.InviteInput
	if !decodeAndValidate(w, r, &input) {
		return
	}

	member, resent, err := h.memberService.Invite(r.Context(), identity.UserID, input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if resent {
		respond(w, r, http.StatusOK, jsonResponse{
			"message":       "Invitation resent successfully",
			"invitation_id": member.ID,
		})
		return
	}
	respond(w, r, http.StatusCreated, jsonResponse{
		"message":       "Invitation sent successfully",
		"invitation_id": member.ID,
	})
}

func (h *TeamMemberHandler) Accept(w http.ResponseWriter, r *http.Request) {
	identity, ok := requireIdentity(w, r)
	if !ok {
		return
	}
	invitationID, err := getIDFromURL(r, "invitationID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	if _, err := h.memberService.Accept(r.Context(), invitationID, identity.UserID); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	respond(w, r, http.StatusOK, jsonResponse{"message": "Invitation accepted successfully"})
}

func (h *TeamMemberHandler) Reject(w http.ResponseWriter, r *http.Request) {
	identity, ok := requireIdentity(w, r)
	if !ok {
		return
	}
	invitationID, err := getIDFromURL(r, "invitationID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	if _, err := h.memberService.Reject(r.Context(), invitationID, identity.UserID); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	respond(w, r, http.StatusOK, jsonResponse{"message": "Invitation rejected"})
}

func (h *TeamMemberHandler) Remove(w http.ResponseWriter, r *http.Request) {
	identity, ok := requireIdentity(w, r)
	if !ok {
		return
	}
	memberID, err := getIDFromURL(r, "memberID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	if err := h.memberService.Remove(r.Context(), memberID, identity.UserID); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	respond(w, r, http.StatusOK, jsonResponse{"message": "Member removed successfully"})
}

func (h *TeamMemberHandler) Leave(w http.ResponseWriter, r *http.Request) {
	identity, ok := requireIdentity(w, r)
	if !ok {
		return
	}
	teamID, err := getIDFromURL(r, "teamID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	if err := h.memberService.Leave(r.Context(), teamID, identity.UserID); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	respond(w, r, http.StatusOK, jsonResponse{"message": "You have left the team"})
}
