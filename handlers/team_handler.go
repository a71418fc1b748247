package handlers

import (
	"net/http"

	"github.com/eventhub-pro/eventhub-api/services"
)

type TeamHandler struct {
	teamService services.TeamService
}

func NewTeamHandler(teamService services.TeamService) *TeamHandler {
	return &TeamHandler{teamService: teamService}
}

func (h *TeamHandler) Count(w http.ResponseWriter, r *http.Request) {
	count, err := h.teamService.Count(r.Context())
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	respond(w, r, http.StatusOK, jsonResponse{"count": count})
}

func (h *TeamHandler) List(w http.ResponseWriter, r *http.Request) {
	teams, err := h.teamService.List(r.Context())
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	respond(w, r, http.StatusOK, teams)
}

func (h *TeamHandler) ListByEvent(w http.ResponseWriter, r *http.Request) {
	eventID, err := getIDFromURL(r, "eventID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	teams, err := h.teamService.ListByEvent(r.Context(), eventID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	respond(w, r, http.StatusOK, teams)
}

// GetByID godoc
// @Summary   Team with its members
// @Tags      teams
// @Produce   json
// @Security  BearerAuth
// @Param     teamID  path      int  true  "Team ID"
// @Success   200     {object}  models.Team
// @Failure   404     {object}  map[string]string
// @Router    /teams/{teamID} [get]
func (h *TeamHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	teamID, err := getIDFromURL(r, "teamID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	team, err := h.teamService.GetWithMembers(r.Context(), teamID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	respond(w, r, http.StatusOK, team)
}

// Create godoc
// @Summary   Create a team, the caller becomes its captain
// @Tags      teams
// @Accept    json
// @Produce   json
// @Security  BearerAuth
// @Param     input  body      services.CreateTeamInput  true  "Team"
// @Success   201    {object}  map[string]interface{}
// @Failure   400    {object}  map[string]string
// @Router    /teams [post]
func (h *TeamHandler) Create(w http.ResponseWriter, r *http.Request) {
	identity, ok := requireIdentity(w, r)
	if !ok {
		return
	}

	var input services.CreateTeamInput
	if !decodeAndValidate(w, r, &input) {
		return
	}

	team, err := h.teamService.Create(r.Context(), identity.UserID, input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	respond(w, r, http.StatusCreated, jsonResponse{
		"id":      team.ID,
		"message": "Team created successfully",
		"team":    team,
	})
}

func (h *TeamHandler) Update(w http.ResponseWriter, r *http.Request) {
	identity, ok := requireIdentity(w, r)
	if !ok {
		return
	}
	teamID, err := getIDFromURL(r, "teamID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	var input services.RenameTeamInput
	if !decodeAndValidate(w, r, &input) {
		return
	}

	team, err := h.teamService.Rename(r.Context(), teamID, identity.UserID, input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	respond(w, r, http.StatusOK, jsonResponse{"message": "Team updated successfully", "team": team})
}

func (h *TeamHandler) Delete(w http.ResponseWriter, r *http.Request) {
	identity, ok := requireIdentity(w, r)
	if !ok {
		return
	}
	teamID, err := getIDFromURL(r, "teamID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	if err := h.teamService.Delete(r.Context(), teamID, identity.UserID); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	respond(w, r, http.StatusOK, jsonResponse{"message": "Team deleted successfully"})
}
