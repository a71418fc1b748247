package handlers

import (
	"net/http"

	"github.com/eventhub-pro/eventhub-api/services"
)

type UserHandler struct {
	userService services.UserService
}

func NewUserHandler(userService services.UserService) *UserHandler {
	return &UserHandler{userService: userService}
}

// Me godoc
// @Summary   Current user profile
// @Tags      users
// @Produce   json
// @Security  BearerAuth
// @Success   200  {object}  models.User
// @Failure   401  {object}  map[string]string
// @Router    /users/me [get]
func (h *UserHandler) Me(w http.ResponseWriter, r *http.Request) {
	identity, ok := requireIdentity(w, r)
	if !ok {
		return
	}

	user, err := h.userService.GetByID(r.Context(), identity.UserID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	respond(w, r, http.StatusOK, user)
}

func (h *UserHandler) UpdateMe(w http.ResponseWriter, r *http.Request) {
	identity, ok := requireIdentity(w, r)
	if !ok {
		return
	}

	var input services.UpdateProfileInput
	if !decodeAndValidate(w, r, &input) {
		return
	}

	user, err := h.userService.UpdateProfile(r.Context(), identity.UserID, input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	respond(w, r, http.StatusOK, jsonResponse{"message": "Profile updated successfully", "user": user})
}

func (h *UserHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	identity, ok := requireIdentity(w, r)
	if !ok {
		return
	}

	var input services.ChangePasswordInput
	if !decodeAndValidate(w, r, &input) {
		return
	}

	if err := h.userService.ChangePassword(r.Context(), identity.UserID, input); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	respond(w, r, http.StatusOK, jsonResponse{"message": "Password changed successfully"})
}

// Count - число пользователей без прав администратора.
func (h *UserHandler) Count(w http.ResponseWriter, r *http.Request) {
	count, err := h.userService.CountParticipants(r.Context())
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	respond(w, r, http.StatusOK, jsonResponse{"count": count})
}

func (h *UserHandler) List(w http.ResponseWriter, r *http.Request) {
	participants, err := h.userService.ListParticipants(r.Context())
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	respond(w, r, http.StatusOK, participants)
}

func (h *UserHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	identity, ok := requireIdentity(w, r)
	if !ok {
		return
	}
	id, err := getIDFromURL(r, "userID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	user, err := h.userService.GetForViewer(r.Context(), id, identity.UserID, identity.IsAdmin())
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	respond(w, r, http.StatusOK, user)
}

// Delete godoc
// @Summary   Delete a participant with memberships and registrations
// @Tags      users
// @Produce   json
// @Security  BearerAuth
// @Param     userID  path      int  true  "User ID"
// @Success   200     {object}  map[string]interface{}
// @Failure   403     {object}  map[string]string
// @Failure   404     {object}  map[string]string
// @Router    /users/{userID} [delete]
func (h *UserHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := getIDFromURL(r, "userID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	stats, err := h.userService.Delete(r.Context(), id)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	respond(w, r, http.StatusOK, jsonResponse{
		"message": "User deleted successfully",
		"details": stats,
	})
}
