package handlers

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/eventhub-pro/eventhub-api/services"
)

type RegistrationHandler struct {
	registrationService services.RegistrationService
}

func NewRegistrationHandler(registrationService services.RegistrationService) *RegistrationHandler {
	return &RegistrationHandler{registrationService: registrationService}
}

// Register godoc
// @Summary   Register the caller for an event
// @Tags      registrations
// @Accept    json
// @Produce   json
// @Security  BearerAuth
// @Param     input  body      services.RegisterForEventInput  true  "Event"
// @Success   201    {object}  map[string]interface{}
// @Failure   400    {object}  map[string]string  "registration closed or event full"
// @Failure   404    {object}  map[string]string
// @Failure   409    {object}  map[string]string  "already registered"
// @Router    /registrations [post]
func (h *RegistrationHandler) Register(w http.ResponseWriter, r *http.Request) {
	identity, ok := requireIdentity(w, r)
	if !ok {
		return
	}

	var input services.RegisterForEventInput
	if !decodeAndValidate(w, r, &input) {
		return
	}

	reg, err := h.registrationService.Register(r.Context(), identity.UserID, input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	respond(w, r, http.StatusCreated, jsonResponse{
		"id":           reg.ID,
		"message":      "Registered successfully",
		"registration": reg,
	})
}

func (h *RegistrationHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	identity, ok := requireIdentity(w, r)
	if !ok {
		return
	}
	id, err := getIDFromURL(r, "registrationID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	if err := h.registrationService.Cancel(r.Context(), id, identity.UserID, identity.IsAdmin()); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	respond(w, r, http.StatusOK, jsonResponse{"message": "Registration cancelled"})
}

func (h *RegistrationHandler) Mine(w http.ResponseWriter, r *http.Request) {
	identity, ok := requireIdentity(w, r)
	if !ok {
		return
	}

	registrations, err := h.registrationService.ListMine(r.Context(), identity.UserID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	respond(w, r, http.StatusOK, registrations)
}

func (h *RegistrationHandler) Count(w http.ResponseWriter, r *http.Request) {
	count, err := h.registrationService.Count(r.Context())
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	respond(w, r, http.StatusOK, jsonResponse{"count": count})
}

// Ticket отдает PNG с QR-кодом регистрации.
func (h *RegistrationHandler) Ticket(w http.ResponseWriter, r *http.Request) {
	identity, ok := requireIdentity(w, r)
	if !ok {
		return
	}
	id, err := getIDFromURL(r, "registrationID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	png, err := h.registrationService.Ticket(r.Context(), id, identity.UserID, identity.IsAdmin())
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Content-Length", strconv.Itoa(len(png)))
	w.Header().Set("Content-Disposition", fmt.Sprintf(`inline; filename="ticket-%d.png"`, id))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(png)
}
