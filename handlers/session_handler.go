package handlers

import (
	"net/http"

	"github.com/eventhub-pro/eventhub-api/services"
)

type SessionHandler struct {
	sessionService services.SessionService
}

func NewSessionHandler(sessionService services.SessionService) *SessionHandler {
	return &SessionHandler{sessionService: sessionService}
}

// ListByEvent - расписание события по времени начала.
func (h *SessionHandler) ListByEvent(w http.ResponseWriter, r *http.Request) {
	eventID, err := getIDFromURL(r, "eventID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	sessions, err := h.sessionService.ListByEvent(r.Context(), eventID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	respond(w, r, http.StatusOK, sessions)
}

func (h *SessionHandler) Count(w http.ResponseWriter, r *http.Request) {
	count, err := h.sessionService.Count(r.Context())
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	respond(w, r, http.StatusOK, jsonResponse{"count": count})
}

func (h *SessionHandler) Create(w http.ResponseWriter, r *http.Request) {
	var input services.SessionInput
	if !decodeAndValidate(w, r, &input) {
		return
	}

	session, err := h.sessionService.Create(r.Context(), input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	respond(w, r, http.StatusCreated, jsonResponse{
		"id":      session.ID,
		"message": "Session created successfully",
		"session": session,
	})
}

func (h *SessionHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := getIDFromURL(r, "sessionID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	var input services.SessionInput
	if !decodeAndValidate(w, r, &input) {
		return
	}

	session, err := h.sessionService.Update(r.Context(), id, input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	respond(w, r, http.StatusOK, session)
}

func (h *SessionHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := getIDFromURL(r, "sessionID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	if err := h.sessionService.Delete(r.Context(), id); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	respond(w, r, http.StatusOK, jsonResponse{"message": "Session deleted successfully"})
}
