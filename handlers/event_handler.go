package handlers

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/eventhub-pro/eventhub-api/models"
	"github.com/eventhub-pro/eventhub-api/services"
)

const maxPosterBytes = 10 << 20 // 10MB

type EventHandler struct {
	eventService services.EventService
}

func NewEventHandler(eventService services.EventService) *EventHandler {
	return &EventHandler{eventService: eventService}
}

// List godoc
// @Summary  List events
// @Tags     events
// @Produce  json
// @Param    sortBy  query     string  false  "latest | oldest | alphabetical | open-first | closed-first"
// @Success  200     {array}   models.Event
// @Router   /events [get]
func (h *EventHandler) List(w http.ResponseWriter, r *http.Request) {
	sort := models.EventSort(r.URL.Query().Get("sortBy"))

	events, err := h.eventService.List(r.Context(), sort)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	respond(w, r, http.StatusOK, events)
}

func (h *EventHandler) Count(w http.ResponseWriter, r *http.Request) {
	count, err := h.eventService.Count(r.Context())
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	respond(w, r, http.StatusOK, jsonResponse{"count": count})
}

// GetByID godoc
// @Summary  Get an event
// @Tags     events
// @Produce  json
// @Param    eventID  path      int  true  "Event ID"
// @Success  200      {object}  models.Event
// @Failure  404      {object}  map[string]string
// @Router   /events/{eventID} [get]
func (h *EventHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	id, err := getIDFromURL(r, "eventID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	event, err := h.eventService.GetByID(r.Context(), id)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	respond(w, r, http.StatusOK, event)
}

// Create godoc
// @Summary   Create an event
// @Tags      events
// @Accept    json
// @Produce   json
// @Security  BearerAuth
// @Param     input  body      services.EventInput  true  "Event"
// @Success   201    {object}  map[string]interface{}
// @Failure   400    {object}  map[string]string
// @Router    /events [post]
func (h *EventHandler) Create(w http.ResponseWriter, r *http.Request) {
	var input services.EventInput
	if !decodeAndValidate(w, r, &input) {
		return
	}

	event, err := h.eventService.Create(r.Context(), input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	respond(w, r, http.StatusCreated, jsonResponse{
		"id":      event.ID,
		"message": "Event created successfully",
		"event":   event,
	})
}

func (h *EventHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := getIDFromURL(r, "eventID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	var input services.EventInput
	if !decodeAndValidate(w, r, &input) {
		return
	}

	event, err := h.eventService.Update(r.Context(), id, input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	respond(w, r, http.StatusOK, event)
}

// Delete godoc
// @Summary   Delete an event
// @Tags      events
// @Produce   json
// @Security  BearerAuth
// @Param     eventID  path      int   true   "Event ID"
// @Param     force    query     bool  false  "Also delete teams and registrations"
// @Success   200      {object}  map[string]string
// @Failure   409      {object}  map[string]string
// @Router    /events/{eventID} [delete]
func (h *EventHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := getIDFromURL(r, "eventID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	force := false
	if raw := r.URL.Query().Get("force"); raw != "" {
		force, err = strconv.ParseBool(raw)
		if err != nil {
			badRequestResponse(w, r, errors.New("invalid force query parameter"))
			return
		}
	}

	if err := h.eventService.Delete(r.Context(), id, force); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	respond(w, r, http.StatusOK, jsonResponse{"message": "Event deleted successfully"})
}

// UploadPoster принимает multipart-форму с файлом в поле "poster".
func (h *EventHandler) UploadPoster(w http.ResponseWriter, r *http.Request) {
	id, err := getIDFromURL(r, "eventID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxPosterBytes)
	if err := r.ParseMultipartForm(maxPosterBytes); err != nil {
		badRequestResponse(w, r, fmt.Errorf("failed to parse multipart form: %w", err))
		return
	}

	file, header, err := r.FormFile("poster")
	if err != nil {
		badRequestResponse(w, r, errors.New("poster file is required"))
		return
	}
	defer file.Close()

	contentType := header.Header.Get("Content-Type")
	if contentType == "" {
		sniff := make([]byte, 512)
		n, _ := file.Read(sniff)
		contentType = http.DetectContentType(sniff[:n])
		if _, err := file.Seek(0, io.SeekStart); err != nil {
			serverErrorResponse(w, r, err)
			return
		}
	}

	event, err := h.eventService.UploadPoster(r.Context(), id, contentType, file)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	respond(w, r, http.StatusOK, event)
}
