package handlers

import (
	"net/http"

	"github.com/eventhub-pro/eventhub-api/services"
)

type AdminHandler struct {
	adminService services.AdminService
}

func NewAdminHandler(adminService services.AdminService) *AdminHandler {
	return &AdminHandler{adminService: adminService}
}

func (h *AdminHandler) TeamMembersCount(w http.ResponseWriter, r *http.Request) {
	count, err := h.adminService.TeamMembersCount(r.Context())
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	respond(w, r, http.StatusOK, jsonResponse{"count": count})
}

func (h *AdminHandler) TeamMembers(w http.ResponseWriter, r *http.Request) {
	rows, err := h.adminService.TeamMembersOverview(r.Context())
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	respond(w, r, http.StatusOK, rows)
}

// Stats godoc
// @Summary   Aggregate counters for the admin panel
// @Tags      admin
// @Produce   json
// @Security  BearerAuth
// @Success   200  {object}  models.AdminStats
// @Router    /admin/stats [get]
func (h *AdminHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.adminService.Stats(r.Context())
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	respond(w, r, http.StatusOK, stats)
}
