package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"estatecrm/internal/models"
	"estatecrm/internal/services"
)

type TeamHandler struct {
	Service *services.TeamService
}

func NewTeamHandler(service *services.TeamService) *TeamHandler {
	return &TeamHandler{Service: service}
}

func (h *TeamHandler) Create(c *gin.Context) {
	var m models.TeamMember
	if err := c.ShouldBindJSON(&m); err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}
	if err := h.Service.Create(&m); err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}
	respondData(c, http.StatusCreated, m)
}

func (h *TeamHandler) Update(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	current, err := h.Service.GetByID(id)
	if err != nil || current == nil {
		respondError(c, http.StatusNotFound, "team member not found")
		return
	}

	var body models.TeamMember
	if err := c.ShouldBindJSON(&body); err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}
	body.ID = id
	body.JoinedAt = current.JoinedAt

	if err := h.Service.Update(&body); err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}
	updated, _ := h.Service.GetByID(id)
	respondData(c, http.StatusOK, updated)
}

func (h *TeamHandler) GetByID(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	m, err := h.Service.GetByID(id)
	if err != nil || m == nil {
		respondError(c, http.StatusNotFound, "team member not found")
		return
	}
	respondData(c, http.StatusOK, m)
}

func (h *TeamHandler) Delete(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	m, err := h.Service.GetByID(id)
	if err != nil || m == nil {
		respondError(c, http.StatusNotFound, "team member not found")
		return
	}
	if err := h.Service.Delete(id); err != nil {
		respondError(c, http.StatusInternalServerError, err.Error())
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *TeamHandler) List(c *gin.Context) {
	team, err := h.Service.List()
	if err != nil {
		respondError(c, http.StatusInternalServerError, "failed to list team")
		return
	}
	if team == nil {
		team = []*models.TeamMember{}
	}
	respondData(c, http.StatusOK, team)
}
