package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"estatecrm/internal/models"
	"estatecrm/internal/pdf"
	"estatecrm/internal/services"
)

type PropertyHandler struct {
	Service  *services.PropertyService
	TeamRepo TeamLookup
	Brochure pdf.Generator
}

// TeamLookup — ровно то, что нужно хендлеру для подписи буклета.
type TeamLookup interface {
	GetByID(id int) (*models.TeamMember, error)
}

func NewPropertyHandler(service *services.PropertyService, teamRepo TeamLookup, brochure pdf.Generator) *PropertyHandler {
	return &PropertyHandler{Service: service, TeamRepo: teamRepo, Brochure: brochure}
}

func (h *PropertyHandler) Create(c *gin.Context) {
	var p models.Property
	if err := c.ShouldBindJSON(&p); err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}
	if err := h.Service.Create(&p); err != nil {
		respondError(c, http.StatusInternalServerError, err.Error())
		return
	}
	respondData(c, http.StatusCreated, p)
}

func (h *PropertyHandler) Update(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	current, err := h.Service.GetByID(id)
	if err != nil || current == nil {
		respondError(c, http.StatusNotFound, "property not found")
		return
	}

	var body models.Property
	if err := c.ShouldBindJSON(&body); err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}
	body.ID = id
	body.CreatedAt = current.CreatedAt

	if err := h.Service.Update(&body); err != nil {
		respondError(c, http.StatusInternalServerError, err.Error())
		return
	}
	updated, _ := h.Service.GetByID(id)
	respondData(c, http.StatusOK, updated)
}

func (h *PropertyHandler) GetByID(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	p, err := h.Service.GetByID(id)
	if err != nil || p == nil {
		respondError(c, http.StatusNotFound, "property not found")
		return
	}
	respondData(c, http.StatusOK, p)
}

func (h *PropertyHandler) Delete(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	p, err := h.Service.GetByID(id)
	if err != nil || p == nil {
		respondError(c, http.StatusNotFound, "property not found")
		return
	}
	if err := h.Service.Delete(id); err != nil {
		respondError(c, http.StatusInternalServerError, err.Error())
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *PropertyHandler) List(c *gin.Context) {
	properties, err := h.Service.List()
	if err != nil {
		respondError(c, http.StatusInternalServerError, "failed to list properties")
		return
	}
	if properties == nil {
		properties = []*models.Property{}
	}
	respondData(c, http.StatusOK, properties)
}

// Brochure генерит PDF-буклет объекта и отдаёт файлом.
func (h *PropertyHandler) GenerateBrochure(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	p, err := h.Service.GetByID(id)
	if err != nil || p == nil {
		respondError(c, http.StatusNotFound, "property not found")
		return
	}

	agentName := ""
	if agentID, err := strconv.Atoi(c.Query("agent_id")); err == nil && agentID > 0 {
		if member, err := h.TeamRepo.GetByID(agentID); err == nil && member != nil {
			agentName = member.Name
		}
	}

	path, err := h.Brochure.GenerateBrochure(p, agentName)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "failed to generate brochure")
		return
	}
	c.FileAttachment(path, "brochure.pdf")
}
