package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"estatecrm/internal/authz"
	"estatecrm/internal/models"
	"estatecrm/internal/services"
)

type LeadHandler struct {
	Service *services.LeadService
}

func NewLeadHandler(service *services.LeadService) *LeadHandler {
	return &LeadHandler{Service: service}
}

func (h *LeadHandler) Create(c *gin.Context) {
	var lead models.Lead
	if err := c.ShouldBindJSON(&lead); err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}
	if lead.Status != "" && !models.ValidLeadStatus(lead.Status) {
		respondError(c, http.StatusBadRequest, "invalid status")
		return
	}

	if err := h.Service.Create(&lead); err != nil {
		respondError(c, http.StatusInternalServerError, err.Error())
		return
	}
	respondData(c, http.StatusCreated, lead)
}

func (h *LeadHandler) Update(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	current, err := h.Service.GetByID(id)
	if err != nil || current == nil {
		respondError(c, http.StatusNotFound, "lead not found")
		return
	}

	// agent правит только свои лиды
	_, role := getUserAndRole(c)
	if role == authz.RoleAgent && current.AssignedToID != getMemberID(c) {
		respondError(c, http.StatusForbidden, "lead is assigned to another agent")
		return
	}

	var body models.Lead
	if err := c.ShouldBindJSON(&body); err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}
	body.ID = id
	body.CreatedAt = current.CreatedAt

	// менять назначение через PUT может только elevated
	if !authz.IsElevated(role) {
		body.AssignedToID = current.AssignedToID
	}

	if err := h.Service.Update(&body); err != nil {
		respondError(c, http.StatusInternalServerError, err.Error())
		return
	}
	updated, _ := h.Service.GetByID(id)
	respondData(c, http.StatusOK, updated)
}

func (h *LeadHandler) GetByID(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	lead, err := h.Service.GetByID(id)
	if err != nil || lead == nil {
		respondError(c, http.StatusNotFound, "lead not found")
		return
	}
	respondData(c, http.StatusOK, lead)
}

func (h *LeadHandler) Delete(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	lead, err := h.Service.GetByID(id)
	if err != nil || lead == nil {
		respondError(c, http.StatusNotFound, "lead not found")
		return
	}
	if err := h.Service.Delete(id); err != nil {
		respondError(c, http.StatusInternalServerError, err.Error())
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *LeadHandler) List(c *gin.Context) {
	var (
		leads []*models.Lead
		err   error
	)
	_, role := getUserAndRole(c)
	if role == authz.RoleAgent {
		// agent видит только свои, ?assigned_to игнорируется
		leads, err = h.Service.ListMy(getMemberID(c))
	} else if v := c.Query("assigned_to"); v != "" {
		memberID, convErr := strconv.Atoi(v)
		if convErr != nil {
			respondError(c, http.StatusBadRequest, "invalid assigned_to")
			return
		}
		leads, err = h.Service.ListMy(memberID)
	} else {
		leads, err = h.Service.List()
	}
	if err != nil {
		respondError(c, http.StatusInternalServerError, "failed to list leads")
		return
	}
	if leads == nil {
		leads = []*models.Lead{}
	}
	respondData(c, http.StatusOK, leads)
}

type updateStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

func (h *LeadHandler) UpdateStatus(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req updateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}
	if err := h.Service.UpdateStatus(id, req.Status); err != nil {
		switch {
		case errors.Is(err, services.ErrLeadNotFound):
			respondError(c, http.StatusNotFound, err.Error())
		case errors.Is(err, services.ErrInvalidTransition):
			respondError(c, http.StatusConflict, err.Error())
		default:
			respondError(c, http.StatusInternalServerError, err.Error())
		}
		return
	}
	updated, _ := h.Service.GetByID(id)
	respondData(c, http.StatusOK, updated)
}

type assignRequest struct {
	MemberID int `json:"member_id" binding:"required"`
}

func (h *LeadHandler) Assign(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req assignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}
	lead, err := h.Service.Assign(id, req.MemberID)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrLeadNotFound), errors.Is(err, services.ErrMemberNotFound):
			respondError(c, http.StatusNotFound, err.Error())
		case errors.Is(err, services.ErrMemberInactive):
			respondError(c, http.StatusConflict, err.Error())
		default:
			respondError(c, http.StatusInternalServerError, err.Error())
		}
		return
	}
	respondData(c, http.StatusOK, lead)
}

// LinkProperty / UnlinkProperty отдают interested_properties сырой
// json-строкой — клиент парсит её сам (исторический контракт SPA).
func (h *LeadHandler) LinkProperty(c *gin.Context) {
	leadID, ok := paramID(c, "id")
	if !ok {
		return
	}
	propertyID, ok := paramID(c, "propertyId")
	if !ok {
		return
	}
	raw, err := h.Service.LinkProperty(leadID, propertyID)
	if err != nil {
		h.linkError(c, err)
		return
	}
	respondData(c, http.StatusOK, gin.H{"interested_properties": raw})
}

func (h *LeadHandler) UnlinkProperty(c *gin.Context) {
	leadID, ok := paramID(c, "id")
	if !ok {
		return
	}
	propertyID, ok := paramID(c, "propertyId")
	if !ok {
		return
	}
	raw, err := h.Service.UnlinkProperty(leadID, propertyID)
	if err != nil {
		h.linkError(c, err)
		return
	}
	respondData(c, http.StatusOK, gin.H{"interested_properties": raw})
}

func (h *LeadHandler) linkError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrLeadNotFound), errors.Is(err, services.ErrPropertyNotFound):
		respondError(c, http.StatusNotFound, err.Error())
	default:
		respondError(c, http.StatusInternalServerError, err.Error())
	}
}

func (h *LeadHandler) Remind(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	if err := h.Service.Remind(id); err != nil {
		switch {
		case errors.Is(err, services.ErrLeadNotFound), errors.Is(err, services.ErrMemberNotFound):
			respondError(c, http.StatusNotFound, err.Error())
		case errors.Is(err, services.ErrLeadUnassigned):
			respondError(c, http.StatusConflict, err.Error())
		default:
			respondError(c, http.StatusInternalServerError, err.Error())
		}
		return
	}
	respondData(c, http.StatusOK, gin.H{"message": "reminder sent"})
}
