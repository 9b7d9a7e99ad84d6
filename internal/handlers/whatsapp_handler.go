package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"estatecrm/internal/services"
)

type WhatsAppHandler struct {
	Service *services.WhatsAppService
}

func NewWhatsAppHandler(service *services.WhatsAppService) *WhatsAppHandler {
	return &WhatsAppHandler{Service: service}
}

// Welcome отдаёт готовый wa.me deep link — отправляет его агент сам.
func (h *WhatsAppHandler) Welcome(c *gin.Context) {
	leadID, ok := paramID(c, "leadId")
	if !ok {
		return
	}
	link, err := h.Service.WelcomeLink(leadID)
	if err != nil {
		if errors.Is(err, services.ErrLeadNotFound) {
			respondError(c, http.StatusNotFound, err.Error())
			return
		}
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}
	respondData(c, http.StatusOK, link)
}
