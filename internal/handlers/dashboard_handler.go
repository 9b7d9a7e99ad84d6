package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"estatecrm/internal/services"
)

type DashboardHandler struct {
	Service *services.DashboardService
}

func NewDashboardHandler(service *services.DashboardService) *DashboardHandler {
	return &DashboardHandler{Service: service}
}

// Snapshot — агрегат всех трёх коллекций одним ответом.
// Конверт шире обычного: рядом с data отдаём performance.queryTime.
// Query-параметры _t и force клиент шлёт как cache-buster, сервер их
// может игнорировать.
func (h *DashboardHandler) Snapshot(c *gin.Context) {
	data, queryTime, err := h.Service.Snapshot()
	if err != nil {
		respondError(c, http.StatusInternalServerError, err.Error())
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success":     true,
		"data":        data,
		"performance": gin.H{"queryTime": queryTime},
	})
}
