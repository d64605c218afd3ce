package handlers

import (
	"net/http"

	"sales-forecast-api/pkg/services"

	"github.com/gin-gonic/gin"
)

// MonitoringHandler はモニタリングAPIのハンドラーです。
type MonitoringHandler struct {
	monitoringService *services.MonitoringService
}

// NewMonitoringHandler 新しいMonitoringHandlerを作成
func NewMonitoringHandler(monitoringService *services.MonitoringService) *MonitoringHandler {
	return &MonitoringHandler{
		monitoringService: monitoringService,
	}
}

// RecentRequests は直近のリクエストログを返します。
func (h *MonitoringHandler) RecentRequests(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"requests": h.monitoringService.Recent(50),
	})
}
