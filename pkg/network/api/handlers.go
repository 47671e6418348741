package api

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/minegate/minegate-node/pkg/network"
)

// StatsResponse wraps the gateway counter snapshot.
type StatsResponse struct {
	Success bool          `json:"success"`
	Stats   network.Stats `json:"stats"`
}

// ConnectionsResponse lists the live connections.
type ConnectionsResponse struct {
	Success     bool               `json:"success"`
	Count       int                `json:"count"`
	Connections []network.ConnInfo `json:"connections"`
}

// StatusDocumentResponse carries the document served to status pings.
type StatusDocumentResponse struct {
	Success  bool               `json:"success"`
	Document network.StatusInfo `json:"document"`
}

// HealthResponse contains gateway health information.
type HealthResponse struct {
	Success bool   `json:"success"`
	Status  string `json:"status"` // "healthy" or "degraded"
	Uptime  string `json:"uptime"`
	Checks  struct {
		Listening  bool `json:"listening"`
		OnlineMode bool `json:"onlineMode"`
	} `json:"checks"`
}

// handleStats handles GET /api/v1/gateway/stats.
func (s *Server) handleStats(c *gin.Context) {
	c.JSON(http.StatusOK, StatsResponse{
		Success: true,
		Stats:   s.gw.Stats(),
	})
}

// handleConnections handles GET /api/v1/gateway/connections.
func (s *Server) handleConnections(c *gin.Context) {
	conns := s.gw.Connections()
	c.JSON(http.StatusOK, ConnectionsResponse{
		Success:     true,
		Count:       len(conns),
		Connections: conns,
	})
}

// handleStatusDocument handles GET /api/v1/gateway/status.
func (s *Server) handleStatusDocument(c *gin.Context) {
	c.JSON(http.StatusOK, StatusDocumentResponse{
		Success:  true,
		Document: s.gw.StatusDocument(),
	})
}

// handleHealth handles GET /health.
func (s *Server) handleHealth(c *gin.Context) {
	stats := s.gw.Stats()

	checks := struct {
		Listening  bool `json:"listening"`
		OnlineMode bool `json:"onlineMode"`
	}{
		Listening:  s.gw.Addr() != nil,
		OnlineMode: stats.OnlineMode,
	}

	// Serving pre-established connections without a listener is a
	// degraded but functional state.
	status := "healthy"
	if !checks.Listening {
		status = "degraded"
	}

	response := HealthResponse{
		Success: true,
		Status:  status,
		Uptime:  formatDuration(time.Since(s.startTime)),
	}
	response.Checks = checks

	c.JSON(http.StatusOK, response)
}

// formatDuration formats a duration in human-readable form.
func formatDuration(d time.Duration) string {
	days := int(d.Hours() / 24)
	hours := int(d.Hours()) % 24
	minutes := int(d.Minutes()) % 60
	seconds := int(d.Seconds()) % 60

	if days > 0 {
		return fmt.Sprintf("%dd %dh %dm %ds", days, hours, minutes, seconds)
	}
	if hours > 0 {
		return fmt.Sprintf("%dh %dm %ds", hours, minutes, seconds)
	}
	if minutes > 0 {
		return fmt.Sprintf("%dm %ds", minutes, seconds)
	}
	return fmt.Sprintf("%ds", seconds)
}
