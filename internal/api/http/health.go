package http

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// StatusProvider reports the runtime state shown on health checks.
type StatusProvider interface {
	RemoteEnabled() bool
	CacheBackend() string
	CacheSize(ctx context.Context) int
	TrackedClients() int
}

type HealthResponse struct {
	Status         string    `json:"status"`
	Timestamp      time.Time `json:"timestamp"`
	Service        string    `json:"service"`
	Version        string    `json:"version"`
	RemoteMode     string    `json:"remoteMode"`
	CacheBackend   string    `json:"cacheBackend"`
	CacheSize      int       `json:"cacheSize"`
	TrackedClients int       `json:"trackedClients"`
}

type HealthHandler struct {
	serviceName string
	version     string
	status      StatusProvider
}

func NewHealthHandler(serviceName, version string, status StatusProvider) *HealthHandler {
	return &HealthHandler{
		serviceName: serviceName,
		version:     version,
		status:      status,
	}
}

func (h *HealthHandler) HealthCheck(c *gin.Context) {
	remoteMode := "disabled"
	if h.status.RemoteEnabled() {
		remoteMode = "configured"
	}

	c.JSON(http.StatusOK, HealthResponse{
		Status:         "healthy",
		Timestamp:      time.Now().UTC(),
		Service:        h.serviceName,
		Version:        h.version,
		RemoteMode:     remoteMode,
		CacheBackend:   h.status.CacheBackend(),
		CacheSize:      h.status.CacheSize(c.Request.Context()),
		TrackedClients: h.status.TrackedClients(),
	})
}

func (h *HealthHandler) RegisterRoutes(r gin.IRouter) {
	r.GET("/health", h.HealthCheck)
	r.GET("/healthz", h.HealthCheck)
}
