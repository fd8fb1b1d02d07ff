package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// DiagInfo is the static configuration summary served on /diag.
type DiagInfo struct {
	Environment    string            `json:"environment"`
	Version        string            `json:"version"`
	RemoteProvider string            `json:"remoteProvider"`
	RemoteModel    string            `json:"remoteModel"`
	RemoteEnabled  bool              `json:"remoteEnabled"`
	RateLimit      int               `json:"rateLimitPerMinute"`
	CacheTTL       int               `json:"cacheTtlSeconds"`
	Backend        string            `json:"storageBackend"`
	Endpoints      map[string]string `json:"endpoints"`
}

type DiagHandler struct {
	info DiagInfo
}

func NewDiagHandler(info DiagInfo) *DiagHandler {
	if info.Endpoints == nil {
		info.Endpoints = map[string]string{
			"root":       "GET /",
			"suggest":    "POST /suggest",
			"suggest_v1": "POST /api/v1/suggest",
			"health":     "GET /health",
			"diag":       "GET /diag",
			"metrics":    "GET /metrics",
		}
	}
	return &DiagHandler{info: info}
}

func (h *DiagHandler) Diag(c *gin.Context) {
	c.JSON(http.StatusOK, h.info)
}

// Root is the landing response for GET /.
func (h *DiagHandler) Root(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"message":   "PromptPal API is running!",
		"version":   h.info.Version,
		"endpoints": h.info.Endpoints,
	})
}

func (h *DiagHandler) RegisterRoutes(r gin.IRouter) {
	r.GET("/", h.Root)
	r.GET("/diag", h.Diag)
}
