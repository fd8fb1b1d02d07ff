package bootstrap

import (
	"net/http"

	"github.com/charmbracelet/log"
	"github.com/gin-gonic/gin"

	httpapi "github.com/promptpal/promptpal-backend/internal/api/http"
	"github.com/promptpal/promptpal-backend/internal/api/http/middleware"
	"github.com/promptpal/promptpal-backend/internal/api/http/routes"
	suggesthttp "github.com/promptpal/promptpal-backend/internal/suggestions/http"
	"github.com/promptpal/promptpal-backend/internal/suggestions/service"
)

type RouterDeps struct {
	ServiceName    string
	Version        string
	CORSOrigins    []string
	TrustedProxies []string // may set X-Forwarded-For; nil trusts none
	Diag           httpapi.DiagInfo
	Service        *service.SuggestionService
	Metrics        *service.Metrics
}

func BuildRouter(dep RouterDeps) *gin.Engine {
	r := gin.New()
	if err := r.SetTrustedProxies(dep.TrustedProxies); err != nil {
		log.Warn("invalid trusted proxies, trusting none", "error", err)
		_ = r.SetTrustedProxies(nil)
	}
	r.Use(gin.Recovery())
	r.Use(middleware.RequestIDMiddleware())
	r.Use(middleware.CORS(dep.CORSOrigins))

	healthHandler := httpapi.NewHealthHandler(dep.ServiceName, dep.Version, dep.Service)
	healthHandler.RegisterRoutes(r)
	httpapi.NewDiagHandler(dep.Diag).RegisterRoutes(r)

	if dep.Metrics != nil {
		r.GET("/metrics", gin.WrapH(dep.Metrics.Handler()))
	}

	routes.RegisterV1(r, routes.V1Deps{
		Suggestions: suggesthttp.New(dep.Service),
	})

	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "route not found"})
	})

	return r
}
