package routes

import (
	"github.com/gin-gonic/gin"

	suggesthttp "github.com/promptpal/promptpal-backend/internal/suggestions/http"
)

type V1Deps struct {
	Suggestions *suggesthttp.Handler
}

// RegisterV1 mounts the versioned API. The suggestion endpoint is also
// served unversioned at the root for existing clients.
func RegisterV1(r *gin.Engine, dep V1Deps) {
	api := r.Group("/api/v1")
	dep.Suggestions.Register(api)
	dep.Suggestions.Register(r)
}
