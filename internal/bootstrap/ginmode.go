package bootstrap

import (
	"github.com/charmbracelet/log"
	"github.com/gin-gonic/gin"
)

func SetGinMode(env string) {
	switch env {
	case "production":
		gin.SetMode(gin.ReleaseMode)
	case "test":
		gin.SetMode(gin.TestMode)
	}
}

// SetLogLevel applies LOG_LEVEL to the default logger. Unknown levels keep
// the current one.
func SetLogLevel(level string) {
	lvl, err := log.ParseLevel(level)
	if err != nil {
		log.Warn("unknown log level, keeping default", "level", level)
		return
	}
	log.SetLevel(lvl)
}
