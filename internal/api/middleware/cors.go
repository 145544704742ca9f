package middleware

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// CORSConfig narrows which browser origins may reach the run API.
type CORSConfig struct {
	AllowOrigins []string
	MaxAge       time.Duration
}

// CORS builds the cross-origin middleware. The method and header lists
// are fixed to what the run endpoints actually accept; only the origin
// list and preflight cache vary per deployment.
func CORS(cfg CORSConfig) gin.HandlerFunc {
	if len(cfg.AllowOrigins) == 0 {
		cfg.AllowOrigins = []string{"*"}
	}
	if cfg.MaxAge <= 0 {
		cfg.MaxAge = 12 * time.Hour
	}
	return cors.New(cors.Config{
		AllowOrigins: cfg.AllowOrigins,
		AllowMethods: []string{"GET", "POST", "PUT", "OPTIONS"},
		AllowHeaders: []string{"Content-Type", "Accept", "Origin"},
		MaxAge:       cfg.MaxAge,
	})
}
