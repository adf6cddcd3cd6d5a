package middleware

import (
	"fmt"
	"regexp"
	"time"

	"github.com/crimesense/casesearch/api/internal/config"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// LANOriginPattern builds a regexp matching frontend origins on the local
// network, e.g. prefix "192.168.1." and port "5173" yields a pattern that
// accepts http://192.168.1.23:5173. Returns nil when no prefix is configured.
func LANOriginPattern(lanPrefix, fePort string) *regexp.Regexp {
	if lanPrefix == "" {
		return nil
	}
	pattern := fmt.Sprintf(`^http://%s\d+:%s$`, regexp.QuoteMeta(lanPrefix), regexp.QuoteMeta(fePort))
	return regexp.MustCompile(pattern)
}

// CORS creates a middleware that handles Cross-Origin Resource Sharing (CORS).
// It uses the official gin-contrib/cors package. An origin is allowed when it
// is on the fixed allow-list or matches the local-network pattern; credentials
// are allowed in both cases.
func CORS(cfg config.CORSConfig) gin.HandlerFunc {
	lanPattern := LANOriginPattern(cfg.LANPrefix, cfg.FEPort)
	allowed := make(map[string]bool, len(cfg.Origins))
	for _, origin := range cfg.Origins {
		allowed[origin] = true
	}

	corsConfig := cors.Config{
		// AllowOriginFunc supersedes AllowOrigins in gin-contrib/cors, so the
		// static allow-list check lives inside the func as well.
		AllowOriginFunc: func(origin string) bool {
			if allowed[origin] {
				return true
			}
			return lanPattern != nil && lanPattern.MatchString(origin)
		},
		AllowMethods:     []string{"GET", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Request-ID"},
		ExposeHeaders:    []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           24 * time.Hour,
	}

	return cors.New(corsConfig)
}
