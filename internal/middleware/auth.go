package middleware

import (
	"net/http"

	"github.com/dfryer1193/alttext/media/domain"
	"github.com/gin-gonic/gin"
)

const actorKey = "actor"

// ActorParser resolves the caller from request headers
type ActorParser interface {
	FromHeader(headers http.Header) (domain.Actor, error)
}

// Authenticate requires a valid bearer token and stores the actor on the context
func Authenticate(parser ActorParser) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, err := parser.FromHeader(c.Request.Header)
		if err != nil {
			_ = c.Error(err)
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		c.Set(actorKey, actor)
		c.Next()
	}
}

// RequireRole aborts with 403 unless the authenticated actor passes allow
func RequireRole(allow func(domain.Actor) bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !allow(Actor(c)) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "forbidden"})
			return
		}
		c.Next()
	}
}

// Actor returns the authenticated actor, or the zero actor when unauthenticated
func Actor(c *gin.Context) domain.Actor {
	if v, ok := c.Get(actorKey); ok {
		if actor, ok := v.(domain.Actor); ok {
			return actor
		}
	}
	return domain.Actor{}
}
