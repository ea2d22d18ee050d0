package http

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/Sadiqmanga/voucher-system/internal/application/port"
	"github.com/Sadiqmanga/voucher-system/internal/domain/entity"
	"github.com/Sadiqmanga/voucher-system/internal/domain/workflow"
)

const actorContextKey = "actor"

// Capability aliases for route guards.
const (
	CapAdmin      = workflow.CapabilityAdmin
	CapGM         = workflow.CapabilityGM
	CapAccountant = workflow.CapabilityAccountant
	CapUploader   = workflow.CapabilityUploader
)

// ActorMiddleware resolves the acting user from the X-Actor-Id header and
// stores an entity.Actor in the request context. Requests without a valid
// actor are rejected with 401.
func ActorMiddleware(users port.UserRepository) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := c.GetHeader("X-Actor-Id")
		if raw == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing X-Actor-Id header"})
			return
		}

		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid X-Actor-Id header"})
			return
		}

		user, err := users.GetByID(c.Request.Context(), id)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "failed to resolve actor"})
			return
		}
		if user == nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unknown actor"})
			return
		}

		c.Set(actorContextKey, entity.ActorFor(user))
		c.Next()
	}
}

// RequireCapability rejects requests whose actor lacks the given capability.
func RequireCapability(capability workflow.Capability) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, ok := actorFrom(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unknown actor"})
			return
		}
		if actor.Role.Capability() != capability {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "insufficient permissions"})
			return
		}
		c.Next()
	}
}

func actorFrom(c *gin.Context) (entity.Actor, bool) {
	v, exists := c.Get(actorContextKey)
	if !exists {
		return entity.Actor{}, false
	}
	actor, ok := v.(entity.Actor)
	return actor, ok
}
