package middleware

import (
	"github.com/LocalHostDiluk/reinicializado/pkg/actor"
	"github.com/LocalHostDiluk/reinicializado/pkg/errors"
	"github.com/LocalHostDiluk/reinicializado/pkg/logging"
	"github.com/gin-gonic/gin"
)

// Pre-authorization headers set by the gateway in front of the API.
const (
	HeaderUserID   = "X-User-ID"
	HeaderUserRole = "X-User-Role"
)

const contextKeyActor = "actor"

// ActorAuth reads the acting user from the gateway headers and stores it in
// the request context. Requests without a user id or with an unknown role
// are rejected with 401.
func ActorAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.GetHeader(HeaderUserID)
		if userID == "" {
			AbortWithAppError(c, errors.ErrUnauthorized(""))
			return
		}

		role, err := actor.ParseRole(c.GetHeader(HeaderUserRole))
		if err != nil {
			AbortWithAppError(c, errors.ErrUnauthorized("missing or unknown user role"))
			return
		}

		a := actor.Actor{UserID: userID, Role: role}
		ctx := actor.ToContext(c.Request.Context(), a)
		ctx = logging.ContextWithActorID(ctx, userID)
		c.Request = c.Request.WithContext(ctx)
		c.Set(contextKeyActor, a)

		c.Next()
	}
}

// RequireRole rejects actors that hold none of roles with 403. It must run
// after ActorAuth.
func RequireRole(roles ...actor.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		a, ok := GetActor(c)
		if !ok {
			AbortWithAppError(c, errors.ErrUnauthorized(""))
			return
		}
		if !a.Can(roles...) {
			AbortWithAppError(c, errors.ErrForbidden("insufficient role for this operation").
				WithDetail("role", string(a.Role)))
			return
		}
		c.Next()
	}
}

// GetActor returns the actor stored by ActorAuth.
func GetActor(c *gin.Context) (actor.Actor, bool) {
	if val, exists := c.Get(contextKeyActor); exists {
		if a, ok := val.(actor.Actor); ok {
			return a, true
		}
	}
	return actor.Actor{}, false
}
