package openapi

import (
	apperrors "github.com/LocalHostDiluk/reinicializado/pkg/errors"
	"github.com/LocalHostDiluk/reinicializado/pkg/middleware"
	"github.com/gin-gonic/gin"
)

// RequestValidator rejects requests that do not match the document with an
// INVALID_ARGUMENT response. Undocumented routes pass through so gin can
// answer them with its own 404.
func RequestValidator(v *Validator) gin.HandlerFunc {
	return func(c *gin.Context) {
		err := v.ValidateRequest(c.Request.Context(), c.Request)
		if err == nil || IsUnrouted(err) {
			c.Next()
			return
		}
		middleware.AbortWithAppError(c, apperrors.ErrInvalidArgument(err.Error()))
	}
}
