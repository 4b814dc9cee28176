package auth

import (
	"strings"

	"github.com/gin-gonic/gin"

	apperrors "hays/backend/pkg/errors"
)

// callerKey is the gin context key the middleware stores the resolved caller
// under.
const callerKey = "auth.caller"

// Middleware resolves the request's bearer credential and aborts with 401
// when it is missing or invalid. Websocket clients cannot set headers, so a
// "token" query parameter is accepted as a fallback.
func Middleware(a *Authenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c)
		caller, err := a.ResolveCaller(token)
		if err != nil {
			c.AbortWithStatusJSON(apperrors.HTTPStatus(err), gin.H{"detail": "Could not validate credentials"})
			return
		}
		c.Set(callerKey, caller)
		c.Next()
	}
}

// CallerFrom returns the caller the middleware attached to the request.
func CallerFrom(c *gin.Context) (Caller, bool) {
	v, ok := c.Get(callerKey)
	if !ok {
		return Caller{}, false
	}
	caller, ok := v.(Caller)
	return caller, ok
}

func bearerToken(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	if strings.HasPrefix(header, "Bearer ") {
		return strings.TrimPrefix(header, "Bearer ")
	}
	return c.Query("token")
}
