package middleware

import (
	"context"
	"strings"

	"vscsfarm/internal/farm/service"
	pkgerrors "vscsfarm/pkg/errors"
	"vscsfarm/pkg/utils/contextkey"
	"vscsfarm/pkg/utils/response"

	"github.com/gin-gonic/gin"
)

// AccessTokenHeader carries the caller's platform token, set by the edge proxy.
const AccessTokenHeader = "X-Forwarded-Access-Token"

const accessTokenKey = "access_token"

// AccessTokenMiddleware decodes the forwarded access token and stores the
// caller's user id and raw token on the context.
func AccessTokenMiddleware(decoder service.TokenDecoder) gin.HandlerFunc {
	return func(c *gin.Context) {
		if decoder == nil {
			response.AbortWithErrorCode(c, pkgerrors.ServiceUnavailable, "token decoder unavailable")
			return
		}

		raw := strings.TrimSpace(c.GetHeader(AccessTokenHeader))
		if raw == "" {
			response.AbortWithErrorCode(c, pkgerrors.TokenInvalid, "missing access token")
			return
		}
		claims, err := decoder.Decode(raw)
		if err != nil {
			response.AbortWithError(c, err)
			return
		}

		c.Set(contextkey.UserID, claims.UserID)
		c.Set(accessTokenKey, raw)
		ctx := context.WithValue(c.Request.Context(), contextkey.UserID, claims.UserID)
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

// UserID returns the authenticated user id.
func UserID(c *gin.Context) string {
	return c.GetString(contextkey.UserID)
}

// AccessToken returns the raw token the request was authenticated with.
func AccessToken(c *gin.Context) string {
	return c.GetString(accessTokenKey)
}
