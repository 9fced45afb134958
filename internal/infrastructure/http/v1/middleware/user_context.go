package middleware

import (
	"github.com/gin-gonic/gin"

	appctx "lotledger/internal/core/context"
)

const (
	HeaderUserID   = "X-User-ID"
	HeaderUserName = "X-User-Name"
)

// UserContext propagates the acting user from gateway headers into the
// request context. The service does not authenticate; the API gateway in
// front verifies identity and forwards it here.
func UserContext() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.GetHeader(HeaderUserID)
		if userID == "" {
			c.Next()
			return
		}

		user := &appctx.UserContext{
			UserID: userID,
			Name:   c.GetHeader(HeaderUserName),
		}

		ctx := appctx.WithUser(c.Request.Context(), user)
		c.Request = c.Request.WithContext(ctx)
		c.Set("user_id", userID)

		c.Next()
	}
}
