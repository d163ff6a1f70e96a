// Package auth provides the gin middleware guarding the optional admin surface.
package auth

import (
	"net/http"

	ginMw "github.com/Laisky/gin-middlewares/v7"
	"github.com/Laisky/errors/v2"
	"github.com/gin-gonic/gin"

	"github.com/distributed-ai/query-router/library/jwt"
)

// CtxKeyAdminOperator is the gin.Context key holding the verified operator name.
const CtxKeyAdminOperator = "admin_operator"

// Instance is the process-wide Bearer-JWT verifier, set up once at startup
// by Initialize. A nil Instance means the admin surface is disabled.
var Instance *ginMw.Auth

// Initialize builds the global admin-token auth instance from the
// configured secret. A blank secret disables the admin surface entirely
// (Instance stays nil).
func Initialize(secret []byte) error {
	if len(secret) == 0 {
		Instance = nil
		return nil
	}

	var err error
	if Instance, err = ginMw.NewAuth(secret); err != nil {
		return errors.Wrap(err, "new auth")
	}
	return nil
}

// RequireAdmin rejects requests unless they carry a valid "Bearer <token>"
// Authorization header signed by the configured admin secret. If no admin
// secret was configured (Instance == nil), the admin surface is considered
// disabled and every request is rejected with 503.
func RequireAdmin(ctx *gin.Context) {
	if Instance == nil {
		ctx.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{"error": "admin surface disabled"})
		return
	}

	claims := new(jwt.AdminClaims)
	if err := Instance.GetUserClaims(ctx, claims); err != nil {
		ctx.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
		return
	}

	ctx.Set(CtxKeyAdminOperator, claims.Operator)
	ctx.Next()
}
