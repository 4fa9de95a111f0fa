package middleware

import (
	"context"
	"errors"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/yoockh/jobboard/internal/auth"
	"github.com/yoockh/jobboard/internal/models"
	"github.com/yoockh/jobboard/internal/utils"
)

type apiError struct {
	Code    utils.Code `json:"code"`
	Message string     `json:"message"`
}

// Authenticator resolves an access token to the live user behind it.
type Authenticator interface {
	Authenticate(ctx context.Context, accessToken string) (*models.User, *auth.Claims, error)
}

// JWTAuth requires a valid access token. On success the context carries
// user_id (uint), user (*models.User) and claims (*auth.Claims).
func JWTAuth(a Authenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw, ok := bearerToken(c.GetHeader("Authorization"))
		if !ok && websocket.IsWebSocketUpgrade(c.Request) {
			// browsers cannot set headers on a websocket handshake
			raw = strings.TrimSpace(c.Query("access_token"))
			ok = raw != ""
		}
		if !ok {
			abort(c, utils.E(utils.CodeUnauthorized, "JWTAuth", "missing bearer token", nil))
			return
		}

		u, claims, err := a.Authenticate(c.Request.Context(), raw)
		if err != nil {
			abort(c, err)
			return
		}

		c.Set("user_id", u.ID)
		c.Set("user", u)
		c.Set("claims", claims)
		c.Next()
	}
}

func bearerToken(header string) (string, bool) {
	scheme, token, found := strings.Cut(strings.TrimSpace(header), " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

func abort(c *gin.Context, err error) {
	_ = c.Error(err)
	var ae *utils.AppError
	if errors.As(err, &ae) {
		c.AbortWithStatusJSON(utils.HTTPStatus(err), apiError{Code: ae.Code, Message: ae.Message})
		return
	}
	c.AbortWithStatusJSON(utils.HTTPStatus(err), apiError{Code: utils.CodeInternal, Message: "internal error"})
}
