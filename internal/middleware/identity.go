package middleware

import (
	"context"
	"net/http"
	"strings"
	"time"

	"dropmart-be/internal/identity"
	"dropmart-be/internal/logger"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const sessionCookie = "dm_session"

// MergeFunc reconciles a guest cart into the signed-in user's cart. Invoked
// when a request carries both a valid bearer token and a leftover guest
// session cookie.
type MergeFunc func(ctx context.Context, sessionToken string, userID int64) error

// Identity resolves who owns the cart: an authenticated user id from a bearer
// token, or an anonymous session token minted as a cookie on first contact.
// Exactly one of the two ends up on the context.
func Identity(jwtSecret string, merge MergeFunc) gin.HandlerFunc {
	key := []byte(jwtSecret)

	return func(c *gin.Context) {
		ctx := c.Request.Context()

		if userID, ok := userFromBearer(c.GetHeader("Authorization"), key); ok {
			// A guest cookie alongside a valid token means the shopper just
			// signed in: fold the guest cart into theirs, then drop the cookie.
			if guestToken, err := c.Cookie(sessionCookie); err == nil && guestToken != "" {
				if merge != nil {
					if err := merge(ctx, guestToken, userID); err != nil {
						logger.FromCtx(ctx).Warn("guest cart merge failed", zap.Error(err))
					}
				}
				c.SetCookie(sessionCookie, "", -1, "/", "", false, true)
			}

			c.Request = c.Request.WithContext(identity.WithContext(ctx, identity.User(userID)))
			c.Next()
			return
		}

		token, err := c.Cookie(sessionCookie)
		if err != nil || token == "" {
			token = uuid.New().String()
			c.SetSameSite(http.SameSiteLaxMode)
			c.SetCookie(sessionCookie, token, int((30 * 24 * time.Hour).Seconds()), "/", "", false, true)
		}

		c.Request = c.Request.WithContext(identity.WithContext(ctx, identity.Anonymous(token)))
		c.Next()
	}
}

func userFromBearer(authHeader string, key []byte) (int64, bool) {
	if authHeader == "" {
		return 0, false
	}

	tokenStr := strings.TrimPrefix(authHeader, "Bearer ")
	token, err := jwt.Parse(tokenStr, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return key, nil
	})
	if err != nil || !token.Valid {
		return 0, false
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return 0, false
	}
	uid, ok := claims["user_id"].(float64)
	if !ok {
		return 0, false
	}

	return int64(uid), true
}
