package v1

import (
	"fmt"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"worksite/internal/models"
)

const actorCtxKey = "actor"

// actorClaims is the token payload issued by the external
// authentication layer: the subject is the user id, the role claim is
// "admin" or "worker".
type actorClaims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// HandleActorMiddleware resolves the bearer token into the actor
// context every engine call requires. It authenticates nobody itself;
// it only trusts the signature of the external auth layer.
func (h *handlerImpl) HandleActorMiddleware(c *gin.Context) {
	const authHeader = "Authorization"
	header := c.GetHeader(authHeader)
	if header == "" {
		h.logger.Error().Msg("authorization header required")
		abort(c, newUnauthorizedError("authorization required"))
		return
	}

	const bearerPrefix = "Bearer"
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || parts[0] != bearerPrefix {
		h.logger.Error().Msg("invalid authorization header")
		abort(c, newUnauthorizedError("authorization required"))
		return
	}

	claims, err := h.parseActorToken(parts[1])
	if err != nil {
		h.logger.Error().
			Err(err).
			Msg("failed to parse actor token")
		abort(c, newUnauthorizedError("authorization required"))
		return
	}

	if claims.Role != models.RoleAdmin && claims.Role != models.RoleWorker {
		h.logger.Error().
			Str("role", claims.Role).
			Msg("unknown actor role")
		abort(c, newUnauthorizedError("authorization required"))
		return
	}

	c.Set(actorCtxKey, models.Actor{
		UserID: claims.Subject,
		Role:   claims.Role,
	})
	c.Next()
}

func (h *handlerImpl) parseActorToken(tokenString string) (*actorClaims, error) {
	token, err := jwt.ParseWithClaims(
		tokenString,
		&actorClaims{},
		func(token *jwt.Token) (any, error) {
			return h.jwtSigningKey, nil
		},
		jwt.WithIssuer(h.jwtIssuer),
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
	)
	if err != nil {
		return nil, fmt.Errorf("invalid token: %w", err)
	}

	claims, ok := token.Claims.(*actorClaims)
	if !ok {
		return nil, fmt.Errorf("failed to parse token claims")
	}
	return claims, nil
}

func actorFromContext(c *gin.Context) (models.Actor, bool) {
	value, exists := c.Get(actorCtxKey)
	if !exists {
		return models.Actor{}, false
	}
	actor, ok := value.(models.Actor)
	return actor, ok
}
