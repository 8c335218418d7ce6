package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/BruksfildServices01/tutor-scheduler/internal/domain/booking"
	"github.com/BruksfildServices01/tutor-scheduler/internal/httperr"
)

const ContextActor = "actor"

// Claims is the token payload issued by the identity service. Wards lists
// the students a guardian acts for.
type Claims struct {
	Role  string   `json:"role"`
	Wards []string `json:"wards,omitempty"`
	jwt.RegisteredClaims
}

func AuthMiddleware(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			httperr.Unauthorized(c, "missing_authorization_header", "Missing Authorization header.")
			c.Abort()
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			httperr.Unauthorized(c, "invalid_authorization_header", "Expected a Bearer token.")
			c.Abort()
			return
		}

		var claims Claims
		token, err := jwt.ParseWithClaims(parts[1], &claims, func(token *jwt.Token) (any, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, jwt.ErrTokenMalformed
			}
			return []byte(secret), nil
		})
		if err != nil || !token.Valid {
			httperr.Unauthorized(c, "invalid_token", "Invalid token.")
			c.Abort()
			return
		}

		actor, err := actorFromClaims(&claims)
		if err != nil {
			httperr.Unauthorized(c, "invalid_token_payload", "Invalid token payload.")
			c.Abort()
			return
		}

		c.Set(ContextActor, actor)
		c.Next()
	}
}

func actorFromClaims(claims *Claims) (booking.Actor, error) {
	id, err := uuid.Parse(claims.Subject)
	if err != nil {
		return booking.Actor{}, err
	}
	role, err := booking.ParseRole(claims.Role)
	if err != nil {
		return booking.Actor{}, err
	}

	actor := booking.Actor{ID: id, Role: role}
	for _, w := range claims.Wards {
		ward, err := uuid.Parse(w)
		if err != nil {
			return booking.Actor{}, err
		}
		actor.Wards = append(actor.Wards, ward)
	}
	return actor, nil
}

// ActorFrom returns the actor set by AuthMiddleware.
func ActorFrom(c *gin.Context) (booking.Actor, bool) {
	v, ok := c.Get(ContextActor)
	if !ok {
		return booking.Actor{}, false
	}
	actor, ok := v.(booking.Actor)
	return actor, ok
}
