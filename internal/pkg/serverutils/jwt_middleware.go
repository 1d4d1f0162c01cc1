package serverutils

import (
	"fmt"
	"time"

	"saas-billing-be/internal/entity"
	"saas-billing-be/internal/pkg/apperror"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
)

const principalKey = "principal"

// IssueToken signs an HS256 access token for user.
func IssueToken(secret string, user *entity.User, ttl time.Duration) (string, error) {
	claims := jwt.MapClaims{
		"user_id": user.Id,
		"email":   user.Email,
		"role":    string(user.Role),
		"exp":     time.Now().Add(ttl).Unix(),
		"iat":     time.Now().Unix(),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}

func ParseToken(secret, tokenStr string) (entity.Principal, error) {
	token, err := jwt.Parse(tokenStr, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil || !token.Valid {
		return entity.Principal{}, apperror.ErrInvalidToken
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return entity.Principal{}, apperror.ErrInvalidToken
	}
	// JSON numbers decode as float64.
	id, ok := claims["user_id"].(float64)
	if !ok || id <= 0 {
		return entity.Principal{}, apperror.ErrInvalidToken
	}
	email, _ := claims["email"].(string)
	role, _ := claims["role"].(string)

	return entity.Principal{UserId: uint(id), Email: email, Role: entity.UserRole(role)}, nil
}

// JwtMiddleware resolves the bearer token into a Principal stored on the request.
func JwtMiddleware(secret string) fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		authHeader := ctx.Get("Authorization")
		if len(authHeader) < 7 || authHeader[:7] != "Bearer " {
			return ctx.Status(fiber.StatusUnauthorized).JSON(ErrorResponse(fiber.StatusUnauthorized, "Missing token"))
		}

		principal, err := ParseToken(secret, authHeader[7:])
		if err != nil {
			return ctx.Status(fiber.StatusUnauthorized).JSON(ErrorResponse(fiber.StatusUnauthorized, "Invalid token"))
		}

		ctx.Locals(principalKey, principal)
		return ctx.Next()
	}
}

func AdminOnly(ctx *fiber.Ctx) error {
	p, err := PrincipalFrom(ctx)
	if err != nil {
		return err
	}
	if !p.IsAdmin() {
		return apperror.ErrForbidden
	}
	return ctx.Next()
}

func PrincipalFrom(ctx *fiber.Ctx) (entity.Principal, error) {
	p, ok := ctx.Locals(principalKey).(entity.Principal)
	if !ok {
		return entity.Principal{}, apperror.ErrUnauthorized
	}
	return p, nil
}
