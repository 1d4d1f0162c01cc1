package serverutils

import (
	"encoding/json"
	"net/http/httptest"
	"testing"
	"time"

	"saas-billing-be/internal/entity"
	"saas-billing-be/internal/pkg/apperror"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const secret = "test-secret"

func newApp() *fiber.App {
	app := fiber.New()
	app.Use(ErrorHandlerMiddleware())
	app.Get("/me", JwtMiddleware(secret), func(ctx *fiber.Ctx) error {
		p, err := PrincipalFrom(ctx)
		if err != nil {
			return err
		}
		return ctx.JSON(SuccessResponse("ok", p.UserId))
	})
	app.Get("/admin", JwtMiddleware(secret), AdminOnly, func(ctx *fiber.Ctx) error {
		return ctx.SendStatus(fiber.StatusNoContent)
	})
	app.Get("/fail", func(ctx *fiber.Ctx) error {
		return apperror.ErrAlreadySubscribed
	})
	return app
}

func bearer(t *testing.T, user *entity.User) string {
	t.Helper()
	tok, err := IssueToken(secret, user, time.Hour)
	require.NoError(t, err)
	return "Bearer " + tok
}

func TestJwtMiddlewareResolvesPrincipal(t *testing.T) {
	app := newApp()

	req := httptest.NewRequest("GET", "/me", nil)
	req.Header.Set("Authorization", bearer(t, &entity.User{Id: 7, Email: "a@example.com", Role: entity.UserRoleUser}))
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)

	var body BaseResponse[uint]
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, uint(7), body.Data)
}

func TestJwtMiddlewareRejectsMissingAndForgedTokens(t *testing.T) {
	app := newApp()

	resp, err := app.Test(httptest.NewRequest("GET", "/me", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, 401, resp.StatusCode)

	forged, err := IssueToken("other-secret", &entity.User{Id: 7}, time.Hour)
	require.NoError(t, err)
	req := httptest.NewRequest("GET", "/me", nil)
	req.Header.Set("Authorization", "Bearer "+forged)
	resp, err = app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, 401, resp.StatusCode)
}

func TestAdminOnly(t *testing.T) {
	app := newApp()

	req := httptest.NewRequest("GET", "/admin", nil)
	req.Header.Set("Authorization", bearer(t, &entity.User{Id: 1, Role: entity.UserRoleUser}))
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, 403, resp.StatusCode)

	req = httptest.NewRequest("GET", "/admin", nil)
	req.Header.Set("Authorization", bearer(t, &entity.User{Id: 2, Role: entity.UserRoleAdmin}))
	resp, err = app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, 204, resp.StatusCode)
}

func TestErrorHandlerMapsTypedErrors(t *testing.T) {
	resp, err := newApp().Test(httptest.NewRequest("GET", "/fail", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, 400, resp.StatusCode)

	var body BaseResponse[any]
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.False(t, body.Success)
	assert.Equal(t, "ALREADY_SUBSCRIBED", body.Error)
}

func TestValidateRequestListsFailingFields(t *testing.T) {
	type req struct {
		Email    string `validate:"required,email"`
		Password string `validate:"required,min=8"`
	}

	err := ValidateRequest(req{Email: "nope", Password: "short"})
	require.Error(t, err)
	assert.Equal(t, apperror.KindValidation, apperror.KindOf(err))
	assert.Contains(t, err.Error(), "email must be a valid email")
	assert.Contains(t, err.Error(), "password must be at least 8 characters")

	assert.NoError(t, ValidateRequest(req{Email: "a@example.com", Password: "longenough"}))
}
