package serverutils

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"med-agent-be/internal/pkg/logger"
	"med-agent-be/internal/repository/contract"
	"med-agent-be/pkg/catalog"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sample struct {
	Chat string `validate:"required,max=5"`
}

func decodeError(t *testing.T, resp *http.Response) ErrorBody {
	t.Helper()
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	var body ErrorBody
	require.NoError(t, json.Unmarshal(raw, &body))
	return body
}

func TestErrorHandlerMiddleware(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode int
		check    func(t *testing.T, body ErrorBody)
	}{
		{
			name:     "validation errors are listed per field",
			err:      ValidateRequest(sample{Chat: "too long for this"}),
			wantCode: fiber.StatusBadRequest,
			check: func(t *testing.T, body ErrorBody) {
				assert.Equal(t, "must be at most 5 characters", body.Errors["chat"])
			},
		},
		{
			name:     "catalog index unavailable",
			err:      fmt.Errorf("turn: %w", catalog.ErrIndexUnavailable),
			wantCode: fiber.StatusServiceUnavailable,
			check: func(t *testing.T, body ErrorBody) {
				assert.Equal(t, unavailableMessage, body.Message)
			},
		},
		{
			name:     "session store unavailable",
			err:      fmt.Errorf("load session s1: %w", contract.ErrSessionStore),
			wantCode: fiber.StatusServiceUnavailable,
		},
		{
			name:     "fiber error keeps its code",
			err:      fiber.NewError(fiber.StatusBadRequest, "Invalid request body"),
			wantCode: fiber.StatusBadRequest,
			check: func(t *testing.T, body ErrorBody) {
				assert.Equal(t, "Invalid request body", body.Message)
			},
		},
		{
			name:     "anything else is internal",
			err:      errors.New("boom"),
			wantCode: fiber.StatusInternalServerError,
			check: func(t *testing.T, body ErrorBody) {
				assert.NotContains(t, body.Message, "boom")
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := fiber.New()
			app.Use(ErrorHandlerMiddleware())
			app.Get("/", func(ctx *fiber.Ctx) error { return tt.err })

			resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/", nil))
			require.NoError(t, err)
			assert.Equal(t, tt.wantCode, resp.StatusCode)

			body := decodeError(t, resp)
			assert.False(t, body.Success)
			assert.Equal(t, tt.wantCode, body.Code)
			if tt.check != nil {
				tt.check(t, body)
			}
		})
	}
}

func signed(t *testing.T, method jwt.SigningMethod, secret string) string {
	t.Helper()
	token := jwt.NewWithClaims(method, jwt.MapClaims{
		"sub": "operator-1",
		"exp": time.Now().Add(time.Hour).Unix(),
	})
	s, err := token.SignedString([]byte(secret))
	require.NoError(t, err)
	return s
}

func TestJwtMiddleware(t *testing.T) {
	const secret = "s3cret"

	tests := []struct {
		name     string
		secret   string
		header   string
		wantCode int
	}{
		{name: "disabled without secret", secret: "", header: "", wantCode: fiber.StatusOK},
		{name: "missing token", secret: secret, header: "", wantCode: fiber.StatusUnauthorized},
		{name: "not a bearer", secret: secret, header: "Basic abc", wantCode: fiber.StatusUnauthorized},
		{name: "valid token", secret: secret, header: "Bearer " + signed(t, jwt.SigningMethodHS256, secret), wantCode: fiber.StatusOK},
		{name: "wrong secret", secret: secret, header: "Bearer " + signed(t, jwt.SigningMethodHS256, "other"), wantCode: fiber.StatusUnauthorized},
		{name: "garbage token", secret: secret, header: "Bearer not.a.jwt", wantCode: fiber.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := fiber.New()
			app.Use(JwtMiddleware(tt.secret))
			app.Get("/", func(ctx *fiber.Ctx) error {
				return ctx.SendString(fmt.Sprint(ctx.Locals("subject")))
			})

			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			resp, err := app.Test(req)
			require.NoError(t, err)
			assert.Equal(t, tt.wantCode, resp.StatusCode)
		})
	}
}

func TestJwtMiddleware_StoresSubject(t *testing.T) {
	app := fiber.New()
	app.Use(JwtMiddleware("s3cret"))
	app.Get("/", func(ctx *fiber.Ctx) error {
		return ctx.SendString(fmt.Sprint(ctx.Locals("subject")))
	})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+signed(t, jwt.SigningMethodHS256, "s3cret"))
	resp, err := app.Test(req)
	require.NoError(t, err)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, "operator-1", string(body))
}

func TestRateLimitMiddleware(t *testing.T) {
	app := fiber.New()
	app.Use(RateLimitMiddleware(1, 2, logger.NewNopLogger()))
	app.Get("/", func(ctx *fiber.Ctx) error { return ctx.SendStatus(fiber.StatusNoContent) })

	var codes []int
	for i := 0; i < 3; i++ {
		resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/", nil))
		require.NoError(t, err)
		codes = append(codes, resp.StatusCode)
	}

	assert.Equal(t, []int{fiber.StatusNoContent, fiber.StatusNoContent, fiber.StatusTooManyRequests}, codes)
}

func TestRateLimitMiddleware_Disabled(t *testing.T) {
	app := fiber.New()
	app.Use(RateLimitMiddleware(0, 0, logger.NewNopLogger()))
	app.Get("/", func(ctx *fiber.Ctx) error { return ctx.SendStatus(fiber.StatusNoContent) })

	for i := 0; i < 5; i++ {
		resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/", nil))
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusNoContent, resp.StatusCode)
	}
}

func TestRateLimiterStore_EvictsIdleClients(t *testing.T) {
	s := &rateLimiterStore{
		limiters: make(map[string]*limiterEntry),
		limit:    1,
		burst:    1,
		idle:     time.Minute,
	}
	start := time.Now()
	s.get("10.0.0.1", start)
	s.get("10.0.0.2", start.Add(2*time.Minute))

	assert.Len(t, s.limiters, 1)
	assert.Contains(t, s.limiters, "10.0.0.2")
}
