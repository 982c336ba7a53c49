package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"

	"github.com/avetisk/civic-voice/internal/model"
)

const testSecret = "mw-test-secret"

func signToken(t *testing.T, secret string, claims jwt.MapClaims) string {
	t.Helper()
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	s, err := tok.SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	return s
}

func validClaims() jwt.MapClaims {
	now := time.Now().UTC()
	return jwt.MapClaims{
		"sub":  uint64(7),
		"name": "alice",
		"role": string(model.RoleRegular),
		"jti":  "test-jti",
		"iat":  now.Unix(),
		"exp":  now.Add(15 * time.Minute).Unix(),
	}
}

func invoke(t *testing.T, authHeader string) (*httptest.ResponseRecorder, echo.Context) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/v1/me", nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	handler := JWTAuth(testSecret)(func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	})
	if err := handler(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	return rec, c
}

func TestJWTAuthInjectsTypedClaims(t *testing.T) {
	tok := signToken(t, testSecret, validClaims())
	rec, c := invoke(t, "Bearer "+tok)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if uid, ok := c.Get("user_id").(uint64); !ok || uid != 7 {
		t.Fatalf("user_id = %v", c.Get("user_id"))
	}
	if role, ok := c.Get("role").(model.Role); !ok || role != model.RoleRegular {
		t.Fatalf("role = %v", c.Get("role"))
	}
	if name, ok := c.Get("username").(string); !ok || name != "alice" {
		t.Fatalf("username = %v", c.Get("username"))
	}
}

func TestJWTAuthRejectsMissingBearer(t *testing.T) {
	rec, _ := invoke(t, "")
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
}

func TestJWTAuthRejectsWrongSecret(t *testing.T) {
	tok := signToken(t, "some-other-secret", validClaims())
	rec, _ := invoke(t, "Bearer "+tok)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
}

func TestJWTAuthRejectsExpiredToken(t *testing.T) {
	claims := validClaims()
	claims["exp"] = time.Now().UTC().Add(-time.Minute).Unix()
	tok := signToken(t, testSecret, claims)
	rec, _ := invoke(t, "Bearer "+tok)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
}

func TestJWTAuthRejectsUnknownRole(t *testing.T) {
	claims := validClaims()
	claims["role"] = "SUPERUSER"
	tok := signToken(t, testSecret, claims)
	rec, _ := invoke(t, "Bearer "+tok)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
}

func TestRequireRole(t *testing.T) {
	cases := []struct {
		name string
		role interface{}
		want int
	}{
		{"allowed role", model.RoleModerator, http.StatusOK},
		{"denied role", model.RoleRegular, http.StatusForbidden},
		{"missing role", nil, http.StatusForbidden},
		{"wrong type", "MODERATOR", http.StatusForbidden},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			e := echo.New()
			req := httptest.NewRequest(http.MethodPost, "/v1/notices", nil)
			rec := httptest.NewRecorder()
			c := e.NewContext(req, rec)
			if tc.role != nil {
				c.Set("role", tc.role)
			}

			handler := RequireRole(model.RoleModerator, model.RoleAdmin)(func(c echo.Context) error {
				return c.NoContent(http.StatusOK)
			})
			if err := handler(c); err != nil {
				t.Fatalf("handler error: %v", err)
			}
			if rec.Code != tc.want {
				t.Fatalf("status = %d, want %d", rec.Code, tc.want)
			}
		})
	}
}
