package middleware

import (
    "net/http"
    "net/http/httptest"
    "testing"
    "time"

    "github.com/golang-jwt/jwt/v5"
    "github.com/labstack/echo/v4"
    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

func signToken(t *testing.T, secret, sub, role string) string {
    t.Helper()
    tok := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
        "sub":  sub,
        "role": role,
        "exp":  time.Now().Add(time.Hour).Unix(),
    })
    s, err := tok.SignedString([]byte(secret))
    require.NoError(t, err)
    return s
}

func runProtected(t *testing.T, token string, roles ...string) (*httptest.ResponseRecorder, echo.Context) {
    t.Helper()
    e := echo.New()
    req := httptest.NewRequest(http.MethodGet, "/", nil)
    if token != "" {
        req.Header.Set("Authorization", "Bearer "+token)
    }
    rec := httptest.NewRecorder()
    c := e.NewContext(req, rec)

    handler := func(c echo.Context) error { return c.NoContent(http.StatusOK) }
    wrapped := JWTAuth(testSecret)(handler)
    if len(roles) > 0 {
        wrapped = JWTAuth(testSecret)(RequireRole(roles...)(handler))
    }
    require.NoError(t, wrapped(c))
    return rec, c
}

func TestJWTAuthSetsClaims(t *testing.T) {
    rec, c := runProtected(t, signToken(t, testSecret, "u1", "CUSTOMER"))
    assert.Equal(t, http.StatusOK, rec.Code)
    assert.Equal(t, "u1", c.Get("user_id"))
    assert.Equal(t, "CUSTOMER", c.Get("role"))
}

func TestJWTAuthRejectsMissingOrBadTokens(t *testing.T) {
    rec, _ := runProtected(t, "")
    assert.Equal(t, http.StatusUnauthorized, rec.Code)

    rec, _ = runProtected(t, "not-a-token")
    assert.Equal(t, http.StatusUnauthorized, rec.Code)

    rec, _ = runProtected(t, signToken(t, "wrong-secret", "u1", "CUSTOMER"))
    assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRequireRole(t *testing.T) {
    rec, _ := runProtected(t, signToken(t, testSecret, "u1", "CUSTOMER"), "CUSTOMER", "PAYMENT")
    assert.Equal(t, http.StatusOK, rec.Code)

    rec, _ = runProtected(t, signToken(t, testSecret, "u1", "CUSTOMER"), "OWNER")
    assert.Equal(t, http.StatusForbidden, rec.Code)
}
