package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func serveAdmin(t *testing.T, secret, authHeader string) (*httptest.ResponseRecorder, bool) {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/admin/location", nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	rec := httptest.NewRecorder()
	called := false
	AdminJWT(secret)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		claims, ok := AdminClaimsFromContext(r.Context())
		assert.True(t, ok)
		assert.Equal(t, "operator", claims.Subject)
		w.WriteHeader(http.StatusOK)
	})).ServeHTTP(rec, req)
	return rec, called
}

func validClaims() jwt.RegisteredClaims {
	return jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(time.Now().Add(5 * time.Minute))}
}

func TestAdminJWTMissingSecret(t *testing.T) {
	rec, called := serveAdmin(t, "", "Bearer whatever")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.False(t, called)
}

func TestAdminJWTMissingHeader(t *testing.T) {
	rec, called := serveAdmin(t, "secret", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.False(t, called)
}

func TestAdminJWTWrongSecret(t *testing.T) {
	token, err := SignAdminToken("wrong", "operator", validClaims())
	require.NoError(t, err)

	rec, called := serveAdmin(t, "secret", "Bearer "+token)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.False(t, called)
}

func TestAdminJWTExpired(t *testing.T) {
	token, err := SignAdminToken("secret", "operator", jwt.RegisteredClaims{
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute)),
	})
	require.NoError(t, err)

	rec, _ := serveAdmin(t, "secret", "Bearer "+token)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAdminJWTRequiresExpiry(t *testing.T) {
	token, err := SignAdminToken("secret", "operator", jwt.RegisteredClaims{})
	require.NoError(t, err)

	rec, _ := serveAdmin(t, "secret", "Bearer "+token)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAdminJWTRequiresAdminRole(t *testing.T) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, AdminClaims{Role: "viewer", RegisteredClaims: validClaims()})
	signed, err := token.SignedString([]byte("secret"))
	require.NoError(t, err)

	rec, called := serveAdmin(t, "secret", "Bearer "+signed)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.False(t, called)
}

func TestAdminJWTValidToken(t *testing.T) {
	token, err := SignAdminToken("secret", "operator", validClaims())
	require.NoError(t, err)

	rec, called := serveAdmin(t, "secret", "Bearer "+token)
	assert.True(t, called)
	assert.Equal(t, http.StatusOK, rec.Code)
}
