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

const testSecret = "test-secret"

func signToken(t *testing.T, method jwt.SigningMethod, key interface{}, claims Claims) string {
	t.Helper()
	s, err := jwt.NewWithClaims(method, claims).SignedString(key)
	require.NoError(t, err)
	return s
}

func validClaims() Claims {
	return Claims{
		Email: "ada@example.com",
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "user-1",
			Issuer:    "auth",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
}

func TestRequire(t *testing.T) {
	auth := NewAuthenticator(testSecret, "auth")

	var seen User
	handler := auth.Require(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		u, ok := UserFrom(r.Context())
		require.True(t, ok)
		seen = u
		w.WriteHeader(http.StatusNoContent)
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/posts", nil)
	req.Header.Set("Authorization", "Bearer "+signToken(t, jwt.SigningMethodHS256, []byte(testSecret), validClaims()))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, User{ID: "user-1", Email: "ada@example.com"}, seen)
}

func TestRequire_Rejects(t *testing.T) {
	auth := NewAuthenticator(testSecret, "auth")

	expired := validClaims()
	expired.ExpiresAt = jwt.NewNumericDate(time.Now().Add(-time.Minute))

	noSubject := validClaims()
	noSubject.Subject = ""

	otherIssuer := validClaims()
	otherIssuer.Issuer = "elsewhere"

	noExpiry := validClaims()
	noExpiry.ExpiresAt = nil

	tests := map[string]string{
		"missing header": "",
		"wrong scheme":   "Basic abc",
		"garbage":        "Bearer not-a-token",
		"wrong secret":   "Bearer " + signToken(t, jwt.SigningMethodHS256, []byte("other"), validClaims()),
		"wrong method":   "Bearer " + signToken(t, jwt.SigningMethodHS512, []byte(testSecret), validClaims()),
		"expired":        "Bearer " + signToken(t, jwt.SigningMethodHS256, []byte(testSecret), expired),
		"no subject":     "Bearer " + signToken(t, jwt.SigningMethodHS256, []byte(testSecret), noSubject),
		"other issuer":   "Bearer " + signToken(t, jwt.SigningMethodHS256, []byte(testSecret), otherIssuer),
		"no expiry":      "Bearer " + signToken(t, jwt.SigningMethodHS256, []byte(testSecret), noExpiry),
	}

	for name, header := range tests {
		t.Run(name, func(t *testing.T) {
			called := false
			handler := auth.Require(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				called = true
			}))

			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if header != "" {
				req.Header.Set("Authorization", header)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			assert.Equal(t, http.StatusUnauthorized, rec.Code)
			assert.False(t, called)
			assert.Contains(t, rec.Body.String(), `"error"`)
		})
	}
}

func TestUserFrom_Empty(t *testing.T) {
	_, ok := UserFrom(httptest.NewRequest(http.MethodGet, "/", nil).Context())
	assert.False(t, ok)
}
