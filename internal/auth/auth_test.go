package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestHashAndVerifyPIN(t *testing.T) {
	encoded, err := HashPIN("4321")
	require.NoError(t, err)
	assert.True(t, IsHashed(encoded))

	ok, err := VerifyPIN(encoded, "4321")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = VerifyPIN(encoded, "1234")
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = VerifyPIN("plain", "1234")
	assert.Error(t, err)
}

func newService(t *testing.T) *Service {
	t.Helper()
	s, err := NewService("4321", "test-secret", time.Hour, zap.NewNop())
	require.NoError(t, err)
	return s
}

func TestNewServiceRequiresPIN(t *testing.T) {
	_, err := NewService("", "secret", 0, zap.NewNop())
	assert.Error(t, err)
}

func TestNewServiceAcceptsHashedPIN(t *testing.T) {
	encoded, err := HashPIN("9999")
	require.NoError(t, err)

	s, err := NewService(encoded, "", 0, zap.NewNop())
	require.NoError(t, err)
	assert.Equal(t, DefaultTTL, s.ttl)

	_, _, err = s.Login("9999")
	assert.NoError(t, err)
}

func TestLoginAndVerify(t *testing.T) {
	s := newService(t)

	token, exp, err := s.Login("4321")
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Hour), exp, 5*time.Second)

	claims, err := s.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, RoleParent, claims.Role)

	_, _, err = s.Login("0000")
	assert.ErrorIs(t, err, ErrInvalidPIN)
}

func TestVerifyExpired(t *testing.T) {
	s := newService(t)
	token, _, err := s.Login("4321")
	require.NoError(t, err)

	s.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	_, err = s.Verify(token)
	assert.ErrorIs(t, err, ErrTokenExpired)
}

func TestVerifyRejectsForeignSignature(t *testing.T) {
	s := newService(t)
	other, err := NewService("4321", "another-secret", time.Hour, zap.NewNop())
	require.NoError(t, err)

	token, _, err := other.Login("4321")
	require.NoError(t, err)
	_, err = s.Verify(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerifyRejectsNoneAlgorithm(t *testing.T) {
	s := newService(t)
	token, err := jwt.NewWithClaims(jwt.SigningMethodNone, &Claims{Role: RoleParent}).
		SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = s.Verify(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	s := newService(t)
	token, _, err := s.Login("4321")
	require.NoError(t, err)

	r := gin.New()
	r.GET("/secret", Middleware(s, zap.NewNop()), func(c *gin.Context) {
		claims := c.MustGet(ClaimsKey).(*Claims)
		c.String(http.StatusOK, claims.Role)
	})

	cases := []struct {
		name   string
		url    string
		header string
		code   int
	}{
		{"missing", "/secret", "", http.StatusUnauthorized},
		{"malformed", "/secret", "Token abc", http.StatusUnauthorized},
		{"garbage", "/secret", "Bearer abc", http.StatusUnauthorized},
		{"header", "/secret", "Bearer " + token, http.StatusOK},
		{"query", "/secret?token=" + token, "", http.StatusOK},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tc.url, nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)
			assert.Equal(t, tc.code, w.Code)
		})
	}
}
