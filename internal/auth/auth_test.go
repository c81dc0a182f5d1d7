package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIssueAndValidate(t *testing.T) {
	s := NewService("secret")
	token, err := s.IssueToken("operator", time.Hour)
	require.NoError(t, err)

	subject, err := s.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "operator", subject)

	_, err = NewService("other").ValidateToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestExpiredToken(t *testing.T) {
	s := NewService("secret")
	s.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	token, err := s.IssueToken("operator", time.Hour)
	require.NoError(t, err)

	s.now = time.Now
	_, err = s.ValidateToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestTokenWithoutExpiry(t *testing.T) {
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"sub": "x"}).SignedString([]byte("secret"))
	require.NoError(t, err)
	_, err = NewService("secret").ValidateToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestIssueRequiresSecretAndSubject(t *testing.T) {
	_, err := NewService("").IssueToken("x", time.Hour)
	assert.Error(t, err)
	_, err = NewService("secret").IssueToken("", time.Hour)
	assert.Error(t, err)
}

func TestAuthMiddleware(t *testing.T) {
	var subject string
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		subject = SubjectFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	})

	open := NewService("").AuthMiddleware(next)
	rr := httptest.NewRecorder()
	open.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/run-nzcvm", nil))
	assert.Equal(t, http.StatusOK, rr.Code)

	s := NewService("secret")
	guarded := s.AuthMiddleware(next)

	rr = httptest.NewRecorder()
	guarded.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/run-nzcvm", nil))
	assert.Equal(t, http.StatusUnauthorized, rr.Code)

	req := httptest.NewRequest(http.MethodPost, "/run-nzcvm", nil)
	req.Header.Set("Authorization", "Token abc")
	rr = httptest.NewRecorder()
	guarded.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
	assert.JSONEq(t, `{"error":"invalid authorization format"}`, rr.Body.String())

	token, err := s.IssueToken("ci", time.Minute)
	require.NoError(t, err)
	req = httptest.NewRequest(http.MethodPost, "/run-nzcvm", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rr = httptest.NewRecorder()
	guarded.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "ci", subject)
}
