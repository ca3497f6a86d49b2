package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/food-journal-api/internal/service"
)

type authFunc func(ctx context.Context, token string) (uint64, error)

func (f authFunc) Authenticate(ctx context.Context, token string) (uint64, error) { return f(ctx, token) }

func serve(t *testing.T, auth Authenticator, header string) (*httptest.ResponseRecorder, echo.Context) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if header != "" {
		req.Header.Set(echo.HeaderAuthorization, header)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	h := BearerAuth(auth, time.Second)(func(c echo.Context) error {
		return c.NoContent(http.StatusNoContent)
	})
	require.NoError(t, h(c))
	return rec, c
}

func TestBearerAuth_MissingOrMalformedHeader(t *testing.T) {
	called := false
	auth := authFunc(func(context.Context, string) (uint64, error) {
		called = true
		return 1, nil
	})

	for _, h := range []string{"", "Bearer", "Bearer   ", "Basic abc", "token"} {
		rec, _ := serve(t, auth, h)
		assert.Equal(t, http.StatusForbidden, rec.Code, h)
		assert.JSONEq(t, `{"detail":"Not authenticated"}`, rec.Body.String())
	}
	assert.False(t, called)
}

func TestBearerAuth_Success(t *testing.T) {
	auth := authFunc(func(_ context.Context, token string) (uint64, error) {
		assert.Equal(t, "abc.def.ghi", token)
		return 42, nil
	})

	rec, c := serve(t, auth, "Bearer abc.def.ghi")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	uid, ok := UserID(c)
	assert.True(t, ok)
	assert.Equal(t, uint64(42), uid)
	tok, ok := AccessToken(c)
	assert.True(t, ok)
	assert.Equal(t, "abc.def.ghi", tok)
	assert.Equal(t, "42", userLabel(c))
}

func TestBearerAuth_Rejected(t *testing.T) {
	auth := authFunc(func(context.Context, string) (uint64, error) {
		return 0, &service.Error{Kind: service.KindUnauthorized, Message: service.MsgTokenRevoked}
	})

	rec, c := serve(t, auth, "Bearer tok")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Bearer", rec.Header().Get(echo.HeaderWWWAuthenticate))
	assert.JSONEq(t, `{"detail":"`+service.MsgTokenRevoked+`"}`, rec.Body.String())
	assert.Equal(t, "guest", userLabel(c))
}

func TestBearerAuth_StoreFailure(t *testing.T) {
	auth := authFunc(func(context.Context, string) (uint64, error) {
		return 0, errors.New("db down")
	})

	rec, _ := serve(t, auth, "Bearer tok")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Empty(t, rec.Header().Get(echo.HeaderWWWAuthenticate))
}

func TestBearerToken_StoresRawToken(t *testing.T) {
	e := echo.New()
	h := BearerToken()(func(c echo.Context) error {
		return c.NoContent(http.StatusNoContent)
	})

	req := httptest.NewRequest(http.MethodPost, "/", nil)
	req.Header.Set(echo.HeaderAuthorization, "bearer  expired.or.revoked ")
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	require.NoError(t, h(c))

	assert.Equal(t, http.StatusNoContent, rec.Code)
	tok, ok := AccessToken(c)
	assert.True(t, ok)
	assert.Equal(t, "expired.or.revoked", tok)
	_, ok = UserID(c)
	assert.False(t, ok)
}

func TestBearerToken_MissingHeader(t *testing.T) {
	e := echo.New()
	h := BearerToken()(func(c echo.Context) error {
		t.Fatal("next handler must not run")
		return nil
	})

	for _, header := range []string{"", "Bearer ", "Basic abc"} {
		req := httptest.NewRequest(http.MethodPost, "/", nil)
		if header != "" {
			req.Header.Set(echo.HeaderAuthorization, header)
		}
		rec := httptest.NewRecorder()
		require.NoError(t, h(e.NewContext(req, rec)))
		assert.Equal(t, http.StatusForbidden, rec.Code, header)
		assert.JSONEq(t, `{"detail":"Not authenticated"}`, rec.Body.String())
	}
}
