package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rachitkansal-dev/prayatak-backend/internal/session"
)

func runChain(t *testing.T, store session.Store, cookie string, admin bool) *httptest.ResponseRecorder {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if cookie != "" {
		req.AddCookie(&http.Cookie{Name: session.CookieName, Value: cookie})
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	ok := func(c echo.Context) error { return c.String(http.StatusOK, "ok") }
	h := RequireLogin(store)(ok)
	if admin {
		h = RequireLogin(store)(RequireAdmin()(ok))
	}
	require.NoError(t, h(c))
	return rec
}

func TestRequireLoginRejectsMissingCookie(t *testing.T) {
	rec := runChain(t, session.NewMemoryStore(), "", false)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRequireLoginRejectsUnknownSession(t *testing.T) {
	rec := runChain(t, session.NewMemoryStore(), "bogus", false)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRequireLoginPassesClaimsThrough(t *testing.T) {
	store := session.NewMemoryStore()
	sid, err := store.Create(context.Background(), session.Claims{UserID: 1, IsLogin: true})
	require.NoError(t, err)

	rec := runChain(t, store, sid, false)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRequireAdminRejectsRegularUser(t *testing.T) {
	store := session.NewMemoryStore()
	sid, err := store.Create(context.Background(), session.Claims{UserID: 1, IsLogin: true})
	require.NoError(t, err)

	rec := runChain(t, store, sid, true)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestRequireAdminAllowsAdmin(t *testing.T) {
	store := session.NewMemoryStore()
	sid, err := store.Create(context.Background(), session.Claims{UserID: 1, IsLogin: true, IsAdmin: true})
	require.NoError(t, err)

	rec := runChain(t, store, sid, true)
	assert.Equal(t, http.StatusOK, rec.Code)
}
