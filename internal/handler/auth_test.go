package handler

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"regexp"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/rachitkansal-dev/prayatak-backend/internal/config"
	"github.com/rachitkansal-dev/prayatak-backend/internal/model"
	"github.com/rachitkansal-dev/prayatak-backend/internal/queue"
	"github.com/rachitkansal-dev/prayatak-backend/internal/repository"
	"github.com/rachitkansal-dev/prayatak-backend/internal/session"
	"github.com/rachitkansal-dev/prayatak-backend/internal/utils"
)

// fakeDispatcher records outbound mail instead of sending it.
type fakeDispatcher struct {
	mu   sync.Mutex
	sent []queue.EmailRequestedEvent
}

func (f *fakeDispatcher) DispatchEmail(_ context.Context, ev queue.EmailRequestedEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, ev)
	return nil
}

func (f *fakeDispatcher) last() (queue.EmailRequestedEvent, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.sent) == 0 {
		return queue.EmailRequestedEvent{}, false
	}
	return f.sent[len(f.sent)-1], true
}

type authFixture struct {
	h        *AuthHandler
	mock     sqlmock.Sqlmock
	sessions *session.MemoryStore
	mail     *fakeDispatcher
}

func newAuthFixture(t *testing.T) authFixture {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	sessions := session.NewMemoryStore()
	mail := &fakeDispatcher{}
	cfg := config.Config{BcryptCost: bcrypt.MinCost, ResetBaseURL: "http://localhost:3000/reset-password"}
	h := NewAuthHandler(cfg, repository.NewUserRepo(db), repository.NewOTPRepo(db), sessions, mail)
	return authFixture{h: h, mock: mock, sessions: sessions, mail: mail}
}

func doJSON(t *testing.T, h echo.HandlerFunc, method, target, body string, setup func(echo.Context)) *httptest.ResponseRecorder {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	if setup != nil {
		setup(c)
	}
	require.NoError(t, h(c))
	return rec
}

func respMessage(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	msg, _ := body["message"].(string)
	return msg
}

func TestSignupConflictOnExistingEmail(t *testing.T) {
	f := newAuthFixture(t)

	f.mock.ExpectQuery("SELECT .* FROM users WHERE email").
		WithArgs("asha@example.com").
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "name", "email", "password_hash", "phone_number", "address",
			"is_admin", "reset_token", "reset_expires", "created_at", "updated_at",
		}).AddRow(1, "Asha", "asha@example.com", "h", "", "", false, nil, nil, time.Now(), time.Now()))

	rec := doJSON(t, f.h.Signup, http.MethodPost, "/signup",
		`{"name":"Asha","email":"asha@example.com","password":"secret1"}`, nil)

	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "User already registered", respMessage(t, rec))
	_, mailed := f.mail.last()
	assert.False(t, mailed, "no mail on conflict")
}

func TestSignupSendsOTPAndReturnsToken(t *testing.T) {
	f := newAuthFixture(t)

	f.mock.ExpectQuery("SELECT .* FROM users WHERE email").
		WithArgs("asha@example.com").
		WillReturnError(sql.ErrNoRows)
	f.mock.ExpectExec("INSERT INTO otp_challenges").
		WillReturnResult(sqlmock.NewResult(1, 1))

	rec := doJSON(t, f.h.Signup, http.MethodPost, "/signup",
		`{"name":"Asha","email":"ASHA@example.com","password":"secret1","phoneNumber":"123","address":"Goa"}`, nil)

	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	token, _ := body["token"].(string)
	assert.Len(t, token, 40)

	// The OTP travels only in the email, never in the response.
	ev, mailed := f.mail.last()
	require.True(t, mailed)
	assert.Equal(t, "asha@example.com", ev.To)
	otp := regexp.MustCompile(`\b\d{4}\b`).FindString(ev.Body)
	require.NotEmpty(t, otp, "mail must carry the code")
	assert.NotContains(t, rec.Body.String(), otp)
}

func challengeRow(t *testing.T, code string) *sqlmock.Rows {
	t.Helper()
	hash, err := utils.HashPassword("secret1", bcrypt.MinCost)
	require.NoError(t, err)
	payload, err := json.Marshal(model.PendingUser{
		Name: "Asha", Email: "asha@example.com", PasswordHash: hash,
		PhoneNumber: "123", Address: "Goa",
	})
	require.NoError(t, err)
	now := time.Now()
	return sqlmock.NewRows([]string{"id", "token", "otp_code", "payload", "expires_at", "created_at"}).
		AddRow(7, "tok", code, string(payload), now.Add(time.Hour), now)
}

func TestVerifyOTPCreatesUserAndSession(t *testing.T) {
	f := newAuthFixture(t)

	f.mock.ExpectQuery("SELECT .* FROM otp_challenges WHERE token=").
		WithArgs("tok", sqlmock.AnyArg()).
		WillReturnRows(challengeRow(t, "1234"))
	f.mock.ExpectExec("INSERT INTO users").
		WillReturnResult(sqlmock.NewResult(5, 1))
	f.mock.ExpectExec("DELETE FROM otp_challenges").
		WillReturnResult(sqlmock.NewResult(0, 1))

	rec := doJSON(t, f.h.VerifyOTP, http.MethodPost, "/otp-check/tok", `{"otp":"1234"}`,
		func(c echo.Context) { c.SetParamNames("token"); c.SetParamValues("tok") })

	require.Equal(t, http.StatusCreated, rec.Code)

	var claims claimsResp
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &claims))
	assert.Equal(t, uint64(5), claims.UserID)
	assert.Equal(t, "asha@example.com", claims.Email)

	// A session was opened for the new account.
	cookie := rec.Header().Get(echo.HeaderSetCookie)
	require.Contains(t, cookie, session.CookieName+"=")
	sid := strings.SplitN(strings.TrimPrefix(strings.SplitN(cookie, ";", 2)[0], session.CookieName+"="), ";", 2)[0]
	got, err := f.sessions.Get(context.Background(), sid)
	require.NoError(t, err)
	assert.True(t, got.IsLogin)
}

func TestVerifyOTPWrongCode(t *testing.T) {
	f := newAuthFixture(t)

	f.mock.ExpectQuery("SELECT .* FROM otp_challenges WHERE token=").
		WillReturnRows(challengeRow(t, "1234"))

	rec := doJSON(t, f.h.VerifyOTP, http.MethodPost, "/otp-check/tok", `{"otp":"9999"}`,
		func(c echo.Context) { c.SetParamNames("token"); c.SetParamValues("tok") })

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Invalid OTP", respMessage(t, rec))
}

func TestVerifyOTPConsumedTokenFails(t *testing.T) {
	f := newAuthFixture(t)

	// Consumed and expired tokens are both absent from the store's view.
	f.mock.ExpectQuery("SELECT .* FROM otp_challenges WHERE token=").
		WillReturnError(sql.ErrNoRows)

	rec := doJSON(t, f.h.VerifyOTP, http.MethodPost, "/otp-check/tok", `{"otp":"1234"}`,
		func(c echo.Context) { c.SetParamNames("token"); c.SetParamValues("tok") })

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Invalid or expired token", respMessage(t, rec))
}

func TestVerifyOTPReplayNeverMintsSecondAccount(t *testing.T) {
	f := newAuthFixture(t)

	// The unique index on users.email fires when a racing verification of
	// the same candidate already won; the replay must not create a user.
	f.mock.ExpectQuery("SELECT .* FROM otp_challenges WHERE token=").
		WillReturnRows(challengeRow(t, "1234"))
	f.mock.ExpectExec("INSERT INTO users").
		WillReturnError(sqlmockDuplicateErr{})
	f.mock.ExpectExec("DELETE FROM otp_challenges").
		WillReturnResult(sqlmock.NewResult(0, 1))

	rec := doJSON(t, f.h.VerifyOTP, http.MethodPost, "/otp-check/tok", `{"otp":"1234"}`,
		func(c echo.Context) { c.SetParamNames("token"); c.SetParamValues("tok") })

	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "User already registered", respMessage(t, rec))
}

type sqlmockDuplicateErr struct{}

func (sqlmockDuplicateErr) Error() string {
	return "Error 1062 (23000): Duplicate entry 'asha@example.com' for key 'users.uq_users_email'"
}

func TestLoginUnknownEmailAndWrongPasswordLookIdentical(t *testing.T) {
	f := newAuthFixture(t)

	f.mock.ExpectQuery("SELECT .* FROM users WHERE email").
		WithArgs("ghost@example.com").
		WillReturnError(sql.ErrNoRows)

	recUnknown := doJSON(t, f.h.Login, http.MethodPost, "/login",
		`{"email":"ghost@example.com","password":"whatever"}`, nil)

	hash, err := utils.HashPassword("right", bcrypt.MinCost)
	require.NoError(t, err)
	f.mock.ExpectQuery("SELECT .* FROM users WHERE email").
		WithArgs("asha@example.com").
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "name", "email", "password_hash", "phone_number", "address",
			"is_admin", "reset_token", "reset_expires", "created_at", "updated_at",
		}).AddRow(1, "Asha", "asha@example.com", hash, "", "", false, nil, nil, time.Now(), time.Now()))

	recWrong := doJSON(t, f.h.Login, http.MethodPost, "/login",
		`{"email":"asha@example.com","password":"wrong"}`, nil)

	assert.Equal(t, http.StatusUnauthorized, recUnknown.Code)
	assert.Equal(t, http.StatusUnauthorized, recWrong.Code)
	assert.Equal(t, recUnknown.Body.String(), recWrong.Body.String())
}

func TestLoginSuccessOpensSession(t *testing.T) {
	f := newAuthFixture(t)

	hash, err := utils.HashPassword("secret1", bcrypt.MinCost)
	require.NoError(t, err)
	f.mock.ExpectQuery("SELECT .* FROM users WHERE email").
		WithArgs("asha@example.com").
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "name", "email", "password_hash", "phone_number", "address",
			"is_admin", "reset_token", "reset_expires", "created_at", "updated_at",
		}).AddRow(1, "Asha", "asha@example.com", hash, "123", "Goa", true, nil, nil, time.Now(), time.Now()))

	rec := doJSON(t, f.h.Login, http.MethodPost, "/login",
		`{"email":"asha@example.com","password":"secret1"}`, nil)

	require.Equal(t, http.StatusOK, rec.Code)
	var claims claimsResp
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &claims))
	assert.True(t, claims.IsAdmin)
	assert.Contains(t, rec.Header().Get(echo.HeaderSetCookie), session.CookieName+"=")
}

func TestLogoutWithoutSessionIsStillSuccess(t *testing.T) {
	f := newAuthFixture(t)

	rec := doJSON(t, f.h.Logout, http.MethodPost, "/logout", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Logged out", respMessage(t, rec))
}

func TestForgotPasswordUnknownEmail(t *testing.T) {
	f := newAuthFixture(t)

	f.mock.ExpectQuery("SELECT .* FROM users WHERE email").
		WithArgs("ghost@example.com").
		WillReturnError(sql.ErrNoRows)

	rec := doJSON(t, f.h.ForgotPassword, http.MethodPost, "/forgot-password",
		`{"email":"ghost@example.com"}`, nil)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	_, mailed := f.mail.last()
	assert.False(t, mailed)
}

func TestForgotPasswordMailsResetLink(t *testing.T) {
	f := newAuthFixture(t)

	f.mock.ExpectQuery("SELECT .* FROM users WHERE email").
		WithArgs("asha@example.com").
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "name", "email", "password_hash", "phone_number", "address",
			"is_admin", "reset_token", "reset_expires", "created_at", "updated_at",
		}).AddRow(1, "Asha", "asha@example.com", "h", "", "", false, nil, nil, time.Now(), time.Now()))
	f.mock.ExpectExec("UPDATE users SET reset_token").
		WillReturnResult(sqlmock.NewResult(0, 1))

	rec := doJSON(t, f.h.ForgotPassword, http.MethodPost, "/forgot-password",
		`{"email":"asha@example.com"}`, nil)

	require.Equal(t, http.StatusOK, rec.Code)
	ev, mailed := f.mail.last()
	require.True(t, mailed)
	assert.Contains(t, ev.Body, "http://localhost:3000/reset-password/")
}

func TestResetPasswordExpiredTokenLeavesHashAlone(t *testing.T) {
	f := newAuthFixture(t)

	f.mock.ExpectQuery("SELECT .* FROM users WHERE reset_token").
		WithArgs("stale").
		WillReturnError(sql.ErrNoRows)
	// No UPDATE expectation: the hash must not change.

	rec := doJSON(t, f.h.ResetPassword, http.MethodPost, "/reset-password/stale",
		`{"password":"newpass"}`,
		func(c echo.Context) { c.SetParamNames("token"); c.SetParamValues("stale") })

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Invalid or expired token", respMessage(t, rec))
	assert.NoError(t, f.mock.ExpectationsWereMet())
}
