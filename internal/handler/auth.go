package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/rachitkansal-dev/prayatak-backend/internal/config"
	"github.com/rachitkansal-dev/prayatak-backend/internal/model"
	"github.com/rachitkansal-dev/prayatak-backend/internal/queue"
	"github.com/rachitkansal-dev/prayatak-backend/internal/repository"
	"github.com/rachitkansal-dev/prayatak-backend/internal/session"
	"github.com/rachitkansal-dev/prayatak-backend/internal/utils"
)

// challengeTTL is how long a signup OTP and a password-reset token stay valid.
const challengeTTL = time.Hour

// AuthHandler implements signup with email verification, login/logout and
// the password-reset flow.
type AuthHandler struct {
	Cfg      config.Config
	Users    *repository.UserRepo
	OTPs     *repository.OTPRepo
	Sessions session.Store
	Mail     queue.Dispatcher
}

func NewAuthHandler(cfg config.Config, u *repository.UserRepo, o *repository.OTPRepo, s session.Store, mail queue.Dispatcher) *AuthHandler {
	return &AuthHandler{Cfg: cfg, Users: u, OTPs: o, Sessions: s, Mail: mail}
}

// ----- DTOs -----

type signupReq struct {
	Name        string `json:"name"`
	Email       string `json:"email"`
	Password    string `json:"password"`
	PhoneNumber string `json:"phoneNumber"`
	Address     string `json:"address"`
}
type verifyReq struct {
	OTP string `json:"otp"`
}
type loginReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}
type forgotReq struct {
	Email string `json:"email"`
}
type resetReq struct {
	Password string `json:"password"`
}

// claimsResp is the public identity returned after verification and login.
type claimsResp struct {
	UserID      uint64 `json:"user_id"`
	Name        string `json:"name"`
	Email       string `json:"email"`
	PhoneNumber string `json:"phoneNumber"`
	Address     string `json:"address"`
	IsAdmin     bool   `json:"isAdmin"`
}

func toClaimsResp(c session.Claims) claimsResp {
	return claimsResp{
		UserID:      c.UserID,
		Name:        c.Name,
		Email:       c.Email,
		PhoneNumber: c.PhoneNumber,
		Address:     c.Address,
		IsAdmin:     c.IsAdmin,
	}
}

// Signup starts the verification flow: it never creates a user directly.
// The candidate (password already hashed) is parked in an OTP challenge,
// the 4-digit code goes out by email, and only the correlation token is
// returned to the caller.
func (h *AuthHandler) Signup(c echo.Context) error {
	var req signupReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid body"})
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" || req.Email == "" || req.Password == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "name, email and password are required"})
	}

	ctx, cancel := dbCtx(c)
	defer cancel()

	if _, err := h.Users.GetByEmail(ctx, req.Email); err == nil {
		return c.JSON(http.StatusConflict, echo.Map{"message": "User already registered"})
	} else if !errors.Is(err, repository.ErrUserNotFound) {
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "signup failed"})
	}

	hash, err := utils.HashPassword(req.Password, h.Cfg.BcryptCost)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "signup failed"})
	}
	otp, err := utils.NewOTP()
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "signup failed"})
	}
	token, err := utils.NewToken(20)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "signup failed"})
	}

	payload, err := json.Marshal(model.PendingUser{
		Name:         req.Name,
		Email:        req.Email,
		PasswordHash: hash,
		PhoneNumber:  req.PhoneNumber,
		Address:      req.Address,
	})
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "signup failed"})
	}

	ch := model.OTPChallenge{
		Token:     token,
		Code:      otp,
		Payload:   string(payload),
		ExpiresAt: time.Now().UTC().Add(challengeTTL),
	}
	if err := h.OTPs.Create(ctx, &ch); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "signup failed"})
	}

	body := fmt.Sprintf("Hi %s,\n\nYour verification code is %s. It expires in one hour.\n", req.Name, otp)
	dispatchMail(c.Request().Context(), h.Mail, req.Email, "Verify your email", body)

	// The OTP itself travels only by email.
	return c.JSON(http.StatusOK, echo.Map{
		"message": "OTP sent to your email",
		"token":   token,
	})
}

// VerifyOTP consumes a challenge: matching code creates the user, opens a
// session and deletes the challenge. A consumed or expired token can never
// mint a second account; the unique index on users.email backstops replays
// that race past the challenge lookup.
func (h *AuthHandler) VerifyOTP(c echo.Context) error {
	token := c.Param("token")
	var req verifyReq
	if err := c.Bind(&req); err != nil || strings.TrimSpace(req.OTP) == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "otp is required"})
	}

	ctx, cancel := dbCtx(c)
	defer cancel()

	ch, err := h.OTPs.GetActiveByToken(ctx, token)
	if err != nil {
		if errors.Is(err, repository.ErrOTPNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"message": "Invalid or expired token"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "verification failed"})
	}

	if !utils.EqualOTP(ch.Code, strings.TrimSpace(req.OTP)) {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "Invalid OTP"})
	}

	var cand model.PendingUser
	if err := json.Unmarshal([]byte(ch.Payload), &cand); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "verification failed"})
	}

	u := model.User{
		Name:         cand.Name,
		Email:        cand.Email,
		PasswordHash: cand.PasswordHash,
		PhoneNumber:  cand.PhoneNumber,
		Address:      cand.Address,
	}
	uid, err := h.Users.Create(ctx, &u)
	if err != nil {
		if errors.Is(err, repository.ErrEmailExists) {
			// Somebody completed verification for this email already.
			_ = h.OTPs.Delete(ctx, ch.ID)
			return c.JSON(http.StatusConflict, echo.Map{"message": "User already registered"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "verification failed"})
	}

	claims := session.Claims{
		UserID:      uid,
		Name:        u.Name,
		Email:       u.Email,
		PhoneNumber: u.PhoneNumber,
		Address:     u.Address,
		IsAdmin:     false,
		IsLogin:     true,
	}
	sid, err := h.Sessions.Create(c.Request().Context(), claims)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "verification failed"})
	}
	setSessionCookie(c, sid)

	// Challenge is single-use. Best effort: the row is inert once a user
	// with its email exists.
	_ = h.OTPs.Delete(ctx, ch.ID)

	return c.JSON(http.StatusCreated, toClaimsResp(claims))
}

// Login checks credentials and opens a session. Unknown email and wrong
// password produce the same response, no account enumeration.
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid body"})
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if req.Email == "" || req.Password == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "email and password are required"})
	}

	ctx, cancel := dbCtx(c)
	defer cancel()

	u, err := h.Users.GetByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return c.JSON(http.StatusUnauthorized, echo.Map{"message": "Invalid credentials"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "login failed"})
	}
	if !utils.VerifyPassword(u.PasswordHash, req.Password) {
		return c.JSON(http.StatusUnauthorized, echo.Map{"message": "Invalid credentials"})
	}

	claims := session.Claims{
		UserID:      u.ID,
		Name:        u.Name,
		Email:       u.Email,
		PhoneNumber: u.PhoneNumber,
		Address:     u.Address,
		IsAdmin:     u.IsAdmin,
		IsLogin:     true,
	}
	sid, err := h.Sessions.Create(c.Request().Context(), claims)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "login failed"})
	}
	setSessionCookie(c, sid)

	return c.JSON(http.StatusOK, toClaimsResp(claims))
}

// Logout destroys the current session if there is one. Calling it without
// a session is still a success; logout is idempotent from the caller's
// point of view.
func (h *AuthHandler) Logout(c echo.Context) error {
	if cookie, err := c.Cookie(session.CookieName); err == nil && cookie.Value != "" {
		_ = h.Sessions.Destroy(c.Request().Context(), cookie.Value)
	}
	clearSessionCookie(c)
	return c.JSON(http.StatusOK, echo.Map{"message": "Logged out"})
}

// ForgotPassword stores a reset token on the user and mails a reset link.
// Unknown emails get a 404; that leaks account existence and is kept
// deliberately, the frontend tells the visitor to sign up instead.
func (h *AuthHandler) ForgotPassword(c echo.Context) error {
	var req forgotReq
	if err := c.Bind(&req); err != nil || strings.TrimSpace(req.Email) == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "email is required"})
	}
	email := strings.ToLower(strings.TrimSpace(req.Email))

	ctx, cancel := dbCtx(c)
	defer cancel()

	token, err := utils.NewToken(20)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "request failed"})
	}
	u, err := h.Users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"message": "User not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "request failed"})
	}
	if err := h.Users.SetResetToken(ctx, email, token, time.Now().UTC().Add(challengeTTL)); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "request failed"})
	}

	link := strings.TrimRight(h.Cfg.ResetBaseURL, "/") + "/" + token
	body := fmt.Sprintf("Hi %s,\n\nReset your password using the link below. It expires in one hour.\n\n%s\n", u.Name, link)
	dispatchMail(c.Request().Context(), h.Mail, email, "Reset your password", body)

	return c.JSON(http.StatusOK, echo.Map{"message": "Reset link sent to your email"})
}

// ResetPassword replaces the hash and clears the token and its expiry in
// one statement, so a half-cleared reset state cannot exist.
func (h *AuthHandler) ResetPassword(c echo.Context) error {
	token := c.Param("token")
	var req resetReq
	if err := c.Bind(&req); err != nil || req.Password == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "password is required"})
	}

	ctx, cancel := dbCtx(c)
	defer cancel()

	u, err := h.Users.GetByResetToken(ctx, token)
	if err != nil {
		if errors.Is(err, repository.ErrTokenInvalid) {
			return c.JSON(http.StatusBadRequest, echo.Map{"message": "Invalid or expired token"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "reset failed"})
	}

	hash, err := utils.HashPassword(req.Password, h.Cfg.BcryptCost)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "reset failed"})
	}
	if err := h.Users.ResetPassword(ctx, u.ID, hash); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "reset failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "Password updated"})
}
