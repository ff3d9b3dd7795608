package handler

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/rachitkansal-dev/prayatak-backend/internal/config"
	"github.com/rachitkansal-dev/prayatak-backend/internal/middleware"
	"github.com/rachitkansal-dev/prayatak-backend/internal/model"
	"github.com/rachitkansal-dev/prayatak-backend/internal/repository"
	"github.com/rachitkansal-dev/prayatak-backend/internal/session"
	"github.com/rachitkansal-dev/prayatak-backend/internal/utils"
)

// ProfileHandler serves the user's own profile, profile edits, the listings
// of a user's blogs and comments, the admin user list, and account deletion
// with its full cascade.
type ProfileHandler struct {
	Cfg      config.Config
	Users    *repository.UserRepo
	Blogs    *repository.BlogRepo
	Comments *repository.CommentRepo
	Sessions session.Store
}

func NewProfileHandler(cfg config.Config, u *repository.UserRepo, b *repository.BlogRepo, cm *repository.CommentRepo, s session.Store) *ProfileHandler {
	return &ProfileHandler{Cfg: cfg, Users: u, Blogs: b, Comments: cm, Sessions: s}
}

type updateProfileReq struct {
	Name        string `json:"name"`
	Password    string `json:"password"`
	PhoneNumber string `json:"phoneNumber"`
	Address     string `json:"address"`
}

type userResp struct {
	ID          uint64 `json:"_id"`
	Name        string `json:"name"`
	Email       string `json:"email"`
	PhoneNumber string `json:"phoneNumber"`
	Address     string `json:"address"`
	IsAdmin     bool   `json:"isAdmin"`
}

func toUserResp(u model.User) userResp {
	return userResp{
		ID:          u.ID,
		Name:        u.Name,
		Email:       u.Email,
		PhoneNumber: u.PhoneNumber,
		Address:     u.Address,
		IsAdmin:     u.IsAdmin,
	}
}

func pathID(c echo.Context, name string) (uint64, error) {
	return strconv.ParseUint(c.Param(name), 10, 64)
}

// Me returns the claims of the active session without touching the DB.
func (h *ProfileHandler) Me(c echo.Context) error {
	return c.JSON(http.StatusOK, toClaimsResp(sessionClaims(c)))
}

// Get returns a user's public profile.
func (h *ProfileHandler) Get(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid user id"})
	}

	ctx, cancel := dbCtx(c)
	defer cancel()

	u, err := h.Users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"message": "User not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "query failed"})
	}
	return c.JSON(http.StatusOK, toUserResp(u))
}

// Update applies a partial profile edit. Only the holder of the account or
// an admin may edit; a new password is re-hashed; when the subject edits
// themselves their session claims are refreshed in place so the cached
// identity never goes stale.
func (h *ProfileHandler) Update(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid user id"})
	}
	claims := sessionClaims(c)
	if claims.UserID != id && !claims.IsAdmin {
		return c.JSON(http.StatusForbidden, echo.Map{"message": "forbidden"})
	}

	var req updateProfileReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid body"})
	}

	ctx, cancel := dbCtx(c)
	defer cancel()

	u, err := h.Users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"message": "User not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "update failed"})
	}

	name := u.Name
	if strings.TrimSpace(req.Name) != "" {
		name = strings.TrimSpace(req.Name)
	}
	phone := u.PhoneNumber
	if req.PhoneNumber != "" {
		phone = req.PhoneNumber
	}
	address := u.Address
	if req.Address != "" {
		address = req.Address
	}
	hash := ""
	if req.Password != "" {
		hash, err = utils.HashPassword(req.Password, h.Cfg.BcryptCost)
		if err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"message": "update failed"})
		}
	}

	if err := h.Users.UpdateProfile(ctx, id, name, hash, phone, address); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "update failed"})
	}

	if claims.UserID == id {
		claims.Name = name
		claims.PhoneNumber = phone
		claims.Address = address
		if sid, ok := c.Get(middleware.SessionIDKey).(string); ok && sid != "" {
			_ = h.Sessions.Update(c.Request().Context(), sid, claims)
		}
	}

	u.Name, u.PhoneNumber, u.Address = name, phone, address
	return c.JSON(http.StatusOK, toUserResp(u))
}

// Delete removes an account and everything that hangs off it: comments,
// blogs with their comments, items and claims by the account's email, and
// finally the row itself. Every session of the subject is destroyed so the
// deleted identity cannot keep acting.
func (h *ProfileHandler) Delete(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid user id"})
	}
	claims := sessionClaims(c)

	ctx, cancel := dbCtx(c)
	defer cancel()

	if err := h.Users.DeleteCascade(ctx, id, requesterFrom(claims)); err != nil {
		switch {
		case errors.Is(err, repository.ErrForbidden):
			return c.JSON(http.StatusForbidden, echo.Map{"message": "forbidden"})
		case errors.Is(err, repository.ErrUserNotFound):
			return c.JSON(http.StatusNotFound, echo.Map{"message": "User not found"})
		default:
			return c.JSON(http.StatusInternalServerError, echo.Map{"message": "delete failed"})
		}
	}

	_ = h.Sessions.DestroyAllForUser(c.Request().Context(), id)
	if claims.UserID == id {
		clearSessionCookie(c)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "User deleted"})
}

// ListBlogs returns the blogs authored by a user, via the user_blogs edge.
func (h *ProfileHandler) ListBlogs(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid user id"})
	}

	ctx, cancel := dbCtx(c)
	defer cancel()

	blogs, err := h.Blogs.ListByUser(ctx, id)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "query failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"blogs": blogs})
}

// ListComments returns the comments a user wrote, each joined with its
// parent blog's title and image.
func (h *ProfileHandler) ListComments(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid user id"})
	}

	ctx, cancel := dbCtx(c)
	defer cancel()

	comments, err := h.Comments.ListByUser(ctx, id)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "query failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"comments": comments})
}

// ListUsers is the admin user directory.
func (h *ProfileHandler) ListUsers(c echo.Context) error {
	ctx, cancel := dbCtx(c)
	defer cancel()

	users, err := h.Users.List(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "query failed"})
	}
	out := make([]userResp, 0, len(users))
	for _, u := range users {
		out = append(out, toUserResp(u))
	}
	return c.JSON(http.StatusOK, echo.Map{"users": out})
}
