package handler

import (
	"database/sql"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/rachitkansal-dev/prayatak-backend/internal/model"
	"github.com/rachitkansal-dev/prayatak-backend/internal/repository"
	"github.com/rachitkansal-dev/prayatak-backend/internal/storage"
)

// ItemHandler serves the lost-and-found tracker: item reports, browsing
// and filtering, claim requests, and the admin review surface. Items are
// tied to their reporter by contact email, claims to items by a plain
// string id; neither link is enforced by the schema.
type ItemHandler struct {
	Items    *repository.ItemRepo
	Uploader storage.Uploader
}

func NewItemHandler(i *repository.ItemRepo, up storage.Uploader) *ItemHandler {
	return &ItemHandler{Items: i, Uploader: up}
}

type claimReq struct {
	ItemID      string `json:"id"`
	Description string `json:"description"`
	Phone       string `json:"phone"`
}

// CreateItem files a lost or found report from a multipart form. Reporter
// name and email come from the session.
func (h *ItemHandler) CreateItem(c echo.Context) error {
	claims := sessionClaims(c)

	landf := strings.ToLower(strings.TrimSpace(c.FormValue("landf")))
	if landf != "lost" && landf != "found" {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "landf must be lost or found"})
	}
	title := strings.TrimSpace(c.FormValue("title"))
	if title == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "title is required"})
	}

	var happened model.Date
	if raw := strings.TrimSpace(c.FormValue("date")); raw != "" {
		t, err := time.Parse("2006-01-02", raw)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"message": "date must be YYYY-MM-DD"})
		}
		happened = model.Date{NullTime: sql.NullTime{Time: t, Valid: true}}
	}

	item := model.Item{
		Landf:       landf,
		Title:       title,
		Type:        strings.TrimSpace(c.FormValue("type")),
		Description: c.FormValue("description"),
		Location:    strings.TrimSpace(c.FormValue("location")),
		HappenedOn:  happened,
		Photo:       uploadImage(c, h.Uploader, "photo", "items"),
		Contact:     strings.TrimSpace(c.FormValue("contact")),
		Name:        claims.Name,
		Email:       claims.Email,
	}

	ctx, cancel := dbCtx(c)
	defer cancel()

	if err := h.Items.CreateItem(ctx, &item); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "create failed"})
	}
	return c.JSON(http.StatusCreated, echo.Map{"item": item})
}

// ListItems returns every report, newest first.
func (h *ItemHandler) ListItems(c echo.Context) error {
	ctx, cancel := dbCtx(c)
	defer cancel()

	items, err := h.Items.SearchItems(ctx, repository.ItemFilter{})
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "query failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}

// GetItem returns a single report by id.
func (h *ItemHandler) GetItem(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid item id"})
	}

	ctx, cancel := dbCtx(c)
	defer cancel()

	item, err := h.Items.GetItemByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrItemNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"message": "Item not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "query failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"item": item})
}

// ListByType filters reports by item type.
func (h *ItemHandler) ListByType(c echo.Context) error {
	return h.search(c, repository.ItemFilter{Type: c.Param("id")})
}

// ListByLocation filters reports by location.
func (h *ItemHandler) ListByLocation(c echo.Context) error {
	return h.search(c, repository.ItemFilter{Location: c.Param("id")})
}

// Search combines type, location and lost/found filters from the query
// string; all are case-insensitive substrings.
func (h *ItemHandler) Search(c echo.Context) error {
	return h.search(c, repository.ItemFilter{
		Type:     strings.TrimSpace(c.QueryParam("type")),
		Location: strings.TrimSpace(c.QueryParam("location")),
		Landf:    strings.TrimSpace(c.QueryParam("landf")),
	})
}

func (h *ItemHandler) search(c echo.Context, f repository.ItemFilter) error {
	ctx, cancel := dbCtx(c)
	defer cancel()

	items, err := h.Items.SearchItems(ctx, f)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "query failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}

// MyLostItems lists the caller's lost reports, matched by session email.
func (h *ItemHandler) MyLostItems(c echo.Context) error {
	return h.listMine(c, "lost")
}

// MyFoundItems lists the caller's found reports.
func (h *ItemHandler) MyFoundItems(c echo.Context) error {
	return h.listMine(c, "found")
}

func (h *ItemHandler) listMine(c echo.Context, landf string) error {
	ctx, cancel := dbCtx(c)
	defer cancel()

	items, err := h.Items.ListItemsByEmailAndKind(ctx, sessionClaims(c).Email, landf)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "query failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}

// AdminLostItems lists every lost report for moderation.
func (h *ItemHandler) AdminLostItems(c echo.Context) error {
	return h.listKind(c, "lost")
}

// AdminFoundItems lists every found report for moderation.
func (h *ItemHandler) AdminFoundItems(c echo.Context) error {
	return h.listKind(c, "found")
}

func (h *ItemHandler) listKind(c echo.Context, landf string) error {
	ctx, cancel := dbCtx(c)
	defer cancel()

	items, err := h.Items.ListItemsByKind(ctx, landf)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "query failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}

// DeleteItem removes a report and every claim pointing at it. Admin only;
// the route also runs during the user-delete cascade via the repository.
func (h *ItemHandler) DeleteItem(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid item id"})
	}

	ctx, cancel := dbCtx(c)
	defer cancel()

	if err := h.Items.DeleteItemCascade(ctx, id); err != nil {
		if errors.Is(err, repository.ErrItemNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"message": "Item not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "delete failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "Item deleted"})
}

// CreateClaim files a claim against an item id. The id is stored as given;
// an item deleted later leaves the claim dangling, which readers tolerate.
func (h *ItemHandler) CreateClaim(c echo.Context) error {
	var req claimReq
	if err := c.Bind(&req); err != nil || strings.TrimSpace(req.ItemID) == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "item id is required"})
	}

	claim := model.Claim{
		ItemID:      strings.TrimSpace(req.ItemID),
		Email:       sessionClaims(c).Email,
		Description: req.Description,
		Phone:       req.Phone,
	}

	ctx, cancel := dbCtx(c)
	defer cancel()

	if err := h.Items.CreateClaim(ctx, &claim); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "create failed"})
	}
	return c.JSON(http.StatusCreated, echo.Map{"claim": claim})
}

// MyClaims lists the claims the caller submitted.
func (h *ItemHandler) MyClaims(c echo.Context) error {
	ctx, cancel := dbCtx(c)
	defer cancel()

	claims, err := h.Items.ListClaimsByEmail(ctx, sessionClaims(c).Email)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "query failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"claims": claims})
}

// DeleteClaim removes a claim. The claimant may withdraw their own claim;
// admins may remove any.
func (h *ItemHandler) DeleteClaim(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid claim id"})
	}
	claims := sessionClaims(c)

	ctx, cancel := dbCtx(c)
	defer cancel()

	if !claims.IsAdmin {
		mine, err := h.Items.ListClaimsByEmail(ctx, claims.Email)
		if err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"message": "delete failed"})
		}
		owned := false
		for _, cl := range mine {
			if cl.ID == id {
				owned = true
				break
			}
		}
		if !owned {
			return c.JSON(http.StatusForbidden, echo.Map{"message": "forbidden"})
		}
	}

	if err := h.Items.DeleteClaim(ctx, id); err != nil {
		if errors.Is(err, repository.ErrClaimNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"message": "Claim not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "delete failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "Claim deleted"})
}

// ListAllClaims returns every claim on record.
func (h *ItemHandler) ListAllClaims(c echo.Context) error {
	ctx, cancel := dbCtx(c)
	defer cancel()

	claims, err := h.Items.ListClaims(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "query failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"claims": claims})
}

type wallCommentReq struct {
	Username string `json:"username"`
	Body     string `json:"commentText"`
}

// AddWallComment posts an anonymous note to the comment wall. No session
// is required; the username is whatever the poster typed.
func (h *ItemHandler) AddWallComment(c echo.Context) error {
	var req wallCommentReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "Username and comment text are required."})
	}
	req.Username = strings.TrimSpace(req.Username)
	req.Body = strings.TrimSpace(req.Body)
	if req.Username == "" || req.Body == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "Username and comment text are required."})
	}

	ctx, cancel := dbCtx(c)
	defer cancel()

	cm := model.WallComment{Username: req.Username, Body: req.Body}
	if err := h.Items.CreateWallComment(ctx, &cm); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "create failed"})
	}
	return c.JSON(http.StatusCreated, echo.Map{"message": "Comment posted successfully", "comment": cm})
}

// ListWallComments returns the whole wall, newest first.
func (h *ItemHandler) ListWallComments(c echo.Context) error {
	ctx, cancel := dbCtx(c)
	defer cancel()

	out, err := h.Items.ListWallComments(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "query failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"comments": out})
}

// AdminClaimRequests returns every claim joined with its item for review.
// Claims whose item is gone come back with a null item rather than being
// hidden or erroring.
func (h *ItemHandler) AdminClaimRequests(c echo.Context) error {
	ctx, cancel := dbCtx(c)
	defer cancel()

	out, err := h.Items.ListClaimsWithItems(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "query failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"claimRequests": out})
}
