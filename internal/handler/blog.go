package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/rachitkansal-dev/prayatak-backend/internal/model"
	"github.com/rachitkansal-dev/prayatak-backend/internal/repository"
	"github.com/rachitkansal-dev/prayatak-backend/internal/storage"
)

// BlogHandler serves blog posts, their comments and the like toggles.
type BlogHandler struct {
	Blogs    *repository.BlogRepo
	Comments *repository.CommentRepo
	Uploader storage.Uploader
}

func NewBlogHandler(b *repository.BlogRepo, cm *repository.CommentRepo, up storage.Uploader) *BlogHandler {
	return &BlogHandler{Blogs: b, Comments: cm, Uploader: up}
}

type commentReq struct {
	Body string `json:"body"`
}

// List returns all posts, most liked first. An optional q parameter
// filters by place, case-insensitive substring.
func (h *BlogHandler) List(c echo.Context) error {
	ctx, cancel := dbCtx(c)
	defer cancel()

	blogs, err := h.Blogs.List(ctx, strings.TrimSpace(c.QueryParam("q")))
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "query failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"blogs": blogs})
}

// Get returns one post together with its comments.
func (h *BlogHandler) Get(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid blog id"})
	}

	ctx, cancel := dbCtx(c)
	defer cancel()

	blog, err := h.Blogs.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrBlogNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"message": "Blog not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "query failed"})
	}
	comments, err := h.Comments.ListByBlog(ctx, id)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "query failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"blog": blog, "comments": comments})
}

// Create accepts a multipart form with title, place, body and an optional
// image file. The author fields come from the session, never the form.
func (h *BlogHandler) Create(c echo.Context) error {
	claims := sessionClaims(c)

	title := strings.TrimSpace(c.FormValue("title"))
	place := strings.TrimSpace(c.FormValue("place"))
	body := c.FormValue("body")
	if title == "" || body == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "title and body are required"})
	}

	image := uploadImage(c, h.Uploader, "image", "blogs")

	blog := model.Blog{
		Title:      title,
		Place:      place,
		Body:       body,
		Image:      image,
		AuthorName: claims.Name,
		AuthorID:   claims.UserID,
	}

	ctx, cancel := dbCtx(c)
	defer cancel()

	if err := h.Blogs.Create(ctx, &blog); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "create failed"})
	}
	return c.JSON(http.StatusCreated, echo.Map{"blog": blog})
}

// Edit updates title, body and optionally the image. Owner or admin only.
func (h *BlogHandler) Edit(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid blog id"})
	}
	claims := sessionClaims(c)

	title := strings.TrimSpace(c.FormValue("title"))
	body := c.FormValue("body")
	if title == "" || body == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "title and body are required"})
	}

	image := ""
	if fh, ferr := c.FormFile("image"); ferr == nil && fh != nil {
		image = uploadImage(c, h.Uploader, "image", "blogs")
	}

	ctx, cancel := dbCtx(c)
	defer cancel()

	if err := h.Blogs.Update(ctx, id, requesterFrom(claims), title, body, image); err != nil {
		switch {
		case errors.Is(err, repository.ErrBlogNotFound):
			return c.JSON(http.StatusNotFound, echo.Map{"message": "Blog not found"})
		case errors.Is(err, repository.ErrForbidden):
			return c.JSON(http.StatusForbidden, echo.Map{"message": "forbidden"})
		default:
			return c.JSON(http.StatusInternalServerError, echo.Map{"message": "update failed"})
		}
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "Blog updated"})
}

// Delete removes a post and every comment under it, including the edges on
// the commenting users' sides. Owner or admin only.
func (h *BlogHandler) Delete(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid blog id"})
	}

	ctx, cancel := dbCtx(c)
	defer cancel()

	if err := h.Blogs.DeleteCascade(ctx, id, requesterFrom(sessionClaims(c))); err != nil {
		switch {
		case errors.Is(err, repository.ErrBlogNotFound):
			return c.JSON(http.StatusNotFound, echo.Map{"message": "Blog not found"})
		case errors.Is(err, repository.ErrForbidden):
			return c.JSON(http.StatusForbidden, echo.Map{"message": "forbidden"})
		default:
			return c.JSON(http.StatusInternalServerError, echo.Map{"message": "delete failed"})
		}
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "Blog deleted"})
}

// CreateComment adds a comment under a post. The repository writes the
// comment row and both link edges in one transaction.
func (h *BlogHandler) CreateComment(c echo.Context) error {
	blogID, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid blog id"})
	}
	var req commentReq
	if err := c.Bind(&req); err != nil || strings.TrimSpace(req.Body) == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "body is required"})
	}
	claims := sessionClaims(c)

	cm := model.Comment{
		Body:       req.Body,
		AuthorName: claims.Name,
		AuthorID:   claims.UserID,
		BlogID:     blogID,
	}

	ctx, cancel := dbCtx(c)
	defer cancel()

	if err := h.Comments.Create(ctx, &cm); err != nil {
		if errors.Is(err, repository.ErrBlogNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"message": "Blog not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "create failed"})
	}
	return c.JSON(http.StatusCreated, echo.Map{"comment": cm})
}

// DeleteComment removes a comment from both the parent blog's set and the
// author's set before the row goes. Owner or admin only.
func (h *BlogHandler) DeleteComment(c echo.Context) error {
	commentID, err := pathID(c, "c_id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid comment id"})
	}

	ctx, cancel := dbCtx(c)
	defer cancel()

	if err := h.Comments.DeleteCascade(ctx, commentID, requesterFrom(sessionClaims(c))); err != nil {
		switch {
		case errors.Is(err, repository.ErrCommentNotFound):
			return c.JSON(http.StatusNotFound, echo.Map{"message": "Comment not found"})
		case errors.Is(err, repository.ErrForbidden):
			return c.JSON(http.StatusForbidden, echo.Map{"message": "forbidden"})
		default:
			return c.JSON(http.StatusInternalServerError, echo.Map{"message": "delete failed"})
		}
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "Comment deleted"})
}

// likeResult maps the toggle outcome onto a stable response.
func likeResult(c echo.Context, likes uint32, err error, notFound error, notFoundMsg string) error {
	switch {
	case err == nil:
		return c.JSON(http.StatusOK, echo.Map{"likes": likes})
	case errors.Is(err, repository.ErrAlreadyLiked):
		return c.JSON(http.StatusConflict, echo.Map{"message": "Already liked"})
	case errors.Is(err, repository.ErrNotLiked):
		return c.JSON(http.StatusConflict, echo.Map{"message": "Not liked"})
	case errors.Is(err, notFound):
		return c.JSON(http.StatusNotFound, echo.Map{"message": notFoundMsg})
	default:
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "like failed"})
	}
}

// LikeBlog adds the caller to the post's liker set; one like per user.
func (h *BlogHandler) LikeBlog(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid blog id"})
	}
	ctx, cancel := dbCtx(c)
	defer cancel()

	likes, err := h.Blogs.Like(ctx, id, sessionClaims(c).UserID)
	return likeResult(c, likes, err, repository.ErrBlogNotFound, "Blog not found")
}

// DislikeBlog removes the caller's like.
func (h *BlogHandler) DislikeBlog(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid blog id"})
	}
	ctx, cancel := dbCtx(c)
	defer cancel()

	likes, err := h.Blogs.Dislike(ctx, id, sessionClaims(c).UserID)
	return likeResult(c, likes, err, repository.ErrBlogNotFound, "Blog not found")
}

// LikeComment adds the caller to a comment's liker set.
func (h *BlogHandler) LikeComment(c echo.Context) error {
	id, err := pathID(c, "c_id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid comment id"})
	}
	ctx, cancel := dbCtx(c)
	defer cancel()

	likes, err := h.Comments.Like(ctx, id, sessionClaims(c).UserID)
	return likeResult(c, likes, err, repository.ErrCommentNotFound, "Comment not found")
}

// DislikeComment removes the caller's like from a comment.
func (h *BlogHandler) DislikeComment(c echo.Context) error {
	id, err := pathID(c, "c_id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid comment id"})
	}
	ctx, cancel := dbCtx(c)
	defer cancel()

	likes, err := h.Comments.Dislike(ctx, id, sessionClaims(c).UserID)
	return likeResult(c, likes, err, repository.ErrCommentNotFound, "Comment not found")
}
